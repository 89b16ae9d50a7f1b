package models

import "testing"

func TestDisplayName(t *testing.T) {
	cases := map[string]string{
		"maria.silva@plant.test": "Maria.silva",
		"Joao@plant.test":        "Joao",
		"ops":                    "Ops",
		"@plant.test":            "",
		"":                       "",
	}
	for email, want := range cases {
		if got := (User{Email: email}).DisplayName(); got != want {
			t.Errorf("DisplayName(%q) = %q, want %q", email, got, want)
		}
	}
}
