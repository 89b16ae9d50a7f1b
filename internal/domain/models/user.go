package models

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// User is the signed-in operator.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// DisplayName returns the local part of the email with its first letter upper-cased.
func (u User) DisplayName() string {
	local, _, _ := strings.Cut(u.Email, "@")
	if local == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(local)
	return string(unicode.ToUpper(r)) + local[size:]
}
