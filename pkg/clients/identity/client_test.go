package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mamadbah2/shiftboard/internal/config"
)

func TestSignInWithPassword(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/accounts:signInWithPassword" || r.URL.Query().Get("key") != "k" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		if body["password"] != "secret" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"code":400,"message":"INVALID_PASSWORD"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"localId":"u1","email":"ana@plant.test"}`))
	}))
	defer srv.Close()

	c := NewClient(config.IdentityConfig{APIKey: "k", BaseURL: srv.URL})

	acc, err := c.SignInWithPassword(context.Background(), "ana@plant.test", "secret")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if acc.LocalID != "u1" || acc.Email != "ana@plant.test" {
		t.Errorf("unexpected account %+v", acc)
	}

	if _, err := c.SignInWithPassword(context.Background(), "ana@plant.test", "wrong"); !errors.Is(err, ErrRejected) {
		t.Errorf("expected ErrRejected, got %v", err)
	}
}

func TestSignInProviderFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(config.IdentityConfig{APIKey: "k", BaseURL: srv.URL})
	_, err := c.SignInWithPassword(context.Background(), "a@b.c", "x")
	if err == nil || errors.Is(err, ErrRejected) {
		t.Errorf("provider outage must not look like a rejection, got %v", err)
	}
}
