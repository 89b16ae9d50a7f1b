package whatsapp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mamadbah2/shiftboard/internal/config"
)

func TestSendDocumentUploadsThenSends(t *testing.T) {
	var sent map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v19.0/123/media":
			if r.FormValue("messaging_product") != "whatsapp" {
				t.Errorf("missing messaging_product form value")
			}
			_, _ = w.Write([]byte(`{"id":"media-1"}`))
		case "/v19.0/123/messages":
			if got := r.Header.Get("Authorization"); got != "Bearer tok" {
				t.Errorf("authorization = %q", got)
			}
			_ = json.NewDecoder(r.Body).Decode(&sent)
			_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.1"}]}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewClient(config.WhatsAppConfig{AccessToken: "tok", PhoneNumberID: "123", BaseURL: srv.URL, APIVersion: "v19.0"})
	id, err := c.SendDocument(context.Background(), "5511999999999", Attachment{
		FileName: "report.pdf",
		MIMEType: "application/pdf",
		Content:  []byte("%PDF"),
		Caption:  "Line A",
	})
	if err != nil {
		t.Fatalf("SendDocument: %v", err)
	}
	if id != "wamid.1" {
		t.Errorf("id = %q", id)
	}
	doc, _ := sent["document"].(map[string]any)
	if sent["type"] != "document" || doc["id"] != "media-1" || doc["filename"] != "report.pdf" {
		t.Errorf("unexpected message payload %v", sent)
	}
}

func TestSendTextAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid OAuth access token","code":190}}`))
	}))
	defer srv.Close()

	c := NewClient(config.WhatsAppConfig{AccessToken: "bad", PhoneNumberID: "123", BaseURL: srv.URL, APIVersion: "v19.0"})
	_, err := c.SendText(context.Background(), "55", "hi")
	if err == nil || !strings.Contains(err.Error(), "code=190") {
		t.Errorf("expected api error with code 190, got %v", err)
	}
}
