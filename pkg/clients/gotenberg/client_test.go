package gotenberg

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mamadbah2/shiftboard/internal/config"
)

func TestConvertHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/forms/chromium/convert/html" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		file, header, err := r.FormFile("files")
		if err != nil {
			t.Errorf("missing file part: %v", err)
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		defer file.Close()
		body, _ := io.ReadAll(file)
		if header.Filename != "index.html" || !strings.Contains(string(body), "<h1>") {
			t.Errorf("unexpected upload %s: %s", header.Filename, body)
		}
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.7"))
	}))
	defer srv.Close()

	c := NewClient(config.RendererConfig{URL: srv.URL + "/"})
	pdf, err := c.ConvertHTML(context.Background(), []byte("<h1>report</h1>"))
	if err != nil {
		t.Fatalf("ConvertHTML: %v", err)
	}
	if string(pdf) != "%PDF-1.7" {
		t.Errorf("pdf = %q", pdf)
	}
}

func TestConvertHTMLFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "chromium crashed", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(config.RendererConfig{URL: srv.URL})
	if _, err := c.ConvertHTML(context.Background(), []byte("<p>x</p>")); err == nil {
		t.Error("renderer failure must be reported")
	}
}
