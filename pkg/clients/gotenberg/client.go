package gotenberg

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/shiftboard/internal/config"
)

// Client converts HTML documents to PDF.
type Client interface {
	ConvertHTML(ctx context.Context, html []byte) ([]byte, error)
}

// APIClient is a resty-backed implementation of Client for a Gotenberg server.
type APIClient struct {
	httpClient *resty.Client
}

// NewClient builds a renderer client using the provided configuration values.
func NewClient(cfg config.RendererConfig) *APIClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	restyClient := resty.New()
	restyClient.
		SetBaseURL(strings.TrimSuffix(cfg.URL, "/")).
		SetTimeout(timeout)

	return &APIClient{httpClient: restyClient}
}

// ConvertHTML sends html as index.html to the chromium route and returns the PDF bytes.
func (c *APIClient) ConvertHTML(ctx context.Context, html []byte) ([]byte, error) {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetFileReader("files", "index.html", bytes.NewReader(html)).
		SetFormData(map[string]string{"printBackground": "true"}).
		Post("/forms/chromium/convert/html")
	if err != nil {
		return nil, fmt.Errorf("convert html to pdf: %w", err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		return nil, fmt.Errorf("pdf renderer error: status=%d, body=%s", resp.StatusCode(), strings.TrimSpace(resp.String()))
	}

	return resp.Body(), nil
}
