package whatsapp

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

// Client shares reports through the WhatsApp Cloud API.
type Client interface {
	SendText(ctx context.Context, to, body string) (string, error)
	SendDocument(ctx context.Context, to string, doc Attachment) (string, error)
}

// Attachment is a file sent as a document message.
type Attachment struct {
	FileName string
	MIMEType string
	Content  []byte
	Caption  string
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient    *resty.Client
	phoneNumberID string
}

// NewClient builds a WhatsApp API client using the provided configuration values.
func NewClient(cfg config.WhatsAppConfig) *APIClient {
	base := strings.TrimSuffix(cfg.BaseURL, "/")

	restyClient := resty.New()
	restyClient.
		SetBaseURL(fmt.Sprintf("%s/%s", base, cfg.APIVersion)).
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.AccessToken)).
		SetTimeout(30 * time.Second)

	return &APIClient{
		httpClient:    restyClient,
		phoneNumberID: cfg.PhoneNumberID,
	}
}

type messageResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

type mediaResponse struct {
	ID string `json:"id"`
}

type apiError struct {
	Error struct {
		Message   string `json:"message"`
		Type      string `json:"type"`
		Code      int    `json:"code"`
		FBTraceID string `json:"fbtrace_id"`
	} `json:"error"`
}

// SendText sends a plain text message and returns the message id.
func (c *APIClient) SendText(ctx context.Context, to, body string) (string, error) {
	return c.sendMessage(ctx, map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "text",
		"text":              map[string]any{"body": body, "preview_url": false},
	})
}

// SendDocument uploads the attachment and sends it as a document message.
func (c *APIClient) SendDocument(ctx context.Context, to string, doc Attachment) (string, error) {
	mediaID, err := c.upload(ctx, doc)
	if err != nil {
		return "", err
	}

	document := map[string]any{"id": mediaID, "filename": doc.FileName}
	if doc.Caption != "" {
		document["caption"] = doc.Caption
	}
	return c.sendMessage(ctx, map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "document",
		"document":          document,
	})
}

func (c *APIClient) upload(ctx context.Context, doc Attachment) (string, error) {
	result := new(mediaResponse)
	apiErr := new(apiError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetMultipartField("file", doc.FileName, doc.MIMEType, bytes.NewReader(doc.Content)).
		SetFormData(map[string]string{
			"messaging_product": "whatsapp",
			"type":              doc.MIMEType,
		}).
		SetResult(result).
		SetError(apiErr).
		Post(fmt.Sprintf("%s/media", c.phoneNumberID))
	if err != nil {
		return "", fmt.Errorf("upload whatsapp media: %w", err)
	}
	if err := checkResponse(resp, apiErr); err != nil {
		return "", err
	}
	if result.ID == "" {
		return "", fmt.Errorf("whatsapp media upload returned no id")
	}
	return result.ID, nil
}

func (c *APIClient) sendMessage(ctx context.Context, payload map[string]any) (string, error) {
	result := new(messageResponse)
	apiErr := new(apiError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		SetResult(result).
		SetError(apiErr).
		Post(fmt.Sprintf("%s/messages", c.phoneNumberID))
	if err != nil {
		return "", fmt.Errorf("send whatsapp message: %w", err)
	}
	if err := checkResponse(resp, apiErr); err != nil {
		return "", err
	}
	if len(result.Messages) == 0 {
		return "", nil
	}
	return result.Messages[0].ID, nil
}

func checkResponse(resp *resty.Response, apiErr *apiError) error {
	if resp.StatusCode() < http.StatusBadRequest {
		return nil
	}
	code := resp.StatusCode()
	message := apiErr.Error.Message
	if apiErr.Error.Code != 0 {
		code = apiErr.Error.Code
	}
	return fmt.Errorf("whatsapp api error: code=%d, message=%s", code, message)
}
