package reporting

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/shiftboard/pkg/clients/gotenberg"
	"github.com/mamadbah2/shiftboard/pkg/clients/whatsapp"
)

var (
	// ErrPDFUnavailable is returned when no PDF renderer is configured.
	ErrPDFUnavailable = errors.New("pdf export is not configured")
	// ErrSharingUnavailable is returned when no messaging client is configured.
	ErrSharingUnavailable = errors.New("report sharing is not configured")
)

// Exporter turns report documents into shareable artifacts.
type Exporter struct {
	renderer  gotenberg.Client
	messenger whatsapp.Client
	logger    *zap.Logger
}

// NewExporter wires an exporter. Either collaborator may be nil, disabling the matching feature.
func NewExporter(renderer gotenberg.Client, messenger whatsapp.Client, logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exporter{renderer: renderer, messenger: messenger, logger: logger}
}

// PDF renders doc to HTML and converts it with the external renderer.
func (e *Exporter) PDF(ctx context.Context, doc Document) ([]byte, error) {
	if e.renderer == nil {
		return nil, ErrPDFUnavailable
	}
	html, err := RenderHTML(doc)
	if err != nil {
		return nil, err
	}
	pdf, err := e.renderer.ConvertHTML(ctx, html)
	if err != nil {
		return nil, fmt.Errorf("export report %s: %w", doc.ID, err)
	}
	e.logger.Info("report exported", zap.String("report_id", doc.ID), zap.String("line", string(doc.Line)), zap.Int("bytes", len(pdf)))
	return pdf, nil
}

// Share sends the report PDF to a phone number, captioned with the text summary. When PDF export
// is unavailable the summary is sent as plain text.
func (e *Exporter) Share(ctx context.Context, doc Document, to string) (string, error) {
	if e.messenger == nil {
		return "", ErrSharingUnavailable
	}

	summary := Summary(doc)
	if e.renderer == nil {
		return e.messenger.SendText(ctx, to, summary)
	}

	pdf, err := e.PDF(ctx, doc)
	if err != nil {
		return "", err
	}
	id, err := e.messenger.SendDocument(ctx, to, whatsapp.Attachment{
		FileName: doc.FileName("pdf"),
		MIMEType: "application/pdf",
		Content:  pdf,
		Caption:  summary,
	})
	if err != nil {
		return "", fmt.Errorf("share report %s: %w", doc.ID, err)
	}
	e.logger.Info("report shared", zap.String("report_id", doc.ID), zap.String("message_id", id))
	return id, nil
}

// Summary renders the three headline statistics as a short message.
func Summary(doc Document) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Line %s - %s", doc.Line, doc.Day)
	if doc.Shift != "" {
		fmt.Fprintf(&b, " (shift %s)", doc.Shift)
	}
	if doc.Empty {
		b.WriteString("\nNo records.")
		return b.String()
	}
	fmt.Fprintf(&b, "\nProduced: %s / %s", formatNumber(doc.Totals.Actual), formatNumber(doc.Totals.Target))
	fmt.Fprintf(&b, "\nEfficiency: %s", doc.EfficiencyLabel())
	fmt.Fprintf(&b, "\nUnplanned downtime: %s min", formatNumber(doc.UnplannedMinutes))
	return b.String()
}
