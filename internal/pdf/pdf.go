// Package pdf renders generated trip plans as PDF documents and exports them to the object store.
package pdf

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-pdf/fpdf"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-trip-planner/app/storage"
)

const (
	DocumentTitle = "Trip Planner Response"
	ContentType   = "application/pdf"
)

var emphasis = strings.NewReplacer("**", "", "__", "", "`", "")

// Render writes markdown to w as an A4 document: the title centred, headings in
// bold and every other line as wrapped body text.
func Render(markdown string, w io.Writer) error {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetTitle(DocumentTitle, true)
	doc.SetAutoPageBreak(true, 15)
	doc.AddPage()
	tr := doc.UnicodeTranslatorFromDescriptor("")

	doc.SetFont("Arial", "B", 16)
	doc.CellFormat(0, 10, DocumentTitle, "", 1, "C", false, 0, "")
	doc.Ln(10)

	for _, raw := range strings.Split(strings.ReplaceAll(markdown, "\r\n", "\n"), "\n") {
		line := strings.TrimRight(raw, " \t")
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			doc.Ln(4)
		case strings.HasPrefix(trimmed, "#"):
			heading := strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
			doc.Ln(2)
			doc.SetFont("Arial", "B", 13)
			doc.MultiCell(0, 8, tr(emphasis.Replace(heading)), "", "L", false)
		default:
			if strings.HasPrefix(trimmed, "* ") {
				line = strings.Replace(line, "* ", "- ", 1)
			}
			doc.SetFont("Arial", "", 11)
			doc.MultiCell(0, 6, tr(emphasis.Replace(line)), "", "L", false)
		}
	}

	if err := doc.Output(w); err != nil {
		return fmt.Errorf("failed to render pdf: %w", err)
	}
	return nil
}

// Exporter renders a plan into a temporary file and uploads it under the
// request's object key.
type Exporter struct {
	store  storage.ObjectStore
	logger *slog.Logger
	tmpDir string
}

func NewExporter(store storage.ObjectStore, logger *slog.Logger) *Exporter {
	return &Exporter{store: store, logger: logger}
}

// Export returns the object key of the uploaded document. The temporary file is
// removed whether or not the upload succeeds.
func (e *Exporter) Export(ctx context.Context, requestID, markdown string) (string, error) {
	key := storage.KeyForRequest(requestID)
	ctx, span := otel.Tracer("PDFExporter").Start(ctx, "Export", trace.WithAttributes(
		attribute.String("request.id", requestID),
		attribute.String("s3.key", key),
	))
	defer span.End()

	l := e.logger.With(slog.String("method", "Export"), slog.String("request_id", requestID))

	f, err := os.CreateTemp(e.tmpDir, fmt.Sprintf("trip_plan_%s_*.pdf", requestID))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "temp file")
		return "", fmt.Errorf("failed to create temp pdf: %w", err)
	}
	defer func() {
		_ = f.Close()
		if err := os.Remove(f.Name()); err != nil && !os.IsNotExist(err) {
			l.WarnContext(ctx, "Failed to remove temp pdf", slog.String("path", f.Name()), slog.Any("error", err))
		}
	}()

	if err := Render(markdown, f); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "render failed")
		return "", err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to rewind temp pdf: %w", err)
	}

	if err := e.store.Upload(ctx, key, f, ContentType); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "upload failed")
		return "", err
	}

	l.InfoContext(ctx, "Exported trip plan pdf", slog.String("key", key))
	span.SetStatus(codes.Ok, "exported")
	return key, nil
}
