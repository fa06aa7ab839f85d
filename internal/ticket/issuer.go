// Package ticket produces the proof-of-purchase artifact for a
// reserved seat: one PDF per barcode with the event details and a
// scannable EAN-8 rendering of the barcode value.
package ticket

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/ean"
	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"

	"github.com/spectacole/ticketctl/internal/model"
)

const dateFormat = "2006-01-02 15:04"

// Ticket carries everything printed on one reservation document.
type Ticket struct {
	EventName string
	Date      float64 // unix timestamp
	Price     float64
	Email     string
	Barcode   int64
}

// Issuer generates one document per reserved seat. The reservation
// store treats it as an external capability: issuance failures are
// logged and never roll back a committed reservation.
type Issuer interface {
	Issue(ctx context.Context, t Ticket) error
}

// PDFIssuer writes reservation documents into a directory on disk,
// named <barcode>_<date>_<email>.pdf.
type PDFIssuer struct {
	dir string
	log *zap.Logger
}

// NewPDFIssuer returns a PDFIssuer writing into dir. The directory
// is created on first use.
func NewPDFIssuer(dir string, log *zap.Logger) *PDFIssuer {
	return &PDFIssuer{dir: dir, log: log}
}

// Issue renders and writes one reservation PDF.
func (p *PDFIssuer) Issue(_ context.Context, t Ticket) error {
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return fmt.Errorf("create ticket directory: %w", err)
	}

	img, err := barcodeImage(t.Barcode)
	if err != nil {
		return err
	}

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.AddPage()
	pdf.SetLineWidth(0.3)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Text(15, 20, "RESERVATION DOCUMENT")
	pdf.SetFont("Helvetica", "", 12)
	pdf.Text(150, 20, EventDateString(t.Date))
	pdf.Line(148, 22, 200, 22)
	pdf.Text(15, 35, "EVENT:")
	pdf.Text(45, 35, t.EventName)
	pdf.Line(43, 37, 200, 37)
	pdf.Text(15, 50, "PRICE:")
	pdf.Text(45, 50, fmt.Sprintf("%.2f", t.Price))
	pdf.Line(43, 52, 200, 52)
	pdf.Text(15, 65, "EMAIL:")
	pdf.Text(45, 65, t.Email)
	pdf.Line(43, 67, 200, 67)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode barcode image: %w", err)
	}
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("barcode", opts, &buf)
	pdf.ImageOptions("barcode", 15, 80, 60, 25, false, opts, 0, "")

	path := filepath.Join(p.dir, fmt.Sprintf("%d_%d_%s.pdf", t.Barcode, int64(t.Date), t.Email))
	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write ticket pdf: %w", err)
	}
	p.log.Info("ticket document written", zap.String("path", path))
	return nil
}

// barcodeImage renders the barcode value as a scaled EAN-8 image.
// EAN-8 carries 7 payload digits plus a check digit, so the encoder
// is fed the first 7 digits of the 8-digit barcode and computes the
// checksum itself.
func barcodeImage(code int64) (barcode.Barcode, error) {
	digits := fmt.Sprintf("%08d", code)
	bc, err := ean.Encode(digits[:7])
	if err != nil {
		return nil, fmt.Errorf("encode barcode %d: %w", code, err)
	}
	scaled, err := barcode.Scale(bc, 200, 60)
	if err != nil {
		return nil, fmt.Errorf("scale barcode %d: %w", code, err)
	}
	return scaled, nil
}

// EventDateString formats a unix event date for display.
func EventDateString(d float64) string {
	return model.EventDate(d).Format(dateFormat)
}
