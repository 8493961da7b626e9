package services

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"strings"
	"time"

	"github.com/fogleman/gg"
	"github.com/go-pdf/fpdf"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	types "github.com/Britinogn/CourviaShipAPI/internal/domain"
	"github.com/Britinogn/CourviaShipAPI/internal/platform/logger"
)

// ReceiptRenderer turns a persisted shipment into a PDF document.
type ReceiptRenderer interface {
	Render(ctx context.Context, s *types.Shipment) ([]byte, error)
}

type ReceiptBranding struct {
	Company      string
	SupportEmail string
	SupportPhone string
}

func DefaultReceiptBranding() ReceiptBranding {
	return ReceiptBranding{
		Company:      "CourviaShip",
		SupportEmail: "support@courviaship.com",
		SupportPhone: "+1-XXX-XXX-XXXX",
	}
}

// Faces are built per render; a font.Face caches glyphs and is not safe
// for concurrent use. The parsed fonts are read-only.
type pdfReceiptRenderer struct {
	log      *logger.Logger
	brand    ReceiptBranding
	codeFont *truetype.Font
	capFont  *truetype.Font
}

func NewReceiptRenderer(log *logger.Logger, brand ReceiptBranding) (ReceiptRenderer, error) {
	serviceLog := log.With("service", "ReceiptRenderer")

	codeFont, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("could not load label font: %w", err)
	}
	capFont, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("could not load caption font: %w", err)
	}

	return &pdfReceiptRenderer{
		log:      serviceLog,
		brand:    brand,
		codeFont: codeFont,
		capFont:  capFont,
	}, nil
}

func newFace(f *truetype.Font, size float64) font.Face {
	return truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
}

func receiptDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2006-01-02")
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func (r *pdfReceiptRenderer) Render(ctx context.Context, s *types.Shipment) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("shipment required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	label, err := r.renderLabel(s.TrackingID)
	if err != nil {
		return nil, err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(18, 18, 18)
	pdf.SetCreator(r.brand.Company, false)
	pdf.SetTitle(fmt.Sprintf("%s Receipt %s", r.brand.Company, s.TrackingID), false)
	pdf.SetCreationDate(s.RegisteredAt)
	pdf.SetModificationDate(s.RegisteredAt)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	contentW := pageW - left - right

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(contentW, 10, tr(r.brand.Company+" Receipt"), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(contentW, 7, tr("Tracking ID: "+s.TrackingID), "", 1, "C", false, 0, "")
	pdf.CellFormat(contentW, 7, "Registered: "+receiptDate(s.RegisteredAt), "", 1, "C", false, 0, "")
	pdf.Ln(3)

	const labelName = "tracking-label"
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(labelName, opts, bytes.NewReader(label))
	labelW := 90.0
	pdf.ImageOptions(labelName, left+(contentW-labelW)/2, pdf.GetY(), labelW, 0, true, opts, 0, "")
	pdf.Ln(4)

	section := func(title string, lines ...string) {
		pdf.SetFont("Helvetica", "B", 14)
		pdf.CellFormat(contentW, 8, tr(title), "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 12)
		for _, line := range lines {
			pdf.MultiCell(contentW, 6, tr(line), "", "L", false)
		}
		pdf.Ln(4)
	}

	section("Sender:",
		s.Sender.Name,
		joinNonEmpty(", ", s.Sender.Address, s.Sender.City, s.Sender.Country),
		fmt.Sprintf("Email: %s | Phone: %s", s.Sender.Email, s.Sender.Phone),
	)
	section("Receiver:",
		s.Receiver.Name,
		joinNonEmpty(", ", s.Receiver.Address, s.Receiver.City, s.Receiver.Country),
		fmt.Sprintf("Email: %s | Phone: %s", s.Receiver.Email, s.Receiver.Phone),
	)

	quantity := s.Package.Quantity
	if quantity < 1 {
		quantity = 1
	}
	pkg := []string{
		fmt.Sprintf("Weight: %g kg", s.Package.WeightKg),
		"Dimensions: " + s.Package.Dimensions,
		"Description: " + s.Package.Description,
		fmt.Sprintf("Quantity: %d", quantity),
		"Fragile: " + yesNo(s.Package.IsFragile),
		"Signature Required: " + yesNo(s.Package.RequiresSignature),
	}
	if s.Package.DeclaredValue != nil {
		pkg = append(pkg, fmt.Sprintf("Declared Value: %.2f", *s.Package.DeclaredValue))
	}
	section("Package Information:", pkg...)

	section("Route:",
		"From: "+joinNonEmpty(", ", s.Origin.Address, s.Origin.City, s.Origin.Country),
		"To: "+joinNonEmpty(", ", s.Destination.Address, s.Destination.City, s.Destination.Country),
	)
	section("Status & Delivery:",
		"Current Status: "+string(s.Status),
		"Estimated Delivery: "+receiptDate(s.EstimatedDelivery),
	)

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(contentW, 5, tr("Thank you for choosing "+r.brand.Company+"!"), "", 1, "C", false, 0, "")
	pdf.CellFormat(contentW, 5, tr(fmt.Sprintf("Contact support: %s | %s", r.brand.SupportEmail, r.brand.SupportPhone)), "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render receipt PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func joinNonEmpty(sep string, parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}

// renderLabel draws the tracking code with a stripe pattern derived from it.
// The stripes are decorative and not a scannable symbology.
func (r *pdfReceiptRenderer) renderLabel(code string) ([]byte, error) {
	const (
		w = 720
		h = 220
	)
	dc := gg.NewContext(w, h)

	dc.SetColor(color.White)
	dc.DrawRectangle(0, 0, w, h)
	dc.Fill()

	dc.SetColor(color.Black)
	dc.SetLineWidth(4)
	dc.DrawRoundedRectangle(4, 4, w-8, h-8, 16)
	dc.Stroke()

	x := 40.0
	for i, ch := range code {
		idx := strings.IndexRune(trackingCodeAlphabet, ch)
		if idx < 0 {
			idx = int(ch)
		}
		for bit := 0; bit < 4; bit++ {
			barW := 2.0 + float64((idx>>bit)&1)*3 + float64(i%2)
			dc.DrawRectangle(x, 30, barW, 90)
			dc.Fill()
			x += barW + 3
		}
		x += 4
		if x > w-40 {
			break
		}
	}

	dc.SetFontFace(newFace(r.codeFont, 40))
	dc.DrawStringAnchored(code, w/2, 160, 0.5, 0.5)

	dc.SetFontFace(newFace(r.capFont, 16))
	dc.SetColor(color.NRGBA{R: 90, G: 90, B: 90, A: 255})
	dc.DrawStringAnchored(r.brand.Company+" tracking ID", w/2, 196, 0.5, 0.5)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode label PNG: %w", err)
	}
	return buf.Bytes(), nil
}
