// Package pdf draws a receipt document onto a single narrow page sized like a
// roll of thermal paper. Text is set in Courier so the fixed-width layout of
// the plain-text encoder carries over column for column.
package pdf

import (
	"io"

	"github.com/go-pdf/fpdf"

	"github.com/csg33k/fuel-receipts/internal/adapters/textreceipt"
	"github.com/csg33k/fuel-receipts/internal/domain"
)

const (
	paperW   = 80.0 // mm
	margin   = 4.0
	blockGap = 2.0
	// Courier advances 0.6 em per glyph.
	courierAdvance = 0.6
	mmPerPt        = 25.4 / 72
	largeScale     = 1.25
	minPageH       = 20.0
)

// Encoder writes receipts as PDF.
type Encoder struct {
	// PaperWidth overrides the roll width in millimetres. Zero means 80mm.
	PaperWidth float64
}

func New() *Encoder { return &Encoder{} }

func (e *Encoder) Extension() string   { return ".pdf" }
func (e *Encoder) ContentType() string { return "application/pdf" }

// Encode draws doc and writes the PDF to w.
func (e *Encoder) Encode(doc domain.ReceiptDocument, w io.Writer) error {
	width := doc.Width
	if width <= 0 {
		width = textreceipt.DefaultWidth
	}
	pageW := e.PaperWidth
	if pageW <= 0 {
		pageW = paperW
	}
	contentW := pageW - 2*margin

	// Size the font so exactly width glyphs fill the printable area.
	fontPt := contentW / (float64(width) * courierAdvance * mmPerPt)
	lineH := fontPt * mmPerPt * 1.25

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: pageW, Ht: pageHeight(doc, lineH)},
	})
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, margin)
	pdf.SetTitle(doc.ReceiptNumber, true)
	pdf.SetSubject(doc.Design, true)
	if !doc.CreatedAt.IsZero() {
		pdf.SetCreationDate(doc.CreatedAt)
	}
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	d := drawer{pdf: pdf, tr: tr, width: width, contentW: contentW, fontPt: fontPt, lineH: lineH}

	y := margin
	for i, blk := range doc.Blocks {
		if i > 0 {
			y += blockGap
		}
		for _, l := range blk.Lines {
			y = d.line(l, y)
		}
	}

	return pdf.Output(w)
}

// pageHeight is the roll length needed to fit every line.
func pageHeight(doc domain.ReceiptDocument, lineH float64) float64 {
	h := 2 * margin
	for i, blk := range doc.Blocks {
		if i > 0 {
			h += blockGap
		}
		for _, l := range blk.Lines {
			h += rowHeight(l, lineH)
		}
	}
	return max(h, minPageH)
}

func rowHeight(l domain.Line, lineH float64) float64 {
	if l.Style&domain.StyleLarge != 0 {
		return lineH * largeScale
	}
	return lineH
}

// ── Drawing ──────────────────────────────────────────────────────────────────

type drawer struct {
	pdf      *fpdf.Fpdf
	tr       func(string) string
	width    int
	contentW float64
	fontPt   float64
	lineH    float64
}

// line draws l with its top edge at y and returns the next y.
func (d drawer) line(l domain.Line, y float64) float64 {
	h := rowHeight(l, d.lineH)

	if l.Style&domain.StyleRule != 0 {
		d.pdf.SetDrawColor(0, 0, 0)
		d.pdf.SetDashPattern([]float64{0.8, 0.6}, 0)
		d.pdf.Line(margin, y+h/2, margin+d.contentW, y+h/2)
		d.pdf.SetDashPattern([]float64{}, 0)
		return y + h
	}

	style := ""
	if l.Style&domain.StyleBold != 0 {
		style = "B"
	}

	if l.Style&domain.StyleLarge == 0 {
		d.pdf.SetFont("Courier", style, d.fontPt)
		d.pdf.SetXY(margin, y)
		d.pdf.CellFormat(d.contentW, h, d.tr(textreceipt.FormatLine(l, d.width)), "", 0, "L", false, 0, "")
		return y + h
	}

	// Large rows are set cell by cell so the bigger glyphs keep their
	// alignment. Text that would overflow its cell drops back to the base size.
	x := margin
	for i, c := range l.Columns {
		w := d.contentW - (x - margin)
		if c.Span > 0 && i < len(l.Columns)-1 {
			w = float64(c.Span) * d.contentW / 12
		}
		txt := d.tr(c.Text)
		d.pdf.SetFont("Courier", style, d.fontPt*largeScale)
		if d.pdf.GetStringWidth(txt) > w {
			d.pdf.SetFont("Courier", style, d.fontPt)
		}
		d.pdf.SetXY(x, y)
		d.pdf.CellFormat(w, h, txt, "", 0, cellAlign(c.Align), false, 0, "")
		x += w
	}
	return y + h
}

func cellAlign(a domain.Align) string {
	switch a {
	case domain.AlignCenter:
		return "C"
	case domain.AlignRight:
		return "R"
	}
	return "L"
}
