// Package textreceipt prints a receipt document as fixed-width plain text,
// one row per line, the way a thermal receipt printer would.
package textreceipt

import (
	"bufio"
	"io"

	"github.com/csg33k/fuel-receipts/internal/domain"
)

// DefaultWidth is used for documents that do not declare one.
const DefaultWidth = 40

type Encoder struct{}

func New() *Encoder { return &Encoder{} }

func (e *Encoder) Extension() string   { return ".txt" }
func (e *Encoder) ContentType() string { return "text/plain; charset=utf-8" }

// Lines returns the printed rows of doc. A blank row separates blocks.
func Lines(doc domain.ReceiptDocument) []string {
	width := doc.Width
	if width <= 0 {
		width = DefaultWidth
	}
	var out []string
	for i, blk := range doc.Blocks {
		if i > 0 {
			out = append(out, "")
		}
		for _, l := range blk.Lines {
			out = append(out, FormatLine(l, width))
		}
	}
	return out
}

// Encode writes doc as text. Output is byte-identical for identical input.
func (e *Encoder) Encode(doc domain.ReceiptDocument, w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, l := range Lines(doc) {
		if _, err := bw.WriteString(l + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}
