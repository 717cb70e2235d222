package textreceipt

import (
	"strings"

	"github.com/csg33k/fuel-receipts/internal/domain"
)

// ---------------------------------------------------------------------------
// Buffer
// ---------------------------------------------------------------------------

// fixedBuf is one printed row, pre-filled with spaces.
type fixedBuf struct{ data []rune }

func newBuf(width int) *fixedBuf {
	d := make([]rune, width)
	for i := range d {
		d[i] = ' '
	}
	return &fixedBuf{data: d}
}

// put writes value into the cell [start, start+width) with the given
// alignment, truncating on the right when it does not fit.
func (b *fixedBuf) put(start, width int, value string, align domain.Align) {
	if start >= len(b.data) || width <= 0 {
		return
	}
	if start+width > len(b.data) {
		width = len(b.data) - start
	}
	copy(b.data[start:start+width], []rune(pad(value, width, align)))
}

func (b *fixedBuf) String() string { return strings.TrimRight(string(b.data), " ") }

// ---------------------------------------------------------------------------
// Formatting helpers
// ---------------------------------------------------------------------------

// pad fits s into exactly n runes.
func pad(s string, n int, align domain.Align) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n])
	}
	gap := n - len(r)
	switch align {
	case domain.AlignRight:
		return strings.Repeat(" ", gap) + s
	case domain.AlignCenter:
		left := gap / 2
		return strings.Repeat(" ", left) + s + strings.Repeat(" ", gap-left)
	}
	return s + strings.Repeat(" ", gap)
}

// cells splits width among columns by their twelfth spans. The last column
// absorbs rounding, and a zero span takes whatever is left.
func cells(cols []domain.Column, width int) (starts, widths []int) {
	starts = make([]int, len(cols))
	widths = make([]int, len(cols))
	pos := 0
	for i, c := range cols {
		w := width - pos
		if c.Span > 0 && i < len(cols)-1 {
			w = c.Span * width / 12
		}
		starts[i], widths[i] = pos, w
		pos += w
	}
	return starts, widths
}

// FormatLine lays a receipt line out at the given width as monospaced text.
func FormatLine(l domain.Line, width int) string {
	if l.Style&domain.StyleRule != 0 {
		return strings.Repeat("-", width)
	}
	b := newBuf(width)
	starts, widths := cells(l.Columns, width)
	for i, c := range l.Columns {
		b.put(starts[i], widths[i], c.Text, c.Align)
	}
	return b.String()
}
