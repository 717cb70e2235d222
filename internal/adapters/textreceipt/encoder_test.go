package textreceipt

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csg33k/fuel-receipts/internal/domain"
)

func TestPad(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		n     int
		align domain.Align
		want  string
	}{
		{"left", "AB", 5, domain.AlignLeft, "AB   "},
		{"right", "AB", 5, domain.AlignRight, "   AB"},
		{"center odd gap", "AB", 5, domain.AlignCenter, " AB  "},
		{"truncate", "ABCDEFG", 4, domain.AlignRight, "ABCD"},
		{"runes", "ÉTÉ", 4, domain.AlignLeft, "ÉTÉ "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pad(tt.in, tt.n, tt.align))
		})
	}
}

func TestCells(t *testing.T) {
	cols := []domain.Column{{Span: 4}, {Span: 3}, {Span: 2}, {Span: 3}}
	starts, widths := cells(cols, 40)
	assert.Equal(t, []int{0, 13, 23, 29}, starts)
	assert.Equal(t, []int{13, 10, 6, 11}, widths)

	starts, widths = cells([]domain.Column{{}}, 42)
	assert.Equal(t, []int{0}, starts)
	assert.Equal(t, []int{42}, widths)
}

// ---------------------------------------------------------------------------
// Layout tests
// ---------------------------------------------------------------------------

func TestFormatLine(t *testing.T) {
	pair := domain.Line{Columns: []domain.Column{
		{Text: "TOTAL", Align: domain.AlignLeft, Span: 6},
		{Text: "$35.00", Align: domain.AlignRight, Span: 6},
	}}
	got := FormatLine(pair, 20)
	assert.Equal(t, "TOTAL         $35.00", got)
	assert.Len(t, got, 20)

	assert.Equal(t, "     THANK YOU", FormatLine(domain.Line{Columns: []domain.Column{{Text: "THANK YOU", Align: domain.AlignCenter}}}, 20))
	assert.Equal(t, strings.Repeat("-", 12), FormatLine(domain.Line{Style: domain.StyleRule}, 12))
	assert.Equal(t, "", FormatLine(domain.Line{}, 12))
}

func TestEncode_Deterministic(t *testing.T) {
	doc := domain.ReceiptDocument{
		Width: 24,
		Blocks: []domain.Block{
			{Kind: domain.BlockHeader, Lines: []domain.Line{{Columns: []domain.Column{{Text: "FUEL STOP", Align: domain.AlignCenter}}}}},
			{Kind: domain.BlockFooter, Lines: []domain.Line{{Columns: []domain.Column{{Text: "REC-00000001", Align: domain.AlignCenter}}}}},
		},
	}
	var a, b bytes.Buffer
	enc := New()
	require.NoError(t, enc.Encode(doc, &a))
	require.NoError(t, enc.Encode(doc, &b))
	assert.Equal(t, a.Bytes(), b.Bytes())
	assert.Equal(t, "       FUEL STOP\n\n      REC-00000001\n", a.String())
	assert.Equal(t, ".txt", enc.Extension())
}

func TestLines_DefaultWidth(t *testing.T) {
	doc := domain.ReceiptDocument{Blocks: []domain.Block{{Lines: []domain.Line{{Style: domain.StyleRule}}}}}
	assert.Equal(t, []string{strings.Repeat("-", DefaultWidth)}, Lines(doc))
}
