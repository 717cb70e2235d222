package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SettledLine is a classified line item and its contribution to the subtotal.
type SettledLine struct {
	Item      LineItem
	Kind      LineItemKind
	Amount    decimal.Decimal
	Ambiguous bool
}

// Settlement is the aggregate of one transaction's line items. It is a value
// and is never modified once computed.
type Settlement struct {
	Lines       []SettledLine
	Subtotal    decimal.Decimal
	TaxAmount   decimal.Decimal
	Total       decimal.Decimal
	FuelVolume  decimal.Decimal
	CashAdvance decimal.Decimal
	Tax         TaxPolicy
}

// SyntheticAuthorization is fabricated, format-valid payment-network metadata
// for one transaction. Every block that prints a value reads it from here.
type SyntheticAuthorization struct {
	Tender            TenderType
	AuthCode          string
	TerminalID        string
	ReferenceNumber   string
	TraceNumber       string
	TransactionNumber string
	SequenceNumber    string
	MaskedCard        string
	AppLabel          string
	AID               string
	TVR               string
	IAD               string
	TSI               string
	ARC               string
	AccountType       string
	ResponseText      string
}

// Align is the horizontal alignment of a receipt column.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// Style flags for a rendered line.
type Style uint8

const (
	StyleBold Style = 1 << iota
	StyleLarge
	StyleRule
)

// Column is one aligned cell on a receipt line. Span is the share of the
// line width in twelfths; zero means the full width.
type Column struct {
	Text  string
	Align Align
	Span  int
}

// Line is a single printed row.
type Line struct {
	Columns []Column
	Style   Style
}

// Text returns the concatenated column text.
func (l Line) Text() string {
	var s string
	for i, c := range l.Columns {
		if i > 0 {
			s += " "
		}
		s += c.Text
	}
	return s
}

// BlockKind identifies a receipt section.
type BlockKind string

const (
	BlockHeader          BlockKind = "header"
	BlockTransactionInfo BlockKind = "transaction_info"
	BlockItemTable       BlockKind = "item_table"
	BlockTotals          BlockKind = "totals"
	BlockTender          BlockKind = "tender"
	BlockFleetInfo       BlockKind = "fleet_info"
	BlockExtendedFleet   BlockKind = "extended_fleet"
	BlockSignature       BlockKind = "signature"
	BlockCopyType        BlockKind = "copy_type"
	BlockPromo           BlockKind = "promo"
	BlockFooter          BlockKind = "footer"
)

// Block is an ordered group of lines.
type Block struct {
	Kind  BlockKind
	Lines []Line
}

// ReceiptDocument is the write-once output of the composer. Drawing it onto
// a page is the presentation adapter's job.
type ReceiptDocument struct {
	ReceiptNumber string
	Template      TemplateKey
	Design        string
	Width         int // characters per line
	CreatedAt     time.Time
	Blocks        []Block
}
