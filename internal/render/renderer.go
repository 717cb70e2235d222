package render

import (
	"time"

	"github.com/csg33k/fuel-receipts/internal/domain"
	"github.com/csg33k/fuel-receipts/internal/units"
)

// Values holds the intake-form values that survived profile resolution.
// Hidden fields are never present.
type Values map[domain.Field]string

// Get returns the value of f, or "" when absent.
func (v Values) Get(f domain.Field) string { return v[f] }

// Context is everything a template needs to lay out one receipt. Builders
// read it and never modify it.
type Context struct {
	Spec          TemplateSpec
	Merchant      *domain.Merchant
	Store         domain.Store
	Jurisdiction  domain.Jurisdiction
	Tender        domain.TenderType
	Profile       domain.FieldRequirementProfile
	Values        Values
	Settlement    domain.Settlement
	Auth          domain.SyntheticAuthorization
	ReceiptNumber string
	Timestamp     time.Time
	// Signature requests the signature block when the profile leaves it optional.
	Signature bool
}

// Units is the unit profile of the transaction's jurisdiction.
func (c *Context) Units() units.Profile { return units.For(c.Jurisdiction) }

// Shape resolves ShapeByTender against the transaction's tender.
func (c *Context) Shape() TenderShape {
	if c.Spec.Shape == ShapeByTender {
		return ShapeFor(c.Tender)
	}
	return c.Spec.Shape
}

// visible reports whether f is shown and has a value.
func (c *Context) visible(f domain.Field) (string, bool) {
	if !c.Profile.Get(f).Visible() {
		return "", false
	}
	v := c.Values.Get(f)
	return v, v != ""
}

type builder func(*Context) []domain.Line

var builders = map[domain.BlockKind]builder{
	domain.BlockHeader:          header,
	domain.BlockTransactionInfo: transactionInfo,
	domain.BlockItemTable:       itemTable,
	domain.BlockTotals:          totals,
	domain.BlockTender:          tender,
	domain.BlockFleetInfo:       fleetInfo,
	domain.BlockExtendedFleet:   extendedFleet,
	domain.BlockSignature:       signature,
	domain.BlockCopyType:        copyType,
	domain.BlockPromo:           promo,
	domain.BlockFooter:          footer,
}

// Render lays out ctx using its template spec. Identical input yields an
// identical document. Blocks whose builder reports nothing to print are
// omitted.
func Render(ctx Context) domain.ReceiptDocument {
	doc := domain.ReceiptDocument{
		ReceiptNumber: ctx.ReceiptNumber,
		Template:      ctx.Spec.Key,
		Design:        ctx.Spec.Design,
		Width:         ctx.Spec.Width,
		CreatedAt:     ctx.Timestamp,
	}
	for _, kind := range ctx.Spec.Blocks {
		build, ok := builders[kind]
		if !ok {
			continue
		}
		lines := build(&ctx)
		if lines == nil {
			continue
		}
		doc.Blocks = append(doc.Blocks, domain.Block{Kind: kind, Lines: lines})
	}
	return doc
}
