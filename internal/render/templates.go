// Package render turns a resolved transaction into an ordered list of
// receipt blocks. It performs no I/O; drawing the blocks is an adapter's job.
package render

import (
	"slices"

	"github.com/csg33k/fuel-receipts/internal/domain"
)

const (
	TemplateStandardCash    domain.TemplateKey = "standard-cash"
	TemplateStandardCard    domain.TemplateKey = "standard-card"
	TemplateStandardInterac domain.TemplateKey = "standard-interac"
	TemplateStandardEFS     domain.TemplateKey = "standard-efs"
	TemplateStandardTCH     domain.TemplateKey = "standard-tch"
	TemplateLovesCash       domain.TemplateKey = "loves-cash"
	TemplateLovesCard       domain.TemplateKey = "loves-card"
	TemplateLovesEFS        domain.TemplateKey = "loves-efs"
	TemplateLovesTCH        domain.TemplateKey = "loves-tch"
	TemplatePilot           domain.TemplateKey = "pilot"
	TemplateOne9            domain.TemplateKey = "one9"
	TemplateOne9Extended    domain.TemplateKey = "one9-extended"
	TemplateTAPetro         domain.TemplateKey = "ta-petro"
	TemplateHuskyCash       domain.TemplateKey = "husky-cash"
	TemplateHuskyCard       domain.TemplateKey = "husky-card"
	TemplateHuskyEFS        domain.TemplateKey = "husky-efs"
	TemplateHuskyTCH        domain.TemplateKey = "husky-tch"
	TemplateBVD             domain.TemplateKey = "bvd"
	TemplateCanadianRetail  domain.TemplateKey = "canadian-retail"
	TemplateConvenience     domain.TemplateKey = "convenience"
)

// TenderShape is the layout of the authorization block.
type TenderShape int

const (
	// ShapeByTender picks the shape from the transaction's tender type.
	ShapeByTender TenderShape = iota
	ShapeCash
	ShapeEMV
	ShapeInteracDebit
	ShapeFleetEFS
	ShapeFleetTCH
)

// ShapeFor is the natural shape of a tender type.
func ShapeFor(t domain.TenderType) TenderShape {
	switch t {
	case domain.Cash:
		return ShapeCash
	case domain.Visa, domain.Mastercard, domain.AmericanExpress:
		return ShapeEMV
	case domain.Interac:
		return ShapeInteracDebit
	case domain.EFS:
		return ShapeFleetEFS
	case domain.TCH:
		return ShapeFleetTCH
	}
	panic("render: unhandled tender " + string(t))
}

// TemplateSpec is the fixed description of one receipt template.
type TemplateSpec struct {
	Key    domain.TemplateKey
	Design string // name reported back to the caller
	Width  int    // characters per line
	Blocks []domain.BlockKind
	Shape  TenderShape
	// Banner replaces the merchant name in the header when set.
	Banner     []string
	Promo      []string
	Footer     []string
	ShowPump   bool
	TotalLabel string
}

var (
	cardBlocks = []domain.BlockKind{
		domain.BlockHeader, domain.BlockTransactionInfo, domain.BlockItemTable, domain.BlockTotals,
		domain.BlockTender, domain.BlockFleetInfo, domain.BlockSignature, domain.BlockCopyType,
		domain.BlockPromo, domain.BlockFooter,
	}
	cashBlocks = []domain.BlockKind{
		domain.BlockHeader, domain.BlockTransactionInfo, domain.BlockItemTable, domain.BlockTotals,
		domain.BlockTender, domain.BlockFleetInfo, domain.BlockCopyType, domain.BlockPromo,
		domain.BlockFooter,
	}
	debitBlocks = []domain.BlockKind{
		domain.BlockHeader, domain.BlockTransactionInfo, domain.BlockItemTable, domain.BlockTotals,
		domain.BlockTender, domain.BlockCopyType, domain.BlockPromo, domain.BlockFooter,
	}
	extendedBlocks = []domain.BlockKind{
		domain.BlockHeader, domain.BlockTransactionInfo, domain.BlockItemTable, domain.BlockTotals,
		domain.BlockTender, domain.BlockExtendedFleet, domain.BlockSignature, domain.BlockCopyType,
		domain.BlockPromo, domain.BlockFooter,
	}
)

var thanks = []string{"THANK YOU", "PLEASE COME AGAIN"}

var registry = map[domain.TemplateKey]TemplateSpec{
	TemplateStandardCash: {
		Design: "Standard Cash", Width: 40, Blocks: cashBlocks, Shape: ShapeCash,
		Footer: thanks, TotalLabel: "TOTAL",
	},
	TemplateStandardCard: {
		Design: "Standard Card", Width: 40, Blocks: cardBlocks, Shape: ShapeEMV,
		Footer: thanks, TotalLabel: "TOTAL",
	},
	TemplateStandardInterac: {
		Design: "Standard Interac", Width: 40, Blocks: debitBlocks, Shape: ShapeInteracDebit,
		Footer: []string{"MERCI / THANK YOU"}, TotalLabel: "TOTAL",
	},
	TemplateStandardEFS: {
		Design: "Standard EFS Fleet", Width: 40, Blocks: cardBlocks, Shape: ShapeFleetEFS,
		Footer: thanks, TotalLabel: "TOTAL",
	},
	TemplateStandardTCH: {
		Design: "Standard TCH Fleet", Width: 40, Blocks: cardBlocks, Shape: ShapeFleetTCH,
		Footer: thanks, TotalLabel: "TOTAL",
	},
	TemplateLovesCash: {
		Design: "Love's Cash", Width: 40, Blocks: cashBlocks, Shape: ShapeCash,
		Promo:  []string{"EARN POINTS WITH THE LOVE'S CONNECT APP"},
		Footer: []string{"THANK YOU FOR CHOOSING LOVE'S"}, ShowPump: true, TotalLabel: "TOTAL SALE",
	},
	TemplateLovesCard: {
		Design: "Love's Card", Width: 40, Blocks: cardBlocks, Shape: ShapeEMV,
		Promo:  []string{"EARN POINTS WITH THE LOVE'S CONNECT APP"},
		Footer: []string{"THANK YOU FOR CHOOSING LOVE'S"}, ShowPump: true, TotalLabel: "TOTAL SALE",
	},
	TemplateLovesEFS: {
		Design: "Love's EFS Fleet", Width: 40, Blocks: cardBlocks, Shape: ShapeFleetEFS,
		Promo:  []string{"TRUCK CARE - NO APPOINTMENT NEEDED"},
		Footer: []string{"THANK YOU FOR CHOOSING LOVE'S"}, ShowPump: true, TotalLabel: "TOTAL SALE",
	},
	TemplateLovesTCH: {
		Design: "Love's TCH Fleet", Width: 40, Blocks: cardBlocks, Shape: ShapeFleetTCH,
		Promo:  []string{"TRUCK CARE - NO APPOINTMENT NEEDED"},
		Footer: []string{"THANK YOU FOR CHOOSING LOVE'S"}, ShowPump: true, TotalLabel: "TOTAL SALE",
	},
	TemplatePilot: {
		Design: "Pilot Flying J", Width: 42, Blocks: cardBlocks, Shape: ShapeByTender,
		Promo:  []string{"MYREWARDS PLUS MEMBERS SAVE MORE", "DOWNLOAD THE APP TODAY"},
		Footer: thanks, ShowPump: true, TotalLabel: "TOTAL",
	},
	TemplateOne9: {
		Design: "ONE9", Width: 40, Blocks: cardBlocks, Shape: ShapeByTender,
		Footer: thanks, ShowPump: true, TotalLabel: "TOTAL",
	},
	TemplateOne9Extended: {
		Design: "ONE9 Extended", Width: 40, Blocks: extendedBlocks, Shape: ShapeEMV,
		Footer: thanks, ShowPump: true, TotalLabel: "TOTAL",
	},
	TemplateTAPetro: {
		Design: "TA Petro", Width: 40, Blocks: cardBlocks, Shape: ShapeByTender,
		Promo:  []string{"JOIN ULTRAONE FOR REWARDS"},
		Footer: thanks, ShowPump: true, TotalLabel: "TOTAL",
	},
	TemplateHuskyCash: {
		Design: "Husky Cash", Width: 42, Blocks: cashBlocks, Shape: ShapeCash,
		Footer: []string{"THANK YOU / MERCI"}, TotalLabel: "TOTAL",
	},
	TemplateHuskyCard: {
		Design: "Husky Card", Width: 42, Blocks: cardBlocks, Shape: ShapeByTender,
		Footer: []string{"THANK YOU / MERCI"}, TotalLabel: "TOTAL",
	},
	TemplateHuskyEFS: {
		Design: "Husky EFS", Width: 42, Blocks: cardBlocks, Shape: ShapeFleetEFS,
		Banner: []string{"HUSKY TRAVEL CENTRE", "COMMERCIAL FUELING"},
		Footer: []string{"THANK YOU / MERCI"}, TotalLabel: "TOTAL",
	},
	TemplateHuskyTCH: {
		Design: "Husky TCH", Width: 42, Blocks: cardBlocks, Shape: ShapeFleetTCH,
		Banner: []string{"HUSKY TRAVEL CENTRE", "TCH FLEET SERVICES"},
		Footer: []string{"THANK YOU / MERCI"}, TotalLabel: "TOTAL",
	},
	TemplateBVD: {
		Design: "BVD Petroleum", Width: 42, Blocks: cardBlocks, Shape: ShapeByTender,
		Footer: []string{"THANK YOU"}, ShowPump: true, TotalLabel: "TOTAL",
	},
	TemplateCanadianRetail: {
		Design: "Canadian Retail", Width: 40, Blocks: cardBlocks, Shape: ShapeByTender,
		Footer: []string{"MERCI / THANK YOU"}, ShowPump: true, TotalLabel: "TOTAL",
	},
	TemplateConvenience: {
		Design: "Convenience", Width: 40, Blocks: cardBlocks, Shape: ShapeByTender,
		Footer: thanks, ShowPump: true, TotalLabel: "TOTAL",
	},
}

// Lookup returns the spec registered under key.
func Lookup(key domain.TemplateKey) (TemplateSpec, bool) {
	s, ok := registry[key]
	if !ok {
		return TemplateSpec{}, false
	}
	s.Key = key
	return s, true
}

// Keys returns every registered template key, sorted.
func Keys() []domain.TemplateKey {
	keys := make([]domain.TemplateKey, 0, len(registry))
	for k := range registry {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
