// Package settlement classifies raw line items and aggregates them into a
// subtotal, tax line and total under a tax convention.
package settlement

import (
	"strings"

	"github.com/csg33k/fuel-receipts/internal/domain"
)

// cashAdvanceMarker is the legacy naming convention for cash disbursements.
// It is only consulted when an item has no catalog kind tag.
const cashAdvanceMarker = "cash advance"

// Catalog resolves an item name to its tagged catalog entry.
type Catalog interface {
	Find(name string) (domain.CatalogItem, bool)
}

// Source records which rule decided a classification.
type Source string

const (
	SourceCatalogTag Source = "catalog_tag"
	SourceNameMatch  Source = "name_match"
	SourceBrand      Source = "brand"
	SourceDefault    Source = "default"
)

// Classification is the outcome of classifying one item.
type Classification struct {
	Kind   domain.LineItemKind
	Source Source
	// Ambiguous is set when more than one special-case rule matched; the
	// precedence order still produced Kind.
	Ambiguous bool
}

// Classify decides the settlement kind of item for merchant m.
//
// Precedence: catalog kind tag, then the "cash advance" name match, then the
// brand's volume-only convention, then fuel. Cash-advance detection always
// outranks volume-only detection.
func Classify(item domain.LineItem, m *domain.Merchant, catalog Catalog) Classification {
	nameMatch := strings.Contains(strings.ToLower(item.Name), cashAdvanceMarker)
	brandVolumeOnly := m != nil && m.SuppressQuantity

	if entry, ok := findTagged(item.Name, m, catalog); ok {
		c := Classification{Kind: entry.Kind, Source: SourceCatalogTag}
		if nameMatch && entry.Kind != domain.KindCashAdvance {
			c.Ambiguous = true
		}
		if entry.Kind == domain.KindFuel && brandVolumeOnly {
			c.Kind = domain.KindVolumeOnly
		}
		return c
	}
	if nameMatch {
		return Classification{Kind: domain.KindCashAdvance, Source: SourceNameMatch, Ambiguous: brandVolumeOnly}
	}
	if brandVolumeOnly {
		return Classification{Kind: domain.KindVolumeOnly, Source: SourceBrand}
	}
	return Classification{Kind: domain.KindFuel, Source: SourceDefault}
}

func findTagged(name string, m *domain.Merchant, catalog Catalog) (domain.CatalogItem, bool) {
	if m != nil {
		for _, c := range m.Catalog {
			if strings.EqualFold(strings.TrimSpace(c.Name), strings.TrimSpace(name)) {
				return c, true
			}
		}
	}
	if catalog != nil {
		return catalog.Find(name)
	}
	return domain.CatalogItem{}, false
}
