// Package rules resolves a merchant/jurisdiction/tender combination into a
// field requirement profile, a template key and a tax policy.
//
// The decision logic is an ordered table of rules (see table.go). Each rule
// has three predicates and a delta. Matching rules are applied from most to
// least specific: the most specific rule that sets an attribute wins, and
// deltas from less specific rules still apply to attributes nobody more
// specific touched. Two matching rules of equal specificity that disagree on
// an attribute are an error.
package rules

import (
	"slices"
	"strings"

	"github.com/csg33k/fuel-receipts/internal/domain"
)

// MerchantMatch matches by merchant key or brand family. Empty matches any.
type MerchantMatch struct {
	Keys     []string
	Families []domain.BrandFamily
}

func (m MerchantMatch) IsAny() bool { return len(m.Keys) == 0 && len(m.Families) == 0 }

func (m MerchantMatch) Matches(merchant *domain.Merchant) bool {
	if m.IsAny() {
		return true
	}
	if merchant == nil {
		return false
	}
	return slices.Contains(m.Keys, merchant.Key) || slices.Contains(m.Families, merchant.Family)
}

func (m MerchantMatch) String() string {
	if m.IsAny() {
		return "*"
	}
	parts := slices.Clone(m.Keys)
	for _, f := range m.Families {
		parts = append(parts, "family:"+string(f))
	}
	return strings.Join(parts, "|")
}

// JurisdictionMatch matches any listed jurisdiction. Empty matches any.
type JurisdictionMatch []domain.Jurisdiction

func (j JurisdictionMatch) IsAny() bool { return len(j) == 0 }

func (j JurisdictionMatch) Matches(x domain.Jurisdiction) bool {
	return j.IsAny() || slices.Contains(j, x)
}

// TenderMatch matches any listed tender. Empty matches any.
type TenderMatch []domain.TenderType

func (t TenderMatch) IsAny() bool { return len(t) == 0 }

func (t TenderMatch) Matches(x domain.TenderType) bool {
	return t.IsAny() || slices.Contains(t, x)
}

// Delta is what a matching rule contributes. Zero-valued members leave the
// attribute to less specific rules.
type Delta struct {
	Fields      map[domain.Field]domain.Requirement
	Template    domain.TemplateKey
	Tax         *domain.TaxPolicy
	Labels      domain.Labels
	Placement   *domain.Placement
	DriverBlock *bool
}

// Rule is one row of the decision table.
type Rule struct {
	Name         string
	Merchant     MerchantMatch
	Jurisdiction JurisdictionMatch
	Tender       TenderMatch
	Delta        Delta
}

// Matches reports whether all three predicates hold.
func (r Rule) Matches(m *domain.Merchant, j domain.Jurisdiction, t domain.TenderType) bool {
	return r.Merchant.Matches(m) && r.Jurisdiction.Matches(j) && r.Tender.Matches(t)
}

// Specificity orders rules by the number of constrained dimensions, then by
// which dimensions: merchant outranks tender, tender outranks jurisdiction.
// Equal specificity therefore means the same set of constrained dimensions.
func (r Rule) Specificity() int {
	var n, rank int
	if !r.Merchant.IsAny() {
		n++
		rank += 4
	}
	if !r.Tender.IsAny() {
		n++
		rank += 2
	}
	if !r.Jurisdiction.IsAny() {
		n++
		rank++
	}
	return n*8 + rank
}

// ── Table-building helpers ───────────────────────────────────────────────────

func anyMerchant() MerchantMatch { return MerchantMatch{} }

func family(f ...domain.BrandFamily) MerchantMatch { return MerchantMatch{Families: f} }

func in(j ...domain.Jurisdiction) JurisdictionMatch { return j }

func tenders(t ...domain.TenderType) TenderMatch { return t }

// set merges requirement groups into one field map.
func set(groups ...map[domain.Field]domain.Requirement) map[domain.Field]domain.Requirement {
	out := make(map[domain.Field]domain.Requirement)
	for _, g := range groups {
		for f, r := range g {
			out[f] = r
		}
	}
	return out
}

func with(r domain.Requirement, fields ...domain.Field) map[domain.Field]domain.Requirement {
	out := make(map[domain.Field]domain.Requirement, len(fields))
	for _, f := range fields {
		out[f] = r
	}
	return out
}

func require(fields ...domain.Field) map[domain.Field]domain.Requirement {
	return with(domain.Required, fields...)
}

func hide(fields ...domain.Field) map[domain.Field]domain.Requirement {
	return with(domain.HiddenDisabled, fields...)
}

func show(fields ...domain.Field) map[domain.Field]domain.Requirement {
	return with(domain.OptionalVisible, fields...)
}

func placement(p domain.Placement) *domain.Placement { return &p }

func boolean(b bool) *bool { return &b }
