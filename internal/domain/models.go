package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Jurisdiction is the country-level context that decides units and tax convention.
type Jurisdiction string

const (
	USA    Jurisdiction = "USA"
	Canada Jurisdiction = "Canada"
)

// Jurisdictions lists every supported jurisdiction in display order.
func Jurisdictions() []Jurisdiction { return []Jurisdiction{USA, Canada} }

// ParseJurisdiction accepts the spellings the intake form and seed data use.
func ParseJurisdiction(s string) (Jurisdiction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "USA", "US", "UNITED STATES", "UNITED STATES OF AMERICA":
		return USA, nil
	case "CANADA", "CA", "CAN":
		return Canada, nil
	}
	return "", fmt.Errorf("unknown country %q", s)
}

// TenderType is the payment method used in a transaction. It is a closed set;
// switches over it are expected to be exhaustive.
type TenderType string

const (
	Cash            TenderType = "cash"
	Visa            TenderType = "visa"
	Mastercard      TenderType = "mastercard"
	Interac         TenderType = "interac"
	AmericanExpress TenderType = "amex"
	EFS             TenderType = "efs"
	TCH             TenderType = "tch"
)

// TenderTypes lists every tender variant.
func TenderTypes() []TenderType {
	return []TenderType{Cash, Visa, Mastercard, Interac, AmericanExpress, EFS, TCH}
}

// ParseTenderType maps the form's payment-method strings onto a TenderType.
func ParseTenderType(s string) (TenderType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cash":
		return Cash, nil
	case "visa":
		return Visa, nil
	case "mastercard", "master card", "mc":
		return Mastercard, nil
	case "interac", "debit", "interac debit":
		return Interac, nil
	case "amex", "american express", "americanexpress":
		return AmericanExpress, nil
	case "efs":
		return EFS, nil
	case "tch", "tchek":
		return TCH, nil
	}
	return "", fmt.Errorf("unknown payment method %q", s)
}

// IsCard reports whether the tender prints a card number.
func (t TenderType) IsCard() bool { return t != Cash }

// IsFleet reports whether the tender is a fleet-card network.
func (t TenderType) IsFleet() bool { return t == EFS || t == TCH }

// IsEMV reports whether the tender is a chip card network with EMV tags.
func (t TenderType) IsEMV() bool {
	return t == Visa || t == Mastercard || t == AmericanExpress || t == Interac
}

// Label is the upper-case name printed on receipts.
func (t TenderType) Label() string {
	switch t {
	case Cash:
		return "CASH"
	case Visa:
		return "VISA"
	case Mastercard:
		return "MASTERCARD"
	case Interac:
		return "INTERAC"
	case AmericanExpress:
		return "AMERICAN EXPRESS"
	case EFS:
		return "EFS"
	case TCH:
		return "TCH"
	}
	panic(fmt.Sprintf("domain: unhandled tender %q", string(t)))
}

// BrandFamily groups merchants that share receipt conventions.
type BrandFamily string

const (
	FamilyGeneric        BrandFamily = "generic"
	FamilyLoves          BrandFamily = "loves"
	FamilyPilot          BrandFamily = "pilot"
	FamilyOne9           BrandFamily = "one9"
	FamilyTAPetro        BrandFamily = "ta_petro"
	FamilyHusky          BrandFamily = "husky"
	FamilyBVD            BrandFamily = "bvd"
	FamilyCanadianRetail BrandFamily = "canadian_retail"
	FamilyConvenience    BrandFamily = "convenience"
)

// LineItemKind is the settlement category of a line item.
type LineItemKind string

const (
	KindFuel        LineItemKind = "fuel"
	KindCashAdvance LineItemKind = "cash_advance"
	KindVolumeOnly  LineItemKind = "volume_only"
)

// ParseLineItemKind parses a catalog kind tag.
func ParseLineItemKind(s string) (LineItemKind, error) {
	switch LineItemKind(strings.ToLower(strings.TrimSpace(s))) {
	case KindFuel:
		return KindFuel, nil
	case KindCashAdvance:
		return KindCashAdvance, nil
	case KindVolumeOnly:
		return KindVolumeOnly, nil
	}
	return "", fmt.Errorf("unknown item kind %q", s)
}

// CatalogItem is one selectable item in a merchant's fixed catalog or the
// shared dynamic catalog. Kind is the explicit settlement tag.
type CatalogItem struct {
	Name string
	Kind LineItemKind
	// DefaultPrice is per unit of volume in the merchant's jurisdiction.
	DefaultPrice decimal.Decimal
}

// Merchant is immutable reference data describing a brand that operates receipts.
type Merchant struct {
	Key    string // normalized name key, e.g. "loves"
	Name   string // display name printed in headers
	Family BrandFamily

	Jurisdictions []Jurisdiction
	Tenders       []TenderType

	// Catalog is the fixed list of selectable items; nil means the merchant
	// queries the shared dynamic catalog.
	Catalog []CatalogItem

	// SuppressQuantity marks brands whose pumps report volume only; the
	// discrete multiplier column is never printed or multiplied in.
	SuppressQuantity bool

	Slogan string
}

// Operates reports whether m serves the jurisdiction.
func (m *Merchant) Operates(j Jurisdiction) bool {
	for _, x := range m.Jurisdictions {
		if x == j {
			return true
		}
	}
	return false
}

// Accepts reports whether m takes the tender in jurisdiction j. Interac is a
// Canadian debit network and is never accepted at US locations.
func (m *Merchant) Accepts(j Jurisdiction, t TenderType) bool {
	if t == Interac && j != Canada {
		return false
	}
	for _, x := range m.Tenders {
		if x == t {
			return true
		}
	}
	return false
}

// LineItem is one raw item row from the intake form.
type LineItem struct {
	Name             string
	DeclaredQuantity decimal.Decimal
	UnitPrice        decimal.Decimal
	PumpNumber       *int
	MultiplierQty    *decimal.Decimal
}

// Company is the customer-facing business record owned by the lookup store.
type Company struct {
	ID          int64
	Name        string
	MerchantKey string
	Country     string
}

// Store carries header details only; it never influences decision logic.
type Store struct {
	ID        int64
	CompanyID int64
	StoreCode string
	Address   string
	CityState string
	Phone     string
}

// IsZero reports whether no header detail is present.
func (s Store) IsZero() bool {
	return s.StoreCode == "" && s.Address == "" && s.CityState == "" && s.Phone == ""
}
