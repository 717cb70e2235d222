package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Field names an intake-form field whose visibility depends on the
// merchant/jurisdiction/tender combination.
type Field string

const (
	FieldVehicleID          Field = "vehicleId"
	FieldDLNumber           Field = "dlNumber"
	FieldCompanyName        Field = "companyName"
	FieldDriverFirstName    Field = "driverFirstName"
	FieldDriverLastName     Field = "driverLastName"
	FieldCheckNumber        Field = "checkNumber"
	FieldCheckNumberConfirm Field = "checkNumberConfirm"
	FieldCardEntryMethod    Field = "cardEntryMethod"
	FieldCopyType           Field = "copyType"
	FieldSignature          Field = "signature"
	FieldItemQuantity       Field = "itemQuantity"
	FieldCardLast4          Field = "cardLast4"
)

// Fields lists every profile field in form order.
func Fields() []Field {
	return []Field{
		FieldVehicleID, FieldDLNumber, FieldCompanyName,
		FieldDriverFirstName, FieldDriverLastName,
		FieldCheckNumber, FieldCheckNumberConfirm,
		FieldCardEntryMethod, FieldCardLast4, FieldCopyType,
		FieldSignature, FieldItemQuantity,
	}
}

// Requirement is the resolved state of a single field.
type Requirement int

const (
	OptionalVisible Requirement = iota
	Required
	HiddenDisabled
)

func (r Requirement) String() string {
	switch r {
	case OptionalVisible:
		return "optional"
	case Required:
		return "required"
	case HiddenDisabled:
		return "hidden"
	}
	return fmt.Sprintf("Requirement(%d)", int(r))
}

// MarshalText renders the requirement as its form-facing name.
func (r Requirement) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// Visible reports whether the field is shown on the form.
func (r Requirement) Visible() bool { return r != HiddenDisabled }

// Placement selects where vehicle and company details print on the receipt.
type Placement int

const (
	PlacementStandard Placement = iota
	PlacementExtended
)

func (p Placement) String() string {
	if p == PlacementExtended {
		return "extended"
	}
	return "standard"
}

// MarshalText renders the placement name.
func (p Placement) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// Labels are the column captions for the item table and form.
type Labels struct {
	Volume    string `json:"volume"`
	UnitPrice string `json:"unitPrice"`
	Quantity  string `json:"quantity"`
}

// FieldRequirementProfile is the resolved visibility/requirement outcome for
// one merchant/jurisdiction/tender combination.
type FieldRequirementProfile struct {
	Fields         map[Field]Requirement `json:"fields"`
	Labels         Labels                `json:"labels"`
	FleetPlacement Placement             `json:"fleetPlacement"`
	// DriverBlock prints the check-number/driver-name sub-block.
	DriverBlock bool `json:"driverBlock"`
}

// Get returns the requirement for f; absent fields are optional.
func (p FieldRequirementProfile) Get(f Field) Requirement {
	if r, ok := p.Fields[f]; ok {
		return r
	}
	return OptionalVisible
}

// RequiredFields lists required fields in form order.
func (p FieldRequirementProfile) RequiredFields() []Field {
	var out []Field
	for _, f := range Fields() {
		if p.Get(f) == Required {
			out = append(out, f)
		}
	}
	return out
}

// Clone returns a deep copy safe to modify.
func (p FieldRequirementProfile) Clone() FieldRequirementProfile {
	c := p
	c.Fields = make(map[Field]Requirement, len(p.Fields))
	for k, v := range p.Fields {
		c.Fields[k] = v
	}
	return c
}

// CheckConsistency verifies the companion-field invariants. A field cannot be
// both required and hidden, so the checks are over field pairs.
func (p FieldRequirementProfile) CheckConsistency() error {
	for f, r := range p.Fields {
		if r < OptionalVisible || r > HiddenDisabled {
			return fmt.Errorf("field %s has invalid requirement %d", f, int(r))
		}
	}
	if p.Get(FieldCheckNumberConfirm) == Required && p.Get(FieldCheckNumber) != Required {
		return fmt.Errorf("%s required while %s is %s", FieldCheckNumberConfirm, FieldCheckNumber, p.Get(FieldCheckNumber))
	}
	if p.Get(FieldCheckNumber) == Required && !p.Get(FieldCheckNumberConfirm).Visible() {
		return fmt.Errorf("%s required while %s is hidden", FieldCheckNumber, FieldCheckNumberConfirm)
	}
	if p.Get(FieldDriverLastName) == Required && !p.Get(FieldDriverFirstName).Visible() {
		return fmt.Errorf("%s required while %s is hidden", FieldDriverLastName, FieldDriverFirstName)
	}
	return nil
}

// TemplateKey identifies a receipt template in the render registry.
type TemplateKey string

// TaxConvention is how a settlement computes and prints its tax line.
type TaxConvention int

const (
	// TaxZeroLine prints a literal 0.00 tax line; total equals subtotal.
	TaxZeroLine TaxConvention = iota + 1
	// TaxItemized adds subtotal × rate on top of the subtotal.
	TaxItemized
	// TaxInclusiveBackOut treats prices as tax-inclusive and backs the tax out of the total.
	TaxInclusiveBackOut
)

func (c TaxConvention) String() string {
	switch c {
	case TaxZeroLine:
		return "zero_line"
	case TaxItemized:
		return "itemized"
	case TaxInclusiveBackOut:
		return "inclusive_back_out"
	}
	return "unset"
}

// MarshalText renders the convention name.
func (c TaxConvention) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// TaxPolicy is the convention plus parameters a settlement runs under.
type TaxPolicy struct {
	Convention TaxConvention   `json:"convention"`
	Rate       decimal.Decimal `json:"rate"`
	Label      string          `json:"label"`
}
