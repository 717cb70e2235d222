package templates

import (
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/csg33k/fuel-receipts/internal/domain"
)

// money renders an amount as "0.00".
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// price renders a per-unit fuel price as "0.000".
func price(d decimal.Decimal) string {
	return d.StringFixed(3)
}

// itoa converts an int64 to a string, used for option values.
func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

// fieldLabel is the form caption for a profile field.
func fieldLabel(f domain.Field) string {
	switch f {
	case domain.FieldVehicleID:
		return "Unit / Vehicle #"
	case domain.FieldDLNumber:
		return "Driver License #"
	case domain.FieldCompanyName:
		return "Company Name"
	case domain.FieldDriverFirstName:
		return "Driver First Name"
	case domain.FieldDriverLastName:
		return "Driver Last Name"
	case domain.FieldCheckNumber:
		return "Check #"
	case domain.FieldCheckNumberConfirm:
		return "Confirm Check #"
	case domain.FieldCardEntryMethod:
		return "Card Entry Method"
	case domain.FieldCardLast4:
		return "Card Last 4"
	case domain.FieldCopyType:
		return "Copy Type"
	case domain.FieldSignature:
		return "Include Signature Line"
	case domain.FieldItemQuantity:
		return "Item Qty Column"
	}
	return string(f)
}
