package rules

import (
	"github.com/shopspring/decimal"

	"github.com/csg33k/fuel-receipts/internal/domain"
	"github.com/csg33k/fuel-receipts/internal/render"
)

// Short names keep the table readable.
const (
	vehicleID    = domain.FieldVehicleID
	dlNumber     = domain.FieldDLNumber
	companyName  = domain.FieldCompanyName
	driverFirst  = domain.FieldDriverFirstName
	driverLast   = domain.FieldDriverLastName
	checkNumber  = domain.FieldCheckNumber
	checkConfirm = domain.FieldCheckNumberConfirm
	entryMethod  = domain.FieldCardEntryMethod
	copyType     = domain.FieldCopyType
	signature    = domain.FieldSignature
	itemQuantity = domain.FieldItemQuantity
	cardLast4    = domain.FieldCardLast4
)

// BaseProfile is the starting point every resolution applies deltas to, and
// the documented fallback when the table cannot resolve a combination.
func BaseProfile() domain.FieldRequirementProfile {
	return domain.FieldRequirementProfile{
		Fields: set(
			require(vehicleID, dlNumber, companyName),
			show(driverFirst, driverLast, entryMethod, cardLast4, copyType, itemQuantity),
			hide(signature, checkNumber, checkConfirm),
		),
		Labels: domain.Labels{
			Volume:    "Volume",
			UnitPrice: "Price",
			Quantity:  "Qty",
		},
		FleetPlacement: domain.PlacementStandard,
		DriverBlock:    true,
	}
}

var emvCards = []domain.TenderType{domain.Visa, domain.Mastercard, domain.AmericanExpress}

var allCards = []domain.TenderType{
	domain.Visa, domain.Mastercard, domain.AmericanExpress, domain.Interac, domain.EFS, domain.TCH,
}

func rate(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// DefaultTable is the production rule table. Order within equal specificity
// only matters for reporting; the resolver sorts by specificity.
func DefaultTable() []Rule {
	return []Rule{
		// ── Tender defaults ─────────────────────────────────────────────────
		{
			Name:     "tender-cash",
			Merchant: anyMerchant(), Tender: tenders(domain.Cash),
			Delta: Delta{
				Fields:   hide(entryMethod, cardLast4),
				Template: render.TemplateStandardCash,
			},
		},
		{
			Name:     "tender-emv-card",
			Merchant: anyMerchant(), Tender: tenders(emvCards...),
			Delta: Delta{
				Fields:   set(require(cardLast4), show(signature)),
				Template: render.TemplateStandardCard,
			},
		},
		{
			Name:     "tender-interac",
			Merchant: anyMerchant(), Tender: tenders(domain.Interac),
			Delta: Delta{
				Fields:   require(cardLast4),
				Template: render.TemplateStandardInterac,
			},
		},
		{
			Name:     "tender-efs",
			Merchant: anyMerchant(), Tender: tenders(domain.EFS),
			Delta: Delta{
				Fields:   set(require(driverFirst, driverLast, checkNumber, checkConfirm, cardLast4), show(signature)),
				Template: render.TemplateStandardEFS,
			},
		},
		{
			Name:     "tender-tch",
			Merchant: anyMerchant(), Tender: tenders(domain.TCH),
			Delta: Delta{
				Fields:   set(require(cardLast4), show(signature)),
				Template: render.TemplateStandardTCH,
			},
		},

		// ── Jurisdiction defaults ───────────────────────────────────────────
		{
			Name:     "jurisdiction-usa",
			Merchant: anyMerchant(), Jurisdiction: in(domain.USA),
			Delta: Delta{
				Labels: domain.Labels{Volume: "Gallons", UnitPrice: "Price/Gal"},
			},
		},
		{
			// Canadian terminals do not report the card entry method.
			Name:     "jurisdiction-canada",
			Merchant: anyMerchant(), Jurisdiction: in(domain.Canada),
			Delta: Delta{
				Fields: hide(entryMethod),
				Labels: domain.Labels{Volume: "Litres", UnitPrice: "Price/L"},
			},
		},

		// ── Love's ──────────────────────────────────────────────────────────
		{
			Name:     "loves-cash",
			Merchant: family(domain.FamilyLoves), Tender: tenders(domain.Cash),
			Delta:    Delta{Template: render.TemplateLovesCash},
		},
		{
			Name:     "loves-card",
			Merchant: family(domain.FamilyLoves), Tender: tenders(emvCards...),
			Delta:    Delta{Template: render.TemplateLovesCard},
		},
		{
			// Company and driver names stand in for vehicle details on EFS.
			Name:     "loves-efs",
			Merchant: family(domain.FamilyLoves), Tender: tenders(domain.EFS),
			Delta: Delta{
				Fields: set(
					hide(vehicleID, dlNumber, checkNumber, checkConfirm),
					require(companyName, driverFirst, driverLast, signature),
				),
				Template: render.TemplateLovesEFS,
			},
		},
		{
			Name:     "loves-tch",
			Merchant: family(domain.FamilyLoves), Tender: tenders(domain.TCH),
			Delta: Delta{
				Fields:   require(signature),
				Template: render.TemplateLovesTCH,
			},
		},

		// ── Pilot / Flying J ────────────────────────────────────────────────
		{
			Name:     "pilot-brand",
			Merchant: family(domain.FamilyPilot),
			Delta: Delta{
				Fields:   show(dlNumber),
				Template: render.TemplatePilot,
			},
		},
		{
			Name:     "pilot-card-copy",
			Merchant: family(domain.FamilyPilot), Tender: tenders(allCards...),
			Delta:    Delta{Fields: require(copyType)},
		},

		// ── ONE9 ────────────────────────────────────────────────────────────
		{
			Name:     "one9-brand",
			Merchant: family(domain.FamilyOne9),
			Delta: Delta{
				Fields:   require(driverFirst, driverLast),
				Template: render.TemplateOne9,
			},
		},
		{
			// Vehicle and company print in the extended block; the
			// check-number/driver-name sub-block is suppressed.
			Name:     "one9-mastercard",
			Merchant: family(domain.FamilyOne9), Tender: tenders(domain.Mastercard),
			Delta: Delta{
				Fields: set(
					hide(checkNumber, checkConfirm, driverFirst, driverLast),
					require(signature, vehicleID, companyName),
				),
				Template:    render.TemplateOne9Extended,
				Placement:   placement(domain.PlacementExtended),
				DriverBlock: boolean(false),
			},
		},

		// ── TA / Petro ──────────────────────────────────────────────────────
		{
			Name:     "ta-petro-brand",
			Merchant: family(domain.FamilyTAPetro),
			Delta: Delta{
				Fields:   show(dlNumber),
				Template: render.TemplateTAPetro,
			},
		},

		// ── Husky ───────────────────────────────────────────────────────────
		{
			// Fleet-card sensitive: no vehicle, licence or company on any card.
			Name:     "husky-card-privacy",
			Merchant: family(domain.FamilyHusky), Tender: tenders(allCards...),
			Delta:    Delta{Fields: hide(vehicleID, dlNumber, companyName)},
		},
		{
			Name:     "husky-cash",
			Merchant: family(domain.FamilyHusky), Tender: tenders(domain.Cash),
			Delta:    Delta{Template: render.TemplateHuskyCash},
		},
		{
			Name:     "husky-emv",
			Merchant: family(domain.FamilyHusky), Tender: tenders(domain.Visa, domain.Mastercard, domain.AmericanExpress, domain.Interac),
			Delta:    Delta{Template: render.TemplateHuskyCard},
		},
		{
			Name:     "husky-efs",
			Merchant: family(domain.FamilyHusky), Tender: tenders(domain.EFS),
			Delta:    Delta{Template: render.TemplateHuskyEFS},
		},
		{
			Name:     "husky-tch",
			Merchant: family(domain.FamilyHusky), Tender: tenders(domain.TCH),
			Delta:    Delta{Template: render.TemplateHuskyTCH},
		},
		{
			Name:     "husky-canada-tax",
			Merchant: family(domain.FamilyHusky), Jurisdiction: in(domain.Canada),
			Delta: Delta{Tax: &domain.TaxPolicy{
				Convention: domain.TaxInclusiveBackOut, Rate: rate("0.13"), Label: "GST/HST",
			}},
		},

		// ── BVD ─────────────────────────────────────────────────────────────
		{
			// Fixed catalog, pumps report volume only.
			Name:     "bvd-brand",
			Merchant: family(domain.FamilyBVD),
			Delta: Delta{
				Fields:   hide(itemQuantity),
				Labels:   domain.Labels{Volume: "Volume", UnitPrice: "Unit Price"},
				Template: render.TemplateBVD,
			},
		},
		{
			Name:     "bvd-canada-tax",
			Merchant: family(domain.FamilyBVD), Jurisdiction: in(domain.Canada),
			Delta: Delta{Tax: &domain.TaxPolicy{
				Convention: domain.TaxInclusiveBackOut, Rate: rate("0.05"), Label: "GST",
			}},
		},

		// ── Canadian retail ─────────────────────────────────────────────────
		{
			Name:     "canadian-retail-brand",
			Merchant: family(domain.FamilyCanadianRetail),
			Delta: Delta{
				Fields:   show(vehicleID, dlNumber, companyName),
				Template: render.TemplateCanadianRetail,
			},
		},

		// ── Convenience chains ──────────────────────────────────────────────
		{
			Name:     "convenience-brand",
			Merchant: family(domain.FamilyConvenience),
			Delta: Delta{
				Fields:   show(vehicleID, dlNumber, companyName),
				Template: render.TemplateConvenience,
			},
		},
		{
			Name:     "convenience-usa-tax",
			Merchant: family(domain.FamilyConvenience), Jurisdiction: in(domain.USA),
			Delta: Delta{Tax: &domain.TaxPolicy{
				Convention: domain.TaxItemized, Rate: rate("0.0625"), Label: "SALES TAX",
			}},
		},
	}
}
