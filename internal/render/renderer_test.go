package render_test

import (
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csg33k/fuel-receipts/internal/domain"
	"github.com/csg33k/fuel-receipts/internal/render"
	"github.com/csg33k/fuel-receipts/internal/rules"
	"github.com/csg33k/fuel-receipts/internal/settlement"
	"github.com/csg33k/fuel-receipts/internal/synth"
)

var merchant = &domain.Merchant{
	Key: "generic", Name: "Fuel Stop", Family: domain.FamilyGeneric,
	Jurisdictions: []domain.Jurisdiction{domain.USA, domain.Canada},
	Tenders:       domain.TenderTypes(),
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func context(t *testing.T, key domain.TemplateKey, tender domain.TenderType) render.Context {
	t.Helper()
	spec, ok := render.Lookup(key)
	require.True(t, ok, key)

	s, err := settlement.NewCalculator(nil).Settle([]domain.LineItem{
		{Name: "Diesel", DeclaredQuantity: dec("100"), UnitPrice: dec("3.50")},
		{Name: "Cash Advance", DeclaredQuantity: dec("40")},
	}, merchant, domain.USA, domain.TaxPolicy{})
	require.NoError(t, err)

	return render.Context{
		Spec:         spec,
		Merchant:     merchant,
		Store:        domain.Store{StoreCode: "77", Address: "1 Main St", CityState: "Joplin, MO", Phone: "555-0100"},
		Jurisdiction: domain.USA,
		Tender:       tender,
		Profile:      rules.BaseProfile(),
		Values: render.Values{
			domain.FieldVehicleID:   "T-100",
			domain.FieldCompanyName: "Haul Co",
			domain.FieldCopyType:    "Customer Copy",
		},
		Settlement:    s,
		Auth:          synth.New(synth.NewSeeded(11)).Synthesize(tender, "4242"),
		ReceiptNumber: "REC-00000042",
		Timestamp:     time.Date(2025, 1, 2, 15, 4, 5, 0, time.UTC),
	}
}

func find(doc domain.ReceiptDocument, kind domain.BlockKind) (domain.Block, bool) {
	i := slices.IndexFunc(doc.Blocks, func(b domain.Block) bool { return b.Kind == kind })
	if i < 0 {
		return domain.Block{}, false
	}
	return doc.Blocks[i], true
}

func text(b domain.Block) string {
	var parts []string
	for _, l := range b.Lines {
		parts = append(parts, l.Text())
	}
	return strings.Join(parts, "\n")
}

func TestRender_Deterministic(t *testing.T) {
	ctx := context(t, render.TemplateStandardCard, domain.Visa)
	assert.Equal(t, render.Render(ctx), render.Render(ctx))
}

func TestRender_EveryTemplateEveryTender(t *testing.T) {
	for _, key := range render.Keys() {
		for _, tender := range domain.TenderTypes() {
			t.Run(string(key)+"/"+string(tender), func(t *testing.T) {
				ctx := context(t, key, tender)
				doc := render.Render(ctx)

				assert.Equal(t, key, doc.Template)
				assert.Equal(t, ctx.Spec.Width, doc.Width)

				var kinds []domain.BlockKind
				for _, b := range doc.Blocks {
					kinds = append(kinds, b.Kind)
					assert.NotEmpty(t, b.Lines, b.Kind)
				}
				assert.True(t, isSubsequence(kinds, ctx.Spec.Blocks), "blocks %v not in template order %v", kinds, ctx.Spec.Blocks)

				tb, ok := find(doc, domain.BlockTender)
				require.True(t, ok)
				if ctx.Shape() != render.ShapeCash && tender.IsCard() {
					assert.Contains(t, text(tb), ctx.Auth.AuthCode)
					assert.Contains(t, text(tb), ctx.Auth.MaskedCard)
				}
			})
		}
	}
}

func isSubsequence(got, want []domain.BlockKind) bool {
	i := 0
	for _, k := range want {
		if i < len(got) && got[i] == k {
			i++
		}
	}
	return i == len(got)
}

func TestRender_MissingStorePrintsPlaceholder(t *testing.T) {
	ctx := context(t, render.TemplateStandardCash, domain.Cash)
	ctx.Store = domain.Store{}
	header, ok := find(render.Render(ctx), domain.BlockHeader)
	require.True(t, ok)
	require.Len(t, header.Lines, 2)
	assert.Equal(t, "FUEL STOP", header.Lines[0].Text())
	assert.Empty(t, header.Lines[1].Columns)
}

func TestRender_BannerReplacesMerchantName(t *testing.T) {
	ctx := context(t, render.TemplateHuskyEFS, domain.EFS)
	header, _ := find(render.Render(ctx), domain.BlockHeader)
	assert.Equal(t, "HUSKY TRAVEL CENTRE", header.Lines[0].Text())
	assert.Equal(t, domain.StyleBold|domain.StyleLarge, header.Lines[0].Style)
}

func TestRender_ItemTable(t *testing.T) {
	ctx := context(t, render.TemplateStandardCash, domain.Cash)
	items, _ := find(render.Render(ctx), domain.BlockItemTable)
	assert.Len(t, items.Lines[0].Columns, 4)
	assert.Equal(t, "DIESEL", items.Lines[1].Text())
	assert.Equal(t, "100.000 GAL 3.500  350.00", items.Lines[2].Text())
	// Cash advance prints an amount only.
	assert.Equal(t, "CASH ADVANCE", items.Lines[3].Text())
	assert.Equal(t, "   40.00", items.Lines[4].Text())

	ctx.Profile.Fields[domain.FieldItemQuantity] = domain.HiddenDisabled
	items, _ = find(render.Render(ctx), domain.BlockItemTable)
	assert.Len(t, items.Lines[0].Columns, 3)
}

func TestRender_PumpNumber(t *testing.T) {
	ctx := context(t, render.TemplateLovesCard, domain.Visa)
	pump := 7
	ctx.Settlement.Lines[0].Item.PumpNumber = &pump
	items, _ := find(render.Render(ctx), domain.BlockItemTable)
	assert.Equal(t, "DIESEL  PUMP 07", items.Lines[1].Text())

	ctx.Spec.ShowPump = false
	items, _ = find(render.Render(ctx), domain.BlockItemTable)
	assert.Equal(t, "DIESEL", items.Lines[1].Text())
}

func TestRender_TaxLines(t *testing.T) {
	tests := []struct {
		name   string
		policy domain.TaxPolicy
		want   string
	}{
		{"zero line", domain.TaxPolicy{Convention: domain.TaxZeroLine, Label: "TAX"}, "TAX 0.00"},
		{"itemized", domain.TaxPolicy{Convention: domain.TaxItemized, Rate: dec("0.0625"), Label: "SALES TAX"}, "SALES TAX 6.25% 24.38"},
		{"inclusive", domain.TaxPolicy{Convention: domain.TaxInclusiveBackOut, Rate: dec("0.13"), Label: "HST"}, "HST INCL. 44.87"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context(t, render.TemplateStandardCash, domain.Cash)
			s, err := settlement.NewCalculator(nil).Settle(
				[]domain.LineItem{{Name: "Diesel", DeclaredQuantity: dec("100"), UnitPrice: dec("3.90")}},
				merchant, domain.USA, tt.policy)
			require.NoError(t, err)
			ctx.Settlement = s
			totals, _ := find(render.Render(ctx), domain.BlockTotals)
			assert.Equal(t, tt.want, totals.Lines[1].Text())
		})
	}
}

func TestRender_Signature(t *testing.T) {
	ctx := context(t, render.TemplateStandardCard, domain.Visa)

	ctx.Profile.Fields[domain.FieldSignature] = domain.HiddenDisabled
	ctx.Signature = true
	_, ok := find(render.Render(ctx), domain.BlockSignature)
	assert.False(t, ok, "hidden signature never prints")

	ctx.Profile.Fields[domain.FieldSignature] = domain.OptionalVisible
	ctx.Signature = false
	_, ok = find(render.Render(ctx), domain.BlockSignature)
	assert.False(t, ok, "optional signature prints only on request")

	ctx.Signature = true
	sig, ok := find(render.Render(ctx), domain.BlockSignature)
	require.True(t, ok)
	assert.Len(t, sig.Lines[1].Text(), ctx.Spec.Width)

	ctx.Profile.Fields[domain.FieldSignature] = domain.Required
	ctx.Signature = false
	_, ok = find(render.Render(ctx), domain.BlockSignature)
	assert.True(t, ok, "required signature always prints")
}

func TestRender_FleetPlacement(t *testing.T) {
	ctx := context(t, render.TemplateOne9Extended, domain.Mastercard)
	ctx.Profile.FleetPlacement = domain.PlacementExtended
	ctx.Profile.DriverBlock = false
	ctx.Values[domain.FieldDriverFirstName] = "Ana"

	doc := render.Render(ctx)
	_, ok := find(doc, domain.BlockFleetInfo)
	assert.False(t, ok)
	ext, ok := find(doc, domain.BlockExtendedFleet)
	require.True(t, ok)
	body := text(ext)
	assert.Contains(t, body, "UNIT # T-100")
	assert.Contains(t, body, "COMPANY HAUL CO")
	assert.Contains(t, body, "AUTH # "+ctx.Auth.AuthCode)
	assert.NotContains(t, body, "ANA", "driver block is suppressed")
}

func TestRender_FleetInfoPlaceholderWhenEmpty(t *testing.T) {
	ctx := context(t, render.TemplateStandardCash, domain.Cash)
	ctx.Values = render.Values{}
	fleet, ok := find(render.Render(ctx), domain.BlockFleetInfo)
	require.True(t, ok)
	require.Len(t, fleet.Lines, 1)
	assert.Empty(t, fleet.Lines[0].Columns)

	for _, f := range []domain.Field{
		domain.FieldVehicleID, domain.FieldDLNumber, domain.FieldCompanyName,
		domain.FieldDriverFirstName, domain.FieldDriverLastName, domain.FieldCheckNumber,
	} {
		ctx.Profile.Fields[f] = domain.HiddenDisabled
	}
	_, ok = find(render.Render(ctx), domain.BlockFleetInfo)
	assert.False(t, ok, "block is omitted when every field is hidden")
}

func TestRender_FooterRepeatsAuthCode(t *testing.T) {
	ctx := context(t, render.TemplateStandardTCH, domain.TCH)
	doc := render.Render(ctx)
	tender, _ := find(doc, domain.BlockTender)
	footer, _ := find(doc, domain.BlockFooter)
	assert.Contains(t, text(tender), "AUTH CODE "+ctx.Auth.AuthCode)
	assert.Contains(t, text(footer), "APPROVAL "+ctx.Auth.AuthCode)
	assert.Contains(t, text(footer), "REC-00000042")
}

func TestLookup(t *testing.T) {
	spec, ok := render.Lookup(render.TemplatePilot)
	require.True(t, ok)
	assert.Equal(t, render.TemplatePilot, spec.Key)
	assert.Equal(t, "Pilot Flying J", spec.Design)

	_, ok = render.Lookup("nope")
	assert.False(t, ok)
	assert.Len(t, render.Keys(), 20)
}
