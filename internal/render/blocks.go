package render

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/csg33k/fuel-receipts/internal/domain"
	"github.com/csg33k/fuel-receipts/internal/settlement"
)

// ── Line helpers ─────────────────────────────────────────────────────────────

func centered(text string, style domain.Style) domain.Line {
	return domain.Line{Columns: []domain.Column{{Text: text, Align: domain.AlignCenter}}, Style: style}
}

func pair(label, value string) domain.Line {
	return domain.Line{Columns: []domain.Column{
		{Text: label, Align: domain.AlignLeft, Span: 6},
		{Text: value, Align: domain.AlignRight, Span: 6},
	}}
}

func wide(text string) domain.Line {
	return domain.Line{Columns: []domain.Column{{Text: text}}}
}

func rule() domain.Line { return domain.Line{Style: domain.StyleRule} }

// placeholder is what a block prints when its optional data is missing.
func placeholder() []domain.Line { return []domain.Line{{}} }

func (c *Context) money(d decimal.Decimal) string {
	return c.Units().CurrencySymbol + settlement.Money(d)
}

// ── Builders ─────────────────────────────────────────────────────────────────

func header(c *Context) []domain.Line {
	var lines []domain.Line
	names := c.Spec.Banner
	if len(names) == 0 && c.Merchant != nil {
		names = []string{strings.ToUpper(c.Merchant.Name)}
	}
	for i, n := range names {
		style := domain.StyleBold
		if i == 0 {
			style |= domain.StyleLarge
		}
		lines = append(lines, centered(n, style))
	}
	if c.Store.IsZero() {
		lines = append(lines, placeholder()...)
	} else {
		if c.Store.StoreCode != "" {
			lines = append(lines, centered("STORE #"+c.Store.StoreCode, 0))
		}
		for _, s := range []string{c.Store.Address, c.Store.CityState, c.Store.Phone} {
			if s != "" {
				lines = append(lines, centered(strings.ToUpper(s), 0))
			}
		}
	}
	if c.Merchant != nil && c.Merchant.Slogan != "" {
		lines = append(lines, centered(c.Merchant.Slogan, 0))
	}
	return lines
}

func transactionInfo(c *Context) []domain.Line {
	return []domain.Line{
		pair(c.Timestamp.Format("01/02/2006"), c.Timestamp.Format("15:04:05")),
		pair("RECEIPT", c.ReceiptNumber),
		pair("TRAN #", c.Auth.TransactionNumber),
		pair("TERMINAL", c.Auth.TerminalID),
		rule(),
	}
}

func itemTable(c *Context) []domain.Line {
	labels := c.Profile.Labels
	showQty := c.Profile.Get(domain.FieldItemQuantity).Visible() &&
		(c.Merchant == nil || !c.Merchant.SuppressQuantity)

	cols := func(vol, price, qty, amount string) domain.Line {
		if showQty {
			return domain.Line{Columns: []domain.Column{
				{Text: vol, Align: domain.AlignLeft, Span: 4},
				{Text: price, Align: domain.AlignRight, Span: 3},
				{Text: qty, Align: domain.AlignRight, Span: 2},
				{Text: amount, Align: domain.AlignRight, Span: 3},
			}}
		}
		return domain.Line{Columns: []domain.Column{
			{Text: vol, Align: domain.AlignLeft, Span: 4},
			{Text: price, Align: domain.AlignRight, Span: 4},
			{Text: amount, Align: domain.AlignRight, Span: 4},
		}}
	}

	head := cols(labels.Volume, labels.UnitPrice, labels.Quantity, "Amount")
	head.Style = domain.StyleBold
	lines := []domain.Line{head}
	if len(c.Settlement.Lines) == 0 {
		return append(lines, placeholder()...)
	}

	abbrev := c.Units().VolumeAbbrev
	for _, sl := range c.Settlement.Lines {
		name := strings.ToUpper(sl.Item.Name)
		if c.Spec.ShowPump && sl.Item.PumpNumber != nil {
			name = fmt.Sprintf("%s  PUMP %02d", name, *sl.Item.PumpNumber)
		}
		lines = append(lines, wide(name))

		amount := settlement.Money(sl.Amount)
		switch sl.Kind {
		case domain.KindCashAdvance:
			lines = append(lines, cols("", "", "", amount))
		case domain.KindVolumeOnly:
			lines = append(lines, cols(
				settlement.Volume(sl.Item.DeclaredQuantity)+" "+abbrev,
				sl.Item.UnitPrice.StringFixed(3), "", amount))
		case domain.KindFuel:
			qty := ""
			if sl.Item.MultiplierQty != nil {
				qty = sl.Item.MultiplierQty.String()
			}
			lines = append(lines, cols(
				settlement.Volume(sl.Item.DeclaredQuantity)+" "+abbrev,
				sl.Item.UnitPrice.StringFixed(3), qty, amount))
		}
	}
	return append(lines, rule())
}

func totals(c *Context) []domain.Line {
	s := c.Settlement
	lines := []domain.Line{pair("SUBTOTAL", settlement.Money(s.Subtotal))}

	switch s.Tax.Convention {
	case domain.TaxItemized:
		pct := s.Tax.Rate.Mul(decimal.NewFromInt(100)).String()
		lines = append(lines, pair(fmt.Sprintf("%s %s%%", s.Tax.Label, pct), settlement.Money(s.TaxAmount)))
	case domain.TaxInclusiveBackOut:
		lines = append(lines, pair(s.Tax.Label+" INCL.", settlement.Money(s.TaxAmount)))
	default:
		lines = append(lines, pair(s.Tax.Label, "0.00"))
	}
	if s.CashAdvance.IsPositive() {
		lines = append(lines, pair("CASH ADVANCE", settlement.Money(s.CashAdvance)))
	}

	total := pair(c.Spec.TotalLabel, c.money(s.Total))
	total.Style = domain.StyleBold | domain.StyleLarge
	lines = append(lines, total)
	if s.FuelVolume.IsPositive() {
		lines = append(lines, pair("TOTAL "+c.Units().VolumeAbbrev, settlement.Volume(s.FuelVolume)))
	}
	return append(lines, rule())
}

func tender(c *Context) []domain.Line {
	a := c.Auth
	total := c.money(c.Settlement.Total)
	approved := centered(a.ResponseText, domain.StyleBold)

	switch c.Shape() {
	case ShapeCash:
		return []domain.Line{
			pair("CASH", total),
			pair("CHANGE DUE", c.money(decimal.Zero)),
		}
	case ShapeEMV:
		lines := []domain.Line{
			pair(a.AppLabel, total),
			pair("CARD #", a.MaskedCard),
		}
		if v, ok := c.visible(domain.FieldCardEntryMethod); ok {
			lines = append(lines, pair("ENTRY", strings.ToUpper(v)))
		}
		return append(lines,
			pair("AUTH #", a.AuthCode),
			pair("REF #", a.ReferenceNumber),
			pair("AID", a.AID),
			pair("TVR", a.TVR),
			wide("IAD "+a.IAD),
			pair("TSI", a.TSI),
			pair("ARC", a.ARC),
			approved,
		)
	case ShapeInteracDebit:
		return []domain.Line{
			pair("INTERAC", total),
			pair("ACCOUNT", a.AccountType),
			pair("CARD #", a.MaskedCard),
			pair("AID", a.AID),
			pair("TVR", a.TVR),
			pair("TSI", a.TSI),
			pair("SEQ #", a.SequenceNumber),
			pair("AUTH #", a.AuthCode),
			approved,
		}
	case ShapeFleetEFS:
		return []domain.Line{
			pair("EFS FLEET", total),
			pair("CARD #", a.MaskedCard),
			pair("AUTH #", a.AuthCode),
			pair("TRANS #", a.TransactionNumber),
			pair("INVOICE #", a.ReferenceNumber),
			approved,
		}
	case ShapeFleetTCH:
		return []domain.Line{
			pair("TCH FLEET", total),
			pair("CARD #", a.MaskedCard),
			pair("AUTH CODE", a.AuthCode),
			pair("SEQ #", a.SequenceNumber),
			pair("TERMINAL", a.TerminalID),
			approved,
		}
	}
	return placeholder()
}

// vehicleLines prints the vehicle, licence and company fields. shown reports
// whether any of them is visible on the profile.
func vehicleLines(c *Context) (lines []domain.Line, shown bool) {
	for _, f := range []struct {
		field domain.Field
		label string
	}{
		{domain.FieldVehicleID, "UNIT #"},
		{domain.FieldDLNumber, "DL #"},
		{domain.FieldCompanyName, "COMPANY"},
	} {
		if c.Profile.Get(f.field).Visible() {
			shown = true
		}
		if v, ok := c.visible(f.field); ok {
			lines = append(lines, pair(f.label, strings.ToUpper(v)))
		}
	}
	return lines, shown
}

// driverLines prints the check-number/driver-name sub-block.
func driverLines(c *Context) (lines []domain.Line, shown bool) {
	if !c.Profile.DriverBlock {
		return nil, false
	}
	first, okFirst := c.visible(domain.FieldDriverFirstName)
	last, okLast := c.visible(domain.FieldDriverLastName)
	shown = c.Profile.Get(domain.FieldDriverFirstName).Visible() ||
		c.Profile.Get(domain.FieldDriverLastName).Visible() ||
		c.Profile.Get(domain.FieldCheckNumber).Visible()
	if okFirst || okLast {
		name := strings.TrimSpace(first + " " + last)
		lines = append(lines, pair("DRIVER", strings.ToUpper(name)))
	}
	if v, ok := c.visible(domain.FieldCheckNumber); ok {
		lines = append(lines, pair("CHECK #", v))
	}
	return lines, shown
}

func fleetInfo(c *Context) []domain.Line {
	if c.Profile.FleetPlacement == domain.PlacementExtended {
		return nil
	}
	vehicle, vShown := vehicleLines(c)
	driver, dShown := driverLines(c)
	if !vShown && !dShown {
		return nil
	}
	lines := append(vehicle, driver...)
	if len(lines) == 0 {
		return placeholder()
	}
	return lines
}

func extendedFleet(c *Context) []domain.Line {
	lines := []domain.Line{centered("FLEET DETAILS", domain.StyleBold)}
	vehicle, _ := vehicleLines(c)
	driver, _ := driverLines(c)
	body := append(vehicle, driver...)
	if len(body) == 0 {
		body = placeholder()
	}
	lines = append(lines, body...)
	return append(lines, pair("AUTH #", c.Auth.AuthCode), rule())
}

func signature(c *Context) []domain.Line {
	req := c.Profile.Get(domain.FieldSignature)
	if !req.Visible() || (req != domain.Required && !c.Signature) {
		return nil
	}
	width := c.Spec.Width
	if width < 10 {
		width = 10
	}
	return []domain.Line{
		{},
		wide("X" + strings.Repeat("_", width-1)),
		centered("SIGNATURE", 0),
		centered("I AGREE TO PAY THE ABOVE TOTAL", 0),
		centered("ACCORDING TO THE CARD ISSUER AGREEMENT", 0),
	}
}

func copyType(c *Context) []domain.Line {
	if !c.Profile.Get(domain.FieldCopyType).Visible() {
		return nil
	}
	v, ok := c.visible(domain.FieldCopyType)
	if !ok {
		return placeholder()
	}
	return []domain.Line{centered(strings.ToUpper(v), domain.StyleBold)}
}

func promo(c *Context) []domain.Line {
	if len(c.Spec.Promo) == 0 {
		return nil
	}
	lines := []domain.Line{rule()}
	for _, p := range c.Spec.Promo {
		lines = append(lines, centered(p, 0))
	}
	return lines
}

func footer(c *Context) []domain.Line {
	var lines []domain.Line
	for _, f := range c.Spec.Footer {
		lines = append(lines, centered(f, 0))
	}
	if c.Tender.IsCard() {
		lines = append(lines, centered("APPROVAL "+c.Auth.AuthCode, 0))
	}
	return append(lines, centered(c.ReceiptNumber, 0))
}
