// Package composer runs one transaction through the receipt pipeline:
// validation, rule resolution, settlement, synthetic authorization and
// rendering.
package composer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/csg33k/fuel-receipts/internal/domain"
	"github.com/csg33k/fuel-receipts/internal/ports"
	"github.com/csg33k/fuel-receipts/internal/render"
	"github.com/csg33k/fuel-receipts/internal/rules"
	"github.com/csg33k/fuel-receipts/internal/settlement"
	"github.com/csg33k/fuel-receipts/internal/synth"
)

// Request is one transaction as submitted by the intake form.
type Request struct {
	CompanyID     int64
	Country       string
	PaymentMethod string
	Items         []domain.LineItem
	// Fields carries the free-text form values keyed by profile field.
	Fields           map[domain.Field]string
	IncludeSignature bool
	StoreID          int64
	// Store overrides the stored header details when set.
	Store *domain.Store
}

// Result is everything produced for one transaction.
type Result struct {
	Document   domain.ReceiptDocument
	Merchant   *domain.Merchant
	Resolution rules.Resolution
	Settlement domain.Settlement
	Auth       domain.SyntheticAuthorization
}

// Composer is safe for concurrent use. Its only mutable state is the
// receipt-number counter.
type Composer struct {
	companies ports.CompanyDirectory
	merchants ports.MerchantCatalog
	resolver  *rules.Resolver
	calc      *settlement.Calculator
	now       func() time.Time
	random    func() synth.Source
	log       *slog.Logger
	seq       atomic.Uint64
}

type Option func(*Composer)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(c *Composer) { c.now = now } }

// WithRandom sets the per-transaction random source factory.
func WithRandom(f func() synth.Source) Option { return func(c *Composer) { c.random = f } }

func WithLogger(l *slog.Logger) Option { return func(c *Composer) { c.log = l } }

func New(companies ports.CompanyDirectory, merchants ports.MerchantCatalog, resolver *rules.Resolver, opts ...Option) *Composer {
	c := &Composer{
		companies: companies,
		merchants: merchants,
		resolver:  resolver,
		calc:      settlement.NewCalculator(merchants),
		now:       time.Now,
		random:    synth.NewRandom,
		log:       slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Target is the merchant/jurisdiction/tender combination of a request.
type Target struct {
	Company      *domain.Company
	Merchant     *domain.Merchant
	Jurisdiction domain.Jurisdiction
	Tender       domain.TenderType
}

// Complete reports whether every part of the target was parsed and found.
func (t Target) Complete() bool {
	return t.Merchant != nil && t.Jurisdiction != "" && t.Tender != ""
}

// Locate parses and looks up the combination a request addresses. Problems
// are added to verr; the returned target is only usable when verr is empty.
func (c *Composer) Locate(ctx context.Context, companyID int64, country, payment string, verr *domain.ValidationError) (Target, error) {
	var t Target
	var err error
	if t.Jurisdiction, err = domain.ParseJurisdiction(country); err != nil {
		verr.Add("country", "%s", err)
	}
	if t.Tender, err = domain.ParseTenderType(payment); err != nil {
		verr.Add("paymentMethod", "%s", err)
	}
	if companyID <= 0 {
		verr.Add("companyId", "company is required")
		return t, nil
	}

	t.Company, err = c.companies.GetCompany(ctx, companyID)
	if errors.Is(err, domain.ErrNotFound) {
		verr.Add("companyId", "unknown company %d", companyID)
		return t, nil
	}
	if err != nil {
		return t, fmt.Errorf("lookup company: %w", err)
	}
	t.Merchant = c.merchantFor(t.Company)
	return t, nil
}

func (c *Composer) merchantFor(co *domain.Company) *domain.Merchant {
	for _, name := range []string{co.MerchantKey, co.Name} {
		if name == "" {
			continue
		}
		if m, ok := c.merchants.Merchant(name); ok {
			return m
		}
	}
	c.log.Warn("company matches no merchant; using generic", "company_id", co.ID, "company", co.Name)
	return c.merchants.Generic()
}

// Profile resolves the field profile for a combination without composing
// a receipt.
func (c *Composer) Profile(ctx context.Context, companyID int64, country, payment string) (Target, rules.Resolution, error) {
	verr := &domain.ValidationError{}
	t, err := c.Locate(ctx, companyID, country, payment, verr)
	if err != nil {
		return t, rules.Resolution{}, err
	}
	if err := verr.Err(); err != nil {
		return t, rules.Resolution{}, err
	}
	res, err := c.resolver.Resolve(t.Merchant, t.Jurisdiction, t.Tender)
	return t, res, err
}

// Preview settles items with the form's flat preview tax.
func (c *Composer) Preview(items []domain.LineItem, country string) (domain.Settlement, error) {
	verr := &domain.ValidationError{}
	j, err := domain.ParseJurisdiction(country)
	if err != nil {
		verr.Add("country", "%s", err)
	}
	checkItems(items, verr)
	if err := verr.Err(); err != nil {
		return domain.Settlement{}, err
	}
	return c.calc.Preview(items, j)
}

// Compose validates req and produces its receipt. Validation problems are
// returned together as a *domain.ValidationError and no document is built.
func (c *Composer) Compose(ctx context.Context, req Request) (*Result, error) {
	verr := &domain.ValidationError{}
	target, err := c.Locate(ctx, req.CompanyID, req.Country, req.PaymentMethod, verr)
	if err != nil {
		return nil, err
	}
	checkItems(req.Items, verr)

	// Field checks need the profile, which needs a complete target. Resolve
	// whenever the target parsed so every problem is reported in one pass.
	var res rules.Resolution
	var values render.Values
	if target.Complete() {
		res, err = c.resolver.Resolve(target.Merchant, target.Jurisdiction, target.Tender)
		var unsupported *domain.ValidationError
		switch {
		case errors.As(err, &unsupported):
			verr.Merge(unsupported)
		case err != nil:
			return nil, err
		default:
			values = resolveValues(res.Profile, req.Fields, verr)
		}
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}
	if res.Fallback {
		c.log.Warn("receipt uses fallback profile", "merchant", target.Merchant.Key,
			"jurisdiction", target.Jurisdiction, "tender", target.Tender)
	}

	s, err := c.calc.Settle(req.Items, target.Merchant, target.Jurisdiction, res.Tax)
	if err != nil {
		return nil, fmt.Errorf("settle: %w", err)
	}
	for _, l := range s.Lines {
		if l.Ambiguous {
			c.log.Warn("ambiguous line item classification", "item", l.Item.Name,
				"kind", l.Kind, "merchant", target.Merchant.Key)
		}
	}

	store := c.store(ctx, req, target.Company)

	auth := synth.New(c.random()).Synthesize(target.Tender, values.Get(domain.FieldCardLast4))

	now := c.now()
	spec, ok := render.Lookup(res.Template)
	if !ok {
		return nil, &domain.UnresolvedRuleError{
			Merchant: target.Merchant.Key, Jurisdiction: target.Jurisdiction, Tender: target.Tender,
			Reason: domain.ReasonNoTemplate, Rules: res.Applied, Detail: "template " + string(res.Template) + " not registered",
		}
	}
	doc := render.Render(render.Context{
		Spec:          spec,
		Merchant:      target.Merchant,
		Store:         store,
		Jurisdiction:  target.Jurisdiction,
		Tender:        target.Tender,
		Profile:       res.Profile,
		Values:        values,
		Settlement:    s,
		Auth:          auth,
		ReceiptNumber: c.receiptNumber(now),
		Timestamp:     now,
		Signature:     req.IncludeSignature,
	})

	c.log.Info("receipt composed", "receipt", doc.ReceiptNumber, "merchant", target.Merchant.Key,
		"jurisdiction", target.Jurisdiction, "tender", target.Tender, "template", doc.Template,
		"total", settlement.Money(s.Total))
	return &Result{
		Document:   doc,
		Merchant:   target.Merchant,
		Resolution: res,
		Settlement: s,
		Auth:       auth,
	}, nil
}

// store returns header details. A missing store is not an error; the header
// prints a placeholder instead.
func (c *Composer) store(ctx context.Context, req Request, co *domain.Company) domain.Store {
	if req.Store != nil {
		return *req.Store
	}
	if req.StoreID <= 0 {
		return domain.Store{}
	}
	st, err := c.companies.GetStore(ctx, req.StoreID)
	if err != nil {
		c.log.Warn("store lookup failed", "store_id", req.StoreID, "err", err)
		return domain.Store{}
	}
	if st.CompanyID != co.ID {
		c.log.Warn("store belongs to another company", "store_id", st.ID, "company_id", co.ID)
		return domain.Store{}
	}
	return *st
}

// receiptNumber is REC- and eight digits. The millisecond clock plus a
// per-process counter strictly increases, so numbers only repeat after the
// eight-digit space wraps.
func (c *Composer) receiptNumber(now time.Time) string {
	n := (uint64(now.UnixMilli()) + c.seq.Add(1)) % 100_000_000
	return fmt.Sprintf("REC-%08d", n)
}

func checkItems(items []domain.LineItem, verr *domain.ValidationError) {
	if len(items) == 0 {
		verr.Add("items", "at least one item is required")
		return
	}
	for i, it := range items {
		field := fmt.Sprintf("items[%d]", i)
		if strings.TrimSpace(it.Name) == "" {
			verr.Add(field+".name", "name is required")
		}
		if it.DeclaredQuantity.IsNegative() {
			verr.Add(field+".quantity", "quantity must not be negative")
		}
		if it.UnitPrice.IsNegative() {
			verr.Add(field+".price", "price must not be negative")
		}
		if it.MultiplierQty != nil && it.MultiplierQty.IsNegative() {
			verr.Add(field+".qty", "qty must not be negative")
		}
		if it.PumpNumber != nil && *it.PumpNumber <= 0 {
			verr.Add(field+".pump", "pump must be positive")
		}
	}
}

// inputFields are the profile fields the form collects as text. Signature
// and item quantity are layout switches, not values.
var inputFields = []domain.Field{
	domain.FieldVehicleID, domain.FieldDLNumber, domain.FieldCompanyName,
	domain.FieldDriverFirstName, domain.FieldDriverLastName,
	domain.FieldCheckNumber, domain.FieldCheckNumberConfirm,
	domain.FieldCardEntryMethod, domain.FieldCardLast4, domain.FieldCopyType,
}

// resolveValues keeps the visible fields, trimmed, and reports required
// fields that are empty.
func resolveValues(p domain.FieldRequirementProfile, in map[domain.Field]string, verr *domain.ValidationError) render.Values {
	out := make(render.Values)
	for _, f := range inputFields {
		req := p.Get(f)
		if !req.Visible() {
			continue
		}
		v := strings.TrimSpace(in[f])
		if v == "" {
			if req == domain.Required {
				verr.Add(string(f), "%s is required", f)
			}
			continue
		}
		out[f] = v
	}

	check, confirm := out[domain.FieldCheckNumber], out[domain.FieldCheckNumberConfirm]
	if check != "" && confirm != "" && check != confirm {
		verr.Add(string(domain.FieldCheckNumberConfirm), "check numbers do not match")
	}
	if v, ok := out[domain.FieldCardLast4]; ok && !strings.ContainsAny(v, "0123456789") {
		verr.Add(string(domain.FieldCardLast4), "card number must contain digits")
	}
	return out
}
