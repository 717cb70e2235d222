package rules

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"

	"github.com/csg33k/fuel-receipts/internal/domain"
	"github.com/csg33k/fuel-receipts/internal/render"
	"github.com/csg33k/fuel-receipts/internal/units"
)

// Resolution is the outcome of resolving one combination.
type Resolution struct {
	Profile  domain.FieldRequirementProfile `json:"profile"`
	Template domain.TemplateKey             `json:"template"`
	Tax      domain.TaxPolicy               `json:"tax"`
	// Applied lists the matching rule names, most specific first.
	Applied []string `json:"applied"`
	// Fallback is set when the table failed and the base profile was used.
	Fallback bool `json:"fallback,omitempty"`
}

// Resolver evaluates a rule table. It is immutable after construction and
// safe for concurrent use.
type Resolver struct {
	rules  []Rule
	strict bool
	log    *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// Lenient makes Resolve log table defects and return the fallback profile
// instead of failing. Production servers run lenient.
func Lenient() Option { return func(r *Resolver) { r.strict = false } }

// WithLogger sets the logger used for lenient fallbacks.
func WithLogger(l *slog.Logger) Option { return func(r *Resolver) { r.log = l } }

// New builds a strict resolver over table. Rule names must be unique.
func New(table []Rule, opts ...Option) (*Resolver, error) {
	seen := make(map[string]bool, len(table))
	for i, r := range table {
		if r.Name == "" {
			return nil, fmt.Errorf("rules: rule %d has no name", i)
		}
		if seen[r.Name] {
			return nil, fmt.Errorf("rules: duplicate rule name %q", r.Name)
		}
		seen[r.Name] = true
		if r.Delta.Template != "" {
			if _, ok := render.Lookup(r.Delta.Template); !ok {
				return nil, fmt.Errorf("rules: rule %q selects unknown template %q", r.Name, r.Delta.Template)
			}
		}
	}
	sorted := slices.Clone(table)
	slices.SortStableFunc(sorted, func(a, b Rule) int {
		return cmp.Compare(b.Specificity(), a.Specificity())
	})
	res := &Resolver{rules: sorted, strict: true, log: slog.Default()}
	for _, o := range opts {
		o(res)
	}
	return res, nil
}

// MustNew is New for the built-in table.
func MustNew(opts ...Option) *Resolver {
	r, err := New(DefaultTable(), opts...)
	if err != nil {
		panic(err)
	}
	return r
}

// Rules returns the table in evaluation order.
func (r *Resolver) Rules() []Rule { return slices.Clone(r.rules) }

// Strict reports whether table defects are returned as errors.
func (r *Resolver) Strict() bool { return r.strict }

// Resolve computes the profile, template and tax policy for a combination.
//
// A combination the merchant does not support is a *domain.ValidationError.
// A table defect is a *domain.UnresolvedRuleError in strict mode; in lenient
// mode it is logged and the fallback resolution is returned.
func (r *Resolver) Resolve(m *domain.Merchant, j domain.Jurisdiction, t domain.TenderType) (Resolution, error) {
	if err := supported(m, j, t); err != nil {
		return Resolution{}, err
	}
	res, _, err := r.evaluate(m, j, t)
	if err == nil {
		return res, nil
	}
	if r.strict {
		return Resolution{}, err
	}
	r.log.Error("rule table defect; using fallback profile",
		"merchant", m.Key, "jurisdiction", j, "tender", t, "err", err)
	return Fallback(j, t), nil
}

// Fallback is the documented default resolution.
func Fallback(j domain.Jurisdiction, t domain.TenderType) Resolution {
	tmpl := render.TemplateStandardCard
	if t == domain.Cash {
		tmpl = render.TemplateStandardCash
	}
	return Resolution{
		Profile:  BaseProfile(),
		Template: tmpl,
		Tax:      units.For(j).DefaultTax,
		Fallback: true,
	}
}

func supported(m *domain.Merchant, j domain.Jurisdiction, t domain.TenderType) error {
	verr := &domain.ValidationError{}
	if m == nil {
		verr.Add("companyId", "merchant is required")
		return verr
	}
	if !m.Operates(j) {
		verr.Add("country", "%s does not operate in %s", m.Name, j)
	} else if !m.Accepts(j, t) {
		verr.Add("paymentMethod", "%s does not accept %s in %s", m.Name, t.Label(), j)
	}
	return verr.Err()
}

// claim records which rule set an attribute and at what specificity.
type claim struct {
	rule  string
	spec  int
	value any
}

type claims struct {
	m   map[string]claim
	err *domain.UnresolvedRuleError

	// shadowed holds the first overridden claim per attribute and
	// specificity; latent is a disagreement among overridden claims.
	shadowed map[string]claim
	latent   *domain.UnresolvedRuleError
}

// take reports whether rule may set attr. Rules arrive most specific first,
// so an existing claim always wins; an equal-specificity disagreement is
// recorded as ambiguous.
func (c *claims) take(attr string, rule Rule, value any) bool {
	prev, ok := c.m[attr]
	if !ok {
		c.m[attr] = claim{rule: rule.Name, spec: rule.Specificity(), value: value}
		return true
	}
	if prev.spec == rule.Specificity() {
		if prev.value != value && c.err == nil {
			c.err = ambiguous(attr, prev, rule.Name, value, "")
		}
		return false
	}
	c.shadow(attr, rule, value)
	return false
}

// shadow records a claim overridden by a more specific rule. Two overridden
// claims of equal specificity that disagree do not change the outcome, but
// would as soon as the overriding rule is narrowed or removed.
func (c *claims) shadow(attr string, rule Rule, value any) {
	key := fmt.Sprintf("%s@%d", attr, rule.Specificity())
	prev, ok := c.shadowed[key]
	if !ok {
		c.shadowed[key] = claim{rule: rule.Name, spec: rule.Specificity(), value: value}
		return
	}
	if prev.value != value && c.latent == nil {
		winner := c.m[attr].rule
		c.latent = ambiguous(attr, prev, rule.Name, value, "overridden by "+winner)
	}
}

func ambiguous(attr string, prev claim, rule string, value any, note string) *domain.UnresolvedRuleError {
	detail := fmt.Sprintf("%s set to %v and %v at equal specificity", attr, prev.value, value)
	if note != "" {
		detail += " (" + note + ")"
	}
	return &domain.UnresolvedRuleError{
		Reason: domain.ReasonAmbiguous,
		Rules:  []string{prev.rule, rule},
		Detail: detail,
	}
}

// evaluate applies the table to one combination. latent reports a
// contradiction among overridden rules; it never affects the resolution.
func (r *Resolver) evaluate(m *domain.Merchant, j domain.Jurisdiction, t domain.TenderType) (res Resolution, latent, err error) {
	profile := BaseProfile()
	res = Resolution{Tax: units.For(j).DefaultTax}
	c := &claims{m: make(map[string]claim), shadowed: make(map[string]claim)}

	for _, rule := range r.rules {
		if !rule.Matches(m, j, t) {
			continue
		}
		res.Applied = append(res.Applied, rule.Name)
		d := rule.Delta

		// Iterate fields in a fixed order so error reports are stable.
		for _, f := range domain.Fields() {
			req, ok := d.Fields[f]
			if ok && c.take("field:"+string(f), rule, req) {
				profile.Fields[f] = req
			}
		}
		if d.Template != "" && c.take("template", rule, d.Template) {
			res.Template = d.Template
		}
		if d.Tax != nil && c.take("tax", rule, taxKey(*d.Tax)) {
			res.Tax = *d.Tax
		}
		if d.Labels.Volume != "" && c.take("label:volume", rule, d.Labels.Volume) {
			profile.Labels.Volume = d.Labels.Volume
		}
		if d.Labels.UnitPrice != "" && c.take("label:unitPrice", rule, d.Labels.UnitPrice) {
			profile.Labels.UnitPrice = d.Labels.UnitPrice
		}
		if d.Labels.Quantity != "" && c.take("label:quantity", rule, d.Labels.Quantity) {
			profile.Labels.Quantity = d.Labels.Quantity
		}
		if d.Placement != nil && c.take("placement", rule, *d.Placement) {
			profile.FleetPlacement = *d.Placement
		}
		if d.DriverBlock != nil && c.take("driverBlock", rule, *d.DriverBlock) {
			profile.DriverBlock = *d.DriverBlock
		}
	}

	stamp := func(e *domain.UnresolvedRuleError) error {
		e.Merchant, e.Jurisdiction, e.Tender = m.Key, j, t
		return e
	}
	if c.latent != nil {
		latent = stamp(c.latent)
	}
	if c.err != nil {
		return Resolution{}, latent, stamp(c.err)
	}
	if res.Template == "" {
		return Resolution{}, latent, stamp(&domain.UnresolvedRuleError{Reason: domain.ReasonNoTemplate, Rules: res.Applied})
	}
	if err := profile.CheckConsistency(); err != nil {
		return Resolution{}, latent, stamp(&domain.UnresolvedRuleError{
			Reason: domain.ReasonInvariant, Rules: res.Applied, Detail: err.Error(),
		})
	}
	res.Profile = profile
	return res, latent, nil
}

func taxKey(p domain.TaxPolicy) string {
	return fmt.Sprintf("%s@%s/%s", p.Convention, p.Rate.String(), p.Label)
}

// Verify resolves every declared combination of every merchant strictly and
// returns all failures, including contradictions between rules that a more
// specific rule currently overrides. An empty result means the table is
// total.
func (r *Resolver) Verify(merchants []*domain.Merchant) []error {
	var errs []error
	for _, m := range merchants {
		for _, j := range m.Jurisdictions {
			for _, t := range m.Tenders {
				if !m.Accepts(j, t) {
					continue
				}
				_, latent, err := r.evaluate(m, j, t)
				if err != nil {
					errs = append(errs, err)
				}
				if latent != nil {
					errs = append(errs, latent)
				}
			}
		}
	}
	return errs
}
