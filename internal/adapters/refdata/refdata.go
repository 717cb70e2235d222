// Package refdata loads the immutable merchant and item-catalog reference
// tables from YAML.
package refdata

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/csg33k/fuel-receipts/internal/domain"
)

//go:embed merchants.yaml
var defaultYAML []byte

// GenericKey is the merchant used when a company names no known brand.
const GenericKey = "generic"

// Aliases shorter than this only match a whole name, so "ta" does not
// claim every company with those letters in it.
const minContainsLen = 4

type itemFile struct {
	Name  string `yaml:"name"`
	Kind  string `yaml:"kind"`
	Price string `yaml:"price"`
}

type merchantFile struct {
	Key              string     `yaml:"key"`
	Name             string     `yaml:"name"`
	Family           string     `yaml:"family"`
	Aliases          []string   `yaml:"aliases"`
	Jurisdictions    []string   `yaml:"jurisdictions"`
	Tenders          []string   `yaml:"tenders"`
	SuppressQuantity bool       `yaml:"suppress_quantity"`
	Slogan           string     `yaml:"slogan"`
	Catalog          []itemFile `yaml:"catalog"`
}

type file struct {
	Catalog   []itemFile     `yaml:"catalog"`
	Merchants []merchantFile `yaml:"merchants"`
}

type alias struct {
	norm     string
	merchant *domain.Merchant
}

// Catalog is the loaded reference data. It is never modified after Load and
// is safe for concurrent readers.
type Catalog struct {
	merchants []*domain.Merchant
	byKey     map[string]*domain.Merchant
	aliases   []alias // longest first
	items     []domain.CatalogItem
	byItem    map[string]domain.CatalogItem
}

// Default loads the embedded reference data.
func Default() (*Catalog, error) {
	return Load(bytes.NewReader(defaultYAML))
}

// LoadFile loads reference data from path, or the embedded data when path
// is empty.
func LoadFile(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open reference data: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load decodes and validates reference data.
func Load(r io.Reader) (*Catalog, error) {
	var raw file
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode reference data: %w", err)
	}

	c := &Catalog{
		byKey:  make(map[string]*domain.Merchant),
		byItem: make(map[string]domain.CatalogItem),
	}
	items, err := parseItems(raw.Catalog)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	for _, it := range items {
		k := strings.ToLower(it.Name)
		if _, dup := c.byItem[k]; dup {
			return nil, fmt.Errorf("catalog: duplicate item %q", it.Name)
		}
		c.byItem[k] = it
	}
	c.items = items

	for _, mf := range raw.Merchants {
		m, err := parseMerchant(mf)
		if err != nil {
			return nil, err
		}
		if _, dup := c.byKey[m.Key]; dup {
			return nil, fmt.Errorf("duplicate merchant key %q", m.Key)
		}
		c.byKey[m.Key] = m
		c.merchants = append(c.merchants, m)
		for _, a := range append([]string{m.Key, m.Name}, mf.Aliases...) {
			if n := Normalize(a); n != "" {
				c.aliases = append(c.aliases, alias{norm: n, merchant: m})
			}
		}
	}
	if _, ok := c.byKey[GenericKey]; !ok {
		return nil, fmt.Errorf("reference data has no %q merchant", GenericKey)
	}
	slices.SortStableFunc(c.aliases, func(a, b alias) int { return len(b.norm) - len(a.norm) })
	return c, nil
}

func parseMerchant(mf merchantFile) (*domain.Merchant, error) {
	key := strings.TrimSpace(mf.Key)
	if key == "" {
		return nil, fmt.Errorf("merchant %q: key required", mf.Name)
	}
	m := &domain.Merchant{
		Key:              key,
		Name:             strings.TrimSpace(mf.Name),
		Family:           domain.BrandFamily(strings.TrimSpace(mf.Family)),
		SuppressQuantity: mf.SuppressQuantity,
		Slogan:           mf.Slogan,
	}
	if m.Name == "" {
		return nil, fmt.Errorf("merchant %s: name required", key)
	}
	if m.Family == "" {
		m.Family = domain.FamilyGeneric
	}
	for _, s := range mf.Jurisdictions {
		j, err := domain.ParseJurisdiction(s)
		if err != nil {
			return nil, fmt.Errorf("merchant %s: %w", key, err)
		}
		m.Jurisdictions = append(m.Jurisdictions, j)
	}
	if len(m.Jurisdictions) == 0 {
		return nil, fmt.Errorf("merchant %s: at least one jurisdiction required", key)
	}
	for _, s := range mf.Tenders {
		t, err := domain.ParseTenderType(s)
		if err != nil {
			return nil, fmt.Errorf("merchant %s: %w", key, err)
		}
		m.Tenders = append(m.Tenders, t)
	}
	if len(m.Tenders) == 0 {
		return nil, fmt.Errorf("merchant %s: at least one tender required", key)
	}
	if mf.Catalog != nil {
		items, err := parseItems(mf.Catalog)
		if err != nil {
			return nil, fmt.Errorf("merchant %s catalog: %w", key, err)
		}
		m.Catalog = items
	}
	return m, nil
}

func parseItems(raw []itemFile) ([]domain.CatalogItem, error) {
	items := make([]domain.CatalogItem, 0, len(raw))
	for _, it := range raw {
		name := strings.TrimSpace(it.Name)
		if name == "" {
			return nil, fmt.Errorf("item name required")
		}
		kind, err := domain.ParseLineItemKind(it.Kind)
		if err != nil {
			return nil, fmt.Errorf("item %s: %w", name, err)
		}
		price := decimal.Zero
		if p := strings.TrimSpace(it.Price); p != "" {
			price, err = decimal.NewFromString(p)
			if err != nil {
				return nil, fmt.Errorf("item %s price: %w", name, err)
			}
			if price.IsNegative() {
				return nil, fmt.Errorf("item %s: price must be non-negative", name)
			}
		}
		items = append(items, domain.CatalogItem{Name: name, Kind: kind, DefaultPrice: price})
	}
	return items, nil
}

// Normalize reduces a brand or company name to lower-case letters and digits.
func Normalize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		}
		return -1
	}, s)
}

// Merchant resolves a merchant key, display name or alias. Company names
// such as "Love's #512" match the brand they contain; longer aliases are
// tried first.
func (c *Catalog) Merchant(name string) (*domain.Merchant, bool) {
	if m, ok := c.byKey[strings.TrimSpace(name)]; ok {
		return m, true
	}
	n := Normalize(name)
	if n == "" {
		return nil, false
	}
	for _, a := range c.aliases {
		if a.norm == n {
			return a.merchant, true
		}
	}
	for _, a := range c.aliases {
		if len(a.norm) >= minContainsLen && strings.Contains(n, a.norm) {
			return a.merchant, true
		}
	}
	return nil, false
}

// Generic returns the fallback merchant.
func (c *Catalog) Generic() *domain.Merchant { return c.byKey[GenericKey] }

// Merchants returns every merchant in file order.
func (c *Catalog) Merchants() []*domain.Merchant { return slices.Clone(c.merchants) }

// Find looks an item up in the shared catalog, ignoring case.
func (c *Catalog) Find(itemName string) (domain.CatalogItem, bool) {
	it, ok := c.byItem[strings.ToLower(strings.TrimSpace(itemName))]
	return it, ok
}

// ItemsFor returns the selectable items for m: its fixed catalog when it has
// one, otherwise the shared catalog.
func (c *Catalog) ItemsFor(m *domain.Merchant) []domain.CatalogItem {
	if m != nil && m.Catalog != nil {
		return slices.Clone(m.Catalog)
	}
	return slices.Clone(c.items)
}
