package refdata

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csg33k/fuel-receipts/internal/domain"
)

func TestDefault_Loads(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	assert.Len(t, c.Merchants(), 13)
	assert.Equal(t, GenericKey, c.Generic().Key)

	bvd, ok := c.Merchant("bvd")
	require.True(t, ok)
	assert.True(t, bvd.SuppressQuantity)
	assert.NotEmpty(t, bvd.Catalog)
	assert.Equal(t, bvd.Catalog, c.ItemsFor(bvd))
}

func TestMerchant_Resolution(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	tests := []struct {
		in   string
		want string
	}{
		{"loves", "loves"},
		{"Love's Travel Stop", "loves"},
		{"LOVE'S #512", "loves"},
		{"Pilot Flying J", "flying_j"},
		{"Pilot #1234", "pilot"},
		{"TA", "ta"},
		{"Husky Travel Centre - Regina", "husky"},
		{"Petro-Canada", "petro_canada"},
		{"Petro Stopping Center", "petro"},
		{"Kwik Star", "kwik_trip"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			m, ok := c.Merchant(tt.in)
			require.True(t, ok)
			assert.Equal(t, tt.want, m.Key)
		})
	}

	_, ok := c.Merchant("Stationary Goods Ltd")
	assert.False(t, ok, "short aliases must not match inside other words")
	_, ok = c.Merchant("")
	assert.False(t, ok)
}

func TestFind_IgnoresCase(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	it, ok := c.Find("cash advance")
	require.True(t, ok)
	assert.Equal(t, domain.KindCashAdvance, it.Kind)

	it, ok = c.Find(" DIESEL ")
	require.True(t, ok)
	assert.Equal(t, domain.KindFuel, it.Kind)
	assert.Equal(t, "4.099", it.DefaultPrice.String())

	_, ok = c.Find("Windshield Washer")
	assert.False(t, ok)
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		err  string
	}{
		{
			"bad kind",
			"catalog: [{name: X, kind: snacks}]\nmerchants: [{key: generic, name: G, jurisdictions: [USA], tenders: [cash]}]",
			"unknown item kind",
		},
		{
			"bad tender",
			"merchants: [{key: generic, name: G, jurisdictions: [USA], tenders: [bitcoin]}]",
			"unknown payment method",
		},
		{
			"duplicate key",
			"merchants: [{key: generic, name: G, jurisdictions: [USA], tenders: [cash]}, {key: generic, name: H, jurisdictions: [USA], tenders: [cash]}]",
			"duplicate merchant key",
		},
		{
			"no generic",
			"merchants: [{key: loves, name: L, jurisdictions: [USA], tenders: [cash]}]",
			"no \"generic\" merchant",
		},
		{
			"negative price",
			"catalog: [{name: X, kind: fuel, price: \"-1\"}]\nmerchants: [{key: generic, name: G, jurisdictions: [USA], tenders: [cash]}]",
			"non-negative",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.doc))
			assert.ErrorContains(t, err, tt.err)
		})
	}
}
