package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csg33k/fuel-receipts/internal/domain"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	applied, err := repo.Migrate(context.Background())
	require.NoError(t, err)
	require.Len(t, applied, 2)
	return repo
}

func TestMigrate_Idempotent(t *testing.T) {
	repo := newTestRepo(t)
	applied, err := repo.Migrate(context.Background())
	require.NoError(t, err)
	assert.Empty(t, applied)
}

func TestCompanies_SeededAndLookup(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	list, err := repo.ListCompanies(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 13)

	loves, err := repo.GetCompany(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Love's Travel Stop", loves.Name)
	assert.Equal(t, "loves", loves.MerchantKey)

	_, err = repo.GetCompany(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStores_CreateListGet(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	c := &domain.Company{Name: "Test Fuel", MerchantKey: "generic", Country: "USA"}
	require.NoError(t, repo.CreateCompany(ctx, c))
	require.NotZero(t, c.ID)

	for _, code := range []string{"20", "10"} {
		s := &domain.Store{CompanyID: c.ID, StoreCode: code, Address: "1 Main St", CityState: "Springfield, IL", Phone: "555-0100"}
		require.NoError(t, repo.CreateStore(ctx, s))
	}

	stores, err := repo.ListStores(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, stores, 2)
	assert.Equal(t, "10", stores[0].StoreCode)

	got, err := repo.GetStore(ctx, stores[1].ID)
	require.NoError(t, err)
	assert.Equal(t, stores[1], *got)

	_, err = repo.GetStore(ctx, 424242)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMigrate_RecordsDbmateVersions(t *testing.T) {
	repo := newTestRepo(t)

	rows, err := repo.db.Query(`SELECT version FROM schema_migrations ORDER BY version`)
	require.NoError(t, err)
	defer rows.Close()
	var versions []string
	for rows.Next() {
		var v string
		require.NoError(t, rows.Scan(&v))
		versions = append(versions, v)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"20250301120000", "20250301120500"}, versions)
}

func TestMigrate_ReportsAppliedFiles(t *testing.T) {
	repo, err := New(filepath.Join(t.TempDir(), "fresh.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	applied, err := repo.Migrate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"20250301120000_create_companies.sql",
		"20250301120500_seed_companies.sql",
	}, applied)
}

func TestMigrate_CanceledContext(t *testing.T) {
	repo, err := New(filepath.Join(t.TempDir(), "never.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = repo.Migrate(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
