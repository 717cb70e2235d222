package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/csg33k/fuel-receipts/internal/domain"
)

type Repository struct {
	db   *sql.DB
	path string
}

// New opens the SQLite database file at path. Schema migrations are managed
// by dbmate (`mage dbup`); Migrate applies the same files for AUTO_MIGRATE
// and tests.
func New(path string) (*Repository, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	return &Repository{db: db, path: path}, nil
}

func (r *Repository) Close() error { return r.db.Close() }

// Ping checks the database is reachable.
func (r *Repository) Ping(ctx context.Context) error { return r.db.PingContext(ctx) }

// ── Companies ────────────────────────────────────────────────────────────────

func (r *Repository) CreateCompany(ctx context.Context, c *domain.Company) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO companies (name, merchant_key, country) VALUES (?,?,?)`,
		c.Name, c.MerchantKey, c.Country,
	)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	c.ID = id
	return nil
}

func (r *Repository) GetCompany(ctx context.Context, id int64) (*domain.Company, error) {
	c := &domain.Company{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, merchant_key, country
		FROM companies WHERE id=?`, id).Scan(&c.ID, &c.Name, &c.MerchantKey, &c.Country)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("company %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *Repository) ListCompanies(ctx context.Context) ([]domain.Company, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, merchant_key, country
		FROM companies ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []domain.Company
	for rows.Next() {
		var c domain.Company
		if err := rows.Scan(&c.ID, &c.Name, &c.MerchantKey, &c.Country); err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// ── Stores ───────────────────────────────────────────────────────────────────

func (r *Repository) CreateStore(ctx context.Context, s *domain.Store) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO stores (company_id, store_code, address, city_state, phone)
		VALUES (?,?,?,?,?)`,
		s.CompanyID, s.StoreCode, s.Address, s.CityState, s.Phone,
	)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	s.ID = id
	return nil
}

func (r *Repository) GetStore(ctx context.Context, id int64) (*domain.Store, error) {
	s := &domain.Store{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, company_id, store_code, address, city_state, phone
		FROM stores WHERE id=?`, id).Scan(
		&s.ID, &s.CompanyID, &s.StoreCode, &s.Address, &s.CityState, &s.Phone,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *Repository) ListStores(ctx context.Context, companyID int64) ([]domain.Store, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, company_id, store_code, address, city_state, phone
		FROM stores WHERE company_id=? ORDER BY store_code, id`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []domain.Store
	for rows.Next() {
		var s domain.Store
		if err := rows.Scan(&s.ID, &s.CompanyID, &s.StoreCode, &s.Address, &s.CityState, &s.Phone); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}
