package ports

import (
	"context"
	"io"

	"github.com/csg33k/fuel-receipts/internal/domain"
)

// CompanyDirectory is the lookup store for companies and their stores.
type CompanyDirectory interface {
	ListCompanies(ctx context.Context) ([]domain.Company, error)
	// GetCompany returns domain.ErrNotFound for an unknown id.
	GetCompany(ctx context.Context, id int64) (*domain.Company, error)
	ListStores(ctx context.Context, companyID int64) ([]domain.Store, error)
	// GetStore returns domain.ErrNotFound for an unknown id.
	GetStore(ctx context.Context, id int64) (*domain.Store, error)
}

// MerchantCatalog is the immutable merchant reference data plus the shared
// item catalog used by merchants without a fixed one.
type MerchantCatalog interface {
	// Merchant resolves a merchant key or display name.
	Merchant(name string) (*domain.Merchant, bool)
	Merchants() []*domain.Merchant
	// Generic is the merchant used when a company names no known brand.
	Generic() *domain.Merchant
	Find(itemName string) (domain.CatalogItem, bool)
	// ItemsFor lists the items selectable at m.
	ItemsFor(m *domain.Merchant) []domain.CatalogItem
}

// DocumentEncoder writes a rendered receipt in one output format.
type DocumentEncoder interface {
	// Encode writes doc to w.
	Encode(doc domain.ReceiptDocument, w io.Writer) error
	// Extension is the file extension including the dot, e.g. ".pdf".
	Extension() string
	ContentType() string
}

// DocumentStore persists encoded receipts for later download.
type DocumentStore interface {
	// Save stores the document and returns the file name it can be opened by.
	Save(ctx context.Context, doc domain.ReceiptDocument, enc DocumentEncoder) (string, error)
	// Open returns the stored file; domain.ErrNotFound when it does not exist.
	Open(ctx context.Context, fileName string) (io.ReadCloser, error)
}
