package sqlite

import (
	"context"
	"embed"
	"fmt"
	"io"
	"net/url"

	"github.com/amacneil/dbmate/v2/pkg/dbmate"
	_ "github.com/amacneil/dbmate/v2/pkg/driver/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate runs dbmate over the embedded migrations directory, the same files
// `mage dbup` applies. It returns the file names of the migrations it applied.
func (r *Repository) Migrate(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	u, err := url.Parse("sqlite:" + r.path)
	if err != nil {
		return nil, fmt.Errorf("database url: %w", err)
	}
	db := dbmate.New(u)
	db.FS = migrations
	db.MigrationsDir = []string{"migrations"}
	db.AutoDumpSchema = false
	db.Log = io.Discard

	found, err := db.FindMigrations()
	if err != nil {
		return nil, fmt.Errorf("find migrations: %w", err)
	}
	var pending []string
	for _, m := range found {
		if !m.Applied {
			pending = append(pending, m.FileName)
		}
	}
	if len(pending) == 0 {
		return nil, nil
	}
	if err := db.CreateAndMigrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return pending, nil
}
