// Package repositories provides the PostgreSQL-backed implementations of the
// catalog store contracts.
package repositories

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/CatalogMatch/internal/domain/catalog"
	"github.com/turtacn/CatalogMatch/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CatalogMatch/pkg/errors"
)

const entryColumns = `id, tenant_id, key, name, unit_price, category, supplier, embedding`

// CatalogRepository implements catalog.Store and the entry half of
// catalog.Importer on a pgx connection pool.
type CatalogRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

func NewCatalogRepository(pool *pgxpool.Pool, logger logging.Logger) *CatalogRepository {
	return &CatalogRepository{pool: pool, logger: logger.Named("catalog_repo")}
}

// GetByKey returns the tenant's entry with the given key, compared
// case-insensitively, or (nil, nil) when absent.
func (r *CatalogRepository) GetByKey(ctx context.Context, tenant, key string) (*catalog.Entry, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+entryColumns+`
		FROM catalog_entries
		WHERE tenant_id = $1 AND lower(key) = lower($2)`,
		tenant, key)

	entry, err := scanEntry(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("get by key failed",
			logging.String("tenant", tenant), logging.Err(err))
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "catalog lookup failed")
	}
	return entry, nil
}

// SearchKeyOrName returns up to limit entries whose key or name contains text
// as a case-insensitive substring.  Rows come back in key order so repeated
// searches see identical discovery order.
func (r *CatalogRepository) SearchKeyOrName(ctx context.Context, tenant, text string, limit int) ([]*catalog.Entry, error) {
	pattern := "%" + escapeLike(text) + "%"
	rows, err := r.pool.Query(ctx, `
		SELECT `+entryColumns+`
		FROM catalog_entries
		WHERE tenant_id = $1 AND (key ILIKE $2 OR name ILIKE $2)
		ORDER BY lower(key)
		LIMIT $3`,
		tenant, pattern, limit)
	if err != nil {
		r.logger.Error("catalog search failed",
			logging.String("tenant", tenant), logging.Err(err))
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "catalog search failed")
	}
	defer rows.Close()

	var out []*catalog.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "catalog row scan failed")
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "catalog search failed")
	}
	return out, nil
}

// UpsertEntries inserts or replaces entries, keyed by (tenant, key).
// Validation failures reject the whole batch before any row is written.
func (r *CatalogRepository) UpsertEntries(ctx context.Context, entries []*catalog.Entry) error {
	for _, e := range entries {
		if err := e.Validate(0); err != nil {
			return err
		}
	}
	if len(entries) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to begin transaction")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for _, e := range entries {
		_, err := tx.Exec(ctx, `
			INSERT INTO catalog_entries (id, tenant_id, key, name, unit_price, category, supplier, embedding, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
			ON CONFLICT (tenant_id, lower(key)) DO UPDATE SET
				name = EXCLUDED.name,
				unit_price = EXCLUDED.unit_price,
				category = EXCLUDED.category,
				supplier = EXCLUDED.supplier,
				embedding = EXCLUDED.embedding,
				updated_at = now()`,
			e.ID, e.TenantID, e.Key, e.Name, e.UnitPrice, e.Category, e.Supplier, e.Embedding)
		if err != nil {
			r.logger.Error("entry upsert failed",
				logging.String("tenant", e.TenantID),
				logging.String("key", e.Key),
				logging.Err(err))
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to upsert catalog entry")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to commit upsert")
	}
	return nil
}

// scanEntry maps one row of entryColumns onto a catalog.Entry.
func scanEntry(row pgx.Row) (*catalog.Entry, error) {
	var e catalog.Entry
	err := row.Scan(&e.ID, &e.TenantID, &e.Key, &e.Name, &e.UnitPrice,
		&e.Category, &e.Supplier, &e.Embedding)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// escapeLike escapes the LIKE/ILIKE metacharacters in a user-supplied search
// term so that it always matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
