package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/CatalogMatch/internal/domain/catalog"
	"github.com/turtacn/CatalogMatch/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CatalogMatch/pkg/errors"
)

// CrossReferenceRepository implements catalog.CrossReferenceStore and the
// mapping half of catalog.Importer on a pgx connection pool.
type CrossReferenceRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

func NewCrossReferenceRepository(pool *pgxpool.Pool, logger logging.Logger) *CrossReferenceRepository {
	return &CrossReferenceRepository{pool: pool, logger: logger.Named("crossref_repo")}
}

// FindMapping resolves a foreign identifier to the internal catalog key.
// Foreign keys are matched exactly, case preserved: competitor part numbers
// are frequently case-sensitive.  A missing mapping is ("", false, nil).
func (r *CrossReferenceRepository) FindMapping(ctx context.Context, tenant, foreignKey string) (string, bool, error) {
	var internalKey string
	err := r.pool.QueryRow(ctx, `
		SELECT internal_key
		FROM cross_references
		WHERE tenant_id = $1 AND foreign_key = $2`,
		tenant, foreignKey).Scan(&internalKey)
	if err == pgx.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		r.logger.Error("mapping lookup failed",
			logging.String("tenant", tenant), logging.Err(err))
		return "", false, errors.Wrap(err, errors.ErrCodeDatabaseError, "cross-reference lookup failed")
	}
	return internalKey, true, nil
}

// UpsertCrossReferences inserts or replaces mappings, keyed by
// (tenant, foreign key).  Re-importing a foreign key overwrites its target.
func (r *CrossReferenceRepository) UpsertCrossReferences(ctx context.Context, refs []*catalog.CrossReference) error {
	for _, x := range refs {
		if err := x.Validate(); err != nil {
			return err
		}
	}
	if len(refs) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to begin transaction")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for _, x := range refs {
		_, err := tx.Exec(ctx, `
			INSERT INTO cross_references (tenant_id, foreign_key, internal_key, foreign_name, updated_at)
			VALUES ($1, $2, $3, $4, now())
			ON CONFLICT (tenant_id, foreign_key) DO UPDATE SET
				internal_key = EXCLUDED.internal_key,
				foreign_name = EXCLUDED.foreign_name,
				updated_at = now()`,
			x.TenantID, x.ForeignKey, x.InternalKey, x.ForeignName)
		if err != nil {
			r.logger.Error("cross-reference upsert failed",
				logging.String("tenant", x.TenantID),
				logging.String("foreign_key", x.ForeignKey),
				logging.Err(err))
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to upsert cross-reference")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to commit upsert")
	}
	return nil
}
