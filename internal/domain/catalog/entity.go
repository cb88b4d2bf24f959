// Package catalog defines the catalog-side data model consumed by the
// matching engine: catalog entries, cross-reference mappings, and the store
// contracts their lookups go through.  The engine treats every type here as
// read-only; catalog population is the responsibility of import pipelines
// outside this repository.
package catalog

import (
	"strings"

	"github.com/google/uuid"

	"github.com/turtacn/CatalogMatch/pkg/errors"
)

// Entry is one sellable item in the distributor's own catalog.
type Entry struct {
	// ID is the opaque unique identifier of the entry.
	ID uuid.UUID

	// TenantID scopes the entry; Key is unique within one tenant.
	TenantID string

	// Key is the internal stocking identifier (SKU).
	Key string

	// Name is the display / description text.
	Name string

	// UnitPrice is optional; nil when the catalog import carried no price.
	UnitPrice *float64

	Category string
	Supplier string

	// Embedding is the semantic vector for the entry, present only when
	// semantic indexing has run.  When present its length must equal the
	// dimensionality agreed with the embedding provider.
	Embedding []float32
}

// Validate checks the invariants an entry must satisfy at the store boundary.
// expectDim is the agreed embedding dimensionality; pass 0 to skip the
// dimensionality check (e.g. when no semantic indexing is configured).
// Entries are validated once here, not re-validated by every tier.
func (e *Entry) Validate(expectDim int) error {
	if e == nil {
		return errors.New(errors.ErrCodeValidation, "catalog entry is nil")
	}
	if e.ID == uuid.Nil {
		return errors.New(errors.ErrCodeValidation, "catalog entry has no id")
	}
	if strings.TrimSpace(e.TenantID) == "" {
		return errors.New(errors.ErrCodeValidation, "catalog entry has no tenant")
	}
	if strings.TrimSpace(e.Key) == "" {
		return errors.Newf(errors.ErrCodeValidation, "catalog entry %s has no key", e.ID)
	}
	if expectDim > 0 && len(e.Embedding) > 0 && len(e.Embedding) != expectDim {
		return errors.Newf(errors.ErrCodeDimensionMismatch,
			"catalog entry %s embedding has %d dimensions, want %d", e.ID, len(e.Embedding), expectDim)
	}
	return nil
}

// CrossReference maps a foreign (competitor) part identifier to one internal
// catalog key.  At most one internal key exists per (tenant, foreign key)
// pair; imports resolve duplicates last-write-wins.
type CrossReference struct {
	TenantID string

	// ForeignKey is the externally-sourced identifier, case preserved:
	// foreign part numbers are frequently case-sensitive.
	ForeignKey string

	// InternalKey is the catalog Key the foreign identifier resolves to.
	InternalKey string

	// ForeignName is informational only.
	ForeignName string
}

// Validate checks the invariants a cross-reference must satisfy on import.
func (x *CrossReference) Validate() error {
	if x == nil {
		return errors.New(errors.ErrCodeValidation, "cross-reference is nil")
	}
	if strings.TrimSpace(x.TenantID) == "" {
		return errors.New(errors.ErrCodeValidation, "cross-reference has no tenant")
	}
	if strings.TrimSpace(x.ForeignKey) == "" {
		return errors.New(errors.ErrCodeValidation, "cross-reference has no foreign key")
	}
	if strings.TrimSpace(x.InternalKey) == "" {
		return errors.Newf(errors.ErrCodeValidation, "cross-reference %q has no internal key", x.ForeignKey)
	}
	return nil
}
