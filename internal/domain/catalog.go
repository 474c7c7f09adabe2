package domain

import "context"

// Catalog entries are maintained by thin CRUD modules outside this service;
// the core only reads them to validate and hydrate references.

type JobType struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Specialization belongs to exactly one JobType (its category).
type Specialization struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	JobTypeID int64  `json:"job_type_id"`
}

type Language struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type City struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	PostalCode string `json:"postal_code"`
	CountryID  int64  `json:"country_id"`
}

type Country struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// Contractual is a form of engagement (freelance, mini job, ...).
type Contractual struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CatalogReader is the read-only view of one catalog.
type CatalogReader[T any] interface {
	FindByID(ctx context.Context, id int64) (*T, error)
	// FindByIDs returns the entries that exist; unknown ids are skipped.
	FindByIDs(ctx context.Context, ids []int64) ([]T, error)
}

// Catalogs bundles the readers the reconciliation needs.
type Catalogs struct {
	JobTypes        CatalogReader[JobType]
	Specializations CatalogReader[Specialization]
	Languages       CatalogReader[Language]
	Cities          CatalogReader[City]
	Countries       CatalogReader[Country]
	Contractuals    CatalogReader[Contractual]
}
