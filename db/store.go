package db

import (
	"context"
	"fmt"

	"mps_intranet_go/models"

	"gorm.io/gorm"
)

// Collection schemas. Index names are what callers pass to List.
var (
	LawyerSchema = Schema{
		Name: "lawyers",
		Key:  "username",
		Indexes: map[string]Index{
			"email":  {Column: "email", Unique: true},
			"status": {Column: "status"},
		},
	}
	LeadSchema = Schema{
		Name: "leads",
		Key:  "id",
		Indexes: map[string]Index{
			"lawyer": {Column: "lawyer"},
			"status": {Column: "status"},
		},
	}
	DeadlineSchema = Schema{
		Name: "deadlines",
		Key:  "id",
		Indexes: map[string]Index{
			"lawyer": {Column: "lawyer"},
			"status": {Column: "status"},
		},
	}
	CaseSchema = Schema{
		Name: "cases",
		Key:  "id",
		Indexes: map[string]Index{
			"number": {Column: "number", Unique: true},
			"lawyer": {Column: "lawyer"},
			"status": {Column: "status"},
		},
	}
	DocumentSchema = Schema{
		Name: "documents",
		Key:  "id",
		Indexes: map[string]Index{
			"case":   {Column: "case_id"},
			"lawyer": {Column: "lawyer"},
			"type":   {Column: "type"},
		},
	}
	ActivitySchema = Schema{
		Name: "activities",
		Key:  "id",
		Indexes: map[string]Index{
			"actor": {Column: "actor"},
		},
	}
)

// Store is the record store: one collection per entity, all on the same database
type Store struct {
	db *gorm.DB

	Lawyers    *Collection[models.Lawyer]
	Leads      *Collection[models.Lead]
	Deadlines  *Collection[models.Deadline]
	Cases      *Collection[models.Case]
	Documents  *Collection[models.Document]
	Activities *Collection[models.ActivityEntry]
}

// NewStore migrates every collection table and creates the declared indexes
func NewStore(ctx context.Context, db *gorm.DB) (*Store, error) {
	s := newStore(db)

	if err := db.WithContext(ctx).AutoMigrate(
		&models.Lawyer{},
		&models.Lead{},
		&models.Deadline{},
		&models.Case{},
		&models.Document{},
		&models.ActivityEntry{},
	); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	for _, schema := range s.Schemas() {
		if err := createIndexes(ctx, db, schema); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func newStore(db *gorm.DB) *Store {
	return &Store{
		db:         db,
		Lawyers:    NewCollection[models.Lawyer](db, LawyerSchema),
		Leads:      NewCollection[models.Lead](db, LeadSchema),
		Deadlines:  NewCollection[models.Deadline](db, DeadlineSchema),
		Cases:      NewCollection[models.Case](db, CaseSchema),
		Documents:  NewCollection[models.Document](db, DocumentSchema),
		Activities: NewCollection[models.ActivityEntry](db, ActivitySchema),
	}
}

// DB exposes the underlying connection
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Schemas returns the collection schemas in snapshot order
func (s *Store) Schemas() []Schema {
	return []Schema{
		s.Lawyers.Schema(),
		s.Leads.Schema(),
		s.Deadlines.Schema(),
		s.Cases.Schema(),
		s.Documents.Schema(),
		s.Activities.Schema(),
	}
}

// Transaction runs fn against a store bound to a single database transaction
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(s.bind(tx))
	})
}

func (s *Store) bind(db *gorm.DB) *Store {
	return &Store{
		db:         db,
		Lawyers:    s.Lawyers.bind(db),
		Leads:      s.Leads.bind(db),
		Deadlines:  s.Deadlines.bind(db),
		Cases:      s.Cases.bind(db),
		Documents:  s.Documents.bind(db),
		Activities: s.Activities.bind(db),
	}
}

func createIndexes(ctx context.Context, db *gorm.DB, schema Schema) error {
	for name, idx := range schema.Indexes {
		unique := ""
		if idx.Unique {
			unique = "UNIQUE "
		}
		stmt := fmt.Sprintf("CREATE %sINDEX IF NOT EXISTS %s ON %s (%s)",
			unique, IndexName(schema, name), schema.Name, idx.Column)
		if err := db.WithContext(ctx).Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create index %s on %s: %w", name, schema.Name, err)
		}
	}
	return nil
}

// IndexName returns the database name of a declared index
func IndexName(schema Schema, index string) string {
	return fmt.Sprintf("idx_%s_%s", schema.Name, index)
}
