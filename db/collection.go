package db

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Index is a secondary equality lookup declared on a collection
type Index struct {
	Column string
	Unique bool
}

// Schema describes how a collection is keyed and which indexes it carries.
// Name doubles as the table name and the snapshot field.
type Schema struct {
	Name    string
	Key     string
	Indexes map[string]Index
}

// Filter maps index names to the values a record must hold, all of them at once
type Filter map[string]any

// Keyed is implemented by every stored model
type Keyed interface {
	RecordKey() any
}

// Collection is a keyed set of records of one model type
type Collection[T any] struct {
	db     *gorm.DB
	schema Schema
}

// NewCollection binds a schema to a model type
func NewCollection[T any](db *gorm.DB, schema Schema) *Collection[T] {
	return &Collection[T]{db: db, schema: schema}
}

// Name returns the collection name
func (c *Collection[T]) Name() string {
	return c.schema.Name
}

// Schema returns the declared schema
func (c *Collection[T]) Schema() Schema {
	return c.schema
}

func (c *Collection[T]) bind(db *gorm.DB) *Collection[T] {
	return &Collection[T]{db: db, schema: c.schema}
}

// Add inserts rec. Auto-increment keys are filled in on rec.
func (c *Collection[T]) Add(ctx context.Context, rec *T) error {
	if err := c.db.WithContext(ctx).Create(rec).Error; err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("%w in %s", ErrDuplicateKey, c.schema.Name)
		}
		return fmt.Errorf("failed to add to %s: %w", c.schema.Name, err)
	}
	return nil
}

// Get returns the record stored under key. A miss is reported through ok, not err.
func (c *Collection[T]) Get(ctx context.Context, key any) (rec *T, ok bool, err error) {
	var found T
	err = c.db.WithContext(ctx).Where(c.schema.Key+" = ?", key).Take(&found).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get from %s: %w", c.schema.Name, err)
	}
	return &found, true, nil
}

// List returns every record, or only those whose indexed field equals value
// when indexName is set. No ordering is guaranteed.
func (c *Collection[T]) List(ctx context.Context, indexName string, value any) ([]T, error) {
	query, err := c.filter(ctx, indexName, value)
	if err != nil {
		return nil, err
	}

	var recs []T
	if err := query.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", c.schema.Name, err)
	}
	return recs, nil
}

// Match returns the records whose indexed fields equal every value in filter.
// An empty filter matches everything.
func (c *Collection[T]) Match(ctx context.Context, filter Filter) ([]T, error) {
	query := c.db.WithContext(ctx)
	for name, value := range filter {
		idx, ok := c.schema.Indexes[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s.%s", ErrUnknownIndex, c.schema.Name, name)
		}
		query = query.Where(idx.Column+" = ?", value)
	}

	var recs []T
	if err := query.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", c.schema.Name, err)
	}
	return recs, nil
}

// All is List without a filter
func (c *Collection[T]) All(ctx context.Context) ([]T, error) {
	return c.List(ctx, "", nil)
}

// Count counts records, optionally filtered the same way as List
func (c *Collection[T]) Count(ctx context.Context, indexName string, value any) (int64, error) {
	query, err := c.filter(ctx, indexName, value)
	if err != nil {
		return 0, err
	}

	var total int64
	if err := query.Model(new(T)).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", c.schema.Name, err)
	}
	return total, nil
}

// Update loads the record under key, applies patch and writes the whole record back.
// Patch must not change the key.
func (c *Collection[T]) Update(ctx context.Context, key any, patch func(*T)) (*T, error) {
	rec, ok, err := c.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s %v", ErrNotFound, c.schema.Name, key)
	}

	patch(rec)

	if k, isKeyed := any(rec).(Keyed); isKeyed && fmt.Sprint(k.RecordKey()) != fmt.Sprint(key) {
		return nil, fmt.Errorf("%w: %s %v", ErrImmutableKey, c.schema.Name, key)
	}

	if err := c.db.WithContext(ctx).Save(rec).Error; err != nil {
		if isDuplicate(err) {
			return nil, fmt.Errorf("%w in %s", ErrDuplicateKey, c.schema.Name)
		}
		return nil, fmt.Errorf("failed to update %s: %w", c.schema.Name, err)
	}
	return rec, nil
}

// Delete removes the record under key. Deleting a missing key succeeds.
func (c *Collection[T]) Delete(ctx context.Context, key any) error {
	if err := c.db.WithContext(ctx).Where(c.schema.Key+" = ?", key).Delete(new(T)).Error; err != nil {
		return fmt.Errorf("failed to delete from %s: %w", c.schema.Name, err)
	}
	return nil
}

// Clear removes every record
func (c *Collection[T]) Clear(ctx context.Context) error {
	err := c.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(new(T)).Error
	if err != nil {
		return fmt.Errorf("failed to clear %s: %w", c.schema.Name, err)
	}
	return nil
}

// ordered returns every record sorted by key, used for stable exports
func (c *Collection[T]) ordered(ctx context.Context) ([]T, error) {
	recs := []T{}
	if err := c.db.WithContext(ctx).Order(c.schema.Key).Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", c.schema.Name, err)
	}
	return recs, nil
}

func (c *Collection[T]) filter(ctx context.Context, indexName string, value any) (*gorm.DB, error) {
	query := c.db.WithContext(ctx)
	if indexName == "" {
		return query, nil
	}

	idx, ok := c.schema.Indexes[indexName]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownIndex, c.schema.Name, indexName)
	}
	return query.Where(idx.Column+" = ?", value), nil
}
