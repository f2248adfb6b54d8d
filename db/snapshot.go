package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"mps_intranet_go/models"
)

// SchemaVersion tags exported snapshots. Bump when a collection changes shape.
const SchemaVersion = 4

// LawyerRecord carries the password hash, which the API representation omits
type LawyerRecord struct {
	models.Lawyer
	Password string `json:"password"`
}

// Snapshot is every collection in one serializable document
type Snapshot struct {
	Lawyers    []LawyerRecord         `json:"lawyers"`
	Leads      []models.Lead          `json:"leads"`
	Deadlines  []models.Deadline      `json:"deadlines"`
	Cases      []models.Case          `json:"cases"`
	Documents  []models.Document      `json:"documents"`
	Activities []models.ActivityEntry `json:"activities"`
	ExportDate time.Time              `json:"exportDate"`
	Version    int                    `json:"version"`
}

// ExportAll reads every collection into a snapshot
func (s *Store) ExportAll(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{ExportDate: time.Now().UTC(), Version: SchemaVersion}

	lawyers, err := s.Lawyers.ordered(ctx)
	if err != nil {
		return nil, err
	}
	snap.Lawyers = make([]LawyerRecord, len(lawyers))
	for i, l := range lawyers {
		snap.Lawyers[i] = LawyerRecord{Lawyer: l, Password: l.Password}
	}

	if snap.Leads, err = s.Leads.ordered(ctx); err != nil {
		return nil, err
	}
	if snap.Deadlines, err = s.Deadlines.ordered(ctx); err != nil {
		return nil, err
	}
	if snap.Cases, err = s.Cases.ordered(ctx); err != nil {
		return nil, err
	}
	if snap.Documents, err = s.Documents.ordered(ctx); err != nil {
		return nil, err
	}
	if snap.Activities, err = s.Activities.ordered(ctx); err != nil {
		return nil, err
	}
	return snap, nil
}

// ImportAll replaces the content of every collection with the snapshot.
// Collections are cleared and refilled in snapshot order inside one transaction,
// so a failure leaves the store as it was.
func (s *Store) ImportAll(ctx context.Context, snap *Snapshot) error {
	if snap == nil {
		return fmt.Errorf("%w: empty snapshot", ErrMalformedImport)
	}
	if snap.Version < 1 || snap.Version > SchemaVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrMalformedImport, snap.Version)
	}

	return s.Transaction(ctx, func(tx *Store) error {
		if err := tx.clearAll(ctx); err != nil {
			return err
		}

		for _, rec := range snap.Lawyers {
			lawyer := rec.Lawyer
			lawyer.Password = rec.Password
			if err := tx.Lawyers.Add(ctx, &lawyer); err != nil {
				return err
			}
		}
		if err := addAll(ctx, tx.Leads, snap.Leads); err != nil {
			return err
		}
		if err := addAll(ctx, tx.Deadlines, snap.Deadlines); err != nil {
			return err
		}
		if err := addAll(ctx, tx.Cases, snap.Cases); err != nil {
			return err
		}
		if err := addAll(ctx, tx.Documents, snap.Documents); err != nil {
			return err
		}
		return addAll(ctx, tx.Activities, snap.Activities)
	})
}

func (s *Store) clearAll(ctx context.Context) error {
	clears := []func(context.Context) error{
		s.Lawyers.Clear,
		s.Leads.Clear,
		s.Deadlines.Clear,
		s.Cases.Clear,
		s.Documents.Clear,
		s.Activities.Clear,
	}
	for _, clearFn := range clears {
		if err := clearFn(ctx); err != nil {
			return err
		}
	}
	return nil
}

func addAll[T any](ctx context.Context, c *Collection[T], recs []T) error {
	for i := range recs {
		rec := recs[i]
		if err := c.Add(ctx, &rec); err != nil {
			return err
		}
	}
	return nil
}

// ParseSnapshot decodes an exported document. It requires the version and every collection,
// and rejects collections this store does not have.
func ParseSnapshot(data []byte) (*Snapshot, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedImport, err)
	}

	required := []string{"version"}
	for _, schema := range []Schema{LawyerSchema, LeadSchema, DeadlineSchema, CaseSchema, DocumentSchema, ActivitySchema} {
		required = append(required, schema.Name)
	}
	known := map[string]bool{"exportDate": true}
	for _, name := range required {
		if _, ok := fields[name]; !ok {
			return nil, fmt.Errorf("%w: missing field %q", ErrMalformedImport, name)
		}
		known[name] = true
	}
	for name := range fields {
		if !known[name] {
			return nil, fmt.Errorf("%w: %q", ErrUnknownCollection, name)
		}
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedImport, err)
	}
	return &snap, nil
}

// MarshalIndent renders the snapshot the way it is written to backups
func (snap *Snapshot) MarshalIndent() ([]byte, error) {
	return json.MarshalIndent(snap, "", "  ")
}
