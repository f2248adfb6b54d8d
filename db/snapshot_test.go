package db

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"mps_intranet_go/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedSnapshotData(t *testing.T, store *Store) {
	t.Helper()
	ctx := context.Background()
	caseID := uint(0)

	require.NoError(t, store.Lawyers.Add(ctx, &models.Lawyer{
		Username:    "adv01",
		Name:        "Dr. Carlos Silva",
		Email:       "carlos.silva@mpsadv.com.br",
		Status:      models.LawyerStatusActive,
		Permissions: models.DefaultPermissions(),
		Password:    "$2a$10$hash",
	}))
	require.NoError(t, store.Leads.Add(ctx, &models.Lead{Lawyer: "adv01", ClientName: "João", CaseType: "Civil", Status: models.LeadStatusNew}))
	require.NoError(t, store.Leads.Add(ctx, &models.Lead{Lawyer: "adv01", ClientName: "Maria", CaseType: "Família", Status: models.LeadStatusLost}))
	require.NoError(t, store.Deadlines.Add(ctx, &models.Deadline{
		Lawyer: "adv01", Type: models.DeadlineTypeFiling, Description: "Contestação",
		DueAt: time.Now().Add(72 * time.Hour), Priority: models.PriorityUrgent, Status: models.DeadlineStatusPending,
	}))
	c := &models.Case{Number: "0012345-56.2023.8.11.0001", Lawyer: "adv01", ClientName: "João", Value: 15000.5, Status: models.CaseStatusActive}
	require.NoError(t, store.Cases.Add(ctx, c))
	caseID = c.ID
	require.NoError(t, store.Documents.Add(ctx, &models.Document{Lawyer: "adv01", CaseID: &caseID, Name: "Inicial.pdf", UploadedAt: time.Now()}))
	require.NoError(t, store.Activities.Add(ctx, &models.ActivityEntry{Actor: "adv01", Kind: models.ActivityLogin, CreatedAt: time.Now()}))
}

func leadIDs(leads []models.Lead) []uint {
	ids := make([]uint, len(leads))
	for i, l := range leads {
		ids[i] = l.ID
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func TestExportAll(t *testing.T) {
	store := setupTestStore(t)
	seedSnapshotData(t, store)

	snap, err := store.ExportAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, SchemaVersion, snap.Version)
	assert.False(t, snap.ExportDate.IsZero())
	require.Len(t, snap.Lawyers, 1)
	assert.Equal(t, "$2a$10$hash", snap.Lawyers[0].Password)
	assert.Len(t, snap.Leads, 2)
	assert.Len(t, snap.Deadlines, 1)
	assert.Len(t, snap.Cases, 1)
	assert.Len(t, snap.Documents, 1)
	assert.Len(t, snap.Activities, 1)
}

func TestImportExportRoundTrip(t *testing.T) {
	ctx := context.Background()
	source := setupTestStore(t)
	seedSnapshotData(t, source)

	snap, err := source.ExportAll(ctx)
	require.NoError(t, err)
	data, err := snap.MarshalIndent()
	require.NoError(t, err)

	parsed, err := ParseSnapshot(data)
	require.NoError(t, err)

	// Import into the same store, then into a fresh one
	for _, target := range []*Store{source, setupTestStore(t)} {
		require.NoError(t, target.ImportAll(ctx, parsed))

		lawyers, err := target.Lawyers.All(ctx)
		require.NoError(t, err)
		require.Len(t, lawyers, 1)
		assert.Equal(t, "adv01", lawyers[0].Username)
		assert.Equal(t, "$2a$10$hash", lawyers[0].Password)
		assert.Equal(t, models.DefaultPermissions(), lawyers[0].Permissions)

		leads, err := target.Leads.All(ctx)
		require.NoError(t, err)
		assert.Equal(t, leadIDs(snap.Leads), leadIDs(leads))

		cases, err := target.Cases.All(ctx)
		require.NoError(t, err)
		require.Len(t, cases, 1)
		assert.Equal(t, snap.Cases[0].ID, cases[0].ID)
		assert.Equal(t, snap.Cases[0].Number, cases[0].Number)
		assert.Equal(t, 15000.5, cases[0].Value)

		docs, err := target.Documents.All(ctx)
		require.NoError(t, err)
		require.Len(t, docs, 1)
		require.NotNil(t, docs[0].CaseID)
		assert.Equal(t, cases[0].ID, *docs[0].CaseID)

		deadlines, err := target.Deadlines.All(ctx)
		require.NoError(t, err)
		assert.Len(t, deadlines, 1)

		activities, err := target.Activities.All(ctx)
		require.NoError(t, err)
		assert.Len(t, activities, 1)
	}
}

func TestImportAllIsAtomic(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	seedSnapshotData(t, store)

	bad := &Snapshot{
		Version: SchemaVersion,
		Leads:   []models.Lead{{ID: 1, Lawyer: "adv02", ClientName: "Novo", CaseType: "Civil", Status: models.LeadStatusNew}},
		Cases: []models.Case{
			{ID: 1, Number: "dup", Lawyer: "adv02", ClientName: "A", Status: models.CaseStatusActive},
			{ID: 2, Number: "dup", Lawyer: "adv02", ClientName: "B", Status: models.CaseStatusActive},
		},
	}

	err := store.ImportAll(ctx, bad)
	assert.True(t, errors.Is(err, ErrDuplicateKey))

	leads, err := store.Leads.All(ctx)
	require.NoError(t, err)
	assert.Len(t, leads, 2)

	lawyers, err := store.Lawyers.All(ctx)
	require.NoError(t, err)
	assert.Len(t, lawyers, 1)
}

func TestImportAllRejectsBadVersion(t *testing.T) {
	store := setupTestStore(t)

	err := store.ImportAll(context.Background(), &Snapshot{Version: SchemaVersion + 1})
	assert.True(t, errors.Is(err, ErrMalformedImport))

	err = store.ImportAll(context.Background(), nil)
	assert.True(t, errors.Is(err, ErrMalformedImport))
}

func TestParseSnapshot(t *testing.T) {
	complete := `{"lawyers":[],"leads":[],"deadlines":[],"cases":[],"documents":[],"activities":[],"exportDate":"2026-01-02T10:00:00Z","version":4}`

	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"complete", complete, nil},
		{"not json", `{"lawyers":`, ErrMalformedImport},
		{"missing version", `{"lawyers":[],"leads":[],"deadlines":[],"cases":[],"documents":[],"activities":[]}`, ErrMalformedImport},
		{"missing collection", `{"lawyers":[],"leads":[],"deadlines":[],"cases":[],"documents":[],"version":4}`, ErrMalformedImport},
		{"unknown permission", `{"lawyers":[{"username":"x","permissions":["root"]}],"leads":[],"deadlines":[],"cases":[],"documents":[],"activities":[],"version":4}`, ErrMalformedImport},
		{"unknown collection", `{"lawyers":[],"leads":[],"deadlines":[],"cases":[],"documents":[],"activities":[],"clientes":[],"version":4}`, ErrUnknownCollection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, err := ParseSnapshot([]byte(tt.input))
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr))
				assert.Nil(t, snap)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 4, snap.Version)
		})
	}
}
