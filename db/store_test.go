package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"mps_intranet_go/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStoreCreatesDeclaredIndexes(t *testing.T) {
	store := setupTestStore(t)
	migrator := store.DB().Migrator()

	assert.True(t, migrator.HasIndex(&models.Lead{}, IndexName(LeadSchema, "lawyer")))
	assert.True(t, migrator.HasIndex(&models.Case{}, IndexName(CaseSchema, "number")))
	assert.True(t, migrator.HasIndex(&models.Lawyer{}, IndexName(LawyerSchema, "email")))
	assert.True(t, migrator.HasIndex(&models.ActivityEntry{}, IndexName(ActivitySchema, "actor")))
	assert.True(t, migrator.HasIndex(&models.Case{}, IndexName(CaseSchema, "status")))
}

func TestAddAndGet(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	created := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)

	lead := &models.Lead{
		Lawyer:      "adv01",
		ClientName:  "João Silva",
		ClientPhone: "(65) 99999-0000",
		CaseType:    "Trabalhista",
		Description: "Rescisão indireta",
		Status:      models.LeadStatusNew,
		CreatedAt:   created,
	}
	require.NoError(t, store.Leads.Add(ctx, lead))
	assert.NotZero(t, lead.ID)

	got, ok, err := store.Leads.Get(ctx, lead.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, lead.ID, got.ID)
	assert.Equal(t, lead.Lawyer, got.Lawyer)
	assert.Equal(t, lead.ClientName, got.ClientName)
	assert.Equal(t, lead.ClientPhone, got.ClientPhone)
	assert.Equal(t, lead.CaseType, got.CaseType)
	assert.Equal(t, lead.Description, got.Description)
	assert.Equal(t, lead.Status, got.Status)
	assert.True(t, created.Equal(got.CreatedAt))
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestAutoIncrementKeys(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	first := &models.ActivityEntry{Actor: "adv01", Kind: models.ActivityLogin}
	second := &models.ActivityEntry{Actor: "adv01", Kind: models.ActivityLogout}
	require.NoError(t, store.Activities.Add(ctx, first))
	require.NoError(t, store.Activities.Add(ctx, second))

	assert.Greater(t, second.ID, first.ID)
}

func TestGetMissing(t *testing.T) {
	store := setupTestStore(t)

	got, ok, err := store.Cases.Get(context.Background(), uint(999))
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestAddDuplicateNaturalKeys(t *testing.T) {
	ctx := context.Background()

	t.Run("Lawyer username", func(t *testing.T) {
		store := setupTestStore(t)
		require.NoError(t, store.Lawyers.Add(ctx, &models.Lawyer{Username: "adv01", Name: "A", Email: "a@mps.test", Password: "x"}))

		err := store.Lawyers.Add(ctx, &models.Lawyer{Username: "adv01", Name: "B", Email: "b@mps.test", Password: "x"})
		assert.True(t, errors.Is(err, ErrDuplicateKey))
	})

	t.Run("Lawyer email", func(t *testing.T) {
		store := setupTestStore(t)
		require.NoError(t, store.Lawyers.Add(ctx, &models.Lawyer{Username: "adv01", Name: "A", Email: "same@mps.test", Password: "x"}))

		err := store.Lawyers.Add(ctx, &models.Lawyer{Username: "adv02", Name: "B", Email: "same@mps.test", Password: "x"})
		assert.True(t, errors.Is(err, ErrDuplicateKey))
	})

	t.Run("Case number", func(t *testing.T) {
		store := setupTestStore(t)
		number := "0012345-56.2023.8.11.0001"
		require.NoError(t, store.Cases.Add(ctx, &models.Case{Number: number, Lawyer: "adv01", ClientName: "João", Status: models.CaseStatusActive}))

		err := store.Cases.Add(ctx, &models.Case{Number: number, Lawyer: "adv02", ClientName: "Maria", Status: models.CaseStatusActive})
		assert.True(t, errors.Is(err, ErrDuplicateKey))
	})
}

func TestListByIndex(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for _, owner := range []string{"adv01", "adv02", "adv01"} {
		require.NoError(t, store.Deadlines.Add(ctx, &models.Deadline{
			Lawyer:      owner,
			Type:        models.DeadlineTypeHearing,
			Description: "Audiência",
			DueAt:       time.Now().Add(48 * time.Hour),
			Priority:    models.PriorityNormal,
			Status:      models.DeadlineStatusPending,
		}))
	}

	all, err := store.Deadlines.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	mine, err := store.Deadlines.List(ctx, "lawyer", "adv01")
	require.NoError(t, err)
	assert.Len(t, mine, 2)
	for _, d := range mine {
		assert.Equal(t, "adv01", d.Lawyer)
	}

	count, err := store.Deadlines.Count(ctx, "lawyer", "adv02")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	_, err = store.Deadlines.List(ctx, "client", "x")
	assert.True(t, errors.Is(err, ErrUnknownIndex))
}

func TestMatch(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	cases := []models.Case{
		{Number: "1", Lawyer: "adv01", ClientName: "Ana", Status: models.CaseStatusActive},
		{Number: "2", Lawyer: "adv01", ClientName: "Bia", Status: models.CaseStatusArchived},
		{Number: "3", Lawyer: "adv02", ClientName: "Caio", Status: models.CaseStatusActive},
	}
	for i := range cases {
		require.NoError(t, store.Cases.Add(ctx, &cases[i]))
	}

	got, err := store.Cases.Match(ctx, Filter{"lawyer": "adv01", "status": models.CaseStatusActive})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].Number)

	active, err := store.Cases.Match(ctx, Filter{"status": models.CaseStatusActive})
	require.NoError(t, err)
	assert.Len(t, active, 2)

	all, err := store.Cases.Match(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = store.Cases.Match(ctx, Filter{"area": "civil"})
	assert.True(t, errors.Is(err, ErrUnknownIndex))
}

func TestUpdate(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	c := &models.Case{Number: "1", Lawyer: "adv01", ClientName: "João", Status: models.CaseStatusActive}
	require.NoError(t, store.Cases.Add(ctx, c))

	t.Run("Merges patch onto stored record", func(t *testing.T) {
		updated, err := store.Cases.Update(ctx, c.ID, func(rec *models.Case) {
			rec.Status = models.CaseStatusArchived
		})
		require.NoError(t, err)
		assert.Equal(t, models.CaseStatusArchived, updated.Status)
		assert.Equal(t, "João", updated.ClientName)

		got, ok, err := store.Cases.Get(ctx, c.ID)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, models.CaseStatusArchived, got.Status)
	})

	t.Run("Missing key", func(t *testing.T) {
		_, err := store.Cases.Update(ctx, uint(4242), func(rec *models.Case) {})
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("Key change rejected", func(t *testing.T) {
		_, err := store.Cases.Update(ctx, c.ID, func(rec *models.Case) { rec.ID = 77 })
		assert.True(t, errors.Is(err, ErrImmutableKey))
	})

	t.Run("Unique collision on update", func(t *testing.T) {
		other := &models.Case{Number: "2", Lawyer: "adv01", ClientName: "Maria", Status: models.CaseStatusActive}
		require.NoError(t, store.Cases.Add(ctx, other))

		_, err := store.Cases.Update(ctx, other.ID, func(rec *models.Case) { rec.Number = "1" })
		assert.True(t, errors.Is(err, ErrDuplicateKey))
	})
}

func TestActivityEntriesCannotBeRewritten(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	entry := &models.ActivityEntry{Actor: "adv01", Kind: models.ActivityLogin}
	require.NoError(t, store.Activities.Add(ctx, entry))

	_, err := store.Activities.Update(ctx, entry.ID, func(rec *models.ActivityEntry) { rec.Description = "edited" })
	assert.Error(t, err)
}

func TestDeleteIsIdempotent(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	doc := &models.Document{Lawyer: "adv01", Name: "Procuração.pdf", UploadedAt: time.Now()}
	require.NoError(t, store.Documents.Add(ctx, doc))

	assert.NoError(t, store.Documents.Delete(ctx, doc.ID))
	assert.NoError(t, store.Documents.Delete(ctx, doc.ID))

	_, ok, err := store.Documents.Get(ctx, doc.ID)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestTransactionRollsBack(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	err := store.Transaction(ctx, func(tx *Store) error {
		if err := tx.Leads.Add(ctx, &models.Lead{Lawyer: "adv01", ClientName: "X", CaseType: "Civil", Status: models.LeadStatusNew}); err != nil {
			return err
		}
		return errors.New("boom")
	})
	assert.Error(t, err)

	count, err := store.Leads.Count(ctx, "", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}
