package services

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"mps_intranet_go/db"
	"mps_intranet_go/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func newBackupFixture(t *testing.T) (*fixture, *BackupService) {
	f := newFixture(t)
	backups := NewBackupService(f.store, f.activity, NewLocalStorage(t.TempDir()), zap.NewNop())
	backups.now = f.clock.Now
	return f, backups
}

func TestBackupExportImport(t *testing.T) {
	f, backups := newBackupFixture(t)
	admin := f.actor(t, "admin")
	adv01 := f.actor(t, "adv01")

	c, err := f.cases.Add(f.ctx, adv01, CaseInput{Number: sampleCaseNumber, ClientName: "Maria", Value: 10})
	require.NoError(t, err)

	_, err = backups.Export(f.ctx, adv01)
	assert.ErrorIs(t, err, ErrForbidden)

	data, err := backups.Export(f.ctx, admin)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "exportDate")
	assert.Contains(t, raw, "version")

	require.NoError(t, f.cases.Delete(f.ctx, adv01, c.ID))

	assert.ErrorIs(t, backups.Import(f.ctx, adv01, data), ErrForbidden)
	require.NoError(t, backups.Import(f.ctx, admin, data))

	restored, err := f.cases.ByNumber(f.ctx, adv01, sampleCaseNumber)
	require.NoError(t, err)
	assert.Equal(t, c.ID, restored.ID)
	assert.Equal(t, 0, f.countActivity(t, models.ActivityCaseDeleted))
	assert.Equal(t, 1, f.countActivity(t, models.ActivitySystemRestored))

	// restored lawyers keep their passwords
	assert.NoError(t, f.provider.ForToken("t").Login(f.ctx, "adv01", "mps2024"))
}

func TestBackupImportRejectsMalformed(t *testing.T) {
	f, backups := newBackupFixture(t)
	admin := f.actor(t, "admin")

	err := backups.Import(f.ctx, admin, []byte(`{"version": 4, "lawyers": []}`))
	assert.ErrorIs(t, err, db.ErrMalformedImport)

	// nothing was replaced
	n, err := f.lawyers.Count(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, 0, f.countActivity(t, models.ActivitySystemRestored))
}

func TestBackupRun(t *testing.T) {
	f, backups := newBackupFixture(t)

	key, err := backups.Run(f.ctx)
	require.NoError(t, err)
	assert.Regexp(t, `^backups/2026-03-10-\d{6}-[0-9a-f-]{36}\.json$`, key)

	keys, err := backups.Backups(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{key}, keys)

	admin := f.actor(t, "admin")
	_, err = f.lawyers.Create(f.ctx, admin, LawyerInput{Username: "adv03", Name: "Novo", Email: "novo@x.com", Password: "segredo1"})
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	require.NoError(t, backups.RestoreFrom(f.ctx, admin, key))

	_, err = f.lawyers.Get(f.ctx, "adv03")
	assert.ErrorIs(t, err, db.ErrNotFound)

	assert.ErrorIs(t, backups.RestoreFrom(f.ctx, admin, "../secrets.json"), ErrValidation)
	assert.ErrorIs(t, backups.RestoreFrom(f.ctx, admin, "backups/missing.json"), db.ErrNotFound)
}

func TestBackupPrune(t *testing.T) {
	f, backups := newBackupFixture(t)

	var keys []string
	for i := 0; i < 4; i++ {
		key, err := backups.Run(f.ctx)
		require.NoError(t, err)
		keys = append(keys, key)
		f.clock.Advance(time.Hour)
	}

	removed, err := backups.Prune(f.ctx, 0)
	require.NoError(t, err)
	assert.Zero(t, removed)

	removed, err = backups.Prune(f.ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	stored, err := backups.Backups(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, keys[2:], stored)

	removed, err = backups.Prune(f.ctx, 2)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestBackupWorkbook(t *testing.T) {
	f, backups := newBackupFixture(t)
	adv01 := f.actor(t, "adv01")
	_, err := f.leads.Add(f.ctx, adv01, LeadInput{ClientName: "Maria", CaseType: "Civil"})
	require.NoError(t, err)

	_, err = backups.Workbook(f.ctx, adv01)
	assert.ErrorIs(t, err, ErrForbidden)

	buf, err := backups.Workbook(f.ctx, f.actor(t, "admin"))
	require.NoError(t, err)

	wb, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer wb.Close()

	assert.Equal(t, []string{"Lawyers", "Leads", "Deadlines", "Cases", "Documents", "Activity"}, wb.GetSheetList())

	lawyerRows, err := wb.GetRows("Lawyers")
	require.NoError(t, err)
	require.Len(t, lawyerRows, 4)
	assert.Equal(t, "Username", lawyerRows[0][0])
	for _, row := range lawyerRows[1:] {
		for _, cell := range row {
			assert.NotContains(t, cell, "$2a$")
		}
	}

	leadRows, err := wb.GetRows("Leads")
	require.NoError(t, err)
	require.Len(t, leadRows, 2)
	assert.Equal(t, "Maria", leadRows[1][2])
}
