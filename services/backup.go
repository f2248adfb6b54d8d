package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"mps_intranet_go/db"
	"mps_intranet_go/models"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// BackupPrefix is the key prefix of scheduled backups
const BackupPrefix = "backups/"

// BackupService exports, imports and stores full snapshots of the record store
type BackupService struct {
	store    *db.Store
	activity *ActivityLog
	storage  BackupStorage
	logger   *zap.Logger
	now      func() time.Time
}

func NewBackupService(store *db.Store, activity *ActivityLog, storage BackupStorage, logger *zap.Logger) *BackupService {
	return &BackupService{store: store, activity: activity, storage: storage, logger: logger, now: time.Now}
}

// Export returns the snapshot document as indented JSON. Admin only.
func (s *BackupService) Export(ctx context.Context, actor Actor) ([]byte, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.exportJSON(ctx)
}

func (s *BackupService) exportJSON(ctx context.Context) ([]byte, error) {
	snap, err := s.store.ExportAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export records: %w", err)
	}
	data, err := snap.MarshalIndent()
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}

// Import replaces every collection with an exported document and records the restore. Admin only.
func (s *BackupService) Import(ctx context.Context, actor Actor, data []byte) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	return s.Restore(ctx, actor.Username, data)
}

// Restore replaces every collection with an exported document on behalf of by
func (s *BackupService) Restore(ctx context.Context, by string, data []byte) error {
	snap, err := db.ParseSnapshot(data)
	if err != nil {
		return err
	}
	if err := s.store.ImportAll(ctx, snap); err != nil {
		return fmt.Errorf("failed to import snapshot: %w", err)
	}

	description := fmt.Sprintf("restored backup from %s (%d lawyers, %d leads, %d deadlines, %d cases, %d documents)",
		snap.ExportDate.Format(time.RFC3339), len(snap.Lawyers), len(snap.Leads),
		len(snap.Deadlines), len(snap.Cases), len(snap.Documents))
	if _, err := s.activity.Record(ctx, models.ActivitySystemRestored, description, by); err != nil {
		return err
	}
	s.logger.Info("snapshot imported", zap.String("by", by), zap.Int("version", snap.Version))
	return nil
}

// Run writes a snapshot to backup storage and returns its key
func (s *BackupService) Run(ctx context.Context) (string, error) {
	data, err := s.exportJSON(ctx)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("%s%s-%s.json", BackupPrefix, s.now().Format("2006-01-02-150405"), uuid.New().String())
	if err := s.storage.Put(ctx, key, bytes.NewReader(data), "application/json", int64(len(data))); err != nil {
		return "", fmt.Errorf("failed to store backup: %w", err)
	}

	s.logger.Info("backup written", zap.String("key", key), zap.String("location", s.storage.Location()), zap.Int("bytes", len(data)))
	return key, nil
}

// Backups lists stored backup keys, oldest first
func (s *BackupService) Backups(ctx context.Context) ([]string, error) {
	return s.storage.List(ctx, BackupPrefix)
}

// Prune deletes the oldest stored backups so that at most keep remain.
// keep <= 0 keeps everything.
func (s *BackupService) Prune(ctx context.Context, keep int) (int, error) {
	if keep <= 0 {
		return 0, nil
	}
	keys, err := s.Backups(ctx)
	if err != nil {
		return 0, err
	}
	if len(keys) <= keep {
		return 0, nil
	}

	removed := 0
	for _, key := range keys[:len(keys)-keep] {
		if err := s.storage.Delete(ctx, key); err != nil {
			return removed, fmt.Errorf("failed to prune backup %s: %w", key, err)
		}
		removed++
	}
	s.logger.Info("old backups pruned", zap.Int("removed", removed), zap.Int("kept", keep))
	return removed, nil
}

// RestoreFrom restores a stored backup by key
func (s *BackupService) RestoreFrom(ctx context.Context, actor Actor, key string) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	if !strings.HasPrefix(key, BackupPrefix) || strings.Contains(key, "..") {
		return validationError("key", "is not a backup key")
	}
	body, err := s.storage.Get(ctx, key)
	if err != nil {
		return err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("failed to read backup %s: %w", key, err)
	}
	return s.Restore(ctx, actor.Username, data)
}

// Workbook renders every collection as one spreadsheet sheet each. Admin only.
// Password hashes are never written.
func (s *BackupService) Workbook(ctx context.Context, actor Actor) (*bytes.Buffer, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	snap, err := s.store.ExportAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export records: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})

	sheets := []struct {
		name    string
		headers []string
		rows    [][]any
	}{
		{"Lawyers", []string{"Username", "Name", "Email", "Specialty", "Phone", "Status", "Permissions"}, lawyerRows(snap.Lawyers)},
		{"Leads", []string{"ID", "Lawyer", "Client", "Phone", "Email", "Case type", "Status", "Created"}, leadRows(snap.Leads)},
		{"Deadlines", []string{"ID", "Lawyer", "Case number", "Client", "Type", "Description", "Due", "Priority", "Status"}, deadlineRows(snap.Deadlines)},
		{"Cases", []string{"ID", "Number", "Lawyer", "Client", "Area", "Court", "Value", "Status", "Created"}, caseRows(snap.Cases)},
		{"Documents", []string{"ID", "Lawyer", "Case ID", "Name", "Type", "Uploaded"}, documentRows(snap.Documents)},
		{"Activity", []string{"ID", "Actor", "Kind", "Description", "When"}, activityRows(snap.Activities)},
	}

	for i, sheet := range sheets {
		if i == 0 {
			f.SetSheetName("Sheet1", sheet.name)
		} else if _, err := f.NewSheet(sheet.name); err != nil {
			return nil, fmt.Errorf("failed to add sheet %s: %w", sheet.name, err)
		}

		for col, header := range sheet.headers {
			cell, _ := excelize.CoordinatesToCellName(col+1, 1)
			f.SetCellValue(sheet.name, cell, header)
		}
		lastHeader, _ := excelize.CoordinatesToCellName(len(sheet.headers), 1)
		f.SetCellStyle(sheet.name, "A1", lastHeader, headerStyle)

		for r, row := range sheet.rows {
			cell, _ := excelize.CoordinatesToCellName(1, r+2)
			if err := f.SetSheetRow(sheet.name, cell, &row); err != nil {
				return nil, fmt.Errorf("failed to write %s row %d: %w", sheet.name, r+2, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}
	return buf, nil
}

const sheetTimeLayout = "2006-01-02 15:04"

func lawyerRows(lawyers []db.LawyerRecord) [][]any {
	rows := make([][]any, 0, len(lawyers))
	for _, l := range lawyers {
		rows = append(rows, []any{l.Username, l.Name, l.Email, l.Specialty, l.Phone, string(l.Status), joinPermissions(l.Permissions)})
	}
	return rows
}

func leadRows(leads []models.Lead) [][]any {
	rows := make([][]any, 0, len(leads))
	for _, l := range leads {
		rows = append(rows, []any{l.ID, l.Lawyer, l.ClientName, l.ClientPhone, l.ClientEmail, l.CaseType, string(l.Status), l.CreatedAt.Format(sheetTimeLayout)})
	}
	return rows
}

func deadlineRows(deadlines []models.Deadline) [][]any {
	rows := make([][]any, 0, len(deadlines))
	for _, d := range deadlines {
		rows = append(rows, []any{d.ID, d.Lawyer, d.CaseNumber, d.ClientName, string(d.Type), d.Description, d.DueAt.Format(sheetTimeLayout), string(d.Priority), string(d.Status)})
	}
	return rows
}

func caseRows(cases []models.Case) [][]any {
	rows := make([][]any, 0, len(cases))
	for _, c := range cases {
		rows = append(rows, []any{c.ID, c.Number, c.Lawyer, c.ClientName, c.Area, c.Court, c.Value, string(c.Status), c.CreatedAt.Format(sheetTimeLayout)})
	}
	return rows
}

func documentRows(docs []models.Document) [][]any {
	rows := make([][]any, 0, len(docs))
	for _, d := range docs {
		caseID := ""
		if d.CaseID != nil {
			caseID = fmt.Sprint(*d.CaseID)
		}
		rows = append(rows, []any{d.ID, d.Lawyer, caseID, d.Name, d.Type, d.UploadedAt.Format(sheetTimeLayout)})
	}
	return rows
}

func activityRows(entries []models.ActivityEntry) [][]any {
	rows := make([][]any, 0, len(entries))
	for _, a := range entries {
		rows = append(rows, []any{a.ID, a.Actor, string(a.Kind), a.Description, a.CreatedAt.Format(sheetTimeLayout)})
	}
	return rows
}

func joinPermissions(ps models.Permissions) string {
	return strings.Join(ps.Strings(), ", ")
}
