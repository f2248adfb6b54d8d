package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"mps_intranet_go/db"
	"mps_intranet_go/models"

	"go.uber.org/zap"
)

// DocumentInput is the metadata of an uploaded document.
// The file itself is stored elsewhere.
type DocumentInput struct {
	Lawyer      string `json:"lawyer"`
	CaseID      *uint  `json:"case_id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// DocumentService manages document metadata
type DocumentService struct {
	recordService
}

func NewDocumentService(store *db.Store, logger *zap.Logger) *DocumentService {
	return &DocumentService{recordService: newRecordService(store, logger)}
}

// Add registers a document, optionally linked to an existing case
func (s *DocumentService) Add(ctx context.Context, actor Actor, in DocumentInput) (*models.Document, error) {
	if err := actor.require(models.PermissionDocuments); err != nil {
		return nil, err
	}
	owner, err := actor.ownerFor(in.Lawyer)
	if err != nil {
		return nil, err
	}

	doc := &models.Document{
		Lawyer:      owner,
		CaseID:      in.CaseID,
		Name:        cleanText(in.Name),
		Type:        cleanText(in.Type),
		Description: cleanText(in.Description),
	}
	if doc.Name == "" {
		return nil, validationError("name", "is required")
	}

	err = s.mutate(ctx, actor.Username, models.ActivityDocumentAdded, func(tx *db.Store, now time.Time) (string, error) {
		if err := requireLawyer(ctx, tx, owner); err != nil {
			return "", err
		}
		if doc.CaseID != nil {
			linked, ok, err := tx.Cases.Get(ctx, *doc.CaseID)
			if err != nil {
				return "", err
			}
			if !ok {
				return "", validationError("case_id", "does not exist")
			}
			if err := actor.canTouch(linked.Lawyer); err != nil {
				return "", err
			}
		}
		doc.UploadedAt = now
		doc.UpdatedAt = now
		if err := tx.Documents.Add(ctx, doc); err != nil {
			return "", err
		}
		return fmt.Sprintf("document #%d added: %s", doc.ID, doc.Name), nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// List returns the documents in scope, newest first
func (s *DocumentService) List(ctx context.Context, scope Scope) ([]models.Document, error) {
	docs, err := scoped(ctx, s.store.Documents, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	sortDocuments(docs)
	return docs, nil
}

// ByType returns the documents in scope of one type, newest first
func (s *DocumentService) ByType(ctx context.Context, scope Scope, docType string) ([]models.Document, error) {
	docs, err := scopedWhere(ctx, s.store.Documents, scope, db.Filter{"type": cleanText(docType)})
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	sortDocuments(docs)
	return docs, nil
}

// ForCase returns the documents linked to a case that fall inside scope
func (s *DocumentService) ForCase(ctx context.Context, scope Scope, caseID uint) ([]models.Document, error) {
	docs, err := s.store.Documents.List(ctx, "case", caseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents for case %d: %w", caseID, err)
	}
	out := make([]models.Document, 0, len(docs))
	for _, d := range docs {
		if scope.Includes(d.Lawyer) {
			out = append(out, d)
		}
	}
	sortDocuments(out)
	return out, nil
}

// Delete removes a document. Deleting a missing document succeeds and logs nothing.
func (s *DocumentService) Delete(ctx context.Context, actor Actor, id uint) error {
	doc, ok, err := s.store.Documents.Get(ctx, id)
	if err != nil || !ok {
		return err
	}
	if err := actor.canTouch(doc.Lawyer); err != nil {
		return err
	}

	return s.mutate(ctx, actor.Username, models.ActivityDocumentDeleted, func(tx *db.Store, _ time.Time) (string, error) {
		if err := tx.Documents.Delete(ctx, id); err != nil {
			return "", err
		}
		return fmt.Sprintf("document #%d deleted: %s", id, doc.Name), nil
	})
}

func sortDocuments(docs []models.Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		if !docs[i].UploadedAt.Equal(docs[j].UploadedAt) {
			return docs[i].UploadedAt.After(docs[j].UploadedAt)
		}
		return docs[i].ID > docs[j].ID
	})
}
