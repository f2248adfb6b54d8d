package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"mps_intranet_go/db"
	"mps_intranet_go/models"

	"go.uber.org/zap"
)

// SystemActor is the actor name used for entries written by seeding, restores and CLI tools
const SystemActor = "system"

// LawyerInput is a new lawyer account
type LawyerInput struct {
	Username    string              `json:"username" yaml:"username"`
	Name        string              `json:"name" yaml:"name"`
	Email       string              `json:"email" yaml:"email"`
	Specialty   string              `json:"specialty" yaml:"specialty"`
	Phone       string              `json:"phone" yaml:"phone"`
	Password    string              `json:"password" yaml:"password"`
	Status      models.LawyerStatus `json:"status" yaml:"status"`
	Permissions models.Permissions  `json:"permissions" yaml:"-"`
}

// LawyerChanges patches a lawyer. Contact fields may be changed by the lawyer
// or an admin, permissions only by an admin.
type LawyerChanges struct {
	Name        *string             `json:"name"`
	Email       *string             `json:"email"`
	Specialty   *string             `json:"specialty"`
	Phone       *string             `json:"phone"`
	Permissions *models.Permissions `json:"permissions"`
}

// LawyerService manages lawyer accounts
type LawyerService struct {
	recordService
}

func NewLawyerService(store *db.Store, logger *zap.Logger) *LawyerService {
	return &LawyerService{recordService: newRecordService(store, logger)}
}

// Create adds a lawyer account. Admin only.
func (s *LawyerService) Create(ctx context.Context, actor Actor, in LawyerInput) (*models.Lawyer, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.create(ctx, actor.Username, in)
}

// Provision adds a lawyer account on behalf of the system (seeding, CLI)
func (s *LawyerService) Provision(ctx context.Context, in LawyerInput) (*models.Lawyer, error) {
	return s.create(ctx, SystemActor, in)
}

func (s *LawyerService) create(ctx context.Context, by string, in LawyerInput) (*models.Lawyer, error) {
	lawyer := &models.Lawyer{
		Username:    strings.ToLower(strings.TrimSpace(in.Username)),
		Name:        cleanText(in.Name),
		Email:       strings.ToLower(strings.TrimSpace(in.Email)),
		Specialty:   cleanText(in.Specialty),
		Phone:       cleanText(in.Phone),
		Status:      in.Status,
		Permissions: in.Permissions,
	}
	if lawyer.Status == "" {
		lawyer.Status = models.LawyerStatusActive
	}
	if len(lawyer.Permissions) == 0 {
		lawyer.Permissions = models.DefaultPermissions()
	}
	if err := validateLawyer(lawyer); err != nil {
		return nil, err
	}
	if err := ValidatePassword(in.Password); err != nil {
		return nil, err
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	lawyer.Password = hash

	err = s.mutate(ctx, by, models.ActivityLawyerAdded, func(tx *db.Store, now time.Time) (string, error) {
		lawyer.CreatedAt = now
		lawyer.UpdatedAt = now
		if err := tx.Lawyers.Add(ctx, lawyer); err != nil {
			return "", err
		}
		return fmt.Sprintf("lawyer %s added", lawyer.Username), nil
	})
	if err != nil {
		return nil, err
	}
	return lawyer, nil
}

func validateLawyer(l *models.Lawyer) error {
	if l.Username == "" {
		return validationError("username", "is required")
	}
	if strings.ContainsAny(l.Username, " :/") {
		return validationError("username", "cannot contain spaces, colons or slashes")
	}
	if l.Name == "" {
		return validationError("name", "is required")
	}
	if l.Email == "" || !strings.Contains(l.Email, "@") {
		return validationError("email", "must be an email address")
	}
	if !l.Status.Valid() {
		return validationError("status", fmt.Sprintf("%q is not a lawyer status", l.Status))
	}
	return nil
}

// Get returns the lawyer with username
func (s *LawyerService) Get(ctx context.Context, username string) (*models.Lawyer, error) {
	lawyer, ok, err := s.store.Lawyers.Get(ctx, username)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: lawyer %s", db.ErrNotFound, username)
	}
	return lawyer, nil
}

// List returns every lawyer sorted by name
func (s *LawyerService) List(ctx context.Context) ([]models.Lawyer, error) {
	lawyers, err := s.store.Lawyers.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list lawyers: %w", err)
	}
	sortLawyers(lawyers)
	return lawyers, nil
}

// Active returns the active lawyers sorted by name
func (s *LawyerService) Active(ctx context.Context) ([]models.Lawyer, error) {
	lawyers, err := s.store.Lawyers.List(ctx, "status", models.LawyerStatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to list active lawyers: %w", err)
	}
	sortLawyers(lawyers)
	return lawyers, nil
}

// Count returns the number of lawyer accounts
func (s *LawyerService) Count(ctx context.Context) (int64, error) {
	return s.store.Lawyers.Count(ctx, "", nil)
}

// Update edits a lawyer's profile
func (s *LawyerService) Update(ctx context.Context, actor Actor, username string, changes LawyerChanges) (*models.Lawyer, error) {
	if err := actor.canTouch(username); err != nil {
		return nil, err
	}
	if changes.Permissions != nil && !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	var updated *models.Lawyer
	err := s.mutate(ctx, actor.Username, models.ActivityLawyerUpdated, func(tx *db.Store, now time.Time) (string, error) {
		var invalid error
		var err error
		updated, err = tx.Lawyers.Update(ctx, username, func(l *models.Lawyer) {
			if changes.Name != nil {
				l.Name = cleanText(*changes.Name)
			}
			if changes.Email != nil {
				l.Email = strings.ToLower(strings.TrimSpace(*changes.Email))
			}
			if changes.Specialty != nil {
				l.Specialty = cleanText(*changes.Specialty)
			}
			if changes.Phone != nil {
				l.Phone = cleanText(*changes.Phone)
			}
			if changes.Permissions != nil {
				l.Permissions = *changes.Permissions
			}
			l.UpdatedAt = now
			invalid = validateLawyer(l)
		})
		if err != nil {
			return "", err
		}
		if invalid != nil {
			return "", invalid
		}
		return fmt.Sprintf("lawyer %s updated", username), nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// SetStatus activates or deactivates a lawyer. Admin only; admins cannot deactivate themselves.
func (s *LawyerService) SetStatus(ctx context.Context, actor Actor, username string, status models.LawyerStatus) (*models.Lawyer, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if !status.Valid() {
		return nil, validationError("status", fmt.Sprintf("%q is not a lawyer status", status))
	}
	if username == actor.Username && status != models.LawyerStatusActive {
		return nil, validationError("status", "cannot deactivate your own account")
	}

	var updated *models.Lawyer
	err := s.mutate(ctx, actor.Username, models.ActivityLawyerUpdated, func(tx *db.Store, now time.Time) (string, error) {
		var err error
		updated, err = tx.Lawyers.Update(ctx, username, func(l *models.Lawyer) {
			l.Status = status
			l.UpdatedAt = now
		})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("lawyer %s set %s", username, status), nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func sortLawyers(lawyers []models.Lawyer) {
	sort.SliceStable(lawyers, func(i, j int) bool {
		if lawyers[i].Name != lawyers[j].Name {
			return lawyers[i].Name < lawyers[j].Name
		}
		return lawyers[i].Username < lawyers[j].Username
	})
}
