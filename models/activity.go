package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// ActivityKind names what a user did
type ActivityKind string

const (
	ActivityLogin             ActivityKind = "login"
	ActivityLogout            ActivityKind = "logout"
	ActivityPasswordChanged   ActivityKind = "password_changed"
	ActivityLeadAdded         ActivityKind = "lead_added"
	ActivityLeadUpdated       ActivityKind = "lead_updated"
	ActivityLeadDeleted       ActivityKind = "lead_deleted"
	ActivityDeadlineAdded     ActivityKind = "deadline_added"
	ActivityDeadlineUpdated   ActivityKind = "deadline_updated"
	ActivityDeadlineCompleted ActivityKind = "deadline_completed"
	ActivityDeadlineDeleted   ActivityKind = "deadline_deleted"
	ActivityCaseAdded         ActivityKind = "case_added"
	ActivityCaseUpdated       ActivityKind = "case_updated"
	ActivityCaseDeleted       ActivityKind = "case_deleted"
	ActivityDocumentAdded     ActivityKind = "document_added"
	ActivityDocumentDeleted   ActivityKind = "document_deleted"
	ActivityLawyerAdded       ActivityKind = "lawyer_added"
	ActivityLawyerUpdated     ActivityKind = "lawyer_updated"
	ActivitySystemInitialized ActivityKind = "system_initialized"
	ActivitySystemRestored    ActivityKind = "system_restored"
)

// ErrActivityImmutable is returned when something tries to rewrite an entry
var ErrActivityImmutable = errors.New("activity entries are append-only")

// ActivityEntry is one line of the append-only activity log
type ActivityEntry struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	Actor       string       `gorm:"type:varchar(64);not null" json:"actor"`
	Kind        ActivityKind `gorm:"type:varchar(32);not null" json:"kind"`
	Description string       `gorm:"type:text" json:"description"`
	CreatedAt   time.Time    `json:"created_at"`
}

// TableName specifies the table name
func (ActivityEntry) TableName() string {
	return "activities"
}

// RecordKey returns the auto-assigned id
func (a ActivityEntry) RecordKey() any {
	return a.ID
}

// BeforeUpdate prevents modification of logged entries
func (a *ActivityEntry) BeforeUpdate(tx *gorm.DB) error {
	return ErrActivityImmutable
}
