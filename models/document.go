package models

import (
	"time"
)

// Document is metadata about a file kept for a lawyer, optionally linked to a case.
// The file itself lives outside the intranet.
type Document struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Lawyer      string    `gorm:"type:varchar(64);not null" json:"lawyer"`
	CaseID      *uint     `json:"case_id,omitempty"`
	Name        string    `gorm:"not null" json:"name"`
	Type        string    `gorm:"type:varchar(32)" json:"type"`
	Description string    `gorm:"type:text" json:"description"`
	UploadedAt  time.Time `gorm:"not null" json:"uploaded_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for Document model
func (Document) TableName() string {
	return "documents"
}

// RecordKey returns the auto-assigned id
func (d Document) RecordKey() any {
	return d.ID
}
