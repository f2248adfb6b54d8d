package models

import (
	"time"
)

// LeadStatus tracks a referral through intake
type LeadStatus string

// Lead status constants
const (
	LeadStatusNew        LeadStatus = "new"
	LeadStatusContacted  LeadStatus = "contacted"
	LeadStatusInProgress LeadStatus = "in_progress"
	LeadStatusConverted  LeadStatus = "converted"
	LeadStatusLost       LeadStatus = "lost"
)

// Valid reports whether s is a known status
func (s LeadStatus) Valid() bool {
	switch s {
	case LeadStatusNew, LeadStatusContacted, LeadStatusInProgress, LeadStatusConverted, LeadStatusLost:
		return true
	}
	return false
}

// Lead is an inbound referral of a prospective client to one lawyer
type Lead struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Lawyer      string     `gorm:"type:varchar(64);not null" json:"lawyer"`
	ClientName  string     `gorm:"not null" json:"client_name"`
	ClientPhone string     `json:"client_phone"`
	ClientEmail string     `json:"client_email"`
	CaseType    string     `gorm:"not null" json:"case_type"`
	Description string     `gorm:"type:text" json:"description"`
	Status      LeadStatus `gorm:"type:varchar(16);not null" json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TableName specifies the table name for Lead model
func (Lead) TableName() string {
	return "leads"
}

// RecordKey returns the auto-assigned id
func (l Lead) RecordKey() any {
	return l.ID
}
