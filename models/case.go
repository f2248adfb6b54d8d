package models

import (
	"time"
)

// CaseStatus is the lifecycle state of a case
type CaseStatus string

// Case status constants
const (
	CaseStatusActive    CaseStatus = "active"
	CaseStatusArchived  CaseStatus = "archived"
	CaseStatusSuspended CaseStatus = "suspended"
	CaseStatusClosed    CaseStatus = "closed"
)

// Valid reports whether s is a known status
func (s CaseStatus) Valid() bool {
	switch s {
	case CaseStatusActive, CaseStatusArchived, CaseStatusSuspended, CaseStatusClosed:
		return true
	}
	return false
}

// Case (processo) is a legal matter identified by a unique case number
type Case struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Number      string     `gorm:"type:varchar(64);not null" json:"number"` // e.g. 0012345-56.2023.8.11.0001
	Lawyer      string     `gorm:"type:varchar(64);not null" json:"lawyer"`
	ClientName  string     `gorm:"not null" json:"client_name"`
	Area        string     `json:"area"`
	Court       string     `json:"court"`
	Value       float64    `json:"value"`
	Description string     `gorm:"type:text" json:"description"`
	Status      CaseStatus `gorm:"type:varchar(16);not null" json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TableName specifies the table name for Case model
func (Case) TableName() string {
	return "cases"
}

// RecordKey returns the auto-assigned id
func (c Case) RecordKey() any {
	return c.ID
}
