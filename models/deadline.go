package models

import (
	"time"
)

// DeadlineType classifies a dated legal obligation
type DeadlineType string

// Deadline type constants
const (
	DeadlineTypeHearing    DeadlineType = "hearing"
	DeadlineTypeProcedural DeadlineType = "procedural"
	DeadlineTypeFiling     DeadlineType = "filing"
	DeadlineTypeRuling     DeadlineType = "ruling"
	DeadlineTypeAppeal     DeadlineType = "appeal"
	DeadlineTypeOther      DeadlineType = "other"
)

// Valid reports whether t is a known type
func (t DeadlineType) Valid() bool {
	switch t {
	case DeadlineTypeHearing, DeadlineTypeProcedural, DeadlineTypeFiling,
		DeadlineTypeRuling, DeadlineTypeAppeal, DeadlineTypeOther:
		return true
	}
	return false
}

// Priority of a deadline
type Priority string

// Priority constants
const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Valid reports whether p is a known priority
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// DeadlineStatus only ever moves from pending to done
type DeadlineStatus string

// Deadline status constants
const (
	DeadlineStatusPending DeadlineStatus = "pending"
	DeadlineStatusDone    DeadlineStatus = "done"
)

// Deadline (prazo) is a dated obligation tracked per case
type Deadline struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Lawyer      string         `gorm:"type:varchar(64);not null" json:"lawyer"`
	CaseNumber  string         `json:"case_number"`
	ClientName  string         `json:"client_name"`
	Type        DeadlineType   `gorm:"type:varchar(16);not null" json:"type"`
	Description string         `gorm:"type:text;not null" json:"description"`
	DueAt       time.Time      `gorm:"not null" json:"due_at"`
	Priority    Priority       `gorm:"type:varchar(16);not null" json:"priority"`
	Status      DeadlineStatus `gorm:"type:varchar(16);not null" json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
}

// TableName specifies the table name for Deadline model
func (Deadline) TableName() string {
	return "deadlines"
}

// RecordKey returns the auto-assigned id
func (d Deadline) RecordKey() any {
	return d.ID
}

// IsPending checks if the deadline is still open
func (d *Deadline) IsPending() bool {
	return d.Status == DeadlineStatusPending
}
