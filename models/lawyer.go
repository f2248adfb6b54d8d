package models

import (
	"time"
)

// LawyerStatus is the account state of a lawyer
type LawyerStatus string

// Lawyer status constants
const (
	LawyerStatusActive   LawyerStatus = "active"
	LawyerStatusInactive LawyerStatus = "inactive"
)

// Valid reports whether s is a known status
func (s LawyerStatus) Valid() bool {
	return s == LawyerStatusActive || s == LawyerStatusInactive
}

// Lawyer is an intranet account. Username is the natural key and never changes.
type Lawyer struct {
	Username    string       `gorm:"primaryKey;type:varchar(64)" json:"username"`
	Name        string       `gorm:"not null" json:"name"`
	Email       string       `gorm:"not null" json:"email"`
	Specialty   string       `json:"specialty"`
	Phone       string       `json:"phone"`
	Status      LawyerStatus `gorm:"type:varchar(16);not null;default:active" json:"status"`
	Permissions Permissions  `gorm:"type:text" json:"permissions"`
	Password    string       `gorm:"not null" json:"-"` // bcrypt hash
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// TableName specifies the table name for Lawyer model
func (Lawyer) TableName() string {
	return "lawyers"
}

// RecordKey returns the natural key
func (l Lawyer) RecordKey() any {
	return l.Username
}

// IsActive checks if the account may log in
func (l *Lawyer) IsActive() bool {
	return l.Status == LawyerStatusActive
}

// IsAdmin checks for the admin permission
func (l *Lawyer) IsAdmin() bool {
	return l.Permissions.Has(PermissionAdmin)
}

// Snapshot copies the fields kept in a session fingerprint
func (l *Lawyer) Snapshot() LawyerSnapshot {
	perms := make(Permissions, len(l.Permissions))
	copy(perms, l.Permissions)
	return LawyerSnapshot{
		Username:    l.Username,
		Name:        l.Name,
		Email:       l.Email,
		Specialty:   l.Specialty,
		Phone:       l.Phone,
		Permissions: perms,
	}
}
