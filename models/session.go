package models

import (
	"time"
)

// LawyerSnapshot is the copy of the lawyer kept inside a session
type LawyerSnapshot struct {
	Username     string      `json:"username"`
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	Specialty    string      `json:"specialty"`
	Phone        string      `json:"phone"`
	Permissions  Permissions `json:"permissions"`
	LoginTime    time.Time   `json:"login_time"`
	LastActivity time.Time   `json:"last_activity"`
}

// SessionFingerprint is what gets persisted to restore a login across restarts
type SessionFingerprint struct {
	User         LawyerSnapshot `json:"user"`
	SessionStart time.Time      `json:"sessionStart"`
}

// IsExpired checks the age of the session against timeout.
// Age is measured from login, not from the last activity.
func (f *SessionFingerprint) IsExpired(now time.Time, timeout time.Duration) bool {
	return now.Sub(f.SessionStart) >= timeout
}

// SessionRecord stores serialized fingerprints for the database-backed session store
type SessionRecord struct {
	Key       string    `gorm:"column:session_key;primaryKey;type:varchar(128)" json:"key"`
	Data      string    `gorm:"type:text;not null" json:"-"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for SessionRecord model
func (SessionRecord) TableName() string {
	return "session_records"
}
