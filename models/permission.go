package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Permission is one capability from the fixed vocabulary checked by the session layer
type Permission string

// Permission constants
const (
	PermissionLeads     Permission = "leads"
	PermissionDeadlines Permission = "deadlines"
	PermissionCases     Permission = "cases"
	PermissionDocuments Permission = "documents"
	PermissionAdmin     Permission = "admin"
)

// AllPermissions lists every known permission in display order
var AllPermissions = []Permission{
	PermissionLeads,
	PermissionDeadlines,
	PermissionCases,
	PermissionDocuments,
	PermissionAdmin,
}

// Valid reports whether p belongs to the known vocabulary
func (p Permission) Valid() bool {
	for _, known := range AllPermissions {
		if p == known {
			return true
		}
	}
	return false
}

// ParsePermission converts a string into a Permission, rejecting unknown values
func ParsePermission(s string) (Permission, error) {
	p := Permission(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("unknown permission %q", s)
	}
	return p, nil
}

// Permissions is the permission set of a lawyer
type Permissions []Permission

// DefaultPermissions returns the set granted to a regular lawyer
func DefaultPermissions() Permissions {
	return Permissions{PermissionLeads, PermissionDeadlines, PermissionCases, PermissionDocuments}
}

// ParsePermissions parses a list of strings, dropping duplicates
func ParsePermissions(values []string) (Permissions, error) {
	out := make(Permissions, 0, len(values))
	for _, v := range values {
		p, err := ParsePermission(v)
		if err != nil {
			return nil, err
		}
		if !out.Has(p) {
			out = append(out, p)
		}
	}
	return out, nil
}

// Has reports whether p is in the set
func (ps Permissions) Has(p Permission) bool {
	for _, existing := range ps {
		if existing == p {
			return true
		}
	}
	return false
}

// Strings returns the set as plain strings
func (ps Permissions) Strings() []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = string(p)
	}
	return out
}

// Value stores the set as a comma separated list
func (ps Permissions) Value() (driver.Value, error) {
	return strings.Join(ps.Strings(), ","), nil
}

// Scan reads a comma separated list written by Value
func (ps *Permissions) Scan(src interface{}) error {
	var raw string
	switch v := src.(type) {
	case nil:
		*ps = Permissions{}
		return nil
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("cannot scan %T into Permissions", src)
	}

	if raw == "" {
		*ps = Permissions{}
		return nil
	}

	parsed, err := ParsePermissions(strings.Split(raw, ","))
	if err != nil {
		return err
	}
	*ps = parsed
	return nil
}

// GormDataType tells gorm which column type to migrate
func (Permissions) GormDataType() string {
	return "text"
}

// UnmarshalJSON rejects permissions outside the vocabulary
func (ps *Permissions) UnmarshalJSON(data []byte) error {
	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	parsed, err := ParsePermissions(values)
	if err != nil {
		return err
	}
	*ps = parsed
	return nil
}
