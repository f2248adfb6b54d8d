package services

import (
	"fmt"
	"strings"
	"time"
)

// ParseDueDate parses a deadline due date as sent by HTML date and datetime-local inputs.
// Accepted: YYYY-MM-DD (due at the end of that local day), YYYY-MM-DDTHH:MM and RFC 3339.
func ParseDueDate(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)

	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04", value, loc); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", value, loc); err == nil {
		y, m, d := t.Date()
		return time.Date(y, m, d, 23, 59, 59, 0, loc), nil
	}
	return time.Time{}, validationError("due_at", fmt.Sprintf("%q is not a date (expected YYYY-MM-DD)", value))
}
