package db

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicateKey      = errors.New("duplicate key")
	ErrMalformedImport   = errors.New("malformed import")
	ErrUnknownIndex      = errors.New("unknown index")
	ErrUnknownCollection = errors.New("unknown collection")
	ErrImmutableKey      = errors.New("record key cannot change")
)

// isDuplicate recognises unique violations from both the sqlite and libsql drivers
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "PRIMARY KEY")
}
