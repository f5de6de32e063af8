package domain

import "github.com/google/uuid"

// IDGenerator produces row identifiers.
type IDGenerator interface {
	NewID() string
}

// UUIDv7Generator generates time-sortable UUIDv7 identifiers, so rows
// inserted later sort after earlier ones.
type UUIDv7Generator struct{}

// NewID returns a new hyphenated UUIDv7.
func (UUIDv7Generator) NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}
