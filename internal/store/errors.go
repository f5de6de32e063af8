package store

import (
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound is returned when a row does not exist (or belongs to a
	// different restaurant).
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a write loses to a uniqueness rule or a
	// concurrent status change.
	ErrConflict = errors.New("conflict")
)

// OverlapError reports a shift that would overlap an existing one for the
// same staff member.
type OverlapError struct {
	StaffID  string
	Existing string // id of the clashing shift
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("shift overlaps existing shift %s for staff %s", e.Existing, e.StaffID)
}

// Is lets errors.Is(err, ErrConflict) match overlaps.
func (e *OverlapError) Is(target error) bool {
	return target == ErrConflict
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint error.
func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
