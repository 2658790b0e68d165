package repository

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates a uniqueness violation or a lost conditional update.
	ErrConflict = errors.New("record conflict")
)

// Offset converts a 1-based page and a page size into a row offset.
func Offset(page, size int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * size
}
