package domain

import "errors"

// Storage-level sentinels. Repositories translate driver errors into these so
// services never import driver packages.
var (
	ErrDuplicateEntry = errors.New("duplicate entry")
	ErrNotFound       = errors.New("not found")
	ErrNoRowsAffected = errors.New("no rows affected")
)
