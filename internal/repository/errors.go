package repository

import "errors"

var (
	// ErrInsertFailed means the insert produced no generated id.
	ErrInsertFailed = errors.New("insert failed: no id returned")
	// ErrUpdateFailed means the row could not be read back after an update.
	ErrUpdateFailed = errors.New("update failed: row not found after update")
	// ErrNoMatch means no row satisfied the statement's WHERE clause.
	ErrNoMatch = errors.New("no matching row")
)
