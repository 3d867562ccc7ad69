// Package storage defines persistence sentinels shared by Outreach stores.
package storage

import apperrors "github.com/louisbranch/outreach/internal/platform/errors"

var (
	// ErrNotFound indicates a requested record does not exist.
	ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")
	// ErrConflict indicates a write conflicted with an existing record.
	ErrConflict = apperrors.New(apperrors.CodeUnknown, "record conflict")
)
