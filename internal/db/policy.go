package db

import (
	"time"

	"github.com/woonstadrotterdam/sqlgate/internal/db/sqltext"
)

// Default row limit substituted when a caller passes a non-positive limit.
const defaultRowLimit = 10

// Policy holds the resolved execution limits. It is constructed once at
// startup and shared read-only by every operation.
type Policy struct {
	MaxQueryTimeoutSeconds int
	MaxResultRows          int
	ReadOnly               bool
}

// Clamp bounds a requested row limit to the configured maximum. Non-positive
// requests get the default limit instead.
func (p Policy) Clamp(limit int) int {
	if limit < 1 {
		return defaultRowLimit
	}
	if limit > p.MaxResultRows {
		return p.MaxResultRows
	}
	return limit
}

// Permits reports whether the statement may run under this policy.
func (p Policy) Permits(query string) bool {
	if !p.ReadOnly {
		return true
	}
	return sqltext.IsReadOnly(query)
}

// Timeout returns the per-query deadline as a duration.
func (p Policy) Timeout() time.Duration {
	return time.Duration(p.MaxQueryTimeoutSeconds) * time.Second
}
