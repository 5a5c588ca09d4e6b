package repository

import (
	"context"
	"time"

	"github.com/memoryos/analytics-api/internal/models"
)

// MetricRepository defines the interface for activity event data access.
// All reads are scoped to a single user; category may be empty to span
// every category.
type MetricRepository interface {
	// LatestDate returns the calendar date of the user's most recent event,
	// or nil if the user has no events.
	LatestDate(ctx context.Context, userID string) (*time.Time, error)

	// CountSince returns the number of events recorded on or after since.
	CountSince(ctx context.Context, userID string, since time.Time) (int, error)

	// DistinctDates returns up to limit distinct activity dates, newest
	// first. Category filters when non-empty.
	DistinctDates(ctx context.Context, userID, category string, limit int) ([]time.Time, error)

	// ListSince returns events recorded on or after since, newest first.
	// Category filters when non-empty.
	ListSince(ctx context.Context, userID, category string, since time.Time) ([]models.Metric, error)
}

// MemoryUnitRepository defines the interface for validated memory unit access.
type MemoryUnitRepository interface {
	// ListValidatedSince returns validated units created on or after since,
	// with the activity label projected out of the normalized payload.
	// Units without an activity label are omitted. Category filters when
	// non-empty.
	ListValidatedSince(ctx context.Context, userID, category string, since time.Time) ([]models.MemoryUnit, error)
}
