package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/memoryos/analytics-api/internal/models"
	"github.com/memoryos/analytics-api/pkg/supabase"
)

type metricRepository struct {
	client *supabase.Client
}

// NewMetricRepository creates a new metric repository
func NewMetricRepository(client *supabase.Client) MetricRepository {
	return &metricRepository{client: client}
}

func (r *metricRepository) LatestDate(ctx context.Context, userID string) (*time.Time, error) {
	query := map[string]interface{}{
		"user_id": fmt.Sprintf("eq.%s", userID),
		"select":  "occurred_on",
		"order":   "occurred_on.desc",
		"limit":   1,
	}

	body, err := r.client.Query("metrics", query)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest metric date: %w", err)
	}

	var rows []struct {
		OccurredOn models.Date `json:"occurred_on"`
	}
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if len(rows) == 0 {
		return nil, nil
	}

	t := rows[0].OccurredOn.Time
	return &t, nil
}

func (r *metricRepository) CountSince(ctx context.Context, userID string, since time.Time) (int, error) {
	query := map[string]interface{}{
		"user_id":     fmt.Sprintf("eq.%s", userID),
		"occurred_on": fmt.Sprintf("gte.%s", since.Format(models.DateLayout)),
	}

	// Count server-side; fetching rows would be capped by PostgREST's
	// max-rows limit and undercount.
	count, err := r.client.Count("metrics", query)
	if err != nil {
		return 0, fmt.Errorf("failed to count metrics: %w", err)
	}

	return count, nil
}

func (r *metricRepository) DistinctDates(ctx context.Context, userID, category string, limit int) ([]time.Time, error) {
	query := map[string]interface{}{
		"user_id": fmt.Sprintf("eq.%s", userID),
		"select":  "occurred_on",
		"order":   "occurred_on.desc",
	}
	if category != "" {
		query["category"] = fmt.Sprintf("eq.%s", category)
	}

	body, err := r.client.Query("metrics", query)
	if err != nil {
		return nil, fmt.Errorf("failed to get metric dates: %w", err)
	}

	var rows []struct {
		OccurredOn models.Date `json:"occurred_on"`
	}
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	// PostgREST has no DISTINCT; rows arrive ordered so dedupe client-side
	dates := make([]time.Time, 0, limit)
	var last time.Time
	for _, row := range rows {
		d := row.OccurredOn.Time
		if !last.IsZero() && d.Equal(last) {
			continue
		}
		dates = append(dates, d)
		last = d
		if limit > 0 && len(dates) >= limit {
			break
		}
	}

	return dates, nil
}

func (r *metricRepository) ListSince(ctx context.Context, userID, category string, since time.Time) ([]models.Metric, error) {
	query := map[string]interface{}{
		"user_id":     fmt.Sprintf("eq.%s", userID),
		"occurred_on": fmt.Sprintf("gte.%s", since.Format(models.DateLayout)),
		"select":      "user_id,category,occurred_on,occurred_at",
		"order":       "occurred_at.desc",
	}
	if category != "" {
		query["category"] = fmt.Sprintf("eq.%s", category)
	}

	body, err := r.client.Query("metrics", query)
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics: %w", err)
	}

	var metrics []models.Metric
	if err := json.Unmarshal(body, &metrics); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return metrics, nil
}
