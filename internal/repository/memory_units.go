package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/memoryos/analytics-api/internal/models"
	"github.com/memoryos/analytics-api/pkg/supabase"
)

type memoryUnitRepository struct {
	client *supabase.Client
}

// NewMemoryUnitRepository creates a new memory unit repository
func NewMemoryUnitRepository(client *supabase.Client) MemoryUnitRepository {
	return &memoryUnitRepository{client: client}
}

// memoryUnitRow is the raw table shape. The normalized payload is a jsonb
// column holding semi-structured extraction output; only the activity key
// matters here.
type memoryUnitRow struct {
	UserID         string            `json:"user_id"`
	Category       string            `json:"category"`
	Status         string            `json:"status"`
	CreatedAt      time.Time         `json:"created_at"`
	NormalizedData normalizedPayload `json:"normalized_data"`
}

type normalizedPayload struct {
	Activity string `json:"activity"`
}

func (r *memoryUnitRepository) ListValidatedSince(ctx context.Context, userID, category string, since time.Time) ([]models.MemoryUnit, error) {
	query := map[string]interface{}{
		"user_id":    fmt.Sprintf("eq.%s", userID),
		"status":     fmt.Sprintf("eq.%s", models.MemoryStatusValidated),
		"created_at": fmt.Sprintf("gte.%s", since.UTC().Format(time.RFC3339)),
		"select":     "user_id,category,status,created_at,normalized_data",
		"order":      "created_at.desc",
	}
	if category != "" {
		query["category"] = fmt.Sprintf("eq.%s", category)
	}

	body, err := r.client.Query("memory_units", query)
	if err != nil {
		return nil, fmt.Errorf("failed to get memory units: %w", err)
	}

	var rows []memoryUnitRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	units := make([]models.MemoryUnit, 0, len(rows))
	for _, row := range rows {
		// Units without an extracted activity can't feed pattern mining
		if row.NormalizedData.Activity == "" {
			continue
		}
		units = append(units, models.MemoryUnit{
			UserID:        row.UserID,
			Category:      row.Category,
			ActivityLabel: row.NormalizedData.Activity,
			Status:        row.Status,
			CreatedAt:     row.CreatedAt,
		})
	}

	return units, nil
}
