package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/apperrors"
	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/database"
	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/models"
)

// WeightRepository defines data access for the scoring weight configuration
// and the per-category base scores.
type WeightRepository interface {
	GetWeights(ctx context.Context) (map[string]float64, error)
	// ReplaceWeights upserts all factor keys in one transaction. Validation
	// of the sum invariant happens in the service; this is all-or-nothing
	// persistence only.
	ReplaceWeights(ctx context.Context, weights map[string]float64) error
	GetTypeWeights(ctx context.Context) ([]*models.TypeWeight, error)
	// GetTypeWeightScores returns category -> base score for the scoring engine.
	GetTypeWeightScores(ctx context.Context) (map[models.SosType]float64, error)
	UpdateTypeWeight(ctx context.Context, id uuid.UUID, baseScore float64) (*models.TypeWeight, error)
}

type weightRepository struct {
	db *database.DB
}

// NewWeightRepository creates a new weight repository.
func NewWeightRepository(db *database.DB) WeightRepository {
	return &weightRepository{db: db}
}

func (r *weightRepository) GetWeights(ctx context.Context) (map[string]float64, error) {
	rows, err := r.db.Query(ctx, `SELECT key, weight FROM sos_weight`)
	if err != nil {
		return nil, fmt.Errorf("failed to get weights: %w", err)
	}
	defer rows.Close()

	weights := make(map[string]float64)
	for rows.Next() {
		var w models.Weight
		if err := rows.Scan(&w.Key, &w.Weight); err != nil {
			return nil, fmt.Errorf("failed to scan weight: %w", err)
		}
		weights[w.Key] = w.Weight
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating weights: %w", err)
	}
	return weights, nil
}

func (r *weightRepository) ReplaceWeights(ctx context.Context, weights map[string]float64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
		INSERT INTO sos_weight (key, weight) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET weight = EXCLUDED.weight`

	for _, key := range models.WeightKeys {
		if _, err := tx.Exec(ctx, query, key, weights[key]); err != nil {
			return fmt.Errorf("failed to upsert weight %s: %w", key, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *weightRepository) GetTypeWeights(ctx context.Context) ([]*models.TypeWeight, error) {
	rows, err := r.db.Query(ctx, `SELECT id, type, base_score FROM sos_type_weight ORDER BY type`)
	if err != nil {
		return nil, fmt.Errorf("failed to get type weights: %w", err)
	}
	defer rows.Close()

	var result []*models.TypeWeight
	for rows.Next() {
		var tw models.TypeWeight
		if err := rows.Scan(&tw.ID, &tw.Type, &tw.BaseScore); err != nil {
			return nil, fmt.Errorf("failed to scan type weight: %w", err)
		}
		result = append(result, &tw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating type weights: %w", err)
	}
	return result, nil
}

func (r *weightRepository) GetTypeWeightScores(ctx context.Context) (map[models.SosType]float64, error) {
	typeWeights, err := r.GetTypeWeights(ctx)
	if err != nil {
		return nil, err
	}

	scores := make(map[models.SosType]float64, len(typeWeights))
	for _, tw := range typeWeights {
		scores[tw.Type] = tw.BaseScore
	}
	return scores, nil
}

func (r *weightRepository) UpdateTypeWeight(ctx context.Context, id uuid.UUID, baseScore float64) (*models.TypeWeight, error) {
	query := `UPDATE sos_type_weight SET base_score = $1 WHERE id = $2 RETURNING id, type, base_score`

	var tw models.TypeWeight
	err := r.db.QueryRow(ctx, query, baseScore, id).Scan(&tw.ID, &tw.Type, &tw.BaseScore)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update type weight: %w", err)
	}
	return &tw, nil
}

// Ensure weightRepository implements WeightRepository at compile time.
var _ WeightRepository = (*weightRepository)(nil)
