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

// EnrichmentRepository defines data access for enrichment results. Results
// are insert-only; they are never updated after creation.
type EnrichmentRepository interface {
	Insert(ctx context.Context, fix *models.SosAIFixed) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.SosAIFixed, error)
	GetByOrigin(ctx context.Context, originID uuid.UUID) (*models.SosAIFixed, error)
}

type enrichmentRepository struct {
	db *database.DB
}

// NewEnrichmentRepository creates a new enrichment repository.
func NewEnrichmentRepository(db *database.DB) EnrichmentRepository {
	return &enrichmentRepository{db: db}
}

const fixColumns = `id, sos_origin_id, model_name, llm_name, model_fixed_text,
	llm_fixed_text, llm_category, confidence, llm_score, created_at`

func scanFix(row pgx.Row) (*models.SosAIFixed, error) {
	var fix models.SosAIFixed
	err := row.Scan(
		&fix.ID,
		&fix.SosOriginID,
		&fix.ModelName,
		&fix.LLMName,
		&fix.ModelText,
		&fix.LLMText,
		&fix.LLMCategory,
		&fix.Confidence,
		&fix.LLMScore,
		&fix.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &fix, nil
}

func (r *enrichmentRepository) Insert(ctx context.Context, fix *models.SosAIFixed) error {
	query := `
		INSERT INTO sos_request_ai_fixed (sos_origin_id, model_name, llm_name,
			model_fixed_text, llm_fixed_text, llm_category, confidence, llm_score)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query,
		fix.SosOriginID,
		fix.ModelName,
		fix.LLMName,
		fix.ModelText,
		fix.LLMText,
		fix.LLMCategory,
		fix.Confidence,
		fix.LLMScore,
	).Scan(&fix.ID, &fix.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert enrichment result: %w", err)
	}
	return nil
}

func (r *enrichmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.SosAIFixed, error) {
	query := `SELECT ` + fixColumns + ` FROM sos_request_ai_fixed WHERE id = $1`

	fix, err := scanFix(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get enrichment result: %w", err)
	}
	return fix, nil
}

func (r *enrichmentRepository) GetByOrigin(ctx context.Context, originID uuid.UUID) (*models.SosAIFixed, error) {
	query := `SELECT ` + fixColumns + ` FROM sos_request_ai_fixed WHERE sos_origin_id = $1`

	fix, err := scanFix(r.db.QueryRow(ctx, query, originID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get enrichment result: %w", err)
	}
	return fix, nil
}

// Ensure enrichmentRepository implements EnrichmentRepository at compile time.
var _ EnrichmentRepository = (*enrichmentRepository)(nil)
