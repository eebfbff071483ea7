package services

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/apperrors"
	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/models"
	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/repositories"
)

// weightSumTolerance bounds the floating error accepted when checking that
// the five factor weights sum to 1.
const weightSumTolerance = 1e-4

// WeightService manages the scoring weight configuration.
type WeightService interface {
	GetWeights(ctx context.Context) (map[string]float64, error)
	SetWeights(ctx context.Context, weights map[string]float64) error
	GetTypeWeights(ctx context.Context) ([]*models.TypeWeight, error)
	SetTypeWeight(ctx context.Context, id uuid.UUID, baseScore float64) (*models.TypeWeight, error)
}

type weightService struct {
	weightRepo repositories.WeightRepository
	logger     *zap.Logger
}

// NewWeightService creates a new weight configuration service.
func NewWeightService(weightRepo repositories.WeightRepository, logger *zap.Logger) WeightService {
	return &weightService{
		weightRepo: weightRepo,
		logger:     logger.Named("weights"),
	}
}

func (s *weightService) GetWeights(ctx context.Context) (map[string]float64, error) {
	weights, err := s.weightRepo.GetWeights(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get weights: %w", err)
	}
	return weights, nil
}

// SetWeights replaces the whole configuration atomically. All five factor
// keys must be present, each weight in [0,1], and the sum must equal 1
// within tolerance; otherwise nothing is written.
func (s *weightService) SetWeights(ctx context.Context, weights map[string]float64) error {
	if err := ValidateWeights(weights); err != nil {
		return err
	}
	if err := s.weightRepo.ReplaceWeights(ctx, weights); err != nil {
		return fmt.Errorf("failed to replace weights: %w", err)
	}
	s.logger.Info("Scoring weights updated",
		zap.Float64(models.WeightKeyDistance, weights[models.WeightKeyDistance]),
		zap.Float64(models.WeightKeyTime, weights[models.WeightKeyTime]),
		zap.Float64(models.WeightKeyEmergencyType, weights[models.WeightKeyEmergencyType]),
		zap.Float64(models.WeightKeyLLMDescription, weights[models.WeightKeyLLMDescription]),
		zap.Float64(models.WeightKeyTeamSize, weights[models.WeightKeyTeamSize]))
	return nil
}

// ValidateWeights checks a candidate weight configuration without writing it.
func ValidateWeights(weights map[string]float64) error {
	sum := 0.0
	for _, key := range models.WeightKeys {
		w, ok := weights[key]
		if !ok {
			return apperrors.Validation(key, "weight is required")
		}
		if w < 0 || w > 1 {
			return apperrors.Validation(key, "weight must be between 0 and 1")
		}
		sum += w
	}
	for key := range weights {
		if !isWeightKey(key) {
			return apperrors.Validation(key, "unknown weight key")
		}
	}
	if math.Abs(sum-1) > weightSumTolerance {
		return apperrors.Validation("weights", fmt.Sprintf("weights must sum to 1, got %.4f", sum))
	}
	return nil
}

func isWeightKey(key string) bool {
	for _, k := range models.WeightKeys {
		if k == key {
			return true
		}
	}
	return false
}

func (s *weightService) GetTypeWeights(ctx context.Context) ([]*models.TypeWeight, error) {
	tw, err := s.weightRepo.GetTypeWeights(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get type weights: %w", err)
	}
	return tw, nil
}

func (s *weightService) SetTypeWeight(ctx context.Context, id uuid.UUID, baseScore float64) (*models.TypeWeight, error) {
	if baseScore < 0 || baseScore > 1 {
		return nil, apperrors.Validation("base_score", "must be between 0 and 1")
	}
	tw, err := s.weightRepo.UpdateTypeWeight(ctx, id, baseScore)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Type weight updated",
		zap.String("type", string(tw.Type)),
		zap.Float64("base_score", baseScore))
	return tw, nil
}

var _ WeightService = (*weightService)(nil)
