// Package services implements the business logic of the AIDSENSE backend.
package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/apperrors"
	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/models"
	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/repositories"
)

// DecayWindowMinutes is the linear time-decay horizon: a request's time
// score reaches zero 48 hours after assignment.
const DecayWindowMinutes = 2880

// ScoreFactors are the raw request/team attributes the engine scores.
type ScoreFactors struct {
	DistanceKm             float64        `json:"distance_km"`
	TeamSize               models.TeamSize `json:"team_size"`
	EmergencyType          models.SosType `json:"emergency_type"`
	MinutesSinceAssignment float64        `json:"minutes_since_assignment"`
	LLMScore               float64        `json:"llm_score"`
}

// ScoreBreakdown reports each weighted sub-score plus the composite total,
// so every ranking decision is auditable.
type ScoreBreakdown struct {
	Distance       float64 `json:"distance"`
	Time           float64 `json:"time"`
	EmergencyType  float64 `json:"emergency_type"`
	LLMDescription float64 `json:"llm_description"`
	TeamSize       float64 `json:"team_size"`
	Total          float64 `json:"total"`
}

// ScoringService ranks requests by converting raw attributes into a
// normalized composite score using the current weight configuration.
type ScoringService interface {
	Score(ctx context.Context, factors ScoreFactors) (*ScoreBreakdown, error)
}

type scoringService struct {
	weightRepo repositories.WeightRepository
	logger     *zap.Logger
}

// NewScoringService creates a new scoring service. Weights are fetched per
// computation so configuration updates take effect without restart.
func NewScoringService(weightRepo repositories.WeightRepository, logger *zap.Logger) ScoringService {
	return &scoringService{
		weightRepo: weightRepo,
		logger:     logger.Named("scoring"),
	}
}

// DistanceScore is the step function mapping distance to a [0,1] sub-score.
func DistanceScore(distanceKm float64) float64 {
	switch {
	case distanceKm <= 1:
		return 1.0
	case distanceKm <= 3:
		return 0.85
	case distanceKm <= 5:
		return 0.7
	case distanceKm <= 10:
		return 0.4
	default:
		return 0.1
	}
}

// TeamSizeScore maps the declared size category to a [0,1] sub-score.
// Unknown or absent categories score 0.
func TeamSizeScore(size models.TeamSize) float64 {
	switch size {
	case models.TeamSizeSmall:
		return 0.3
	case models.TeamSizeMedium:
		return 0.5
	case models.TeamSizeLarge:
		return 0.7
	default:
		return 0
	}
}

// TimeDecayScore decays linearly from 1 to 0 over the 48h window.
func TimeDecayScore(minutesSinceAssignment float64) float64 {
	score := 1 - minutesSinceAssignment/DecayWindowMinutes
	if score < 0 {
		return 0
	}
	return score
}

// validateScoreFactors rejects inputs that would push a raw sub-score
// outside [0,1] before any weighting happens.
func validateScoreFactors(factors ScoreFactors) error {
	if factors.DistanceKm < 0 {
		return apperrors.Validation("distance_km", "must not be negative")
	}
	if factors.MinutesSinceAssignment < 0 {
		return apperrors.Validation("minutes_since_assignment", "must not be negative")
	}
	if factors.LLMScore < 0 || factors.LLMScore > 1 {
		return apperrors.Validation("llm_score", "must be between 0 and 1")
	}
	return nil
}

func (s *scoringService) Score(ctx context.Context, factors ScoreFactors) (*ScoreBreakdown, error) {
	if err := validateScoreFactors(factors); err != nil {
		return nil, err
	}

	weights, err := s.weightRepo.GetWeights(ctx)
	if err != nil {
		return nil, fmt.Errorf("get weights: %w", err)
	}

	// A missing factor key means the configuration is broken; scoring with
	// an implicit zero would silently distort the ranking.
	for _, key := range models.WeightKeys {
		if _, ok := weights[key]; !ok {
			return nil, fmt.Errorf("weight configuration missing key %q", key)
		}
	}

	typeScores, err := s.weightRepo.GetTypeWeightScores(ctx)
	if err != nil {
		return nil, fmt.Errorf("get type weights: %w", err)
	}

	breakdown := &ScoreBreakdown{
		Distance:       DistanceScore(factors.DistanceKm) * weights[models.WeightKeyDistance],
		Time:           TimeDecayScore(factors.MinutesSinceAssignment) * weights[models.WeightKeyTime],
		EmergencyType:  typeScores[factors.EmergencyType] * weights[models.WeightKeyEmergencyType],
		LLMDescription: factors.LLMScore * weights[models.WeightKeyLLMDescription],
		TeamSize:       TeamSizeScore(factors.TeamSize) * weights[models.WeightKeyTeamSize],
	}
	breakdown.Total = breakdown.Distance + breakdown.Time + breakdown.EmergencyType +
		breakdown.LLMDescription + breakdown.TeamSize

	s.logger.Debug("Computed composite score",
		zap.Float64("distance_km", factors.DistanceKm),
		zap.String("emergency_type", string(factors.EmergencyType)),
		zap.Float64("total", breakdown.Total))

	return breakdown, nil
}

// Ensure scoringService implements ScoringService at compile time.
var _ ScoringService = (*scoringService)(nil)
