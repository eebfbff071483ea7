package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/apperrors"
	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/models"
	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/repositories"
)

// CreateTeamInput is a rescue team registration. Teams start PENDING and
// cannot work cases until an administrator approves them.
type CreateTeamInput struct {
	LeaderID       uuid.UUID
	Name           string
	Size           models.TeamSize
	Phone          string
	Province       string
	District       string
	Commune        string
	Organizational string
	DocumentURL    *string
}

// TeamService handles team registration and the team-side case lifecycle.
type TeamService interface {
	CreateTeam(ctx context.Context, input *CreateTeamInput) (*models.Team, error)
	GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error)
	GetOwnTeam(ctx context.Context, leaderID uuid.UUID) (*models.Team, error)
	Claim(ctx context.Context, sosID, teamID uuid.UUID) (*models.SosRequest, error)
	Release(ctx context.Context, sosID, teamID uuid.UUID) (*models.SosRequest, error)
	CompleteCase(ctx context.Context, sosID, teamID uuid.UUID) (*models.SosRequest, error)
	ListTeamRequests(ctx context.Context, teamID uuid.UUID, status models.SosStatus) ([]*models.SosRequest, error)
}

type teamService struct {
	teamRepo repositories.TeamRepository
	sosRepo  repositories.SosRepository
	stats    StatsService
	logger   *zap.Logger
}

// NewTeamService creates a new team service.
func NewTeamService(
	teamRepo repositories.TeamRepository,
	sosRepo repositories.SosRepository,
	stats StatsService,
	logger *zap.Logger,
) TeamService {
	return &teamService{
		teamRepo: teamRepo,
		sosRepo:  sosRepo,
		stats:    stats,
		logger:   logger.Named("team"),
	}
}

func (s *teamService) CreateTeam(ctx context.Context, input *CreateTeamInput) (*models.Team, error) {
	if input.Name == "" {
		return nil, apperrors.Validation("name", "team name is required")
	}
	switch input.Size {
	case models.TeamSizeSmall, models.TeamSizeMedium, models.TeamSizeLarge:
	default:
		return nil, apperrors.Validation("size_member", "must be SMALL, MEDIUM or LARGE")
	}

	// Fast-path pre-check; the partial unique index on leader_id enforces
	// the invariant under concurrent registration.
	pending, err := s.teamRepo.HasPendingTeam(ctx, input.LeaderID)
	if err != nil {
		return nil, fmt.Errorf("failed to check pending teams: %w", err)
	}
	if pending {
		return nil, apperrors.Conflict("team_rescue", "no pending team for leader", string(models.TeamStatusPending))
	}

	team := &models.Team{
		LeaderID:       input.LeaderID,
		Name:           input.Name,
		SizeMember:     input.Size,
		Phone:          input.Phone,
		Province:       input.Province,
		District:       input.District,
		Commune:        input.Commune,
		Organizational: input.Organizational,
		DocumentURL:    input.DocumentURL,
		Status:         models.TeamStatusPending,
	}
	if err := s.teamRepo.Create(ctx, team); err != nil {
		return nil, err
	}

	s.logger.Info("Team registered",
		zap.String("team_id", team.ID.String()),
		zap.String("name", team.Name))
	return team, nil
}

func (s *teamService) GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	return s.teamRepo.GetByID(ctx, id)
}

func (s *teamService) GetOwnTeam(ctx context.Context, leaderID uuid.UUID) (*models.Team, error) {
	return s.teamRepo.GetByLeader(ctx, leaderID)
}

// requireApproved loads the team and rejects any case work by a team that
// has not been approved yet.
func (s *teamService) requireApproved(ctx context.Context, teamID uuid.UUID) error {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return err
	}
	if team.Status != models.TeamStatusApproved {
		return apperrors.Conflict("team_rescue", string(models.TeamStatusApproved), string(team.Status))
	}
	return nil
}

// Claim assigns a PENDING case to the team. Concurrent claims on the same
// case are resolved by the conditional update: exactly one succeeds, the
// rest get a conflict.
func (s *teamService) Claim(ctx context.Context, sosID, teamID uuid.UUID) (*models.SosRequest, error) {
	if err := s.requireApproved(ctx, teamID); err != nil {
		return nil, err
	}
	req, err := s.sosRepo.ClaimIf(ctx, sosID, teamID, models.SosStatusPending, models.SosStatusInProgress)
	if err != nil {
		return nil, err
	}
	s.stats.InvalidateCounts(ctx)
	s.logger.Info("Case claimed",
		zap.String("sos_id", sosID.String()),
		zap.String("team_id", teamID.String()))
	return req, nil
}

// Release puts an IN_PROGRESS case the team holds back into the PENDING
// pool and clears the assignment.
func (s *teamService) Release(ctx context.Context, sosID, teamID uuid.UUID) (*models.SosRequest, error) {
	if err := s.requireApproved(ctx, teamID); err != nil {
		return nil, err
	}
	req, err := s.sosRepo.ReleaseIf(ctx, sosID, teamID, models.SosStatusInProgress, models.SosStatusPending)
	if err != nil {
		return nil, err
	}
	s.stats.InvalidateCounts(ctx)
	s.logger.Info("Case released",
		zap.String("sos_id", sosID.String()),
		zap.String("team_id", teamID.String()))
	return req, nil
}

// CompleteCase closes an IN_PROGRESS case the team holds.
func (s *teamService) CompleteCase(ctx context.Context, sosID, teamID uuid.UUID) (*models.SosRequest, error) {
	if err := s.requireApproved(ctx, teamID); err != nil {
		return nil, err
	}
	req, err := s.sosRepo.CompleteByTeamIf(ctx, sosID, teamID)
	if err != nil {
		return nil, err
	}
	s.stats.InvalidateCounts(ctx)
	s.logger.Info("Case completed",
		zap.String("sos_id", sosID.String()),
		zap.String("team_id", teamID.String()))
	return req, nil
}

func (s *teamService) ListTeamRequests(ctx context.Context, teamID uuid.UUID, status models.SosStatus) ([]*models.SosRequest, error) {
	if status != "" && !validFilterStatus(status) {
		return nil, apperrors.Validation("status", "unknown status")
	}
	return s.sosRepo.ListByTeam(ctx, teamID, status)
}

func validFilterStatus(status models.SosStatus) bool {
	switch status {
	case models.SosStatusRequested, models.SosStatusPending, models.SosStatusInProgress,
		models.SosStatusComplete, models.SosStatusCanceled:
		return true
	}
	return false
}

var _ TeamService = (*teamService)(nil)
