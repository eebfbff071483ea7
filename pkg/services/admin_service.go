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

// AdminService covers triage, moderation and review listings.
type AdminService interface {
	// ApplyEnrichment copies the enrichment result for a request's origin
	// snapshot onto the request and moves it into the PENDING pool. The
	// operation is idempotent: re-applying overwrites the same fields again.
	ApplyEnrichment(ctx context.Context, sosID uuid.UUID) (*models.SosRequest, error)
	UpdateRequestStatus(ctx context.Context, sosID uuid.UUID, to models.SosStatus) (*models.SosRequest, error)
	ReviewTeam(ctx context.Context, teamID uuid.UUID, status models.TeamStatus) (*models.Team, error)
	ListTeams(ctx context.Context, limit, page int) ([]*models.Team, models.Pagination, error)
	ListEvents(ctx context.Context, limit, page int) ([]*models.SosRequest, models.Pagination, error)
	ListRequested(ctx context.Context, limit, page int) ([]*models.RequestedSos, models.Pagination, error)
}

type adminService struct {
	sosRepo        repositories.SosRepository
	teamRepo       repositories.TeamRepository
	enrichmentRepo repositories.EnrichmentRepository
	stats          StatsService
	logger         *zap.Logger
}

// NewAdminService creates a new admin service.
func NewAdminService(
	sosRepo repositories.SosRepository,
	teamRepo repositories.TeamRepository,
	enrichmentRepo repositories.EnrichmentRepository,
	stats StatsService,
	logger *zap.Logger,
) AdminService {
	return &adminService{
		sosRepo:        sosRepo,
		teamRepo:       teamRepo,
		enrichmentRepo: enrichmentRepo,
		stats:          stats,
		logger:         logger.Named("admin"),
	}
}

func (s *adminService) ApplyEnrichment(ctx context.Context, sosID uuid.UUID) (*models.SosRequest, error) {
	origin, err := s.sosRepo.GetOrigin(ctx, sosID)
	if err != nil {
		return nil, err
	}
	fix, err := s.enrichmentRepo.GetByOrigin(ctx, origin.ID)
	if err != nil {
		return nil, err
	}

	req, err := s.sosRepo.ApplyAIFix(ctx, sosID, fix)
	if err != nil {
		return nil, err
	}
	s.stats.InvalidateCounts(ctx)

	s.logger.Info("Enrichment applied",
		zap.String("sos_id", sosID.String()),
		zap.String("category", string(fix.LLMCategory)))
	return req, nil
}

// UpdateRequestStatus moves a request along the lifecycle. Transitions not
// in the lifecycle graph are rejected before touching the store; the store
// update is still conditioned on the observed status, so a concurrent
// change surfaces as a conflict rather than a lost update.
func (s *adminService) UpdateRequestStatus(ctx context.Context, sosID uuid.UUID, to models.SosStatus) (*models.SosRequest, error) {
	if !validFilterStatus(to) {
		return nil, apperrors.Validation("status", "unknown status")
	}
	current, err := s.sosRepo.GetByID(ctx, sosID)
	if err != nil {
		return nil, err
	}
	if !models.CanTransition(current.Status, to) {
		return nil, apperrors.Conflict("sos_request",
			fmt.Sprintf("a status that can move to %s", to), string(current.Status))
	}

	req, err := s.sosRepo.UpdateStatusIf(ctx, sosID, current.Status, to)
	if err != nil {
		return nil, err
	}
	s.stats.InvalidateCounts(ctx)

	s.logger.Info("Request status updated",
		zap.String("sos_id", sosID.String()),
		zap.String("from", string(current.Status)),
		zap.String("to", string(to)))
	return req, nil
}

func (s *adminService) ReviewTeam(ctx context.Context, teamID uuid.UUID, status models.TeamStatus) (*models.Team, error) {
	switch status {
	case models.TeamStatusApproved, models.TeamStatusRejected:
	default:
		return nil, apperrors.Validation("team_status", "must be APPROVED or REJECTED")
	}

	team, err := s.teamRepo.UpdateStatus(ctx, teamID, status)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Team reviewed",
		zap.String("team_id", teamID.String()),
		zap.String("status", string(status)))
	return team, nil
}

func (s *adminService) ListTeams(ctx context.Context, limit, page int) ([]*models.Team, models.Pagination, error) {
	limit, offset := pageBounds(limit, page)
	teams, total, err := s.teamRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("failed to list teams: %w", err)
	}
	return teams, models.NewPagination(limit, page, total), nil
}

func (s *adminService) ListEvents(ctx context.Context, limit, page int) ([]*models.SosRequest, models.Pagination, error) {
	limit, offset := pageBounds(limit, page)
	events, total, err := s.sosRepo.ListEvents(ctx, limit, offset)
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("failed to list events: %w", err)
	}
	return events, models.NewPagination(limit, page, total), nil
}

func (s *adminService) ListRequested(ctx context.Context, limit, page int) ([]*models.RequestedSos, models.Pagination, error) {
	limit, offset := pageBounds(limit, page)
	rows, total, err := s.sosRepo.ListRequested(ctx, limit, offset)
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("failed to list requested: %w", err)
	}
	return rows, models.NewPagination(limit, page, total), nil
}

// pageBounds normalizes a 1-based page and limit into query bounds.
func pageBounds(limit, page int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if page <= 0 {
		page = 1
	}
	return limit, (page - 1) * limit
}

var _ AdminService = (*adminService)(nil)
