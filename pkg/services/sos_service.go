package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/apperrors"
	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/media"
	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/models"
	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/nlp"
	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/repositories"
	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/services/workqueue"
)

// CreateSosInput is a new emergency request. UserID is nil for anonymous
// submissions, which must carry a callback phone number instead.
type CreateSosInput struct {
	UserID      *uuid.UUID
	Type        models.SosType
	Description string
	Lat         *float64
	Lon         *float64
	AddressText string
	Phone       string
	ImageName   string
	ImageData   []byte
}

// SosService handles request intake and the requester-side lifecycle.
type SosService interface {
	CreateRequest(ctx context.Context, input *CreateSosInput) (*models.SosRequest, error)
	GetRequest(ctx context.Context, id uuid.UUID) (*models.SosRequest, error)
	Cancel(ctx context.Context, id, userID uuid.UUID) (*models.SosRequest, error)
	Complete(ctx context.Context, id, userID uuid.UUID) (*models.SosRequest, error)
	ListOwn(ctx context.Context, userID uuid.UUID) ([]*models.SosRequest, error)
}

type sosService struct {
	sosRepo        repositories.SosRepository
	enrichmentRepo repositories.EnrichmentRepository
	nlpClient      *nlp.Client
	mediaStore     media.Store
	queue          *workqueue.Queue
	stats          StatsService
	logger         *zap.Logger
}

// NewSosService creates a new SOS request service. nlpClient and mediaStore
// may be nil when the corresponding integrations are not configured.
func NewSosService(
	sosRepo repositories.SosRepository,
	enrichmentRepo repositories.EnrichmentRepository,
	nlpClient *nlp.Client,
	mediaStore media.Store,
	queue *workqueue.Queue,
	stats StatsService,
	logger *zap.Logger,
) SosService {
	return &sosService{
		sosRepo:        sosRepo,
		enrichmentRepo: enrichmentRepo,
		nlpClient:      nlpClient,
		mediaStore:     mediaStore,
		queue:          queue,
		stats:          stats,
		logger:         logger.Named("sos"),
	}
}

// CreateRequest validates the input, stores the request together with its
// immutable origin snapshot, and hands the snapshot to the enrichment queue.
// The caller never waits on enrichment and never sees its failure.
func (s *sosService) CreateRequest(ctx context.Context, input *CreateSosInput) (*models.SosRequest, error) {
	if err := validateCreateInput(input); err != nil {
		return nil, err
	}

	if input.UserID != nil {
		// Fast-path pre-check; the partial unique index on the store is the
		// actual enforcement under concurrent creation.
		active, err := s.sosRepo.HasActiveRequest(ctx, *input.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to check active requests: %w", err)
		}
		if active {
			return nil, apperrors.Conflict("sos_request", "no active request", "active request exists")
		}
	}

	var imageURL *string
	if len(input.ImageData) > 0 && s.mediaStore != nil {
		url, err := s.mediaStore.Upload(ctx, input.ImageName, input.ImageData)
		if err != nil {
			// The photo is supporting evidence, not the request itself.
			s.logger.Warn("Image upload failed, continuing without image", zap.Error(err))
		} else {
			imageURL = &url
		}
	}

	req := &models.SosRequest{
		UserID:      input.UserID,
		Type:        input.Type,
		Description: input.Description,
		Lat:         input.Lat,
		Lon:         input.Lon,
		AddressText: input.AddressText,
		Phone:       input.Phone,
		Image:       imageURL,
		Status:      models.SosStatusRequested,
	}
	origin := &models.SosOrigin{
		Description: input.Description,
		Type:        input.Type,
	}
	if err := s.sosRepo.Create(ctx, req, origin); err != nil {
		return nil, err
	}

	if s.nlpClient != nil {
		s.queue.Enqueue(NewEnrichmentTask(origin, s.nlpClient, s.enrichmentRepo, s.sosRepo, s.logger))
	}
	s.stats.InvalidateCounts(ctx)

	s.logger.Info("SOS request created",
		zap.String("sos_id", req.ID.String()),
		zap.String("type", string(req.Type)),
		zap.Bool("anonymous", req.UserID == nil))
	return req, nil
}

func validateCreateInput(input *CreateSosInput) error {
	if !models.ValidSosType(input.Type) {
		return apperrors.Validation("type", "unknown emergency type")
	}
	if input.Description == "" {
		return apperrors.Validation("description", "description is required")
	}
	if input.UserID == nil && input.Phone == "" {
		return apperrors.Validation("phone", "phone is required for anonymous requests")
	}
	if (input.Lat == nil) != (input.Lon == nil) {
		return apperrors.Validation("lat", "lat and lon must be given together")
	}
	if input.Lat != nil && (*input.Lat < -90 || *input.Lat > 90) {
		return apperrors.Validation("lat", "must be between -90 and 90")
	}
	if input.Lon != nil && (*input.Lon < -180 || *input.Lon > 180) {
		return apperrors.Validation("lon", "must be between -180 and 180")
	}
	return nil
}

func (s *sosService) GetRequest(ctx context.Context, id uuid.UUID) (*models.SosRequest, error) {
	return s.sosRepo.GetByID(ctx, id)
}

// Cancel moves a requester's own REQUESTED or PENDING case to CANCELED.
func (s *sosService) Cancel(ctx context.Context, id, userID uuid.UUID) (*models.SosRequest, error) {
	req, err := s.sosRepo.CancelByRequester(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	s.stats.InvalidateCounts(ctx)
	s.logger.Info("SOS request canceled", zap.String("sos_id", id.String()))
	return req, nil
}

// Complete lets the requester confirm resolution of their IN_PROGRESS case.
func (s *sosService) Complete(ctx context.Context, id, userID uuid.UUID) (*models.SosRequest, error) {
	req, err := s.sosRepo.CompleteByRequester(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	s.stats.InvalidateCounts(ctx)
	s.logger.Info("SOS request completed by requester", zap.String("sos_id", id.String()))
	return req, nil
}

func (s *sosService) ListOwn(ctx context.Context, userID uuid.UUID) ([]*models.SosRequest, error) {
	return s.sosRepo.ListByRequester(ctx, userID)
}

var _ SosService = (*sosService)(nil)
