package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/apperrors"
	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/models"
	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/nlp"
	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/services/workqueue"
)

type sosTestEnv struct {
	svc            SosService
	sosRepo        *mockSosRepository
	enrichmentRepo *mockEnrichmentRepository
	queue          *workqueue.Queue
}

// setupSosTest wires a SOS service against in-memory repositories and an
// NLP backend served by handler. A nil handler disables enrichment.
func setupSosTest(t *testing.T, handler http.HandlerFunc) *sosTestEnv {
	t.Helper()

	sosRepo := newMockSosRepository()
	enrichmentRepo := newMockEnrichmentRepository()
	queue := workqueue.New(2, zap.NewNop())
	t.Cleanup(func() { _ = queue.Shutdown(context.Background()) })

	var nlpClient *nlp.Client
	if handler != nil {
		server := httptest.NewServer(handler)
		t.Cleanup(server.Close)
		var err error
		nlpClient, err = nlp.NewClient(&nlp.Config{Endpoint: server.URL}, zap.NewNop())
		require.NoError(t, err)
	}

	stats := NewStatsService(sosRepo, nil, 0, zap.NewNop())
	svc := NewSosService(sosRepo, enrichmentRepo, nlpClient, nil, queue, stats, zap.NewNop())
	return &sosTestEnv{svc: svc, sosRepo: sosRepo, enrichmentRepo: enrichmentRepo, queue: queue}
}

func validCreateInput(userID *uuid.UUID) *CreateSosInput {
	lat, lon := 21.0278, 105.8342
	return &CreateSosInput{
		UserID:      userID,
		Type:        models.SosTypeRescue,
		Description: "nuoc ngap den mai nha, can cuu ho gap",
		Lat:         &lat,
		Lon:         &lon,
		AddressText: "Hanoi",
		Phone:       "0901234567",
	}
}

const nlpResponse = `{
	"model_text": "nước ngập đến mái nhà, cần cứu hộ gấp",
	"llm_text": "Nước ngập đến mái nhà, cần cứu hộ gấp.",
	"llm_category": "RESCUE",
	"llm_name": "gpt-4o-mini",
	"model_name": "bartpho-syllable",
	"confidence": 0.93,
	"llm_score": 0.88
}`

func TestSosService_CreateRequest_EnrichesInBackground(t *testing.T) {
	env := setupSosTest(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/process-sos", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(nlpResponse))
	})

	userID := uuid.New()
	req, err := env.svc.CreateRequest(context.Background(), validCreateInput(&userID))
	require.NoError(t, err)
	assert.Equal(t, models.SosStatusRequested, req.Status)
	assert.NotEqual(t, uuid.Nil, req.ID)

	env.queue.Wait()

	origin, err := env.sosRepo.GetOrigin(context.Background(), req.ID)
	require.NoError(t, err)
	fix, err := env.enrichmentRepo.GetByOrigin(context.Background(), origin.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SosTypeRescue, fix.LLMCategory)
	assert.Equal(t, 0.88, fix.LLMScore)

	stored, err := env.sosRepo.GetByID(context.Background(), req.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LLMScore)
	assert.Equal(t, 0.88, *stored.LLMScore)
	assert.Equal(t, models.SosStatusRequested, stored.Status, "enrichment must not change the status")
}

func TestSosService_CreateRequest_EnrichmentFailureDoesNotSurface(t *testing.T) {
	env := setupSosTest(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model unavailable", http.StatusServiceUnavailable)
	})

	userID := uuid.New()
	req, err := env.svc.CreateRequest(context.Background(), validCreateInput(&userID))
	require.NoError(t, err, "enrichment failure must never surface to the caller")

	env.queue.Wait()

	stored, err := env.sosRepo.GetByID(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.LLMScore, "failed enrichment leaves the request untouched")
	assert.Equal(t, models.SosStatusRequested, stored.Status)
}

func TestSosService_CreateRequest_NoNLPConfigured(t *testing.T) {
	env := setupSosTest(t, nil)

	userID := uuid.New()
	_, err := env.svc.CreateRequest(context.Background(), validCreateInput(&userID))
	require.NoError(t, err)
}

func TestSosService_CreateRequest_DuplicateActiveConflict(t *testing.T) {
	env := setupSosTest(t, nil)
	ctx := context.Background()
	userID := uuid.New()

	_, err := env.svc.CreateRequest(ctx, validCreateInput(&userID))
	require.NoError(t, err)

	_, err = env.svc.CreateRequest(ctx, validCreateInput(&userID))
	assert.True(t, apperrors.IsConflict(err), "second active request must be a conflict")
}

func TestSosService_CreateRequest_AnonymousNeedsPhone(t *testing.T) {
	env := setupSosTest(t, nil)
	ctx := context.Background()

	input := validCreateInput(nil)
	input.Phone = ""
	_, err := env.svc.CreateRequest(ctx, input)
	assert.True(t, apperrors.IsValidation(err))

	input.Phone = "0901234567"
	req, err := env.svc.CreateRequest(ctx, input)
	require.NoError(t, err)
	assert.Nil(t, req.UserID)
}

func TestSosService_CreateRequest_Validation(t *testing.T) {
	env := setupSosTest(t, nil)
	ctx := context.Background()
	userID := uuid.New()

	input := validCreateInput(&userID)
	input.Type = models.SosType("FLOOD")
	_, err := env.svc.CreateRequest(ctx, input)
	assert.True(t, apperrors.IsValidation(err), "unknown type")

	input = validCreateInput(&userID)
	input.Description = ""
	_, err = env.svc.CreateRequest(ctx, input)
	assert.True(t, apperrors.IsValidation(err), "empty description")

	input = validCreateInput(&userID)
	input.Lon = nil
	_, err = env.svc.CreateRequest(ctx, input)
	assert.True(t, apperrors.IsValidation(err), "lat without lon")
}

func TestSosService_CancelAndComplete(t *testing.T) {
	env := setupSosTest(t, nil)
	ctx := context.Background()
	userID := uuid.New()

	created, err := env.svc.CreateRequest(ctx, validCreateInput(&userID))
	require.NoError(t, err)

	canceled, err := env.svc.Cancel(ctx, created.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, models.SosStatusCanceled, canceled.Status)

	// A terminal request cannot be canceled again.
	_, err = env.svc.Cancel(ctx, created.ID, userID)
	assert.True(t, apperrors.IsConflict(err))

	// Complete requires IN_PROGRESS.
	second, err := env.svc.CreateRequest(ctx, validCreateInput(&userID))
	require.NoError(t, err)
	_, err = env.svc.Complete(ctx, second.ID, userID)
	assert.True(t, apperrors.IsConflict(err), "complete from REQUESTED must be a conflict")

	env.sosRepo.requests[second.ID].Status = models.SosStatusInProgress
	done, err := env.svc.Complete(ctx, second.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, models.SosStatusComplete, done.Status)

	_, err = env.svc.Cancel(ctx, uuid.New(), userID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
