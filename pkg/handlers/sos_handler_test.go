package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/apperrors"
	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/auth"
	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/models"
	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/services"
	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/testhelpers"
)

const testSecret = "handler-test-secret"

// stubSosService records the last input and replays canned results.
type stubSosService struct {
	lastCreate *services.CreateSosInput
	request    *models.SosRequest
	err        error
}

var _ services.SosService = (*stubSosService)(nil)

func (s *stubSosService) CreateRequest(_ context.Context, input *services.CreateSosInput) (*models.SosRequest, error) {
	s.lastCreate = input
	return s.request, s.err
}

func (s *stubSosService) GetRequest(_ context.Context, id uuid.UUID) (*models.SosRequest, error) {
	return s.request, s.err
}

func (s *stubSosService) Cancel(_ context.Context, id, userID uuid.UUID) (*models.SosRequest, error) {
	return s.request, s.err
}

func (s *stubSosService) Complete(_ context.Context, id, userID uuid.UUID) (*models.SosRequest, error) {
	return s.request, s.err
}

func (s *stubSosService) ListOwn(_ context.Context, userID uuid.UUID) ([]*models.SosRequest, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []*models.SosRequest{s.request}, nil
}

func setupSosMux(t *testing.T, stub *stubSosService) *http.ServeMux {
	t.Helper()
	mux := http.NewServeMux()
	authMw := auth.NewMiddleware(testSecret, zap.NewNop())
	NewSosHandler(stub, zap.NewNop()).RegisterRoutes(mux, authMw)
	return mux
}

func TestSosHandler_CreateJSON(t *testing.T) {
	stub := &stubSosService{request: &models.SosRequest{ID: uuid.New(), Status: models.SosStatusRequested}}
	mux := setupSosMux(t, stub)
	userID := uuid.New()

	body := `{"type":"RESCUE","description":"roof collapsed","lat":21.0278,"lon":105.8342}`
	req := httptest.NewRequest(http.MethodPost, "/api/sos", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", testhelpers.BearerTestToken(testSecret, userID, auth.RoleUser, ""))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, stub.lastCreate)
	assert.Equal(t, models.SosTypeRescue, stub.lastCreate.Type)
	require.NotNil(t, stub.lastCreate.UserID)
	assert.Equal(t, userID, *stub.lastCreate.UserID)
	require.NotNil(t, stub.lastCreate.Lat)
	assert.InDelta(t, 21.0278, *stub.lastCreate.Lat, 1e-9)
}

func TestSosHandler_CreateAnonymous(t *testing.T) {
	stub := &stubSosService{request: &models.SosRequest{ID: uuid.New(), Status: models.SosStatusRequested}}
	mux := setupSosMux(t, stub)

	body := `{"type":"HELP","description":"stranded","phone":"0912345678"}`
	req := httptest.NewRequest(http.MethodPost, "/api/sos", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, stub.lastCreate)
	assert.Nil(t, stub.lastCreate.UserID)
	assert.Equal(t, "0912345678", stub.lastCreate.Phone)
}

func TestSosHandler_CreateMultipartWithImage(t *testing.T) {
	stub := &stubSosService{request: &models.SosRequest{ID: uuid.New(), Status: models.SosStatusRequested}}
	mux := setupSosMux(t, stub)

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	require.NoError(t, form.WriteField("type", "MEDICAL"))
	require.NoError(t, form.WriteField("description", "injured leg"))
	require.NoError(t, form.WriteField("lat", "10.76"))
	require.NoError(t, form.WriteField("lon", "106.66"))
	require.NoError(t, form.WriteField("phone", "0901112223"))
	part, err := form.CreateFormFile("image", "scene.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte("jpeg-bytes"))
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/sos", &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, stub.lastCreate)
	assert.Equal(t, "scene.jpg", stub.lastCreate.ImageName)
	assert.Equal(t, []byte("jpeg-bytes"), stub.lastCreate.ImageData)
	require.NotNil(t, stub.lastCreate.Lon)
	assert.InDelta(t, 106.66, *stub.lastCreate.Lon, 1e-9)
}

func TestSosHandler_CreateBadJSON(t *testing.T) {
	mux := setupSosMux(t, &stubSosService{})

	req := httptest.NewRequest(http.MethodPost, "/api/sos", strings.NewReader("{broken"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSosHandler_GetByID(t *testing.T) {
	id := uuid.New()
	stub := &stubSosService{request: &models.SosRequest{ID: id, Status: models.SosStatusPending}}
	mux := setupSosMux(t, stub)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sos/"+id.String(), nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var got models.SosRequest
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, id, got.ID)
}

func TestSosHandler_GetBadID(t *testing.T) {
	mux := setupSosMux(t, &stubSosService{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sos/not-a-uuid", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSosHandler_GetNotFound(t *testing.T) {
	mux := setupSosMux(t, &stubSosService{err: apperrors.ErrNotFound})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sos/"+uuid.NewString(), nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSosHandler_CancelRequiresAuth(t *testing.T) {
	mux := setupSosMux(t, &stubSosService{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/sos/"+uuid.NewString()+"/cancel", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSosHandler_CancelConflictMapsTo409(t *testing.T) {
	stub := &stubSosService{err: apperrors.Conflict("sos_request", "non-terminal request owned by caller", "COMPLETE")}
	mux := setupSosMux(t, stub)

	req := httptest.NewRequest(http.MethodPost, "/api/sos/"+uuid.NewString()+"/cancel", nil)
	req.Header.Set("Authorization", testhelpers.BearerTestToken(testSecret, uuid.New(), auth.RoleUser, ""))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSosHandler_ListOwn(t *testing.T) {
	stub := &stubSosService{request: &models.SosRequest{ID: uuid.New(), Status: models.SosStatusComplete}}
	mux := setupSosMux(t, stub)

	req := httptest.NewRequest(http.MethodGet, "/api/sos/me", nil)
	req.Header.Set("Authorization", testhelpers.BearerTestToken(testSecret, uuid.New(), auth.RoleUser, ""))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var got []models.SosRequest
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Len(t, got, 1)
}
