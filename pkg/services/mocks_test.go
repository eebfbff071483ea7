package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/apperrors"
	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/llm"
	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/models"
	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/repositories"
)

// mockSosRepository is an in-memory SosRepository mirroring the conditional
// update semantics of the real store.
type mockSosRepository struct {
	mu       sync.Mutex
	requests map[uuid.UUID]*models.SosRequest
	origins  map[uuid.UUID]*models.SosOrigin // keyed by sos request id
	counts   models.StatusCounts
	countErr error

	countCalls int
}

func newMockSosRepository() *mockSosRepository {
	return &mockSosRepository{
		requests: make(map[uuid.UUID]*models.SosRequest),
		origins:  make(map[uuid.UUID]*models.SosOrigin),
	}
}

func (m *mockSosRepository) Create(ctx context.Context, req *models.SosRequest, origin *models.SosOrigin) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if req.UserID != nil {
		for _, r := range m.requests {
			if r.UserID != nil && *r.UserID == *req.UserID && r.Status == models.SosStatusRequested {
				return apperrors.Conflict("sos_request", "no active request for requester", string(models.SosStatusRequested))
			}
		}
	}
	req.ID = uuid.New()
	m.requests[req.ID] = req
	origin.ID = uuid.New()
	origin.SosRequestID = req.ID
	m.origins[req.ID] = origin
	return nil
}

func (m *mockSosRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.SosRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *req
	return &cp, nil
}

func (m *mockSosRepository) GetOrigin(ctx context.Context, sosID uuid.UUID) (*models.SosOrigin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	origin, ok := m.origins[sosID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return origin, nil
}

func (m *mockSosRepository) HasActiveRequest(ctx context.Context, userID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.requests {
		if r.UserID != nil && *r.UserID == userID && r.Status == models.SosStatusRequested {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockSosRepository) updateIf(id uuid.UUID, expected string, cond func(*models.SosRequest) bool, apply func(*models.SosRequest)) (*models.SosRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	if !cond(req) {
		return nil, apperrors.Conflict("sos_request", expected, string(req.Status))
	}
	apply(req)
	cp := *req
	return &cp, nil
}

func (m *mockSosRepository) UpdateStatusIf(ctx context.Context, id uuid.UUID, from, to models.SosStatus) (*models.SosRequest, error) {
	return m.updateIf(id, string(from),
		func(r *models.SosRequest) bool { return r.Status == from },
		func(r *models.SosRequest) { r.Status = to })
}

func (m *mockSosRepository) ClaimIf(ctx context.Context, id, teamID uuid.UUID, from, to models.SosStatus) (*models.SosRequest, error) {
	return m.updateIf(id, string(from),
		func(r *models.SosRequest) bool { return r.Status == from },
		func(r *models.SosRequest) { r.Status = to; r.TeamID = &teamID })
}

func (m *mockSosRepository) ReleaseIf(ctx context.Context, id, teamID uuid.UUID, from, to models.SosStatus) (*models.SosRequest, error) {
	return m.updateIf(id, fmt.Sprintf("%s assigned to team %s", from, teamID),
		func(r *models.SosRequest) bool {
			return r.Status == from && r.TeamID != nil && *r.TeamID == teamID
		},
		func(r *models.SosRequest) { r.Status = to; r.TeamID = nil })
}

func (m *mockSosRepository) CompleteByTeamIf(ctx context.Context, id, teamID uuid.UUID) (*models.SosRequest, error) {
	return m.updateIf(id, fmt.Sprintf("%s assigned to team %s", models.SosStatusInProgress, teamID),
		func(r *models.SosRequest) bool {
			return r.Status == models.SosStatusInProgress && r.TeamID != nil && *r.TeamID == teamID
		},
		func(r *models.SosRequest) { r.Status = models.SosStatusComplete })
}

func (m *mockSosRepository) CancelByRequester(ctx context.Context, id, userID uuid.UUID) (*models.SosRequest, error) {
	return m.updateIf(id, "non-terminal request owned by caller",
		func(r *models.SosRequest) bool {
			return r.UserID != nil && *r.UserID == userID && !r.Status.IsTerminal()
		},
		func(r *models.SosRequest) { r.Status = models.SosStatusCanceled; r.TeamID = nil })
}

func (m *mockSosRepository) CompleteByRequester(ctx context.Context, id, userID uuid.UUID) (*models.SosRequest, error) {
	return m.updateIf(id, fmt.Sprintf("%s owned by caller", models.SosStatusInProgress),
		func(r *models.SosRequest) bool {
			return r.UserID != nil && *r.UserID == userID && r.Status == models.SosStatusInProgress
		},
		func(r *models.SosRequest) { r.Status = models.SosStatusComplete })
}

func (m *mockSosRepository) ApplyAIFix(ctx context.Context, sosID uuid.UUID, fix *models.SosAIFixed) (*models.SosRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[sosID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	req.Description = fix.LLMText
	req.Type = fix.LLMCategory
	req.IsAIEdited = true
	req.Status = models.SosStatusPending
	cp := *req
	return &cp, nil
}

func (m *mockSosRepository) SetLLMScore(ctx context.Context, sosID uuid.UUID, score float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[sosID]
	if !ok {
		return apperrors.ErrNotFound
	}
	req.LLMScore = &score
	return nil
}

func (m *mockSosRepository) ListOpen(ctx context.Context) ([]*models.SosRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.SosRequest
	for _, r := range m.requests {
		if r.Status == models.SosStatusPending {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockSosRepository) ListByRequester(ctx context.Context, userID uuid.UUID) ([]*models.SosRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.SosRequest
	for _, r := range m.requests {
		if r.UserID != nil && *r.UserID == userID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockSosRepository) ListByTeam(ctx context.Context, teamID uuid.UUID, status models.SosStatus) ([]*models.SosRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.SosRequest
	for _, r := range m.requests {
		if r.TeamID == nil || *r.TeamID != teamID {
			continue
		}
		if status != "" && r.Status != status {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockSosRepository) WithinRadius(ctx context.Context, lat, lon, radiusMeters float64) ([]*models.Candidate, error) {
	open, err := m.ListOpen(ctx)
	if err != nil {
		return nil, err
	}
	var out []*models.Candidate
	for _, r := range open {
		if !r.HasPoint() {
			continue
		}
		d := Haversine(lat, lon, *r.Lat, *r.Lon)
		if radiusMeters > 0 && d > radiusMeters {
			continue
		}
		out = append(out, &models.Candidate{SosRequest: *r, DistanceMeters: &d})
	}
	return out, nil
}

func (m *mockSosRepository) CountByStatus(ctx context.Context) (*models.StatusCounts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.countCalls++
	if m.countErr != nil {
		return nil, m.countErr
	}
	cp := m.counts
	return &cp, nil
}

func (m *mockSosRepository) ListEvents(ctx context.Context, limit, offset int) ([]*models.SosRequest, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.SosRequest
	for _, r := range m.requests {
		if r.Status != models.SosStatusRequested {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, len(out), nil
}

func (m *mockSosRepository) ListRequested(ctx context.Context, limit, offset int) ([]*models.RequestedSos, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.RequestedSos
	for _, r := range m.requests {
		if r.Status == models.SosStatusRequested {
			out = append(out, &models.RequestedSos{SosRequest: *r, Origin: m.origins[r.ID]})
		}
	}
	return out, len(out), nil
}

var _ repositories.SosRepository = (*mockSosRepository)(nil)

// mockTeamRepository is an in-memory TeamRepository.
type mockTeamRepository struct {
	mu    sync.Mutex
	teams map[uuid.UUID]*models.Team
}

func newMockTeamRepository() *mockTeamRepository {
	return &mockTeamRepository{teams: make(map[uuid.UUID]*models.Team)}
}

func (m *mockTeamRepository) Create(ctx context.Context, team *models.Team) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.teams {
		if t.LeaderID == team.LeaderID && t.Status == models.TeamStatusPending {
			return apperrors.Conflict("team_rescue", "no pending team for leader", string(models.TeamStatusPending))
		}
	}
	team.ID = uuid.New()
	m.teams[team.ID] = team
	return nil
}

func (m *mockTeamRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	team, ok := m.teams[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *team
	return &cp, nil
}

func (m *mockTeamRepository) GetByLeader(ctx context.Context, leaderID uuid.UUID) (*models.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.teams {
		if t.LeaderID == leaderID {
			cp := *t
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockTeamRepository) HasPendingTeam(ctx context.Context, leaderID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.teams {
		if t.LeaderID == leaderID && t.Status == models.TeamStatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockTeamRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.TeamStatus) (*models.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	team, ok := m.teams[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	team.Status = status
	cp := *team
	return &cp, nil
}

func (m *mockTeamRepository) Update(ctx context.Context, team *models.Team) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.teams[team.ID]; !ok {
		return apperrors.ErrNotFound
	}
	m.teams[team.ID] = team
	return nil
}

func (m *mockTeamRepository) List(ctx context.Context, limit, offset int) ([]*models.Team, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Team
	for _, t := range m.teams {
		cp := *t
		out = append(out, &cp)
	}
	return out, len(out), nil
}

var _ repositories.TeamRepository = (*mockTeamRepository)(nil)

// mockWeightRepository is an in-memory WeightRepository.
type mockWeightRepository struct {
	mu         sync.Mutex
	weights    map[string]float64
	typeScores map[models.SosType]float64
	getErr     error
}

func newMockWeightRepository() *mockWeightRepository {
	return &mockWeightRepository{
		weights: map[string]float64{
			models.WeightKeyDistance:       0.30,
			models.WeightKeyTime:           0.20,
			models.WeightKeyEmergencyType:  0.20,
			models.WeightKeyLLMDescription: 0.15,
			models.WeightKeyTeamSize:       0.15,
		},
		typeScores: map[models.SosType]float64{
			models.SosTypeMedical:   1.0,
			models.SosTypeRescue:    0.9,
			models.SosTypeHelp:      0.7,
			models.SosTypeTowing:    0.5,
			models.SosTypeEssential: 0.4,
			models.SosTypeOther:     0.2,
		},
	}
}

func (m *mockWeightRepository) GetWeights(ctx context.Context) (map[string]float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	out := make(map[string]float64, len(m.weights))
	for k, v := range m.weights {
		out[k] = v
	}
	return out, nil
}

func (m *mockWeightRepository) ReplaceWeights(ctx context.Context, weights map[string]float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.weights = make(map[string]float64, len(weights))
	for k, v := range weights {
		m.weights[k] = v
	}
	return nil
}

func (m *mockWeightRepository) GetTypeWeights(ctx context.Context) ([]*models.TypeWeight, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.TypeWeight
	for t, s := range m.typeScores {
		out = append(out, &models.TypeWeight{ID: uuid.New(), Type: t, BaseScore: s})
	}
	return out, nil
}

func (m *mockWeightRepository) GetTypeWeightScores(ctx context.Context) (map[models.SosType]float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[models.SosType]float64, len(m.typeScores))
	for k, v := range m.typeScores {
		out[k] = v
	}
	return out, nil
}

func (m *mockWeightRepository) UpdateTypeWeight(ctx context.Context, id uuid.UUID, baseScore float64) (*models.TypeWeight, error) {
	return &models.TypeWeight{ID: id, Type: models.SosTypeOther, BaseScore: baseScore}, nil
}

var _ repositories.WeightRepository = (*mockWeightRepository)(nil)

// mockEnrichmentRepository is an in-memory EnrichmentRepository.
type mockEnrichmentRepository struct {
	mu    sync.Mutex
	fixes map[uuid.UUID]*models.SosAIFixed // keyed by origin id
}

func newMockEnrichmentRepository() *mockEnrichmentRepository {
	return &mockEnrichmentRepository{fixes: make(map[uuid.UUID]*models.SosAIFixed)}
}

func (m *mockEnrichmentRepository) Insert(ctx context.Context, fix *models.SosAIFixed) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	fix.ID = uuid.New()
	m.fixes[fix.SosOriginID] = fix
	return nil
}

func (m *mockEnrichmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.SosAIFixed, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.fixes {
		if f.ID == id {
			return f, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockEnrichmentRepository) GetByOrigin(ctx context.Context, originID uuid.UUID) (*models.SosAIFixed, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fix, ok := m.fixes[originID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return fix, nil
}

var _ repositories.EnrichmentRepository = (*mockEnrichmentRepository)(nil)

// mockChatRepository is an in-memory ChatRepository.
type mockChatRepository struct {
	mu   sync.Mutex
	docs []*models.ChatDocument
}

func (m *mockChatRepository) InsertDocument(ctx context.Context, content string, embedding []float32) (*models.ChatDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc := &models.ChatDocument{ID: uuid.New(), Content: content}
	m.docs = append(m.docs, doc)
	return doc, nil
}

func (m *mockChatRepository) MatchDocuments(ctx context.Context, embedding []float32, k int) ([]*models.ChatDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if k > len(m.docs) {
		k = len(m.docs)
	}
	return m.docs[:k], nil
}

var _ repositories.ChatRepository = (*mockChatRepository)(nil)

// mockChatClient is a canned llm.ChatClient.
type mockChatClient struct {
	answer    string
	embedding []float32
	askedWith string
}

func (m *mockChatClient) GenerateResponse(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error) {
	m.askedWith = prompt
	return m.answer, nil
}

func (m *mockChatClient) EmbedText(ctx context.Context, text string) ([]float32, error) {
	return m.embedding, nil
}

var _ llm.ChatClient = (*mockChatClient)(nil)
