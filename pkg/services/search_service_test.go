package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/apperrors"
	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/models"
)

// hanoiLat/hanoiLon anchor the geo fixtures.
const (
	hanoiLat = 21.0278
	hanoiLon = 105.8342
)

// pointAtMeters returns a lat offset that is roughly d meters north of the
// anchor. One degree of latitude is ~111,195 m at this radius.
func pointAtMeters(d float64) float64 {
	return hanoiLat + d/111194.93
}

func addPending(repo *mockSosRepository, lat, lon float64, createdAt time.Time) uuid.UUID {
	id := uuid.New()
	repo.requests[id] = &models.SosRequest{
		ID:        id,
		Type:      models.SosTypeHelp,
		Status:    models.SosStatusPending,
		Lat:       &lat,
		Lon:       &lon,
		CreatedAt: createdAt,
	}
	return id
}

func addPendingNoPoint(repo *mockSosRepository, createdAt time.Time) uuid.UUID {
	id := uuid.New()
	repo.requests[id] = &models.SosRequest{
		ID:        id,
		Type:      models.SosTypeHelp,
		Status:    models.SosStatusPending,
		CreatedAt: createdAt,
	}
	return id
}

func TestHaversine_KnownDistance(t *testing.T) {
	// Hanoi to Ho Chi Minh City is about 1,160 km.
	d := Haversine(21.0278, 105.8342, 10.7769, 106.7009)
	assert.InDelta(t, 1_160_000, d, 20_000)

	assert.Equal(t, 0.0, Haversine(hanoiLat, hanoiLon, hanoiLat, hanoiLon))
}

func TestSearchCandidates_RadiusZeroReturnsAll(t *testing.T) {
	repo := newMockSosRepository()
	now := time.Now()
	addPending(repo, hanoiLat, hanoiLon, now)
	addPending(repo, pointAtMeters(8000), hanoiLon, now)
	addPendingNoPoint(repo, now)

	svc := NewSearchService(repo, zap.NewNop())
	out, err := svc.SearchCandidates(context.Background(), SearchParams{})
	require.NoError(t, err)
	assert.Len(t, out, 3, "radius 0 must not filter by distance or point")
}

func TestSearchCandidates_RadiusBoundaryInclusive(t *testing.T) {
	repo := newMockSosRepository()
	now := time.Now()
	near := addPending(repo, pointAtMeters(4999), hanoiLon, now)
	addPending(repo, pointAtMeters(5600), hanoiLon, now)
	addPendingNoPoint(repo, now)

	svc := NewSearchService(repo, zap.NewNop())
	lat, lon := hanoiLat, hanoiLon
	out, err := svc.SearchCandidates(context.Background(), SearchParams{
		Lat: &lat, Lon: &lon, RadiusMeters: 5000,
	})
	require.NoError(t, err)
	require.Len(t, out, 1, "only the 4999m candidate is in range; point-less candidates are excluded")
	assert.Equal(t, near, out[0].ID)
	require.NotNil(t, out[0].DistanceMeters)
	assert.InDelta(t, 4999, *out[0].DistanceMeters, 2)
	assert.Equal(t, *out[0].DistanceMeters, float64(int(*out[0].DistanceMeters)), "distance must be whole meters")
}

func TestSearchCandidates_RecencyWindow(t *testing.T) {
	repo := newMockSosRepository()
	now := time.Now()
	fresh := addPending(repo, hanoiLat, hanoiLon, now.Add(-11*time.Hour))
	boundary := addPending(repo, hanoiLat, hanoiLon, now.Add(-12*time.Hour))
	addPending(repo, hanoiLat, hanoiLon, now.Add(-13*time.Hour))

	svc := &searchService{sosRepo: repo, logger: zap.NewNop(), now: func() time.Time { return now }}
	out, err := svc.SearchCandidates(context.Background(), SearchParams{Window: Window12h})
	require.NoError(t, err)
	require.Len(t, out, 2, "12h window compares whole hours inclusively")

	ids := []uuid.UUID{out[0].ID, out[1].ID}
	assert.Contains(t, ids, fresh)
	assert.Contains(t, ids, boundary)
}

func TestSearchCandidates_OrderingDistanceThenRecency(t *testing.T) {
	repo := newMockSosRepository()
	now := time.Now()
	far := addPending(repo, pointAtMeters(3000), hanoiLon, now.Add(-1*time.Hour))
	nearest := addPending(repo, pointAtMeters(500), hanoiLon, now.Add(-5*time.Hour))
	newerNoPoint := addPendingNoPoint(repo, now)
	olderNoPoint := addPendingNoPoint(repo, now.Add(-2*time.Hour))

	svc := NewSearchService(repo, zap.NewNop())
	lat, lon := hanoiLat, hanoiLon
	out, err := svc.SearchCandidates(context.Background(), SearchParams{Lat: &lat, Lon: &lon})
	require.NoError(t, err)
	require.Len(t, out, 4)

	assert.Equal(t, nearest, out[0].ID)
	assert.Equal(t, far, out[1].ID)
	assert.Equal(t, newerNoPoint, out[2].ID, "distance-less candidates sort last, newest first")
	assert.Equal(t, olderNoPoint, out[3].ID)
}

func TestSearchCandidates_Validation(t *testing.T) {
	svc := NewSearchService(newMockSosRepository(), zap.NewNop())
	ctx := context.Background()

	_, err := svc.SearchCandidates(ctx, SearchParams{RadiusMeters: -1})
	assert.True(t, apperrors.IsValidation(err), "negative radius must be a validation error")

	_, err = svc.SearchCandidates(ctx, SearchParams{RadiusMeters: 100})
	assert.True(t, apperrors.IsValidation(err), "radius without a point must be a validation error")

	badLat := 91.0
	lon := hanoiLon
	_, err = svc.SearchCandidates(ctx, SearchParams{Lat: &badLat, Lon: &lon})
	assert.True(t, apperrors.IsValidation(err))
}

func TestParseRecencyWindow(t *testing.T) {
	for raw, want := range map[string]RecencyWindow{
		"": WindowUnbounded, "all": WindowUnbounded,
		"12h": Window12h, "24h": Window24h, "48h": Window48h,
	} {
		got, err := ParseRecencyWindow(raw)
		require.NoError(t, err, "window %q", raw)
		assert.Equal(t, want, got)
	}

	_, err := ParseRecencyWindow("6h")
	assert.True(t, apperrors.IsValidation(err))
}
