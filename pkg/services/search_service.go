package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/apperrors"
	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/models"
	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/repositories"
)

// EarthRadiusMeters is the mean Earth radius used for great-circle distances.
const EarthRadiusMeters = 6371000.0

// RecencyWindow restricts candidates by age. Zero means unbounded.
type RecencyWindow int

const (
	WindowUnbounded RecencyWindow = 0
	Window12h       RecencyWindow = 12
	Window24h       RecencyWindow = 24
	Window48h       RecencyWindow = 48
)

// ParseRecencyWindow maps a query-string value to a window. An empty value
// means unbounded.
func ParseRecencyWindow(raw string) (RecencyWindow, error) {
	switch raw {
	case "", "all":
		return WindowUnbounded, nil
	case "12h":
		return Window12h, nil
	case "24h":
		return Window24h, nil
	case "48h":
		return Window48h, nil
	default:
		return 0, apperrors.Validation("window", "must be one of 12h, 24h, 48h")
	}
}

// SearchParams describe a candidate search. RadiusMeters of 0 disables the
// radius filter and returns every open request.
type SearchParams struct {
	Lat          *float64
	Lon          *float64
	RadiusMeters float64
	Window       RecencyWindow
}

// SearchService finds open requests near a point and annotates them with
// raw distances for ranking.
type SearchService interface {
	SearchCandidates(ctx context.Context, params SearchParams) ([]*models.Candidate, error)
}

type searchService struct {
	sosRepo repositories.SosRepository
	logger  *zap.Logger
	now     func() time.Time
}

// NewSearchService creates a new candidate search service.
func NewSearchService(sosRepo repositories.SosRepository, logger *zap.Logger) SearchService {
	return &searchService{
		sosRepo: sosRepo,
		logger:  logger.Named("search"),
		now:     time.Now,
	}
}

// Haversine returns the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const degToRad = math.Pi / 180
	phi1 := lat1 * degToRad
	phi2 := lat2 * degToRad
	dPhi := (lat2 - lat1) * degToRad
	dLambda := (lon2 - lon1) * degToRad

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return EarthRadiusMeters * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func (s *searchService) SearchCandidates(ctx context.Context, params SearchParams) ([]*models.Candidate, error) {
	if params.RadiusMeters < 0 {
		return nil, apperrors.Validation("radius", "must not be negative")
	}
	if params.RadiusMeters > 0 && (params.Lat == nil || params.Lon == nil) {
		return nil, apperrors.Validation("lat", "origin point is required when a radius is given")
	}
	if params.Lat != nil && (*params.Lat < -90 || *params.Lat > 90) {
		return nil, apperrors.Validation("lat", "must be between -90 and 90")
	}
	if params.Lon != nil && (*params.Lon < -180 || *params.Lon > 180) {
		return nil, apperrors.Validation("lon", "must be between -180 and 180")
	}

	var candidates []*models.Candidate
	if params.RadiusMeters > 0 {
		// The store-side query annotates each row with distance and the
		// per-factor raw sub-scores it already computed.
		rows, err := s.sosRepo.WithinRadius(ctx, *params.Lat, *params.Lon, params.RadiusMeters)
		if err != nil {
			return nil, fmt.Errorf("failed to search within radius: %w", err)
		}
		candidates = rows
	} else {
		open, err := s.sosRepo.ListOpen(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list open requests: %w", err)
		}
		candidates = make([]*models.Candidate, 0, len(open))
		for _, req := range open {
			candidates = append(candidates, &models.Candidate{SosRequest: *req})
		}
	}

	now := s.now()
	out := make([]*models.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if params.Window != WindowUnbounded && !withinWindow(c.CreatedAt, now, params.Window) {
			continue
		}
		if c.DistanceMeters == nil && params.Lat != nil && params.Lon != nil && c.HasPoint() {
			d := Haversine(*params.Lat, *params.Lon, *c.Lat, *c.Lon)
			c.DistanceMeters = &d
		}
		if params.RadiusMeters > 0 {
			if c.DistanceMeters == nil || *c.DistanceMeters > params.RadiusMeters {
				continue
			}
		}
		if c.DistanceMeters != nil {
			rounded := math.Round(*c.DistanceMeters)
			c.DistanceMeters = &rounded
		}
		out = append(out, c)
	}

	sortCandidates(out)

	s.logger.Debug("Candidate search completed",
		zap.Float64("radius_meters", params.RadiusMeters),
		zap.Int("window_hours", int(params.Window)),
		zap.Int("results", len(out)))

	return out, nil
}

// withinWindow compares ages in whole hours with an inclusive boundary, so
// a request created exactly N hours ago still matches the Nh window.
func withinWindow(createdAt, now time.Time, window RecencyWindow) bool {
	age := now.Sub(createdAt)
	if age < 0 {
		return true
	}
	return int(age.Hours()) <= int(window)
}

// sortCandidates orders by ascending distance, items without a distance
// after those with one, ties and distance-less items by newest first.
func sortCandidates(candidates []*models.Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		di, dj := candidates[i].DistanceMeters, candidates[j].DistanceMeters
		switch {
		case di != nil && dj != nil:
			if *di != *dj {
				return *di < *dj
			}
			return candidates[i].CreatedAt.After(candidates[j].CreatedAt)
		case di != nil:
			return true
		case dj != nil:
			return false
		default:
			return candidates[i].CreatedAt.After(candidates[j].CreatedAt)
		}
	})
}

var _ SearchService = (*searchService)(nil)
