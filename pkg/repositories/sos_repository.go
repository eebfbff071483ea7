// Package repositories implements data access against PostgreSQL.
package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/apperrors"
	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/database"
	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/models"
)

// pgUniqueViolation is the PostgreSQL error code for unique_violation.
const pgUniqueViolation = "23505"

// SosRepository defines data access for SOS requests and their origin snapshots.
type SosRepository interface {
	// Create inserts the request and its immutable origin snapshot in one
	// transaction. Returns a conflict error if the requester already has a
	// REQUESTED request (partial unique index).
	Create(ctx context.Context, req *models.SosRequest, origin *models.SosOrigin) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.SosRequest, error)
	GetOrigin(ctx context.Context, sosID uuid.UUID) (*models.SosOrigin, error)
	// HasActiveRequest is the fast-path pre-check for the one-active-request
	// invariant; the partial unique index is the real enforcement.
	HasActiveRequest(ctx context.Context, userID uuid.UUID) (bool, error)
	// UpdateStatusIf transitions id from the expected status to the new one.
	// The update is conditioned on the current status (compare-and-swap), so
	// concurrent attempts see exactly one winner; losers get a conflict error
	// naming the expected vs. actual status.
	UpdateStatusIf(ctx context.Context, id uuid.UUID, from, to models.SosStatus) (*models.SosRequest, error)
	// ClaimIf is UpdateStatusIf plus assigning the team.
	ClaimIf(ctx context.Context, id, teamID uuid.UUID, from, to models.SosStatus) (*models.SosRequest, error)
	// ReleaseIf is UpdateStatusIf plus clearing the team; conditioned on the
	// caller's team currently holding the request.
	ReleaseIf(ctx context.Context, id, teamID uuid.UUID, from, to models.SosStatus) (*models.SosRequest, error)
	// CompleteByTeamIf marks the request COMPLETE, conditioned on the
	// caller's team currently holding it.
	CompleteByTeamIf(ctx context.Context, id, teamID uuid.UUID) (*models.SosRequest, error)
	// CancelByRequester cancels any non-terminal request owned by userID and
	// clears the team assignment.
	CancelByRequester(ctx context.Context, id, userID uuid.UUID) (*models.SosRequest, error)
	// CompleteByRequester marks an IN_PROGRESS request owned by userID COMPLETE.
	CompleteByRequester(ctx context.Context, id, userID uuid.UUID) (*models.SosRequest, error)
	// ApplyAIFix rewrites description/category from an enrichment result,
	// marks the request AI-edited and moves it to PENDING. Idempotent: a
	// second apply overwrites with the same values.
	ApplyAIFix(ctx context.Context, sosID uuid.UUID, fix *models.SosAIFixed) (*models.SosRequest, error)
	// SetLLMScore writes the enrichment relevance score onto the request.
	SetLLMScore(ctx context.Context, sosID uuid.UUID, score float64) error
	ListOpen(ctx context.Context) ([]*models.SosRequest, error)
	ListByRequester(ctx context.Context, userID uuid.UUID) ([]*models.SosRequest, error)
	// ListByTeam returns requests assigned to a team. An empty status means
	// no status filter.
	ListByTeam(ctx context.Context, teamID uuid.UUID, status models.SosStatus) ([]*models.SosRequest, error)
	// WithinRadius calls get_sos_within_radius_with_distance and returns open
	// requests within radius meters of the origin, annotated with distance
	// and raw sub-scores.
	WithinRadius(ctx context.Context, lat, lon, radiusMeters float64) ([]*models.Candidate, error)
	// CountByStatus calls count_sos_by_status.
	CountByStatus(ctx context.Context) (*models.StatusCounts, error)
	// ListEvents pages through triaged requests (status != REQUESTED).
	ListEvents(ctx context.Context, limit, offset int) ([]*models.SosRequest, int, error)
	// ListRequested pages through pre-triage requests joined with their
	// origin snapshot and enrichment result, newest first.
	ListRequested(ctx context.Context, limit, offset int) ([]*models.RequestedSos, int, error)
}

type sosRepository struct {
	db *database.DB
}

// NewSosRepository creates a new SOS repository.
func NewSosRepository(db *database.DB) SosRepository {
	return &sosRepository{db: db}
}

const sosColumns = `id, userid, type, description, lat, lon, address_text, phone,
	image, team_id, status, llm_score, is_ai_edited, created_at`

func scanSos(row pgx.Row) (*models.SosRequest, error) {
	var req models.SosRequest
	err := row.Scan(
		&req.ID,
		&req.UserID,
		&req.Type,
		&req.Description,
		&req.Lat,
		&req.Lon,
		&req.AddressText,
		&req.Phone,
		&req.Image,
		&req.TeamID,
		&req.Status,
		&req.LLMScore,
		&req.IsAIEdited,
		&req.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *sosRepository) Create(ctx context.Context, req *models.SosRequest, origin *models.SosOrigin) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	insertSos := `
		INSERT INTO sos_request (userid, type, description, lat, lon, address_text, phone, image, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`

	err = tx.QueryRow(ctx, insertSos,
		req.UserID,
		req.Type,
		req.Description,
		req.Lat,
		req.Lon,
		req.AddressText,
		req.Phone,
		req.Image,
		req.Status,
	).Scan(&req.ID, &req.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return apperrors.Conflict("sos_request", "no active request for requester", string(models.SosStatusRequested))
		}
		return fmt.Errorf("failed to insert sos request: %w", err)
	}

	insertOrigin := `
		INSERT INTO sos_request_origin (sos_request_id, description, type)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	origin.SosRequestID = req.ID
	err = tx.QueryRow(ctx, insertOrigin, origin.SosRequestID, origin.Description, origin.Type).
		Scan(&origin.ID, &origin.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert sos origin: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *sosRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.SosRequest, error) {
	query := `SELECT ` + sosColumns + ` FROM sos_request WHERE id = $1`

	req, err := scanSos(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get sos request: %w", err)
	}
	return req, nil
}

func (r *sosRepository) GetOrigin(ctx context.Context, sosID uuid.UUID) (*models.SosOrigin, error) {
	query := `
		SELECT id, sos_request_id, description, type, created_at
		FROM sos_request_origin
		WHERE sos_request_id = $1`

	var origin models.SosOrigin
	err := r.db.QueryRow(ctx, query, sosID).Scan(
		&origin.ID,
		&origin.SosRequestID,
		&origin.Description,
		&origin.Type,
		&origin.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get sos origin: %w", err)
	}
	return &origin, nil
}

func (r *sosRepository) HasActiveRequest(ctx context.Context, userID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM sos_request WHERE userid = $1 AND status = $2)`

	var exists bool
	err := r.db.QueryRow(ctx, query, userID, models.SosStatusRequested).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check active request: %w", err)
	}
	return exists, nil
}

// conflictOrNotFound resolves a zero-row conditional update into the precise
// error: not-found when the row does not exist, otherwise a conflict naming
// the expected vs. actual status.
func (r *sosRepository) conflictOrNotFound(ctx context.Context, id uuid.UUID, expected string) error {
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return apperrors.Conflict("sos_request", expected, string(current.Status))
}

func (r *sosRepository) UpdateStatusIf(ctx context.Context, id uuid.UUID, from, to models.SosStatus) (*models.SosRequest, error) {
	query := `
		UPDATE sos_request SET status = $1
		WHERE id = $2 AND status = $3
		RETURNING ` + sosColumns

	req, err := scanSos(r.db.QueryRow(ctx, query, to, id, from))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.conflictOrNotFound(ctx, id, string(from))
		}
		return nil, fmt.Errorf("failed to update sos status: %w", err)
	}
	return req, nil
}

func (r *sosRepository) ClaimIf(ctx context.Context, id, teamID uuid.UUID, from, to models.SosStatus) (*models.SosRequest, error) {
	query := `
		UPDATE sos_request SET status = $1, team_id = $2
		WHERE id = $3 AND status = $4
		RETURNING ` + sosColumns

	req, err := scanSos(r.db.QueryRow(ctx, query, to, teamID, id, from))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.conflictOrNotFound(ctx, id, string(from))
		}
		return nil, fmt.Errorf("failed to claim sos request: %w", err)
	}
	return req, nil
}

func (r *sosRepository) ReleaseIf(ctx context.Context, id, teamID uuid.UUID, from, to models.SosStatus) (*models.SosRequest, error) {
	query := `
		UPDATE sos_request SET status = $1, team_id = NULL
		WHERE id = $2 AND status = $3 AND team_id = $4
		RETURNING ` + sosColumns

	req, err := scanSos(r.db.QueryRow(ctx, query, to, id, from, teamID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.conflictOrNotFound(ctx, id, fmt.Sprintf("%s assigned to team %s", from, teamID))
		}
		return nil, fmt.Errorf("failed to release sos request: %w", err)
	}
	return req, nil
}

func (r *sosRepository) CompleteByTeamIf(ctx context.Context, id, teamID uuid.UUID) (*models.SosRequest, error) {
	query := `
		UPDATE sos_request SET status = $1
		WHERE id = $2 AND status = $3 AND team_id = $4
		RETURNING ` + sosColumns

	req, err := scanSos(r.db.QueryRow(ctx, query, models.SosStatusComplete, id, models.SosStatusInProgress, teamID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.conflictOrNotFound(ctx, id,
				fmt.Sprintf("%s assigned to team %s", models.SosStatusInProgress, teamID))
		}
		return nil, fmt.Errorf("failed to complete sos request: %w", err)
	}
	return req, nil
}

func (r *sosRepository) CancelByRequester(ctx context.Context, id, userID uuid.UUID) (*models.SosRequest, error) {
	query := `
		UPDATE sos_request SET status = $1, team_id = NULL
		WHERE id = $2 AND userid = $3 AND status = ANY($4)
		RETURNING ` + sosColumns

	nonTerminal := []models.SosStatus{
		models.SosStatusRequested,
		models.SosStatusPending,
		models.SosStatusInProgress,
	}
	req, err := scanSos(r.db.QueryRow(ctx, query, models.SosStatusCanceled, id, userID, nonTerminal))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.conflictOrNotFound(ctx, id, "non-terminal request owned by caller")
		}
		return nil, fmt.Errorf("failed to cancel sos request: %w", err)
	}
	return req, nil
}

func (r *sosRepository) CompleteByRequester(ctx context.Context, id, userID uuid.UUID) (*models.SosRequest, error) {
	query := `
		UPDATE sos_request SET status = $1
		WHERE id = $2 AND userid = $3 AND status = $4
		RETURNING ` + sosColumns

	req, err := scanSos(r.db.QueryRow(ctx, query, models.SosStatusComplete, id, userID, models.SosStatusInProgress))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.conflictOrNotFound(ctx, id,
				fmt.Sprintf("%s owned by caller", models.SosStatusInProgress))
		}
		return nil, fmt.Errorf("failed to complete sos request: %w", err)
	}
	return req, nil
}

func (r *sosRepository) ApplyAIFix(ctx context.Context, sosID uuid.UUID, fix *models.SosAIFixed) (*models.SosRequest, error) {
	query := `
		UPDATE sos_request
		SET description = $1, type = $2, is_ai_edited = true, status = $3
		WHERE id = $4
		RETURNING ` + sosColumns

	req, err := scanSos(r.db.QueryRow(ctx, query, fix.LLMText, fix.LLMCategory, models.SosStatusPending, sosID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to apply ai fix: %w", err)
	}
	return req, nil
}

func (r *sosRepository) SetLLMScore(ctx context.Context, sosID uuid.UUID, score float64) error {
	query := `UPDATE sos_request SET llm_score = $1 WHERE id = $2`

	result, err := r.db.Exec(ctx, query, score, sosID)
	if err != nil {
		return fmt.Errorf("failed to set llm score: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *sosRepository) listByQuery(ctx context.Context, query string, args ...any) ([]*models.SosRequest, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sos requests: %w", err)
	}
	defer rows.Close()

	var reqs []*models.SosRequest
	for rows.Next() {
		req, err := scanSos(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sos request: %w", err)
		}
		reqs = append(reqs, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sos requests: %w", err)
	}
	return reqs, nil
}

func (r *sosRepository) ListOpen(ctx context.Context) ([]*models.SosRequest, error) {
	query := `SELECT ` + sosColumns + ` FROM sos_request WHERE status = $1 ORDER BY created_at DESC`
	return r.listByQuery(ctx, query, models.SosStatusPending)
}

func (r *sosRepository) ListByRequester(ctx context.Context, userID uuid.UUID) ([]*models.SosRequest, error) {
	query := `SELECT ` + sosColumns + ` FROM sos_request WHERE userid = $1 ORDER BY created_at DESC`
	return r.listByQuery(ctx, query, userID)
}

func (r *sosRepository) ListByTeam(ctx context.Context, teamID uuid.UUID, status models.SosStatus) ([]*models.SosRequest, error) {
	// Empty status means no filter, not a literal match against "".
	if status == "" {
		query := `SELECT ` + sosColumns + ` FROM sos_request WHERE team_id = $1 ORDER BY created_at DESC`
		return r.listByQuery(ctx, query, teamID)
	}
	query := `SELECT ` + sosColumns + ` FROM sos_request WHERE team_id = $1 AND status = $2 ORDER BY created_at DESC`
	return r.listByQuery(ctx, query, teamID, status)
}

func (r *sosRepository) WithinRadius(ctx context.Context, lat, lon, radiusMeters float64) ([]*models.Candidate, error) {
	query := `
		SELECT ` + sosColumns + `, distance_meters, distance_score, time_score, base_score, llm_raw_score
		FROM get_sos_within_radius_with_distance($1, $2, $3)`

	rows, err := r.db.Query(ctx, query, lat, lon, radiusMeters)
	if err != nil {
		return nil, fmt.Errorf("failed to query sos within radius: %w", err)
	}
	defer rows.Close()

	var candidates []*models.Candidate
	for rows.Next() {
		var c models.Candidate
		err := rows.Scan(
			&c.ID,
			&c.UserID,
			&c.Type,
			&c.Description,
			&c.Lat,
			&c.Lon,
			&c.AddressText,
			&c.Phone,
			&c.Image,
			&c.TeamID,
			&c.Status,
			&c.LLMScore,
			&c.IsAIEdited,
			&c.CreatedAt,
			&c.DistanceMeters,
			&c.DistanceScore,
			&c.TimeScore,
			&c.BaseScore,
			&c.LLMRawScore,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		candidates = append(candidates, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating candidates: %w", err)
	}
	return candidates, nil
}

func (r *sosRepository) CountByStatus(ctx context.Context) (*models.StatusCounts, error) {
	query := `SELECT total_requests, pending_count, inprogress_count, complete_count FROM count_sos_by_status()`

	var counts models.StatusCounts
	err := r.db.QueryRow(ctx, query).Scan(
		&counts.TotalRequests,
		&counts.PendingCount,
		&counts.InProgressCount,
		&counts.CompleteCount,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count sos by status: %w", err)
	}
	return &counts, nil
}

func (r *sosRepository) ListEvents(ctx context.Context, limit, offset int) ([]*models.SosRequest, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM sos_request WHERE status <> $1`
	if err := r.db.QueryRow(ctx, countQuery, models.SosStatusRequested).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count events: %w", err)
	}

	query := `
		SELECT ` + sosColumns + ` FROM sos_request
		WHERE status <> $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	reqs, err := r.listByQuery(ctx, query, models.SosStatusRequested, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return reqs, total, nil
}

func (r *sosRepository) ListRequested(ctx context.Context, limit, offset int) ([]*models.RequestedSos, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM sos_request WHERE status = $1`
	if err := r.db.QueryRow(ctx, countQuery, models.SosStatusRequested).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count requested events: %w", err)
	}

	query := `
		SELECT s.id, s.userid, s.type, s.description, s.lat, s.lon, s.address_text, s.phone,
			s.image, s.team_id, s.status, s.llm_score, s.is_ai_edited, s.created_at,
			o.id, o.description, o.type, o.created_at,
			f.id, f.sos_origin_id, f.model_name, f.llm_name, f.model_fixed_text,
			f.llm_fixed_text, f.llm_category, f.confidence, f.llm_score, f.created_at
		FROM sos_request s
		LEFT JOIN sos_request_origin o ON o.sos_request_id = s.id
		LEFT JOIN sos_request_ai_fixed f ON f.sos_origin_id = o.id
		WHERE s.status = $1
		ORDER BY s.created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, models.SosStatusRequested, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list requested events: %w", err)
	}
	defer rows.Close()

	var result []*models.RequestedSos
	for rows.Next() {
		var (
			item      models.RequestedSos
			originID  *uuid.UUID
			originTxt *string
			originTyp *models.SosType
			originAt  *time.Time

			fixID     *uuid.UUID
			fixOrigin *uuid.UUID
			modelName *string
			llmName   *string
			modelText *string
			llmText   *string
			llmCat    *models.SosType
			conf      *float64
			llmScore  *float64
			fixAt     *time.Time
		)
		err := rows.Scan(
			&item.ID, &item.UserID, &item.Type, &item.Description, &item.Lat, &item.Lon,
			&item.AddressText, &item.Phone, &item.Image, &item.TeamID, &item.Status,
			&item.LLMScore, &item.IsAIEdited, &item.CreatedAt,
			&originID, &originTxt, &originTyp, &originAt,
			&fixID, &fixOrigin, &modelName, &llmName, &modelText, &llmText, &llmCat,
			&conf, &llmScore, &fixAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan requested event: %w", err)
		}

		if originID != nil {
			item.Origin = &models.SosOrigin{
				ID:           *originID,
				SosRequestID: item.ID,
				Description:  *originTxt,
				Type:         *originTyp,
				CreatedAt:    *originAt,
			}
		}
		if fixID != nil {
			item.AIFixed = &models.SosAIFixed{
				ID:          *fixID,
				SosOriginID: *fixOrigin,
				ModelName:   *modelName,
				LLMName:     *llmName,
				ModelText:   *modelText,
				LLMText:     *llmText,
				LLMCategory: *llmCat,
				Confidence:  *conf,
				LLMScore:    *llmScore,
				CreatedAt:   *fixAt,
			}
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating requested events: %w", err)
	}
	return result, total, nil
}

// Ensure sosRepository implements SosRepository at compile time.
var _ SosRepository = (*sosRepository)(nil)
