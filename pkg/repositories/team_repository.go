package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/apperrors"
	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/database"
	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/models"
)

// TeamRepository defines data access for rescue teams.
type TeamRepository interface {
	// Create inserts a team in PENDING status. Returns a conflict error if
	// the leader already owns a PENDING team (partial unique index).
	Create(ctx context.Context, team *models.Team) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Team, error)
	GetByLeader(ctx context.Context, leaderID uuid.UUID) (*models.Team, error)
	// HasPendingTeam is the fast-path pre-check for the one-pending-team
	// invariant; the partial unique index is the real enforcement.
	HasPendingTeam(ctx context.Context, leaderID uuid.UUID) (bool, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.TeamStatus) (*models.Team, error)
	Update(ctx context.Context, team *models.Team) error
	List(ctx context.Context, limit, offset int) ([]*models.Team, int, error)
}

type teamRepository struct {
	db *database.DB
}

// NewTeamRepository creates a new team repository.
func NewTeamRepository(db *database.DB) TeamRepository {
	return &teamRepository{db: db}
}

const teamColumns = `id, name, leader_id, province, district, commune, size_member,
	organizational, phone, document_url, team_status, created_at`

func scanTeam(row pgx.Row) (*models.Team, error) {
	var team models.Team
	err := row.Scan(
		&team.ID,
		&team.Name,
		&team.LeaderID,
		&team.Province,
		&team.District,
		&team.Commune,
		&team.SizeMember,
		&team.Organizational,
		&team.Phone,
		&team.DocumentURL,
		&team.Status,
		&team.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &team, nil
}

func (r *teamRepository) Create(ctx context.Context, team *models.Team) error {
	query := `
		INSERT INTO team_rescue (name, leader_id, province, district, commune, size_member,
			organizational, phone, document_url, team_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query,
		team.Name,
		team.LeaderID,
		team.Province,
		team.District,
		team.Commune,
		team.SizeMember,
		team.Organizational,
		team.Phone,
		team.DocumentURL,
		team.Status,
	).Scan(&team.ID, &team.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return apperrors.Conflict("team_rescue", "no pending team for leader", string(models.TeamStatusPending))
		}
		return fmt.Errorf("failed to insert team: %w", err)
	}
	return nil
}

func (r *teamRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM team_rescue WHERE id = $1`

	team, err := scanTeam(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	return team, nil
}

func (r *teamRepository) GetByLeader(ctx context.Context, leaderID uuid.UUID) (*models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM team_rescue WHERE leader_id = $1 ORDER BY created_at DESC LIMIT 1`

	team, err := scanTeam(r.db.QueryRow(ctx, query, leaderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get team by leader: %w", err)
	}
	return team, nil
}

func (r *teamRepository) HasPendingTeam(ctx context.Context, leaderID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM team_rescue WHERE leader_id = $1 AND team_status = $2)`

	var exists bool
	err := r.db.QueryRow(ctx, query, leaderID, models.TeamStatusPending).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check pending team: %w", err)
	}
	return exists, nil
}

func (r *teamRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.TeamStatus) (*models.Team, error) {
	query := `UPDATE team_rescue SET team_status = $1 WHERE id = $2 RETURNING ` + teamColumns

	team, err := scanTeam(r.db.QueryRow(ctx, query, status, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update team status: %w", err)
	}
	return team, nil
}

func (r *teamRepository) Update(ctx context.Context, team *models.Team) error {
	query := `
		UPDATE team_rescue
		SET name = $1, province = $2, district = $3, commune = $4, size_member = $5,
			organizational = $6, phone = $7
		WHERE id = $8`

	result, err := r.db.Exec(ctx, query,
		team.Name,
		team.Province,
		team.District,
		team.Commune,
		team.SizeMember,
		team.Organizational,
		team.Phone,
		team.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update team: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *teamRepository) List(ctx context.Context, limit, offset int) ([]*models.Team, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM team_rescue`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count teams: %w", err)
	}

	query := `SELECT ` + teamColumns + ` FROM team_rescue ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list teams: %w", err)
	}
	defer rows.Close()

	var teams []*models.Team
	for rows.Next() {
		team, err := scanTeam(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, team)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating teams: %w", err)
	}
	return teams, total, nil
}

// Ensure teamRepository implements TeamRepository at compile time.
var _ TeamRepository = (*teamRepository)(nil)
