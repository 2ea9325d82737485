package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/coach-plus/backend/models"
	"github.com/lib/pq"
)

var (
	ErrInvitationNotFound      = errors.New("invitation not found")
	ErrInvitationTokenConflict = errors.New("invitation token conflict")
	ErrInvitationTeamInvalid   = errors.New("invitation team conflict or invalid")
)

type InvitationRepository interface {
	Create(ctx context.Context, invitation *models.Invitation) error
	// GetByToken returns the invitation with Team populated. Expiry is
	// judged in the service layer, not here.
	GetByToken(ctx context.Context, token string) (*models.Invitation, error)
	// DeleteExpired removes all invitations past their valid_until and
	// returns how many were removed.
	DeleteExpired(ctx context.Context) (int64, error)
	Count(ctx context.Context) (int, error)
}

type postgresInvitationRepository struct {
	db *sql.DB
}

func NewPostgresInvitationRepository(db *sql.DB) InvitationRepository {
	return &postgresInvitationRepository{db: db}
}

func (r *postgresInvitationRepository) Create(ctx context.Context, invitation *models.Invitation) error {
	query := `
		INSERT INTO invitations (team_id, token, valid_until)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		invitation.TeamID,
		invitation.Token,
		invitation.ValidUntil,
	).Scan(&invitation.ID, &invitation.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				if pqErr.Constraint == "invitations_token_key" {
					return ErrInvitationTokenConflict
				}
			case "23503":
				if pqErr.Constraint == "invitations_team_id_fkey" {
					return ErrInvitationTeamInvalid
				}
			}
		}
		return err
	}
	return nil
}

func (r *postgresInvitationRepository) GetByToken(ctx context.Context, token string) (*models.Invitation, error) {
	query := `
		SELECT i.id, i.team_id, i.token, i.valid_until, i.created_at,
		       t.id, t.name, t.is_public, t.image_key
		FROM invitations i
		JOIN teams t ON i.team_id = t.id
		WHERE i.token = $1`

	invitation := &models.Invitation{}
	team := &models.Team{}
	err := r.db.QueryRowContext(ctx, query, token).Scan(
		&invitation.ID,
		&invitation.TeamID,
		&invitation.Token,
		&invitation.ValidUntil,
		&invitation.CreatedAt,
		&team.ID,
		&team.Name,
		&team.IsPublic,
		&team.ImageKey,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvitationNotFound
		}
		return nil, err
	}
	invitation.Team = team
	return invitation, nil
}

func (r *postgresInvitationRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM invitations WHERE valid_until <= NOW()`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *postgresInvitationRepository) Count(ctx context.Context) (int, error) {
	return countRows(ctx, r.db, `SELECT COUNT(*) FROM invitations`)
}
