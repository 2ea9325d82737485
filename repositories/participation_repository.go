package repositories

import (
	"context"
	"database/sql"

	"github.com/coach-plus/backend/models"
)

type ParticipationRepository interface {
	// SetWillAttend upserts the intent field of the (user, event)
	// participation, creating the record when absent.
	SetWillAttend(ctx context.Context, eventID, userID int, willAttend bool) (*models.Participation, error)
	// SetDidAttend upserts the recorded-attendance field.
	SetDidAttend(ctx context.Context, eventID, userID int, didAttend bool) (*models.Participation, error)
	ListByEventID(ctx context.Context, eventID int) ([]*models.Participation, error)
	Count(ctx context.Context) (int, error)
}

type postgresParticipationRepository struct {
	db *sql.DB
}

func NewPostgresParticipationRepository(db *sql.DB) ParticipationRepository {
	return &postgresParticipationRepository{db: db}
}

func (r *postgresParticipationRepository) SetWillAttend(ctx context.Context, eventID, userID int, willAttend bool) (*models.Participation, error) {
	query := `
		INSERT INTO participations (event_id, user_id, will_attend)
		VALUES ($1, $2, $3)
		ON CONFLICT (event_id, user_id) DO UPDATE SET will_attend = EXCLUDED.will_attend
		RETURNING id, user_id, event_id, will_attend, did_attend`

	return r.upsert(ctx, query, eventID, userID, willAttend)
}

func (r *postgresParticipationRepository) SetDidAttend(ctx context.Context, eventID, userID int, didAttend bool) (*models.Participation, error) {
	query := `
		INSERT INTO participations (event_id, user_id, did_attend)
		VALUES ($1, $2, $3)
		ON CONFLICT (event_id, user_id) DO UPDATE SET did_attend = EXCLUDED.did_attend
		RETURNING id, user_id, event_id, will_attend, did_attend`

	return r.upsert(ctx, query, eventID, userID, didAttend)
}

func (r *postgresParticipationRepository) upsert(ctx context.Context, query string, eventID, userID int, value bool) (*models.Participation, error) {
	participation := &models.Participation{}
	err := r.db.QueryRowContext(ctx, query, eventID, userID, value).Scan(
		&participation.ID,
		&participation.UserID,
		&participation.EventID,
		&participation.WillAttend,
		&participation.DidAttend,
	)
	if err != nil {
		return nil, err
	}
	return participation, nil
}

func (r *postgresParticipationRepository) ListByEventID(ctx context.Context, eventID int) ([]*models.Participation, error) {
	query := `
		SELECT id, user_id, event_id, will_attend, did_attend
		FROM participations
		WHERE event_id = $1`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	participations := make([]*models.Participation, 0)
	for rows.Next() {
		participation := &models.Participation{}
		if scanErr := rows.Scan(
			&participation.ID,
			&participation.UserID,
			&participation.EventID,
			&participation.WillAttend,
			&participation.DidAttend,
		); scanErr != nil {
			return nil, scanErr
		}
		participations = append(participations, participation)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return participations, nil
}

func (r *postgresParticipationRepository) Count(ctx context.Context) (int, error) {
	return countRows(ctx, r.db, `SELECT COUNT(*) FROM participations`)
}
