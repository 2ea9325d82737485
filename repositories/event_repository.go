package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/coach-plus/backend/models"
	"github.com/lib/pq"
)

var (
	ErrEventNotFound    = errors.New("event not found")
	ErrEventTeamInvalid = errors.New("event team conflict or invalid")
)

type EventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	// GetByIDAndTeam scopes the lookup by team so a stale or cross-team
	// id reads as not found instead of leaking another team's event.
	GetByIDAndTeam(ctx context.Context, id, teamID int) (*models.Event, error)
	ListByTeamID(ctx context.Context, teamID int) ([]*models.Event, error)
	Update(ctx context.Context, event *models.Event) error
	Delete(ctx context.Context, id, teamID int) error
	Count(ctx context.Context) (int, error)
}

type postgresEventRepository struct {
	db *sql.DB
}

func NewPostgresEventRepository(db *sql.DB) EventRepository {
	return &postgresEventRepository{db: db}
}

const eventColumns = `id, team_id, name, description, start, "end", location_name, location_lat, location_long`

func scanEvent(row interface{ Scan(...interface{}) error }, event *models.Event) error {
	var locName sql.NullString
	var locLat, locLong sql.NullFloat64

	err := row.Scan(
		&event.ID,
		&event.TeamID,
		&event.Name,
		&event.Description,
		&event.Start,
		&event.End,
		&locName,
		&locLat,
		&locLong,
	)
	if err != nil {
		return err
	}
	if locName.Valid {
		event.Location = &models.Location{
			Name: locName.String,
			Lat:  locLat.Float64,
			Long: locLong.Float64,
		}
	}
	return nil
}

func locationFields(event *models.Event) (interface{}, interface{}, interface{}) {
	if event.Location == nil {
		return nil, nil, nil
	}
	return event.Location.Name, event.Location.Lat, event.Location.Long
}

func (r *postgresEventRepository) Create(ctx context.Context, event *models.Event) error {
	query := `
		INSERT INTO events (team_id, name, description, start, "end", location_name, location_lat, location_long)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	locName, locLat, locLong := locationFields(event)
	err := r.db.QueryRowContext(ctx, query,
		event.TeamID,
		event.Name,
		event.Description,
		event.Start,
		event.End,
		locName,
		locLat,
		locLong,
	).Scan(&event.ID)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			if pqErr.Constraint == "events_team_id_fkey" {
				return ErrEventTeamInvalid
			}
		}
		return err
	}
	return nil
}

func (r *postgresEventRepository) GetByIDAndTeam(ctx context.Context, id, teamID int) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1 AND team_id = $2`

	event := &models.Event{}
	err := scanEvent(r.db.QueryRowContext(ctx, query, id, teamID), event)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return event, nil
}

func (r *postgresEventRepository) ListByTeamID(ctx context.Context, teamID int) ([]*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE team_id = $1 ORDER BY start ASC`

	rows, err := r.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*models.Event, 0)
	for rows.Next() {
		event := &models.Event{}
		if scanErr := scanEvent(rows, event); scanErr != nil {
			return nil, scanErr
		}
		events = append(events, event)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

func (r *postgresEventRepository) Update(ctx context.Context, event *models.Event) error {
	query := `
		UPDATE events
		SET name = $1, description = $2, start = $3, "end" = $4,
		    location_name = $5, location_lat = $6, location_long = $7
		WHERE id = $8 AND team_id = $9`

	locName, locLat, locLong := locationFields(event)
	result, err := r.db.ExecContext(ctx, query,
		event.Name,
		event.Description,
		event.Start,
		event.End,
		locName,
		locLat,
		locLong,
		event.ID,
		event.TeamID,
	)
	if err != nil {
		return fmt.Errorf("failed to update event %d: %w", event.ID, err)
	}
	return checkAffectedRows(result, ErrEventNotFound)
}

func (r *postgresEventRepository) Delete(ctx context.Context, id, teamID int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1 AND team_id = $2`, id, teamID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrEventNotFound)
}

func (r *postgresEventRepository) Count(ctx context.Context) (int, error) {
	return countRows(ctx, r.db, `SELECT COUNT(*) FROM events`)
}
