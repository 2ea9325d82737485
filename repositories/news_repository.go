package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/coach-plus/backend/models"
	"github.com/lib/pq"
)

var (
	ErrNewsNotFound     = errors.New("news not found")
	ErrNewsEventInvalid = errors.New("news event conflict or invalid")
)

type NewsRepository interface {
	Create(ctx context.Context, news *models.News) error
	// ListByEventID returns the announcements of an event newest first,
	// with Author populated as a reduced user.
	ListByEventID(ctx context.Context, eventID int) ([]*models.News, error)
	Delete(ctx context.Context, id int) error
	Count(ctx context.Context) (int, error)
}

type postgresNewsRepository struct {
	db *sql.DB
}

func NewPostgresNewsRepository(db *sql.DB) NewsRepository {
	return &postgresNewsRepository{db: db}
}

func (r *postgresNewsRepository) Create(ctx context.Context, news *models.News) error {
	query := `
		INSERT INTO news (event_id, author_id, title, text)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created`

	err := r.db.QueryRowContext(ctx, query,
		news.EventID,
		news.AuthorID,
		news.Title,
		news.Text,
	).Scan(&news.ID, &news.Created)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			if pqErr.Constraint == "news_event_id_fkey" {
				return ErrNewsEventInvalid
			}
		}
		return err
	}
	return nil
}

func (r *postgresNewsRepository) ListByEventID(ctx context.Context, eventID int) ([]*models.News, error) {
	query := `
		SELECT n.id, n.event_id, n.author_id, n.title, n.text, n.created,
		       u.id, u.firstname, u.lastname, u.image_key
		FROM news n
		JOIN users u ON n.author_id = u.id
		WHERE n.event_id = $1
		ORDER BY n.created DESC`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	newsList := make([]*models.News, 0)
	for rows.Next() {
		news := &models.News{}
		author := &models.ReducedUser{}
		var imageKey sql.NullString
		if scanErr := rows.Scan(
			&news.ID,
			&news.EventID,
			&news.AuthorID,
			&news.Title,
			&news.Text,
			&news.Created,
			&author.ID,
			&author.Firstname,
			&author.Lastname,
			&imageKey,
		); scanErr != nil {
			return nil, scanErr
		}
		if imageKey.Valid {
			author.ImageKey = &imageKey.String
		}
		news.Author = author
		newsList = append(newsList, news)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return newsList, nil
}

func (r *postgresNewsRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM news WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrNewsNotFound)
}

func (r *postgresNewsRepository) Count(ctx context.Context) (int, error) {
	return countRows(ctx, r.db, `SELECT COUNT(*) FROM news`)
}
