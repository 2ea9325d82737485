package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/coach-plus/backend/models"
	"github.com/lib/pq"
)

var (
	ErrVerificationNotFound    = errors.New("verification not found")
	ErrVerificationUserInvalid = errors.New("verification user conflict or invalid")
)

type VerificationRepository interface {
	Create(ctx context.Context, verification *models.Verification) error
	// GetByToken returns the verification with User populated.
	GetByToken(ctx context.Context, token string) (*models.Verification, error)
	Delete(ctx context.Context, id int) error
	Count(ctx context.Context) (int, error)
}

type postgresVerificationRepository struct {
	db *sql.DB
}

func NewPostgresVerificationRepository(db *sql.DB) VerificationRepository {
	return &postgresVerificationRepository{db: db}
}

func (r *postgresVerificationRepository) Create(ctx context.Context, verification *models.Verification) error {
	query := `
		INSERT INTO verifications (user_id, token)
		VALUES ($1, $2)
		RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		verification.UserID,
		verification.Token,
	).Scan(&verification.ID)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			if pqErr.Constraint == "verifications_user_id_fkey" {
				return ErrVerificationUserInvalid
			}
		}
		return err
	}
	return nil
}

func (r *postgresVerificationRepository) GetByToken(ctx context.Context, token string) (*models.Verification, error) {
	query := `
		SELECT v.id, v.user_id, v.token,
		       u.id, u.email, u.password_hash, u.firstname, u.lastname, u.email_verified, u.registered, u.image_key
		FROM verifications v
		JOIN users u ON v.user_id = u.id
		WHERE v.token = $1`

	verification := &models.Verification{}
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, token).Scan(
		&verification.ID,
		&verification.UserID,
		&verification.Token,
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Firstname,
		&user.Lastname,
		&user.EmailVerified,
		&user.Registered,
		&user.ImageKey,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrVerificationNotFound
		}
		return nil, err
	}
	verification.User = user
	return verification, nil
}

func (r *postgresVerificationRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM verifications WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrVerificationNotFound)
}

func (r *postgresVerificationRepository) Count(ctx context.Context) (int, error) {
	return countRows(ctx, r.db, `SELECT COUNT(*) FROM verifications`)
}
