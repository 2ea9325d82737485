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
	ErrMembershipNotFound = errors.New("membership not found")
	// ErrMembershipConflict means the (user, team) pair already has a
	// membership; backed by the unique index, so concurrent joins cannot
	// both slip through the prior existence check.
	ErrMembershipConflict    = errors.New("membership already exists")
	ErrMembershipTeamInvalid = errors.New("membership team conflict or invalid")
	ErrMembershipUserInvalid = errors.New("membership user conflict or invalid")
)

type MembershipRepository interface {
	Create(ctx context.Context, exec SQLExecutor, membership *models.Membership) error
	GetByID(ctx context.Context, id int) (*models.Membership, error)
	GetByUserAndTeam(ctx context.Context, userID, teamID int) (*models.Membership, error)
	// ListByTeamID returns the memberships of a team with User populated.
	ListByTeamID(ctx context.Context, teamID int) ([]*models.Membership, error)
	// ListByUserID returns the memberships of a user with Team populated.
	ListByUserID(ctx context.Context, userID int) ([]*models.Membership, error)
	CountByTeamID(ctx context.Context, teamID int) (int, error)
	CountByTeamAndRole(ctx context.Context, teamID int, role models.MembershipRole) (int, error)
	UpdateRole(ctx context.Context, id int, role models.MembershipRole) error
	Delete(ctx context.Context, id int) error
	DeleteByUserAndTeam(ctx context.Context, userID, teamID int) error
	DeleteByTeamID(ctx context.Context, exec SQLExecutor, teamID int) error
	Count(ctx context.Context) (int, error)
}

type postgresMembershipRepository struct {
	db *sql.DB
}

func NewPostgresMembershipRepository(db *sql.DB) MembershipRepository {
	return &postgresMembershipRepository{db: db}
}

func (r *postgresMembershipRepository) executor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresMembershipRepository) Create(ctx context.Context, exec SQLExecutor, membership *models.Membership) error {
	query := `
		INSERT INTO memberships (user_id, team_id, role)
		VALUES ($1, $2, $3)
		RETURNING id`

	err := r.executor(exec).QueryRowContext(ctx, query,
		membership.UserID,
		membership.TeamID,
		membership.Role,
	).Scan(&membership.ID)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				if pqErr.Constraint == "memberships_user_id_team_id_key" {
					return ErrMembershipConflict
				}
			case "23503":
				if pqErr.Constraint == "memberships_team_id_fkey" {
					return ErrMembershipTeamInvalid
				}
				if pqErr.Constraint == "memberships_user_id_fkey" {
					return ErrMembershipUserInvalid
				}
			}
		}
		return err
	}
	return nil
}

func (r *postgresMembershipRepository) GetByID(ctx context.Context, id int) (*models.Membership, error) {
	query := `
		SELECT m.id, m.user_id, m.team_id, m.role, t.id, t.name, t.is_public, t.image_key
		FROM memberships m
		JOIN teams t ON m.team_id = t.id
		WHERE m.id = $1`

	membership := &models.Membership{}
	team := &models.Team{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&membership.ID,
		&membership.UserID,
		&membership.TeamID,
		&membership.Role,
		&team.ID,
		&team.Name,
		&team.IsPublic,
		&team.ImageKey,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMembershipNotFound
		}
		return nil, err
	}
	membership.Team = team
	return membership, nil
}

func (r *postgresMembershipRepository) GetByUserAndTeam(ctx context.Context, userID, teamID int) (*models.Membership, error) {
	query := `
		SELECT id, user_id, team_id, role
		FROM memberships
		WHERE user_id = $1 AND team_id = $2`

	membership := &models.Membership{}
	err := r.db.QueryRowContext(ctx, query, userID, teamID).Scan(
		&membership.ID,
		&membership.UserID,
		&membership.TeamID,
		&membership.Role,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMembershipNotFound
		}
		return nil, err
	}
	return membership, nil
}

func (r *postgresMembershipRepository) ListByTeamID(ctx context.Context, teamID int) ([]*models.Membership, error) {
	query := `
		SELECT m.id, m.user_id, m.team_id, m.role,
		       u.id, u.email, u.password_hash, u.firstname, u.lastname, u.email_verified, u.registered, u.image_key
		FROM memberships m
		JOIN users u ON m.user_id = u.id
		WHERE m.team_id = $1`

	rows, err := r.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	memberships := make([]*models.Membership, 0)
	for rows.Next() {
		membership := &models.Membership{}
		user := &models.User{}
		if scanErr := rows.Scan(
			&membership.ID,
			&membership.UserID,
			&membership.TeamID,
			&membership.Role,
			&user.ID,
			&user.Email,
			&user.PasswordHash,
			&user.Firstname,
			&user.Lastname,
			&user.EmailVerified,
			&user.Registered,
			&user.ImageKey,
		); scanErr != nil {
			return nil, scanErr
		}
		membership.User = user
		memberships = append(memberships, membership)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return memberships, nil
}

func (r *postgresMembershipRepository) ListByUserID(ctx context.Context, userID int) ([]*models.Membership, error) {
	query := `
		SELECT m.id, m.user_id, m.team_id, m.role, t.id, t.name, t.is_public, t.image_key
		FROM memberships m
		JOIN teams t ON m.team_id = t.id
		WHERE m.user_id = $1`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	memberships := make([]*models.Membership, 0)
	for rows.Next() {
		membership := &models.Membership{}
		team := &models.Team{}
		if scanErr := rows.Scan(
			&membership.ID,
			&membership.UserID,
			&membership.TeamID,
			&membership.Role,
			&team.ID,
			&team.Name,
			&team.IsPublic,
			&team.ImageKey,
		); scanErr != nil {
			return nil, scanErr
		}
		membership.Team = team
		memberships = append(memberships, membership)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return memberships, nil
}

func (r *postgresMembershipRepository) CountByTeamID(ctx context.Context, teamID int) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memberships WHERE team_id = $1`, teamID).Scan(&n)
	return n, err
}

func (r *postgresMembershipRepository) CountByTeamAndRole(ctx context.Context, teamID int, role models.MembershipRole) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM memberships WHERE team_id = $1 AND role = $2`,
		teamID, role,
	).Scan(&n)
	return n, err
}

func (r *postgresMembershipRepository) UpdateRole(ctx context.Context, id int, role models.MembershipRole) error {
	result, err := r.db.ExecContext(ctx, `UPDATE memberships SET role = $1 WHERE id = $2`, role, id)
	if err != nil {
		return fmt.Errorf("failed to update role of membership %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrMembershipNotFound)
}

func (r *postgresMembershipRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM memberships WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMembershipNotFound)
}

func (r *postgresMembershipRepository) DeleteByUserAndTeam(ctx context.Context, userID, teamID int) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM memberships WHERE user_id = $1 AND team_id = $2`,
		userID, teamID,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMembershipNotFound)
}

func (r *postgresMembershipRepository) DeleteByTeamID(ctx context.Context, exec SQLExecutor, teamID int) error {
	// Deleting zero rows is fine here, a team can be memberless only in
	// the middle of its own deletion.
	_, err := r.executor(exec).ExecContext(ctx, `DELETE FROM memberships WHERE team_id = $1`, teamID)
	return err
}

func (r *postgresMembershipRepository) Count(ctx context.Context) (int, error) {
	return countRows(ctx, r.db, `SELECT COUNT(*) FROM memberships`)
}
