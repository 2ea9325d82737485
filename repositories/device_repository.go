package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/coach-plus/backend/models"
	"github.com/lib/pq"
)

var (
	ErrDeviceNotFound    = errors.New("device not found")
	ErrDeviceUserInvalid = errors.New("device user conflict or invalid")
)

type DeviceRepository interface {
	// Upsert registers a device by its stable device id, rotating the
	// push id and system on re-registration.
	Upsert(ctx context.Context, device *models.Device) error
	ListByUserIDs(ctx context.Context, userIDs []int) ([]*models.Device, error)
	Count(ctx context.Context) (int, error)
}

type postgresDeviceRepository struct {
	db *sql.DB
}

func NewPostgresDeviceRepository(db *sql.DB) DeviceRepository {
	return &postgresDeviceRepository{db: db}
}

func (r *postgresDeviceRepository) Upsert(ctx context.Context, device *models.Device) error {
	query := `
		INSERT INTO devices (user_id, device_id, push_id, system)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, device_id) DO UPDATE SET push_id = EXCLUDED.push_id, system = EXCLUDED.system
		RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		device.UserID,
		device.DeviceID,
		device.PushID,
		device.System,
	).Scan(&device.ID)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			if pqErr.Constraint == "devices_user_id_fkey" {
				return ErrDeviceUserInvalid
			}
		}
		return err
	}
	return nil
}

func (r *postgresDeviceRepository) ListByUserIDs(ctx context.Context, userIDs []int) ([]*models.Device, error) {
	if len(userIDs) == 0 {
		return []*models.Device{}, nil
	}

	query := `
		SELECT id, user_id, device_id, push_id, system
		FROM devices
		WHERE user_id = ANY($1)`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(userIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	devices := make([]*models.Device, 0)
	for rows.Next() {
		device := &models.Device{}
		if scanErr := rows.Scan(
			&device.ID,
			&device.UserID,
			&device.DeviceID,
			&device.PushID,
			&device.System,
		); scanErr != nil {
			return nil, scanErr
		}
		devices = append(devices, device)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return devices, nil
}

func (r *postgresDeviceRepository) Count(ctx context.Context) (int, error) {
	return countRows(ctx, r.db, `SELECT COUNT(*) FROM devices`)
}
