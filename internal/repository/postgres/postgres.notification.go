// FilePath: internal/repository/postgres/postgres.notification.go
package postgres

import (
	"context"

	"github.com/terrasense/hub/internal/database"
	"github.com/terrasense/hub/internal/errors"
	"github.com/terrasense/hub/internal/models"
)

type NotificationSettingRepo struct {
	PostgresBaseRepo
}

func NewNotificationSettingRepository(db database.DB) *NotificationSettingRepo {
	repo := &PostgresBaseRepo{db: db}
	return &NotificationSettingRepo{PostgresBaseRepo: *repo}
}

func (r *NotificationSettingRepo) ListByUser(ctx context.Context, userID string) ([]*models.NotificationSetting, error) {
	settings := []*models.NotificationSetting{}
	query := `SELECT * FROM notification_settings WHERE user_id = $1 ORDER BY reading_type`

	err := r.db.GetDB().SelectContext(ctx, &settings, query, userID)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to list notification settings", err)
	}
	return settings, nil
}

func (r *NotificationSettingRepo) Upsert(ctx context.Context, setting *models.NotificationSetting) error {
	query := `
		INSERT INTO notification_settings (
			id, user_id, reading_type, enabled, min_value, max_value, created_at, updated_at
		) VALUES (
			:id, :user_id, :reading_type, :enabled, :min_value, :max_value, :created_at, :updated_at
		)
		ON CONFLICT (user_id, reading_type) DO UPDATE SET
			enabled = EXCLUDED.enabled,
			min_value = EXCLUDED.min_value,
			max_value = EXCLUDED.max_value,
			updated_at = EXCLUDED.updated_at`

	_, err := r.db.GetDB().NamedExecContext(ctx, query, setting)
	if err != nil {
		return errors.NewDatabaseError("failed to upsert notification setting", err)
	}
	return nil
}

func (r *NotificationSettingRepo) Delete(ctx context.Context, userID, readingType string) error {
	query := `DELETE FROM notification_settings WHERE user_id = $1 AND reading_type = $2`

	result, err := r.db.GetDB().ExecContext(ctx, query, userID, readingType)
	if err != nil {
		return errors.NewDatabaseError("failed to delete notification setting", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.NewDatabaseError("failed to get rows affected", err)
	}

	if rows == 0 {
		return errors.NewNotFoundError("notification setting not found", nil)
	}

	return nil
}

type NotificationRepo struct {
	PostgresBaseRepo
}

func NewNotificationRepository(db database.DB) *NotificationRepo {
	repo := &PostgresBaseRepo{db: db}
	return &NotificationRepo{PostgresBaseRepo: *repo}
}

func (r *NotificationRepo) Create(ctx context.Context, notification *models.Notification) error {
	query := `
		INSERT INTO notifications (
			id, user_id, device_id, reading_type, message, value, read, created_at
		) VALUES (
			:id, :user_id, :device_id, :reading_type, :message, :value, :read, :created_at
		)`

	_, err := r.db.GetDB().NamedExecContext(ctx, query, notification)
	if err != nil {
		return errors.NewDatabaseError("failed to create notification", err)
	}
	return nil
}

func (r *NotificationRepo) ListByUser(ctx context.Context, userID string, offset, limit int) ([]*models.Notification, error) {
	notifications := []*models.Notification{}
	query := `
		SELECT * FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	err := r.db.GetDB().SelectContext(ctx, &notifications, query, userID, limit, offset)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to list notifications", err)
	}
	return notifications, nil
}

func (r *NotificationRepo) MarkRead(ctx context.Context, userID, id string) error {
	query := `UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2`

	result, err := r.db.GetDB().ExecContext(ctx, query, id, userID)
	if err != nil {
		return errors.NewDatabaseError("failed to mark notification read", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.NewDatabaseError("failed to get rows affected", err)
	}

	if rows == 0 {
		return errors.NewNotFoundError("notification not found", nil)
	}

	return nil
}
