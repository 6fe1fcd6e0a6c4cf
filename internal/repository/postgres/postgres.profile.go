// FilePath: internal/repository/postgres/postgres.profile.go
package postgres

import (
	"context"
	"database/sql"

	"github.com/terrasense/hub/internal/database"
	"github.com/terrasense/hub/internal/errors"
	"github.com/terrasense/hub/internal/models"
)

type ProfileRepo struct {
	PostgresBaseRepo
}

func NewProfileRepository(db database.DB) *ProfileRepo {
	repo := &PostgresBaseRepo{db: db}
	return &ProfileRepo{PostgresBaseRepo: *repo}
}

// Get returns the profile for a user. Soft-deleted profiles are reported as
// not found so callers fall back to free-tier behavior.
func (r *ProfileRepo) Get(ctx context.Context, userID string) (*models.UserProfile, error) {
	profile := &models.UserProfile{}
	query := `SELECT * FROM profiles WHERE id = $1 AND deleted_at IS NULL`

	err := r.db.GetDB().GetContext(ctx, profile, query, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFoundError("profile not found", err)
		}
		return nil, errors.NewDatabaseError("failed to get profile", err)
	}
	return profile, nil
}

func (r *ProfileRepo) Upsert(ctx context.Context, profile *models.UserProfile) error {
	query := `
		INSERT INTO profiles (id, tier, deleted_at, created_at, updated_at)
		VALUES (:id, :tier, :deleted_at, :created_at, :updated_at)
		ON CONFLICT (id) DO UPDATE SET
			tier = EXCLUDED.tier,
			deleted_at = EXCLUDED.deleted_at,
			updated_at = EXCLUDED.updated_at`

	_, err := r.db.GetDB().NamedExecContext(ctx, query, profile)
	if err != nil {
		return errors.NewDatabaseError("failed to upsert profile", err)
	}
	return nil
}
