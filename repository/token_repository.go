// file: repository/token_repository.go

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"jwt-auth-api/logger"
	"jwt-auth-api/model"
	"time"

	"github.com/sirupsen/logrus"
)

// IRefreshTokenRepository defines the contract for the refresh token ledger.
type IRefreshTokenRepository interface {
	// Save inserts record when its ID is zero and upserts on ID otherwise.
	// A set RevokedAt is never cleared by a later Save.
	Save(ctx context.Context, record *model.RefreshTokenRecord) error
	// FindByHash returns ErrNotFound when no record carries hash.
	FindByHash(ctx context.Context, hash string) (*model.RefreshTokenRecord, error)
	// Revoke atomically marks an unrevoked record as revoked at the given time.
	// It reports false if the record had already been revoked.
	Revoke(ctx context.Context, record *model.RefreshTokenRecord, at time.Time) (bool, error)
	// SweepExpired deletes every record whose expiry is before now.
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
}

// RefreshTokenRepository implements IRefreshTokenRepository on PostgreSQL.
type RefreshTokenRepository struct {
	DB *sql.DB
}

// NewRefreshTokenRepository creates a new RefreshTokenRepository.
func NewRefreshTokenRepository(db *sql.DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{DB: db}
}

func (r *RefreshTokenRepository) Save(ctx context.Context, record *model.RefreshTokenRecord) error {
	log := logger.Log.WithFields(logrus.Fields{
		"record_id":  record.ID,
		"user_id":    record.UserID,
		"expires_at": record.ExpiresAt,
	})

	var err error
	if record.ID == 0 {
		log.Debug("Executing query to create a new refresh token")
		query := `INSERT INTO refresh_tokens (token_hash, user_id, expires_at, revoked_at) VALUES ($1, $2, $3, $4) RETURNING id, created_at`
		err = r.DB.QueryRowContext(ctx, query, record.TokenHash, record.UserID, record.ExpiresAt, nullTime(record.RevokedAt)).
			Scan(&record.ID, &record.CreatedAt)
	} else {
		log.Debug("Executing query to upsert a refresh token")
		query := `INSERT INTO refresh_tokens (id, token_hash, user_id, expires_at, revoked_at) VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE SET
				user_id = EXCLUDED.user_id,
				expires_at = EXCLUDED.expires_at,
				revoked_at = COALESCE(refresh_tokens.revoked_at, EXCLUDED.revoked_at)
			RETURNING created_at, revoked_at`
		var revokedAt sql.NullTime
		err = r.DB.QueryRowContext(ctx, query, record.ID, record.TokenHash, record.UserID, record.ExpiresAt, nullTime(record.RevokedAt)).
			Scan(&record.CreatedAt, &revokedAt)
		if err == nil {
			record.RevokedAt = timePtr(revokedAt)
		}
	}

	if err != nil {
		if isUniqueViolation(err) {
			log.Warn("Refresh token hash collides with an existing record")
			return ErrConflict
		}
		log.WithError(err).Error("Failed to execute save refresh token query")
		return fmt.Errorf("save refresh token: %w", err)
	}
	return nil
}

// FindByHash retrieves a refresh token record by its hashed value.
func (r *RefreshTokenRepository) FindByHash(ctx context.Context, hash string) (*model.RefreshTokenRecord, error) {
	record := &model.RefreshTokenRecord{}
	var revokedAt sql.NullTime

	query := `SELECT id, token_hash, user_id, expires_at, created_at, revoked_at FROM refresh_tokens WHERE token_hash = $1`
	err := r.DB.QueryRowContext(ctx, query, hash).
		Scan(&record.ID, &record.TokenHash, &record.UserID, &record.ExpiresAt, &record.CreatedAt, &revokedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		logger.Log.WithError(err).Error("Failed to execute get refresh token by hash query")
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	record.RevokedAt = timePtr(revokedAt)
	return record, nil
}

func (r *RefreshTokenRepository) Revoke(ctx context.Context, record *model.RefreshTokenRecord, at time.Time) (bool, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"record_id": record.ID,
		"user_id":   record.UserID,
	})

	query := `UPDATE refresh_tokens SET revoked_at = $2 WHERE id = $1 AND revoked_at IS NULL`
	res, err := r.DB.ExecContext(ctx, query, record.ID, at)
	if err != nil {
		log.WithError(err).Error("Failed to execute revoke refresh token query")
		return false, fmt.Errorf("revoke refresh token: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("revoke refresh token: %w", err)
	}
	if n == 0 {
		log.Info("Refresh token was already revoked")
		return false, nil
	}

	record.RevokedAt = &at
	return true, nil
}

func (r *RefreshTokenRepository) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE expires_at < $1`, now)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to execute sweep refresh tokens query")
		return 0, fmt.Errorf("sweep refresh tokens: %w", err)
	}
	return res.RowsAffected()
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
