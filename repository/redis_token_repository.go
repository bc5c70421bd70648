// file: repository/redis_token_repository.go

package repository

import (
	"context"
	"errors"
	"fmt"
	"jwt-auth-api/logger"
	"jwt-auth-api/model"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Each record lives in a hash keyed by its token hash; a sorted set indexes
// records by expiry for sweeping. Mutations run as Lua scripts so the
// ownership check and the revoke transition are atomic.
var (
	saveRecordScript = redis.NewScript(`
local owner = redis.call('HGET', KEYS[1], 'id')
if owner and owner ~= ARGV[1] then
	return {'conflict'}
end
if not owner then
	redis.call('HSET', KEYS[1], 'created_at', ARGV[4])
end
redis.call('HSET', KEYS[1], 'id', ARGV[1], 'user_id', ARGV[2], 'expires_at', ARGV[3])
if ARGV[5] ~= '' then
	redis.call('HSETNX', KEYS[1], 'revoked_at', ARGV[5])
end
redis.call('ZADD', KEYS[2], ARGV[7], ARGV[6])
return {'ok', redis.call('HGET', KEYS[1], 'created_at'), redis.call('HGET', KEYS[1], 'revoked_at') or ''}
`)

	revokeRecordScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return -1
end
return redis.call('HSETNX', KEYS[1], 'revoked_at', ARGV[1])
`)

	sweepRecordsScript = redis.NewScript(`
local hashes = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', '(' .. ARGV[1])
for _, h in ipairs(hashes) do
	redis.call('DEL', ARGV[2] .. h)
	redis.call('ZREM', KEYS[1], h)
end
return #hashes
`)
)

const defaultRedisLedgerPrefix = "refresh"

// RedisRefreshTokenRepository implements IRefreshTokenRepository on Redis.
type RedisRefreshTokenRepository struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisRefreshTokenRepository(client redis.UniversalClient, prefix string) *RedisRefreshTokenRepository {
	if prefix == "" {
		prefix = defaultRedisLedgerPrefix
	}
	return &RedisRefreshTokenRepository{client: client, prefix: prefix}
}

func (r *RedisRefreshTokenRepository) tokenKeyPrefix() string { return r.prefix + ":token:" }
func (r *RedisRefreshTokenRepository) tokenKey(hash string) string {
	return r.tokenKeyPrefix() + hash
}
func (r *RedisRefreshTokenRepository) expiryKey() string { return r.prefix + ":expiry" }
func (r *RedisRefreshTokenRepository) seqKey() string    { return r.prefix + ":seq" }

func (r *RedisRefreshTokenRepository) Save(ctx context.Context, record *model.RefreshTokenRecord) error {
	log := logger.Log.WithFields(logrus.Fields{
		"record_id":  record.ID,
		"user_id":    record.UserID,
		"expires_at": record.ExpiresAt,
	})

	if record.ID == 0 {
		id, err := r.client.Incr(ctx, r.seqKey()).Result()
		if err != nil {
			log.WithError(err).Error("Failed to allocate refresh token id")
			return fmt.Errorf("save refresh token: %w", err)
		}
		record.ID = id
	}

	revokedAt := ""
	if record.RevokedAt != nil {
		revokedAt = formatNanos(*record.RevokedAt)
	}

	res, err := saveRecordScript.Run(ctx, r.client,
		[]string{r.tokenKey(record.TokenHash), r.expiryKey()},
		record.ID,
		record.UserID,
		formatNanos(record.ExpiresAt),
		formatNanos(time.Now()),
		revokedAt,
		record.TokenHash,
		record.ExpiresAt.UnixMilli(),
	).StringSlice()
	if err != nil {
		log.WithError(err).Error("Failed to execute save refresh token script")
		return fmt.Errorf("save refresh token: %w", err)
	}
	if len(res) == 0 || res[0] == "conflict" {
		log.Warn("Refresh token hash collides with an existing record")
		return ErrConflict
	}

	if record.CreatedAt, err = parseNanos(res[1]); err != nil {
		return fmt.Errorf("save refresh token: %w", err)
	}
	if res[2] != "" {
		t, err := parseNanos(res[2])
		if err != nil {
			return fmt.Errorf("save refresh token: %w", err)
		}
		record.RevokedAt = &t
	}
	return nil
}

func (r *RedisRefreshTokenRepository) FindByHash(ctx context.Context, hash string) (*model.RefreshTokenRecord, error) {
	fields, err := r.client.HGetAll(ctx, r.tokenKey(hash)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		logger.Log.WithError(err).Error("Failed to read refresh token hash")
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}

	record, err := decodeRecord(hash, fields)
	if err != nil {
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	return record, nil
}

func (r *RedisRefreshTokenRepository) Revoke(ctx context.Context, record *model.RefreshTokenRecord, at time.Time) (bool, error) {
	n, err := revokeRecordScript.Run(ctx, r.client, []string{r.tokenKey(record.TokenHash)}, formatNanos(at)).Int64()
	if err != nil {
		logger.Log.WithError(err).WithField("record_id", record.ID).Error("Failed to execute revoke refresh token script")
		return false, fmt.Errorf("revoke refresh token: %w", err)
	}

	switch n {
	case -1:
		return false, ErrNotFound
	case 0:
		logger.Log.WithField("record_id", record.ID).Info("Refresh token was already revoked")
		return false, nil
	}
	record.RevokedAt = &at
	return true, nil
}

func (r *RedisRefreshTokenRepository) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	n, err := sweepRecordsScript.Run(ctx, r.client, []string{r.expiryKey()}, now.UnixMilli(), r.tokenKeyPrefix()).Int64()
	if err != nil {
		logger.Log.WithError(err).Error("Failed to execute sweep refresh tokens script")
		return 0, fmt.Errorf("sweep refresh tokens: %w", err)
	}
	return n, nil
}

func decodeRecord(hash string, fields map[string]string) (*model.RefreshTokenRecord, error) {
	id, err := strconv.ParseInt(fields["id"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("decode id: %w", err)
	}
	userID, err := strconv.ParseInt(fields["user_id"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("decode user_id: %w", err)
	}
	expiresAt, err := parseNanos(fields["expires_at"])
	if err != nil {
		return nil, fmt.Errorf("decode expires_at: %w", err)
	}
	createdAt, err := parseNanos(fields["created_at"])
	if err != nil {
		return nil, fmt.Errorf("decode created_at: %w", err)
	}

	record := &model.RefreshTokenRecord{
		ID:        id,
		TokenHash: hash,
		UserID:    userID,
		ExpiresAt: expiresAt,
		CreatedAt: createdAt,
	}
	if v, ok := fields["revoked_at"]; ok && v != "" {
		revokedAt, err := parseNanos(v)
		if err != nil {
			return nil, fmt.Errorf("decode revoked_at: %w", err)
		}
		record.RevokedAt = &revokedAt
	}
	return record, nil
}

func formatNanos(t time.Time) string {
	return strconv.FormatInt(t.UnixNano(), 10)
}

func parseNanos(s string) (time.Time, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(0, n), nil
}
