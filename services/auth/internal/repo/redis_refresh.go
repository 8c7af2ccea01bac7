package repo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/microshop/platform/pkg/apperr"
	"github.com/microshop/platform/services/auth/internal/domain"
	"github.com/microshop/platform/services/auth/internal/models"
)

const (
	statusOK int64 = iota
	statusNotFound
	statusExpired
	statusRevoked
)

// KEYS[1] record key
// ARGV[1] now (unix), ARGV[2] replaced_by (may be empty)
const revokeScript = `
if redis.call('EXISTS', KEYS[1]) == 0 then
  return {1}
end
if redis.call('HGET', KEYS[1], 'revoked') == '1' then
  return {3}
end
local exp = tonumber(redis.call('HGET', KEYS[1], 'expires_at'))
if not exp or exp <= tonumber(ARGV[1]) then
  return {2}
end
redis.call('HSET', KEYS[1], 'revoked', '1', 'revoked_at', ARGV[1], 'replaced_by', ARGV[2])
return {0, redis.call('HGET', KEYS[1], 'account_id')}
`

// KEYS[1] old record key, KEYS[2] new record key
// ARGV[1] now (unix), ARGV[2] new token hash, ARGV[3] new expires_at (unix)
const rotateScript = `
if redis.call('EXISTS', KEYS[1]) == 0 then
  return {1}
end
if redis.call('HGET', KEYS[1], 'revoked') == '1' then
  return {3}
end
local exp = tonumber(redis.call('HGET', KEYS[1], 'expires_at'))
if not exp or exp <= tonumber(ARGV[1]) then
  return {2}
end
local account = redis.call('HGET', KEYS[1], 'account_id')
redis.call('HSET', KEYS[1], 'revoked', '1', 'revoked_at', ARGV[1], 'replaced_by', ARGV[2])
redis.call('HSET', KEYS[2], 'account_id', account, 'expires_at', ARGV[3], 'revoked', '0', 'created_at', ARGV[1])
return {0, account}
`

var (
	revokeLua = redis.NewScript(revokeScript)
	rotateLua = redis.NewScript(rotateScript)
)

// RedisRefreshRepo keeps refresh credentials as Redis hashes under
// refresh:<sha256>. Revoke and rotate run as Lua scripts so the
// check-and-set happens inside Redis.
type RedisRefreshRepo struct {
	Client redis.UniversalClient
	TTL    time.Duration
	Prefix string
	Now    func() time.Time
}

func NewRedisRefreshRepo(client redis.UniversalClient, ttl time.Duration) *RedisRefreshRepo {
	return &RedisRefreshRepo{Client: client, TTL: ttl, Prefix: "refresh:"}
}

func (r *RedisRefreshRepo) now() time.Time {
	if r.Now != nil {
		return r.Now().UTC()
	}
	return time.Now().UTC()
}

func (r *RedisRefreshRepo) key(hash string) string {
	return r.Prefix + hash
}

func (r *RedisRefreshRepo) Create(ctx context.Context, accountID uuid.UUID) (models.IssuedRefresh, error) {
	token, err := domain.NewRefreshToken()
	if err != nil {
		return models.IssuedRefresh{}, apperr.Infra(fmt.Errorf("generate refresh token: %w", err))
	}
	now := r.now()
	exp := now.Add(r.TTL).Unix()

	err = r.Client.HSet(ctx, r.key(domain.HashToken(token)), map[string]any{
		"account_id": accountID.String(),
		"expires_at": exp,
		"revoked":    "0",
		"created_at": now.Unix(),
	}).Err()
	if err != nil {
		return models.IssuedRefresh{}, apperr.Infra(err)
	}
	return models.IssuedRefresh{Token: token, AccountID: accountID, ExpiresAt: time.Unix(exp, 0).UTC()}, nil
}

func (r *RedisRefreshRepo) FindValid(ctx context.Context, token string) (*models.RefreshToken, error) {
	hash := domain.HashToken(token)
	fields, err := r.Client.HGetAll(ctx, r.key(hash)).Result()
	if err != nil {
		return nil, apperr.Infra(err)
	}
	if len(fields) == 0 {
		return nil, domain.ErrRefreshNotFound
	}

	rec, err := decodeRecord(hash, fields)
	if err != nil {
		return nil, apperr.Infra(err)
	}
	switch {
	case rec.Revoked:
		return nil, domain.ErrRefreshRevoked
	case rec.ExpiresAt <= r.now().Unix():
		return nil, domain.ErrRefreshExpired
	}
	return rec, nil
}

func (r *RedisRefreshRepo) Revoke(ctx context.Context, token string) error {
	_, err := r.run(ctx, revokeLua, []string{r.key(domain.HashToken(token))}, r.now().Unix(), "")
	return err
}

func (r *RedisRefreshRepo) Rotate(ctx context.Context, token string) (models.IssuedRefresh, error) {
	next, err := domain.NewRefreshToken()
	if err != nil {
		return models.IssuedRefresh{}, apperr.Infra(fmt.Errorf("generate refresh token: %w", err))
	}
	nextHash := domain.HashToken(next)
	now := r.now()
	exp := now.Add(r.TTL).Unix()

	keys := []string{r.key(domain.HashToken(token)), r.key(nextHash)}
	accountID, err := r.run(ctx, rotateLua, keys, now.Unix(), nextHash, exp)
	if err != nil {
		return models.IssuedRefresh{}, err
	}
	return models.IssuedRefresh{Token: next, AccountID: accountID, ExpiresAt: time.Unix(exp, 0).UTC()}, nil
}

func (r *RedisRefreshRepo) run(ctx context.Context, script *redis.Script, keys []string, args ...any) (uuid.UUID, error) {
	result, err := script.Run(ctx, r.Client, keys, args...).Result()
	if err != nil {
		return uuid.Nil, apperr.Infra(err)
	}

	parts, ok := result.([]any)
	if !ok || len(parts) == 0 {
		return uuid.Nil, apperr.Infra(errors.New("invalid refresh script response"))
	}
	code, ok := parts[0].(int64)
	if !ok {
		return uuid.Nil, apperr.Infra(errors.New("invalid refresh script status"))
	}

	switch code {
	case statusNotFound:
		return uuid.Nil, domain.ErrRefreshNotFound
	case statusExpired:
		return uuid.Nil, domain.ErrRefreshExpired
	case statusRevoked:
		return uuid.Nil, domain.ErrRefreshRevoked
	case statusOK:
		if len(parts) < 2 {
			return uuid.Nil, apperr.Infra(errors.New("missing account id in refresh script response"))
		}
		s, _ := parts[1].(string)
		id, err := uuid.Parse(s)
		if err != nil {
			return uuid.Nil, apperr.Infra(fmt.Errorf("bad account id in refresh record: %w", err))
		}
		return id, nil
	default:
		return uuid.Nil, apperr.Infra(fmt.Errorf("unknown refresh script status %d", code))
	}
}

func decodeRecord(hash string, f map[string]string) (*models.RefreshToken, error) {
	accountID, err := uuid.Parse(f["account_id"])
	if err != nil {
		return nil, fmt.Errorf("bad account id: %w", err)
	}
	exp, err := strconv.ParseInt(f["expires_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("bad expires_at: %w", err)
	}
	created, _ := strconv.ParseInt(f["created_at"], 10, 64)

	rec := &models.RefreshToken{
		TokenHash:  hash,
		AccountID:  accountID,
		ExpiresAt:  exp,
		Revoked:    f["revoked"] == "1",
		ReplacedBy: f["replaced_by"],
		CreatedAt:  time.Unix(created, 0).UTC(),
	}
	if v, ok := f["revoked_at"]; ok && v != "" {
		if sec, err := strconv.ParseInt(v, 10, 64); err == nil {
			t := time.Unix(sec, 0).UTC()
			rec.RevokedAt = &t
		}
	}
	return rec, nil
}
