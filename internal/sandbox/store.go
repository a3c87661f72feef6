package sandbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrUnknownToken is returned for tokens that were never issued, expired or were revoked.
var ErrUnknownToken = errors.New("unknown token")

// Principal identifies the application/user pair a token was issued to.
type Principal struct {
	AppSlug string `json:"app_slug"`
	UserID  string `json:"user_id"`
}

// Store keeps sandbox tokens, user data and submissions in Redis.
type Store struct {
	redis    *redis.Client
	tokenTTL time.Duration
	logger   *zap.Logger
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(addr, password string, db int, tokenTTL time.Duration, logger *zap.Logger) (*Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return NewStore(rdb, tokenTTL, logger), nil
}

// NewStore wraps an existing Redis client. A zero tokenTTL means tokens never expire.
func NewStore(rdb *redis.Client, tokenTTL time.Duration, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{redis: rdb, tokenTTL: tokenTTL, logger: logger}
}

func tokenKey(token string) string { return "appstore:token:" + token }

func dataKey(p Principal) string {
	return fmt.Sprintf("appstore:data:%s:%s", p.AppSlug, p.UserID)
}

func submissionKey(p Principal) string {
	return fmt.Sprintf("appstore:submission:%s:%s", p.AppSlug, p.UserID)
}

// IssueToken creates a fresh opaque token bound to p.
func (s *Store) IssueToken(ctx context.Context, p Principal) (string, error) {
	token := uuid.NewString()
	b, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	if err := s.redis.Set(ctx, tokenKey(token), b, s.tokenTTL).Err(); err != nil {
		return "", fmt.Errorf("store token: %w", err)
	}
	return token, nil
}

// LookupToken resolves token to its principal.
func (s *Store) LookupToken(ctx context.Context, token string) (Principal, error) {
	if token == "" {
		return Principal{}, ErrUnknownToken
	}
	val, err := s.redis.Get(ctx, tokenKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return Principal{}, ErrUnknownToken
	}
	if err != nil {
		return Principal{}, fmt.Errorf("lookup token: %w", err)
	}

	var p Principal
	if err := json.Unmarshal([]byte(val), &p); err != nil {
		return Principal{}, fmt.Errorf("decode token record: %w", err)
	}
	return p, nil
}

// RevokeToken invalidates token immediately.
func (s *Store) RevokeToken(ctx context.Context, token string) error {
	return s.redis.Del(ctx, tokenKey(token)).Err()
}

// GetValue returns the stored value for key; ok is false when unset.
func (s *Store) GetValue(ctx context.Context, p Principal, key string) (value string, ok bool, err error) {
	value, err = s.redis.HGet(ctx, dataKey(p), key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get value: %w", err)
	}
	return value, true, nil
}

// SetValue stores key=value in the principal's datastore.
func (s *Store) SetValue(ctx context.Context, p Principal, key, value string) error {
	if err := s.redis.HSet(ctx, dataKey(p), key, value).Err(); err != nil {
		return fmt.Errorf("set value: %w", err)
	}
	return nil
}

// SaveSubmission replaces the principal's latest submission.
func (s *Store) SaveSubmission(ctx context.Context, p Principal, results json.RawMessage) error {
	if len(results) == 0 {
		results = json.RawMessage("null")
	}
	if err := s.redis.Set(ctx, submissionKey(p), []byte(results), 0).Err(); err != nil {
		return fmt.Errorf("save submission: %w", err)
	}
	s.logger.Info("sandbox.submission_saved",
		zap.String("app", p.AppSlug),
		zap.String("user", p.UserID))
	return nil
}

// Submission returns the principal's latest submission.
func (s *Store) Submission(ctx context.Context, p Principal) (json.RawMessage, error) {
	val, err := s.redis.Get(ctx, submissionKey(p)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get submission: %w", err)
	}
	return val, nil
}

// HealthCheck verifies Redis connectivity.
func (s *Store) HealthCheck(ctx context.Context) error {
	if s.redis == nil {
		return fmt.Errorf("redis not initialized")
	}
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close releases the Redis connection.
func (s *Store) Close() error {
	if s.redis == nil {
		return nil
	}
	return s.redis.Close()
}
