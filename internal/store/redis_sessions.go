// ABOUTME: Redis-backed SessionStore for deployments that keep sessions out of SQLite
// ABOUTME: Session records expire by key TTL; accounts are still read from the AccountStore

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSessionStore keeps user sessions in Redis.
//
// Keys:
//
//	<prefix>session:<token>            JSON record, TTL = time until expiry
//	<prefix>account:<id>:sessions      set of tokens owned by the account
type RedisSessionStore struct {
	client   *redis.Client
	accounts AccountStore
	prefix   string
	logger   *slog.Logger
	now      func() time.Time
}

var _ SessionStore = (*RedisSessionStore)(nil)

type redisSessionRecord struct {
	AccountID string    `json:"account_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewRedisSessionStore creates a session store on client. Accounts attached to
// found sessions are loaded from accounts.
func NewRedisSessionStore(client *redis.Client, accounts AccountStore, prefix string) *RedisSessionStore {
	return &RedisSessionStore{
		client:   client,
		accounts: accounts,
		prefix:   prefix,
		logger:   slog.Default().With("component", "redis-sessions"),
		now:      time.Now,
	}
}

func (s *RedisSessionStore) sessionKey(id string) string {
	return s.prefix + "session:" + id
}

func (s *RedisSessionStore) accountKey(accountID string) string {
	return s.prefix + "account:" + accountID + ":sessions"
}

// CreateSession stores a session whose account must already exist.
func (s *RedisSessionStore) CreateSession(ctx context.Context, session *Session) error {
	if session.CreatedAt.IsZero() {
		session.CreatedAt = s.now().UTC()
	}

	ttl := session.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return fmt.Errorf("session already expired at %s", session.ExpiresAt.Format(time.RFC3339))
	}

	if _, err := s.accounts.GetAccount(ctx, session.AccountID, IncludeNone); err != nil {
		return fmt.Errorf("checking session account: %w", err)
	}

	encoded, err := json.Marshal(redisSessionRecord{
		AccountID: session.AccountID,
		CreatedAt: session.CreatedAt.UTC(),
		ExpiresAt: session.ExpiresAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.sessionKey(session.ID), encoded, ttl)
		pipe.SAdd(ctx, s.accountKey(session.AccountID), session.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("storing session: %w", err)
	}

	s.logger.Debug("created session", "account_id", session.AccountID)
	return nil
}

// FindSession loads a live session and attaches its account.
// A session whose account has been removed is reported as not found.
func (s *RedisSessionStore) FindSession(ctx context.Context, id string, include Include) (*Session, error) {
	data, err := s.client.Get(ctx, s.sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}

	var rec redisSessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	if !rec.ExpiresAt.After(s.now()) {
		return nil, ErrSessionNotFound
	}

	account, err := s.accounts.GetAccount(ctx, rec.AccountID, include)
	if errors.Is(err, ErrAccountNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading session account: %w", err)
	}

	return &Session{
		ID:        id,
		AccountID: rec.AccountID,
		CreatedAt: rec.CreatedAt,
		ExpiresAt: rec.ExpiresAt,
		Account:   account,
	}, nil
}

// DeleteSession deletes a session. Deleting an unknown session is not an error.
func (s *RedisSessionStore) DeleteSession(ctx context.Context, id string) error {
	data, err := s.client.Get(ctx, s.sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading session: %w", err)
	}

	var rec redisSessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("decoding session: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.sessionKey(id))
		pipe.SRem(ctx, s.accountKey(rec.AccountID), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// DeleteAccountSessions deletes every session owned by an account.
func (s *RedisSessionStore) DeleteAccountSessions(ctx context.Context, accountID string) error {
	tokens, err := s.client.SMembers(ctx, s.accountKey(accountID)).Result()
	if err != nil {
		return fmt.Errorf("listing account sessions: %w", err)
	}

	keys := make([]string, 0, len(tokens)+1)
	for _, token := range tokens {
		keys = append(keys, s.sessionKey(token))
	}
	keys = append(keys, s.accountKey(accountID))

	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("deleting account sessions: %w", err)
	}

	s.logger.Debug("deleted account sessions", "account_id", accountID, "count", len(tokens))
	return nil
}

// DeleteExpiredSessions prunes index entries whose session keys have expired.
// The session records themselves are removed by Redis TTL.
func (s *RedisSessionStore) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	var pruned int64

	iter := s.client.Scan(ctx, 0, s.prefix+"account:*:sessions", 100).Iterator()
	for iter.Next(ctx) {
		indexKey := iter.Val()

		tokens, err := s.client.SMembers(ctx, indexKey).Result()
		if err != nil {
			return pruned, fmt.Errorf("listing %s: %w", indexKey, err)
		}

		for _, token := range tokens {
			n, err := s.client.Exists(ctx, s.sessionKey(token)).Result()
			if err != nil {
				return pruned, fmt.Errorf("checking session: %w", err)
			}
			if n > 0 {
				continue
			}
			if err := s.client.SRem(ctx, indexKey, token).Err(); err != nil {
				return pruned, fmt.Errorf("pruning session index: %w", err)
			}
			pruned++
		}
	}
	if err := iter.Err(); err != nil {
		return pruned, fmt.Errorf("scanning session indexes: %w", err)
	}

	if pruned > 0 {
		s.logger.Info("pruned expired sessions", "count", pruned)
	}
	return pruned, nil
}

// Ping checks connectivity to Redis.
func (s *RedisSessionStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("pinging redis at %s: %w", s.client.Options().Addr, err)
	}
	return nil
}
