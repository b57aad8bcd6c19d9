package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Palpa-inc/smartcal/internal/model"
	"github.com/gomodule/redigo/redis"
	"go.uber.org/zap"
)

const sessionPrefix = "sessions:"

// SessionRepository stores signed-in sessions, including the per-session
// upstream TokenBundle, with a TTL.
type SessionRepository struct {
	pool   *redis.Pool
	logger *zap.SugaredLogger
	ttl    time.Duration
}

func NewSessionRepository(pool *redis.Pool, logger *zap.SugaredLogger, ttl time.Duration) *SessionRepository {
	return &SessionRepository{
		pool:   pool,
		logger: logger,
		ttl:    ttl,
	}
}

// Add stores a new session. Returns model.ErrAlreadyExists when the id is
// taken, so callers can regenerate.
func (r *SessionRepository) Add(ctx context.Context, id string, session *model.Session) error {
	conn, err := r.pool.GetContext(ctx)
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	res, err := redis.String(conn.Do("SET", sessionPrefix+id, data, "EX", int(r.ttl.Seconds()), "NX"))
	if err != nil {
		if err == redis.ErrNil {
			return model.ErrAlreadyExists
		}
		return fmt.Errorf("SET: %w", err)
	}
	if res != "OK" {
		return model.ErrAlreadyExists
	}

	return nil
}

// Get returns the session or model.ErrNoRecord when it expired or never
// existed.
func (r *SessionRepository) Get(ctx context.Context, id string) (*model.Session, error) {
	conn, err := r.pool.GetContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	data, err := redis.Bytes(conn.Do("GET", sessionPrefix+id))
	if err != nil {
		if err == redis.ErrNil {
			return nil, model.ErrNoRecord
		}
		return nil, fmt.Errorf("GET: %w", err)
	}

	session := &model.Session{}
	if err := json.Unmarshal(data, session); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}

	return session, nil
}

// Update replaces the stored session keeping the remaining TTL. Used by the
// token manager after a refresh exchange.
func (r *SessionRepository) Update(ctx context.Context, id string, session *model.Session) error {
	conn, err := r.pool.GetContext(ctx)
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	_, err = conn.Do("SET", sessionPrefix+id, data, "KEEPTTL", "XX")
	if err != nil {
		return fmt.Errorf("SET: %w", err)
	}

	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.GetContext(ctx)
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	deleted, err := redis.Int(conn.Do("DEL", sessionPrefix+id))
	if err != nil {
		return fmt.Errorf("DEL: %w", err)
	}

	if deleted == 0 {
		return model.ErrNoRecord
	}

	return nil
}
