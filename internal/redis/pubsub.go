package redis

import (
	"context"
	"fmt"
	"sync"

	"github.com/gomodule/redigo/redis"
	"go.uber.org/zap"
)

const updatesChannelPrefix = "calendar_updates:"

// CalendarUpdates broadcasts calendar cache changes between writers and
// per-user subscribers over redis pub/sub. The payload carries no data;
// subscribers are expected to re-read the full snapshot.
type CalendarUpdates struct {
	pool   *redis.Pool
	logger *zap.SugaredLogger
}

func NewCalendarUpdates(pool *redis.Pool, logger *zap.SugaredLogger) *CalendarUpdates {
	return &CalendarUpdates{
		pool:   pool,
		logger: logger,
	}
}

// Publish notifies subscribers of userID that one of their account
// documents changed.
func (c *CalendarUpdates) Publish(ctx context.Context, userID string) error {
	conn, err := c.pool.GetContext(ctx)
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.Do("PUBLISH", updatesChannelPrefix+userID, "1"); err != nil {
		return fmt.Errorf("PUBLISH: %w", err)
	}

	return nil
}

// Subscribe invokes handler on every published change for userID until the
// returned release func is called. The handler runs on the receive
// goroutine; it must not block indefinitely.
func (c *CalendarUpdates) Subscribe(ctx context.Context, userID string, handler func()) (func(), error) {
	conn, err := c.pool.DialContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	psc := redis.PubSubConn{Conn: conn}
	if err := psc.Subscribe(updatesChannelPrefix + userID); err != nil {
		psc.Close()
		return nil, fmt.Errorf("SUBSCRIBE: %w", err)
	}

	var once sync.Once
	done := make(chan struct{})

	go func() {
		for {
			switch v := psc.Receive().(type) {
			case redis.Message:
				handler()
			case error:
				select {
				case <-done:
					// released; the closed connection error is expected
				default:
					c.logger.Errorw("calendar updates subscription", "user_id", userID, "err", v)
				}
				return
			}
		}
	}()

	release := func() {
		once.Do(func() {
			close(done)
			if err := psc.Unsubscribe(); err != nil {
				c.logger.Debugw("unsubscribe", "user_id", userID, "err", err)
			}
			psc.Close()
		})
	}

	return release, nil
}
