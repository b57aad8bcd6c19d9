// Package cache is the authoritative per-user store of fetched calendar
// data and the broadcast substrate for live view updates. Documents are
// keyed by (userId, email); subscribers always receive full snapshots,
// never deltas.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Palpa-inc/smartcal/internal/database"
	"github.com/Palpa-inc/smartcal/internal/model"
	"go.uber.org/zap"
)

// staleTTL is how old an account document may get before callers should
// refetch it from upstream.
const staleTTL = time.Hour

type accountsRepository interface {
	GetAccounts(ctx context.Context, q database.Queryable, userID string) (map[string]*model.AccountCache, error)
	GetAccount(ctx context.Context, q database.Queryable, userID, email string) (*model.AccountCache, error)
	WriteAccount(ctx context.Context, q database.Queryable, userID, email string, cache *model.AccountCache) error
	UpdateCalendarInfo(ctx context.Context, q database.Queryable, userID, email string, info model.CalendarInfo) error
}

type updatesBroadcaster interface {
	Publish(ctx context.Context, userID string) error
	Subscribe(ctx context.Context, userID string, handler func()) (func(), error)
}

type Service struct {
	logger   *zap.SugaredLogger
	db       database.Queryable
	accounts accountsRepository
	updates  updatesBroadcaster
}

func NewService(logger *zap.SugaredLogger, db database.Queryable, accounts accountsRepository, updates updatesBroadcaster) *Service {
	return &Service{
		logger:   logger,
		db:       db,
		accounts: accounts,
		updates:  updates,
	}
}

// Read returns the current snapshot of all linked accounts of a user; an
// empty map when there are none.
func (s *Service) Read(ctx context.Context, userID string) (map[string]*model.AccountCache, error) {
	data, err := s.accounts.GetAccounts(ctx, s.db, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrStoreUnavailable, err)
	}

	return data, nil
}

// WriteAccount fully replaces one account document and notifies
// subscribers. lastUpdated comes stamped by the caller.
func (s *Service) WriteAccount(ctx context.Context, userID, email string, cache *model.AccountCache) error {
	if err := s.accounts.WriteAccount(ctx, s.db, userID, email, cache); err != nil {
		return fmt.Errorf("%w: %v", model.ErrStoreUnavailable, err)
	}

	s.publish(ctx, userID)
	return nil
}

// MergeCalendarInfo applies a colour or display-name patch without touching
// the events or the freshness stamp.
func (s *Service) MergeCalendarInfo(ctx context.Context, userID, email string, patch model.CalendarInfoPatch) error {
	account, err := s.accounts.GetAccount(ctx, s.db, userID, email)
	if err != nil {
		if errors.Is(err, model.ErrNoRecord) {
			return err
		}
		return fmt.Errorf("%w: %v", model.ErrStoreUnavailable, err)
	}

	info := account.CalendarInfo
	if patch.DisplayName != nil {
		info.DisplayName = *patch.DisplayName
	}
	if patch.Color != nil {
		info.Color = patch.Color
	}

	if err := s.accounts.UpdateCalendarInfo(ctx, s.db, userID, email, info); err != nil {
		if errors.Is(err, model.ErrNoRecord) {
			return err
		}
		return fmt.Errorf("%w: %v", model.ErrStoreUnavailable, err)
	}

	s.publish(ctx, userID)
	return nil
}

// AppendEvent reads the account document, appends the event and writes the
// document back with a fresh lastUpdated. Deliberately not transactional:
// concurrent appends by one user are rare and document-level last-writer-wins
// is accepted.
func (s *Service) AppendEvent(ctx context.Context, userID, email string, event *model.Event) error {
	account, err := s.accounts.GetAccount(ctx, s.db, userID, email)
	if err != nil {
		if errors.Is(err, model.ErrNoRecord) {
			return err
		}
		return fmt.Errorf("%w: %v", model.ErrStoreUnavailable, err)
	}

	account.Events = append(account.Events, event)
	account.LastUpdated = time.Now()

	return s.WriteAccount(ctx, userID, email, account)
}

// Subscribe delivers the full per-email snapshot to cb whenever any account
// document of the user changes. The returned release func must be called on
// teardown. Snapshot read failures are logged and skipped so the subscriber
// keeps its last known state.
func (s *Service) Subscribe(ctx context.Context, userID string, cb func(map[string]*model.AccountCache)) (func(), error) {
	release, err := s.updates.Subscribe(ctx, userID, func() {
		snapshot, err := s.Read(ctx, userID)
		if err != nil {
			s.logger.Errorw("failed to read snapshot for subscriber", "user_id", userID, "err", err)
			return
		}

		cb(snapshot)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrStoreUnavailable, err)
	}

	return release, nil
}

func (s *Service) publish(ctx context.Context, userID string) {
	if err := s.updates.Publish(ctx, userID); err != nil {
		s.logger.Errorw("failed to publish cache update", "user_id", userID, "err", err)
	}
}

// IsStale reports whether an account document is old enough to warrant a
// refetch. The cache itself never applies this; callers do.
func IsStale(lastUpdated time.Time) bool {
	return time.Since(lastUpdated) > staleTTL
}
