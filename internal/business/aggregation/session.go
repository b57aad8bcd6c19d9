// Package aggregation joins the cached accounts of a user into a single
// filtered, time-sorted event stream and keeps it synchronised with the
// store through a live subscription.
package aggregation

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Palpa-inc/smartcal/internal/business/cache"
	"github.com/Palpa-inc/smartcal/internal/model"
	"go.uber.org/zap"
)

var jst = time.FixedZone("JST", 9*60*60)

type calendarCache interface {
	Read(ctx context.Context, userID string) (map[string]*model.AccountCache, error)
	WriteAccount(ctx context.Context, userID, email string, cache *model.AccountCache) error
	AppendEvent(ctx context.Context, userID, email string, event *model.Event) error
	Subscribe(ctx context.Context, userID string, cb func(map[string]*model.AccountCache)) (func(), error)
}

type upstreamService interface {
	ListPrimaryAndEvents(ctx context.Context, sessionID string) (*model.PrimaryListing, error)
	InsertEvent(ctx context.Context, sessionID, calendarID string, event *model.Event) (*model.Event, error)
}

// Calendar is the session-facing projection of a linked account: the
// persisted metadata plus the session-local visibility flag.
type Calendar struct {
	model.CalendarInfo
	IsShown bool
}

type slotKey struct {
	day  string
	hour int
}

// Session is the per-user in-memory consumer of the calendar cache. It is
// safe for concurrent use; the subscription delivery goroutine and view
// readers synchronise on the snapshot lock.
type Session struct {
	logger   *zap.SugaredLogger
	cache    calendarCache
	upstream upstreamService

	userID    string
	sessionID string
	email     string

	mu           sync.RWMutex
	date         time.Time
	hideKeywords map[string]struct{}
	accounts     map[string]*model.AccountCache
	calendars    []*Calendar
	allEvents    []*model.Event
	index        map[slotKey][]*model.Event
	release      func()
}

func NewSession(
	logger *zap.SugaredLogger,
	calendarCache calendarCache,
	upstream upstreamService,
	userID, sessionID, email string,
	hideKeywords []string,
) *Session {
	s := &Session{
		logger:       logger,
		cache:        calendarCache,
		upstream:     upstream,
		userID:       userID,
		sessionID:    sessionID,
		email:        email,
		hideKeywords: map[string]struct{}{},
		accounts:     map[string]*model.AccountCache{},
		index:        map[slotKey][]*model.Event{},
		date:         time.Now().In(jst),
	}
	for _, k := range hideKeywords {
		s.hideKeywords[k] = struct{}{}
	}

	return s
}

// Load performs the initial read of the cache, registering the session
// account on first use and refreshing stale data where the session
// credential allows it. Stale accounts belonging to other credentials are
// skipped; refreshing them would need a token this session does not hold.
func (s *Session) Load(ctx context.Context) error {
	data, err := s.cache.Read(ctx, s.userID)
	if err != nil {
		return fmt.Errorf("read cache: %w", err)
	}

	switch {
	case len(data) == 0 || data[s.email] == nil:
		if err := s.registerAccount(ctx); err != nil {
			return fmt.Errorf("register account: %w", err)
		}

		if data, err = s.cache.Read(ctx, s.userID); err != nil {
			return fmt.Errorf("re-read cache: %w", err)
		}

	default:
		refreshed := false
		for email, account := range data {
			if !cache.IsStale(account.LastUpdated) {
				continue
			}

			if email != s.email {
				s.logger.Debugw("skipping stale account without credential",
					"account", email,
					"session_account", s.email,
				)
				continue
			}

			if err := s.refreshAccount(ctx, account.CalendarInfo); err != nil {
				return fmt.Errorf("refresh account %q: %w", email, err)
			}
			refreshed = true
		}

		if refreshed {
			if data, err = s.cache.Read(ctx, s.userID); err != nil {
				return fmt.Errorf("re-read cache: %w", err)
			}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.applySnapshot(data)

	return nil
}

// Start installs the live cache subscription. Every push replaces the
// snapshot wholesale; the per-email visibility flags survive pushes.
func (s *Session) Start(ctx context.Context) error {
	release, err := s.cache.Subscribe(ctx, s.userID, func(data map[string]*model.AccountCache) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.applySnapshot(data)
	})
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	s.release = release
	return nil
}

// Close releases the cache subscription.
func (s *Session) Close() {
	if s.release != nil {
		s.release()
		s.release = nil
	}
}

// registerAccount does the first fetch for the session account and creates
// its cache document.
func (s *Session) registerAccount(ctx context.Context) error {
	listing, err := s.upstream.ListPrimaryAndEvents(ctx, s.sessionID)
	if err != nil {
		return err
	}

	info := model.CalendarInfo{ID: s.email, Email: s.email}
	if listing.Primary != nil {
		info = *listing.Primary
	}

	return s.cache.WriteAccount(ctx, s.userID, s.email, &model.AccountCache{
		Events:       listing.Events,
		CalendarInfo: info,
		LastUpdated:  time.Now(),
	})
}

// refreshAccount refetches the session account's events, keeping the stored
// calendar metadata so colour and display-name edits survive refreshes.
func (s *Session) refreshAccount(ctx context.Context, info model.CalendarInfo) error {
	listing, err := s.upstream.ListPrimaryAndEvents(ctx, s.sessionID)
	if err != nil {
		return err
	}

	return s.cache.WriteAccount(ctx, s.userID, s.email, &model.AccountCache{
		Events:       listing.Events,
		CalendarInfo: info,
		LastUpdated:  time.Now(),
	})
}

// CreateEvent creates the event upstream and appends the stored version to
// the cache. A failed upstream call leaves the cache untouched; the
// subscription then delivers the append back to the view.
func (s *Session) CreateEvent(ctx context.Context, event *model.Event) (*model.Event, error) {
	created, err := s.upstream.InsertEvent(ctx, s.sessionID, event.CalendarID, event)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	created.CalendarID = event.CalendarID

	if err := s.cache.AppendEvent(ctx, s.userID, event.CalendarID, created); err != nil {
		return nil, fmt.Errorf("append event: %w", err)
	}

	return created, nil
}

// ToggleCalendar flips the session-local visibility of one account. The
// cache is not touched.
func (s *Session) ToggleCalendar(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.calendars {
		if c.Email == email {
			c.IsShown = !c.IsShown
		}
	}
	s.rebuild()
}

// SetHideKeywords replaces the exact-match filter set.
func (s *Session) SetHideKeywords(keywords []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.hideKeywords = make(map[string]struct{}, len(keywords))
	for _, k := range keywords {
		s.hideKeywords[k] = struct{}{}
	}
	s.rebuild()
}

// SetDate moves the session's focused date, which anchors the weekly views.
func (s *Session) SetDate(date time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.date = date.In(jst)
}

func (s *Session) Date() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.date
}

// Calendars returns the current calendar list with visibility flags.
func (s *Session) Calendars() []*Calendar {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := make([]*Calendar, len(s.calendars))
	for i, c := range s.calendars {
		copied := *c
		res[i] = &copied
	}

	return res
}

// applySnapshot replaces the account snapshot and reconciles the calendar
// list, keeping the IsShown flag of calendars that were already known.
// Callers hold the write lock.
func (s *Session) applySnapshot(data map[string]*model.AccountCache) {
	s.accounts = data

	shown := make(map[string]bool, len(s.calendars))
	for _, c := range s.calendars {
		shown[c.Email] = c.IsShown
	}

	emails := sortedEmails(data)
	calendars := make([]*Calendar, 0, len(emails))
	for _, email := range emails {
		info := data[email].CalendarInfo
		info.ID = email
		info.Email = email

		isShown := true
		if prev, ok := shown[email]; ok {
			isShown = prev
		}

		calendars = append(calendars, &Calendar{
			CalendarInfo: info,
			IsShown:      isShown,
		})
	}
	s.calendars = calendars

	s.rebuild()
}

func sortedEmails(data map[string]*model.AccountCache) []string {
	emails := make([]string, 0, len(data))
	for email := range data {
		emails = append(emails, email)
	}
	sort.Strings(emails)

	return emails
}
