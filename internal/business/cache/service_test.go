package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Palpa-inc/smartcal/internal/database"
	"github.com/Palpa-inc/smartcal/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeAccounts struct {
	data    map[string]map[string]*model.AccountCache
	readErr error
}

func (f *fakeAccounts) GetAccounts(_ context.Context, _ database.Queryable, userID string) (map[string]*model.AccountCache, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}

	snapshot := map[string]*model.AccountCache{}
	for email, account := range f.data[userID] {
		copied := *account
		snapshot[email] = &copied
	}
	return snapshot, nil
}

func (f *fakeAccounts) GetAccount(_ context.Context, _ database.Queryable, userID, email string) (*model.AccountCache, error) {
	account, ok := f.data[userID][email]
	if !ok {
		return nil, model.ErrNoRecord
	}

	copied := *account
	return &copied, nil
}

func (f *fakeAccounts) WriteAccount(_ context.Context, _ database.Queryable, userID, email string, cache *model.AccountCache) error {
	if f.data[userID] == nil {
		f.data[userID] = map[string]*model.AccountCache{}
	}

	copied := *cache
	f.data[userID][email] = &copied
	return nil
}

func (f *fakeAccounts) UpdateCalendarInfo(_ context.Context, _ database.Queryable, userID, email string, info model.CalendarInfo) error {
	account, ok := f.data[userID][email]
	if !ok {
		return model.ErrNoRecord
	}

	account.CalendarInfo = info
	return nil
}

type fakeBroadcaster struct {
	published []string
	handlers  map[string]func()
	released  bool
}

func (f *fakeBroadcaster) Publish(_ context.Context, userID string) error {
	f.published = append(f.published, userID)
	if handler, ok := f.handlers[userID]; ok {
		handler()
	}
	return nil
}

func (f *fakeBroadcaster) Subscribe(_ context.Context, userID string, handler func()) (func(), error) {
	if f.handlers == nil {
		f.handlers = map[string]func(){}
	}
	f.handlers[userID] = handler

	return func() { f.released = true }, nil
}

func newTestService(accounts *fakeAccounts, updates *fakeBroadcaster) *Service {
	return NewService(zap.NewNop().Sugar(), nil, accounts, updates)
}

func TestIsStale(t *testing.T) {
	assert.False(t, IsStale(time.Now().Add(-59*time.Minute)))
	assert.True(t, IsStale(time.Now().Add(-61*time.Minute)))
	assert.True(t, IsStale(time.Time{}))
}

func TestWriteAccountPublishes(t *testing.T) {
	accounts := &fakeAccounts{data: map[string]map[string]*model.AccountCache{}}
	updates := &fakeBroadcaster{}
	s := newTestService(accounts, updates)

	err := s.WriteAccount(context.Background(), "u1", "a@example.com", &model.AccountCache{
		CalendarInfo: model.CalendarInfo{ID: "a@example.com", Email: "a@example.com"},
		LastUpdated:  time.Now(),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"u1"}, updates.published)
	assert.Contains(t, accounts.data["u1"], "a@example.com")
}

func TestReadStoreFailure(t *testing.T) {
	accounts := &fakeAccounts{readErr: errors.New("connection refused")}
	s := newTestService(accounts, &fakeBroadcaster{})

	_, err := s.Read(context.Background(), "u1")
	require.ErrorIs(t, err, model.ErrStoreUnavailable)
}

func TestMergeCalendarInfoPartialPatch(t *testing.T) {
	lastUpdated := time.Now().Add(-30 * time.Minute)
	accounts := &fakeAccounts{data: map[string]map[string]*model.AccountCache{
		"u1": {
			"a@example.com": {
				Events: []*model.Event{{ID: "e1"}},
				CalendarInfo: model.CalendarInfo{
					ID:          "a@example.com",
					Email:       "a@example.com",
					DisplayName: "Work",
					Color:       &model.ColorPair{Background: "#fff", Foreground: "#000"},
				},
				LastUpdated: lastUpdated,
			},
		},
	}}
	updates := &fakeBroadcaster{}
	s := newTestService(accounts, updates)

	name := "Work (renamed)"
	err := s.MergeCalendarInfo(context.Background(), "u1", "a@example.com", model.CalendarInfoPatch{DisplayName: &name})
	require.NoError(t, err)

	stored := accounts.data["u1"]["a@example.com"]
	assert.Equal(t, "Work (renamed)", stored.CalendarInfo.DisplayName)
	require.NotNil(t, stored.CalendarInfo.Color)
	assert.Equal(t, "#fff", stored.CalendarInfo.Color.Background)
	assert.Len(t, stored.Events, 1)
	assert.True(t, stored.LastUpdated.Equal(lastUpdated), "freshness stamp untouched")
	assert.Equal(t, []string{"u1"}, updates.published)
}

func TestMergeCalendarInfoUnknownAccount(t *testing.T) {
	accounts := &fakeAccounts{data: map[string]map[string]*model.AccountCache{}}
	s := newTestService(accounts, &fakeBroadcaster{})

	name := "x"
	err := s.MergeCalendarInfo(context.Background(), "u1", "missing@example.com", model.CalendarInfoPatch{DisplayName: &name})
	require.ErrorIs(t, err, model.ErrNoRecord)
}

func TestAppendEvent(t *testing.T) {
	accounts := &fakeAccounts{data: map[string]map[string]*model.AccountCache{
		"u1": {
			"a@example.com": {
				Events:      []*model.Event{{ID: "e1"}},
				LastUpdated: time.Now().Add(-2 * time.Hour),
			},
		},
	}}
	updates := &fakeBroadcaster{}
	s := newTestService(accounts, updates)

	err := s.AppendEvent(context.Background(), "u1", "a@example.com", &model.Event{ID: "e2"})
	require.NoError(t, err)

	stored := accounts.data["u1"]["a@example.com"]
	require.Len(t, stored.Events, 2)
	assert.Equal(t, "e2", stored.Events[1].ID)
	assert.WithinDuration(t, time.Now(), stored.LastUpdated, time.Minute)
	assert.Equal(t, []string{"u1"}, updates.published)
}

func TestAppendEventUnknownAccount(t *testing.T) {
	accounts := &fakeAccounts{data: map[string]map[string]*model.AccountCache{}}
	s := newTestService(accounts, &fakeBroadcaster{})

	err := s.AppendEvent(context.Background(), "u1", "missing@example.com", &model.Event{ID: "e1"})
	require.ErrorIs(t, err, model.ErrNoRecord)
}

func TestSubscribeDeliversSnapshots(t *testing.T) {
	accounts := &fakeAccounts{data: map[string]map[string]*model.AccountCache{}}
	updates := &fakeBroadcaster{}
	s := newTestService(accounts, updates)

	var snapshots []map[string]*model.AccountCache
	release, err := s.Subscribe(context.Background(), "u1", func(snapshot map[string]*model.AccountCache) {
		snapshots = append(snapshots, snapshot)
	})
	require.NoError(t, err)

	err = s.WriteAccount(context.Background(), "u1", "a@example.com", &model.AccountCache{
		CalendarInfo: model.CalendarInfo{Email: "a@example.com"},
		LastUpdated:  time.Now(),
	})
	require.NoError(t, err)

	require.Len(t, snapshots, 1)
	assert.Contains(t, snapshots[0], "a@example.com")

	release()
	assert.True(t, updates.released)
}

func TestSubscribeSkipsFailedReads(t *testing.T) {
	accounts := &fakeAccounts{data: map[string]map[string]*model.AccountCache{}}
	updates := &fakeBroadcaster{}
	s := newTestService(accounts, updates)

	called := 0
	_, err := s.Subscribe(context.Background(), "u1", func(map[string]*model.AccountCache) {
		called++
	})
	require.NoError(t, err)

	accounts.readErr = errors.New("connection refused")
	require.NoError(t, s.WriteAccount(context.Background(), "u1", "a@example.com", &model.AccountCache{}))

	assert.Equal(t, 0, called, "failed snapshot reads are not delivered")
}
