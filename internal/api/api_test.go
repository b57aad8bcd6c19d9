package api

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Palpa-inc/smartcal/internal/database"
	"github.com/Palpa-inc/smartcal/internal/model"
	"github.com/Palpa-inc/smartcal/internal/pkg/jwt"
	"github.com/Palpa-inc/smartcal/internal/pkg/oauth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

type fakeSessions struct {
	sessions map[string]*model.Session
}

func (f *fakeSessions) Add(_ context.Context, id string, session *model.Session) error {
	if _, ok := f.sessions[id]; ok {
		return model.ErrAlreadyExists
	}
	f.sessions[id] = session
	return nil
}

func (f *fakeSessions) Get(_ context.Context, id string) (*model.Session, error) {
	session, ok := f.sessions[id]
	if !ok {
		return nil, model.ErrNoRecord
	}
	return session, nil
}

func (f *fakeSessions) Delete(_ context.Context, id string) error {
	delete(f.sessions, id)
	return nil
}

type fakeTokenParser struct {
	info *oauth.GoogleInfo
	err  error
}

func (f *fakeTokenParser) GetInfoGoogle(context.Context, string) (*oauth.GoogleInfo, *oauth2.Token, error) {
	if f.err != nil {
		return nil, nil, f.err
	}

	return f.info, &oauth2.Token{
		AccessToken:  "at-1",
		RefreshToken: "rt-1",
		Expiry:       time.Now().Add(time.Hour),
	}, nil
}

type fakeCalendars struct {
	listing  *model.PrimaryListing
	events   *model.EventListing
	created  *model.Event
	inserted []*model.Event
	err      error
}

func (f *fakeCalendars) ListPrimaryAndEvents(context.Context, string) (*model.PrimaryListing, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.listing, nil
}

func (f *fakeCalendars) ListEvents(context.Context, string, string) (*model.EventListing, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.events, nil
}

func (f *fakeCalendars) InsertEvent(_ context.Context, _, _ string, event *model.Event) (*model.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.inserted = append(f.inserted, event)

	if f.created != nil {
		return f.created, nil
	}

	created := *event
	created.ID = fmt.Sprintf("created-%d", len(f.inserted))
	return &created, nil
}

type fakeCache struct {
	patched map[string]model.CalendarInfoPatch
	err     error
}

func (f *fakeCache) MergeCalendarInfo(_ context.Context, _, email string, patch model.CalendarInfoPatch) error {
	if f.err != nil {
		return f.err
	}
	if f.patched == nil {
		f.patched = map[string]model.CalendarInfoPatch{}
	}
	f.patched[email] = patch
	return nil
}

type fakeUsers struct {
	users    map[string]*model.User
	keywords []string
}

func (f *fakeUsers) UpsertUser(_ context.Context, _ database.Queryable, uid string, user *model.UserCreate) (string, error) {
	for _, existing := range f.users {
		if existing.Email == user.Email {
			return existing.UID, nil
		}
	}

	f.users[uid] = &model.User{UID: uid, UserCreate: *user}
	return uid, nil
}

func (f *fakeUsers) GetUserByUID(_ context.Context, _ database.Queryable, uid string) (*model.User, error) {
	user, ok := f.users[uid]
	if !ok {
		return nil, model.ErrNoRecord
	}
	return user, nil
}

func (f *fakeUsers) AddHideKeyword(_ context.Context, _ database.Queryable, _, keyword string) error {
	f.keywords = append(f.keywords, keyword)
	return nil
}

func (f *fakeUsers) RemoveHideKeyword(_ context.Context, _ database.Queryable, _, keyword string) error {
	for i, k := range f.keywords {
		if k == keyword {
			f.keywords = append(f.keywords[:i], f.keywords[i+1:]...)
			return nil
		}
	}
	return model.ErrNoRecord
}

type testEnv struct {
	api       *Api
	jwts      *jwt.Manager
	sessions  *fakeSessions
	calendars *fakeCalendars
	cache     *fakeCache
	users     *fakeUsers
	parser    *fakeTokenParser
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		jwts:      jwt.NewManager("secret", time.Hour),
		sessions:  &fakeSessions{sessions: map[string]*model.Session{}},
		calendars: &fakeCalendars{},
		cache:     &fakeCache{},
		users:     &fakeUsers{users: map[string]*model.User{}},
		parser:    &fakeTokenParser{info: &oauth.GoogleInfo{Name: "Alice", Email: "a@example.com"}},
	}

	env.api = NewApi(
		zap.NewNop().Sugar(),
		rand.Reader,
		32,
		env.jwts,
		env.parser,
		env.sessions,
		env.calendars,
		env.cache,
		nil,
		env.users,
	)

	return env
}

func (e *testEnv) signedIn(t *testing.T) string {
	t.Helper()

	e.sessions.sessions["sess-1"] = &model.Session{UID: "u1", Email: "a@example.com"}
	token, err := e.jwts.CreateToken("sess-1")
	require.NoError(t, err)

	return token
}

func (e *testEnv) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.api.ServeHTTP(rec, req)
	return rec
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/calendar", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/calendar", "garbage", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Valid token referencing a session that no longer exists.
	token, err := env.jwts.CreateToken("gone")
	require.NoError(t, err)
	rec = env.do(t, http.MethodGet, "/calendar", token, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSignInGoogle(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/auth/signin/google", "", `{"auth_code": "code-1"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)

	sessionID, err := env.jwts.GetSessionFromToken(resp.Token)
	require.NoError(t, err)

	session, ok := env.sessions.sessions[sessionID]
	require.True(t, ok)
	assert.Equal(t, "a@example.com", session.Email)
	assert.Equal(t, "at-1", session.Token.AccessToken)
	assert.Equal(t, "rt-1", session.Token.RefreshToken)
	assert.NotZero(t, session.Token.ExpiresAt)

	require.Len(t, env.users.users, 1)
}

func TestGetPrimaryCalendar(t *testing.T) {
	env := newTestEnv(t)
	start := time.Date(2025, 7, 20, 1, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	env.calendars.listing = &model.PrimaryListing{
		Email:   "a@example.com",
		Primary: &model.CalendarInfo{ID: "primary-id", Email: "a@example.com", DisplayName: "Main"},
		Events: []*model.Event{{
			ID:      "e1",
			Summary: "Standup",
			Start:   model.EventTime{DateTime: &start},
			End:     model.EventTime{DateTime: &end},
		}},
	}

	rec := env.do(t, http.MethodGet, "/calendar", env.signedIn(t), "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Email     string `json:"email"`
		Calendars struct {
			DisplayName string `json:"displayName"`
		} `json:"calendars"`
		Events []struct {
			ID    string `json:"id"`
			Start struct {
				DateTime string `json:"dateTime"`
			} `json:"start"`
		} `json:"events"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "a@example.com", resp.Email)
	assert.Equal(t, "Main", resp.Calendars.DisplayName)
	require.Len(t, resp.Events, 1)
	assert.Equal(t, "e1", resp.Events[0].ID)
	assert.Equal(t, start.Format(time.RFC3339), resp.Events[0].Start.DateTime)
}

func TestListingsCarrySessionEmail(t *testing.T) {
	env := newTestEnv(t)
	env.calendars.events = &model.EventListing{}
	token := env.signedIn(t)

	// The calendar id is an opaque upstream identifier; the response email
	// must still be the signed-in account, since it keys cache documents.
	rec := env.do(t, http.MethodGet, "/calendar/primary", token, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Email string `json:"email"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "a@example.com", resp.Email)

	// No upstream entry flagged primary: the listing email is empty, the
	// session email still fills the response.
	env.calendars.listing = &model.PrimaryListing{}
	rec = env.do(t, http.MethodGet, "/calendar", token, "")
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "a@example.com", resp.Email)
}

func TestCalendarErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"refresh failed", model.ErrRefreshFailed, http.StatusUnauthorized},
		{"unauthorized", model.ErrUnauthorized, http.StatusUnauthorized},
		{"invalid calendar", model.ErrInvalidCalendar, http.StatusNotFound},
		{"upstream down", model.ErrUpstreamUnavailable, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.calendars.err = tc.err

			rec := env.do(t, http.MethodGet, "/calendar/b@example.com", env.signedIn(t), "")
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestCreateEvent(t *testing.T) {
	env := newTestEnv(t)
	start := time.Date(2025, 7, 21, 1, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	env.calendars.created = &model.Event{
		ID:      "created",
		Summary: "Interview",
		Start:   model.EventTime{DateTime: &start},
		End:     model.EventTime{DateTime: &end},
	}

	body := `{
		"summary": "Interview",
		"start": {"dateTime": "2025-07-21T01:00:00Z"},
		"end": {"dateTime": "2025-07-21T02:00:00Z"}
	}`
	rec := env.do(t, http.MethodPost, "/calendar/a@example.com", env.signedIn(t), body)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "created", resp.ID)
}

func TestCreateEventRejectsEmptyTimes(t *testing.T) {
	env := newTestEnv(t)

	body := `{"summary": "Interview", "start": {}, "end": {}}`
	rec := env.do(t, http.MethodPost, "/calendar/a@example.com", env.signedIn(t), body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateTentativeEvents(t *testing.T) {
	env := newTestEnv(t)
	token := env.signedIn(t)

	body := `{"text": "7/20 10:00~11:00 / 12:00~13:00", "summary": "候補"}`
	rec := env.do(t, http.MethodPost, "/calendar/a@example.com/tentative", token, body)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Events []struct {
			ID      string `json:"id"`
			Summary string `json:"summary"`
		} `json:"events"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Events, 2)
	assert.Equal(t, "候補", resp.Events[0].Summary)

	require.Len(t, env.calendars.inserted, 2)
	jst := time.FixedZone("JST", 9*60*60)
	first := env.calendars.inserted[0]
	require.NotNil(t, first.Start.DateTime)
	assert.Equal(t, 10, first.Start.DateTime.In(jst).Hour())
	second := env.calendars.inserted[1]
	require.NotNil(t, second.Start.DateTime)
	assert.Equal(t, 12, second.Start.DateTime.In(jst).Hour())
}

func TestCreateTentativeEventsNoCandidates(t *testing.T) {
	env := newTestEnv(t)
	token := env.signedIn(t)

	rec := env.do(t, http.MethodPost, "/calendar/a@example.com/tentative", token, `{"text": "来週あたりで"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Events []json.RawMessage `json:"events"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Events)
	assert.Empty(t, env.calendars.inserted, "nothing is created for unparseable text")
}

func TestUpdateCalendarInfo(t *testing.T) {
	env := newTestEnv(t)

	body := `{"displayName": "Work", "color": {"background": "#fff", "foreground": "#000"}}`
	rec := env.do(t, http.MethodPatch, "/calendar/b@example.com", env.signedIn(t), body)
	require.Equal(t, http.StatusNoContent, rec.Code)

	patch, ok := env.cache.patched["b@example.com"]
	require.True(t, ok)
	require.NotNil(t, patch.DisplayName)
	assert.Equal(t, "Work", *patch.DisplayName)
	require.NotNil(t, patch.Color)
	assert.Equal(t, "#fff", patch.Color.Background)
}

func TestUpdateCalendarInfoUnknownAccount(t *testing.T) {
	env := newTestEnv(t)
	env.cache.err = model.ErrNoRecord

	rec := env.do(t, http.MethodPatch, "/calendar/missing@example.com", env.signedIn(t), `{"displayName": "x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUserEndpoints(t *testing.T) {
	env := newTestEnv(t)
	env.users.users["u1"] = &model.User{
		UID:          "u1",
		HideKeywords: []string{"Lunch"},
		UserCreate:   model.UserCreate{Email: "a@example.com", DisplayName: "Alice"},
	}
	token := env.signedIn(t)

	rec := env.do(t, http.MethodGet, "/user", token, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		UID          string   `json:"uid"`
		HideKeywords []string `json:"hideKeywords"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "u1", resp.UID)
	assert.Equal(t, []string{"Lunch"}, resp.HideKeywords)

	rec = env.do(t, http.MethodPost, "/user/keywords", token, `{"keyword": "private"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, env.users.keywords, "private")

	rec = env.do(t, http.MethodDelete, "/user/keywords/private", token, "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.NotContains(t, env.users.keywords, "private")

	rec = env.do(t, http.MethodDelete, "/user/keywords/unknown", token, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUserRequiresExistingRecord(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/user", env.signedIn(t), "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	token := env.signedIn(t)

	rec := env.do(t, http.MethodPost, "/auth/logout", token, "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.NotContains(t, env.sessions.sessions, "sess-1")
}

func TestHealthcheck(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/healthcheck", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
