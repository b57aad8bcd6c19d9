package token

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/Palpa-inc/smartcal/internal/model"
	"go.uber.org/zap"
)

// DefaultSafetyWindow is how long before expiry a credential is already
// treated as expired.
const DefaultSafetyWindow = 300 * time.Second

type sessionRepository interface {
	Get(ctx context.Context, id string) (*model.Session, error)
	Update(ctx context.Context, id string, session *model.Session) error
}

// Config carries the identity-provider coordinates for the refresh
// exchange.
type Config struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	SafetyWindow time.Duration
	HTTPClient   *http.Client
}

// Manager guarantees outbound upstream calls carry a non-expired access
// credential, refreshing it through the identity provider when needed.
type Manager struct {
	logger   *zap.SugaredLogger
	sessions sessionRepository
	cfg      Config

	mu       sync.Mutex
	inflight map[string]*refreshCall
}

// refreshCall is the per-session promise slot: the first caller performs the
// exchange, racers wait on done and share the outcome.
type refreshCall struct {
	done  chan struct{}
	token string
	err   error
}

func NewManager(logger *zap.SugaredLogger, sessions sessionRepository, cfg Config) *Manager {
	if cfg.SafetyWindow == 0 {
		cfg.SafetyWindow = DefaultSafetyWindow
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}

	return &Manager{
		logger:   logger,
		sessions: sessions,
		cfg:      cfg,
		inflight: make(map[string]*refreshCall),
	}
}

// AccessToken returns a non-expired access credential for the session,
// performing a refresh exchange first when the stored one is within the
// safety window of expiry. An unknown or expired session surfaces as
// model.ErrUnauthorized, a session-store outage as model.ErrStoreUnavailable;
// a failed refresh leaves the stored bundle untouched.
func (m *Manager) AccessToken(ctx context.Context, sessionID string) (string, error) {
	session, err := m.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, model.ErrNoRecord) {
			return "", fmt.Errorf("get session: %w", model.ErrUnauthorized)
		}
		return "", fmt.Errorf("%w: get session: %v", model.ErrStoreUnavailable, err)
	}

	if !m.needsRefresh(session.Token) {
		return session.Token.AccessToken, nil
	}

	m.mu.Lock()
	if call, ok := m.inflight[sessionID]; ok {
		m.mu.Unlock()

		select {
		case <-call.done:
		case <-ctx.Done():
			return "", ctx.Err()
		}
		return call.token, call.err
	}

	call := &refreshCall{done: make(chan struct{})}
	m.inflight[sessionID] = call
	m.mu.Unlock()

	call.token, call.err = m.refresh(ctx, sessionID, session)

	m.mu.Lock()
	delete(m.inflight, sessionID)
	m.mu.Unlock()
	close(call.done)

	return call.token, call.err
}

func (m *Manager) needsRefresh(bundle model.TokenBundle) bool {
	if bundle.ExpiresAt == 0 {
		return true
	}

	return time.Now().Add(m.cfg.SafetyWindow).Unix() >= bundle.ExpiresAt
}

type refreshResponse struct {
	AccessToken  string `json:"access_token"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
}

func (m *Manager) refresh(ctx context.Context, sessionID string, session *model.Session) (string, error) {
	form := url.Values{
		"client_id":     {m.cfg.ClientID},
		"client_secret": {m.cfg.ClientSecret},
		"grant_type":    {"refresh_token"},
		"refresh_token": {session.Token.RefreshToken},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.cfg.HTTPClient.Do(req)
	if err != nil {
		m.logger.Errorw("token refresh request failed", "err", err)
		return "", fmt.Errorf("%w: %v", model.ErrRefreshFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		m.logger.Errorw("token refresh rejected", "status", resp.StatusCode)
		return "", fmt.Errorf("%w: status %d", model.ErrRefreshFailed, resp.StatusCode)
	}

	refreshed := &refreshResponse{}
	if err := json.NewDecoder(resp.Body).Decode(refreshed); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", model.ErrRefreshFailed, err)
	}

	session.Token.AccessToken = refreshed.AccessToken
	session.Token.ExpiresAt = time.Now().Unix() + refreshed.ExpiresIn
	if refreshed.RefreshToken != "" {
		session.Token.RefreshToken = refreshed.RefreshToken
	}

	if err := m.sessions.Update(ctx, sessionID, session); err != nil {
		// The refreshed credential is still valid for this request; the
		// next one will refresh again.
		m.logger.Errorw("failed to store refreshed token", "err", err)
	}

	return session.Token.AccessToken, nil
}
