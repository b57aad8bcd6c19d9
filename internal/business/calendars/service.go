// Package calendars binds the token manager and the upstream calendar
// client together: every operation resolves a fresh access credential for
// the session before talking to the provider.
package calendars

import (
	"context"
	"fmt"

	"github.com/Palpa-inc/smartcal/internal/model"
	"github.com/Palpa-inc/smartcal/internal/pkg/gcal"
	"go.uber.org/zap"
)

type tokenManager interface {
	AccessToken(ctx context.Context, sessionID string) (string, error)
}

type upstreamClient interface {
	ListPrimaryAndEvents(ctx context.Context, accessToken string, w gcal.Window) (*model.PrimaryListing, error)
	ListEvents(ctx context.Context, accessToken, calendarID string, w gcal.Window) (*model.EventListing, error)
	InsertEvent(ctx context.Context, accessToken, calendarID string, event *model.Event) (*model.Event, error)
}

type Service struct {
	logger   *zap.SugaredLogger
	tokens   tokenManager
	upstream upstreamClient
}

func NewService(logger *zap.SugaredLogger, tokens tokenManager, upstream upstreamClient) *Service {
	return &Service{
		logger:   logger,
		tokens:   tokens,
		upstream: upstream,
	}
}

func (s *Service) ListPrimaryAndEvents(ctx context.Context, sessionID string) (*model.PrimaryListing, error) {
	accessToken, err := s.tokens.AccessToken(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("access token: %w", err)
	}

	listing, err := s.upstream.ListPrimaryAndEvents(ctx, accessToken, gcal.DefaultPrimaryWindow)
	if err != nil {
		return nil, fmt.Errorf("list primary: %w", err)
	}

	return listing, nil
}

func (s *Service) ListEvents(ctx context.Context, sessionID, calendarID string) (*model.EventListing, error) {
	accessToken, err := s.tokens.AccessToken(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("access token: %w", err)
	}

	listing, err := s.upstream.ListEvents(ctx, accessToken, calendarID, gcal.DefaultCalendarWindow)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	return listing, nil
}

func (s *Service) InsertEvent(ctx context.Context, sessionID, calendarID string, event *model.Event) (*model.Event, error) {
	accessToken, err := s.tokens.AccessToken(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("access token: %w", err)
	}

	created, err := s.upstream.InsertEvent(ctx, accessToken, calendarID, event)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}

	return created, nil
}
