package gcal

import (
	"context"
	"fmt"
	"time"

	"github.com/Palpa-inc/smartcal/internal/model"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// Fetch windows relative to now, in months. The primary listing looks
// further ahead than a specific calendar.
var (
	DefaultPrimaryWindow  = Window{MonthsBefore: 3, MonthsAfter: 6, MaxResults: 1000}
	DefaultCalendarWindow = Window{MonthsBefore: 2, MonthsAfter: 4, MaxResults: 500}
)

type Window struct {
	MonthsBefore int
	MonthsAfter  int
	MaxResults   int64
}

func (w Window) bounds(now time.Time) (time.Time, time.Time) {
	return now.AddDate(0, -w.MonthsBefore, 0), now.AddDate(0, w.MonthsAfter, 0)
}

// Client is a thin authenticated facade over the Google Calendar API.
type Client struct {
	logger *zap.SugaredLogger
}

func NewClient(logger *zap.SugaredLogger) *Client {
	return &Client{logger: logger}
}

func (c *Client) service(ctx context.Context, accessToken string) (*calendar.Service, error) {
	svc, err := calendar.NewService(ctx,
		option.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})),
	)
	if err != nil {
		return nil, fmt.Errorf("calendar service: %w", err)
	}

	return svc, nil
}

// ListPrimaryAndEvents fetches the caller's calendar list, picks the entry
// flagged as primary and returns a time-bounded, instance-expanded event
// listing for it.
func (c *Client) ListPrimaryAndEvents(ctx context.Context, accessToken string, w Window) (*model.PrimaryListing, error) {
	if w.MaxResults == 0 {
		w = DefaultPrimaryWindow
	}

	svc, err := c.service(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	list, err := svc.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("calendarList.list: %w", mapError(err))
	}

	listing := &model.PrimaryListing{}
	for _, entry := range list.Items {
		if !entry.Primary {
			continue
		}

		info := &model.CalendarInfo{
			ID:          entry.Id,
			Email:       entry.Summary,
			DisplayName: entry.SummaryOverride,
		}
		if entry.BackgroundColor != "" && entry.ForegroundColor != "" {
			info.Color = &model.ColorPair{
				Background: entry.BackgroundColor,
				Foreground: entry.ForegroundColor,
			}
		}

		listing.Primary = info
		listing.Email = entry.Summary
		break
	}

	events, err := c.listEvents(ctx, svc, "primary", w)
	if err != nil {
		return nil, err
	}
	listing.Events = events

	return listing, nil
}

// ListEvents returns a time-bounded event listing for an arbitrary calendar
// of the account the credential belongs to.
func (c *Client) ListEvents(ctx context.Context, accessToken, calendarID string, w Window) (*model.EventListing, error) {
	if w.MaxResults == 0 {
		w = DefaultCalendarWindow
	}

	svc, err := c.service(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	events, err := c.listEvents(ctx, svc, calendarID, w)
	if err != nil {
		return nil, err
	}

	return &model.EventListing{Events: events}, nil
}

func (c *Client) listEvents(ctx context.Context, svc *calendar.Service, calendarID string, w Window) ([]*model.Event, error) {
	timeMin, timeMax := w.bounds(time.Now())

	resp, err := svc.Events.List(calendarID).
		TimeMin(timeMin.Format(time.RFC3339)).
		TimeMax(timeMax.Format(time.RFC3339)).
		MaxResults(w.MaxResults).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("events.list %q: %w", calendarID, mapError(err))
	}

	events := make([]*model.Event, 0, len(resp.Items))
	for _, item := range resp.Items {
		event, err := mapToEvent(item)
		if err != nil {
			c.logger.Debugw("skipping malformed event", "calendar_id", calendarID, "event_id", item.Id, "err", err)
			continue
		}
		events = append(events, event)
	}

	return events, nil
}

// InsertEvent creates an event in the given calendar and returns the stored
// version, id assigned upstream.
func (c *Client) InsertEvent(ctx context.Context, accessToken, calendarID string, event *model.Event) (*model.Event, error) {
	svc, err := c.service(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	created, err := svc.Events.Insert(calendarID, mapFromEvent(event)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("events.insert %q: %w", calendarID, mapError(err))
	}

	return mapToEvent(created)
}
