package api

import (
	"fmt"
	"time"

	"github.com/Palpa-inc/smartcal/internal/model"
)

// The wire shapes mirror what the upstream provider returns, so the UI can
// treat cached and freshly fetched events interchangeably.

type eventTimeResp struct {
	DateTime string `json:"dateTime,omitempty"`
	Date     string `json:"date,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

type attendeeResp struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
}

type eventResp struct {
	ID          string          `json:"id"`
	Summary     string          `json:"summary"`
	Description string          `json:"description,omitempty"`
	HangoutLink string          `json:"hangoutLink,omitempty"`
	Start       eventTimeResp   `json:"start"`
	End         eventTimeResp   `json:"end"`
	Attendees   []*attendeeResp `json:"attendees,omitempty"`
	CalendarID  string          `json:"calendarId,omitempty"`
	ParentEmail string          `json:"parentEmail,omitempty"`
}

type colorResp struct {
	Background string `json:"background"`
	Foreground string `json:"foreground"`
}

type calendarInfoResp struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	DisplayName string     `json:"displayName,omitempty"`
	Color       *colorResp `json:"color,omitempty"`
}

func mapToEventResp(event *model.Event) (*eventResp, error) {
	attendees, err := mapSlice(event.Attendees, func(a *model.Attendee) (*attendeeResp, error) {
		return &attendeeResp{Email: a.Email, DisplayName: a.DisplayName}, nil
	})
	if err != nil {
		return nil, err
	}
	if len(attendees) == 0 {
		attendees = nil
	}

	return &eventResp{
		ID:          event.ID,
		Summary:     event.Summary,
		Description: event.Description,
		HangoutLink: event.HangoutLink,
		Start:       mapToEventTimeResp(event.Start),
		End:         mapToEventTimeResp(event.End),
		Attendees:   attendees,
		CalendarID:  event.CalendarID,
		ParentEmail: event.ParentEmail,
	}, nil
}

func mapToEventTimeResp(t model.EventTime) eventTimeResp {
	resp := eventTimeResp{
		Date:     t.Date,
		TimeZone: t.TimeZone,
	}
	if t.DateTime != nil {
		resp.DateTime = t.DateTime.Format(time.RFC3339)
	}

	return resp
}

func mapToCalendarInfoResp(info *model.CalendarInfo) *calendarInfoResp {
	if info == nil {
		return nil
	}

	resp := &calendarInfoResp{
		ID:          info.ID,
		Email:       info.Email,
		DisplayName: info.DisplayName,
	}
	if info.Color != nil {
		resp.Color = &colorResp{
			Background: info.Color.Background,
			Foreground: info.Color.Foreground,
		}
	}

	return resp
}

type eventTimeReq struct {
	DateTime string `json:"dateTime,omitempty"`
	Date     string `json:"date,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

type attendeeReq struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
}

type createEventReq struct {
	Summary     string         `json:"summary"`
	Description string         `json:"description,omitempty"`
	Start       eventTimeReq   `json:"start"`
	End         eventTimeReq   `json:"end"`
	Attendees   []*attendeeReq `json:"attendees,omitempty"`
}

func mapToEventModel(req *createEventReq) (*model.Event, error) {
	start, err := mapToEventTimeModel(req.Start)
	if err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}
	end, err := mapToEventTimeModel(req.End)
	if err != nil {
		return nil, fmt.Errorf("end: %w", err)
	}

	attendees, err := mapSlice(req.Attendees, func(a *attendeeReq) (*model.Attendee, error) {
		return &model.Attendee{Email: a.Email, DisplayName: a.DisplayName}, nil
	})
	if err != nil {
		return nil, err
	}
	if len(attendees) == 0 {
		attendees = nil
	}

	return &model.Event{
		Summary:     req.Summary,
		Description: req.Description,
		Start:       start,
		End:         end,
		Attendees:   attendees,
	}, nil
}

func mapToEventTimeModel(req eventTimeReq) (model.EventTime, error) {
	t := model.EventTime{
		Date:     req.Date,
		TimeZone: req.TimeZone,
	}

	if req.DateTime != "" {
		ts, err := time.Parse(time.RFC3339, req.DateTime)
		if err != nil {
			return model.EventTime{}, fmt.Errorf("parse dateTime %q: %w", req.DateTime, err)
		}
		t.DateTime = &ts
	}

	if t.IsZero() {
		return model.EventTime{}, fmt.Errorf("either date or dateTime is required")
	}

	return t, nil
}
