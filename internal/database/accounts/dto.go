package accounts

import (
	"fmt"
	"time"

	"github.com/Palpa-inc/smartcal/internal/model"
)

type accountDTO struct {
	UserID       string
	Email        string
	Events       []*eventDTO
	CalendarInfo *calendarInfoDTO
	LastUpdated  time.Time
}

// eventDTO mirrors the upstream wire shape so that cached documents stay
// byte-compatible with what the calendar provider returns.
type eventDTO struct {
	ID          string         `json:"id"`
	Summary     string         `json:"summary"`
	Description string         `json:"description,omitempty"`
	HangoutLink string         `json:"hangoutLink,omitempty"`
	Start       eventTimeDTO   `json:"start"`
	End         eventTimeDTO   `json:"end"`
	Attendees   []*attendeeDTO `json:"attendees,omitempty"`
	CalendarID  string         `json:"calendarId,omitempty"`
}

type eventTimeDTO struct {
	DateTime string `json:"dateTime,omitempty"`
	Date     string `json:"date,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

type attendeeDTO struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
}

type calendarInfoDTO struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName,omitempty"`
	Color       *colorDTO `json:"color,omitempty"`
}

type colorDTO struct {
	Background string `json:"background"`
	Foreground string `json:"foreground"`
}

func mapToAccountCache(dto *accountDTO) (*model.AccountCache, error) {
	events := make([]*model.Event, len(dto.Events))
	for i, e := range dto.Events {
		event, err := mapToEvent(e)
		if err != nil {
			return nil, fmt.Errorf("event %q: %w", e.ID, err)
		}
		events[i] = event
	}

	cache := &model.AccountCache{
		Events:      events,
		LastUpdated: dto.LastUpdated,
	}
	if dto.CalendarInfo != nil {
		cache.CalendarInfo = mapToCalendarInfo(dto.CalendarInfo)
	}

	return cache, nil
}

func mapToEvent(dto *eventDTO) (*model.Event, error) {
	start, err := mapToEventTime(dto.Start)
	if err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}
	end, err := mapToEventTime(dto.End)
	if err != nil {
		return nil, fmt.Errorf("end: %w", err)
	}

	attendees := make([]*model.Attendee, len(dto.Attendees))
	for i, a := range dto.Attendees {
		attendees[i] = &model.Attendee{
			Email:       a.Email,
			DisplayName: a.DisplayName,
		}
	}
	if len(attendees) == 0 {
		attendees = nil
	}

	return &model.Event{
		ID:          dto.ID,
		Summary:     dto.Summary,
		Description: dto.Description,
		HangoutLink: dto.HangoutLink,
		Start:       start,
		End:         end,
		Attendees:   attendees,
		CalendarID:  dto.CalendarID,
	}, nil
}

func mapToEventTime(dto eventTimeDTO) (model.EventTime, error) {
	t := model.EventTime{
		Date:     dto.Date,
		TimeZone: dto.TimeZone,
	}

	if dto.DateTime != "" {
		ts, err := time.Parse(time.RFC3339, dto.DateTime)
		if err != nil {
			return model.EventTime{}, fmt.Errorf("parse dateTime %q: %w", dto.DateTime, err)
		}
		t.DateTime = &ts
	}

	return t, nil
}

func mapToCalendarInfo(dto *calendarInfoDTO) model.CalendarInfo {
	info := model.CalendarInfo{
		ID:          dto.ID,
		Email:       dto.Email,
		DisplayName: dto.DisplayName,
	}
	if dto.Color != nil {
		info.Color = &model.ColorPair{
			Background: dto.Color.Background,
			Foreground: dto.Color.Foreground,
		}
	}

	return info
}

func mapFromEvent(event *model.Event) *eventDTO {
	attendees := make([]*attendeeDTO, len(event.Attendees))
	for i, a := range event.Attendees {
		attendees[i] = &attendeeDTO{
			Email:       a.Email,
			DisplayName: a.DisplayName,
		}
	}
	if len(attendees) == 0 {
		attendees = nil
	}

	return &eventDTO{
		ID:          event.ID,
		Summary:     event.Summary,
		Description: event.Description,
		HangoutLink: event.HangoutLink,
		Start:       mapFromEventTime(event.Start),
		End:         mapFromEventTime(event.End),
		Attendees:   attendees,
		CalendarID:  event.CalendarID,
	}
}

func mapFromEventTime(t model.EventTime) eventTimeDTO {
	dto := eventTimeDTO{
		Date:     t.Date,
		TimeZone: t.TimeZone,
	}
	if t.DateTime != nil {
		dto.DateTime = t.DateTime.Format(time.RFC3339)
	}

	return dto
}

func mapFromCalendarInfo(info model.CalendarInfo) *calendarInfoDTO {
	dto := &calendarInfoDTO{
		ID:          info.ID,
		Email:       info.Email,
		DisplayName: info.DisplayName,
	}
	if info.Color != nil {
		dto.Color = &colorDTO{
			Background: info.Color.Background,
			Foreground: info.Color.Foreground,
		}
	}

	return dto
}

func mapFromEvents(events []*model.Event) []*eventDTO {
	dtos := make([]*eventDTO, len(events))
	for i, e := range events {
		dtos[i] = mapFromEvent(e)
	}

	return dtos
}
