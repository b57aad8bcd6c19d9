package gcal

import (
	"fmt"
	"time"

	"github.com/Palpa-inc/smartcal/internal/model"
	"google.golang.org/api/calendar/v3"
)

func mapToEvent(item *calendar.Event) (*model.Event, error) {
	start, err := mapToEventTime(item.Start)
	if err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}
	end, err := mapToEventTime(item.End)
	if err != nil {
		return nil, fmt.Errorf("end: %w", err)
	}

	var attendees []*model.Attendee
	for _, a := range item.Attendees {
		attendees = append(attendees, &model.Attendee{
			Email:       a.Email,
			DisplayName: a.DisplayName,
		})
	}

	return &model.Event{
		ID:          item.Id,
		Summary:     item.Summary,
		Description: item.Description,
		HangoutLink: item.HangoutLink,
		Start:       start,
		End:         end,
		Attendees:   attendees,
	}, nil
}

func mapToEventTime(t *calendar.EventDateTime) (model.EventTime, error) {
	if t == nil {
		return model.EventTime{}, nil
	}

	res := model.EventTime{
		Date:     t.Date,
		TimeZone: t.TimeZone,
	}

	if t.DateTime != "" {
		ts, err := time.Parse(time.RFC3339, t.DateTime)
		if err != nil {
			return model.EventTime{}, fmt.Errorf("parse dateTime %q: %w", t.DateTime, err)
		}
		res.DateTime = &ts
	}

	return res, nil
}

func mapFromEvent(event *model.Event) *calendar.Event {
	var attendees []*calendar.EventAttendee
	for _, a := range event.Attendees {
		attendees = append(attendees, &calendar.EventAttendee{
			Email:       a.Email,
			DisplayName: a.DisplayName,
		})
	}

	return &calendar.Event{
		Summary:     event.Summary,
		Description: event.Description,
		Start:       mapFromEventTime(event.Start),
		End:         mapFromEventTime(event.End),
		Attendees:   attendees,
	}
}

func mapFromEventTime(t model.EventTime) *calendar.EventDateTime {
	if t.IsZero() {
		return nil
	}

	dto := &calendar.EventDateTime{
		Date:     t.Date,
		TimeZone: t.TimeZone,
	}
	if t.DateTime != nil {
		dto.DateTime = t.DateTime.Format(time.RFC3339)
	}

	return dto
}
