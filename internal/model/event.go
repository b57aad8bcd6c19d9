package model

import "time"

// EventTime is the start or end of an event. Exactly one of DateTime and
// Date is set: DateTime for timed events, Date (YYYY-MM-DD) for all-day
// events.
type EventTime struct {
	DateTime *time.Time
	Date     string
	TimeZone string
}

const dateLayout = "2006-01-02"

// Instant resolves the event time to an absolute instant. All-day dates
// resolve to midnight UTC of that date, matching how the upstream provider
// serialises them. The second return is false when neither field is set.
func (t EventTime) Instant() (time.Time, bool) {
	if t.DateTime != nil {
		return *t.DateTime, true
	}

	if t.Date != "" {
		d, err := time.Parse(dateLayout, t.Date)
		if err != nil {
			return time.Time{}, false
		}
		return d, true
	}

	return time.Time{}, false
}

func (t EventTime) IsZero() bool {
	return t.DateTime == nil && t.Date == ""
}

type Attendee struct {
	Email       string
	DisplayName string
}

type Event struct {
	ID          string
	Summary     string
	Description string
	HangoutLink string
	Start       EventTime
	End         EventTime
	Attendees   []*Attendee
	CalendarID  string

	// ParentEmail is the linked account the event came from. It is set
	// during aggregation, never on ingest.
	ParentEmail string
}

// AllDay reports whether the event is a whole-day entry rather than a timed
// one.
func (e *Event) AllDay() bool {
	return e.Start.DateTime == nil
}

// StartInstant is a convenience over Start.Instant; it returns the zero time
// for malformed events.
func (e *Event) StartInstant() time.Time {
	ts, _ := e.Start.Instant()
	return ts
}

func (e *Event) EndInstant() time.Time {
	ts, _ := e.End.Instant()
	return ts
}
