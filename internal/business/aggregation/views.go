package aggregation

import (
	"sort"
	"time"

	"github.com/Palpa-inc/smartcal/internal/model"
)

const dayLayout = "2006-01-02"

// jstDay is the JST calendar date of an instant, the unit of all date-only
// comparisons in the system.
func jstDay(t time.Time) string {
	return t.In(jst).Format(dayLayout)
}

// rebuild recomputes the aggregated stream and the (day, hour) lookup index
// from the current snapshot and filters. Callers hold the write lock.
func (s *Session) rebuild() {
	var all []*model.Event

	visible := make(map[string]bool, len(s.calendars))
	for _, c := range s.calendars {
		visible[c.Email] = c.IsShown
	}

	for _, email := range sortedEmails(s.accounts) {
		if !visible[email] {
			continue
		}

		for _, e := range s.accounts[email].Events {
			if _, hidden := s.hideKeywords[e.Summary]; hidden {
				continue
			}
			if _, hidden := s.hideKeywords[e.Description]; hidden {
				continue
			}

			event := *e
			event.ParentEmail = email
			all = append(all, &event)
		}
	}

	index := make(map[slotKey][]*model.Event)
	for _, e := range all {
		if e.Start.DateTime == nil || e.End.DateTime == nil {
			continue
		}

		start := e.Start.DateTime.In(jst)
		key := slotKey{day: start.Format(dayLayout), hour: start.Hour()}
		index[key] = append(index[key], e)
	}

	s.allEvents = all
	s.index = index
}

// AllEvents is the aggregated stream: events of every visible account,
// decorated with their parent email, minus hidden-keyword matches.
func (s *Session) AllEvents() []*model.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.allEvents
}

// EventsForDate returns the events whose JST start date equals the JST date
// of d.
func (s *Session) EventsForDate(d time.Time) []*model.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	day := jstDay(d)

	var res []*model.Event
	for _, e := range s.allEvents {
		start, ok := e.Start.Instant()
		if !ok {
			continue
		}
		if jstDay(start) == day {
			res = append(res, e)
		}
	}

	return res
}

// EventsForHourAndDay returns the timed events starting in hour of day,
// served from the precomputed index.
func (s *Session) EventsForHourAndDay(hour int, day time.Time) []*model.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.index[slotKey{day: jstDay(day), hour: hour}]
}

// Half selects which part of an hour slot an overlap check covers.
type Half string

const (
	HalfFirst  Half = "first"
	HalfSecond Half = "second"
	HalfBoth   Half = "both"
)

// HasEventsInTimeSlot reports whether any timed event on day overlaps the
// chosen half of the hour slot. An event overlaps a window when it starts
// before the window ends and ends after it starts.
func (s *Session) HasEventsInTimeSlot(hour int, day time.Time, half Half) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d := day.In(jst)
	base := time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, jst)

	var slotStart, slotEnd time.Time
	switch half {
	case HalfFirst:
		slotStart, slotEnd = base, base.Add(30*time.Minute)
	case HalfSecond:
		slotStart, slotEnd = base.Add(30*time.Minute), base.Add(time.Hour)
	default:
		slotStart, slotEnd = base, base.Add(time.Hour)
	}

	dayStr := jstDay(day)
	for _, e := range s.allEvents {
		if e.Start.DateTime == nil || e.End.DateTime == nil {
			continue
		}
		if jstDay(*e.Start.DateTime) != dayStr {
			continue
		}

		if e.Start.DateTime.Before(slotEnd) && e.End.DateTime.After(slotStart) {
			return true
		}
	}

	return false
}

// SortEventsByTime partitions events into all-day and timed, each sorted
// ascending by start. All-day events render first.
func SortEventsByTime(events []*model.Event) (allDay, timed []*model.Event) {
	for _, e := range events {
		if e.AllDay() {
			allDay = append(allDay, e)
		} else {
			timed = append(timed, e)
		}
	}

	sort.SliceStable(allDay, func(i, j int) bool {
		return allDay[i].StartInstant().Before(allDay[j].StartInstant())
	})
	sort.SliceStable(timed, func(i, j int) bool {
		return timed[i].StartInstant().Before(timed[j].StartInstant())
	})

	return allDay, timed
}

// AllDayEvents returns the all-day events covering day. The end date of an
// all-day event is exclusive.
func (s *Session) AllDayEvents(day time.Time) []*model.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d := jstDay(day)

	var res []*model.Event
	for _, e := range s.allEvents {
		if !e.AllDay() || e.Start.Date == "" {
			continue
		}

		if e.End.Date == "" {
			if e.Start.Date == d {
				res = append(res, e)
			}
			continue
		}

		if e.Start.Date <= d && d < e.End.Date {
			res = append(res, e)
		}
	}

	return res
}

// WeekDays is the Monday-started week containing the session's focused
// date.
func (s *Session) WeekDays() []time.Time {
	s.mu.RLock()
	d := s.date
	s.mu.RUnlock()

	monday := d.AddDate(0, 0, -((int(d.Weekday()) + 6) % 7))
	monday = time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, jst)

	week := make([]time.Time, 7)
	for i := range week {
		week[i] = monday.AddDate(0, 0, i)
	}

	return week
}

// ConsecutiveDays counts how many consecutive days of the current week,
// starting at dayIndex, contain an event with the same summary in the same
// hour slot. Used to render a multi-day band once at its leftmost
// occurrence.
func (s *Session) ConsecutiveDays(event *model.Event, dayIndex, hour int) int {
	week := s.WeekDays()

	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 1
	for i := dayIndex + 1; i < len(week); i++ {
		if !s.hasSameSummary(event, hour, week[i]) {
			break
		}
		count++
	}

	return count
}

// IsAlreadyDisplayed reports whether a prior day of the week already showed
// an event with the same summary in this hour slot.
func (s *Session) IsAlreadyDisplayed(event *model.Event, dayIndex, hour int) bool {
	week := s.WeekDays()

	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := 0; i < dayIndex && i < len(week); i++ {
		if s.hasSameSummary(event, hour, week[i]) {
			return true
		}
	}

	return false
}

// hasSameSummary expects the snapshot lock to be held.
func (s *Session) hasSameSummary(event *model.Event, hour int, day time.Time) bool {
	for _, e := range s.index[slotKey{day: jstDay(day), hour: hour}] {
		if e.Summary == event.Summary {
			return true
		}
	}

	return false
}
