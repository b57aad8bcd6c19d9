package aggregation

import (
	"context"
	"testing"
	"time"

	"github.com/Palpa-inc/smartcal/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func allDayEvent(id, summary, startDate, endDate string) *model.Event {
	return &model.Event{
		ID:      id,
		Summary: summary,
		Start:   model.EventTime{Date: startDate},
		End:     model.EventTime{Date: endDate},
	}
}

func loadedSession(t *testing.T, events ...*model.Event) *Session {
	t.Helper()

	c := newFakeCache()
	c.data["u1"] = map[string]*model.AccountCache{
		"a@example.com": {
			Events:       events,
			CalendarInfo: model.CalendarInfo{Email: "a@example.com"},
			LastUpdated:  time.Now(),
		},
	}

	s := newTestSession(c, &fakeUpstream{})
	require.NoError(t, s.Load(context.Background()))

	return s
}

func TestTwoAccountAggregation(t *testing.T) {
	c := newFakeCache()
	c.data["u1"] = map[string]*model.AccountCache{
		"a@x": {
			Events:       []*model.Event{timedEvent("1", "lunch", jstTime(2025, 1, 10, 12, 0), jstTime(2025, 1, 10, 13, 0))},
			CalendarInfo: model.CalendarInfo{Email: "a@x"},
			LastUpdated:  time.Now(),
		},
		"b@x": {
			Events:       []*model.Event{timedEvent("2", "review", jstTime(2025, 1, 10, 15, 0), jstTime(2025, 1, 10, 16, 0))},
			CalendarInfo: model.CalendarInfo{Email: "b@x"},
			LastUpdated:  time.Now(),
		},
	}

	s := NewSession(zap.NewNop().Sugar(), c, &fakeUpstream{}, "u1", "sess-1", "a@x", []string{"lunch"})
	require.NoError(t, s.Load(context.Background()))

	events := s.EventsForDate(jstTime(2025, 1, 10, 0, 0))
	require.Len(t, events, 1)
	assert.Equal(t, "2", events[0].ID)
	assert.Equal(t, "b@x", events[0].ParentEmail)
}

func TestEventsForDateJSTBoundary(t *testing.T) {
	// 2025-07-19T15:30:00Z is 00:30 on 7/20 in JST.
	utcStart := time.Date(2025, 7, 19, 15, 30, 0, 0, time.UTC)
	s := loadedSession(t,
		timedEvent("late", "Late call", utcStart, utcStart.Add(time.Hour)),
		timedEvent("prev", "Previous day", jstTime(2025, 7, 19, 10, 0), jstTime(2025, 7, 19, 11, 0)),
	)

	events := s.EventsForDate(jstTime(2025, 7, 20, 0, 0))
	require.Len(t, events, 1)
	assert.Equal(t, "late", events[0].ID)

	events = s.EventsForDate(jstTime(2025, 7, 19, 0, 0))
	require.Len(t, events, 1)
	assert.Equal(t, "prev", events[0].ID)
}

func TestEventsForHourAndDay(t *testing.T) {
	s := loadedSession(t,
		timedEvent("ten", "Ten", jstTime(2025, 7, 20, 10, 15), jstTime(2025, 7, 20, 10, 45)),
		timedEvent("eleven", "Eleven", jstTime(2025, 7, 20, 11, 0), jstTime(2025, 7, 20, 12, 0)),
		allDayEvent("allday", "Holiday", "2025-07-20", "2025-07-21"),
	)

	events := s.EventsForHourAndDay(10, jstTime(2025, 7, 20, 0, 0))
	require.Len(t, events, 1)
	assert.Equal(t, "ten", events[0].ID)

	assert.Empty(t, s.EventsForHourAndDay(9, jstTime(2025, 7, 20, 0, 0)))
	assert.Empty(t, s.EventsForHourAndDay(10, jstTime(2025, 7, 21, 0, 0)))
}

func TestHasEventsInTimeSlotHalves(t *testing.T) {
	s := loadedSession(t,
		timedEvent("early", "Early", jstTime(2025, 7, 20, 10, 0), jstTime(2025, 7, 20, 10, 20)),
		timedEvent("late", "Late", jstTime(2025, 7, 21, 10, 40), jstTime(2025, 7, 21, 11, 0)),
	)

	day1 := jstTime(2025, 7, 20, 0, 0)
	assert.True(t, s.HasEventsInTimeSlot(10, day1, HalfFirst))
	assert.False(t, s.HasEventsInTimeSlot(10, day1, HalfSecond))
	assert.True(t, s.HasEventsInTimeSlot(10, day1, HalfBoth))

	day2 := jstTime(2025, 7, 21, 0, 0)
	assert.False(t, s.HasEventsInTimeSlot(10, day2, HalfFirst))
	assert.True(t, s.HasEventsInTimeSlot(10, day2, HalfSecond))
	assert.True(t, s.HasEventsInTimeSlot(10, day2, HalfBoth))

	assert.False(t, s.HasEventsInTimeSlot(11, day1, HalfBoth))
}

func TestHasEventsInTimeSlotBoundaries(t *testing.T) {
	// Ends exactly at the slot start: no overlap.
	s := loadedSession(t,
		timedEvent("before", "Before", jstTime(2025, 7, 20, 9, 0), jstTime(2025, 7, 20, 10, 0)),
	)

	day := jstTime(2025, 7, 20, 0, 0)
	assert.False(t, s.HasEventsInTimeSlot(10, day, HalfFirst))
	assert.True(t, s.HasEventsInTimeSlot(9, day, HalfBoth))
}

func TestSortEventsByTime(t *testing.T) {
	second := timedEvent("second", "Second", jstTime(2025, 7, 20, 14, 0), jstTime(2025, 7, 20, 15, 0))
	first := timedEvent("first", "First", jstTime(2025, 7, 20, 9, 0), jstTime(2025, 7, 20, 10, 0))
	holiday := allDayEvent("holiday", "Holiday", "2025-07-20", "2025-07-21")

	allDay, timed := SortEventsByTime([]*model.Event{second, holiday, first})

	require.Len(t, allDay, 1)
	assert.Equal(t, "holiday", allDay[0].ID)

	require.Len(t, timed, 2)
	assert.Equal(t, "first", timed[0].ID)
	assert.Equal(t, "second", timed[1].ID)
}

func TestAllDayEventsExclusiveEnd(t *testing.T) {
	s := loadedSession(t,
		allDayEvent("trip", "Trip", "2025-07-20", "2025-07-22"),
		timedEvent("timed", "Timed", jstTime(2025, 7, 20, 10, 0), jstTime(2025, 7, 20, 11, 0)),
	)

	require.Len(t, s.AllDayEvents(jstTime(2025, 7, 20, 0, 0)), 1)
	require.Len(t, s.AllDayEvents(jstTime(2025, 7, 21, 0, 0)), 1)
	assert.Empty(t, s.AllDayEvents(jstTime(2025, 7, 22, 0, 0)), "end date is exclusive")
	assert.Empty(t, s.AllDayEvents(jstTime(2025, 7, 19, 0, 0)))
}

func TestWeekDaysMondayStart(t *testing.T) {
	s := loadedSession(t)

	// 2025-07-23 is a Wednesday.
	s.SetDate(jstTime(2025, 7, 23, 15, 0))

	week := s.WeekDays()
	require.Len(t, week, 7)
	assert.Equal(t, time.Monday, week[0].Weekday())
	assert.True(t, week[0].Equal(jstTime(2025, 7, 21, 0, 0)))
	assert.True(t, week[6].Equal(jstTime(2025, 7, 27, 0, 0)))

	// A Monday anchors its own week.
	s.SetDate(jstTime(2025, 7, 21, 0, 0))
	week = s.WeekDays()
	assert.True(t, week[0].Equal(jstTime(2025, 7, 21, 0, 0)))

	// A Sunday belongs to the week started the previous Monday.
	s.SetDate(jstTime(2025, 7, 27, 23, 0))
	week = s.WeekDays()
	assert.True(t, week[0].Equal(jstTime(2025, 7, 21, 0, 0)))
}

func TestConsecutiveDays(t *testing.T) {
	s := loadedSession(t,
		timedEvent("mon", "Training", jstTime(2025, 7, 21, 10, 0), jstTime(2025, 7, 21, 11, 0)),
		timedEvent("tue", "Training", jstTime(2025, 7, 22, 10, 0), jstTime(2025, 7, 22, 11, 0)),
		timedEvent("wed", "Training", jstTime(2025, 7, 23, 10, 0), jstTime(2025, 7, 23, 11, 0)),
		timedEvent("fri", "Training", jstTime(2025, 7, 25, 10, 0), jstTime(2025, 7, 25, 11, 0)),
	)
	s.SetDate(jstTime(2025, 7, 21, 0, 0))

	event := &model.Event{Summary: "Training"}
	assert.Equal(t, 3, s.ConsecutiveDays(event, 0, 10), "monday through wednesday")
	assert.Equal(t, 1, s.ConsecutiveDays(event, 4, 10), "friday stands alone")
	assert.Equal(t, 1, s.ConsecutiveDays(&model.Event{Summary: "Other"}, 0, 10))
}

func TestIsAlreadyDisplayed(t *testing.T) {
	s := loadedSession(t,
		timedEvent("mon", "Training", jstTime(2025, 7, 21, 10, 0), jstTime(2025, 7, 21, 11, 0)),
		timedEvent("tue", "Training", jstTime(2025, 7, 22, 10, 0), jstTime(2025, 7, 22, 11, 0)),
	)
	s.SetDate(jstTime(2025, 7, 21, 0, 0))

	event := &model.Event{Summary: "Training"}
	assert.False(t, s.IsAlreadyDisplayed(event, 0, 10))
	assert.True(t, s.IsAlreadyDisplayed(event, 1, 10))
	assert.False(t, s.IsAlreadyDisplayed(&model.Event{Summary: "Other"}, 1, 10))
}
