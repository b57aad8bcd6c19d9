package model

import "time"

// ColorPair is the background/foreground colour assigned to a calendar.
type ColorPair struct {
	Background string
	Foreground string
}

// CalendarInfo is the persisted per-account calendar metadata. Visibility is
// session state and deliberately not part of this record; see
// aggregation.Calendar.
type CalendarInfo struct {
	ID          string
	Email       string
	DisplayName string
	Color       *ColorPair
}

// AccountCache is the cached calendar data for one linked account of a user.
type AccountCache struct {
	Events       []*Event
	CalendarInfo CalendarInfo
	LastUpdated  time.Time
}

// CalendarInfoPatch is a partial update of CalendarInfo. Nil fields are left
// untouched.
type CalendarInfoPatch struct {
	DisplayName *string
	Color       *ColorPair
}

// PrimaryListing is the result of listing the primary calendar of the
// account the credential belongs to, together with a window of its events.
type PrimaryListing struct {
	Email   string
	Primary *CalendarInfo
	Events  []*Event
}

// EventListing is a window of events of one specific calendar.
type EventListing struct {
	Events []*Event
}
