package api

import (
	"errors"
	"net/http"

	"github.com/Palpa-inc/smartcal/internal/model"
	"github.com/Palpa-inc/smartcal/internal/pkg/slotparser"
	"github.com/go-chi/chi/v5"
)

func (a *Api) getPrimaryCalendarHandler(w http.ResponseWriter, r *http.Request) {
	sessionID, session, err := a.sessionFromContext(r)
	if err != nil {
		a.serverErrorResponse(w, r, err)
		return
	}

	listing, err := a.calendars.ListPrimaryAndEvents(r.Context(), sessionID)
	if err != nil {
		a.calendarErrorResponse(w, r, err)
		return
	}

	events, err := mapSlice(listing.Events, mapToEventResp)
	if err != nil {
		a.serverErrorResponse(w, r, err)
		return
	}

	// The email identifies the signed-in account, which keys the cache
	// documents. The upstream listing's value is only a fallback: it is
	// empty when no calendar entry is flagged primary.
	email := session.Email
	if email == "" {
		email = listing.Email
	}

	resp := struct {
		Email     string            `json:"email"`
		Calendars *calendarInfoResp `json:"calendars"`
		Events    []*eventResp      `json:"events"`
	}{
		Email:     email,
		Calendars: mapToCalendarInfoResp(listing.Primary),
		Events:    events,
	}

	if err := a.writeJSON(w, http.StatusOK, resp, nil); err != nil {
		a.serverErrorResponse(w, r, err)
	}
}

func (a *Api) getCalendarEventsHandler(w http.ResponseWriter, r *http.Request) {
	sessionID, session, err := a.sessionFromContext(r)
	if err != nil {
		a.serverErrorResponse(w, r, err)
		return
	}

	calendarID := chi.URLParam(r, "calendarId")

	listing, err := a.calendars.ListEvents(r.Context(), sessionID, calendarID)
	if err != nil {
		a.calendarErrorResponse(w, r, err)
		return
	}

	events, err := mapSlice(listing.Events, mapToEventResp)
	if err != nil {
		a.serverErrorResponse(w, r, err)
		return
	}

	resp := struct {
		Email  string       `json:"email"`
		Events []*eventResp `json:"events"`
	}{
		Email:  session.Email,
		Events: events,
	}

	if err := a.writeJSON(w, http.StatusOK, resp, nil); err != nil {
		a.serverErrorResponse(w, r, err)
	}
}

func (a *Api) createEventHandler(w http.ResponseWriter, r *http.Request) {
	sessionID, _, err := a.sessionFromContext(r)
	if err != nil {
		a.serverErrorResponse(w, r, err)
		return
	}

	calendarID := chi.URLParam(r, "calendarId")

	var input createEventReq
	if err := a.readJSON(w, r, &input); err != nil {
		a.badRequestResponse(w, r, err)
		return
	}

	event, err := mapToEventModel(&input)
	if err != nil {
		a.badRequestResponse(w, r, err)
		return
	}

	created, err := a.calendars.InsertEvent(r.Context(), sessionID, calendarID, event)
	if err != nil {
		a.calendarErrorResponse(w, r, err)
		return
	}

	resp, err := mapToEventResp(created)
	if err != nil {
		a.serverErrorResponse(w, r, err)
		return
	}

	if err := a.writeJSON(w, http.StatusCreated, resp, nil); err != nil {
		a.serverErrorResponse(w, r, err)
	}
}

const defaultTentativeSummary = "仮予定"

// createTentativeEventsHandler turns free-form candidate-date text into a
// batch of events in the target calendar, one per parsed slot. Wholly
// unparseable text is not an error: nothing is created and the empty list
// tells the UI to show its no-valid-candidates guidance.
func (a *Api) createTentativeEventsHandler(w http.ResponseWriter, r *http.Request) {
	sessionID, _, err := a.sessionFromContext(r)
	if err != nil {
		a.serverErrorResponse(w, r, err)
		return
	}

	calendarID := chi.URLParam(r, "calendarId")

	var input struct {
		Text    string `json:"text"`
		Summary string `json:"summary,omitempty"`
	}
	if err := a.readJSON(w, r, &input); err != nil {
		a.badRequestResponse(w, r, err)
		return
	}

	summary := input.Summary
	if summary == "" {
		summary = defaultTentativeSummary
	}

	created := []*eventResp{}
	for _, slot := range slotparser.Parse(input.Text) {
		start, end, err := slot.Times()
		if err != nil {
			a.logger.Debugw("skipping slot with invalid time", "err", err)
			continue
		}

		event, err := a.calendars.InsertEvent(r.Context(), sessionID, calendarID, &model.Event{
			Summary: summary,
			Start:   model.EventTime{DateTime: &start},
			End:     model.EventTime{DateTime: &end},
		})
		if err != nil {
			a.calendarErrorResponse(w, r, err)
			return
		}

		resp, err := mapToEventResp(event)
		if err != nil {
			a.serverErrorResponse(w, r, err)
			return
		}
		created = append(created, resp)
	}

	status := http.StatusCreated
	if len(created) == 0 {
		status = http.StatusOK
	}

	resp := struct {
		Events []*eventResp `json:"events"`
	}{Events: created}

	if err := a.writeJSON(w, status, resp, nil); err != nil {
		a.serverErrorResponse(w, r, err)
	}
}

func (a *Api) updateCalendarInfoHandler(w http.ResponseWriter, r *http.Request) {
	_, session, err := a.sessionFromContext(r)
	if err != nil {
		a.serverErrorResponse(w, r, err)
		return
	}

	email := chi.URLParam(r, "calendarId")

	var input struct {
		DisplayName *string    `json:"displayName,omitempty"`
		Color       *colorResp `json:"color,omitempty"`
	}
	if err := a.readJSON(w, r, &input); err != nil {
		a.badRequestResponse(w, r, err)
		return
	}

	patch := model.CalendarInfoPatch{DisplayName: input.DisplayName}
	if input.Color != nil {
		patch.Color = &model.ColorPair{
			Background: input.Color.Background,
			Foreground: input.Color.Foreground,
		}
	}

	if err := a.cache.MergeCalendarInfo(r.Context(), session.UID, email, patch); err != nil {
		switch {
		case errors.Is(err, model.ErrNoRecord):
			a.notFoundResponse(w, r)
		default:
			a.serverErrorResponse(w, r, err)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// calendarErrorResponse maps upstream calendar failures onto HTTP statuses.
// Credential failures come back as 401 so the client can re-run the sign-in
// flow instead of retrying.
func (a *Api) calendarErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, model.ErrUnauthorized), errors.Is(err, model.ErrRefreshFailed):
		a.unauthorizedResponse(w, r, err)
	case errors.Is(err, model.ErrInvalidCalendar):
		a.notFoundResponse(w, r)
	default:
		a.serverErrorResponse(w, r, err)
	}
}
