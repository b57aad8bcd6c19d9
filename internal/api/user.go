package api

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/Palpa-inc/smartcal/internal/model"
	"github.com/go-chi/chi/v5"
)

var errCantRetrieveUser = errors.New("can't retrieve user")

type userResp struct {
	UID            string    `json:"uid"`
	Email          string    `json:"email"`
	DisplayName    string    `json:"displayName,omitempty"`
	PhotoURL       string    `json:"photoUrl,omitempty"`
	HideKeywords   []string  `json:"hideKeywords"`
	LastSignInTime time.Time `json:"lastSignInTime"`
}

func mapToUserResp(user *model.User) *userResp {
	keywords := user.HideKeywords
	if keywords == nil {
		keywords = []string{}
	}

	return &userResp{
		UID:            user.UID,
		Email:          user.Email,
		DisplayName:    user.DisplayName,
		PhotoURL:       user.PhotoURL,
		HideKeywords:   keywords,
		LastSignInTime: user.LastSignInTime,
	}
}

func (a *Api) getUserHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(contextKeyUser).(*model.User)
	if !ok {
		a.serverErrorResponse(w, r, errCantRetrieveUser)
		return
	}

	if err := a.writeJSON(w, http.StatusOK, mapToUserResp(user), nil); err != nil {
		a.serverErrorResponse(w, r, err)
	}
}

func (a *Api) addKeywordHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(contextKeyUser).(*model.User)
	if !ok {
		a.serverErrorResponse(w, r, errCantRetrieveUser)
		return
	}

	var input struct {
		Keyword string `json:"keyword"`
	}
	if err := a.readJSON(w, r, &input); err != nil {
		a.badRequestResponse(w, r, err)
		return
	}

	if input.Keyword == "" {
		a.badRequestResponse(w, r, errors.New("keyword must not be empty"))
		return
	}

	if err := a.users.AddHideKeyword(r.Context(), a.db, user.UID, input.Keyword); err != nil {
		a.serverErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (a *Api) removeKeywordHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(contextKeyUser).(*model.User)
	if !ok {
		a.serverErrorResponse(w, r, errCantRetrieveUser)
		return
	}

	keyword, err := url.PathUnescape(chi.URLParam(r, "keyword"))
	if err != nil {
		a.badRequestResponse(w, r, err)
		return
	}

	if err := a.users.RemoveHideKeyword(r.Context(), a.db, user.UID, keyword); err != nil {
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
