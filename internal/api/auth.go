package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Palpa-inc/smartcal/internal/model"
	"github.com/rs/xid"
)

func (a *Api) signInGoogleHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		AuthCode string `json:"auth_code"`
	}

	if err := a.readJSON(w, r, &input); err != nil {
		a.badRequestResponse(w, r, err)
		return
	}

	info, oauthToken, err := a.tokenParser.GetInfoGoogle(r.Context(), input.AuthCode)
	if err != nil {
		a.unauthorizedResponse(w, r, err)
		return
	}

	uid, err := a.users.UpsertUser(r.Context(), a.db, xid.New().String(), &model.UserCreate{
		Email:          info.Email,
		DisplayName:    info.Name,
		PhotoURL:       info.Picture,
		LastSignInTime: time.Now(),
	})
	if err != nil {
		a.serverErrorResponse(w, r, err)
		return
	}

	bundle := model.TokenBundle{
		AccessToken:  oauthToken.AccessToken,
		RefreshToken: oauthToken.RefreshToken,
	}
	if !oauthToken.Expiry.IsZero() {
		bundle.ExpiresAt = oauthToken.Expiry.Unix()
	}

	token, err := a.createSession(r.Context(), &model.Session{
		UID:   uid,
		Email: info.Email,
		Token: bundle,
	})
	if err != nil {
		a.serverErrorResponse(w, r, err)
		return
	}

	if err := a.writeJSON(w, http.StatusOK, map[string]string{"token": token}, nil); err != nil {
		a.serverErrorResponse(w, r, err)
	}
}

func (a *Api) logoutHandler(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("Authorization")
	if token == "" {
		a.unauthorizedResponse(w, r, errors.New("no token provided"))
		return
	}

	sessionID, err := a.jwts.GetSessionFromToken(strings.TrimPrefix(token, "Bearer "))
	if err != nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if err := a.sessions.Delete(r.Context(), sessionID); err != nil {
		a.logger.Infow("session delete on logout", "error", err)
	}

	w.WriteHeader(http.StatusNoContent)
}
