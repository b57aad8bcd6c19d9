package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Palpa-inc/smartcal/internal/model"
	"github.com/Palpa-inc/smartcal/internal/pkg/jwt"
)

type contextKey string

const (
	contextKeySessionID = contextKey("sessionID")
	contextKeySession   = contextKey("session")
	contextKeyUser      = contextKey("user")
)

var errCantRetrieveSession = errors.New("can't retrieve session")

func (a *Api) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("Authorization")
		if token == "" {
			a.unauthorizedResponse(w, r, errors.New("no token provided"))
			return
		}

		token = strings.TrimPrefix(token, "Bearer ")

		sessionID, err := a.jwts.GetSessionFromToken(token)
		if err != nil {
			invalidTokenErr := &jwt.InvalidTokenError{}
			switch {
			case errors.As(err, &invalidTokenErr):
				a.unauthorizedResponse(w, r, invalidTokenErr)
			default:
				a.serverErrorResponse(w, r, err)
			}
			return
		}

		session, err := a.sessions.Get(r.Context(), sessionID)
		if err != nil {
			switch {
			case errors.Is(err, model.ErrNoRecord):
				a.unauthorizedResponse(w, r, errors.New("no such session"))
			default:
				a.serverErrorResponse(w, r, err)
			}
			return
		}

		ctx := context.WithValue(r.Context(), contextKeySessionID, sessionID)
		ctx = context.WithValue(ctx, contextKeySession, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *Api) userCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, ok := r.Context().Value(contextKeySession).(*model.Session)
		if !ok {
			a.serverErrorResponse(w, r, errCantRetrieveSession)
			return
		}

		user, err := a.users.GetUserByUID(r.Context(), a.db, session.UID)
		if err != nil {
			switch {
			case errors.Is(err, model.ErrNoRecord):
				a.forbiddenResponse(w, r, "user does not exist")
			default:
				a.serverErrorResponse(w, r, err)
			}
			return
		}

		userCtx := context.WithValue(r.Context(), contextKeyUser, user)
		next.ServeHTTP(w, r.WithContext(userCtx))
	})
}

func (a *Api) sessionFromContext(r *http.Request) (string, *model.Session, error) {
	id, ok := r.Context().Value(contextKeySessionID).(string)
	if !ok {
		return "", nil, errCantRetrieveSession
	}

	session, ok := r.Context().Value(contextKeySession).(*model.Session)
	if !ok {
		return "", nil, errCantRetrieveSession
	}

	return id, session, nil
}
