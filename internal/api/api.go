package api

import (
	"context"
	"io"
	"net/http"

	"github.com/Palpa-inc/smartcal/internal/database"
	"github.com/Palpa-inc/smartcal/internal/model"
	"github.com/Palpa-inc/smartcal/internal/pkg/oauth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

type Api struct {
	handler    http.Handler
	logger     *zap.SugaredLogger
	randSource io.Reader

	sessionTokenLength int

	jwts        jwtManager
	tokenParser tokenParser
	sessions    sessionRepository
	calendars   calendarService
	cache       cacheService

	db    database.Queryable
	users userRepository
}

type jwtManager interface {
	CreateToken(sessionID string) (string, error)
	GetSessionFromToken(token string) (string, error)
}

type tokenParser interface {
	GetInfoGoogle(ctx context.Context, authCode string) (*oauth.GoogleInfo, *oauth2.Token, error)
}

type sessionRepository interface {
	Add(ctx context.Context, id string, session *model.Session) error
	Get(ctx context.Context, id string) (*model.Session, error)
	Delete(ctx context.Context, id string) error
}

type calendarService interface {
	ListPrimaryAndEvents(ctx context.Context, sessionID string) (*model.PrimaryListing, error)
	ListEvents(ctx context.Context, sessionID, calendarID string) (*model.EventListing, error)
	InsertEvent(ctx context.Context, sessionID, calendarID string, event *model.Event) (*model.Event, error)
}

type cacheService interface {
	MergeCalendarInfo(ctx context.Context, userID, email string, patch model.CalendarInfoPatch) error
}

type userRepository interface {
	UpsertUser(ctx context.Context, q database.Queryable, uid string, user *model.UserCreate) (string, error)
	GetUserByUID(ctx context.Context, q database.Queryable, uid string) (*model.User, error)
	AddHideKeyword(ctx context.Context, q database.Queryable, uid, keyword string) error
	RemoveHideKeyword(ctx context.Context, q database.Queryable, uid, keyword string) error
}

func NewApi(
	logger *zap.SugaredLogger,
	randSource io.Reader,
	sessionTokenLength int,
	jwts jwtManager,
	tokenParser tokenParser,
	sessions sessionRepository,
	calendars calendarService,
	cache cacheService,
	db database.Queryable,
	users userRepository,
) *Api {
	a := &Api{
		logger:             logger,
		randSource:         randSource,
		sessionTokenLength: sessionTokenLength,
		jwts:               jwts,
		tokenParser:        tokenParser,
		sessions:           sessions,
		calendars:          calendars,
		cache:              cache,
		db:                 db,
		users:              users,
	}
	a.setupHandler()

	return a
}

func (a *Api) setupHandler() {
	middleware.DefaultLogger = func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a.logger.Debugw(r.URL.RequestURI(),
				"addr", r.RemoteAddr,
				"protocol", r.Proto,
				"method", r.Method,
			)
			next.ServeHTTP(w, r)
		})
	}

	r := chi.NewMux()

	r.Use(middleware.Logger, middleware.Recoverer, middleware.StripSlashes)
	r.NotFound(a.notFoundResponse)
	r.MethodNotAllowed(a.methodNotAllowedResponse)

	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signin/google", a.signInGoogleHandler)
		r.Post("/logout", a.logoutHandler)
	})

	r.With(a.auth).Route("/", func(r chi.Router) {
		r.Route("/calendar", func(r chi.Router) {
			r.Get("/", a.getPrimaryCalendarHandler)
			r.Get("/{calendarId}", a.getCalendarEventsHandler)
			r.Post("/{calendarId}", a.createEventHandler)
			r.Post("/{calendarId}/tentative", a.createTentativeEventsHandler)
			r.Patch("/{calendarId}", a.updateCalendarInfoHandler)
		})

		r.With(a.userCtx).Route("/user", func(r chi.Router) {
			r.Get("/", a.getUserHandler)
			r.Post("/keywords", a.addKeywordHandler)
			r.Delete("/keywords/{keyword}", a.removeKeywordHandler)
		})
	})

	a.handler = r
}

func (a *Api) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}
