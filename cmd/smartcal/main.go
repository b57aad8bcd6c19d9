package main

import (
	"context"
	"crypto/rand"
	"log"
	"net/http"

	"github.com/Palpa-inc/smartcal/internal/api"
	calendars_service "github.com/Palpa-inc/smartcal/internal/business/calendars"
	cache_service "github.com/Palpa-inc/smartcal/internal/business/cache"
	"github.com/Palpa-inc/smartcal/internal/config"
	"github.com/Palpa-inc/smartcal/internal/database"
	"github.com/Palpa-inc/smartcal/internal/database/accounts"
	"github.com/Palpa-inc/smartcal/internal/database/user"
	"github.com/Palpa-inc/smartcal/internal/pkg/gcal"
	"github.com/Palpa-inc/smartcal/internal/pkg/jwt"
	"github.com/Palpa-inc/smartcal/internal/pkg/oauth"
	"github.com/Palpa-inc/smartcal/internal/pkg/token"
	"github.com/Palpa-inc/smartcal/internal/redis"
	"github.com/xlab/closer"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	ctx := context.Background()

	logger, err := initLogger()
	if err != nil {
		log.Fatalf("unable to initialize logger: %v", err)
	}

	jwts := jwt.NewManager(config.Secret(), config.SessionTTL())
	tokenParser := oauth.NewParser(config.GoogleClientID(), config.GoogleClientSecret(), config.RedirectURL())

	redisPool := redis.NewRedisPool(logger, config.RedisURL())
	sessions := redis.NewSessionRepository(redisPool, logger, config.SessionTTL())
	updates := redis.NewCalendarUpdates(redisPool, logger)

	db, err := database.NewPGX(ctx, config.PostgresURL())
	if err != nil {
		log.Fatalf("unable to initialize db: %v", err)
	}
	usersRepository := user.NewRepository()
	accountsRepository := accounts.NewRepository()

	tokens := token.NewManager(logger, sessions, token.Config{
		TokenURL:     config.GoogleTokenURL(),
		ClientID:     config.GoogleClientID(),
		ClientSecret: config.GoogleClientSecret(),
		SafetyWindow: config.TokenSafetyWindow(),
	})

	upstream := gcal.NewClient(logger)
	calendarsService := calendars_service.NewService(logger, tokens, upstream)
	cacheService := cache_service.NewService(logger, db, accountsRepository, updates)

	api := api.NewApi(
		logger,
		rand.Reader,
		config.SessionTokenLength(),
		jwts,
		tokenParser,
		sessions,
		calendarsService,
		cacheService,
		db,
		usersRepository,
	)

	errLogger, err := zap.NewStdLogAt(logger.Desugar(), zap.ErrorLevel)
	if err != nil {
		logger.Fatalw("error initiating server logger", "err", err)
	}

	server := &http.Server{
		Addr:     ":" + config.Port(),
		Handler:  api,
		ErrorLog: errLogger,
	}

	logger.Infow("Started server", "port", config.Port())
	logger.Fatalw("server error", "err", server.ListenAndServe())
}

func initLogger() (*zap.SugaredLogger, error) {
	var logger *zap.Logger
	var err error

	if config.Production() {
		logger, err = zap.NewProduction()
	} else {
		conf := zap.NewDevelopmentConfig()
		conf.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		logger, err = conf.Build()
	}

	if err != nil {
		return nil, err
	}

	closer.Bind(func() {
		_ = logger.Sync()
	})

	return logger.Sugar(), nil
}
