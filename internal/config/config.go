package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env"
)

type config struct {
	Production         bool          `env:"PRODUCTION" envDefault:"false"`
	Port               string        `env:"PORT" envDefault:"80"`
	PostgresUrl        string        `env:"POSTGRES_URL,required"`
	RedisUrl           string        `env:"REDIS_URL" envDefault:"redis:6379"`
	Secret             string        `env:"SECRET,required"`
	SessionTTL         time.Duration `env:"SESSION_TTL" envDefault:"168h"`
	SessionTokenLength int           `env:"SESSION_TOKEN_LENGTH" envDefault:"32"`
	GoogleClientID     string        `env:"GOOGLE_CLIENT_ID,required"`
	GoogleClientSecret string        `env:"GOOGLE_CLIENT_SECRET,required"`
	GoogleTokenURL     string        `env:"GOOGLE_TOKEN_URL" envDefault:"https://oauth2.googleapis.com/token"`
	RedirectURL        string        `env:"REDIRECT_URL" envDefault:""`
	TokenSafetyWindow  time.Duration `env:"TOKEN_SAFETY_WINDOW" envDefault:"300s"`
}

var conf config

func init() {
	if err := env.Parse(&conf); err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
}

func Production() bool {
	return conf.Production
}

func Port() string {
	return conf.Port
}

func PostgresURL() string {
	return conf.PostgresUrl
}

func RedisURL() string {
	return conf.RedisUrl
}

func Secret() string {
	return conf.Secret
}

func SessionTTL() time.Duration {
	return conf.SessionTTL
}

func SessionTokenLength() int {
	return conf.SessionTokenLength
}

func GoogleClientID() string {
	return conf.GoogleClientID
}

func GoogleClientSecret() string {
	return conf.GoogleClientSecret
}

func GoogleTokenURL() string {
	return conf.GoogleTokenURL
}

func RedirectURL() string {
	return conf.RedirectURL
}

func TokenSafetyWindow() time.Duration {
	return conf.TokenSafetyWindow
}
