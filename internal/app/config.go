package app

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Env      string `envconfig:"APP_ENV" default:"dev"`
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`

	CORSAllow []string `envconfig:"CORS_ALLOW" default:"http://localhost:4200"`

	// Secret for resume tokens handed out on a successful name claim
	JWTSecret string `envconfig:"JWT_SECRET" default:"dev-secret-change"`

	// Optional: empty disables message history
	PGURL        string `envconfig:"PG_URL"`
	HistoryLimit int    `envconfig:"HISTORY_LIMIT" default:"50"`

	// Optional: empty keeps identity + fanout in-process
	RedisAddr string `envconfig:"REDIS_ADDR"`
	RedisDB   int    `envconfig:"REDIS_DB"`

	TypingTTL time.Duration `envconfig:"TYPING_TTL" default:"1s"`

	HTTPRateLimit   int `envconfig:"HTTP_RATE_LIMIT" default:"120"`  // requests per minute per IP
	TypingRateLimit int `envconfig:"TYPING_RATE_LIMIT" default:"10"` // typing events per second per connection
}

// LoadConfig populates Config from the environment
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
