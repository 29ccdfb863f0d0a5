package config

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Env        string `env:"APP_ENV,default=dev"`
	Port       int    `env:"PORT,default=8080"`
	WorkerPort int    `env:"WORKER_PORT,default=8081"`

	// DBURL wins over the DB_* pieces when set.
	DBURL      string `env:"DATABASE_URL"`
	DBHost     string `env:"DB_HOST,default=127.0.0.1"`
	DBPort     string `env:"DB_PORT,default=5432"`
	DBUser     string `env:"DB_USER,default=recipehub"`
	DBPassword string `env:"DB_PASSWORD,default=recipehub"`
	DBName     string `env:"DB_NAME,default=recipehub"`
	DBSSLMode  string `env:"DB_SSLMODE,default=disable"`
	DBMaxConns int32  `env:"DB_MAX_CONNS,default=10"`

	RedisAddr     string `env:"REDIS_ADDR,default=127.0.0.1:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB,default=0"`

	SessionTTL        time.Duration `env:"SESSION_TTL,default=168h"`
	SessionCookieName string        `env:"SESSION_COOKIE_NAME,default=session_id"`
	ResetTokenTTL     time.Duration `env:"RESET_TOKEN_TTL,default=1h"`
	AppBaseURL        string        `env:"APP_BASE_URL,default=http://localhost:3000"`

	AdminEmail    string `env:"ADMIN_EMAIL"`
	AdminPassword string `env:"ADMIN_PASSWORD"`
	AdminName     string `env:"ADMIN_NAME,default=Admin User"`

	// Fault injection for the log notifier.
	NotifierDelay time.Duration `env:"NOTIFIER_DELAY,default=0s"`
	NotifierFail  bool          `env:"NOTIFIER_FAIL,default=false"`

	OTLPEndpoint   string   `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS,default=http://localhost:3000"`
}

// Load reads an optional .env file and then the process environment.
func Load(ctx context.Context) (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	if cfg.DBURL == "" {
		cfg.DBURL = cfg.buildDBURL()
	}

	return cfg, nil
}

func (c Config) IsProd() bool {
	return c.Env == "prod" || c.Env == "production"
}

func (c Config) buildDBURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     c.DBHost + ":" + c.DBPort,
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.DBSSLMode),
	}

	return u.String()
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}
