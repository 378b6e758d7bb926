package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Env struct {
	AppAddr string `env:"APP_ADDR" envDefault:":8080"`
	GinMode string `env:"GIN_MODE"`

	DBDSN      string `env:"DB_DSN"`
	DBUser     string `env:"DB_USER" envDefault:"root"`
	DBPassword string `env:"DB_PASSWORD"`
	DBHost     string `env:"DB_HOST" envDefault:"127.0.0.1:3306"`
	DBName     string `env:"DB_NAME" envDefault:"college_tour"`

	// Empty RedisAddr disables the bus list cache.
	RedisAddr   string        `env:"REDIS_ADDR"`
	RedisDB     int           `env:"REDIS_DB" envDefault:"0"`
	BusCacheTTL time.Duration `env:"BUS_CACHE_TTL" envDefault:"30s"`

	JWTSecret    string        `env:"JWT_SECRET" envDefault:"change-me"`
	JWTTTL       time.Duration `env:"JWT_TTL" envDefault:"168h"`
	CookieSecure bool          `env:"COOKIE_SECURE" envDefault:"false"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://localhost:5173"`

	MetricsEnabled  bool `env:"METRICS_ENABLED" envDefault:"true"`
	MaxMainPackages int  `env:"MAX_MAIN_PACKAGES" envDefault:"5"`
}

// LoadEnv reads the process environment into Env.
func LoadEnv() (Env, error) {
	var cfg Env
	if err := env.Parse(&cfg); err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.AppAddr = strings.TrimSpace(cfg.AppAddr)
	cfg.GinMode = strings.TrimSpace(cfg.GinMode)
	origins := cfg.CORSAllowedOrigins[:0]
	for _, o := range cfg.CORSAllowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	cfg.CORSAllowedOrigins = origins
	return cfg, nil
}

// DSN returns DB_DSN or builds one from the DB_* parts. Repositories rely on
// clientFoundRows so an UPDATE that matches a row reports it as affected.
func (e Env) DSN() string {
	if strings.TrimSpace(e.DBDSN) != "" {
		return e.DBDSN
	}
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=Local&charset=utf8mb4&clientFoundRows=true&timeout=5s&readTimeout=30s&writeTimeout=30s",
		e.DBUser,
		e.DBPassword,
		e.DBHost,
		e.DBName,
	)
}
