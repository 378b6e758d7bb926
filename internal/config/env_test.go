package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnvDefaults(t *testing.T) {
	for _, k := range []string{"APP_ADDR", "DB_DSN", "REDIS_ADDR", "JWT_TTL", "MAX_MAIN_PACKAGES", "CORS_ALLOWED_ORIGINS"} {
		t.Setenv(k, "")
	}

	cfg, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, 168*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 30*time.Second, cfg.BusCacheTTL)
	assert.Equal(t, 5, cfg.MaxMainPackages)
	assert.Empty(t, cfg.RedisAddr)
	assert.True(t, cfg.MetricsEnabled)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("APP_ADDR", " :9090 ")
	t.Setenv("MAX_MAIN_PACKAGES", "3")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("BUS_CACHE_TTL", "1m")

	cfg, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.AppAddr)
	assert.Equal(t, 3, cfg.MaxMainPackages)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, time.Minute, cfg.BusCacheTTL)
}

func TestLoadEnvRejectsBadDuration(t *testing.T) {
	t.Setenv("JWT_TTL", "forever")
	_, err := LoadEnv()
	require.Error(t, err)
}

func TestDSN(t *testing.T) {
	e := Env{DBUser: "app", DBPassword: "pw", DBHost: "db:3306", DBName: "tour"}
	assert.True(t, strings.HasPrefix(e.DSN(), "app:pw@tcp(db:3306)/tour?parseTime=true"))

	e.DBDSN = "custom"
	assert.Equal(t, "custom", e.DSN())
}
