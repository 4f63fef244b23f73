package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config is the central typed configuration struct.
type Config struct {
	App       AppConfig
	Log       LogConfig
	Inspector InspectorConfig
	Container ContainerConfig
}

type AppConfig struct {
	Name  string
	Env   string // local | production | testing
	Debug bool
}

type LogConfig struct {
	Level  string // debug | info | warn | error
	Format string // text | json | logfmt
	Prefix string
}

// InspectorConfig controls the HTTP inspector served by `scopes serve`.
type InspectorConfig struct {
	Host string
	Port string
}

// Addr returns host:port for net/http.
func (c InspectorConfig) Addr() string { return c.Host + ":" + c.Port }

type ContainerConfig struct {
	// Warm builds eager bindings during boot.
	Warm bool
}

// Load reads .env (if present) and populates a Config from environment variables.
// Call once at bootstrap: cfg := config.Load()
func Load(envFiles ...string) *Config {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	// Non-fatal: .env may not exist in production
	_ = godotenv.Load(files...)

	return &Config{
		App: AppConfig{
			Name:  env("APP_NAME", "GoScopes"),
			Env:   env("APP_ENV", "local"),
			Debug: envBool("APP_DEBUG", false),
		},
		Log: LogConfig{
			Level:  env("LOG_LEVEL", "info"),
			Format: env("LOG_FORMAT", "text"),
			Prefix: env("LOG_PREFIX", "scopes"),
		},
		Inspector: InspectorConfig{
			Host: env("INSPECTOR_HOST", "127.0.0.1"),
			Port: env("INSPECTOR_PORT", "8000"),
		},
		Container: ContainerConfig{
			Warm: envBool("CONTAINER_WARM", true),
		},
	}
}

// ── helpers ─────────────────────────────────────────────────────────────────

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
