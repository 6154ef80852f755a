package app

import (
	"strings"

	"github.com/mioplatform/mio-backend/internal/platform/envutil"
)

type Config struct {
	Port        string
	Environment string
	Version     string

	RedisAddr   string
	MetricsAddr string
}

func LoadConfig() Config {
	return Config{
		Port:        envutil.Str("PORT", "8080"),
		Environment: envutil.Str("APP_ENV", "development"),
		Version:     envutil.Str("APP_VERSION", "dev"),
		RedisAddr:   strings.TrimSpace(envutil.Str("REDIS_ADDR", "")),
		MetricsAddr: strings.TrimSpace(envutil.Str("METRICS_ADDR", "")),
	}
}
