package config

import (
	"os"
	"strconv"
	"strings"
)

// Environment variable names with operational effect. LOG_LEVEL and
// LOG_PRETTY are consumed directly by the logging package at boot.
const (
	EnvGateTimeoutMS       = "GATE_TIMEOUT_MS"
	EnvFullIntentTimeoutMS = "FULL_INTENT_TIMEOUT_MS"
	EnvFilterTimeoutMS     = "FILTER_TIMEOUT_MS"
	EnvProviderTimeoutMS   = "PROVIDER_TIMEOUT_MS"
	EnvRateLimitWindowMS   = "RATE_LIMIT_WINDOW_MS"
	EnvRateLimitMax        = "RATE_LIMIT_MAX"
	EnvL2CacheURL          = "L2_CACHE_URL"
	EnvL2CacheTTLSeconds   = "L2_CACHE_TTL_SECONDS"
	EnvProviderAPIKey      = "PROVIDER_API_KEY"
	EnvModelAPIKey         = "MODEL_API_KEY"
	EnvAuthAPIToken        = "AUTH_API_TOKEN"
	EnvJWTSecret           = "JWT_SECRET"
	EnvSessionTTLSeconds   = "SESSION_COOKIE_TTL_SECONDS"
	EnvCookieDomain        = "COOKIE_DOMAIN"
	EnvFrontendOrigins     = "FRONTEND_ORIGINS"
)

// applyEnvOverrides layers environment variables over the YAML config.
// Env wins so container deployments can run without a config file.
func applyEnvOverrides(cfg *AppConfig) {
	envInt(EnvGateTimeoutMS, &cfg.Pipeline.GateTimeoutMS)
	envInt(EnvFullIntentTimeoutMS, &cfg.Pipeline.FullIntentTimeoutMS)
	envInt(EnvFilterTimeoutMS, &cfg.Pipeline.FilterTimeoutMS)
	envInt(EnvProviderTimeoutMS, &cfg.Pipeline.ProviderTimeoutMS)
	envInt(EnvRateLimitWindowMS, &cfg.RateLimit.WindowMS)
	envInt(EnvRateLimitMax, &cfg.RateLimit.Max)
	envInt(EnvL2CacheTTLSeconds, &cfg.Cache.L2TTLSeconds)
	envInt(EnvSessionTTLSeconds, &cfg.Session.CookieTTLSeconds)

	if v := envStr(EnvL2CacheURL); v != "" {
		cfg.Redis.URL = v
		cfg.Redis = normalizeRedisConfig(cfg.Redis)
		cfg.RedisURL = cfg.Redis.URLValue()
	}
	if v := envStr(EnvProviderAPIKey); v != "" {
		cfg.Provider.APIKey = v
	}
	if v := envStr(EnvModelAPIKey); v != "" {
		cfg.Model.APIKey = v
	}
	if v := envStr(EnvAuthAPIToken); v != "" {
		cfg.Auth.APIToken = v
	}
	if v := envStr(EnvJWTSecret); v != "" {
		cfg.JWTSecret = v
	}
	if v := envStr(EnvCookieDomain); v != "" {
		cfg.Session.CookieDomain = v
	}
	if v := envStr(EnvFrontendOrigins); v != "" {
		cfg.AllowedOrigins = normalizeOrigins(strings.Split(v, ","))
	}
}

func envStr(name string) string {
	return strings.TrimSpace(os.Getenv(name))
}

func envInt(name string, dst *int) {
	v := envStr(name)
	if v == "" {
		return
	}
	if n, err := strconv.Atoi(v); err == nil {
		*dst = n
	}
}
