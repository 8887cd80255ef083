package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML config at path, fills defaults, applies legacy key
// aliases and finally environment overrides. A missing file is not an
// error: env-only deployments run from defaults.
func Load(configPath string) (*AppConfig, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		path = DefaultConfigPath
	}

	cfg := defaultAppConfig()

	content, err := os.ReadFile(path)
	switch {
	case err == nil:
		decoder := yaml.NewDecoder(bytes.NewReader(content))
		decoder.KnownFields(true)
		raw := rawAppConfig{}
		if decodeErr := decoder.Decode(&raw); decodeErr != nil {
			return nil, fmt.Errorf("parse config file %q: %w", path, decodeErr)
		}
		applyRawAppConfig(&cfg, raw)
	case os.IsNotExist(err):
		// run from defaults + env
	default:
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}

	applyEnvOverrides(&cfg)

	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d, expected 1-65535", cfg.Port)
	}
	if cfg.Redis.Port < 1 || cfg.Redis.Port > 65535 {
		return nil, fmt.Errorf("invalid redis.port %d, expected 1-65535", cfg.Redis.Port)
	}
	if cfg.Redis.DB < 0 {
		return nil, fmt.Errorf("invalid redis.db %d, expected >= 0", cfg.Redis.DB)
	}
	if cfg.Pipeline.GateConfidence < 0 || cfg.Pipeline.GateConfidence > 1 {
		return nil, fmt.Errorf("invalid pipeline.gate_confidence %v, expected 0-1", cfg.Pipeline.GateConfidence)
	}
	if _, err := time.LoadLocation(cfg.Locale.Timezone); err != nil {
		return nil, fmt.Errorf("invalid locale.timezone %q: %w", cfg.Locale.Timezone, err)
	}

	return &cfg, nil
}

func defaultAppConfig() AppConfig {
	cfg := AppConfig{
		Port: defaultPort,
		Env:  defaultEnv,
		Redis: RedisRuntimeConfig{
			Host: defaultRedisHost,
			Port: defaultRedisPort,
			DB:   defaultRedisDB,
		},
		Session: SessionConfig{
			CookieTTLSeconds: defaultSessionTTLSeconds,
		},
		Pipeline: PipelineConfig{
			GateTimeoutMS:       defaultGateTimeoutMS,
			FullIntentTimeoutMS: defaultFullIntentTimeoutMS,
			FilterTimeoutMS:     defaultFilterTimeoutMS,
			ProviderTimeoutMS:   defaultProviderTimeoutMS,
			GateConfidence:      defaultGateConfidence,
		},
		Provider: ProviderConfig{
			BaseURL:       defaultProviderBaseURL,
			GeocodeURL:    defaultProviderGeocodeURL,
			MaxConcurrent: defaultProviderMaxConcurrent,
			QueueWaitMS:   defaultProviderQueueWaitMS,
		},
		Model: ModelConfig{
			Provider:        defaultModelProvider,
			Name:            defaultModelName,
			MaxOutputTokens: defaultMaxOutputTok,
		},
		Cache: CacheConfig{
			L1Size:              defaultL1CacheSize,
			L1TTLSeconds:        defaultL1CacheTTLSeconds,
			L2TTLSeconds:        defaultL2CacheTTLSeconds,
			L2OpenNowTTLSeconds: defaultL2OpenNowTTLSeconds,
		},
		Jobs: JobsConfig{
			TTLSeconds: defaultJobTTLSeconds,
		},
		Gateway: GatewayConfig{
			BacklogSize:       defaultBacklogSize,
			BacklogTTLSeconds: defaultBacklogTTLSeconds,
		},
		RateLimit: RateLimitConfig{
			WindowMS:       defaultRateLimitWindowMS,
			Max:            defaultRateLimitMax,
			PhotoPerMinute: defaultPhotoPerMinute,
		},
		Analytics: AnalyticsConfig{
			RingSize: defaultAnalyticsRingSize,
		},
		Locale: LocaleConfig{
			Region:   defaultLocaleRegion,
			Language: defaultLocaleLanguage,
			Timezone: defaultTimezone,
		},
	}
	cfg.Redis = normalizeRedisConfig(cfg.Redis)
	cfg.RedisURL = cfg.Redis.URLValue()
	return cfg
}

func applyRawAppConfig(cfg *AppConfig, raw rawAppConfig) {
	if raw.Port != 0 {
		cfg.Port = raw.Port
	}
	if v := strings.TrimSpace(raw.Env); v != "" {
		cfg.Env = v
	}
	if v := strings.TrimSpace(raw.NodeEnv); v != "" {
		cfg.Env = v
	}

	cfg.Redis = applyRawRedisConfig(cfg.Redis, raw)
	if raw.RedisRequired != nil {
		cfg.RedisRequired = *raw.RedisRequired
	}

	switch {
	case raw.FrontendOrigins != nil:
		cfg.AllowedOrigins = normalizeOrigins(raw.FrontendOrigins)
	case raw.AllowedOrigins != nil:
		cfg.AllowedOrigins = normalizeOrigins(raw.AllowedOrigins)
	case raw.CORSAllowedOrigins != nil:
		cfg.AllowedOrigins = normalizeOrigins(raw.CORSAllowedOrigins)
	}

	if v := strings.TrimSpace(raw.JWTSecret); v != "" {
		cfg.JWTSecret = v
	}
	if v := strings.TrimSpace(raw.JWTSecretLegacy); v != "" {
		cfg.JWTSecret = v
	}

	if v := strings.TrimSpace(raw.Auth.APIToken); v != "" {
		cfg.Auth.APIToken = v
	}
	if v := strings.TrimSpace(raw.Auth.Token); v != "" {
		cfg.Auth.APIToken = v
	}
	if v := strings.TrimSpace(raw.AuthToken); v != "" {
		cfg.Auth.APIToken = v
	}

	if raw.Session.CookieTTLSeconds != nil {
		cfg.Session.CookieTTLSeconds = *raw.Session.CookieTTLSeconds
	}
	if raw.SessionTTLSeconds != nil {
		cfg.Session.CookieTTLSeconds = *raw.SessionTTLSeconds
	}
	if v := strings.TrimSpace(raw.Session.CookieDomain); v != "" {
		cfg.Session.CookieDomain = v
	}
	if v := strings.TrimSpace(raw.CookieDomain); v != "" {
		cfg.Session.CookieDomain = v
	}

	applyIntPtr(&cfg.Pipeline.GateTimeoutMS, raw.Pipeline.GateTimeoutMS, raw.GateTimeoutMS)
	applyIntPtr(&cfg.Pipeline.FullIntentTimeoutMS, raw.Pipeline.FullIntentTimeoutMS, raw.FullIntentMS)
	applyIntPtr(&cfg.Pipeline.FilterTimeoutMS, raw.Pipeline.FilterTimeoutMS, raw.FilterTimeoutMS)
	applyIntPtr(&cfg.Pipeline.ProviderTimeoutMS, raw.Pipeline.ProviderTimeoutMS, raw.ProviderTimeoutMS)
	if raw.Pipeline.GateConfidence != nil {
		cfg.Pipeline.GateConfidence = *raw.Pipeline.GateConfidence
	}

	if v := strings.TrimSpace(raw.Provider.APIKey); v != "" {
		cfg.Provider.APIKey = v
	}
	if v := strings.TrimSpace(raw.Provider.Key); v != "" {
		cfg.Provider.APIKey = v
	}
	if v := strings.TrimSpace(raw.ProviderAPIKey); v != "" {
		cfg.Provider.APIKey = v
	}
	if v := strings.TrimSpace(raw.Provider.BaseURL); v != "" {
		cfg.Provider.BaseURL = strings.TrimRight(v, "/")
	}
	if v := strings.TrimSpace(raw.Provider.GeocodeURL); v != "" {
		cfg.Provider.GeocodeURL = strings.TrimRight(v, "/")
	}
	applyIntPtr(&cfg.Provider.MaxConcurrent, raw.Provider.MaxConcurrent, nil)
	applyIntPtr(&cfg.Provider.QueueWaitMS, raw.Provider.QueueWaitMS, nil)

	if v := strings.TrimSpace(raw.Model.Provider); v != "" {
		cfg.Model.Provider = strings.ToLower(v)
	}
	if v := strings.TrimSpace(raw.Model.Type); v != "" {
		cfg.Model.Provider = strings.ToLower(v)
	}
	if v := strings.TrimSpace(raw.Model.APIKey); v != "" {
		cfg.Model.APIKey = v
	}
	if v := strings.TrimSpace(raw.ModelAPIKey); v != "" {
		cfg.Model.APIKey = v
	}
	if v := strings.TrimSpace(raw.Model.Endpoint); v != "" {
		cfg.Model.Endpoint = v
	}
	if v := strings.TrimSpace(raw.Model.BaseURL); v != "" {
		cfg.Model.Endpoint = v
	}
	if v := strings.TrimSpace(raw.Model.Name); v != "" {
		cfg.Model.Name = v
	}
	if v := strings.TrimSpace(raw.Model.DefaultModel); v != "" {
		cfg.Model.Name = v
	}
	if v := strings.TrimSpace(raw.Model.GateName); v != "" {
		cfg.Model.GateName = v
	}
	applyIntPtr(&cfg.Model.MaxOutputTokens, raw.Model.MaxOutputTokens, nil)

	applyIntPtr(&cfg.Cache.L1Size, raw.Cache.L1Size, nil)
	applyIntPtr(&cfg.Cache.L1TTLSeconds, raw.Cache.L1TTLSeconds, nil)
	applyIntPtr(&cfg.Cache.L2TTLSeconds, raw.Cache.L2TTLSeconds, nil)
	applyIntPtr(&cfg.Cache.L2OpenNowTTLSeconds, raw.Cache.L2OpenNowTTLSeconds, nil)

	applyIntPtr(&cfg.Jobs.TTLSeconds, raw.Jobs.TTLSeconds, nil)

	applyIntPtr(&cfg.Gateway.BacklogSize, raw.Gateway.BacklogSize, nil)
	applyIntPtr(&cfg.Gateway.BacklogTTLSeconds, raw.Gateway.BacklogTTLSeconds, nil)

	applyIntPtr(&cfg.RateLimit.WindowMS, raw.RateLimit.WindowMS, raw.RateLimitWindowMS)
	applyIntPtr(&cfg.RateLimit.Max, raw.RateLimit.Max, raw.RateLimitMax)
	applyIntPtr(&cfg.RateLimit.PhotoPerMinute, raw.RateLimit.PhotoPerMinute, nil)

	applyIntPtr(&cfg.Analytics.RingSize, raw.Analytics.RingSize, nil)

	if v := strings.TrimSpace(raw.Locale.Region); v != "" {
		cfg.Locale.Region = strings.ToUpper(v)
	}
	if v := strings.TrimSpace(raw.Locale.Language); v != "" {
		cfg.Locale.Language = strings.ToLower(v)
	}
	if v := strings.TrimSpace(raw.Locale.Timezone); v != "" {
		cfg.Locale.Timezone = v
	}
	if v := strings.TrimSpace(raw.Timezone); v != "" {
		cfg.Locale.Timezone = v
	}
	if v := strings.TrimSpace(raw.TZ); v != "" {
		cfg.Locale.Timezone = v
	}

	cfg.Redis = normalizeRedisConfig(cfg.Redis)
	cfg.RedisURL = cfg.Redis.URLValue()
	cfg.Env = normalizeEnv(cfg.Env)
}

// applyIntPtr applies the first non-nil override, nested key first.
func applyIntPtr(dst *int, nested, flat *int) {
	switch {
	case nested != nil:
		*dst = *nested
	case flat != nil:
		*dst = *flat
	}
}

// IsDev reports whether the app runs in development mode.
func (c *AppConfig) IsDev() bool {
	return c.Env != "production"
}

// GateTimeout returns the gate deadline as a duration.
func (c *AppConfig) GateTimeout() time.Duration {
	return time.Duration(c.Pipeline.GateTimeoutMS) * time.Millisecond
}

// FullIntentTimeout returns the full-extraction deadline as a duration.
func (c *AppConfig) FullIntentTimeout() time.Duration {
	return time.Duration(c.Pipeline.FullIntentTimeoutMS) * time.Millisecond
}

// FilterTimeout returns the filter-extractor deadline as a duration.
func (c *AppConfig) FilterTimeout() time.Duration {
	return time.Duration(c.Pipeline.FilterTimeoutMS) * time.Millisecond
}

// ProviderTimeout returns the place-provider deadline as a duration.
func (c *AppConfig) ProviderTimeout() time.Duration {
	return time.Duration(c.Pipeline.ProviderTimeoutMS) * time.Millisecond
}

// SessionTTL returns the session cookie lifetime.
func (c *AppConfig) SessionTTL() time.Duration {
	return time.Duration(c.Session.CookieTTLSeconds) * time.Second
}

// JobTTL returns the async job lifetime.
func (c *AppConfig) JobTTL() time.Duration {
	return time.Duration(c.Jobs.TTLSeconds) * time.Second
}

// Location resolves the configured timezone. Validated at load time.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Locale.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
