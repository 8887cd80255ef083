package config

// AppConfig holds runtime startup configuration loaded from YAML with
// environment overrides applied on top.
type AppConfig struct {
	Port           int                `yaml:"port"`
	Env            string             `yaml:"env"` // "development" | "production"
	RedisURL       string             `yaml:"redis_url"`
	Redis          RedisRuntimeConfig `yaml:"redis"`
	RedisRequired  bool               `yaml:"redis_required"`
	AllowedOrigins []string           `yaml:"allowed_origins"`
	JWTSecret      string             `yaml:"jwt_secret"`
	Auth           AuthConfig         `yaml:"auth"`
	Session        SessionConfig      `yaml:"session"`
	Pipeline       PipelineConfig     `yaml:"pipeline"`
	Provider       ProviderConfig     `yaml:"provider"`
	Model          ModelConfig        `yaml:"model"`
	Cache          CacheConfig        `yaml:"cache"`
	Jobs           JobsConfig         `yaml:"jobs"`
	Gateway        GatewayConfig      `yaml:"gateway"`
	RateLimit      RateLimitConfig    `yaml:"rate_limit"`
	Analytics      AnalyticsConfig    `yaml:"analytics"`
	Locale         LocaleConfig       `yaml:"locale"`
}

type RedisRuntimeConfig struct {
	URL      string            `yaml:"url"`
	Host     string            `yaml:"host"`
	Port     int               `yaml:"port"`
	Username string            `yaml:"username"`
	Password string            `yaml:"password"`
	DB       int               `yaml:"db"`
	TLS      bool              `yaml:"tls"`
	Scheme   string            `yaml:"scheme"`
	Params   map[string]string `yaml:"params"`
}

// AuthConfig holds the shared bearer credential that session issuance
// validates against. An empty token disables session issuance.
type AuthConfig struct {
	APIToken string `yaml:"api_token"`
}

type SessionConfig struct {
	CookieTTLSeconds int    `yaml:"cookie_ttl_seconds"`
	CookieDomain     string `yaml:"cookie_domain"`
}

// PipelineConfig carries the per-stage deadlines and the gate confidence
// threshold for the CORE route shortcut.
type PipelineConfig struct {
	GateTimeoutMS       int     `yaml:"gate_timeout_ms"`
	FullIntentTimeoutMS int     `yaml:"full_intent_timeout_ms"`
	FilterTimeoutMS     int     `yaml:"filter_timeout_ms"`
	ProviderTimeoutMS   int     `yaml:"provider_timeout_ms"`
	GateConfidence      float64 `yaml:"gate_confidence"`
}

type ProviderConfig struct {
	APIKey        string `yaml:"api_key"`
	BaseURL       string `yaml:"base_url"`
	GeocodeURL    string `yaml:"geocode_url"`
	MaxConcurrent int    `yaml:"max_concurrent"`
	QueueWaitMS   int    `yaml:"queue_wait_ms"`
}

type ModelConfig struct {
	Provider        string `yaml:"provider"` // openai | openai-compatible | anthropic
	APIKey          string `yaml:"api_key"`
	Endpoint        string `yaml:"endpoint"`
	Name            string `yaml:"name"`
	GateName        string `yaml:"gate_name"` // faster model for the gate; falls back to Name
	MaxOutputTokens int    `yaml:"max_output_tokens"`
}

type CacheConfig struct {
	L1Size              int `yaml:"l1_size"`
	L1TTLSeconds        int `yaml:"l1_ttl_seconds"`
	L2TTLSeconds        int `yaml:"l2_ttl_seconds"`
	L2OpenNowTTLSeconds int `yaml:"l2_open_now_ttl_seconds"`
}

type JobsConfig struct {
	TTLSeconds int `yaml:"ttl_seconds"`
}

type GatewayConfig struct {
	BacklogSize       int `yaml:"backlog_size"`
	BacklogTTLSeconds int `yaml:"backlog_ttl_seconds"`
}

type RateLimitConfig struct {
	WindowMS       int `yaml:"window_ms"`
	Max            int `yaml:"max"`
	PhotoPerMinute int `yaml:"photo_per_minute"`
}

type AnalyticsConfig struct {
	RingSize int `yaml:"ring_size"`
}

// LocaleConfig names the home market: queries in this language targeting
// this region keep their original text for provider locality.
type LocaleConfig struct {
	Region   string `yaml:"region"`
	Language string `yaml:"language"`
	Timezone string `yaml:"timezone"`
}

type rawAppConfig struct {
	Port               int                `yaml:"port"`
	Env                string             `yaml:"env"`
	NodeEnv            string             `yaml:"node_env"`
	RedisURL           string             `yaml:"redis_url"`
	L2CacheURL         string             `yaml:"l2_cache_url"`
	Redis              rawRedisConfig     `yaml:"redis"`
	RedisRequired      *bool              `yaml:"redis_required"`
	RedisHost          string             `yaml:"redis_host"`
	RedisPort          int                `yaml:"redis_port"`
	RedisUsername      string             `yaml:"redis_username"`
	RedisPassword      string             `yaml:"redis_password"`
	RedisDB            *int               `yaml:"redis_db"`
	RedisTLS           *bool              `yaml:"redis_tls"`
	AllowedOrigins     []string           `yaml:"allowed_origins"`
	FrontendOrigins    []string           `yaml:"frontend_origins"`
	CORSAllowedOrigins []string           `yaml:"cors_allowed_origins"`
	JWTSecret          string             `yaml:"jwt_secret"`
	JWTSecretLegacy    string             `yaml:"jwtsecret"`
	Auth               rawAuthConfig      `yaml:"auth"`
	AuthToken          string             `yaml:"auth_token"`
	Session            rawSessionConfig   `yaml:"session"`
	CookieDomain       string             `yaml:"cookie_domain"`
	SessionTTLSeconds  *int               `yaml:"session_cookie_ttl_seconds"`
	Pipeline           rawPipelineConfig  `yaml:"pipeline"`
	GateTimeoutMS      *int               `yaml:"gate_timeout_ms"`
	FullIntentMS       *int               `yaml:"full_intent_timeout_ms"`
	FilterTimeoutMS    *int               `yaml:"filter_timeout_ms"`
	ProviderTimeoutMS  *int               `yaml:"provider_timeout_ms"`
	Provider           rawProviderConfig  `yaml:"provider"`
	ProviderAPIKey     string             `yaml:"provider_api_key"`
	Model              rawModelConfig     `yaml:"model"`
	ModelAPIKey        string             `yaml:"model_api_key"`
	Cache              rawCacheConfig     `yaml:"cache"`
	Jobs               rawJobsConfig      `yaml:"jobs"`
	Gateway            rawGatewayConfig   `yaml:"gateway"`
	RateLimit          rawRateLimitConfig `yaml:"rate_limit"`
	RateLimitWindowMS  *int               `yaml:"rate_limit_window_ms"`
	RateLimitMax       *int               `yaml:"rate_limit_max"`
	Analytics          rawAnalyticsConfig `yaml:"analytics"`
	Locale             rawLocaleConfig    `yaml:"locale"`
	Timezone           string             `yaml:"timezone"`
	TZ                 string             `yaml:"tz"`
}

type rawRedisConfig struct {
	URL      string            `yaml:"url"`
	Host     string            `yaml:"host"`
	Port     int               `yaml:"port"`
	Username string            `yaml:"username"`
	Password string            `yaml:"password"`
	DB       *int              `yaml:"db"`
	TLS      *bool             `yaml:"tls"`
	Scheme   string            `yaml:"scheme"`
	Params   map[string]string `yaml:"params"`
}

type rawAuthConfig struct {
	APIToken string `yaml:"api_token"`
	Token    string `yaml:"token"`
}

type rawSessionConfig struct {
	CookieTTLSeconds *int   `yaml:"cookie_ttl_seconds"`
	CookieDomain     string `yaml:"cookie_domain"`
}

type rawPipelineConfig struct {
	GateTimeoutMS       *int     `yaml:"gate_timeout_ms"`
	FullIntentTimeoutMS *int     `yaml:"full_intent_timeout_ms"`
	FilterTimeoutMS     *int     `yaml:"filter_timeout_ms"`
	ProviderTimeoutMS   *int     `yaml:"provider_timeout_ms"`
	GateConfidence      *float64 `yaml:"gate_confidence"`
}

type rawProviderConfig struct {
	APIKey        string `yaml:"api_key"`
	Key           string `yaml:"key"`
	BaseURL       string `yaml:"base_url"`
	GeocodeURL    string `yaml:"geocode_url"`
	MaxConcurrent *int   `yaml:"max_concurrent"`
	QueueWaitMS   *int   `yaml:"queue_wait_ms"`
}

type rawModelConfig struct {
	Provider        string `yaml:"provider"`
	Type            string `yaml:"type"`
	APIKey          string `yaml:"api_key"`
	Endpoint        string `yaml:"endpoint"`
	BaseURL         string `yaml:"base_url"`
	Name            string `yaml:"name"`
	DefaultModel    string `yaml:"default_model"`
	GateName        string `yaml:"gate_name"`
	MaxOutputTokens *int   `yaml:"max_output_tokens"`
}

type rawCacheConfig struct {
	L1Size              *int `yaml:"l1_size"`
	L1TTLSeconds        *int `yaml:"l1_ttl_seconds"`
	L2TTLSeconds        *int `yaml:"l2_ttl_seconds"`
	L2OpenNowTTLSeconds *int `yaml:"l2_open_now_ttl_seconds"`
}

type rawJobsConfig struct {
	TTLSeconds *int `yaml:"ttl_seconds"`
}

type rawGatewayConfig struct {
	BacklogSize       *int `yaml:"backlog_size"`
	BacklogTTLSeconds *int `yaml:"backlog_ttl_seconds"`
}

type rawRateLimitConfig struct {
	WindowMS       *int `yaml:"window_ms"`
	Max            *int `yaml:"max"`
	PhotoPerMinute *int `yaml:"photo_per_minute"`
}

type rawAnalyticsConfig struct {
	RingSize *int `yaml:"ring_size"`
}

type rawLocaleConfig struct {
	Region   string `yaml:"region"`
	Language string `yaml:"language"`
	Timezone string `yaml:"timezone"`
}
