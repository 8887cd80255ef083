package config

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"

	defaultPort = 8080
	defaultEnv  = "development"

	defaultRedisHost = "localhost"
	defaultRedisPort = 6379
	defaultRedisDB   = 0

	defaultGateTimeoutMS       = 3000
	defaultFullIntentTimeoutMS = 6000
	defaultFilterTimeoutMS     = 4000
	defaultProviderTimeoutMS   = 3000
	defaultGateConfidence      = 0.85

	defaultProviderBaseURL       = "https://places.googleapis.com"
	defaultProviderGeocodeURL    = "https://maps.googleapis.com/maps/api/geocode/json"
	defaultProviderMaxConcurrent = 8
	defaultProviderQueueWaitMS   = 2000

	defaultModelProvider = "openai"
	defaultModelName     = "gpt-4o-mini"
	defaultMaxOutputTok  = 1024

	defaultL1CacheSize         = 500
	defaultL1CacheTTLSeconds   = 60
	defaultL2CacheTTLSeconds   = 900
	defaultL2OpenNowTTLSeconds = 120

	defaultJobTTLSeconds = 3600

	defaultBacklogSize       = 50
	defaultBacklogTTLSeconds = 120

	defaultRateLimitWindowMS = 60000
	defaultRateLimitMax      = 60
	defaultPhotoPerMinute    = 60

	defaultSessionTTLSeconds = 604800

	defaultAnalyticsRingSize = 1000

	defaultLocaleRegion   = "IL"
	defaultLocaleLanguage = "he"
	defaultTimezone       = "Asia/Jerusalem"
)
