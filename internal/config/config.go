package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mandalnilabja/pixelrelay/internal/types"
)

// DefaultUpstreamURL is the generation service the original deployment used.
const DefaultUpstreamURL = "https://aiart-zroo.onrender.com/api/generate"

// Log store backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config holds application configuration loaded from environment and file.
// Priority: Env vars → config.toml → defaults
type Config struct {
	// ServerPort is the address to bind the server to (e.g., ":3000")
	ServerPort string

	// EnableWebUI serves the embedded gallery at /
	EnableWebUI bool

	// APIBaseURL is reported by /api/admin/config for the UI
	APIBaseURL string

	LogLevel  string
	LogFormat string

	Upstream UpstreamConfig
	Defaults types.Defaults
	LogStore LogStoreConfig
	Blob     BlobConfig
	Relay    RelayConfig
	Proxy    ProxyConfig

	// AdminPassword protects /api/admin when non-empty
	AdminPassword string

	// GenerateRateLimit caps /api/generate per client IP per minute; 0 disables
	GenerateRateLimit int
	// TrustProxy keys the rate limit on the X-Forwarded-For hop appended by
	// a fronting proxy instead of the transport address
	TrustProxy bool
}

// UpstreamConfig configures the generation API client.
type UpstreamConfig struct {
	URL     string
	Timeout time.Duration
}

// LogStoreConfig selects the generation log backend.
type LogStoreConfig struct {
	Backend        string
	Capacity       int
	SQLitePath     string
	RedisURL       string
	RedisPassword  string
	RedisKeyPrefix string
}

// BlobConfig configures S3-compatible object storage.
type BlobConfig struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PublicBaseURL   string
	Prefix          string
}

// Enabled reports whether generated images are relayed to object storage.
func (b BlobConfig) Enabled() bool {
	return b.Bucket != ""
}

// RelayConfig bounds the relay fetch.
type RelayConfig struct {
	Timeout  time.Duration
	MaxBytes int64
}

// ProxyConfig configures the passthrough image endpoints.
type ProxyConfig struct {
	Timeout              time.Duration
	CacheControl         string
	CacheMaxBytes        int64
	CacheItemMaxBytes    int64
	CacheTTL             time.Duration
	BlockPrivateNetworks bool
}

// Load reads configuration from file and environment variables.
// Environment variables override file config values.
func Load() *Config {
	fc, err := LoadFile()
	if err != nil {
		fc = &FileConfig{} // Unreadable file falls back to env and defaults
	}

	cfg := &Config{
		ServerPort:  serverPort(fc.ServerPort),
		EnableWebUI: getEnvBoolOrFile("ENABLE_WEB_UI", fc.EnableWebUI, true),
		LogLevel:    getEnvOrFile("LOG_LEVEL", fc.Log.Level, "info"),
		LogFormat:   getEnvOrFile("LOG_FORMAT", fc.Log.Format, "text"),
		Upstream: UpstreamConfig{
			URL:     getEnvOrFile("UPSTREAM_URL", fc.Upstream.URL, DefaultUpstreamURL),
			Timeout: getEnvDurationOrFile("UPSTREAM_TIMEOUT", fc.Upstream.Timeout, 120*time.Second),
		},
		Defaults: types.Defaults{
			NegativePrompt: getEnvOrFile("DEFAULT_NEGATIVE_PROMPT", fc.Defaults.NegativePrompt, types.DefaultNegativePrompt),
			StylePreset:    getEnvOrFile("DEFAULT_STYLE_PRESET", fc.Defaults.StylePreset, types.DefaultStylePreset),
			AspectRatio:    getEnvOrFile("DEFAULT_ASPECT_RATIO", fc.Defaults.AspectRatio, types.DefaultAspectRatio),
			OutputFormat:   getEnvOrFile("DEFAULT_OUTPUT_FORMAT", fc.Defaults.OutputFormat, types.DefaultOutputFormat),
			Seed:           getEnvInt64OrFile("DEFAULT_SEED", fc.Defaults.Seed, types.DefaultSeed),
		},
		LogStore: LogStoreConfig{
			Backend:        strings.ToLower(getEnvOrFile("LOG_STORE", fc.LogStore.Backend, BackendSQLite)),
			Capacity:       int(getEnvInt64OrFile("LOG_CAPACITY", intPtr64(fc.LogStore.Capacity), 1000)),
			SQLitePath:     getEnvOrFile("SQLITE_PATH", fc.LogStore.SQLitePath, DBPath()),
			RedisURL:       getEnvOrFile("REDIS_URL", fc.LogStore.RedisURL, ""),
			RedisPassword:  getEnvOrFile("REDIS_PASSWORD", fc.LogStore.RedisPassword, ""),
			RedisKeyPrefix: getEnvOrFile("REDIS_KEY_PREFIX", fc.LogStore.RedisKeyPrefix, ""),
		},
		Blob: BlobConfig{
			Bucket:          getEnvOrFile("BLOB_BUCKET", fc.Blob.Bucket, ""),
			Region:          getEnvOrFile("BLOB_REGION", fc.Blob.Region, "us-east-1"),
			Endpoint:        getEnvOrFile("BLOB_ENDPOINT", fc.Blob.Endpoint, ""),
			AccessKeyID:     getEnvOrFile("BLOB_ACCESS_KEY_ID", fc.Blob.AccessKeyID, ""),
			SecretAccessKey: getEnvOrFile("BLOB_SECRET_ACCESS_KEY", fc.Blob.SecretAccessKey, ""),
			PublicBaseURL:   getEnvOrFile("BLOB_PUBLIC_BASE_URL", fc.Blob.PublicBaseURL, ""),
			Prefix:          getEnvOrFile("BLOB_PREFIX", fc.Blob.Prefix, ""),
		},
		Relay: RelayConfig{
			Timeout:  getEnvDurationOrFile("RELAY_TIMEOUT", fc.Relay.Timeout, 60*time.Second),
			MaxBytes: getEnvInt64OrFile("RELAY_MAX_BYTES", fc.Relay.MaxBytes, 32<<20),
		},
		Proxy: ProxyConfig{
			Timeout:              getEnvDurationOrFile("PROXY_TIMEOUT", fc.Proxy.Timeout, 30*time.Second),
			CacheControl:         getEnvOrFile("PROXY_CACHE_CONTROL", fc.Proxy.CacheControl, ""),
			CacheMaxBytes:        getEnvInt64OrFile("PROXY_CACHE_MAX_BYTES", fc.Proxy.CacheMaxBytes, 64<<20),
			CacheItemMaxBytes:    getEnvInt64OrFile("PROXY_CACHE_ITEM_MAX_BYTES", fc.Proxy.CacheItemMaxBytes, 8<<20),
			CacheTTL:             getEnvDurationOrFile("PROXY_CACHE_TTL", fc.Proxy.CacheTTL, 10*time.Minute),
			BlockPrivateNetworks: getEnvBoolOrFile("PROXY_BLOCK_PRIVATE_NETWORKS", fc.Proxy.BlockPrivateNetworks, false),
		},
		AdminPassword:     getEnvOrFile("ADMIN_PASSWORD", fc.Admin.Password, ""),
		GenerateRateLimit: int(getEnvInt64OrFile("GENERATE_RATE_LIMIT", fc.GenerateRateLimit, 0)),
		TrustProxy:        getEnvBoolOrFile("TRUST_PROXY", fc.TrustProxy, false),
	}

	cfg.APIBaseURL = getEnvOrFile("API_BASE_URL", fc.APIBaseURL, "http://localhost"+cfg.ServerPort)
	if cfg.LogStore.Capacity <= 0 {
		cfg.LogStore.Capacity = 1000
	}

	return cfg
}

// Port returns the port part of ServerPort ("3000" for ":3000").
func (c *Config) Port() string {
	if i := strings.LastIndex(c.ServerPort, ":"); i >= 0 {
		return c.ServerPort[i+1:]
	}
	return c.ServerPort
}

// serverPort resolves SERVER_PORT, then the PaaS-style PORT, then the file.
func serverPort(fileValue string) string {
	if value := os.Getenv("SERVER_PORT"); value != "" {
		return normalizeAddr(value)
	}
	if value := os.Getenv("PORT"); value != "" {
		return normalizeAddr(value)
	}
	if fileValue != "" {
		return normalizeAddr(fileValue)
	}
	return ":3000"
}

// normalizeAddr turns a bare port number into a listen address.
func normalizeAddr(value string) string {
	if _, err := strconv.Atoi(value); err == nil {
		return ":" + value
	}
	return value
}

// getEnvOrFile returns env value, file value, or default (in priority order)
func getEnvOrFile(key, fileValue, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	if fileValue != "" {
		return fileValue
	}
	return defaultValue
}

// getEnvBoolOrFile returns env bool, file bool, or default (in priority order)
func getEnvBoolOrFile(key string, fileValue *bool, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	if fileValue != nil {
		return *fileValue
	}
	return defaultValue
}

// getEnvInt64OrFile returns env int, file int, or default. Unparseable env
// values are ignored.
func getEnvInt64OrFile(key string, fileValue *int64, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	if fileValue != nil {
		return *fileValue
	}
	return defaultValue
}

// getEnvDurationOrFile accepts Go durations ("90s") or whole seconds ("90").
func getEnvDurationOrFile(key, fileValue string, defaultValue time.Duration) time.Duration {
	if d, ok := parseDuration(os.Getenv(key)); ok {
		return d
	}
	if d, ok := parseDuration(fileValue); ok {
		return d
	}
	return defaultValue
}

func parseDuration(value string) (time.Duration, bool) {
	if value == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second, true
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, false
	}
	return d, true
}

func intPtr64(v *int) *int64 {
	if v == nil {
		return nil
	}
	n := int64(*v)
	return &n
}
