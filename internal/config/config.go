package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port               string
	Env                string
	PublicBaseURL      string
	LogLevel           string
	CORSAllowedOrigins []string

	// Dialogue engine
	RetryLimit int

	// Session store backend: memory, redis, postgres, dynamo
	SessionStore        string
	SessionTTL          time.Duration
	DatabaseURL         string
	SessionTableName    string
	RedisAddr           string
	RedisPassword       string
	RedisTLS            bool
	AWSRegion           string
	AWSEndpointOverride string

	// Realtime voice transport
	VoiceBackend          string // "openai" or "azure"
	VoiceRealtimeURL      string
	VoiceAPIKey           string
	VoiceModel            string
	VoiceName             string
	VoiceInstructions     string
	VoiceHandshakeTimeout time.Duration
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		PublicBaseURL:      getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),

		RetryLimit: getEnvAsInt("DIALOGUE_RETRY_LIMIT", 3),

		SessionStore:        strings.ToLower(strings.TrimSpace(getEnv("SESSION_STORE", "memory"))),
		SessionTTL:          getEnvAsDuration("SESSION_TTL", 24*time.Hour),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		SessionTableName:    getEnv("SESSION_TABLE_NAME", "conversation_sessions"),
		RedisAddr:           getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword:       getEnv("REDIS_PASSWORD", ""),
		RedisTLS:            getEnvAsBool("REDIS_TLS", false),
		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		VoiceBackend:          strings.ToLower(strings.TrimSpace(getEnv("VOICE_BACKEND", "openai"))),
		VoiceRealtimeURL:      getEnv("VOICE_REALTIME_URL", ""),
		VoiceAPIKey:           getEnv("VOICE_API_KEY", ""),
		VoiceModel:            getEnv("VOICE_MODEL", "gpt-4o-realtime-preview"),
		VoiceName:             getEnv("VOICE_NAME", "alloy"),
		VoiceInstructions:     getEnv("VOICE_INSTRUCTIONS", ""),
		VoiceHandshakeTimeout: getEnvAsDuration("VOICE_HANDSHAKE_TIMEOUT", 10*time.Second),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList retrieves a comma-separated environment variable as a slice
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
