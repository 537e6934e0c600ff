package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string
	LogLevel    string

	// APIKey is the shared secret the labeling machine sends in X-API-Key.
	APIKey string

	AuthCookieSecure bool
	SessionTTL       time.Duration
	AdminUsername    string
	AdminPassword    string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int

	// RetentionDays bounds how long telemetry rows are kept. Zero keeps
	// everything.
	RetentionDays     int
	RetentionInterval time.Duration

	MQTT MQTTConfig
}

// MQTTConfig configures the optional MQTT ingestion front-end.
// The subscriber stays inert unless Enabled is set.
type MQTTConfig struct {
	Enabled  bool
	Broker   string
	ClientID string
	Topic    string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	environment := getenv("ENVIRONMENT", "development")
	authCookieSecure := environment == "production"
	if !authCookieSecure {
		authCookieSecure = getenvBool("AUTH_COOKIE_SECURE", false)
	}

	return Config{
		AppName:          getenv("APP_SERVICE", "supmmdba"),
		AppVersion:       getenv("APP_VERSION", "0.1.0"),
		Environment:      environment,
		HTTPAddr:         getenv("HTTP_ADDR", ":8080"),
		LogLevel:         strings.ToLower(getenv("LOG_LEVEL", "info")),
		APIKey:           strings.TrimSpace(getenv("API_KEY", "")),
		AuthCookieSecure: authCookieSecure,
		SessionTTL:       getenvDuration("SESSION_TTL", 12*time.Hour),
		AdminUsername:    strings.TrimSpace(getenv("ADMIN_USERNAME", "")),
		AdminPassword:    getenv("ADMIN_PASSWORD", ""),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "supmmdba"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 2),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 10),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 3600),

		RetentionDays:     getenvInt("RETENTION_DAYS", 0),
		RetentionInterval: getenvDuration("RETENTION_SWEEP_INTERVAL", time.Hour),

		MQTT: MQTTConfig{
			Enabled:  getenvBool("MQTT_ENABLED", false),
			Broker:   getenv("MQTT_BROKER", "tcp://localhost:1883"),
			ClientID: getenv("MQTT_CLIENT_ID", ""),
			Topic:    getenv("MQTT_TOPIC", "mqtt/rotuladora/+"),
		},
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}
