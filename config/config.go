package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Server configuration
	Port        string
	Environment string

	// Booking backend configuration
	BookingBaseURL string
	BookingTimeout time.Duration

	// Redis configuration
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// PubNub configuration (user notifications)
	PubNubPublishKey   string
	PubNubSubscribeKey string
	PubNubSecretKey    string

	// Razorpay provider configuration
	RazorpayBaseURL   string
	RazorpayKeyID     string
	RazorpayKeySecret string
	RazorpayTheme     string

	// Provider capture channel (PubNub v7)
	CaptureSubKey    string
	CaptureSecretKey string
	CaptureUUID      string
	CaptureCipherKey string

	// Checkout defaults
	TicketType  string
	Quantity    int
	Amount      int64
	DisplayName string
	LoginPath   string
	TicketsPath string

	// Timeout configuration
	CaptureTimeout time.Duration
	SessionTTL     time.Duration

	// Monitoring
	EnableMetrics bool
	MetricsPort   string
}

func LoadConfig() *Config {
	return &Config{
		// Server
		Port:        getEnv("PORT", "8090"),
		Environment: getEnv("ENVIRONMENT", "development"),

		// Booking backend
		BookingBaseURL: getEnv("BOOKING_BASE_URL", "http://localhost:5000"),
		BookingTimeout: getEnvAsDuration("BOOKING_TIMEOUT", "10s"),

		// Redis
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// PubNub
		PubNubPublishKey:   getEnv("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey: getEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubSecretKey:    getEnv("PUBNUB_SECRET_KEY", ""),

		// Razorpay
		RazorpayBaseURL:   getEnv("RAZORPAY_BASE_URL", "https://api.razorpay.com"),
		RazorpayKeyID:     getEnv("RAZORPAY_KEY_ID", ""),
		RazorpayKeySecret: getEnv("RAZORPAY_KEY_SECRET", ""),
		RazorpayTheme:     getEnv("RAZORPAY_THEME", "#3399cc"),

		// Capture channel
		CaptureSubKey:    getEnv("CAPTURE_SUB_KEY", ""),
		CaptureSecretKey: getEnv("CAPTURE_SECRET_KEY", ""),
		CaptureUUID:      getEnv("CAPTURE_UUID", "eventhive-gateway"),
		CaptureCipherKey: getEnv("CAPTURE_CIPHER_KEY", ""),

		// Checkout defaults
		TicketType:  getEnv("TICKET_TYPE", "General"),
		Quantity:    getEnvAsInt("TICKET_QUANTITY", 1),
		Amount:      int64(getEnvAsInt("TICKET_AMOUNT", 500)),
		DisplayName: getEnv("DISPLAY_NAME", "EventHive"),
		LoginPath:   getEnv("LOGIN_PATH", "/login.html"),
		TicketsPath: getEnv("TICKETS_PATH", "/tickets.html"),

		// Timeouts
		CaptureTimeout: getEnvAsDuration("CAPTURE_TIMEOUT", "10m"),
		SessionTTL:     getEnvAsDuration("SESSION_TTL", "24h"),

		// Monitoring
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
		MetricsPort:   getEnv("METRICS_PORT", "9090"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	// If parsing fails, try to parse default value
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
