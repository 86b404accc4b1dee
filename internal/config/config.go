package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr   string
	AppBaseURL string
	LogLevel   string
	GelfAddr   string

	DatabaseURL string

	JWTSecret    string
	JWTExpiresIn time.Duration

	TokenSecret       string
	TokenExpiryDays   int
	SessionTTLMinutes int

	OTPEnabled       bool
	OTPExpiryMinutes int
	OTPMaxAttempts   int
	OTPSweepMinutes  int

	UploadDir     string
	MaxFileSizeMB int

	FlowSendRequests string
	FlowSendOTP      string
	FlowReminders    string
	FlowArchiveFiles string
	SPSiteURL        string
	SPLibraryName    string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RateLimitAPI           int
	RateLimitAuth          int
	RateLimitPortal        int
	RateLimitWindowSeconds int
	RateLimitFailClosed    bool
	RateLimitMaxKeys       int

	AuthzEngine     string
	AuthzPolicyPath string

	AdminEmail    string
	AdminPassword string

	AMQPURL     string
	NotifyQueue string

	TemporalAddress      string
	TemporalNamespace    string
	TemporalTaskQueue    string
	SweepIntervalMinutes int
	HealthAddr           string
}

func FromEnv() Config {
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	return Config{
		HTTPAddr:               addr,
		AppBaseURL:             strings.TrimRight(envDefault("APP_BASE_URL", "http://localhost:3000"), "/"),
		LogLevel:               envDefault("LOG_LEVEL", "info"),
		GelfAddr:               os.Getenv("GELF_ADDR"),
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		JWTSecret:              os.Getenv("JWT_SECRET"),
		JWTExpiresIn:           envDurationDefault("JWT_EXPIRES_IN", 8*time.Hour),
		TokenSecret:            os.Getenv("TOKEN_SECRET"),
		TokenExpiryDays:        envIntDefault("TOKEN_EXPIRY_DAYS", 7),
		SessionTTLMinutes:      envIntDefault("SESSION_TTL_MINUTES", 30),
		OTPEnabled:             envBoolDefault("OTP_ENABLED", true),
		OTPExpiryMinutes:       envIntDefault("OTP_EXPIRY_MINUTES", 10),
		OTPMaxAttempts:         envIntDefault("OTP_MAX_ATTEMPTS", 3),
		OTPSweepMinutes:        envIntDefault("OTP_SWEEP_MINUTES", 5),
		UploadDir:              envDefault("UPLOAD_DIR", "uploads"),
		MaxFileSizeMB:          envIntDefault("MAX_FILE_SIZE_MB", 100),
		FlowSendRequests:       os.Getenv("PA_FLOW_SEND_REQUESTS"),
		FlowSendOTP:            os.Getenv("PA_FLOW_SEND_OTP"),
		FlowReminders:          os.Getenv("PA_FLOW_REMINDERS"),
		FlowArchiveFiles:       os.Getenv("PA_FLOW_ARCHIVE_FILES"),
		SPSiteURL:              os.Getenv("SP_SITE_URL"),
		SPLibraryName:          envDefault("SP_LIBRARY_NAME", "Evidencias"),
		RedisAddr:              os.Getenv("REDIS_ADDR"),
		RedisPassword:          os.Getenv("REDIS_PASSWORD"),
		RedisDB:                envIntDefault("REDIS_DB", 0),
		RateLimitAPI:           envIntDefault("RATE_LIMIT_API", 100),
		RateLimitAuth:          envIntDefault("RATE_LIMIT_AUTH", 5),
		RateLimitPortal:        envIntDefault("RATE_LIMIT_PORTAL", 30),
		RateLimitWindowSeconds: envIntDefault("RATE_LIMIT_WINDOW_SECONDS", 60),
		RateLimitFailClosed:    envBoolDefault("RATE_LIMIT_FAIL_CLOSED", false),
		RateLimitMaxKeys:       envIntDefault("RATE_LIMIT_MAX_KEYS", 10000),
		AuthzEngine:            strings.ToLower(envDefault("AUTHZ_ENGINE", "rbac")),
		AuthzPolicyPath:        os.Getenv("AUTHZ_POLICY_PATH"),
		AdminEmail:             os.Getenv("ADMIN_EMAIL"),
		AdminPassword:          os.Getenv("ADMIN_PASSWORD"),
		AMQPURL:                os.Getenv("AMQP_URL"),
		NotifyQueue:            envDefault("NOTIFY_QUEUE", "notification_emails"),
		TemporalAddress:        envDefault("TEMPORAL_ADDRESS", "localhost:7233"),
		TemporalNamespace:      envDefault("TEMPORAL_NAMESPACE", "default"),
		TemporalTaskQueue:      envDefault("TEMPORAL_TASK_QUEUE", "docrequest-reminders"),
		SweepIntervalMinutes:   envIntDefault("SWEEP_INTERVAL_MINUTES", 60),
		HealthAddr:             envDefault("HEALTH_ADDR", ":8090"),
	}
}

func envDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func envIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.Atoi(v)
	if err != nil || parsed < 0 {
		return def
	}
	return parsed
}

func envBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	switch v {
	case "1", "true", "TRUE", "True", "yes", "YES", "Yes":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "No":
		return false
	default:
		return def
	}
}

func envDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := time.ParseDuration(v)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func (c Config) TokenExpiry() time.Duration {
	return time.Duration(c.TokenExpiryDays) * 24 * time.Hour
}

func (c Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

func (c Config) OTPExpiry() time.Duration {
	return time.Duration(c.OTPExpiryMinutes) * time.Minute
}

func (c Config) OTPSweepInterval() time.Duration {
	return time.Duration(c.OTPSweepMinutes) * time.Minute
}

func (c Config) RateLimitWindow() time.Duration {
	if c.RateLimitWindowSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(c.RateLimitWindowSeconds) * time.Second
}

func (c Config) MaxFileSize() int64 {
	return int64(c.MaxFileSizeMB) << 20
}

func (c Config) SweepInterval() time.Duration {
	if c.SweepIntervalMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(c.SweepIntervalMinutes) * time.Minute
}
