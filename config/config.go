package config

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/linesmerrill/court-case-api/models"
)

// Config holds the project config values
type Config struct {
	URL          string
	DatabaseName string
	BaseURL      string
	Port         string
	Environment  string

	JWTSecret string
	TokenTTL  time.Duration

	SendgridAPIKey   string
	EmailFrom        string
	ReminderSchedule string

	RateLimitRPS   float64
	RateLimitBurst int
	RequestTimeout time.Duration
	// proxies whose X-Forwarded-For is believed when rate limiting
	TrustedProxies []string
}

// New sets up all config related services
func New() *Config {
	// a missing .env is fine, the process environment wins anyway
	_ = godotenv.Load()

	environment := getEnv("ENVIRONMENT", "local")

	//setup zap logger and replace default logger
	logger, err := setLogger(environment)
	if err != nil {
		logger = zap.NewExample()
	}
	defer logger.Sync()
	_ = zap.ReplaceGlobals(logger)

	return &Config{
		URL:              os.Getenv("DB_URI"),
		DatabaseName:     os.Getenv("DB_NAME"),
		BaseURL:          os.Getenv("BASE_URL"),
		Port:             getEnv("PORT", "8080"),
		Environment:      environment,
		JWTSecret:        os.Getenv("JWT_SECRET"),
		TokenTTL:         getEnvDuration("TOKEN_TTL", 24*time.Hour),
		SendgridAPIKey:   os.Getenv("SENDGRID_API_KEY"),
		EmailFrom:        getEnv("EMAIL_FROM", "no-reply@court-case.app"),
		ReminderSchedule: getEnv("REMINDER_SCHEDULE", "0 6 * * *"),
		RateLimitRPS:     getEnvFloat("RATE_LIMIT_RPS", 20),
		RateLimitBurst:   getEnvInt("RATE_LIMIT_BURST", 40),
		RequestTimeout:   getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
		TrustedProxies:   getEnvList("TRUSTED_PROXIES"),
	}
}

// ErrorStatus is a useful function that will log, write http headers and body for a
// give message, status code and err
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	errText := ""
	if err != nil {
		errText = err.Error()
	}
	if httpStatusCode >= http.StatusInternalServerError {
		zap.S().With("error", errText).Error(message)
	} else {
		zap.S().With("error", errText).Debug(message)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatusCode)
	b, _ := json.Marshal(models.ErrorMessageResponse{Response: models.MessageError{Message: message, Error: errText}})
	w.Write(b)
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getEnvFloat(key string, defaultValue float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return v
}
