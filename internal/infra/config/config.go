package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StorageMemory = "memory"
	StorageMongo  = "mongo"
)

// Config aggregates application configuration values loaded from environment variables.
type Config struct {
	Env      string
	HTTPAddr string
	Storage  string

	MongoURI string
	MongoDB  string

	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	CalendarCacheTTL time.Duration
	IdempotencyTTL   time.Duration

	KafkaBrokers       []string
	KafkaClientID      string
	KafkaTopicPrefix   string
	OutboxPollInterval time.Duration
	RetryBackoff       []time.Duration

	StripeSecretKey string
	PaymentTimeout  time.Duration

	Currency         string
	CleaningFeeMinor int64
	ServiceFeeMinor  int64
	TaxRateBPS       int64

	FrontendBaseURL    string
	PaymentSuccessPath string
	PaymentFailurePath string
	PublicAPIURL       string

	S3Endpoint             string
	S3AccessKey            string
	S3SecretKey            string
	S3UseSSL               bool
	S3ReconciliationBucket string

	FixturesPath string
}

// Load parses configuration from the current environment.
func Load() (Config, error) {
	cfg := Config{
		Env:                    getEnv("APP_ENV", "local"),
		HTTPAddr:               getEnv("HTTP_ADDR", ":8080"),
		Storage:                strings.ToLower(getEnv("STORAGE_MODE", StorageMemory)),
		MongoURI:               getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:                getEnv("MONGO_DB", "staylane"),
		RedisAddr:              os.Getenv("REDIS_ADDR"),
		RedisPassword:          os.Getenv("REDIS_PASSWORD"),
		KafkaClientID:          getEnv("KAFKA_CLIENT_ID", "staylane"),
		KafkaTopicPrefix:       os.Getenv("KAFKA_TOPIC_PREFIX"),
		StripeSecretKey:        os.Getenv("STRIPE_SECRET_KEY"),
		Currency:               strings.ToLower(getEnv("CURRENCY", "usd")),
		FrontendBaseURL:        strings.TrimRight(getEnv("FRONTEND_BASE_URL", "http://localhost:5173"), "/"),
		PaymentSuccessPath:     getEnv("PAYMENT_SUCCESS_PATH", "/bookings?payment=success"),
		PaymentFailurePath:     getEnv("PAYMENT_FAILURE_PATH", "/bookings?payment=failed"),
		PublicAPIURL:           strings.TrimRight(getEnv("PUBLIC_API_URL", "http://localhost:8080"), "/"),
		S3Endpoint:             os.Getenv("S3_ENDPOINT"),
		S3AccessKey:            os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:            os.Getenv("S3_SECRET_KEY"),
		S3ReconciliationBucket: getEnv("S3_RECONCILIATION_BUCKET", "reconciliation"),
		FixturesPath:           getEnv("FIXTURES_PATH", "data/fixtures.json"),
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	var err error
	if cfg.RedisDB, err = parseIntEnv("REDIS_DB", 0); err != nil {
		return Config{}, err
	}
	if cfg.CalendarCacheTTL, err = parseDurationEnv("CALENDAR_CACHE_TTL", 5*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = parseDurationEnv("IDEMP_TTL", 24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.OutboxPollInterval, err = parseDurationEnv("OUTBOX_POLL_INTERVAL", time.Second); err != nil {
		return Config{}, err
	}
	if cfg.PaymentTimeout, err = parseDurationEnv("PAYMENT_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.CleaningFeeMinor, err = parseInt64Env("CLEANING_FEE_MINOR", 2100); err != nil {
		return Config{}, err
	}
	if cfg.ServiceFeeMinor, err = parseInt64Env("SERVICE_FEE_MINOR", 4000); err != nil {
		return Config{}, err
	}
	if cfg.TaxRateBPS, err = parseInt64Env("TAX_RATE_BPS", 1000); err != nil {
		return Config{}, err
	}
	if cfg.S3UseSSL, err = parseBoolEnv("S3_USE_SSL", false); err != nil {
		return Config{}, err
	}

	retryStr := getEnv("RETRY_BACKOFF", "5s")
	for _, raw := range strings.Split(retryStr, ",") {
		val := strings.TrimSpace(raw)
		if val == "" {
			continue
		}
		d, err := time.ParseDuration(val)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RETRY_BACKOFF component %q: %w", raw, err)
		}
		cfg.RetryBackoff = append(cfg.RetryBackoff, d)
	}

	switch cfg.Storage {
	case StorageMemory, StorageMongo:
	default:
		return Config{}, fmt.Errorf("invalid STORAGE_MODE %q", cfg.Storage)
	}
	if cfg.Storage == StorageMongo && cfg.MongoURI == "" {
		return Config{}, fmt.Errorf("MONGO_URI is required")
	}
	if cfg.PaymentTimeout <= 0 {
		return Config{}, fmt.Errorf("PAYMENT_TIMEOUT must be positive")
	}
	return cfg, nil
}

// KafkaEnabled reports whether outbox events are published to Kafka.
func (c Config) KafkaEnabled() bool { return len(c.KafkaBrokers) > 0 }

func (c Config) RedisEnabled() bool { return c.RedisAddr != "" }

func (c Config) S3Enabled() bool { return c.S3Endpoint != "" }

func (c Config) StripeEnabled() bool { return c.StripeSecretKey != "" }

func (c Config) PaymentSuccessURL() string { return c.FrontendBaseURL + c.PaymentSuccessPath }

func (c Config) PaymentFailureURL() string { return c.FrontendBaseURL + c.PaymentFailurePath }

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}

func parseInt64Env(key string, def int64) (int64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s integer: %w", key, err)
	}
	return v, nil
}

func parseIntEnv(key string, def int) (int, error) {
	v, err := parseInt64Env(key, int64(def))
	return int(v), err
}

func parseBoolEnv(key string, def bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "t", "true", "yes", "y", "on":
		return true, nil
	case "0", "f", "false", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid %s boolean: %q", key, raw)
	}
}
