package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string
	HTTPPort    string

	PostgresDSN  string
	KafkaBrokers []string

	ShopAPIURL        string
	ShopAPIToken      string
	ShopWebhookSecret string

	CowlendarAPIURL        string
	CowlendarClientID      string
	CowlendarClientSecret  string
	CowlendarWebhookSecret string
	CowlendarRedirectURI   string
	CowlendarKeyPrefix     string

	// GlobalAPIKeys see every provider; ScopedAPIKeys map a key to the one
	// host identity it may query.
	GlobalAPIKeys []string
	ScopedAPIKeys map[string]string

	RateLimitPerMinute int
	SyncInterval       time.Duration
}

func Load() (Config, error) {
	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "cowbridge"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	var brokers []string
	for _, value := range strings.Split(os.Getenv("KAFKA_BROKERS"), ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			brokers = append(brokers, value)
		}
	}

	prefix := os.Getenv("COWLENDAR_KEY_PREFIX")
	if prefix == "" {
		prefix = "__cow_"
	}

	return Config{
		ServiceName: service,
		HTTPPort:    port,

		PostgresDSN:  os.Getenv("POSTGRES_DSN"),
		KafkaBrokers: brokers,

		ShopAPIURL:        os.Getenv("SHOP_API_URL"),
		ShopAPIToken:      os.Getenv("SHOP_API_TOKEN"),
		ShopWebhookSecret: os.Getenv("SHOP_WEBHOOK_SECRET"),

		CowlendarAPIURL:        os.Getenv("COWLENDAR_API_URL"),
		CowlendarClientID:      os.Getenv("COWLENDAR_CLIENT_ID"),
		CowlendarClientSecret:  os.Getenv("COWLENDAR_CLIENT_SECRET"),
		CowlendarWebhookSecret: os.Getenv("COWLENDAR_WEBHOOK_SECRET"),
		CowlendarRedirectURI:   os.Getenv("COWLENDAR_REDIRECT_URI"),
		CowlendarKeyPrefix:     prefix,

		GlobalAPIKeys: splitList(os.Getenv("API_KEYS_GLOBAL")),
		ScopedAPIKeys: parseScopedKeys(os.Getenv("API_KEYS_SCOPED")),

		RateLimitPerMinute: envInt("RATE_LIMIT_PER_MINUTE", 120),
		SyncInterval:       envDuration("SYNC_INTERVAL", 60*time.Second),
	}, nil
}

func splitList(raw string) []string {
	var out []string
	for _, value := range strings.Split(raw, ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			out = append(out, value)
		}
	}
	return out
}

// parseScopedKeys reads "key1:host1,key2:host2".
func parseScopedKeys(raw string) map[string]string {
	out := map[string]string{}
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, host, found := strings.Cut(pair, ":")
		key = strings.TrimSpace(key)
		host = strings.TrimSpace(host)
		if found && key != "" && host != "" {
			out[key] = host
		}
	}
	return out
}

func envInt(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func envDuration(name string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
