package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"time"
)

// Config holds all runtime configuration values. Each field
// corresponds to an environment variable. Database settings are
// required; Redis and RabbitMQ are optional and leave their features
// disabled when unset.
type Config struct {
	Env         string        // application environment (e.g. "dev", "prod")
	DBUser      string        // database username
	DBPass      string        // database password (optional)
	DBHost      string        // database host address
	DBPort      string        // database port number
	DBName      string        // database name
	CatalogPath string        // path to the JSON event catalog feed
	TicketDir   string        // directory reservation PDFs are written to
	CachePrefix string        // Redis key prefix for the event cache
	CacheTTL    time.Duration // lifetime of the cached event listing
	RabbitURL   string        // AMQP broker URL (empty disables publishing)
}

// Load reads configuration values from environment variables and
// returns a Config. Required variables are enforced by must() and
// missing values cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:         getenv("APP_ENV", "dev"),
		DBUser:      must("DB_USER"),
		DBPass:      os.Getenv("DB_PASS"), // empty allowed
		DBHost:      must("DB_HOST"),
		DBPort:      must("DB_PORT"),
		DBName:      must("DB_NAME"),
		CatalogPath: getenv("CATALOG_PATH", "catalog.json"),
		TicketDir:   getenv("TICKET_DIR", "pdf_reservations"),
		CachePrefix: getenv("CACHE_PREFIX", "ticketctl"),
		CacheTTL:    parseDur(getenv("CACHE_TTL", "30s")),
		RabbitURL:   os.Getenv("RABBITMQ_URL"), // empty disables publishing
	}
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDur(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return time.Second
	}
	return d
}
