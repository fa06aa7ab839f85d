package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	t.Setenv("DB_USER", "tickets")
	t.Setenv("DB_PASS", "")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "3306")
	t.Setenv("DB_NAME", "spectacole")
	t.Setenv("CACHE_TTL", "45s")
	t.Setenv("APP_ENV", "")
	t.Setenv("CATALOG_PATH", "")
	t.Setenv("TICKET_DIR", "")
	t.Setenv("CACHE_PREFIX", "")
	t.Setenv("RABBITMQ_URL", "")

	cfg := Load()
	assert.Equal(t, "tickets", cfg.DBUser)
	assert.Equal(t, "", cfg.DBPass)
	assert.Equal(t, "spectacole", cfg.DBName)
	assert.Equal(t, 45*time.Second, cfg.CacheTTL)
	// defaults
	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "catalog.json", cfg.CatalogPath)
	assert.Equal(t, "pdf_reservations", cfg.TicketDir)
	assert.Equal(t, "ticketctl", cfg.CachePrefix)
	assert.Empty(t, cfg.RabbitURL)
}

func TestParseDur(t *testing.T) {
	assert.Equal(t, 30*time.Second, parseDur("30s"))
	// invalid durations fall back to one second
	assert.Equal(t, time.Second, parseDur("not-a-duration"))
}
