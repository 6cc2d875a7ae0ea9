package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "remindflow.db", cfg.DB.Path)
	assert.Equal(t, "localhost", cfg.Broker.Host)
	assert.Equal(t, 3500, cfg.Broker.Port)
	assert.Equal(t, "pubsub", cfg.Broker.PubsubName)
	assert.Equal(t, "task-events", cfg.Broker.TaskTopic)
	assert.Equal(t, "reminders", cfg.Broker.ReminderTopic)
	assert.Equal(t, "http://localhost:3500", cfg.Broker.BaseURL())
	assert.Equal(t, time.Minute, cfg.Scan.Interval())
	assert.Equal(t, 2*time.Minute, cfg.Scan.Window())
	assert.Equal(t, 60, cfg.Scan.LeadTimeMinutes)
	assert.False(t, cfg.Email.Configured())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("REMINDFLOW_SERVER_ADDR", ":9090")
	t.Setenv("REMINDFLOW_BROKER_HOST", "sidecar")
	t.Setenv("REMINDFLOW_BROKER_PORT", "3501")
	t.Setenv("REMINDFLOW_SCAN_INTERVAL_SECONDS", "30")
	t.Setenv("REMINDFLOW_EMAIL_SENDGRID_KEY", "sg-key")
	t.Setenv("REMINDFLOW_EMAIL_FROM", "noreply@example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "http://sidecar:3501", cfg.Broker.BaseURL())
	assert.Equal(t, 30*time.Second, cfg.Scan.Interval())
	assert.True(t, cfg.Email.Configured())
	assert.Equal(t, "sg-key", cfg.Email.SendGridKey)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("REMINDFLOW_BROKER_PORT", "70000")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsNonPositiveInterval(t *testing.T) {
	t.Setenv("REMINDFLOW_SCAN_INTERVAL_SECONDS", "0")
	_, err := Load()
	assert.Error(t, err)
}
