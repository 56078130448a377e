package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("testdata/does-not-exist.env")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoDB.URI)
	assert.Equal(t, "regifarm", cfg.MongoDB.DBName)
	assert.Equal(t, "0 6 1 * *", cfg.Reporting.CronSchedule)
	assert.Equal(t, "Europe/Rome", cfg.Reporting.Timezone)
	assert.Empty(t, cfg.Reporting.FarmIDs)
	assert.Empty(t, cfg.Sheets.CredentialsPath)
	assert.Empty(t, cfg.Notify.WebhookURL)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("MONGODB_DB_NAME", "regifarm_test")
	t.Setenv("REPORT_FARM_IDS", "farm-1, farm-2 ,,farm-3")
	t.Setenv("REPORT_WEBHOOK_URL", "https://hooks.example.com/reports")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "regifarm_test", cfg.MongoDB.DBName)
	assert.Equal(t, []string{"farm-1", "farm-2", "farm-3"}, cfg.Reporting.FarmIDs)
	assert.Equal(t, "https://hooks.example.com/reports", cfg.Notify.WebhookURL)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Server:    ServerConfig{Port: "8080"},
			MongoDB:   MongoDBConfig{URI: "mongodb://localhost:27017", DBName: "regifarm"},
			Reporting: ReportingConfig{CronSchedule: "0 6 1 * *", Timezone: "Europe/Rome"},
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, base().Validate())
	})

	t.Run("missing mongo uri", func(t *testing.T) {
		cfg := base()
		cfg.MongoDB.URI = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("sheets credentials without spreadsheet id", func(t *testing.T) {
		cfg := base()
		cfg.Sheets.CredentialsPath = "/etc/creds.json"
		assert.Error(t, cfg.Validate())
	})
}
