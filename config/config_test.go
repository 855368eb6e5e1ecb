package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()

	t.Setenv("SECRET_KEY", "test-secret")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017/diapredict")
	t.Setenv("MAIL_SERVER", "smtp.example.com")
	t.Setenv("MAIL_USERNAME", "noreply@example.com")
}

func TestSetupDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Setup(nil)
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 8080, cfg.Host.Port)
	assert.Equal(t, "mongo", cfg.Storage.Type)
	assert.Equal(t, 30*24*time.Hour, cfg.Security.SessionMaxAge)
	assert.Equal(t, 587, cfg.Mail.Port)
	assert.True(t, cfg.Mail.UseTLS)
	assert.False(t, cfg.Mail.Async)
	assert.Equal(t, "noreply@example.com", cfg.Mail.Sender, "sender falls back to the mail username")
	assert.Equal(t, "Model/diabetes.json", cfg.Model.Path)
	assert.False(t, cfg.Turnstile.Enabled)
}

func TestSetupEnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("HOST_BASE_URL", "https://diabetes.example.com/")
	t.Setenv("HOST_CORS", "https://a.example.com, https://b.example.com")
	t.Setenv("MAIL_PORT", "465")
	t.Setenv("MAIL_USE_SSL", "true")
	t.Setenv("MAIL_DEFAULT_SENDER", "reports@example.com")
	t.Setenv("STORAGE_TYPE", "sqlite")
	t.Setenv("STORAGE_DSN", "file.db")

	cfg, err := Setup(nil)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Host.Port)
	assert.Equal(t, "https://diabetes.example.com", cfg.Host.BaseURL)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Host.CORS)
	assert.Equal(t, 465, cfg.Mail.Port)
	assert.True(t, cfg.Mail.UseSSL)
	assert.Equal(t, "reports@example.com", cfg.Mail.Sender)
	assert.Equal(t, "sqlite", cfg.Storage.Type)
	assert.Equal(t, "file.db", cfg.Storage.DSN)
}

func TestSetupFlagsOverrideEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9090")

	fs := Flags()
	require.NoError(t, fs.Parse([]string{"--port", "7070", "--log-level", "debug"}))

	cfg, err := Setup(fs)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Host.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestSetupValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing secret", map[string]string{"SECRET_KEY": ""}, "no secret key set"},
		{"bad log level", map[string]string{"APP_LOG_LEVEL": "loud"}, "invalid log level provided"},
		{"bad port", map[string]string{"PORT": "-1"}, "invalid port provided"},
		{"bad storage", map[string]string{"STORAGE_TYPE": "csv"}, "invalid storage type provided"},
		{"missing mongo uri", map[string]string{"MONGO_URI": ""}, "mongo uri can't be empty"},
		{"missing mail server", map[string]string{"MAIL_SERVER": ""}, "mail server can't be empty"},
		{"turnstile without secret", map[string]string{"TURNSTILE_ENABLED": "true"}, "turnstile secret token is missing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Setup(nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
