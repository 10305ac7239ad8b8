package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func offlineEnv(t *testing.T) {
	t.Helper()
	t.Setenv("TELEGRAM_MODE", ModeOff)
	t.Setenv("TELEGRAM_TOKEN", "")
	t.Setenv("TOKEN", "")
}

func TestLoadDefaults(t *testing.T) {
	offlineEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Empty(t, cfg.Server.AdminToken)
	assert.Equal(t, []string{"📝 Оставить заявку", "/request"}, cfg.Intake.StartKeywords)
	assert.Equal(t, []string{"❌ Отменить", "/cancel"}, cfg.Intake.CancelKeywords)
	assert.Equal(t, 2, cfg.Intake.Rules().MinNameLen)
	assert.Equal(t, 10, cfg.Intake.Rules().MinPhoneDigits)
	assert.Equal(t, 5, cfg.Intake.Rules().MinMessageLen)
	assert.Equal(t, 24*time.Hour, cfg.Intake.SessionTTL)
	assert.Equal(t, BackendFile, cfg.Storage.Backend)
	assert.False(t, cfg.Telegram.Enabled())
}

func TestLoadOverrides(t *testing.T) {
	offlineEnv(t)
	t.Setenv("PORT", "127.0.0.1:9000")
	t.Setenv("INTAKE_START_KEYWORDS", "start,go")
	t.Setenv("INTAKE_CANCEL_KEYWORDS", "cancel")
	t.Setenv("INTAKE_MIN_PHONE_DIGITS", "7")
	t.Setenv("INTAKE_INFO_INTERCEPT", "true")
	t.Setenv("STORAGE_BACKEND", BackendSQLite)
	t.Setenv("ADMIN_TOKEN", "adm1n")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, "adm1n", cfg.Server.AdminToken)
	opts := cfg.Intake.Options()
	assert.Equal(t, []string{"start", "go"}, opts.StartKeywords)
	assert.Equal(t, []string{"cancel"}, opts.CancelKeywords)
	assert.Equal(t, 7, opts.Rules.MinPhoneDigits)
	assert.True(t, opts.InfoIntercept)
	assert.Equal(t, "leads.db", cfg.Storage.SQLitePath)
}

func TestLegacyTokenVariable(t *testing.T) {
	t.Setenv("TELEGRAM_MODE", ModePolling)
	t.Setenv("TELEGRAM_TOKEN", "")
	t.Setenv("TOKEN", "legacy")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "legacy", cfg.Telegram.Token)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"polling without token": {"TELEGRAM_MODE": ModePolling},
		"webhook without url":   {"TELEGRAM_MODE": ModeWebhook, "TELEGRAM_TOKEN": "t"},
		"unknown mode":          {"TELEGRAM_MODE": "carrier-pigeon"},
		"unknown backend":       {"STORAGE_BACKEND": "tape"},
		"bad port":              {"PORT": "80 80"},
		"bad int":               {"INTAKE_MIN_NAME_LEN": "two"},
		"negative threshold":    {"INTAKE_MIN_MESSAGE_LEN": "-1"},
	}

	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			offlineEnv(t)
			for k, v := range vars {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestNormalizeAddr(t *testing.T) {
	for in, want := range map[string]string{
		"":          ":8080",
		"9090":      ":9090",
		":7070":     ":7070",
		"0.0.0.0:1": "0.0.0.0:1",
	} {
		got, err := normalizeAddr(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}
