package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const minimalOpen = `
app:
  app_env: dev
auth:
  mode: open
`

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalOpen))
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.Server.Addr)
	require.Equal(t, "memory", cfg.Storage.Driver)
	require.Equal(t, "https://api.anthropic.com", cfg.LLM.BaseURL)
	require.Equal(t, 1024, cfg.LLM.MaxTokens)
	require.Equal(t, 120*time.Second, cfg.LLMTimeout())
	require.Equal(t, 14*24*time.Hour, cfg.TrialWindow())
	require.Equal(t, time.Minute, cfg.RateWindow())
	require.Equal(t, 30, cfg.Rate.MaxRequests)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_ADDR", ":9999")
	t.Setenv("AUTH_ADMIN_IDS", "ops-1, ops-2")
	t.Setenv("TRIAL_WINDOW", "24h")
	t.Setenv("ANTHROPIC_API_KEY", "sk-env")

	cfg, err := Load(writeConfig(t, minimalOpen))
	require.NoError(t, err)

	require.Equal(t, ":9999", cfg.Server.Addr)
	require.Equal(t, []string{"ops-1", "ops-2"}, cfg.Auth.AdminIDs)
	require.Equal(t, 24*time.Hour, cfg.TrialWindow())
	require.Equal(t, "sk-env", cfg.LLM.APIKey)
}

func TestLoad_VarExpansion(t *testing.T) {
	t.Setenv("TEST_SECRET_9Q", "super-secreto")
	content := minimalOpen + `
billing:
  stripe_webhook_secret: "${TEST_SECRET_9Q}"
`
	cfg, err := Load(writeConfig(t, content))
	require.NoError(t, err)
	require.Equal(t, "super-secreto", cfg.Billing.StripeWebhookSecret)
}

func TestLoad_OpenModeForbiddenInProd(t *testing.T) {
	content := `
app:
  app_env: prod
auth:
  mode: open
`
	_, err := Load(writeConfig(t, content))
	require.Error(t, err)
	require.Contains(t, err.Error(), "prod")
}

func TestLoad_StrictRequiresSecret(t *testing.T) {
	content := `
auth:
  mode: strict
`
	_, err := Load(writeConfig(t, content))
	require.Error(t, err)
	require.Contains(t, err.Error(), "jwt_secret")
}

func TestLoad_InvalidDuration(t *testing.T) {
	content := minimalOpen + `
rate:
  window: "un rato"
`
	_, err := Load(writeConfig(t, content))
	require.Error(t, err)
}

func TestLoad_PostgresRequiresDSN(t *testing.T) {
	content := minimalOpen + `
storage:
  driver: postgres
`
	_, err := Load(writeConfig(t, content))
	require.Error(t, err)
	require.Contains(t, err.Error(), "dsn")
}

func TestLoad_InvalidAuthMode(t *testing.T) {
	content := `
auth:
  mode: maybe
`
	_, err := Load(writeConfig(t, content))
	require.Error(t, err)
}
