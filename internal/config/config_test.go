package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var overrideVars = []string{
	"GITHUB_TOKEN", "GITHUB_RATE_LIMIT", "MAX_ANOMALIES", "LOG_JSON",
	"JIRA_URL", "JIRA_EMAIL", "JIRA_USERNAME", "JIRA_API_TOKEN", "JIRA_PERSONAL_TOKEN",
	"ANTHROPIC_API_KEY", "CLAUDE_API_KEY", "CLAUDE_MODEL",
	"BACKEND_API_URL", "CORS_ORIGINS", "HTTP_ADDR", "LOG_LEVEL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range overrideVars {
		t.Setenv(k, "")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, ":8000", cfg.HTTP.Addr)
	assert.Equal(t, 20, cfg.Detection.MaxAnomalies)
	assert.Equal(t, DefaultClaudeModel, cfg.Claude.Model)
	assert.Equal(t, 10*time.Second, cfg.HTTP.ShutdownTimeout)
}

func TestApplyEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("GITHUB_TOKEN", "ghp_token")
	t.Setenv("JIRA_URL", "https://acme.atlassian.net/")
	t.Setenv("JIRA_USERNAME", "pm@acme.io")
	t.Setenv("JIRA_API_TOKEN", "jira-token")
	t.Setenv("CLAUDE_API_KEY", "sk-ant-fallback")
	t.Setenv("CORS_ORIGINS", "http://localhost:3000, https://app.acme.io")
	t.Setenv("MAX_ANOMALIES", "5")

	cfg := Default()
	applyEnvOverrides(cfg)

	assert.Equal(t, "ghp_token", cfg.GitHub.Token)
	assert.Equal(t, "https://acme.atlassian.net", cfg.Jira.URL)
	assert.Equal(t, "pm@acme.io", cfg.Jira.Email)
	assert.True(t, cfg.Jira.Configured())
	assert.Equal(t, "sk-ant-fallback", cfg.Claude.APIKey)
	assert.Equal(t, []string{"http://localhost:3000", "https://app.acme.io"}, cfg.HTTP.CORSOrigins)
	assert.Equal(t, 5, cfg.Detection.MaxAnomalies)

	t.Run("primary names win over aliases", func(t *testing.T) {
		t.Setenv("JIRA_EMAIL", "primary@acme.io")
		t.Setenv("ANTHROPIC_API_KEY", "sk-ant-primary")
		cfg := Default()
		applyEnvOverrides(cfg)
		assert.Equal(t, "primary@acme.io", cfg.Jira.Email)
		assert.Equal(t, "sk-ant-primary", cfg.Claude.APIKey)
	})
}

type fakeSecrets struct {
	available bool
	values    map[string]string
	calls     int
}

func (f *fakeSecrets) IsAvailable() bool { return f.available }

func (f *fakeSecrets) Get(item string) (string, error) {
	f.calls++
	return f.values[item], nil
}

func TestApplyKeychainFallback(t *testing.T) {
	t.Run("fills only missing secrets", func(t *testing.T) {
		cfg := Default()
		cfg.GitHub.Token = "from-env"
		ks := &fakeSecrets{available: true, values: map[string]string{
			KeyringGitHubTokenItem:  "from-keychain",
			KeyringAnthropicKeyItem: "sk-ant-keychain",
		}}
		applyKeychainFallback(cfg, ks)
		assert.Equal(t, "from-env", cfg.GitHub.Token)
		assert.Equal(t, "sk-ant-keychain", cfg.Claude.APIKey)
		assert.Empty(t, cfg.Jira.APIToken)
	})

	t.Run("unavailable keychain is skipped", func(t *testing.T) {
		cfg := Default()
		ks := &fakeSecrets{available: false}
		applyKeychainFallback(cfg, ks)
		assert.Zero(t, ks.calls)
	})
}

func TestLoad_FromFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOG_LEVEL", "debug")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
use_keychain: false
http:
  addr: ":9090"
github:
  rate_limit: 3
jira:
  url: https://jira.internal
  personal_token: pat
detection:
  max_anomalies: 7
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, 3, cfg.GitHub.RateLimit)
	assert.Equal(t, 7, cfg.Detection.MaxAnomalies)
	assert.True(t, cfg.Jira.Configured())
	assert.Equal(t, "debug", cfg.Log.Level, "env overrides file")
	assert.Equal(t, DefaultClaudeModel, cfg.Claude.Model, "defaults survive partial files")
}

func TestValidate(t *testing.T) {
	t.Run("serve with defaults only warns", func(t *testing.T) {
		res := Default().Validate(ValidationContextServe)
		assert.False(t, res.HasErrors(), res.Error())
		assert.NotEmpty(t, res.Warnings)
	})

	t.Run("chat requires a key", func(t *testing.T) {
		res := Default().Validate(ValidationContextChat)
		assert.True(t, res.HasErrors())
		assert.Contains(t, res.Error(), "ANTHROPIC_API_KEY")
	})

	t.Run("mcp needs at least one source", func(t *testing.T) {
		res := Default().Validate(ValidationContextMCP)
		assert.True(t, res.HasErrors())

		cfg := Default()
		cfg.GitHub.Token = "ghp"
		assert.False(t, cfg.Validate(ValidationContextMCP).HasErrors())
	})

	t.Run("bad values", func(t *testing.T) {
		cfg := Default()
		cfg.Log.Level = "loud"
		cfg.Detection.MaxAnomalies = -1
		cfg.HTTP.CORSOrigins = []string{"not a url"}
		res := cfg.Validate(ValidationContextAll)
		assert.Len(t, res.Errors, 3)
	})
}

func TestMaskSecretAndRedacted(t *testing.T) {
	assert.Equal(t, "(not set)", MaskSecret(""))
	assert.Equal(t, "***", MaskSecret("short"))
	assert.Equal(t, "sk-ant-...wxyz", MaskSecret("sk-ant-abcdefghwxyz"))

	cfg := Default()
	cfg.Claude.APIKey = "sk-ant-abcdefghwxyz"
	red := cfg.Redacted()
	assert.Equal(t, "sk-ant-...wxyz", red.Claude.APIKey)
	assert.Equal(t, "sk-ant-abcdefghwxyz", cfg.Claude.APIKey)
}
