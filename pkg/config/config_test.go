package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetModelProvider(t *testing.T) {
	tests := []struct {
		model    string
		provider string
		wantErr  bool
	}{
		{ModelClaudeSonnet4, ProviderAnthropic, false},
		{ModelGPT5, ProviderOpenAI, false},
		{ModelGemini3Pro, ProviderGoogle, false},
		{"claude-next-unknown", ProviderAnthropic, false}, // prefix inference
		{"llama3.3:70b", ProviderOllama, false},
		{"totally-unknown-model", "", true},
	}

	for _, tt := range tests {
		provider, err := GetModelProvider(tt.model)
		if tt.wantErr {
			assert.Error(t, err, "model %s", tt.model)
			continue
		}
		require.NoError(t, err, "model %s", tt.model)
		assert.Equal(t, tt.provider, provider, "model %s", tt.model)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultAssistantModel, cfg.Model)
	assert.Equal(t, DefaultTotalDays, cfg.Balance.TotalDays)
	assert.Equal(t, DefaultUsedDays, cfg.Balance.UsedDays)
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "assistant.yaml")
	data := []byte("model: gpt-5\nmax_iterations: 5\nbalance:\n  total_days: 30\n  used_days: 12\n")
	require.NoError(t, os.WriteFile(path, data, 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gpt-5", cfg.Model)
	assert.Equal(t, 5, cfg.MaxIterations)
	assert.Equal(t, 30, cfg.Balance.TotalDays)
	assert.Equal(t, 12, cfg.Balance.UsedDays)
	// Untouched fields keep defaults.
	assert.Equal(t, DefaultSystemPrompt, cfg.SystemPrompt)
}

func TestValidateRejectsBadBalance(t *testing.T) {
	cfg := Default()
	cfg.Balance.UsedDays = cfg.Balance.TotalDays + 1
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.MaxIterations = 0
	assert.Error(t, cfg.Validate())
}

func TestSecretsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	secrets := map[string]string{EnvAnthropicAPIKey: "sk-test-123"}

	require.NoError(t, EncryptSecretsFile(dir, "passw0rd", secrets))
	require.True(t, SecretsFileExists(dir))

	got, err := DecryptSecretsFile(dir, "passw0rd")
	require.NoError(t, err)
	assert.Equal(t, secrets, got)

	_, err = DecryptSecretsFile(dir, "wrong-password")
	assert.Error(t, err)
}

func TestGetAPIKeyFromSecrets(t *testing.T) {
	SetDecryptedSecrets(map[string]string{EnvAnthropicAPIKey: "sk-from-secrets"})
	defer SetDecryptedSecrets(nil)

	key, err := GetAPIKey(ProviderAnthropic)
	require.NoError(t, err)
	assert.Equal(t, "sk-from-secrets", key)
}

func TestGetAPIKeyOllamaDefaultsToLocalhost(t *testing.T) {
	t.Setenv(EnvOllamaHost, "")
	host, err := GetAPIKey(ProviderOllama)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:11434", host)
}
