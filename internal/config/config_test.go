package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/leofalp/chatgate/providers/ai"
)

// TestLoadSettings_Defaults verifies settings load without a config file.
func TestLoadSettings_Defaults(t *testing.T) {
	config, err := LoadSettings("")
	require.NoError(t, err)

	settings := config.Get()
	require.Equal(t, ":8080", settings.Server.Addr)
	require.Equal(t, 5*time.Minute, settings.Server.RequestTimeout)
	require.Equal(t, 30*time.Second, settings.Tools.Timeout)
	require.Equal(t, "chatgate.db", settings.Store.Path)
	require.False(t, settings.Tools.Parallel)
}

// TestLoadSettings_FileAndEnv verifies the file is read and CHATGATE_*
// variables override it.
func TestLoadSettings_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chatgate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9000"
  request_timeout: 2m
tools:
  parallel: true
providers:
  azure:
    api_key: file-key
    base_url: https://example.openai.azure.com
    deployments:
      gpt-4o: prod-4o
`), 0o600))
	t.Setenv("CHATGATE_SERVER_ADDR", ":9100")
	t.Setenv("CHATGATE_TOOLS_PARALLEL_LIMIT", "8")

	config, err := Load[Settings](path, WithoutWatch[Settings](), WithDefaults[Settings](Defaults()), WithEnv[Settings](EnvPrefix))
	require.NoError(t, err)

	settings := config.Get()
	require.Equal(t, ":9100", settings.Server.Addr)
	require.Equal(t, 2*time.Minute, settings.Server.RequestTimeout)
	require.True(t, settings.Tools.Parallel)
	require.Equal(t, 8, settings.Tools.ParallelLimit)

	azure := settings.Providers["azure"]
	require.Equal(t, "file-key", azure.APIKey)
	require.Equal(t, "prod-4o", azure.Deployments["gpt-4o"])
}

// TestCredentials verifies provider blocks are served per vendor and a
// missing key is a MissingCredential error.
func TestCredentials(t *testing.T) {
	t.Setenv("CHATGATE_PROVIDERS_OPENAI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-alias")
	t.Setenv("CHATGATE_PROVIDERS_ANTHROPIC_API_KEY", "sk-ant")
	t.Setenv("CHATGATE_PROVIDERS_MISTRAL_API_KEY", "")
	t.Setenv("MISTRAL_API_KEY", "")

	config, err := LoadSettings("")
	require.NoError(t, err)
	credentials := NewCredentials(config)

	openai, err := credentials.Credentials(context.Background(), ai.VendorOpenAI)
	require.NoError(t, err)
	require.Equal(t, "sk-alias", openai.APIKey)
	require.Equal(t, ai.VendorOpenAI, openai.Vendor)

	anthropic, err := credentials.Credentials(context.Background(), ai.VendorAnthropic)
	require.NoError(t, err)
	require.Equal(t, "sk-ant", anthropic.APIKey)

	_, err = credentials.Credentials(context.Background(), ai.VendorMistral)
	require.True(t, ai.IsKind(err, ai.KindMissingCredential), "got %v", err)
	require.Contains(t, ai.UserMessage(err), "Mistral API Key not found")
}

// TestGet_ReturnsCopy verifies callers cannot mutate the stored value.
func TestGet_ReturnsCopy(t *testing.T) {
	t.Setenv("CHATGATE_PROVIDERS_OPENAI_API_KEY", "sk-1")

	config, err := LoadSettings("")
	require.NoError(t, err)

	settings := config.Get()
	settings.Providers["openai"] = ProviderSettings{APIKey: "changed"}
	require.Equal(t, "sk-1", config.Get().Providers["openai"].APIKey)
}

// TestOnChange verifies a rewritten file reloads and notifies watchers.
func TestOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chatgate.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \":7000\"\n"), 0o600))

	config, err := Load[Settings](path)
	require.NoError(t, err)

	changed := make(chan string, 1)
	config.OnChange(func(old, new Settings) {
		if new.Server.Addr == ":7001" {
			select {
			case changed <- new.Server.Addr:
			default:
			}
		}
	})

	require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \":7001\"\n"), 0o600))

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("no change notification")
	}
	require.Equal(t, ":7001", config.Get().Server.Addr)
}

// TestLoadDotEnv verifies .env files populate unset variables only and
// missing files are ignored.
func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("CHATGATE_TEST_FROM_FILE=file\nCHATGATE_TEST_PRESET=file\n"), 0o600))
	t.Setenv("CHATGATE_TEST_PRESET", "env")
	t.Setenv("CHATGATE_TEST_FROM_FILE", "")
	require.NoError(t, os.Unsetenv("CHATGATE_TEST_FROM_FILE"))

	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env"), path))
	require.Equal(t, "file", os.Getenv("CHATGATE_TEST_FROM_FILE"))
	require.Equal(t, "env", os.Getenv("CHATGATE_TEST_PRESET"))
}
