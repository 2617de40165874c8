package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks the keys Load reads so values exported by other tests do not leak in
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{KeySubscriptionID, KeyConcurrency, KeyOutput, KeyNoColor, KeyTemplate, "AZURE_TENANT_ID", "AZURE_CLIENT_ID"} {
		t.Setenv(key, "")
	}
}

func writeEnvFile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, EnvFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestFindEnvFile(t *testing.T) {
	t.Run("in start directory", func(t *testing.T) {
		dir := t.TempDir()
		expected := writeEnvFile(t, dir, "AZURE_SUBSCRIPTION_ID=sub\n")

		path, err := FindEnvFile(dir)
		require.NoError(t, err)
		assert.Equal(t, expected, path)
	})

	t.Run("in parent directory", func(t *testing.T) {
		root := t.TempDir()
		expected := writeEnvFile(t, root, "AZURE_SUBSCRIPTION_ID=sub\n")
		nested := filepath.Join(root, "a", "b")
		require.NoError(t, os.MkdirAll(nested, 0755))

		path, err := FindEnvFile(nested)
		require.NoError(t, err)
		assert.Equal(t, expected, path)
	})

	t.Run("directory named .env is ignored", func(t *testing.T) {
		root := t.TempDir()
		expected := writeEnvFile(t, root, "AZURE_SUBSCRIPTION_ID=sub\n")
		child := filepath.Join(root, "child")
		require.NoError(t, os.MkdirAll(filepath.Join(child, EnvFileName), 0755))

		path, err := FindEnvFile(child)
		require.NoError(t, err)
		assert.Equal(t, expected, path)
	})
}

func TestLoad(t *testing.T) {
	t.Run("values from env file", func(t *testing.T) {
		clearEnv(t)
		dir := t.TempDir()
		writeEnvFile(t, dir, `AZURE_SUBSCRIPTION_ID=11111111-2222-3333-4444-555555555555
INFRAWATCH_CONCURRENCY=4
INFRAWATCH_OUTPUT=YAML
`)

		cfg, err := Load(LoadOptions{WorkDir: dir}, nil)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, EnvFileName), cfg.EnvFile)
		assert.Equal(t, "11111111-2222-3333-4444-555555555555", cfg.SubscriptionID)
		assert.Equal(t, 4, cfg.Concurrency)
		assert.Equal(t, OutputYAML, cfg.Output)
		assert.False(t, cfg.NoColor)
	})

	t.Run("defaults", func(t *testing.T) {
		clearEnv(t)
		dir := t.TempDir()
		writeEnvFile(t, dir, "AZURE_SUBSCRIPTION_ID=sub-1\n")

		cfg, err := Load(LoadOptions{WorkDir: dir}, nil)
		require.NoError(t, err)
		assert.Equal(t, DefaultConcurrency, cfg.Concurrency)
		assert.Equal(t, OutputTable, cfg.Output)
	})

	t.Run("environment overrides env file", func(t *testing.T) {
		clearEnv(t)
		dir := t.TempDir()
		writeEnvFile(t, dir, "AZURE_SUBSCRIPTION_ID=from-file\n")
		t.Setenv(KeySubscriptionID, "from-env")
		t.Setenv(KeyNoColor, "true")

		cfg, err := Load(LoadOptions{WorkDir: dir}, nil)
		require.NoError(t, err)
		assert.Equal(t, "from-env", cfg.SubscriptionID)
		assert.True(t, cfg.NoColor)
	})

	t.Run("flags override environment", func(t *testing.T) {
		clearEnv(t)
		dir := t.TempDir()
		writeEnvFile(t, dir, "AZURE_SUBSCRIPTION_ID=sub-1\nINFRAWATCH_CONCURRENCY=2\n")
		t.Setenv(KeyOutput, "yaml")

		flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
		flags.Int("concurrency", DefaultConcurrency, "")
		flags.String("output", OutputTable, "")
		require.NoError(t, flags.Parse([]string{"--output=json"}))

		cfg, err := Load(LoadOptions{
			WorkDir: dir,
			Flags: map[string]string{
				KeyConcurrency: "concurrency",
				KeyOutput:      "output",
				KeyNoColor:     "missing-flag",
			},
		}, flags)
		require.NoError(t, err)
		assert.Equal(t, OutputJSON, cfg.Output)
		// Unchanged flags do not shadow the env file
		assert.Equal(t, 2, cfg.Concurrency)
	})

	t.Run("explicit env file", func(t *testing.T) {
		clearEnv(t)
		path := filepath.Join(t.TempDir(), "prod.env")
		require.NoError(t, os.WriteFile(path, []byte("AZURE_SUBSCRIPTION_ID=prod-sub\n"), 0600))

		cfg, err := Load(LoadOptions{EnvFile: path}, nil)
		require.NoError(t, err)
		assert.Equal(t, path, cfg.EnvFile)
		assert.Equal(t, "prod-sub", cfg.SubscriptionID)
	})

	t.Run("explicit env file not found", func(t *testing.T) {
		clearEnv(t)
		_, err := Load(LoadOptions{EnvFile: "/nonexistent/path/.env"}, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrEnvFileNotFound)
	})

	t.Run("missing subscription ID", func(t *testing.T) {
		clearEnv(t)
		dir := t.TempDir()
		writeEnvFile(t, dir, "AZURE_TENANT_ID=tenant\n")

		_, err := Load(LoadOptions{WorkDir: dir}, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrSubscriptionIDMissing)
	})

	t.Run("azure settings are exported", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("AZURE_TENANT_ID", "placeholder")
		require.NoError(t, os.Unsetenv("AZURE_TENANT_ID"))
		t.Setenv("AZURE_CLIENT_ID", "already-set")

		dir := t.TempDir()
		writeEnvFile(t, dir, "AZURE_SUBSCRIPTION_ID=sub-1\nAZURE_TENANT_ID=tenant-from-file\nAZURE_CLIENT_ID=client-from-file\n")

		_, err := Load(LoadOptions{WorkDir: dir}, nil)
		require.NoError(t, err)
		assert.Equal(t, "tenant-from-file", os.Getenv("AZURE_TENANT_ID"))
		assert.Equal(t, "already-set", os.Getenv("AZURE_CLIENT_ID"))
	})
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{SubscriptionID: "sub", Concurrency: 1, Output: OutputTable}
	}

	t.Run("valid config", func(t *testing.T) {
		cfg := valid()
		assert.NoError(t, cfg.Validate())
	})

	t.Run("valid template config", func(t *testing.T) {
		cfg := valid()
		cfg.Output = OutputTemplate
		cfg.Template = "report.tmpl"
		assert.NoError(t, cfg.Validate())
	})

	testCases := []struct {
		name        string
		mutate      func(*Config)
		expectedErr string
	}{
		{
			name:        "missing subscription",
			mutate:      func(c *Config) { c.SubscriptionID = "" },
			expectedErr: "AZURE_SUBSCRIPTION_ID is not defined",
		},
		{
			name:        "zero concurrency",
			mutate:      func(c *Config) { c.Concurrency = 0 },
			expectedErr: "must be at least 1",
		},
		{
			name:        "template output without template",
			mutate:      func(c *Config) { c.Output = OutputTemplate },
			expectedErr: "INFRAWATCH_TEMPLATE is required",
		},
		{
			name:        "unknown output",
			mutate:      func(c *Config) { c.Output = "csv" },
			expectedErr: "unsupported output format 'csv'",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(&cfg)
			err := cfg.Validate()
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tc.expectedErr)
		})
	}
}
