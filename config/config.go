package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	// ErrEnvFileNotFound is returned when no env file exists
	ErrEnvFileNotFound = errors.New("no .env file found")

	// ErrSubscriptionIDMissing is returned when AZURE_SUBSCRIPTION_ID is not set anywhere
	ErrSubscriptionIDMissing = errors.New("AZURE_SUBSCRIPTION_ID is not defined")
)

// FindEnvFile looks for .env in start and each of its parent directories
func FindEnvFile(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("failed to resolve directory %s: %w", start, err)
	}

	for {
		candidate := filepath.Join(dir, EnvFileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w in %s or any parent directory", ErrEnvFileNotFound, start)
		}
		dir = parent
	}
}

// Load reads the env file, overlays the process environment and flags, and validates the result
func Load(opts LoadOptions, flags *pflag.FlagSet) (*Config, error) {
	path, err := resolveEnvFile(opts)
	if err != nil {
		return nil, err
	}

	slog.Debug("Loading env file", "path", path)

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to parse env file %s: %w", path, err)
	}

	if err := exportAzureSettings(v); err != nil {
		return nil, err
	}

	v.AutomaticEnv()
	v.SetDefault(KeyConcurrency, DefaultConcurrency)
	v.SetDefault(KeyOutput, OutputTable)
	v.SetDefault(KeyNoColor, false)

	if flags != nil {
		for key, name := range opts.Flags {
			flag := flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
	}

	cfg := &Config{
		EnvFile:        path,
		SubscriptionID: strings.TrimSpace(v.GetString(KeySubscriptionID)),
		Concurrency:    v.GetInt(KeyConcurrency),
		Output:         strings.ToLower(strings.TrimSpace(v.GetString(KeyOutput))),
		Template:       strings.TrimSpace(v.GetString(KeyTemplate)),
		NoColor:        v.GetBool(KeyNoColor),
	}

	slog.Debug("Resolved configuration",
		"env_file", cfg.EnvFile,
		"subscription_id", cfg.SubscriptionID,
		"concurrency", cfg.Concurrency,
		"output", cfg.Output)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks the resolved configuration
func (c *Config) Validate() error {
	if c.SubscriptionID == "" {
		return fmt.Errorf("%w: please set it in your .env file or environment", ErrSubscriptionIDMissing)
	}

	if c.Concurrency < 1 {
		return fmt.Errorf("%s must be at least 1, got %d", KeyConcurrency, c.Concurrency)
	}

	switch c.Output {
	case OutputTable, OutputYAML, OutputJSON:
	case OutputTemplate:
		if c.Template == "" {
			return fmt.Errorf("%s is required when output is '%s'", KeyTemplate, OutputTemplate)
		}
	default:
		return fmt.Errorf("unsupported output format '%s' (must be table, yaml, json, or template)", c.Output)
	}

	return nil
}

func resolveEnvFile(opts LoadOptions) (string, error) {
	if opts.EnvFile != "" {
		info, err := os.Stat(opts.EnvFile)
		if err != nil {
			if os.IsNotExist(err) {
				return "", fmt.Errorf("%w: %s", ErrEnvFileNotFound, opts.EnvFile)
			}
			return "", fmt.Errorf("failed to read env file: %w", err)
		}
		if info.IsDir() {
			return "", fmt.Errorf("env file %s is a directory", opts.EnvFile)
		}
		return opts.EnvFile, nil
	}

	start := opts.WorkDir
	if start == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get working directory: %w", err)
		}
		start = wd
	}
	return FindEnvFile(start)
}

// exportAzureSettings copies AZURE_* values from the env file into the process
// environment so the azidentity credential chain can see them. Variables that
// are already set win.
func exportAzureSettings(v *viper.Viper) error {
	for _, key := range v.AllKeys() {
		name := strings.ToUpper(key)
		if !strings.HasPrefix(name, "AZURE_") {
			continue
		}
		if _, ok := os.LookupEnv(name); ok {
			continue
		}
		if err := os.Setenv(name, v.GetString(key)); err != nil {
			return fmt.Errorf("failed to export %s: %w", name, err)
		}
	}
	return nil
}
