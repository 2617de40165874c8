package config

// Keys read from the env file, the environment or flags
const (
	KeySubscriptionID = "AZURE_SUBSCRIPTION_ID"
	KeyConcurrency    = "INFRAWATCH_CONCURRENCY"
	KeyOutput         = "INFRAWATCH_OUTPUT"
	KeyNoColor        = "INFRAWATCH_NO_COLOR"
	KeyTemplate       = "INFRAWATCH_TEMPLATE"
)

// Output formats
const (
	OutputTable    = "table"
	OutputYAML     = "yaml"
	OutputJSON     = "json"
	OutputTemplate = "template"
)

const (
	// EnvFileName is the file searched for when no path is given
	EnvFileName = ".env"

	DefaultConcurrency = 8
)

// Config represents the resolved runtime configuration
type Config struct {
	EnvFile        string // Path of the env file that was loaded
	SubscriptionID string // Azure subscription to inventory
	Concurrency    int    // VMs enriched at once
	Output         string // table, yaml, json or template
	Template       string // text/template file used by the template output
	NoColor        bool   // Disable colored table output
}

// LoadOptions controls where configuration is read from
type LoadOptions struct {
	// EnvFile is an explicit env file path. When empty the file is searched for from WorkDir upwards.
	EnvFile string

	// WorkDir is where the search starts. Defaults to the current directory.
	WorkDir string

	// Flags maps config keys to command line flag names
	Flags map[string]string
}
