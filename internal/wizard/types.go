package wizard

import (
	"github.com/charmbracelet/bubbles/textinput"
)

// WizardState represents the current step in the wizard flow
type WizardState int

const (
	StateWelcome WizardState = iota
	StateCheckExisting
	StateDatabaseType
	StateConnectionDetails
	StateTestConnection
	StateSinkDetails
	StateSummary
	StateCreating
	StateDone
	StateError
)

// Options configure a wizard run.
type Options struct {
	// ConfigPath is where sqlsink.toml is written.
	ConfigPath string
	// Force replaces an existing config instead of merging into it.
	Force bool
	// TestConnection overrides the connection check, mainly for tests.
	TestConnection func(connStr string, dbType string) error
}

// WizardModel holds the state for the Bubble Tea wizard
type WizardModel struct {
	state WizardState
	opts  Options

	// Existing config detection
	existingConfigPath string
	existingEnvNames   []string

	env  EnvironmentInput
	sink SinkInput

	// Connection testing
	testingConnection    bool
	connectionTestResult string
	connectionError      error
	retryChoice          int // 0=retry, 1=edit, 2=quit

	inputs     []textinput.Model
	focusIndex int

	dbTypeIndex int

	errors map[string]string

	result *InitResult
	err    error

	width  int
	height int
}

// EnvironmentInput holds user input for the environment being configured
type EnvironmentInput struct {
	Name         string
	DatabaseType string // "postgres", "sqlite", "libsql"

	// PostgreSQL fields
	Host     string
	Port     string
	Database string
	User     string
	Password string
	SSLMode  string

	// SQLite fields
	FilePath string

	// libSQL fields
	URL       string
	AuthToken string
}

// SinkInput holds the table mapping entered by the user.
type SinkInput struct {
	Table      string
	Columns    []string
	KeyColumns []string
}

// InitResult contains the outcome of running the wizard
type InitResult struct {
	ConfigPath       string
	ConfigCreated    bool
	ConfigUpdated    bool
	EnvFiles         []string
	GitignoreUpdated bool
}

// DatabaseType represents a database option
type DatabaseType struct {
	ID          string
	DisplayName string
	Description string
	Icon        string
}

// Available database types
var DatabaseTypes = []DatabaseType{
	{
		ID:          "postgres",
		DisplayName: "PostgreSQL",
		Description: "recommended for production",
		Icon:        "🐘",
	},
	{
		ID:          "sqlite",
		DisplayName: "SQLite",
		Description: "simple, file-based",
		Icon:        "📁",
	},
	{
		ID:          "libsql",
		DisplayName: "libSQL/Turso",
		Description: "edge database",
		Icon:        "🌐",
	},
}
