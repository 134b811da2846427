package wizard

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lockplane/sqlsink/internal/config"
)

// New creates a new wizard model
func New(opts Options) WizardModel {
	if opts.ConfigPath == "" {
		opts.ConfigPath = config.FileName
	}
	if opts.TestConnection == nil {
		opts.TestConnection = TestConnection
	}
	return WizardModel{
		state:  StateWelcome,
		opts:   opts,
		errors: make(map[string]string),
	}
}

// Init initializes the wizard (Bubble Tea Init)
func (m WizardModel) Init() tea.Cmd {
	return m.checkForExistingConfig
}

// Update handles state transitions (Bubble Tea Update)
func (m WizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "q":
			if !m.editing() {
				return m, tea.Quit
			}
			return m.handleTextInput(msg)

		case "enter":
			return m.handleEnter()

		case "up":
			return m.handleUp()

		case "down":
			return m.handleDown()

		case "tab":
			return m.handleTab()

		default:
			return m.handleTextInput(msg)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case connectionTestResultMsg:
		m.testingConnection = false
		if msg.err != nil {
			m.connectionError = msg.err
			m.connectionTestResult = "failed"
		} else {
			m.connectionTestResult = "success"
			m.connectionError = nil
		}
		return m, nil

	case fileCreationResultMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = StateError
			return m, nil
		}
		m.result = msg.result
		m.state = StateDone
		return m, nil

	case existingConfigMsg:
		if msg.path != "" {
			m.existingConfigPath = msg.path
			m.existingEnvNames = msg.envNames
			m.state = StateCheckExisting
		} else {
			m.state = StateWelcome
		}
		return m, nil
	}

	return m, nil
}

// View renders the wizard UI (Bubble Tea View)
func (m WizardModel) View() string {
	switch m.state {
	case StateWelcome:
		return m.renderWelcome()
	case StateCheckExisting:
		return m.renderCheckExisting()
	case StateDatabaseType:
		return m.renderDatabaseType()
	case StateConnectionDetails:
		return m.renderInputs("Connection Details", "Enter: test connection")
	case StateTestConnection:
		return m.renderTestConnection()
	case StateSinkDetails:
		return m.renderInputs("Table Mapping", "Enter: review")
	case StateSummary:
		return m.renderSummary()
	case StateCreating:
		return m.renderCreating()
	case StateDone:
		return m.renderDone()
	case StateError:
		return m.renderError()
	default:
		return "Unknown state"
	}
}

// Result returns the files written, once the wizard is done.
func (m WizardModel) Result() *InitResult {
	return m.result
}

// Err returns the failure that ended the wizard, if any.
func (m WizardModel) Err() error {
	return m.err
}

func (m WizardModel) editing() bool {
	return m.state == StateConnectionDetails || m.state == StateSinkDetails
}

// State transition handlers

func (m WizardModel) handleEnter() (tea.Model, tea.Cmd) {
	switch m.state {
	case StateWelcome, StateCheckExisting:
		m.state = StateDatabaseType
		return m, nil

	case StateDatabaseType:
		m.env.DatabaseType = DatabaseTypes[m.dbTypeIndex].ID
		m.state = StateConnectionDetails
		m.initializeConnectionInputs()
		return m, nil

	case StateConnectionDetails:
		if err := m.collectConnectionValues(); err != nil {
			return m, nil
		}
		m.state = StateTestConnection
		m.testingConnection = true
		return m, m.testConnection()

	case StateTestConnection:
		switch m.connectionTestResult {
		case "success":
			m.state = StateSinkDetails
			m.connectionTestResult = ""
			m.initializeSinkInputs()
			return m, nil
		case "failed":
			switch m.retryChoice {
			case 0: // Retry
				m.connectionTestResult = ""
				m.connectionError = nil
				m.testingConnection = true
				return m, m.testConnection()
			case 1: // Edit
				m.state = StateConnectionDetails
				m.connectionTestResult = ""
				m.connectionError = nil
				m.retryChoice = 0
				m.initializeConnectionInputs()
				return m, nil
			case 2: // Quit
				return m, tea.Quit
			}
		}
		return m, nil

	case StateSinkDetails:
		if err := m.collectSinkValues(); err != nil {
			return m, nil
		}
		m.state = StateSummary
		return m, nil

	case StateSummary:
		m.state = StateCreating
		return m, m.createFiles()

	case StateDone, StateError:
		return m, tea.Quit
	}

	return m, nil
}

func (m WizardModel) handleUp() (tea.Model, tea.Cmd) {
	switch m.state {
	case StateDatabaseType:
		if m.dbTypeIndex > 0 {
			m.dbTypeIndex--
		}
	case StateConnectionDetails, StateSinkDetails:
		if m.focusIndex > 0 {
			m.focusIndex--
			m.updateInputFocus()
		}
	case StateTestConnection:
		if m.connectionTestResult == "failed" && m.retryChoice > 0 {
			m.retryChoice--
		}
	}
	return m, nil
}

func (m WizardModel) handleDown() (tea.Model, tea.Cmd) {
	switch m.state {
	case StateDatabaseType:
		if m.dbTypeIndex < len(DatabaseTypes)-1 {
			m.dbTypeIndex++
		}
	case StateConnectionDetails, StateSinkDetails:
		if m.focusIndex < len(m.inputs)-1 {
			m.focusIndex++
			m.updateInputFocus()
		}
	case StateTestConnection:
		if m.connectionTestResult == "failed" && m.retryChoice < 2 {
			m.retryChoice++
		}
	}
	return m, nil
}

func (m WizardModel) handleTab() (tea.Model, tea.Cmd) {
	if m.editing() && len(m.inputs) > 0 {
		m.focusIndex = (m.focusIndex + 1) % len(m.inputs)
		m.updateInputFocus()
	}
	return m, nil
}

func (m WizardModel) handleTextInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.editing() && len(m.inputs) > 0 {
		var cmd tea.Cmd
		m.inputs[m.focusIndex], cmd = m.inputs[m.focusIndex].Update(msg)
		return m, cmd
	}
	return m, nil
}

// Input management

func (m *WizardModel) initializeConnectionInputs() {
	m.inputs = []textinput.Model{}
	m.focusIndex = 0
	m.errors = make(map[string]string)

	switch m.env.DatabaseType {
	case "postgres":
		m.inputs = append(m.inputs,
			makeInput("Environment name", "local", false),
			makeInput("Host", "localhost", false),
			makeInput("Port", "5432", false),
			makeInput("Database", "sqlsink", false),
			makeInput("User", "postgres", false),
			makeInput("Password", "", true),
		)
	case "sqlite":
		m.inputs = append(m.inputs,
			makeInput("Environment name", "local", false),
			makeInput("Database file path", "sqlsink.db", false),
		)
	case "libsql":
		m.inputs = append(m.inputs,
			makeInput("Environment name", "production", false),
			makeInput("Database URL", "libsql://[name]-[org].turso.io", false),
			makeInput("Auth token", "", true),
		)
	}

	if len(m.inputs) > 0 {
		m.inputs[0].Focus()
	}
}

func (m *WizardModel) initializeSinkInputs() {
	m.focusIndex = 0
	m.errors = make(map[string]string)
	m.inputs = []textinput.Model{
		makeInput("Table name ({N} inserts cell N)", "events", false),
		makeInput("Columns (comma separated)", "id,payload", false),
		makeInput("Key columns (comma separated, optional)", "id", false),
	}
	m.inputs[0].Focus()
}

func makeInput(placeholder, value string, isPassword bool) textinput.Model {
	input := textinput.New()
	input.Placeholder = placeholder
	input.SetValue(value)
	if isPassword {
		input.EchoMode = textinput.EchoPassword
		input.EchoCharacter = '*'
	}
	return input
}

func (m *WizardModel) updateInputFocus() {
	for i := range m.inputs {
		if i == m.focusIndex {
			m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
}

func (m *WizardModel) collectConnectionValues() error {
	m.errors = make(map[string]string)

	switch m.env.DatabaseType {
	case "postgres":
		if len(m.inputs) < 6 {
			return fmt.Errorf("not enough inputs")
		}
		m.env.Name = m.inputs[0].Value()
		m.env.Host = m.inputs[1].Value()
		m.env.Port = m.inputs[2].Value()
		m.env.Database = m.inputs[3].Value()
		m.env.User = m.inputs[4].Value()
		m.env.Password = m.inputs[5].Value()

		if err := ValidatePort(m.env.Port); err != nil {
			m.errors["port"] = err.Error()
			return err
		}

	case "sqlite":
		if len(m.inputs) < 2 {
			return fmt.Errorf("not enough inputs")
		}
		m.env.Name = m.inputs[0].Value()
		m.env.FilePath = m.inputs[1].Value()

	case "libsql":
		if len(m.inputs) < 3 {
			return fmt.Errorf("not enough inputs")
		}
		m.env.Name = m.inputs[0].Value()
		m.env.URL = m.inputs[1].Value()
		m.env.AuthToken = m.inputs[2].Value()
	}

	if err := ValidateEnvironmentName(m.env.Name); err != nil {
		m.errors["name"] = err.Error()
		return err
	}
	return nil
}

func (m *WizardModel) collectSinkValues() error {
	m.errors = make(map[string]string)
	if len(m.inputs) < 3 {
		return fmt.Errorf("not enough inputs")
	}

	m.sink.Table = strings.TrimSpace(m.inputs[0].Value())
	m.sink.Columns = ParseColumnList(m.inputs[1].Value())
	m.sink.KeyColumns = ParseColumnList(m.inputs[2].Value())

	if err := ValidateTableTemplate(m.sink.Table); err != nil {
		m.errors["table"] = err.Error()
		return err
	}
	if err := ValidateColumns(m.sink.Columns, m.sink.KeyColumns); err != nil {
		m.errors["columns"] = err.Error()
		return err
	}
	return nil
}

// Message types for async operations

type connectionTestResultMsg struct {
	err error
}

func (m WizardModel) testConnection() tea.Cmd {
	env := m.env
	test := m.opts.TestConnection
	return func() tea.Msg {
		return connectionTestResultMsg{err: test(BuildConnectionString(env), env.DatabaseType)}
	}
}

type fileCreationResultMsg struct {
	result *InitResult
	err    error
}

func (m WizardModel) createFiles() tea.Cmd {
	env, sink, opts := m.env, m.sink, m.opts
	return func() tea.Msg {
		result, err := GenerateFiles(opts.ConfigPath, env, sink, opts.Force)
		return fileCreationResultMsg{result: result, err: err}
	}
}

type existingConfigMsg struct {
	path     string
	envNames []string
}

func (m WizardModel) checkForExistingConfig() tea.Msg {
	if _, err := os.Stat(m.opts.ConfigPath); err != nil {
		return existingConfigMsg{}
	}
	cfg, err := config.LoadConfigFile(m.opts.ConfigPath)
	if err != nil {
		// surfaced again, with detail, when the files are generated
		return existingConfigMsg{path: m.opts.ConfigPath}
	}
	return existingConfigMsg{path: m.opts.ConfigPath, envNames: cfg.EnvironmentNames()}
}

// View renderers

func (m WizardModel) renderWelcome() string {
	body := "Welcome! Let's point sqlsink at a database.\n" +
		renderInfo("This wizard will help you:\n"+
			"  • Configure a database connection\n"+
			"  • Describe how rows map onto tables\n"+
			"  • Write sqlsink.toml and an .env file for credentials")
	return renderScreen("", body, "Press Enter to continue, q to quit")
}

func (m WizardModel) renderCheckExisting() string {
	var b strings.Builder

	b.WriteString(renderSuccess("Found existing configuration!"))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("Config: %s\n", m.existingConfigPath))
	if len(m.existingEnvNames) > 0 {
		b.WriteString(fmt.Sprintf("Environments: %s\n", strings.Join(m.existingEnvNames, ", ")))
	}
	if m.opts.Force {
		b.WriteString(renderInfo("--force is set: the existing file will be replaced."))
	} else {
		b.WriteString(renderInfo("The new environment and table mapping will be\nmerged into the existing file."))
	}

	return renderScreen("", b.String(), "Press Enter to continue, q to quit")
}

func (m WizardModel) renderDatabaseType() string {
	var b strings.Builder

	b.WriteString(mutedStyle.Render("Where should rows be written?"))
	b.WriteString("\n\n")
	for i, dbType := range DatabaseTypes {
		line := fmt.Sprintf("%d. %s %s (%s)", i+1, dbType.Icon, dbType.DisplayName, dbType.Description)
		b.WriteString(renderOption(i == m.dbTypeIndex, line))
		b.WriteString("\n")
	}

	return renderScreen("Database Type", b.String(), "↑/↓: navigate  Enter: select  q: quit")
}

func (m WizardModel) renderInputs(section string, action string) string {
	var b strings.Builder

	if m.state == StateConnectionDetails {
		dbType := DatabaseTypes[m.dbTypeIndex]
		b.WriteString(fmt.Sprintf("Database: %s %s\n\n", dbType.Icon, dbType.DisplayName))
	}

	for i, input := range m.inputs {
		b.WriteString(renderOption(i == m.focusIndex, input.Placeholder+":"))
		b.WriteString("\n  ")
		b.WriteString(input.View())
		b.WriteString("\n\n")
	}

	for _, errMsg := range m.errors {
		b.WriteString(renderError(errMsg))
		b.WriteString("\n")
	}

	if m.state == StateSinkDetails {
		b.WriteString(renderInfo("Key columns become the primary key of created\ntables and are used to update rows that already exist."))
	}

	return renderScreen(section, b.String(), "↑/↓ or Tab: navigate  "+action+"  ctrl+c: quit")
}

func (m WizardModel) renderTestConnection() string {
	var b strings.Builder
	keys := "Press Enter to continue"

	switch {
	case m.testingConnection:
		b.WriteString(hintStyle.Render(iconWait + " Testing connection..."))
	case m.connectionTestResult == "success":
		b.WriteString(renderSuccess("Connection successful!"))
		b.WriteString("\n\nConnected to: " + m.env.Name)
	case m.connectionTestResult == "failed":
		keys = "↑/↓: navigate  Enter: select  q: quit"
		b.WriteString(renderError("Connection failed"))
		if m.connectionError != nil {
			b.WriteString("\n\n")
			b.WriteString(badStyle.Render("Error: " + m.connectionError.Error()))
		}
		b.WriteString("\n\nWhat would you like to do?\n\n")
		for i, choice := range []string{"Retry connection", "Edit connection details", "Quit wizard"} {
			b.WriteString(renderOption(m.retryChoice == i, choice))
			b.WriteString("\n")
		}
	}

	return renderScreen("Testing Connection", b.String(), keys)
}

func (m WizardModel) renderSummary() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Environment: %s (%s)\n", m.env.Name, m.env.DatabaseType))
	b.WriteString(fmt.Sprintf("Table:       %s\n", m.sink.Table))
	b.WriteString(fmt.Sprintf("Columns:     %s\n", strings.Join(m.sink.Columns, ", ")))
	if len(m.sink.KeyColumns) > 0 {
		b.WriteString(fmt.Sprintf("Keys:        %s\n", strings.Join(m.sink.KeyColumns, ", ")))
	} else {
		b.WriteString(fmt.Sprintf("Keys:        %s none, conflicting rows will be dropped\n", iconWarning))
	}

	b.WriteString("\nThis will write:\n")
	b.WriteString(fmt.Sprintf("  • %s\n", m.opts.ConfigPath))
	b.WriteString(fmt.Sprintf("  • .env.%s\n", m.env.Name))
	b.WriteString("  • .gitignore entry for .env files")

	return renderScreen("Summary", b.String(), "Press Enter to create files, q to quit")
}

func (m WizardModel) renderCreating() string {
	return renderScreen("", hintStyle.Render(iconWait+" Writing configuration..."), "")
}

func (m WizardModel) renderDone() string {
	var b strings.Builder

	b.WriteString(renderSuccess("Setup complete!"))
	b.WriteString("\n\n")
	if m.result != nil {
		b.WriteString("Written:\n")
		b.WriteString(fmt.Sprintf("  %s %s\n", iconOK, m.result.ConfigPath))
		for _, envFile := range m.result.EnvFiles {
			b.WriteString(fmt.Sprintf("  %s %s\n", iconOK, envFile))
		}
		if m.result.GitignoreUpdated {
			b.WriteString(fmt.Sprintf("  %s .gitignore updated\n", iconOK))
		}
	}
	b.WriteString(renderInfo("Next steps:\n" +
		"  sqlsink check --connect\n" +
		"  sqlsink ingest rows.csv"))

	return renderScreen("", b.String(), "Press Enter to exit")
}

func (m WizardModel) renderError() string {
	body := renderError("An error occurred")
	if m.err != nil {
		body += "\n\n" + badStyle.Render(m.err.Error())
	}
	return renderScreen("", body, "Press Enter to exit")
}

// ErrAborted is returned by Run when the wizard exits before writing files.
var ErrAborted = errors.New("init aborted")

// Run starts the wizard and returns what it wrote.
func Run(opts Options) (*InitResult, error) {
	final, err := tea.NewProgram(New(opts)).Run()
	if err != nil {
		return nil, err
	}

	m, ok := final.(WizardModel)
	if !ok {
		return nil, fmt.Errorf("unexpected wizard model %T", final)
	}
	if m.err != nil {
		return nil, m.err
	}
	if m.result == nil {
		return nil, ErrAborted
	}
	return m.result, nil
}
