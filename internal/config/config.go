package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Firestore   FirestoreConfig   `yaml:"firestore"`
	Log         LogConfig         `yaml:"log"`
	SendGrid    SendGridConfig    `yaml:"sendgrid"`
	Scheduler   SchedulerConfig   `yaml:"scheduler"`
	Workflow    WorkflowConfig    `yaml:"workflow"`
	Departments DepartmentsConfig `yaml:"departments"`
	Probe       ProbeConfig       `yaml:"probe"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host                   string `yaml:"host"`
	Port                   int    `yaml:"port"`
	ShutdownTimeoutSeconds int    `yaml:"shutdown_timeout_seconds"`
}

// FirestoreConfig contains document database settings.
// An empty ProjectID selects the in-memory store (local development only).
type FirestoreConfig struct {
	ProjectID       string `yaml:"project_id"`
	CredentialsFile string `yaml:"credentials_file"`
	EmulatorHost    string `yaml:"emulator_host"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// SendGridConfig contains e-mail delivery settings
type SendGridConfig struct {
	Enabled   bool   `yaml:"enabled"`
	APIKey    string `yaml:"api_key"`
	FromEmail string `yaml:"from_email"`
	FromName  string `yaml:"from_name"`
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	PendingLeaveReminders string `yaml:"pending_leave_reminders"`
	StaleAfterHours       int    `yaml:"stale_after_hours"`
}

// WorkflowConfig describes the approval chain tables.
type WorkflowConfig struct {
	DefaultFlow []string          `yaml:"default_flow"`
	StaffFlow   []string          `yaml:"staff_flow"`
	RoleStages  map[string]string `yaml:"role_stages"`
	HeadStages  []string          `yaml:"head_stages"`
}

// DepartmentsConfig lists the canonical department codes in probe priority
// order, the fallback code and the free-text alias table.
type DepartmentsConfig struct {
	Codes   []string          `yaml:"codes"`
	Default string            `yaml:"default"`
	Aliases map[string]string `yaml:"aliases"`
}

// ProbeConfig bounds every enumeration over hierarchical partitions.
type ProbeConfig struct {
	BatchYears     []string `yaml:"batch_years"`
	Semesters      []string `yaml:"semesters"`
	Divisions      []string `yaml:"divisions"`
	Subjects       []string `yaml:"subjects"`
	MaxConcurrency int      `yaml:"max_concurrency"`
	MaxProbeDays   int      `yaml:"max_probe_days"`
	MaxPartitions  int      `yaml:"max_partitions"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse builds a configuration from raw YAML, applying environment
// overrides, defaults and validation.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}

	// Firestore
	if val := os.Getenv("FIRESTORE_PROJECT_ID"); val != "" {
		c.Firestore.ProjectID = val
	}
	if val := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); val != "" {
		c.Firestore.CredentialsFile = val
	}
	if val := os.Getenv("FIRESTORE_EMULATOR_HOST"); val != "" {
		c.Firestore.EmulatorHost = val
	}

	// SendGrid
	if val := os.Getenv("SENDGRID_API_KEY"); val != "" {
		c.SendGrid.APIKey = val
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ShutdownTimeoutSeconds == 0 {
		c.Server.ShutdownTimeoutSeconds = 10
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	if c.Scheduler.PendingLeaveReminders == "" {
		c.Scheduler.PendingLeaveReminders = "0 0 8 * * *" // 8 AM UTC daily
	}
	if c.Scheduler.StaleAfterHours == 0 {
		c.Scheduler.StaleAfterHours = 48
	}

	if len(c.Workflow.DefaultFlow) == 0 {
		c.Workflow.DefaultFlow = []string{"Teacher", "HOD"}
	}
	if len(c.Workflow.StaffFlow) == 0 {
		c.Workflow.StaffFlow = []string{"HOD", "Principal"}
	}
	if len(c.Workflow.RoleStages) == 0 {
		c.Workflow.RoleStages = map[string]string{
			"teacher":   "Teacher",
			"hod":       "HOD",
			"registrar": "Registrar",
			"principal": "Principal",
			"admin":     "Admin",
		}
	}
	if len(c.Workflow.HeadStages) == 0 {
		c.Workflow.HeadStages = []string{"HOD"}
	}

	if len(c.Departments.Codes) == 0 {
		c.Departments.Codes = []string{"CS", "IT", "ENTC", "MECH", "CIVIL"}
	}
	if c.Departments.Default == "" {
		c.Departments.Default = c.Departments.Codes[0]
	}
	if len(c.Departments.Aliases) == 0 {
		c.Departments.Aliases = DefaultDepartmentAliases()
	}

	if len(c.Probe.BatchYears) == 0 {
		c.Probe.BatchYears = []string{"2021", "2022", "2023", "2024"}
	}
	if len(c.Probe.Semesters) == 0 {
		c.Probe.Semesters = []string{"1", "2", "3", "4", "5", "6", "7", "8"}
	}
	if len(c.Probe.Divisions) == 0 {
		c.Probe.Divisions = []string{"A", "B"}
	}
	if len(c.Probe.Subjects) == 0 {
		c.Probe.Subjects = []string{"general", "theory", "practical", "lab", "tutorial"}
	}
	if c.Probe.MaxConcurrency == 0 {
		c.Probe.MaxConcurrency = 8
	}
	if c.Probe.MaxProbeDays == 0 {
		c.Probe.MaxProbeDays = 31
	}
	if c.Probe.MaxPartitions == 0 {
		c.Probe.MaxPartitions = 128
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Firestore.ProjectID == "" && c.Firestore.CredentialsFile != "" {
		return fmt.Errorf("firestore project_id is required when credentials_file is set")
	}

	if c.SendGrid.Enabled {
		if c.SendGrid.APIKey == "" {
			return fmt.Errorf("sendgrid api_key is required when sendgrid is enabled")
		}
		if c.SendGrid.FromEmail == "" {
			return fmt.Errorf("sendgrid from_email is required when sendgrid is enabled")
		}
	}

	if c.Scheduler.StaleAfterHours < 0 {
		return fmt.Errorf("scheduler stale_after_hours must be >= 0 (got %d)", c.Scheduler.StaleAfterHours)
	}

	if len(c.Departments.Codes) > 5 {
		return fmt.Errorf("at most 5 department codes may be probed (got %d)", len(c.Departments.Codes))
	}
	if !containsFold(c.Departments.Codes, c.Departments.Default) {
		return fmt.Errorf("default department %q is not one of the known codes", c.Departments.Default)
	}

	for role, stage := range c.Workflow.RoleStages {
		if strings.TrimSpace(role) == "" || strings.TrimSpace(stage) == "" {
			return fmt.Errorf("workflow role_stages entries must be non-empty")
		}
	}

	if _, err := c.ApprovalPolicy(); err != nil {
		return fmt.Errorf("workflow: %w", err)
	}

	if c.Probe.MaxConcurrency < 1 {
		return fmt.Errorf("probe max_concurrency must be >= 1 (got %d)", c.Probe.MaxConcurrency)
	}
	if c.Probe.MaxProbeDays < 1 {
		return fmt.Errorf("probe max_probe_days must be >= 1 (got %d)", c.Probe.MaxProbeDays)
	}

	return nil
}

// GetServerAddress returns the HTTP server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// DefaultDepartmentAliases maps human spellings to canonical codes.
func DefaultDepartmentAliases() map[string]string {
	return map[string]string{
		"cs":                                 "CS",
		"cse":                                "CS",
		"comp":                               "CS",
		"computer":                           "CS",
		"computer science":                   "CS",
		"computer engineering":               "CS",
		"computer science and engineering":   "CS",
		"computer science & engineering":     "CS",
		"it":                                 "IT",
		"information technology":             "IT",
		"info tech":                          "IT",
		"entc":                               "ENTC",
		"extc":                               "ENTC",
		"e&tc":                               "ENTC",
		"electronics":                        "ENTC",
		"electronics and telecommunication":  "ENTC",
		"electronics & telecommunication":    "ENTC",
		"electronics and telecommunications": "ENTC",
		"mech":                               "MECH",
		"mechanical":                         "MECH",
		"mechanical engineering":             "MECH",
		"civil":                              "CIVIL",
		"civil engineering":                  "CIVIL",
	}
}

func containsFold(list []string, v string) bool {
	for _, item := range list {
		if strings.EqualFold(item, v) {
			return true
		}
	}
	return false
}
