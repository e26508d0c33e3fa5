package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"xtr/internal/project"
)

// Config holds all configuration for the application
type Config struct {
	// Solution settings
	ProjectPath string
	Projects    []project.Project

	// Adapter settings
	Runner Runner

	// Output settings
	OutputJSONFile string
	OutputJSONDir  string

	// Execution settings
	Processors int

	// Paths to ignore when scanning
	PathsToIgnore []string

	// Session store settings
	Store Store

	LogLevel string

	// Command flags
	Flags Flags
}

// Runner describes the adapter command run once per assembly
type Runner struct {
	Command   string   `yaml:"command"`
	Args      []string `yaml:"args"`
	ClassFlag string   `yaml:"class_flag"`
	// ExplicitArgs make the adapter run tests marked explicit
	ExplicitArgs []string          `yaml:"explicit_args"`
	Env          map[string]string `yaml:"env"`
}

// Store selects where persisted references live
type Store struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// Flags holds command-line flags
type Flags struct {
	ProjectPath string
	ConfigFile  string
	LogLevel    string
	Processors  int
	Filter      string
	FailFast    bool
	Session     bool
	SessionName string
	Explicit    bool
	Record      string
	TestCases   bool
	Verbose     bool
}

// file is the on-disk shape of xtr.yaml
type file struct {
	Projects   []project.Project `yaml:"projects"`
	Runner     Runner            `yaml:"runner"`
	Processors int               `yaml:"processors"`
	Ignore     []string          `yaml:"ignore"`
	Output     struct {
		Dir  string `yaml:"dir"`
		File string `yaml:"file"`
	} `yaml:"output"`
	Store    Store  `yaml:"store"`
	LogLevel string `yaml:"log_level"`
}

// New creates a new Config with defaults
func New() *Config {
	cfg := &Config{
		ProjectPath:    DefaultProjectPath,
		OutputJSONFile: DefaultOutputJSONFile,
		OutputJSONDir:  DefaultOutputJSONDir,
		Processors:     DefaultProcessors,
		Runner: Runner{
			Command:   DefaultRunnerCommand,
			ClassFlag: DefaultClassFlag,
		},
		Store:    Store{Driver: DefaultStoreDriver},
		LogLevel: DefaultLogLevel,
		Flags:    Flags{Processors: DefaultProcessors},
	}
	cfg.Runner.Args = append([]string(nil), DefaultRunnerArgs...)
	cfg.Runner.ExplicitArgs = append([]string(nil), DefaultExplicitArgs...)
	cfg.PathsToIgnore = make([]string, len(DefaultPathsToIgnore))
	copy(cfg.PathsToIgnore, DefaultPathsToIgnore)
	return cfg
}

// Load creates a config from defaults, the project's .env and xtr.yaml, the
// XTR_* environment and finally flags, each overriding the previous.
func Load(flags Flags) (*Config, error) {
	cfg := New()
	cfg.Flags = flags
	if flags.ProjectPath != "" {
		cfg.ProjectPath = flags.ProjectPath
	}

	// .env might not exist, that's okay
	if err := godotenv.Load(filepath.Join(cfg.ProjectPath, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	path := flags.ConfigFile
	if path == "" {
		path = filepath.Join(cfg.ProjectPath, DefaultConfigFile)
	}
	if err := cfg.loadFile(path, flags.ConfigFile != ""); err != nil {
		return nil, err
	}

	cfg.applyEnv()

	// Apply flag overrides
	if flags.Processors > 0 {
		cfg.Processors = flags.Processors
	}
	if flags.LogLevel != "" {
		cfg.LogLevel = flags.LogLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	c.Projects = f.Projects
	if f.Runner.Command != "" {
		c.Runner.Command = f.Runner.Command
		c.Runner.Args = f.Runner.Args
	} else if len(f.Runner.Args) > 0 {
		c.Runner.Args = f.Runner.Args
	}
	if f.Runner.ClassFlag != "" {
		c.Runner.ClassFlag = f.Runner.ClassFlag
	}
	if len(f.Runner.ExplicitArgs) > 0 {
		c.Runner.ExplicitArgs = f.Runner.ExplicitArgs
	}
	c.Runner.Env = f.Runner.Env
	if f.Processors > 0 {
		c.Processors = f.Processors
	}
	if len(f.Ignore) > 0 {
		c.PathsToIgnore = f.Ignore
	}
	if f.Output.Dir != "" {
		c.OutputJSONDir = f.Output.Dir
	}
	if f.Output.File != "" {
		c.OutputJSONFile = f.Output.File
	}
	if f.Store.Driver != "" {
		c.Store.Driver = f.Store.Driver
	}
	if f.Store.DSN != "" {
		c.Store.DSN = f.Store.DSN
	}
	if f.LogLevel != "" {
		c.LogLevel = f.LogLevel
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("XTR_STORE_DRIVER"); v != "" {
		c.Store.Driver = v
	}
	if v := os.Getenv("XTR_STORE_DSN"); v != "" {
		c.Store.DSN = v
	}
	if v := os.Getenv("XTR_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v, err := strconv.Atoi(os.Getenv("XTR_PROCESSORS")); err == nil && v > 0 {
		c.Processors = v
	}
}

// Validate checks settings that would otherwise fail late
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreJSON, StoreSQLite, StoreMySQL:
	default:
		return fmt.Errorf("unknown store driver %q (want %s, %s or %s)", c.Store.Driver, StoreJSON, StoreSQLite, StoreMySQL)
	}
	if c.Processors <= 0 {
		return fmt.Errorf("processors must be positive, got %d", c.Processors)
	}
	seen := make(map[string]bool)
	for _, p := range c.Projects {
		if p.ID == "" {
			return fmt.Errorf("project %q has no id", p.Name)
		}
		if seen[p.ID] {
			return fmt.Errorf("duplicate project id %q", p.ID)
		}
		seen[p.ID] = true
	}
	return nil
}

// Catalog returns the configured projects, with relative paths resolved
// against the project path.
func (c *Config) Catalog() *project.Catalog {
	return project.NewCatalog(c.absProjectPath(), c.Projects)
}

// GetOutputPath returns the full path to the results JSON file. It is
// absolute so that run and failures read and write the same file regardless
// of cwd.
func (c *Config) GetOutputPath() string {
	return filepath.Join(c.absProjectPath(), c.OutputJSONDir, c.OutputJSONFile)
}

// GetSessionPath returns the json store file
func (c *Config) GetSessionPath() string {
	return filepath.Join(c.absProjectPath(), c.OutputJSONDir, DefaultSessionFile)
}

// GetStoreDSN returns the data source for the SQL store drivers. Without an
// explicit DSN sqlite uses a file in the output dir and mysql is assembled
// from the DB_* environment.
func (c *Config) GetStoreDSN() string {
	if c.Store.DSN != "" {
		return c.Store.DSN
	}
	switch c.Store.Driver {
	case StoreSQLite:
		return filepath.Join(c.absProjectPath(), c.OutputJSONDir, DefaultSQLiteFile)
	case StoreMySQL:
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
			envOr("DB_USERNAME", "root"),
			os.Getenv("DB_PASSWORD"),
			envOr("DB_HOST", "127.0.0.1"),
			envOr("DB_PORT", "3306"),
			envOr("DB_DATABASE", "xtr"))
	default:
		return ""
	}
}

// RunnerArgs returns the adapter arguments for assembly, restricted to
// classes when any are given. explicit adds the arguments that make the
// adapter run tests marked explicit.
func (c *Config) RunnerArgs(assembly string, classes []string, explicit bool) []string {
	args := make([]string, 0, len(c.Runner.Args)+len(c.Runner.ExplicitArgs)+2*len(classes)+1)
	placed := false
	for _, a := range c.Runner.Args {
		if strings.Contains(a, AssemblyPlaceholder) {
			a = strings.ReplaceAll(a, AssemblyPlaceholder, assembly)
			placed = true
		}
		args = append(args, a)
	}
	if !placed {
		args = append(args, assembly)
	}
	if explicit {
		args = append(args, c.Runner.ExplicitArgs...)
	}
	for _, class := range classes {
		args = append(args, c.Runner.ClassFlag, class)
	}
	return args
}

// RunnerEnv returns the environment for the adapter started by a worker
func (c *Config) RunnerEnv(workerID int) []string {
	env := os.Environ()
	for k, v := range c.Runner.Env {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	return append(env, fmt.Sprintf("XTR_WORKER_ID=%d", workerID))
}

func (c *Config) absProjectPath() string {
	if abs, err := filepath.Abs(c.ProjectPath); err == nil {
		return abs
	}
	return c.ProjectPath
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
