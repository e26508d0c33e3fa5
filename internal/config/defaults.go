package config

const (
	// DefaultProjectPath is the default solution root
	DefaultProjectPath = "."
	// DefaultConfigFile is looked up in the project path when no config flag is given
	DefaultConfigFile = "xtr.yaml"
	// DefaultOutputJSONFile is the default results file name
	DefaultOutputJSONFile = "test-results.json"
	// DefaultOutputJSONDir is the default output directory
	DefaultOutputJSONDir = ".xtr"
	// DefaultSessionFile holds persisted references for the json store
	DefaultSessionFile = "session.json"
	// DefaultSQLiteFile holds persisted references for the sqlite store
	DefaultSQLiteFile = "xtr.db"
	// DefaultProcessors is the default number of assemblies run at once
	DefaultProcessors = 4
	// DefaultRunnerCommand is the adapter that executes an assembly and
	// writes the JSON-lines feed to stdout
	DefaultRunnerCommand = "xtr-adapter"
	// DefaultClassFlag restricts the adapter to one class
	DefaultClassFlag = "-class"
	// DefaultStoreDriver keeps sessions next to the results
	DefaultStoreDriver = "json"
	// DefaultLogLevel is the default log level
	DefaultLogLevel = "warn"

	// AssemblyPlaceholder is replaced by the assembly path in runner args
	AssemblyPlaceholder = "{assembly}"
)

// Store drivers
const (
	StoreJSON   = "json"
	StoreSQLite = "sqlite"
	StoreMySQL  = "mysql"
)

// DefaultPathsToIgnore are the default directories to ignore when scanning for tests
var DefaultPathsToIgnore = []string{
	"bin",
	"obj",
	"packages",
	"node_modules",
	"TestResults",
	"artifacts",
}

// DefaultRunnerArgs are passed to the runner command when none are configured
var DefaultRunnerArgs = []string{AssemblyPlaceholder}

// DefaultExplicitArgs switch on explicit tests the way the xunit console
// runner spells it
var DefaultExplicitArgs = []string{"-explicit", "on"}
