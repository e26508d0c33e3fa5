package commands

import (
	"os"

	"xtr/internal/cli"
	"xtr/internal/config"
	"xtr/internal/logging"
	"xtr/internal/storage"
	"xtr/internal/ui"

	"github.com/spf13/cobra"
)

// Commands holds all CLI commands
type Commands struct {
	Run      *RunCommand
	List     *ListCommand
	Replay   *ReplayCommand
	Locate   *LocateCommand
	Session  *SessionCommand
	Failures *FailuresCommand
}

// NewCommands creates all commands with dependencies. cfg is filled in by the
// pre-run hook, so dependencies must read it lazily.
func NewCommands(cfg *config.Config) *Commands {
	jsonStorage := storage.NewJSONStorage(cfg)
	formatter := ui.NewFormatter(cfg)
	errorViewer := ui.NewErrorViewer(jsonStorage)

	return &Commands{
		Run:      NewRunCommand(cfg, jsonStorage, formatter),
		List:     NewListCommand(cfg, formatter, jsonStorage),
		Replay:   NewReplayCommand(cfg),
		Locate:   NewLocateCommand(cfg, formatter),
		Session:  NewSessionCommand(cfg, formatter),
		Failures: NewFailuresCommand(jsonStorage, errorViewer),
	}
}

// Register registers all commands with cobra
func (c *Commands) Register(rootCmd *cobra.Command, flags *cli.Flags, cfg *config.Config) {
	rootCmd.PersistentFlags().StringVar(&flags.ProjectPath, "project-path", "", "Solution root the project paths are relative to")
	rootCmd.PersistentFlags().StringVar(&flags.ConfigFile, "config", "", "Config file (default "+config.DefaultConfigFile+" in the project path)")
	rootCmd.PersistentFlags().StringVar(&flags.LogLevel, "log-level", "", "Log level: debug, info, warn or error")

	loadConfig := func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(flags.ToConfigFlags())
		if err != nil {
			return err
		}
		*cfg = *loaded
		logging.Init(logging.ParseLevel(cfg.LogLevel), os.Stderr)
		return nil
	}

	// Run command
	runCmd := &cobra.Command{
		Use:     "run",
		Short:   "Run xunit tests in parallel",
		Long:    "Discover test classes and execute their assemblies through the adapter using parallel workers",
		RunE:    c.Run.Execute,
		PreRunE: loadConfig,
	}
	runCmd.Flags().IntVarP(&flags.Processors, "processors", "p", 0, "Number of assemblies to run at once")
	runCmd.Flags().StringVarP(&flags.NameFilter, "filter", "f", "", "Filter classes by type name pattern (supports wildcards, e.g., '*Payment*')")
	runCmd.Flags().BoolVar(&flags.FailFast, "fail-fast", false, "Stop every assembly on the first test failure")
	runCmd.Flags().BoolVar(&flags.Session, "session", false, "Run only the classes of the saved session")
	runCmd.Flags().StringVar(&flags.SessionName, "session-name", "", "Session to use (default \"default\")")
	runCmd.Flags().BoolVar(&flags.Explicit, "explicit", false, "Also run tests marked explicit")
	runCmd.Flags().StringVar(&flags.Record, "record", "", "Record the adapter feed to a file for replay")
	runCmd.Flags().BoolVarP(&flags.Verbose, "verbose", "v", false, "Print every test as it finishes")
	rootCmd.AddCommand(runCmd)

	// List command
	listCmd := &cobra.Command{
		Use:     "list",
		Short:   "List discovered test classes",
		Long:    "Scan the configured projects and list test classes without executing them",
		RunE:    c.List.Execute,
		PreRunE: loadConfig,
	}
	listCmd.Flags().StringVarP(&flags.NameFilter, "filter", "f", "", "Filter classes by type name pattern (supports wildcards, e.g., '*Payment*')")
	listCmd.Flags().BoolVarP(&flags.TestCases, "test-cases", "c", false, "List test methods and theory cases too")
	rootCmd.AddCommand(listCmd)

	// Replay command
	replayCmd := &cobra.Command{
		Use:     "replay <feed>",
		Short:   "Replay a recorded adapter feed",
		Long:    "Translate a feed written by 'run --record' and print the resulting test events",
		Args:    cobra.ExactArgs(1),
		RunE:    c.Replay.Execute,
		PreRunE: loadConfig,
	}
	replayCmd.Flags().BoolVarP(&flags.Verbose, "verbose", "v", false, "Print creation, output and class events too")
	rootCmd.AddCommand(replayCmd)

	// Locate command
	locateCmd := &cobra.Command{
		Use:     "locate <Type[.Method[(case)]]>",
		Short:   "Show where a test element is declared",
		Args:    cobra.ExactArgs(1),
		RunE:    c.Locate.Execute,
		PreRunE: loadConfig,
	}
	rootCmd.AddCommand(locateCmd)

	// Session commands
	sessionCmd := &cobra.Command{
		Use:   "session",
		Short: "Save and show named sets of test classes",
	}
	sessionCmd.PersistentFlags().StringVar(&flags.SessionName, "name", "", "Session name (default \"default\")")
	saveCmd := &cobra.Command{
		Use:     "save",
		Short:   "Save the classes matching the filter as a session",
		RunE:    c.Session.Save,
		PreRunE: loadConfig,
	}
	saveCmd.Flags().StringVarP(&flags.NameFilter, "filter", "f", "", "Filter classes by type name pattern")
	showCmd := &cobra.Command{
		Use:     "show",
		Short:   "Show the classes of a saved session",
		RunE:    c.Session.Show,
		PreRunE: loadConfig,
	}
	sessionCmd.AddCommand(saveCmd, showCmd)
	rootCmd.AddCommand(sessionCmd)

	// Failures command
	failuresCmd := &cobra.Command{
		Use:     "failures",
		Short:   "View test failures interactively",
		Long:    "Display test failures from the last run in an interactive viewer",
		RunE:    c.Failures.Execute,
		PreRunE: loadConfig,
	}
	rootCmd.AddCommand(failuresCmd)
}
