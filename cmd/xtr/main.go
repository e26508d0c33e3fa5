package main

import (
	"fmt"
	"os"

	"xtr/internal/cli"
	"xtr/internal/cli/commands"
	"xtr/internal/config"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "xtr",
		Short:         "Parallel xunit test runner",
		Long:          `Discovers xunit test classes in source, runs their assemblies in parallel through a framework adapter and reports every test as it finishes.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Defaults only; each command loads the config file before it runs
	cfg := config.New()
	var flags cli.Flags

	cmds := commands.NewCommands(cfg)
	cmds.Register(rootCmd, &flags, cfg)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
