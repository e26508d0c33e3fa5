package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"xtr/internal/config"
	"xtr/internal/execution"
	"xtr/internal/gate"
	"xtr/internal/protocol"
	"xtr/internal/tasks"
	"xtr/internal/ui"
)

// ReplayCommand handles the replay command
type ReplayCommand struct {
	config *config.Config
}

// NewReplayCommand creates a new ReplayCommand
func NewReplayCommand(cfg *config.Config) *ReplayCommand {
	return &ReplayCommand{config: cfg}
}

// Execute translates a recorded feed and prints it like a verbose run
func (rc *ReplayCommand) Execute(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open feed: %w", err)
	}
	defer f.Close()

	collector := ui.NewCollector(nil)
	server := tasks.Multi{collector, ui.NewConsole(os.Stdout, rc.config.Flags.Verbose)}
	runner := execution.NewRunner(rc.config, nil)

	result := runner.Replay(cmd.Context(), execution.Job{}, protocol.NewDecoder(f), server, gate.New())
	if result.Error != nil {
		return fmt.Errorf("replaying %s: %w", filepath.Base(args[0]), result.Error)
	}

	counts := collector.Counts()
	fmt.Println()
	summary := fmt.Sprintf("%d test(s): %d passed, %d failed, %d skipped", counts.Total, counts.Passed, counts.Failed, counts.Skipped)
	if counts.Failed > 0 {
		color.Red(summary)
	} else {
		color.Green(summary)
	}
	return nil
}
