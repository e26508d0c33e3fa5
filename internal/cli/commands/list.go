package commands

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"xtr/internal/config"
	"xtr/internal/storage"
	"xtr/internal/ui"
)

// ListCommand handles the list command
type ListCommand struct {
	config    *config.Config
	formatter *ui.Formatter
	storage   storage.Storage
}

// NewListCommand creates a new ListCommand
func NewListCommand(cfg *config.Config, formatter *ui.Formatter, st storage.Storage) *ListCommand {
	return &ListCommand{
		config:    cfg,
		formatter: formatter,
		storage:   st,
	}
}

// Execute runs the command
func (lc *ListCommand) Execute(cmd *cobra.Command, args []string) error {
	ws := newWorkspace(lc.config)
	classes, err := ws.discover(cmd.Context(), lc.config.Flags.Filter)
	if err != nil {
		return err
	}
	if len(classes) == 0 {
		color.Yellow("No tests found")
		return nil
	}

	// classes that failed in the last run, if there was one
	failed := make(map[string]struct{})
	if last, err := lc.storage.Load(); err == nil {
		for _, f := range last.Details {
			if !f.Resolved {
				failed[f.ClassName] = struct{}{}
			}
		}
	}

	lc.formatter.PrintClassList(classes, lc.config.Flags.TestCases, failed)
	return nil
}
