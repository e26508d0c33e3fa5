package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"xtr/internal/config"
	"xtr/internal/persist"
	"xtr/internal/registry"
	"xtr/internal/storage"
	"xtr/internal/ui"
)

// SessionCommand handles the session save and show commands
type SessionCommand struct {
	config    *config.Config
	formatter *ui.Formatter
}

// NewSessionCommand creates a new SessionCommand
func NewSessionCommand(cfg *config.Config, formatter *ui.Formatter) *SessionCommand {
	return &SessionCommand{config: cfg, formatter: formatter}
}

// Save persists the classes matching the filter as the named session
func (sc *SessionCommand) Save(cmd *cobra.Command, args []string) error {
	ws := newWorkspace(sc.config)
	classes, err := ws.discover(cmd.Context(), sc.config.Flags.Filter)
	if err != nil {
		return err
	}

	store, err := storage.NewSessionStore(sc.config)
	if err != nil {
		return err
	}
	defer store.Close()

	name := sessionName(sc.config)
	if err := store.SaveSession(name, persist.WriteAll(classes)); err != nil {
		return fmt.Errorf("failed to save session %s: %w", name, err)
	}
	color.Green("Saved %d class(es) to session %s", len(classes), name)
	return nil
}

// Show reads the named session back. Classes whose project is gone are
// reported and left out.
func (sc *SessionCommand) Show(cmd *cobra.Command, args []string) error {
	store, err := storage.NewSessionStore(sc.config)
	if err != nil {
		return err
	}
	defer store.Close()

	name := sessionName(sc.config)
	refs, err := store.LoadSession(name)
	if err != nil {
		return err
	}

	ws := newWorkspace(sc.config)
	// resolve without discovery: the session alone is shown
	classes := persist.ReadAll(refs, ws.catalog, registry.New(ws.resolver))
	sc.formatter.PrintClassList(classes, false, nil)
	if dropped := len(refs) - len(classes); dropped > 0 {
		color.Yellow("%d class(es) belong to projects that no longer exist", dropped)
	}
	return nil
}
