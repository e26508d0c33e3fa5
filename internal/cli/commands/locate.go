package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"xtr/internal/config"
	"xtr/internal/element"
	"xtr/internal/ui"
)

// LocateCommand handles the locate command
type LocateCommand struct {
	config    *config.Config
	formatter *ui.Formatter
}

// NewLocateCommand creates a new LocateCommand
func NewLocateCommand(cfg *config.Config, formatter *ui.Formatter) *LocateCommand {
	return &LocateCommand{config: cfg, formatter: formatter}
}

// Execute prints the source locations of a class, method or theory case
func (lc *LocateCommand) Execute(cmd *cobra.Command, args []string) error {
	ws := newWorkspace(lc.config)
	classes, err := ws.discover(cmd.Context(), "")
	if err != nil {
		return err
	}

	found := locate(classes, args[0])
	if len(found) == 0 {
		return fmt.Errorf("no test element named %s", args[0])
	}
	for _, e := range found {
		lc.formatter.PrintDisposition(e)
	}
	return nil
}

// locate finds elements by name: "Type", "Type.Method" or
// "Type.Method(args)". A type may live in several assemblies.
func locate(classes []*element.ClassElement, name string) []element.Element {
	var found []element.Element
	for _, c := range classes {
		if c.TypeName().FullName() == name {
			found = append(found, c)
		}
	}
	if len(found) > 0 {
		return found
	}

	head, args := name, ""
	if i := strings.IndexByte(name, '('); i >= 0 {
		head, args = name[:i], name[i:]
	}
	dot := strings.LastIndexByte(head, '.')
	if dot < 0 {
		return nil
	}
	typeName, method := head[:dot], head[dot+1:]

	for _, c := range classes {
		if c.TypeName().FullName() != typeName {
			continue
		}
		for _, m := range c.Methods() {
			if m.ShortName() != method {
				continue
			}
			if args == "" {
				found = append(found, m)
				continue
			}
			for _, child := range m.Children() {
				if child.ShortName() == method+args {
					found = append(found, child)
				}
			}
		}
	}
	return found
}
