package ui

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"xtr/internal/domain"
	"xtr/internal/logging"
	"xtr/internal/storage"
)

// Viewer presents the failures of a finished run
type Viewer interface {
	View(results *domain.TestResultsOutput) error
}

// ErrorViewer is the interactive tview Viewer
type ErrorViewer struct {
	storage storage.Storage
}

// NewErrorViewer creates a new ErrorViewer that saves resolved marks to st
func NewErrorViewer(st storage.Storage) *ErrorViewer {
	return &ErrorViewer{storage: st}
}

// View displays test failures in an interactive TUI. Marking a failure
// resolved is saved immediately.
func (ev *ErrorViewer) View(results *domain.TestResultsOutput) error {
	if len(results.Details) == 0 {
		color.Green("✓ No test failures found!")
		return nil
	}

	v := &failuresView{
		ev:      ev,
		results: results,
		app:     tview.NewApplication(),
	}
	v.build()
	if err := v.app.SetRoot(v.root, true).SetFocus(v.list).Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// failuresView is the state of one viewer session
type failuresView struct {
	ev      *ErrorViewer
	results *domain.TestResultsOutput

	app     *tview.Application
	root    tview.Primitive
	header  *tview.TextView
	list    *tview.List
	stats   *tview.TextView
	details *tview.TextView
}

func (v *failuresView) build() {
	v.list = tview.NewList().
		ShowSecondaryText(false).
		SetHighlightFullLine(true)
	for i := range v.results.Details {
		v.list.AddItem(v.itemText(i), "", 0, nil)
	}
	v.list.SetMainTextColor(tview.Styles.PrimaryTextColor).
		SetSelectedTextColor(tcell.ColorWhite).
		SetSelectedBackgroundColor(tcell.ColorDarkCyan).
		SetSecondaryTextColor(tview.Styles.SecondaryTextColor)

	v.header = tview.NewTextView().
		SetTextAlign(tview.AlignCenter).
		SetDynamicColors(true)
	v.stats = tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(false).
		SetWordWrap(false)
	v.details = tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(true).
		SetWordWrap(true)

	// list takes a third of the width, details the rest
	right := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(v.stats, 3, 0, false).
		AddItem(tview.NewFlex().
			SetDirection(tview.FlexColumn).
			AddItem(v.details, 0, 1, false).
			AddItem(tview.NewBox(), 2, 0, false), 0, 1, false)
	body := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(v.list, 0, 1, true).
		AddItem(right, 0, 2, false)
	v.root = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(v.header, 1, 0, false).
		AddItem(tview.NewBox(), 1, 0, false).
		AddItem(body, 0, 1, true)

	v.list.SetInputCapture(v.listKeys)
	v.details.SetInputCapture(v.detailKeys)
	v.list.SetChangedFunc(func(int, string, string, rune) { v.showSelected() })

	v.updateHeader()
	v.showSelected()
}

func (v *failuresView) listKeys(event *tcell.EventKey) *tcell.EventKey {
	switch event.Key() {
	case tcell.KeyEnter, tcell.KeyRight:
		v.app.SetFocus(v.details)
		return nil
	case tcell.KeyCtrlC:
		v.app.Stop()
		return nil
	case tcell.KeyRune:
		if event.Rune() == 'r' || event.Rune() == 'R' {
			v.toggleResolved(v.list.GetCurrentItem())
			return nil
		}
	}
	return event
}

func (v *failuresView) detailKeys(event *tcell.EventKey) *tcell.EventKey {
	switch event.Key() {
	case tcell.KeyLeft, tcell.KeyEsc:
		v.app.SetFocus(v.list)
		return nil
	case tcell.KeyCtrlC:
		v.app.Stop()
		return nil
	}
	return event
}

func (v *failuresView) toggleResolved(index int) {
	if index < 0 || index >= len(v.results.Details) {
		return
	}
	v.results.Details[index].Resolved = !v.results.Details[index].Resolved
	v.list.SetItemText(index, v.itemText(index), "")
	v.updateHeader()
	v.showSelected()
	if err := v.ev.storage.SaveOutput(v.results); err != nil {
		logging.Error("ui", err, "saving resolved status")
	}
}

func (v *failuresView) itemText(index int) string {
	failure := v.results.Details[index]
	name := failure.TestName
	if name == "" {
		name = fmt.Sprintf("Failure %d", index+1)
	}
	name = tview.Escape(name)
	if failure.Resolved {
		return fmt.Sprintf("[gray]✓ [yellow]%d.[gray] %s[white]", index+1, name)
	}
	return fmt.Sprintf("[%s]%d.[white] %s", outcomeColor(failure.Outcome), index+1, name)
}

func (v *failuresView) updateHeader() {
	unresolved := 0
	for _, f := range v.results.Details {
		if !f.Resolved {
			unresolved++
		}
	}
	v.header.SetText(fmt.Sprintf(" Failures (%d total, %d unresolved) | ↑↓ navigate, [yellow]R[white] mark resolved, → details, ← back, Ctrl+C exit ",
		len(v.results.Details), unresolved))
}

func (v *failuresView) showSelected() {
	index := v.list.GetCurrentItem()
	if index < 0 || index >= len(v.results.Details) {
		return
	}
	failure := v.results.Details[index]
	v.stats.SetText(v.ev.formatFailureStats(failure, index+1))
	v.details.SetText(v.ev.formatFailureDetails(failure))
}

// formatFailureDetails formats a test failure for display using tview color tags ([red], [cyan], etc.)
func (ev *ErrorViewer) formatFailureDetails(failure domain.TestFailure) string {
	var builder strings.Builder
	w := tabwriter.NewWriter(&builder, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "[red]✗ %s: %s[white]\n\n", failure.Outcome, tview.Escape(failure.TestName))

	fmt.Fprintf(w, "[cyan]Assembly:\t%s[white]\n", tview.Escape(failure.Assembly))
	fmt.Fprintf(w, "[cyan]Class:\t%s[white]\n", tview.Escape(failure.ClassName))
	if failure.File != "" && failure.Line > 0 {
		fmt.Fprintf(w, "[yellow]Location:\t%s:%d[white]\n", failure.File, failure.Line)
	}
	if failure.ExceptionType != "" {
		fmt.Fprintf(w, "[yellow]Exception:\t%s[white]\n", failure.ExceptionType)
	}
	fmt.Fprintf(w, "\n")

	if failure.Message != "" {
		fmt.Fprintf(w, "[yellow]Message:[white]\n%s\n\n", tview.Escape(failure.Message))
	}

	if len(failure.StackTrace) > 0 {
		fmt.Fprintf(w, "[yellow]Stack Trace:[white]\n")
		for i, trace := range failure.StackTrace {
			if i < 10 {
				fmt.Fprintf(w, "  %s\n", tview.Escape(trace))
			}
		}
		if len(failure.StackTrace) > 10 {
			fmt.Fprintf(w, "  [gray]... and %d more lines[white]\n", len(failure.StackTrace)-10)
		}
	}

	w.Flush()
	return builder.String()
}

// formatFailureStats formats the stats header for a test failure
func (ev *ErrorViewer) formatFailureStats(failure domain.TestFailure, number int) string {
	class := failure.ClassName
	if class == "" {
		class = "Unknown class"
	}

	test := failure.Method
	if test == "" {
		test = fmt.Sprintf("Failure %d", number)
	}

	return fmt.Sprintf("[cyan]class:[white] [yellow]%s[white]::[yellow]%s[white]\n", tview.Escape(class), tview.Escape(test))
}

func outcomeColor(outcome string) string {
	switch outcome {
	case OutcomeFailed:
		return "red"
	case OutcomeForceFailed:
		return "orange"
	default:
		return "yellow"
	}
}
