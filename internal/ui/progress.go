package ui

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"xtr/internal/tasks"
)

// ProgressBar is a tasks.Server that advances a progress bar as tests finish
type ProgressBar struct {
	nopServer
	bar *progressbar.ProgressBar

	mu      sync.Mutex
	cases   caseTracker
	max     int
	done    int
	success int
	failed  int
}

// NewProgressBar creates a new progress bar for count expected tests. Cases
// first seen during the run grow the bar.
func NewProgressBar(count int, w io.Writer) *ProgressBar {
	bar := progressbar.NewOptions(count,
		progressbar.OptionSetDescription(describe(0, 0)),
		progressbar.OptionSetWidth(50),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        color.CyanString("█"),
			SaucerHead:    color.CyanString("█"),
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWriter(w),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(w, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)

	return &ProgressBar{bar: bar, max: count}
}

func (p *ProgressBar) Finished(task tasks.Task, finish tasks.Finish) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.cases.isTest(task) {
		return
	}
	switch finish.Result {
	case tasks.ResultSuccess, tasks.ResultSkipped:
		p.success++
	default:
		p.failed++
	}
	p.done++
	if p.done > p.max {
		p.max = p.done
		p.bar.ChangeMax(p.max)
	}
	p.update()
}

func (p *ProgressBar) update() {
	p.bar.Set(p.success + p.failed)
	p.bar.Describe(describe(p.success, p.failed))
}

// Finish completes the progress bar
func (p *ProgressBar) Finish() {
	p.bar.Finish()
}

func describe(success, failed int) string {
	return color.CyanString("Running tests: ") +
		color.GreenString("[success: %d", success) +
		" | " +
		color.RedString("failed: %d]", failed)
}
