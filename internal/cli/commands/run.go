package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"xtr/internal/config"
	"xtr/internal/domain"
	"xtr/internal/element"
	"xtr/internal/execution"
	"xtr/internal/persist"
	"xtr/internal/protocol"
	"xtr/internal/storage"
	"xtr/internal/tasks"
	"xtr/internal/ui"
)

// RunCommand handles the run command
type RunCommand struct {
	config    *config.Config
	storage   storage.Storage
	formatter *ui.Formatter
}

// NewRunCommand creates a new RunCommand
func NewRunCommand(cfg *config.Config, st storage.Storage, formatter *ui.Formatter) *RunCommand {
	return &RunCommand{
		config:    cfg,
		storage:   st,
		formatter: formatter,
	}
}

// Execute runs the command
func (rc *RunCommand) Execute(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	ws := newWorkspace(rc.config)
	classes, err := rc.selectClasses(ctx, ws)
	if err != nil {
		return err
	}
	if len(classes) == 0 {
		color.Yellow("No tests to execute")
		return nil
	}

	runID := uuid.NewString()
	restrict := rc.config.Flags.Filter != "" || rc.config.Flags.Session
	jobs := buildJobs(runID, classes, restrict, rc.config.Flags.Explicit)

	collector := ui.NewCollector(ws.resolver)
	var server tasks.Server
	var progress *ui.ProgressBar
	if rc.config.Flags.Verbose {
		server = tasks.Multi{collector, ui.NewConsole(os.Stdout, true)}
	} else {
		total := 0
		for _, j := range jobs {
			total += element.CountTests(j.Elements())
		}
		progress = ui.NewProgressBar(total, os.Stderr)
		server = tasks.Multi{collector, progress}
	}

	runner := execution.NewRunner(rc.config, ws.registry)
	if path := rc.config.Flags.Record; path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create feed recording: %w", err)
		}
		defer f.Close()
		runner.SetRecorder(protocol.NewEncoder(f))
	}

	pool := execution.NewWorkerPool(rc.config, runner, execution.NewRoundRobinScheduler(), server)
	results, duration, err := pool.ExecuteWithOptions(ctx, jobs, rc.config.Flags.FailFast)
	if progress != nil {
		progress.Finish()
	}
	if err != nil {
		return err
	}

	output := summarize(runID, results, collector, duration, rc.config.Processors)
	if err := rc.storage.Save(output.Meta, output.Details); err != nil {
		return fmt.Errorf("failed to save test results: %w", err)
	}
	rc.formatter.PrintMetaStats(output)

	if output.Meta.Failed > 0 || output.Meta.FailedAssemblies > 0 {
		return fmt.Errorf("%d test(s) failed", output.Meta.Failed)
	}
	return nil
}

// selectClasses returns the discovered classes, narrowed to the saved
// session when asked to
func (rc *RunCommand) selectClasses(ctx context.Context, ws *workspace) ([]*element.ClassElement, error) {
	classes, err := ws.discover(ctx, rc.config.Flags.Filter)
	if err != nil {
		return nil, err
	}
	if !rc.config.Flags.Session {
		return classes, nil
	}

	store, err := storage.NewSessionStore(rc.config)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	refs, err := store.LoadSession(sessionName(rc.config))
	if err != nil {
		return nil, err
	}

	discovered := make(map[*element.ClassElement]bool, len(classes))
	for _, c := range classes {
		discovered[c] = true
	}
	var selected []*element.ClassElement
	for _, c := range persist.ReadAll(refs, ws.catalog, ws.registry) {
		// classes without discovered methods no longer exist in source
		if discovered[c] {
			selected = append(selected, c)
		}
	}
	return selected, nil
}

// buildJobs groups classes into one job per assembly, in assembly order.
// With explicit set, the job requests every test marked explicit.
func buildJobs(runID string, classes []*element.ClassElement, restrict, explicit bool) []execution.Job {
	byAssembly := make(map[string]*execution.Job)
	var order []string
	for _, c := range classes {
		j, ok := byAssembly[c.AssemblyLocation()]
		if !ok {
			j = &execution.Job{RunID: runID, ProjectID: c.ProjectID(), Assembly: c.AssemblyLocation(), Restrict: restrict}
			byAssembly[c.AssemblyLocation()] = j
			order = append(order, c.AssemblyLocation())
		}
		j.Classes = append(j.Classes, c)
	}
	sort.Strings(order)

	jobs := make([]execution.Job, 0, len(order))
	for _, a := range order {
		j := *byAssembly[a]
		if explicit {
			for _, e := range j.Elements() {
				if e.Explicit() {
					j.Explicit = append(j.Explicit, e)
				}
			}
		}
		jobs = append(jobs, j)
	}
	return jobs
}

// summarize turns the run into the results file content. Adapters that could
// not run are reported as failures of their assembly.
func summarize(runID string, results []domain.AssemblyResult, collector *ui.Collector, duration time.Duration, workers int) *domain.TestResultsOutput {
	meta := domain.TestResultsMeta{
		RunID:           runID,
		TestCounts:      collector.Counts(),
		TotalAssemblies: len(results),
		Duration:        duration.String(),
		DurationSeconds: duration.Seconds(),
		Workers:         workers,
		Timestamp:       time.Now().Format(time.RFC3339),
	}
	failures := collector.Failures()

	for _, r := range results {
		if r.Cancelled {
			meta.Cancelled = true
		}
		if r.Error != nil || (!r.Success && !r.Cancelled) {
			meta.FailedAssemblies++
		}
		if r.Error == nil {
			continue
		}
		message := r.Error.Error()
		if stderr := strings.TrimSpace(r.Stderr); stderr != "" {
			message += "\n" + stderr
		}
		var exitErr interface{ ExitCode() int }
		if errors.As(r.Error, &exitErr) {
			message += fmt.Sprintf("\nexit code %d", exitErr.ExitCode())
		}
		failures = append(failures, domain.TestFailure{
			TestName: r.Assembly,
			Assembly: r.Assembly,
			Outcome:  ui.OutcomeError,
			Message:  message,
		})
	}
	return &domain.TestResultsOutput{Meta: meta, Details: failures}
}

func sessionName(cfg *config.Config) string {
	if cfg.Flags.SessionName != "" {
		return cfg.Flags.SessionName
	}
	return "default"
}
