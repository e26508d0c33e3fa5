package execution

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"xtr/internal/config"
	"xtr/internal/domain"
	"xtr/internal/gate"
	"xtr/internal/logging"
	"xtr/internal/protocol"
	"xtr/internal/registry"
	"xtr/internal/tasks"
	"xtr/internal/translator"
)

const subsystem = "execution"

// maxStderr bounds the adapter diagnostics kept per assembly
const maxStderr = 64 * 1024

// Runner executes one assembly through the configured adapter and translates
// its feed into task notifications
type Runner struct {
	config   *config.Config
	registry *registry.Registry
	recorder *protocol.Encoder
}

// NewRunner creates a new Runner. Cases first seen during a run are folded
// into reg, which may be nil.
func NewRunner(cfg *config.Config, reg *registry.Registry) *Runner {
	return &Runner{config: cfg, registry: reg}
}

// SetRecorder makes the runner copy every feed message to enc
func (r *Runner) SetRecorder(enc *protocol.Encoder) {
	r.recorder = enc
}

// Run starts the adapter for job and blocks until its feed ends or the gate
// closes. Closing g stops the adapter. A cancelled run leaves its tasks
// unfinished.
func (r *Runner) Run(ctx context.Context, job Job, server tasks.Server, g *gate.Gate, workerID int) domain.AssemblyResult {
	start := time.Now()
	result := domain.AssemblyResult{ProjectID: job.ProjectID, Assembly: job.Assembly}
	if !g.ShouldContinue() || ctx.Err() != nil {
		result.Cancelled = true
		return result
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	release := g.Bind(runCtx)
	defer release()

	var classes []string
	if job.Restrict {
		for _, c := range job.Classes {
			classes = append(classes, c.TypeName().FullName())
		}
	}

	cmd := exec.CommandContext(runCtx, r.config.Runner.Command, r.config.RunnerArgs(job.Assembly, classes, len(job.Explicit) > 0)...)
	cmd.Dir = r.config.ProjectPath
	cmd.Env = append(r.config.RunnerEnv(workerID), "XTR_RUN_ID="+job.RunID)
	stderr := &limitedBuffer{limit: maxStderr}
	cmd.Stderr = stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		result.Error = fmt.Errorf("adapter stdout: %w", err)
		return result
	}

	t := r.translator(job, server, g)
	logging.Info(subsystem, "worker %d: %s %s", workerID, cmd.Path, strings.Join(cmd.Args[1:], " "))
	if err := cmd.Start(); err != nil {
		result.Duration = time.Since(start)
		if runCtx.Err() != nil || !g.ShouldContinue() {
			t.Close()
			result.Cancelled = true
			return result
		}
		result.Error = fmt.Errorf("failed to start adapter for %s: %w", job.Assembly, err)
		t.Fail(result.Error.Error())
		logging.Error(subsystem, result.Error, "worker %d: %s", workerID, job.Assembly)
		return result
	}

	drainErr := t.Drain(runCtx, r.source(protocol.NewDecoder(stdout)))
	testsFailed := t.Failed()
	switch {
	case drainErr != nil:
		// finish the tasks before killing the adapter closes the gate
		t.Fail(drainErr.Error())
		cancel()
	case t.Stopped():
		// stop the adapter before waiting so Wait does not block on a full pipe
		cancel()
	}
	waitErr := cmd.Wait()
	if drainErr == nil {
		t.Close()
	}

	result.Duration = time.Since(start)
	result.Cancelled = drainErr == nil && t.Stopped()
	result.Stderr = stderr.String()

	var exitErr *exec.ExitError
	switch {
	case drainErr != nil:
		result.Error = drainErr
	case result.Cancelled:
	case errors.As(waitErr, &exitErr) && testsFailed:
		// adapters exit non-zero when tests failed
	case waitErr != nil:
		result.Error = fmt.Errorf("adapter for %s: %w", job.Assembly, waitErr)
	}
	result.Success = result.Error == nil && !result.Cancelled && !t.Failed()

	if result.Error != nil {
		logging.Error(subsystem, result.Error, "worker %d: %s", workerID, job.Assembly)
	}
	return result
}

// Replay translates a recorded feed as if it came from the adapter
func (r *Runner) Replay(ctx context.Context, job Job, source protocol.Source, server tasks.Server, g *gate.Gate) domain.AssemblyResult {
	start := time.Now()
	release := g.Bind(ctx)
	defer release()

	t := r.translator(job, server, g)
	err := t.Drain(ctx, r.source(source))
	if err != nil {
		t.Fail(err.Error())
	} else {
		t.Close()
	}

	cancelled := err == nil && t.Stopped()
	return domain.AssemblyResult{
		ProjectID: job.ProjectID,
		Assembly:  job.Assembly,
		Success:   err == nil && !cancelled && !t.Failed(),
		Cancelled: cancelled,
		Error:     err,
		Duration:  time.Since(start),
	}
}

func (r *Runner) translator(job Job, server tasks.Server, g *gate.Gate) *translator.Translator {
	t := translator.New(server, g, r.registry, job.ProjectID, job.Assembly)
	t.Seed(job.Elements(), job.Explicit)
	t.Begin()
	return t
}

func (r *Runner) source(src protocol.Source) protocol.Source {
	if r.recorder == nil {
		return src
	}
	return &protocol.Recorder{Source: src, Encoder: r.recorder}
}

// limitedBuffer keeps the first limit bytes written to it
type limitedBuffer struct {
	buf   bytes.Buffer
	limit int
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	if room := b.limit - b.buf.Len(); room > 0 {
		if len(p) > room {
			b.buf.Write(p[:room])
		} else {
			b.buf.Write(p)
		}
	}
	return len(p), nil
}

func (b *limitedBuffer) String() string {
	return b.buf.String()
}
