package execution

import (
	"context"
	"sync"
	"time"

	"xtr/internal/config"
	"xtr/internal/domain"
	"xtr/internal/gate"
	"xtr/internal/logging"
	"xtr/internal/tasks"
)

// WorkerPool runs assemblies in parallel. Every assembly gets its own
// translator, task table and gate.
type WorkerPool struct {
	config    *config.Config
	runner    *Runner
	scheduler Scheduler
	server    tasks.Server
}

// NewWorkerPool creates a new WorkerPool reporting to server
func NewWorkerPool(cfg *config.Config, runner *Runner, scheduler Scheduler, server tasks.Server) *WorkerPool {
	return &WorkerPool{
		config:    cfg,
		runner:    runner,
		scheduler: scheduler,
		server:    server,
	}
}

// Execute runs every job (no fail-fast)
func (wp *WorkerPool) Execute(ctx context.Context, jobs []Job) ([]domain.AssemblyResult, time.Duration, error) {
	return wp.ExecuteWithOptions(ctx, jobs, false)
}

// ExecuteWithOptions runs jobs with optional fail-fast. With fail-fast the
// first failing test closes the gate of every running assembly and jobs not
// yet started are reported as cancelled.
func (wp *WorkerPool) ExecuteWithOptions(ctx context.Context, jobs []Job, failFast bool) ([]domain.AssemblyResult, time.Duration, error) {
	if len(jobs) == 0 {
		return nil, 0, nil
	}
	startTime := time.Now()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	group := gate.NewGroup()
	server := wp.server
	if failFast {
		server = &stopOnFailure{Server: server, stop: func() {
			group.Cancel()
			cancel()
		}}
	}

	workerCount := wp.config.Processors
	if workerCount <= 0 {
		workerCount = 1
	}
	distribution := wp.scheduler.Schedule(jobs, workerCount)

	results := make(chan domain.AssemblyResult, len(jobs))
	var wg sync.WaitGroup
	for i, queue := range distribution {
		wg.Add(1)
		go func(workerID int, queue []Job) {
			defer wg.Done()
			for _, job := range queue {
				if group.Cancelled() || ctx.Err() != nil {
					results <- domain.AssemblyResult{ProjectID: job.ProjectID, Assembly: job.Assembly, Cancelled: true}
					continue
				}
				g := gate.New()
				group.Add(g)
				results <- wp.runner.Run(ctx, job, server, g, workerID)
			}
		}(i+1, queue)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	var all []domain.AssemblyResult
	for result := range results {
		all = append(all, result)
	}
	logging.Info(subsystem, "ran %d assemblies on %d workers", len(all), len(distribution))
	return all, time.Since(startTime), nil
}

// stopOnFailure calls stop once the first task finishes unsuccessfully, so
// the failure itself is still reported completely
type stopOnFailure struct {
	tasks.Server
	once sync.Once
	stop func()
}

func (s *stopOnFailure) Finished(task tasks.Task, finish tasks.Finish) {
	s.Server.Finished(task, finish)
	switch finish.Result {
	case tasks.ResultException, tasks.ResultError:
		s.once.Do(s.stop)
	}
}
