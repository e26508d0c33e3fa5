package execution

import (
	"sort"

	"xtr/internal/element"
)

// Scheduler distributes jobs across workers
type Scheduler interface {
	Schedule(jobs []Job, workerCount int) [][]Job
}

// RoundRobinScheduler deals jobs to workers in turn, heaviest first, so that
// large assemblies do not all land on one worker
type RoundRobinScheduler struct{}

// NewRoundRobinScheduler creates a new RoundRobinScheduler
func NewRoundRobinScheduler() *RoundRobinScheduler {
	return &RoundRobinScheduler{}
}

// Schedule returns one job list per worker
func (s *RoundRobinScheduler) Schedule(jobs []Job, workerCount int) [][]Job {
	if workerCount <= 0 {
		workerCount = 1
	}
	if workerCount > len(jobs) && len(jobs) > 0 {
		workerCount = len(jobs)
	}

	ordered := append([]Job(nil), jobs...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return weight(ordered[i]) > weight(ordered[j])
	})

	distribution := make([][]Job, workerCount)
	for i, job := range ordered {
		distribution[i%workerCount] = append(distribution[i%workerCount], job)
	}
	return distribution
}

func weight(job Job) int {
	return element.CountTests(job.Elements())
}
