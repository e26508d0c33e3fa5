package execution

import (
	"context"
	"time"

	"xtr/internal/domain"
	"xtr/internal/element"
)

// Job is one assembly to run
type Job struct {
	RunID     string
	ProjectID string
	Assembly  string
	// Classes are the discovered classes of the assembly that take part
	Classes []*element.ClassElement
	// Explicit elements run even when marked explicit
	Explicit []element.Element
	// Restrict passes the classes to the adapter instead of running the
	// whole assembly
	Restrict bool
}

// Elements returns every element of the job's classes, parents first
func (j Job) Elements() []element.Element {
	var out []element.Element
	for _, c := range j.Classes {
		element.Walk(c, func(e element.Element) {
			out = append(out, e)
		})
	}
	return out
}

// Executor executes assemblies and returns their results
type Executor interface {
	Execute(ctx context.Context, jobs []Job) ([]domain.AssemblyResult, time.Duration, error)
}
