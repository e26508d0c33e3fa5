package commands

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xtr/internal/config"
	"xtr/internal/domain"
	"xtr/internal/element"
	"xtr/internal/registry"
	"xtr/internal/ui"
)

func fixture() (*registry.Registry, []*element.ClassElement) {
	reg := registry.New(nil)
	calc := reg.GetOrCreateClass("p1", "Foo.Tests.Calc", "/out/b.dll")
	adds := reg.GetOrCreateMethod(calc, "Adds", "")
	reg.GetOrCreateTheory(adds, "Adds(x: 1)")
	reg.GetOrCreateMethod(calc, "Slow", "needs a database")
	other := reg.GetOrCreateClass("p2", "Foo.Tests.Other", "/out/a.dll")
	reg.GetOrCreateMethod(other, "Works", "")
	same := reg.GetOrCreateClass("p1", "Foo.Tests.Parser", "/out/b.dll")
	return reg, []*element.ClassElement{calc, other, same}
}

func TestBuildJobs(t *testing.T) {
	_, classes := fixture()

	jobs := buildJobs("run-1", classes, true, false)
	require.Len(t, jobs, 2)
	assert.Equal(t, "/out/a.dll", jobs[0].Assembly, "jobs are ordered by assembly")
	assert.Equal(t, "p2", jobs[0].ProjectID)
	assert.Len(t, jobs[1].Classes, 2)
	for _, j := range jobs {
		assert.Equal(t, "run-1", j.RunID)
		assert.True(t, j.Restrict)
		assert.Empty(t, j.Explicit)
	}

	jobs = buildJobs("run-2", classes, false, true)
	assert.Empty(t, jobs[0].Explicit)
	require.Len(t, jobs[1].Explicit, 1)
	assert.Equal(t, "Slow", jobs[1].Explicit[0].ShortName())
}

func TestLocate(t *testing.T) {
	_, classes := fixture()

	tests := []struct {
		name string
		kind element.Kind
		want int
	}{
		{"Foo.Tests.Calc", element.KindClass, 1},
		{"Foo.Tests.Calc.Adds", element.KindMethod, 1},
		{"Foo.Tests.Calc.Adds(x: 1)", element.KindTheory, 1},
		{"Foo.Tests.Calc.Adds(x: 2)", element.KindTheory, 0},
		{"Foo.Tests.Calc.Missing", element.KindMethod, 0},
		{"Calc", element.KindClass, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found := locate(classes, tt.name)
			require.Len(t, found, tt.want)
			for _, e := range found {
				assert.Equal(t, tt.kind, e.Kind())
			}
		})
	}
}

type exitError struct{ code int }

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

func (e exitError) ExitCode() int { return e.code }

func TestSummarize(t *testing.T) {
	results := []domain.AssemblyResult{
		{Assembly: "/out/a.dll", Success: true},
		{Assembly: "/out/b.dll", Error: fmt.Errorf("adapter failed: %w", exitError{code: 3}), Stderr: "boom\n"},
		{Assembly: "/out/c.dll", Cancelled: true},
	}

	output := summarize("run-1", results, ui.NewCollector(nil), 1500*time.Millisecond, 2)
	assert.Equal(t, "run-1", output.Meta.RunID)
	assert.Equal(t, 3, output.Meta.TotalAssemblies)
	assert.Equal(t, 1, output.Meta.FailedAssemblies)
	assert.True(t, output.Meta.Cancelled)
	assert.Equal(t, 1.5, output.Meta.DurationSeconds)
	assert.Equal(t, 2, output.Meta.Workers)

	require.Len(t, output.Details, 1)
	failure := output.Details[0]
	assert.Equal(t, "/out/b.dll", failure.Assembly)
	assert.Equal(t, ui.OutcomeError, failure.Outcome)
	assert.Equal(t, "adapter failed: exit status 3\nboom\nexit code 3", failure.Message)
}

func TestSummarize_PlainError(t *testing.T) {
	results := []domain.AssemblyResult{{Assembly: "/out/a.dll", Error: errors.New("adapter not found")}}

	output := summarize("run-1", results, ui.NewCollector(nil), time.Second, 1)
	require.Len(t, output.Details, 1)
	assert.Equal(t, "adapter not found", output.Details[0].Message)
	assert.False(t, output.Meta.Cancelled)
}

func TestSummarize_ErrorOfCancelledRun(t *testing.T) {
	results := []domain.AssemblyResult{{Assembly: "/out/a.dll", Cancelled: true, Error: errors.New("reading feed: bad line")}}

	output := summarize("run-1", results, ui.NewCollector(nil), time.Second, 1)
	assert.True(t, output.Meta.Cancelled)
	assert.Equal(t, 1, output.Meta.FailedAssemblies)
	require.Len(t, output.Details, 1)
	assert.Equal(t, "reading feed: bad line", output.Details[0].Message)
}

func TestSessionName(t *testing.T) {
	cfg := config.New()
	assert.Equal(t, "default", sessionName(cfg))

	cfg.Flags.SessionName = "nightly"
	assert.Equal(t, "nightly", sessionName(cfg))
}
