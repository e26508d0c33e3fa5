package ui

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"

	"xtr/internal/config"
	"xtr/internal/domain"
	"xtr/internal/element"
)

// Formatter formats and displays output
type Formatter struct {
	config *config.Config
	out    io.Writer
}

// NewFormatter creates a new Formatter writing to stdout
func NewFormatter(cfg *config.Config) *Formatter {
	return &Formatter{config: cfg, out: os.Stdout}
}

// SetOutput redirects the formatter
func (f *Formatter) SetOutput(w io.Writer) {
	f.out = w
}

func (f *Formatter) printf(c *color.Color, format string, args ...interface{}) {
	if c == nil {
		fmt.Fprintf(f.out, format, args...)
		return
	}
	fmt.Fprint(f.out, c.Sprintf(format, args...))
}

var (
	cyan   = color.New(color.FgCyan)
	green  = color.New(color.FgGreen)
	red    = color.New(color.FgRed)
	yellow = color.New(color.FgYellow)
	white  = color.New(color.FgWhite)
	gray   = color.New(color.FgHiBlack)
)

// PrintMetaStats displays the statistics of a run followed by the failure tree
func (f *Formatter) PrintMetaStats(output *domain.TestResultsOutput) {
	meta := output.Meta

	f.printf(nil, "\n")
	f.printf(cyan, "╔═══════════════════════════════════════════════════════════════╗\n")
	f.printf(cyan, "║                    Test Execution Statistics                  ║\n")
	f.printf(cyan, "╚═══════════════════════════════════════════════════════════════╝\n\n")

	rows := []struct {
		label string
		c     *color.Color
		value interface{}
	}{
		{"Total Tests", white, meta.Total},
		{"Passed Tests", green, meta.Passed},
		{"Failed Tests", red, meta.Failed},
		{"Skipped Tests", yellow, meta.Skipped},
		{"Assemblies", white, meta.TotalAssemblies},
		{"Failed Assemblies", red, meta.FailedAssemblies},
		{"Duration", white, fmt.Sprintf("%.2fs", meta.DurationSeconds)},
		{"Workers", white, meta.Workers},
		{"Timestamp", white, meta.Timestamp},
	}

	f.printf(nil, "┌─────────────────────────────────┬─────────────────────────────┐\n")
	for i, row := range rows {
		f.printf(nil, "│ %-31s │ ", row.label)
		f.printf(row.c, "%-27v", row.value)
		f.printf(nil, " │\n")
		if i < len(rows)-1 {
			f.printf(nil, "├─────────────────────────────────┼─────────────────────────────┤\n")
		}
	}
	f.printf(nil, "└─────────────────────────────────┴─────────────────────────────┘\n")

	f.printf(nil, "\n")
	switch {
	case meta.Cancelled:
		f.printf(yellow, "■ Run cancelled after %d test(s)\n", meta.Total)
	case meta.Failed == 0 && meta.FailedAssemblies == 0:
		f.printf(green, "✓ All tests passed!\n")
	default:
		f.printf(red, "✗ %d test(s) failed in %d assembly(ies)\n", meta.Failed, meta.FailedAssemblies)
	}
	if len(output.Details) > 0 {
		f.printf(nil, "\n")
		f.printFailedTestsTree(output.Details)
	}
}

// printFailedTestsTree prints failures grouped by assembly then class
func (f *Formatter) printFailedTestsTree(failures []domain.TestFailure) {
	tree := make(map[string]map[string][]domain.TestFailure)
	for _, failure := range failures {
		if tree[failure.Assembly] == nil {
			tree[failure.Assembly] = make(map[string][]domain.TestFailure)
		}
		tree[failure.Assembly][failure.ClassName] = append(tree[failure.Assembly][failure.ClassName], failure)
	}

	assemblies := sortedKeys(tree)
	for i, assembly := range assemblies {
		lastAssembly := i == len(assemblies)-1
		f.printf(cyan, "%s%s\n", branch(lastAssembly), assembly)

		classes := sortedKeys(tree[assembly])
		for j, class := range classes {
			lastClass := j == len(classes)-1
			prefix := indent(lastAssembly)
			f.printf(yellow, "%s%s%s\n", prefix, branch(lastClass), class)

			cases := tree[assembly][class]
			for k, failure := range cases {
				name := failure.TestName
				if failure.Method == "" {
					name = "(class)"
				}
				marker := ""
				if failure.Resolved {
					marker = gray.Sprint(" [resolved]")
				}
				f.printf(red, "%s%s%s", prefix+indent(lastClass), branch(k == len(cases)-1), name)
				f.printf(nil, "%s\n", marker)
			}
		}
	}
}

// PrintClassList prints discovered classes, optionally with their methods and
// theory cases. Classes in failed are marked with [F] from the last run.
func (f *Formatter) PrintClassList(classes []*element.ClassElement, showCases bool, failed map[string]struct{}) {
	noun := "class(es)"
	if showCases {
		noun = "class(es) with test methods"
	}
	f.printf(green, "Found %d test %s:\n\n", len(classes), noun)

	for i, class := range classes {
		last := i == len(classes)-1
		marker := ""
		if _, ok := failed[class.TypeName().FullName()]; ok {
			marker = " " + red.Sprint("[F]")
		}
		f.printf(cyan, "%s%s", branch(last), class.TypeName())
		f.printf(nil, "%s\n", marker)
		if !showCases {
			continue
		}

		methods := class.Methods()
		if len(methods) == 0 {
			f.printf(red, "%s%s(no test methods found)\n", indent(last), branch(true))
		}
		for j, method := range methods {
			lastMethod := j == len(methods)-1
			f.printf(yellow, "%s%s%s", indent(last), branch(lastMethod), method.ShortName())
			if method.Explicit() {
				f.printf(gray, " (skip: %s)", method.ExplicitReason())
			}
			f.printf(nil, "\n")

			children := method.Children()
			for k, child := range children {
				f.printf(nil, "%s%s%s", indent(last)+indent(lastMethod), branch(k == len(children)-1), child.ShortName())
				if child.Explicit() && !method.Explicit() {
					f.printf(gray, " (skip: %s)", child.ExplicitReason())
				}
				f.printf(nil, "\n")
			}
		}
		if showCases && !last {
			f.printf(nil, "\n")
		}
	}
}

// PrintDisposition prints where e is declared
func (f *Formatter) PrintDisposition(e element.Element) {
	d := e.Disposition()
	if !d.Valid() {
		f.printf(yellow, "%s: no up-to-date declaration\n", e.Identity())
		if files := e.ProjectFiles(); len(files) > 0 {
			f.printf(gray, "  class declared in %s\n", strings.Join(files, ", "))
		}
		return
	}
	f.printf(cyan, "%s\n", e.Identity())
	for _, loc := range d.Locations {
		f.printf(nil, "  %s:%d", loc.File, loc.NameRange.StartLine)
		f.printf(gray, " (lines %d-%d)\n", loc.FullRange.StartLine, loc.FullRange.EndLine)
	}
}

func branch(last bool) string {
	if last {
		return "└── "
	}
	return "├── "
}

func indent(last bool) string {
	if last {
		return "    "
	}
	return "│   "
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
