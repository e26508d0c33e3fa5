package discovery

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"xtr/internal/element"
)

// MethodKind tells facts from theories
type MethodKind int

const (
	MethodFact MethodKind = iota
	MethodTheory
)

func (k MethodKind) String() string {
	if k == MethodTheory {
		return "theory"
	}
	return "fact"
}

// MethodDecl is a test method declaration
type MethodDecl struct {
	Name       string
	Kind       MethodKind
	SkipReason string
	// Cases are the display names of the inline data rows, e.g. "Add(a: 1, b: 2)"
	Cases []string
	// CaseSkipReasons holds the reasons of rows with their own Skip
	CaseSkipReasons map[string]string
	NameRange       element.TextRange
	FullRange       element.TextRange
}

// TypeDecl is one declaration of a type. Partial types produce one TypeDecl
// per declaring file.
type TypeDecl struct {
	TypeName  element.TypeName
	Partial   bool
	NameRange element.TextRange
	FullRange element.TextRange
	Methods   []MethodDecl
}

// SourceFile is the parse result of one file
type SourceFile struct {
	Path  string
	Types []TypeDecl
}

var (
	namespacePattern = regexp.MustCompile(`\bnamespace\s+([\w.]+)\s*([;{])`)
	typePattern      = regexp.MustCompile(`((?:\b(?:public|internal|private|protected|static|sealed|abstract|partial|unsafe|new|file)\s+)*)\b(?:record\s+(?:class\s+|struct\s+)?|class\s+|struct\s+)(\w+)`)
	// attribute blocks followed by a method header up to its opening paren
	methodPattern = regexp.MustCompile(`((?:\[[^\[\]]*\]\s*)+)(?:\b(?:public|private|protected|internal|static|async|virtual|override|sealed|new|unsafe)\s+)*[\w<>\[\],.?]+\s+(\w+)\s*(?:<[^<>()]*>\s*)?\(`)
	attributePattern = regexp.MustCompile(`\[([^\[\]]*)\]`)
	skipPattern      = regexp.MustCompile(`\bSkip\s*=\s*@?"((?:[^"\\]|\\.)*)"`)
	trailingIdent    = regexp.MustCompile(`(\w+)\s*$`)
	namedArgPattern  = regexp.MustCompile(`^\w+\s*=(?:[^=]|$)`)
)

// Parser extracts xUnit.net test declarations from C# sources. It works on
// the lexical structure only; no semantic model is built.
type Parser struct{}

// NewParser creates a new Parser
func NewParser() *Parser {
	return &Parser{}
}

// ParseFile reads and parses one source file
func (p *Parser) ParseFile(path string) (*SourceFile, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading file %s: %w", path, err)
	}
	return p.Parse(path, content), nil
}

type scope struct {
	name       string
	start, end int
}

type typeScope struct {
	scope
	decl   *TypeDecl
	parent *typeScope
	open   int
}

// Parse parses src. Types without test methods are reported too, since a
// partial type may carry its tests in another file.
func (p *Parser) Parse(path string, src []byte) *SourceFile {
	masked := mask(src)
	text := string(masked)
	lines := newLineIndex(src)

	var namespaces []scope
	for _, m := range namespacePattern.FindAllStringSubmatchIndex(text, -1) {
		name := text[m[2]:m[3]]
		if text[m[4]] == ';' {
			namespaces = append(namespaces, scope{name: name, start: m[0], end: len(text)})
			continue
		}
		end := matchClose(masked, m[4], '{', '}')
		if end < 0 {
			end = len(text) - 1
		}
		namespaces = append(namespaces, scope{name: name, start: m[4], end: end})
	}

	var types []*typeScope
	for _, m := range typePattern.FindAllStringSubmatchIndex(text, -1) {
		nameStart, nameEnd := m[4], m[5]
		ts := &typeScope{
			scope: scope{name: text[nameStart:nameEnd], start: m[0]},
			decl: &TypeDecl{
				Partial:   strings.Contains(text[m[2]:m[3]], "partial"),
				NameRange: lines.rangeOf(nameStart, nameEnd),
			},
		}
		body := strings.IndexAny(text[nameEnd:], "{;")
		switch {
		case body < 0:
			ts.end, ts.open = len(text)-1, -1
		case text[nameEnd+body] == ';':
			ts.end, ts.open = nameEnd+body, -1
		default:
			ts.open = nameEnd + body
			ts.end = matchClose(masked, ts.open, '{', '}')
			if ts.end < 0 {
				ts.end = len(text) - 1
			}
		}
		ts.decl.FullRange = lines.rangeOf(ts.start, ts.end+1)
		types = append(types, ts)
	}

	for _, ts := range types {
		ts.parent = innermostType(types, ts.start, ts)
		ts.decl.TypeName = element.TypeName(qualify(namespaces, ts))
	}

	for _, m := range methodPattern.FindAllSubmatchIndex(masked, -1) {
		owner := innermostType(types, m[0], nil)
		if owner == nil {
			continue
		}
		decl, ok := parseMethod(src, masked, lines, m)
		if ok {
			owner.decl.Methods = append(owner.decl.Methods, decl)
		}
	}

	file := &SourceFile{Path: path}
	for _, ts := range types {
		file.Types = append(file.Types, *ts.decl)
	}
	sort.SliceStable(file.Types, func(i, j int) bool {
		return file.Types[i].FullRange.StartOffset < file.Types[j].FullRange.StartOffset
	})
	return file
}

// innermostType returns the type whose body contains offset, skipping self
func innermostType(types []*typeScope, offset int, self *typeScope) *typeScope {
	var best *typeScope
	for _, ts := range types {
		if ts == self || ts.open < 0 || offset <= ts.open || offset >= ts.end {
			continue
		}
		if best == nil || ts.open > best.open {
			best = ts
		}
	}
	return best
}

func qualify(namespaces []scope, ts *typeScope) string {
	name := ts.name
	outermost := ts
	for p := ts.parent; p != nil; p = p.parent {
		name = p.name + "+" + name
		outermost = p
	}

	var ns []string
	for _, s := range namespaces {
		if outermost.start >= s.start && outermost.start <= s.end {
			ns = append(ns, s.name)
		}
	}
	if len(ns) == 0 {
		return name
	}
	return strings.Join(ns, ".") + "." + name
}

func parseMethod(src, masked []byte, lines lineIndex, m []int) (MethodDecl, bool) {
	decl := MethodDecl{Name: string(masked[m[4]:m[5]])}
	isTest := false
	var rows [][]string

	for _, a := range attributePattern.FindAllIndex(masked[m[2]:m[3]], -1) {
		from, to := m[2]+a[0]+1, m[2]+a[1]-1
		for _, item := range splitTopLevel(masked, from, to) {
			name, args := attributeParts(src, masked, item[0], item[1])
			switch {
			case name == "Theory" || strings.HasSuffix(name, "Theory"):
				decl.Kind = MethodTheory
				isTest = true
				decl.SkipReason = skipReason(args)
			case name == "Fact" || strings.HasSuffix(name, "Fact"):
				isTest = true
				decl.SkipReason = skipReason(args)
			case name == "InlineData":
				rows = append(rows, args)
			}
		}
	}
	if !isTest {
		return MethodDecl{}, false
	}

	open := m[1] - 1
	closeParen := matchClose(masked, open, '(', ')')
	if closeParen < 0 {
		return MethodDecl{}, false
	}
	params := parameterNames(masked, open+1, closeParen)

	end := len(masked) - 1
	rest := string(masked[closeParen+1:])
	if i := strings.IndexAny(rest, "{;="); i >= 0 {
		at := closeParen + 1 + i
		if masked[at] == '{' {
			if c := matchClose(masked, at, '{', '}'); c >= 0 {
				end = c
			}
		} else if j := strings.IndexByte(rest[i:], ';'); j >= 0 {
			end = at + j
		}
	}

	decl.NameRange = lines.rangeOf(m[4], m[5])
	decl.FullRange = lines.rangeOf(m[0], end+1)
	if decl.Kind == MethodTheory {
		for _, row := range rows {
			values, named := splitNamedArgs(row)
			name := caseName(decl.Name, params, values)
			decl.Cases = append(decl.Cases, name)
			if reason := skipReason(named); reason != "" {
				if decl.CaseSkipReasons == nil {
					decl.CaseSkipReasons = make(map[string]string)
				}
				decl.CaseSkipReasons[name] = reason
			}
		}
	}
	return decl, true
}

// attributeParts returns the attribute name without namespace or Attribute
// suffix, and its positional and named arguments as source text.
func attributeParts(src, masked []byte, from, to int) (string, []string) {
	item := string(masked[from:to])
	trimmed := strings.TrimLeft(item, " \t\r\n")
	from += len(item) - len(trimmed)

	nameEnd := strings.IndexAny(trimmed, "( \t\r\n")
	if nameEnd < 0 {
		nameEnd = len(trimmed)
	}
	name := trimmed[:nameEnd]
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSuffix(name, "Attribute")

	open := strings.IndexByte(trimmed, '(')
	if open < 0 {
		return name, nil
	}
	open += from
	closeParen := matchClose(masked, open, '(', ')')
	if closeParen < 0 {
		return name, nil
	}
	var args []string
	for _, a := range splitTopLevel(masked, open+1, closeParen) {
		if arg := strings.TrimSpace(string(src[a[0]:a[1]])); arg != "" {
			args = append(args, arg)
		}
	}
	return name, args
}

func skipReason(args []string) string {
	for _, a := range args {
		if m := skipPattern.FindStringSubmatch(a); m != nil {
			return strings.NewReplacer(`\"`, `"`, `\\`, `\`).Replace(m[1])
		}
	}
	return ""
}

func parameterNames(masked []byte, from, to int) []string {
	var names []string
	for _, p := range splitTopLevel(masked, from, to) {
		decl := string(masked[p[0]:p[1]])
		if i := strings.IndexByte(decl, '='); i >= 0 {
			decl = decl[:i]
		}
		if m := trailingIdent.FindStringSubmatch(decl); m != nil {
			names = append(names, m[1])
		}
	}
	return names
}

// splitNamedArgs separates attribute properties such as Skip = "..." from
// the positional values of a data row
func splitNamedArgs(args []string) (values, named []string) {
	for _, a := range args {
		if namedArgPattern.MatchString(a) {
			named = append(named, a)
		} else {
			values = append(values, a)
		}
	}
	return values, named
}

// caseName renders a data row the way the runner names theory cases
func caseName(method string, params, values []string) string {
	parts := make([]string, len(values))
	for i, v := range values {
		name := "???"
		if i < len(params) {
			name = params[i]
		}
		parts[i] = name + ": " + v
	}
	return method + "(" + strings.Join(parts, ", ") + ")"
}

// splitTopLevel splits masked[from:to] on commas outside any brackets
func splitTopLevel(masked []byte, from, to int) [][2]int {
	var parts [][2]int
	depth, start := 0, from
	for i := from; i < to; i++ {
		switch masked[i] {
		case '(', '[', '{', '<':
			depth++
		case ')', ']', '}', '>':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, [2]int{start, i})
				start = i + 1
			}
		}
	}
	if start < to || len(parts) > 0 {
		parts = append(parts, [2]int{start, to})
	}
	return parts
}

// matchClose returns the index of the bracket closing the one at open, or -1
func matchClose(masked []byte, open int, o, c byte) int {
	depth := 0
	for i := open; i < len(masked); i++ {
		switch masked[i] {
		case o:
			depth++
		case c:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// mask blanks comments and the contents of string and character literals,
// keeping offsets and line breaks intact.
func mask(src []byte) []byte {
	out := make([]byte, len(src))
	copy(out, src)
	blank := func(from, to int) {
		for i := from; i < to; i++ {
			if out[i] != '\n' {
				out[i] = ' '
			}
		}
	}

	n := len(src)
	for i := 0; i < n; {
		c := src[i]
		switch {
		case c == '/' && i+1 < n && src[i+1] == '/':
			j := i
			for j < n && src[j] != '\n' {
				j++
			}
			blank(i, j)
			i = j
		case c == '/' && i+1 < n && src[i+1] == '*':
			j := i + 2
			for j+1 < n && !(src[j] == '*' && src[j+1] == '/') {
				j++
			}
			j = min(j+2, n)
			blank(i, j)
			i = j
		case c == '"':
			verbatim := i > 0 && (src[i-1] == '@' || (i > 1 && src[i-1] == '$' && src[i-2] == '@'))
			j := stringEnd(src, i, verbatim)
			blank(i+1, max(i+1, j-1))
			i = j
		case c == '\'':
			j := i + 1
			for j < n && src[j] != '\'' && src[j] != '\n' {
				if src[j] == '\\' {
					j++
				}
				j++
			}
			if j < n && src[j] == '\'' {
				j++
			}
			blank(i+1, max(i+1, min(j-1, n)))
			i = max(j, i+1)
		default:
			i++
		}
	}
	return out
}

// stringEnd returns the offset just past the literal starting at src[i]
func stringEnd(src []byte, i int, verbatim bool) int {
	n := len(src)
	if i+2 < n && src[i+1] == '"' && src[i+2] == '"' {
		j := i + 3
		for j+2 < n && !(src[j] == '"' && src[j+1] == '"' && src[j+2] == '"') {
			j++
		}
		return min(j+3, n)
	}
	for j := i + 1; j < n; j++ {
		switch src[j] {
		case '\\':
			if !verbatim {
				j++
			}
		case '"':
			if verbatim && j+1 < n && src[j+1] == '"' {
				j++
				continue
			}
			return j + 1
		case '\n':
			if !verbatim {
				return j
			}
		}
	}
	return n
}

// lineIndex maps byte offsets to 1-based lines
type lineIndex []int

func newLineIndex(src []byte) lineIndex {
	starts := lineIndex{0}
	for i, c := range src {
		if c == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

func (l lineIndex) line(offset int) int {
	return sort.Search(len(l), func(i int) bool { return l[i] > offset })
}

func (l lineIndex) rangeOf(start, end int) element.TextRange {
	last := end - 1
	if last < start {
		last = start
	}
	return element.TextRange{
		StartOffset: start,
		EndOffset:   end,
		StartLine:   l.line(start),
		EndLine:     l.line(last),
	}
}
