package parse

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"tlog.app/go/errors"
	"tlog.app/go/loc"
	"tlog.app/go/tlog"
)

type (
	State struct {
		b []byte // all files concatenated

		Grammar Parser

		files []file

		// farthest failure
		far  int
		want []string

		comments map[int]int // start -> end
	}

	// Comment is a // comment span up to the end of line.
	Comment struct {
		Pos int
		End int
	}

	file struct {
		base int
		size int
		name string
	}

	Node = any

	Parser interface {
		Parse(ctx context.Context, b []byte, st int) (x Node, i int, err error)
	}

	RuleID int

	// Pair is a typed syntax node: a matched rule and the pairs of its subrules.
	Pair struct {
		Rule  RuleID
		Pos   int
		End   int
		Inner []Pair
	}

	SyntaxError struct {
		File string
		Line int
		Col  int
		Pos  int

		Want []string
		Err  error
	}

	// FatalError stops backtracking: input matched the grammar shape but is invalid anyway.
	FatalError struct {
		Pos int
		Err error
	}

	stateCtxKey struct{}
)

const (
	RuleNone RuleID = iota
	RuleModule
	RuleExports
	RuleDeclaration
	RuleIdent
	RuleInt
	RuleEOI
)

var ruleNames = [...]string{
	RuleNone:        "none",
	RuleModule:      "module",
	RuleExports:     "exports",
	RuleDeclaration: "declaration",
	RuleIdent:       "ident",
	RuleInt:         "int",
	RuleEOI:         "EOI",
}

func ParseFile(ctx context.Context, name string) (*State, []Pair, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, nil, errors.Wrap(err, "read file")
	}

	s := New()

	s.AddFile(name, data)

	p, err := s.Parse(ctx)

	return s, p, err
}

func Parse(ctx context.Context, text []byte) (*State, []Pair, error) {
	s := New()

	s.AddFile("", text)

	p, err := s.Parse(ctx)

	return s, p, err
}

func New() *State {
	return &State{
		Grammar: File(),
	}
}

// Parse matches the whole input against the grammar and returns the top-level pairs.
func (s *State) Parse(ctx context.Context) (_ []Pair, err error) {
	ctx = context.WithValue(ctx, stateCtxKey{}, s)

	s.far, s.want = -1, nil
	s.comments = nil

	x, i, err := s.Grammar.Parse(ctx, s.b, 0)

	var fatal FatalError
	if errors.As(err, &fatal) {
		return nil, s.syntaxError(fatal.Pos, nil, fatal.Err)
	}

	if err == nil && i != len(s.b) {
		err = errors.New("partial read")
	}

	if err != nil {
		pos := s.far
		if pos < 0 {
			pos = i
		}

		return nil, s.syntaxError(pos, s.want, err)
	}

	p := Collect(nil, x)

	tlog.SpanFromContext(ctx).Printw("parsed", "pairs", len(p), "size", len(s.b))

	return p, nil
}

func (s *State) AddFile(name string, text []byte) {
	f := file{
		name: name,
		base: len(s.b),
		size: len(text),
	}

	s.b = append(s.b, text...)

	s.files = append(s.files, f)
}

// Comments returns comments skipped while parsing in source order.
func (s *State) Comments() []Comment {
	l := make([]Comment, 0, len(s.comments))

	for pos, end := range s.comments {
		l = append(l, Comment{Pos: pos, End: end})
	}

	slices.SortFunc(l, func(x, y Comment) int {
		return x.Pos - y.Pos
	})

	return l
}

func (s *State) addComment(pos, end int) {
	if s.comments == nil {
		s.comments = map[int]int{}
	}

	s.comments[pos] = end
}

func (s *State) Text(pos, end int) []byte {
	return s.b[pos:end]
}

// Position converts offset to file name and 1-based line and column.
// Columns count runes.
func (s *State) Position(pos int) (name string, line, col int) {
	base := 0

	for _, f := range s.files {
		if pos >= f.base && pos <= f.base+f.size {
			name, base = f.name, f.base
			break
		}
	}

	line, col = 1, 1

	for _, c := range s.b[base:min(pos, len(s.b))] {
		switch {
		case c == '\n':
			line++
			col = 1
		case c&0xc0 != 0x80: // skip utf8 continuation bytes
			col++
		}
	}

	return
}

// Fail records a failed expectation at pos. The farthest failures form the syntax error.
func Fail(ctx context.Context, pos int, want string) {
	if tr := tlog.SpanFromContext(ctx); tr.If("parse_fail") {
		tr.Printw("fail", "pos", pos, "want", want, "from", loc.Callers(1, 3))
	}

	s := StateFromContext(ctx)
	if s == nil {
		return
	}

	switch {
	case pos > s.far:
		s.far = pos
		s.want = append(s.want[:0], want)
	case pos == s.far:
		for _, w := range s.want {
			if w == want {
				return
			}
		}

		s.want = append(s.want, want)
	}
}

func StateFromContext(ctx context.Context) *State {
	s, _ := ctx.Value(stateCtxKey{}).(*State)
	return s
}

func (s *State) syntaxError(pos int, want []string, err error) *SyntaxError {
	name, line, col := s.Position(pos)

	return &SyntaxError{
		File: name,
		Line: line,
		Col:  col,
		Pos:  pos,
		Want: append([]string{}, want...),
		Err:  err,
	}
}

// Collect appends all the pairs found in x to p.
func Collect(p []Pair, x Node) []Pair {
	switch x := x.(type) {
	case Pair:
		p = append(p, x)
	case []Pair:
		p = append(p, x...)
	case []Node:
		for _, y := range x {
			p = Collect(p, y)
		}
	}

	return p
}

// Find returns the first inner pair of the rule.
func (p Pair) Find(r RuleID) (Pair, bool) {
	for _, x := range p.Inner {
		if x.Rule == r {
			return x, true
		}
	}

	return Pair{}, false
}

func (r RuleID) String() string {
	if r >= 0 && int(r) < len(ruleNames) {
		return ruleNames[r]
	}

	return fmt.Sprintf("rule%d", int(r))
}

func (e *SyntaxError) Error() string {
	var b strings.Builder

	if e.File != "" {
		b.WriteString(e.File)
		b.WriteByte(':')
	}

	fmt.Fprintf(&b, "%d:%d: ", e.Line, e.Col)

	if len(e.Want) != 0 {
		b.WriteString("expected ")
		b.WriteString(joinHuman(e.Want))
	} else {
		fmt.Fprintf(&b, "%v", e.Err)
	}

	return b.String()
}

func (e *SyntaxError) Unwrap() error { return e.Err }

func (e FatalError) Error() string {
	return fmt.Sprintf("at pos %d: %v", e.Pos, e.Err)
}

func (e FatalError) Unwrap() error { return e.Err }

func joinHuman(l []string) string {
	switch len(l) {
	case 0:
		return "<none>"
	case 1:
		return l[0]
	}

	var b strings.Builder

	for i, w := range l {
		if i+1 == len(l) {
			b.WriteString(" or ")
		} else if i != 0 {
			b.WriteString(", ")
		}

		b.WriteString(w)
	}

	return b.String()
}
