// Copyright 2025 EngFlow Inc. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package preprocessor

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/EngFlow/gazelle_glsl/internal/glsl/lexer"
	"github.com/EngFlow/gazelle_glsl/internal/glsl/parser"
	"github.com/EngFlow/gazelle_glsl/internal/glsl/terminal"
)

var (
	ErrIncludeNotFound = errors.New("include file not found")
	ErrIncludeCycle    = errors.New("include cycle")
)

// ErrorDirective is returned when translation reaches an #error directive in a selected branch.
type ErrorDirective struct {
	File     string
	Location lexer.Cursor
	Message  string
}

func (e *ErrorDirective) Error() string {
	return fmt.Sprintf("%s:%v: #error %s", e.File, e.Location, e.Message)
}

// IncludeError reports an #include that could not be translated.
type IncludeError struct {
	// File containing the directive.
	File     string
	Location lexer.Cursor
	Path     string
	Err      error
}

func (e *IncludeError) Error() string {
	return fmt.Sprintf("%s:%v: #include %q: %v", e.File, e.Location, e.Path, e.Err)
}

func (e *IncludeError) Unwrap() error { return e.Err }

// ParseError reports a translation unit, the input or an included file, that is not valid.
type ParseError struct {
	File string
	Err  error
}

func (e *ParseError) Error() string { return e.File + ": " + e.Err.Error() }

func (e *ParseError) Unwrap() error { return e.Err }

// Translator produces preprocessed GLSL text. Directives are replaced by newlines, except #version, #extension and
// #pragma which the shader compiler still needs; only the selected branch of each conditional is emitted; macros in
// text are expanded until no further expansion applies. Outside included content, every source line maps to the same
// output line.
//
// A Translator keeps state across calls (the macro table and the parse cache) and is not safe for concurrent use.
type Translator struct {
	Macros *MacroTable
	// Directories searched for quoted includes after the directory of the including file.
	IncludePath []string
	// Source translated before every unit, e.g. a shared header with common definitions.
	Header string
	// Opens include files. Defaults to os.Open.
	Open func(name string) (io.ReadCloser, error)

	// Parsed programs keyed by the content hash of their source.
	cache map[uint64]*parser.Program
	// Files being translated, innermost last.
	active []string
}

func NewTranslator(macros *MacroTable) *Translator {
	return &Translator{Macros: macros}
}

// Translate preprocesses src, whose name is used to resolve relative includes and in error messages.
func (t *Translator) Translate(name string, src io.Reader) (string, error) {
	if t.Macros == nil {
		t.Macros = NewMacroTable()
	}
	content, err := io.ReadAll(src)
	if err != nil {
		return "", err
	}

	var out strings.Builder
	if t.Header != "" {
		if err := t.translateUnit(&out, "<header>", []byte(t.Header)); err != nil {
			return "", err
		}
	}
	if err := t.translateUnit(&out, name, content); err != nil {
		return "", err
	}
	return out.String(), nil
}

func (t *Translator) parse(name string, content []byte) (*parser.Program, error) {
	if t.cache == nil {
		t.cache = map[uint64]*parser.Program{}
	}
	key := xxhash.Sum64(content)
	if program, ok := t.cache[key]; ok {
		return program, nil
	}
	program, err := parser.ParseSource(content)
	if err != nil {
		return nil, &ParseError{File: name, Err: err}
	}
	t.cache[key] = program
	return program, nil
}

func (t *Translator) translateUnit(out *strings.Builder, name string, content []byte) error {
	program, err := t.parse(name, content)
	if err != nil {
		return err
	}
	t.active = append(t.active, name)
	defer func() { t.active = t.active[:len(t.active)-1] }()
	return t.translateNodes(&unitWriter{out: out, line: 1}, name, program.Nodes)
}

// unitWriter writes the output of one translation unit and keeps it on the source line of the node being
// translated, so line numbers reported by the shader compiler match the unit.
type unitWriter struct {
	out *strings.Builder
	// Source line the output is positioned at.
	line int
}

// Pads the output with newlines up to line. Lines of skipped branches and of directives spanning several lines are
// filled this way.
func (w *unitWriter) seek(line int) {
	for w.line < line {
		w.out.WriteByte('\n')
		w.line++
	}
}

func (w *unitWriter) writeText(text string) {
	w.out.WriteString(text)
	w.line += strings.Count(text, "\n")
}

// Writes the replacement of a directive line.
func (w *unitWriter) writeLine(text string) {
	w.out.WriteString(text)
	w.out.WriteByte('\n')
	w.line++
}

func nodeLine(node parser.Node) int {
	switch n := node.(type) {
	case *parser.Text:
		return n.Token.Location.Line
	case *parser.Define:
		return n.Location.Line
	case *parser.Undef:
		return n.Location.Line
	case *parser.Error:
		return n.Location.Line
	case *parser.Extension:
		return n.Location.Line
	case *parser.Include:
		return n.Location.Line
	case *parser.Line:
		return n.Location.Line
	case *parser.Pragma:
		return n.Location.Line
	case *parser.Version:
		return n.Location.Line
	case *parser.Null:
		return n.Location.Line
	case *parser.Conditional:
		return n.Location.Line
	}
	return 0
}

func (t *Translator) translateNodes(w *unitWriter, file string, nodes []parser.Node) error {
	for _, node := range nodes {
		w.seek(nodeLine(node))
		if err := t.translateNode(w, file, node); err != nil {
			return err
		}
	}
	return nil
}

func (t *Translator) translateNode(w *unitWriter, file string, node parser.Node) error {
	switch n := node.(type) {
	case *parser.Text:
		w.writeText(t.ExpandText(n.Token.Text))

	case *parser.Define:
		t.Macros.Define(n)
		w.writeLine("")

	case *parser.Undef:
		t.Macros.Undef(n.Name)
		w.writeLine("")

	case *parser.Error:
		return &ErrorDirective{File: file, Location: n.Location, Message: n.Message.String()}

	case *parser.Version, *parser.Extension, *parser.Pragma:
		w.writeLine(n.String())

	case *parser.Include:
		if err := t.include(w.out, file, n); err != nil {
			return err
		}
		w.writeLine("")

	case *parser.Conditional:
		if n.Directive == parser.If && len(n.True) == 0 {
			warnf("%s:%v: empty #if body", file, n.Location)
		}
		w.writeLine("")
		return t.translateNodes(w, file, NewEvaluator(t.Macros).SelectBranch(n))

	default:
		// #line and the null directive.
		w.writeLine("")
	}
	return nil
}

func (t *Translator) include(out *strings.Builder, file string, n *parser.Include) error {
	resolved, content, err := t.readInclude(file, n.Path)
	if err != nil {
		return &IncludeError{File: file, Location: n.Location, Path: n.Path, Err: err}
	}
	if slices.Contains(t.active, resolved) {
		return &IncludeError{File: file, Location: n.Location, Path: n.Path, Err: ErrIncludeCycle}
	}
	return t.translateUnit(out, resolved, content)
}

// Candidate locations of an include, most specific first.
func (t *Translator) includeCandidates(file, path string) []string {
	if filepath.IsAbs(path) {
		return []string{path}
	}
	candidates := []string{filepath.Join(filepath.Dir(file), path)}
	for _, dir := range t.IncludePath {
		candidates = append(candidates, filepath.Join(dir, path))
	}
	return candidates
}

func (t *Translator) readInclude(file, path string) (string, []byte, error) {
	open := t.Open
	if open == nil {
		open = func(name string) (io.ReadCloser, error) { return os.Open(name) }
	}
	for _, candidate := range t.includeCandidates(file, path) {
		f, err := open(candidate)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", nil, err
		}
		content, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return "", nil, err
		}
		return candidate, content, nil
	}
	return "", nil, ErrIncludeNotFound
}

// ExpandText replaces macro invocations in a run of shader text. The result of each replacement is rescanned for
// further macros; a macro is never expanded inside its own expansion. Function-like macros are only expanded when
// followed by a parenthesized argument list with the right number of arguments.
func (t *Translator) ExpandText(text string) string {
	return t.expandText(text, nil)
}

func (t *Translator) expandText(text string, hidden []string) string {
	var sb strings.Builder
	pendingNewlines := 0
	for pos := 0; pos < len(text); {
		c := text[pos]
		switch {
		case isIdentifierStart(c):
			end := pos + 1
			for end < len(text) && isIdentifierChar(text[end]) {
				end++
			}
			name := text[pos:end]
			replacement, consumed, ok := t.expandName(name, text[end:], hidden)
			if ok {
				sb.WriteString(replacement)
				// Newlines of a call spanning lines are restored at the end of the line.
				pendingNewlines += max(strings.Count(text[end:end+consumed], "\n")-strings.Count(replacement, "\n"), 0)
				pos = end + consumed
			} else {
				sb.WriteString(name)
				pos = end
			}

		case c >= '0' && c <= '9':
			// Numeric literal including suffixes, e.g. 1e5 or 2u.
			end := pos + 1
			for end < len(text) && (isIdentifierChar(text[end]) || text[end] == '.') {
				end++
			}
			sb.WriteString(text[pos:end])
			pos = end

		case c == '\n':
			sb.WriteByte(c)
			sb.WriteString(strings.Repeat("\n", pendingNewlines))
			pendingNewlines = 0
			pos++

		default:
			sb.WriteByte(c)
			pos++
		}
	}
	sb.WriteString(strings.Repeat("\n", pendingNewlines))
	return sb.String()
}

// Expands the macro name whose invocation continues with rest. Returns the fully rescanned replacement and the number
// of bytes of rest that belong to the invocation.
func (t *Translator) expandName(name, rest string, hidden []string) (string, int, bool) {
	m, ok := t.Macros.Lookup(name)
	if !ok || !m.Defined || slices.Contains(hidden, name) {
		return "", 0, false
	}
	outer := hidden
	hidden = append(slices.Clip(hidden), name)

	if !m.IsFunction {
		return t.expandText(m.Body.String(), hidden), 0, true
	}

	arguments, consumed, ok := readArguments(rest)
	if !ok {
		return "", 0, false
	}
	if len(arguments) != len(m.Formals) {
		warnf("macro %s takes %d arguments, %d given", name, len(m.Formals), len(arguments))
		return "", 0, false
	}
	// Arguments are fully expanded before substitution, so a macro may appear in its own argument list.
	for i, argument := range arguments {
		arguments[i] = t.expandText(argument, outer)
	}

	body := make(lexer.TokenList, 0, len(m.Body))
	for _, tok := range m.Body {
		if i := slices.Index(m.Formals, tok.Text); i >= 0 && tok.Terminal == terminal.Identifier {
			tok = lexer.Token{Terminal: terminal.Text, Location: tok.Location, Text: arguments[i]}
		}
		body = append(body, tok)
	}
	return t.expandText(body.String(), hidden), consumed, true
}

// Reads a parenthesized, comma separated argument list at the start of s, skipping leading blanks. Nested parentheses
// are kept inside their argument. "()" is an empty argument list.
func readArguments(s string) ([]string, int, bool) {
	pos := 0
	for pos < len(s) && strings.IndexByte(" \t\r\n", s[pos]) >= 0 {
		pos++
	}
	if pos >= len(s) || s[pos] != '(' {
		return nil, 0, false
	}

	var arguments []string
	depth := 0
	start := pos + 1
	for i := pos + 1; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
				continue
			}
			last := strings.TrimSpace(s[start:i])
			if last != "" || len(arguments) > 0 {
				arguments = append(arguments, last)
			}
			return arguments, i + 1, true
		case ',':
			if depth == 0 {
				arguments = append(arguments, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	return nil, 0, false
}

func isIdentifierStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentifierChar(c byte) bool {
	return isIdentifierStart(c) || (c >= '0' && c <= '9')
}
