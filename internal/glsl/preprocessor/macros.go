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

// Package preprocessor gives meaning to the AST produced by the parser: it keeps the macro symbol table, evaluates
// conditional expressions, translates a source unit into preprocessed text and summarizes the directives of a file.
package preprocessor

import (
	"errors"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"

	"github.com/EngFlow/gazelle_glsl/internal/glsl/lexer"
	"github.com/EngFlow/gazelle_glsl/internal/glsl/parser"
	"github.com/EngFlow/gazelle_glsl/internal/glsl/terminal"
)

// Macro is a symbol table entry. An #undef clears Defined but keeps the entry, so a later #define overwrites it.
type Macro struct {
	Name       string
	Defined    bool
	IsFunction bool
	Formals    []string
	Body       lexer.TokenList
}

func (m *Macro) clone() *Macro {
	c := *m
	c.Formals = slices.Clone(m.Formals)
	c.Body = m.Body.Clone()
	return &c
}

// MacroTable maps macro names to their definitions. A table is mutated while a unit is translated and must not be
// shared between concurrent translations; use Clone to hand a copy to each of them.
type MacroTable struct {
	macros map[string]*Macro
}

// Values of the predefined macros. __FILE__ and __LINE__ are placeholders, they are not tracked.
var predefined = map[string]string{
	"__FILE__":    "0",
	"__LINE__":    "0",
	"__VERSION__": "150",
}

// NewMacroTable returns a table holding only the predefined macros.
func NewMacroTable() *MacroTable {
	t := &MacroTable{macros: map[string]*Macro{}}
	for _, name := range slices.Sorted(maps.Keys(predefined)) {
		t.Define(&parser.Define{Name: name, Body: lexer.TokenizeDirective(predefined[name])})
	}
	return t
}

// Define adds or replaces the macro declared by d. The table keeps its own copy of the body.
func (t *MacroTable) Define(d *parser.Define) {
	if t.macros == nil {
		t.macros = map[string]*Macro{}
	}
	t.macros[d.Name] = &Macro{
		Name:       d.Name,
		Defined:    true,
		IsFunction: d.IsFunction,
		Formals:    slices.Clone(d.Formals),
		Body:       d.Body.Clone(),
	}
}

// Undef marks name as not defined. Undefining an unknown name records it as undefined.
func (t *MacroTable) Undef(name string) {
	if m, ok := t.macros[name]; ok {
		m.Defined = false
		return
	}
	if t.macros == nil {
		t.macros = map[string]*Macro{}
	}
	t.macros[name] = &Macro{Name: name}
}

// Lookup returns the entry for name, including undefined entries.
func (t *MacroTable) Lookup(name string) (*Macro, bool) {
	m, ok := t.macros[name]
	return m, ok
}

func (t *MacroTable) IsDefined(name string) bool {
	m, ok := t.macros[name]
	return ok && m.Defined
}

// Names returns the names of all defined macros in lexical order.
func (t *MacroTable) Names() []string {
	var names []string
	for name, m := range t.macros {
		if m.Defined {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// Clone returns a deep copy of the table.
func (t *MacroTable) Clone() *MacroTable {
	c := &MacroTable{macros: make(map[string]*Macro, len(t.macros))}
	for name, m := range t.macros {
		c.macros[name] = m.clone()
	}
	return c
}

// Expand performs one substitution pass for ref. It reports false when the macro is unknown or undefined, when a
// function-like macro is referenced without arguments, and when the argument count does not match the formals.
//
// The result is a fresh token list: a copy of the body in which every identifier naming a formal parameter is
// replaced by a copy of the tokens of the corresponding argument. Macro names inside the result are left for the
// caller; Expand never rescans.
func (t *MacroTable) Expand(ref *parser.MacroReference) (lexer.TokenList, bool) {
	m, ok := t.macros[ref.Name.Text]
	if !ok || !m.Defined {
		return nil, false
	}

	if !m.IsFunction {
		expansion := m.Body.Clone()
		if ref.Call {
			// An object-like macro applied to arguments: only the name is replaced.
			expansion = append(expansion, ref.Tokens()[1:]...)
		}
		return nonNil(expansion), true
	}

	if !ref.Call || len(ref.Arguments) != len(m.Formals) {
		return nil, false
	}
	arguments := make(map[string]lexer.TokenList, len(m.Formals))
	for i, formal := range m.Formals {
		arguments[formal] = ref.Arguments[i].Tokens()
	}

	var expansion lexer.TokenList
	for _, tok := range m.Body {
		if arg, isFormal := arguments[tok.Text]; isFormal && tok.Terminal == terminal.Identifier {
			expansion = append(expansion, arg.Clone()...)
			continue
		}
		expansion = append(expansion, tok)
	}
	return nonNil(expansion), true
}

// An empty expansion is still an expansion; keep it distinguishable from the nil of a failed one.
func nonNil(tokens lexer.TokenList) lexer.TokenList {
	if tokens == nil {
		return lexer.TokenList{}
	}
	return tokens
}

var macroNameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\([^)]*\))?$`)

// ParseMacro parses a single -D style definition: NAME, NAME=VALUE or NAME(a,b)=VALUE. A bare NAME is defined as 1.
func ParseMacro(definition string) (*parser.Define, error) {
	definition = strings.TrimPrefix(definition, "-D")
	name, value, hasValue := strings.Cut(definition, "=")
	if !macroNameRegex.MatchString(name) {
		return nil, fmt.Errorf("invalid macro name %q", name)
	}
	if !hasValue {
		value = "1"
	}

	program, err := parser.ParseSource([]byte("#define " + name + " " + value + "\n"))
	if err != nil {
		return nil, fmt.Errorf("invalid macro definition %q: %w", definition, err)
	}
	if len(program.Nodes) != 1 || program.Nodes[0].Kind() != parser.KindDefine {
		return nil, fmt.Errorf("invalid macro definition %q", definition)
	}
	return program.Nodes[0].(*parser.Define), nil
}

// ParseMacros builds a table from the predefined macros and the given -D style definitions. Definitions that fail to
// parse are skipped and reported together.
func ParseMacros(definitions []string) (*MacroTable, error) {
	table := NewMacroTable()
	var parsingErrors []error
	for _, d := range definitions {
		define, err := ParseMacro(d)
		if err != nil {
			parsingErrors = append(parsingErrors, err)
			continue
		}
		table.Define(define)
	}
	return table, errors.Join(parsingErrors...)
}
