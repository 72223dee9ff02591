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

// Package terminal defines the fixed set of terminal symbols of the GLSL
// preprocessor language. The table maps every lexeme to exactly one ID and is
// shared read-only by all lexers, the grammar and the parser.
package terminal

import (
	"fmt"
	"sync"
)

// ID identifies a terminal. Values are dense, starting at zero, so they can
// index slices.
type ID int

const (
	// End of input. Never produced from source text.
	EOF ID = iota

	// Wildcard proxy matching any concrete terminal where the parser state
	// expects arbitrary macro body content. Never produced by the lexer.
	Wildcard

	// Marker switching the parser into constant expression mode. Never
	// produced by the lexer.
	Pirate

	// Token classes.

	Identifier
	IntConstant
	FloatConstant
	String
	Text
	Newline

	// Opening parenthesis written immediately after the macro name of a
	// #define, which makes the macro function-like.
	MacroLParen

	// Keywords.

	Define
	Undef
	If
	Ifdef
	Ifndef
	Elif
	Else
	Endif
	Include
	Line
	Pragma
	Version
	Extension
	Error
	Defined

	// Operators and punctuation.

	Fence
	FFence
	LParen
	RParen
	Comma
	Quote
	Plus
	Dash
	Complement
	Not
	Mul
	Div
	Mod
	LShift
	RShift
	Less
	Greater
	LessEqual
	GreaterEqual
	Equal
	NotEqual
	BitAnd
	BitXor
	BitOr
	LogicalAnd
	LogicalOr

	// Count is the number of terminals.
	Count int = iota
)

type Category int

const (
	// Class terminals stand for a family of lexemes, e.g. all identifiers.
	Class Category = iota
	// Keyword terminals are directive names and the defined operator.
	Keyword
	// Operator terminals are punctuation recognized by the directive
	// tokenizer.
	Operator
	// Marker terminals are synthesized by the parser driver only.
	Marker
)

type entry struct {
	id       ID
	lexeme   string
	category Category
}

var entries = []entry{
	{EOF, "$", Marker},
	{Wildcard, "token", Marker},
	{Pirate, "pirate", Marker},

	{Identifier, "identifier", Class},
	{IntConstant, "int-constant", Class},
	{FloatConstant, "float-constant", Class},
	{String, "string", Class},
	{Text, "text", Class},
	{Newline, "newline", Class},
	{MacroLParen, "macro-lparen", Class},

	{Define, "#define", Keyword},
	{Undef, "#undef", Keyword},
	{If, "#if", Keyword},
	{Ifdef, "#ifdef", Keyword},
	{Ifndef, "#ifndef", Keyword},
	{Elif, "#elif", Keyword},
	{Else, "#else", Keyword},
	{Endif, "#endif", Keyword},
	{Include, "#include", Keyword},
	{Line, "#line", Keyword},
	{Pragma, "#pragma", Keyword},
	{Version, "#version", Keyword},
	{Extension, "#extension", Keyword},
	{Error, "#error", Keyword},
	{Defined, "defined", Keyword},

	{Fence, "#", Operator},
	{FFence, "##", Operator},
	{LParen, "(", Operator},
	{RParen, ")", Operator},
	{Comma, ",", Operator},
	{Quote, `"`, Operator},
	{Plus, "+", Operator},
	{Dash, "-", Operator},
	{Complement, "~", Operator},
	{Not, "!", Operator},
	{Mul, "*", Operator},
	{Div, "/", Operator},
	{Mod, "%", Operator},
	{LShift, "<<", Operator},
	{RShift, ">>", Operator},
	{Less, "<", Operator},
	{Greater, ">", Operator},
	{LessEqual, "<=", Operator},
	{GreaterEqual, ">=", Operator},
	{Equal, "==", Operator},
	{NotEqual, "!=", Operator},
	{BitAnd, "&", Operator},
	{BitXor, "^", Operator},
	{BitOr, "|", Operator},
	{LogicalAnd, "&&", Operator},
	{LogicalOr, "||", Operator},
}

// Table is the immutable terminal table. Use Default to obtain the shared
// instance.
type Table struct {
	lexemes    []string
	categories []Category
	byLexeme   map[string]ID
}

var (
	defaultTable *Table
	defaultOnce  sync.Once
)

// Default returns the shared terminal table. It is built on first use and
// never modified afterwards.
func Default() *Table {
	defaultOnce.Do(func() {
		defaultTable = newTable(entries)
	})
	return defaultTable
}

func newTable(entries []entry) *Table {
	t := &Table{
		lexemes:    make([]string, Count),
		categories: make([]Category, Count),
		byLexeme:   make(map[string]ID, len(entries)),
	}
	for _, e := range entries {
		if _, duplicate := t.byLexeme[e.lexeme]; duplicate {
			panic(fmt.Sprintf("terminal: duplicate lexeme %q", e.lexeme))
		}
		t.lexemes[e.id] = e.lexeme
		t.categories[e.id] = e.category
		t.byLexeme[e.lexeme] = e.id
	}
	return t
}

// Lookup finds the terminal for any lexeme, including class names such as
// "identifier" and markers such as "token".
func (t *Table) Lookup(lexeme string) (ID, bool) {
	id, ok := t.byLexeme[lexeme]
	return id, ok
}

// Keyword finds a keyword terminal. Lexemes of other categories never match,
// so an identifier spelled "token" or "newline" stays an identifier.
func (t *Table) Keyword(lexeme string) (ID, bool) {
	id, ok := t.byLexeme[lexeme]
	if !ok || t.categories[id] != Keyword {
		return 0, false
	}
	return id, true
}

func (t *Table) Lexeme(id ID) string {
	if int(id) < 0 || int(id) >= Count {
		return fmt.Sprintf("terminal(%d)", int(id))
	}
	return t.lexemes[id]
}

func (t *Table) Category(id ID) Category {
	return t.categories[id]
}

func (t *Table) IsKeyword(id ID) bool {
	return t.categories[id] == Keyword
}

// String returns the canonical lexeme of the terminal in the shared table.
func (id ID) String() string {
	return Default().Lexeme(id)
}
