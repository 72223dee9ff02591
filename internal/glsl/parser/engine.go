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

package parser

import (
	"fmt"
	"log"
	"strings"

	"github.com/EngFlow/gazelle_glsl/internal/collections"
	"github.com/EngFlow/gazelle_glsl/internal/glsl/grammar"
	"github.com/EngFlow/gazelle_glsl/internal/glsl/lexer"
	"github.com/EngFlow/gazelle_glsl/internal/glsl/terminal"
)

// switch to trace every parser action, used only during development
const debug = false

// TokenSource yields tokens until it returns a token with the EOF terminal, and keeps returning EOF afterwards.
// *lexer.Lexer is a TokenSource.
type TokenSource interface {
	Scan() lexer.Token
}

// Builder receives the semantic events of a parse. Reduce is called after every reduction with the production and
// the tokens matched by its body: one entry per body symbol, the zero Token for nonterminal positions.
type Builder interface {
	Reduce(p *grammar.Production, rhs []lexer.Token) error
}

// SyntaxError reports a token for which the current parser state has no action.
type SyntaxError struct {
	Location lexer.Cursor
	Found    lexer.Token
	Expected []terminal.ID
}

func (e *SyntaxError) Error() string {
	expected := make([]string, len(e.Expected))
	for i, id := range e.Expected {
		expected[i] = "'" + id.String() + "'"
	}
	return fmt.Sprintf("%v: syntax error: unexpected %v, expected one of %s", e.Location, e.Found, strings.Join(expected, ", "))
}

// Engine is a shift-reduce driver over generated tables. It holds no per-parse state, so a single Engine may run
// any number of parses concurrently.
type Engine struct {
	tables *grammar.Tables
}

func NewEngine(tables *grammar.Tables) *Engine {
	return &Engine{tables: tables}
}

// action looks up the concrete terminal first and falls back to the wildcard entry of the state. The end of input
// never matches the wildcard.
func (e *Engine) action(state int, id terminal.ID) grammar.Action {
	action := e.tables.Action(state, id)
	if action.Kind == grammar.Error && id != terminal.EOF {
		action = e.tables.Action(state, terminal.Wildcard)
	}
	return action
}

// Run parses the tokens of src, reporting reductions to b. It stops at the first syntax error or builder error.
func (e *Engine) Run(src TokenSource, b Builder) error {
	var states collections.Stack[int]
	var values collections.Stack[lexer.Token]
	states.Push(0)

	tok := src.Scan()
	for {
		state := states.Peek()
		action := e.action(state, tok.Terminal)
		if debug {
			log.Printf("state %d, %v: %v", state, tok, action)
		}

		switch action.Kind {
		case grammar.Shift:
			states.Push(action.Target)
			values.Push(tok)
			tok = src.Scan()

		case grammar.Reduce:
			p := e.tables.Grammar.Productions[action.Target]
			states.PopN(len(p.Body))
			rhs := values.PopN(len(p.Body))
			next, ok := e.tables.Goto(states.Peek(), p.Head)
			if !ok {
				// Unreachable for tables produced by grammar.Generate.
				return fmt.Errorf("no goto from state %d on %s", states.Peek(), e.tables.Grammar.HeadName(p))
			}
			states.Push(next)
			values.Push(lexer.Token{})
			if err := b.Reduce(p, rhs); err != nil {
				return err
			}

		case grammar.Accept:
			return nil

		default:
			return &SyntaxError{Location: tok.Location, Found: tok, Expected: e.tables.Expected(state)}
		}
	}
}

// tokenSlice replays a fixed token list followed by EOF.
type tokenSlice struct {
	tokens lexer.TokenList
	pos    int
}

func (s *tokenSlice) Scan() lexer.Token {
	if s.pos >= len(s.tokens) {
		return lexer.TokenEOF
	}
	tok := s.tokens[s.pos]
	s.pos++
	return tok
}
