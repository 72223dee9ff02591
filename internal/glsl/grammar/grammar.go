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

// Package grammar holds the declarative grammar of the preprocessor directive language and generates LALR(1)
// action/goto tables from it. The tables are data, produced once per process; nothing here is hand-maintained
// branching logic.
package grammar

import (
	"errors"
	"fmt"
	"strings"

	"github.com/EngFlow/gazelle_glsl/internal/glsl/terminal"
)

// Nonterminal indexes Grammar.Nonterminals.
type Nonterminal int

// Symbol is either a terminal or a nonterminal. Terminals occupy the values below terminal.Count, nonterminals follow.
type Symbol int

func TerminalSymbol(id terminal.ID) Symbol  { return Symbol(id) }
func NonterminalSymbol(n Nonterminal) Symbol { return Symbol(terminal.Count + int(n)) }

func (s Symbol) IsTerminal() bool         { return int(s) < terminal.Count }
func (s Symbol) Terminal() terminal.ID    { return terminal.ID(s) }
func (s Symbol) Nonterminal() Nonterminal { return Nonterminal(int(s) - terminal.Count) }

type Production struct {
	// Index in Grammar.Productions. Production 0 is the augmented start production.
	ID   int
	Head Nonterminal
	Body []Symbol
	text string
}

func (p *Production) String() string {
	return p.text
}

// Grammar is an immutable, validated set of productions.
type Grammar struct {
	Nonterminals []string
	Productions  []*Production

	terminals *terminal.Table
	byName    map[string]Nonterminal
	byHead    [][]*Production
}

// Name of the augmented start symbol.
const startSymbol = "$start"

var (
	ErrEmptyGrammar    = errors.New("grammar has no productions")
	ErrMalformedRule   = errors.New("malformed production")
	ErrUnknownSymbol   = errors.New("unknown symbol")
	ErrTerminalAsHead  = errors.New("terminal used as production head")
	ErrDuplicateRule   = errors.New("duplicate production")
	ErrUnreachableRule = errors.New("nonterminal is unreachable from the start symbol")
)

// Parse compiles rules written as "head ::= body symbols" into a Grammar. Body symbols are separated by whitespace
// and an empty body denotes an epsilon production. Symbols that are lexemes of the terminal table are terminals,
// every other symbol must be the head of some rule. The head of the first rule is the start symbol.
func Parse(rules []string, terminals *terminal.Table) (*Grammar, error) {
	if len(rules) == 0 {
		return nil, ErrEmptyGrammar
	}

	type rawRule struct {
		head string
		body []string
	}
	raw := make([]rawRule, 0, len(rules))
	g := &Grammar{
		terminals: terminals,
		byName:    map[string]Nonterminal{},
	}
	addNonterminal := func(name string) {
		if _, exists := g.byName[name]; !exists {
			g.byName[name] = Nonterminal(len(g.Nonterminals))
			g.Nonterminals = append(g.Nonterminals, name)
		}
	}

	addNonterminal(startSymbol)
	var errs []error
	for _, rule := range rules {
		head, body, found := strings.Cut(rule, "::=")
		head = strings.TrimSpace(head)
		if !found || head == "" || strings.ContainsAny(head, " \t") {
			errs = append(errs, fmt.Errorf("%w: %q", ErrMalformedRule, rule))
			continue
		}
		if _, isTerminal := terminals.Lookup(head); isTerminal {
			errs = append(errs, fmt.Errorf("%w: %q", ErrTerminalAsHead, head))
			continue
		}
		addNonterminal(head)
		raw = append(raw, rawRule{head: head, body: strings.Fields(body)})
	}
	if len(raw) == 0 {
		return nil, errors.Join(append(errs, ErrEmptyGrammar)...)
	}

	raw = append([]rawRule{{head: startSymbol, body: []string{raw[0].head}}}, raw...)
	seen := map[string]bool{}
	for _, r := range raw {
		p := &Production{
			ID:   len(g.Productions),
			Head: g.byName[r.head],
			text: strings.TrimSpace(r.head + " ::= " + strings.Join(r.body, " ")),
		}
		if seen[p.text] {
			errs = append(errs, fmt.Errorf("%w: %s", ErrDuplicateRule, p.text))
			continue
		}
		seen[p.text] = true
		for _, name := range r.body {
			if id, ok := terminals.Lookup(name); ok {
				p.Body = append(p.Body, TerminalSymbol(id))
			} else if n, ok := g.byName[name]; ok {
				p.Body = append(p.Body, NonterminalSymbol(n))
			} else {
				errs = append(errs, fmt.Errorf("%w %q in %s", ErrUnknownSymbol, name, p.text))
			}
		}
		g.Productions = append(g.Productions, p)
	}

	g.byHead = make([][]*Production, len(g.Nonterminals))
	for _, p := range g.Productions {
		g.byHead[p.Head] = append(g.byHead[p.Head], p)
	}
	errs = append(errs, g.checkReachable()...)
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Grammar) checkReachable() []error {
	reached := make([]bool, len(g.Nonterminals))
	var visit func(Nonterminal)
	visit = func(n Nonterminal) {
		if reached[n] {
			return
		}
		reached[n] = true
		for _, p := range g.byHead[n] {
			for _, s := range p.Body {
				if !s.IsTerminal() {
					visit(s.Nonterminal())
				}
			}
		}
	}
	visit(g.byName[startSymbol])

	var errs []error
	for n, ok := range reached {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %s", ErrUnreachableRule, g.Nonterminals[n]))
		}
	}
	return errs
}

// Lookup returns the nonterminal with the given name.
func (g *Grammar) Lookup(name string) (Nonterminal, bool) {
	n, ok := g.byName[name]
	return n, ok
}

// ProductionsOf returns the productions whose head is n, in declaration order.
func (g *Grammar) ProductionsOf(n Nonterminal) []*Production {
	return g.byHead[n]
}

func (g *Grammar) SymbolName(s Symbol) string {
	if s.IsTerminal() {
		return g.terminals.Lexeme(s.Terminal())
	}
	return g.Nonterminals[s.Nonterminal()]
}

// HeadName returns the name of the production's head.
func (g *Grammar) HeadName(p *Production) string {
	return g.Nonterminals[p.Head]
}
