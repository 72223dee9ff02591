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

package grammar

import (
	"fmt"
	"slices"
	"sync"

	"github.com/EngFlow/gazelle_glsl/internal/glsl/terminal"
)

type ActionKind uint8

const (
	// Zero value, so that missing table cells read as errors.
	Error ActionKind = iota
	Shift
	Reduce
	Accept
)

// Action is a cell of the action table. Target is the next state for Shift and the production ID for Reduce.
type Action struct {
	Kind   ActionKind
	Target int
}

func (a Action) String() string {
	switch a.Kind {
	case Shift:
		return fmt.Sprintf("shift %d", a.Target)
	case Reduce:
		return fmt.Sprintf("reduce %d", a.Target)
	case Accept:
		return "accept"
	default:
		return "error"
	}
}

// Tables are the generated action and goto tables. They are immutable once generated and safe for concurrent use.
type Tables struct {
	Grammar *Grammar

	// Indexed by [state][terminal].
	actions [][]Action
	// Indexed by [state][nonterminal], -1 when there is no transition.
	gotos [][]int
}

func newTables(g *Grammar, states int) *Tables {
	t := &Tables{
		Grammar: g,
		actions: make([][]Action, states),
		gotos:   make([][]int, states),
	}
	for i := range states {
		t.actions[i] = make([]Action, terminal.Count)
		t.gotos[i] = slices.Repeat([]int{-1}, len(g.Nonterminals))
	}
	return t
}

// States returns the number of parser states. State 0 is the initial state.
func (t *Tables) States() int {
	return len(t.actions)
}

// Action returns the table cell for the concrete terminal. The wildcard fallback is left to the parser engine.
func (t *Tables) Action(state int, id terminal.ID) Action {
	return t.actions[state][id]
}

// Goto returns the state entered after reducing to n in the given state.
func (t *Tables) Goto(state int, n Nonterminal) (int, bool) {
	target := t.gotos[state][n]
	return target, target >= 0
}

// Expected lists the terminals with a non-error action in the given state, for diagnostics.
func (t *Tables) Expected(state int) []terminal.ID {
	var expected []terminal.ID
	for id, action := range t.actions[state] {
		if action.Kind != Error {
			expected = append(expected, terminal.ID(id))
		}
	}
	return expected
}

var (
	defaultTables *Tables
	defaultOnce   sync.Once
)

// Default returns the tables of the preprocessor grammar. They are generated on first use; the grammar is fixed, so
// a failure here is a programming error and panics like regexp.MustCompile.
func Default() *Tables {
	defaultOnce.Do(func() {
		g, err := Parse(Rules, terminal.Default())
		if err != nil {
			panic(fmt.Sprintf("grammar: invalid rules: %v", err))
		}
		tables, err := Generate(g)
		if err != nil {
			panic(fmt.Sprintf("grammar: %v", err))
		}
		defaultTables = tables
	})
	return defaultTables
}
