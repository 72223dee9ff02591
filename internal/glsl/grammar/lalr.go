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
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/EngFlow/gazelle_glsl/internal/collections"
	"github.com/EngFlow/gazelle_glsl/internal/glsl/terminal"
)

// LR(0) item: a production with a dot position in its body.
type item struct {
	prod, dot int
}

type lookaheads = collections.Set[terminal.ID]

// Placeholder lookahead used while discovering which lookaheads propagate between kernel items.
const propagated = terminal.ID(terminal.Count)

type lrState struct {
	kernel      []item
	transitions map[Symbol]int
	// Lookahead set of each kernel item, same order as kernel.
	lookaheads []lookaheads
}

type generator struct {
	g        *Grammar
	nullable []bool
	first    []lookaheads

	states   []*lrState
	byKernel map[string]int
}

// Conflict describes two actions competing for the same table cell.
type Conflict struct {
	State    int
	Terminal terminal.ID
	Kept     Action
	Rejected Action
}

func (c Conflict) Error() string {
	return fmt.Sprintf("conflict in state %d on '%s': %v vs %v", c.State, c.Terminal, c.Kept, c.Rejected)
}

// Generate builds LALR(1) tables for g. The LR(0) automaton is built first, then lookaheads are computed by
// spontaneous generation and propagation between kernel items. Every conflict is reported; the returned tables keep
// the shift of a shift/reduce conflict and the earlier production of a reduce/reduce conflict.
func Generate(g *Grammar) (*Tables, error) {
	gen := &generator{g: g, byKernel: map[string]int{}}
	gen.computeFirstSets()
	gen.buildAutomaton()
	gen.computeLookaheads()
	return gen.buildTables()
}

func (gen *generator) computeFirstSets() {
	n := len(gen.g.Nonterminals)
	gen.nullable = make([]bool, n)
	gen.first = make([]lookaheads, n)
	for i := range gen.first {
		gen.first[i] = lookaheads{}
	}

	for changed := true; changed; {
		changed = false
		for _, p := range gen.g.Productions {
			head := p.Head
			allNullable := true
			for _, s := range p.Body {
				if s.IsTerminal() {
					changed = gen.first[head].Insert(s.Terminal()) || changed
					allNullable = false
					break
				}
				changed = gen.first[head].Join(gen.first[s.Nonterminal()]) || changed
				if !gen.nullable[s.Nonterminal()] {
					allNullable = false
					break
				}
			}
			if allNullable && !gen.nullable[head] {
				gen.nullable[head] = true
				changed = true
			}
		}
	}
}

// FIRST of the symbol sequence followed by the given lookaheads.
func (gen *generator) firstOf(seq []Symbol, follow lookaheads) lookaheads {
	result := lookaheads{}
	for _, s := range seq {
		if s.IsTerminal() {
			result.Add(s.Terminal())
			return result
		}
		result.Join(gen.first[s.Nonterminal()])
		if !gen.nullable[s.Nonterminal()] {
			return result
		}
	}
	result.Join(follow)
	return result
}

func (gen *generator) nextSymbol(it item) (Symbol, bool) {
	body := gen.g.Productions[it.prod].Body
	if it.dot >= len(body) {
		return 0, false
	}
	return body[it.dot], true
}

// LR(0) closure, items in discovery order.
func (gen *generator) closure0(kernel []item) []item {
	items := slices.Clone(kernel)
	added := make([]bool, len(gen.g.Nonterminals))
	for i := 0; i < len(items); i++ {
		s, ok := gen.nextSymbol(items[i])
		if !ok || s.IsTerminal() || added[s.Nonterminal()] {
			continue
		}
		added[s.Nonterminal()] = true
		for _, p := range gen.g.ProductionsOf(s.Nonterminal()) {
			items = append(items, item{prod: p.ID, dot: 0})
		}
	}
	return items
}

// LR(1) closure of kernel items with their lookahead sets. Returns items in discovery order with merged lookaheads.
func (gen *generator) closure1(kernel []item, kernelLookaheads []lookaheads) ([]item, map[item]lookaheads) {
	order := slices.Clone(kernel)
	sets := make(map[item]lookaheads, len(kernel))
	for i, it := range kernel {
		sets[it] = kernelLookaheads[i].Clone()
	}

	worklist := collections.QueueOf(kernel...)
	for !worklist.Empty() {
		it := worklist.Pop()
		s, ok := gen.nextSymbol(it)
		if !ok || s.IsTerminal() {
			continue
		}
		rest := gen.g.Productions[it.prod].Body[it.dot+1:]
		follow := gen.firstOf(rest, sets[it])
		for _, p := range gen.g.ProductionsOf(s.Nonterminal()) {
			next := item{prod: p.ID, dot: 0}
			existing, seen := sets[next]
			if !seen {
				sets[next] = follow.Clone()
				order = append(order, next)
				worklist.Push(next)
			} else if existing.Join(follow) {
				worklist.Push(next)
			}
		}
	}
	return order, sets
}

func kernelKey(kernel []item) string {
	var sb strings.Builder
	for _, it := range kernel {
		sb.WriteString(strconv.Itoa(it.prod))
		sb.WriteByte('.')
		sb.WriteString(strconv.Itoa(it.dot))
		sb.WriteByte(' ')
	}
	return sb.String()
}

func (gen *generator) addState(kernel []item) int {
	slices.SortFunc(kernel, func(a, b item) int {
		if a.prod != b.prod {
			return a.prod - b.prod
		}
		return a.dot - b.dot
	})
	key := kernelKey(kernel)
	if id, exists := gen.byKernel[key]; exists {
		return id
	}
	id := len(gen.states)
	state := &lrState{kernel: kernel, transitions: map[Symbol]int{}, lookaheads: make([]lookaheads, len(kernel))}
	for i := range state.lookaheads {
		state.lookaheads[i] = lookaheads{}
	}
	gen.states = append(gen.states, state)
	gen.byKernel[key] = id
	return id
}

func (gen *generator) buildAutomaton() {
	gen.addState([]item{{prod: 0, dot: 0}})
	for id := 0; id < len(gen.states); id++ {
		state := gen.states[id]
		var symbols []Symbol
		advanced := map[Symbol][]item{}
		for _, it := range gen.closure0(state.kernel) {
			s, ok := gen.nextSymbol(it)
			if !ok {
				continue
			}
			if _, seen := advanced[s]; !seen {
				symbols = append(symbols, s)
			}
			advanced[s] = append(advanced[s], item{prod: it.prod, dot: it.dot + 1})
		}
		for _, s := range symbols {
			state.transitions[s] = gen.addState(advanced[s])
		}
	}
}

type kernelRef struct {
	state, index int
}

func (gen *generator) computeLookaheads() {
	gen.states[0].lookaheads[0].Add(terminal.EOF)

	links := map[kernelRef][]kernelRef{}
	for id, state := range gen.states {
		for k, kernelItem := range state.kernel {
			from := kernelRef{state: id, index: k}
			items, sets := gen.closure1([]item{kernelItem}, []lookaheads{collections.SetOf(propagated)})
			for _, it := range items {
				s, ok := gen.nextSymbol(it)
				if !ok {
					continue
				}
				to := gen.kernelRefOf(state.transitions[s], item{prod: it.prod, dot: it.dot + 1})
				for la := range sets[it] {
					if la == propagated {
						links[from] = append(links[from], to)
					} else {
						gen.states[to.state].lookaheads[to.index].Add(la)
					}
				}
			}
		}
	}

	for changed := true; changed; {
		changed = false
		for id, state := range gen.states {
			for k := range state.kernel {
				from := kernelRef{state: id, index: k}
				for _, to := range links[from] {
					if gen.states[to.state].lookaheads[to.index].Join(state.lookaheads[k]) {
						changed = true
					}
				}
			}
		}
	}
}

func (gen *generator) kernelRefOf(stateID int, it item) kernelRef {
	index := slices.Index(gen.states[stateID].kernel, it)
	if index < 0 {
		panic(fmt.Sprintf("grammar: item %v missing from kernel of state %d", it, stateID))
	}
	return kernelRef{state: stateID, index: index}
}

func (gen *generator) buildTables() (*Tables, error) {
	tables := newTables(gen.g, len(gen.states))
	var conflicts []error
	set := func(state int, t terminal.ID, action Action) {
		existing := tables.actions[state][t]
		switch {
		case existing.Kind == Error || existing == action:
			tables.actions[state][t] = action
		case existing.Kind == Reduce && action.Kind == Shift:
			tables.actions[state][t] = action
			conflicts = append(conflicts, Conflict{State: state, Terminal: t, Kept: action, Rejected: existing})
		case existing.Kind == Reduce && action.Kind == Reduce && action.Target < existing.Target:
			tables.actions[state][t] = action
			conflicts = append(conflicts, Conflict{State: state, Terminal: t, Kept: action, Rejected: existing})
		default:
			conflicts = append(conflicts, Conflict{State: state, Terminal: t, Kept: existing, Rejected: action})
		}
	}

	for id, state := range gen.states {
		for s, target := range state.transitions {
			if s.IsTerminal() {
				set(id, s.Terminal(), Action{Kind: Shift, Target: target})
			} else {
				tables.gotos[id][s.Nonterminal()] = target
			}
		}

		items, sets := gen.closure1(state.kernel, state.lookaheads)
		for _, it := range items {
			if _, ok := gen.nextSymbol(it); ok {
				continue
			}
			for la := range sets[it] {
				if it.prod == 0 {
					set(id, la, Action{Kind: Accept})
				} else {
					set(id, la, Action{Kind: Reduce, Target: it.prod})
				}
			}
		}
	}

	return tables, errors.Join(conflicts...)
}
