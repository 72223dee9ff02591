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

	"github.com/EngFlow/gazelle_glsl/internal/collections"
	"github.com/EngFlow/gazelle_glsl/internal/glsl/grammar"
	"github.com/EngFlow/gazelle_glsl/internal/glsl/lexer"
	"github.com/EngFlow/gazelle_glsl/internal/glsl/terminal"
)

// Intermediate values that only live on the builder stack.
type (
	nodeList  []Node
	elifChain []*Conditional
)

type action func(b *astBuilder, p *grammar.Production, rhs []lexer.Token) error

// Semantic actions keyed by production head. Productions whose body is a single nonterminal and that have no entry
// here pass their child through untouched.
var actions map[string]action

func init() {
	binary := func(b *astBuilder, p *grammar.Production, rhs []lexer.Token) error {
		if len(p.Body) == 1 {
			return nil
		}
		right, left := popAs[Expression](b), popAs[Expression](b)
		b.pushNode(&Binary{Operator: rhs[1], Left: left, Right: right})
		return nil
	}
	logical := func(b *astBuilder, p *grammar.Production, rhs []lexer.Token) error {
		if len(p.Body) == 1 {
			return nil
		}
		right, left := popAs[Expression](b), popAs[Expression](b)
		b.pushNode(&Logical{Operator: rhs[1], Left: left, Right: right})
		return nil
	}

	actions = map[string]action{
		"program":             buildProgram,
		"expression-parsing":  nothing,
		"endif-directive":     nothing,
		"particle-list":       buildParticleList,
		"particle":            buildParticle,
		"define-directive":    buildDefine,
		"token-list":          buildTokenList,
		"formals-list":        buildTokenList,
		"error-directive":     buildError,
		"extension-directive": buildExtension,
		"include-directive":   buildInclude,
		"line-directive":      buildLine,
		"null-directive":      buildNull,
		"pragma-directive":    buildPragma,
		"undef-directive":     buildUndef,
		"version-directive":   buildVersion,
		"conditional":         buildConditional,
		"if-part":             buildBody[*Conditional],
		"elif-part":           buildBody[*Conditional],
		"elif-parts":          buildElifParts,
		"else-part":           buildElsePart,
		"if-directive":        buildConditionalDirective(If),
		"ifdef-directive":     buildConditionalDirective(Ifdef),
		"ifndef-directive":    buildConditionalDirective(Ifndef),
		"elif-directive":      buildConditionalDirective(Elif),
		"else-directive":      buildElse,
		"macro-evaluation":    buildMacroEvaluation,
		"parameter-list":      buildParameterList,
		"defined-operator":    buildDefinedOperator,
		"unary-expression":    buildUnary,
		"primary-expression":  buildPrimary,

		"logical-or-expression":     logical,
		"logical-and-expression":    logical,
		"inclusive-or-expression":   binary,
		"exclusive-or-expression":   binary,
		"and-expression":            binary,
		"equality-expression":       binary,
		"relational-expression":     binary,
		"shift-expression":          binary,
		"additive-expression":       binary,
		"multiplicative-expression": binary,
	}
}

func nothing(*astBuilder, *grammar.Production, []lexer.Token) error { return nil }

// astBuilder assembles the AST bottom-up on an auxiliary stack. It is owned by a single parse.
type astBuilder struct {
	g       *grammar.Grammar
	stack   collections.Stack[any]
	program *Program
}

func (b *astBuilder) pushNode(v any) { b.stack.Push(v) }
func (b *astBuilder) popNode() any   { return b.stack.Pop() }

// popAs pops the top of the stack, which the grammar guarantees to be a T.
func popAs[T any](b *astBuilder) T {
	v := b.popNode()
	t, ok := v.(T)
	if !ok {
		panic(fmt.Sprintf("parser: builder stack holds %T, want %T", v, t))
	}
	return t
}

func peekAs[T any](b *astBuilder) T {
	return b.stack.Peek().(T)
}

func (b *astBuilder) Reduce(p *grammar.Production, rhs []lexer.Token) error {
	if build, ok := actions[b.g.HeadName(p)]; ok {
		return build(b, p, rhs)
	}
	if len(p.Body) == 1 && !p.Body[0].IsTerminal() {
		return nil
	}
	return fmt.Errorf("no semantic action for %v", p)
}

func hasTerminal(p *grammar.Production, id terminal.ID) bool {
	for _, s := range p.Body {
		if s.IsTerminal() && s.Terminal() == id {
			return true
		}
	}
	return false
}

func (b *astBuilder) hasNonterminal(p *grammar.Production, name string) bool {
	for _, s := range p.Body {
		if !s.IsTerminal() && b.g.Nonterminals[s.Nonterminal()] == name {
			return true
		}
	}
	return false
}

// Pops the token list if the production has one.
func popOptionalTokens(b *astBuilder, p *grammar.Production) lexer.TokenList {
	if !b.hasNonterminal(p, "token-list") {
		return nil
	}
	return popAs[*TokenListNode](b).Tokens
}

func buildProgram(b *astBuilder, p *grammar.Production, _ []lexer.Token) error {
	b.program = &Program{}
	switch {
	case len(p.Body) == 0:
	case b.hasNonterminal(p, "particle-list"):
		b.program.Nodes = popAs[nodeList](b)
	default:
		b.program.Expression = popAs[Expression](b)
	}
	return nil
}

func buildParticleList(b *astBuilder, p *grammar.Production, _ []lexer.Token) error {
	particle := popAs[Node](b)
	if len(p.Body) == 1 {
		b.pushNode(nodeList{particle})
		return nil
	}
	list := popAs[nodeList](b)
	b.pushNode(append(list, particle))
	return nil
}

func buildParticle(b *astBuilder, p *grammar.Production, rhs []lexer.Token) error {
	if p.Body[0].IsTerminal() {
		b.pushNode(&Text{Token: rhs[0]})
	}
	return nil
}

func buildDefine(b *astBuilder, p *grammar.Production, rhs []lexer.Token) error {
	define := &Define{
		Location:   rhs[0].Location,
		Name:       rhs[1].Text,
		IsFunction: hasTerminal(p, terminal.MacroLParen),
	}
	define.Body = popOptionalTokens(b, p)
	if b.hasNonterminal(p, "formals-list") {
		for _, formal := range popAs[*TokenListNode](b).Tokens {
			define.Formals = append(define.Formals, formal.Text)
		}
	}
	b.pushNode(define)
	return nil
}

// Shared by token-list and formals-list. The formals-list separator is not kept.
func buildTokenList(b *astBuilder, p *grammar.Production, rhs []lexer.Token) error {
	last := rhs[len(rhs)-1]
	if len(p.Body) == 1 {
		b.pushNode(&TokenListNode{Tokens: lexer.TokenList{last}})
		return nil
	}
	list := peekAs[*TokenListNode](b)
	list.Tokens = append(list.Tokens, last)
	return nil
}

func buildError(b *astBuilder, p *grammar.Production, rhs []lexer.Token) error {
	b.pushNode(&Error{Location: rhs[0].Location, Message: popOptionalTokens(b, p)})
	return nil
}

func buildExtension(b *astBuilder, p *grammar.Production, rhs []lexer.Token) error {
	b.pushNode(&Extension{Location: rhs[0].Location, Tokens: popOptionalTokens(b, p)})
	return nil
}

func buildPragma(b *astBuilder, p *grammar.Production, rhs []lexer.Token) error {
	b.pushNode(&Pragma{Location: rhs[0].Location, Tokens: popOptionalTokens(b, p)})
	return nil
}

func buildInclude(b *astBuilder, _ *grammar.Production, rhs []lexer.Token) error {
	b.pushNode(&Include{Location: rhs[0].Location, Path: rhs[2].Text})
	return nil
}

func buildLine(b *astBuilder, p *grammar.Production, rhs []lexer.Token) error {
	line := &Line{Location: rhs[0].Location, Number: rhs[1]}
	if hasTerminal(p, terminal.String) {
		line.File = rhs[3].Text
	}
	b.pushNode(line)
	return nil
}

func buildNull(b *astBuilder, _ *grammar.Production, rhs []lexer.Token) error {
	b.pushNode(&Null{Location: rhs[0].Location})
	return nil
}

func buildUndef(b *astBuilder, _ *grammar.Production, rhs []lexer.Token) error {
	b.pushNode(&Undef{Location: rhs[0].Location, Name: rhs[1].Text})
	return nil
}

func buildVersion(b *astBuilder, p *grammar.Production, rhs []lexer.Token) error {
	version := &Version{Location: rhs[0].Location, Number: rhs[1]}
	if len(p.Body) == 4 {
		version.Profile = rhs[2].Text
	}
	b.pushNode(version)
	return nil
}

func buildConditionalDirective(kind ConditionalKind) action {
	return func(b *astBuilder, _ *grammar.Production, rhs []lexer.Token) error {
		c := &Conditional{Directive: kind, Location: rhs[0].Location}
		switch kind {
		case If, Elif:
			c.Condition = popAs[Expression](b)
		default:
			c.Identifier = rhs[1].Text
		}
		b.pushNode(c)
		return nil
	}
}

func buildElse(b *astBuilder, _ *grammar.Production, rhs []lexer.Token) error {
	b.pushNode(&ElseBranch{Location: rhs[0].Location})
	return nil
}

// Attaches an optional particle-list to the conditional or else branch below it.
func buildBody[T interface{ *Conditional | *ElseBranch }](b *astBuilder, p *grammar.Production, _ []lexer.Token) error {
	if !b.hasNonterminal(p, "particle-list") {
		return nil
	}
	body := popAs[nodeList](b)
	switch owner := any(peekAs[T](b)).(type) {
	case *Conditional:
		owner.True = body
	case *ElseBranch:
		owner.Body = body
	}
	return nil
}

func buildElifParts(b *astBuilder, p *grammar.Production, _ []lexer.Token) error {
	elif := popAs[*Conditional](b)
	if len(p.Body) == 1 {
		b.pushNode(elifChain{elif})
		return nil
	}
	chain := popAs[elifChain](b)
	b.pushNode(append(chain, elif))
	return nil
}

// Links the #elif chain and the optional #else into a single FalseBranch.
func buildElsePart(b *astBuilder, p *grammar.Production, rhs []lexer.Token) error {
	var elseBranch *ElseBranch
	if b.hasNonterminal(p, "else-directive") {
		if b.hasNonterminal(p, "particle-list") {
			if err := buildBody[*ElseBranch](b, p, rhs); err != nil {
				return err
			}
		}
		elseBranch = popAs[*ElseBranch](b)
	}
	if !b.hasNonterminal(p, "elif-parts") {
		b.pushNode(elseBranch)
		return nil
	}

	chain := popAs[elifChain](b)
	for i := 0; i+1 < len(chain); i++ {
		chain[i].False = chain[i+1]
	}
	if elseBranch != nil {
		chain[len(chain)-1].False = elseBranch
	}
	b.pushNode(chain[0])
	return nil
}

func buildConditional(b *astBuilder, p *grammar.Production, _ []lexer.Token) error {
	if !b.hasNonterminal(p, "else-part") {
		return nil
	}
	falseBranch := popAs[FalseBranch](b)
	peekAs[*Conditional](b).False = falseBranch
	return nil
}

func buildMacroEvaluation(b *astBuilder, p *grammar.Production, rhs []lexer.Token) error {
	ref := &MacroReference{Name: rhs[0], Call: len(p.Body) > 1}
	if b.hasNonterminal(p, "parameter-list") {
		ref.Arguments = popAs[ExpressionList](b)
	}
	b.pushNode(ref)
	return nil
}

func buildParameterList(b *astBuilder, p *grammar.Production, _ []lexer.Token) error {
	arg := popAs[Expression](b)
	if len(p.Body) == 1 {
		b.pushNode(ExpressionList{arg})
		return nil
	}
	list := popAs[ExpressionList](b)
	b.pushNode(append(list, arg))
	return nil
}

func buildDefinedOperator(b *astBuilder, p *grammar.Production, rhs []lexer.Token) error {
	name := rhs[1]
	if hasTerminal(p, terminal.LParen) {
		name = rhs[2]
	}
	b.pushNode(&DefinedOperator{Operator: rhs[0], Name: name})
	return nil
}

func buildUnary(b *astBuilder, p *grammar.Production, rhs []lexer.Token) error {
	if len(p.Body) == 1 {
		return nil
	}
	b.pushNode(&Unary{Operator: rhs[0], Operand: popAs[Expression](b)})
	return nil
}

func buildPrimary(b *astBuilder, p *grammar.Production, rhs []lexer.Token) error {
	switch {
	case hasTerminal(p, terminal.IntConstant):
		b.pushNode(&IntConstant{Token: rhs[0]})
	case hasTerminal(p, terminal.LParen):
		b.pushNode(&Parenthesis{Open: rhs[0], Inner: popAs[Expression](b), Close: rhs[2]})
	}
	return nil
}
