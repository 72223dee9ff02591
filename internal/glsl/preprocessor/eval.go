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
	"log"
	"strconv"

	"github.com/EngFlow/gazelle_glsl/internal/glsl/lexer"
	"github.com/EngFlow/gazelle_glsl/internal/glsl/parser"
	"github.com/EngFlow/gazelle_glsl/internal/glsl/terminal"
)

// Evaluator computes the value of constant expressions against a macro table. Semantic problems are logged as
// warnings and make the expression unresolved; they never abort the caller.
type Evaluator struct {
	Macros *MacroTable
	// Macros whose expansion is being evaluated.
	expanding map[string]bool
}

func NewEvaluator(macros *MacroTable) *Evaluator {
	return &Evaluator{Macros: macros, expanding: map[string]bool{}}
}

func warnf(format string, args ...any) {
	log.Printf("gazelle_glsl: "+format, args...)
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// Evaluate returns the value of expr and whether it could be resolved. An unresolved value is always reported as 0.
//
// && and || short-circuit like in C, so `defined(X) && X > 1` is resolved even when X is undefined.
func (e *Evaluator) Evaluate(expr parser.Expression) (int64, bool) {
	if e.expanding == nil {
		e.expanding = map[string]bool{}
	}
	switch expr := expr.(type) {
	case *parser.IntConstant:
		value, err := expr.Token.Value()
		if err != nil {
			warnf("%v: %v", expr.Token.Location, err)
			return 0, false
		}
		return value, true

	case *parser.Parenthesis:
		return e.Evaluate(expr.Inner)

	case *parser.DefinedOperator:
		return boolToInt(e.Macros.IsDefined(expr.Name.Text)), true

	case *parser.Unary:
		value, ok := e.Evaluate(expr.Operand)
		if !ok {
			return 0, false
		}
		switch expr.Operator.Terminal {
		case terminal.Plus:
			return value, true
		case terminal.Dash:
			return -value, true
		case terminal.Complement:
			return ^value, true
		case terminal.Not:
			return boolToInt(value == 0), true
		}

	case *parser.Logical:
		left, ok := e.Evaluate(expr.Left)
		if !ok {
			return 0, false
		}
		if expr.Operator.Terminal == terminal.LogicalAnd && left == 0 {
			return 0, true
		}
		if expr.Operator.Terminal == terminal.LogicalOr && left != 0 {
			return 1, true
		}
		right, ok := e.Evaluate(expr.Right)
		if !ok {
			return 0, false
		}
		return boolToInt(right != 0), true

	case *parser.Binary:
		return e.evaluateBinary(expr)

	case *parser.MacroReference:
		return e.evaluateMacro(expr)
	}

	warnf("cannot evaluate %v", expr)
	return 0, false
}

func (e *Evaluator) evaluateBinary(expr *parser.Binary) (int64, bool) {
	left, ok := e.Evaluate(expr.Left)
	if !ok {
		return 0, false
	}
	right, ok := e.Evaluate(expr.Right)
	if !ok {
		return 0, false
	}

	switch expr.Operator.Terminal {
	case terminal.BitOr:
		return left | right, true
	case terminal.BitXor:
		return left ^ right, true
	case terminal.BitAnd:
		return left & right, true
	case terminal.Plus:
		return left + right, true
	case terminal.Dash:
		return left - right, true
	case terminal.Mul:
		return left * right, true
	case terminal.Div, terminal.Mod:
		if right == 0 {
			warnf("%v: division by zero in %v", expr.Operator.Location, expr)
			return 0, false
		}
		if expr.Operator.Terminal == terminal.Div {
			return left / right, true
		}
		return left % right, true
	case terminal.LShift, terminal.RShift:
		if right < 0 || right > 63 {
			warnf("%v: shift count %d out of range in %v", expr.Operator.Location, right, expr)
			return 0, false
		}
		if expr.Operator.Terminal == terminal.LShift {
			return left << right, true
		}
		return left >> right, true
	case terminal.Equal:
		return boolToInt(left == right), true
	case terminal.NotEqual:
		return boolToInt(left != right), true
	case terminal.Less:
		return boolToInt(left < right), true
	case terminal.Greater:
		return boolToInt(left > right), true
	case terminal.LessEqual:
		return boolToInt(left <= right), true
	case terminal.GreaterEqual:
		return boolToInt(left >= right), true
	}
	warnf("%v: unknown operator %v", expr.Operator.Location, expr.Operator)
	return 0, false
}

// Expands the reference, parses the expansion as an expression and evaluates it. Macro names inside the expansion
// become references of their own and are expanded in turn, except for macros already being expanded.
func (e *Evaluator) evaluateMacro(ref *parser.MacroReference) (int64, bool) {
	name := ref.Name.Text
	if e.expanding[name] {
		warnf("%v: macro %s refers to itself", ref.Name.Location, name)
		return 0, false
	}

	ref, ok := e.prescanArguments(ref)
	if !ok {
		return 0, false
	}
	expansion, ok := e.Macros.Expand(ref)
	if !ok {
		if m, known := e.Macros.Lookup(name); known && m.Defined {
			warnf("%v: cannot expand %v: macro %s takes %d arguments", ref.Name.Location, ref, name, len(m.Formals))
		} else {
			warnf("%v: macro %s is not defined", ref.Name.Location, name)
		}
		return 0, false
	}

	expr, err := parser.ParseExpression(expansion)
	if err != nil {
		warnf("%v: expansion of %s is not a constant expression: %v", ref.Name.Location, name, err)
		return 0, false
	}

	e.expanding[name] = true
	defer delete(e.expanding, name)
	return e.Evaluate(expr)
}

// Evaluates the arguments of a function-like macro call before substitution, so that macros used inside them,
// including the called macro itself as in SQ(SQ(2)), are not subject to the guard of the call. A bare name of a
// function-like macro is passed through untouched since it may be applied in the body.
func (e *Evaluator) prescanArguments(ref *parser.MacroReference) (*parser.MacroReference, bool) {
	if !ref.Call || len(ref.Arguments) == 0 {
		return ref, true
	}
	arguments := make(parser.ExpressionList, len(ref.Arguments))
	for i, arg := range ref.Arguments {
		if !hasMacroReference(arg) || e.isFunctionName(arg) {
			arguments[i] = arg
			continue
		}
		value, ok := e.Evaluate(arg)
		if !ok {
			return nil, false
		}
		arguments[i] = constantExpression(value, ref.Name.Location)
	}
	return &parser.MacroReference{Name: ref.Name, Call: true, Arguments: arguments}, true
}

func (e *Evaluator) isFunctionName(expr parser.Expression) bool {
	ref, ok := expr.(*parser.MacroReference)
	if !ok || ref.Call {
		return false
	}
	m, known := e.Macros.Lookup(ref.Name.Text)
	return known && m.Defined && m.IsFunction
}

func hasMacroReference(expr parser.Expression) bool {
	switch expr := expr.(type) {
	case *parser.MacroReference:
		return true
	case *parser.Parenthesis:
		return hasMacroReference(expr.Inner)
	case *parser.Unary:
		return hasMacroReference(expr.Operand)
	case *parser.Binary:
		return hasMacroReference(expr.Left) || hasMacroReference(expr.Right)
	case *parser.Logical:
		return hasMacroReference(expr.Left) || hasMacroReference(expr.Right)
	}
	return false
}

// Builds the expression of an already computed value. Negative values are parenthesized so that they stay a single
// operand once substituted.
func constantExpression(value int64, at lexer.Cursor) parser.Expression {
	magnitude := uint64(value)
	if value < 0 {
		magnitude = -magnitude
	}
	constant := &parser.IntConstant{Token: lexer.Token{
		Terminal: terminal.IntConstant,
		Location: at,
		Text:     strconv.FormatUint(magnitude, 10),
		Number:   lexer.Number{Base: lexer.Base10},
	}}
	if value >= 0 {
		return constant
	}
	return &parser.Parenthesis{
		Open:  lexer.NewToken(terminal.LParen, at),
		Inner: &parser.Unary{Operator: lexer.NewToken(terminal.Dash, at), Operand: constant},
		Close: lexer.NewToken(terminal.RParen, at),
	}
}

// Condition reports whether the directive of c selects its true branch. Unresolved conditions are false.
func (e *Evaluator) Condition(c *parser.Conditional) bool {
	switch c.Directive {
	case parser.Ifdef:
		return e.Macros.IsDefined(c.Identifier)
	case parser.Ifndef:
		return !e.Macros.IsDefined(c.Identifier)
	default:
		value, ok := e.Evaluate(c.Condition)
		return ok && value != 0
	}
}

// SelectBranch walks the #elif chain of c and returns the body that is selected by the current macro table, nil when
// no branch is taken.
func (e *Evaluator) SelectBranch(c *parser.Conditional) []parser.Node {
	for {
		if e.Condition(c) {
			return c.True
		}
		switch next := c.False.(type) {
		case *parser.Conditional:
			c = next
		case *parser.ElseBranch:
			return next.Body
		default:
			return nil
		}
	}
}
