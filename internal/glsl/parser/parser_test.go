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
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/EngFlow/gazelle_glsl/internal/glsl/lexer"
	"github.com/EngFlow/gazelle_glsl/internal/glsl/terminal"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Locations are covered by the lexer tests.
var ignoreLocations = cmpopts.IgnoreTypes(lexer.Cursor{})

func ident(name string) lexer.Token {
	return lexer.Token{Terminal: terminal.Identifier, Text: name}
}

func text(s string) *Text {
	return &Text{Token: lexer.Token{Terminal: terminal.Text, Text: s}}
}

func macro(name string) *MacroReference {
	return &MacroReference{Name: ident(name)}
}

func mustParse(t *testing.T, source string) *Program {
	t.Helper()
	program, err := ParseSource([]byte(source))
	require.NoError(t, err, source)
	require.NotNil(t, program)
	return program
}

func TestParseEmptySource(t *testing.T) {
	program := mustParse(t, "")
	assert.Empty(t, program.Nodes)
	assert.Nil(t, program.Expression)
}

func TestParseTextOnly(t *testing.T) {
	source := "void main() {\n  gl_FragColor = vec4(1.0);\n}\n"
	program := mustParse(t, source)
	require.Len(t, program.Nodes, 1)
	assert.Equal(t, source, program.Nodes[0].String())
}

func TestParseDirectiveStrings(t *testing.T) {
	testCases := []struct {
		source   string
		kind     NodeKind
		expected string
	}{
		{source: "#version 450 core\n", kind: KindVersion, expected: "#version 450 core"},
		{source: "#version 100\n", kind: KindVersion, expected: "#version 100"},
		{source: `#line 10 "f.glsl"` + "\n", kind: KindLine, expected: `#line 10 "f.glsl"`},
		{source: "#line 7\n", kind: KindLine, expected: "#line 7"},
		{source: "#extension GL_ARB_gpu_shader5 : enable\n", kind: KindExtension, expected: "#extension GL_ARB_gpu_shader5 : enable"},
		{source: "#pragma optimize(on)\n", kind: KindPragma, expected: "#pragma optimize ( on )"},
		{source: "#pragma\n", kind: KindPragma, expected: "#pragma"},
		{source: "#\n", kind: KindNull, expected: "#"},
		{source: `#include "lib/noise.glsl"` + "\n", kind: KindInclude, expected: `#include "lib/noise.glsl"`},
		{source: "#undef FOO\n", kind: KindUndef, expected: "#undef FOO"},
		{source: "#error unsupported target\n", kind: KindError, expected: "#error unsupported target"},
		{source: "#error\n", kind: KindError, expected: "#error"},
		{source: "#define ADD(a, b) a + b\n", kind: KindDefine, expected: "#define ADD(a, b) a + b"},
	}

	for _, tc := range testCases {
		program := mustParse(t, tc.source)
		require.Len(t, program.Nodes, 1, tc.source)
		assert.Equal(t, tc.kind, program.Nodes[0].Kind(), tc.source)
		assert.Equal(t, tc.expected, program.Nodes[0].String(), tc.source)
	}
}

func TestParseDefineForms(t *testing.T) {
	one := lexer.Token{Terminal: terminal.IntConstant, Text: "1", Number: lexer.Number{Base: lexer.Base10}}
	testCases := []struct {
		source   string
		expected *Define
	}{
		{
			source:   "#define FOO\n",
			expected: &Define{Name: "FOO"},
		},
		{
			source:   "#define FOO 1\n",
			expected: &Define{Name: "FOO", Body: lexer.TokenList{one}},
		},
		{
			source:   "#define F()\n",
			expected: &Define{Name: "F", IsFunction: true},
		},
		{
			source:   "#define F() 1\n",
			expected: &Define{Name: "F", IsFunction: true, Body: lexer.TokenList{one}},
		},
		{
			source:   "#define ID(x)\n",
			expected: &Define{Name: "ID", IsFunction: true, Formals: []string{"x"}},
		},
		{
			source:   "#define ID(x) x\n",
			expected: &Define{Name: "ID", IsFunction: true, Formals: []string{"x"}, Body: lexer.TokenList{ident("x")}},
		},
		{
			source: "#define PAREN (1)\n",
			expected: &Define{Name: "PAREN", Body: lexer.TokenList{
				lexer.NewToken(terminal.LParen, lexer.CursorInit),
				one,
				lexer.NewToken(terminal.RParen, lexer.CursorInit),
			}},
		},
		{
			// No newline at the end of input.
			source:   "#define FOO 1",
			expected: &Define{Name: "FOO", Body: lexer.TokenList{one}},
		},
	}

	for _, tc := range testCases {
		program := mustParse(t, tc.source)
		require.Len(t, program.Nodes, 1, tc.source)
		if diff := cmp.Diff(tc.expected, program.Nodes[0], ignoreLocations); diff != "" {
			t.Errorf("%q: unexpected define (-want +got):\n%s", tc.source, diff)
		}
	}
}

func TestParseMacroBodyMatchesAnyToken(t *testing.T) {
	program := mustParse(t, "#define X + - * / ) , defined # if\n")
	require.Len(t, program.Nodes, 1)
	define := program.Nodes[0].(*Define)
	assert.Equal(t, []terminal.ID{
		terminal.Plus, terminal.Dash, terminal.Mul, terminal.Div, terminal.RParen, terminal.Comma,
		terminal.Defined, terminal.Fence, terminal.Identifier,
	}, define.Body.Terminals())
}

func TestParseConditionalChain(t *testing.T) {
	program := mustParse(t, "#if A\nx\n#elif B\ny\n#else\nz\n#endif\nw\n")

	expected := []Node{
		&Conditional{
			Directive: If,
			Condition: macro("A"),
			True:      []Node{text("x\n")},
			False: &Conditional{
				Directive: Elif,
				Condition: macro("B"),
				True:      []Node{text("y\n")},
				False:     &ElseBranch{Body: []Node{text("z\n")}},
			},
		},
		text("w\n"),
	}
	if diff := cmp.Diff(expected, program.Nodes, ignoreLocations); diff != "" {
		t.Errorf("unexpected nodes (-want +got):\n%s", diff)
	}
}

func TestParseConditionalShapes(t *testing.T) {
	testCases := []struct {
		name     string
		source   string
		expected Node
	}{
		{
			name:     "empty if",
			source:   "#if 1\n#endif\n",
			expected: &Conditional{Directive: If, Condition: &IntConstant{Token: lexer.Token{Terminal: terminal.IntConstant, Text: "1", Number: lexer.Number{Base: lexer.Base10}}}},
		},
		{
			name:     "empty else",
			source:   "#ifdef A\n#else\n#endif\n",
			expected: &Conditional{Directive: Ifdef, Identifier: "A", False: &ElseBranch{}},
		},
		{
			name:   "nested",
			source: "#ifdef A\n#ifndef B\nx\n#endif\n#endif\n",
			expected: &Conditional{Directive: Ifdef, Identifier: "A", True: []Node{
				&Conditional{Directive: Ifndef, Identifier: "B", True: []Node{text("x\n")}},
			}},
		},
		{
			name:   "elif chain without else",
			source: "#ifndef A\n#elif B\n#elif C\nc\n#endif\n",
			expected: &Conditional{Directive: Ifndef, Identifier: "A", False: &Conditional{
				Directive: Elif,
				Condition: macro("B"),
				False:     &Conditional{Directive: Elif, Condition: macro("C"), True: []Node{text("c\n")}},
			}},
		},
		{
			name:   "directives in branches",
			source: "#ifdef GL_ES\n#define P mediump\n#else\n#define P\n#endif\n",
			expected: &Conditional{
				Directive:  Ifdef,
				Identifier: "GL_ES",
				True:       []Node{&Define{Name: "P", Body: lexer.TokenList{ident("mediump")}}},
				False:      &ElseBranch{Body: []Node{&Define{Name: "P"}}},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			program := mustParse(t, tc.source)
			require.Len(t, program.Nodes, 1)
			if diff := cmp.Diff(tc.expected, program.Nodes[0], ignoreLocations); diff != "" {
				t.Errorf("unexpected conditional (-want +got):\n%s", diff)
			}
		})
	}
}

// Renders an expression fully parenthesized to make the tree shape visible.
func sexpr(e Expression) string {
	switch e := e.(type) {
	case *Binary:
		return fmt.Sprintf("(%s %s %s)", e.Operator.Text, sexpr(e.Left), sexpr(e.Right))
	case *Logical:
		return fmt.Sprintf("(%s %s %s)", e.Operator.Text, sexpr(e.Left), sexpr(e.Right))
	case *Unary:
		return fmt.Sprintf("(%s %s)", e.Operator.Text, sexpr(e.Operand))
	case *Parenthesis:
		return fmt.Sprintf("(group %s)", sexpr(e.Inner))
	case *MacroReference:
		if !e.Call {
			return e.Name.Text
		}
		args := make([]string, len(e.Arguments))
		for i, arg := range e.Arguments {
			args[i] = sexpr(arg)
		}
		return e.Name.Text + "(" + strings.Join(args, ", ") + ")"
	default:
		return e.String()
	}
}

func TestParseExpressionPrecedence(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{input: "1 + 2 * 3", expected: "(+ 1 (* 2 3))"},
		{input: "1 - 2 - 3", expected: "(- (- 1 2) 3)"},
		{input: "8 / 4 % 3", expected: "(% (/ 8 4) 3)"},
		{input: "A || B && C", expected: "(|| A (&& B C))"},
		{input: "A && B || C", expected: "(|| (&& A B) C)"},
		{input: "-1 < ~2", expected: "(< (- 1) (~ 2))"},
		{input: "!!A", expected: "(! (! A))"},
		{input: "1 << 2 + 3", expected: "(<< 1 (+ 2 3))"},
		{input: "1 <= 2 != 3 >= 4", expected: "(!= (<= 1 2) (>= 3 4))"},
		{input: "(1 | 2) ^ 3 & 4", expected: "(^ (group (| 1 2)) (& 3 4))"},
		{input: "defined X == defined(Y)", expected: "(== defined(X) defined(Y))"},
		{input: "ADD(1, 2 + 3) >> 1", expected: "(>> ADD(1, (+ 2 3)) 1)"},
		{input: "F() + G", expected: "(+ F() G)"},
		{input: "0x10 > 010", expected: "(> 0x10 010)"},
	}

	for _, tc := range testCases {
		expr, err := ParseExpressionString(tc.input)
		require.NoError(t, err, tc.input)
		assert.Equal(t, tc.expected, sexpr(expr), tc.input)
	}
}

func TestDefinedSpellingsBuildTheSameNode(t *testing.T) {
	bare, err := ParseExpressionString("defined FOO")
	require.NoError(t, err)
	parenthesized, err := ParseExpressionString("defined(FOO)")
	require.NoError(t, err)

	assert.Empty(t, cmp.Diff(bare, parenthesized, ignoreLocations))
	assert.Equal(t, "FOO", bare.(*DefinedOperator).Name.Text)
}

func TestMacroReferenceTokensAreWrittenForm(t *testing.T) {
	expr, err := ParseExpressionString("MAX(A + 1, (B))")
	require.NoError(t, err)
	ref := expr.(*MacroReference)
	require.Len(t, ref.Arguments, 2)
	assert.Equal(t, "A + 1", ref.Arguments[0].Tokens().String())
	assert.Equal(t, "( B )", ref.Arguments[1].Tokens().String())
	assert.Equal(t, "MAX ( A + 1 , ( B ) )", ref.Tokens().String())
}

func TestParseExpressionIgnoresTrailingNewline(t *testing.T) {
	tokens := append(lexer.TokenizeDirective("1 + 1"), lexer.Token{Terminal: terminal.Newline, Text: "\n"})
	expr, err := ParseExpression(tokens)
	require.NoError(t, err)
	assert.Equal(t, "(+ 1 1)", sexpr(expr))
}

func TestSyntaxErrors(t *testing.T) {
	testCases := []struct {
		name   string
		source string
		found  terminal.ID
		line   int
	}{
		{name: "missing condition", source: "#if\n#endif\n", found: terminal.Newline, line: 1},
		{name: "unbalanced endif", source: "text\n#endif\n", found: terminal.Endif, line: 2},
		{name: "unterminated if", source: "#ifdef A\n", found: terminal.EOF, line: 0},
		{name: "angle include", source: "#include <a.glsl>\n", found: terminal.Less, line: 1},
		{name: "else after else", source: "#if 1\n#else\n#else\n#endif\n", found: terminal.Else, line: 3},
		{name: "float condition", source: "#if 1.0\n#endif\n", found: terminal.FloatConstant, line: 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseSource([]byte(tc.source))
			var syntaxErr *SyntaxError
			require.True(t, errors.As(err, &syntaxErr), "got %v", err)
			assert.Equal(t, tc.found, syntaxErr.Found.Terminal)
			assert.Equal(t, tc.line, syntaxErr.Location.Line)
			assert.NotEmpty(t, syntaxErr.Expected)
		})
	}
}

func TestParseExpressionSyntaxError(t *testing.T) {
	_, err := ParseExpressionString("1 +")
	var syntaxErr *SyntaxError
	require.ErrorAs(t, err, &syntaxErr)
	assert.Equal(t, terminal.EOF, syntaxErr.Found.Terminal)
	assert.Contains(t, err.Error(), "unexpected end of file")
}

func TestParseUnterminatedComment(t *testing.T) {
	program := mustParse(t, "a /* b")
	require.Len(t, program.Nodes, 1)
	assert.Equal(t, KindText, program.Nodes[0].Kind())
}

func TestParseConcurrently(t *testing.T) {
	source := []byte("#version 330\n#ifdef A\n#define B(x) x\n#endif\nvoid main() {}\n")
	var wg sync.WaitGroup
	results := make([]*Program, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = ParseSource(source)
		}()
	}
	wg.Wait()

	for _, program := range results {
		require.NotNil(t, program)
		assert.Empty(t, cmp.Diff(results[0], program))
	}
}
