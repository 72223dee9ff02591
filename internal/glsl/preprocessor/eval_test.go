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
	"bytes"
	"log"
	"os"
	"testing"

	"github.com/EngFlow/gazelle_glsl/internal/glsl/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMacros = `#define FOO 2
#define ADD(a, b) a + b
#define NESTED FOO * 2
#define SELF SELF + 1
#define PING PONG
#define PONG PING
#define EMPTY
#define F(x) x
#define SQ(x) ((x)*(x))
#define NEG -3
#define APPLY(f, x) f(x)
`

func newTestEvaluator(t *testing.T) *Evaluator {
	table := NewMacroTable()
	apply(t, table, testMacros)
	return NewEvaluator(table)
}

func evaluate(t *testing.T, e *Evaluator, input string) (int64, bool) {
	t.Helper()
	expr, err := parser.ParseExpressionString(input)
	require.NoError(t, err, input)
	return e.Evaluate(expr)
}

func TestEvaluate(t *testing.T) {
	testCases := []struct {
		input    string
		expected int64
	}{
		{input: "1 + 2 * 3", expected: 7},
		{input: "10 / 3", expected: 3},
		{input: "-7 % 3", expected: -1},
		{input: "1 << 4 >> 2", expected: 4},
		{input: "~0", expected: -1},
		{input: "+5", expected: 5},
		{input: "!5", expected: 0},
		{input: "!0", expected: 1},
		{input: "3 > 2 && 2 > 1", expected: 1},
		{input: "3 < 2 || 2 <= 1", expected: 0},
		{input: "2 >= 2 && 1 != 2", expected: 1},
		{input: "0x10 == 16", expected: 1},
		{input: "010", expected: 8},
		{input: "5u", expected: 5},
		{input: "(1 | 2) ^ 1", expected: 2},
		{input: "6 & 3", expected: 2},
		{input: "defined FOO", expected: 1},
		{input: "defined(FOO)", expected: 1},
		{input: "defined NOPE", expected: 0},
		{input: "FOO + 1", expected: 3},
		{input: "ADD(FOO, 3)", expected: 5},
		// A macro reference is a single operand, unlike textual substitution.
		{input: "ADD(1, 2) * 2", expected: 6},
		{input: "NESTED", expected: 4},
		{input: "F(ADD(1, 2))", expected: 3},
		{input: "__VERSION__ >= 150", expected: 1},
		{input: "defined(NOPE) && NOPE > 1", expected: 0},
		{input: "1 || NOPE", expected: 1},
		// Arguments are evaluated before the call, outside of its self-reference guard.
		{input: "SQ(SQ(2)) == 16", expected: 1},
		{input: "SQ(SQ(SQ(2)))", expected: 256},
		{input: "ADD(SQ(2), F(1))", expected: 5},
		{input: "SQ(NEG)", expected: 9},
		{input: "ADD(NEG, 1)", expected: -2},
		{input: "APPLY(SQ, 3)", expected: 9},
		{input: "0x7FFFFFFFFFFFFFFF > 0", expected: 1},
	}

	e := newTestEvaluator(t)
	for _, tc := range testCases {
		value, ok := evaluate(t, e, tc.input)
		assert.True(t, ok, tc.input)
		assert.Equal(t, tc.expected, value, tc.input)
	}
}

func TestEvaluateUnresolved(t *testing.T) {
	testCases := []struct {
		input   string
		warning string
	}{
		{input: "NOPE", warning: "macro NOPE is not defined"},
		{input: "NOPE == 0", warning: "macro NOPE is not defined"},
		{input: "!NOPE", warning: "macro NOPE is not defined"},
		{input: "1 / 0", warning: "division by zero"},
		{input: "1 % (FOO - 2)", warning: "division by zero"},
		{input: "1 << 64", warning: "shift count 64 out of range"},
		{input: "ADD(1)", warning: "macro ADD takes 2 arguments"},
		{input: "F", warning: "macro F takes 1 arguments"},
		{input: "SELF", warning: "macro SELF refers to itself"},
		{input: "PING", warning: "macro PING refers to itself"},
		{input: "EMPTY", warning: "expansion of EMPTY is not a constant expression"},
		{input: "1 && NOPE", warning: "macro NOPE is not defined"},
		{input: "SQ(NOPE)", warning: "macro NOPE is not defined"},
		{input: "SQ(SELF)", warning: "macro SELF refers to itself"},
		{input: "0xFFFFFFFFFFFFFFFF == -1", warning: "value out of range"},
	}

	var logs bytes.Buffer
	log.SetOutput(&logs)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	e := newTestEvaluator(t)
	for _, tc := range testCases {
		logs.Reset()
		value, ok := evaluate(t, e, tc.input)
		assert.False(t, ok, tc.input)
		assert.Zero(t, value, tc.input)
		assert.Contains(t, logs.String(), "gazelle_glsl: ", tc.input)
		assert.Contains(t, logs.String(), tc.warning, tc.input)
	}
}

func TestDefinedFormsAgree(t *testing.T) {
	e := newTestEvaluator(t)
	for _, name := range []string{"FOO", "NOPE", "ADD"} {
		bare, ok := evaluate(t, e, "defined "+name)
		require.True(t, ok)
		parenthesized, ok := evaluate(t, e, "defined("+name+")")
		require.True(t, ok)
		assert.Equal(t, bare, parenthesized, name)
	}
}

func TestSelectBranch(t *testing.T) {
	program, err := parser.ParseSource([]byte("#if A\na\n#elif B\nb\n#else\nc\n#endif\n"))
	require.NoError(t, err)
	conditional := program.Nodes[0].(*parser.Conditional)

	testCases := []struct {
		defines  string
		expected string
	}{
		{defines: "#define A 1\n", expected: "a\n"},
		{defines: "#define A 0\n#define B 1\n", expected: "b\n"},
		{defines: "#define A 0\n#define B 0\n", expected: "c\n"},
		// Unresolved conditions are false.
		{defines: "", expected: "c\n"},
	}

	var logs bytes.Buffer
	log.SetOutput(&logs)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	for _, tc := range testCases {
		table := NewMacroTable()
		apply(t, table, tc.defines)
		selected := NewEvaluator(table).SelectBranch(conditional)
		require.Len(t, selected, 1, tc.defines)
		assert.Equal(t, tc.expected, selected[0].String(), tc.defines)
	}
}

func TestSelectBranchWithoutElse(t *testing.T) {
	program, err := parser.ParseSource([]byte("#ifndef GUARD\nbody\n#endif\n"))
	require.NoError(t, err)
	conditional := program.Nodes[0].(*parser.Conditional)

	table := NewMacroTable()
	assert.Len(t, NewEvaluator(table).SelectBranch(conditional), 1)

	apply(t, table, "#define GUARD\n")
	assert.Nil(t, NewEvaluator(table).SelectBranch(conditional))
}
