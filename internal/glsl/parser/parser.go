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

// Package parser turns the token stream of a GLSL source unit into an AST of directives, text runs and constant
// expressions. Parsing is driven by tables generated from the grammar package; this package only contains the
// generic shift-reduce engine and the semantic actions that assemble nodes.
//
// Two modes are supported:
//
//   - source mode, producing a Program whose Nodes are the top-level particles of the unit
//   - expression mode, used for macro expansions, producing a single Expression
//
// The parser stops at the first syntax error. There is no recovery.
package parser

import (
	"io"
	"os"

	"github.com/EngFlow/gazelle_glsl/internal/glsl/grammar"
	"github.com/EngFlow/gazelle_glsl/internal/glsl/lexer"
	"github.com/EngFlow/gazelle_glsl/internal/glsl/terminal"
)

func parse(src TokenSource) (*Program, error) {
	tables := grammar.Default()
	b := &astBuilder{g: tables.Grammar}
	if err := NewEngine(tables).Run(src, b); err != nil {
		return nil, err
	}
	return b.program, nil
}

// ParseSource parses GLSL source code.
func ParseSource(input []byte) (*Program, error) {
	return parse(lexer.NewLexer(input))
}

func ParseReader(r io.Reader) (*Program, error) {
	lx, err := lexer.NewLexerReader(r)
	if err != nil {
		return nil, err
	}
	return parse(lx)
}

// ParseSourceFile opens filename and parses its contents.
func ParseSourceFile(filename string) (*Program, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return ParseSource(content)
}

// ParseExpression parses tokens as a single constant expression. Trailing newline tokens are ignored, so a directive
// tail can be passed as is.
func ParseExpression(tokens lexer.TokenList) (Expression, error) {
	for len(tokens) > 0 && tokens[len(tokens)-1].Terminal == terminal.Newline {
		tokens = tokens[:len(tokens)-1]
	}
	input := make(lexer.TokenList, 0, len(tokens)+1)
	input = append(input, lexer.Token{Terminal: terminal.Pirate})
	input = append(input, tokens...)

	program, err := parse(&tokenSlice{tokens: input})
	if err != nil {
		return nil, err
	}
	return program.Expression, nil
}

// ParseExpressionString tokenizes s with the directive tokenizer and parses it as a constant expression.
func ParseExpressionString(s string) (Expression, error) {
	return ParseExpression(lexer.TokenizeDirective(s))
}
