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

package lexer

import (
	"strings"
	"unicode/utf8"

	"github.com/EngFlow/gazelle_glsl/internal/glsl/terminal"
)

// Operators recognized by the directive tokenizer. Two-character operators
// are listed first so that a prefix never shadows a longer match.
type operator struct {
	lexeme string
	id     terminal.ID
}

var directiveOperators = []operator{
	{"##", terminal.FFence},
	{"<<", terminal.LShift},
	{">>", terminal.RShift},
	{"<=", terminal.LessEqual},
	{">=", terminal.GreaterEqual},
	{"==", terminal.Equal},
	{"!=", terminal.NotEqual},
	{"&&", terminal.LogicalAnd},
	{"||", terminal.LogicalOr},
	{"#", terminal.Fence},
	{"(", terminal.LParen},
	{")", terminal.RParen},
	{",", terminal.Comma},
	{"+", terminal.Plus},
	{"-", terminal.Dash},
	{"~", terminal.Complement},
	{"!", terminal.Not},
	{"*", terminal.Mul},
	{"/", terminal.Div},
	{"%", terminal.Mod},
	{"<", terminal.Less},
	{">", terminal.Greater},
	{"&", terminal.BitAnd},
	{"^", terminal.BitXor},
	{"|", terminal.BitOr},
}

// TokenizeDirective splits a single logical directive line, starting with '#'
// and without the terminating newline, into tokens. Locations are computed as
// if the line started at CursorInit. The synthetic newline is not appended.
func TokenizeDirective(line string) TokenList {
	positions := make([]Cursor, len(line)+1)
	cursor := CursorInit
	for i := 0; i < len(line); i++ {
		positions[i] = cursor
		cursor = cursor.Next(line[i])
	}
	positions[len(line)] = cursor
	return tokenizeDirective(line, positions, terminal.Default())
}

// positions holds the source location of every byte of line plus one entry
// for the end of line.
func tokenizeDirective(line string, positions []Cursor, table *terminal.Table) TokenList {
	var tokens TokenList
	emit := func(tok Token, at int) {
		tok.Location = positions[at]
		tokens = append(tokens, tok)
	}

	identifierEnd := -1
	for pos := 0; pos < len(line); {
		c := line[pos]
		if isBlank(c) || isNewline(c) {
			pos++
			continue
		}

		switch {
		case c == '#' && len(tokens) == 0:
			// Directive name. "#  define" is normalized to "#define".
			nameBegin := pos + 1
			for nameBegin < len(line) && isBlank(line[nameBegin]) {
				nameBegin++
			}
			nameEnd := scanIdentifier(line, nameBegin)
			if id, ok := table.Keyword("#" + line[nameBegin:nameEnd]); ok {
				emit(NewToken(id, CursorEOF), pos)
				pos = nameEnd
			} else {
				emit(NewToken(terminal.Fence, CursorEOF), pos)
				pos++
			}
			continue

		case c == '"':
			emit(NewToken(terminal.Quote, CursorEOF), pos)
			end := pos + 1
			for end < len(line) && line[end] != '"' {
				if line[end] == '\\' && end+1 < len(line) {
					end++
				}
				end++
			}
			emit(Token{Terminal: terminal.String, Text: line[pos+1 : min(end, len(line))]}, min(pos+1, len(line)))
			if end < len(line) {
				emit(NewToken(terminal.Quote, CursorEOF), end)
				end++
			}
			pos = end
			continue

		case c == '(' && pos == identifierEnd && isMacroName(tokens):
			emit(NewToken(terminal.MacroLParen, CursorEOF), pos)
			pos++
			continue

		case isAlpha(c):
			end := scanIdentifier(line, pos)
			word := line[pos:end]
			if id, ok := table.Keyword(word); ok {
				emit(NewToken(id, CursorEOF), pos)
			} else {
				emit(Token{Terminal: terminal.Identifier, Text: word}, pos)
			}
			pos = end
			identifierEnd = end
			continue

		case isDigit(c) || (c == '.' && pos+1 < len(line) && isDigit(line[pos+1])):
			if tok, n, ok := ScanNumber(line[pos:]); ok {
				emit(tok, pos)
				pos += n
				continue
			}
		}

		if op, ok := matchOperator(line[pos:]); ok {
			emit(NewToken(op.id, CursorEOF), pos)
			pos += len(op.lexeme)
			continue
		}

		// Opaque punctuation, kept as a single character of text.
		_, size := utf8.DecodeRuneInString(line[pos:])
		emit(Token{Terminal: terminal.Text, Text: line[pos : pos+size]}, pos)
		pos += size
	}
	return tokens
}

func matchOperator(s string) (operator, bool) {
	for _, candidate := range directiveOperators {
		if strings.HasPrefix(s, candidate.lexeme) {
			return candidate, true
		}
	}
	return operator{}, false
}

func scanIdentifier(s string, begin int) int {
	end := begin
	if end < len(s) && isAlpha(s[end]) {
		end++
		for end < len(s) && (isAlpha(s[end]) || isDigit(s[end])) {
			end++
		}
	}
	return end
}

// Reports whether tokens are exactly "#define NAME", i.e. the next
// parenthesis would open a formal parameter list.
func isMacroName(tokens TokenList) bool {
	return len(tokens) == 2 && tokens[0].Terminal == terminal.Define && tokens[1].Terminal == terminal.Identifier
}
