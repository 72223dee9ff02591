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

// Package lexer provides the lexical analyzer of the GLSL preprocessor. It splits shader source into alternating runs
// of literal text and preprocessor directives. Directive lines are tokenized into typed tokens (operators,
// identifiers, numeric and string constants) and always end with a newline token, which the grammar uses as the
// directive terminator.
//
// Every token records its location in the source code for accurate error reporting.
package lexer

import (
	"io"
	"strings"

	"github.com/EngFlow/gazelle_glsl/internal/collections"
	"github.com/EngFlow/gazelle_glsl/internal/glsl/terminal"
)

type scanState int

const (
	stateStart scanState = iota
	// Reading literal text between directives. Whitespace is kept verbatim as part of the text run.
	stateScanningText
	stateInsideBlockComment
	stateInsideLineComment
	// Draining the token queue of the current directive line.
	stateReadingDirective
	stateEnd
)

// Lexer is a state machine over an in-memory copy of the source. A Lexer is not safe for concurrent use; create one
// per parse unit.
type Lexer struct {
	input  string
	pos    int
	cursor Cursor
	state  scanState
	table  *terminal.Table

	text      strings.Builder
	textStart Cursor
	// Start of the block comment being skipped.
	commentStart Cursor

	// Tokens of the directive being drained.
	directive collections.Queue[Token]
}

func NewLexer(sourceCode []byte) *Lexer {
	return NewLexerString(string(sourceCode))
}

func NewLexerString(sourceCode string) *Lexer {
	return &Lexer{
		input:  sourceCode,
		cursor: CursorInit,
		state:  stateStart,
		table:  terminal.Default(),
	}
}

// NewLexerReader reads r to the end and returns a lexer over its content.
func NewLexerReader(r io.Reader) (*Lexer, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return NewLexer(data), nil
}

// Scan returns the next token. After the input is exhausted it returns TokenEOF, no matter how often it is called.
func (lx *Lexer) Scan() Token {
	for {
		switch lx.state {
		case stateStart:
			lx.state = stateScanningText

		case stateScanningText:
			if tok, ok := lx.scanText(); ok {
				return tok
			}

		case stateInsideBlockComment:
			// The comment is replaced by the newlines it contains, or by a space if it has none, so that line numbers
			// and token boundaries of the surrounding text survive.
			if newlines := lx.skipBlockComment(); newlines == 0 {
				lx.appendText(' ', lx.commentStart)
			} else {
				for range newlines {
					lx.appendText('\n', lx.commentStart)
				}
			}
			lx.state = stateScanningText

		case stateInsideLineComment:
			lx.skipLineComment()
			lx.state = stateScanningText

		case stateReadingDirective:
			if lx.directive.Empty() {
				lx.readDirective()
			}
			tok := lx.directive.Pop()
			if lx.directive.Empty() {
				lx.state = stateScanningText
			}
			return tok

		case stateEnd:
			return TokenEOF
		}
	}
}

// Tokenize returns all tokens up to, but excluding, the end of input.
func (lx *Lexer) Tokenize() TokenList {
	var tokens TokenList
	for tok := lx.Scan(); tok.Terminal != terminal.EOF; tok = lx.Scan() {
		tokens = append(tokens, tok)
	}
	return tokens
}

func (lx *Lexer) peek(offset int) byte {
	if lx.pos+offset < len(lx.input) {
		return lx.input[lx.pos+offset]
	}
	return 0
}

func (lx *Lexer) advance() byte {
	c := lx.input[lx.pos]
	lx.pos++
	lx.cursor = lx.cursor.Next(c)
	return c
}

func (lx *Lexer) atEOF() bool {
	return lx.pos >= len(lx.input)
}

// Appends c, found at position at, to the pending text run.
func (lx *Lexer) appendText(c byte, at Cursor) {
	if lx.text.Len() == 0 {
		lx.textStart = at
	}
	lx.text.WriteByte(c)
}

// Moves the current character to the pending text run.
func (lx *Lexer) copyText() byte {
	at := lx.cursor
	c := lx.advance()
	lx.appendText(c, at)
	return c
}

// Accumulates literal text until a directive or the end of input. Returns ok=false when the state changed without
// producing a token.
func (lx *Lexer) scanText() (Token, bool) {
	for {
		if lx.atEOF() {
			lx.state = stateEnd
			return lx.flushText()
		}

		c := lx.peek(0)
		switch {
		case c == '/' && lx.peek(1) == '/':
			lx.advance()
			lx.advance()
			lx.state = stateInsideLineComment
			return Token{}, false

		case c == '/' && lx.peek(1) == '*':
			lx.commentStart = lx.cursor
			lx.advance()
			lx.advance()
			lx.state = stateInsideBlockComment
			return Token{}, false

		case c == '\\' && lx.continuationLength() > 0:
			lx.skipContinuation()

		case c == '"':
			lx.copyStringLiteral()

		case c == '#':
			lx.state = stateReadingDirective
			return lx.flushText()

		default:
			lx.copyText()
		}
	}
}

// Emits the pending text run. Empty runs are suppressed and runs consisting only of newlines become a single newline
// token.
func (lx *Lexer) flushText() (Token, bool) {
	content := lx.text.String()
	lx.text.Reset()
	if content == "" {
		return Token{}, false
	}
	if strings.Trim(content, "\r\n") == "" {
		return Token{Terminal: terminal.Newline, Location: lx.textStart, Text: content}, true
	}
	return Token{Terminal: terminal.Text, Location: lx.textStart, Text: content}, true
}

// Copies a string literal verbatim so that a '#' or comment marker inside it is not interpreted. The literal ends at
// the closing quote, the end of line or the end of input.
func (lx *Lexer) copyStringLiteral() {
	lx.copyText()
	for !lx.atEOF() {
		c := lx.peek(0)
		if isNewline(c) {
			return
		}
		lx.copyText()
		if c == '\\' && !lx.atEOF() {
			lx.copyText()
		} else if c == '"' {
			return
		}
	}
}

// Consumes the block comment body up to and including "*/" and returns the number of newlines it spanned. An
// unterminated comment consumes the rest of the input.
func (lx *Lexer) skipBlockComment() int {
	newlines := 0
	for !lx.atEOF() {
		if lx.peek(0) == '*' && lx.peek(1) == '/' {
			lx.advance()
			lx.advance()
			break
		}
		if lx.advance() == '\n' {
			newlines++
		}
	}
	return newlines
}

// Consumes the comment up to, but excluding, the end of line.
func (lx *Lexer) skipLineComment() {
	for !lx.atEOF() && !isNewline(lx.peek(0)) {
		lx.advance()
	}
}

// Length of a line continuation at the current position: a backslash, optional blanks and a newline. Returns 0 when
// the backslash does not continue the line.
func (lx *Lexer) continuationLength() int {
	offset := 1
	for isBlank(lx.peek(offset)) {
		offset++
	}
	switch {
	case lx.peek(offset) == '\r' && lx.peek(offset+1) == '\n':
		return offset + 2
	case isNewline(lx.peek(offset)):
		return offset + 1
	default:
		return 0
	}
}

// Elides the line continuation and the blanks following it.
func (lx *Lexer) skipContinuation() {
	for range lx.continuationLength() {
		lx.advance()
	}
	for isBlank(lx.peek(0)) {
		lx.advance()
	}
}

// Reads one logical directive line, starting at '#', and queues its tokens followed by the synthetic newline.
// Continuations are replaced by a space and comments are stripped. The terminating newline is consumed; at the end
// of input the newline is synthesized.
func (lx *Lexer) readDirective() {
	var line strings.Builder
	var positions []Cursor
	appendChar := func(c byte, at Cursor) {
		line.WriteByte(c)
		positions = append(positions, at)
	}

	inString := false
	for !lx.atEOF() {
		c := lx.peek(0)
		switch {
		case isNewline(c):
			end := lx.cursor
			lx.consumeNewline()
			lx.queueDirective(line.String(), append(positions, end), end)
			return

		case c == '\\' && lx.continuationLength() > 0:
			at := lx.cursor
			lx.skipContinuation()
			appendChar(' ', at)

		case inString:
			appendChar(c, lx.cursor)
			lx.advance()
			if c == '"' {
				inString = false
			} else if c == '\\' && !lx.atEOF() && !isNewline(lx.peek(0)) {
				appendChar(lx.peek(0), lx.cursor)
				lx.advance()
			}

		case c == '/' && lx.peek(1) == '/':
			lx.skipLineComment()

		case c == '/' && lx.peek(1) == '*':
			at := lx.cursor
			lx.advance()
			lx.advance()
			lx.skipBlockComment()
			appendChar(' ', at)

		default:
			if c == '"' {
				inString = true
			}
			appendChar(c, lx.cursor)
			lx.advance()
		}
	}

	// End of input before the end of line.
	lx.queueDirective(line.String(), append(positions, lx.cursor), lx.cursor)
}

func (lx *Lexer) consumeNewline() {
	if lx.advance() == '\r' && lx.peek(0) == '\n' {
		lx.advance()
	}
}

func (lx *Lexer) queueDirective(line string, positions []Cursor, newlineAt Cursor) {
	for _, tok := range tokenizeDirective(line, positions, lx.table) {
		lx.directive.Push(tok)
	}
	lx.directive.Push(Token{Terminal: terminal.Newline, Location: newlineAt, Text: "\n"})
}
