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
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/EngFlow/gazelle_glsl/internal/glsl/terminal"
)

type Base int

const (
	Base8  Base = 8
	Base10 Base = 10
	Base16 Base = 16
)

type NumberType int

const (
	NumberType_Int NumberType = iota
	NumberType_Uint
	NumberType_Float
)

func (t NumberType) String() string {
	switch t {
	case NumberType_Int:
		return "int"
	case NumberType_Uint:
		return "uint"
	case NumberType_Float:
		return "float"
	default:
		return "unknown number type"
	}
}

// Classification of a numeric literal. Only meaningful for int-constant and
// float-constant tokens.
type Number struct {
	Base Base
	Type NumberType
}

type Token struct {
	Terminal terminal.ID
	Location Cursor
	// Identifier name, literal spelling, string contents or the text run.
	// Keywords and operators carry their lexeme.
	Text   string
	Number Number
}

var TokenEOF = Token{Terminal: terminal.EOF}

// NewToken creates a token whose text is the canonical lexeme of id.
func NewToken(id terminal.ID, location Cursor) Token {
	return Token{Terminal: id, Location: location, Text: terminal.Default().Lexeme(id)}
}

func (t Token) String() string {
	switch t.Terminal {
	case terminal.EOF:
		return "end of file"
	case terminal.Newline:
		return "newline"
	case terminal.Identifier, terminal.IntConstant, terminal.FloatConstant, terminal.Text:
		return fmt.Sprintf("%s %q", t.Terminal, t.Text)
	case terminal.String:
		return fmt.Sprintf("string %q", t.Text)
	default:
		return fmt.Sprintf("'%s'", t.Terminal)
	}
}

// Value returns the integer value of an int-constant token. Constants are evaluated as int64 whatever their suffix;
// literals above math.MaxInt64 are reported as out of range rather than wrapped.
func (t Token) Value() (int64, error) {
	if t.Terminal != terminal.IntConstant {
		return 0, fmt.Errorf("%v is not an integer constant", t)
	}
	digits := strings.TrimRight(t.Text, "uU")
	var err error
	var value int64
	switch t.Number.Base {
	case Base16:
		value, err = strconv.ParseInt(digits[2:], 16, 64)
	case Base8:
		value, err = strconv.ParseInt(digits, 8, 64)
	default:
		value, err = strconv.ParseInt(digits, 10, 64)
	}
	if err != nil {
		return 0, fmt.Errorf("invalid integer constant %q: %w", t.Text, err)
	}
	return value, nil
}

// TokenList is an ordered token sequence, e.g. a macro replacement list.
type TokenList []Token

// Clone returns a deep copy. Tokens hold no references, so copying the slice
// is enough to make the result independent of the receiver.
func (tl TokenList) Clone() TokenList {
	if tl == nil {
		return nil
	}
	return slices.Clone(tl)
}

// String re-linearizes the tokens separated by single spaces. Quoted strings
// are written without inner padding.
func (tl TokenList) String() string {
	var sb strings.Builder
	inString := false
	for i, tok := range tl {
		if i > 0 && !inString {
			sb.WriteByte(' ')
		}
		switch tok.Terminal {
		case terminal.Quote:
			inString = !inString
			sb.WriteByte('"')
		case terminal.Newline:
			sb.WriteByte('\n')
		case terminal.MacroLParen:
			sb.WriteByte('(')
		default:
			sb.WriteString(tok.Text)
		}
	}
	return sb.String()
}

// Terminals returns the terminal of every token, mostly useful in tests.
func (tl TokenList) Terminals() []terminal.ID {
	ids := make([]terminal.ID, len(tl))
	for i, tok := range tl {
		ids[i] = tok.Terminal
	}
	return ids
}
