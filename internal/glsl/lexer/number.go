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

import "github.com/EngFlow/gazelle_glsl/internal/glsl/terminal"

// ScanNumber classifies the numeric literal at the beginning of input and
// returns it together with the number of bytes consumed. The returned token
// has no location; callers assign it.
//
// When input does not start with a literal, ok is false and nothing is
// consumed. The scanner is probed speculatively, so this is not an error.
//
// Recognized forms:
//
//	0x1F, 0X1Fu      hexadecimal int/uint
//	017, 017u        octal int/uint
//	42, 42u, 0       decimal int/uint
//	3.14, .5, 1.     decimal float
//	1e5, 3.14e-2f    decimal float with exponent and optional suffix
func ScanNumber(input string) (tok Token, consumed int, ok bool) {
	at := func(i int) byte {
		if i < len(input) {
			return input[i]
		}
		return 0
	}

	number := Number{Base: Base10, Type: NumberType_Int}
	pos := 0

	if at(0) == '0' && (at(1) == 'x' || at(1) == 'X') && isHexDigit(at(2)) {
		number.Base = Base16
		pos = 2
		for isHexDigit(at(pos)) {
			pos++
		}
	} else {
		for isDigit(at(pos)) {
			pos++
		}
		intEnd := pos

		if at(pos) == '.' && (pos > 0 || isDigit(at(pos+1))) {
			number.Type = NumberType_Float
			pos++
			for isDigit(at(pos)) {
				pos++
			}
		}
		if pos == 0 {
			return Token{}, 0, false
		}
		if exponent := scanExponent(input[pos:]); exponent > 0 {
			number.Type = NumberType_Float
			pos += exponent
		}

		if number.Type == NumberType_Int && at(0) == '0' && intEnd > 1 {
			// Octal literal. Stop at the first non-octal digit, which starts
			// the next token.
			number.Base = Base8
			pos = 1
			for isOctalDigit(at(pos)) {
				pos++
			}
		}
	}

	switch {
	case number.Type == NumberType_Float && (at(pos) == 'f' || at(pos) == 'F'):
		pos++
	case number.Type == NumberType_Float && (at(pos) == 'l' || at(pos) == 'L') && (at(pos+1) == 'f' || at(pos+1) == 'F'):
		pos += 2
	case number.Type == NumberType_Int && (at(pos) == 'u' || at(pos) == 'U'):
		number.Type = NumberType_Uint
		pos++
	}

	id := terminal.IntConstant
	if number.Type == NumberType_Float {
		id = terminal.FloatConstant
	}
	return Token{Terminal: id, Text: input[:pos], Number: number}, pos, true
}

// Length of the exponent part at the beginning of s, or 0 when s does not
// start with a complete exponent.
func scanExponent(s string) int {
	if len(s) < 2 || (s[0] != 'e' && s[0] != 'E') {
		return 0
	}
	pos := 1
	if s[pos] == '+' || s[pos] == '-' {
		pos++
	}
	if pos >= len(s) || !isDigit(s[pos]) {
		return 0
	}
	for pos < len(s) && isDigit(s[pos]) {
		pos++
	}
	return pos
}

func isDigit(c byte) bool      { return c >= '0' && c <= '9' }
func isOctalDigit(c byte) bool { return c >= '0' && c <= '7' }
func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}
func isNewline(c byte) bool { return c == '\n' || c == '\r' }

// Horizontal whitespace. Newlines are handled separately because they
// terminate directives.
func isBlank(c byte) bool { return c == ' ' || c == '\t' || c == '\v' || c == '\f' }
