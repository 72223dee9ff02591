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

// Rules is the grammar of the preprocessor language.
//
// A program is either a list of particles (text, newlines and directives) or, when it starts with the pirate marker,
// a single constant expression. Every directive ends with a newline token. The wildcard terminal "token" stands for
// any terminal inside macro bodies and other free-form directive arguments.
//
// Constant expressions use the C precedence levels, from || (loosest) to unary operators (tightest). Binary levels
// are left-recursive and therefore left-associative.
var Rules = []string{
	"program ::= particle-list",
	"program ::=",
	"program ::= expression-parsing",

	"expression-parsing ::= pirate constant-expression",

	"particle-list ::= particle",
	"particle-list ::= particle-list particle",

	"particle ::= directive",
	"particle ::= text",
	"particle ::= newline",

	"directive ::= define-directive",
	"directive ::= undef-directive",
	"directive ::= error-directive",
	"directive ::= extension-directive",
	"directive ::= include-directive",
	"directive ::= line-directive",
	"directive ::= null-directive",
	"directive ::= pragma-directive",
	"directive ::= version-directive",
	"directive ::= conditional",

	"define-directive ::= #define identifier newline",
	"define-directive ::= #define identifier token-list newline",
	"define-directive ::= #define identifier macro-lparen ) newline",
	"define-directive ::= #define identifier macro-lparen ) token-list newline",
	"define-directive ::= #define identifier macro-lparen formals-list ) newline",
	"define-directive ::= #define identifier macro-lparen formals-list ) token-list newline",

	"token-list ::= token",
	"token-list ::= token-list token",

	"formals-list ::= identifier",
	"formals-list ::= formals-list , identifier",

	"error-directive ::= #error newline",
	"error-directive ::= #error token-list newline",

	"extension-directive ::= #extension newline",
	"extension-directive ::= #extension token-list newline",

	`include-directive ::= #include " string " newline`,

	"line-directive ::= #line int-constant newline",
	`line-directive ::= #line int-constant " string " newline`,

	"null-directive ::= # newline",

	"pragma-directive ::= #pragma newline",
	"pragma-directive ::= #pragma token-list newline",

	"undef-directive ::= #undef identifier newline",

	"version-directive ::= #version int-constant newline",
	"version-directive ::= #version int-constant identifier newline",

	"conditional ::= if-part endif-directive",
	"conditional ::= if-part else-part endif-directive",

	"if-part ::= if-head",
	"if-part ::= if-head particle-list",

	"if-head ::= if-directive",
	"if-head ::= ifdef-directive",
	"if-head ::= ifndef-directive",

	"elif-parts ::= elif-part",
	"elif-parts ::= elif-parts elif-part",

	"elif-part ::= elif-directive",
	"elif-part ::= elif-directive particle-list",

	"else-part ::= elif-parts",
	"else-part ::= elif-parts else-directive",
	"else-part ::= elif-parts else-directive particle-list",
	"else-part ::= else-directive",
	"else-part ::= else-directive particle-list",

	"if-directive ::= #if constant-expression newline",
	"ifdef-directive ::= #ifdef identifier newline",
	"ifndef-directive ::= #ifndef identifier newline",
	"else-directive ::= #else newline",
	"elif-directive ::= #elif constant-expression newline",
	"endif-directive ::= #endif newline",

	"constant-expression ::= logical-or-expression",

	"macro-evaluation ::= identifier",
	"macro-evaluation ::= identifier ( )",
	"macro-evaluation ::= identifier ( parameter-list )",

	"parameter-list ::= constant-expression",
	"parameter-list ::= parameter-list , constant-expression",

	"defined-operator ::= defined ( identifier )",
	"defined-operator ::= defined identifier",

	"logical-or-expression ::= logical-and-expression",
	"logical-or-expression ::= logical-or-expression || logical-and-expression",

	"logical-and-expression ::= inclusive-or-expression",
	"logical-and-expression ::= logical-and-expression && inclusive-or-expression",

	"inclusive-or-expression ::= exclusive-or-expression",
	"inclusive-or-expression ::= inclusive-or-expression | exclusive-or-expression",

	"exclusive-or-expression ::= and-expression",
	"exclusive-or-expression ::= exclusive-or-expression ^ and-expression",

	"and-expression ::= equality-expression",
	"and-expression ::= and-expression & equality-expression",

	"equality-expression ::= relational-expression",
	"equality-expression ::= equality-expression == relational-expression",
	"equality-expression ::= equality-expression != relational-expression",

	"relational-expression ::= shift-expression",
	"relational-expression ::= relational-expression < shift-expression",
	"relational-expression ::= relational-expression > shift-expression",
	"relational-expression ::= relational-expression <= shift-expression",
	"relational-expression ::= relational-expression >= shift-expression",

	"shift-expression ::= additive-expression",
	"shift-expression ::= shift-expression << additive-expression",
	"shift-expression ::= shift-expression >> additive-expression",

	"additive-expression ::= multiplicative-expression",
	"additive-expression ::= additive-expression + multiplicative-expression",
	"additive-expression ::= additive-expression - multiplicative-expression",

	"multiplicative-expression ::= unary-expression",
	"multiplicative-expression ::= multiplicative-expression * unary-expression",
	"multiplicative-expression ::= multiplicative-expression / unary-expression",
	"multiplicative-expression ::= multiplicative-expression % unary-expression",

	"unary-expression ::= primary-expression",
	"unary-expression ::= + unary-expression",
	"unary-expression ::= - unary-expression",
	"unary-expression ::= ! unary-expression",
	"unary-expression ::= ~ unary-expression",

	"primary-expression ::= defined-operator",
	"primary-expression ::= macro-evaluation",
	"primary-expression ::= int-constant",
	"primary-expression ::= ( constant-expression )",
}
