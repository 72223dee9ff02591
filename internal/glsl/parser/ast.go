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
	"strings"

	"github.com/EngFlow/gazelle_glsl/internal/glsl/lexer"
	"github.com/EngFlow/gazelle_glsl/internal/glsl/terminal"
)

// NodeKind tags the concrete variant of a Node.
type NodeKind int

const (
	KindText NodeKind = iota
	KindTokenList
	KindDefine
	KindUndef
	KindError
	KindExtension
	KindInclude
	KindLine
	KindPragma
	KindVersion
	KindNull
	KindConditional
	KindElse
	KindBinary
	KindLogical
	KindUnary
	KindIntConstant
	KindParenthesis
	KindDefinedOperator
	KindMacroReference
)

var nodeKindNames = [...]string{
	KindText:            "text",
	KindTokenList:       "token-list",
	KindDefine:          "define",
	KindUndef:           "undef",
	KindError:           "error",
	KindExtension:       "extension",
	KindInclude:         "include",
	KindLine:            "line",
	KindPragma:          "pragma",
	KindVersion:         "version",
	KindNull:            "null",
	KindConditional:     "conditional",
	KindElse:            "else",
	KindBinary:          "binary",
	KindLogical:         "logical",
	KindUnary:           "unary",
	KindIntConstant:     "int-constant",
	KindParenthesis:     "parenthesis",
	KindDefinedOperator: "defined",
	KindMacroReference:  "macro-reference",
}

func (k NodeKind) String() string {
	if int(k) < len(nodeKindNames) {
		return nodeKindNames[k]
	}
	return fmt.Sprintf("NodeKind(%d)", int(k))
}

type (
	// Node is a closed set of AST variants. Every node is owned by exactly one parent, or by the Program.
	Node interface {
		fmt.Stringer
		Kind() NodeKind
		isNode()
	}

	// Expression is a node of a constant expression. Tokens returns the expression as it was written, which is what
	// a macro argument expands to.
	Expression interface {
		Node
		Tokens() lexer.TokenList
	}

	// ExpressionList holds the arguments of a macro reference.
	ExpressionList []Expression

	// FalseBranch is what a conditional falls through to: nil, an #elif (*Conditional) or an #else (*ElseBranch).
	FalseBranch interface {
		Node
		isFalseBranch()
	}
)

// Program is the root of a parsed unit. Exactly one of Nodes and Expression is set; Expression only when the unit was
// parsed in expression mode.
type Program struct {
	Nodes      []Node
	Expression Expression
}

type (
	// Text is a run of source text outside directives, or a run of newlines.
	Text struct {
		Token lexer.Token
	}

	// TokenListNode is a free-form token sequence such as a macro body.
	TokenListNode struct {
		Tokens lexer.TokenList
	}

	Define struct {
		Location   lexer.Cursor
		Name       string
		IsFunction bool
		Formals    []string
		Body       lexer.TokenList
	}

	Undef struct {
		Location lexer.Cursor
		Name     string
	}

	Error struct {
		Location lexer.Cursor
		Message  lexer.TokenList
	}

	Extension struct {
		Location lexer.Cursor
		Tokens   lexer.TokenList
	}

	Include struct {
		Location lexer.Cursor
		Path     string
	}

	Line struct {
		Location lexer.Cursor
		Number   lexer.Token
		// Empty when the directive names no file.
		File string
	}

	Pragma struct {
		Location lexer.Cursor
		Tokens   lexer.TokenList
	}

	Version struct {
		Location lexer.Cursor
		Number   lexer.Token
		// Empty when no profile follows the version number.
		Profile string
	}

	// Null is the empty directive, a lone '#'.
	Null struct {
		Location lexer.Cursor
	}
)

type ConditionalKind int

const (
	If ConditionalKind = iota
	Ifdef
	Ifndef
	Elif
)

func (k ConditionalKind) String() string {
	switch k {
	case If:
		return "#if"
	case Ifdef:
		return "#ifdef"
	case Ifndef:
		return "#ifndef"
	case Elif:
		return "#elif"
	default:
		return fmt.Sprintf("ConditionalKind(%d)", int(k))
	}
}

type (
	// Conditional is an #if, #ifdef, #ifndef or #elif together with its body. A chain of #elif directives nests
	// through False.
	Conditional struct {
		Directive ConditionalKind
		Location  lexer.Cursor
		// Set for If and Elif.
		Condition Expression
		// Set for Ifdef and Ifndef.
		Identifier string
		True       []Node
		False      FalseBranch
	}

	ElseBranch struct {
		Location lexer.Cursor
		Body     []Node
	}
)

type (
	// Binary is an arithmetic, bitwise, shift or comparison operation.
	Binary struct {
		Operator    lexer.Token
		Left, Right Expression
	}

	// Logical is && or ||.
	Logical struct {
		Operator    lexer.Token
		Left, Right Expression
	}

	Unary struct {
		Operator lexer.Token
		Operand  Expression
	}

	IntConstant struct {
		Token lexer.Token
	}

	Parenthesis struct {
		Open, Close lexer.Token
		Inner       Expression
	}

	// DefinedOperator is `defined NAME` or `defined ( NAME )`; both spellings produce the same node.
	DefinedOperator struct {
		Operator lexer.Token
		Name     lexer.Token
	}

	// MacroReference is an identifier in a constant expression, optionally applied to arguments.
	MacroReference struct {
		Name lexer.Token
		// Call is true when the reference was written with parentheses, even empty ones.
		Call      bool
		Arguments ExpressionList
	}
)

func (*Text) isNode()            {}
func (*TokenListNode) isNode()   {}
func (*Define) isNode()          {}
func (*Undef) isNode()           {}
func (*Error) isNode()           {}
func (*Extension) isNode()       {}
func (*Include) isNode()         {}
func (*Line) isNode()            {}
func (*Pragma) isNode()          {}
func (*Version) isNode()         {}
func (*Null) isNode()            {}
func (*Conditional) isNode()     {}
func (*ElseBranch) isNode()      {}
func (*Binary) isNode()          {}
func (*Logical) isNode()         {}
func (*Unary) isNode()           {}
func (*IntConstant) isNode()     {}
func (*Parenthesis) isNode()     {}
func (*DefinedOperator) isNode() {}
func (*MacroReference) isNode()  {}

func (*Conditional) isFalseBranch() {}
func (*ElseBranch) isFalseBranch()  {}

func (*Text) Kind() NodeKind            { return KindText }
func (*TokenListNode) Kind() NodeKind   { return KindTokenList }
func (*Define) Kind() NodeKind          { return KindDefine }
func (*Undef) Kind() NodeKind           { return KindUndef }
func (*Error) Kind() NodeKind           { return KindError }
func (*Extension) Kind() NodeKind       { return KindExtension }
func (*Include) Kind() NodeKind         { return KindInclude }
func (*Line) Kind() NodeKind            { return KindLine }
func (*Pragma) Kind() NodeKind          { return KindPragma }
func (*Version) Kind() NodeKind         { return KindVersion }
func (*Null) Kind() NodeKind            { return KindNull }
func (*Conditional) Kind() NodeKind     { return KindConditional }
func (*ElseBranch) Kind() NodeKind      { return KindElse }
func (*Binary) Kind() NodeKind          { return KindBinary }
func (*Logical) Kind() NodeKind         { return KindLogical }
func (*Unary) Kind() NodeKind           { return KindUnary }
func (*IntConstant) Kind() NodeKind     { return KindIntConstant }
func (*Parenthesis) Kind() NodeKind     { return KindParenthesis }
func (*DefinedOperator) Kind() NodeKind { return KindDefinedOperator }
func (*MacroReference) Kind() NodeKind  { return KindMacroReference }

func (n *Text) String() string          { return n.Token.Text }
func (n *TokenListNode) String() string { return n.Tokens.String() }
func (n *Undef) String() string         { return "#undef " + n.Name }
func (n *Error) String() string         { return directiveString("#error", n.Message) }
func (n *Extension) String() string     { return directiveString("#extension", n.Tokens) }
func (n *Include) String() string       { return fmt.Sprintf("#include %q", n.Path) }
func (n *Pragma) String() string        { return directiveString("#pragma", n.Tokens) }
func (n *Null) String() string          { return "#" }

func (n *Define) String() string {
	var sb strings.Builder
	sb.WriteString("#define ")
	sb.WriteString(n.Name)
	if n.IsFunction {
		sb.WriteString("(" + strings.Join(n.Formals, ", ") + ")")
	}
	if len(n.Body) > 0 {
		sb.WriteString(" " + n.Body.String())
	}
	return sb.String()
}

func (n *Line) String() string {
	if n.File == "" {
		return "#line " + n.Number.Text
	}
	return fmt.Sprintf("#line %s %q", n.Number.Text, n.File)
}

func (n *Version) String() string {
	if n.Profile == "" {
		return "#version " + n.Number.Text
	}
	return "#version " + n.Number.Text + " " + n.Profile
}

func (n *Conditional) String() string {
	var sb strings.Builder
	n.writeTo(&sb)
	sb.WriteString("#endif")
	return sb.String()
}

func (n *Conditional) writeTo(sb *strings.Builder) {
	sb.WriteString(n.Directive.String())
	if n.Condition != nil {
		sb.WriteString(" " + n.Condition.String())
	} else {
		sb.WriteString(" " + n.Identifier)
	}
	sb.WriteByte('\n')
	writeNodes(sb, n.True)
	switch next := n.False.(type) {
	case *Conditional:
		next.writeTo(sb)
	case *ElseBranch:
		sb.WriteString("#else\n")
		writeNodes(sb, next.Body)
	}
}

func (n *ElseBranch) String() string {
	var sb strings.Builder
	sb.WriteString("#else\n")
	writeNodes(&sb, n.Body)
	return sb.String()
}

func writeNodes(sb *strings.Builder, nodes []Node) {
	for _, node := range nodes {
		sb.WriteString(node.String())
		if _, isText := node.(*Text); !isText {
			sb.WriteByte('\n')
		}
	}
}

func directiveString(name string, tokens lexer.TokenList) string {
	if len(tokens) == 0 {
		return name
	}
	return name + " " + tokens.String()
}

func (n *Binary) Tokens() lexer.TokenList {
	return joinTokens(n.Left.Tokens(), lexer.TokenList{n.Operator}, n.Right.Tokens())
}

func (n *Logical) Tokens() lexer.TokenList {
	return joinTokens(n.Left.Tokens(), lexer.TokenList{n.Operator}, n.Right.Tokens())
}

func (n *Unary) Tokens() lexer.TokenList {
	return joinTokens(lexer.TokenList{n.Operator}, n.Operand.Tokens())
}

func (n *IntConstant) Tokens() lexer.TokenList { return lexer.TokenList{n.Token} }

func (n *Parenthesis) Tokens() lexer.TokenList {
	return joinTokens(lexer.TokenList{n.Open}, n.Inner.Tokens(), lexer.TokenList{n.Close})
}

func (n *DefinedOperator) Tokens() lexer.TokenList { return lexer.TokenList{n.Operator, n.Name} }

func (n *MacroReference) Tokens() lexer.TokenList {
	tokens := lexer.TokenList{n.Name}
	if !n.Call {
		return tokens
	}
	at := n.Name.Location
	tokens = append(tokens, lexer.NewToken(terminal.LParen, at))
	for i, arg := range n.Arguments {
		if i > 0 {
			tokens = append(tokens, lexer.NewToken(terminal.Comma, at))
		}
		tokens = append(tokens, arg.Tokens()...)
	}
	return append(tokens, lexer.NewToken(terminal.RParen, at))
}

func joinTokens(parts ...lexer.TokenList) lexer.TokenList {
	var tokens lexer.TokenList
	for _, part := range parts {
		tokens = append(tokens, part...)
	}
	return tokens
}

func (n *Binary) String() string          { return n.Tokens().String() }
func (n *Logical) String() string         { return n.Tokens().String() }
func (n *Unary) String() string           { return n.Tokens().String() }
func (n *IntConstant) String() string     { return n.Token.Text }
func (n *Parenthesis) String() string     { return n.Tokens().String() }
func (n *DefinedOperator) String() string { return "defined(" + n.Name.Text + ")" }
func (n *MacroReference) String() string  { return n.Tokens().String() }
