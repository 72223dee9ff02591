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
	"github.com/EngFlow/gazelle_glsl/internal/glsl/parser"
)

// Include is a quoted #include found in a source file.
type Include struct {
	Path string
	Line int
}

// Extension is an `#extension name : behavior` directive.
type Extension struct {
	Name     string
	Behavior string
}

// SourceInfo contains the directive level information of a GLSL source file.
type SourceInfo struct {
	Program    *parser.Program
	Includes   []Include // All includes, from every branch of every conditional
	Defines    []string  // Names of macros defined anywhere in the file
	Version    int64     // 0 when the file has no #version
	Profile    string
	Extensions []Extension
	Pragmas    []string
}

// Summarize collects the directives of program, looking into every branch of every conditional.
func Summarize(program *parser.Program) SourceInfo {
	info := SourceInfo{Program: program}
	walkAll(program.Nodes, func(node parser.Node) {
		switch n := node.(type) {
		case *parser.Include:
			info.Includes = append(info.Includes, Include{Path: n.Path, Line: n.Location.Line})
		case *parser.Define:
			info.Defines = append(info.Defines, n.Name)
		case *parser.Version:
			if version, err := n.Number.Value(); err == nil {
				info.Version = version
				info.Profile = n.Profile
			}
		case *parser.Extension:
			info.Extensions = append(info.Extensions, extensionOf(n))
		case *parser.Pragma:
			info.Pragmas = append(info.Pragmas, n.Tokens.String())
		}
	})
	return info
}

func extensionOf(n *parser.Extension) Extension {
	var ext Extension
	if len(n.Tokens) > 0 {
		ext.Name = n.Tokens[0].Text
	}
	if len(n.Tokens) >= 3 {
		ext.Behavior = n.Tokens[len(n.Tokens)-1].Text
	}
	return ext
}

// Calls visit for every node, descending into all conditional branches.
func walkAll(nodes []parser.Node, visit func(parser.Node)) {
	for _, node := range nodes {
		visit(node)
		if c, ok := node.(*parser.Conditional); ok {
			walkConditional(c, visit)
		}
	}
}

func walkConditional(c *parser.Conditional, visit func(parser.Node)) {
	walkAll(c.True, visit)
	switch next := c.False.(type) {
	case *parser.Conditional:
		walkConditional(next, visit)
	case *parser.ElseBranch:
		walkAll(next.Body, visit)
	}
}

// CollectReachableIncludes returns the includes of the branches selected by macros. Defines and undefs met on the way
// are applied to a copy of macros, so the caller's table is left untouched.
func (si SourceInfo) CollectReachableIncludes(macros *MacroTable) []Include {
	if si.Program == nil {
		return nil
	}
	eval := NewEvaluator(macros.Clone())
	var result []Include
	var walk func([]parser.Node)
	walk = func(nodes []parser.Node) {
		for _, node := range nodes {
			switch n := node.(type) {
			case *parser.Include:
				result = append(result, Include{Path: n.Path, Line: n.Location.Line})
			case *parser.Define:
				eval.Macros.Define(n)
			case *parser.Undef:
				eval.Macros.Undef(n.Name)
			case *parser.Conditional:
				walk(eval.SelectBranch(n))
			}
		}
	}
	walk(si.Program.Nodes)
	return result
}
