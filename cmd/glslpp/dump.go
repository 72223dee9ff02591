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

package main

import (
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/EngFlow/gazelle_glsl/internal/collections"
	"github.com/EngFlow/gazelle_glsl/internal/glsl/parser"
)

// Renders the directive tree of a program as indented JSON of a protobuf Struct.
func dumpProgram(program *parser.Program) ([]byte, error) {
	tree, err := structpb.NewStruct(map[string]any{"nodes": nodeValues(program.Nodes)})
	if err != nil {
		return nil, err
	}
	return protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(tree)
}

func nodeValues(nodes []parser.Node) []any {
	return collections.MapSlice(nodes, func(node parser.Node) any { return nodeValue(node) })
}

func nodeValue(node parser.Node) map[string]any {
	value := map[string]any{"kind": node.Kind().String()}
	switch n := node.(type) {
	case *parser.Text:
		value["line"] = n.Token.Location.Line
		value["text"] = n.Token.Text
	case *parser.Define:
		value["line"] = n.Location.Line
		value["name"] = n.Name
		if n.IsFunction {
			value["formals"] = collections.MapSlice(n.Formals, func(f string) any { return f })
		}
		value["body"] = n.Body.String()
	case *parser.Undef:
		value["line"] = n.Location.Line
		value["name"] = n.Name
	case *parser.Error:
		value["line"] = n.Location.Line
		value["message"] = n.Message.String()
	case *parser.Include:
		value["line"] = n.Location.Line
		value["path"] = n.Path
	case *parser.Version:
		value["line"] = n.Location.Line
		value["directive"] = n.String()
	case *parser.Extension:
		value["line"] = n.Location.Line
		value["directive"] = n.String()
	case *parser.Pragma:
		value["line"] = n.Location.Line
		value["directive"] = n.String()
	case *parser.Line:
		value["line"] = n.Location.Line
		value["directive"] = n.String()
	case *parser.Null:
		value["line"] = n.Location.Line
	case *parser.Conditional:
		value["line"] = n.Location.Line
		value["directive"] = n.Directive.String()
		if n.Condition != nil {
			value["condition"] = n.Condition.String()
		} else {
			value["condition"] = n.Identifier
		}
		value["then"] = nodeValues(n.True)
		if n.False != nil {
			value["else"] = nodeValue(n.False)
		}
	case *parser.ElseBranch:
		value["line"] = n.Location.Line
		value["body"] = nodeValues(n.Body)
	}
	return value
}
