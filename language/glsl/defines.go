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

package glsl

import (
	"errors"
	"fmt"
	"slices"

	"github.com/EngFlow/gazelle_glsl/internal/glsl/preprocessor"
	"github.com/bazelbuild/bazel-gazelle/rule"
	bzl "github.com/bazelbuild/buildtools/build"
)

const (
	selectFunctionName = "select"
	selectDefaultKey   = "//conditions:default"
)

func parseSelectExpr(expr *bzl.CallExpr) (*bzl.DictExpr, error) {
	function, ok := expr.X.(*bzl.Ident)
	if !ok || function.Name != selectFunctionName || len(expr.List) != 1 {
		return nil, fmt.Errorf("expression could not be matched: callee other than select or wrong number of args")
	}
	arg, ok := expr.List[0].(*bzl.DictExpr)
	if !ok {
		return nil, fmt.Errorf("expression could not be matched: select argument not dict")
	}
	return arg, nil
}

// Collects the strings of a `defines` attribute expression. The matched expression is built from string lists,
// `+` concatenation and select(); a select contributes its default branch since the target configuration is not
// known when generating rules.
func stringsOfExpr(expr bzl.Expr) ([]string, error) {
	switch expr := expr.(type) {
	case nil:
		return nil, nil
	case *bzl.StringExpr:
		return []string{expr.Value}, nil
	case *bzl.ListExpr:
		var values []string
		for _, elem := range expr.List {
			elemValues, err := stringsOfExpr(elem)
			if err != nil {
				return nil, err
			}
			values = append(values, elemValues...)
		}
		return values, nil
	case *bzl.BinaryExpr:
		if expr.Op != "+" {
			return nil, fmt.Errorf("expression could not be matched: binary expression with unsupported operator %q", expr.Op)
		}
		left, err := stringsOfExpr(expr.X)
		if err != nil {
			return nil, err
		}
		right, err := stringsOfExpr(expr.Y)
		if err != nil {
			return nil, err
		}
		return slices.Concat(left, right), nil
	case *bzl.CallExpr:
		dict, err := parseSelectExpr(expr)
		if err != nil {
			return nil, err
		}
		for _, branch := range dict.List {
			if key, ok := branch.Key.(*bzl.StringExpr); ok && key.Value == selectDefaultKey {
				return stringsOfExpr(branch.Value)
			}
		}
		return nil, nil
	default:
		return nil, fmt.Errorf("expression could not be matched: unexpected expression type %T", expr)
	}
}

// Returns the macros for files of an existing rule: the configured macros extended by the rule's `defines`.
func macrosForRule(conf *glslConfig, r *rule.Rule) (*preprocessor.MacroTable, error) {
	if r == nil || r.Attr("defines") == nil {
		return conf.macros, nil
	}
	defines, err := stringsOfExpr(r.Attr("defines"))
	if err != nil {
		return conf.macros, fmt.Errorf("%s(name = %q) defines: %w", r.Kind(), r.Name(), err)
	}
	macros := conf.macros.Clone()
	var errs []error
	for _, define := range defines {
		d, err := preprocessor.ParseMacro(define)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		macros.Define(d)
	}
	if err := errors.Join(errs...); err != nil {
		return macros, fmt.Errorf("%s(name = %q) defines: %w", r.Kind(), r.Name(), err)
	}
	return macros, nil
}
