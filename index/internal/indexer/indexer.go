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

// Package indexer maps the include paths of glsl_library targets to their labels. It is the common backend of the
// tools producing dependency indexes consumed through the glsl_dependency_index directive.
//
// Key types:
//   - Module: a Bazel repository and the glsl_library targets found in it.
//   - Target: a single glsl_library with the attributes shaping its include paths.
package indexer

import (
	"path"
	"slices"
	"strings"

	"github.com/EngFlow/gazelle_glsl/internal/collections"
	"github.com/EngFlow/gazelle_glsl/internal/index"
	"github.com/bazelbuild/bazel-gazelle/label"
	"github.com/bazelbuild/bazel-gazelle/pathtools"
)

type (
	Module struct {
		// Name of the external repository, empty for the main one
		Repository string
		Targets    []Target
	}
	Target struct {
		Name               label.Label
		Hdrs               collections.Set[label.Label]
		Includes           collections.Set[string] // include directories relative to the package
		StripIncludePrefix string
		IncludePrefix      string
	}
)

// CreateIncludeIndex indexes every header of modules under each include path it can be reached with. An include path
// exposed by more than one target maps to all of them.
func CreateIncludeIndex(modules []Module) index.DependencyIndex {
	result := make(index.DependencyIndex)
	for _, module := range modules {
		for _, target := range module.Targets {
			targetLabel := label.New(module.Repository, target.Name.Pkg, target.Name.Name)
			for _, hdr := range sortedLabels(target.Hdrs) {
				for _, includePath := range IndexableIncludePaths(hdr, target) {
					if shouldExcludeInclude(includePath) {
						continue
					}
					result[includePath] = append(result[includePath], targetLabel)
				}
			}
		}
	}
	return result
}

func sortedLabels(labels collections.Set[label.Label]) []label.Label {
	sorted := labels.Values()
	slices.SortFunc(sorted, func(a, b label.Label) int { return strings.Compare(a.String(), b.String()) })
	return sorted
}

func shouldExcludeInclude(includePath string) bool {
	if strings.TrimSpace(includePath) == "" {
		return true
	}
	for segment := range strings.SplitSeq(includePath, "/") {
		if strings.HasPrefix(segment, ".") || strings.HasPrefix(segment, "_") {
			return true
		}
		switch strings.ToLower(segment) {
		case "test", "tests", "testdata":
			return true
		}
	}
	return false
}

// IndexableIncludePaths returns every quoted #include path under which header is reachable for the sources depending
// on target:
//   - the path relative to the repository root,
//   - the virtual path after strip_include_prefix and include_prefix are applied,
//   - the path relative to each of the includes directories containing it.
func IndexableIncludePaths(header label.Label, target Target) []string {
	pkg := target.Name.Pkg
	fullPath := path.Join(header.Pkg, header.Name)
	paths := collections.SetOf(fullPath)

	if target.StripIncludePrefix != "" || target.IncludePrefix != "" {
		paths.Add(virtualIncludePath(pkg, target.StripIncludePrefix, target.IncludePrefix, fullPath))
	}

	for include := range target.Includes {
		relativeTo := path.Join(pkg, include)
		if relativeTo == "." || relativeTo == "" {
			// Includes of the root package expose the repository relative path, already added.
			continue
		}
		if rel, ok := strings.CutPrefix(fullPath, relativeTo+"/"); ok {
			paths.Add(rel)
		}
	}
	return collections.Sorted(paths)
}

func virtualIncludePath(pkg, stripIncludePrefix, includePrefix, fullPath string) string {
	var stripped string
	switch {
	case path.IsAbs(stripIncludePrefix):
		stripped = stripIncludePrefix[len("/"):]
	case stripIncludePrefix != "":
		stripped = path.Join(pkg, stripIncludePrefix)
	default:
		stripped = pkg
	}
	return path.Join(includePrefix, pathtools.TrimPrefix(fullPath, stripped))
}
