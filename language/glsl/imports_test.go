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
	"testing"

	"github.com/bazelbuild/bazel-gazelle/resolve"
	"github.com/bazelbuild/bazel-gazelle/rule"
	"github.com/stretchr/testify/assert"
)

func TestTransformIncludePath(t *testing.T) {
	const libRel = "shaders/pbr"
	const hdrRel = "shaders/pbr/brdf/ggx.glsl"

	testCases := []struct {
		stripIncludePrefix string
		includePrefix      string
		expectedResult     string
	}{
		{stripIncludePrefix: "", includePrefix: "", expectedResult: "shaders/pbr/brdf/ggx.glsl"},
		{stripIncludePrefix: "", includePrefix: "pbr", expectedResult: "pbr/brdf/ggx.glsl"},
		{stripIncludePrefix: "/shaders", includePrefix: "", expectedResult: "pbr/brdf/ggx.glsl"},
		{stripIncludePrefix: "/shaders", includePrefix: "lib", expectedResult: "lib/pbr/brdf/ggx.glsl"},
		{stripIncludePrefix: "brdf", includePrefix: "", expectedResult: "ggx.glsl"},
		{stripIncludePrefix: "brdf", includePrefix: "lib", expectedResult: "lib/ggx.glsl"},
	}

	for _, tc := range testCases {
		result := transformIncludePath(libRel, tc.stripIncludePrefix, tc.includePrefix, hdrRel)
		assert.Equal(t, tc.expectedResult, result, "stripIncludePrefix=%q, includePrefix=%q", tc.stripIncludePrefix, tc.includePrefix)
	}
}

func TestImports(t *testing.T) {
	lang := NewLanguage().(*glslLanguage)
	c, _ := newTestConfig(t, lang)

	testCases := []struct {
		name            string
		ruleKind        string
		ruleAttrs       map[string]any
		expectedImports []string
	}{
		{
			name:            "library with hdrs",
			ruleKind:        "glsl_library",
			ruleAttrs:       map[string]any{"hdrs": []string{"common.glsl", "lights.glsl"}},
			expectedImports: []string{"pkg/common.glsl", "pkg/lights.glsl"},
		},
		{
			name:     "library with strip_include_prefix",
			ruleKind: "glsl_library",
			ruleAttrs: map[string]any{
				"hdrs":                 []string{"include/common.glsl"},
				"strip_include_prefix": "include",
			},
			expectedImports: []string{"pkg/include/common.glsl", "common.glsl"},
		},
		{
			name:     "library with include_prefix",
			ruleKind: "glsl_library",
			ruleAttrs: map[string]any{
				"hdrs":           []string{"common.glsl"},
				"include_prefix": "engine",
			},
			expectedImports: []string{"pkg/common.glsl", "engine/common.glsl"},
		},
		{
			name:     "library with includes",
			ruleKind: "glsl_library",
			ruleAttrs: map[string]any{
				"hdrs":     []string{"include/common.glsl", "include/ext/noise.glsl", "other.glsl"},
				"includes": []string{"include", "include/ext"},
			},
			expectedImports: []string{
				"pkg/include/common.glsl", "common.glsl",
				"pkg/include/ext/noise.glsl", "ext/noise.glsl", "noise.glsl",
				"pkg/other.glsl",
			},
		},
		{
			name:     "library with includes dot",
			ruleKind: "glsl_library",
			ruleAttrs: map[string]any{
				"hdrs":     []string{"common.glsl"},
				"includes": []string{"."},
			},
			expectedImports: []string{"pkg/common.glsl", "common.glsl"},
		},
		{
			name:            "shaders are not importable",
			ruleKind:        "glsl_shader",
			ruleAttrs:       map[string]any{"src": "blur.frag"},
			expectedImports: nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := rule.NewRule(tc.ruleKind, "test_rule")
			for k, v := range tc.ruleAttrs {
				r.SetAttr(k, v)
			}
			imports := lang.Imports(c, r, &rule.File{Pkg: "pkg"})

			var paths []string
			for _, imp := range imports {
				assert.Equal(t, languageName, imp.Lang)
				paths = append(paths, imp.Imp)
			}
			assert.Equal(t, tc.expectedImports, paths)
		})
	}
}

func TestImportSpecsAreTaggedWithLanguage(t *testing.T) {
	lang := NewLanguage().(*glslLanguage)
	c, _ := newTestConfig(t, lang)
	r := rule.NewRule("glsl_library", "lib")
	r.SetAttr("hdrs", []string{"a.glsl"})
	assert.Equal(t, []resolve.ImportSpec{{Lang: "glsl", Imp: "lib/a.glsl"}}, lang.Imports(c, r, &rule.File{Pkg: "lib"}))
}
