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

// Package glsl is a Gazelle extension generating glsl_library and glsl_shader rules. Dependencies are inferred from
// the quoted #include directives reachable under the configured macros.
package glsl

import (
	"path"
	"strings"

	"github.com/bazelbuild/bazel-gazelle/config"
	"github.com/bazelbuild/bazel-gazelle/label"
	"github.com/bazelbuild/bazel-gazelle/language"
	"github.com/bazelbuild/bazel-gazelle/rule"
)

const languageName = "glsl"

type glslLanguage struct {
	// Include paths already reported as ambiguous in a dependency index.
	reportedAmbiguous map[string]bool
}

func NewLanguage() language.Language {
	return &glslLanguage{reportedAmbiguous: map[string]bool{}}
}

func (*glslLanguage) Name() string                                        { return languageName }
func (*glslLanguage) Embeds(r *rule.Rule, from label.Label) []label.Label { return nil }
func (*glslLanguage) Fix(c *config.Config, f *rule.File)                  {}

func (*glslLanguage) Kinds() map[string]rule.KindInfo {
	return map[string]rule.KindInfo{
		"glsl_library": {
			NonEmptyAttrs:  map[string]bool{"hdrs": true},
			MergeableAttrs: map[string]bool{"hdrs": true},
			ResolveAttrs:   map[string]bool{"deps": true},
		},
		"glsl_shader": {
			NonEmptyAttrs:  map[string]bool{"src": true},
			MergeableAttrs: map[string]bool{"src": true, "stage": true},
			ResolveAttrs:   map[string]bool{"deps": true},
		},
	}
}

func (*glslLanguage) Loads() []rule.LoadInfo {
	return []rule.LoadInfo{
		{
			Name:    "@rules_glsl//glsl:defs.bzl",
			Symbols: []string{"glsl_library", "glsl_shader"},
		},
	}
}

// Shader stage by file extension, following the glslang naming convention.
var stageExtensions = map[string]string{
	".vert":  "vertex",
	".tesc":  "tess_control",
	".tese":  "tess_evaluation",
	".geom":  "geometry",
	".frag":  "fragment",
	".comp":  "compute",
	".mesh":  "mesh",
	".task":  "task",
	".rgen":  "raygen",
	".rint":  "intersect",
	".rahit": "anyhit",
	".rchit": "closesthit",
	".rmiss": "miss",
	".rcall": "callable",
}

// Returns the pipeline stage of a shader file, or "" for include-only sources.
func shaderStage(name string) string {
	return stageExtensions[strings.ToLower(path.Ext(name))]
}
