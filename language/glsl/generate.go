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
	"log"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/EngFlow/gazelle_glsl/internal/collections"
	"github.com/bazelbuild/bazel-gazelle/language"
	"github.com/bazelbuild/bazel-gazelle/rule"
)

func (*glslLanguage) GenerateRules(args language.GenerateArgs) language.GenerateResult {
	conf := getGlslConfig(args.Config)
	existing := existingRules(args.File)
	libraryName := libraryRuleName(args)

	libraryMacros, err := macrosForRule(conf, existing[libraryName])
	if err != nil {
		log.Printf("gazelle_glsl: %v: %v", args.Rel, err)
	}

	var hdrs, shaders []fileInfo
	for _, file := range args.RegularFiles {
		if !conf.isSource(file) {
			continue
		}
		macros := libraryMacros
		if shaderStage(file) != "" {
			if macros, err = macrosForRule(conf, existing[shaderRuleName(file)]); err != nil {
				log.Printf("gazelle_glsl: %v: %v", args.Rel, err)
			}
		}
		info, err := getFileInfo(args, macros, file)
		if err != nil {
			log.Printf("gazelle_glsl: failed to parse %v: %v", path.Join(args.Rel, file), err)
			continue
		}
		if info.stage == "" {
			hdrs = append(hdrs, info)
		} else {
			shaders = append(shaders, info)
		}
	}

	var result language.GenerateResult
	generated := make(collections.Set[string])
	if len(hdrs) > 0 {
		r := rule.NewRule("glsl_library", libraryName)
		r.SetAttr("hdrs", collections.MapSlice(hdrs, func(f fileInfo) string { return f.name }))
		if args.File == nil || !args.File.HasDefaultVisibility() {
			r.SetAttr("visibility", []string{"//visibility:public"})
		}
		result.Gen = append(result.Gen, r)
		result.Imports = append(result.Imports, collectImports(hdrs))
		generated.Add(r.Name())
	}

	for _, shader := range shaders {
		r := rule.NewRule("glsl_shader", shaderRuleName(shader.name))
		r.SetAttr("src", shader.name)
		r.SetAttr("stage", shader.stage)
		result.Gen = append(result.Gen, r)
		result.Imports = append(result.Imports, collectImports([]fileInfo{shader}))
		generated.Add(r.Name())
	}

	// Rules whose sources are gone.
	for name, r := range existing {
		if generated.Contains(name) {
			continue
		}
		if r.Kind() == "glsl_library" && name != libraryName {
			continue
		}
		if r.Kind() == "glsl_shader" && slices.Contains(args.RegularFiles, r.AttrString("src")) {
			continue
		}
		result.Empty = append(result.Empty, rule.NewRule(r.Kind(), name))
	}
	slices.SortFunc(result.Empty, func(a, b *rule.Rule) int { return strings.Compare(a.Name(), b.Name()) })
	return result
}

// Existing rules of the kinds managed by this extension, by name.
func existingRules(f *rule.File) map[string]*rule.Rule {
	rules := map[string]*rule.Rule{}
	if f == nil {
		return rules
	}
	for _, r := range f.Rules {
		switch r.Kind() {
		case "glsl_library", "glsl_shader":
			rules[r.Name()] = r
		}
	}
	return rules
}

// The library is named after its directory, the repository root has no directory name of its own.
func libraryRuleName(args language.GenerateArgs) string {
	if args.Rel == "" {
		return "shaders"
	}
	return path.Base(args.Rel)
}

// blur.frag => blur_frag
func shaderRuleName(file string) string {
	base := filepath.Base(file)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + "_" + strings.TrimPrefix(ext, ".")
}
