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
	"maps"
	"path"
	"slices"
	"strings"

	"github.com/EngFlow/gazelle_glsl/internal/collections"
	"github.com/bazelbuild/bazel-gazelle/config"
	"github.com/bazelbuild/bazel-gazelle/label"
	"github.com/bazelbuild/bazel-gazelle/repo"
	"github.com/bazelbuild/bazel-gazelle/resolve"
	"github.com/bazelbuild/bazel-gazelle/rule"
)

func (lang *glslLanguage) Resolve(c *config.Config, ix *resolve.RuleIndex, rc *repo.RemoteCache, r *rule.Rule, imports any, from label.Label) {
	if imports == nil {
		return
	}
	conf := getGlslConfig(c)
	deps := make(collections.Set[label.Label])
	for _, include := range imports.(glslImports).includes {
		resolvedLabel := label.NoLabel
		for _, candidate := range includeCandidates(conf, include) {
			if resolvedLabel = lang.resolveImportSpec(c, ix, from, resolve.ImportSpec{Lang: languageName, Imp: candidate}); resolvedLabel != label.NoLabel {
				break
			}
		}
		if resolvedLabel == label.NoLabel {
			// Missing files and headers of the rule itself end up here.
			continue
		}
		deps.Add(resolvedLabel.Rel(from.Repo, from.Pkg))
	}
	if len(deps) > 0 {
		r.SetAttr("deps", slices.SortedFunc(maps.Keys(deps), func(l, r label.Label) int {
			return strings.Compare(l.String(), r.String())
		}))
	}
}

// Repository relative paths a quoted include may refer to, in lookup order: next to the including file, under each
// configured include directory, and finally as written.
func includeCandidates(conf *glslConfig, include glslInclude) []string {
	candidates := collections.SetOf(include.normalizedPath)
	ordered := []string{include.normalizedPath}
	add := func(candidate string) {
		if candidates.Insert(candidate) {
			ordered = append(ordered, candidate)
		}
	}
	for _, dir := range conf.includeDirs {
		add(path.Join(dir, include.rawPath))
	}
	add(path.Clean(include.rawPath))
	return ordered
}

func (lang *glslLanguage) resolveImportSpec(c *config.Config, ix *resolve.RuleIndex, from label.Label, importSpec resolve.ImportSpec) label.Label {
	if resolvedLabel, ok := resolve.FindRuleWithOverride(c, importSpec, languageName); ok {
		return resolvedLabel
	}

	for _, searchResult := range ix.FindRulesByImportWithConfig(c, importSpec, languageName) {
		if !searchResult.IsSelfImport(from) {
			return searchResult.Label
		}
	}

	for _, dependencyIndex := range getGlslConfig(c).dependencyIndexes {
		resolvedLabel, ambiguous := dependencyIndex.Lookup(importSpec.Imp)
		if ambiguous && !lang.reportedAmbiguous[importSpec.Imp] {
			lang.reportedAmbiguous[importSpec.Imp] = true
			log.Printf("gazelle_glsl: %v: '#include %q' is provided by several targets %v, use '# gazelle:resolve glsl %v <label>' to select one",
				from, importSpec.Imp, dependencyIndex[importSpec.Imp], importSpec.Imp)
		}
		if resolvedLabel != label.NoLabel {
			return resolvedLabel
		}
	}
	return label.NoLabel
}
