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
	"log"
	"path"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/EngFlow/gazelle_glsl/internal/collections"
	"github.com/bazelbuild/bazel-gazelle/config"
	"github.com/bazelbuild/bazel-gazelle/pathtools"
	"github.com/bazelbuild/bazel-gazelle/resolve"
	"github.com/bazelbuild/bazel-gazelle/rule"
	"github.com/bazelbuild/bazel-gazelle/walk"
	"github.com/bmatcuk/doublestar/v4"
)

func (*glslLanguage) Imports(c *config.Config, r *rule.Rule, f *rule.File) []resolve.ImportSpec {
	if r.Kind() != "glsl_library" {
		return nil
	}
	attrs, err := getPublicInterfaceAttributes(c, r, f.Pkg)
	if err != nil {
		log.Printf("gazelle_glsl: failed to collect attributes of %s(name = %q) defined in %s: %v", r.Kind(), r.Name(), f.Pkg, err)
		return nil
	}

	// Each header is indexed once for its repository relative path, once for its virtual path when the prefixes are
	// set, and at most once per matching include directory.
	imports := make([]resolve.ImportSpec, 0, len(attrs.hdrs)*(2+len(attrs.includes)))
	for _, hdr := range attrs.hdrs {
		fullyQualifiedPath := path.Join(f.Pkg, hdr)
		imports = append(imports, resolve.ImportSpec{Lang: languageName, Imp: fullyQualifiedPath})

		if virtualPath := transformIncludePath(f.Pkg, attrs.stripIncludePrefix, attrs.includePrefix, fullyQualifiedPath); virtualPath != fullyQualifiedPath {
			imports = append(imports, resolve.ImportSpec{Lang: languageName, Imp: virtualPath})
		}

		// With includes = ["include"] the header include/lights.glsl is also reachable as lights.glsl.
		for _, includeDir := range attrs.includes {
			relativeTo := path.Join(f.Pkg, includeDir)
			if includeDir == "." {
				relativeTo = f.Pkg
			}
			// The separator distinguishes includes = ["foo"] from a header foo.glsl
			relativePath, matching := strings.CutPrefix(fullyQualifiedPath, relativeTo+"/")
			if !matching {
				continue
			}
			imports = append(imports, resolve.ImportSpec{Lang: languageName, Imp: relativePath})
		}
	}
	return imports
}

type publicInterfaceAttributes struct {
	hdrs               []string
	includePrefix      string
	stripIncludePrefix string
	includes           []string
}

func getPublicInterfaceAttributes(c *config.Config, r *rule.Rule, pkg string) (publicInterfaceAttributes, error) {
	hdrs, err := collectStringsAttr(c, r, pkg, "hdrs")
	if err != nil {
		return publicInterfaceAttributes{}, err
	}
	return publicInterfaceAttributes{
		hdrs:               hdrs,
		includePrefix:      cleanPath(r.AttrString("include_prefix")),
		stripIncludePrefix: cleanPath(r.AttrString("strip_include_prefix")),
		includes:           collections.MapSlice(r.AttrStrings("includes"), cleanPath),
	}, nil
}

func cleanPath(p string) string {
	if p != "" {
		return path.Clean(p)
	}
	return p
}

// Applies strip_include_prefix and include_prefix of the library in libRel to the header hdrRel.
func transformIncludePath(libRel, stripIncludePrefix, includePrefix, hdrRel string) string {
	var effectiveStripIncludePrefix string
	switch {
	case path.IsAbs(stripIncludePrefix):
		effectiveStripIncludePrefix = stripIncludePrefix[len("/"):]
	case stripIncludePrefix != "":
		effectiveStripIncludePrefix = path.Join(libRel, stripIncludePrefix)
	case includePrefix != "":
		effectiveStripIncludePrefix = libRel
	}
	return path.Join(includePrefix, pathtools.TrimPrefix(hdrRel, effectiveStripIncludePrefix))
}

func collectStringsAttr(c *config.Config, r *rule.Rule, dir, attrName string) ([]string, error) {
	if ss := r.AttrStrings(attrName); ss != nil {
		return ss, nil
	}
	expr := r.Attr(attrName)
	if expr == nil {
		return nil, nil
	}
	if globValue, ok := rule.ParseGlobExpr(expr); ok {
		return expandGlob(c, dir, globValue)
	}
	return nil, nil
}

// Expands glob() of a rule in dir. Uses the directory listings cached by the walk so it must be called during the
// Gazelle run.
func expandGlob(c *config.Config, dir string, glob rule.GlobValue) ([]string, error) {
	validatedPatterns := func(patterns []string) []string {
		return collections.FilterSlice(patterns, doublestar.ValidatePattern)
	}
	includePatterns := validatedPatterns(glob.Patterns)
	if len(includePatterns) == 0 {
		return nil, errors.New("no valid include patterns found")
	}
	excludePatterns := validatedPatterns(glob.Excludes)
	matchesAny := func(patterns []string, name string) bool {
		return slices.ContainsFunc(patterns, func(pattern string) bool { return doublestar.MatchUnvalidated(pattern, name) })
	}

	var matched []string
	var traverse func(string)
	traverse = func(relativePath string) {
		di, err := walk.GetDirInfo(path.Join(dir, relativePath))
		if err != nil {
			return
		}
		// Subpackages own their files.
		if relativePath != "" && slices.ContainsFunc(di.RegularFiles, c.IsValidBuildFileName) {
			return
		}
		for _, file := range di.RegularFiles {
			name := path.Join(relativePath, file)
			if matchesAny(includePatterns, name) && !matchesAny(excludePatterns, name) {
				matched = append(matched, filepath.ToSlash(name))
			}
		}
		for _, subdir := range di.Subdirs {
			traverse(path.Join(relativePath, subdir))
		}
	}
	traverse("")
	sort.Strings(matched)
	return matched, nil
}
