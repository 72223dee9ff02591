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

package indexer

import (
	"io/fs"
	"log"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/EngFlow/gazelle_glsl/internal/collections"
	"github.com/bazelbuild/bazel-gazelle/label"
	"github.com/bazelbuild/bazel-gazelle/rule"
	"github.com/bmatcuk/doublestar/v4"
)

const libraryKind = "glsl_library"

var buildFileNames = []string{"BUILD.bazel", "BUILD"}

// LoadModule reads the glsl_library targets declared in the BUILD files of root, looking only into the packages
// under dirs (relative to root, "" for all of them).
func LoadModule(root, repository string, dirs []string) (Module, error) {
	module := Module{Repository: repository}
	for _, dir := range dirs {
		start := filepath.Join(root, filepath.FromSlash(dir))
		err := filepath.WalkDir(start, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			if p != start && (strings.HasPrefix(d.Name(), ".") || strings.HasPrefix(d.Name(), "bazel-")) {
				return filepath.SkipDir
			}
			rel, err := filepath.Rel(root, p)
			if err != nil {
				return err
			}
			targets, err := loadPackage(root, repository, filepath.ToSlash(rel))
			if err != nil {
				return err
			}
			module.Targets = append(module.Targets, targets...)
			return nil
		})
		if err != nil {
			return Module{}, err
		}
	}
	return module, nil
}

func findBuildFile(dir string) string {
	for _, name := range buildFileNames {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

func loadPackage(root, repository, pkg string) ([]Target, error) {
	if pkg == "." {
		pkg = ""
	}
	pkgDir := filepath.Join(root, filepath.FromSlash(pkg))
	buildFile := findBuildFile(pkgDir)
	if buildFile == "" {
		return nil, nil
	}
	f, err := rule.LoadFile(buildFile, pkg)
	if err != nil {
		return nil, err
	}

	var targets []Target
	for _, r := range f.Rules {
		if r.Kind() != libraryKind {
			continue
		}
		hdrs := collections.Set[label.Label]{}
		for _, hdr := range libraryHeaders(pkgDir, r) {
			parsed, err := label.Parse(hdr)
			if err != nil {
				log.Printf("Failed to parse header %q of %s(name = %q) in %s: %v", hdr, r.Kind(), r.Name(), pkg, err)
				continue
			}
			hdrs.Add(parsed.Abs(repository, pkg))
		}
		targets = append(targets, Target{
			Name:               label.New(repository, pkg, r.Name()),
			Hdrs:               hdrs,
			Includes:           collections.SetOf(r.AttrStrings("includes")...),
			StripIncludePrefix: r.AttrString("strip_include_prefix"),
			IncludePrefix:      r.AttrString("include_prefix"),
		})
	}
	return targets, nil
}

// Returns the hdrs of r, expanding glob() against the files of pkgDir not owned by a subpackage.
func libraryHeaders(pkgDir string, r *rule.Rule) []string {
	if hdrs := r.AttrStrings("hdrs"); hdrs != nil {
		return hdrs
	}
	expr := r.Attr("hdrs")
	if expr == nil {
		return nil
	}
	glob, ok := rule.ParseGlobExpr(expr)
	if !ok {
		log.Printf("Unsupported hdrs of %s(name = %q), only lists of strings and glob() are indexed", r.Kind(), r.Name())
		return nil
	}

	fsys := os.DirFS(pkgDir)
	matched := collections.Set[string]{}
	for _, pattern := range glob.Patterns {
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			log.Printf("Invalid glob pattern %q of %s(name = %q): %v", pattern, r.Kind(), r.Name(), err)
			continue
		}
		for _, match := range matches {
			excluded := slices.ContainsFunc(glob.Excludes, func(exclude string) bool {
				ok, _ := doublestar.Match(exclude, match)
				return ok
			})
			if !excluded && !ownedBySubpackage(pkgDir, match) {
				matched.Add(match)
			}
		}
	}
	return collections.Sorted(matched)
}

func ownedBySubpackage(pkgDir, file string) bool {
	for dir := path.Dir(file); dir != "."; dir = path.Dir(dir) {
		if findBuildFile(filepath.Join(pkgDir, filepath.FromSlash(dir))) != "" {
			return true
		}
	}
	return false
}
