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
	"flag"
	"log"
	"path/filepath"
	"slices"
	"strings"

	"github.com/EngFlow/gazelle_glsl/internal/glsl/preprocessor"
	"github.com/EngFlow/gazelle_glsl/internal/index"
	"github.com/bazelbuild/bazel-gazelle/config"
	"github.com/bazelbuild/bazel-gazelle/rule"
	"github.com/bmatcuk/doublestar/v4"
)

const (
	extensionsDirective      = "glsl_extensions"
	defineDirective          = "glsl_define"
	includeDirDirective      = "glsl_include_dir"
	dependencyIndexDirective = "glsl_dependency_index"
)

func (*glslLanguage) RegisterFlags(fs *flag.FlagSet, cmd string, c *config.Config) {}
func (*glslLanguage) CheckFlags(fs *flag.FlagSet, c *config.Config) error          { return nil }
func (*glslLanguage) KnownDirectives() []string {
	return []string{
		extensionsDirective,
		defineDirective,
		includeDirDirective,
		dependencyIndexDirective,
	}
}

func (*glslLanguage) Configure(c *config.Config, rel string, f *rule.File) {
	var conf *glslConfig
	if parentConf, ok := c.Exts[languageName]; !ok {
		conf = newGlslConfig()
	} else {
		conf = parentConf.(*glslConfig).clone()
	}
	c.Exts[languageName] = conf

	if f == nil {
		return
	}
	definesChanged := false
	for _, d := range f.Directives {
		switch d.Key {
		case extensionsDirective:
			conf.setSourcePatterns(d.Value)
		case defineDirective:
			if d.Value == "" {
				log.Printf("gazelle_glsl: %v: directive %v requires a macro definition", rel, d.Key)
				continue
			}
			conf.defines = append(conf.defines, strings.Fields(d.Value)...)
			definesChanged = true
		case includeDirDirective:
			conf.includeDirs = append(conf.includeDirs, filepath.ToSlash(filepath.Clean(d.Value)))
		case dependencyIndexDirective:
			indexPath := d.Value
			if !filepath.IsAbs(indexPath) {
				indexPath = filepath.Join(c.RepoRoot, indexPath)
			}
			dependencyIndex, err := index.LoadFromFile(indexPath)
			if err != nil {
				log.Printf("gazelle_glsl: failed to load dependency index %v: %v", indexPath, err)
				continue
			}
			conf.dependencyIndexes = append(conf.dependencyIndexes, dependencyIndex)
		}
	}
	if definesChanged {
		macros, err := preprocessor.ParseMacros(conf.defines)
		if err != nil {
			log.Printf("gazelle_glsl: %v: invalid %v directive: %v", rel, defineDirective, err)
		}
		conf.macros = macros
	}
}

type glslConfig struct {
	// doublestar patterns selecting the GLSL files of a package
	sourcePatterns []string
	// Macros in -D syntax under which conditional includes are evaluated
	defines []string
	macros  *preprocessor.MacroTable
	// Repository relative directories searched for quoted includes
	includeDirs       []string
	dependencyIndexes []index.DependencyIndex
}

var defaultSourcePatterns = []string{
	"*.{glsl,glslh,glslinc}",
	"*.{vert,tesc,tese,geom,frag,comp,mesh,task}",
	"*.{rgen,rint,rahit,rchit,rmiss,rcall}",
}

func getGlslConfig(c *config.Config) *glslConfig {
	return c.Exts[languageName].(*glslConfig)
}

func newGlslConfig() *glslConfig {
	return &glslConfig{
		sourcePatterns: defaultSourcePatterns,
		macros:         preprocessor.NewMacroTable(),
	}
}

func (conf *glslConfig) clone() *glslConfig {
	copy := *conf
	copy.defines = slices.Clone(conf.defines)
	copy.includeDirs = slices.Clone(conf.includeDirs)
	copy.dependencyIndexes = slices.Clone(conf.dependencyIndexes)
	return &copy
}

func (conf *glslConfig) setSourcePatterns(value string) {
	if value == "default" {
		conf.sourcePatterns = defaultSourcePatterns
		return
	}
	var patterns []string
	for _, pattern := range strings.Fields(value) {
		if !doublestar.ValidatePattern(pattern) {
			log.Printf("gazelle_glsl: invalid pattern %q in directive %v, it would be ignored", pattern, extensionsDirective)
			continue
		}
		patterns = append(patterns, pattern)
	}
	conf.sourcePatterns = patterns
}

// Reports whether the package relative file name is a GLSL source.
func (conf *glslConfig) isSource(name string) bool {
	return slices.ContainsFunc(conf.sourcePatterns, func(pattern string) bool {
		return doublestar.MatchUnvalidated(pattern, name)
	})
}
