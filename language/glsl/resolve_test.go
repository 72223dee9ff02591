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
	"os"
	"path/filepath"
	"testing"

	"github.com/bazelbuild/bazel-gazelle/label"
	"github.com/bazelbuild/bazel-gazelle/resolve"
	"github.com/bazelbuild/bazel-gazelle/rule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDependencyIndex = `{
	"noise/simplex.glsl": ["@noise//glsl:simplex"],
	"ambiguous.glsl": ["@a//:lib", "@b//:lib"]
}`

func newInclude(sourceFile, rawPath string) glslInclude {
	return glslInclude{
		sourceFile:     sourceFile,
		rawPath:        rawPath,
		normalizedPath: filepath.ToSlash(filepath.Join(filepath.Dir(sourceFile), rawPath)),
	}
}

func TestResolve(t *testing.T) {
	lang := NewLanguage().(*glslLanguage)
	c, cexts := newTestConfig(t, lang)
	require.NoError(t, os.WriteFile(filepath.Join(c.RepoRoot, "deps.glslindex"), []byte(testDependencyIndex), 0o644))
	configurePackage(t, c, cexts, "", `
# gazelle:glsl_include_dir engine/include
# gazelle:glsl_dependency_index deps.glslindex
# gazelle:resolve glsl override.glsl //overrides:glsl
`)

	ix := resolve.NewRuleIndex(func(r *rule.Rule, pkgRel string) resolve.Resolver { return lang })
	libraries := []struct {
		pkg, name string
		hdrs      []string
	}{
		{pkg: "shaders/common", name: "common", hdrs: []string{"math.glsl"}},
		{pkg: "engine/include", name: "include", hdrs: []string{"lights.glsl"}},
		{pkg: "shaders", name: "shaders", hdrs: []string{"local.glsl"}},
	}
	for _, lib := range libraries {
		r := rule.NewRule("glsl_library", lib.name)
		r.SetAttr("hdrs", lib.hdrs)
		ix.AddRule(c, r, &rule.File{Pkg: lib.pkg})
	}
	ix.Finish()

	t.Run("shader", func(t *testing.T) {
		r := rule.NewRule("glsl_shader", "blur_frag")
		imports := glslImports{includes: []glslInclude{
			newInclude("shaders/blur.frag", "common/math.glsl"),
			newInclude("shaders/blur.frag", "lights.glsl"),
			newInclude("shaders/blur.frag", "local.glsl"),
			newInclude("shaders/blur.frag", "noise/simplex.glsl"),
			newInclude("shaders/blur.frag", "override.glsl"),
			newInclude("shaders/blur.frag", "missing.glsl"),
			newInclude("shaders/blur.frag", "ambiguous.glsl"),
			newInclude("shaders/blur.frag", "local.glsl"),
		}}
		lang.Resolve(c, ix, nil, r, imports, label.New("", "shaders", "blur_frag"))

		assert.Equal(t, []string{
			"//engine/include",
			"//overrides:glsl",
			"//shaders/common",
			":shaders",
			"@noise//glsl:simplex",
		}, r.AttrStrings("deps"))
		assert.True(t, lang.reportedAmbiguous["ambiguous.glsl"])
	})

	t.Run("library including its own header", func(t *testing.T) {
		r := rule.NewRule("glsl_library", "shaders")
		imports := glslImports{includes: []glslInclude{newInclude("shaders/lights.glsl", "local.glsl")}}
		lang.Resolve(c, ix, nil, r, imports, label.New("", "shaders", "shaders"))
		assert.Nil(t, r.Attr("deps"))
	})

	t.Run("no imports", func(t *testing.T) {
		r := rule.NewRule("glsl_shader", "empty_frag")
		lang.Resolve(c, ix, nil, r, nil, label.New("", "shaders", "empty_frag"))
		assert.Nil(t, r.Attr("deps"))
	})
}

func TestIncludeCandidates(t *testing.T) {
	conf := newGlslConfig()
	conf.includeDirs = []string{"engine/include", "shaders"}

	assert.Equal(t,
		[]string{"shaders/fx/util.glsl", "engine/include/util.glsl", "shaders/util.glsl", "util.glsl"},
		includeCandidates(conf, newInclude("shaders/fx/blur.frag", "util.glsl")))

	// Duplicates are only tried once.
	assert.Equal(t,
		[]string{"shaders/util.glsl", "engine/include/util.glsl", "util.glsl"},
		includeCandidates(conf, newInclude("shaders/blur.frag", "util.glsl")))
}
