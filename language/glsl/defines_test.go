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

	"github.com/bazelbuild/bazel-gazelle/rule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadRule(t *testing.T, content string) *rule.Rule {
	t.Helper()
	f, err := rule.LoadData("BUILD.bazel", "", []byte(content))
	require.NoError(t, err)
	require.Len(t, f.Rules, 1)
	return f.Rules[0]
}

func TestStringsOfExpr(t *testing.T) {
	testCases := []struct {
		defines  string
		expected []string
	}{
		{defines: `[]`, expected: nil},
		{defines: `["A", "B=2"]`, expected: []string{"A", "B=2"}},
		{defines: `["A"] + ["B"]`, expected: []string{"A", "B"}},
		{
			defines:  `["A"] + select({"//conditions:default": ["B"], "@platforms//os:android": ["GL_ES"]})`,
			expected: []string{"A", "B"},
		},
		{defines: `select({"@platforms//os:android": ["GL_ES"]})`, expected: nil},
	}

	for _, tc := range testCases {
		r := loadRule(t, `glsl_shader(name = "s", defines = `+tc.defines+`)`)
		values, err := stringsOfExpr(r.Attr("defines"))
		require.NoError(t, err, tc.defines)
		assert.Equal(t, tc.expected, values, tc.defines)
	}
}

func TestStringsOfExprErrors(t *testing.T) {
	for _, defines := range []string{`DEFINES`, `["A"] * 2`, `glob(["*.txt"])`, `select("x")`} {
		r := loadRule(t, `glsl_shader(name = "s", defines = `+defines+`)`)
		_, err := stringsOfExpr(r.Attr("defines"))
		assert.Error(t, err, defines)
	}
}

func TestMacrosForRule(t *testing.T) {
	conf := newGlslConfig()

	macros, err := macrosForRule(conf, nil)
	require.NoError(t, err)
	assert.Same(t, conf.macros, macros)

	r := loadRule(t, `glsl_shader(name = "s", defines = ["USE_NOISE", "LIGHTS=4"])`)
	macros, err = macrosForRule(conf, r)
	require.NoError(t, err)
	assert.True(t, macros.IsDefined("USE_NOISE"))
	assert.True(t, macros.IsDefined("LIGHTS"))
	assert.False(t, conf.macros.IsDefined("USE_NOISE"), "configured macros are not modified")

	r = loadRule(t, `glsl_shader(name = "s", defines = ["OK", "1BAD"])`)
	macros, err = macrosForRule(conf, r)
	assert.ErrorContains(t, err, `glsl_shader(name = "s") defines`)
	assert.True(t, macros.IsDefined("OK"))
}
