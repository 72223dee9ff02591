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

package preprocessor

import (
	"errors"
	"io"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/EngFlow/gazelle_glsl/internal/glsl/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func translate(t *testing.T, tr *Translator, source string) (string, error) {
	t.Helper()
	return tr.Translate("main.glsl", strings.NewReader(source))
}

func TestTranslate(t *testing.T) {
	testCases := []struct {
		name     string
		source   string
		expected string
	}{
		{
			name:     "plain text",
			source:   "void main() {\n  gl_FragColor = vec4(1.0);\n}\n",
			expected: "void main() {\n  gl_FragColor = vec4(1.0);\n}\n",
		},
		{
			name:     "object macro",
			source:   "#define N 4\nfloat a[N];\n",
			expected: "\nfloat a[4];\n",
		},
		{
			name:     "function macro",
			source:   "#define SQ(x) ((x)*(x))\nfloat b = SQ(a+1);\n",
			expected: "\nfloat b = ( ( a+1 ) * ( a+1 ) );\n",
		},
		{
			name:     "rescan",
			source:   "#define A B\n#define B 2\nint x = A;\n",
			expected: "\n\nint x = 2;\n",
		},
		{
			name:     "self reference",
			source:   "#define X X + 1\nint y = X;\n",
			expected: "\nint y = X + 1;\n",
		},
		{
			name:     "arity mismatch",
			source:   "#define F(a, b) a\nF(1);\n",
			expected: "\nF(1);\n",
		},
		{
			name:     "function macro name without arguments",
			source:   "#define F(a) a\nvec3 F;\n",
			expected: "\nvec3 F;\n",
		},
		{
			name:     "nested arguments",
			source:   "#define FIRST(a, b) a\nFIRST(max(1, 2), 3)\n",
			expected: "\nmax(1, 2)\n",
		},
		{
			name:     "macro in its own arguments",
			source:   "#define MAX3(a, b) max(a, b)\nfloat m = MAX3(MAX3(x,y),z);\n",
			expected: "\nfloat m = max ( max ( x , y ) , z );\n",
		},
		{
			name:     "nested function macro",
			source:   "#define SQ(x) ((x)*(x))\nfloat b = SQ(SQ(r));\n",
			expected: "\nfloat b = ( ( ( ( r ) * ( r ) ) ) * ( ( ( r ) * ( r ) ) ) );\n",
		},
		{
			name:     "arguments expanded before substitution",
			source:   "#define N 3\n#define ID(a) a\nint n = ID(ID(N));\n",
			expected: "\n\nint n = 3;\n",
		},
		{
			name:     "numbers are not macro names",
			source:   "#define e 5\nfloat x = 1e3 + e;\n",
			expected: "\nfloat x = 1e3 + 5;\n",
		},
		{
			name:     "undef",
			source:   "#define N 1\n#undef N\nN\n",
			expected: "\n\nN\n",
		},
		{
			name:     "else branch",
			source:   "#ifdef GL_ES\nprecision mediump float;\n#else\nfloat x;\n#endif\n",
			expected: "\n\n\nfloat x;\n",
		},
		{
			name:     "elif branch",
			source:   "#define LEVEL 2\n#if LEVEL == 1\none\n#elif LEVEL == 2\ntwo\n#endif\n",
			expected: "\n\n\n\ntwo\n",
		},
		{
			name:     "kept directives",
			source:   "#version 330 core\n#extension GL_ARB_foo : enable\n#pragma debug(on)\nvoid main(){}\n",
			expected: "#version 330 core\n#extension GL_ARB_foo : enable\n#pragma debug ( on )\nvoid main(){}\n",
		},
		{
			name:     "dropped directives",
			source:   "#line 10\n#\nx\n",
			expected: "\n\nx\n",
		},
		{
			name:     "predefined",
			source:   "int v = __VERSION__;\n",
			expected: "int v = 150;\n",
		},
		{
			name:     "error in unselected branch",
			source:   "#if 0\n#error boom\n#endif\nok\n",
			expected: "\n\n\nok\n",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := translate(t, NewTranslator(NewMacroTable()), tc.source)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, out)
		})
	}
}

func TestTranslateKeepsLineNumbers(t *testing.T) {
	testCases := []struct {
		name     string
		source   string
		expected string
	}{
		{
			name:     "selected if",
			source:   "#if 1\nA\n#endif\nB\n",
			expected: "\nA\n\nB\n",
		},
		{
			name:     "directive spanning lines",
			source:   "#define X 1 /*\n\n*/\nY\n",
			expected: "\n\n\nY\n",
		},
		{
			name:     "skipped branches",
			source:   "#ifdef NOPE\na\nb\n#elif 1\nc\n#else\nd\n#endif\ne\n",
			expected: "\n\n\n\nc\n\n\n\ne\n",
		},
		{
			name:     "nested conditionals",
			source:   "#if 1\n#if 0\nx\n#endif\ny\n#endif\nz\n",
			expected: "\n\n\n\ny\n\nz\n",
		},
		{
			name:     "call spanning lines",
			source:   "#define F(a, b) a\nint x = F(1,\n 2);\ny\n",
			expected: "\nint x = 1;\n\ny\n",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := translate(t, NewTranslator(NewMacroTable()), tc.source)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, out)
			assert.Equal(t, strings.Count(tc.source, "\n"), strings.Count(out, "\n"))
		})
	}
}

func TestTranslateErrorDirective(t *testing.T) {
	_, err := translate(t, NewTranslator(nil), "#if 1\n#error unsupported target\n#endif\n")
	var errorDirective *ErrorDirective
	require.ErrorAs(t, err, &errorDirective)
	assert.Equal(t, "unsupported target", errorDirective.Message)
	assert.Equal(t, 2, errorDirective.Location.Line)
	assert.Equal(t, "main.glsl", errorDirective.File)
}

func TestTranslateSyntaxError(t *testing.T) {
	_, err := translate(t, NewTranslator(nil), "#endif\n")
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "main.glsl", parseErr.File)
	assert.True(t, strings.HasPrefix(err.Error(), "main.glsl: "), err.Error())

	var syntaxErr *parser.SyntaxError
	require.ErrorAs(t, err, &syntaxErr)
	assert.Equal(t, 1, syntaxErr.Location.Line)
}

func TestTranslateHeader(t *testing.T) {
	tr := NewTranslator(NewMacroTable())
	tr.Header = "#define HDR 1\n"
	out, err := translate(t, tr, "int h = HDR;\n")
	require.NoError(t, err)
	assert.Equal(t, "\nint h = 1;\n", out)
}

func mapOpener(fsys fstest.MapFS) func(string) (io.ReadCloser, error) {
	return func(name string) (io.ReadCloser, error) {
		return fsys.Open(name)
	}
}

func TestTranslateIncludes(t *testing.T) {
	fsys := fstest.MapFS{
		"common.glsl":    {Data: []byte("#define SCALE 2\nfloat scale() { return SCALE; }\n")},
		"lib/noise.glsl": {Data: []byte("float noise();\n")},
	}
	tr := NewTranslator(NewMacroTable())
	tr.IncludePath = []string{"lib"}
	tr.Open = mapOpener(fsys)

	out, err := translate(t, tr, "#include \"common.glsl\"\n#include \"noise.glsl\"\nfloat y = SCALE;\n")
	require.NoError(t, err)
	assert.Equal(t, "\nfloat scale() { return 2; }\n\nfloat noise();\n\nfloat y = 2;\n", out)
}

func TestTranslateParsesRepeatedIncludesOnce(t *testing.T) {
	fsys := fstest.MapFS{
		"part.glsl": {Data: []byte("x\n")},
	}
	tr := NewTranslator(NewMacroTable())
	tr.Open = mapOpener(fsys)

	out, err := translate(t, tr, "#include \"part.glsl\"\n#include \"part.glsl\"\n")
	require.NoError(t, err)
	assert.Equal(t, "x\n\nx\n\n", out)
	assert.Len(t, tr.cache, 2)
}

func TestTranslateIncludeErrors(t *testing.T) {
	fsys := fstest.MapFS{
		"main.glsl": {Data: []byte("#include \"a.glsl\"\n")},
		"a.glsl":    {Data: []byte("#include \"b.glsl\"\n")},
		"b.glsl":    {Data: []byte("#include \"main.glsl\"\n")},
	}

	testCases := []struct {
		name     string
		source   string
		expected error
		path     string
	}{
		{name: "missing", source: "#include \"missing.glsl\"\n", expected: ErrIncludeNotFound, path: "missing.glsl"},
		{name: "cycle", source: "#include \"a.glsl\"\n", expected: ErrIncludeCycle, path: "main.glsl"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tr := NewTranslator(NewMacroTable())
			tr.Open = mapOpener(fsys)
			_, err := translate(t, tr, tc.source)
			require.ErrorIs(t, err, tc.expected)

			var includeErr *IncludeError
			require.True(t, errors.As(err, &includeErr))
			assert.Equal(t, tc.path, includeErr.Path)
		})
	}
}

func TestExpandText(t *testing.T) {
	table := NewMacroTable()
	apply(t, table, "#define PI 3.14159\n#define DEG(x) (x * PI / 180.0)\n#define ZERO() 0\n")
	tr := NewTranslator(table)

	assert.Equal(t, "float r = ( 90.0 * 3.14159 / 180.0 );", tr.ExpandText("float r = DEG(90.0);"))
	assert.Equal(t, "int z = 0;", tr.ExpandText("int z = ZERO();"))
	assert.Equal(t, "PIE", tr.ExpandText("PIE"))
	assert.Equal(t, "DEG(", tr.ExpandText("DEG("))
	assert.Equal(t, "( ( 90.0 * 3.14159 / 180.0 ) * 3.14159 / 180.0 )", tr.ExpandText("DEG(DEG(90.0))"))
	assert.Equal(t, "( 0 * 3.14159 / 180.0 )", tr.ExpandText("DEG(ZERO())"))
}
