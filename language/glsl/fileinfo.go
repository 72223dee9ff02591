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
	"path"
	"path/filepath"

	"github.com/EngFlow/gazelle_glsl/internal/collections"
	"github.com/EngFlow/gazelle_glsl/internal/glsl/parser"
	"github.com/EngFlow/gazelle_glsl/internal/glsl/preprocessor"
	"github.com/bazelbuild/bazel-gazelle/language"
)

// glslInclude is a quoted #include of a GLSL file.
type glslInclude struct {
	// Repository root relative path of the file containing the directive.
	sourceFile string
	lineNumber int
	// Path as written in the directive.
	rawPath string
	// rawPath relative to the repository root, resolved against the directory of sourceFile.
	normalizedPath string
}

type glslImports struct {
	includes []glslInclude
}

// fileInfo collects metadata about an individual GLSL file.
type fileInfo struct {
	// Relative path to the file from the directory containing the build file.
	name string
	// Pipeline stage for shader files, empty for files that are only included.
	stage string
	// Includes reachable under the macros the file is compiled with.
	includes []glslInclude
}

// getFileInfo parses a file and returns metadata describing it.
func getFileInfo(args language.GenerateArgs, macros *preprocessor.MacroTable, name string) (fileInfo, error) {
	program, err := parser.ParseSourceFile(filepath.Join(args.Dir, name))
	if err != nil {
		return fileInfo{}, err
	}
	sourceFile := path.Join(args.Rel, filepath.ToSlash(name))
	reachable := preprocessor.Summarize(program).CollectReachableIncludes(macros)
	return fileInfo{
		name:  name,
		stage: shaderStage(name),
		includes: collections.MapSlice(reachable, func(include preprocessor.Include) glslInclude {
			return glslInclude{
				sourceFile:     sourceFile,
				lineNumber:     include.Line,
				rawPath:        include.Path,
				normalizedPath: path.Join(path.Dir(sourceFile), include.Path),
			}
		}),
	}, nil
}

func collectImports(files []fileInfo) glslImports {
	return glslImports{includes: collections.FlatMapSlice(files, func(f fileInfo) []glslInclude { return f.includes })}
}
