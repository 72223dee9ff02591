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

// glslpp preprocesses GLSL shaders: macros are expanded, conditionals are resolved and quoted includes are inlined.
// Directives are replaced by empty lines so that line numbers reported by the shader compiler stay valid.
//
// Usage:
//
//	glslpp [flags] <input patterns...>
//
// Inputs are doublestar patterns, e.g. 'shaders/**/*.frag'. Files ending with .xz are decompressed on the fly.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/EngFlow/gazelle_glsl/internal/glsl/parser"
	"github.com/EngFlow/gazelle_glsl/internal/glsl/preprocessor"
)

// stringList is a repeatable flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(value string) error {
	*s = append(*s, value)
	return nil
}

type options struct {
	macros      *preprocessor.MacroTable
	includeDirs []string
	header      string
	dump        bool
	jobs        int
}

type result struct {
	input  string
	output []byte
	err    error
}

func main() {
	log.SetFlags(0)
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("glslpp", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var defines, includeDirs stringList
	fs.Var(&defines, "D", "Define a macro as NAME or NAME=VALUE, may be repeated")
	fs.Var(&includeDirs, "I", "Add a directory searched for quoted includes, may be repeated")
	header := fs.String("header", "", "File preprocessed before every input, e.g. shared definitions")
	outputDir := fs.String("o", "", "Directory for the preprocessed files, stdout is used when empty")
	dump := fs.Bool("dump", false, "Print the parsed directive tree as JSON instead of preprocessing")
	jobs := fs.Int("j", runtime.NumCPU(), "Number of inputs processed concurrently")
	color := fs.String("color", "auto", "Color diagnostics: auto, always or never")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(stderr, "glslpp: no input files")
		fs.Usage()
		return 2
	}

	macros, err := preprocessor.ParseMacros(defines)
	if err != nil {
		fmt.Fprintf(stderr, "glslpp: invalid -D: %v\n", err)
		return 2
	}
	inputs, err := expandInputs(fs.Args())
	if err != nil {
		fmt.Fprintf(stderr, "glslpp: %v\n", err)
		return 2
	}
	opts := options{macros: macros, includeDirs: includeDirs, dump: *dump, jobs: *jobs}
	if *header != "" {
		content, err := readSource(*header)
		if err != nil {
			fmt.Fprintf(stderr, "glslpp: %v\n", err)
			return 2
		}
		opts.header = string(content)
	}

	diags := newDiagnostics()
	for _, res := range processAll(inputs, opts) {
		if res.err != nil {
			diags.add(sourceName(res.input), res.err)
			continue
		}
		if err := writeOutput(res, *outputDir, opts.dump, stdout); err != nil {
			diags.add(sourceName(res.input), err)
		}
	}
	if diags.len() > 0 {
		diags.write(stderr, useColor(*color, stderr))
		return 1
	}
	return 0
}

// Processes inputs concurrently, at most opts.jobs at a time. Results are in input order.
func processAll(inputs []string, opts options) []result {
	results := make([]result, len(inputs))
	sem := make(chan struct{}, max(opts.jobs, 1))
	var wg sync.WaitGroup
	for i, input := range inputs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			output, err := process(input, opts)
			results[i] = result{input: input, output: output, err: err}
		}()
	}
	wg.Wait()
	return results
}

func process(input string, opts options) ([]byte, error) {
	src, err := openSource(input)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	if opts.dump {
		program, err := parser.ParseReader(src)
		if err != nil {
			return nil, &preprocessor.ParseError{File: sourceName(input), Err: err}
		}
		return dumpProgram(program)
	}

	// Each input starts from the command line macros.
	translator := preprocessor.NewTranslator(opts.macros.Clone())
	translator.IncludePath = opts.includeDirs
	translator.Header = opts.header
	translator.Open = openSource
	output, err := translator.Translate(sourceName(input), src)
	return []byte(output), err
}

func readSource(name string) ([]byte, error) {
	src, err := openSource(name)
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return io.ReadAll(src)
}

func writeOutput(res result, outputDir string, dump bool, stdout io.Writer) error {
	if outputDir == "" {
		_, err := stdout.Write(res.output)
		if err == nil && dump {
			_, err = io.WriteString(stdout, "\n")
		}
		return err
	}
	name := filepath.Base(sourceName(res.input))
	if dump {
		name += ".json"
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outputDir, name), res.output, 0o644)
}
