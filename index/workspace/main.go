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

// Command workspace indexes the glsl_library targets of a Bazel workspace, typically vendored shader libraries, and
// writes the include paths they expose to a file usable with the glsl_dependency_index directive.
package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/EngFlow/gazelle_glsl/index/internal/indexer"
)

func main() {
	selectors := defaultSelectors
	verbose := flag.Bool("verbose", false, "Enable verbose logging")
	output := flag.String("output", "./vendor.glslindex", "Output file path for index")
	repository := flag.String("repository", "", "Name of the repository the indexed targets are referenced with, empty for the main repository")
	flag.Var(&selectors, "select", "Repeated selectors for packages that should be indexed, e.g. //third_party/...")
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		log.Fatalf("Program requires exactly 1 argument - a path to the indexed workspace directory, typically $PWD. Flags needs to be defined before arguments")
	}
	root := flag.Arg(0)
	outputFile := *output
	if !filepath.IsAbs(outputFile) {
		outputFile = filepath.Join(root, outputFile)
	}

	var dirs []string
	for _, selector := range selectors.values {
		dir := selectorDir(selector)
		if info, err := os.Stat(filepath.Join(root, filepath.FromSlash(dir))); err != nil || !info.IsDir() {
			if !selectors.isDefault {
				log.Printf("No directory matches selector: '%s', it would be skipped", selector)
			}
			continue
		}
		dirs = append(dirs, dir)
	}

	module, err := indexer.LoadModule(root, *repository, dirs)
	if err != nil {
		log.Fatalf("Failed to load BUILD files of %s: %v", root, err)
	}
	indexingResult := indexer.CreateIncludeIndex([]indexer.Module{module})
	if err := indexingResult.WriteToFile(outputFile); err != nil {
		log.Fatalf("Failed to write index: %v", err)
	}

	if *verbose {
		log.Print(indexingResult.Summary())
	}
}

type selectorsList struct {
	values    []string
	isDefault bool
}

var defaultSelectors = selectorsList{
	values:    []string{"//third_party/...", "//external/...", "//vendored/..."},
	isDefault: true,
}

func (s *selectorsList) String() string {
	return strings.Join(s.values, ",")
}

func (s *selectorsList) Set(value string) error {
	if s.isDefault {
		s.values = []string{}
		s.isDefault = false
	}
	s.values = append(s.values, value)
	return nil
}

// Converts a package selector such as //third_party/... to the directory it covers.
func selectorDir(selector string) string {
	dir := strings.TrimPrefix(selector, "//")
	dir = strings.TrimSuffix(dir, "...")
	return strings.Trim(dir, "/")
}
