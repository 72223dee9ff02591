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

package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"slices"
	"strings"

	"github.com/EngFlow/gazelle_glsl/internal/collections"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/ulikunitz/xz"
)

const xzSuffix = ".xz"

// Expands the doublestar patterns given on the command line. Each file is listed once, in the order of the first
// pattern matching it.
func expandInputs(patterns []string) ([]string, error) {
	seen := make(collections.Set[string])
	var inputs []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("%q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no input matches %q", pattern)
		}
		slices.Sort(matches)
		for _, match := range matches {
			if seen.Insert(match) {
				inputs = append(inputs, match)
			}
		}
	}
	return inputs, nil
}

type xzFile struct {
	*xz.Reader
	file *os.File
}

func (f xzFile) Close() error { return f.file.Close() }

// Opens a shader source, decompressing it when the name ends with .xz. A missing name.glsl is looked up as
// name.glsl.xz so that compressed shader trees can include each other by their plain names.
func openSource(name string) (io.ReadCloser, error) {
	if strings.HasSuffix(name, xzSuffix) {
		return openXz(name)
	}
	f, err := os.Open(name)
	if err == nil {
		return f, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		if compressed, xzErr := openXz(name + xzSuffix); xzErr == nil {
			return compressed, nil
		}
	}
	return nil, err
}

func openXz(name string) (io.ReadCloser, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	xzr, err := xz.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return xzFile{Reader: xzr, file: f}, nil
}

// Name of an input as seen by the preprocessor, without the compression suffix.
func sourceName(input string) string {
	return strings.TrimSuffix(input, xzSuffix)
}
