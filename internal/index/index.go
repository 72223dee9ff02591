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

// Package index defines the serializable mapping of GLSL include paths to the
// Bazel targets providing them. It is the protocol between the indexer tools
// and the gazelle_glsl extension.
package index

import (
	"encoding"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/EngFlow/gazelle_glsl/internal/collections"
	"github.com/bazelbuild/bazel-gazelle/label"
)

type (
	// labelUnmarshaler is a label.Label parsable from JSON text.
	labelUnmarshaler label.Label

	// DependencyIndex maps include paths to the Bazel targets exposing them
	// (more than one in case of ambiguity). Serializable to/from JSON.
	DependencyIndex map[string][]label.Label
)

var (
	_ encoding.TextUnmarshaler = (*labelUnmarshaler)(nil)
	_ json.Marshaler           = (*DependencyIndex)(nil)
	_ json.Unmarshaler         = (*DependencyIndex)(nil)
)

func (lm *labelUnmarshaler) UnmarshalText(data []byte) error {
	parsedLabel, err := label.Parse(string(data))
	*lm = labelUnmarshaler(parsedLabel)
	return err
}

func (index DependencyIndex) MarshalJSON() ([]byte, error) {
	jsonDict := make(map[string][]string, len(index))
	for include, labels := range index {
		jsonDict[include] = collections.MapSlice(labels, label.Label.String)
	}
	return json.Marshal(jsonDict)
}

func (index *DependencyIndex) UnmarshalJSON(data []byte) error {
	var jsonDict map[string][]labelUnmarshaler
	if err := json.Unmarshal(data, &jsonDict); err != nil {
		return err
	}

	*index = make(DependencyIndex, len(jsonDict))
	for include, labels := range jsonDict {
		(*index)[include] = collections.MapSlice(labels, func(lbl labelUnmarshaler) label.Label { return label.Label(lbl) })
	}
	return nil
}

// LoadFromFile reads an index written by WriteToFile.
func LoadFromFile(path string) (DependencyIndex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var index DependencyIndex
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return index, nil
}

func (index DependencyIndex) WriteToFile(path string) error {
	data, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Lookup returns the only target exposing include. Ambiguous is true when
// several targets expose it, in which case none is returned.
func (index DependencyIndex) Lookup(include string) (lbl label.Label, ambiguous bool) {
	switch labels := index[include]; len(labels) {
	case 0:
		return label.NoLabel, false
	case 1:
		return labels[0], false
	default:
		return label.NoLabel, true
	}
}

func (index DependencyIndex) splitByAmbiguity() (unique, ambiguous []string) {
	unique = make([]string, 0, len(index))
	ambiguous = make([]string, 0, len(index))
	for include := range slices.Values(slices.Sorted(maps.Keys(index))) {
		switch len(index[include]) {
		case 0:
			continue
		case 1:
			unique = append(unique, include)
		default:
			ambiguous = append(ambiguous, include)
		}
	}
	return
}

func (index DependencyIndex) Summary() string {
	var sb strings.Builder
	fmt.Fprintln(&sb, "Indexing result:")
	unique, ambiguous := index.splitByAmbiguity()

	fmt.Fprintf(&sb, "  Unique mappings (%d):\n", len(unique))
	for _, include := range unique {
		fmt.Fprintf(&sb, "    %-60q: %s\n", include, index[include][0])
	}

	fmt.Fprintf(&sb, "  Ambiguous mappings (%d):\n", len(ambiguous))
	for _, include := range ambiguous {
		fmt.Fprintf(&sb, "    %-60q: %v\n", include, index[include])
	}

	return sb.String()
}
