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

package collections

import (
	"cmp"
	"iter"
	"maps"
	"slices"
)

// Set is a map with empty struct values.
type Set[T comparable] map[T]struct{}

// SetOf creates a new Set containing the given elements.
func SetOf[T comparable](elems ...T) Set[T] {
	s := make(Set[T], len(elems))
	for _, elem := range elems {
		s.Add(elem)
	}
	return s
}

// Add inserts elem and returns the Set to allow chaining.
func (s Set[T]) Add(elem T) Set[T] {
	s[elem] = struct{}{}
	return s
}

// Insert adds elem and reports whether it was not already present. The
// grammar generator relies on this to detect that a fixed point was reached.
func (s Set[T]) Insert(elem T) bool {
	if s.Contains(elem) {
		return false
	}
	s[elem] = struct{}{}
	return true
}

// Contains checks whether an element exists in the Set.
func (s Set[T]) Contains(elem T) bool {
	_, exists := s[elem]
	return exists
}

// Join adds every element of other and reports whether s grew.
func (s Set[T]) Join(other Set[T]) bool {
	grew := false
	for elem := range other {
		if s.Insert(elem) {
			grew = true
		}
	}
	return grew
}

// Clone returns a shallow copy of the Set.
func (s Set[T]) Clone() Set[T] {
	return maps.Clone(s)
}

// All returns a sequence containing all elements in the Set. The order is not
// guaranteed.
func (s Set[T]) All() iter.Seq[T] {
	return maps.Keys(s)
}

// Values returns a slice containing all elements in the Set in no particular
// order.
func (s Set[T]) Values() []T {
	return slices.Collect(s.All())
}

// Sorted returns the elements of an ordered Set in ascending order.
func Sorted[T cmp.Ordered](s Set[T]) []T {
	return slices.Sorted(s.All())
}
