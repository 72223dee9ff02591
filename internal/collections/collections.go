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

// Package collections provides the small generic containers shared by the
// preprocessor packages: a Set for membership tests, a LIFO Stack used by the
// shift-reduce parser, a FIFO Queue holding tokenized directive lines and a
// PriorityQueue ordering diagnostics.
//
// Slice helpers follow the iter.Seq conventions of the standard library.
package collections

import (
	"iter"
	"slices"
)

// MapSeq applies fn to each element of seq.
func MapSeq[T, V any](seq iter.Seq[T], fn func(T) V) iter.Seq[V] {
	return func(yield func(V) bool) {
		for t := range seq {
			if !yield(fn(t)) {
				return
			}
		}
	}
}

// MapSlice applies fn to each element of s and returns the results in order.
//
// Example:
//
//	MapSlice([]int{1, 2, 3}, func(x int) string { return fmt.Sprint(x) })
//	=> []string{"1", "2", "3"}
func MapSlice[TSlice ~[]T, T, V any](s TSlice, fn func(T) V) []V {
	return slices.AppendSeq(make([]V, 0, len(s)), MapSeq(slices.Values(s), fn))
}

// FilterSlice returns the elements of s for which predicate holds, preserving
// their order.
func FilterSlice[TSlice ~[]T, T any](s TSlice, predicate func(T) bool) TSlice {
	var result TSlice
	for _, elem := range s {
		if predicate(elem) {
			result = append(result, elem)
		}
	}
	return result
}

// FlatMapSlice applies fn to each element of s and concatenates the resulting
// slices.
func FlatMapSlice[TSlice ~[]T, VSlice ~[]V, T, V any](s TSlice, fn func(T) VSlice) VSlice {
	var result VSlice
	for _, elem := range s {
		result = append(result, fn(elem)...)
	}
	return result
}
