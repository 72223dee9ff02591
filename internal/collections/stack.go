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

// Stack is a LIFO container backed by a slice. The zero value is an empty
// stack ready to use.
type Stack[T any] struct {
	items []T
}

func (s *Stack[T]) Push(item T) {
	s.items = append(s.items, item)
}

// Pop removes and returns the top element. Panics if the stack is empty.
func (s *Stack[T]) Pop() T {
	last := len(s.items) - 1
	item := s.items[last]
	var zero T
	s.items[last] = zero
	s.items = s.items[:last]
	return item
}

// PopN removes the n topmost elements and returns them in push order, bottom
// first. Panics if the stack holds fewer than n elements.
func (s *Stack[T]) PopN(n int) []T {
	from := len(s.items) - n
	popped := make([]T, n)
	copy(popped, s.items[from:])
	clear(s.items[from:])
	s.items = s.items[:from]
	return popped
}

// Peek returns the top element without removing it. Panics if the stack is
// empty.
func (s *Stack[T]) Peek() T {
	return s.items[len(s.items)-1]
}

func (s *Stack[T]) Len() int {
	return len(s.items)
}

func (s *Stack[T]) Empty() bool {
	return len(s.items) == 0
}
