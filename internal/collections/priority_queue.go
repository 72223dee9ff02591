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

import "container/heap"

// heapAdapter implements heap.Interface over a slice using an external
// ordering function.
type heapAdapter[T any] struct {
	items []T
	less  func(a, b T) bool
}

func (h *heapAdapter[T]) Len() int           { return len(h.items) }
func (h *heapAdapter[T]) Less(i, j int) bool { return h.less(h.items[i], h.items[j]) }
func (h *heapAdapter[T]) Swap(i, j int)      { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *heapAdapter[T]) Push(x any)         { h.items = append(h.items, x.(T)) }
func (h *heapAdapter[T]) Pop() any {
	last := h.items[len(h.items)-1]
	h.items = h.items[:len(h.items)-1]
	return last
}

// PriorityQueue pops elements in the order defined by less, smallest first.
type PriorityQueue[T any] struct {
	base heapAdapter[T]
}

// NewPriorityQueue creates an empty queue ordered by less.
func NewPriorityQueue[T any](less func(a, b T) bool) *PriorityQueue[T] {
	return &PriorityQueue[T]{base: heapAdapter[T]{less: less}}
}

func (q *PriorityQueue[T]) Empty() bool {
	return q.base.Len() == 0
}

func (q *PriorityQueue[T]) Len() int {
	return q.base.Len()
}

func (q *PriorityQueue[T]) Push(item T) {
	heap.Push(&q.base, item)
}

// Pop removes the smallest element. Panics if the queue is empty.
func (q *PriorityQueue[T]) Pop() T {
	return heap.Pop(&q.base).(T)
}

// Drain pops every element and returns them in order.
func (q *PriorityQueue[T]) Drain() []T {
	result := make([]T, 0, q.Len())
	for !q.Empty() {
		result = append(result, q.Pop())
	}
	return result
}
