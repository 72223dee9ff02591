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
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapSlice(t *testing.T) {
	assert.Equal(t, []string{"1", "2", "3"}, MapSlice([]int{1, 2, 3}, strconv.Itoa))
	assert.Empty(t, MapSlice([]int(nil), strconv.Itoa))
}

func TestFilterSlice(t *testing.T) {
	even := func(i int) bool { return i%2 == 0 }
	assert.Equal(t, []int{2, 4}, FilterSlice([]int{1, 2, 3, 4}, even))
	assert.Nil(t, FilterSlice([]int{1, 3}, even))
}

func TestFlatMapSlice(t *testing.T) {
	twice := func(i int) []int { return []int{i, i} }
	assert.Equal(t, []int{1, 1, 2, 2}, FlatMapSlice([]int{1, 2}, twice))
}

func TestSet(t *testing.T) {
	s := SetOf(3, 1)
	assert.True(t, s.Contains(1))
	assert.False(t, s.Contains(2))
	assert.True(t, s.Insert(2))
	assert.False(t, s.Insert(2))

	other := SetOf(1, 2)
	assert.False(t, s.Join(other))
	assert.True(t, s.Join(SetOf(7)))
	assert.Equal(t, []int{1, 2, 3, 7}, Sorted(s))

	clone := s.Clone()
	clone.Add(9)
	assert.False(t, s.Contains(9))
}

func TestStack(t *testing.T) {
	var s Stack[string]
	assert.True(t, s.Empty())
	s.Push("a")
	s.Push("b")
	s.Push("c")
	assert.Equal(t, "c", s.Peek())
	assert.Equal(t, []string{"b", "c"}, s.PopN(2))
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, "a", s.Pop())
	assert.True(t, s.Empty())
	assert.Empty(t, s.PopN(0))
}

func TestQueue(t *testing.T) {
	q := QueueOf(1, 2)
	q.Push(3)
	assert.Equal(t, 3, q.Len())
	assert.Equal(t, 1, q.Peek())
	assert.Equal(t, 1, q.Pop())
	assert.Equal(t, 2, q.Pop())
	assert.Equal(t, 3, q.Pop())
	assert.True(t, q.Empty())

	// Reuse after draining.
	q.Push(4)
	assert.Equal(t, 4, q.Pop())
}

func TestPriorityQueue(t *testing.T) {
	q := NewPriorityQueue(func(a, b int) bool { return a < b })
	for _, v := range []int{5, 1, 4, 2, 3} {
		q.Push(v)
	}
	assert.Equal(t, 5, q.Len())
	assert.Equal(t, 1, q.Pop())
	assert.Equal(t, []int{2, 3, 4, 5}, q.Drain())
	assert.True(t, q.Empty())
}
