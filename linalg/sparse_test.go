// Copyright 2025 manifold Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package linalg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSparse(t *testing.T) {
	s := NewSparse(3, []Triplet{
		{Row: 0, Col: 0, Value: 1},
		{Row: 2, Col: 1, Value: 4},
		{Row: 0, Col: 0, Value: 1},
		{Row: 1, Col: 2, Value: 4},
		{Row: 0, Col: 2, Value: -3},
	})
	assert.Equal(t, 3, s.Dim())
	assert.Equal(t, 4, s.NonZeros())
	assert.Equal(t, 2.0, s.At(0, 0))
	assert.Equal(t, -3.0, s.At(0, 2))
	assert.Equal(t, 4.0, s.At(1, 2))
	assert.Equal(t, 4.0, s.At(2, 1))
	assert.Equal(t, 0.0, s.At(2, 2))
}

func TestSparseMulVec(t *testing.T) {
	s := NewSparse(3, []Triplet{
		{Row: 0, Col: 0, Value: 2},
		{Row: 0, Col: 1, Value: 1},
		{Row: 1, Col: 0, Value: 1},
		{Row: 2, Col: 2, Value: -1},
	})
	dst := make([]float64, 3)
	s.MulVec(dst, []float64{1, 2, 3})
	assert.Equal(t, []float64{4, 1, -3}, dst)
}

func TestSparseSym(t *testing.T) {
	s := NewSparse(2, []Triplet{
		{Row: 0, Col: 0, Value: 1},
		{Row: 0, Col: 1, Value: 2},
		{Row: 1, Col: 0, Value: 2},
		{Row: 1, Col: 1, Value: 3},
	})
	sym := s.Sym()
	assert.Equal(t, 1.0, sym.At(0, 0))
	assert.Equal(t, 2.0, sym.At(0, 1))
	assert.Equal(t, 2.0, sym.At(1, 0))
	assert.Equal(t, 3.0, sym.At(1, 1))
	assert.Equal(t, 0.0, s.MaxAsymmetry())
}

func TestSparseEmptyRows(t *testing.T) {
	s := NewSparse(4, []Triplet{{Row: 2, Col: 3, Value: 5}})
	assert.Equal(t, 5.0, s.At(2, 3))
	assert.Equal(t, 0.0, s.At(0, 0))
	dst := make([]float64, 4)
	s.MulVec(dst, []float64{1, 1, 1, 1})
	assert.Equal(t, []float64{0, 0, 5, 0}, dst)
}
