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
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Triplet is a single (row, col, value) contribution to a sparse matrix.
// Duplicate coordinates are summed on assembly.
type Triplet struct {
	Row, Col int
	Value    float64
}

// Sparse is a square sparse matrix in compressed row storage.
type Sparse struct {
	n      int
	rowPtr []int
	colIdx []int
	values []float64
}

// NewSparse assembles an n×n sparse matrix from triplets. Triplets are merged
// in (row, col) order, so assembly is deterministic regardless of the order in
// which they were emitted.
func NewSparse(n int, triplets []Triplet) *Sparse {
	sorted := make([]Triplet, len(triplets))
	copy(sorted, triplets)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Row != sorted[j].Row {
			return sorted[i].Row < sorted[j].Row
		}
		return sorted[i].Col < sorted[j].Col
	})
	merged := sorted[:0]
	for _, t := range sorted {
		if m := len(merged); m > 0 && merged[m-1].Row == t.Row && merged[m-1].Col == t.Col {
			merged[m-1].Value += t.Value
		} else {
			merged = append(merged, t)
		}
	}
	s := &Sparse{
		n:      n,
		rowPtr: make([]int, n+1),
		colIdx: make([]int, len(merged)),
		values: make([]float64, len(merged)),
	}
	for _, t := range merged {
		s.rowPtr[t.Row+1]++
	}
	for i := 0; i < n; i++ {
		s.rowPtr[i+1] += s.rowPtr[i]
	}
	for p, t := range merged {
		s.colIdx[p] = t.Col
		s.values[p] = t.Value
	}
	return s
}

// Dim returns the matrix order.
func (s *Sparse) Dim() int {
	return s.n
}

// At returns the entry at (i, j).
func (s *Sparse) At(i, j int) float64 {
	for p := s.rowPtr[i]; p < s.rowPtr[i+1]; p++ {
		if s.colIdx[p] == j {
			return s.values[p]
		}
	}
	return 0
}

// NonZeros returns the number of stored entries.
func (s *Sparse) NonZeros() int {
	return len(s.values)
}

// MulVec computes dst = s · x.
func (s *Sparse) MulVec(dst, x []float64) {
	for i := 0; i < s.n; i++ {
		sum := 0.0
		for p := s.rowPtr[i]; p < s.rowPtr[i+1]; p++ {
			sum += s.values[p] * x[s.colIdx[p]]
		}
		dst[i] = sum
	}
}

// Sym densifies the matrix into symmetric storage, averaging the off-diagonal
// halves.
func (s *Sparse) Sym() *mat.SymDense {
	out := mat.NewSymDense(s.n, nil)
	for i := 0; i < s.n; i++ {
		for p := s.rowPtr[i]; p < s.rowPtr[i+1]; p++ {
			j := s.colIdx[p]
			if j >= i {
				out.SetSym(i, j, out.At(i, j)+s.values[p]/symWeight(i, j))
			} else {
				out.SetSym(j, i, out.At(j, i)+s.values[p]/symWeight(i, j))
			}
		}
	}
	return out
}

func symWeight(i, j int) float64 {
	if i == j {
		return 1
	}
	return 2
}

// MaxAsymmetry returns the largest |s[i,j]-s[j,i]|.
func (s *Sparse) MaxAsymmetry() float64 {
	worst := 0.0
	for i := 0; i < s.n; i++ {
		for p := s.rowPtr[i]; p < s.rowPtr[i+1]; p++ {
			j := s.colIdx[p]
			if d := math.Abs(s.values[p] - s.At(j, i)); d > worst {
				worst = d
			}
		}
	}
	return worst
}
