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
	"github.com/juju/errors"
	"gonum.org/v1/gonum/mat"
)

// CenterSymmetric double-centers a symmetric matrix in place: subtract row
// means and column means, add back the grand mean.
func CenterSymmetric(m *mat.SymDense) {
	n := m.SymmetricDim()
	means := make([]float64, n)
	grand := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			means[i] += m.At(i, j)
		}
		means[i] /= float64(n)
		grand += means[i]
	}
	grand /= float64(n)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			m.SetSym(i, j, m.At(i, j)-means[i]-means[j]+grand)
		}
	}
}

// ScaleSymmetric multiplies every entry of a symmetric matrix by alpha.
func ScaleSymmetric(m *mat.SymDense, alpha float64) {
	n := m.SymmetricDim()
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			m.SetSym(i, j, alpha*m.At(i, j))
		}
	}
}

// AddDiag adds v to every diagonal entry of a symmetric matrix.
func AddDiag(m *mat.SymDense, v float64) {
	n := m.SymmetricDim()
	for i := 0; i < n; i++ {
		m.SetSym(i, i, m.At(i, i)+v)
	}
}

// SymPow raises a symmetric matrix to a positive integer power.
func SymPow(m *mat.SymDense, t int) *mat.SymDense {
	n := m.SymmetricDim()
	result := mat.NewDense(n, n, nil)
	result.CloneFrom(m)
	product := mat.NewDense(n, n, nil)
	for i := 1; i < t; i++ {
		product.Mul(result, m)
		result, product = product, result
	}
	out := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			out.SetSym(i, j, (result.At(i, j)+result.At(j, i))/2)
		}
	}
	return out
}

// SolveSym solves a x = b for a symmetric positive definite (possibly
// regularized) matrix a. Falls back to a dense LU solve when the Cholesky
// factorization fails.
func SolveSym(a *mat.SymDense, b []float64) ([]float64, error) {
	n := a.SymmetricDim()
	if len(b) != n {
		return nil, errors.Errorf("dimension mismatch: %v != %v", len(b), n)
	}
	rhs := mat.NewVecDense(n, b)
	x := mat.NewVecDense(n, nil)
	var chol mat.Cholesky
	if chol.Factorize(a) {
		if err := chol.SolveVecTo(x, rhs); err == nil {
			return x.RawVector().Data, nil
		}
	}
	var dense mat.Dense
	dense.CloneFrom(a)
	if err := x.SolveVec(&dense, rhs); err != nil {
		return nil, errors.Annotatef(ErrEigenFailure, "singular system of size %v", n)
	}
	return x.RawVector().Data, nil
}
