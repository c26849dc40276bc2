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

package manifold

import (
	"math"

	"github.com/juju/errors"
	"github.com/manifold-io/manifold/base/parallel"
	"github.com/manifold-io/manifold/linalg"
	"github.com/manifold-io/manifold/neighbors"
	"gonum.org/v1/gonum/mat"
)

// linearWeightMatrix builds the locally linear reconstruction matrix
// W = (I−L)ᵀ(I−L) from per-row reconstruction weights. Rows are processed by
// a worker pool on private scratch; each row's triplets are merged serially
// in row order, so the assembled matrix is deterministic.
func linearWeightMatrix[T any](items []T, nn neighbors.Neighbors, kernel KernelFunc[T],
	shift, traceShift float64, nWorkers int) (*linalg.Sparse, error) {
	n := len(items)
	k := len(nn[0])
	rows := make([][]linalg.Triplet, n)
	err := parallel.Parallel(n, nWorkers, func(_, i int) error {
		dots := make([]float64, k)
		diagonal := kernel(items[i], items[i])
		for p := 0; p < k; p++ {
			dots[p] = kernel(items[i], items[nn[i][p]])
		}
		gram := mat.NewSymDense(k, nil)
		for p := 0; p < k; p++ {
			for q := p; q < k; q++ {
				gram.SetSym(p, q, diagonal-dots[p]-dots[q]+kernel(items[nn[i][p]], items[nn[i][q]]))
			}
		}
		trace := 0.0
		for p := 0; p < k; p++ {
			trace += gram.At(p, p)
		}
		linalg.AddDiag(gram, traceShift*trace)
		rhs := make([]float64, k)
		for p := range rhs {
			rhs[p] = 1
		}
		weights, err := linalg.SolveSym(gram, rhs)
		if err != nil {
			return errors.Trace(err)
		}
		sum := 0.0
		for _, w := range weights {
			sum += w
		}
		for p := range weights {
			weights[p] /= sum
		}
		triplets := make([]linalg.Triplet, 0, 2+2*k+k*k)
		triplets = append(triplets,
			linalg.Triplet{Row: i, Col: i, Value: shift},
			linalg.Triplet{Row: i, Col: i, Value: 1})
		for p := 0; p < k; p++ {
			triplets = append(triplets,
				linalg.Triplet{Row: i, Col: nn[i][p], Value: -weights[p]},
				linalg.Triplet{Row: nn[i][p], Col: i, Value: -weights[p]})
			for q := 0; q < k; q++ {
				triplets = append(triplets,
					linalg.Triplet{Row: nn[i][p], Col: nn[i][q], Value: weights[p] * weights[q]})
			}
		}
		rows[i] = triplets
		return nil
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	return linalg.NewSparse(n, mergeRows(rows)), nil
}

// tangentWeightMatrix builds the local tangent space alignment matrix. Each
// row centers the neighbor Gram, extracts the leading target eigenvectors and
// accumulates I − G Gᵀ over the neighborhood, G = [1/√k | V].
func tangentWeightMatrix[T any](items []T, nn neighbors.Neighbors, kernel KernelFunc[T],
	targetDimension int, shift float64, nWorkers int) (*linalg.Sparse, error) {
	n := len(items)
	k := len(nn[0])
	if targetDimension > k {
		return nil, errors.Annotatef(ErrParameterOutOfRange,
			"%s = %v exceeds the neighborhood size %v", TargetDimension, targetDimension, k)
	}
	rows := make([][]linalg.Triplet, n)
	err := parallel.Parallel(n, nWorkers, func(_, i int) error {
		gram := mat.NewSymDense(k, nil)
		for p := 0; p < k; p++ {
			for q := p; q < k; q++ {
				gram.SetSym(p, q, kernel(items[nn[i][p]], items[nn[i][q]]))
			}
		}
		linalg.CenterSymmetric(gram)
		var es mat.EigenSym
		if !es.Factorize(gram, true) {
			return errors.Annotatef(ErrEigenFailure, "local Gram matrix of row %v", i)
		}
		var vectors mat.Dense
		es.VectorsTo(&vectors)
		g := mat.NewDense(k, targetDimension+1, nil)
		for p := 0; p < k; p++ {
			g.Set(p, 0, 1/math.Sqrt(float64(k)))
			for j := 0; j < targetDimension; j++ {
				g.Set(p, j+1, vectors.At(p, k-j-1))
			}
		}
		var alignment mat.Dense
		alignment.Mul(g, g.T())
		triplets := make([]linalg.Triplet, 0, 1+k+k*k)
		triplets = append(triplets, linalg.Triplet{Row: i, Col: i, Value: shift})
		for p := 0; p < k; p++ {
			triplets = append(triplets, linalg.Triplet{Row: nn[i][p], Col: nn[i][p], Value: 1})
			for q := 0; q < k; q++ {
				triplets = append(triplets,
					linalg.Triplet{Row: nn[i][p], Col: nn[i][q], Value: -alignment.At(p, q)})
			}
		}
		rows[i] = triplets
		return nil
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	return linalg.NewSparse(n, mergeRows(rows)), nil
}

// hessianWeightMatrix builds the Hessian estimator matrix. Each row
// orthonormalizes the local basis [1 | V | pairwise products of V columns]
// over the tangent coordinates and accumulates H Hᵀ, H the quadratic block of
// that basis with every column scaled to unit sum.
func hessianWeightMatrix[T any](items []T, nn neighbors.Neighbors, kernel KernelFunc[T],
	targetDimension, nWorkers int) (*linalg.Sparse, error) {
	n := len(items)
	k := len(nn[0])
	dp := targetDimension * (targetDimension + 1) / 2
	if k < 1+targetDimension+dp {
		return nil, errors.Annotatef(ErrParameterOutOfRange,
			"%s = %v needs at least %v for target dimension %v",
			NumberOfNeighbors, k, 1+targetDimension+dp, targetDimension)
	}
	rows := make([][]linalg.Triplet, n)
	err := parallel.Parallel(n, nWorkers, func(_, i int) error {
		gram := mat.NewSymDense(k, nil)
		for p := 0; p < k; p++ {
			for q := p; q < k; q++ {
				gram.SetSym(p, q, kernel(items[nn[i][p]], items[nn[i][q]]))
			}
		}
		linalg.CenterSymmetric(gram)
		var es mat.EigenSym
		if !es.Factorize(gram, true) {
			return errors.Annotatef(ErrEigenFailure, "local Gram matrix of row %v", i)
		}
		var vectors mat.Dense
		es.VectorsTo(&vectors)
		// quadratic basis: constant, tangent coordinates, their products
		basis := mat.NewDense(k, 1+targetDimension+dp, nil)
		for p := 0; p < k; p++ {
			basis.Set(p, 0, 1)
			for j := 0; j < targetDimension; j++ {
				basis.Set(p, 1+j, vectors.At(p, k-j-1))
			}
		}
		ct := 1 + targetDimension
		for j := 0; j < targetDimension; j++ {
			for l := j; l < targetDimension; l++ {
				for p := 0; p < k; p++ {
					basis.Set(p, ct, basis.At(p, 1+j)*basis.At(p, 1+l))
				}
				ct++
			}
		}
		var qr mat.QR
		qr.Factorize(basis)
		var ortho mat.Dense
		qr.QTo(&ortho)
		// the Hessian estimator is the quadratic block of the orthonormal basis
		weights := mat.NewDense(k, dp, nil)
		for h := 0; h < dp; h++ {
			sum := 0.0
			for p := 0; p < k; p++ {
				sum += ortho.At(p, 1+targetDimension+h)
			}
			if math.Abs(sum) < 1e-10 {
				sum = 1
			}
			for p := 0; p < k; p++ {
				weights.Set(p, h, ortho.At(p, 1+targetDimension+h)/sum)
			}
		}
		triplets := make([]linalg.Triplet, 0, k*k)
		for p := 0; p < k; p++ {
			for q := 0; q < k; q++ {
				sum := 0.0
				for h := 0; h < dp; h++ {
					sum += weights.At(p, h) * weights.At(q, h)
				}
				triplets = append(triplets,
					linalg.Triplet{Row: nn[i][p], Col: nn[i][q], Value: sum})
			}
		}
		rows[i] = triplets
		return nil
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	return linalg.NewSparse(n, mergeRows(rows)), nil
}

func mergeRows(rows [][]linalg.Triplet) []linalg.Triplet {
	total := 0
	for _, row := range rows {
		total += len(row)
	}
	merged := make([]linalg.Triplet, 0, total)
	for _, row := range rows {
		merged = append(merged, row...)
	}
	return merged
}

func (e *implementation[T]) embedKernelLocallyLinearEmbedding() (*Result, error) {
	nn, err := e.findNeighbors(e.callbacks.KernelDistance())
	if err != nil {
		return nil, errors.Trace(err)
	}
	weightMatrix, err := linearWeightMatrix(e.items, nn, e.callbacks.Kernel, e.eigenshift, e.traceshift, e.nWorkers)
	if err != nil {
		return nil, errors.Trace(err)
	}
	e.ctx.Report(0.5)
	vectors, values, err := linalg.EigenEmbedding(e.eigenMethod, weightMatrix,
		e.targetDimension, linalg.SkipOneEigenvalue, false)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &Result{Embedding: vectors, Eigenvalues: values}, nil
}

func (e *implementation[T]) embedKernelLocalTangentSpaceAlignment() (*Result, error) {
	nn, err := e.findNeighbors(e.callbacks.KernelDistance())
	if err != nil {
		return nil, errors.Trace(err)
	}
	weightMatrix, err := tangentWeightMatrix(e.items, nn, e.callbacks.Kernel, e.targetDimension, e.eigenshift, e.nWorkers)
	if err != nil {
		return nil, errors.Trace(err)
	}
	e.ctx.Report(0.5)
	vectors, values, err := linalg.EigenEmbedding(e.eigenMethod, weightMatrix,
		e.targetDimension, linalg.SkipOneEigenvalue, false)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &Result{Embedding: vectors, Eigenvalues: values}, nil
}

func (e *implementation[T]) embedHessianLocallyLinearEmbedding() (*Result, error) {
	nn, err := e.findNeighbors(e.callbacks.KernelDistance())
	if err != nil {
		return nil, errors.Trace(err)
	}
	weightMatrix, err := hessianWeightMatrix(e.items, nn, e.callbacks.Kernel, e.targetDimension, e.nWorkers)
	if err != nil {
		return nil, errors.Trace(err)
	}
	e.ctx.Report(0.5)
	vectors, values, err := linalg.EigenEmbedding(e.eigenMethod, weightMatrix,
		e.targetDimension, linalg.SkipOneEigenvalue, false)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &Result{Embedding: vectors, Eigenvalues: values}, nil
}
