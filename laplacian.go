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

// computeLaplacian builds L = D − W with heat kernel edge weights
// exp(−dist²/width) over the neighbor graph, and the positive diagonal D of
// row sums.
func computeLaplacian[T any](items []T, nn neighbors.Neighbors, dist DistanceFunc[T],
	width float64, nWorkers int) (*linalg.Sparse, []float64, error) {
	n := len(items)
	k := len(nn[0])
	rows := make([][]linalg.Triplet, n)
	heats := make([][]float64, n)
	err := parallel.Parallel(n, nWorkers, func(_, i int) error {
		triplets := make([]linalg.Triplet, 0, 2*k)
		heat := make([]float64, k)
		for p, j := range nn[i] {
			d := dist(items[i], items[j])
			heat[p] = math.Exp(-d * d / width)
			triplets = append(triplets,
				linalg.Triplet{Row: i, Col: j, Value: -heat[p]},
				linalg.Triplet{Row: j, Col: i, Value: -heat[p]})
		}
		rows[i] = triplets
		heats[i] = heat
		return nil
	})
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	// degrees accumulate serially: edges contribute to both endpoints
	degrees := make([]float64, n)
	for i := range nn {
		for p, j := range nn[i] {
			degrees[i] += heats[i][p]
			degrees[j] += heats[i][p]
		}
	}
	triplets := mergeRows(rows)
	for i, degree := range degrees {
		triplets = append(triplets, linalg.Triplet{Row: i, Col: i, Value: degree})
	}
	return linalg.NewSparse(n, triplets), degrees, nil
}

func diagonalMatrix(values []float64) *mat.SymDense {
	out := mat.NewSymDense(len(values), nil)
	for i, v := range values {
		out.SetSym(i, i, v)
	}
	return out
}

func (e *implementation[T]) embedLaplacianEigenmaps() (*Result, error) {
	nn, err := e.findNeighbors(e.callbacks.Distance)
	if err != nil {
		return nil, errors.Trace(err)
	}
	laplacian, degrees, err := computeLaplacian(e.items, nn, e.callbacks.Distance, e.width, e.nWorkers)
	if err != nil {
		return nil, errors.Trace(err)
	}
	e.ctx.Report(0.5)
	vectors, values, err := linalg.GeneralizedEigenEmbedding(e.eigenMethod,
		laplacian.Sym(), diagonalMatrix(degrees),
		e.targetDimension, linalg.SkipOneEigenvalue, false)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &Result{Embedding: vectors, Eigenvalues: values}, nil
}

func (e *implementation[T]) embedLocalityPreservingProjections() (*Result, error) {
	dimension, err := e.currentDimension()
	if err != nil {
		return nil, errors.Trace(err)
	}
	nn, err := e.findNeighbors(e.callbacks.Distance)
	if err != nil {
		return nil, errors.Trace(err)
	}
	laplacian, degrees, err := computeLaplacian(e.items, nn, e.callbacks.Distance, e.width, e.nWorkers)
	if err != nil {
		return nil, errors.Trace(err)
	}
	e.ctx.Report(0.5)
	features := e.featureMatrix(dimension)
	lhs := featureQuadraticForm(features, laplacian)
	rhs := featureDiagonalForm(features, degrees)
	linalg.AddDiag(rhs, e.eigenshift)
	projection, values, err := linalg.GeneralizedEigenEmbedding(e.eigenMethod,
		lhs, rhs, e.targetDimension, linalg.SkipNoEigenvalues, false)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return e.linearResult(features, projection, values), nil
}
