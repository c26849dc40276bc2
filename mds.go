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
	"sort"

	"github.com/juju/errors"
	"github.com/manifold-io/manifold/base/parallel"
	"github.com/manifold-io/manifold/linalg"
	"gonum.org/v1/gonum/mat"
)

// computeSquaredDistanceMatrix fills the dense symmetric matrix of squared
// pairwise distances.
func computeSquaredDistanceMatrix[T any](items []T, dist DistanceFunc[T], nWorkers int) (*mat.SymDense, error) {
	n := len(items)
	out := mat.NewSymDense(n, nil)
	err := parallel.Parallel(n, nWorkers, func(_, i int) error {
		for j := i; j < n; j++ {
			d := dist(items[i], items[j])
			out.SetSym(i, j, d*d)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	return out, nil
}

// selectLandmarksRandom samples ⌈ratio·N⌉ landmark indices without
// replacement, uniformly at random.
func selectLandmarksRandom(rng RandomGenerator, n int, ratio float64) []int {
	count := int(math.Ceil(ratio * float64(n)))
	if count > n {
		count = n
	}
	landmarks := rng.Sample(0, n, count)
	sort.Ints(landmarks)
	return landmarks
}

// scaleByEigenvalues multiplies every embedding column by the square root of
// its eigenvalue, clamping small negative values produced by non-Euclidean
// dissimilarities.
func scaleByEigenvalues(embedding *mat.Dense, values []float64) {
	rows, cols := embedding.Dims()
	for j := 0; j < cols; j++ {
		scale := math.Sqrt(math.Max(0, values[j]))
		for i := 0; i < rows; i++ {
			embedding.Set(i, j, embedding.At(i, j)*scale)
		}
	}
}

func (e *implementation[T]) embedMultidimensionalScaling() (*Result, error) {
	distances, err := computeSquaredDistanceMatrix(e.items, e.callbacks.Distance, e.nWorkers)
	if err != nil {
		return nil, errors.Trace(err)
	}
	linalg.CenterSymmetric(distances)
	linalg.ScaleSymmetric(distances, -0.5)
	e.ctx.Report(0.5)
	embedding, values, err := linalg.EigenEmbedding(e.eigenMethod, linalg.SymOperator{Matrix: distances},
		e.targetDimension, linalg.SkipNoEigenvalues, true)
	if err != nil {
		return nil, errors.Trace(err)
	}
	scaleByEigenvalues(embedding, values)
	return &Result{Embedding: embedding, Eigenvalues: values}, nil
}

func (e *implementation[T]) embedLandmarkMultidimensionalScaling() (*Result, error) {
	landmarks := selectLandmarksRandom(e.rng(), e.n, e.ratio)
	if len(landmarks) < e.targetDimension {
		return nil, errors.Annotatef(ErrParameterOutOfRange,
			"%v landmarks cannot span %v dimensions", len(landmarks), e.targetDimension)
	}
	picked := make([]T, len(landmarks))
	for p, l := range landmarks {
		picked[p] = e.items[l]
	}
	distances, err := computeSquaredDistanceMatrix(picked, e.callbacks.Distance, e.nWorkers)
	if err != nil {
		return nil, errors.Trace(err)
	}
	// column means of the squared distances drive the triangulation
	columnMeans := make([]float64, len(landmarks))
	for j := range landmarks {
		sum := 0.0
		for i := range landmarks {
			sum += distances.At(i, j)
		}
		columnMeans[j] = sum / float64(len(landmarks))
	}
	linalg.CenterSymmetric(distances)
	linalg.ScaleSymmetric(distances, -0.5)
	e.ctx.Report(0.5)
	vectors, values, err := linalg.EigenEmbedding(e.eigenMethod, linalg.SymOperator{Matrix: distances},
		e.targetDimension, linalg.SkipNoEigenvalues, true)
	if err != nil {
		return nil, errors.Trace(err)
	}
	embedding := e.triangulate(landmarks, columnMeans, vectors, values, e.callbacks.Distance)
	return &Result{Embedding: embedding, Eigenvalues: values}, nil
}

// triangulate maps every point into the landmark embedding with the
// out-of-sample formula y(x) = −½ Λ^{-1/2} Vᵀ (d²(x,L) − mean_L d²). Landmark
// points copy their in-sample coordinates.
func (e *implementation[T]) triangulate(landmarks []int, columnMeans []float64,
	vectors *mat.Dense, values []float64, dist DistanceFunc[T]) *mat.Dense {
	isLandmark := make(map[int]int, len(landmarks))
	for p, l := range landmarks {
		isLandmark[l] = p
	}
	embedding := mat.NewDense(e.n, e.targetDimension, nil)
	delta := make([]float64, len(landmarks))
	for i := 0; i < e.n; i++ {
		if p, ok := isLandmark[i]; ok {
			for j := 0; j < e.targetDimension; j++ {
				embedding.Set(i, j, vectors.At(p, j)*math.Sqrt(math.Max(0, values[j])))
			}
			continue
		}
		for p, l := range landmarks {
			d := dist(e.items[i], e.items[l])
			delta[p] = d*d - columnMeans[p]
		}
		for j := 0; j < e.targetDimension; j++ {
			sum := 0.0
			for p := range landmarks {
				sum += vectors.At(p, j) * delta[p]
			}
			scale := math.Sqrt(math.Max(values[j], 0))
			if scale > 0 {
				embedding.Set(i, j, -0.5*sum/scale)
			}
		}
	}
	return embedding
}
