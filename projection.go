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
	"github.com/juju/errors"
	"github.com/manifold-io/manifold/linalg"
	"gonum.org/v1/gonum/mat"
)

// featureMatrix reads every item's feature vector into a D×N matrix.
func (e *implementation[T]) featureMatrix(dimension int) *mat.Dense {
	features := mat.NewDense(dimension, e.n, nil)
	buffer := make([]float64, dimension)
	for i, item := range e.items {
		e.callbacks.Feature(item, buffer)
		for r := 0; r < dimension; r++ {
			features.Set(r, i, buffer[r])
		}
	}
	return features
}

// computeMean averages the feature vectors.
func computeMean(features *mat.Dense) []float64 {
	d, n := features.Dims()
	mean := make([]float64, d)
	for r := 0; r < d; r++ {
		sum := 0.0
		for i := 0; i < n; i++ {
			sum += features.At(r, i)
		}
		mean[r] = sum / float64(n)
	}
	return mean
}

// featureQuadraticForm computes X M Xᵀ for the D×N feature matrix X and a
// sparse N×N operator M.
func featureQuadraticForm(features *mat.Dense, m *linalg.Sparse) *mat.SymDense {
	d, n := features.Dims()
	product := mat.NewDense(d, n, nil)
	row := make([]float64, n)
	image := make([]float64, n)
	for r := 0; r < d; r++ {
		for i := 0; i < n; i++ {
			row[i] = features.At(r, i)
		}
		m.MulVec(image, row)
		for i := 0; i < n; i++ {
			product.Set(r, i, image[i])
		}
	}
	var full mat.Dense
	full.Mul(product, features.T())
	out := mat.NewSymDense(d, nil)
	for r := 0; r < d; r++ {
		for c := r; c < d; c++ {
			out.SetSym(r, c, (full.At(r, c)+full.At(c, r))/2)
		}
	}
	return out
}

// featureDiagonalForm computes X diag(w) Xᵀ.
func featureDiagonalForm(features *mat.Dense, diagonal []float64) *mat.SymDense {
	d, n := features.Dims()
	out := mat.NewSymDense(d, nil)
	for r := 0; r < d; r++ {
		for c := r; c < d; c++ {
			sum := 0.0
			for i := 0; i < n; i++ {
				sum += features.At(r, i) * diagonal[i] * features.At(c, i)
			}
			out.SetSym(r, c, sum)
		}
	}
	return out
}

// projectFeatures maps every in-sample feature vector through Pᵀ(x−μ).
func projectFeatures(features *mat.Dense, components *mat.Dense, mean []float64) *mat.Dense {
	d, n := features.Dims()
	_, target := components.Dims()
	embedding := mat.NewDense(n, target, nil)
	centered := make([]float64, d)
	for i := 0; i < n; i++ {
		for r := 0; r < d; r++ {
			centered[r] = features.At(r, i) - mean[r]
		}
		for j := 0; j < target; j++ {
			sum := 0.0
			for r := 0; r < d; r++ {
				sum += components.At(r, j) * centered[r]
			}
			embedding.Set(i, j, sum)
		}
	}
	return embedding
}

// linearResult wraps a projection matrix into a reusable projecting function
// and the in-sample embedding.
func (e *implementation[T]) linearResult(features, components *mat.Dense, values []float64) *Result {
	mean := computeMean(features)
	return &Result{
		Embedding:   projectFeatures(features, components, mean),
		Eigenvalues: values,
		Projection:  newProjectingFunction(components, mean),
	}
}

func (e *implementation[T]) embedNeighborhoodPreservingEmbedding() (*Result, error) {
	dimension, err := e.currentDimension()
	if err != nil {
		return nil, errors.Trace(err)
	}
	nn, err := e.findNeighbors(e.callbacks.KernelDistance())
	if err != nil {
		return nil, errors.Trace(err)
	}
	weightMatrix, err := linearWeightMatrix(e.items, nn, e.callbacks.Kernel, e.eigenshift, e.traceshift, e.nWorkers)
	if err != nil {
		return nil, errors.Trace(err)
	}
	e.ctx.Report(0.5)
	features := e.featureMatrix(dimension)
	lhs := featureQuadraticForm(features, weightMatrix)
	rhs := featureGramForm(features)
	linalg.AddDiag(rhs, e.eigenshift)
	projection, values, err := linalg.GeneralizedEigenEmbedding(e.eigenMethod,
		lhs, rhs, e.targetDimension, linalg.SkipNoEigenvalues, false)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return e.linearResult(features, projection, values), nil
}

func (e *implementation[T]) embedLinearLocalTangentSpaceAlignment() (*Result, error) {
	dimension, err := e.currentDimension()
	if err != nil {
		return nil, errors.Trace(err)
	}
	nn, err := e.findNeighbors(e.callbacks.KernelDistance())
	if err != nil {
		return nil, errors.Trace(err)
	}
	weightMatrix, err := tangentWeightMatrix(e.items, nn, e.callbacks.Kernel, e.targetDimension, e.eigenshift, e.nWorkers)
	if err != nil {
		return nil, errors.Trace(err)
	}
	e.ctx.Report(0.5)
	features := e.featureMatrix(dimension)
	lhs := featureQuadraticForm(features, weightMatrix)
	rhs := featureGramForm(features)
	linalg.AddDiag(rhs, e.eigenshift)
	projection, values, err := linalg.GeneralizedEigenEmbedding(e.eigenMethod,
		lhs, rhs, e.targetDimension, linalg.SkipNoEigenvalues, false)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return e.linearResult(features, projection, values), nil
}

// featureGramForm computes X Xᵀ.
func featureGramForm(features *mat.Dense) *mat.SymDense {
	d, _ := features.Dims()
	var full mat.Dense
	full.Mul(features, features.T())
	out := mat.NewSymDense(d, nil)
	for r := 0; r < d; r++ {
		for c := r; c < d; c++ {
			out.SetSym(r, c, full.At(r, c))
		}
	}
	return out
}
