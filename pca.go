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
	"gonum.org/v1/gonum/mat"
)

// computeCovarianceMatrix builds the sample covariance of the centered
// feature matrix.
func computeCovarianceMatrix(features *mat.Dense, mean []float64) *mat.SymDense {
	d, n := features.Dims()
	centered := mat.NewDense(d, n, nil)
	for r := 0; r < d; r++ {
		for i := 0; i < n; i++ {
			centered.Set(r, i, features.At(r, i)-mean[r])
		}
	}
	var product mat.Dense
	product.Mul(centered, centered.T())
	out := mat.NewSymDense(d, nil)
	norm := math.Max(1, float64(n-1))
	for r := 0; r < d; r++ {
		for c := r; c < d; c++ {
			out.SetSym(r, c, product.At(r, c)/norm)
		}
	}
	return out
}

// computeCenteredKernelMatrix fills the kernel Gram matrix and double-centers
// it.
func computeCenteredKernelMatrix[T any](items []T, kernel KernelFunc[T], nWorkers int) (*mat.SymDense, error) {
	n := len(items)
	out := mat.NewSymDense(n, nil)
	err := parallel.Parallel(n, nWorkers, func(_, i int) error {
		for j := i; j < n; j++ {
			out.SetSym(i, j, kernel(items[i], items[j]))
		}
		return nil
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	linalg.CenterSymmetric(out)
	return out, nil
}

// gaussianProjectionMatrix draws a D×d matrix of N(0, 1/target) entries, the
// usual Johnson–Lindenstrauss scaling.
func gaussianProjectionMatrix(rng RandomGenerator, current, target int) *mat.Dense {
	out := mat.NewDense(current, target, nil)
	scale := 1 / math.Sqrt(float64(target))
	for r := 0; r < current; r++ {
		for c := 0; c < target; c++ {
			out.Set(r, c, rng.NormFloat64()*scale)
		}
	}
	return out
}

func (e *implementation[T]) embedPCA() (*Result, error) {
	dimension, err := e.currentDimension()
	if err != nil {
		return nil, errors.Trace(err)
	}
	features := e.featureMatrix(dimension)
	covariance := computeCovarianceMatrix(features, computeMean(features))
	e.ctx.Report(0.5)
	projection, values, err := linalg.EigenEmbedding(e.eigenMethod, linalg.SymOperator{Matrix: covariance},
		e.targetDimension, linalg.SkipNoEigenvalues, true)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return e.linearResult(features, projection, values), nil
}

func (e *implementation[T]) embedKernelPCA() (*Result, error) {
	kernelMatrix, err := computeCenteredKernelMatrix(e.items, e.callbacks.Kernel, e.nWorkers)
	if err != nil {
		return nil, errors.Trace(err)
	}
	e.ctx.Report(0.5)
	embedding, values, err := linalg.EigenEmbedding(e.eigenMethod, linalg.SymOperator{Matrix: kernelMatrix},
		e.targetDimension, linalg.SkipNoEigenvalues, true)
	if err != nil {
		return nil, errors.Trace(err)
	}
	scaleByEigenvalues(embedding, values)
	return &Result{Embedding: embedding, Eigenvalues: values}, nil
}

func (e *implementation[T]) embedRandomProjection() (*Result, error) {
	dimension, err := e.currentDimension()
	if err != nil {
		return nil, errors.Trace(err)
	}
	projection := gaussianProjectionMatrix(e.rng(), dimension, e.targetDimension)
	features := e.featureMatrix(dimension)
	return e.linearResult(features, projection, nil), nil
}

func (e *implementation[T]) embedPassThru() (*Result, error) {
	dimension, err := e.currentDimension()
	if err != nil {
		return nil, errors.Trace(err)
	}
	features := e.featureMatrix(dimension)
	var embedding mat.Dense
	embedding.CloneFrom(features.T())
	return &Result{Embedding: &embedding, Eigenvalues: nil}, nil
}
