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

// computeDiffusionMatrix builds the symmetric conjugate of the diffusion
// operator: A = D^{-1/2} K D^{-1/2} with K the heat kernel of all pairwise
// distances, raised to the number of timesteps.
func computeDiffusionMatrix[T any](items []T, dist DistanceFunc[T], timesteps int,
	width float64, nWorkers int) (*mat.SymDense, error) {
	n := len(items)
	kernel := mat.NewSymDense(n, nil)
	err := parallel.Parallel(n, nWorkers, func(_, i int) error {
		for j := i; j < n; j++ {
			d := dist(items[i], items[j])
			kernel.SetSym(i, j, math.Exp(-d*d/width))
		}
		return nil
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	degrees := make([]float64, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			degrees[i] += kernel.At(i, j)
		}
	}
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			kernel.SetSym(i, j, kernel.At(i, j)/math.Sqrt(degrees[i]*degrees[j]))
		}
	}
	if timesteps > 1 {
		kernel = linalg.SymPow(kernel, timesteps)
	}
	return kernel, nil
}

func (e *implementation[T]) embedDiffusionMap() (*Result, error) {
	diffusion, err := computeDiffusionMatrix(e.items, e.callbacks.Distance, e.timesteps, e.width, e.nWorkers)
	if err != nil {
		return nil, errors.Trace(err)
	}
	e.ctx.Report(0.5)
	embedding, values, err := linalg.EigenEmbedding(e.eigenMethod, linalg.SymOperator{Matrix: diffusion},
		e.targetDimension, linalg.SkipNoEigenvalues, true)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &Result{Embedding: embedding, Eigenvalues: values}, nil
}
