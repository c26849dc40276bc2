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
	"github.com/manifold-io/manifold/base/progress"
	"gonum.org/v1/gonum/mat"
)

// SNEOptimizer is the narrow interface to a t-SNE optimizer: a D×N data
// matrix, a perplexity and a gradient accuracy parameter in, a
// targetDimension×N embedding out. Tree-approximated optimizers honoring
// theta plug in through the same interface.
type SNEOptimizer interface {
	Run(data *mat.Dense, targetDimension int, perplexity, theta float64,
		rng RandomGenerator, ctx *progress.Context) (*mat.Dense, error)
}

var sneOptimizer SNEOptimizer = exactSNEOptimizer{}

// UseSNEOptimizer swaps the t-SNE optimizer, returning the previous one.
func UseSNEOptimizer(optimizer SNEOptimizer) SNEOptimizer {
	previous := sneOptimizer
	sneOptimizer = optimizer
	return previous
}

func (e *implementation[T]) embedTSNE() (*Result, error) {
	dimension, err := e.currentDimension()
	if err != nil {
		return nil, errors.Trace(err)
	}
	theta, err := e.params.RequireFloat(SneTheta)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if err := checkPositiveFloat(SneTheta, theta); err != nil {
		return nil, errors.Trace(err)
	}
	data := e.featureMatrix(dimension)
	embedding, err := sneOptimizer.Run(data, e.targetDimension, e.perplexity, theta, e.rng(), e.ctx)
	if err != nil {
		return nil, errors.Trace(err)
	}
	var transposed mat.Dense
	transposed.CloneFrom(embedding.T())
	return &Result{Embedding: &transposed}, nil
}

// exactSNEOptimizer minimizes the Kullback-Leibler divergence with the exact
// gradient, momentum and early exaggeration.
type exactSNEOptimizer struct{}

const (
	sneIterations         = 1000
	sneExaggeration       = 4.0
	sneStopExaggerating   = 100
	sneMomentumSwitch     = 250
	sneInitialMomentum    = 0.5
	sneFinalMomentum      = 0.8
	sneLearningRate       = 200.0
	snePerplexityAttempts = 50
)

func (exactSNEOptimizer) Run(data *mat.Dense, targetDimension int, perplexity, _ float64,
	rng RandomGenerator, ctx *progress.Context) (*mat.Dense, error) {
	_, n := data.Dims()
	p := conditionalProbabilities(data, perplexity)
	// symmetrize and exaggerate
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			v := (p.At(i, j) + p.At(j, i)) / (2 * float64(n))
			v = math.Max(v, 1e-12) * sneExaggeration
			p.Set(i, j, v)
			p.Set(j, i, v)
		}
	}
	embedding := mat.NewDense(targetDimension, n, nil)
	for r := 0; r < targetDimension; r++ {
		for i := 0; i < n; i++ {
			embedding.Set(r, i, rng.NormFloat64()*1e-4)
		}
	}
	velocity := mat.NewDense(targetDimension, n, nil)
	gains := mat.NewDense(targetDimension, n, nil)
	for r := 0; r < targetDimension; r++ {
		for i := 0; i < n; i++ {
			gains.Set(r, i, 1)
		}
	}
	q := mat.NewDense(n, n, nil)
	gradient := mat.NewDense(targetDimension, n, nil)
	for iter := 0; iter < sneIterations; iter++ {
		if ctx.IsCancelled() {
			return nil, errors.Annotatef(ErrCancelled, "at iteration %v", iter)
		}
		if iter%50 == 0 {
			ctx.Report(float64(iter) / sneIterations)
		}
		if iter == sneStopExaggerating {
			for i := 0; i < n; i++ {
				for j := 0; j < n; j++ {
					if i != j {
						p.Set(i, j, p.At(i, j)/sneExaggeration)
					}
				}
			}
		}
		// student-t affinities in the embedding
		sum := 0.0
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				dist := 0.0
				for r := 0; r < targetDimension; r++ {
					diff := embedding.At(r, i) - embedding.At(r, j)
					dist += diff * diff
				}
				w := 1 / (1 + dist)
				q.Set(i, j, w)
				q.Set(j, i, w)
				sum += 2 * w
			}
		}
		// gradient of the divergence
		for r := 0; r < targetDimension; r++ {
			for i := 0; i < n; i++ {
				gradient.Set(r, i, 0)
			}
		}
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				if i == j {
					continue
				}
				w := q.At(i, j)
				force := 4 * (p.At(i, j) - w/sum) * w
				for r := 0; r < targetDimension; r++ {
					diff := embedding.At(r, i) - embedding.At(r, j)
					gradient.Set(r, i, gradient.At(r, i)+force*diff)
				}
			}
		}
		momentum := sneInitialMomentum
		if iter >= sneMomentumSwitch {
			momentum = sneFinalMomentum
		}
		for r := 0; r < targetDimension; r++ {
			for i := 0; i < n; i++ {
				g := gradient.At(r, i)
				gain := gains.At(r, i)
				if (g > 0) == (velocity.At(r, i) > 0) {
					gain *= 0.8
				} else {
					gain += 0.2
				}
				gain = math.Max(gain, 0.01)
				gains.Set(r, i, gain)
				v := momentum*velocity.At(r, i) - sneLearningRate*gain*g
				velocity.Set(r, i, v)
				embedding.Set(r, i, embedding.At(r, i)+v)
			}
		}
		// keep the embedding centered
		for r := 0; r < targetDimension; r++ {
			mean := 0.0
			for i := 0; i < n; i++ {
				mean += embedding.At(r, i)
			}
			mean /= float64(n)
			for i := 0; i < n; i++ {
				embedding.Set(r, i, embedding.At(r, i)-mean)
			}
		}
	}
	return embedding, nil
}

// conditionalProbabilities binary-searches a per-point bandwidth matching the
// target perplexity and returns the row-conditional affinities.
func conditionalProbabilities(data *mat.Dense, perplexity float64) *mat.Dense {
	d, n := data.Dims()
	squared := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dist := 0.0
			for r := 0; r < d; r++ {
				diff := data.At(r, i) - data.At(r, j)
				dist += diff * diff
			}
			squared.Set(i, j, dist)
			squared.Set(j, i, dist)
		}
	}
	target := math.Log(perplexity)
	p := mat.NewDense(n, n, nil)
	row := make([]float64, n)
	for i := 0; i < n; i++ {
		beta := 1.0
		betaMin := math.Inf(-1)
		betaMax := math.Inf(1)
		var entropy float64
		for attempt := 0; attempt < snePerplexityAttempts; attempt++ {
			sum := 0.0
			for j := 0; j < n; j++ {
				if j == i {
					row[j] = 0
					continue
				}
				row[j] = math.Exp(-squared.At(i, j) * beta)
				sum += row[j]
			}
			if sum == 0 {
				sum = 1e-300
			}
			entropy = 0
			for j := 0; j < n; j++ {
				row[j] /= sum
				if row[j] > 1e-300 {
					entropy -= row[j] * math.Log(row[j])
				}
			}
			if math.Abs(entropy-target) < 1e-5 {
				break
			}
			if entropy > target {
				betaMin = beta
				if math.IsInf(betaMax, 1) {
					beta *= 2
				} else {
					beta = (beta + betaMax) / 2
				}
			} else {
				betaMax = beta
				if math.IsInf(betaMin, -1) {
					beta /= 2
				} else {
					beta = (beta + betaMin) / 2
				}
			}
		}
		for j := 0; j < n; j++ {
			p.Set(i, j, row[j])
		}
	}
	return p
}
