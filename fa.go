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
	"gonum.org/v1/gonum/mat"
)

// factorAnalysis fits a latent linear Gaussian model by expectation
// maximization and returns the posterior latent coordinates. The loop stops
// when the log-likelihood change drops below epsilon or after maxIteration
// steps.
func factorAnalysis[T any](e *implementation[T], features *mat.Dense, mean []float64,
	maxIteration int, epsilon float64) (*mat.Dense, error) {
	d, n := features.Dims()
	target := e.targetDimension
	centered := mat.NewDense(d, n, nil)
	for r := 0; r < d; r++ {
		for i := 0; i < n; i++ {
			centered.Set(r, i, features.At(r, i)-mean[r])
		}
	}
	// sample covariance with the biased normalizer used by the likelihood
	var scatter mat.Dense
	scatter.Mul(centered, centered.T())
	scatter.Scale(1/float64(n), &scatter)

	rng := e.rng()
	loadings := mat.NewDense(d, target, nil)
	for r := 0; r < d; r++ {
		for c := 0; c < target; c++ {
			loadings.Set(r, c, rng.NormFloat64())
		}
	}
	noise := make([]float64, d)
	for r := range noise {
		noise[r] = 1
	}

	var latent mat.Dense
	previous := math.Inf(-1)
	for iter := 0; iter < maxIteration; iter++ {
		if e.ctx.IsCancelled() {
			return nil, errors.Annotatef(ErrCancelled, "at iteration %v", iter)
		}
		e.ctx.Report(float64(iter) / float64(maxIteration))
		// E-step: posterior over the latent factors
		// G = I + Fᵀ Ψ⁻¹ F
		scaled := mat.NewDense(d, target, nil)
		for r := 0; r < d; r++ {
			for c := 0; c < target; c++ {
				scaled.Set(r, c, loadings.At(r, c)/noise[r])
			}
		}
		posterior := mat.NewDense(target, target, nil)
		posterior.Mul(loadings.T(), scaled)
		for c := 0; c < target; c++ {
			posterior.Set(c, c, posterior.At(c, c)+1)
		}
		var posteriorInv mat.Dense
		if err := posteriorInv.Inverse(posterior); err != nil {
			return nil, errors.Annotatef(ErrEigenFailure, "posterior covariance is singular")
		}
		var projector mat.Dense // G⁻¹ Fᵀ Ψ⁻¹, target×d
		projector.Mul(&posteriorInv, scaled.T())
		latent.Mul(&projector, centered) // target×n
		// second moment of the latent factors
		var moment mat.Dense
		moment.Mul(&latent, latent.T())
		var secondMoment mat.Dense
		secondMoment.Scale(float64(n), &posteriorInv)
		secondMoment.Add(&secondMoment, &moment)
		// M-step
		var crossMoment mat.Dense // d×target
		crossMoment.Mul(centered, latent.T())
		var secondMomentInv mat.Dense
		if err := secondMomentInv.Inverse(&secondMoment); err != nil {
			return nil, errors.Annotatef(ErrEigenFailure, "latent second moment is singular")
		}
		loadings.Mul(&crossMoment, &secondMomentInv)
		var reconstructed mat.Dense // F E[z] Xᵀ, d×d
		reconstructed.Mul(loadings, crossMoment.T())
		for r := 0; r < d; r++ {
			v := scatter.At(r, r) - reconstructed.At(r, r)/float64(n)
			noise[r] = math.Max(v, 1e-12)
		}
		// log-likelihood of the current model C = F Fᵀ + Ψ
		var model mat.Dense
		model.Mul(loadings, loadings.T())
		for r := 0; r < d; r++ {
			model.Set(r, r, model.At(r, r)+noise[r])
		}
		likelihood, err := gaussianLogLikelihood(&model, &scatter, n)
		if err != nil {
			return nil, errors.Trace(err)
		}
		if math.Abs(likelihood-previous) < epsilon {
			break
		}
		previous = likelihood
	}
	var embedding mat.Dense
	embedding.CloneFrom(latent.T())
	return &embedding, nil
}

func gaussianLogLikelihood(model, scatter *mat.Dense, n int) (float64, error) {
	d, _ := model.Dims()
	var lu mat.LU
	lu.Factorize(model)
	logDet, sign := lu.LogDet()
	if sign <= 0 {
		return 0, errors.Annotatef(ErrEigenFailure, "model covariance is not positive definite")
	}
	var solved mat.Dense
	if err := lu.SolveTo(&solved, false, scatter); err != nil {
		return 0, errors.Annotatef(ErrEigenFailure, "model covariance is singular")
	}
	traceTerm := 0.0
	for r := 0; r < d; r++ {
		traceTerm += solved.At(r, r)
	}
	return -float64(n) / 2 * (float64(d)*math.Log(2*math.Pi) + logDet + traceTerm), nil
}

func (e *implementation[T]) embedFactorAnalysis() (*Result, error) {
	dimension, err := e.currentDimension()
	if err != nil {
		return nil, errors.Trace(err)
	}
	maxIteration, err := e.params.RequireInt(MaxIteration)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if err := checkPositiveInt(MaxIteration, maxIteration); err != nil {
		return nil, errors.Trace(err)
	}
	epsilon, err := e.params.RequireFloat(FaEpsilon)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if err := checkPositiveFloat(FaEpsilon, epsilon); err != nil {
		return nil, errors.Trace(err)
	}
	features := e.featureMatrix(dimension)
	embedding, err := factorAnalysis(e, features, computeMean(features), maxIteration, epsilon)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &Result{Embedding: embedding}, nil
}
