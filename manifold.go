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

// Package manifold implements nonlinear dimensionality reduction: given a
// finite dataset and a notion of similarity delivered through callbacks, it
// produces a low-dimensional real-valued embedding preserving a chosen
// geometric property.
package manifold

import (
	"math"
	"runtime"
	"time"

	"github.com/juju/errors"
	"github.com/manifold-io/manifold/base/progress"
	"github.com/manifold-io/manifold/neighbors"
)

// Embed runs the method selected by params[Method] over items and returns the
// embedding, with a projecting function for linear methods. ctx may be nil.
func Embed[T any](items []T, callbacks Callbacks[T], params Params, ctx *progress.Context) (*Result, error) {
	impl, err := newImplementation(items, callbacks, params, ctx)
	if err != nil {
		return nil, errors.Trace(err)
	}
	method, err := params.GetMethod()
	if err != nil {
		return nil, errors.Trace(err)
	}
	return impl.embed(method)
}

// implementation carries one embedding call: the dataset, the callbacks and
// the resolved common parameters.
type implementation[T any] struct {
	items     []T
	callbacks Callbacks[T]
	params    Params
	ctx       *progress.Context
	n         int

	eigenMethod       EigenEmbeddingMethodId
	neighborsMethod   NeighborsMethodId
	targetDimension   int
	perplexity        float64
	ratio             float64
	width             float64
	timesteps         int
	eigenshift        float64
	traceshift        float64
	checkConnectivity bool
	nWorkers          int
	seed              int64
}

func newImplementation[T any](items []T, callbacks Callbacks[T], params Params, ctx *progress.Context) (*implementation[T], error) {
	e := &implementation[T]{
		items:     items,
		callbacks: callbacks,
		params:    params,
		ctx:       ctx,
		n:         len(items),
	}
	if e.n == 0 {
		return nil, errors.Annotatef(ErrParameterOutOfRange, "empty dataset")
	}
	var err error
	if e.targetDimension, err = params.GetInt(TargetDimension, 2); err != nil {
		return nil, errors.Trace(err)
	}
	if err = checkRangeInt(TargetDimension, e.targetDimension, 1, e.n); err != nil {
		return nil, errors.Trace(err)
	}
	defaultPerplexity := math.Min(30, float64(e.n-1)/3)
	if e.perplexity, err = params.GetFloat(SnePerplexity, defaultPerplexity); err != nil {
		return nil, errors.Trace(err)
	}
	if e.perplexity <= 0 || e.perplexity > float64(e.n-1)/3+1e-6 {
		return nil, errors.Annotatef(ErrParameterOutOfRange,
			"%s = %v not in (0, %v]", SnePerplexity, e.perplexity, float64(e.n-1)/3)
	}
	if e.ratio, err = params.GetFloat(LandmarkRatio, 0.5); err != nil {
		return nil, errors.Trace(err)
	}
	if err = checkRangeFloat(LandmarkRatio, e.ratio, 1/float64(e.n), 1); err != nil {
		return nil, errors.Trace(err)
	}
	if e.width, err = params.GetFloat(GaussianKernelWidth, 1.0); err != nil {
		return nil, errors.Trace(err)
	}
	if err = checkPositiveFloat(GaussianKernelWidth, e.width); err != nil {
		return nil, errors.Trace(err)
	}
	if e.timesteps, err = params.GetInt(DiffusionMapTimesteps, 1); err != nil {
		return nil, errors.Trace(err)
	}
	if err = checkPositiveInt(DiffusionMapTimesteps, e.timesteps); err != nil {
		return nil, errors.Trace(err)
	}
	if e.eigenshift, err = params.GetFloat(NullspaceShift, 1e-9); err != nil {
		return nil, errors.Trace(err)
	}
	if err = checkPositiveFloat(NullspaceShift, e.eigenshift); err != nil {
		return nil, errors.Trace(err)
	}
	if e.traceshift, err = params.GetFloat(KlleShift, 1e-3); err != nil {
		return nil, errors.Trace(err)
	}
	if err = checkPositiveFloat(KlleShift, e.traceshift); err != nil {
		return nil, errors.Trace(err)
	}
	if e.checkConnectivity, err = params.GetBool(CheckConnectivity, true); err != nil {
		return nil, errors.Trace(err)
	}
	if e.eigenMethod, err = params.GetEigenMethod(Dense); err != nil {
		return nil, errors.Trace(err)
	}
	if e.neighborsMethod, err = params.GetNeighborsMethod(CoverTree); err != nil {
		return nil, errors.Trace(err)
	}
	if e.nWorkers, err = params.GetInt(NumberOfThreads, runtime.NumCPU()); err != nil {
		return nil, errors.Trace(err)
	}
	if err = checkPositiveInt(NumberOfThreads, e.nWorkers); err != nil {
		return nil, errors.Trace(err)
	}
	if e.seed, err = params.GetInt64(RandomSeed, time.Now().UnixNano()); err != nil {
		return nil, errors.Trace(err)
	}
	return e, nil
}

func (e *implementation[T]) embed(method MethodId) (result *Result, err error) {
	if e.ctx.IsCancelled() {
		return nil, errors.Annotatef(ErrCancelled, "before %v", method)
	}
	span := progress.StartSpan("embedding with " + method.String())
	defer span.End()
	switch method {
	case KernelLocallyLinearEmbedding:
		result, err = e.embedKernelLocallyLinearEmbedding()
	case KernelLocalTangentSpaceAlignment:
		result, err = e.embedKernelLocalTangentSpaceAlignment()
	case HessianLocallyLinearEmbedding:
		result, err = e.embedHessianLocallyLinearEmbedding()
	case DiffusionMap:
		result, err = e.embedDiffusionMap()
	case MultidimensionalScaling:
		result, err = e.embedMultidimensionalScaling()
	case LandmarkMultidimensionalScaling:
		result, err = e.embedLandmarkMultidimensionalScaling()
	case Isomap:
		result, err = e.embedIsomap()
	case LandmarkIsomap:
		result, err = e.embedLandmarkIsomap()
	case NeighborhoodPreservingEmbedding:
		result, err = e.embedNeighborhoodPreservingEmbedding()
	case LinearLocalTangentSpaceAlignment:
		result, err = e.embedLinearLocalTangentSpaceAlignment()
	case LaplacianEigenmaps:
		result, err = e.embedLaplacianEigenmaps()
	case LocalityPreservingProjections:
		result, err = e.embedLocalityPreservingProjections()
	case PCA:
		result, err = e.embedPCA()
	case KernelPCA:
		result, err = e.embedKernelPCA()
	case RandomProjection:
		result, err = e.embedRandomProjection()
	case StochasticProximityEmbedding:
		result, err = e.embedStochasticProximityEmbedding()
	case PassThru:
		result, err = e.embedPassThru()
	case FactorAnalysis:
		result, err = e.embedFactorAnalysis()
	case TDistributedStochasticNeighborEmbedding:
		result, err = e.embedTSNE()
	default:
		return nil, errors.Annotatef(ErrUnsupportedMethod, "%v", int(method))
	}
	if err != nil {
		return nil, errors.Trace(err)
	}
	e.ctx.Report(1)
	return result, nil
}

// findNeighbors builds the k-nearest-neighbor graph under the configured
// strategy. The distance may be the user distance or the kernel-induced one.
func (e *implementation[T]) findNeighbors(dist DistanceFunc[T]) (neighbors.Neighbors, error) {
	k, err := e.params.RequireInt(NumberOfNeighbors)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if err := checkRangeInt(NumberOfNeighbors, k, 3, e.n-1); err != nil {
		return nil, errors.Trace(err)
	}
	if e.neighborsMethod != CoverTree && e.neighborsMethod != Brute {
		return nil, errors.Annotatef(ErrParameterOutOfRange, "%s = %v", NeighborsMethod, int(e.neighborsMethod))
	}
	span := progress.StartSpan("neighbor graph")
	defer span.End()
	nn, err := neighbors.Find(e.neighborsMethod, e.items, dist, k, e.checkConnectivity)
	if err != nil {
		return nil, errors.Trace(err)
	}
	e.ctx.Report(0.25)
	return nn, nil
}

// currentDimension resolves the feature vector length for methods that read
// features.
func (e *implementation[T]) currentDimension() (int, error) {
	dim, err := e.params.RequireInt(CurrentDimension)
	if err != nil {
		return 0, errors.Trace(err)
	}
	if err := checkPositiveInt(CurrentDimension, dim); err != nil {
		return 0, errors.Trace(err)
	}
	return dim, nil
}

func (e *implementation[T]) rng() RandomGenerator {
	return NewRandomGenerator(e.seed)
}
