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

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/juju/errors"
	"github.com/manifold-io/manifold/neighbors"
	"gonum.org/v1/gonum/mat"
)

// speEmbedding runs stochastic proximity embedding. Each iteration shuffles
// the indices, pairs the first 2·nUpdates of them and moves every pair toward
// its target distance with a linearly decaying learning rate. Under the local
// strategy pairs joined by a neighbor graph edge always update; other pairs
// only repel when the embedded distance undershoots the target.
func speEmbedding[T any](e *implementation[T], dist DistanceFunc[T], nn neighbors.Neighbors,
	globalStrategy bool, tolerance float64, nUpdates int) (*mat.Dense, error) {
	n := e.n
	d := e.targetDimension
	if nUpdates > n/2 {
		nUpdates = n / 2
	}
	maxIter := 2000 + int(math.Round(0.04*float64(n)*float64(n)))
	alpha := 1.0
	if globalStrategy {
		// look for the maximum distance
		longest := 0.0
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				longest = math.Max(longest, dist(e.items[i], e.items[j]))
			}
		}
		if longest > 0 {
			alpha = math.Sqrt2 / longest
		}
	} else {
		maxIter *= 3
	}
	var neighborSets []mapset.Set[int]
	if nn != nil {
		neighborSets = make([]mapset.Set[int], n)
		for i, row := range nn {
			neighborSets[i] = mapset.NewThreadUnsafeSet(row...)
		}
	}
	rng := e.rng()
	embedding := mat.NewDense(d, n, nil)
	for r := 0; r < d; r++ {
		for i := 0; i < n; i++ {
			embedding.Set(r, i, rng.Float64())
		}
	}
	indices := allIndices(n)
	lambda := 1.0
	for iter := 0; iter < maxIter; iter++ {
		if e.ctx.IsCancelled() {
			return nil, errors.Annotatef(ErrCancelled, "at iteration %v", iter)
		}
		if iter%1000 == 0 {
			e.ctx.Report(float64(iter) / float64(maxIter))
		}
		rng.Shuffle(n, func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
		for j := 0; j < nUpdates; j++ {
			a, b := indices[j], indices[j+nUpdates]
			embedded := 0.0
			for r := 0; r < d; r++ {
				diff := embedding.At(r, a) - embedding.At(r, b)
				embedded += diff * diff
			}
			embedded = math.Sqrt(embedded)
			target := alpha * dist(e.items[a], e.items[b])
			if neighborSets != nil && !neighborSets[a].Contains(b) && !neighborSets[b].Contains(a) &&
				embedded >= target {
				continue
			}
			scale := lambda / 2 * (target - embedded) / (embedded + tolerance)
			for r := 0; r < d; r++ {
				diff := embedding.At(r, a) - embedding.At(r, b)
				embedding.Set(r, a, embedding.At(r, a)+scale*diff)
				embedding.Set(r, b, embedding.At(r, b)-scale*diff)
			}
		}
		lambda = 1 - float64(iter+1)/float64(maxIter)
	}
	var transposed mat.Dense
	transposed.CloneFrom(embedding.T())
	return &transposed, nil
}

func (e *implementation[T]) embedStochasticProximityEmbedding() (*Result, error) {
	tolerance, err := e.params.RequireFloat(SpeTolerance)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if err := checkPositiveFloat(SpeTolerance, tolerance); err != nil {
		return nil, errors.Trace(err)
	}
	nUpdates, err := e.params.RequireInt(SpeNumberOfUpdates)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if err := checkPositiveInt(SpeNumberOfUpdates, nUpdates); err != nil {
		return nil, errors.Trace(err)
	}
	globalStrategy, err := e.params.GetBool(SpeGlobalStrategy, true)
	if err != nil {
		return nil, errors.Trace(err)
	}
	var nn neighbors.Neighbors
	if !globalStrategy {
		if nn, err = e.findNeighbors(e.callbacks.Distance); err != nil {
			return nil, errors.Trace(err)
		}
	}
	embedding, err := speEmbedding(e, e.callbacks.Distance, nn, globalStrategy, tolerance, nUpdates)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &Result{Embedding: embedding}, nil
}
