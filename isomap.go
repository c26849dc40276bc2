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
	"github.com/manifold-io/manifold/base/heap"
	"github.com/manifold-io/manifold/base/parallel"
	"github.com/manifold-io/manifold/linalg"
	"github.com/manifold-io/manifold/neighbors"
	"gonum.org/v1/gonum/mat"
)

type graphEdge struct {
	to     int
	weight float64
}

// buildAdjacency symmetrizes the neighbor graph with user distances as edge
// weights.
func buildAdjacency[T any](items []T, nn neighbors.Neighbors, dist DistanceFunc[T]) [][]graphEdge {
	adjacency := make([][]graphEdge, len(items))
	for i, row := range nn {
		for _, j := range row {
			w := dist(items[i], items[j])
			adjacency[i] = append(adjacency[i], graphEdge{to: j, weight: w})
			adjacency[j] = append(adjacency[j], graphEdge{to: i, weight: w})
		}
	}
	return adjacency
}

// dijkstra fills distances from source over the weighted adjacency, using
// lazy deletion on the priority queue.
func dijkstra(adjacency [][]graphEdge, source int, distances []float64) {
	for i := range distances {
		distances[i] = math.Inf(1)
	}
	distances[source] = 0
	pq := heap.NewPriorityQueue(false)
	pq.Push(int32(source), 0)
	for pq.Len() > 0 {
		u, d := pq.Pop()
		if d > distances[u] {
			continue
		}
		for _, edge := range adjacency[u] {
			if next := d + edge.weight; next < distances[edge.to] {
				distances[edge.to] = next
				pq.Push(int32(edge.to), next)
			}
		}
	}
}

// computeShortestDistances runs Dijkstra from every source index and returns
// the sources×N geodesic distance matrix. Unreachable pairs fall back to the
// largest finite distance found.
func computeShortestDistances[T any](items []T, sources []int, nn neighbors.Neighbors,
	dist DistanceFunc[T], nWorkers int) (*mat.Dense, error) {
	n := len(items)
	adjacency := buildAdjacency(items, nn, dist)
	out := mat.NewDense(len(sources), n, nil)
	err := parallel.Parallel(len(sources), nWorkers, func(_, s int) error {
		distances := make([]float64, n)
		dijkstra(adjacency, sources[s], distances)
		for j := 0; j < n; j++ {
			out.Set(s, j, distances[j])
		}
		return nil
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	// cap unreachable pairs so downstream centering stays finite
	longest := 0.0
	infinite := false
	for s := range sources {
		for j := 0; j < n; j++ {
			if v := out.At(s, j); math.IsInf(v, 1) {
				infinite = true
			} else if v > longest {
				longest = v
			}
		}
	}
	if infinite {
		for s := range sources {
			for j := 0; j < n; j++ {
				if math.IsInf(out.At(s, j), 1) {
					out.Set(s, j, longest)
				}
			}
		}
	}
	return out, nil
}

func allIndices(n int) []int {
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	return indices
}

func (e *implementation[T]) embedIsomap() (*Result, error) {
	nn, err := e.findNeighbors(e.callbacks.Distance)
	if err != nil {
		return nil, errors.Trace(err)
	}
	geodesic, err := computeShortestDistances(e.items, allIndices(e.n), nn, e.callbacks.Distance, e.nWorkers)
	if err != nil {
		return nil, errors.Trace(err)
	}
	squared := mat.NewSymDense(e.n, nil)
	for i := 0; i < e.n; i++ {
		for j := i; j < e.n; j++ {
			// Dijkstra is exact, so both directions agree up to roundoff
			d := (geodesic.At(i, j) + geodesic.At(j, i)) / 2
			squared.SetSym(i, j, d*d)
		}
	}
	linalg.CenterSymmetric(squared)
	linalg.ScaleSymmetric(squared, -0.5)
	e.ctx.Report(0.5)
	embedding, values, err := linalg.EigenEmbedding(e.eigenMethod, linalg.SymOperator{Matrix: squared},
		e.targetDimension, linalg.SkipNoEigenvalues, true)
	if err != nil {
		return nil, errors.Trace(err)
	}
	scaleByEigenvalues(embedding, values)
	return &Result{Embedding: embedding, Eigenvalues: values}, nil
}

func (e *implementation[T]) embedLandmarkIsomap() (*Result, error) {
	nn, err := e.findNeighbors(e.callbacks.Distance)
	if err != nil {
		return nil, errors.Trace(err)
	}
	landmarks := selectLandmarksRandom(e.rng(), e.n, e.ratio)
	if len(landmarks) < e.targetDimension {
		return nil, errors.Annotatef(ErrParameterOutOfRange,
			"%v landmarks cannot span %v dimensions", len(landmarks), e.targetDimension)
	}
	geodesic, err := computeShortestDistances(e.items, landmarks, nn, e.callbacks.Distance, e.nWorkers)
	if err != nil {
		return nil, errors.Trace(err)
	}
	nLandmarks := len(landmarks)
	centered := mat.NewDense(nLandmarks, e.n, nil)
	rowMeans := make([]float64, nLandmarks)
	columnMeans := make([]float64, e.n)
	grandMean := 0.0
	for i := 0; i < nLandmarks; i++ {
		for j := 0; j < e.n; j++ {
			v := geodesic.At(i, j)
			v *= v
			centered.Set(i, j, v)
			rowMeans[i] += v / float64(e.n)
			columnMeans[j] += v / float64(nLandmarks)
			grandMean += v
		}
	}
	grandMean /= float64(nLandmarks) * float64(e.n)
	for i := 0; i < nLandmarks; i++ {
		for j := 0; j < e.n; j++ {
			centered.Set(i, j, -0.5*(centered.At(i, j)+grandMean-rowMeans[i]-columnMeans[j]))
		}
	}
	e.ctx.Report(0.5)
	// spectral decomposition of C Cᵀ recovers the landmark axes
	var square mat.Dense
	square.Mul(centered, centered.T())
	sym := mat.NewSymDense(nLandmarks, nil)
	for i := 0; i < nLandmarks; i++ {
		for j := i; j < nLandmarks; j++ {
			sym.SetSym(i, j, (square.At(i, j)+square.At(j, i))/2)
		}
	}
	vectors, values, err := linalg.EigenEmbedding(e.eigenMethod, linalg.SymOperator{Matrix: sym},
		e.targetDimension, linalg.SkipNoEigenvalues, true)
	if err != nil {
		return nil, errors.Trace(err)
	}
	var embedding mat.Dense
	embedding.Mul(centered.T(), vectors)
	for j := 0; j < e.targetDimension; j++ {
		scale := math.Sqrt(math.Sqrt(math.Max(0, values[j])))
		if scale > 0 {
			for i := 0; i < e.n; i++ {
				embedding.Set(i, j, embedding.At(i, j)/scale)
			}
		}
	}
	return &Result{Embedding: &embedding, Eigenvalues: values}, nil
}
