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

// Package neighbors builds k-nearest-neighbor graphs over abstract datasets
// accessed through a pairwise distance callback.
package neighbors

import (
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/juju/errors"
)

// ErrGraphDisconnected reports a neighbor graph whose undirected
// symmetrization is not connected.
const ErrGraphDisconnected = errors.ConstError("graph disconnected")

// Method selects the neighbor search strategy.
type Method int

const (
	// CoverTree searches a metric tree; same output contract as Brute.
	CoverTree Method = iota
	// Brute computes all pairwise distances.
	Brute
)

func (m Method) String() string {
	switch m {
	case CoverTree:
		return "CoverTree"
	case Brute:
		return "Brute"
	default:
		return "Unknown"
	}
}

// Neighbors holds, for each of N items, the ordered indices of its k nearest
// neighbors (self excluded).
type Neighbors [][]int

// Find builds the k-nearest-neighbor graph of items under dist. When
// checkConnectivity is set, a disconnected symmetrized graph fails with
// ErrGraphDisconnected.
func Find[T any](method Method, items []T, dist func(a, b T) float64, k int, checkConnectivity bool) (Neighbors, error) {
	n := len(items)
	if k < 1 || k >= n {
		return nil, errors.Errorf("cannot select %v neighbors among %v items", k, n)
	}
	var nn Neighbors
	switch method {
	case Brute:
		nn = bruteNeighbors(items, dist, k)
	case CoverTree:
		nn = coverTreeNeighbors(items, dist, k)
	default:
		return nil, errors.Errorf("unknown neighbors method: %v", method)
	}
	if checkConnectivity && !connected(nn) {
		return nil, errors.Annotatef(ErrGraphDisconnected,
			"%v-neighbor graph of %v items", k, n)
	}
	return nn, nil
}

// connected checks whether the undirected symmetrization of the neighbor
// graph is a single component.
func connected(nn Neighbors) bool {
	n := len(nn)
	adjacent := make([][]int, n)
	for i, row := range nn {
		for _, j := range row {
			adjacent[i] = append(adjacent[i], j)
			adjacent[j] = append(adjacent[j], i)
		}
	}
	visited := mapset.NewThreadUnsafeSet[int]()
	queue := []int{0}
	visited.Add(0)
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, v := range adjacent[u] {
			if !visited.Contains(v) {
				visited.Add(v)
				queue = append(queue, v)
			}
		}
	}
	return visited.Cardinality() == n
}
