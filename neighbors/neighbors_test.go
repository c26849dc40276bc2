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

package neighbors

import (
	"math"
	"math/rand"
	"testing"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/stretchr/testify/assert"
)

func euclidean(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += (a[i] - b[i]) * (a[i] - b[i])
	}
	return math.Sqrt(sum)
}

func randomPoints(n, dim int, seed int64) [][]float64 {
	rng := rand.New(rand.NewSource(seed))
	points := make([][]float64, n)
	for i := range points {
		points[i] = make([]float64, dim)
		for j := range points[i] {
			points[i][j] = rng.NormFloat64()
		}
	}
	return points
}

func TestBruteNeighborsLine(t *testing.T) {
	// points on a line: neighbors are the adjacent indices
	items := [][]float64{{0}, {1}, {2}, {3}, {4}}
	nn, err := Find(Brute, items, euclidean, 2, true)
	assert.NoError(t, err)
	assert.Equal(t, Neighbors{{1, 2}, {0, 2}, {1, 3}, {2, 4}, {3, 2}}, nn)
}

func TestBruteTieBreak(t *testing.T) {
	// items 1 and 2 are equidistant from 0: the smaller index wins
	items := [][]float64{{0}, {1}, {-1}, {5}}
	nn, err := Find(Brute, items, euclidean, 1, false)
	assert.NoError(t, err)
	assert.Equal(t, []int{1}, nn[0])
}

func TestCoverTreeMatchesBrute(t *testing.T) {
	items := randomPoints(200, 3, 0)
	brute, err := Find(Brute, items, euclidean, 7, false)
	assert.NoError(t, err)
	tree, err := Find(CoverTree, items, euclidean, 7, false)
	assert.NoError(t, err)
	for i := range brute {
		assert.ElementsMatch(t, brute[i], tree[i], "row %d", i)
	}
}

func TestNeighborsContract(t *testing.T) {
	items := randomPoints(100, 4, 1)
	for _, method := range []Method{Brute, CoverTree} {
		nn, err := Find(method, items, euclidean, 5, false)
		assert.NoError(t, err)
		assert.Len(t, nn, 100)
		for i, row := range nn {
			assert.Len(t, row, 5)
			seen := mapset.NewSet(row...)
			assert.Equal(t, 5, seen.Cardinality())
			assert.False(t, seen.Contains(i))
			for _, j := range row {
				assert.GreaterOrEqual(t, j, 0)
				assert.Less(t, j, 100)
			}
		}
	}
}

func TestDisconnectedGraph(t *testing.T) {
	// two clusters far apart with k=1 cannot be connected
	items := [][]float64{{0}, {0.1}, {100}, {100.1}}
	for _, method := range []Method{Brute, CoverTree} {
		_, err := Find(method, items, euclidean, 1, true)
		assert.ErrorIs(t, err, ErrGraphDisconnected)
		// without the check the same graph is accepted
		nn, err := Find(method, items, euclidean, 1, false)
		assert.NoError(t, err)
		assert.Equal(t, Neighbors{{1}, {0}, {3}, {2}}, nn)
	}
}

func TestInvalidNeighborCount(t *testing.T) {
	items := [][]float64{{0}, {1}, {2}}
	_, err := Find(Brute, items, euclidean, 3, false)
	assert.Error(t, err)
	_, err = Find(Brute, items, euclidean, 0, false)
	assert.Error(t, err)
}

func TestMethodString(t *testing.T) {
	assert.Equal(t, "CoverTree", CoverTree.String())
	assert.Equal(t, "Brute", Brute.String())
}
