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
	"testing"

	"github.com/manifold-io/manifold/base/progress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

func gaussianDataset(n, dim int, seed int64) [][]float64 {
	rng := NewRandomGenerator(seed)
	items := make([][]float64, n)
	for i := range items {
		items[i] = rng.NormalVector(dim, 0, 1)
	}
	return items
}

func embeddingColumn(embedding *mat.Dense, j int) []float64 {
	return mat.Col(nil, j, embedding)
}

func pairwiseDistance(embedding *mat.Dense, i, j int) float64 {
	_, cols := embedding.Dims()
	sum := 0.0
	for c := 0; c < cols; c++ {
		diff := embedding.At(i, c) - embedding.At(j, c)
		sum += diff * diff
	}
	return math.Sqrt(sum)
}

func columnsAgreeUpToSign(t *testing.T, a, b *mat.Dense, delta float64) {
	rows, cols := a.Dims()
	bRows, bCols := b.Dims()
	require.Equal(t, rows, bRows)
	require.Equal(t, cols, bCols)
	for j := 0; j < cols; j++ {
		direct, flipped := 0.0, 0.0
		for i := 0; i < rows; i++ {
			direct = math.Max(direct, math.Abs(a.At(i, j)-b.At(i, j)))
			flipped = math.Max(flipped, math.Abs(a.At(i, j)+b.At(i, j)))
		}
		assert.Less(t, math.Min(direct, flipped), delta, "column %d", j)
	}
}

// Every method returns an N×target_dimension embedding.
func TestEmbeddingShape(t *testing.T) {
	items := gaussianDataset(60, 3, 0)
	base := Params{
		TargetDimension:   2,
		CurrentDimension:  3,
		NumberOfNeighbors: 10,
		NeighborsMethod:   Brute,
		RandomSeed:        int64(42),
	}
	spe := Params{SpeTolerance: 1e-5, SpeNumberOfUpdates: 10}
	fa := Params{MaxIteration: 50, FaEpsilon: 1e-5}
	sne := Params{SneTheta: 0.5, SnePerplexity: 10.0}
	extras := map[MethodId]Params{
		StochasticProximityEmbedding:            spe,
		FactorAnalysis:                          fa,
		TDistributedStochasticNeighborEmbedding: sne,
	}
	methods := []MethodId{
		KernelLocallyLinearEmbedding,
		KernelLocalTangentSpaceAlignment,
		HessianLocallyLinearEmbedding,
		DiffusionMap,
		MultidimensionalScaling,
		LandmarkMultidimensionalScaling,
		Isomap,
		LandmarkIsomap,
		NeighborhoodPreservingEmbedding,
		LinearLocalTangentSpaceAlignment,
		LaplacianEigenmaps,
		LocalityPreservingProjections,
		PCA,
		KernelPCA,
		RandomProjection,
		StochasticProximityEmbedding,
		FactorAnalysis,
		TDistributedStochasticNeighborEmbedding,
	}
	for _, method := range methods {
		params := base.Copy()
		params[Method] = method
		if extra, ok := extras[method]; ok {
			params = params.Join(extra)
		}
		result, err := Embed(items, testCallbacks(), params, nil)
		require.NoError(t, err, method.String())
		rows, cols := result.Embedding.Dims()
		assert.Equal(t, 60, rows, method.String())
		assert.Equal(t, 2, cols, method.String())
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				assert.False(t, math.IsNaN(result.Embedding.At(i, j)), method.String())
			}
		}
	}
}

// PassThru returns exactly the feature matrix transposed.
func TestPassThruRoundTrip(t *testing.T) {
	items := planeDataset(20, 1)
	result, err := Embed(items, testCallbacks(), Params{
		Method:           PassThru,
		CurrentDimension: 3,
	}, nil)
	require.NoError(t, err)
	rows, cols := result.Embedding.Dims()
	assert.Equal(t, 20, rows)
	assert.Equal(t, 3, cols)
	for i, item := range items {
		for j := 0; j < 3; j++ {
			assert.Equal(t, item[j], result.Embedding.At(i, j))
		}
	}
	assert.Nil(t, result.Projection)
}

// Applying PCA twice with the same target dimension is an isometry of the
// first embedding.
func TestPCAIdempotence(t *testing.T) {
	items := gaussianDataset(80, 5, 2)
	first, err := Embed(items, testCallbacks(), Params{
		Method:           PCA,
		TargetDimension:  3,
		CurrentDimension: 5,
	}, nil)
	require.NoError(t, err)
	reduced := make([][]float64, 80)
	for i := range reduced {
		reduced[i] = mat.Row(nil, i, first.Embedding)
	}
	second, err := Embed(reduced, testCallbacks(), Params{
		Method:           PCA,
		TargetDimension:  3,
		CurrentDimension: 3,
	}, nil)
	require.NoError(t, err)
	for i := 0; i < 80; i++ {
		for j := i + 1; j < 80; j++ {
			assert.InDelta(t, pairwiseDistance(first.Embedding, i, j),
				pairwiseDistance(second.Embedding, i, j), 1e-8)
		}
	}
}

// PCA eigenvalues recover the generating variances.
func TestPCAEigenvalues(t *testing.T) {
	rng := NewRandomGenerator(22)
	n := 2000
	scales := []float64{2, 1, 0.5, 0.2}
	items := make([][]float64, n)
	for i := range items {
		items[i] = make([]float64, 4)
		for j := range items[i] {
			items[i][j] = rng.NormFloat64() * scales[j]
		}
	}
	result, err := Embed(items, testCallbacks(), Params{
		Method:           PCA,
		TargetDimension:  2,
		CurrentDimension: 4,
	}, nil)
	require.NoError(t, err)
	assert.InEpsilon(t, 4.0, result.Eigenvalues[0], 0.15)
	assert.InEpsilon(t, 1.0, result.Eigenvalues[1], 0.15)
}

// With a linear kernel, kernel PCA agrees with PCA up to per-column sign; the
// Gram eigenvalues are (N−1) times the covariance ones.
func TestKernelPCAMatchesPCA(t *testing.T) {
	items := gaussianDataset(50, 4, 3)
	pca, err := Embed(items, testCallbacks(), Params{
		Method:           PCA,
		TargetDimension:  2,
		CurrentDimension: 4,
	}, nil)
	require.NoError(t, err)
	kpca, err := Embed(items, testCallbacks(), Params{
		Method:          KernelPCA,
		TargetDimension: 2,
	}, nil)
	require.NoError(t, err)
	for j := 0; j < 2; j++ {
		assert.InDelta(t, pca.Eigenvalues[j], kpca.Eigenvalues[j]/49, 1e-8)
	}
	columnsAgreeUpToSign(t, pca.Embedding, kpca.Embedding, 1e-6)
}

// MDS reconstructs the pairwise distances of Euclidean data.
func TestMDSRecoversIsometry(t *testing.T) {
	items := gaussianDataset(40, 3, 4)
	result, err := Embed(items, testCallbacks(), Params{
		Method:          MultidimensionalScaling,
		TargetDimension: 3,
	}, nil)
	require.NoError(t, err)
	for i := 0; i < 40; i++ {
		for j := i + 1; j < 40; j++ {
			original := euclideanDistance(items[i], items[j])
			embedded := pairwiseDistance(result.Embedding, i, j)
			assert.InDelta(t, original, embedded, 1e-6*math.Max(1, original))
		}
	}
}

// With ratio 1 every point is a landmark and landmark MDS coincides with MDS.
func TestLandmarkMDSMatchesMDS(t *testing.T) {
	items := gaussianDataset(30, 3, 5)
	mds, err := Embed(items, testCallbacks(), Params{
		Method:          MultidimensionalScaling,
		TargetDimension: 2,
	}, nil)
	require.NoError(t, err)
	landmark, err := Embed(items, testCallbacks(), Params{
		Method:          LandmarkMultidimensionalScaling,
		TargetDimension: 2,
		LandmarkRatio:   1.0,
		RandomSeed:      int64(0),
	}, nil)
	require.NoError(t, err)
	columnsAgreeUpToSign(t, mds.Embedding, landmark.Embedding, 1e-6)
}

// No returned Laplacian eigenvalue is structurally null once the smallest is
// skipped.
func TestLaplacianSkipsNullEigenvalue(t *testing.T) {
	items := gaussianDataset(60, 3, 6)
	result, err := Embed(items, testCallbacks(), Params{
		Method:            LaplacianEigenmaps,
		TargetDimension:   2,
		NumberOfNeighbors: 10,
		NeighborsMethod:   Brute,
	}, nil)
	require.NoError(t, err)
	for _, value := range result.Eigenvalues {
		assert.Greater(t, value, 1e-10)
	}
}

// Two clusters with a too-small neighborhood fail the connectivity check.
func TestConnectivityCheckFails(t *testing.T) {
	items := make([][]float64, 0, 16)
	for i := 0; i < 8; i++ {
		items = append(items, []float64{float64(i) * 0.01, 0, 0})
	}
	for i := 0; i < 8; i++ {
		items = append(items, []float64{100 + float64(i)*0.01, 0, 0})
	}
	_, err := Embed(items, testCallbacks(), Params{
		Method:            Isomap,
		TargetDimension:   2,
		NumberOfNeighbors: 3,
		NeighborsMethod:   Brute,
		CheckConnectivity: true,
	}, nil)
	assert.ErrorIs(t, err, ErrGraphDisconnected)
}

// For linear methods the projecting function reproduces the in-sample
// embedding.
func TestProjectionConsistency(t *testing.T) {
	items := gaussianDataset(50, 4, 7)
	for _, method := range []MethodId{PCA, RandomProjection, NeighborhoodPreservingEmbedding,
		LocalityPreservingProjections, LinearLocalTangentSpaceAlignment} {
		result, err := Embed(items, testCallbacks(), Params{
			Method:            method,
			TargetDimension:   2,
			CurrentDimension:  4,
			NumberOfNeighbors: 8,
			NeighborsMethod:   Brute,
			RandomSeed:        int64(13),
		}, nil)
		require.NoError(t, err, method.String())
		require.NotNil(t, result.Projection, method.String())
		assert.Equal(t, 4, result.Projection.InputDimension())
		assert.Equal(t, 2, result.Projection.OutputDimension())
		for i, item := range items {
			projected := result.Projection.Project(item)
			for j := 0; j < 2; j++ {
				assert.InDelta(t, result.Embedding.At(i, j), projected[j], 1e-9, method.String())
			}
		}
	}
}

// Nonlinear methods never return a projecting function.
func TestNonlinearMethodsHaveNoProjection(t *testing.T) {
	items := gaussianDataset(40, 3, 8)
	result, err := Embed(items, testCallbacks(), Params{
		Method:          MultidimensionalScaling,
		TargetDimension: 2,
	}, nil)
	require.NoError(t, err)
	assert.Nil(t, result.Projection)
}

// Isomap unrolls a swiss roll: the first coordinate tracks the arc length.
func TestIsomapSwissRoll(t *testing.T) {
	n := 1000
	rng := NewRandomGenerator(9)
	items := make([][]float64, n)
	arc := make([]float64, n)
	for i := 0; i < n; i++ {
		angle := 1.5*math.Pi + 3*math.Pi*rng.Float64()
		height := 10 * rng.Float64()
		items[i] = []float64{angle * math.Cos(angle), height, angle * math.Sin(angle)}
		// unrolled coordinate of an Archimedean spiral
		arc[i] = (angle*math.Sqrt(1+angle*angle) + math.Asinh(angle)) / 2
	}
	result, err := Embed(items, testCallbacks(), Params{
		Method:            Isomap,
		TargetDimension:   2,
		NumberOfNeighbors: 12,
		NeighborsMethod:   Brute,
	}, nil)
	require.NoError(t, err)
	correlation := stat.Correlation(embeddingColumn(result.Embedding, 0), arc, nil)
	assert.Greater(t, math.Abs(correlation), 0.95)
}

// Laplacian eigenmaps separates two weakly coupled circles by sign.
func TestLaplacianEigenmapsCircles(t *testing.T) {
	n := 60
	items := make([][]float64, 0, 2*n)
	for i := 0; i < n; i++ {
		angle := 2 * math.Pi * float64(i) / float64(n)
		items = append(items, []float64{math.Cos(angle), math.Sin(angle), 0})
	}
	for i := 0; i < n; i++ {
		angle := 2 * math.Pi * float64(i) / float64(n)
		items = append(items, []float64{1.3 * math.Cos(angle), 1.3 * math.Sin(angle), 0})
	}
	result, err := Embed(items, testCallbacks(), Params{
		Method:              LaplacianEigenmaps,
		TargetDimension:     2,
		NumberOfNeighbors:   10,
		NeighborsMethod:     Brute,
		GaussianKernelWidth: 0.01,
	}, nil)
	require.NoError(t, err)
	first := embeddingColumn(result.Embedding, 0)
	inner, outer := 0, 0
	for i := 0; i < n; i++ {
		if first[i] > 0 {
			inner++
		}
		if first[n+i] > 0 {
			outer++
		}
	}
	// one circle lands (almost entirely) positive, the other negative
	innerPositive := float64(inner) / float64(n)
	outerPositive := float64(outer) / float64(n)
	assert.Greater(t, math.Abs(innerPositive-outerPositive), 0.9,
		"inner %d/%d positive, outer %d/%d positive", inner, n, outer, n)
}

// Random projection roughly preserves pairwise distances.
func TestRandomProjectionDistortion(t *testing.T) {
	dimension := 100
	items := gaussianDataset(50, dimension, 10)
	for i := range items {
		norm := math.Sqrt(dotKernel(items[i], items[i]))
		for j := range items[i] {
			items[i][j] /= norm
		}
	}
	result, err := Embed(items, testCallbacks(), Params{
		Method:           RandomProjection,
		TargetDimension:  25,
		CurrentDimension: dimension,
		RandomSeed:       int64(17),
	}, nil)
	require.NoError(t, err)
	within := 0
	total := 0
	for i := 0; i < 50; i++ {
		for j := i + 1; j < 50; j++ {
			original := euclideanDistance(items[i], items[j])
			embedded := pairwiseDistance(result.Embedding, i, j)
			total++
			if ratio := embedded / original; ratio > 0.7 && ratio < 1.3 {
				within++
			}
		}
	}
	assert.Greater(t, float64(within)/float64(total), 0.75)
}

// Global-strategy SPE preserves the ordering of pairwise distances.
func TestSPEPreservesDistances(t *testing.T) {
	items := gaussianDataset(40, 2, 11)
	result, err := Embed(items, testCallbacks(), Params{
		Method:             StochasticProximityEmbedding,
		TargetDimension:    2,
		SpeTolerance:       1e-5,
		SpeNumberOfUpdates: 10,
		RandomSeed:         int64(19),
	}, nil)
	require.NoError(t, err)
	var original, embedded []float64
	for i := 0; i < 40; i++ {
		for j := i + 1; j < 40; j++ {
			original = append(original, euclideanDistance(items[i], items[j]))
			embedded = append(embedded, pairwiseDistance(result.Embedding, i, j))
		}
	}
	assert.Greater(t, stat.Correlation(original, embedded, nil), 0.8)
}

// Local-strategy SPE builds and consumes the neighbor graph.
func TestSPELocalStrategy(t *testing.T) {
	items := gaussianDataset(30, 2, 12)
	result, err := Embed(items, testCallbacks(), Params{
		Method:             StochasticProximityEmbedding,
		TargetDimension:    2,
		SpeTolerance:       1e-5,
		SpeNumberOfUpdates: 5,
		SpeGlobalStrategy:  false,
		NumberOfNeighbors:  6,
		NeighborsMethod:    Brute,
		RandomSeed:         int64(23),
	}, nil)
	require.NoError(t, err)
	rows, cols := result.Embedding.Dims()
	assert.Equal(t, 30, rows)
	assert.Equal(t, 2, cols)
}

// Factor analysis recovers a one-factor latent signal.
func TestFactorAnalysisRecoversLatent(t *testing.T) {
	rng := NewRandomGenerator(13)
	n := 100
	latent := make([]float64, n)
	items := make([][]float64, n)
	loadings := []float64{2, -1, 0.5, 1.5, -2}
	for i := 0; i < n; i++ {
		latent[i] = rng.NormFloat64()
		items[i] = make([]float64, 5)
		for j := range items[i] {
			items[i][j] = loadings[j]*latent[i] + rng.NormFloat64()*0.1
		}
	}
	result, err := Embed(items, testCallbacks(), Params{
		Method:           FactorAnalysis,
		TargetDimension:  1,
		CurrentDimension: 5,
		MaxIteration:     200,
		FaEpsilon:        1e-8,
		RandomSeed:       int64(29),
	}, nil)
	require.NoError(t, err)
	correlation := stat.Correlation(embeddingColumn(result.Embedding, 0), latent, nil)
	assert.Greater(t, math.Abs(correlation), 0.9)
}

// t-SNE keeps two well separated clusters apart.
func TestTSNESeparatesClusters(t *testing.T) {
	rng := NewRandomGenerator(14)
	n := 60
	items := make([][]float64, 0, 2*n)
	for c := 0; c < 2; c++ {
		for i := 0; i < n; i++ {
			item := make([]float64, 10)
			for j := range item {
				item[j] = rng.NormFloat64() * 0.5
			}
			item[0] += float64(c) * 20
			items = append(items, item)
		}
	}
	result, err := Embed(items, testCallbacks(), Params{
		Method:           TDistributedStochasticNeighborEmbedding,
		TargetDimension:  2,
		CurrentDimension: 10,
		SnePerplexity:    20.0,
		SneTheta:         0.5,
		RandomSeed:       int64(31),
	}, nil)
	require.NoError(t, err)
	// nearest-centroid classification of the embedding
	centroids := make([][]float64, 2)
	for c := 0; c < 2; c++ {
		centroids[c] = make([]float64, 2)
		for i := 0; i < n; i++ {
			for j := 0; j < 2; j++ {
				centroids[c][j] += result.Embedding.At(c*n+i, j) / float64(n)
			}
		}
	}
	correct := 0
	for i := 0; i < 2*n; i++ {
		point := []float64{result.Embedding.At(i, 0), result.Embedding.At(i, 1)}
		label := 0
		if euclideanDistance(point, centroids[1]) < euclideanDistance(point, centroids[0]) {
			label = 1
		}
		if label == i/n {
			correct++
		}
	}
	assert.GreaterOrEqual(t, float64(correct)/float64(2*n), 0.95)
}

// Cancellation fires at the entry checkpoint.
func TestCancellation(t *testing.T) {
	items := gaussianDataset(100, 3, 15)
	ctx := progress.NewContext(nil, func() bool { return true })
	_, err := Embed(items, testCallbacks(), Params{
		Method:          DiffusionMap,
		TargetDimension: 2,
	}, ctx)
	assert.ErrorIs(t, err, ErrCancelled)
}

// Cancellation interrupts the SPE loop between iterations.
func TestCancellationDuringIterations(t *testing.T) {
	items := gaussianDataset(50, 3, 16)
	calls := 0
	ctx := progress.NewContext(nil, func() bool {
		calls++
		return calls > 1
	})
	_, err := Embed(items, testCallbacks(), Params{
		Method:             StochasticProximityEmbedding,
		TargetDimension:    2,
		SpeTolerance:       1e-5,
		SpeNumberOfUpdates: 10,
		RandomSeed:         int64(37),
	}, ctx)
	assert.ErrorIs(t, err, ErrCancelled)
}

func TestProgressReported(t *testing.T) {
	items := gaussianDataset(30, 3, 17)
	var fractions []float64
	ctx := progress.NewContext(func(fraction float64) {
		fractions = append(fractions, fraction)
	}, nil)
	_, err := Embed(items, testCallbacks(), Params{
		Method:          MultidimensionalScaling,
		TargetDimension: 2,
	}, ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, fractions)
	assert.Equal(t, 1.0, fractions[len(fractions)-1])
}

func TestUnsupportedMethod(t *testing.T) {
	items := gaussianDataset(10, 3, 18)
	_, err := Embed(items, testCallbacks(), Params{Method: MethodId(99)}, nil)
	assert.ErrorIs(t, err, ErrUnsupportedMethod)
}

func TestParameterValidation(t *testing.T) {
	items := gaussianDataset(10, 3, 19)
	// target dimension beyond the dataset size
	_, err := Embed(items, testCallbacks(), Params{
		Method:          MultidimensionalScaling,
		TargetDimension: 11,
	}, nil)
	assert.ErrorIs(t, err, ErrParameterOutOfRange)
	// perplexity above (N−1)/3
	_, err = Embed(items, testCallbacks(), Params{
		Method:        MultidimensionalScaling,
		SnePerplexity: 100.0,
	}, nil)
	assert.ErrorIs(t, err, ErrParameterOutOfRange)
	// negative width
	_, err = Embed(items, testCallbacks(), Params{
		Method:              MultidimensionalScaling,
		GaussianKernelWidth: -1.0,
	}, nil)
	assert.ErrorIs(t, err, ErrParameterOutOfRange)
	// missing neighbors for a neighbor method
	_, err = Embed(items, testCallbacks(), Params{Method: Isomap}, nil)
	assert.ErrorIs(t, err, ErrMissingParameter)
	// wrong type
	_, err = Embed(items, testCallbacks(), Params{
		Method:          MultidimensionalScaling,
		TargetDimension: 2.0,
	}, nil)
	assert.ErrorIs(t, err, ErrWrongParameterType)
	// empty dataset
	_, err = Embed(nil, testCallbacks(), Params{Method: MultidimensionalScaling}, nil)
	assert.ErrorIs(t, err, ErrParameterOutOfRange)
}

func TestEigenSolversAgree(t *testing.T) {
	items := gaussianDataset(50, 3, 20)
	var embeddings []*mat.Dense
	for _, solver := range []EigenEmbeddingMethodId{Dense, Arpack, Randomized} {
		result, err := Embed(items, testCallbacks(), Params{
			Method:               MultidimensionalScaling,
			TargetDimension:      2,
			EigenEmbeddingMethod: solver,
		}, nil)
		require.NoError(t, err, solver.String())
		embeddings = append(embeddings, result.Embedding)
	}
	columnsAgreeUpToSign(t, embeddings[0], embeddings[1], 1e-4)
	columnsAgreeUpToSign(t, embeddings[0], embeddings[2], 1e-2)
}

func TestCoverTreeNeighborsEndToEnd(t *testing.T) {
	items := planeDataset(80, 21)
	brute, err := Embed(items, testCallbacks(), Params{
		Method:            Isomap,
		TargetDimension:   2,
		NumberOfNeighbors: 8,
		NeighborsMethod:   Brute,
	}, nil)
	require.NoError(t, err)
	tree, err := Embed(items, testCallbacks(), Params{
		Method:            Isomap,
		TargetDimension:   2,
		NumberOfNeighbors: 8,
		NeighborsMethod:   CoverTree,
	}, nil)
	require.NoError(t, err)
	columnsAgreeUpToSign(t, brute.Embedding, tree.Embedding, 1e-8)
}
