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
	"github.com/manifold-io/manifold/linalg"
	"github.com/manifold-io/manifold/neighbors"
)

// MethodId identifies a dimensionality reduction method.
type MethodId int

const (
	KernelLocallyLinearEmbedding MethodId = iota
	KernelLocalTangentSpaceAlignment
	HessianLocallyLinearEmbedding
	DiffusionMap
	MultidimensionalScaling
	LandmarkMultidimensionalScaling
	Isomap
	LandmarkIsomap
	NeighborhoodPreservingEmbedding
	LinearLocalTangentSpaceAlignment
	LaplacianEigenmaps
	LocalityPreservingProjections
	PCA
	KernelPCA
	RandomProjection
	StochasticProximityEmbedding
	PassThru
	FactorAnalysis
	TDistributedStochasticNeighborEmbedding
)

func (m MethodId) String() string {
	switch m {
	case KernelLocallyLinearEmbedding:
		return "KernelLocallyLinearEmbedding"
	case KernelLocalTangentSpaceAlignment:
		return "KernelLocalTangentSpaceAlignment"
	case HessianLocallyLinearEmbedding:
		return "HessianLocallyLinearEmbedding"
	case DiffusionMap:
		return "DiffusionMap"
	case MultidimensionalScaling:
		return "MultidimensionalScaling"
	case LandmarkMultidimensionalScaling:
		return "LandmarkMultidimensionalScaling"
	case Isomap:
		return "Isomap"
	case LandmarkIsomap:
		return "LandmarkIsomap"
	case NeighborhoodPreservingEmbedding:
		return "NeighborhoodPreservingEmbedding"
	case LinearLocalTangentSpaceAlignment:
		return "LinearLocalTangentSpaceAlignment"
	case LaplacianEigenmaps:
		return "LaplacianEigenmaps"
	case LocalityPreservingProjections:
		return "LocalityPreservingProjections"
	case PCA:
		return "PCA"
	case KernelPCA:
		return "KernelPCA"
	case RandomProjection:
		return "RandomProjection"
	case StochasticProximityEmbedding:
		return "StochasticProximityEmbedding"
	case PassThru:
		return "PassThru"
	case FactorAnalysis:
		return "FactorAnalysis"
	case TDistributedStochasticNeighborEmbedding:
		return "tDistributedStochasticNeighborEmbedding"
	default:
		return "Unknown"
	}
}

// EigenEmbeddingMethodId selects the eigen solver implementation.
type EigenEmbeddingMethodId = linalg.Method

const (
	Arpack     = linalg.Arpack
	Dense      = linalg.Dense
	Randomized = linalg.Randomized
)

// NeighborsMethodId selects the neighbor search strategy.
type NeighborsMethodId = neighbors.Method

const (
	CoverTree = neighbors.CoverTree
	Brute     = neighbors.Brute
)
