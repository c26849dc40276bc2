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
	"github.com/juju/errors"
)

// ParamName is a string.
type ParamName string

// Recognized parameter names
const (
	Method                ParamName = "method"
	EigenEmbeddingMethod  ParamName = "eigen_embedding_method"
	NeighborsMethod       ParamName = "neighbors_method"
	NumberOfNeighbors     ParamName = "number_of_neighbors"
	TargetDimension       ParamName = "target_dimension"
	CurrentDimension      ParamName = "current_dimension"
	GaussianKernelWidth   ParamName = "gaussian_kernel_width"
	DiffusionMapTimesteps ParamName = "diffusion_map_timesteps"
	NullspaceShift        ParamName = "nullspace_shift"
	KlleShift             ParamName = "klle_shift"
	MaxIteration          ParamName = "max_iteration"
	SpeTolerance          ParamName = "spe_tolerance"
	SpeNumberOfUpdates    ParamName = "spe_number_of_updates"
	SpeGlobalStrategy     ParamName = "spe_global_strategy"
	SnePerplexity         ParamName = "sne_perplexity"
	SneTheta              ParamName = "sne_theta"
	LandmarkRatio         ParamName = "landmark_ratio"
	CheckConnectivity     ParamName = "check_connectivity"
	FaEpsilon             ParamName = "fa_epsilon"
	NumberOfThreads       ParamName = "number_of_threads"
	RandomSeed            ParamName = "random_seed"
)

// Params for an embedding call. Given by:
//
//	manifold.Params{
//	   manifold.Method:          manifold.Isomap,
//	   manifold.TargetDimension: 2,
//	   ...
//	}
type Params map[ParamName]interface{}

// Copy parameters.
func (parameters Params) Copy() Params {
	newParams := make(Params)
	for k, v := range parameters {
		newParams[k] = v
	}
	return newParams
}

// Join returns the union of two parameter sets, the argument winning on
// shared keys.
func (parameters Params) Join(params Params) Params {
	newParams := make(Params)
	for k, v := range parameters {
		newParams[k] = v
	}
	for k, v := range params {
		newParams[k] = v
	}
	return newParams
}

// GetInt gets an integer parameter or its default.
func (parameters Params) GetInt(name ParamName, _default int) (int, error) {
	if val, exist := parameters[name]; exist {
		if i, ok := val.(int); ok {
			return i, nil
		}
		return 0, errors.Annotatef(ErrWrongParameterType, "%s must be an int", name)
	}
	return _default, nil
}

// GetInt64 gets a 64-bit integer parameter or its default. Plain ints are
// accepted for convenience.
func (parameters Params) GetInt64(name ParamName, _default int64) (int64, error) {
	if val, exist := parameters[name]; exist {
		switch v := val.(type) {
		case int64:
			return v, nil
		case int:
			return int64(v), nil
		}
		return 0, errors.Annotatef(ErrWrongParameterType, "%s must be an int64", name)
	}
	return _default, nil
}

// GetFloat gets a float parameter or its default.
func (parameters Params) GetFloat(name ParamName, _default float64) (float64, error) {
	if val, exist := parameters[name]; exist {
		if f, ok := val.(float64); ok {
			return f, nil
		}
		return 0, errors.Annotatef(ErrWrongParameterType, "%s must be a float64", name)
	}
	return _default, nil
}

// GetBool gets a bool parameter or its default.
func (parameters Params) GetBool(name ParamName, _default bool) (bool, error) {
	if val, exist := parameters[name]; exist {
		if b, ok := val.(bool); ok {
			return b, nil
		}
		return false, errors.Annotatef(ErrWrongParameterType, "%s must be a bool", name)
	}
	return _default, nil
}

// RequireInt gets an integer parameter the chosen method cannot run without.
func (parameters Params) RequireInt(name ParamName) (int, error) {
	if _, exist := parameters[name]; !exist {
		return 0, errors.Annotatef(ErrMissingParameter, "%s", name)
	}
	return parameters.GetInt(name, 0)
}

// RequireFloat gets a float parameter the chosen method cannot run without.
func (parameters Params) RequireFloat(name ParamName) (float64, error) {
	if _, exist := parameters[name]; !exist {
		return 0, errors.Annotatef(ErrMissingParameter, "%s", name)
	}
	return parameters.GetFloat(name, 0)
}

// GetMethod gets the method identifier. The key is always required.
func (parameters Params) GetMethod() (MethodId, error) {
	val, exist := parameters[Method]
	if !exist {
		return 0, errors.Annotatef(ErrMissingParameter, "%s", Method)
	}
	if m, ok := val.(MethodId); ok {
		return m, nil
	}
	return 0, errors.Annotatef(ErrWrongParameterType, "%s must be a MethodId", Method)
}

// GetEigenMethod gets the eigen solver identifier or its default.
func (parameters Params) GetEigenMethod(_default EigenEmbeddingMethodId) (EigenEmbeddingMethodId, error) {
	if val, exist := parameters[EigenEmbeddingMethod]; exist {
		if m, ok := val.(EigenEmbeddingMethodId); ok {
			return m, nil
		}
		return 0, errors.Annotatef(ErrWrongParameterType, "%s must be an EigenEmbeddingMethodId", EigenEmbeddingMethod)
	}
	return _default, nil
}

// GetNeighborsMethod gets the neighbor search identifier or its default.
func (parameters Params) GetNeighborsMethod(_default NeighborsMethodId) (NeighborsMethodId, error) {
	if val, exist := parameters[NeighborsMethod]; exist {
		if m, ok := val.(NeighborsMethodId); ok {
			return m, nil
		}
		return 0, errors.Annotatef(ErrWrongParameterType, "%s must be a NeighborsMethodId", NeighborsMethod)
	}
	return _default, nil
}

func checkRangeInt(name ParamName, value, low, high int) error {
	if value < low || value > high {
		return errors.Annotatef(ErrParameterOutOfRange, "%s = %v not in [%v, %v]", name, value, low, high)
	}
	return nil
}

func checkRangeFloat(name ParamName, value, low, high float64) error {
	if value < low || value > high {
		return errors.Annotatef(ErrParameterOutOfRange, "%s = %v not in [%v, %v]", name, value, low, high)
	}
	return nil
}

func checkPositiveInt(name ParamName, value int) error {
	if value <= 0 {
		return errors.Annotatef(ErrParameterOutOfRange, "%s = %v must be positive", name, value)
	}
	return nil
}

func checkPositiveFloat(name ParamName, value float64) error {
	if value <= 0 {
		return errors.Annotatef(ErrParameterOutOfRange, "%s = %v must be positive", name, value)
	}
	return nil
}
