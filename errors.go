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
	"github.com/manifold-io/manifold/linalg"
	"github.com/manifold-io/manifold/neighbors"
)

// Error kinds surfaced by Embed. All failures wrap exactly one of these
// sentinels; match with errors.Is.
const (
	// ErrWrongParameterType reports a parameter value of an unexpected type.
	ErrWrongParameterType = errors.ConstError("wrong parameter type")
	// ErrParameterOutOfRange reports a parameter value outside its documented range.
	ErrParameterOutOfRange = errors.ConstError("parameter out of range")
	// ErrMissingParameter reports a key the chosen method requires but which is absent.
	ErrMissingParameter = errors.ConstError("missing parameter")
	// ErrUnsupportedMethod reports an unknown method identifier.
	ErrUnsupportedMethod = errors.ConstError("unsupported method")
	// ErrGraphDisconnected reports a failed neighbor graph connectivity check.
	ErrGraphDisconnected = neighbors.ErrGraphDisconnected
	// ErrEigenFailure reports a solver that did not converge or a singular matrix.
	ErrEigenFailure = linalg.ErrEigenFailure
	// ErrCancelled reports that the cancel predicate fired at a checkpoint.
	ErrCancelled = errors.ConstError("cancelled")
)
