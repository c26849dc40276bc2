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

package progress

import (
	"time"

	"github.com/manifold-io/manifold/base/log"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// Func receives the completed fraction of the running computation, in [0,1].
type Func func(fraction float64)

// CancelFunc is polled at checkpoints; returning true abandons the computation.
type CancelFunc func() bool

// Context carries the optional progress and cancellation callbacks of a single
// embedding call. A nil Context never reports and never cancels.
type Context struct {
	progress  Func
	cancel    CancelFunc
	cancelled atomic.Bool
}

// NewContext wraps user callbacks. Either callback may be nil.
func NewContext(progress Func, cancel CancelFunc) *Context {
	return &Context{progress: progress, cancel: cancel}
}

// Report forwards the completed fraction to the progress callback.
func (c *Context) Report(fraction float64) {
	if c == nil || c.progress == nil {
		return
	}
	if fraction < 0 {
		fraction = 0
	} else if fraction > 1 {
		fraction = 1
	}
	c.progress(fraction)
}

// IsCancelled polls the cancel callback. Once it has returned true the context
// stays cancelled without calling back again.
func (c *Context) IsCancelled() bool {
	if c == nil || c.cancel == nil {
		return false
	}
	if c.cancelled.Load() {
		return true
	}
	if c.cancel() {
		c.cancelled.Store(true)
		return true
	}
	return false
}

// Bar returns a progress callback rendering a console progress bar with the
// given description.
func Bar(description string) Func {
	bar := progressbar.NewOptions(100,
		progressbar.OptionSetDescription(description),
		progressbar.OptionClearOnFinish())
	return func(fraction float64) {
		_ = bar.Set(int(fraction * 100))
	}
}

// Span measures a named stage and logs its duration on End.
type Span struct {
	name  string
	start time.Time
}

func StartSpan(name string) *Span {
	return &Span{name: name, start: time.Now()}
}

func (s *Span) End() {
	log.Logger().Debug(s.name, zap.Duration("duration", time.Since(s.start)))
}
