// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package compiler

import (
	"runtime"
	"time"

	"github.com/nimbuslang/nimbusc/pkg/backend"
	"k8s.io/utils/clock"
)

// DefaultLongCompilationThreshold is the default value of
// Options.LongCompilationThreshold.
const DefaultLongCompilationThreshold = 5000 * time.Millisecond

// Options configures a compilation batch.
type Options struct {
	// Backend drives the actual compilation of each file.
	Backend backend.Backend

	// Concurrency is the maximum number of actively running (non-
	// suspended) workers. Defaults to max(runtime.GOMAXPROCS(0), 2) when
	// zero.
	Concurrency int

	// LongCompilationThreshold is how long a worker may run before
	// OnLongCompilation fires for it. Defaults to
	// DefaultLongCompilationThreshold when zero.
	LongCompilationThreshold time.Duration

	// OnFileDone is called once per successfully compiled file, after the
	// worker exits cleanly.
	OnFileDone func(File)

	// OnLongCompilation is called at most once per worker, if it is still
	// running LongCompilationThreshold after its spawn and has not yet
	// announced a module (ModuleAvailable cancels the timer).
	OnLongCompilation func(File)

	// OnModuleCompiled is called inline while the coordinator holds the
	// worker waiting for its ack; it should be fast.
	OnModuleCompiled func(File, Symbol, backend.Artifact)

	// clock backs the long-compilation timer. Tests inject a
	// k8s.io/utils/clock/testing.FakeClock to assert timer firing and
	// cleanup deterministically; production callers leave it nil and get
	// clock.RealClock.
	clock clock.Clock
}

// withDefaults returns a copy of o with zero-valued fields replaced by
// their defaults.
func (o Options) withDefaults() Options {
	if o.Concurrency <= 0 {
		o.Concurrency = defaultConcurrency()
	}
	if o.LongCompilationThreshold <= 0 {
		o.LongCompilationThreshold = DefaultLongCompilationThreshold
	}
	return o
}

func defaultConcurrency() int {
	if c := runtime.GOMAXPROCS(0); c > 2 {
		return c
	}
	return 2
}
