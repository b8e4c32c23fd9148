// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package compiler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nimbuslang/nimbusc/pkg/backend"
	"github.com/nimbuslang/nimbusc/pkg/backend/nimbus"
	clocktesting "k8s.io/utils/clock/testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilesTwoIndependentFiles(t *testing.T) {
	src := nimbus.MapSource{
		"A.nim": "module A\n",
		"B.nim": "module B\n",
	}
	var mu sync.Mutex
	var done []File

	result, err := Files(context.Background(), []File{"A.nim", "B.nim"}, Options{
		Backend: nimbus.New(src),
		OnFileDone: func(f File) {
			mu.Lock()
			defer mu.Unlock()
			done = append(done, f)
		},
	})

	require.NoError(t, err)
	assert.ElementsMatch(t, []Symbol{"A", "B"}, result)
	assert.ElementsMatch(t, []File{"A.nim", "B.nim"}, done)
}

func TestFilesLinearDependencyConcurrencyOne(t *testing.T) {
	src := nimbus.MapSource{
		"A.nim": "module A\n",
		"B.nim": "module B\nuse A\n",
	}
	result, err := Files(context.Background(), []File{"B.nim", "A.nim"}, Options{
		Backend:     nimbus.New(src),
		Concurrency: 1,
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []Symbol{"A", "B"}, result)
}

func TestFilesLinearDependencyConcurrencyTwo(t *testing.T) {
	src := nimbus.MapSource{
		"A.nim": "module A\n",
		"B.nim": "module B\nuse A\n",
	}
	result, err := Files(context.Background(), []File{"B.nim", "A.nim"}, Options{
		Backend:     nimbus.New(src),
		Concurrency: 2,
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []Symbol{"A", "B"}, result)
}

func TestFilesTrueCycleDeadlocks(t *testing.T) {
	src := nimbus.MapSource{
		"X.nim": "use Y\nmodule X\n",
		"Y.nim": "use X\nmodule Y\n",
	}
	_, err := Files(context.Background(), []File{"X.nim", "Y.nim"}, Options{
		Backend:     nimbus.New(src),
		Concurrency: 2,
	})
	require.Error(t, err)
	var dl *DeadlockError
	require.ErrorAs(t, err, &dl)
	assert.Len(t, dl.Entries, 2)
	files := map[File]bool{}
	for _, e := range dl.Entries {
		files[e.File] = true
	}
	assert.True(t, files["X.nim"])
	assert.True(t, files["Y.nim"])
}

func TestFilesMissingSymbolSurfacesUndefinedSymbolError(t *testing.T) {
	src := nimbus.MapSource{
		"M.nim": "module M\nuse NeverDefined\n",
	}
	_, err := Files(context.Background(), []File{"M.nim"}, Options{
		Backend: nimbus.New(src),
	})
	require.Error(t, err)
	var ffe *FailedFileError
	require.ErrorAs(t, err, &ffe)
	assert.Equal(t, File("M.nim"), ffe.File)
	var undef *nimbus.UndefinedSymbolError
	require.ErrorAs(t, err, &undef)
	assert.Equal(t, backend.Symbol("NeverDefined"), undef.Symbol)
}

// blockingBackend compiles one file and blocks until release is closed,
// letting a test deterministically control "still running" without a real
// sleep, so the fake clock can drive the long-compilation timer.
type blockingBackend struct {
	release chan struct{}
}

func (b *blockingBackend) Compile(ctx context.Context, file backend.File, hooks backend.Hooks) (backend.Artifact, error) {
	<-b.release
	return backend.Artifact("ok"), nil
}

func TestOnLongCompilationFiresAtMostOnce(t *testing.T) {
	fakeClock := clocktesting.NewFakeClock(time.Unix(0, 0))
	release := make(chan struct{})
	var calls int
	var mu sync.Mutex

	done := make(chan struct{})
	var result []Symbol
	var err error
	go func() {
		result, err = Files(context.Background(), []File{"Slow.nim"}, Options{
			Backend:                  &blockingBackend{release: release},
			LongCompilationThreshold: 5 * time.Second,
			clock:                    fakeClock,
			OnLongCompilation: func(f File) {
				mu.Lock()
				calls++
				mu.Unlock()
			},
		})
		close(done)
	}()

	// Wait for the timer to actually be armed before stepping the clock.
	for fakeClock.HasWaiters() == false {
		time.Sleep(time.Millisecond)
	}
	fakeClock.Step(6 * time.Second)
	fakeClock.Step(6 * time.Second) // no re-arm: must not fire a second callback

	close(release)
	<-done

	require.NoError(t, err)
	assert.Empty(t, result) // backend never calls ModuleAvailable
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls)
}

type panicBackend struct{}

func (panicBackend) Compile(ctx context.Context, file backend.File, hooks backend.Hooks) (backend.Artifact, error) {
	panic("backend exploded")
}

func TestBackendCrashIsIsolatedAndFailsTheBatch(t *testing.T) {
	var fileDoneCalled bool
	_, err := Files(context.Background(), []File{"C.nim"}, Options{
		Backend:    panicBackend{},
		OnFileDone: func(f File) { fileDoneCalled = true },
	})
	require.Error(t, err)
	var ffe *FailedFileError
	require.ErrorAs(t, err, &ffe)
	assert.Equal(t, File("C.nim"), ffe.File)
	assert.False(t, fileDoneCalled)
}

func TestFilesToPathAnnotatesDestination(t *testing.T) {
	var gotDest string
	be := backendFunc(func(ctx context.Context, file backend.File, hooks backend.Hooks) (backend.Artifact, error) {
		if d, ok := backend.DestFromContext(ctx); ok {
			gotDest = d
		}
		hooks.ModuleAvailable(backend.Symbol("A"), backend.Artifact("x"))
		return backend.Artifact("x"), nil
	})
	result, err := FilesToPath(context.Background(), []File{"A.nim"}, "/out", Options{Backend: be})
	require.NoError(t, err)
	assert.Equal(t, []Symbol{"A"}, result)
	assert.Equal(t, "/out", gotDest)
}

type backendFunc func(ctx context.Context, file backend.File, hooks backend.Hooks) (backend.Artifact, error)

func (f backendFunc) Compile(ctx context.Context, file backend.File, hooks backend.Hooks) (backend.Artifact, error) {
	return f(ctx, file, hooks)
}
