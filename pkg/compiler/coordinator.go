// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package compiler

import (
	"context"
	"fmt"

	"github.com/nimbuslang/nimbusc/pkg/backend"
	"github.com/nimbuslang/nimbusc/pkg/compiler/waitgraph"
	"k8s.io/utils/clock"
	klog "k8s.io/klog/v2"
)

// coordinatorState is the single-threaded dispatcher's private state: the
// scheduler, the wait-graph (owned by the scheduler), the append-only
// ResultLog and the user-provided callback surface. Every field is only
// ever touched from run's goroutine.
type coordinatorState struct {
	sched    *scheduler
	opts     Options
	resultLog []resultEntry
	// definedSymbols indexes ResultLog for the "already satisfied" check in
	// evWaiting, keyed by symbol; the value is the strongest kind seen.
	definedSymbols map[Symbol]SymbolKind
}

// Files compiles files with opts and returns the ordered list of modules
// successfully compiled. It sets no destination on the backend's context:
// backend.DestFromContext reports none, unlike under FilesToPath.
func Files(ctx context.Context, files []File, opts Options) ([]Symbol, error) {
	return run(ctx, files, "", false, opts)
}

// FilesToPath compiles files with opts, instructing the backend to write
// bytecode artifacts under dest.
func FilesToPath(ctx context.Context, files []File, dest string, opts Options) ([]Symbol, error) {
	return run(ctx, files, dest, true, opts)
}

func run(ctx context.Context, files []File, dest string, writeDest bool, opts Options) ([]Symbol, error) {
	opts = opts.withDefaults()
	if opts.Backend == nil {
		return nil, fmt.Errorf("compiler: Options.Backend must not be nil")
	}

	if dest != "" {
		ctx = backend.WithDest(ctx, dest)
	} else if writeDest {
		return nil, fmt.Errorf("compiler: FilesToPath requires a non-empty path")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan event, 4*len(files)+16)
	clk := opts.clock
	if clk == nil {
		clk = clock.RealClock{}
	}

	c := &coordinatorState{
		sched:          newScheduler(opts.Concurrency, opts.LongCompilationThreshold, clk, opts.Backend, events),
		opts:           opts,
		definedSymbols: make(map[Symbol]SymbolKind),
	}
	c.sched.pending = append(c.sched.pending, files...)

	klog.V(4).Infof("compiler: starting batch of %d files, concurrency=%d", len(files), opts.Concurrency)

	c.sched.fill(ctx)
	if c.sched.idle() {
		return c.moduleProjection(), nil
	}

	for {
		ev := <-events
		if err := c.dispatch(ev); err != nil {
			return nil, err
		}

		c.sched.fill(ctx)

		if c.sched.idle() {
			klog.V(4).Infof("compiler: batch complete, %d modules compiled", len(c.moduleProjection()))
			return c.moduleProjection(), nil
		}

		if c.sched.stalled() {
			if err := c.resolveStall(); err != nil {
				return nil, err
			}
		}
	}
}

// dispatch handles one coordinator event. It returns a non-nil error only
// for the fatal-failure path, which ends the batch.
func (c *coordinatorState) dispatch(ev event) error {
	switch e := ev.(type) {
	case evStructAvailable:
		c.appendResult(KindStruct, e.symbol)
		for _, entry := range c.sched.wait.ReleaseMatching(string(e.symbol), waitgraph.Struct) {
			entry.Reply <- waitgraph.Found
		}

	case evModuleAvailable:
		if c.opts.OnModuleCompiled != nil {
			c.opts.OnModuleCompiled(e.file, e.symbol, e.artifact)
		}
		close(e.ack)
		if rec, ok := c.sched.running[e.workerID]; ok {
			rec.timer.cancel()
		}
		c.appendResult(KindModule, e.symbol)
		for _, entry := range c.sched.wait.ReleaseMatching(string(e.symbol), waitgraph.Module) {
			entry.Reply <- waitgraph.Found
		}

	case evWaiting:
		if kind, ok := c.definedSymbols[e.on]; ok && kind.Satisfies(e.kind) {
			e.reply <- waitgraph.Found
			return nil
		}
		gkind := waitgraph.Struct
		if e.kind == KindModule {
			gkind = waitgraph.Module
		}
		c.sched.wait.Suspend(string(e.workerID), e.reply, gkind, string(e.on), string(e.defining))

	case evLongTimeout:
		if rec, ok := c.sched.running[e.workerID]; ok && c.opts.OnLongCompilation != nil {
			c.opts.OnLongCompilation(rec.file)
		}

	case evWorkerExited:
		if e.cause.failed {
			return c.fatalFailure(e.workerID, c.sched.running[e.workerID], e.cause)
		}
		if c.opts.OnFileDone != nil {
			c.opts.OnFileDone(e.file)
		}
		c.sched.reap(e.workerID)
	}
	return nil
}

// resolveStall releases every no-definer entry with NotFound, or declares
// deadlock if none exist.
func (c *coordinatorState) resolveStall() error {
	ready := c.sched.wait.NoDefinerEntries()
	if len(ready) == 0 {
		return c.deadlock()
	}
	klog.V(4).Infof("compiler: stall resolution releasing %d entries as not-found", len(ready))
	for _, entry := range ready {
		c.sched.wait.Remove(entry.ID)
		entry.Reply <- waitgraph.NotFound
	}
	return nil
}

// appendResult appends a unique {kind, symbol} entry to the ResultLog and
// updates the definedSymbols index used by evWaiting's fast path. A module
// definition strengthens a prior struct entry for the same symbol; the
// reverse never happens because a file defines a given symbol at most once.
func (c *coordinatorState) appendResult(kind SymbolKind, symbol Symbol) {
	if existing, ok := c.definedSymbols[symbol]; ok && (existing == KindModule || existing == kind) {
		return
	}
	c.resultLog = append(c.resultLog, resultEntry{kind: kind, symbol: symbol})
	c.definedSymbols[symbol] = kind
}

// moduleProjection returns the ResultLog's projection over kind=module, in
// log order - the public return value of Files/FilesToPath.
func (c *coordinatorState) moduleProjection() []Symbol {
	var out []Symbol
	for _, e := range c.resultLog {
		if e.kind == KindModule {
			out = append(out, e.symbol)
		}
	}
	return out
}
