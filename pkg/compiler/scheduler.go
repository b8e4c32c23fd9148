// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package compiler

import (
	"context"
	"time"

	"github.com/nimbuslang/nimbusc/pkg/backend"
	"github.com/nimbuslang/nimbusc/pkg/compiler/waitgraph"
	"k8s.io/utils/clock"
)

// workerRecord is one running worker's bookkeeping.
type workerRecord struct {
	id    WorkerId
	file  File
	timer *longCompilationTimer
}

// scheduler owns the pending-file queue and the running-worker set and
// enforces the concurrency cap. It is not safe for concurrent use - every
// method is only ever called from the coordinator's single goroutine.
type scheduler struct {
	pending   []File
	running   map[WorkerId]*workerRecord
	wait      *waitgraph.Graph
	cap       int
	threshold time.Duration

	clk    clock.Clock
	be     backend.Backend
	events chan event
}

func newScheduler(cap int, threshold time.Duration, clk clock.Clock, be backend.Backend, events chan event) *scheduler {
	return &scheduler{
		running:   make(map[WorkerId]*workerRecord),
		wait:      waitgraph.New(),
		cap:       cap,
		threshold: threshold,
		clk:       clk,
		be:        be,
		events:    events,
	}
}

// active returns the number of workers currently doing CPU work (running
// but not suspended). The concurrency cap only bounds this count -
// suspended workers hold no scheduler slot because they consume no CPU,
// but they still count toward running because they must be reaped.
func (s *scheduler) active() int {
	return len(s.running) - s.wait.Len()
}

// fill spawns new workers from pending while active < cap and pending is
// non-empty.
func (s *scheduler) fill(ctx context.Context) {
	for s.active() < s.cap && len(s.pending) > 0 {
		file := s.pending[0]
		s.pending = s.pending[1:]
		s.spawn(ctx, file)
	}
}

func (s *scheduler) spawn(ctx context.Context, file File) {
	id := newWorkerId()
	rec := &workerRecord{id: id, file: file}
	rec.timer = armLongCompilationTimer(s.clk, s.threshold, id, s.events)
	s.running[id] = rec
	go runWorker(ctx, id, file, s.be, s.events)
}

// reap drops a worker from every table it may appear in: running, and the
// wait-graph (idempotent). Called on any terminal event.
func (s *scheduler) reap(id WorkerId) {
	if rec, ok := s.running[id]; ok {
		rec.timer.cancel()
		delete(s.running, id)
	}
	s.wait.Remove(string(id))
}

// idle reports whether there is nothing left to schedule: no pending
// files and no running workers at all.
func (s *scheduler) idle() bool {
	return len(s.pending) == 0 && len(s.running) == 0
}

// stalled reports the stall condition: pending is empty and every
// running worker is suspended.
func (s *scheduler) stalled() bool {
	return len(s.pending) == 0 && len(s.running) > 0 && s.wait.Len() == len(s.running)
}

// killAll forcibly terminates bookkeeping for every running worker. It does
// not (cannot) kill the underlying goroutines - Go has no forced
// preemption - but it cancels their timers and clears them from every
// table so the coordinator's own state is consistent with "batch over".
// Suspended workers are answered NotFound so they stop waiting. Workers
// still in flight will eventually send a terminal event that the
// coordinator, once stopped, simply no longer consumes.
func (s *scheduler) killAll() {
	for id, rec := range s.running {
		rec.timer.cancel()
		delete(s.running, id)
	}
	for _, e := range s.wait.Entries() {
		s.wait.Remove(e.ID)
		e.Reply <- waitgraph.NotFound
	}
}
