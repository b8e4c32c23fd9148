// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package compiler

import (
	"fmt"
	"runtime"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
	klog "k8s.io/klog/v2"
)

// FailedFileError is the error reported for one file whose worker exited
// abnormally - a back-end exception.
type FailedFileError struct {
	File   File
	Kind   string
	Reason error
	Stack  string
}

func (e *FailedFileError) Error() string {
	return fmt.Sprintf("== Compilation error on file %s ==\n%s", e.File, e.Reason)
}

// Unwrap exposes the underlying back-end error.
func (e *FailedFileError) Unwrap() error { return e.Reason }

// DeadlockError is returned when stall resolution finds every suspended
// worker waiting on a symbol some other suspended worker is defining.
// Entries is file => symbol, one per participating worker, sorted by File.
type DeadlockError struct {
	Entries []DeadlockEntry
	// Errs aggregates one deadlockedFileError per participating file, in
	// File order; Error() delegates to it.
	Errs *multierror.Error
	// Dump is a best-effort snapshot of every goroutine's stack at the
	// moment the deadlock was declared, for diagnostics. Go offers no way
	// to capture a single live goroutine's stack from the outside, so this
	// is the all-goroutines dump (runtime.Stack(buf, true)) rather than a
	// per-worker trace; it is logged but not part of Error()'s summary.
	Dump string
}

// DeadlockEntry is one deadlocked worker's diagnostic.
type DeadlockEntry struct {
	File   File
	Symbol Symbol
}

// deadlockedFileError is one blocked file's contribution to a
// DeadlockError's aggregate.
type deadlockedFileError struct {
	File   File
	Symbol Symbol
}

func (e *deadlockedFileError) Error() string {
	return fmt.Sprintf("== Compilation error on file %s ==\ndeadlocked waiting on module %s", e.File, e.Symbol)
}

func (e *DeadlockError) Error() string {
	return e.Errs.Error()
}

// pruneStack strips leading stack-trace lines belonging to the
// coordinator's own internal packages, so a printed failure shows the
// backend's own frames first.
func pruneStack(stack string, internalPrefixes ...string) string {
	lines := strings.Split(stack, "\n")
	i := 0
	for i < len(lines) {
		trimmed := strings.TrimSpace(lines[i])
		isInternal := false
		for _, p := range internalPrefixes {
			if strings.Contains(trimmed, p) {
				isInternal = true
				break
			}
		}
		if !isInternal {
			break
		}
		i++
	}
	return strings.Join(lines[i:], "\n")
}

// internalModulePrefixes is the enumerated internal module set owned by
// this package; frames inside it are pruned before printing a failed
// worker's stack.
var internalModulePrefixes = []string{
	"pkg/compiler",
}

// fatalFailure builds the FailedFileError for a worker that exited with
// cause.failed, kills every other running worker's bookkeeping, and logs
// the aggregate.
func (c *coordinatorState) fatalFailure(id WorkerId, rec *workerRecord, cause exitCause) error {
	var file File
	if rec != nil {
		file = rec.file
	}
	err := &FailedFileError{
		File:   file,
		Kind:   cause.kind,
		Reason: cause.reason,
		Stack:  pruneStack(cause.stack, internalModulePrefixes...),
	}
	klog.Errorf("%s\n%s", err.Error(), err.Stack)
	c.sched.killAll()
	return err
}

// deadlock builds the DeadlockError for the current wait-graph contents,
// kills every running worker's bookkeeping, and logs the aggregate.
func (c *coordinatorState) deadlock() error {
	entries := make([]DeadlockEntry, 0, c.sched.wait.Len())
	for _, e := range c.sched.wait.Entries() {
		rec, ok := c.sched.running[WorkerId(e.ID)]
		file := File("")
		if ok {
			file = rec.file
		}
		entries = append(entries, DeadlockEntry{
			File:   file,
			Symbol: Symbol(e.WaitingOn),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].File < entries[j].File })

	var errs *multierror.Error
	for _, d := range entries {
		errs = multierror.Append(errs, &deadlockedFileError{File: d.File, Symbol: d.Symbol})
	}

	buf := make([]byte, 1<<16)
	n := runtime.Stack(buf, true)
	err := &DeadlockError{Entries: entries, Errs: errs, Dump: string(buf[:n])}
	klog.Errorf("%s", err.Error())
	klog.V(4).Infof("deadlock goroutine dump:\n%s", err.Dump)
	c.sched.killAll()
	return err
}
