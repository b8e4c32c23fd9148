// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package compiler

import (
	"github.com/nimbuslang/nimbusc/pkg/backend"
	"github.com/nimbuslang/nimbusc/pkg/compiler/waitgraph"
)

// event is the tagged union carried on the coordinator's single mailbox.
// Design Notes §9 forbids partitioning the event stream across multiple
// channels, so every worker and timer writes into one chan event and the
// event loop type-switches on arrival.
type event interface {
	isEvent()
}

// evStructAvailable is W->C struct_available(S).
type evStructAvailable struct {
	workerID WorkerId
	symbol   Symbol
}

// evModuleAvailable is W->C module_available(S, file, bytecode); the
// worker blocks on ack until it receives a value on ack.
type evModuleAvailable struct {
	workerID WorkerId
	symbol   Symbol
	file     File
	artifact backend.Artifact
	ack      chan<- struct{}
}

// evWaiting is W->C waiting(kind, on, defining); the worker blocks on
// reply until the coordinator answers found/not_found.
type evWaiting struct {
	workerID WorkerId
	kind     SymbolKind
	on       Symbol
	defining Symbol // "" if none
	reply    chan<- waitgraph.Verdict
}

// evLongTimeout fires once per worker, long_compilation_threshold after
// spawn.
type evLongTimeout struct {
	workerID WorkerId
}

// exitCause distinguishes a clean worker exit from a fatal failure.
type exitCause struct {
	failed bool
	kind   string
	reason error
	stack  string
}

// evWorkerExited is the supervised termination notification: shutdown(file)
// or failure(kind, reason, stack).
type evWorkerExited struct {
	workerID WorkerId
	file     File
	cause    exitCause
}

func (evStructAvailable) isEvent() {}
func (evModuleAvailable) isEvent() {}
func (evWaiting) isEvent()         {}
func (evLongTimeout) isEvent()     {}
func (evWorkerExited) isEvent()    {}
