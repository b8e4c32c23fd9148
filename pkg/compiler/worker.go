// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package compiler

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/nimbuslang/nimbusc/pkg/backend"
	"github.com/nimbuslang/nimbusc/pkg/compiler/waitgraph"
)

// runWorker compiles a single file on its own goroutine and reports exactly
// one terminal event on events: shutdown on a clean return, failure on a
// panic or a returned error. A panic inside be.Compile must never reach the
// coordinator's goroutine, so it runs in its own isolated task with a
// deferred recover.
func runWorker(ctx context.Context, id WorkerId, file File, be backend.Backend, events chan<- event) {
	cause := exitCause{}

	func() {
		defer func() {
			if r := recover(); r != nil {
				cause = exitCause{
					failed: true,
					kind:   "panic",
					reason: fmt.Errorf("%v", r),
					stack:  string(debug.Stack()),
				}
			}
		}()

		hooks := &workerHooks{id: id, file: file, events: events}
		_, err := be.Compile(ctx, backend.File(file), hooks)
		if err != nil {
			cause = exitCause{
				failed: true,
				kind:   "compile",
				reason: err,
				stack:  string(debug.Stack()),
			}
		}
	}()

	events <- evWorkerExited{workerID: id, file: file, cause: cause}
}

// workerHooks implements backend.Hooks by round-tripping through the
// coordinator's single event mailbox. Wait and ModuleAvailable block the
// calling goroutine (the worker) until the coordinator replies;
// StructAvailable only sends its event.
type workerHooks struct {
	id     WorkerId
	file   File
	events chan<- event
}

func (h *workerHooks) Wait(kind backend.Kind, on backend.Symbol, defining backend.Symbol) backend.Verdict {
	reply := make(chan waitgraph.Verdict, 1)
	h.events <- evWaiting{
		workerID: h.id,
		kind:     SymbolKind(kind),
		on:       Symbol(on),
		defining: Symbol(defining),
		reply:    reply,
	}
	if verdict := <-reply; verdict == waitgraph.Found {
		return backend.Found
	}
	return backend.NotFound
}

func (h *workerHooks) ModuleAvailable(symbol backend.Symbol, artifact backend.Artifact) {
	ack := make(chan struct{})
	h.events <- evModuleAvailable{
		workerID: h.id,
		symbol:   Symbol(symbol),
		file:     h.file,
		artifact: artifact,
		ack:      ack,
	}
	<-ack
}

func (h *workerHooks) StructAvailable(symbol backend.Symbol) {
	h.events <- evStructAvailable{workerID: h.id, symbol: Symbol(symbol)}
}
