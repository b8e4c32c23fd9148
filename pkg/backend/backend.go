// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package backend declares the contract between the coordinator
// (pkg/compiler) and the compiler back-end that actually turns a file into
// bytecode. The back-end is an external collaborator: the coordinator
// never parses source or resolves symbol names itself.
//
//counterfeiter:generate . Backend
package backend

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

import "context"

type destKey struct{}

// WithDest annotates ctx with the destination path a Backend should write
// compiled artifacts to. FilesToPath sets it as the actual output path;
// Files does not set it.
func WithDest(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, destKey{}, path)
}

// DestFromContext retrieves the destination path set by WithDest, if any.
func DestFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(destKey{}).(string)
	return v, ok
}

// File identifies a compilation unit. Kept as its own type (rather than an
// alias of pkg/compiler's File) so this package has zero dependency on the
// coordinator - the boundary is deliberately string-shaped and opaque.
type File string

// Symbol identifies a compile-time entity introduced by compiling some
// file.
type Symbol string

// Kind distinguishes a full module definition from a lighter struct-like
// declaration.
type Kind int

const (
	// KindStruct is a lightweight declaration - the shape of a
	// user-defined composite.
	KindStruct Kind = iota
	// KindModule is a full module definition.
	KindModule
)

// Artifact is the compiled output for one symbol. Its shape is owned by the
// backend; the coordinator only ever threads it through to
// Options.OnModuleCompiled.
type Artifact []byte

// Verdict answers a Hooks.Wait call.
type Verdict int

const (
	// Found means the symbol is now defined and the lookup should be
	// retried.
	Found Verdict = iota
	// NotFound means no file in the batch will ever define the symbol;
	// the backend should raise its own undefined-symbol error.
	NotFound
)

// Hooks is how a Backend talks back to its driver while compiling a single
// file. A call to any Hooks method may block until the driver replies; this
// is the language-neutral replacement for a goroutine-local coordinator
// handle (see the design notes on the historical process-local lookup).
type Hooks interface {
	// Wait blocks until the symbol `on` is defined by some other file in
	// the batch, or until the driver determines it never will be.
	// `defining` is the symbol this file is itself in the middle of
	// defining, if any - used for deadlock analysis - or "" if none.
	Wait(kind Kind, on Symbol, defining Symbol) Verdict
	// ModuleAvailable announces a completed module definition. It blocks
	// until the driver has durably logged the symbol, guaranteeing that
	// no other worker can be released against it before this call
	// returns.
	ModuleAvailable(symbol Symbol, artifact Artifact)
	// StructAvailable announces a completed struct-like declaration.
	// Unlike ModuleAvailable this does not block.
	StructAvailable(symbol Symbol)
}

// Backend compiles one file, driving it through Hooks whenever it needs a
// symbol some other file may define.
type Backend interface {
	Compile(ctx context.Context, file File, hooks Hooks) (Artifact, error)
}
