// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package compiler coordinates parallel compilation of a batch of source
// files, resolving inter-file symbol dependencies that are discovered
// dynamically while files are compiled, detecting deadlocks, and reporting
// failures deterministically. It does not parse source or resolve names
// itself - that is the job of the pluggable backend.Backend.
package compiler

import "github.com/google/uuid"

// File is an opaque path identifying a compilation unit. Two Files are
// equal iff their paths are equal.
type File string

// SymbolKind distinguishes the strength of a declaration. A module
// satisfies both module and struct waits; a struct satisfies only struct
// waits.
type SymbolKind int

const (
	// KindStruct is a lightweight declaration - the shape of a
	// user-defined composite.
	KindStruct SymbolKind = iota
	// KindModule is a full module definition.
	KindModule
)

func (k SymbolKind) String() string {
	if k == KindModule {
		return "module"
	}
	return "struct"
}

// Satisfies reports whether a definition of kind k unblocks a wait of kind
// waiting. A module definition satisfies both module and struct waits; a
// struct definition satisfies only struct waits.
func (k SymbolKind) Satisfies(waiting SymbolKind) bool {
	if k == KindModule {
		return true
	}
	return waiting == KindStruct
}

// Symbol is an opaque identifier for a compile-time entity - a module or a
// struct-like declaration - that other files may reference.
type Symbol string

// WorkerId is a unique, stable handle for a running worker, used as the key
// across every coordinator table.
type WorkerId string

// newWorkerId mints a fresh WorkerId.
func newWorkerId() WorkerId {
	return WorkerId(uuid.NewString())
}

// resultEntry is one append-only ResultLog record.
type resultEntry struct {
	kind   SymbolKind
	symbol Symbol
}
