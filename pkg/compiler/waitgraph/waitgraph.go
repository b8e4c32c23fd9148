// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package waitgraph is the pure data model backing the coordinator's
// suspension bookkeeping: which workers are suspended, what symbol each is
// waiting on, and what symbol (if any) each is itself in the middle of
// defining. It is consulted to compute release sets and to detect
// deadlocks.
//
// Two indices are kept over the same set of entries - by worker id and by
// waited-on symbol - and every mutating method keeps both in sync.
package waitgraph

import "fmt"

// Kind mirrors compiler.SymbolKind without creating an import cycle: the
// graph only needs to know whether a definition of kind `def` satisfies a
// wait of kind `want`.
type Kind int

const (
	// Struct is a lightweight declaration.
	Struct Kind = iota
	// Module is a full module definition; it satisfies both Module and
	// Struct waits.
	Module
)

// Satisfies reports whether a definition of kind k unblocks a wait of kind
// waiting.
func (k Kind) Satisfies(waiting Kind) bool {
	if k == Module {
		return true
	}
	return waiting == Struct
}

// Entry is one suspended worker's wait state.
type Entry struct {
	ID        string
	Reply     chan<- Verdict
	Kind      Kind
	WaitingOn string
	Defining  string // empty if the worker is not defining anything
}

// Verdict is the answer delivered to a suspended worker's reply channel.
type Verdict int

const (
	// Found means the symbol is now defined; the worker should retry its
	// lookup.
	Found Verdict = iota
	// NotFound means no running worker will ever define the symbol; the
	// worker should proceed and let its compiler raise the natural
	// undefined-symbol error.
	NotFound
)

// Graph is the wait-graph. The zero value is not usable; use New.
type Graph struct {
	byID     map[string]*Entry
	bySymbol map[string][]*Entry
}

// New creates an empty wait-graph.
func New() *Graph {
	return &Graph{
		byID:     make(map[string]*Entry),
		bySymbol: make(map[string][]*Entry),
	}
}

// Len returns the number of suspended entries.
func (g *Graph) Len() int {
	return len(g.byID)
}

// Suspend inserts a WaitEntry for id. It panics if id already has an
// entry - this is an invariant violation, never a runtime condition to
// recover from.
func (g *Graph) Suspend(id string, reply chan<- Verdict, kind Kind, waitingOn, defining string) {
	if _, ok := g.byID[id]; ok {
		panic(fmt.Sprintf("waitgraph: worker %s suspended twice", id))
	}
	e := &Entry{
		ID:        id,
		Reply:     reply,
		Kind:      kind,
		WaitingOn: waitingOn,
		Defining:  defining,
	}
	g.byID[id] = e
	g.bySymbol[waitingOn] = append(g.bySymbol[waitingOn], e)
}

// ReleaseMatching pops every entry waiting on symbol whose Kind is
// satisfied by a definition of kind def, and returns them in insertion
// order.
func (g *Graph) ReleaseMatching(symbol string, def Kind) []*Entry {
	candidates := g.bySymbol[symbol]
	if len(candidates) == 0 {
		return nil
	}
	var released, kept []*Entry
	for _, e := range candidates {
		if def.Satisfies(e.Kind) {
			released = append(released, e)
			delete(g.byID, e.ID)
		} else {
			kept = append(kept, e)
		}
	}
	if len(kept) == 0 {
		delete(g.bySymbol, symbol)
	} else {
		g.bySymbol[symbol] = kept
	}
	return released
}

// Remove drops any entry for id. It is idempotent.
func (g *Graph) Remove(id string) {
	e, ok := g.byID[id]
	if !ok {
		return
	}
	delete(g.byID, id)
	kept := g.bySymbol[e.WaitingOn][:0]
	for _, c := range g.bySymbol[e.WaitingOn] {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		delete(g.bySymbol, e.WaitingOn)
	} else {
		g.bySymbol[e.WaitingOn] = kept
	}
}

// NoDefinerEntries returns every entry whose WaitingOn symbol is not the
// Defining symbol of any other entry currently in the graph. These are safe
// to release with NotFound.
func (g *Graph) NoDefinerEntries() []*Entry {
	definers := make(map[string]string, len(g.byID))
	for _, e := range g.byID {
		if e.Defining != "" {
			definers[e.Defining] = e.ID
		}
	}
	var out []*Entry
	for _, e := range g.byID {
		if definer, ok := definers[e.WaitingOn]; !ok || definer == e.ID {
			out = append(out, e)
		}
	}
	return out
}

// IsCyclicClosed reports whether the graph is non-empty and every entry in
// it is waiting on a symbol some other entry is defining - i.e. no forward
// progress is possible without external intervention.
func (g *Graph) IsCyclicClosed() bool {
	if len(g.byID) == 0 {
		return false
	}
	return len(g.NoDefinerEntries()) == 0
}

// Entries returns every entry currently in the graph, for diagnostics.
func (g *Graph) Entries() []*Entry {
	out := make([]*Entry, 0, len(g.byID))
	for _, e := range g.byID {
		out = append(out, e)
	}
	return out
}
