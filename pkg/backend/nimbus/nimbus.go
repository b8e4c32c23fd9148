// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package nimbus is the reference backend.Backend implementation: a tiny
// declaration language used to exercise the coordinator end to end and in
// tests. A source file is a sequence of lines, each one of:
//
//	module <Name>        - defines a module symbol
//	struct <Name>        - defines a struct-like symbol
//	use <Name>           - references a symbol, satisfied by either a
//	                       struct or a module declaration of that name
//	use module <Name>    - references a symbol that must be a full module
//	                       declaration, not merely a struct
//	# comment / blank     - ignored
//
// A `use` of a symbol not yet defined blocks on backend.Hooks.Wait; if the
// coordinator answers NotFound, nimbus returns an undefined-symbol error
// for that reference.
package nimbus

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/nimbuslang/nimbusc/pkg/backend"
)

// FileSource loads the raw lines for a backend.File. The reference
// implementation reads from the local filesystem; tests can substitute an
// in-memory FileSource.
type FileSource interface {
	Lines(file backend.File) ([]string, error)
}

// fsSource reads files from disk.
type fsSource struct{}

// NewFSSource creates a FileSource backed by the local filesystem.
func NewFSSource() FileSource {
	return fsSource{}
}

func (fsSource) Lines(file backend.File) ([]string, error) {
	f, err := os.Open(string(file))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}

// MapSource is an in-memory FileSource keyed by file path, convenient for
// tests and for the coordinator's own unit tests.
type MapSource map[backend.File]string

func (m MapSource) Lines(file backend.File) ([]string, error) {
	content, ok := m[file]
	if !ok {
		return nil, fmt.Errorf("nimbus: unknown file %s", file)
	}
	return strings.Split(content, "\n"), nil
}

// UndefinedSymbolError is the "natural" compilation error a nimbus file
// raises when it references a symbol the coordinator released as
// NotFound.
type UndefinedSymbolError struct {
	File   backend.File
	Symbol backend.Symbol
}

func (e *UndefinedSymbolError) Error() string {
	return fmt.Sprintf("%s: undefined symbol %q", e.File, e.Symbol)
}

// Backend compiles nimbus source files.
type Backend struct {
	Source FileSource
}

// New creates a nimbus Backend reading files with src.
func New(src FileSource) *Backend {
	return &Backend{Source: src}
}

// Compile implements backend.Backend.
func (b *Backend) Compile(ctx context.Context, file backend.File, hooks backend.Hooks) (backend.Artifact, error) {
	lines, err := b.Source.Lines(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}

	// defining tracks the module this file itself is committed to
	// producing, for as long as that module has not yet been announced via
	// ModuleAvailable. A real compiler resolves a file's own dependencies
	// before it can finish defining its own module, so a `use` earlier in
	// the file that blocks is still "on behalf of" that pending module -
	// this is what lets the wait-graph's deadlock analysis recognize a
	// cycle between two files that each reference the other before
	// declaring themselves.
	defining := moduleTarget(lines)
	var out strings.Builder

	for _, raw := range lines {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 || len(fields) > 3 {
			return nil, fmt.Errorf("%s: malformed declaration %q", file, raw)
		}
		keyword := fields[0]

		switch keyword {
		case "module":
			name := backend.Symbol(fields[1])
			artifact := backend.Artifact(fmt.Sprintf("module %s compiled from %s\n", name, file))
			hooks.ModuleAvailable(name, artifact)
			fmt.Fprintf(&out, "module %s\n", name)
			if name == defining {
				defining = ""
			}
		case "struct":
			name := backend.Symbol(fields[1])
			hooks.StructAvailable(name)
			fmt.Fprintf(&out, "struct %s\n", name)
		case "use":
			kind := backend.KindStruct
			name := fields[1]
			if len(fields) == 3 && fields[1] == "module" {
				kind = backend.KindModule
				name = fields[2]
			} else if len(fields) == 3 {
				return nil, fmt.Errorf("%s: malformed declaration %q", file, raw)
			}
			sym := backend.Symbol(name)
			if verdict := hooks.Wait(kind, sym, defining); verdict == backend.NotFound {
				return nil, &UndefinedSymbolError{File: file, Symbol: sym}
			}
			fmt.Fprintf(&out, "use %s\n", name)
		default:
			return nil, fmt.Errorf("%s: unknown declaration keyword %q", file, keyword)
		}
	}

	return backend.Artifact(out.String()), nil
}

// moduleTarget returns the symbol declared by the file's `module` line, or
// "" if it declares none. A nimbus file declares at most one module.
func moduleTarget(lines []string) backend.Symbol {
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[0] == "module" {
			return backend.Symbol(fields[1])
		}
	}
	return ""
}
