// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package sourcehandlers resolves a compilation manifest's source entries
// into local files a backend.Backend can read. It sits entirely outside
// pkg/compiler: the coordinator only ever sees the resulting file paths.
package sourcehandlers

import (
	"context"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// ErrResourceNotFound indicates that a source URI could not be located by
// any registered Handler.
type ErrResourceNotFound string

func (e ErrResourceNotFound) Error() string {
	return fmt.Sprintf("resource %q not found", string(e))
}

// Handler does URI-scheme specific resolution of a single manifest source:
// accept, read, report rate limit.
type Handler interface {
	// Accept reports whether this Handler manages the resource at uri.
	Accept(uri string) bool
	// Read returns the raw bytes of the resource at uri, resolved at ref
	// if the Handler is ref-aware (empty ref means "default").
	Read(ctx context.Context, uri string, ref string) ([]byte, error)
	// GetRateLimit returns limit, remaining and reset time for the
	// Handler's backing API, or negative values if not applicable.
	GetRateLimit(ctx context.Context) (int, int, time.Time, error)
}

// Registry dispatches a URI to the first loaded Handler that accepts it.
type Registry interface {
	Load(handlers ...Handler)
	Get(uri string) Handler
}

type registry struct {
	handlers []Handler
}

// NewRegistry creates a Registry, optionally pre-loaded with handlers.
func NewRegistry(handlers ...Handler) Registry {
	r := &registry{}
	r.Load(handlers...)
	return r
}

func (r *registry) Load(handlers ...Handler) {
	r.handlers = append(r.handlers, handlers...)
}

func (r *registry) Get(uri string) Handler {
	for _, h := range r.handlers {
		if h.Accept(uri) {
			return h
		}
	}
	return nil
}

// Source is one manifest entry: a URI to resolve and an optional ref
// (branch, tag or commit) for ref-aware handlers.
type Source struct {
	URI string `yaml:"uri"`
	Ref string `yaml:"ref,omitempty"`
}

// Manifest is the top level compilation manifest: a flat list of sources.
type Manifest struct {
	Sources []Source `yaml:"sources"`
}

// LoadManifest reads and parses the YAML manifest at path.
func LoadManifest(path string) (*Manifest, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(blob, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	return &m, nil
}

// Resolve fetches every source in m through reg and materializes it under
// cacheDir, returning the local paths in manifest order. A source the
// registry has no Handler for, or that its Handler fails to Read, is
// collected into the returned multierror rather than aborting the whole
// batch - a manifest with one bad link shouldn't block compiling the rest.
func Resolve(ctx context.Context, reg Registry, cacheDir string, m *Manifest) ([]string, error) {
	var paths []string
	var errs *multierror.Error

	for i, src := range m.Sources {
		h := reg.Get(src.URI)
		if h == nil {
			errs = multierror.Append(errs, fmt.Errorf("source %d (%s): %w", i, src.URI, ErrResourceNotFound(src.URI)))
			continue
		}
		content, err := h.Read(ctx, src.URI, src.Ref)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("source %d (%s): %w", i, src.URI, err))
			continue
		}
		path, err := materialize(cacheDir, src, content)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("source %d (%s): %w", i, src.URI, err))
			continue
		}
		paths = append(paths, path)
	}

	return paths, errs.ErrorOrNil()
}

// materialize writes a resolved source's bytes to a stable path under
// cacheDir, named by a hash of its URI and ref (keeping the URI's
// extension), so repeated runs overwrite rather than accumulate.
func materialize(cacheDir string, src Source, content []byte) (string, error) {
	h := fnv.New64a()
	h.Write([]byte(src.URI))
	h.Write([]byte{0})
	h.Write([]byte(src.Ref))
	name := fmt.Sprintf("%x%s", h.Sum64(), filepath.Ext(src.URI))
	path := filepath.Join(cacheDir, name)
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
