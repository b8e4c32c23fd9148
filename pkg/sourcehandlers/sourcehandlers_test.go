// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package sourcehandlers

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubHandler struct {
	accepts func(uri string) bool
	content []byte
	err     error
}

func (s *stubHandler) Accept(uri string) bool { return s.accepts(uri) }

func (s *stubHandler) Read(ctx context.Context, uri string, ref string) ([]byte, error) {
	return s.content, s.err
}

func (s *stubHandler) GetRateLimit(ctx context.Context) (int, int, time.Time, error) {
	return -1, -1, time.Time{}, nil
}

func TestRegistryGetReturnsFirstAcceptingHandler(t *testing.T) {
	never := &stubHandler{accepts: func(string) bool { return false }}
	always := &stubHandler{accepts: func(string) bool { return true }}
	reg := NewRegistry(never, always)
	assert.Same(t, always, reg.Get("anything"))
}

func TestRegistryGetReturnsNilWhenNoneAccept(t *testing.T) {
	reg := NewRegistry(&stubHandler{accepts: func(string) bool { return false }})
	assert.Nil(t, reg.Get("anything"))
}

func TestLoadManifestParsesSources(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sources:\n  - uri: ./a.nim\n  - uri: https://github.com/acme/stdlib//strings.nim\n    ref: v1.2.0\n"), 0o644))

	m, err := LoadManifest(path)
	require.NoError(t, err)
	require.Len(t, m.Sources, 2)
	assert.Equal(t, "./a.nim", m.Sources[0].URI)
	assert.Equal(t, "", m.Sources[0].Ref)
	assert.Equal(t, "v1.2.0", m.Sources[1].Ref)
}

func TestResolveWritesContentAndReturnsPaths(t *testing.T) {
	h := &stubHandler{accepts: func(string) bool { return true }, content: []byte("module A\n")}
	reg := NewRegistry(h)
	m := &Manifest{Sources: []Source{{URI: "a.nim"}}}

	paths, err := Resolve(context.Background(), reg, t.TempDir(), m)
	require.NoError(t, err)
	require.Len(t, paths, 1)
	blob, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Equal(t, "module A\n", string(blob))
}

func TestResolveAggregatesFailuresAndContinues(t *testing.T) {
	ok := &stubHandler{accepts: func(uri string) bool { return uri == "good.nim" }, content: []byte("module Good\n")}
	reg := NewRegistry(ok)
	m := &Manifest{Sources: []Source{{URI: "missing.nim"}, {URI: "good.nim"}}}

	paths, err := Resolve(context.Background(), reg, t.TempDir(), m)
	require.Error(t, err)
	require.Len(t, paths, 1)
	assert.Contains(t, err.Error(), "missing.nim")
}

func TestResolveIsIdempotentAcrossRuns(t *testing.T) {
	h := &stubHandler{accepts: func(string) bool { return true }, content: []byte("module A\n")}
	reg := NewRegistry(h)
	m := &Manifest{Sources: []Source{{URI: "a.nim"}}}
	cacheDir := t.TempDir()

	first, err := Resolve(context.Background(), reg, cacheDir, m)
	require.NoError(t, err)
	second, err := Resolve(context.Background(), reg, cacheDir, m)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
