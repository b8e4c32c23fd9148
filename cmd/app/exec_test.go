// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_newSourceRegistry_acceptsLocalAndGitHubURIs(t *testing.T) {
	dir := t.TempDir()
	localFile := filepath.Join(dir, "a.nim")
	require.NoError(t, os.WriteFile(localFile, []byte("module A\n"), 0o644))

	o := &Options{}
	reg, err := newSourceRegistry(o, dir)
	require.NoError(t, err)

	assert.NotNil(t, reg.Get(localFile))
	assert.NotNil(t, reg.Get("https://github.com/acme/stdlib//strings.nim"))
	assert.Nil(t, reg.Get("ftp://example.com/nope"))
}

func Test_newSourceRegistry_addsHandlerPerCredentialedHost(t *testing.T) {
	dir := t.TempDir()
	o := &Options{GhOAuthTokens: map[string]string{"git.example.com": "tok"}}

	reg, err := newSourceRegistry(o, dir)
	require.NoError(t, err)

	assert.NotNil(t, reg.Get("https://git.example.com/acme/stdlib//strings.nim"))
	assert.NotNil(t, reg.Get("https://github.com/acme/stdlib//strings.nim"))
}
