// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package github

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSplitsOwnerRepoAndPath(t *testing.T) {
	rl, err := parse("https://github.com/acme/stdlib//lib/strings.nim")
	require.NoError(t, err)
	assert.Equal(t, "acme", rl.owner)
	assert.Equal(t, "stdlib", rl.repo)
	assert.Equal(t, "lib/strings.nim", rl.path)
}

func TestParseRejectsMissingDoubleSlash(t *testing.T) {
	_, err := parse("https://github.com/acme/stdlib/lib/strings.nim")
	assert.Error(t, err)
}

func TestParseRejectsMissingOwnerOrRepo(t *testing.T) {
	_, err := parse("https://github.com/acme//lib/strings.nim")
	assert.Error(t, err)
}

func TestAcceptRequiresMatchingHostAndHTTPS(t *testing.T) {
	h, err := New("github.com", "", t.TempDir())
	require.NoError(t, err)

	assert.True(t, h.Accept("https://github.com/acme/stdlib//strings.nim"))
	assert.False(t, h.Accept("http://github.com/acme/stdlib//strings.nim"))
	assert.False(t, h.Accept("https://gitlab.com/acme/stdlib//strings.nim"))
	assert.False(t, h.Accept("https://github.com/acme/stdlib/strings.nim"))
}

func TestNewDefaultsEmptyHostToGitHubDotCom(t *testing.T) {
	h, err := New("", "", t.TempDir())
	require.NoError(t, err)
	assert.True(t, h.Accept("https://github.com/acme/stdlib//strings.nim"))
}
