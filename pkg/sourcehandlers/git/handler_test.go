// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package git

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcceptOnlyGitScheme(t *testing.T) {
	h := New(t.TempDir(), "", "")
	assert.True(t, h.Accept("git://example.com/acme/stdlib//strings.nim"))
	assert.False(t, h.Accept("https://example.com/acme/stdlib//strings.nim"))
	assert.False(t, h.Accept("./local/a.nim"))
}

func TestSplitURISeparatesRemoteAndPath(t *testing.T) {
	remote, path, err := splitURI("git://example.com/acme/stdlib//lib/strings.nim")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/acme/stdlib", remote)
	assert.Equal(t, "lib/strings.nim", path)
}

func TestSplitURIRejectsMissingPathSeparator(t *testing.T) {
	_, _, err := splitURI("git://example.com/acme/stdlib")
	assert.Error(t, err)
}

// initRemote creates a real git repository on disk with one commit
// containing fileName, for prepare() to clone from via the file://
// transport go-git itself supports.
func initRemote(t *testing.T, fileName, content string) string {
	t.Helper()
	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, fileName), []byte(content), 0o644))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add(fileName)
	require.NoError(t, err)
	_, err = wt.Commit("add "+fileName, &gogit.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com"},
	})
	require.NoError(t, err)
	return "file://" + dir
}

func TestPrepareClonesRemoteOnce(t *testing.T) {
	remote := initRemote(t, "a.nim", "module A\n")
	h := &handler{git: NewGit(), cacheRoot: t.TempDir(), repos: make(map[string]Repository)}

	repo1, localPath, err := h.prepare(context.Background(), remote)
	require.NoError(t, err)
	require.NotNil(t, repo1)

	content, err := os.ReadFile(filepath.Join(localPath, "a.nim"))
	require.NoError(t, err)
	assert.Equal(t, "module A\n", string(content))

	repo2, localPath2, err := h.prepare(context.Background(), remote)
	require.NoError(t, err)
	assert.Same(t, repo1, repo2)
	assert.Equal(t, localPath, localPath2)
}

func TestReadMissingRemoteYieldsError(t *testing.T) {
	h := New(t.TempDir(), "", "")
	_, err := h.Read(context.Background(), "git://127.0.0.1:0/does/not-exist//f.nim", "")
	assert.Error(t, err)
}
