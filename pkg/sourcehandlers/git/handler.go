// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package git

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/nimbuslang/nimbusc/pkg/sourcehandlers"
)

// handler is the sourcehandlers.Handler for git:// URIs of the shape
// git://<host>/<owner>/<repo>//<path-in-repo>. A Source.Ref, when given,
// selects the branch, tag or commit to read from; otherwise the remote's
// default branch is used.
type handler struct {
	git       Git
	cacheRoot string
	auth      http.AuthMethod

	mu    sync.Mutex
	repos map[string]Repository
}

// New creates a sourcehandlers.Handler that clones git:// remotes into
// cacheRoot, authenticating with user/oauthToken when non-empty.
func New(cacheRoot string, user, oauthToken string) sourcehandlers.Handler {
	var auth http.AuthMethod
	if oauthToken != "" {
		auth = &http.BasicAuth{Username: user, Password: oauthToken}
	}
	return &handler{
		git:       NewGit(),
		cacheRoot: cacheRoot,
		auth:      auth,
		repos:     make(map[string]Repository),
	}
}

// Accept implements sourcehandlers.Handler#Accept
func (h *handler) Accept(uri string) bool {
	return strings.HasPrefix(uri, "git://")
}

// Read implements sourcehandlers.Handler#Read
func (h *handler) Read(ctx context.Context, uri string, ref string) ([]byte, error) {
	remote, path, err := splitURI(uri)
	if err != nil {
		return nil, err
	}
	repo, localPath, err := h.prepare(ctx, remote)
	if err != nil {
		return nil, err
	}
	if ref != "" {
		if err := checkout(repo, ref); err != nil {
			return nil, fmt.Errorf("git: checkout %s at %s: %w", remote, ref, err)
		}
	}
	full := filepath.Join(localPath, path)
	content, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, sourcehandlers.ErrResourceNotFound(uri)
		}
		return nil, err
	}
	return content, nil
}

// GetRateLimit implements sourcehandlers.Handler#GetRateLimit. Bare git
// remotes have no API rate limit.
func (h *handler) GetRateLimit(ctx context.Context) (int, int, time.Time, error) {
	return -1, -1, time.Time{}, nil
}

// splitURI separates a git://host/owner/repo//path uri into its remote
// clone URL and the path inside the repository.
func splitURI(uri string) (remote, path string, err error) {
	rest := strings.TrimPrefix(uri, "git://")
	parts := strings.SplitN(rest, "//", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("git: malformed uri %q, expected git://host/owner/repo//path", uri)
	}
	return "https://" + parts[0], parts[1], nil
}

// prepare returns the local clone of remote, cloning it into the cache if
// this is the first time it's been seen this run.
func (h *handler) prepare(ctx context.Context, remote string) (Repository, string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	localPath := h.localPath(remote)
	if repo, ok := h.repos[localPath]; ok {
		return repo, localPath, nil
	}

	repo, err := h.git.PlainOpen(localPath)
	if err != nil {
		repo, err = h.git.PlainCloneContext(ctx, localPath, false, &gogit.CloneOptions{
			URL:  remote,
			Auth: h.auth,
		})
		if err != nil {
			return nil, "", fmt.Errorf("git: clone %s: %w", remote, err)
		}
	}
	h.repos[localPath] = repo
	return repo, localPath, nil
}

func (h *handler) localPath(remote string) string {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(remote, "https://"), "http://")
	return filepath.Join(h.cacheRoot, filepath.FromSlash(trimmed))
}

// checkout moves repo's worktree to ref, trying it first as a branch, then
// a tag, then a raw commit hash.
func checkout(repo Repository, ref string) error {
	wt, err := repo.Worktree()
	if err != nil {
		return err
	}
	for _, name := range []plumbing.ReferenceName{
		plumbing.NewBranchReferenceName(ref),
		plumbing.NewTagReferenceName(ref),
	} {
		if _, err := repo.Reference(name, true); err == nil {
			return wt.Checkout(&gogit.CheckoutOptions{Branch: name})
		}
	}
	return wt.Checkout(&gogit.CheckoutOptions{Hash: plumbing.NewHash(ref)})
}
