// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package github is the GitHub sourcehandlers.Handler: it reads manifest
// sources of the shape https://<host>/<owner>/<repo>//<path>, transport
// cached on disk so repeated CLI runs don't re-hit the API for unchanged
// blobs.
package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	ghclient "github.com/google/go-github/v43/github"
	"github.com/gregjones/httpcache"
	"github.com/gregjones/httpcache/diskcache"
	"github.com/nimbuslang/nimbusc/pkg/sourcehandlers"
	"github.com/peterbourgon/diskv"
	"golang.org/x/oauth2"
)

type handler struct {
	client *ghclient.Client
	host   string
}

// New creates a sourcehandlers.Handler for the GitHub (or GitHub
// Enterprise) instance at host, authenticated with oauthToken when
// non-empty and caching HTTP responses under cacheDir.
func New(host, oauthToken, cacheDir string) (sourcehandlers.Handler, error) {
	base := http.DefaultTransport
	if oauthToken != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: oauthToken})
		base = oauth2.NewClient(context.Background(), ts).Transport
	}

	d := diskv.New(diskv.Options{
		BasePath:     cacheDir,
		Transform:    func(string) []string { return []string{} },
		CacheSizeMax: 1024 * 1024 * 1024,
	})
	cacheTransport := &httpcache.Transport{
		Transport:           base,
		Cache:               diskcache.NewWithDiskv(d),
		MarkCachedResponses: true,
	}
	httpClient := cacheTransport.Client()

	var client *ghclient.Client
	if host == "github.com" || host == "" {
		client = ghclient.NewClient(httpClient)
	} else {
		var err error
		client, err = ghclient.NewEnterpriseClient("https://"+host, "", httpClient)
		if err != nil {
			return nil, fmt.Errorf("github: building enterprise client for %s: %w", host, err)
		}
	}

	h := host
	if h == "" {
		h = "github.com"
	}
	return &handler{client: client, host: h}, nil
}

// resourceLocator is the decomposed form of a https://host/owner/repo//path uri.
type resourceLocator struct {
	owner, repo, path string
}

func parse(uri string) (*resourceLocator, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("github: invalid uri %q: %w", uri, err)
	}
	trimmed := strings.TrimPrefix(u.Path, "/")
	parts := strings.SplitN(trimmed, "//", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("github: malformed uri %q, expected https://host/owner/repo//path", uri)
	}
	ownerRepo := strings.SplitN(parts[0], "/", 2)
	if len(ownerRepo) != 2 {
		return nil, fmt.Errorf("github: malformed uri %q, missing owner/repo", uri)
	}
	return &resourceLocator{owner: ownerRepo[0], repo: ownerRepo[1], path: parts[1]}, nil
}

// Accept implements sourcehandlers.Handler#Accept
func (h *handler) Accept(uri string) bool {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "https" {
		return false
	}
	if u.Host != h.host {
		return false
	}
	_, err = parse(uri)
	return err == nil
}

// Read implements sourcehandlers.Handler#Read. ref selects the branch, tag
// or commit; an empty ref reads the repository's default branch.
func (h *handler) Read(ctx context.Context, uri string, ref string) ([]byte, error) {
	rl, err := parse(uri)
	if err != nil {
		return nil, err
	}
	if ref == "" {
		ref, err = h.defaultBranch(ctx, rl.owner, rl.repo)
		if err != nil {
			return nil, err
		}
	}

	opt := &ghclient.RepositoryContentGetOptions{Ref: ref}
	fc, _, resp, err := h.client.Repositories.GetContents(ctx, rl.owner, rl.repo, rl.path, opt)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, sourcehandlers.ErrResourceNotFound(uri)
		}
		if resp != nil && resp.StatusCode == http.StatusForbidden {
			return h.downloadLarge(ctx, rl, opt, uri)
		}
		return nil, err
	}
	if fc == nil {
		return nil, fmt.Errorf("github: %s is a directory, not a file", uri)
	}
	content, err := base64.StdEncoding.DecodeString(*fc.Content)
	if err != nil {
		return nil, fmt.Errorf("github: decoding content of %s: %w", uri, err)
	}
	return content, nil
}

// downloadLarge handles the >1MB case GetContents refuses: fetch the
// containing directory listing, find the file's blob SHA, then fetch the
// blob directly.
func (h *handler) downloadLarge(ctx context.Context, rl *resourceLocator, opt *ghclient.RepositoryContentGetOptions, uri string) ([]byte, error) {
	dir := path.Dir(rl.path)
	name := path.Base(rl.path)
	_, entries, resp, err := h.client.Repositories.GetContents(ctx, rl.owner, rl.repo, dir, opt)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, sourcehandlers.ErrResourceNotFound(uri)
		}
		return nil, err
	}
	for _, e := range entries {
		if e.GetName() != name || e.GetSHA() == "" {
			continue
		}
		blob, _, err := h.client.Git.GetBlobRaw(ctx, rl.owner, rl.repo, e.GetSHA())
		if err != nil {
			return nil, err
		}
		return blob, nil
	}
	return nil, sourcehandlers.ErrResourceNotFound(uri)
}

func (h *handler) defaultBranch(ctx context.Context, owner, repo string) (string, error) {
	r, _, err := h.client.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return "", err
	}
	return r.GetDefaultBranch(), nil
}

// GetRateLimit implements sourcehandlers.Handler#GetRateLimit
func (h *handler) GetRateLimit(ctx context.Context) (int, int, time.Time, error) {
	r, _, err := h.client.RateLimits(ctx)
	if err != nil {
		return -1, -1, time.Now(), err
	}
	return r.Core.Limit, r.Core.Remaining, r.Core.Reset.Time, nil
}
