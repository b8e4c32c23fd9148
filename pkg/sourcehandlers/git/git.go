// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package git is the git:// sourcehandlers.Handler: it clones (or reuses a
// cached clone of) a bare git remote and reads a single path out of its
// worktree at a given ref.
package git

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

import (
	"context"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Git interface defines the go-git API this package depends on.
//
//counterfeiter:generate . Git
type Git interface {
	PlainOpen(path string) (Repository, error)
	PlainCloneContext(ctx context.Context, path string, isBare bool, o *gogit.CloneOptions) (Repository, error)
}

// Repository interface defines the go-git repository API this package
// depends on.
//
//counterfeiter:generate . Repository
type Repository interface {
	FetchContext(ctx context.Context, o *gogit.FetchOptions) error
	Worktree() (RepositoryWorktree, error)
	Reference(name plumbing.ReferenceName, resolved bool) (*plumbing.Reference, error)
}

// RepositoryWorktree interface defines the go-git worktree API this
// package depends on.
//
//counterfeiter:generate . RepositoryWorktree
type RepositoryWorktree interface {
	Checkout(opts *gogit.CheckoutOptions) error
}

type git struct {
	repository *gogit.Repository
}

// NewGit creates a Git backed by the real go-git library.
func NewGit() Git {
	return &git{}
}

// PlainOpen calls the go-git repository API PlainOpen.
func (g *git) PlainOpen(path string) (Repository, error) {
	repo, err := gogit.PlainOpen(path)
	return &git{repository: repo}, err
}

// PlainCloneContext calls the go-git repository API PlainCloneContext.
func (g *git) PlainCloneContext(ctx context.Context, path string, isBare bool, o *gogit.CloneOptions) (Repository, error) {
	repo, err := gogit.PlainCloneContext(ctx, path, isBare, o)
	return &git{repository: repo}, err
}

// FetchContext calls the go-git repository API FetchContext.
func (g *git) FetchContext(ctx context.Context, o *gogit.FetchOptions) error {
	return g.repository.FetchContext(ctx, o)
}

// Worktree calls the go-git repository API Worktree.
func (g *git) Worktree() (RepositoryWorktree, error) {
	return g.repository.Worktree()
}

// Reference translates a reference name to a reference structure, with the
// target resolved if resolved is set.
func (g *git) Reference(name plumbing.ReferenceName, resolved bool) (*plumbing.Reference, error) {
	return g.repository.Reference(name, resolved)
}
