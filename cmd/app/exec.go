// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"context"
	"fmt"
	"time"

	"github.com/nimbuslang/nimbusc/pkg/backend"
	"github.com/nimbuslang/nimbusc/pkg/backend/nimbus"
	"github.com/nimbuslang/nimbusc/pkg/compiler"
	"github.com/nimbuslang/nimbusc/pkg/sourcehandlers"
	"github.com/nimbuslang/nimbusc/pkg/sourcehandlers/fs"
	"github.com/nimbuslang/nimbusc/pkg/sourcehandlers/git"
	"github.com/nimbuslang/nimbusc/pkg/sourcehandlers/github"
	"github.com/nimbuslang/nimbusc/pkg/warnings"
	"k8s.io/klog/v2"
)

// runCompile resolves o.ManifestPath into local files via
// pkg/sourcehandlers, hands them to pkg/compiler and applies the
// warnings-as-errors policy afterwards.
func runCompile(ctx context.Context, o *Options) error {
	if o.ManifestPath == "" {
		return fmt.Errorf("--manifest is required")
	}

	cacheDir := o.cacheDir()
	reg, err := newSourceRegistry(o, cacheDir)
	if err != nil {
		return err
	}

	manifest, err := sourcehandlers.LoadManifest(o.ManifestPath)
	if err != nil {
		return err
	}

	paths, err := sourcehandlers.Resolve(ctx, reg, cacheDir, manifest)
	if err != nil {
		return fmt.Errorf("resolving manifest sources: %w", err)
	}

	files := make([]compiler.File, len(paths))
	for i, p := range paths {
		files[i] = compiler.File(p)
	}

	warn := warnings.NewRegistry()
	opts := compiler.Options{
		Backend:                  nimbus.New(nimbus.NewFSSource()),
		Concurrency:              o.Concurrency,
		LongCompilationThreshold: time.Duration(o.LongCompilationThreshold) * time.Millisecond,
		OnFileDone: func(f compiler.File) {
			klog.V(2).Infof("compiled %s", f)
		},
		OnLongCompilation: func(f compiler.File) {
			warn.Record(warnings.Warning{
				File:    string(f),
				Message: "compilation exceeded the long-compilation threshold",
			})
			klog.Warningf("%s is still compiling after the long-compilation threshold", f)
		},
		OnModuleCompiled: func(f compiler.File, s compiler.Symbol, a backend.Artifact) {
			klog.V(4).Infof("%s produced symbol %s (%d bytes)", f, s, len(a))
		},
	}

	var symbols []compiler.Symbol
	if o.DestinationPath != "" {
		symbols, err = compiler.FilesToPath(ctx, files, o.DestinationPath, opts)
	} else {
		symbols, err = compiler.Files(ctx, files, opts)
	}
	if err != nil {
		return err
	}
	klog.Infof("compiled %d files, %d symbols produced", len(files), len(symbols))

	if o.FailOnWarnings && len(warn.Warnings()) > 0 {
		return fmt.Errorf("%d warning(s) recorded, failing per --fail-on-warnings", len(warn.Warnings()))
	}
	return nil
}

// newSourceRegistry builds the sourcehandlers.Registry used to resolve a
// manifest: local filesystem, git remotes, and one github handler per
// credentialed host plus an unauthenticated github.com fallback.
func newSourceRegistry(o *Options, cacheDir string) (sourcehandlers.Registry, error) {
	reg := sourcehandlers.NewRegistry(fs.New())

	tokens := o.gatherCredentials()
	user := ""
	reg.Load(git.New(cacheDir, user, tokens["github.com"]))

	seenGitHubCom := false
	for host, token := range tokens {
		h, err := github.New(host, token, cacheDir)
		if err != nil {
			return nil, err
		}
		reg.Load(h)
		if host == "github.com" {
			seenGitHubCom = true
		}
	}
	if !seenGitHubCom {
		h, err := github.New("", "", cacheDir)
		if err != nil {
			return nil, err
		}
		reg.Load(h)
	}

	return reg, nil
}
