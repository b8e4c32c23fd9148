// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package fs is the local filesystem sourcehandlers.Handler.
package fs

import (
	"context"
	"os"
	"time"

	"github.com/nimbuslang/nimbusc/pkg/sourcehandlers"
)

type handler struct{}

// New creates a sourcehandlers.Handler for local filesystem paths.
func New() sourcehandlers.Handler {
	return &handler{}
}

// Accept implements sourcehandlers.Handler#Accept
func (handler) Accept(uri string) bool {
	info, err := os.Stat(uri)
	return err == nil && !info.IsDir()
}

// Read implements sourcehandlers.Handler#Read. ref is ignored: the local
// filesystem has no notion of a branch or tag.
func (handler) Read(ctx context.Context, uri string, ref string) ([]byte, error) {
	info, err := os.Stat(uri)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, sourcehandlers.ErrResourceNotFound(uri)
		}
		return nil, err
	}
	if info.IsDir() {
		return nil, nil
	}
	return os.ReadFile(uri)
}

// GetRateLimit implements sourcehandlers.Handler#GetRateLimit. The
// filesystem has no rate limit.
func (handler) GetRateLimit(ctx context.Context) (int, int, time.Time, error) {
	return -1, -1, time.Time{}, nil
}
