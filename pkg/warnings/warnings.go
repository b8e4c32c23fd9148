// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package warnings is the external warnings registry consulted once, after a
// successful compilation batch, for the "warnings as errors" policy. The
// coordinator (pkg/compiler) has no knowledge of this policy; it is decided
// by the CLI layer after Files/FilesToPath returns.
package warnings

import "fmt"

// Warning is a single non-fatal diagnostic raised during compilation.
type Warning struct {
	File    string
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.File, w.Message)
}

// Registry collects warnings raised during a batch.
//
//counterfeiter:generate . Registry
type Registry interface {
	// Record appends a warning.
	Record(w Warning)
	// Warnings returns every warning recorded so far.
	Warnings() []Warning
}

type registry struct {
	warnings []Warning
}

// NewRegistry creates an empty, in-memory Registry.
func NewRegistry() Registry {
	return &registry{}
}

func (r *registry) Record(w Warning) {
	r.warnings = append(r.warnings, w)
}

func (r *registry) Warnings() []Warning {
	return r.warnings
}
