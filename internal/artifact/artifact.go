// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package artifact implements the Artifact Model (spec §4.2): concrete and
// pattern artifact definitions, their declared input/output paths, and
// wildcard expansion for pattern artifacts.
package artifact

import (
	"strings"

	"github.com/maruel/memora/internal/memoraerr"
)

// Wildcard is the literal token that marks a pattern artifact's varying
// output segment.
const Wildcard = "{}"

// Artifact is a named bundle of input and output paths declared in the
// manifest (spec §3). A concrete artifact has no Wildcard in any Output; a
// pattern artifact has it in at least one, each at most once.
type Artifact struct {
	Name    string
	Inputs  []string
	Outputs []string
}

// IsPattern reports whether any declared output contains the wildcard
// token.
func (a *Artifact) IsPattern() bool {
	for _, o := range a.Outputs {
		if strings.Contains(o, Wildcard) {
			return true
		}
	}
	return false
}

// Validate enforces the invariants from spec §3/§4.2.
func (a *Artifact) Validate() error {
	if a.Name == "" {
		return memoraerr.New(memoraerr.ManifestParse, "artifact name must not be empty")
	}
	if len(a.Inputs) == 0 {
		return memoraerr.New(memoraerr.ManifestParse, "artifact %q: inputs must not be empty", a.Name)
	}
	if len(a.Outputs) == 0 {
		return memoraerr.New(memoraerr.ManifestParse, "artifact %q: outputs must not be empty", a.Name)
	}
	for _, in := range a.Inputs {
		if strings.Contains(in, Wildcard) {
			return memoraerr.New(memoraerr.ManifestParse, "artifact %q: input %q must not contain %q", a.Name, in, Wildcard)
		}
	}
	for _, out := range a.Outputs {
		if strings.Count(out, Wildcard) > 1 {
			return memoraerr.New(memoraerr.ManifestParse, "artifact %q: output %q contains %q more than once", a.Name, out, Wildcard)
		}
	}
	return nil
}

// OutputsFor returns the concrete (logical-path) outputs of one instance of
// the artifact. For a concrete artifact, instance is ignored and Outputs is
// returned unchanged. For a pattern artifact, every output containing the
// wildcard is expanded with instance; outputs without it are shared across
// all instances.
func (a *Artifact) OutputsFor(instance string) []string {
	if instance == "" {
		return append([]string(nil), a.Outputs...)
	}
	out := make([]string, len(a.Outputs))
	for i, o := range a.Outputs {
		out[i] = strings.Replace(o, Wildcard, instance, 1)
	}
	return out
}
