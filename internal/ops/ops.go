// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package ops implements the Operations component (spec §4.5): thin
// orchestration of the manifest, resolver, and cache store behind
// lookup/get/insert, plus the disable_env_var short-circuit.
package ops

import (
	"path/filepath"

	"github.com/maruel/memora/internal/artifact"
	"github.com/maruel/memora/internal/cache"
	"github.com/maruel/memora/internal/gitrepo"
	"github.com/maruel/memora/internal/logging"
	"github.com/maruel/memora/internal/manifest"
	"github.com/maruel/memora/internal/memoraerr"
	"github.com/maruel/memora/internal/resolver"
)

// Status is the outcome of lookup/get: a hit or a miss. Misses are not
// errors (spec §7).
type Status int

const (
	Miss Status = iota
	Hit
)

// Ops bundles the manifest and the components it drives.
type Ops struct {
	Repo     gitrepo.Repo
	Manifest *manifest.Manifest
	Store    *cache.Store
	Resolver *resolver.Resolver
}

// Open wires a Repo and a loaded Manifest into an Ops.
func Open(repo gitrepo.Repo, m *manifest.Manifest) *Ops {
	store := cache.New(m.CacheRootDir)
	return &Ops{Repo: repo, Manifest: m, Store: store, Resolver: resolver.New(repo, store)}
}

// Lookup implements `memora lookup <name>`: reports whether a is cached for
// the current HEAD without touching the working tree.
func (o *Ops) Lookup(name string) (Status, gitrepo.ObjectID, error) {
	if o.Manifest.Disabled() {
		logging.L.Debugf("lookup %q: disabled, reporting miss", name)
		return Miss, "", nil
	}
	a, err := o.Manifest.Artifact(name)
	if err != nil {
		return Miss, "", err
	}
	res, err := o.Resolver.Resolve(a)
	if err != nil {
		return Miss, "", err
	}
	if !res.Hit {
		return Miss, "", nil
	}
	return Hit, res.ObjectID, nil
}

// Get implements `memora get <name>`: on a hit, restores every output
// (every instance, for a pattern artifact) to the working tree.
func (o *Ops) Get(name string) (Status, error) {
	if o.Manifest.Disabled() {
		logging.L.Debugf("get %q: disabled, reporting miss", name)
		return Miss, nil
	}
	a, err := o.Manifest.Artifact(name)
	if err != nil {
		return Miss, err
	}
	res, err := o.Resolver.Resolve(a)
	if err != nil {
		return Miss, err
	}
	if !res.Hit {
		return Miss, nil
	}

	if a.IsPattern() {
		for _, inst := range res.Instances {
			outputs := outputPaths(o.Repo.Root(), a.OutputsFor(inst))
			if err := o.Store.RetrieveEntry(a.Name, inst, res.ObjectID, outputs); err != nil {
				return Miss, err
			}
		}
		return Hit, nil
	}
	outputs := outputPaths(o.Repo.Root(), a.OutputsFor(""))
	if err := o.Store.RetrieveEntry(a.Name, "", res.ObjectID, outputs); err != nil {
		return Miss, err
	}
	return Hit, nil
}

// Insert implements `memora insert <name>`: computes the required input
// object for the current HEAD and deposits every declared output under it.
// For a pattern artifact, instances are discovered by scanning the working
// tree (not the cache, since nothing may be cached yet).
func (o *Ops) Insert(name string) error {
	if o.Manifest.Disabled() {
		logging.L.Debugf("insert %q: disabled, no-op success", name)
		return nil
	}
	a, err := o.Manifest.Artifact(name)
	if err != nil {
		return err
	}
	head, err := o.Repo.Head()
	if err != nil {
		return err
	}
	required, defined, err := o.Resolver.RequiredInputObject(a, head)
	if err != nil {
		return err
	}
	if !defined {
		return memoraerr.New(memoraerr.Git, "artifact %q: an input was never committed, required input object is undefined", a.Name)
	}

	if a.IsPattern() {
		instances, err := artifact.DiscoverInstancesFS(o.Repo.Root(), a)
		if err != nil {
			return err
		}
		logging.L.Debugf("insert %q: discovered instances %v", name, instances)
		for _, inst := range instances {
			outputs := outputPaths(o.Repo.Root(), a.OutputsFor(inst))
			if err := o.Store.InsertEntry(a.Name, inst, required, outputs); err != nil {
				return err
			}
		}
		return nil
	}
	outputs := outputPaths(o.Repo.Root(), a.OutputsFor(""))
	return o.Store.InsertEntry(a.Name, "", required, outputs)
}

// List implements the supplemented `memora list <name>` command: every
// cached entry key for the artifact, without consulting the resolver.
func (o *Ops) List(name string) ([]cache.EntryKey, error) {
	a, err := o.Manifest.Artifact(name)
	if err != nil {
		return nil, err
	}
	return o.Store.ListEntries(a.Name, a.IsPattern())
}

// outputPaths turns an artifact instance's logical (repo-relative) output
// paths into an absolute-path map rooted at root, the shape both
// InsertEntry and RetrieveEntry expect.
func outputPaths(root string, logical []string) map[string]string {
	out := make(map[string]string, len(logical))
	for _, p := range logical {
		out[p] = filepath.Join(root, filepath.FromSlash(p))
	}
	return out
}
