// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package resolver implements the Resolver (spec §4.4): given an artifact
// and the current HEAD, it computes the required input object and selects
// the best cached entry, intersecting candidate sets across a pattern
// artifact's concrete instances without ever computing a full candidate set
// once the running intersection is empty (spec §8 invariant 5).
package resolver

import (
	"sort"

	"github.com/maruel/memora/internal/artifact"
	"github.com/maruel/memora/internal/cache"
	"github.com/maruel/memora/internal/gitrepo"
)

// Resolver couples a Repo facade with a Store to answer lookup/get/insert.
type Resolver struct {
	Repo  gitrepo.Repo
	Store *cache.Store
}

// New builds a Resolver.
func New(repo gitrepo.Repo, store *cache.Store) *Resolver {
	return &Resolver{Repo: repo, Store: store}
}

// Resolution is the outcome of resolving an artifact against the current
// HEAD.
type Resolution struct {
	// RequiredDefined is false when some input was never committed (spec
	// §4.4 Step 1); every other field is meaningless in that case.
	RequiredDefined bool
	// RequiredInputObject is the youngest ancestor of HEAD at which any of
	// the artifact's inputs last changed.
	RequiredInputObject gitrepo.ObjectID
	// Hit is true when a cached entry equivalent to RequiredInputObject was
	// found.
	Hit bool
	// ObjectID is the chosen cache entry's key, valid when Hit is true.
	ObjectID gitrepo.ObjectID
	// Instances lists, for a pattern artifact hit, every concrete instance
	// found in the cache (sorted). Nil for a concrete artifact.
	Instances []string
}

// RequiredInputObject computes the required input object for a (spec §4.4
// Step 1): the youngest ancestor of head at which any input last changed.
// ok is false when any input was never committed.
func (r *Resolver) RequiredInputObject(a *artifact.Artifact, head gitrepo.ObjectID) (gitrepo.ObjectID, bool, error) {
	ids := make([]gitrepo.ObjectID, 0, len(a.Inputs))
	for _, p := range a.Inputs {
		id, ok, err := r.Repo.LastCommitOnPath(p, head)
		if err != nil {
			return "", false, err
		}
		if !ok {
			return "", false, nil
		}
		ids = append(ids, id)
	}
	youngest, err := r.Repo.Youngest(ids)
	if err != nil {
		return "", false, err
	}
	return youngest, true, nil
}

// Resolve runs the full resolver pipeline (spec §4.4 Steps 1-4) for a
// against the current HEAD.
func (r *Resolver) Resolve(a *artifact.Artifact) (*Resolution, error) {
	head, err := r.Repo.Head()
	if err != nil {
		return nil, err
	}
	required, defined, err := r.RequiredInputObject(a, head)
	if err != nil {
		return nil, err
	}
	res := &Resolution{RequiredInputObject: required, RequiredDefined: defined}
	if !defined {
		return res, nil
	}

	var candidates map[gitrepo.ObjectID]struct{}
	var instances []string
	if a.IsPattern() {
		candidates, instances, err = r.patternCandidates(a, required)
	} else {
		candidates, err = r.concreteCandidates(a, required)
	}
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return res, nil
	}

	chosen, err := r.selectBest(candidates)
	if err != nil {
		return nil, err
	}
	res.Hit = true
	res.ObjectID = chosen
	res.Instances = instances
	return res, nil
}

func (r *Resolver) concreteCandidates(a *artifact.Artifact, required gitrepo.ObjectID) (map[gitrepo.ObjectID]struct{}, error) {
	keys, err := r.Store.ListEntries(a.Name, false)
	if err != nil {
		return nil, err
	}
	ids := make([]gitrepo.ObjectID, len(keys))
	for i, k := range keys {
		ids[i] = k.ID
	}
	return r.candidatesAmong(a, required, ids)
}

// patternCandidates implements Step 3 for pattern artifacts: candidates are
// computed independently per concrete instance found in the cache and
// intersected, returning as soon as the running intersection is empty.
func (r *Resolver) patternCandidates(a *artifact.Artifact, required gitrepo.ObjectID) (map[gitrepo.ObjectID]struct{}, []string, error) {
	keys, err := r.Store.ListEntries(a.Name, true)
	if err != nil {
		return nil, nil, err
	}
	byInstance := map[string][]gitrepo.ObjectID{}
	for _, k := range keys {
		byInstance[k.Instance] = append(byInstance[k.Instance], k.ID)
	}
	if len(byInstance) == 0 {
		return nil, nil, nil
	}
	instances := make([]string, 0, len(byInstance))
	for inst := range byInstance {
		instances = append(instances, inst)
	}
	sort.Strings(instances)

	var intersection map[gitrepo.ObjectID]struct{}
	for i, inst := range instances {
		cset, err := r.candidatesAmong(a, required, byInstance[inst])
		if err != nil {
			return nil, nil, err
		}
		if i == 0 {
			intersection = cset
		} else {
			for id := range intersection {
				if _, ok := cset[id]; !ok {
					delete(intersection, id)
				}
			}
		}
		if len(intersection) == 0 {
			// No premature full enumeration: stop consulting remaining
			// instances' caches (spec §8 invariant 5).
			return nil, nil, nil
		}
	}
	return intersection, instances, nil
}

// candidatesAmong implements Step 2: a cached object id c is a candidate
// iff it is an ancestor of required with unchanged inputs (an "ancestor
// candidate", which also covers c == required) or a descendant of required
// with unchanged inputs (a "descendant candidate").
func (r *Resolver) candidatesAmong(a *artifact.Artifact, required gitrepo.ObjectID, ids []gitrepo.ObjectID) (map[gitrepo.ObjectID]struct{}, error) {
	out := map[gitrepo.ObjectID]struct{}{}
	for _, c := range ids {
		isAnc, err := r.Repo.IsAncestor(c, required)
		if err != nil {
			return nil, err
		}
		if isAnc {
			changed, err := r.Repo.Changed(c, required, a.Inputs)
			if err != nil {
				return nil, err
			}
			if !changed {
				out[c] = struct{}{}
				continue
			}
		}
		isDesc, err := r.Repo.IsAncestor(required, c)
		if err != nil {
			return nil, err
		}
		if isDesc {
			changed, err := r.Repo.Changed(required, c, a.Inputs)
			if err != nil {
				return nil, err
			}
			if !changed {
				out[c] = struct{}{}
			}
		}
	}
	return out, nil
}

// selectBest implements Step 4: prefer the oldest common descendant of the
// candidates on the current branch; fall back to the overall youngest,
// surfacing Incomparable if the candidates are pairwise incomparable.
func (r *Resolver) selectBest(candidates map[gitrepo.ObjectID]struct{}) (gitrepo.ObjectID, error) {
	ids := make([]gitrepo.ObjectID, 0, len(candidates))
	for id := range candidates {
		ids = append(ids, id)
	}
	chosen, ok, err := r.Repo.OldestCommonDescendantOnCurrentBranch(ids)
	if err != nil {
		return "", err
	}
	if ok {
		return chosen, nil
	}
	return r.Repo.Youngest(ids)
}
