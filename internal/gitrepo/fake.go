// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package gitrepo

import "github.com/maruel/memora/internal/memoraerr"

var _ Repo = (*FakeRepo)(nil)

// FakeRepo is a deterministic, in-memory Repo used to exercise the
// resolver's properties (spec §8) without a real checkout — the repo facade
// is modeled as an interface for exactly this purpose (spec §9, Design
// Notes: "Repo facade abstraction").
//
// A FakeRepo is built commit by commit: each commit names its parents (first
// parent first, for first-parent-history purposes) and the paths it
// changed. Diff/LastCommitOnPath are answered by finding, for a given
// descendant commit, the nearest ancestor (inclusive) that changed the path.
type FakeRepo struct {
	root    string
	head    ObjectID
	parents map[ObjectID][]ObjectID
	changes map[ObjectID]map[string]bool
	order   []ObjectID // insertion order, oldest first
}

// NewFakeRepo creates an empty fake rooted at "/fake".
func NewFakeRepo() *FakeRepo {
	return &FakeRepo{
		root:    "/fake",
		parents: map[ObjectID][]ObjectID{},
		changes: map[ObjectID]map[string]bool{},
	}
}

// Commit records a commit with the given parents (may be empty for a root
// commit) and the paths it changed. Returns the FakeRepo for chaining.
func (f *FakeRepo) Commit(id ObjectID, parents []ObjectID, changedPaths ...string) *FakeRepo {
	f.parents[id] = parents
	set := make(map[string]bool, len(changedPaths))
	for _, p := range changedPaths {
		set[p] = true
	}
	f.changes[id] = set
	f.order = append(f.order, id)
	return f
}

// SetHead sets the current HEAD commit.
func (f *FakeRepo) SetHead(id ObjectID) *FakeRepo {
	f.head = id
	return f
}

// SetRoot overrides the working-tree root, so tests can point a FakeRepo at
// a real temp directory holding files to copy into/out of the cache.
func (f *FakeRepo) SetRoot(root string) *FakeRepo {
	f.root = root
	return f
}

func (f *FakeRepo) Root() string { return f.root }

func (f *FakeRepo) Head() (ObjectID, error) {
	if f.head == "" {
		return "", memoraerr.New(memoraerr.Git, "fake repo has no HEAD set")
	}
	return f.head, nil
}

func (f *FakeRepo) Resolve(revSpec string) (ObjectID, error) {
	if revSpec == "HEAD" {
		return f.Head()
	}
	if _, ok := f.parents[ObjectID(revSpec)]; ok {
		return ObjectID(revSpec), nil
	}
	return "", memoraerr.New(memoraerr.Git, "fake repo: unknown rev-spec %q", revSpec)
}

func (f *FakeRepo) Diff(a, b ObjectID, path string) (bool, error) {
	ca, _ := f.changerOf(a, path)
	cb, _ := f.changerOf(b, path)
	return ca != cb, nil
}

func (f *FakeRepo) Changed(a, b ObjectID, paths []string) (bool, error) {
	for _, p := range paths {
		d, _ := f.Diff(a, b, p)
		if d {
			return true, nil
		}
	}
	return false, nil
}

func (f *FakeRepo) IsAncestor(a, b ObjectID) (bool, error) {
	if a == b {
		return true, nil
	}
	_, ok := f.ancestorsOf(b)[a]
	return ok, nil
}

func (f *FakeRepo) firstParentChain() []ObjectID {
	var chain []ObjectID
	c := f.head
	for c != "" {
		chain = append(chain, c)
		parents := f.parents[c]
		if len(parents) == 0 {
			break
		}
		c = parents[0]
	}
	return chain
}

func (f *FakeRepo) AncestorsOnCurrentBranch(o ObjectID) (map[ObjectID]struct{}, error) {
	out := map[ObjectID]struct{}{}
	for _, c := range f.firstParentChain() {
		if ok, _ := f.IsAncestor(c, o); ok {
			out[c] = struct{}{}
		}
	}
	return out, nil
}

func (f *FakeRepo) DescendantsOnCurrentBranch(o ObjectID) (map[ObjectID]struct{}, error) {
	if ok, _ := f.IsAncestor(o, f.head); !ok {
		return map[ObjectID]struct{}{}, nil
	}
	out := map[ObjectID]struct{}{}
	for _, c := range f.firstParentChain() {
		if ok, _ := f.IsAncestor(o, c); ok {
			out[c] = struct{}{}
		}
	}
	return out, nil
}

func (f *FakeRepo) LastCommitOnPath(path string, from ObjectID) (ObjectID, bool, error) {
	id, ok := f.changerOf(from, path)
	return id, ok, nil
}

func (f *FakeRepo) Youngest(objects []ObjectID) (ObjectID, error) {
	return selectExtreme(objects, f.IsAncestor)
}

func (f *FakeRepo) Oldest(objects []ObjectID) (ObjectID, error) {
	flipped := func(a, b ObjectID) (bool, error) { return f.IsAncestor(b, a) }
	return selectExtreme(objects, flipped)
}

func (f *FakeRepo) OldestCommonDescendantOnCurrentBranch(objects []ObjectID) (ObjectID, bool, error) {
	return oldestCommonDescendant(objects, f.DescendantsOnCurrentBranch, f.Oldest)
}

func (f *FakeRepo) ancestorsOf(b ObjectID) map[ObjectID]struct{} {
	seen := map[ObjectID]struct{}{}
	var walk func(ObjectID)
	walk = func(c ObjectID) {
		if _, ok := seen[c]; ok {
			return
		}
		seen[c] = struct{}{}
		for _, p := range f.parents[c] {
			walk(p)
		}
	}
	walk(b)
	return seen
}

func (f *FakeRepo) changerOf(c ObjectID, path string) (ObjectID, bool) {
	var changers []ObjectID
	for anc := range f.ancestorsOf(c) {
		if f.changes[anc][path] {
			changers = append(changers, anc)
		}
	}
	if len(changers) == 0 {
		return "", false
	}
	if len(changers) == 1 {
		return changers[0], true
	}
	for _, cand := range changers {
		isMax := true
		for _, other := range changers {
			if other == cand {
				continue
			}
			anc := f.ancestorsOf(cand)
			if _, ok := anc[other]; !ok {
				isMax = false
				break
			}
		}
		if isMax {
			return cand, true
		}
	}
	return changers[len(changers)-1], true
}
