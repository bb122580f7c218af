// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package gitrepo

import (
	"testing"

	"github.com/maruel/memora/internal/memoraerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Linear history: C1 -> C2 -> C3, each touching one path.
func linearRepo() *FakeRepo {
	r := NewFakeRepo()
	r.Commit("C1", nil, "a")
	r.Commit("C2", []ObjectID{"C1"}, "README.md")
	r.Commit("C3", []ObjectID{"C2"}, "a")
	r.SetHead("C3")
	return r
}

func TestLinearAncestry(t *testing.T) {
	r := linearRepo()
	ok, err := r.IsAncestor("C1", "C3")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.IsAncestor("C3", "C1")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = r.IsAncestor("C2", "C2")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLastCommitOnPath(t *testing.T) {
	r := linearRepo()
	id, ok, err := r.LastCommitOnPath("a", "C3")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, ObjectID("C3"), id)

	id, ok, err = r.LastCommitOnPath("a", "C2")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, ObjectID("C1"), id)

	_, ok, err = r.LastCommitOnPath("never-committed", "C3")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDiffAndChanged(t *testing.T) {
	r := linearRepo()
	d, err := r.Diff("C1", "C2", "a")
	require.NoError(t, err)
	assert.False(t, d, "README.md commit must not change a")

	d, err = r.Diff("C2", "C3", "a")
	require.NoError(t, err)
	assert.True(t, d)

	changed, err := r.Changed("C1", "C2", []string{"a", "b"})
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestYoungestOldestLinear(t *testing.T) {
	r := linearRepo()
	y, err := r.Youngest([]ObjectID{"C1", "C2", "C3"})
	require.NoError(t, err)
	assert.Equal(t, ObjectID("C3"), y)

	o, err := r.Oldest([]ObjectID{"C1", "C2", "C3"})
	require.NoError(t, err)
	assert.Equal(t, ObjectID("C1"), o)

	single, err := r.Youngest([]ObjectID{"C2"})
	require.NoError(t, err)
	assert.Equal(t, ObjectID("C2"), single)
}

func TestYoungestDiverged(t *testing.T) {
	r := NewFakeRepo()
	r.Commit("base", nil, "a")
	r.Commit("left", []ObjectID{"base"}, "left.txt")
	r.Commit("right", []ObjectID{"base"}, "right.txt")
	r.SetHead("left")

	_, err := r.Youngest([]ObjectID{"left", "right"})
	require.Error(t, err)
	assert.Equal(t, memoraerr.Incomparable, memoraerr.KindOf(err))
}

func TestAncestorsAndDescendantsOnCurrentBranch(t *testing.T) {
	r := linearRepo()
	anc, err := r.AncestorsOnCurrentBranch("C2")
	require.NoError(t, err)
	assert.Equal(t, map[ObjectID]struct{}{"C1": {}, "C2": {}}, anc)

	desc, err := r.DescendantsOnCurrentBranch("C1")
	require.NoError(t, err)
	assert.Equal(t, map[ObjectID]struct{}{"C1": {}, "C2": {}, "C3": {}}, desc)

	// Off-branch object (not an ancestor of HEAD) has no descendants on it.
	r2 := NewFakeRepo()
	r2.Commit("base", nil, "a")
	r2.Commit("other", []ObjectID{"base"}, "b")
	r2.Commit("head", []ObjectID{"base"}, "c")
	r2.SetHead("head")
	desc, err = r2.DescendantsOnCurrentBranch("other")
	require.NoError(t, err)
	assert.Empty(t, desc)
}

func TestOldestCommonDescendantOnCurrentBranch(t *testing.T) {
	r := linearRepo()
	id, ok, err := r.OldestCommonDescendantOnCurrentBranch([]ObjectID{"C1", "C2"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, ObjectID("C2"), id)

	// No common descendant on current branch.
	r2 := NewFakeRepo()
	r2.Commit("base", nil, "a")
	r2.Commit("left", []ObjectID{"base"}, "l")
	r2.Commit("right", []ObjectID{"base"}, "r")
	r2.SetHead("left")
	_, ok, err = r2.OldestCommonDescendantOnCurrentBranch([]ObjectID{"left", "right"})
	require.NoError(t, err)
	assert.False(t, ok)
}
