// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ops

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maruel/memora/internal/artifact"
	"github.com/maruel/memora/internal/gitrepo"
	"github.com/maruel/memora/internal/manifest"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func newManifest(work string, artifacts ...*artifact.Artifact) *manifest.Manifest {
	m := &manifest.Manifest{
		Path:         "Memora.yml",
		CacheRootDir: filepath.Join(work, ".cache"),
		Artifacts:    map[string]*artifact.Artifact{},
	}
	for _, a := range artifacts {
		m.Artifacts[a.Name] = a
	}
	return m
}

// TestS1HitOnEqualHead pins spec §8 S1: insert then get at the same HEAD.
func TestS1HitOnEqualHead(t *testing.T) {
	work := t.TempDir()
	writeFile(t, work, "a", "input-v1")
	writeFile(t, work, "build/a", "built-v1")

	repo := gitrepo.NewFakeRepo().SetRoot(work).
		Commit("c1", nil, "a", "build/a").
		SetHead("c1")
	a := &artifact.Artifact{Name: "x", Inputs: []string{"a"}, Outputs: []string{"build/a"}}
	o := Open(repo, newManifest(work, a))

	require.NoError(t, o.Insert("x"))

	status, err := o.Get("x")
	require.NoError(t, err)
	assert.Equal(t, Hit, status)

	got, err := os.ReadFile(filepath.Join(work, "build", "a"))
	require.NoError(t, err)
	assert.Equal(t, "built-v1", string(got))
}

// TestS2HitAcrossEquivalentRevision pins spec §8 S2.
func TestS2HitAcrossEquivalentRevision(t *testing.T) {
	work := t.TempDir()
	writeFile(t, work, "a", "input-v1")
	writeFile(t, work, "build/a", "built-v1")

	repo := gitrepo.NewFakeRepo().SetRoot(work).
		Commit("c1", nil, "a", "build/a").
		SetHead("c1")
	a := &artifact.Artifact{Name: "x", Inputs: []string{"a"}, Outputs: []string{"build/a"}}
	o := Open(repo, newManifest(work, a))
	require.NoError(t, o.Insert("x"))

	repo.Commit("c2", []gitrepo.ObjectID{"c1"}, "README.md").SetHead("c2")

	status, _, err := o.Lookup("x")
	require.NoError(t, err)
	assert.Equal(t, Hit, status)
}

// TestS3MissAfterInputChange pins spec §8 S3.
func TestS3MissAfterInputChange(t *testing.T) {
	work := t.TempDir()
	writeFile(t, work, "a", "input-v1")
	writeFile(t, work, "build/a", "built-v1")

	repo := gitrepo.NewFakeRepo().SetRoot(work).
		Commit("c1", nil, "a", "build/a").
		SetHead("c1")
	a := &artifact.Artifact{Name: "x", Inputs: []string{"a"}, Outputs: []string{"build/a"}}
	o := Open(repo, newManifest(work, a))
	require.NoError(t, o.Insert("x"))

	repo.Commit("c2", []gitrepo.ObjectID{"c1"}, "README.md").
		Commit("c3", []gitrepo.ObjectID{"c2"}, "a").
		SetHead("c3")

	status, err := o.Get("x")
	require.NoError(t, err)
	assert.Equal(t, Miss, status)
}

// TestS4PatternArtifact pins spec §8 S4.
func TestS4PatternArtifact(t *testing.T) {
	work := t.TempDir()
	writeFile(t, work, "src", "source-v1")
	writeFile(t, work, "out/alpha.bin", "alpha-payload")
	writeFile(t, work, "out/beta.bin", "beta-payload")

	repo := gitrepo.NewFakeRepo().SetRoot(work).
		Commit("c1", nil, "src", "out/alpha.bin", "out/beta.bin").
		SetHead("c1")
	a := &artifact.Artifact{Name: "y", Inputs: []string{"src"}, Outputs: []string{"out/{}.bin"}}
	o := Open(repo, newManifest(work, a))

	require.NoError(t, o.Insert("y"))

	entries, err := o.List("y")
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	// Wipe the working tree copies, then get restores both.
	require.NoError(t, os.RemoveAll(filepath.Join(work, "out")))
	status, err := o.Get("y")
	require.NoError(t, err)
	assert.Equal(t, Hit, status)

	got, err := os.ReadFile(filepath.Join(work, "out", "alpha.bin"))
	require.NoError(t, err)
	assert.Equal(t, "alpha-payload", string(got))
	got, err = os.ReadFile(filepath.Join(work, "out", "beta.bin"))
	require.NoError(t, err)
	assert.Equal(t, "beta-payload", string(got))
}

func TestInsertIdempotentNoOp(t *testing.T) {
	work := t.TempDir()
	writeFile(t, work, "a", "input-v1")
	writeFile(t, work, "build/a", "built-v1")
	repo := gitrepo.NewFakeRepo().SetRoot(work).
		Commit("c1", nil, "a", "build/a").
		SetHead("c1")
	a := &artifact.Artifact{Name: "x", Inputs: []string{"a"}, Outputs: []string{"build/a"}}
	o := Open(repo, newManifest(work, a))

	require.NoError(t, o.Insert("x"))
	require.NoError(t, o.Insert("x"))
}

func TestInsertRefusedWhenInputNeverCommitted(t *testing.T) {
	work := t.TempDir()
	repo := gitrepo.NewFakeRepo().SetRoot(work).
		Commit("c1", nil, "other").
		SetHead("c1")
	a := &artifact.Artifact{Name: "x", Inputs: []string{"a"}, Outputs: []string{"build/a"}}
	o := Open(repo, newManifest(work, a))

	err := o.Insert("x")
	assert.Error(t, err)
}

func TestDisabledShortCircuits(t *testing.T) {
	work := t.TempDir()
	writeFile(t, work, "a", "input-v1")
	writeFile(t, work, "build/a", "built-v1")
	repo := gitrepo.NewFakeRepo().SetRoot(work).
		Commit("c1", nil, "a", "build/a").
		SetHead("c1")
	a := &artifact.Artifact{Name: "x", Inputs: []string{"a"}, Outputs: []string{"build/a"}}
	m := newManifest(work, a)
	m.DisableEnvVar = "MEMORA_DISABLE"
	t.Setenv("MEMORA_DISABLE", "1")
	o := Open(repo, m)

	require.NoError(t, o.Insert("x"))
	has, err := o.Store.HasEntry("x", "", "c1")
	require.NoError(t, err)
	assert.False(t, has, "insert must be a no-op while disabled")

	status, err := o.Get("x")
	require.NoError(t, err)
	assert.Equal(t, Miss, status)

	status, _, err = o.Lookup("x")
	require.NoError(t, err)
	assert.Equal(t, Miss, status)
}
