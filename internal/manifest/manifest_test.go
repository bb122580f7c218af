// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
cache_root_dir: .cache
artifacts:
  x:
    inputs: [a]
    outputs: [build/a]
  y:
    inputs: [src]
    outputs: [out/{}.bin]
`

func writeManifest(t *testing.T, dir, rel, content string) {
	t.Helper()
	full := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestLocateSearchOrder(t *testing.T) {
	dir := t.TempDir()
	_, err := Locate(dir)
	assert.Error(t, err)

	writeManifest(t, dir, ".gitlab-ci.d/Memora.yml", sample)
	rel, err := Locate(dir)
	require.NoError(t, err)
	assert.Equal(t, ".gitlab-ci.d/Memora.yml", rel)

	writeManifest(t, dir, ".ci/Memora.yml", sample)
	rel, err = Locate(dir)
	require.NoError(t, err)
	assert.Equal(t, ".ci/Memora.yml", rel)

	writeManifest(t, dir, "Memora.yml", sample)
	rel, err = Locate(dir)
	require.NoError(t, err)
	assert.Equal(t, "Memora.yml", rel)
}

func TestLoadImplicitInput(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "Memora.yml", sample)
	m, err := Load(dir, "Memora.yml")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ".cache"), m.CacheRootDir)

	x, err := m.Artifact("x")
	require.NoError(t, err)
	assert.Equal(t, []string{"Memora.yml", "a"}, x.Inputs)
	assert.False(t, x.IsPattern())

	y, err := m.Artifact("y")
	require.NoError(t, err)
	assert.True(t, y.IsPattern())

	_, err = m.Artifact("nope")
	assert.Error(t, err)
}

func TestDisabled(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "Memora.yml", sample+"disable_env_var: MEMORA_DISABLE\n")
	m, err := Load(dir, "Memora.yml")
	require.NoError(t, err)
	assert.False(t, m.Disabled())

	t.Setenv("MEMORA_DISABLE", "1")
	assert.True(t, m.Disabled())

	t.Setenv("MEMORA_DISABLE", "")
	assert.False(t, m.Disabled())
}

func TestLoadRejectsEmptyInputsOutputs(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "Memora.yml", `
cache_root_dir: .cache
artifacts:
  x:
    inputs: []
    outputs: [build/a]
`)
	_, err := Load(dir, "Memora.yml")
	assert.Error(t, err)
}
