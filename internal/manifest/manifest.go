// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package manifest loads and validates Memora.yml, the YAML document
// declaring the cache root and the named artifacts, per spec §6. The
// schema mirrors the teacher's checks/config.go: a thin YAML-tagged struct
// decoded with gopkg.in/yaml.v3, then converted into validated domain
// types.
package manifest

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/maruel/memora/internal/artifact"
	"github.com/maruel/memora/internal/memoraerr"
)

// candidateLocations is the search order from spec §6: first found wins.
var candidateLocations = []string{
	"Memora.yml",
	".ci/Memora.yml",
	".gitlab-ci.d/Memora.yml",
}

// Manifest is the parsed, validated form of Memora.yml.
type Manifest struct {
	// Path is the repo-relative path the manifest was loaded from. It is an
	// implicit additional input of every artifact (spec §3).
	Path string
	// CacheRootDir is resolved to an absolute path: as-is if the YAML value
	// was absolute, else relative to the repo root.
	CacheRootDir string
	// DisableEnvVar, if non-empty, is an environment variable name that
	// short-circuits every operation when set to a non-empty value.
	DisableEnvVar string
	Artifacts     map[string]*artifact.Artifact
}

// yamlArtifact mirrors one entry of the "artifacts" map in Memora.yml.
type yamlArtifact struct {
	Inputs  []string `yaml:"inputs"`
	Outputs []string `yaml:"outputs"`
}

// yamlManifest is the raw decoded form of Memora.yml.
type yamlManifest struct {
	CacheRootDir  string                  `yaml:"cache_root_dir"`
	DisableEnvVar string                  `yaml:"disable_env_var"`
	Artifacts     map[string]yamlArtifact `yaml:"artifacts"`
}

// Locate searches repoRoot for a manifest in the order defined by spec §6
// and returns the repo-relative path of the first one found.
func Locate(repoRoot string) (string, error) {
	for _, rel := range candidateLocations {
		if _, err := os.Stat(filepath.Join(repoRoot, rel)); err == nil {
			return rel, nil
		}
	}
	return "", memoraerr.New(memoraerr.ManifestNotFound, "no manifest found in %s (tried %v)", repoRoot, candidateLocations)
}

// Load reads and validates the manifest at repoRoot/relPath.
func Load(repoRoot, relPath string) (*Manifest, error) {
	raw, err := os.ReadFile(filepath.Join(repoRoot, relPath))
	if err != nil {
		return nil, memoraerr.Wrap(memoraerr.ManifestNotFound, err, "reading manifest %s", relPath)
	}
	var y yamlManifest
	if err := yaml.Unmarshal(raw, &y); err != nil {
		return nil, memoraerr.Wrap(memoraerr.ManifestParse, err, "parsing manifest %s", relPath)
	}
	if y.CacheRootDir == "" {
		return nil, memoraerr.New(memoraerr.ManifestParse, "manifest %s: cache_root_dir is required", relPath)
	}
	if len(y.Artifacts) == 0 {
		return nil, memoraerr.New(memoraerr.ManifestParse, "manifest %s: artifacts must not be empty", relPath)
	}

	cacheRoot := y.CacheRootDir
	if !filepath.IsAbs(cacheRoot) {
		cacheRoot = filepath.Join(repoRoot, cacheRoot)
	}

	m := &Manifest{
		Path:          filepath.ToSlash(relPath),
		CacheRootDir:  cacheRoot,
		DisableEnvVar: y.DisableEnvVar,
		Artifacts:     make(map[string]*artifact.Artifact, len(y.Artifacts)),
	}
	for name, ya := range y.Artifacts {
		if name == "" {
			return nil, memoraerr.New(memoraerr.ManifestParse, "manifest %s: artifact names must not be empty", relPath)
		}
		// Checked before the implicit input is added, which would otherwise
		// make every declared input list non-empty.
		if len(ya.Inputs) == 0 {
			return nil, memoraerr.New(memoraerr.ManifestParse, "manifest %s: artifact %q: inputs must not be empty", relPath, name)
		}
		// The manifest's own path is an implicit additional input of every
		// artifact (spec §3), prepended so it sorts first in diagnostics.
		inputs := append([]string{m.Path}, ya.Inputs...)
		a := &artifact.Artifact{Name: name, Inputs: inputs, Outputs: append([]string(nil), ya.Outputs...)}
		if err := a.Validate(); err != nil {
			return nil, err
		}
		m.Artifacts[name] = a
	}
	return m, nil
}

// Disabled reports whether DisableEnvVar is declared and set to a
// non-empty value in the current environment (spec §4.5).
func (m *Manifest) Disabled() bool {
	if m.DisableEnvVar == "" {
		return false
	}
	return os.Getenv(m.DisableEnvVar) != ""
}

// Artifact looks up a declared artifact by name.
func (m *Manifest) Artifact(name string) (*artifact.Artifact, error) {
	a, ok := m.Artifacts[name]
	if !ok {
		return nil, memoraerr.New(memoraerr.ArtifactNotFound, "artifact %q not declared in %s", name, m.Path)
	}
	return a, nil
}
