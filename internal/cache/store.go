// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package cache implements the Cache Store (spec §4.3): the filesystem
// layout for cached artifact entries, concurrency-safe insert/retrieve via
// advisory record locks (spec §5), and verbatim symlink-safe copying.
package cache

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"github.com/maruel/memora/internal/gitrepo"
	"github.com/maruel/memora/internal/logging"
	"github.com/maruel/memora/internal/memoraerr"
)

// EntryKey identifies one cache entry. Instance is empty for concrete
// artifacts.
type EntryKey struct {
	Instance string
	ID       gitrepo.ObjectID
}

// Store is the filesystem-backed cache rooted at CacheRootDir (spec §3).
type Store struct {
	Root string
}

// New returns a Store rooted at root. root need not exist yet: Store creates
// it, together with the artifact-scoped subdirectories it needs, on demand.
func New(root string) *Store {
	return &Store{Root: root}
}

func (s *Store) entryDir(artifactName, instance string, id gitrepo.ObjectID) string {
	if instance == "" {
		return filepath.Join(s.Root, artifactName, string(id))
	}
	return filepath.Join(s.Root, artifactName, instance, string(id))
}

func lockPathFor(entryDir string) string {
	return entryDir + ".lock"
}

// withLock acquires a blocking advisory record lock on the entry's
// lockfile and runs fn, releasing the lock on every exit path — including a
// panic unwinding through fn, since the deferred Unlock still runs during
// stack unwinding.
func withLock(entryDir string, exclusive bool, fn func() error) error {
	lockPath := lockPathFor(entryDir)
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return memoraerr.Wrap(memoraerr.IO, err, "creating parent of lockfile %s", lockPath)
	}
	fl := flock.New(lockPath)
	var err error
	if exclusive {
		err = fl.Lock()
	} else {
		err = fl.RLock()
	}
	if err != nil {
		return memoraerr.Wrap(memoraerr.IO, err, "locking %s", lockPath)
	}
	defer func() {
		if uerr := fl.Unlock(); uerr != nil {
			logging.L.Warnf("failed to release lock %s: %v", lockPath, uerr)
		}
	}()
	return fn()
}

// HasEntry reports whether a readable entry exists for the given key.
func (s *Store) HasEntry(artifactName, instance string, id gitrepo.ObjectID) (bool, error) {
	dir := s.entryDir(artifactName, instance, id)
	var exists bool
	err := withLock(dir, false, func() error {
		info, statErr := os.Stat(dir)
		exists = statErr == nil && info.IsDir()
		return nil
	})
	return exists, err
}

// ListEntries enumerates every entry under artifactName. isPattern controls
// whether one (concrete) or two (instance, object id) directory levels are
// expected (spec §3/§4.3).
func (s *Store) ListEntries(artifactName string, isPattern bool) ([]EntryKey, error) {
	base := filepath.Join(s.Root, artifactName)
	top, err := os.ReadDir(base)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, memoraerr.Wrap(memoraerr.IO, err, "listing %s", base)
	}

	var out []EntryKey
	if !isPattern {
		for _, e := range top {
			if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
				continue
			}
			out = append(out, EntryKey{ID: gitrepo.ObjectID(e.Name())})
		}
		return out, nil
	}

	for _, inst := range top {
		if !inst.IsDir() || strings.HasPrefix(inst.Name(), ".") {
			continue
		}
		sub, err := os.ReadDir(filepath.Join(base, inst.Name()))
		if err != nil {
			continue
		}
		for _, e := range sub {
			if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
				continue
			}
			out = append(out, EntryKey{Instance: inst.Name(), ID: gitrepo.ObjectID(e.Name())})
		}
	}
	return out, nil
}

// InsertEntry atomically deposits outputs (logical repo-relative path ->
// absolute source path on disk) under the entry for (artifactName,
// instance, id). If the entry already exists, InsertEntry is a no-op and
// returns success, per spec §4.3/§8 invariant 2 (idempotence of insert).
func (s *Store) InsertEntry(artifactName, instance string, id gitrepo.ObjectID, outputs map[string]string) error {
	dir := s.entryDir(artifactName, instance, id)
	return withLock(dir, true, func() error {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			logging.L.Debugf("InsertEntry(%s, %s, %s): already present, skipping", artifactName, instance, id)
			return nil
		}
		parent := filepath.Dir(dir)
		if err := os.MkdirAll(parent, 0o755); err != nil {
			return memoraerr.Wrap(memoraerr.IO, err, "creating %s", parent)
		}
		staging, err := os.MkdirTemp(parent, ".tmp-")
		if err != nil {
			return memoraerr.Wrap(memoraerr.IO, err, "staging directory under %s", parent)
		}
		// Remove a failed or abandoned staging directory; it is harmless
		// reference data otherwise, but keep insert's failure path clean.
		succeeded := false
		defer func() {
			if !succeeded {
				_ = os.RemoveAll(staging)
			}
		}()

		for logicalPath, srcPath := range outputs {
			dst := filepath.Join(staging, filepath.FromSlash(logicalPath))
			if err := copyTree(srcPath, dst); err != nil {
				return memoraerr.Wrap(memoraerr.IO, err, "copying output %s into cache entry", logicalPath)
			}
		}

		if err := os.Rename(staging, dir); err != nil {
			return memoraerr.Wrap(memoraerr.IO, err, "renaming staged entry into place at %s", dir)
		}
		succeeded = true
		return nil
	})
}

// RetrieveEntry copies the cached outputs of (artifactName, instance, id)
// to the given destination paths (logical repo-relative path -> absolute
// destination path). Fails if the entry is missing.
func (s *Store) RetrieveEntry(artifactName, instance string, id gitrepo.ObjectID, outputs map[string]string) error {
	dir := s.entryDir(artifactName, instance, id)
	return withLock(dir, false, func() error {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			return memoraerr.New(memoraerr.IO, "cache entry %s missing", dir)
		}
		for logicalPath, dstPath := range outputs {
			src := filepath.Join(dir, filepath.FromSlash(logicalPath))
			if err := copyTree(src, dstPath); err != nil {
				return memoraerr.Wrap(memoraerr.IO, err, "restoring output %s from cache entry", logicalPath)
			}
		}
		return nil
	})
}
