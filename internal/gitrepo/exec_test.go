// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package gitrepo

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// initRepo is the teacher's setup() helper (scm/repo_test.go) translated to
// testify: "git init" plus the user.email/user.name config a commit needs.
func initRepo(t *testing.T, dir string) {
	t.Helper()
	runGit(t, dir, "init")
	runGit(t, dir, "config", "user.email", "nobody@localhost")
	runGit(t, dir, "config", "user.name", "nobody")
}

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	c := exec.Command("git", args...)
	c.Dir = dir
	out, err := c.CombinedOutput()
	require.NoErrorf(t, err, "git %v: %s", args, out)
}

// TestOpenGitSlow is the teacher's TestGetRepoGitSlow (scm/repo_test.go),
// which asserts Root() against a real checkout — precisely the check that
// would have caught captureAbs failing to resolve "--show-cdup"'s relative
// output to an absolute path.
func TestOpenGitSlow(t *testing.T) {
	tmpDir := t.TempDir()
	initRepo(t, tmpDir)
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "file1"), []byte("hi\n"), 0o644))
	runGit(t, tmpDir, "add", "file1")
	runGit(t, tmpDir, "commit", "-m", "initial")

	r, err := Open(tmpDir)
	require.NoError(t, err)
	require.Equal(t, tmpDir, r.Root())

	head, err := r.Head()
	require.NoError(t, err)
	require.False(t, head.IsZero())
}

// TestOpenGitSlowFromSubdir opens from a subdirectory of the checkout:
// "--show-cdup" then prints a relative "../" that must be joined back
// against the subdirectory, not returned verbatim.
func TestOpenGitSlowFromSubdir(t *testing.T) {
	tmpDir := t.TempDir()
	initRepo(t, tmpDir)
	sub := filepath.Join(tmpDir, "a", "b")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "file1"), []byte("hi\n"), 0o644))
	runGit(t, tmpDir, "add", "a/b/file1")
	runGit(t, tmpDir, "commit", "-m", "initial")

	r, err := Open(sub)
	require.NoError(t, err)
	require.Equal(t, tmpDir, r.Root())
}
