// Package gitutil locates the surrounding Git repository and installs the
// hooks and merge driver Pearls needs. Directory resolution is
// worktree-aware: it shells out to `git rev-parse` rather than assuming
// `.git` is a plain directory.
package gitutil

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/mrorigo/pearls/internal/errs"
)

// GitDir returns the actual .git directory for the current repository,
// worktree-aware: in a worktree, .git is a file pointing elsewhere, so we
// defer to git itself instead of assuming a plain directory layout.
func GitDir() (string, error) {
	out, err := exec.Command("git", "rev-parse", "--git-dir").Output()
	if err != nil {
		return "", errs.Wrap(errs.Vcs, err, "not a git repository")
	}
	return strings.TrimSpace(string(out)), nil
}

// HooksDir returns the Git hooks directory for the current repository.
func HooksDir() (string, error) {
	dir, err := GitDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "hooks"), nil
}

// Toplevel returns the working tree root of the current repository.
func Toplevel() (string, error) {
	out, err := exec.Command("git", "rev-parse", "--show-toplevel").Output()
	if err != nil {
		return "", errs.Wrap(errs.Vcs, err, "not a git repository")
	}
	return strings.TrimSpace(string(out)), nil
}

// IsWorktree reports whether the current directory is a linked worktree
// rather than the main checkout, by comparing --git-dir and
// --git-common-dir.
func IsWorktree() bool {
	gitDir := quietGitDir("--git-dir")
	commonDir := quietGitDir("--git-common-dir")
	if gitDir == "" || commonDir == "" {
		return false
	}
	absGit, err1 := filepath.Abs(gitDir)
	absCommon, err2 := filepath.Abs(commonDir)
	if err1 != nil || err2 != nil {
		return false
	}
	return absGit != absCommon
}

func quietGitDir(flag string) string {
	out, err := exec.Command("git", "rev-parse", flag).Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

// SetMergeDriver registers the pearls merge driver for the active store in
// .git/config, pointing it at the given command (typically the pearls
// binary invoked with `merge %O %A %B %L`). The caller is still
// responsible for adding the corresponding AttributesLine entries to
// .gitattributes.
func SetMergeDriver(command string) error {
	steps := [][]string{
		{"config", "merge.pearls.name", "pearls semantic JSONL merge driver"},
		{"config", "merge.pearls.driver", command},
	}
	for _, args := range steps {
		if err := exec.Command("git", args...).Run(); err != nil {
			return errs.Wrap(errs.Vcs, err, "git %s", strings.Join(args, " "))
		}
	}
	return nil
}

// AttributesLine holds the .gitattributes entries that route the active
// store and the archive through the pearls merge driver.
const AttributesLine = ".pearls/issues.jsonl merge=pearls -diff\n.pearls/archive.jsonl merge=pearls -diff"

// HookScript returns the shell script body for a hook that re-invokes the
// calling binary's own hook subcommand, the way a git hook installed by a
// CLI tool typically delegates back into that tool rather than duplicating
// logic in shell.
func HookScript(binary, subcommand string) string {
	return fmt.Sprintf("#!/bin/sh\nexec %s hooks run %s \"$@\"\n", binary, subcommand)
}
