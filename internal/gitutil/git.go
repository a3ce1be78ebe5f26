package gitutil

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// DetectRepoRoot returns the work tree root containing dir. When git is
// unavailable it walks up looking for a .git entry, and finally returns dir
// itself.
func DetectRepoRoot(ctx context.Context, dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("detect repo root: %w", err)
	}
	if out, err := runGit(ctx, abs, "rev-parse", "--show-toplevel"); err == nil {
		if root := strings.TrimSpace(out); root != "" {
			return root, nil
		}
	}

	for current := abs; ; {
		if _, err := os.Stat(filepath.Join(current, ".git")); err == nil {
			return current, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return abs, nil
		}
		current = parent
	}
}

// ChangedFiles lists paths with staged, unstaged or untracked changes,
// relative to the repo root.
func ChangedFiles(ctx context.Context, repoRoot string) ([]string, error) {
	out, err := runGit(ctx, repoRoot, "status", "--porcelain", "--untracked-files=all")
	if err != nil {
		return nil, fmt.Errorf("git status --porcelain: %w", err)
	}
	return parsePorcelain(out), nil
}

func parsePorcelain(out string) []string {
	files := map[string]struct{}{}
	for _, line := range strings.Split(out, "\n") {
		if len(line) < 4 {
			continue
		}
		path := strings.TrimSpace(line[3:])
		if _, renamed, ok := strings.Cut(path, " -> "); ok {
			path = renamed
		}
		path = strings.Trim(path, `"`)
		if path != "" {
			files[filepath.ToSlash(path)] = struct{}{}
		}
	}

	outFiles := make([]string, 0, len(files))
	for file := range files {
		outFiles = append(outFiles, file)
	}
	sort.Strings(outFiles)
	return outFiles
}

func runGit(ctx context.Context, repoRoot string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	if strings.TrimSpace(repoRoot) != "" {
		cmd.Dir = repoRoot
	}

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%w (stderr: %s)", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
