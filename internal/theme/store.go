package theme

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const themeRelPath = ".agentops/theme.json"

func FilePath(repoRoot string) string {
	return filepath.Join(repoRoot, filepath.FromSlash(themeRelPath))
}

// Load reads the saved theme for a repository, falling back to Light when
// none has been saved.
func Load(repoRoot string) (Theme, error) {
	path := FilePath(repoRoot)
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Light, nil
		}
		return Theme{}, fmt.Errorf("read %s: %w", path, err)
	}
	t, err := Import(raw)
	if err != nil {
		return Theme{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return t, nil
}

func Save(repoRoot string, t Theme) error {
	raw, err := Export(t)
	if err != nil {
		return err
	}

	path := FilePath(repoRoot)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir theme dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write theme: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace theme: %w", err)
	}
	return nil
}
