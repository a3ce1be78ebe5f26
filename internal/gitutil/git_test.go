package gitutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectRepoRootWalksUpToGitDir(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))
	nested := filepath.Join(root, "src", "features", "auth")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	got, err := DetectRepoRoot(context.Background(), nested)
	require.NoError(t, err)

	want, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	gotResolved, err := filepath.EvalSymlinks(got)
	require.NoError(t, err)
	assert.Equal(t, want, gotResolved)
}

func TestParsePorcelain(t *testing.T) {
	out := " M src/features/auth/index.ts\n" +
		"?? src/widgets/header/ui/Header.tsx\n" +
		"R  src/old.ts -> src/shared/lib/new.ts\n" +
		"A  \"src/pages/with space.tsx\"\n" +
		" M src/features/auth/index.ts\n"

	assert.Equal(t, []string{
		"src/features/auth/index.ts",
		"src/pages/with space.tsx",
		"src/shared/lib/new.ts",
		"src/widgets/header/ui/Header.tsx",
	}, parsePorcelain(out))
}
