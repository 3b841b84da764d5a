package resource

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestNew_NormalisesHash ensures descriptors always carry lowercase hashes.
func TestNew_NormalisesHash(t *testing.T) {
	t.Parallel()

	d := New(KindLibrary, "https://x/lib.jar", " ABCDEF0123 ", 42, "/tmp/lib.jar")
	require.Equal(t, "abcdef0123", d.Hash)
	require.Equal(t, "library", d.Kind.String())
	require.False(t, d.IsAsset())
	require.True(t, New(KindAssetObject, "", "", 0, "").IsAsset())
}

// TestLayout_AssetPaths checks hashed and legacy asset path derivation.
func TestLayout_AssetPaths(t *testing.T) {
	t.Parallel()

	layout, err := NewLayout(t.TempDir())
	require.NoError(t, err)

	hashed, err := layout.AssetObject("abc123def")
	require.NoError(t, err)
	require.Equal(t, filepath.Join("objects", "ab", "abc123def"), rel(t, filepath.Join(layout.AssetsDir()), hashed))

	legacy, err := layout.LegacyAsset("sound/x.ogg")
	require.NoError(t, err)
	require.Equal(t, filepath.Join("virtual", "legacy", "sound", "x.ogg"), rel(t, layout.AssetsDir(), legacy))

	_, err = layout.AssetObject("a")
	require.ErrorIs(t, err, ErrParse)

	_, err = layout.AssetObject("../etc")
	require.ErrorIs(t, err, ErrParse)
}

// TestLayout_RejectsEscapes guards against paths that leave the layout root.
func TestLayout_RejectsEscapes(t *testing.T) {
	t.Parallel()

	layout, err := NewLayout(t.TempDir())
	require.NoError(t, err)

	for _, bad := range []string{"", "../evil.jar", "a/../../evil.jar", "/etc/passwd"} {
		_, err := layout.Library(bad)
		require.ErrorIs(t, err, ErrParse, bad)
	}

	ok, err := layout.Library("org/lwjgl/lwjgl/3.3.1/lwjgl-3.3.1.jar")
	require.NoError(t, err)
	require.True(t, filepath.IsAbs(ok))
}

// TestLayout_IsAbsolute verifies a relative root is resolved.
func TestLayout_IsAbsolute(t *testing.T) {
	t.Parallel()

	layout, err := NewLayout("game")
	require.NoError(t, err)
	require.True(t, filepath.IsAbs(layout.Root()))
	require.Equal(t, filepath.Join(layout.Root(), "versions", "1.20", "client.jar"), layout.ClientBinary("1.20"))
	require.Equal(t, filepath.Join(layout.Root(), "versions", "1.20", "1.20.json"), layout.VersionDocument("1.20"))
	require.Equal(t, filepath.Join(layout.Root(), "assets", "indexes", "5.json"), layout.AssetIndex("5"))
}

// TestEntryError_Unwrap keeps sentinels reachable through the entry error.
func TestEntryError_Unwrap(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("sync: %w", &EntryError{
		Descriptor: New(KindClientBinary, "", "", 0, "/g/client.jar"),
		Stage:      StageFetch,
		Err:        fmt.Errorf("%w: status 503", ErrTransport),
	})

	require.ErrorIs(t, err, ErrTransport)

	var entryErr *EntryError
	require.True(t, errors.As(err, &entryErr))
	require.Equal(t, StageFetch, entryErr.Stage)
	require.Contains(t, err.Error(), "fetch client /g/client.jar")
}

func TestTotalSize(t *testing.T) {
	t.Parallel()

	require.EqualValues(t, 30, TotalSize([]Descriptor{{Size: 10}, {Size: 20}}))
}

func rel(t *testing.T, base, target string) string {
	t.Helper()

	r, err := filepath.Rel(base, target)
	require.NoError(t, err)

	return r
}
