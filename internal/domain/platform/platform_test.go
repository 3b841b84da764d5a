package platform

import (
	"context"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestNormalize checks mapping of Go identifiers to rule vocabulary.
func TestNormalize(t *testing.T) {
	t.Parallel()

	require.Equal(t, OSX, NormalizeOS("darwin"))
	require.Equal(t, OSLinux, NormalizeOS("linux"))
	require.Equal(t, OSWindows, NormalizeOS("windows"))
	require.Equal(t, "plan9", NormalizeOS("plan9"))

	require.Equal(t, ArchX86_64, NormalizeArch("amd64"))
	require.Equal(t, ArchX86, NormalizeArch("386"))
	require.Equal(t, ArchARM64, NormalizeArch("arm64"))
	require.Equal(t, "riscv64", NormalizeArch("riscv64"))
}

// TestContext_Bitness covers the ${arch} replacement values.
func TestContext_Bitness(t *testing.T) {
	t.Parallel()

	require.Equal(t, "64", Context{Arch: ArchX86_64}.Bitness())
	require.Equal(t, "64", Context{Arch: ArchARM64}.Bitness())
	require.Equal(t, "32", Context{Arch: ArchX86}.Bitness())
}

// TestContext_WithFeatures ensures the original map is not modified.
func TestContext_WithFeatures(t *testing.T) {
	t.Parallel()

	base := Context{OS: OSLinux, Features: map[string]bool{"is_demo_user": true}}
	merged := base.WithFeatures(map[string]bool{"has_custom_resolution": true})

	require.True(t, merged.Feature("is_demo_user"))
	require.True(t, merged.Feature("has_custom_resolution"))
	require.False(t, merged.Feature("missing"))
	require.False(t, base.Feature("has_custom_resolution"))
}

// TestDetect reports the running machine in rule vocabulary.
func TestDetect(t *testing.T) {
	t.Parallel()

	got, err := Detect(context.Background(), map[string]bool{"x": true})
	require.NoError(t, err)
	require.Equal(t, NormalizeOS(runtime.GOOS), got.OS)
	require.Equal(t, NormalizeArch(runtime.GOARCH), got.Arch)
	require.True(t, got.Feature("x"))
}

// TestDetect_Cancelled surfaces cancellation when OS information lookup fails.
func TestDetect_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := Detect(ctx, nil)
	if err != nil {
		require.ErrorIs(t, err, context.Canceled)

		return
	}

	// Some platforms answer without consulting the context.
	require.Equal(t, NormalizeOS(runtime.GOOS), got.OS)
}
