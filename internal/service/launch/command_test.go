package launch

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/mcsync/internal/domain/platform"
	"github.com/oshokin/mcsync/internal/domain/resource"
	"github.com/oshokin/mcsync/internal/metadata"
)

func loadVersion(t *testing.T, name string) *metadata.Version {
	t.Helper()

	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)

	v, err := metadata.ParseVersion(data)
	require.NoError(t, err)

	return v
}

func testLayout(t *testing.T) resource.Layout {
	t.Helper()

	layout, err := resource.NewLayout(t.TempDir())
	require.NoError(t, err)

	return layout
}

var linux = platform.Context{OS: platform.OSLinux, Arch: platform.ArchX86_64}

func TestBuildCommand_Modern(t *testing.T) {
	t.Parallel()

	v := loadVersion(t, "modern.json")
	layout := testLayout(t)

	vars, err := NewVariables(Settings{Layout: layout, Version: v, Platform: linux, Player: Player{Name: "Steve"}})
	require.NoError(t, err)

	inv, err := BuildCommand(v, layout, linux, vars, "/usr/bin/java")
	require.NoError(t, err)

	logConfig, err := layout.LogConfig("client-1.12.xml")
	require.NoError(t, err)

	require.Equal(t, "/usr/bin/java", inv.Java)
	require.Equal(t, layout.Root(), inv.Dir)
	require.Equal(t, []string{
		"-Djava.library.path=" + layout.NativesDir("1.20.1"),
		"-cp",
		vars["classpath"],
		"-Dlog4j.configurationFile=" + logConfig,
	}, inv.JVM)
	require.Equal(t, "net.minecraft.client.main.Main", inv.MainClass)
	require.Equal(t, []string{
		"--username", "Steve",
		"--gameDir", layout.Root(),
		"--uuid", vars["auth_uuid"],
	}, inv.Game)

	args := inv.Args()
	require.Equal(t, inv.MainClass, args[len(inv.JVM)])
	require.Len(t, args, len(inv.JVM)+1+len(inv.Game))
}

func TestBuildCommand_FeaturesAndPlatformRules(t *testing.T) {
	t.Parallel()

	v := loadVersion(t, "modern.json")
	layout := testLayout(t)
	mac := platform.Context{OS: platform.OSX, Arch: platform.ArchARM64}.
		WithFeatures(map[string]bool{FeatureCustomResolution: true})

	vars, err := NewVariables(Settings{
		Layout:   layout,
		Version:  v,
		Platform: mac,
		Player:   Player{Name: "Alex"},
		Width:    1280,
		Height:   720,
	})
	require.NoError(t, err)

	inv, err := BuildCommand(v, layout, mac, vars, "java")
	require.NoError(t, err)

	require.Equal(t, "-XstartOnFirstThread", inv.JVM[0])
	require.Equal(t, []string{"--width", "1280", "--height", "720"}, inv.Game[len(inv.Game)-4:])
	require.NotContains(t, inv.Game, "--demo")
	require.Contains(t, vars["classpath"], "java-objc-bridge-1.1.jar")
}

func TestBuildCommand_Legacy(t *testing.T) {
	t.Parallel()

	v := loadVersion(t, "legacy.json")
	layout := testLayout(t)

	vars, err := NewVariables(Settings{Layout: layout, Version: v, Platform: linux, Player: Player{Name: "Steve"}})
	require.NoError(t, err)

	inv, err := BuildCommand(v, layout, linux, vars, "java")
	require.NoError(t, err)

	require.Equal(t, []string{
		"-Djava.library.path=" + layout.NativesDir("1.7.10"),
		"-cp",
		layout.ClientBinary("1.7.10"),
	}, inv.JVM)
	require.Equal(t, []string{
		"--username", "Steve",
		"--version", "1.7.10",
		"--assetsDir", layout.AssetsDir(),
		"--assetIndex", "1.7.10",
		"--userProperties", "{}",
	}, inv.Game)
}

func TestBuildCommand_UnknownPlaceholdersSurvive(t *testing.T) {
	t.Parallel()

	v := loadVersion(t, "legacy.json")
	v.MinecraftArguments = "--tweakClass ${tweak_class}"
	layout := testLayout(t)

	inv, err := BuildCommand(v, layout, linux, Variables{}, "java")
	require.NoError(t, err)
	require.Equal(t, []string{"--tweakClass", "${tweak_class}"}, inv.Game)
	require.True(t, strings.HasPrefix(inv.JVM[0], "-Djava.library.path=${natives_directory}"))
}

func TestBuildCommand_MissingMainClass(t *testing.T) {
	t.Parallel()

	_, err := BuildCommand(&metadata.Version{ID: "x"}, testLayout(t), linux, Variables{}, "java")
	require.ErrorIs(t, err, resource.ErrParse)
}

func TestBuildCommand_UngatedFragments(t *testing.T) {
	t.Parallel()

	v := loadVersion(t, "modern.json")
	layout := testLayout(t)

	const game = `[
		{"value": ["--quickPlayPath", "${game_directory}/quickPlay"]},
		{"rules": null, "value": "--nulled"},
		{"rules": [], "value": "--never"}
	]`
	require.NoError(t, json.Unmarshal([]byte(game), &v.Arguments.Game))

	inv, err := BuildCommand(v, layout, linux, Variables{"game_directory": layout.Root()}, "java")
	require.NoError(t, err)
	require.Equal(t, []string{
		"--quickPlayPath", filepath.Join(layout.Root(), "quickPlay"),
		"--nulled",
	}, inv.Game)
}
