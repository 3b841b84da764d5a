package launch

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/mcsync/internal/version"
)

func TestNewVariables(t *testing.T) {
	t.Parallel()

	v := loadVersion(t, "modern.json")
	layout := testLayout(t)

	vars, err := NewVariables(Settings{Layout: layout, Version: v, Platform: linux, Player: Player{Name: "Steve"}})
	require.NoError(t, err)

	library, err := layout.Library("com/mojang/logging/1.1.1/logging-1.1.1.jar")
	require.NoError(t, err)

	// The osx-only library is left out on linux; the client binary comes last.
	require.Equal(t,
		library+string(filepath.ListSeparator)+layout.ClientBinary("1.20.1"),
		vars["classpath"])
	require.Equal(t, layout.Root(), vars["game_directory"])
	require.Equal(t, layout.AssetsDir(), vars["assets_root"])
	require.Equal(t, layout.NativesDir("1.20.1"), vars["natives_directory"])
	require.Equal(t, "1.20.1", vars["version_name"])
	require.Equal(t, "5", vars["assets_index_name"])
	require.Equal(t, "Steve", vars["auth_player_name"])
	require.Equal(t, version.Name, vars["launcher_name"])
	require.Equal(t, version.Short(), vars["launcher_version"])
	require.Equal(t, UserTypeLegacy, vars["user_type"])
	require.Len(t, vars["auth_access_token"], 32)
	require.NotContains(t, vars, "resolution_width")

	offline := OfflineUUID("Steve")
	require.Equal(t, strings.ReplaceAll(offline.String(), "-", ""), vars["auth_uuid"])
}

func TestNewVariables_ExplicitPlayer(t *testing.T) {
	t.Parallel()

	id := uuid.New()

	vars, err := NewVariables(Settings{
		Layout:  testLayout(t),
		Version: loadVersion(t, "modern.json"),
		Player:  Player{Name: "Steve", UUID: id, AccessToken: "token"},
		Width:   800,
	})
	require.NoError(t, err)
	require.Equal(t, "token", vars["auth_access_token"])
	require.Equal(t, strings.ReplaceAll(id.String(), "-", ""), vars["auth_uuid"])

	// Width alone does not enable the resolution placeholders.
	require.NotContains(t, vars, "resolution_width")
}

func TestNewVariables_NoVersion(t *testing.T) {
	t.Parallel()

	_, err := NewVariables(Settings{Layout: testLayout(t)})
	require.Error(t, err)
}

func TestOfflineUUID(t *testing.T) {
	t.Parallel()

	id := OfflineUUID("Steve")

	require.Equal(t, uuid.Version(3), id.Version())
	require.Equal(t, uuid.RFC4122, id.Variant())
	require.Equal(t, id, OfflineUUID("Steve"))
	require.NotEqual(t, id, OfflineUUID("Alex"))
}
