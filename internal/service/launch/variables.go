package launch

import (
	"crypto/md5" //nolint:gosec // Offline player UUIDs are name based (version 3) by definition.
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/oshokin/mcsync/internal/domain/platform"
	"github.com/oshokin/mcsync/internal/domain/resource"
	"github.com/oshokin/mcsync/internal/metadata"
	"github.com/oshokin/mcsync/internal/service/compiler"
	"github.com/oshokin/mcsync/internal/version"
)

const (
	// UserTypeLegacy marks an offline account.
	UserTypeLegacy = "legacy"

	offlinePrefix = "OfflinePlayer:"
)

// Player identifies the account the game is started for.
type Player struct {
	Name string
	// UUID defaults to the offline UUID derived from Name.
	UUID uuid.UUID
	// AccessToken defaults to a random token.
	AccessToken string
}

// Settings is everything NewVariables needs.
type Settings struct {
	Layout   resource.Layout
	Version  *metadata.Version
	Platform platform.Context
	Player   Player
	// Width and Height are set only together.
	Width  int
	Height int
}

// NewVariables returns the placeholder values for a launch.
func NewVariables(s Settings) (Variables, error) {
	if s.Version == nil {
		return nil, fmt.Errorf("%w: no version", resource.ErrParse)
	}

	classpath, err := compiler.Classpath(s.Version, s.Layout, s.Platform)
	if err != nil {
		return nil, err
	}

	player := s.Player
	if player.UUID == uuid.Nil {
		player.UUID = OfflineUUID(player.Name)
	}

	if player.AccessToken == "" {
		player.AccessToken = strings.ReplaceAll(uuid.NewString(), "-", "")
	}

	assetsIndex := s.Version.Assets
	if assetsIndex == "" {
		assetsIndex = s.Version.AssetIndex.ID
	}

	separator := string(filepath.ListSeparator)

	vars := Variables{
		"classpath":           strings.Join(classpath, separator),
		"classpath_separator": separator,
		"library_directory":   s.Layout.LibrariesDir(),
		"natives_directory":   s.Layout.NativesDir(s.Version.ID),
		"game_directory":      s.Layout.Root(),
		"assets_root":         s.Layout.AssetsDir(),
		"game_assets":         s.Layout.LegacyAssetsDir(),
		"assets_index_name":   assetsIndex,
		"version_name":        s.Version.ID,
		"version_type":        s.Version.Type,
		"launcher_name":       version.Name,
		"launcher_version":    version.Short(),
		"auth_player_name":    player.Name,
		"auth_uuid":           strings.ReplaceAll(player.UUID.String(), "-", ""),
		"auth_access_token":   player.AccessToken,
		"auth_session":        player.AccessToken,
		"user_type":           UserTypeLegacy,
		"user_properties":     "{}",
	}

	if s.Width > 0 && s.Height > 0 {
		vars["resolution_width"] = strconv.Itoa(s.Width)
		vars["resolution_height"] = strconv.Itoa(s.Height)
	}

	return vars, nil
}

// OfflineUUID derives the name based UUID the game uses for offline players.
func OfflineUUID(name string) uuid.UUID {
	sum := md5.Sum([]byte(offlinePrefix + name)) //nolint:gosec // See import.

	sum[6] = sum[6]&0x0f | 0x30
	sum[8] = sum[8]&0x3f | 0x80

	id, _ := uuid.FromBytes(sum[:])

	return id
}
