package resource

import (
	"fmt"
	"path"
	"path/filepath"
)

// Layout derives every local path from a fixed root directory.
type Layout struct {
	root string
}

// NewLayout makes the root absolute so all derived paths are absolute too.
func NewLayout(root string) (Layout, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return Layout{}, fmt.Errorf("%w: resolve root %q: %w", ErrFilesystem, root, err)
	}

	return Layout{root: abs}, nil
}

// Root is the game directory.
func (l Layout) Root() string {
	return l.root
}

// AssetsDir is passed to the game as assets_root.
func (l Layout) AssetsDir() string {
	return filepath.Join(l.root, "assets")
}

// AssetIndex is where the asset index document with the given id is stored.
func (l Layout) AssetIndex(id string) string {
	return filepath.Join(l.AssetsDir(), "indexes", id+".json")
}

// AssetObject returns the hash-sharded object path.
func (l Layout) AssetObject(hash string) (string, error) {
	if len(hash) < 2 || !isHex(hash) {
		return "", fmt.Errorf("%w: invalid asset hash %q", ErrParse, hash)
	}

	return filepath.Join(l.AssetsDir(), "objects", hash[:2], hash), nil
}

// LegacyAssetsDir is the root of the legacy virtual layout.
func (l Layout) LegacyAssetsDir() string {
	return filepath.Join(l.AssetsDir(), "virtual", "legacy")
}

// LegacyAsset returns the path of an asset stored under its virtual path.
func (l Layout) LegacyAsset(virtualPath string) (string, error) {
	return l.under(l.LegacyAssetsDir(), virtualPath)
}

// LibrariesDir is passed to the game as library_directory.
func (l Layout) LibrariesDir() string {
	return filepath.Join(l.root, "libraries")
}

// Library returns the path of a library artifact.
func (l Layout) Library(artifactPath string) (string, error) {
	return l.under(l.LibrariesDir(), artifactPath)
}

// VersionDir holds per-version files.
func (l Layout) VersionDir(id string) string {
	return filepath.Join(l.root, "versions", id)
}

// VersionDocument is the cached version descriptor.
func (l Layout) VersionDocument(id string) string {
	return filepath.Join(l.VersionDir(id), id+".json")
}

// ClientBinary is the client jar of a version.
func (l Layout) ClientBinary(id string) string {
	return filepath.Join(l.VersionDir(id), "client.jar")
}

// NativesDir is the extraction target of native archives.
func (l Layout) NativesDir(id string) string {
	return filepath.Join(l.VersionDir(id), "natives")
}

// RunningMarker stores the pid of a launched game.
func (l Layout) RunningMarker(id string) string {
	return filepath.Join(l.VersionDir(id), ".running")
}

// LogConfig is the logging configuration file with the given id.
func (l Layout) LogConfig(id string) (string, error) {
	return l.under(filepath.Join(l.root, "logs"), id)
}

// under joins a slash-separated relative path to base and rejects escapes.
func (l Layout) under(base, rel string) (string, error) {
	local := filepath.FromSlash(path.Clean(rel))
	if rel == "" || !filepath.IsLocal(local) {
		return "", fmt.Errorf("%w: path %q escapes %s", ErrParse, rel, base)
	}

	return filepath.Join(base, local), nil
}

func isHex(s string) bool {
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return false
		}
	}

	return true
}
