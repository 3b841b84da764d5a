package document

import (
	"bytes"
	"context"
	"crypto"
	"crypto/sha1" //nolint:gosec // SHA-1 is the digest published by the remote metadata.
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	goupdate "github.com/doitdistributed/go-update"

	"github.com/oshokin/mcsync/internal/domain/resource"
	"github.com/oshokin/mcsync/internal/logger"
	"github.com/oshokin/mcsync/internal/metadata"
)

const (
	// DefaultFileMode is applied to cached documents.
	DefaultFileMode os.FileMode = 0o644

	// DefaultDirMode is applied to directories created for the cache.
	DefaultDirMode os.FileMode = 0o755

	manifestFilename = "version_manifest.json"
)

var (
	// ErrOffline is returned when a document is not cached and the network may not be used.
	ErrOffline = errors.New("document is not cached and offline mode is enabled")
	// ErrNotFound is returned when a cached document does not exist.
	ErrNotFound = errors.New("document not found")
)

// Getter downloads a document body.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Options configure a Store.
type Options struct {
	// Layout locates cached files.
	Layout resource.Layout
	// Getter fetches documents. It is never called in offline mode.
	Getter Getter
	// ManifestURL is where the version manifest lives.
	ManifestURL string
	// Offline restricts the store to cached documents.
	Offline bool
}

// Store reads documents from the disk cache and refreshes them from the network.
type Store struct {
	layout      resource.Layout
	getter      Getter
	manifestURL string
	offline     bool

	// mu serialises writes into the cache.
	mu sync.Mutex
}

// NewStore creates a document store.
func NewStore(opts Options) *Store {
	return &Store{
		layout:      opts.Layout,
		getter:      opts.Getter,
		manifestURL: opts.ManifestURL,
		offline:     opts.Offline,
	}
}

// ManifestPath is where the manifest is cached.
func (s *Store) ManifestPath() string {
	return filepath.Join(s.layout.Root(), "versions", manifestFilename)
}

// Manifest returns the version manifest. Online it is always refreshed, and
// the cached copy is used only when the refresh fails.
func (s *Store) Manifest(ctx context.Context) (*metadata.Manifest, error) {
	path := s.ManifestPath()

	if s.offline {
		data, err := s.read(path)
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("manifest: %w", ErrOffline)
		}

		if err != nil {
			return nil, err
		}

		return metadata.ParseManifest(data)
	}

	data, err := s.getter.Get(ctx, s.manifestURL)
	if err != nil {
		cached, readErr := s.read(path)
		if readErr != nil || ctx.Err() != nil {
			return nil, err
		}

		logger.WarnKV(ctx, "Manifest refresh failed, using cached copy", "error", err)

		return metadata.ParseManifest(cached)
	}

	manifest, err := metadata.ParseManifest(data)
	if err != nil {
		return nil, err
	}

	if err = s.persist(path, data, ""); err != nil {
		return nil, err
	}

	return manifest, nil
}

// Version returns the descriptor of a manifest entry, downloading it unless a
// cached copy matches the published SHA-1. Without a published SHA-1 any cached copy is used.
func (s *Store) Version(ctx context.Context, ref metadata.ManifestVersion) (*metadata.Version, error) {
	path := s.layout.VersionDocument(ref.ID)

	cached, err := s.read(path)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if cached != nil && (ref.SHA1 == "" || digest(cached) == strings.ToLower(ref.SHA1)) {
		logger.DebugKV(ctx, "Using cached version document", "path", path)

		return metadata.ParseVersion(cached)
	}

	if s.offline {
		if cached == nil {
			return nil, fmt.Errorf("version %s: %w", ref.ID, ErrOffline)
		}

		logger.WarnKV(ctx, "Cached version document is outdated, using it in offline mode", "version", ref.ID)

		return metadata.ParseVersion(cached)
	}

	data, err := s.getter.Get(ctx, ref.URL)
	if err != nil {
		return nil, err
	}

	version, err := metadata.ParseVersion(data)
	if err != nil {
		return nil, err
	}

	if err = s.persist(path, data, ref.SHA1); err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Version document cached", "version", ref.ID, "path", path)

	return version, nil
}

// LocalVersion reads a cached version descriptor without consulting the manifest.
func (s *Store) LocalVersion(_ context.Context, id string) (*metadata.Version, error) {
	data, err := s.read(s.layout.VersionDocument(id))
	if err != nil {
		return nil, fmt.Errorf("version %s: %w", id, err)
	}

	return metadata.ParseVersion(data)
}

// AssetIndex returns the asset index of a version, downloading it unless the
// cached copy matches the size and SHA-1 the version publishes.
func (s *Store) AssetIndex(ctx context.Context, version *metadata.Version) (*metadata.AssetIndex, error) {
	ref := version.AssetIndex
	path := s.layout.AssetIndex(ref.ID)

	cached, err := s.read(path)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if cached != nil && int64(len(cached)) == ref.Size && digest(cached) == strings.ToLower(ref.SHA1) {
		return metadata.ParseAssetIndex(cached)
	}

	if s.offline {
		if cached == nil {
			return nil, fmt.Errorf("asset index %s: %w", ref.ID, ErrOffline)
		}

		logger.WarnKV(ctx, "Cached asset index does not match, using it in offline mode", "id", ref.ID)

		return metadata.ParseAssetIndex(cached)
	}

	data, err := s.getter.Get(ctx, ref.URL)
	if err != nil {
		return nil, err
	}

	if ref.Size > 0 && int64(len(data)) != ref.Size {
		return nil, fmt.Errorf("%w: asset index %s: got %d bytes, want %d",
			resource.ErrTransport, ref.ID, len(data), ref.Size)
	}

	index, err := metadata.ParseAssetIndex(data)
	if err != nil {
		return nil, err
	}

	if err = s.persist(path, data, ref.SHA1); err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Asset index cached", "id", ref.ID, "objects", len(index.Objects))

	return index, nil
}

// read returns ErrNotFound for missing and empty files.
func (s *Store) read(path string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", resource.ErrFilesystem, path, err)
	}

	if len(data) == 0 {
		return nil, ErrNotFound
	}

	return data, nil
}

// persist atomically replaces path with data. A non-empty checksum is verified before the swap.
func (s *Store) persist(path string, data []byte, checksum string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), DefaultDirMode); err != nil {
		return fmt.Errorf("%w: create %s: %w", resource.ErrFilesystem, filepath.Dir(path), err)
	}

	// go-update swaps an existing target, so make sure there is one.
	var placeholder bool

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		file, createErr := os.Create(filepath.Clean(path))
		if createErr != nil {
			return fmt.Errorf("%w: create %s: %w", resource.ErrFilesystem, path, createErr)
		}

		_ = file.Close()
		placeholder = true
	}

	options := goupdate.Options{
		TargetPath: path,
		TargetMode: DefaultFileMode,
		Hash:       crypto.SHA1,
	}

	if checksum != "" {
		sum, err := hex.DecodeString(checksum)
		if err != nil {
			return fmt.Errorf("%w: checksum %q: %w", resource.ErrParse, checksum, err)
		}

		options.Checksum = sum
	}

	if err := goupdate.Apply(bytes.NewReader(data), options); err != nil {
		if placeholder {
			_ = os.Remove(path)
		}

		if options.Checksum != nil && digest(data) != strings.ToLower(checksum) {
			return fmt.Errorf("%w: %s checksum mismatch: %w", resource.ErrTransport, filepath.Base(path), err)
		}

		return fmt.Errorf("%w: replace %s: %w", resource.ErrFilesystem, path, err)
	}

	return nil
}

func digest(data []byte) string {
	sum := sha1.Sum(data) //nolint:gosec // Matches the remote metadata digest.

	return hex.EncodeToString(sum[:])
}
