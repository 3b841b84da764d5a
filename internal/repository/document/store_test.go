package document

import (
	"context"
	"crypto/sha1" //nolint:gosec // Test digests mirror the remote metadata.
	"encoding/hex"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/mcsync/internal/domain/resource"
	"github.com/oshokin/mcsync/internal/metadata"
)

// fakeGetter serves documents from memory and counts requests.
type fakeGetter struct {
	mu    sync.Mutex
	docs  map[string][]byte
	calls map[string]int
}

func newFakeGetter(docs map[string][]byte) *fakeGetter {
	return &fakeGetter{docs: docs, calls: make(map[string]int)}
}

func (g *fakeGetter) Get(_ context.Context, url string) ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.calls[url]++

	data, ok := g.docs[url]
	if !ok {
		return nil, fmt.Errorf("%w: %s: 404 Not Found", resource.ErrTransport, url)
	}

	return data, nil
}

func (g *fakeGetter) count(url string) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.calls[url]
}

func sum(data []byte) string {
	s := sha1.Sum(data) //nolint:gosec // Test helper.

	return hex.EncodeToString(s[:])
}

const (
	versionURL = "https://meta.test/v/1.0.json"
	indexURL   = "https://meta.test/idx/1.json"
	manifest   = "https://meta.test/manifest.json"
)

var (
	indexDoc   = []byte(`{"objects":{"a.txt":{"hash":"aa00000000000000000000000000000000000000","size":3}}}`)
	versionDoc = []byte(fmt.Sprintf(`{
		"id": "1.0", "type": "release", "mainClass": "Main",
		"assetIndex": {"id": "1", "sha1": %q, "size": %d, "url": %q},
		"downloads": {"client": {"sha1": "cc", "size": 1, "url": "https://data.test/client.jar"}},
		"libraries": []
	}`, sum(indexDoc), len(indexDoc), indexURL))
	manifestDoc = []byte(fmt.Sprintf(`{"latest":{"release":"1.0"},"versions":[{"id":"1.0","type":"release","url":%q}]}`, versionURL))
)

func newStore(t *testing.T, getter Getter, offline bool) (*Store, resource.Layout) {
	t.Helper()

	layout, err := resource.NewLayout(t.TempDir())
	require.NoError(t, err)

	return NewStore(Options{
		Layout:      layout,
		Getter:      getter,
		ManifestURL: manifest,
		Offline:     offline,
	}), layout
}

// TestStore_VersionIsCached downloads a version once and then serves it from disk.
func TestStore_VersionIsCached(t *testing.T) {
	t.Parallel()

	getter := newFakeGetter(map[string][]byte{versionURL: versionDoc})
	store, layout := newStore(t, getter, false)
	ctx := context.Background()
	ref := metadata.ManifestVersion{ID: "1.0", URL: versionURL, SHA1: sum(versionDoc)}

	v, err := store.Version(ctx, ref)
	require.NoError(t, err)
	require.Equal(t, "Main", v.MainClass)

	onDisk, err := os.ReadFile(layout.VersionDocument("1.0"))
	require.NoError(t, err)
	require.Equal(t, versionDoc, onDisk)

	_, err = store.Version(ctx, ref)
	require.NoError(t, err)
	require.Equal(t, 1, getter.count(versionURL))

	local, err := store.LocalVersion(ctx, "1.0")
	require.NoError(t, err)
	require.Equal(t, v.ID, local.ID)
}

// TestStore_VersionChecksumMismatch refuses to cache a document with a wrong digest.
func TestStore_VersionChecksumMismatch(t *testing.T) {
	t.Parallel()

	getter := newFakeGetter(map[string][]byte{versionURL: versionDoc})
	store, layout := newStore(t, getter, false)

	ref := metadata.ManifestVersion{ID: "1.0", URL: versionURL, SHA1: "0000000000000000000000000000000000000000"}

	_, err := store.Version(context.Background(), ref)
	require.ErrorIs(t, err, resource.ErrTransport)

	_, err = os.Stat(layout.VersionDocument("1.0"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestStore_AssetIndex validates the cached copy against the version reference.
func TestStore_AssetIndex(t *testing.T) {
	t.Parallel()

	getter := newFakeGetter(map[string][]byte{indexURL: indexDoc})
	store, layout := newStore(t, getter, false)
	ctx := context.Background()

	v, err := metadata.ParseVersion(versionDoc)
	require.NoError(t, err)

	idx, err := store.AssetIndex(ctx, v)
	require.NoError(t, err)
	require.Len(t, idx.Objects, 1)

	_, err = store.AssetIndex(ctx, v)
	require.NoError(t, err)
	require.Equal(t, 1, getter.count(indexURL))

	// A corrupted cache is refreshed.
	require.NoError(t, os.WriteFile(layout.AssetIndex("1"), []byte(`{"objects":{}}`), DefaultFileMode))

	idx, err = store.AssetIndex(ctx, v)
	require.NoError(t, err)
	require.Len(t, idx.Objects, 1)
	require.Equal(t, 2, getter.count(indexURL))
}

// TestStore_Offline serves only cached documents.
func TestStore_Offline(t *testing.T) {
	t.Parallel()

	getter := newFakeGetter(nil)
	store, layout := newStore(t, getter, true)
	ctx := context.Background()

	_, err := store.Manifest(ctx)
	require.ErrorIs(t, err, ErrOffline)

	_, err = store.Version(ctx, metadata.ManifestVersion{ID: "1.0", URL: versionURL})
	require.ErrorIs(t, err, ErrOffline)

	require.NoError(t, os.MkdirAll(layout.VersionDir("1.0"), DefaultDirMode))
	require.NoError(t, os.WriteFile(layout.VersionDocument("1.0"), versionDoc, DefaultFileMode))

	v, err := store.Version(ctx, metadata.ManifestVersion{ID: "1.0", URL: versionURL, SHA1: "ff"})
	require.NoError(t, err)
	require.Equal(t, "1.0", v.ID)

	_, err = store.AssetIndex(ctx, v)
	require.ErrorIs(t, err, ErrOffline)
	require.Zero(t, getter.count(versionURL))
}

// TestStore_ManifestFallsBackToCache uses the cached manifest when the refresh fails.
func TestStore_ManifestFallsBackToCache(t *testing.T) {
	t.Parallel()

	getter := newFakeGetter(map[string][]byte{manifest: manifestDoc})
	store, _ := newStore(t, getter, false)
	ctx := context.Background()

	m, err := store.Manifest(ctx)
	require.NoError(t, err)
	require.Equal(t, "1.0", m.Latest.Release)

	getter.mu.Lock()
	delete(getter.docs, manifest)
	getter.mu.Unlock()

	m, err = store.Manifest(ctx)
	require.NoError(t, err)
	require.Equal(t, "1.0", m.Latest.Release)

	// Without a cache the transport error surfaces.
	empty, _ := newStore(t, newFakeGetter(nil), false)

	_, err = empty.Manifest(ctx)
	require.ErrorIs(t, err, resource.ErrTransport)
}
