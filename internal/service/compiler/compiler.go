package compiler

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/oshokin/mcsync/internal/domain/platform"
	"github.com/oshokin/mcsync/internal/domain/resource"
	"github.com/oshokin/mcsync/internal/domain/rule"
	"github.com/oshokin/mcsync/internal/logger"
	"github.com/oshokin/mcsync/internal/metadata"
)

// DefaultResourcesURL is the content-addressed asset store.
const DefaultResourcesURL = "https://resources.download.minecraft.net"

// defaultExtractExclude applies to native archives that do not declare exclusions.
var defaultExtractExclude = []string{"META-INF/"} //nolint:gochecknoglobals // Read-only default.

// Option tunes compilation.
type Option func(*compiler)

// WithResourcesURL overrides the asset store base URL.
func WithResourcesURL(base string) Option {
	return func(c *compiler) {
		if base != "" {
			c.resourcesURL = strings.TrimRight(base, "/")
		}
	}
}

type compiler struct {
	resourcesURL string
	layout       resource.Layout
	platform     platform.Context

	result []resource.Descriptor
	seen   map[string]struct{}
}

// Compile turns the documents into descriptors. It fails with
// resource.ErrUnsupportedPlatform before emitting anything when the platform
// has no native classifier.
func Compile(
	ctx context.Context,
	version *metadata.Version,
	index *metadata.AssetIndex,
	layout resource.Layout,
	pctx platform.Context,
	opts ...Option,
) ([]resource.Descriptor, error) {
	ctx = logger.WithName(ctx, "compiler")

	if _, err := PlatformClassifier(pctx); err != nil {
		return nil, err
	}

	c := &compiler{
		resourcesURL: DefaultResourcesURL,
		layout:       layout,
		platform:     pctx,
		result:       make([]resource.Descriptor, 0, len(index.Objects)+len(version.Libraries)+3),
		seen:         make(map[string]struct{}, len(index.Objects)+len(version.Libraries)+3),
	}

	for _, opt := range opts {
		opt(c)
	}

	ref := version.AssetIndex
	c.add(resource.New(resource.KindAssetIndex, ref.URL, ref.SHA1, ref.Size, layout.AssetIndex(ref.ID)))

	if err := c.assets(index); err != nil {
		return nil, err
	}

	if err := c.libraries(ctx, version); err != nil {
		return nil, err
	}

	client := version.Downloads.Client
	c.add(resource.New(resource.KindClientBinary, client.URL, client.SHA1, client.Size, layout.ClientBinary(version.ID)))

	if logging := version.ClientLogging(); logging != nil {
		path, err := layout.LogConfig(logging.File.ID)
		if err != nil {
			return nil, err
		}

		file := logging.File
		c.add(resource.New(resource.KindLogConfig, file.URL, file.SHA1, file.Size, path))
	}

	logger.DebugKV(ctx, "Compiled descriptors",
		"version", version.ID,
		"platform", pctx.String(),
		"total", len(c.result))

	return c.result, nil
}

// add skips descriptors whose path was already emitted.
func (c *compiler) add(d resource.Descriptor) {
	if _, ok := c.seen[d.Path]; ok {
		return
	}

	c.seen[d.Path] = struct{}{}
	c.result = append(c.result, d)
}

func (c *compiler) assets(index *metadata.AssetIndex) error {
	legacy := index.Legacy()

	names := make([]string, 0, len(index.Objects))
	for name := range index.Objects {
		names = append(names, name)
	}

	slices.Sort(names)

	for _, name := range names {
		object := index.Objects[name]
		hash := strings.ToLower(object.Hash)

		// Also validates the hash, which the URL needs too.
		path, err := c.layout.AssetObject(hash)
		if err != nil {
			return fmt.Errorf("asset %q: %w", name, err)
		}

		if legacy {
			if path, err = c.layout.LegacyAsset(name); err != nil {
				return err
			}
		}

		c.add(resource.New(resource.KindAssetObject, AssetURL(c.resourcesURL, hash), hash, object.Size, path))
	}

	return nil
}

func (c *compiler) libraries(ctx context.Context, version *metadata.Version) error {
	nativesDir := c.layout.NativesDir(version.ID)

	for _, lib := range version.Libraries {
		if lib.Rules != nil && lib.Rules.HasVersionFilter() {
			logger.DebugKV(ctx, "Library rule filters by OS version, the filter is ignored", "library", lib.Name)
		}

		if !rule.Evaluate(lib.Rules, c.platform) {
			logger.DebugKV(ctx, "Library excluded by rules", "library", lib.Name)

			continue
		}

		if artifact := lib.Downloads.Artifact; downloadable(artifact) {
			path, err := c.layout.Library(artifact.Path)
			if err != nil {
				return fmt.Errorf("library %s: %w", lib.Name, err)
			}

			c.add(resource.New(resource.KindLibrary, artifact.URL, artifact.SHA1, artifact.Size, path))
		}

		classifier, err := NativeClassifier(lib, c.platform)
		if err != nil {
			return fmt.Errorf("library %s: %w", lib.Name, err)
		}

		native, ok := lib.Downloads.Classifiers[classifier]
		if classifier == "" || !ok {
			continue
		}

		path, err := c.layout.Library(native.Path)
		if err != nil {
			return fmt.Errorf("library %s natives: %w", lib.Name, err)
		}

		d := resource.New(resource.KindNativeArchive, native.URL, native.SHA1, native.Size, path)
		d.NativesDir = nativesDir

		d.ExtractExclude = defaultExtractExclude
		if lib.Extract != nil && len(lib.Extract.Exclude) > 0 {
			d.ExtractExclude = lib.Extract.Exclude
		}

		c.add(d)
	}

	return nil
}

// AssetURL builds the store URL of an asset: <base>/<first two hash chars>/<hash>.
func AssetURL(base, hash string) string {
	return base + "/" + hash[:2] + "/" + hash
}

// PlatformClassifier returns the fixed native classifier of a platform.
func PlatformClassifier(pctx platform.Context) (string, error) {
	switch pctx.OS {
	case platform.OSX:
		if pctx.Arch == platform.ArchARM64 {
			return "natives-macos-arm64", nil
		}

		return "natives-macos", nil
	case platform.OSLinux:
		return "natives-linux", nil
	case platform.OSWindows:
		return "natives-windows", nil
	default:
		return "", fmt.Errorf("%w: no native classifier for %s", resource.ErrUnsupportedPlatform, pctx)
	}
}

// NativeClassifier picks the classifier holding a library's native archive.
// A library natives map takes precedence, with ${arch} replaced by the bitness.
// An empty result means the library ships no natives for the platform.
func NativeClassifier(lib metadata.Library, pctx platform.Context) (string, error) {
	if lib.Natives != nil {
		classifier, ok := lib.Natives[pctx.OS]
		if !ok {
			return "", nil
		}

		return strings.ReplaceAll(classifier, "${arch}", pctx.Bitness()), nil
	}

	return PlatformClassifier(pctx)
}

// downloadable reports artifacts that are synced and therefore belong on the classpath.
func downloadable(artifact *metadata.Artifact) bool {
	return artifact != nil && artifact.URL != "" && artifact.Path != ""
}

// Classpath lists the artifacts of included libraries in declaration order, followed by the client binary.
func Classpath(version *metadata.Version, layout resource.Layout, pctx platform.Context) ([]string, error) {
	entries := make([]string, 0, len(version.Libraries)+1)
	seen := make(map[string]struct{}, len(version.Libraries)+1)

	for _, lib := range version.Libraries {
		artifact := lib.Downloads.Artifact
		if !downloadable(artifact) || !rule.Evaluate(lib.Rules, pctx) {
			continue
		}

		path, err := layout.Library(artifact.Path)
		if err != nil {
			return nil, fmt.Errorf("library %s: %w", lib.Name, err)
		}

		if _, ok := seen[path]; ok {
			continue
		}

		seen[path] = struct{}{}
		entries = append(entries, path)
	}

	return append(entries, layout.ClientBinary(version.ID)), nil
}
