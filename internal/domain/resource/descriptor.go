package resource

import (
	"strings"
)

// Kind tags the purpose of a descriptor.
type Kind uint8

const (
	// KindAssetObject is a game asset from the content-addressed store.
	KindAssetObject Kind = iota + 1
	// KindAssetIndex is the asset index document itself.
	KindAssetIndex
	// KindLibrary is a library artifact placed on the classpath.
	KindLibrary
	// KindNativeArchive is a platform archive extracted into the natives directory.
	KindNativeArchive
	// KindClientBinary is the game client jar.
	KindClientBinary
	// KindLogConfig is the logging configuration passed to the JVM.
	KindLogConfig
)

func (k Kind) String() string {
	switch k {
	case KindAssetObject:
		return "asset"
	case KindAssetIndex:
		return "asset-index"
	case KindLibrary:
		return "library"
	case KindNativeArchive:
		return "native"
	case KindClientBinary:
		return "client"
	case KindLogConfig:
		return "log-config"
	default:
		return "unknown"
	}
}

// Descriptor is a remote file together with its integrity metadata and local destination.
type Descriptor struct {
	// URL is where the file is fetched from.
	URL string
	// Hash is the lowercase hex SHA-1 of the content.
	Hash string
	// Size is the exact content length in bytes.
	Size int64
	// Path is the absolute local destination.
	Path string
	// Kind tags the purpose of the file.
	Kind Kind

	// NativesDir is the extraction target of a native archive.
	NativesDir string
	// ExtractExclude lists archive path prefixes skipped during extraction.
	ExtractExclude []string
}

// New builds a descriptor with the hash normalised to lowercase.
func New(kind Kind, url, hash string, size int64, path string) Descriptor {
	return Descriptor{
		URL:  url,
		Hash: strings.ToLower(strings.TrimSpace(hash)),
		Size: size,
		Path: path,
		Kind: kind,
	}
}

// IsAsset reports whether the descriptor belongs to the asset scheduling class.
func (d Descriptor) IsAsset() bool {
	return d.Kind == KindAssetObject
}

// TotalSize sums the sizes of the descriptors.
func TotalSize(descriptors []Descriptor) int64 {
	var total int64
	for _, d := range descriptors {
		total += d.Size
	}

	return total
}
