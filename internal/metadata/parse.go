package metadata

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/jsonc"

	"github.com/oshokin/mcsync/internal/domain/resource"
)

// ParseManifest decodes a version manifest.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := decode(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}

	return &m, nil
}

// ParseVersion decodes a version descriptor and checks the fields the pipeline relies on.
func ParseVersion(data []byte) (*Version, error) {
	var v Version
	if err := decode(data, &v); err != nil {
		return nil, fmt.Errorf("decode version: %w", err)
	}

	switch {
	case v.ID == "":
		return nil, fmt.Errorf("%w: version id is missing", resource.ErrParse)
	case v.MainClass == "":
		return nil, fmt.Errorf("%w: version %s has no main class", resource.ErrParse, v.ID)
	case v.Downloads.Client.URL == "":
		return nil, fmt.Errorf("%w: version %s has no client download", resource.ErrParse, v.ID)
	case v.AssetIndex.ID == "" || v.AssetIndex.URL == "":
		return nil, fmt.Errorf("%w: version %s has no asset index", resource.ErrParse, v.ID)
	}

	return &v, nil
}

// ParseAssetIndex decodes an asset index.
func ParseAssetIndex(data []byte) (*AssetIndex, error) {
	var a AssetIndex
	if err := decode(data, &a); err != nil {
		return nil, fmt.Errorf("decode asset index: %w", err)
	}

	return &a, nil
}

func decode(data []byte, target any) error {
	if err := json.Unmarshal(jsonc.ToJSON(data), target); err != nil {
		return fmt.Errorf("%w: %w", resource.ErrParse, err)
	}

	return nil
}
