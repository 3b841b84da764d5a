package metadata

import "time"

// Release types listed in the manifest.
const (
	TypeRelease  = "release"
	TypeSnapshot = "snapshot"
	TypeOldBeta  = "old_beta"
	TypeOldAlpha = "old_alpha"
)

// Manifest lists every published version.
type Manifest struct {
	Latest   Latest            `json:"latest"`
	Versions []ManifestVersion `json:"versions"`
}

// Latest names the newest release and snapshot.
type Latest struct {
	Release  string `json:"release"`
	Snapshot string `json:"snapshot"`
}

// ManifestVersion points at a version descriptor.
type ManifestVersion struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	URL         string    `json:"url"`
	Time        time.Time `json:"time"`
	ReleaseTime time.Time `json:"releaseTime"`
	// SHA1 of the version descriptor. Only newer manifests publish it.
	SHA1 string `json:"sha1,omitempty"`
}

// Find looks a version up by id. The ids "release" and "snapshot" resolve to the latest ones.
func (m *Manifest) Find(id string) (ManifestVersion, bool) {
	switch id {
	case "", TypeRelease:
		id = m.Latest.Release
	case TypeSnapshot:
		id = m.Latest.Snapshot
	}

	for _, v := range m.Versions {
		if v.ID == id {
			return v, true
		}
	}

	return ManifestVersion{}, false
}

// Filter returns the versions whose type is accepted, in manifest order.
func (m *Manifest) Filter(accept func(ManifestVersion) bool) []ManifestVersion {
	result := make([]ManifestVersion, 0, len(m.Versions))

	for _, v := range m.Versions {
		if accept(v) {
			result = append(result, v)
		}
	}

	return result
}
