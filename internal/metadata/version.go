package metadata

import (
	"strings"
	"time"

	"github.com/oshokin/mcsync/internal/domain/rule"
)

// Download is a remote file with integrity metadata.
type Download struct {
	SHA1 string `json:"sha1"`
	Size int64  `json:"size"`
	URL  string `json:"url"`
}

// AssetIndexRef points at the asset index of a version.
type AssetIndexRef struct {
	Download
	ID        string `json:"id"`
	TotalSize int64  `json:"totalSize"`
}

// Downloads lists the version binaries.
type Downloads struct {
	Client         Download  `json:"client"`
	ClientMappings *Download `json:"client_mappings,omitempty"`
	Server         *Download `json:"server,omitempty"`
	ServerMappings *Download `json:"server_mappings,omitempty"`
}

// Artifact is a library file with its repository-relative path.
type Artifact struct {
	Download
	Path string `json:"path"`
}

// LibraryDownloads holds the primary artifact and the classifier variants.
type LibraryDownloads struct {
	Artifact    *Artifact           `json:"artifact,omitempty"`
	Classifiers map[string]Artifact `json:"classifiers,omitempty"`
}

// Extract configures native archive extraction.
type Extract struct {
	Exclude []string `json:"exclude,omitempty"`
}

// Library is a classpath or native dependency.
type Library struct {
	Name      string           `json:"name"`
	Downloads LibraryDownloads `json:"downloads"`
	// Rules is nil when the library is unconditional.
	Rules *rule.Set `json:"rules,omitempty"`
	// Natives maps an OS name to the classifier holding its native archive.
	Natives map[string]string `json:"natives,omitempty"`
	Extract *Extract          `json:"extract,omitempty"`
}

// LogFile is the logging configuration resource.
type LogFile struct {
	Download
	ID string `json:"id"`
}

// LoggingClient describes the client logging setup.
type LoggingClient struct {
	// Argument is a JVM argument template with a ${path} token.
	Argument string  `json:"argument"`
	Type     string  `json:"type"`
	File     LogFile `json:"file"`
}

// Logging groups logging setups by side.
type Logging struct {
	Client *LoggingClient `json:"client,omitempty"`
}

// Arguments are the modern rule-gated launch arguments.
type Arguments struct {
	Game []Argument `json:"game"`
	JVM  []Argument `json:"jvm"`
}

// JavaVersion is the runtime the version was built for.
type JavaVersion struct {
	Component    string `json:"component"`
	MajorVersion int    `json:"majorVersion"`
}

// Version is the descriptor of one game version.
type Version struct {
	ID                     string        `json:"id"`
	Type                   string        `json:"type"`
	MainClass              string        `json:"mainClass"`
	Assets                 string        `json:"assets"`
	AssetIndex             AssetIndexRef `json:"assetIndex"`
	Downloads              Downloads     `json:"downloads"`
	Libraries              []Library     `json:"libraries"`
	Logging                *Logging      `json:"logging,omitempty"`
	Arguments              *Arguments    `json:"arguments,omitempty"`
	MinecraftArguments     string        `json:"minecraftArguments,omitempty"`
	JavaVersion            *JavaVersion  `json:"javaVersion,omitempty"`
	MinimumLauncherVersion int           `json:"minimumLauncherVersion,omitempty"`
	ComplianceLevel        int           `json:"complianceLevel,omitempty"`
	ReleaseTime            time.Time     `json:"releaseTime"`
	Time                   time.Time     `json:"time"`
}

// IsLegacy reports versions that still use the single minecraftArguments string.
func (v *Version) IsLegacy() bool {
	return v.Arguments == nil && v.MinecraftArguments != ""
}

// LegacyArguments splits minecraftArguments on whitespace.
func (v *Version) LegacyArguments() []string {
	return strings.Fields(v.MinecraftArguments)
}

// ClientLogging returns the client logging setup or nil.
func (v *Version) ClientLogging() *LoggingClient {
	if v.Logging == nil {
		return nil
	}

	return v.Logging.Client
}

// AssetObject is one entry of an asset index.
type AssetObject struct {
	Hash string `json:"hash"`
	Size int64  `json:"size"`
}

// AssetIndex maps virtual asset paths to content.
type AssetIndex struct {
	Objects        map[string]AssetObject `json:"objects"`
	MapToResources bool                   `json:"map_to_resources,omitempty"`
	Virtual        bool                   `json:"virtual,omitempty"`
}

// Legacy reports whether assets are stored under their virtual paths.
func (a *AssetIndex) Legacy() bool {
	return a.MapToResources || a.Virtual
}
