package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds launcher settings stored in mcsync.yaml.
type Config struct {
	// RootDir is the game directory every local path is derived from.
	RootDir string `yaml:"root_dir"`
	// ManifestURL points at the remote version manifest.
	ManifestURL string `yaml:"manifest_url"`
	// ResourcesURL is the base URL of the content-addressed asset store.
	ResourcesURL string `yaml:"resources_url"`
	// JavaPath is the Java executable used to launch the game.
	JavaPath string `yaml:"java_path"`
	// PlayerName is passed to the game as auth_player_name.
	PlayerName string `yaml:"player_name"`
	// Timeout bounds every HTTP request.
	Timeout time.Duration `yaml:"timeout"`
	// Concurrency caps simultaneous transfers per scheduling class.
	Concurrency Concurrency `yaml:"concurrency"`
	// RateLimit caps download bandwidth in bytes per second. Zero disables the cap.
	RateLimit int64 `yaml:"rate_limit"`
	// Features are the feature flags matched by rules.
	Features map[string]bool `yaml:"features,omitempty"`
	// Resolution is the optional game window size.
	Resolution Resolution `yaml:"resolution,omitempty"`
	// StatusAddr enables the gRPC status endpoint when set.
	StatusAddr string `yaml:"status_addr,omitempty"`
	// Offline forbids network access for documents; cached copies are used.
	Offline bool `yaml:"offline,omitempty"`
}

// Concurrency holds the per-class transfer limits.
type Concurrency struct {
	Libraries int `yaml:"libraries"`
	Assets    int `yaml:"assets"`
}

// Resolution is a window size. Zero values mean "let the game decide".
type Resolution struct {
	Width  int `yaml:"width,omitempty"`
	Height int `yaml:"height,omitempty"`
}

// Custom reports a window size the game must be told about.
func (r Resolution) Custom() bool {
	return r.Width > 0 && r.Height > 0
}

const (
	// DefaultConfigFilename is the default filename for launcher settings.
	DefaultConfigFilename = "mcsync.yaml"

	// DefaultManifestURL is the public version manifest.
	DefaultManifestURL = "https://launchermeta.mojang.com/mc/game/version_manifest.json"

	// DefaultResourcesURL is the public asset object store.
	DefaultResourcesURL = "https://resources.download.minecraft.net"

	// DefaultJavaPath is resolved through PATH.
	DefaultJavaPath = "java"

	// DefaultPlayerName is used when the OS user cannot be determined.
	DefaultPlayerName = "Player"

	// DefaultTimeout is the default duration for network operations.
	DefaultTimeout = 30 * time.Second

	// DefaultLibraryConcurrency is the default limit for non-asset transfers.
	DefaultLibraryConcurrency = 8

	// AssetConcurrencyFactor multiplies the library limit when assets is unset.
	AssetConcurrencyFactor = 8

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600

	rootDirName = "minecraft"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// ErrNegativeConcurrency is returned for negative transfer limits.
	ErrNegativeConcurrency = errors.New("concurrency limits must not be negative")
	// ErrNegativeRateLimit is returned for a negative bandwidth cap.
	ErrNegativeRateLimit = errors.New("rate limit must not be negative")
	// ErrInvalidResolution is returned when only one dimension is set or a dimension is negative.
	ErrInvalidResolution = errors.New("resolution needs both width and height")
)

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := new(Config)

	// Defaults always validate.
	_ = Validate(cfg)

	return cfg
}

// Load reads configuration from the provided path and validates it.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}

	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the settings and fills in defaults for empty fields.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.RootDir == "" {
		cfg.RootDir = defaultRootDir()
	}

	if cfg.ManifestURL == "" {
		cfg.ManifestURL = DefaultManifestURL
	}

	if _, err := url.ParseRequestURI(cfg.ManifestURL); err != nil {
		return fmt.Errorf("invalid manifest URL: %w", err)
	}

	if cfg.ResourcesURL == "" {
		cfg.ResourcesURL = DefaultResourcesURL
	}

	if _, err := url.ParseRequestURI(cfg.ResourcesURL); err != nil {
		return fmt.Errorf("invalid resources URL: %w", err)
	}

	cfg.ResourcesURL = strings.TrimRight(cfg.ResourcesURL, "/")

	if cfg.JavaPath == "" {
		cfg.JavaPath = DefaultJavaPath
	}

	if cfg.PlayerName == "" {
		cfg.PlayerName = defaultPlayerName()
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	if err := validateConcurrency(&cfg.Concurrency); err != nil {
		return err
	}

	if cfg.RateLimit < 0 {
		return ErrNegativeRateLimit
	}

	if err := validateResolution(cfg.Resolution); err != nil {
		return err
	}

	if cfg.StatusAddr != "" {
		if _, err := net.ResolveTCPAddr("tcp", cfg.StatusAddr); err != nil {
			return fmt.Errorf("invalid status address: %w", err)
		}
	}

	return nil
}

func validateConcurrency(c *Concurrency) error {
	if c.Libraries < 0 || c.Assets < 0 {
		return ErrNegativeConcurrency
	}

	if c.Libraries == 0 {
		c.Libraries = DefaultLibraryConcurrency
	}

	if c.Assets == 0 {
		c.Assets = c.Libraries * AssetConcurrencyFactor
	}

	return nil
}

func validateResolution(r Resolution) error {
	if r.Width < 0 || r.Height < 0 {
		return ErrInvalidResolution
	}

	if (r.Width == 0) != (r.Height == 0) {
		return ErrInvalidResolution
	}

	return nil
}

// defaultRootDir places the game under the user config directory,
// falling back to the working directory.
func defaultRootDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return rootDirName
	}

	return filepath.Join(base, rootDirName)
}

// defaultPlayerName uses the OS account name, stripped of a Windows domain prefix.
func defaultPlayerName() string {
	current, err := user.Current()
	if err != nil || current.Username == "" {
		return DefaultPlayerName
	}

	name := current.Username
	if i := strings.LastIndex(name, `\`); i >= 0 {
		name = name[i+1:]
	}

	if name == "" {
		return DefaultPlayerName
	}

	return name
}
