package release

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/oshokin/mcsync/internal/config"
	"github.com/oshokin/mcsync/internal/domain/platform"
	"github.com/oshokin/mcsync/internal/domain/resource"
	"github.com/oshokin/mcsync/internal/logger"
	"github.com/oshokin/mcsync/internal/metadata"
	"github.com/oshokin/mcsync/internal/repository/document"
	"github.com/oshokin/mcsync/internal/service/compiler"
	"github.com/oshokin/mcsync/internal/service/fetch"
	"github.com/oshokin/mcsync/internal/service/integrity"
	"github.com/oshokin/mcsync/internal/service/launch"
	"github.com/oshokin/mcsync/internal/service/natives"
	"github.com/oshokin/mcsync/internal/service/status"
	"github.com/oshokin/mcsync/internal/service/syncer"
	"github.com/oshokin/mcsync/internal/version"
)

// progressInterval is how often a running sync logs its progress.
const progressInterval = 5 * time.Second

// ErrUnknownVersion is returned when neither the manifest nor the cache knows the version.
var ErrUnknownVersion = errors.New("unknown version")

// Options controls a release command.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// Config replaces loading ConfigPath when set.
	Config *config.Config
	// Version is an id, "release" or "snapshot". Empty means the latest release.
	Version string
	// RootDir overrides the configured game directory.
	RootDir string
	// Offline overrides the configured offline mode when true.
	Offline bool
	// Force re-downloads every file.
	Force bool
	// SkipSync launches with whatever is on disk.
	SkipSync bool
	// Snapshots also lists snapshots.
	Snapshots bool
	// HTTPClient overrides the client built from the configured timeout.
	HTTPClient *http.Client
	// Platform overrides detection.
	Platform *platform.Context
}

// session holds the components shared by the commands.
type session struct {
	cfg      *config.Config
	layout   resource.Layout
	platform platform.Context
	http     *http.Client
	store    *document.Store
	status   *status.Server
}

// open loads the configuration and builds the components.
func open(ctx context.Context, opts *Options) (*session, error) {
	cfg := opts.Config
	if cfg == nil {
		loaded, err := config.Load(opts.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("load configuration: %w", err)
		}

		cfg = loaded
	}

	if opts.RootDir != "" {
		cfg.RootDir = opts.RootDir
	}

	if opts.Offline {
		cfg.Offline = true
	}

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("validate configuration: %w", err)
	}

	layout, err := resource.NewLayout(cfg.RootDir)
	if err != nil {
		return nil, fmt.Errorf("game directory: %w", err)
	}

	features := launchFeatures(cfg)

	var pctx platform.Context
	if opts.Platform != nil {
		pctx = opts.Platform.WithFeatures(features)
	} else if pctx, err = platform.Detect(ctx, features); err != nil {
		return nil, err
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	s := &session{
		cfg:      cfg,
		layout:   layout,
		platform: pctx,
		http:     httpClient,
		store: document.NewStore(document.Options{
			Layout:      layout,
			Getter:      metadata.NewClient(httpClient, version.UserAgent()),
			ManifestURL: cfg.ManifestURL,
			Offline:     cfg.Offline,
		}),
	}

	logger.InfoKV(ctx, "Session opened",
		"root", layout.Root(),
		"platform", pctx.String(),
		"offline", cfg.Offline)

	return s, nil
}

// launchFeatures is the feature set rules see. Configured flags override
// the derived ones.
func launchFeatures(cfg *config.Config) map[string]bool {
	features := make(map[string]bool, len(cfg.Features)+1)
	if cfg.Resolution.Custom() {
		features[launch.FeatureCustomResolution] = true
	}

	maps.Copy(features, cfg.Features)

	return features
}

// serveStatus starts the status endpoint when one is configured.
// The returned function stops it and waits for the shutdown.
func (s *session) serveStatus(ctx context.Context) (func(), error) {
	if s.cfg.StatusAddr == "" {
		return func() {}, nil
	}

	server, err := status.Listen(ctx, s.cfg.StatusAddr)
	if err != nil {
		return nil, err
	}

	s.status = server

	serveCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)

		if serveErr := server.Serve(serveCtx); serveErr != nil {
			logger.ErrorKV(ctx, "Status endpoint failed", "error", serveErr)
		}
	}()

	return func() {
		cancel()
		<-done
	}, nil
}

// resolve finds the version descriptor. Versions missing from the manifest,
// or requested while the manifest is unavailable offline, are read from the cache.
func (s *session) resolve(ctx context.Context, id string) (*metadata.Version, error) {
	manifest, err := s.store.Manifest(ctx)
	if err != nil {
		if !errors.Is(err, document.ErrOffline) || isAlias(id) {
			return nil, err
		}

		return s.local(ctx, id)
	}

	ref, ok := manifest.Find(id)
	if !ok {
		if isAlias(id) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownVersion, id)
		}

		return s.local(ctx, id)
	}

	return s.store.Version(ctx, ref)
}

func (s *session) local(ctx context.Context, id string) (*metadata.Version, error) {
	v, err := s.store.LocalVersion(ctx, id)
	if errors.Is(err, document.ErrNotFound) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVersion, id)
	}

	if err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Using locally installed version", "version", id)

	return v, nil
}

// sync compiles the version and pulls whatever is missing.
func (s *session) sync(ctx context.Context, v *metadata.Version, force bool) (*syncer.Report, error) {
	if err := launch.Guard(ctx, s.layout.RunningMarker(v.ID)); err != nil {
		return nil, err
	}

	index, err := s.store.AssetIndex(ctx, v)
	if err != nil {
		return nil, fmt.Errorf("asset index: %w", err)
	}

	descriptors, err := compiler.Compile(ctx, v, index, s.layout, s.platform,
		compiler.WithResourcesURL(s.cfg.ResourcesURL))
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", v.ID, err)
	}

	var fetcher syncer.Fetcher = fetch.New(fetch.Options{
		Client:    s.http,
		UserAgent: version.UserAgent(),
		RateLimit: s.cfg.RateLimit,
	})
	if s.cfg.Offline {
		fetcher = offlineFetcher{}
	}

	orchestrator := syncer.New(integrity.New(0), fetcher, natives.NewInstaller())

	s.status.Syncing()

	report, err := orchestrator.Sync(ctx, descriptors, syncer.Options{
		Force: force,
		Limits: syncer.Limits{
			Assets:    s.cfg.Concurrency.Assets,
			Libraries: s.cfg.Concurrency.Libraries,
		},
		SpaceRoot:        s.layout.Root(),
		ProgressInterval: progressInterval,
	})
	if err != nil {
		return report, err
	}

	s.status.Synced()

	return report, nil
}

// offlineFetcher refuses every transfer.
type offlineFetcher struct{}

func (offlineFetcher) Fetch(_ context.Context, d resource.Descriptor, _ *atomic.Int64) error {
	return fmt.Errorf("%w: %s: %w", resource.ErrTransport, d.URL, document.ErrOffline)
}

func isAlias(id string) bool {
	return id == "" || id == metadata.TypeRelease || id == metadata.TypeSnapshot
}
