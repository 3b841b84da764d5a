package syncer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v4/disk"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/oshokin/mcsync/internal/domain/resource"
	"github.com/oshokin/mcsync/internal/logger"
	"github.com/oshokin/mcsync/internal/service/natives"
)

const (
	// DefaultLibraryLimit bounds concurrent non-asset transfers.
	DefaultLibraryLimit = 8

	// AssetLimitFactor derives the asset limit from the library limit.
	AssetLimitFactor = 8

	// spaceMargin is kept free on top of the bytes about to be written.
	spaceMargin = 64 << 20
)

// ErrInsufficientSpace is returned when the target filesystem cannot hold the pending downloads.
var ErrInsufficientSpace = errors.New("insufficient disk space")

// Validator checks whether a local file matches a descriptor.
type Validator interface {
	Check(ctx context.Context, path, hash string, size int64) (bool, error)
}

// Fetcher downloads a descriptor and adds received bytes to progress.
type Fetcher interface {
	Fetch(ctx context.Context, d resource.Descriptor, progress *atomic.Int64) error
}

// Installer extracts a native archive.
type Installer interface {
	Install(ctx context.Context, archivePath, nativesDir string, exclude []string) error
}

// FreeSpaceFunc reports the free bytes of the filesystem holding path.
type FreeSpaceFunc func(ctx context.Context, path string) (uint64, error)

// Limits bound concurrent transfers per scheduling class.
type Limits struct {
	Assets    int
	Libraries int
}

// withDefaults fills unset limits. Assets default to AssetLimitFactor times the library limit.
func (l Limits) withDefaults() Limits {
	if l.Libraries <= 0 {
		l.Libraries = DefaultLibraryLimit
	}

	if l.Assets <= 0 {
		l.Assets = l.Libraries * AssetLimitFactor
	}

	return l
}

// Options tune a single Sync call.
type Options struct {
	// Force skips validation and fetches everything.
	Force bool
	// Limits bound concurrent transfers.
	Limits Limits
	// SpaceRoot enables the free space check against this directory.
	SpaceRoot string
	// ProgressInterval enables periodic progress logs.
	ProgressInterval time.Duration
	// OnSession is called with the session before any work starts.
	OnSession func(*Session)
}

// Orchestrator runs syncs.
type Orchestrator struct {
	validator       Validator
	fetcher         Fetcher
	installer       Installer
	validateWorkers int
	freeSpace       FreeSpaceFunc
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithValidationWorkers overrides the number of concurrent validations.
func WithValidationWorkers(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.validateWorkers = n
		}
	}
}

// WithFreeSpace replaces the free-space lookup.
func WithFreeSpace(fn FreeSpaceFunc) Option {
	return func(o *Orchestrator) {
		if fn != nil {
			o.freeSpace = fn
		}
	}
}

// New creates an Orchestrator.
func New(validator Validator, fetcher Fetcher, installer Installer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		validator:       validator,
		fetcher:         fetcher,
		installer:       installer,
		validateWorkers: runtime.NumCPU(),
		freeSpace:       diskFree,
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// plan is what an entry needs after validation.
type plan uint8

const (
	planNone plan = iota
	planFetch
	planExtract
)

// run is the mutable state of one Sync call.
type run struct {
	*Orchestrator

	session *Session
	plans   []plan

	// cancel stops scheduling. Workers call it before releasing their slot.
	cancel   context.CancelCauseFunc
	failOnce sync.Once
	firstErr error
}

// Sync validates the descriptors and pulls whatever is missing or corrupt.
// The report is returned even when err is not nil.
func (o *Orchestrator) Sync(ctx context.Context, descriptors []resource.Descriptor, opts Options) (*Report, error) {
	r := &run{
		Orchestrator: o,
		session:      newSession(descriptors),
		plans:        make([]plan, len(descriptors)),
	}

	ctx = logger.WithName(ctx, "syncer")
	ctx = logger.WithKV(ctx, "session", r.session.ID.String())

	if opts.OnSession != nil {
		opts.OnSession(r.session)
	}

	err := r.execute(ctx, opts)

	r.skipUnfinished()

	report := r.session.report()

	if err != nil {
		logger.ErrorKV(ctx, "Sync failed",
			"error", err,
			"fetched", report.Fetches(),
			"skipped", report.Count(Skipped))

		return report, err
	}

	logger.InfoKV(ctx, "Sync finished",
		"entries", len(report.Entries),
		"valid", report.Count(Valid),
		"fetched", report.Fetches(),
		"extracted", report.Count(Extracted)+report.Count(Installed),
		"transferred", humanize.IBytes(uint64(max(report.Transferred, 0))),
		"duration", report.Duration.Round(time.Millisecond))

	return report, nil
}

func (r *run) execute(ctx context.Context, opts Options) error {
	if opts.Force {
		for i, d := range r.session.descriptors {
			r.plans[i] = planFetch
			r.session.outcomes[i] = Pending
			r.session.bytesTotal.Add(d.Size)
			r.session.total.Add(1)
		}
	} else if err := r.validate(ctx); err != nil {
		return err
	}

	pending := r.session.total.Load()
	if pending == 0 {
		logger.Info(ctx, "Everything is up to date")

		return nil
	}

	if opts.SpaceRoot != "" {
		if err := r.checkSpace(ctx, opts.SpaceRoot); err != nil {
			return err
		}
	}

	logger.InfoKV(ctx, "Pulling entries",
		"count", pending,
		"size", humanize.IBytes(uint64(max(r.session.bytesTotal.Load(), 0))))

	if opts.ProgressInterval > 0 {
		stop := r.reportProgress(ctx, opts.ProgressInterval)
		defer stop()
	}

	return r.pull(ctx, opts.Limits.withDefaults())
}

// validate decides a plan for every descriptor.
func (r *run) validate(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.validateWorkers)

	for i := range r.session.descriptors {
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			d := r.session.descriptors[i]

			p, err := r.decide(gctx, d)
			if err != nil {
				// Another entry failed first, this one stays unchecked.
				if gctx.Err() != nil && errors.Is(err, context.Canceled) {
					return nil
				}

				r.session.outcomes[i] = Failed
				r.session.errs[i] = err

				return &resource.EntryError{Descriptor: d, Stage: resource.StageValidate, Err: err}
			}

			r.plans[i] = p

			switch p {
			case planNone:
				r.session.outcomes[i] = Valid
			case planFetch:
				r.session.outcomes[i] = Pending
				r.session.bytesTotal.Add(d.Size)
				r.session.total.Add(1)
			case planExtract:
				r.session.outcomes[i] = Pending
				r.session.total.Add(1)
			}

			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	if err != nil {
		// Entries validated before the failure are not pulled.
		r.session.total.Store(0)
		r.session.bytesTotal.Store(0)

		return err
	}

	return nil
}

// decide validates one descriptor. Native archives also need their natives directory.
func (r *run) decide(ctx context.Context, d resource.Descriptor) (plan, error) {
	ok, err := r.validator.Check(ctx, d.Path, d.Hash, d.Size)
	if err != nil {
		return planNone, err
	}

	if !ok {
		return planFetch, nil
	}

	if d.Kind != resource.KindNativeArchive {
		return planNone, nil
	}

	installed, err := natives.Installed(d.NativesDir)
	if err != nil {
		return planNone, err
	}

	if installed {
		return planNone, nil
	}

	return planExtract, nil
}

// pull runs the scheduling loops and waits for every started worker.
func (r *run) pull(ctx context.Context, limits Limits) error {
	var assets, others []int

	for i, p := range r.plans {
		if p == planNone {
			continue
		}

		if r.session.descriptors[i].IsAsset() {
			assets = append(assets, i)
		} else {
			others = append(others, i)
		}
	}

	schedulingCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	r.cancel = cancel

	var g errgroup.Group

	g.Go(func() error {
		r.schedule(ctx, schedulingCtx, &g, assets, semaphore.NewWeighted(int64(limits.Assets)))

		return nil
	})

	g.Go(func() error {
		r.schedule(ctx, schedulingCtx, &g, others, semaphore.NewWeighted(int64(limits.Libraries)))

		return nil
	})

	_ = g.Wait()

	if r.firstErr != nil {
		return r.firstErr
	}

	// The caller gave up while nothing had failed yet.
	return ctx.Err()
}

// schedule starts a worker per index while slots are available and scheduling is not stopped.
// Workers run on ctx so transfers already started are not aborted by a failure elsewhere.
func (r *run) schedule(ctx, schedulingCtx context.Context, g *errgroup.Group, indices []int, slots *semaphore.Weighted) {
	for _, i := range indices {
		if err := slots.Acquire(schedulingCtx, 1); err != nil {
			return
		}

		// A failing worker cancels before releasing, so a slot it freed is never reused.
		if schedulingCtx.Err() != nil {
			slots.Release(1)

			return
		}

		g.Go(func() error {
			defer slots.Release(1)

			if err := r.work(ctx, i); err != nil {
				r.fail(err)
			}

			return nil
		})
	}
}

// work pulls one entry.
func (r *run) work(ctx context.Context, i int) error {
	d := r.session.descriptors[i]

	if r.plans[i] == planFetch {
		r.session.outcomes[i] = Fetching

		if err := r.fetcher.Fetch(ctx, d, &r.session.transferred); err != nil {
			return r.failed(i, resource.StageFetch, err)
		}

		r.session.outcomes[i] = Fetched
	}

	if d.Kind == resource.KindNativeArchive {
		r.session.outcomes[i] = Extracting

		if err := r.installer.Install(ctx, d.Path, d.NativesDir, d.ExtractExclude); err != nil {
			return r.failed(i, resource.StageExtract, err)
		}

		if r.plans[i] == planFetch {
			r.session.outcomes[i] = Installed
		} else {
			r.session.outcomes[i] = Extracted
		}
	}

	r.session.completed.Add(1)

	logger.DebugKV(ctx, "Entry done",
		"kind", d.Kind.String(),
		"path", d.Path,
		"outcome", r.session.outcomes[i].String())

	return nil
}

func (r *run) failed(i int, stage resource.Stage, err error) error {
	r.session.outcomes[i] = Failed
	r.session.errs[i] = err

	return &resource.EntryError{Descriptor: r.session.descriptors[i], Stage: stage, Err: err}
}

// fail records the first error and stops scheduling.
func (r *run) fail(err error) {
	r.failOnce.Do(func() {
		r.firstErr = err
	})

	r.cancel(err)
}

// skipUnfinished marks entries that never ran.
func (r *run) skipUnfinished() {
	for i, outcome := range r.session.outcomes {
		if outcome == Unchecked || outcome == Pending {
			r.session.outcomes[i] = Skipped
		}
	}
}

func (r *run) checkSpace(ctx context.Context, root string) error {
	free, err := r.freeSpace(ctx, root)
	if err != nil {
		logger.WarnKV(ctx, "Unable to determine free disk space", "error", err)

		return nil
	}

	need := uint64(max(r.session.bytesTotal.Load(), 0)) + spaceMargin
	if free < need {
		return fmt.Errorf("%w: need %s, %s free on %s",
			ErrInsufficientSpace, humanize.IBytes(need), humanize.IBytes(free), root)
	}

	return nil
}

// reportProgress logs progress until the returned stop function is called.
func (r *run) reportProgress(ctx context.Context, interval time.Duration) func() {
	done := make(chan struct{})

	var wg sync.WaitGroup

	wg.Go(func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				p := r.session.Progress()
				logger.InfoKV(ctx, "Sync progress",
					"completed", fmt.Sprintf("%d/%d", p.Completed, p.Total),
					"transferred", fmt.Sprintf("%s/%s",
						humanize.IBytes(uint64(max(p.Bytes, 0))),
						humanize.IBytes(uint64(max(p.BytesTotal, 0)))))
			}
		}
	})

	return func() {
		close(done)
		wg.Wait()
	}
}

// diskFree asks gopsutil about the nearest existing ancestor of path.
func diskFree(ctx context.Context, path string) (uint64, error) {
	for {
		if _, err := os.Stat(path); err == nil {
			break
		}

		parent := filepath.Dir(path)
		if parent == path {
			break
		}

		path = parent
	}

	usage, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("disk usage of %s: %w", path, err)
	}

	return usage.Free, nil
}
