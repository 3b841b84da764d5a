package fetch

import (
	"bufio"
	"context"
	"crypto/sha1" //nolint:gosec // SHA-1 is the digest published by the remote metadata.
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"

	"golang.org/x/time/rate"

	"github.com/oshokin/mcsync/internal/domain/resource"
)

const (
	// DefaultChunkSize is the size of a single body read.
	DefaultChunkSize = 64 << 10

	// WriteBufferSize is the buffer between the body and the file.
	WriteBufferSize = 1 << 20

	// DefaultDirMode is applied to created parent directories.
	DefaultDirMode os.FileMode = 0o755
)

// Options configure a Fetcher.
type Options struct {
	// Client performs requests. Its timeout bounds each transfer. Nil means http.DefaultClient.
	Client *http.Client
	// UserAgent is sent with every request.
	UserAgent string
	// RateLimit caps the combined bandwidth in bytes per second. Zero disables the cap.
	RateLimit int64
	// ChunkSize overrides DefaultChunkSize.
	ChunkSize int
}

// Fetcher downloads descriptors.
type Fetcher struct {
	client    *http.Client
	userAgent string
	chunkSize int
	limiter   *rate.Limiter
}

// New creates a Fetcher.
func New(opts Options) *Fetcher {
	f := &Fetcher{
		client:    opts.Client,
		userAgent: opts.UserAgent,
		chunkSize: opts.ChunkSize,
	}

	if f.client == nil {
		f.client = http.DefaultClient
	}

	if f.chunkSize <= 0 {
		f.chunkSize = DefaultChunkSize
	}

	if opts.RateLimit > 0 {
		f.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), max(f.chunkSize, int(opts.RateLimit)))
	}

	return f
}

// Fetch downloads d.URL into d.Path, truncating any existing file, and adds
// every received chunk to progress when it is not nil.
//
// Network failures, non-2xx statuses and content that does not match the
// descriptor wrap resource.ErrTransport. Local write failures wrap
// resource.ErrFilesystem. A failed transfer may leave a partial file behind.
func (f *Fetcher) Fetch(ctx context.Context, d resource.Descriptor, progress *atomic.Int64) error {
	if err := os.MkdirAll(filepath.Dir(d.Path), DefaultDirMode); err != nil {
		return fmt.Errorf("%w: create %s: %w", resource.ErrFilesystem, filepath.Dir(d.Path), err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.URL, http.NoBody)
	if err != nil {
		return fmt.Errorf("%w: build request for %s: %w", resource.ErrTransport, d.URL, err)
	}

	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	response, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: get %s: %w", resource.ErrTransport, d.URL, err)
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%w: get %s: %s", resource.ErrTransport, d.URL, response.Status)
	}

	file, err := os.Create(filepath.Clean(d.Path))
	if err != nil {
		return fmt.Errorf("%w: create %s: %w", resource.ErrFilesystem, d.Path, err)
	}

	written, digest, copyErr := f.copy(ctx, file, response.Body, progress)

	if closeErr := file.Close(); closeErr != nil && copyErr == nil {
		copyErr = fmt.Errorf("%w: close %s: %w", resource.ErrFilesystem, d.Path, closeErr)
	}

	if copyErr != nil {
		return copyErr
	}

	if written != d.Size {
		return fmt.Errorf("%w: %s: received %d bytes, want %d", resource.ErrTransport, d.URL, written, d.Size)
	}

	if d.Hash != "" && digest != d.Hash {
		return fmt.Errorf("%w: %s: sha1 %s, want %s", resource.ErrTransport, d.URL, digest, d.Hash)
	}

	return nil
}

// copy streams body into file chunk by chunk and returns the byte count and SHA-1.
func (f *Fetcher) copy(
	ctx context.Context,
	file *os.File,
	body io.Reader,
	progress *atomic.Int64,
) (int64, string, error) {
	var (
		writer  = bufio.NewWriterSize(file, WriteBufferSize)
		hasher  = sha1.New() //nolint:gosec // See import.
		chunk   = make([]byte, f.chunkSize)
		written int64
	)

	for {
		n, readErr := body.Read(chunk)
		if n > 0 {
			if f.limiter != nil {
				if err := f.limiter.WaitN(ctx, n); err != nil {
					return written, "", fmt.Errorf("%w: rate limit: %w", resource.ErrTransport, err)
				}
			}

			if _, err := writer.Write(chunk[:n]); err != nil {
				return written, "", fmt.Errorf("%w: write %s: %w", resource.ErrFilesystem, file.Name(), err)
			}

			// hash.Hash never returns an error.
			_, _ = hasher.Write(chunk[:n])

			written += int64(n)

			if progress != nil {
				progress.Add(int64(n))
			}
		}

		if errors.Is(readErr, io.EOF) {
			break
		}

		if readErr != nil {
			return written, "", fmt.Errorf("%w: read body: %w", resource.ErrTransport, readErr)
		}
	}

	if err := writer.Flush(); err != nil {
		return written, "", fmt.Errorf("%w: flush %s: %w", resource.ErrFilesystem, file.Name(), err)
	}

	return written, hex.EncodeToString(hasher.Sum(nil)), nil
}
