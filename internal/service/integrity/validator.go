package integrity

import (
	"context"
	"crypto/sha1" //nolint:gosec // SHA-1 is the digest published by the remote metadata.
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/semaphore"

	"github.com/oshokin/mcsync/internal/domain/resource"
)

// hashBufferSize is the read size used while hashing.
const hashBufferSize = 256 << 10

// Validator checks local files against descriptors.
type Validator struct {
	// hashing bounds concurrent digest computations.
	hashing *semaphore.Weighted
}

// New creates a validator hashing at most workers files at once.
// Zero or a negative value means runtime.NumCPU().
func New(workers int) *Validator {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	return &Validator{
		hashing: semaphore.NewWeighted(int64(workers)),
	}
}

// Check reports whether the file at path has exactly the given size and SHA-1.
// A missing file is simply invalid. Other I/O failures wrap resource.ErrFilesystem.
func (v *Validator) Check(ctx context.Context, path, hash string, size int64) (bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("%w: stat %s: %w", resource.ErrFilesystem, path, err)
	}

	if !info.Mode().IsRegular() || info.Size() != size {
		return false, nil
	}

	if err = v.hashing.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer v.hashing.Release(1)

	digest, err := FileSHA1(path)
	if err != nil {
		return false, err
	}

	return digest == strings.ToLower(hash), nil
}

// CheckDescriptor is Check for a descriptor.
func (v *Validator) CheckDescriptor(ctx context.Context, d resource.Descriptor) (bool, error) {
	return v.Check(ctx, d.Path, d.Hash, d.Size)
}

// FileSHA1 streams a file through SHA-1 and returns the lowercase hex digest.
func FileSHA1(path string) (string, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("%w: open %s: %w", resource.ErrFilesystem, path, err)
	}

	defer func() {
		_ = file.Close()
	}()

	hasher := sha1.New() //nolint:gosec // See import.
	if _, err = io.CopyBuffer(hasher, file, make([]byte, hashBufferSize)); err != nil {
		return "", fmt.Errorf("%w: read %s: %w", resource.ErrFilesystem, path, err)
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}
