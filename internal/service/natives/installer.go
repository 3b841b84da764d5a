package natives

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/klauspost/compress/zip"

	"github.com/oshokin/mcsync/internal/domain/resource"
)

const (
	// DefaultDirMode is applied to extracted directories.
	DefaultDirMode os.FileMode = 0o755

	// DefaultFileMode is applied to extracted files that carry no permissions.
	DefaultFileMode os.FileMode = 0o644
)

var errIllegalPath = errors.New("illegal file path in archive")

// Installer extracts native archives.
type Installer struct {
	mu sync.Mutex
}

// NewInstaller creates an Installer.
func NewInstaller() *Installer {
	return &Installer{}
}

// Install extracts every entry of the zip archive at archivePath into
// nativesDir, skipping entries whose name starts with one of the exclude
// prefixes. Entries escaping nativesDir abort the extraction.
// All failures wrap resource.ErrFilesystem.
func (i *Installer) Install(ctx context.Context, archivePath, nativesDir string, exclude []string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("%w: open archive %s: %w", resource.ErrFilesystem, archivePath, err)
	}

	defer func() {
		_ = reader.Close()
	}()

	if err = os.MkdirAll(nativesDir, DefaultDirMode); err != nil {
		return fmt.Errorf("%w: create %s: %w", resource.ErrFilesystem, nativesDir, err)
	}

	root := filepath.Clean(nativesDir)

	for _, entry := range reader.File {
		if err = ctx.Err(); err != nil {
			return err
		}

		if excluded(entry.Name, exclude) {
			continue
		}

		target := filepath.Join(root, filepath.FromSlash(entry.Name))

		// Prevent path traversal.
		if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
			return fmt.Errorf("%w: %s: %w", resource.ErrFilesystem, entry.Name, errIllegalPath)
		}

		if entry.FileInfo().IsDir() {
			if err = os.MkdirAll(target, DefaultDirMode); err != nil {
				return fmt.Errorf("%w: create directory %s: %w", resource.ErrFilesystem, target, err)
			}

			continue
		}

		if err = extractFile(entry, target); err != nil {
			return fmt.Errorf("%w: %w", resource.ErrFilesystem, err)
		}
	}

	return nil
}

func extractFile(entry *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), DefaultDirMode); err != nil {
		return fmt.Errorf("create parent dir for %s: %w", target, err)
	}

	mode := entry.Mode().Perm()
	if mode == 0 {
		mode = DefaultFileMode
	}

	source, err := entry.Open()
	if err != nil {
		return fmt.Errorf("open entry %s: %w", entry.Name, err)
	}

	defer func() {
		_ = source.Close()
	}()

	out, err := os.OpenFile(filepath.Clean(target), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("create file %s: %w", target, err)
	}

	if _, err = io.Copy(out, source); err != nil { //nolint:gosec // Sizes come from verified archives.
		_ = out.Close()

		return fmt.Errorf("write file %s: %w", target, err)
	}

	if err = out.Close(); err != nil {
		return fmt.Errorf("close file %s: %w", target, err)
	}

	return nil
}

func excluded(name string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if prefix != "" && strings.HasPrefix(name, prefix) {
			return true
		}
	}

	return false
}

// Installed reports whether the natives directory exists.
func Installed(nativesDir string) (bool, error) {
	info, err := os.Stat(nativesDir)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("%w: stat %s: %w", resource.ErrFilesystem, nativesDir, err)
	}

	return info.IsDir(), nil
}
