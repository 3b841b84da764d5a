package platform

import (
	"context"
	"fmt"
	"maps"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v4/host"
)

// OS names as they appear in release rules.
const (
	OSLinux   = "linux"
	OSWindows = "windows"
	OSX       = "osx"
)

// Architecture names as they appear in release rules.
const (
	ArchX86    = "x86"
	ArchX86_64 = "x86_64"
	ArchARM64  = "arm64"
	ArchARM    = "arm"
)

// Context is the platform and feature set rules are evaluated against.
type Context struct {
	// OS is the operating system in rule vocabulary (linux, windows, osx).
	OS string
	// Arch is the CPU architecture in rule vocabulary.
	Arch string
	// OSVersion is informational. Rules carrying a version filter ignore it.
	OSVersion string
	// Features maps feature flags to their values. Missing flags are false.
	Features map[string]bool
}

// Feature reports the value of a feature flag, false when absent.
func (c Context) Feature(name string) bool {
	return c.Features[name]
}

// Bitness returns "64" or "32", used for the ${arch} token in native classifiers.
func (c Context) Bitness() string {
	switch c.Arch {
	case ArchX86, ArchARM:
		return "32"
	default:
		return "64"
	}
}

// WithFeatures returns a copy of the context with the given flags merged in.
func (c Context) WithFeatures(features map[string]bool) Context {
	merged := make(map[string]bool, len(c.Features)+len(features))
	maps.Copy(merged, c.Features)
	maps.Copy(merged, features)

	c.Features = merged

	return c
}

func (c Context) String() string {
	if c.OSVersion == "" {
		return c.OS + "/" + c.Arch
	}

	return fmt.Sprintf("%s/%s (%s)", c.OS, c.Arch, c.OSVersion)
}

// NormalizeOS maps a GOOS value to rule vocabulary.
// Unknown systems are returned unchanged.
func NormalizeOS(goos string) string {
	switch goos {
	case "darwin":
		return OSX
	default:
		return goos
	}
}

// NormalizeArch maps a GOARCH value to rule vocabulary.
// Unknown architectures are returned unchanged.
func NormalizeArch(goarch string) string {
	switch goarch {
	case "amd64":
		return ArchX86_64
	case "386":
		return ArchX86
	case "arm64":
		return ArchARM64
	case "arm":
		return ArchARM
	default:
		return goarch
	}
}

// Detect builds the context for the running machine.
// OS version detection is best effort; only cancellation is reported as an error.
func Detect(ctx context.Context, features map[string]bool) (Context, error) {
	result := Context{
		OS:   NormalizeOS(runtime.GOOS),
		Arch: NormalizeArch(runtime.GOARCH),
	}.WithFeatures(features)

	_, _, version, err := host.PlatformInformationWithContext(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return Context{}, fmt.Errorf("platform detection cancelled: %w", ctx.Err())
		}

		return result, nil
	}

	result.OSVersion = strings.TrimSpace(version)

	return result, nil
}
