package rule

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/mcsync/internal/domain/platform"
)

var (
	linux   = platform.Context{OS: platform.OSLinux, Arch: platform.ArchX86_64}
	windows = platform.Context{OS: platform.OSWindows, Arch: platform.ArchX86_64}
	mac     = platform.Context{OS: platform.OSX, Arch: platform.ArchARM64}
)

// TestEvaluate_DisallowOtherOSInverts checks that a mismatching OS filter turns disallow into allow.
func TestEvaluate_DisallowOtherOSInverts(t *testing.T) {
	t.Parallel()

	set := Set{{Action: Disallow, OS: &OSFilter{Name: platform.OSLinux}}}

	require.True(t, Evaluate(&set, windows))
	require.False(t, Evaluate(&set, linux))
}

// TestEvaluate_NilVersusEmpty distinguishes an absent rule set from an empty one.
func TestEvaluate_NilVersusEmpty(t *testing.T) {
	t.Parallel()

	require.True(t, Evaluate(nil, linux))

	empty := Set{}
	require.False(t, Evaluate(&empty, linux))
}

// TestEvaluate_AnyAllowWins verifies OR semantics regardless of order.
func TestEvaluate_AnyAllowWins(t *testing.T) {
	t.Parallel()

	// Typical library: allowed everywhere except osx.
	set := Set{
		{Action: Allow},
		{Action: Disallow, OS: &OSFilter{Name: platform.OSX}},
	}

	// Disallow on osx stays disallow, but the unconditional allow still matches.
	require.True(t, Evaluate(&set, mac))
	require.True(t, Evaluate(&set, linux))

	// Only-osx library.
	onlyMac := Set{{Action: Allow, OS: &OSFilter{Name: platform.OSX}}}
	require.True(t, Evaluate(&onlyMac, mac))
	require.False(t, Evaluate(&onlyMac, windows))
}

// TestEvaluate_Arch covers the arch filter.
func TestEvaluate_Arch(t *testing.T) {
	t.Parallel()

	set := Set{{Action: Allow, OS: &OSFilter{Arch: platform.ArchX86}}}

	require.False(t, Evaluate(&set, linux))
	require.True(t, Evaluate(&set, platform.Context{OS: platform.OSWindows, Arch: platform.ArchX86}))
}

// TestEvaluate_Features checks that missing features count as false.
func TestEvaluate_Features(t *testing.T) {
	t.Parallel()

	set := Set{{Action: Allow, Features: map[string]bool{"has_custom_resolution": true}}}
	require.False(t, Evaluate(&set, linux))
	require.True(t, Evaluate(&set, linux.WithFeatures(map[string]bool{"has_custom_resolution": true})))

	negative := Set{{Action: Allow, Features: map[string]bool{"is_demo_user": false}}}
	require.True(t, Evaluate(&negative, linux))
	require.False(t, Evaluate(&negative, linux.WithFeatures(map[string]bool{"is_demo_user": true})))
}

// TestEvaluate_VersionFilterIgnored ensures version filters neither block nor invert.
func TestEvaluate_VersionFilterIgnored(t *testing.T) {
	t.Parallel()

	set := Set{{Action: Disallow, OS: &OSFilter{Name: platform.OSX, Version: "^10\\.5\\.\\d$"}}}

	require.True(t, set.HasVersionFilter())
	require.Equal(t, Disallow, set[0].Effective(mac))
	require.Equal(t, Allow, set[0].Effective(linux))
}

// TestEvaluate_InvertsOnce checks that two failing filters do not cancel each other out.
func TestEvaluate_InvertsOnce(t *testing.T) {
	t.Parallel()

	r := Rule{Action: Allow, OS: &OSFilter{Name: platform.OSX, Arch: platform.ArchX86}}

	require.Equal(t, Disallow, r.Effective(linux))
}

// TestAction_UnmarshalJSON rejects unknown actions.
func TestAction_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	var set Set

	require.NoError(t, json.Unmarshal([]byte(`[{"action":"allow","os":{"name":"linux"}},{"action":"disallow"}]`), &set))
	require.Len(t, set, 2)
	require.Equal(t, Allow, set[0].Action)
	require.Equal(t, platform.OSLinux, set[0].OS.Name)

	var a Action
	require.ErrorIs(t, json.Unmarshal([]byte(`"maybe"`), &a), ErrUnknownAction)
}
