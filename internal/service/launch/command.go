package launch

import (
	"fmt"

	"github.com/oshokin/mcsync/internal/domain/platform"
	"github.com/oshokin/mcsync/internal/domain/resource"
	"github.com/oshokin/mcsync/internal/domain/rule"
	"github.com/oshokin/mcsync/internal/metadata"
)

const (
	// FeatureCustomResolution is enabled when the window size is configured.
	FeatureCustomResolution = "has_custom_resolution"
	// FeatureDemoUser enables the demo mode arguments.
	FeatureDemoUser = "is_demo_user"
)

// legacyJVMArguments are used by versions that only carry minecraftArguments.
//
//nolint:gochecknoglobals // Read-only template list.
var legacyJVMArguments = []string{
	"-Djava.library.path=${natives_directory}",
	"-cp",
	"${classpath}",
}

// Invocation is a fully substituted command line.
type Invocation struct {
	// Java is the executable.
	Java string
	// Dir is the working directory of the process.
	Dir string
	// Env is appended to the launcher environment.
	Env []string

	JVM       []string
	MainClass string
	Game      []string
}

// Args returns the arguments after the executable.
func (i *Invocation) Args() []string {
	args := make([]string, 0, len(i.JVM)+1+len(i.Game))
	args = append(args, i.JVM...)
	args = append(args, i.MainClass)

	return append(args, i.Game...)
}

// BuildCommand assembles the invocation of a version.
// Arguments excluded by their rules are dropped before substitution.
func BuildCommand(
	v *metadata.Version,
	layout resource.Layout,
	pctx platform.Context,
	vars Variables,
	java string,
) (*Invocation, error) {
	if v == nil || v.MainClass == "" {
		return nil, fmt.Errorf("%w: version has no main class", resource.ErrParse)
	}

	var jvm, game []string

	if v.Arguments != nil {
		jvm = included(v.Arguments.JVM, pctx)
		game = included(v.Arguments.Game, pctx)
	} else {
		jvm = legacyJVMArguments
		game = v.LegacyArguments()
	}

	jvm = SubstituteAll(jvm, vars)

	if logging := v.ClientLogging(); logging != nil && logging.Argument != "" {
		path, err := layout.LogConfig(logging.File.ID)
		if err != nil {
			return nil, fmt.Errorf("log config: %w", err)
		}

		jvm = append(jvm, Substitute(logging.Argument, vars.With("path", path)))
	}

	return &Invocation{
		Java:      java,
		Dir:       layout.Root(),
		JVM:       jvm,
		MainClass: v.MainClass,
		Game:      SubstituteAll(game, vars),
	}, nil
}

// included flattens the values of arguments whose rules match.
func included(arguments []metadata.Argument, pctx platform.Context) []string {
	var result []string

	for _, argument := range arguments {
		if rule.Evaluate(argument.Rules, pctx) {
			result = append(result, argument.Values...)
		}
	}

	return result
}
