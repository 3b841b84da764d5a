package launch

import (
	"maps"
	"regexp"
)

// placeholder matches ${name}. Names never contain a closing brace.
var placeholder = regexp.MustCompile(`\$\{([^}]+)\}`)

// Variables maps placeholder names to their values.
type Variables map[string]string

// Substitute replaces every ${name} in template with its value in one pass.
// Values are not rescanned and unknown names are kept verbatim.
func Substitute(template string, vars Variables) string {
	return placeholder.ReplaceAllStringFunc(template, func(match string) string {
		if value, ok := vars[match[2:len(match)-1]]; ok {
			return value
		}

		return match
	})
}

// SubstituteAll applies Substitute to every template.
func SubstituteAll(templates []string, vars Variables) []string {
	result := make([]string, len(templates))
	for i, template := range templates {
		result[i] = Substitute(template, vars)
	}

	return result
}

// With returns a copy of vars with the extra pairs set.
func (v Variables) With(pairs ...string) Variables {
	result := make(Variables, len(v)+len(pairs)/2)
	maps.Copy(result, v)

	for i := 0; i+1 < len(pairs); i += 2 {
		result[pairs[i]] = pairs[i+1]
	}

	return result
}
