// Package rule evaluates the allow/disallow conditions attached to libraries
// and launch arguments.
//
// A rule starts from its action and is inverted when any present filter does
// not match the platform context. A set allows when at least one of its rules
// ends up as allow. A nil *Set means "no conditions" and always allows, while
// a present but empty set never does.
package rule
