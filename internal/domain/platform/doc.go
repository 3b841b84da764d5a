// Package platform describes the machine a release is synced for.
//
// A Context is an explicit value: rule evaluation and manifest compilation
// take it as a parameter and never look at the running process themselves.
// Detect builds the default Context for the current machine.
package platform
