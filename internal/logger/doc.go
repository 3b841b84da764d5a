// Package logger wraps zap for the launcher:
//   - a global sugared logger writing a console format to stderr,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level parsing and adjustment,
//   - helpers such as Infof and ErrorKV that take the logger from a context.
//
// Services receive a context and log through it, so every line carries the
// component name and session fields attached upstream. Stdout stays free for
// command output such as version listings.
package logger
