// Package launch turns a version descriptor into a game process:
//   - Substitute expands ${name} placeholders in argument templates,
//   - NewVariables collects the values known to the launcher,
//   - BuildCommand filters arguments by rules and substitutes them,
//   - Guard and Run manage the running marker and the child process.
package launch
