// Package internal contains the implementation packages of the xslate CLI.
//
// # Package Organization
//
// The packages are layered from the stylesheet text up to the command line:
//
//   - source: Stylesheet documents parsed into a positioned node tree
//   - attrtype: Attribute value types and their coercion rules
//   - contentmodel: Content models and child sequence validation
//   - instruction: Instruction definitions, the registry, and setup
//   - output: Output contexts, event recording, and serialization
//   - engine: Compile a stylesheet once, run it many times
//   - errors: Structured errors and per-file diagnostics
//   - config: Configuration loading and validation
//   - logging: Structured logging on top of log/slog
//   - watcher: File system monitoring with debouncing
//   - validation: Path and extension checks for user input
//   - version: Build information
//
// # Two Phases
//
// Setup validates every element against the content model of its
// instruction and coerces its attributes. It either fails with an error
// naming the instruction and location, or produces an immutable instruction
// tree. Instantiation walks that tree against an output context and only
// fails on run-time conditions such as an unknown template name.
//
// A compiled tree holds no per-run state, so one stylesheet can be
// instantiated from many goroutines at once.
package internal
