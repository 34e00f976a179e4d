// Package cmd provides the command-line interface for xslate.
//
// This package implements all CLI commands using the Cobra framework.
//
// # Available Commands
//
//   - transform: Compile a stylesheet and render its output
//   - validate: Compile stylesheets concurrently and report diagnostics
//   - events: Print the output events a stylesheet produces
//   - list: List the registered instructions with their attributes
//   - watch: Recompile stylesheets when they change on disk
//   - config: Show or validate the resolved configuration
//   - version: Show build information
//
// # Command Examples
//
//	// Render to a file as HTML
//	xslate transform page.xsl --method html -o page.html
//
//	// Validate every stylesheet below the watch paths as JSON
//	xslate validate --format json
//
//	// Inspect the events of a run
//	xslate events page.xsl --format yaml
//
// # Configuration Integration
//
// Commands respect configuration from multiple sources in order of precedence:
//
//  1. Command-line flags (highest priority)
//  2. Environment variables (XSLATE_*)
//  3. Configuration file (.xslate.yml)
//  4. Default values (lowest priority)
package cmd
