// Package main hosts the pdftriage CLI entrypoint and command graph.
//
// The Cobra-based command tree turns terminal invocations into pipeline runs,
// store reports, and configuration scaffolding. It centralizes configuration
// resolution and logger construction so subcommands only deal with flags and
// output formatting.
//
// Keep this package lean: new behavior belongs in the internal packages first
// and is surfaced here through dedicated commands or flags.
package main
