// Package main hosts the cutroom CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into document
// edits against the project store, JSON-RPC calls against the render
// service, render orchestration with live progress, and configuration
// scaffolding. It centralizes configuration resolution and client wiring so
// subcommands can focus on user experience.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
