// Package main hosts the vid2manga CLI entrypoint and command graph.
//
// The Cobra-based command tree wires the internal packages together: convert
// drives one upload-and-poll attempt through the workflow orchestrator and
// renders its events, history reads the attempt database, doctor runs the
// preflight checks, and config scaffolds or prints the configuration.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
