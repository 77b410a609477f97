// Package preflight provides readiness checks for the conversion backend,
// the ntfy server, and the local directories vid2manga writes to.
//
// The CLI "vid2manga doctor" command runs RunAll and renders the results.
// "vid2manga convert" runs CheckBackend alone before uploading so an
// unreachable service fails fast instead of after a long upload.
package preflight
