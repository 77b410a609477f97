// Package textutil provides small text helpers shared by the CLI and the
// backend client: filesystem-safe artifact names and single-line excerpts of
// extracted text.
package textutil
