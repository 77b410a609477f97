// Package intake turns a user-chosen file into a validated upload candidate.
//
// A file arrives either from an explicit picker selection or from a drag and
// drop gesture; both paths share the same acceptance rule: only media types
// in the video/ category may be submitted. Inspect gathers the metadata and
// Validate enforces the rule, returning an error tagged with
// services.ErrInvalidFileType for everything else.
package intake
