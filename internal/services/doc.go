// Package services defines shared utilities consumed by the conversion
// workflow components.
//
// Key responsibilities:
//   - Context helpers that stamp attempt IDs, job IDs, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     into the four user-visible kinds (invalid file, submission, backend
//     reported, polling).
//   - UserMessage, the single place that turns an error into the message a
//     person sees.
//
// Use these helpers when wiring new components so operational behaviour
// (error handling, observability) stays uniform across the workflow.
package services
