// Package backend talks to the remote conversion service.
//
// The service exposes two endpoints: POST /convert accepts a multipart upload
// (file plus spoken language) and answers with a task id, and
// GET /status/{task_id} reports the job's progress. Client wraps both, plus
// URL resolution for result artifacts, artifact download, and a reachability
// check used by the doctor command. Every failure is tagged with one of the
// services sentinel markers so callers can map it to a single user message.
package backend
