// Package workflow drives one upload-and-poll attempt at a time.
//
// The Orchestrator is the single source of truth for what the user sees: the
// current phase (idle, file-selected, submitting, polling, succeeded,
// failed), the selected file, the active job handle, the latest status
// snapshot, and the terminal result or error message. It ties intake,
// submission, and polling together:
//
//	idle -> file-selected        Select succeeds
//	file-selected -> submitting  Start
//	submitting -> polling        backend returned a task id
//	submitting -> failed         upload or job creation failed
//	polling -> succeeded         job completed
//	polling -> failed            job failed or a status query failed
//
// Select, Clear, and Reset begin a new attempt from any phase; they cancel
// the running poll task first. Every asynchronous outcome carries the id of
// the attempt it belongs to and is dropped when that attempt is no longer
// current, so a late response can never alter a newer attempt.
//
// Observers receive Events in emission order. Delivery happens outside the
// state lock, so an observer may call back into the Orchestrator.
package workflow
