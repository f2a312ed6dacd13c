// Package tasks implements the batch send pipeline: fetch contacts, normalize,
// personalize, and deliver one message per contact over the shared messaging
// session.
//
// # Core Operation
//
// [SendEngine.Run] drives one batch:
//   - Validates the template (non-empty, bounded length)
//   - Requires the session to be READY and the contact source to exist
//   - Fetches all spreadsheet rows and drops the header
//   - Sends strictly sequentially, pausing a randomized interval between rows
//   - Folds every per-recipient failure into the [Report] instead of aborting
//
// # Pacing
//
// The inter-send pause is deliberate throttling of the external channel, not a
// performance knob. It is injectable via [DelayProvider] so tests run with
// [NoDelay] while production uses [RandomDelay].
//
// # Concurrency
//
// The shared session is not safe for concurrent sends, so [SendEngine] holds
// an in-flight guard: a second Run while one is active fails fast with
// [shared.ErrBatchInFlight] rather than interleaving sends.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, and messages.
// Updates use select with default to prevent blocking.
package tasks
