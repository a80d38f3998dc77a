// Package engine implements the sync coordinator and its admission gate.
//
// The coordinator reconciles locally buffered records with the remote
// store: it diffs the buffer against remote id projections, pushes only
// the missing subset, re-verifies presence, and only then retires buffered
// copies. Record ids are generated client-side and stable across retries,
// so a push that succeeded remotely but failed to report is absorbed by
// the next run's diff rather than duplicated.
//
// A run proceeds even when individual record kinds fail; errors are
// collected per kind into the SyncResult rather than aborting the run.
// Results are published on the event bus under bus.TopicSyncSucceeded or
// bus.TopicSyncFailed.
package engine
