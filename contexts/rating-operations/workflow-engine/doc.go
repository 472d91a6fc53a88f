// Package workflowengine walks mandates through their rating-process
// activity graph inside the rating-operations context.
//
// The module owns the append-only workflow instance ledger, forward
// progression (deactivate the pending frontier, activate the outgoing
// edges), rollback to a prior step, and the activity-code side-effect
// catalog. Persistence, identity resolution, and the audit sink sit behind
// ports; every transition runs inside a single atomic boundary supplied by
// the storage adapter.
package workflowengine
