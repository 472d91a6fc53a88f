// Package committeeengine resolves rating-committee votes into a single
// authoritative rating decision inside the rating-operations context.
//
// The module owns meeting scheduling and rosters, weighted ballot upserts,
// the consensus closure rule, dissent marking, and the meeting register that
// carries the published result back to the workflow. Rating comparison is
// delegated to the rating-scale classifier through a port so read views and
// the write path can never disagree.
package committeeengine
