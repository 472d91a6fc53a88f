// Package ratingscale owns the ordered rating-symbol catalog inside the
// rating-operations context.
//
// The module resolves decorated rating symbols (prefix/suffix modifiers) to
// their ordinal weightage and classifies a previous-vs-current rating pair as
// an upgrade, downgrade, reaffirmation, or initial assignment. Both the
// committee write path and read-only report views go through the same
// classifier so the two can never disagree.
package ratingscale
