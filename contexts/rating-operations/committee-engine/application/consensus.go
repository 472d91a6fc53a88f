package application

import (
	"math"
	"sort"

	"meridian/contexts/rating-operations/committee-engine/domain/entities"
)

// VoteGroup is one (rating, outlook) choice with its summed ballot weight.
type VoteGroup struct {
	Rating      string
	Outlook     string
	Score       float64
	BallotCount int
	HasChairman bool
}

// Tally groups active ballots by (rating, outlook) and orders groups by
// weighted score, chairman participation, then choice for determinism.
func Tally(ballots []entities.Ballot) []VoteGroup {
	type key struct {
		rating  string
		outlook string
	}
	grouped := make(map[key]VoteGroup)
	for _, ballot := range ballots {
		if !ballot.Active {
			continue
		}
		k := key{rating: ballot.Rating, outlook: ballot.Outlook}
		group := grouped[k]
		group.Rating = ballot.Rating
		group.Outlook = ballot.Outlook
		group.Score += ballot.Weightage
		group.BallotCount++
		if ballot.Chairman {
			group.HasChairman = true
		}
		grouped[k] = group
	}
	groups := make([]VoteGroup, 0, len(grouped))
	for _, group := range grouped {
		groups = append(groups, group)
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Score != groups[j].Score {
			return groups[i].Score > groups[j].Score
		}
		if groups[i].HasChairman != groups[j].HasChairman {
			return groups[i].HasChairman
		}
		if groups[i].Rating != groups[j].Rating {
			return groups[i].Rating < groups[j].Rating
		}
		return groups[i].Outlook < groups[j].Outlook
	})
	return groups
}

// ClosureReached applies the consensus rule: an even roster needs the leading
// score to exceed half the roster, an odd roster to meet the ceiling of half,
// and full turnout forces closure regardless of the weight distribution.
func ClosureReached(memberCount int, ballotsCast int, leadingScore float64) bool {
	if memberCount <= 0 {
		return false
	}
	if ballotsCast >= memberCount {
		return true
	}
	threshold := math.Ceil(float64(memberCount) / 2)
	if memberCount%2 == 0 {
		return leadingScore > threshold
	}
	return leadingScore >= threshold
}
