package services

import (
	"github.com/google/uuid"
)

// Rank maintenance uses insert semantics: writing rank N into a sibling set
// first shifts every sibling already at rank >= N up by one, so the target
// lands between its neighbours instead of overwriting one. Appends combine
// a max-rank query (0 for an empty scope) with the same rule.

// clampRank normalizes a requested rank to the head position when a caller
// computes "preceding item + 1" with no preceding item.
func clampRank(rank int) int {
	if rank < 1 {
		return 1
	}
	return rank
}

// siblingsToShift returns the siblings whose rank must bump by one before
// the target is written at newRank. The target itself never shifts.
func siblingsToShift[T any](siblings []T, idOf func(T) uuid.UUID, rankOf func(T) int, targetID uuid.UUID, newRank int) []T {
	var out []T
	for _, s := range siblings {
		if idOf(s) == targetID {
			continue
		}
		if rankOf(s) >= newRank {
			out = append(out, s)
		}
	}
	return out
}
