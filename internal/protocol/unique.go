package protocol

import (
	"cyclerprep/internal/instrument"
	"cyclerprep/internal/state"
)

// UniqueSteps counts the logical steps measured in the data: one per block
// of rows, except that the constant-voltage block directly following its
// constant-current block belongs to the same CC-CV step.
func UniqueSteps(codes []state.Code, stepIDs []int) int {
	count := 0
	prev := -1
	for i, c := range codes {
		if !c.Opens() || i >= len(stepIDs) {
			continue
		}
		step := stepIDs[i]
		if instrument.MergesWith(prev, step) {
			prev = -1
			continue
		}
		count++
		prev = step
	}
	return count
}
