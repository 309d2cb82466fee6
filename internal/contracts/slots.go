package contracts

import "fmt"

// ReplicateSlots holds one value per biological replicate index (1..3).
// The fixed array makes "exactly three slots" a structural constraint.
type ReplicateSlots struct {
	Values [ReplicateCount]float64 `json:"values"`
	Filled [ReplicateCount]bool    `json:"filled"`
}

// ValidReplicate reports whether rep addresses a slot
func ValidReplicate(rep int) bool {
	return rep >= 1 && rep <= ReplicateCount
}

// Set stores v at replicate rep (1-based). A slot can only be filled once.
func (s *ReplicateSlots) Set(rep int, v float64) error {
	if !ValidReplicate(rep) {
		return fmt.Errorf("replicate %d outside 1..%d", rep, ReplicateCount)
	}
	if s.Filled[rep-1] {
		return fmt.Errorf("replicate %d already set", rep)
	}
	s.Values[rep-1] = v
	s.Filled[rep-1] = true
	return nil
}

// Get returns the value at replicate rep and whether it is filled
func (s ReplicateSlots) Get(rep int) (float64, bool) {
	if !ValidReplicate(rep) {
		return 0, false
	}
	return s.Values[rep-1], s.Filled[rep-1]
}

// Count returns the number of filled slots
func (s ReplicateSlots) Count() int {
	n := 0
	for _, ok := range s.Filled {
		if ok {
			n++
		}
	}
	return n
}

// Collected returns filled values in replicate order
func (s ReplicateSlots) Collected() []float64 {
	out := make([]float64, 0, ReplicateCount)
	for i, ok := range s.Filled {
		if ok {
			out = append(out, s.Values[i])
		}
	}
	return out
}
