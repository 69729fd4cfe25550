package sharedtypes

// Stats summarizes one player's played rounds.
type Stats struct {
	Sum    int `json:"sum"`
	Min    int `json:"min"`
	Max    int `json:"max"`
	Played int `json:"played"`
}

// StatsOf computes sum, min and max over the non-empty slots of a score
// history. A player with no played rounds has all zeros.
func StatsOf(scores []*int) Stats {
	var st Stats
	for _, v := range scores {
		if v == nil {
			continue
		}
		if st.Played == 0 || *v < st.Min {
			st.Min = *v
		}
		if st.Played == 0 || *v > st.Max {
			st.Max = *v
		}
		st.Sum += *v
		st.Played++
	}
	return st
}

// RunningTotals returns the cumulative total after every slot. Empty slots
// carry the previous total forward.
func RunningTotals(scores []*int) []int {
	out := make([]int, len(scores))
	running := 0
	for i, v := range scores {
		if v != nil {
			running += *v
		}
		out[i] = running
	}
	return out
}
