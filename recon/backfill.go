package recon

import (
	"encoding/json"
	"math"
)

// Redistribute spreads a signed ticket-count correction across a weekly
// pacing series proportionally to each week's prior share of the series
// total. This preserves the historical shape of the curve while absorbing a
// late correction: overwriting only the most recent week would create a
// single-week spike no seasonally observed sales curve ever shows.
//
// Each week receives round(delta * week/total), clamped at zero. Rounding
// residue is assigned to the week with the largest prior value so that the
// post-adjustment sum equals the prior sum plus delta exactly (whenever
// delta >= -total, i.e. the correction does not claim more tickets than the
// series holds).
//
// An all-zero series has no shape to preserve; Redistribute reports applied
// = false and returns the series unchanged.
func Redistribute(series []int, delta int) (adjusted []int, applied bool) {
	adjusted = make([]int, len(series))
	copy(adjusted, series)

	total := 0
	largest := 0
	for i, v := range series {
		total += v
		if v > series[largest] {
			largest = i
		}
	}
	if total == 0 || delta == 0 {
		return adjusted, false
	}

	for i, v := range series {
		share := float64(v) / float64(total)
		adjusted[i] = v + int(math.Round(float64(delta)*share))
		if adjusted[i] < 0 {
			adjusted[i] = 0
		}
	}

	// Assign the rounding residue to the dominant week.
	target := total + delta
	if target < 0 {
		target = 0
	}
	sum := 0
	for _, v := range adjusted {
		sum += v
	}
	adjusted[largest] += target - sum
	if adjusted[largest] < 0 {
		adjusted[largest] = 0
	}

	return adjusted, true
}

// weeksJSON renders a per-week value list for the adjustment audit trail.
func weeksJSON(weeksOut, values []int) string {
	type weekValue struct {
		WeeksOut int `json:"weeks_out"`
		Tickets  int `json:"tickets"`
	}
	weeks := make([]weekValue, len(values))
	for i, v := range values {
		weeks[i] = weekValue{WeeksOut: weeksOut[i], Tickets: v}
	}
	b, err := json.Marshal(weeks)
	if err != nil {
		return "[]"
	}
	return string(b)
}
