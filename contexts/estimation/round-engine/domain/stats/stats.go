package stats

import (
	"math"
	"sort"
	"strconv"

	"pointdeck/contexts/estimation/round-engine/domain/entities"
)

// Compute derives VoteStats from a finalized multiset of vote values. It is
// pure: the same values, scale, and voter count always produce identical
// output. The unknown sentinel and any other non-numeric values count toward
// the distribution and total but are excluded from average, median, and
// consensus.
func Compute(values []string, scale entities.CardScale, totalVoters int) entities.VoteStats {
	distribution := make(map[string]int, len(values))
	numeric := make([]float64, 0, len(values))
	for _, value := range values {
		distribution[value]++
		if value == scale.Unknown {
			continue
		}
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			numeric = append(numeric, parsed)
		}
	}
	sort.Float64s(numeric)

	result := entities.VoteStats{
		Mode:           mode(distribution, scale),
		Distribution:   distribution,
		ConsensusLevel: consensus(numeric),
		TotalVoters:    totalVoters,
		TotalVotes:     len(values),
	}
	if len(numeric) > 0 {
		avg := round1(mean(numeric))
		med := median(numeric)
		result.Average = &avg
		result.Median = &med
	}
	return result
}

func mean(sorted []float64) float64 {
	var sum float64
	for _, v := range sorted {
		sum += v
	}
	return sum / float64(len(sorted))
}

func median(sorted []float64) float64 {
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// mode picks the most frequent value; ties break toward the value that
// appears earliest in the card-scale order. An empty vote set yields the
// scale's unknown sentinel.
func mode(distribution map[string]int, scale entities.CardScale) string {
	best := scale.Unknown
	bestCount := 0
	bestPos := scale.Position(best) + 1
	for value, count := range distribution {
		pos := scale.Position(value)
		if count > bestCount || (count == bestCount && pos < bestPos) {
			best = value
			bestCount = count
			bestPos = pos
		}
	}
	return best
}

// consensus classifies dispersion of the numeric subset. Fewer than two
// numeric votes cannot demonstrate agreement and classify as low. The
// spread ratio (max-min)/max(1,max) maps to strong at <= 0.25 and moderate
// at <= 0.5. These cut points are pinned by tests; changing them changes
// every client's consensus badge.
func consensus(sorted []float64) entities.ConsensusLevel {
	if len(sorted) < 2 {
		return entities.ConsensusLow
	}
	min := sorted[0]
	max := sorted[len(sorted)-1]
	ratio := (max - min) / math.Max(1, max)
	switch {
	case ratio <= 0.25:
		return entities.ConsensusStrong
	case ratio <= 0.5:
		return entities.ConsensusModerate
	default:
		return entities.ConsensusLow
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
