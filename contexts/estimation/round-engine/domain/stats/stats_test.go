package stats

import (
	"testing"

	"pointdeck/contexts/estimation/round-engine/domain/entities"
)

func fibonacci(t *testing.T) entities.CardScale {
	t.Helper()
	scale, ok := entities.ScaleByName("fibonacci")
	if !ok {
		t.Fatalf("fibonacci scale missing")
	}
	return scale
}

func TestComputeMixedVotes(t *testing.T) {
	result := Compute([]string{"3", "5", "5", "?"}, fibonacci(t), 5)

	if result.Average == nil || *result.Average != 4.3 {
		t.Fatalf("expected average 4.3, got %v", result.Average)
	}
	if result.Median == nil || *result.Median != 5 {
		t.Fatalf("expected median 5, got %v", result.Median)
	}
	if result.Mode != "5" {
		t.Fatalf("expected mode 5, got %s", result.Mode)
	}
	if result.ConsensusLevel != entities.ConsensusModerate {
		t.Fatalf("expected moderate consensus, got %s", result.ConsensusLevel)
	}
	if result.Distribution["5"] != 2 || result.Distribution["3"] != 1 || result.Distribution["?"] != 1 {
		t.Fatalf("unexpected distribution: %v", result.Distribution)
	}
	if result.TotalVotes != 4 || result.TotalVoters != 5 {
		t.Fatalf("unexpected totals: votes=%d voters=%d", result.TotalVotes, result.TotalVoters)
	}
}

func TestComputeSingleNumericVoteIsLowConsensus(t *testing.T) {
	result := Compute([]string{"8"}, fibonacci(t), 3)

	if result.ConsensusLevel != entities.ConsensusLow {
		t.Fatalf("one vote cannot demonstrate agreement, got %s", result.ConsensusLevel)
	}
	if result.Average == nil || *result.Average != 8 {
		t.Fatalf("expected average 8, got %v", result.Average)
	}
}

func TestComputeIdenticalVotesAreStrong(t *testing.T) {
	result := Compute([]string{"5", "5", "5"}, fibonacci(t), 3)
	if result.ConsensusLevel != entities.ConsensusStrong {
		t.Fatalf("expected strong consensus, got %s", result.ConsensusLevel)
	}
}

func TestComputeWideSpreadIsLow(t *testing.T) {
	result := Compute([]string{"1", "13"}, fibonacci(t), 2)
	if result.ConsensusLevel != entities.ConsensusLow {
		t.Fatalf("expected low consensus, got %s", result.ConsensusLevel)
	}
}

func TestComputeModeTieBreaksTowardScaleOrder(t *testing.T) {
	result := Compute([]string{"5", "3", "3", "5"}, fibonacci(t), 4)
	if result.Mode != "3" {
		t.Fatalf("expected tie to break toward 3, got %s", result.Mode)
	}
}

func TestComputeEmptyReveal(t *testing.T) {
	result := Compute(nil, fibonacci(t), 4)

	if result.Average != nil || result.Median != nil {
		t.Fatalf("expected nil average/median, got %v/%v", result.Average, result.Median)
	}
	if result.Mode != "?" {
		t.Fatalf("expected unknown mode, got %s", result.Mode)
	}
	if result.ConsensusLevel != entities.ConsensusLow {
		t.Fatalf("expected low consensus, got %s", result.ConsensusLevel)
	}
	if result.TotalVotes != 0 {
		t.Fatalf("expected zero votes, got %d", result.TotalVotes)
	}
}

func TestComputeUnknownOnlyVotes(t *testing.T) {
	result := Compute([]string{"?", "?"}, fibonacci(t), 2)

	if result.Average != nil {
		t.Fatalf("unknown votes must not produce an average, got %v", result.Average)
	}
	if result.Mode != "?" {
		t.Fatalf("expected mode ?, got %s", result.Mode)
	}
	if result.Distribution["?"] != 2 {
		t.Fatalf("unexpected distribution: %v", result.Distribution)
	}
}

func TestComputeIsPure(t *testing.T) {
	scale := fibonacci(t)
	values := []string{"2", "8", "13", "?"}
	first := Compute(values, scale, 4)
	second := Compute(values, scale, 4)

	if *first.Average != *second.Average || first.Mode != second.Mode ||
		first.ConsensusLevel != second.ConsensusLevel {
		t.Fatalf("expected identical results, got %+v and %+v", first, second)
	}
}

func TestComputeTShirtScaleHasNoNumericStats(t *testing.T) {
	scale, ok := entities.ScaleByName("tshirt")
	if !ok {
		t.Fatalf("tshirt scale missing")
	}
	result := Compute([]string{"M", "L", "M"}, scale, 3)

	if result.Average != nil || result.Median != nil {
		t.Fatalf("non-numeric deck must not produce numeric stats")
	}
	if result.Mode != "M" {
		t.Fatalf("expected mode M, got %s", result.Mode)
	}
}
