package entities

type ConsensusLevel string

const (
	ConsensusStrong   ConsensusLevel = "strong"
	ConsensusModerate ConsensusLevel = "moderate"
	ConsensusLow      ConsensusLevel = "low"
)

// VoteStats is derived from a round's votes and never persisted as a source
// of truth. Average and Median are nil when no numeric votes exist.
type VoteStats struct {
	Average        *float64
	Median         *float64
	Mode           string
	Distribution   map[string]int
	ConsensusLevel ConsensusLevel
	TotalVoters    int
	TotalVotes     int
}
