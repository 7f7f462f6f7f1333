package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateStoryRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	ExternalID  string `json:"external_id,omitempty"`
	ExternalURL string `json:"external_url,omitempty"`
}

type UpdateStoryRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	ExternalID  *string `json:"external_id,omitempty"`
	ExternalURL *string `json:"external_url,omitempty"`
	SortOrder   *int    `json:"sort_order,omitempty"`
}

type StoryResponse struct {
	StoryID       string `json:"story_id"`
	RoomID        string `json:"room_id"`
	Title         string `json:"title"`
	Description   string `json:"description,omitempty"`
	ExternalID    string `json:"external_id,omitempty"`
	ExternalURL   string `json:"external_url,omitempty"`
	Status        string `json:"status"`
	FinalEstimate string `json:"final_estimate,omitempty"`
	SortOrder     int    `json:"sort_order"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

type StoryListResponse struct {
	Items []StoryResponse `json:"items"`
}

type RoundResponse struct {
	RoundID    string `json:"round_id"`
	StoryID    string `json:"story_id"`
	RoomID     string `json:"room_id"`
	RoundNum   int    `json:"round_num"`
	StartedAt  string `json:"started_at"`
	RevealedAt string `json:"revealed_at,omitempty"`
}

type StartRoundResponse struct {
	Round RoundResponse `json:"round"`
	Story StoryResponse `json:"story"`
}

type CastVoteRequest struct {
	RoundID string `json:"round_id,omitempty"`
	Value   string `json:"value"`
}

// CastVoteResponse carries only a count. Vote values stay hidden until the
// round is revealed.
type CastVoteResponse struct {
	RoundID   string `json:"round_id"`
	VotesCast int    `json:"votes_cast"`
}

type RevealRequest struct {
	RoundID string `json:"round_id,omitempty"`
}

type VoteItem struct {
	UserID string `json:"user_id"`
	Value  string `json:"value"`
}

type StatsResponse struct {
	Average        *float64       `json:"average"`
	Median         *float64       `json:"median"`
	Mode           string         `json:"mode"`
	Distribution   map[string]int `json:"distribution"`
	ConsensusLevel string         `json:"consensus_level"`
	TotalVoters    int            `json:"total_voters"`
	TotalVotes     int            `json:"total_votes"`
}

type RevealResponse struct {
	Round RoundResponse `json:"round"`
	Story StoryResponse `json:"story"`
	Votes []VoteItem    `json:"votes"`
	Stats StatsResponse `json:"stats"`
}

type FinalizeRequest struct {
	FinalEstimate *string `json:"final_estimate"`
}

type RoundViewResponse struct {
	Round      RoundResponse  `json:"round"`
	TotalVotes int            `json:"total_votes"`
	Votes      []VoteItem     `json:"votes"`
	Stats      *StatsResponse `json:"stats,omitempty"`
}

type RoundHistoryResponse struct {
	Items []RoundViewResponse `json:"items"`
}
