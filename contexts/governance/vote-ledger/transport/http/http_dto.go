package http

type CastVoteRequest struct {
	ElectionID  string `json:"election_id"`
	CandidateID string `json:"candidate_id"`
}

type ReceiptResponse struct {
	ReceiptID   string `json:"receipt_id"`
	ElectionID  string `json:"election_id"`
	PositionID  string `json:"position_id"`
	CandidateID string `json:"candidate_id"`
	CastAt      string `json:"cast_at"`
}

type VoteResponse struct {
	VoteID      string `json:"vote_id"`
	UserID      string `json:"user_id"`
	ElectionID  string `json:"election_id"`
	PositionID  string `json:"position_id"`
	CandidateID string `json:"candidate_id"`
	CreatedAt   string `json:"created_at"`
}

type VoteListResponse struct {
	Items []VoteResponse `json:"items"`
}

type HasVotedResponse struct {
	ElectionID string `json:"election_id"`
	UserID     string `json:"user_id"`
	HasVoted   bool   `json:"has_voted"`
}

type PositionTallyResponse struct {
	PositionID string         `json:"position_id"`
	Counts     map[string]int `json:"counts"`
	Total      int            `json:"total"`
}

type ResultsResponse struct {
	ElectionID string                  `json:"election_id"`
	Positions  []PositionTallyResponse `json:"positions"`
}

type ErrorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Status    string    `json:"status"`
	Error     ErrorBody `json:"error"`
	Timestamp string    `json:"timestamp"`
}
