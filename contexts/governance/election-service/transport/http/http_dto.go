package http

type CreateElectionRequest struct {
	Title            string `json:"title"`
	Description      string `json:"description"`
	StartsAt         string `json:"starts_at"`
	EndsAt           string `json:"ends_at"`
	ResultsPublic    bool   `json:"results_public"`
	ParentElectionID string `json:"parent_election_id,omitempty"`
}

type UpdateElectionRequest struct {
	Title         *string `json:"title,omitempty"`
	Description   *string `json:"description,omitempty"`
	StartsAt      *string `json:"starts_at,omitempty"`
	EndsAt        *string `json:"ends_at,omitempty"`
	ResultsPublic *bool   `json:"results_public,omitempty"`
}

type TransitionRequest struct {
	ExpectedFrom string `json:"expected_from"`
	To           string `json:"to"`
	Reason       string `json:"reason,omitempty"`
}

type CancelRequest struct {
	ExpectedFrom string `json:"expected_from"`
	Reason       string `json:"reason,omitempty"`
}

type CreatePositionRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	MaxVotes    int    `json:"max_votes"`
	Order       int    `json:"order"`
}

type UpdatePositionRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	MaxVotes    *int    `json:"max_votes,omitempty"`
	Order       *int    `json:"order,omitempty"`
}

type CreateCandidateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	PhotoURL    string `json:"photo_url,omitempty"`
}

type ElectionResponse struct {
	ElectionID       string `json:"election_id"`
	Title            string `json:"title"`
	Description      string `json:"description"`
	StartsAt         string `json:"starts_at"`
	EndsAt           string `json:"ends_at"`
	Status           string `json:"status"`
	ResultsPublic    bool   `json:"results_public"`
	ParentElectionID string `json:"parent_election_id,omitempty"`
}

type PositionResponse struct {
	PositionID  string `json:"position_id"`
	ElectionID  string `json:"election_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	MaxVotes    int    `json:"max_votes"`
	Order       int    `json:"order"`
}

type CandidateResponse struct {
	CandidateID string `json:"candidate_id"`
	PositionID  string `json:"position_id"`
	ElectionID  string `json:"election_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	PhotoURL    string `json:"photo_url,omitempty"`
}

type StateHistoryResponse struct {
	FromState string `json:"from_state"`
	ToState   string `json:"to_state"`
	ChangedBy string `json:"changed_by,omitempty"`
	Automatic bool   `json:"automatic"`
	Reason    string `json:"reason,omitempty"`
	CreatedAt string `json:"created_at"`
}

type ElectionDetailResponse struct {
	Election   ElectionResponse       `json:"election"`
	Positions  []PositionResponse     `json:"positions"`
	Candidates []CandidateResponse    `json:"candidates"`
	History    []StateHistoryResponse `json:"history"`
}

type ElectionListResponse struct {
	Items []ElectionResponse `json:"items"`
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
