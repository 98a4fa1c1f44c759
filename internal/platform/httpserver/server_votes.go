package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	ledgererrors "coopvote/contexts/governance/vote-ledger/domain/errors"
	ledgerhttp "coopvote/contexts/governance/vote-ledger/transport/http"
)

func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	userID := resolveUserID(r)
	if userID == "" {
		writeLedgerError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req ledgerhttp.CastVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeLedgerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.ledger.Handler.CastVoteHandler(r.Context(), userID, req)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListVotes(w http.ResponseWriter, r *http.Request) {
	userID := resolveUserID(r)
	if userID == "" {
		writeLedgerError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	resp, err := s.ledger.Handler.ListVotesHandler(r.Context(), userID, r.URL.Query().Get("election_id"))
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetReceipt(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.Handler.GetReceiptHandler(r.Context(), r.PathValue("receipt_id"))
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHasVoted(w http.ResponseWriter, r *http.Request) {
	userID := resolveUserID(r)
	if userID == "" {
		writeLedgerError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	resp, err := s.ledger.Handler.HasVotedHandler(r.Context(), userID, r.PathValue("election_id"))
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.Handler.ResultsHandler(r.Context(), r.PathValue("election_id"), resolveUserRole(r))
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeLedgerDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledgererrors.ErrInvalidVoteInput):
		writeLedgerError(w, http.StatusBadRequest, "invalid_vote_input", err.Error())
	case errors.Is(err, ledgererrors.ErrElectionNotFound):
		writeLedgerError(w, http.StatusNotFound, "election_not_found", err.Error())
	case errors.Is(err, ledgererrors.ErrCandidateNotFound):
		writeLedgerError(w, http.StatusNotFound, "candidate_not_found", err.Error())
	case errors.Is(err, ledgererrors.ErrVoteNotFound):
		writeLedgerError(w, http.StatusNotFound, "vote_not_found", err.Error())
	case errors.Is(err, ledgererrors.ErrElectionNotActive):
		writeLedgerError(w, http.StatusUnprocessableEntity, "election_not_active", err.Error())
	case errors.Is(err, ledgererrors.ErrDuplicatePositionVote):
		writeLedgerError(w, http.StatusConflict, "duplicate_position_vote", err.Error())
	case errors.Is(err, ledgererrors.ErrResultsNotPublic):
		writeLedgerError(w, http.StatusForbidden, "results_not_public", err.Error())
	case errors.Is(err, ledgererrors.ErrStoreUnavailable):
		writeLedgerError(w, http.StatusServiceUnavailable, "store_unavailable", "vote store unavailable")
	default:
		writeLedgerError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeLedgerError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, ledgerhttp.ErrorEnvelope{
		Status: "error",
		Error: ledgerhttp.ErrorBody{
			Code:    code,
			Message: message,
		},
		Timestamp: nowTimestamp(),
	})
}
