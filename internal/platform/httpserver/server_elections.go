package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	electionerrors "coopvote/contexts/governance/election-service/domain/errors"
	electionhttp "coopvote/contexts/governance/election-service/transport/http"
)

func (s *Server) handleCreateElection(w http.ResponseWriter, r *http.Request) {
	actorID := resolveUserID(r)
	if actorID == "" {
		writeElectionError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req electionhttp.CreateElectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeElectionError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.elections.Handler.CreateElectionHandler(r.Context(), actorID, resolveUserRole(r), req)
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListElections(w http.ResponseWriter, r *http.Request) {
	resp, err := s.elections.Handler.ListElectionsHandler(r.Context())
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetElection(w http.ResponseWriter, r *http.Request) {
	resp, err := s.elections.Handler.GetElectionHandler(r.Context(), r.PathValue("election_id"))
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListSubElections(w http.ResponseWriter, r *http.Request) {
	resp, err := s.elections.Handler.ListSubElectionsHandler(r.Context(), r.PathValue("election_id"))
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateElection(w http.ResponseWriter, r *http.Request) {
	actorID := resolveUserID(r)
	if actorID == "" {
		writeElectionError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req electionhttp.UpdateElectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeElectionError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.elections.Handler.UpdateElectionHandler(
		r.Context(),
		r.PathValue("election_id"),
		actorID,
		resolveUserRole(r),
		req,
	)
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTransition(w http.ResponseWriter, r *http.Request) {
	actorID := resolveUserID(r)
	if actorID == "" {
		writeElectionError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req electionhttp.TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeElectionError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	err := s.elections.Handler.TransitionHandler(
		r.Context(),
		r.PathValue("election_id"),
		actorID,
		resolveUserRole(r),
		req,
	)
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.handleSimpleTransition(w, r, s.elections.Handler.PauseHandler)
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	s.handleSimpleTransition(w, r, s.elections.Handler.ResumeHandler)
}

func (s *Server) handleSimpleTransition(
	w http.ResponseWriter,
	r *http.Request,
	apply func(ctx context.Context, electionID, actorID, actorRole, reason string) error,
) {
	actorID := resolveUserID(r)
	if actorID == "" {
		writeElectionError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req struct {
		Reason string `json:"reason,omitempty"`
	}
	if r.Body != nil {
		// Body is optional for pause and resume.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	if err := apply(r.Context(), r.PathValue("election_id"), actorID, resolveUserRole(r), req.Reason); err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	actorID := resolveUserID(r)
	if actorID == "" {
		writeElectionError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req electionhttp.CancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeElectionError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	err := s.elections.Handler.CancelHandler(
		r.Context(),
		r.PathValue("election_id"),
		actorID,
		resolveUserRole(r),
		req,
	)
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreatePosition(w http.ResponseWriter, r *http.Request) {
	var req electionhttp.CreatePositionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeElectionError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.elections.Handler.CreatePositionHandler(
		r.Context(),
		r.PathValue("election_id"),
		resolveUserRole(r),
		req,
	)
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleUpdatePosition(w http.ResponseWriter, r *http.Request) {
	var req electionhttp.UpdatePositionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeElectionError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.elections.Handler.UpdatePositionHandler(
		r.Context(),
		r.PathValue("position_id"),
		resolveUserRole(r),
		req,
	)
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateCandidate(w http.ResponseWriter, r *http.Request) {
	var req electionhttp.CreateCandidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeElectionError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.elections.Handler.CreateCandidateHandler(
		r.Context(),
		r.PathValue("position_id"),
		resolveUserRole(r),
		req,
	)
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func writeElectionDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, electionerrors.ErrInvalidElectionInput):
		writeElectionError(w, http.StatusBadRequest, "invalid_election_input", err.Error())
	case errors.Is(err, electionerrors.ErrElectionNotFound):
		writeElectionError(w, http.StatusNotFound, "election_not_found", err.Error())
	case errors.Is(err, electionerrors.ErrPositionNotFound):
		writeElectionError(w, http.StatusNotFound, "position_not_found", err.Error())
	case errors.Is(err, electionerrors.ErrCandidateNotFound):
		writeElectionError(w, http.StatusNotFound, "candidate_not_found", err.Error())
	case errors.Is(err, electionerrors.ErrInvalidStateTransition):
		writeElectionError(w, http.StatusUnprocessableEntity, "invalid_state_transition", err.Error())
	case errors.Is(err, electionerrors.ErrStaleTransition):
		writeElectionError(w, http.StatusConflict, "stale_transition", err.Error())
	case errors.Is(err, electionerrors.ErrElectionNotEditable):
		writeElectionError(w, http.StatusConflict, "election_not_editable", err.Error())
	case errors.Is(err, electionerrors.ErrCandidatesFrozen):
		writeElectionError(w, http.StatusConflict, "candidates_frozen", err.Error())
	case errors.Is(err, electionerrors.ErrPositionLocked):
		writeElectionError(w, http.StatusConflict, "position_locked", err.Error())
	case errors.Is(err, electionerrors.ErrForbidden):
		writeElectionError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, electionerrors.ErrStoreUnavailable):
		writeElectionError(w, http.StatusServiceUnavailable, "store_unavailable", "election store unavailable")
	default:
		writeElectionError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeElectionError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, electionhttp.ErrorEnvelope{
		Status: "error",
		Error: electionhttp.ErrorBody{
			Code:    code,
			Message: message,
		},
		Timestamp: nowTimestamp(),
	})
}
