package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	electionservice "coopvote/contexts/governance/election-service"
	voteledger "coopvote/contexts/governance/vote-ledger"

	_ "coopvote/internal/platform/httpserver/docs"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Server struct {
	mux       *http.ServeMux
	logger    *slog.Logger
	addr      string
	elections electionservice.Module
	ledger    voteledger.Module
}

func New(
	elections electionservice.Module,
	ledger voteledger.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:       http.NewServeMux(),
		logger:    logger,
		addr:      addr,
		elections: elections,
		ledger:    ledger,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /api/elections/v1/elections", s.handleCreateElection)
	s.mux.HandleFunc("GET /api/elections/v1/elections", s.handleListElections)
	s.mux.HandleFunc("GET /api/elections/v1/elections/{election_id}", s.handleGetElection)
	s.mux.HandleFunc("PATCH /api/elections/v1/elections/{election_id}", s.handleUpdateElection)
	s.mux.HandleFunc("GET /api/elections/v1/elections/{election_id}/sub-elections", s.handleListSubElections)
	s.mux.HandleFunc("POST /api/elections/v1/elections/{election_id}/transition", s.handleTransition)
	s.mux.HandleFunc("POST /api/elections/v1/elections/{election_id}/pause", s.handlePause)
	s.mux.HandleFunc("POST /api/elections/v1/elections/{election_id}/resume", s.handleResume)
	s.mux.HandleFunc("POST /api/elections/v1/elections/{election_id}/cancel", s.handleCancel)
	s.mux.HandleFunc("POST /api/elections/v1/elections/{election_id}/positions", s.handleCreatePosition)
	s.mux.HandleFunc("PATCH /api/elections/v1/positions/{position_id}", s.handleUpdatePosition)
	s.mux.HandleFunc("POST /api/elections/v1/positions/{position_id}/candidates", s.handleCreateCandidate)

	s.mux.HandleFunc("POST /api/votes/v1/votes", s.handleCastVote)
	s.mux.HandleFunc("GET /api/votes/v1/votes", s.handleListVotes)
	s.mux.HandleFunc("GET /api/votes/v1/receipts/{receipt_id}", s.handleGetReceipt)
	s.mux.HandleFunc("GET /api/votes/v1/elections/{election_id}/has-voted", s.handleHasVoted)
	s.mux.HandleFunc("GET /api/votes/v1/elections/{election_id}/results", s.handleResults)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func resolveUserID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-User-Id"))
}

func resolveUserRole(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-User-Role"))
}

func nowTimestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
