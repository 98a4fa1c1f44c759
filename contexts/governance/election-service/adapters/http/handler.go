package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"coopvote/contexts/governance/election-service/application/commands"
	"coopvote/contexts/governance/election-service/application/queries"
	"coopvote/contexts/governance/election-service/domain/entities"
	httptransport "coopvote/contexts/governance/election-service/transport/http"
)

type Handler struct {
	Create      commands.CreateElectionUseCase
	Update      commands.UpdateElectionUseCase
	Catalog     commands.CatalogUseCase
	Transitions commands.TransitionUseCase
	Queries     queries.ElectionQueryUseCase
	Logger      *slog.Logger
}

func (h Handler) CreateElectionHandler(
	ctx context.Context,
	actorID string,
	actorRole string,
	req httptransport.CreateElectionRequest,
) (httptransport.ElectionResponse, error) {
	election, err := h.Create.Execute(ctx, commands.CreateElectionCommand{
		ActorID:          actorID,
		ActorRole:        actorRole,
		Title:            req.Title,
		Description:      req.Description,
		StartsAt:         req.StartsAt,
		EndsAt:           req.EndsAt,
		ResultsPublic:    req.ResultsPublic,
		ParentElectionID: req.ParentElectionID,
	})
	if err != nil {
		return httptransport.ElectionResponse{}, err
	}
	return mapElection(election), nil
}

func (h Handler) UpdateElectionHandler(
	ctx context.Context,
	electionID string,
	actorID string,
	actorRole string,
	req httptransport.UpdateElectionRequest,
) (httptransport.ElectionResponse, error) {
	election, err := h.Update.Execute(ctx, commands.UpdateElectionCommand{
		ElectionID:    electionID,
		ActorID:       actorID,
		ActorRole:     actorRole,
		Title:         req.Title,
		Description:   req.Description,
		StartsAt:      req.StartsAt,
		EndsAt:        req.EndsAt,
		ResultsPublic: req.ResultsPublic,
	})
	if err != nil {
		return httptransport.ElectionResponse{}, err
	}
	return mapElection(election), nil
}

// TransitionHandler exposes the raw conditional-transition primitive. The
// expected prior status comes from whatever the administrator is looking at.
func (h Handler) TransitionHandler(
	ctx context.Context,
	electionID string,
	actorID string,
	actorRole string,
	req httptransport.TransitionRequest,
) error {
	return h.Transitions.Execute(ctx, commands.ApplyTransitionCommand{
		ElectionID: electionID,
		From:       entities.ElectionStatus(req.ExpectedFrom),
		To:         entities.ElectionStatus(req.To),
		ActorID:    actorID,
		ActorRole:  actorRole,
		Reason:     req.Reason,
	})
}

func (h Handler) PauseHandler(ctx context.Context, electionID string, actorID string, actorRole string, reason string) error {
	return h.Transitions.Pause(ctx, electionID, actorID, actorRole, reason)
}

func (h Handler) ResumeHandler(ctx context.Context, electionID string, actorID string, actorRole string, reason string) error {
	return h.Transitions.Resume(ctx, electionID, actorID, actorRole, reason)
}

func (h Handler) CancelHandler(
	ctx context.Context,
	electionID string,
	actorID string,
	actorRole string,
	req httptransport.CancelRequest,
) error {
	return h.Transitions.Cancel(ctx, electionID, entities.ElectionStatus(req.ExpectedFrom), actorID, actorRole, req.Reason)
}

func (h Handler) CreatePositionHandler(
	ctx context.Context,
	electionID string,
	actorRole string,
	req httptransport.CreatePositionRequest,
) (httptransport.PositionResponse, error) {
	position, err := h.Catalog.AddPosition(ctx, commands.AddPositionCommand{
		ElectionID:  electionID,
		ActorRole:   actorRole,
		Title:       req.Title,
		Description: req.Description,
		MaxVotes:    req.MaxVotes,
		Order:       req.Order,
	})
	if err != nil {
		return httptransport.PositionResponse{}, err
	}
	return mapPosition(position), nil
}

func (h Handler) UpdatePositionHandler(
	ctx context.Context,
	positionID string,
	actorRole string,
	req httptransport.UpdatePositionRequest,
) (httptransport.PositionResponse, error) {
	position, err := h.Catalog.UpdatePosition(ctx, commands.UpdatePositionCommand{
		PositionID:  positionID,
		ActorRole:   actorRole,
		Title:       req.Title,
		Description: req.Description,
		MaxVotes:    req.MaxVotes,
		Order:       req.Order,
	})
	if err != nil {
		return httptransport.PositionResponse{}, err
	}
	return mapPosition(position), nil
}

func (h Handler) CreateCandidateHandler(
	ctx context.Context,
	positionID string,
	actorRole string,
	req httptransport.CreateCandidateRequest,
) (httptransport.CandidateResponse, error) {
	candidate, err := h.Catalog.AddCandidate(ctx, commands.AddCandidateCommand{
		PositionID:  positionID,
		ActorRole:   actorRole,
		Name:        req.Name,
		Description: req.Description,
		PhotoURL:    req.PhotoURL,
	})
	if err != nil {
		return httptransport.CandidateResponse{}, err
	}
	return mapCandidate(candidate), nil
}

func (h Handler) ListElectionsHandler(ctx context.Context) (httptransport.ElectionListResponse, error) {
	elections, err := h.Queries.ListElections(ctx)
	if err != nil {
		return httptransport.ElectionListResponse{}, err
	}
	return httptransport.ElectionListResponse{Items: mapElections(elections)}, nil
}

func (h Handler) ListSubElectionsHandler(ctx context.Context, parentElectionID string) (httptransport.ElectionListResponse, error) {
	elections, err := h.Queries.ListSubElections(ctx, parentElectionID)
	if err != nil {
		return httptransport.ElectionListResponse{}, err
	}
	return httptransport.ElectionListResponse{Items: mapElections(elections)}, nil
}

func (h Handler) GetElectionHandler(ctx context.Context, electionID string) (httptransport.ElectionDetailResponse, error) {
	detail, err := h.Queries.GetElection(ctx, electionID)
	if err != nil {
		return httptransport.ElectionDetailResponse{}, err
	}
	resp := httptransport.ElectionDetailResponse{
		Election:   mapElection(detail.Election),
		Positions:  make([]httptransport.PositionResponse, 0, len(detail.Positions)),
		Candidates: make([]httptransport.CandidateResponse, 0, len(detail.Candidates)),
		History:    make([]httptransport.StateHistoryResponse, 0, len(detail.History)),
	}
	for _, position := range detail.Positions {
		resp.Positions = append(resp.Positions, mapPosition(position))
	}
	for _, candidate := range detail.Candidates {
		resp.Candidates = append(resp.Candidates, mapCandidate(candidate))
	}
	for _, record := range detail.History {
		resp.History = append(resp.History, httptransport.StateHistoryResponse{
			FromState: string(record.FromState),
			ToState:   string(record.ToState),
			ChangedBy: record.ChangedBy,
			Automatic: record.Automatic,
			Reason:    record.Reason,
			CreatedAt: record.CreatedAt.Format(time.RFC3339),
		})
	}
	return resp, nil
}

func mapElection(election entities.Election) httptransport.ElectionResponse {
	return httptransport.ElectionResponse{
		ElectionID:       election.ElectionID,
		Title:            election.Title,
		Description:      election.Description,
		StartsAt:         election.StartsAt.Format(time.RFC3339),
		EndsAt:           election.EndsAt.Format(time.RFC3339),
		Status:           string(election.Status),
		ResultsPublic:    election.ResultsPublic,
		ParentElectionID: election.ParentElectionID,
	}
}

func mapElections(elections []entities.Election) []httptransport.ElectionResponse {
	items := make([]httptransport.ElectionResponse, 0, len(elections))
	for _, election := range elections {
		items = append(items, mapElection(election))
	}
	return items
}

func mapPosition(position entities.Position) httptransport.PositionResponse {
	return httptransport.PositionResponse{
		PositionID:  position.PositionID,
		ElectionID:  position.ElectionID,
		Title:       position.Title,
		Description: position.Description,
		MaxVotes:    position.MaxVotes,
		Order:       position.Order,
	}
}

func mapCandidate(candidate entities.Candidate) httptransport.CandidateResponse {
	return httptransport.CandidateResponse{
		CandidateID: candidate.CandidateID,
		PositionID:  candidate.PositionID,
		ElectionID:  candidate.ElectionID,
		Name:        candidate.Name,
		Description: candidate.Description,
		PhotoURL:    candidate.PhotoURL,
	}
}
