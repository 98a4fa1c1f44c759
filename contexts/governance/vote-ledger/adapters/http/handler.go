package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"coopvote/contexts/governance/vote-ledger/application/commands"
	"coopvote/contexts/governance/vote-ledger/application/queries"
	"coopvote/contexts/governance/vote-ledger/domain/entities"
	httptransport "coopvote/contexts/governance/vote-ledger/transport/http"
)

type Handler struct {
	Cast    commands.CastVoteUseCase
	Queries queries.VoteQueryUseCase
	Logger  *slog.Logger
}

// CastVoteHandler commits one ballot for the authenticated member. The
// position is resolved from the candidate, never taken from the request.
func (h Handler) CastVoteHandler(
	ctx context.Context,
	userID string,
	req httptransport.CastVoteRequest,
) (httptransport.ReceiptResponse, error) {
	receipt, err := h.Cast.Execute(ctx, commands.CastVoteCommand{
		UserID:      userID,
		ElectionID:  req.ElectionID,
		CandidateID: req.CandidateID,
	})
	if err != nil {
		return httptransport.ReceiptResponse{}, err
	}
	return mapReceipt(receipt), nil
}

func (h Handler) GetReceiptHandler(ctx context.Context, receiptID string) (httptransport.ReceiptResponse, error) {
	receipt, err := h.Queries.GetReceipt(ctx, receiptID)
	if err != nil {
		return httptransport.ReceiptResponse{}, err
	}
	return mapReceipt(receipt), nil
}

func (h Handler) ListVotesHandler(
	ctx context.Context,
	userID string,
	electionID string,
) (httptransport.VoteListResponse, error) {
	votes, err := h.Queries.ListVotes(ctx, userID, electionID)
	if err != nil {
		return httptransport.VoteListResponse{}, err
	}
	items := make([]httptransport.VoteResponse, 0, len(votes))
	for _, vote := range votes {
		items = append(items, mapVote(vote))
	}
	return httptransport.VoteListResponse{Items: items}, nil
}

func (h Handler) HasVotedHandler(
	ctx context.Context,
	userID string,
	electionID string,
) (httptransport.HasVotedResponse, error) {
	voted, err := h.Queries.HasVoted(ctx, userID, electionID)
	if err != nil {
		return httptransport.HasVotedResponse{}, err
	}
	return httptransport.HasVotedResponse{
		ElectionID: electionID,
		UserID:     userID,
		HasVoted:   voted,
	}, nil
}

func (h Handler) ResultsHandler(
	ctx context.Context,
	electionID string,
	actorRole string,
) (httptransport.ResultsResponse, error) {
	tallies, err := h.Queries.Results(ctx, electionID, actorRole)
	if err != nil {
		return httptransport.ResultsResponse{}, err
	}
	positions := make([]httptransport.PositionTallyResponse, 0, len(tallies))
	for _, tally := range tallies {
		positions = append(positions, httptransport.PositionTallyResponse{
			PositionID: tally.PositionID,
			Counts:     tally.Counts,
			Total:      tally.Total,
		})
	}
	return httptransport.ResultsResponse{
		ElectionID: electionID,
		Positions:  positions,
	}, nil
}

func mapReceipt(receipt entities.Receipt) httptransport.ReceiptResponse {
	return httptransport.ReceiptResponse{
		ReceiptID:   receipt.ReceiptID,
		ElectionID:  receipt.ElectionID,
		PositionID:  receipt.PositionID,
		CandidateID: receipt.CandidateID,
		CastAt:      receipt.CastAt.UTC().Format(time.RFC3339),
	}
}

func mapVote(vote entities.Vote) httptransport.VoteResponse {
	return httptransport.VoteResponse{
		VoteID:      vote.VoteID,
		UserID:      vote.UserID,
		ElectionID:  vote.ElectionID,
		PositionID:  vote.PositionID,
		CandidateID: vote.CandidateID,
		CreatedAt:   vote.CreatedAt.UTC().Format(time.RFC3339),
	}
}
