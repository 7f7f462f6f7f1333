package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"pointdeck/contexts/estimation/round-engine/application/commands"
	"pointdeck/contexts/estimation/round-engine/application/queries"
	"pointdeck/contexts/estimation/round-engine/domain/entities"
	httptransport "pointdeck/contexts/estimation/round-engine/transport/http"
)

type Handler struct {
	Rounds  commands.RoundUseCase
	Queries queries.RoundUseCase
	Logger  *slog.Logger
}

func (h Handler) CreateStoryHandler(
	ctx context.Context,
	roomID string,
	userID string,
	req httptransport.CreateStoryRequest,
) (httptransport.StoryResponse, error) {
	story, err := h.Rounds.CreateStory(ctx, commands.CreateStoryCommand{
		RoomID:      roomID,
		ActorID:     userID,
		Title:       req.Title,
		Description: req.Description,
		ExternalID:  req.ExternalID,
		ExternalURL: req.ExternalURL,
	})
	if err != nil {
		return httptransport.StoryResponse{}, err
	}
	return mapStory(story), nil
}

func (h Handler) UpdateStoryHandler(
	ctx context.Context,
	storyID string,
	userID string,
	req httptransport.UpdateStoryRequest,
) (httptransport.StoryResponse, error) {
	story, err := h.Rounds.UpdateStory(ctx, commands.UpdateStoryCommand{
		StoryID:     storyID,
		ActorID:     userID,
		Title:       req.Title,
		Description: req.Description,
		ExternalID:  req.ExternalID,
		ExternalURL: req.ExternalURL,
		SortOrder:   req.SortOrder,
	})
	if err != nil {
		return httptransport.StoryResponse{}, err
	}
	return mapStory(story), nil
}

func (h Handler) DeleteStoryHandler(ctx context.Context, storyID string, userID string) error {
	return h.Rounds.DeleteStory(ctx, commands.DeleteStoryCommand{
		StoryID: storyID,
		ActorID: userID,
	})
}

func (h Handler) ListStoriesHandler(ctx context.Context, roomID string, userID string) (httptransport.StoryListResponse, error) {
	stories, err := h.Queries.ListStories(ctx, roomID, userID)
	if err != nil {
		return httptransport.StoryListResponse{}, err
	}
	items := make([]httptransport.StoryResponse, 0, len(stories))
	for _, story := range stories {
		items = append(items, mapStory(story))
	}
	return httptransport.StoryListResponse{Items: items}, nil
}

func (h Handler) StartRoundHandler(ctx context.Context, storyID string, userID string) (httptransport.StartRoundResponse, error) {
	result, err := h.Rounds.StartRound(ctx, commands.StartRoundCommand{
		StoryID: storyID,
		ActorID: userID,
	})
	if err != nil {
		return httptransport.StartRoundResponse{}, err
	}
	return httptransport.StartRoundResponse{
		Round: mapRound(result.Round),
		Story: mapStory(result.Story),
	}, nil
}

func (h Handler) CastVoteHandler(
	ctx context.Context,
	storyID string,
	userID string,
	req httptransport.CastVoteRequest,
) (httptransport.CastVoteResponse, error) {
	result, err := h.Rounds.CastVote(ctx, commands.CastVoteCommand{
		StoryID: storyID,
		RoundID: req.RoundID,
		ActorID: userID,
		Value:   req.Value,
	})
	if err != nil {
		return httptransport.CastVoteResponse{}, err
	}
	return httptransport.CastVoteResponse{
		RoundID:   result.RoundID,
		VotesCast: result.VotesCast,
	}, nil
}

func (h Handler) RevealHandler(
	ctx context.Context,
	storyID string,
	userID string,
	req httptransport.RevealRequest,
) (httptransport.RevealResponse, error) {
	result, err := h.Rounds.Reveal(ctx, commands.RevealCommand{
		StoryID: storyID,
		RoundID: req.RoundID,
		ActorID: userID,
	})
	if err != nil {
		return httptransport.RevealResponse{}, err
	}
	return httptransport.RevealResponse{
		Round: mapRound(result.Round),
		Story: mapStory(result.Story),
		Votes: mapVotes(result.Votes),
		Stats: mapStats(result.Stats),
	}, nil
}

func (h Handler) FinalizeHandler(
	ctx context.Context,
	storyID string,
	userID string,
	req httptransport.FinalizeRequest,
) (httptransport.StoryResponse, error) {
	result, err := h.Rounds.Finalize(ctx, commands.FinalizeCommand{
		StoryID:       storyID,
		ActorID:       userID,
		FinalEstimate: req.FinalEstimate,
	})
	if err != nil {
		return httptransport.StoryResponse{}, err
	}
	return mapStory(result.Story), nil
}

func (h Handler) RoundVotesHandler(
	ctx context.Context,
	storyID string,
	roundID string,
	userID string,
) (httptransport.RoundViewResponse, error) {
	view, err := h.Queries.RoundVotes(ctx, storyID, roundID, userID)
	if err != nil {
		return httptransport.RoundViewResponse{}, err
	}
	return mapRoundView(view), nil
}

func (h Handler) RoundHistoryHandler(
	ctx context.Context,
	storyID string,
	userID string,
) (httptransport.RoundHistoryResponse, error) {
	views, err := h.Queries.RoundHistory(ctx, storyID, userID)
	if err != nil {
		return httptransport.RoundHistoryResponse{}, err
	}
	items := make([]httptransport.RoundViewResponse, 0, len(views))
	for _, view := range views {
		items = append(items, mapRoundView(view))
	}
	return httptransport.RoundHistoryResponse{Items: items}, nil
}

func mapStory(story entities.Story) httptransport.StoryResponse {
	return httptransport.StoryResponse{
		StoryID:       story.StoryID,
		RoomID:        story.RoomID,
		Title:         story.Title,
		Description:   story.Description,
		ExternalID:    story.ExternalID,
		ExternalURL:   story.ExternalURL,
		Status:        string(story.Status),
		FinalEstimate: story.FinalEstimate,
		SortOrder:     story.SortOrder,
		CreatedAt:     story.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:     story.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func mapRound(round entities.VotingRound) httptransport.RoundResponse {
	resp := httptransport.RoundResponse{
		RoundID:   round.RoundID,
		StoryID:   round.StoryID,
		RoomID:    round.RoomID,
		RoundNum:  round.RoundNum,
		StartedAt: round.StartedAt.UTC().Format(time.RFC3339),
	}
	if round.RevealedAt != nil {
		resp.RevealedAt = round.RevealedAt.UTC().Format(time.RFC3339)
	}
	return resp
}

func mapVotes(votes []entities.Vote) []httptransport.VoteItem {
	items := make([]httptransport.VoteItem, 0, len(votes))
	for _, vote := range votes {
		items = append(items, httptransport.VoteItem{
			UserID: vote.UserID,
			Value:  vote.Value,
		})
	}
	return items
}

func mapStats(s entities.VoteStats) httptransport.StatsResponse {
	return httptransport.StatsResponse{
		Average:        s.Average,
		Median:         s.Median,
		Mode:           s.Mode,
		Distribution:   s.Distribution,
		ConsensusLevel: string(s.ConsensusLevel),
		TotalVoters:    s.TotalVoters,
		TotalVotes:     s.TotalVotes,
	}
}

func mapRoundView(view queries.RoundView) httptransport.RoundViewResponse {
	resp := httptransport.RoundViewResponse{
		Round:      mapRound(view.Round),
		TotalVotes: view.TotalVotes,
		Votes:      mapVotes(view.Votes),
	}
	if view.Stats != nil {
		mapped := mapStats(*view.Stats)
		resp.Stats = &mapped
	}
	return resp
}
