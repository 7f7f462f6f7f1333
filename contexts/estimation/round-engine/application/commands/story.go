package commands

import (
	"context"
	"strings"

	application "pointdeck/contexts/estimation/round-engine/application"
	"pointdeck/contexts/estimation/round-engine/domain/entities"
	domainerrors "pointdeck/contexts/estimation/round-engine/domain/errors"
	"pointdeck/contexts/estimation/round-engine/domain/permissions"
)

const (
	maxTitleLength       = 500
	maxDescriptionLength = 5000
	maxExternalIDLength  = 100
)

type CreateStoryCommand struct {
	RoomID      string
	ActorID     string
	Title       string
	Description string
	ExternalID  string
	ExternalURL string
}

// UpdateStoryCommand patches story metadata. Nil fields are left untouched.
// Status and finalEstimate are not patchable here; those move only through
// the round lifecycle operations.
type UpdateStoryCommand struct {
	StoryID     string
	ActorID     string
	Title       *string
	Description *string
	ExternalID  *string
	ExternalURL *string
	SortOrder   *int
}

type DeleteStoryCommand struct {
	StoryID string
	ActorID string
}

func (uc RoundUseCase) CreateStory(ctx context.Context, cmd CreateStoryCommand) (entities.Story, error) {
	logger := application.ResolveLogger(uc.Logger)
	roomID := strings.TrimSpace(cmd.RoomID)
	actorID := strings.TrimSpace(cmd.ActorID)
	title := strings.TrimSpace(cmd.Title)
	if roomID == "" || actorID == "" {
		return entities.Story{}, domainerrors.ErrInvalidStoryInput
	}
	if title == "" || len(title) > maxTitleLength ||
		len(cmd.Description) > maxDescriptionLength ||
		len(cmd.ExternalID) > maxExternalIDLength {
		return entities.Story{}, domainerrors.ErrInvalidStoryInput
	}

	if err := uc.requireAction(ctx, roomID, actorID, permissions.ActionManageStory); err != nil {
		return entities.Story{}, err
	}
	room, err := uc.Repo.GetRoomProjection(ctx, roomID)
	if err != nil {
		return entities.Story{}, err
	}
	if room.Status != "active" {
		return entities.Story{}, domainerrors.ErrRoomNotActive
	}

	maxOrder, found, err := uc.Repo.MaxSortOrder(ctx, roomID)
	if err != nil {
		return entities.Story{}, err
	}
	sortOrder := 0
	if found {
		sortOrder = maxOrder + 1
	}

	storyID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Story{}, err
	}
	now := uc.now()
	story := entities.Story{
		StoryID:     storyID,
		RoomID:      roomID,
		Title:       title,
		Description: strings.TrimSpace(cmd.Description),
		ExternalID:  strings.TrimSpace(cmd.ExternalID),
		ExternalURL: strings.TrimSpace(cmd.ExternalURL),
		Status:      entities.StoryStatusPending,
		SortOrder:   sortOrder,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.Repo.SaveStory(ctx, story); err != nil {
		return entities.Story{}, domainerrors.ErrPersistenceFailure
	}
	if err := uc.appendEvent(ctx, EventStoryCreated, roomID, now, map[string]any{
		"room_id":    roomID,
		"story_id":   storyID,
		"title":      title,
		"sort_order": sortOrder,
	}); err != nil {
		_ = uc.Repo.DeleteStory(ctx, storyID)
		return entities.Story{}, domainerrors.ErrPersistenceFailure
	}

	logger.Info("story created",
		"event", "story_created",
		"module", "estimation/round-engine",
		"layer", "application",
		"room_id", roomID,
		"story_id", storyID,
		"sort_order", sortOrder,
	)
	return story, nil
}

func (uc RoundUseCase) UpdateStory(ctx context.Context, cmd UpdateStoryCommand) (entities.Story, error) {
	logger := application.ResolveLogger(uc.Logger)
	storyID := strings.TrimSpace(cmd.StoryID)
	actorID := strings.TrimSpace(cmd.ActorID)
	if storyID == "" || actorID == "" {
		return entities.Story{}, domainerrors.ErrInvalidStoryInput
	}

	release := uc.Locks.Acquire(storyID)
	defer release()

	story, err := uc.Repo.GetStory(ctx, storyID)
	if err != nil {
		return entities.Story{}, err
	}
	if err := uc.requireAction(ctx, story.RoomID, actorID, permissions.ActionManageStory); err != nil {
		return entities.Story{}, err
	}

	prior := story
	if cmd.Title != nil {
		title := strings.TrimSpace(*cmd.Title)
		if title == "" || len(title) > maxTitleLength {
			return entities.Story{}, domainerrors.ErrInvalidStoryInput
		}
		story.Title = title
	}
	if cmd.Description != nil {
		if len(*cmd.Description) > maxDescriptionLength {
			return entities.Story{}, domainerrors.ErrInvalidStoryInput
		}
		story.Description = *cmd.Description
	}
	if cmd.ExternalID != nil {
		if len(*cmd.ExternalID) > maxExternalIDLength {
			return entities.Story{}, domainerrors.ErrInvalidStoryInput
		}
		story.ExternalID = *cmd.ExternalID
	}
	if cmd.ExternalURL != nil {
		story.ExternalURL = *cmd.ExternalURL
	}
	if cmd.SortOrder != nil {
		if *cmd.SortOrder < 0 {
			return entities.Story{}, domainerrors.ErrInvalidStoryInput
		}
		story.SortOrder = *cmd.SortOrder
	}

	now := uc.now()
	story.UpdatedAt = now
	if err := uc.Repo.SaveStory(ctx, story); err != nil {
		return entities.Story{}, domainerrors.ErrPersistenceFailure
	}
	if err := uc.appendEvent(ctx, EventStoryUpdated, story.RoomID, now, map[string]any{
		"room_id":  story.RoomID,
		"story_id": storyID,
	}); err != nil {
		_ = uc.Repo.SaveStory(ctx, prior)
		return entities.Story{}, domainerrors.ErrPersistenceFailure
	}

	logger.Info("story updated",
		"event", "story_updated",
		"module", "estimation/round-engine",
		"layer", "application",
		"room_id", story.RoomID,
		"story_id", storyID,
	)
	return story, nil
}

func (uc RoundUseCase) DeleteStory(ctx context.Context, cmd DeleteStoryCommand) error {
	logger := application.ResolveLogger(uc.Logger)
	storyID := strings.TrimSpace(cmd.StoryID)
	actorID := strings.TrimSpace(cmd.ActorID)
	if storyID == "" || actorID == "" {
		return domainerrors.ErrInvalidStoryInput
	}

	release := uc.Locks.Acquire(storyID)
	defer release()

	story, err := uc.Repo.GetStory(ctx, storyID)
	if err != nil {
		return err
	}
	if err := uc.requireAction(ctx, story.RoomID, actorID, permissions.ActionManageStory); err != nil {
		return err
	}
	if err := uc.Repo.DeleteStory(ctx, storyID); err != nil {
		return domainerrors.ErrPersistenceFailure
	}
	if err := uc.appendEvent(ctx, EventStoryDeleted, story.RoomID, uc.now(), map[string]any{
		"room_id":  story.RoomID,
		"story_id": storyID,
	}); err != nil {
		_ = uc.Repo.SaveStory(ctx, story)
		return domainerrors.ErrPersistenceFailure
	}

	logger.Info("story deleted",
		"event", "story_deleted",
		"module", "estimation/round-engine",
		"layer", "application",
		"room_id", story.RoomID,
		"story_id", storyID,
	)
	return nil
}
