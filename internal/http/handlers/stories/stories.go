package stories

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/princekumarofficial/familybook/internal/events"
	"github.com/princekumarofficial/familybook/internal/http/handlers"
	"github.com/princekumarofficial/familybook/internal/playback"
	"github.com/princekumarofficial/familybook/internal/services/access"
	"github.com/princekumarofficial/familybook/internal/services/upload"
	"github.com/princekumarofficial/familybook/internal/storage"
	"github.com/princekumarofficial/familybook/internal/types"
	"github.com/princekumarofficial/familybook/internal/types/media"
	"github.com/princekumarofficial/familybook/internal/utils/response"
)

// Uploader stores a batch of files and records a row per file.
type Uploader interface {
	UploadAll(ctx context.Context, bucket, accountID string, files []media.File, record upload.RecordFunc) ([]media.UploadResult, error)
}

type StoryHandlers struct {
	store     storage.Storage
	access    *access.Service
	uploader  Uploader
	publisher events.Publisher
	bucket    string
	maxBody   int64
	logger    *zap.Logger
}

func NewStoryHandlers(store storage.Storage, acc *access.Service, uploader Uploader, publisher events.Publisher, bucket string, maxBody int64, logger *zap.Logger) *StoryHandlers {
	return &StoryHandlers{
		store:     store,
		access:    acc,
		uploader:  uploader,
		publisher: publisher,
		bucket:    bucket,
		maxBody:   maxBody,
		logger:    logger,
	}
}

// Feed handles the stories feed endpoint
// @Summary Get stories feed
// @Description Non-deleted stories of an account, newest first, with author names
// @Tags stories
// @Produce json
// @Param account_id path int true "Account ID"
// @Success 200 {object} response.Response "Stories fetched successfully"
// @Failure 403 {object} response.Response "Forbidden"
// @Security BearerAuth
// @Router /accounts/{account_id}/stories [get]
func (h *StoryHandlers) Feed() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := handlers.Session(w, r)
		if !ok {
			return
		}
		accountID, err := handlers.PathID(r, "account_id")
		if err != nil {
			handlers.BadRequest(w, err.Error())
			return
		}

		if _, err := h.access.Require(r.Context(), accountID, session.UserID, access.ActionRead); err != nil {
			handlers.WriteError(w, h.logger, err, "failed to check access")
			return
		}

		list, err := h.store.ListStories(r.Context(), accountID)
		if err != nil {
			handlers.WriteError(w, h.logger, err, "failed to list stories")
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Stories fetched successfully", list))
	}
}

// PostStory handles creating stories from uploaded media
// @Summary Post stories
// @Description Multipart upload under the "files" field; one story per file. The batch stops at the first failing file.
// @Tags stories
// @Accept multipart/form-data
// @Produce json
// @Param account_id path int true "Account ID"
// @Param files formData file true "Story media"
// @Success 201 {object} response.Response "Stories created"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 403 {object} response.Response "Forbidden"
// @Failure 413 {object} response.Response "File too large"
// @Failure 502 {object} response.Response "Blob store failure"
// @Security BearerAuth
// @Router /accounts/{account_id}/stories [post]
func (h *StoryHandlers) PostStory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := handlers.Session(w, r)
		if !ok {
			return
		}
		accountID, err := handlers.PathID(r, "account_id")
		if err != nil {
			handlers.BadRequest(w, err.Error())
			return
		}

		if _, err := h.access.Require(r.Context(), accountID, session.UserID, access.ActionPost); err != nil {
			handlers.WriteError(w, h.logger, err, "failed to check access")
			return
		}

		files, err := handlers.MultipartFiles(w, r, "files", h.maxBody)
		if err != nil {
			handlers.WriteFormError(w, err)
			return
		}

		record := func(ctx context.Context, stored media.Stored) (string, error) {
			story := types.Story{
				Content:   stored.URL,
				ObjectKey: stored.ObjectKey,
				AccountID: accountID,
				AuthorID:  session.UserID,
			}
			id, err := h.store.CreateStory(ctx, story)
			if err != nil {
				return "", err
			}
			story.ID = id
			h.publisher.PublishStoryPosted(ctx, story)
			return id, nil
		}

		results, err := h.uploader.UploadAll(r.Context(), h.bucket, accountID, files, record)
		if err != nil {
			handlers.WriteUploadError(w, h.logger, results, err)
			return
		}

		response.WriteJSON(w, http.StatusCreated, response.RequestOK("Stories created successfully", results))
	}
}

// DeleteStory soft-deletes a story written by the caller
// @Summary Delete story
// @Tags stories
// @Param story_id path int true "Story ID"
// @Success 200 {object} response.Response "Story deleted"
// @Failure 403 {object} response.Response "Only the author can delete a story"
// @Failure 404 {object} response.Response "Story not found"
// @Security BearerAuth
// @Router /stories/{story_id} [delete]
func (h *StoryHandlers) DeleteStory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := handlers.Session(w, r)
		if !ok {
			return
		}
		storyID, err := handlers.PathID(r, "story_id")
		if err != nil {
			handlers.BadRequest(w, err.Error())
			return
		}

		story, err := h.store.GetStory(r.Context(), storyID)
		if err != nil {
			handlers.WriteError(w, h.logger, err, "failed to get story")
			return
		}

		if _, err := h.access.Require(r.Context(), story.AccountID, session.UserID, access.ActionRead); err != nil {
			handlers.WriteError(w, h.logger, err, "failed to check access")
			return
		}
		if story.AuthorID != session.UserID {
			handlers.WriteError(w, h.logger, playback.ErrNotAuthor, "failed to delete story")
			return
		}

		deleted, err := h.store.SoftDelete(r.Context(), storage.TableStories, story.ID)
		if err != nil {
			handlers.WriteError(w, h.logger, err, "failed to delete story")
			return
		}
		if !deleted {
			response.WriteJSON(w, http.StatusNotFound, response.GeneralError(errors.New("story not found")))
			return
		}
		h.logger.Info("story deleted", zap.String("story_id", story.ID), zap.String("user_id", session.UserID))
		h.publisher.PublishStoryDeleted(r.Context(), story)

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Story deleted successfully", nil))
	}
}
