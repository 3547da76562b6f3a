package photos

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/princekumarofficial/familybook/internal/http/handlers"
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

type PhotoHandlers struct {
	store    storage.Storage
	access   *access.Service
	uploader Uploader
	bucket   string
	maxBody  int64
	logger   *zap.Logger
}

func NewPhotoHandlers(store storage.Storage, acc *access.Service, uploader Uploader, bucket string, maxBody int64, logger *zap.Logger) *PhotoHandlers {
	return &PhotoHandlers{
		store:    store,
		access:   acc,
		uploader: uploader,
		bucket:   bucket,
		maxBody:  maxBody,
		logger:   logger,
	}
}

// album loads the album behind {album_id} and checks the caller may do a in
// its account.
func (h *PhotoHandlers) album(w http.ResponseWriter, r *http.Request, userID string, a access.Action) (types.Album, bool) {
	albumID, err := handlers.PathID(r, "album_id")
	if err != nil {
		handlers.BadRequest(w, err.Error())
		return types.Album{}, false
	}

	album, err := h.store.GetAlbum(r.Context(), albumID)
	if err != nil {
		handlers.WriteError(w, h.logger, err, "failed to get album")
		return types.Album{}, false
	}

	if _, err := h.access.Require(r.Context(), album.AccountID, userID, a); err != nil {
		handlers.WriteError(w, h.logger, err, "failed to check access")
		return types.Album{}, false
	}
	return album, true
}

// photo is album for {photo_id}.
func (h *PhotoHandlers) photo(w http.ResponseWriter, r *http.Request, userID string, a access.Action) (types.Photo, bool) {
	photoID, err := handlers.PathID(r, "photo_id")
	if err != nil {
		handlers.BadRequest(w, err.Error())
		return types.Photo{}, false
	}

	photo, err := h.store.GetPhoto(r.Context(), photoID)
	if err != nil {
		handlers.WriteError(w, h.logger, err, "failed to get photo")
		return types.Photo{}, false
	}

	if _, err := h.access.Require(r.Context(), photo.AccountID, userID, a); err != nil {
		handlers.WriteError(w, h.logger, err, "failed to check access")
		return types.Photo{}, false
	}
	return photo, true
}

// List returns the photos of an album
// @Summary List photos
// @Tags photos
// @Produce json
// @Param album_id path int true "Album ID"
// @Param sort query string false "created_at (default) or username"
// @Success 200 {object} response.Response "Photos with like counts"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 403 {object} response.Response "Forbidden"
// @Security BearerAuth
// @Router /albums/{album_id}/photos [get]
func (h *PhotoHandlers) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := handlers.Session(w, r)
		if !ok {
			return
		}

		sort := types.PhotoSort(r.URL.Query().Get("sort"))
		switch sort {
		case "":
			sort = types.SortByCreatedAt
		case types.SortByCreatedAt, types.SortByUsername:
		default:
			handlers.BadRequest(w, "sort must be one of [created_at username]")
			return
		}

		album, ok := h.album(w, r, session.UserID, access.ActionRead)
		if !ok {
			return
		}

		list, err := h.store.ListPhotos(r.Context(), album.ID, sort)
		if err != nil {
			handlers.WriteError(w, h.logger, err, "failed to list photos")
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Photos fetched successfully", list))
	}
}

// Upload stores one or more photos in an album
// @Summary Upload photos
// @Description Multipart upload under the "files" field. The batch stops at the first failing file; files stored before it are kept and returned with the error.
// @Tags photos
// @Accept multipart/form-data
// @Produce json
// @Param album_id path int true "Album ID"
// @Param files formData file true "Photos"
// @Success 201 {object} response.Response "Stored photos"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 403 {object} response.Response "Forbidden"
// @Failure 413 {object} response.Response "File too large"
// @Failure 502 {object} response.Response "Blob store failure"
// @Security BearerAuth
// @Router /albums/{album_id}/photos [post]
func (h *PhotoHandlers) Upload() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := handlers.Session(w, r)
		if !ok {
			return
		}

		album, ok := h.album(w, r, session.UserID, access.ActionAdd)
		if !ok {
			return
		}

		files, err := handlers.MultipartFiles(w, r, "files", h.maxBody)
		if err != nil {
			handlers.WriteFormError(w, err)
			return
		}

		record := func(ctx context.Context, stored media.Stored) (string, error) {
			return h.store.CreatePhoto(ctx, types.Photo{
				AlbumID:   album.ID,
				AccountID: album.AccountID,
				AuthorID:  session.UserID,
				URL:       stored.URL,
				ObjectKey: stored.ObjectKey,
			})
		}

		results, err := h.uploader.UploadAll(r.Context(), h.bucket, album.AccountID, files, record)
		if err != nil {
			handlers.WriteUploadError(w, h.logger, results, err)
			return
		}

		response.WriteJSON(w, http.StatusCreated, response.RequestOK("Photos uploaded successfully", results))
	}
}

// Delete soft-deletes a photo
// @Summary Delete photo
// @Tags photos
// @Param photo_id path int true "Photo ID"
// @Success 200 {object} response.Response "Photo deleted"
// @Failure 403 {object} response.Response "Forbidden"
// @Failure 404 {object} response.Response "Photo not found"
// @Security BearerAuth
// @Router /photos/{photo_id} [delete]
func (h *PhotoHandlers) Delete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := handlers.Session(w, r)
		if !ok {
			return
		}

		photo, ok := h.photo(w, r, session.UserID, access.ActionDelete)
		if !ok {
			return
		}

		deleted, err := h.store.SoftDelete(r.Context(), storage.TablePhotos, photo.ID)
		if err != nil {
			handlers.WriteError(w, h.logger, err, "failed to delete photo")
			return
		}
		if !deleted {
			response.WriteJSON(w, http.StatusNotFound, response.GeneralError(errors.New("photo not found")))
			return
		}
		h.logger.Info("photo deleted", zap.String("photo_id", photo.ID), zap.String("user_id", session.UserID))

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Photo deleted successfully", nil))
	}
}

// Like toggles the caller's like on a photo
// @Summary Toggle like
// @Tags photos
// @Param photo_id path int true "Photo ID"
// @Success 200 {object} response.Response "Like state"
// @Failure 403 {object} response.Response "Forbidden"
// @Security BearerAuth
// @Router /photos/{photo_id}/like [post]
func (h *PhotoHandlers) Like() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := handlers.Session(w, r)
		if !ok {
			return
		}

		photo, ok := h.photo(w, r, session.UserID, access.ActionRead)
		if !ok {
			return
		}

		liked, err := h.store.ToggleLike(r.Context(), photo.ID, session.UserID)
		if err != nil {
			handlers.WriteError(w, h.logger, err, "failed to toggle like")
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Like toggled", map[string]bool{"liked": liked}))
	}
}

// ListComments returns a photo's comments, oldest first
// @Summary List comments
// @Tags photos
// @Produce json
// @Param photo_id path int true "Photo ID"
// @Success 200 {object} response.Response "Comments"
// @Failure 403 {object} response.Response "Forbidden"
// @Security BearerAuth
// @Router /photos/{photo_id}/comments [get]
func (h *PhotoHandlers) ListComments() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := handlers.Session(w, r)
		if !ok {
			return
		}

		photo, ok := h.photo(w, r, session.UserID, access.ActionRead)
		if !ok {
			return
		}

		list, err := h.store.ListComments(r.Context(), photo.ID)
		if err != nil {
			handlers.WriteError(w, h.logger, err, "failed to list comments")
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Comments fetched successfully", list))
	}
}

// AddComment posts a comment on a photo
// @Summary Add comment
// @Tags photos
// @Accept json
// @Produce json
// @Param photo_id path int true "Photo ID"
// @Param comment body types.CommentCreateRequest true "Comment"
// @Success 201 {object} response.Response "Comment created, data holds its id"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 403 {object} response.Response "Forbidden"
// @Failure 429 {object} response.Response "Rate limit exceeded"
// @Security BearerAuth
// @Router /photos/{photo_id}/comments [post]
func (h *PhotoHandlers) AddComment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := handlers.Session(w, r)
		if !ok {
			return
		}

		var req types.CommentCreateRequest
		if !handlers.Decode(w, r, &req) {
			return
		}
		text := strings.TrimSpace(req.Text)
		if text == "" {
			handlers.BadRequest(w, "comment text is required")
			return
		}

		photo, ok := h.photo(w, r, session.UserID, access.ActionPost)
		if !ok {
			return
		}

		commentID, err := h.store.AddComment(r.Context(), photo.ID, session.UserID, text)
		if err != nil {
			handlers.WriteError(w, h.logger, err, "failed to add comment")
			return
		}

		response.WriteJSON(w, http.StatusCreated, response.RequestOK("Comment added successfully", map[string]string{"id": commentID}))
	}
}

// DeleteComment soft-deletes a comment. Authors remove their own comments;
// anyone else needs can_delete.
// @Summary Delete comment
// @Tags photos
// @Produce json
// @Param photo_id path int true "Photo ID"
// @Param comment_id path int true "Comment ID"
// @Success 200 {object} response.Response "Comment deleted"
// @Failure 403 {object} response.Response "Forbidden"
// @Failure 404 {object} response.Response "Comment not found"
// @Security BearerAuth
// @Router /photos/{photo_id}/comments/{comment_id} [delete]
func (h *PhotoHandlers) DeleteComment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := handlers.Session(w, r)
		if !ok {
			return
		}
		commentID, err := handlers.PathID(r, "comment_id")
		if err != nil {
			handlers.BadRequest(w, err.Error())
			return
		}

		photo, ok := h.photo(w, r, session.UserID, access.ActionRead)
		if !ok {
			return
		}

		comment, err := h.store.GetComment(r.Context(), commentID)
		if err != nil {
			handlers.WriteError(w, h.logger, err, "failed to get comment")
			return
		}
		if comment.PhotoID != photo.ID {
			response.WriteJSON(w, http.StatusNotFound, response.GeneralError(errors.New("comment not found")))
			return
		}
		if comment.UserID != session.UserID {
			if _, err := h.access.Require(r.Context(), photo.AccountID, session.UserID, access.ActionDelete); err != nil {
				handlers.WriteError(w, h.logger, err, "failed to check access")
				return
			}
		}

		deleted, err := h.store.SoftDelete(r.Context(), storage.TableComments, comment.ID)
		if err != nil {
			handlers.WriteError(w, h.logger, err, "failed to delete comment")
			return
		}
		if !deleted {
			response.WriteJSON(w, http.StatusNotFound, response.GeneralError(errors.New("comment not found")))
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Comment deleted successfully", nil))
	}
}
