package albums

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/princekumarofficial/familybook/internal/http/handlers"
	"github.com/princekumarofficial/familybook/internal/services/access"
	"github.com/princekumarofficial/familybook/internal/storage"
	"github.com/princekumarofficial/familybook/internal/types"
	"github.com/princekumarofficial/familybook/internal/utils/response"
)

type AlbumHandlers struct {
	store  storage.Storage
	access *access.Service
	logger *zap.Logger
}

func NewAlbumHandlers(store storage.Storage, acc *access.Service, logger *zap.Logger) *AlbumHandlers {
	return &AlbumHandlers{store: store, access: acc, logger: logger}
}

// List returns the active albums of an account, newest first
// @Summary List albums
// @Tags albums
// @Produce json
// @Param account_id path int true "Account ID"
// @Success 200 {object} response.Response "Albums with photo counts"
// @Failure 403 {object} response.Response "Forbidden"
// @Security BearerAuth
// @Router /accounts/{account_id}/albums [get]
func (h *AlbumHandlers) List() http.HandlerFunc {
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

		list, err := h.store.ListActiveAlbums(r.Context(), accountID)
		if err != nil {
			handlers.WriteError(w, h.logger, err, "failed to list albums")
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Albums fetched successfully", list))
	}
}

// Create adds an album to an account
// @Summary Create album
// @Tags albums
// @Accept json
// @Produce json
// @Param account_id path int true "Account ID"
// @Param album body types.AlbumCreateRequest true "Album"
// @Success 201 {object} response.Response "Album created, data holds its id"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 403 {object} response.Response "Forbidden"
// @Security BearerAuth
// @Router /accounts/{account_id}/albums [post]
func (h *AlbumHandlers) Create() http.HandlerFunc {
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

		var req types.AlbumCreateRequest
		if !handlers.Decode(w, r, &req) {
			return
		}
		title := strings.TrimSpace(req.Title)
		if title == "" {
			handlers.BadRequest(w, "title is required")
			return
		}

		if _, err := h.access.Require(r.Context(), accountID, session.UserID, access.ActionAdd); err != nil {
			handlers.WriteError(w, h.logger, err, "failed to check access")
			return
		}

		albumID, err := h.store.CreateAlbum(r.Context(), accountID, title, session.UserID)
		if err != nil {
			handlers.WriteError(w, h.logger, err, "failed to create album")
			return
		}
		h.logger.Info("album created", zap.String("album_id", albumID), zap.String("account_id", accountID))

		response.WriteJSON(w, http.StatusCreated, response.RequestOK("Album created successfully", map[string]string{"id": albumID}))
	}
}

// Get returns one album
// @Summary Album detail
// @Tags albums
// @Produce json
// @Param album_id path int true "Album ID"
// @Success 200 {object} response.Response "Album"
// @Failure 403 {object} response.Response "Forbidden"
// @Failure 404 {object} response.Response "Album not found"
// @Security BearerAuth
// @Router /albums/{album_id} [get]
func (h *AlbumHandlers) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := handlers.Session(w, r)
		if !ok {
			return
		}
		album, ok := h.album(w, r, session.UserID, access.ActionRead)
		if !ok {
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Album fetched successfully", album))
	}
}

// Rename changes an album's title
// @Summary Rename album
// @Tags albums
// @Accept json
// @Produce json
// @Param album_id path int true "Album ID"
// @Param album body types.AlbumRenameRequest true "New title"
// @Success 200 {object} response.Response "Album renamed"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 403 {object} response.Response "Forbidden"
// @Failure 404 {object} response.Response "Album not found"
// @Security BearerAuth
// @Router /albums/{album_id} [patch]
func (h *AlbumHandlers) Rename() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := handlers.Session(w, r)
		if !ok {
			return
		}

		var req types.AlbumRenameRequest
		if !handlers.Decode(w, r, &req) {
			return
		}
		title := strings.TrimSpace(req.Title)
		if title == "" {
			handlers.BadRequest(w, "title is required")
			return
		}

		album, ok := h.album(w, r, session.UserID, access.ActionEdit)
		if !ok {
			return
		}

		if err := h.store.RenameAlbum(r.Context(), album.ID, title); err != nil {
			handlers.WriteError(w, h.logger, err, "failed to rename album")
			return
		}
		album.Title = title

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Album renamed successfully", album))
	}
}

// Delete soft-deletes an album
// @Summary Delete album
// @Tags albums
// @Produce json
// @Param album_id path int true "Album ID"
// @Success 200 {object} response.Response "Album deleted"
// @Failure 403 {object} response.Response "Forbidden"
// @Failure 404 {object} response.Response "Album not found"
// @Security BearerAuth
// @Router /albums/{album_id} [delete]
func (h *AlbumHandlers) Delete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := handlers.Session(w, r)
		if !ok {
			return
		}

		album, ok := h.album(w, r, session.UserID, access.ActionDelete)
		if !ok {
			return
		}

		deleted, err := h.store.SoftDelete(r.Context(), storage.TableAlbums, album.ID)
		if err != nil {
			handlers.WriteError(w, h.logger, err, "failed to delete album")
			return
		}
		if !deleted {
			response.WriteJSON(w, http.StatusNotFound, response.GeneralError(errors.New("album not found")))
			return
		}
		h.logger.Info("album deleted", zap.String("album_id", album.ID), zap.String("user_id", session.UserID))

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Album deleted successfully", nil))
	}
}

// album resolves {album_id} and checks a against the album's account.
func (h *AlbumHandlers) album(w http.ResponseWriter, r *http.Request, userID string, a access.Action) (types.Album, bool) {
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
