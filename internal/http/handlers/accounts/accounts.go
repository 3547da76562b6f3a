package accounts

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/princekumarofficial/familybook/internal/events"
	"github.com/princekumarofficial/familybook/internal/http/handlers"
	"github.com/princekumarofficial/familybook/internal/members"
	"github.com/princekumarofficial/familybook/internal/services/access"
	"github.com/princekumarofficial/familybook/internal/storage"
	"github.com/princekumarofficial/familybook/internal/types"
	"github.com/princekumarofficial/familybook/internal/utils/response"
)

type AccountHandlers struct {
	store     storage.Storage
	access    *access.Service
	publisher events.Publisher
	logger    *zap.Logger
}

func NewAccountHandlers(store storage.Storage, acc *access.Service, publisher events.Publisher, logger *zap.Logger) *AccountHandlers {
	return &AccountHandlers{
		store:     store,
		access:    acc,
		publisher: publisher,
		logger:    logger,
	}
}

// Mine returns the account owned by the caller
// @Summary Own account
// @Description Get the account owned by the caller, including its invite code
// @Tags accounts
// @Produce json
// @Success 200 {object} response.Response "Owned account, with its invite code"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 404 {object} response.Response "No owned account"
// @Security BearerAuth
// @Router /accounts/mine [get]
func (h *AccountHandlers) Mine() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := handlers.Session(w, r)
		if !ok {
			return
		}

		account, err := h.store.GetAccountByOwner(r.Context(), session.UserID)
		if err != nil {
			handlers.WriteError(w, h.logger, err, "failed to get account")
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Account fetched successfully", account))
	}
}

// Join requests membership of the account behind an invite code
// @Summary Join by invite code
// @Description Request to join an account. The membership starts as pending until the owner edits it.
// @Tags accounts
// @Accept json
// @Produce json
// @Param request body types.JoinRequest true "Invite code"
// @Success 201 {object} response.Response "Join requested"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 404 {object} response.Response "Unknown invite code"
// @Failure 409 {object} response.Response "Already a member"
// @Failure 429 {object} response.Response "Rate limit exceeded"
// @Security BearerAuth
// @Router /accounts/join [post]
func (h *AccountHandlers) Join() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := handlers.Session(w, r)
		if !ok {
			return
		}

		var req types.JoinRequest
		if !handlers.Decode(w, r, &req) {
			return
		}
		code := strings.ToUpper(strings.TrimSpace(req.InviteCode))
		if code == "" {
			handlers.BadRequest(w, "invite code is required")
			return
		}

		account, err := h.store.GetAccountByInviteCode(r.Context(), code)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				response.WriteJSON(w, http.StatusNotFound, response.GeneralError(errors.New("invite code not found")))
				return
			}
			handlers.WriteError(w, h.logger, err, "failed to look up invite code")
			return
		}

		err = h.store.AddMember(r.Context(), account.ID, session.UserID, types.RolePending, types.Permissions{})
		if err != nil {
			if errors.Is(err, storage.ErrAlreadyExists) {
				response.WriteJSON(w, http.StatusConflict, response.GeneralError(errors.New("already a member of this account")))
				return
			}
			handlers.WriteError(w, h.logger, err, "failed to join account")
			return
		}

		h.logger.Info("join requested", zap.String("account_id", account.ID), zap.String("user_id", session.UserID))
		h.publisher.PublishMemberRequested(r.Context(), account, session.UserID)

		response.WriteJSON(w, http.StatusCreated, response.RequestOK("Join requested", map[string]string{
			"account_id": account.ID,
			"role":       string(types.RolePending),
		}))
	}
}

// ListMembers returns the members of an account
// @Summary List members
// @Tags accounts
// @Produce json
// @Param account_id path int true "Account ID"
// @Success 200 {object} response.Response "Members"
// @Failure 403 {object} response.Response "Forbidden"
// @Security BearerAuth
// @Router /accounts/{account_id}/members [get]
func (h *AccountHandlers) ListMembers() http.HandlerFunc {
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

		list, err := h.store.ListMembers(r.Context(), accountID)
		if err != nil {
			handlers.WriteError(w, h.logger, err, "failed to list members")
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Members fetched successfully", list))
	}
}

// UpdateMembers commits a batch of member drafts
// @Summary Update members
// @Description Apply role and permission edits. Only rows that differ from the stored member are written.
// @Tags accounts
// @Accept json
// @Produce json
// @Param account_id path int true "Account ID"
// @Param request body types.MemberUpdateRequest true "Member drafts"
// @Success 200 {object} response.Response "Updated member list"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 403 {object} response.Response "Forbidden"
// @Security BearerAuth
// @Router /accounts/{account_id}/members [put]
func (h *AccountHandlers) UpdateMembers() http.HandlerFunc {
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

		if _, err := h.access.Require(r.Context(), accountID, session.UserID, access.ActionManageMembers); err != nil {
			handlers.WriteError(w, h.logger, err, "failed to check access")
			return
		}

		var req types.MemberUpdateRequest
		if !handlers.Decode(w, r, &req) {
			return
		}

		current, err := h.store.ListMembers(r.Context(), accountID)
		if err != nil {
			handlers.WriteError(w, h.logger, err, "failed to list members")
			return
		}

		table := members.NewTable(current)
		for _, u := range req.Updates {
			if err := table.Apply(u); err != nil {
				handlers.BadRequest(w, err.Error())
				return
			}
		}

		// Only the owner gets past ActionManageMembers, so the caller is the owner.
		updates := table.Commit()
		for _, u := range updates {
			if err := access.CheckMemberUpdate(session.UserID, u); err != nil {
				handlers.WriteError(w, h.logger, err, "invalid member update")
				return
			}
		}

		for _, u := range updates {
			if err := h.store.UpdateMember(r.Context(), accountID, u.UserID, u.Role, u.Permissions); err != nil {
				handlers.WriteError(w, h.logger, fmt.Errorf("update member %s: %w", u.UserID, err), "failed to update members")
				return
			}
			h.publisher.PublishMemberUpdated(r.Context(), accountID, u)
		}
		h.logger.Info("members updated", zap.String("account_id", accountID), zap.Int("rows", len(updates)))

		list, err := h.store.ListMembers(r.Context(), accountID)
		if err != nil {
			handlers.WriteError(w, h.logger, err, "failed to list members")
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Members updated successfully", list))
	}
}
