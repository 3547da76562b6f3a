package users

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/princekumarofficial/familybook/internal/http/handlers"
	"github.com/princekumarofficial/familybook/internal/services/auth"
	"github.com/princekumarofficial/familybook/internal/types"
	"github.com/princekumarofficial/familybook/internal/types/users"
	"github.com/princekumarofficial/familybook/internal/utils/response"
)

// AuthService is the part of auth.Service the user handlers call.
type AuthService interface {
	SignUp(ctx context.Context, req users.SignUpRequest) (users.User, types.Account, error)
	SignIn(ctx context.Context, req users.SignInRequest) (string, auth.Session, error)
	SignOut(ctx context.Context, session auth.Session) error
	Me(ctx context.Context, session auth.Session) (users.Me, error)
}

type SignUpResponse struct {
	User    users.User    `json:"user"`
	Account types.Account `json:"account"`
}

type LoginResponse struct {
	UserID    string `json:"user_id"`
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

// SignUp handles user registration
// @Summary Register a new user
// @Description Register a user and create the family account they own
// @Tags users
// @Accept json
// @Produce json
// @Param user body users.SignUpRequest true "User registration details"
// @Success 201 {object} SignUpResponse "User created successfully"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 409 {object} response.Response "Email already registered"
// @Failure 500 {object} response.Response "Internal server error"
// @Router /signup [post]
func SignUp(svc AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req users.SignUpRequest
		if !handlers.Decode(w, r, &req) {
			return
		}

		user, account, err := svc.SignUp(r.Context(), req)
		if err != nil {
			handlers.WriteError(w, logger, err, "failed to sign up")
			return
		}

		response.WriteJSON(w, http.StatusCreated, SignUpResponse{User: user, Account: account})
	}
}

// Login handles user authentication
// @Summary Authenticate a user
// @Description Authenticate a user and return a JWT token
// @Tags users
// @Accept json
// @Produce json
// @Param user body users.SignInRequest true "User login details"
// @Success 200 {object} LoginResponse "User authenticated successfully with token"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 401 {object} response.Response "Unauthorized"
// @Router /login [post]
func Login(svc AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req users.SignInRequest
		if !handlers.Decode(w, r, &req) {
			return
		}

		token, session, err := svc.SignIn(r.Context(), req)
		if err != nil {
			handlers.WriteError(w, logger, err, "failed to sign in")
			return
		}

		response.WriteJSON(w, http.StatusOK, LoginResponse{
			UserID:    session.UserID,
			Token:     token,
			ExpiresAt: session.ExpiresAt.Unix(),
		})
	}
}

// Logout revokes the caller's token
// @Summary Sign out
// @Tags users
// @Success 200 {object} response.Response "Signed out"
// @Failure 401 {object} response.Response "Unauthorized"
// @Security BearerAuth
// @Router /logout [post]
func Logout(svc AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := handlers.Session(w, r)
		if !ok {
			return
		}

		if err := svc.SignOut(r.Context(), session); err != nil {
			handlers.WriteError(w, logger, err, "failed to sign out")
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Signed out", nil))
	}
}

// Me returns the signed-in user and the accounts they belong to
// @Summary Current session
// @Tags users
// @Produce json
// @Success 200 {object} users.Me "Current user"
// @Failure 401 {object} response.Response "Unauthorized"
// @Security BearerAuth
// @Router /me [get]
func Me(svc AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := handlers.Session(w, r)
		if !ok {
			return
		}

		me, err := svc.Me(r.Context(), session)
		if err != nil {
			handlers.WriteError(w, logger, err, "failed to load session")
			return
		}

		response.WriteJSON(w, http.StatusOK, me)
	}
}
