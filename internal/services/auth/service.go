package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/princekumarofficial/familybook/internal/storage"
	"github.com/princekumarofficial/familybook/internal/types"
	"github.com/princekumarofficial/familybook/internal/types/users"
	"github.com/princekumarofficial/familybook/internal/utils/jwt"
	"github.com/princekumarofficial/familybook/internal/utils/password"
)

var (
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthorized       = errors.New("unauthorized")
)

const inviteCodeAttempts = 3

// UserStore is the part of storage.Storage that auth needs.
type UserStore interface {
	CreateUser(ctx context.Context, email, username, passwordHash string) (string, error)
	GetUserByEmail(ctx context.Context, email string) (users.User, error)
	GetUserByID(ctx context.Context, userID string) (users.User, error)
	CreateAccount(ctx context.Context, ownerID, title, inviteCode string) (types.Account, error)
	ListAccountsForUser(ctx context.Context, userID string) ([]types.Account, error)
}

type Revocations interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type Service struct {
	store    UserStore
	revoked  Revocations
	secret   string
	tokenTTL time.Duration
	logger   *zap.Logger
}

func NewService(store UserStore, revoked Revocations, secret string, tokenTTL time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:    store,
		revoked:  revoked,
		secret:   secret,
		tokenTTL: tokenTTL,
		logger:   logger,
	}
}

// NewInviteCode returns 10 upper-case hex characters.
func NewInviteCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
}

// SignUp creates the user and the family account they own.
func (s *Service) SignUp(ctx context.Context, req users.SignUpRequest) (users.User, types.Account, error) {
	if req.Password != req.ConfirmPassword {
		return users.User{}, types.Account{}, ErrPasswordMismatch
	}

	hash, err := password.HashPassword(req.Password)
	if err != nil {
		return users.User{}, types.Account{}, fmt.Errorf("hash password: %w", err)
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	userID, err := s.store.CreateUser(ctx, email, strings.TrimSpace(req.Username), hash)
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return users.User{}, types.Account{}, ErrEmailTaken
		}
		return users.User{}, types.Account{}, fmt.Errorf("create user: %w", err)
	}

	title := strings.TrimSpace(req.Username) + "'s family"
	var account types.Account
	for attempt := 1; ; attempt++ {
		account, err = s.store.CreateAccount(ctx, userID, title, NewInviteCode())
		if err == nil {
			break
		}
		if !errors.Is(err, storage.ErrAlreadyExists) || attempt == inviteCodeAttempts {
			return users.User{}, types.Account{}, fmt.Errorf("create account: %w", err)
		}
	}

	s.logger.Info("user signed up", zap.String("user_id", userID), zap.String("account_id", account.ID))

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return users.User{}, types.Account{}, fmt.Errorf("get user: %w", err)
	}
	return user, account, nil
}

// SignIn checks the credentials and issues an access token.
func (s *Service) SignIn(ctx context.Context, req users.SignInRequest) (string, Session, error) {
	user, err := s.store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", Session{}, ErrInvalidCredentials
		}
		return "", Session{}, fmt.Errorf("get user: %w", err)
	}

	if !password.CheckPasswordHash(req.Password, user.Password) {
		return "", Session{}, ErrInvalidCredentials
	}

	token, claims, err := jwt.CreateToken(user.ID, s.secret, s.tokenTTL)
	if err != nil {
		return "", Session{}, fmt.Errorf("create token: %w", err)
	}

	return token, Session{UserID: claims.UserID, TokenID: claims.TokenID, ExpiresAt: claims.ExpiresAt}, nil
}

// SignOut revokes the session's token.
func (s *Service) SignOut(ctx context.Context, session Session) error {
	if err := s.revoked.Revoke(ctx, session.TokenID, session.ExpiresAt); err != nil {
		return err
	}
	s.logger.Info("user signed out", zap.String("user_id", session.UserID))
	return nil
}

// Authenticate turns a raw bearer token into a Session.
func (s *Service) Authenticate(ctx context.Context, raw string) (Session, error) {
	claims, err := jwt.ParseToken(raw, s.secret)
	if err != nil {
		return Session{}, ErrUnauthorized
	}

	revoked, err := s.revoked.IsRevoked(ctx, claims.TokenID)
	if err != nil {
		return Session{}, err
	}
	if revoked {
		return Session{}, ErrUnauthorized
	}

	return Session{UserID: claims.UserID, TokenID: claims.TokenID, ExpiresAt: claims.ExpiresAt}, nil
}

func (s *Service) Me(ctx context.Context, session Session) (users.Me, error) {
	user, err := s.store.GetUserByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return users.Me{}, ErrUnauthorized
		}
		return users.Me{}, fmt.Errorf("get user: %w", err)
	}

	accounts, err := s.store.ListAccountsForUser(ctx, session.UserID)
	if err != nil {
		return users.Me{}, fmt.Errorf("list accounts: %w", err)
	}

	return users.Me{User: user, Accounts: accounts}, nil
}
