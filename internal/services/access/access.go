// Package access decides what a member may do inside an account.
package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/princekumarofficial/familybook/internal/storage"
	"github.com/princekumarofficial/familybook/internal/types"
)

var (
	ErrNotMember = errors.New("not a member of this account")
	ErrForbidden = errors.New("forbidden")
)

type Action string

const (
	ActionRead          Action = "read"
	ActionPost          Action = "post"
	ActionAdd           Action = "add"
	ActionEdit          Action = "edit"
	ActionDelete        Action = "delete"
	ActionManageMembers Action = "manage_members"
)

// Allowed reports whether m may perform a. Owners may do everything and
// pending members nothing. Everyone else reads and posts stories freely and
// needs a flag for album content.
func Allowed(m types.Member, a Action) bool {
	switch m.Role {
	case types.RoleOwner:
		return true
	case types.RoleMember, types.RoleGuest:
	default:
		return false
	}

	switch a {
	case ActionRead, ActionPost:
		return true
	case ActionAdd:
		return m.Permissions.CanAdd
	case ActionEdit:
		return m.Permissions.CanEdit
	case ActionDelete:
		return m.Permissions.CanDelete
	}
	return false
}

// MemberStore is satisfied by storage.Storage and the Redis cache in front
// of it.
type MemberStore interface {
	GetMember(ctx context.Context, accountID, userID string) (types.Member, error)
}

type Service struct {
	store MemberStore
}

func NewService(store MemberStore) *Service {
	return &Service{store: store}
}

// Require loads the caller's membership and checks a against it.
func (s *Service) Require(ctx context.Context, accountID, userID string, a Action) (types.Member, error) {
	m, err := s.store.GetMember(ctx, accountID, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return types.Member{}, ErrNotMember
		}
		return types.Member{}, fmt.Errorf("get member: %w", err)
	}

	if !Allowed(m, a) {
		return m, ErrForbidden
	}
	return m, nil
}

// CheckMemberUpdate validates one committed draft against the account owner.
// The owner row cannot be changed, and nobody else can be made owner.
func CheckMemberUpdate(ownerID string, u types.MemberUpdate) error {
	if u.UserID == ownerID {
		return fmt.Errorf("%w: the owner's membership cannot be changed", ErrForbidden)
	}
	if u.Role == types.RoleOwner {
		return fmt.Errorf("%w: an account has exactly one owner", ErrForbidden)
	}
	return nil
}
