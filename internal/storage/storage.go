package storage

import (
	"context"
	"errors"

	"github.com/princekumarofficial/familybook/internal/types"
	"github.com/princekumarofficial/familybook/internal/types/users"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

// Soft-deletable relations accepted by SoftDelete.
const (
	TableAlbums   = "albums"
	TablePhotos   = "photos"
	TableStories  = "stories"
	TableComments = "photo_comments"
)

type Storage interface {
	CreateUser(ctx context.Context, email, username, passwordHash string) (string, error)
	GetUserByEmail(ctx context.Context, email string) (users.User, error)
	GetUserByID(ctx context.Context, userID string) (users.User, error)

	CreateAccount(ctx context.Context, ownerID, title, inviteCode string) (types.Account, error)
	GetAccountByOwner(ctx context.Context, ownerID string) (types.Account, error)
	GetAccountByInviteCode(ctx context.Context, code string) (types.Account, error)
	ListAccountsForUser(ctx context.Context, userID string) ([]types.Account, error)

	AddMember(ctx context.Context, accountID, userID string, role types.Role, perms types.Permissions) error
	GetMember(ctx context.Context, accountID, userID string) (types.Member, error)
	ListMembers(ctx context.Context, accountID string) ([]types.Member, error)
	UpdateMember(ctx context.Context, accountID, userID string, role types.Role, perms types.Permissions) error
	ListMemberUserIDs(ctx context.Context, accountID string) ([]string, error)

	CreateAlbum(ctx context.Context, accountID, title, createdBy string) (string, error)
	GetAlbum(ctx context.Context, albumID string) (types.Album, error)
	ListActiveAlbums(ctx context.Context, accountID string) ([]types.Album, error)
	RenameAlbum(ctx context.Context, albumID, title string) error

	CreatePhoto(ctx context.Context, photo types.Photo) (string, error)
	GetPhoto(ctx context.Context, photoID string) (types.Photo, error)
	ListPhotos(ctx context.Context, albumID string, sort types.PhotoSort) ([]types.Photo, error)
	ToggleLike(ctx context.Context, photoID, userID string) (bool, error)
	AddComment(ctx context.Context, photoID, userID, text string) (string, error)
	GetComment(ctx context.Context, commentID string) (types.Comment, error)
	ListComments(ctx context.Context, photoID string) ([]types.Comment, error)

	CreateStory(ctx context.Context, story types.Story) (string, error)
	GetStory(ctx context.Context, storyID string) (types.Story, error)
	ListStories(ctx context.Context, accountID string) ([]types.Story, error)

	// SoftDelete invokes the soft_delete stored procedure. It reports false
	// when the row was missing or already deleted.
	SoftDelete(ctx context.Context, table, rowID string) (bool, error)

	// ReferencedObjectKeys returns which of keys are still pointed at by a
	// row, deleted or not.
	ReferencedObjectKeys(ctx context.Context, keys []string) (map[string]bool, error)
}
