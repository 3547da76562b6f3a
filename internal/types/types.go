package types

import "time"

type Role string

const (
	RoleOwner   Role = "owner"
	RoleMember  Role = "member"
	RoleGuest   Role = "guest"
	RolePending Role = "pending"
)

// Valid reports whether r is one of the known membership roles.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleMember, RoleGuest, RolePending:
		return true
	}
	return false
}

// Permissions are the per-member action flags inside an account.
type Permissions struct {
	CanAdd    bool `json:"can_add"`
	CanEdit   bool `json:"can_edit"`
	CanDelete bool `json:"can_delete"`
}

type Account struct {
	ID         string    `json:"id"`
	OwnerID    string    `json:"owner_id"`
	Title      string    `json:"title"`
	InviteCode string    `json:"invite_code,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type Member struct {
	AccountID   string      `json:"account_id"`
	UserID      string      `json:"user_id"`
	Username    string      `json:"username"`
	Role        Role        `json:"role"`
	Permissions Permissions `json:"permissions"`
	JoinedAt    time.Time   `json:"joined_at"`
}

type Album struct {
	ID          string    `json:"id"`
	AccountID   string    `json:"account_id"`
	Title       string    `json:"title"`
	CreatedBy   string    `json:"created_by"`
	PhotosCount int       `json:"photos_count"`
	CreatedAt   time.Time `json:"created_at"`
}

type Photo struct {
	ID         string     `json:"id"`
	AlbumID    string     `json:"album_id"`
	AccountID  string     `json:"account_id"`
	AuthorID   string     `json:"author_id"`
	AuthorName string     `json:"author_name"`
	URL        string     `json:"url"`
	ObjectKey  string     `json:"object_key"`
	LikesCount int        `json:"likes_count"`
	CreatedAt  time.Time  `json:"created_at"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
}

type Comment struct {
	ID        string    `json:"id"`
	PhotoID   string    `json:"photo_id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Story is a transient media post shown in the looping viewer.
type Story struct {
	ID         string     `json:"id"`
	Content    string     `json:"content"`
	ObjectKey  string     `json:"object_key"`
	AccountID  string     `json:"account_id"`
	AuthorID   string     `json:"author_id"`
	AuthorName string     `json:"author_name"`
	CreatedAt  time.Time  `json:"created_at"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
}

// PhotoSort selects the ordering of an album's photo list.
type PhotoSort string

const (
	SortByCreatedAt PhotoSort = "created_at"
	SortByUsername  PhotoSort = "username"
)

type AlbumCreateRequest struct {
	Title string `json:"title" validate:"required,max=200"`
}

type AlbumRenameRequest struct {
	Title string `json:"title" validate:"required,max=200"`
}

type CommentCreateRequest struct {
	Text string `json:"text" validate:"required,max=2000"`
}

type JoinRequest struct {
	InviteCode string `json:"invite_code" validate:"required"`
}

// MemberUpdate is one committed draft row of the member permission table.
type MemberUpdate struct {
	UserID      string      `json:"user_id" validate:"required"`
	Role        Role        `json:"role" validate:"required,oneof=owner member guest pending"`
	Permissions Permissions `json:"permissions"`
}

type MemberUpdateRequest struct {
	Updates []MemberUpdate `json:"updates" validate:"required,min=1,dive"`
}
