package accessservice

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/sushihentaime/sharedblog/internal/common"
	"github.com/sushihentaime/sharedblog/internal/userservice"
)

// PermissionType is the level of access a grant gives on a single blog.
type PermissionType string

const (
	// PermissionFullAccess allows viewing, editing, deleting and granting access to others.
	PermissionFullAccess PermissionType = "full_access"
	// PermissionWatchOnly allows viewing only.
	PermissionWatchOnly PermissionType = "watch_only"
)

var permissionLabels = map[PermissionType]string{
	PermissionFullAccess: "Full Access",
	PermissionWatchOnly:  "Watch Only",
}

// Label returns the human readable name of the permission.
func (p PermissionType) Label() string {
	if l, ok := permissionLabels[p]; ok {
		return l
	}
	return string(p)
}

// Grant relates a blog, a user and a permission level. There is at most one grant per (blog, user).
type Grant struct {
	ID         int            `json:"id"`
	BlogID     int            `json:"blog_id"`
	UserID     int            `json:"user_id"`
	Username   string         `json:"username,omitempty"`
	Permission PermissionType `json:"permission_type"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// BlogRef is the part of a blog the authorization rules need.
type BlogRef struct {
	ID       int
	AuthorID int
	Title    string
}

// Abilities are the derived flags returned next to a blog.
type Abilities struct {
	CanUpdate bool `json:"can_update"`
	CanDelete bool `json:"can_delete"`
}

type GrantRequest struct {
	ActorID      int
	Blog         BlogRef
	TargetUserID int
	Permission   PermissionType
}

type GrantResult struct {
	Grant   *Grant `json:"permission"`
	Message string `json:"message"`
}

// IdentityStore resolves users by id.
type IdentityStore interface {
	GetUserByID(ctx context.Context, id int) (*userservice.User, error)
}

type grantStore interface {
	find(ctx context.Context, blogID, userID int) (*Grant, error)
	existsWith(ctx context.Context, blogID, userID int, perm PermissionType) (bool, error)
}

type DBModel struct {
	db *sql.DB
}

type Authorizer struct {
	store grantStore
}

type AccessService struct {
	m      *DBModel
	auth   *Authorizer
	users  IdentityStore
	mb     common.MessageProducer
	logger *slog.Logger
}

// accessGrantedEvent is published on common.AccessGrantedKey.
type accessGrantedEvent struct {
	Email      string
	Username   string
	BlogID     int
	BlogTitle  string
	Permission string
}
