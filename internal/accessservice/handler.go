package accessservice

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/sushihentaime/sharedblog/internal/common"
)

func NewAccessService(db *sql.DB, users IdentityStore, mb common.MessageProducer, logger *slog.Logger) *AccessService {
	m := newDBModel(db)
	return &AccessService{
		m:      m,
		auth:   newAuthorizer(m),
		users:  users,
		mb:     mb,
		logger: logger,
	}
}

// Authorizer exposes the read/update/delete/grant decisions.
func (s *AccessService) Authorizer() *Authorizer {
	return s.auth
}

// GrantOwner gives the author of a freshly inserted blog full access. It must run in the transaction that inserted the blog.
func (s *AccessService) GrantOwner(ctx context.Context, tx *sql.Tx, blogID, authorID int) (*Grant, error) {
	return s.m.grant(ctx, tx, blogID, authorID, PermissionFullAccess)
}

// Find returns the grant the user holds on the blog, or nil.
func (s *AccessService) Find(ctx context.Context, blogID, userID int) (*Grant, error) {
	return s.m.find(ctx, blogID, userID)
}

// RequestGrant lets a full access holder give target user a permission on the blog.
// Granting the same permission twice leaves a single grant.
func (s *AccessService) RequestGrant(ctx context.Context, req *GrantRequest) (*GrantResult, error) {
	ok, err := s.auth.CanGrant(ctx, req.ActorID, req.Blog.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.ErrPermissionDenied
	}

	perm := ParsePermissionType(string(req.Permission))

	v := common.NewValidator()
	validatePermissionType(v, perm)
	validateInt(v, req.TargetUserID, "user_id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	target, err := s.users.GetUserByID(ctx, req.TargetUserID)
	if err != nil {
		return nil, err
	}

	v.Check(target.ID != req.Blog.AuthorID || perm == PermissionFullAccess, "user_id", "the author of a blog always keeps full access")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	g, err := s.m.grant(ctx, s.m.db, req.Blog.ID, target.ID, perm)
	if err != nil {
		return nil, err
	}
	g.Username = target.Username

	s.publishAccessGranted(ctx, target.Email, target.Username, req.Blog, perm)

	return &GrantResult{
		Grant:   g,
		Message: fmt.Sprintf("%s access granted to %s", perm.Label(), target.Username),
	}, nil
}

// ListGrants returns the collaborators of a blog. Only full access holders may list them.
func (s *AccessService) ListGrants(ctx context.Context, actorID, blogID int) ([]Grant, error) {
	ok, err := s.auth.CanGrant(ctx, actorID, blogID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.ErrPermissionDenied
	}

	return s.m.listForBlog(ctx, blogID)
}

// publishAccessGranted notifies the target user. The grant is already stored, so failures are only logged.
func (s *AccessService) publishAccessGranted(ctx context.Context, email, username string, blog BlogRef, perm PermissionType) {
	msg, err := json.Marshal(accessGrantedEvent{
		Email:      email,
		Username:   username,
		BlogID:     blog.ID,
		BlogTitle:  blog.Title,
		Permission: perm.Label(),
	})
	if err != nil {
		s.logger.Error("could not encode access granted event", slog.String("error", err.Error()))
		return
	}

	err = s.mb.Publish(ctx, msg, common.AccessGrantedKey, common.BlogExchange)
	if err != nil {
		s.logger.Error("could not publish access granted event", slog.Int("blog_id", blog.ID), slog.String("error", err.Error()))
	}
}
