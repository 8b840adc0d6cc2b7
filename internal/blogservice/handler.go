package blogservice

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sushihentaime/sharedblog/internal/accessservice"
	"github.com/sushihentaime/sharedblog/internal/common"
)

func NewBlogService(db *sql.DB, access *accessservice.AccessService, c *common.Cache) *BlogService {
	return &BlogService{m: newBlogModel(db), access: access, c: c}
}

// CreateBlog stores a new blog and gives its author full access in the same transaction.
func (s *BlogService) CreateBlog(ctx context.Context, req *CreateBlogRequest) (*Blog, error) {
	v := common.NewValidator()
	validateTitle(v, req.Title)
	validateContent(v, req.Content)
	validateInt(v, req.UserID, "user_id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	blog := &Blog{
		Title:     req.Title,
		Content:   req.Content,
		WordCount: countWords(req.Content),
		UserID:    req.UserID,
	}

	tx, err := s.m.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	err = s.m.insert(ctx, tx, blog)
	if err != nil {
		return nil, err
	}

	_, err = s.access.GrantOwner(ctx, tx, blog.ID, blog.UserID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("could not commit transaction: %w", err)
	}

	return blog, nil
}

// GetBlogByID returns a blog post by its ID without any access check.
func (s *BlogService) GetBlogByID(ctx context.Context, id int) (*Blog, error) {
	v := common.NewValidator()
	validateInt(v, id, "id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	if cached, ok := s.c.Get(common.CacheKeyBlog(id)); ok {
		if b, ok := cached.(Blog); ok {
			return &b, nil
		}
	}

	blog, err := s.m.getBlogById(ctx, id)
	if err != nil {
		return nil, err
	}

	s.c.Set(common.CacheKeyBlog(id), *blog)

	return blog, nil
}

// ViewBlog returns the blog with the actor's abilities on it, or common.ErrPermissionDenied if the actor may not read it.
func (s *BlogService) ViewBlog(ctx context.Context, id, actorID int) (*BlogView, error) {
	blog, err := s.GetBlogByID(ctx, id)
	if err != nil {
		return nil, err
	}

	auth := s.access.Authorizer()

	ok, err := auth.CanView(ctx, actorID, blog.Ref())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.ErrPermissionDenied
	}

	abilities, err := auth.Abilities(ctx, actorID, blog.Ref())
	if err != nil {
		return nil, err
	}

	return &BlogView{
		Blog:        *blog,
		ContentHTML: renderContent(blog.Content),
		Abilities:   abilities,
	}, nil
}

// GetAbilities reports whether the actor may update or delete the blog.
func (s *BlogService) GetAbilities(ctx context.Context, id, actorID int) (*accessservice.Abilities, error) {
	blog, err := s.GetBlogByID(ctx, id)
	if err != nil {
		return nil, err
	}

	abilities, err := s.access.Authorizer().Abilities(ctx, actorID, blog.Ref())
	if err != nil {
		return nil, err
	}

	return &abilities, nil
}

// UpdateBlog updates a blog post. Only the author and full access holders can update it.
func (s *BlogService) UpdateBlog(ctx context.Context, req *UpdateBlogRequest) (*Blog, error) {
	blog, err := s.GetBlogByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	ok, err := s.access.Authorizer().CanModify(ctx, req.ActorID, blog.Ref())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.ErrPermissionDenied
	}

	if req.Version != 0 && req.Version != blog.Version {
		return nil, common.ErrEditConflict
	}

	if req.Title != "" {
		blog.Title = req.Title
	}
	if req.Content != "" {
		blog.Content = req.Content
	}

	v := common.NewValidator()
	validateTitle(v, blog.Title)
	validateContent(v, blog.Content)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	blog.WordCount = countWords(blog.Content)

	err = s.m.updateBlog(ctx, blog)
	s.c.Delete(common.CacheKeyBlog(blog.ID))
	if err != nil {
		return nil, err
	}

	return blog, nil
}

// DeleteBlog deletes a blog post. Only the author and full access holders can delete it.
func (s *BlogService) DeleteBlog(ctx context.Context, blogId, actorID int) error {
	blog, err := s.GetBlogByID(ctx, blogId)
	if err != nil {
		return err
	}

	ok, err := s.access.Authorizer().CanDelete(ctx, actorID, blog.Ref())
	if err != nil {
		return err
	}
	if !ok {
		return common.ErrPermissionDenied
	}

	err = s.m.deleteBlog(ctx, blog.ID)
	s.c.Delete(common.CacheKeyBlog(blog.ID))

	return err
}

// ListVisibleBlogs returns the blogs the actor wrote or was granted access to. Default limit is 10 and default offset is 0.
func (s *BlogService) ListVisibleBlogs(ctx context.Context, actorID int, f ListFilter) ([]Blog, error) {
	v := common.NewValidator()
	validateInt(v, actorID, "user_id")
	validateFilter(v, &f)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	if f.Limit < 1 {
		f.Limit = 10
	}

	if f.Offset < 0 {
		f.Offset = 0
	}

	return s.m.getVisibleBlogs(ctx, actorID, f)
}
