package blogservice

import (
	"database/sql"
	"time"

	"github.com/sushihentaime/sharedblog/internal/accessservice"
	"github.com/sushihentaime/sharedblog/internal/common"
)

type Blog struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	// Content is stored in Markdown format.
	Content string `json:"content"`
	// WordCount is derived from Content on every write.
	WordCount int       `json:"word_count"`
	UserID    int       `json:"user_id"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int       `json:"version"`
}

// Ref returns the fields the authorization rules work on.
func (b *Blog) Ref() accessservice.BlogRef {
	return accessservice.BlogRef{ID: b.ID, AuthorID: b.UserID, Title: b.Title}
}

// BlogView is a blog as returned to a viewer, with the viewer's abilities on it.
type BlogView struct {
	Blog
	ContentHTML string `json:"content_html"`
	accessservice.Abilities
}

type BlogModel struct {
	db *sql.DB
}

type BlogService struct {
	m      *BlogModel
	access *accessservice.AccessService
	c      *common.Cache
}

type CreateBlogRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	UserID  int    `json:"-"`
}

// UpdateBlogRequest changes the title and/or content. Empty fields keep their current value.
// A non-zero Version makes the update fail with common.ErrEditConflict if the blog changed meanwhile.
type UpdateBlogRequest struct {
	ID      int    `json:"-"`
	ActorID int    `json:"-"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Version int    `json:"version"`
}

type ListFilter struct {
	Title  string
	Limit  int
	Offset int
}
