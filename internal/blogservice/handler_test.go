package blogservice

import (
	"bytes"
	"context"
	"database/sql"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/sushihentaime/sharedblog/internal/accessservice"
	"github.com/sushihentaime/sharedblog/internal/common"
	"github.com/sushihentaime/sharedblog/internal/userservice"
)

type mockProducer struct {
	mock.Mock
}

func (m *mockProducer) Publish(ctx context.Context, msg []byte, key common.BindingKey, exchange common.Exchange) error {
	args := m.Called(msg, key, exchange)
	return args.Error(0)
}

func setupTestEnvironment(t *testing.T) (*BlogService, *accessservice.AccessService, *sql.DB, func() error) {
	db := common.TestDB("file://../../migrations", t)
	cache := common.NewCache(5*time.Minute, 10*time.Minute)
	logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))

	mb := new(mockProducer)
	mb.On("Publish", mock.Anything, common.AccessGrantedKey, common.BlogExchange).Return(nil)

	users := userservice.NewUserService(db, nil, cache)
	access := accessservice.NewAccessService(db, users, mb, logger)

	cleanup := func() error {
		cache.Flush()

		_, err := db.Exec("DELETE FROM users")
		return err
	}

	return NewBlogService(db, access, cache), access, db, cleanup
}

// setupTestUser creates an activated user with a throwaway password hash.
func setupTestUser(t *testing.T, db *sql.DB, username string) int {
	var id int
	err := db.QueryRow("INSERT INTO users (username, email, password, activated) VALUES ($1, $2, $3, true) RETURNING id",
		username, username+"@example.com", []byte("hash")).Scan(&id)
	assert.NoError(t, err)
	return id
}

func grant(t *testing.T, access *accessservice.AccessService, actorID int, blog *Blog, targetID int, perm accessservice.PermissionType) error {
	_, err := access.RequestGrant(context.Background(), &accessservice.GrantRequest{
		ActorID:      actorID,
		Blog:         blog.Ref(),
		TargetUserID: targetID,
		Permission:   perm,
	})
	return err
}

func TestCreateBlog(t *testing.T) {
	s, access, db, cleanup := setupTestEnvironment(t)
	t.Cleanup(func() {
		assert.NoError(t, cleanup())
	})

	authorID := setupTestUser(t, db, "author")

	tests := []struct {
		name    string
		req     *CreateBlogRequest
		wantErr error
	}{
		{
			name: "valid blog",
			req:  &CreateBlogRequest{Title: "X", Content: "one two three", UserID: authorID},
		},
		{
			name:    "missing title and content",
			req:     &CreateBlogRequest{UserID: authorID},
			wantErr: common.ValidationError{Errors: map[string]string{"title": "must be provided", "content": "must be provided"}},
		},
		{
			name:    "unknown author",
			req:     &CreateBlogRequest{Title: "X", Content: "body", UserID: authorID + 1000},
			wantErr: ErrUserForeignKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blog, err := s.CreateBlog(context.Background(), tt.req)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				assert.Nil(t, blog)
				return
			}

			assert.NoError(t, err)
			assert.NotZero(t, blog.ID)
			assert.Equal(t, 3, blog.WordCount)
			assert.Equal(t, 1, blog.Version)

			g, err := access.Find(context.Background(), blog.ID, authorID)
			assert.NoError(t, err)
			assert.NotNil(t, g)
			assert.Equal(t, accessservice.PermissionFullAccess, g.Permission)
		})
	}

	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM blogs").Scan(&count)
	assert.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestViewBlog(t *testing.T) {
	s, _, db, cleanup := setupTestEnvironment(t)
	t.Cleanup(func() {
		assert.NoError(t, cleanup())
	})

	authorID := setupTestUser(t, db, "author")
	strangerID := setupTestUser(t, db, "stranger")

	blog, err := s.CreateBlog(context.Background(), &CreateBlogRequest{Title: "X", Content: "# Hello\n\nworld", UserID: authorID})
	assert.NoError(t, err)

	view, err := s.ViewBlog(context.Background(), blog.ID, authorID)
	assert.NoError(t, err)
	assert.Equal(t, "author", view.Author)
	assert.Contains(t, view.ContentHTML, "<h1")
	assert.True(t, view.CanUpdate)
	assert.True(t, view.CanDelete)

	_, err = s.ViewBlog(context.Background(), blog.ID, strangerID)
	assert.ErrorIs(t, err, common.ErrPermissionDenied)

	_, err = s.ViewBlog(context.Background(), blog.ID, 0)
	assert.ErrorIs(t, err, common.ErrPermissionDenied)

	_, err = s.ViewBlog(context.Background(), blog.ID+1000, authorID)
	assert.ErrorIs(t, err, common.ErrRecordNotFound)
}

func TestUpdateBlog(t *testing.T) {
	s, access, db, cleanup := setupTestEnvironment(t)
	t.Cleanup(func() {
		assert.NoError(t, cleanup())
	})

	authorID := setupTestUser(t, db, "author")
	watcherID := setupTestUser(t, db, "watcher")

	blog, err := s.CreateBlog(context.Background(), &CreateBlogRequest{Title: "X", Content: "one two three", UserID: authorID})
	assert.NoError(t, err)
	assert.NoError(t, grant(t, access, authorID, blog, watcherID, accessservice.PermissionWatchOnly))

	updated, err := s.UpdateBlog(context.Background(), &UpdateBlogRequest{ID: blog.ID, ActorID: authorID, Content: "one two three four five", Version: blog.Version})
	assert.NoError(t, err)
	assert.Equal(t, "X", updated.Title)
	assert.Equal(t, 5, updated.WordCount)
	assert.Equal(t, blog.Version+1, updated.Version)

	got, err := s.GetBlogByID(context.Background(), blog.ID)
	assert.NoError(t, err)
	assert.Equal(t, "one two three four five", got.Content)
	assert.Equal(t, authorID, got.UserID)

	_, err = s.UpdateBlog(context.Background(), &UpdateBlogRequest{ID: blog.ID, ActorID: authorID, Title: "Y", Version: blog.Version})
	assert.ErrorIs(t, err, common.ErrEditConflict)

	_, err = s.UpdateBlog(context.Background(), &UpdateBlogRequest{ID: blog.ID, ActorID: watcherID, Title: "Y"})
	assert.ErrorIs(t, err, common.ErrPermissionDenied)

	_, err = s.UpdateBlog(context.Background(), &UpdateBlogRequest{ID: blog.ID + 1000, ActorID: authorID, Title: "Y"})
	assert.ErrorIs(t, err, common.ErrRecordNotFound)
}

func TestDeleteBlog(t *testing.T) {
	s, access, db, cleanup := setupTestEnvironment(t)
	t.Cleanup(func() {
		assert.NoError(t, cleanup())
	})

	authorID := setupTestUser(t, db, "author")
	editorID := setupTestUser(t, db, "editor")
	strangerID := setupTestUser(t, db, "stranger")

	blog, err := s.CreateBlog(context.Background(), &CreateBlogRequest{Title: "X", Content: "one two three", UserID: authorID})
	assert.NoError(t, err)
	assert.NoError(t, grant(t, access, authorID, blog, editorID, accessservice.PermissionFullAccess))

	err = s.DeleteBlog(context.Background(), blog.ID, strangerID)
	assert.ErrorIs(t, err, common.ErrPermissionDenied)

	err = s.DeleteBlog(context.Background(), blog.ID, editorID)
	assert.NoError(t, err)

	_, err = s.GetBlogByID(context.Background(), blog.ID)
	assert.ErrorIs(t, err, common.ErrRecordNotFound)

	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM blog_permissions WHERE blog_id = $1", blog.ID).Scan(&count)
	assert.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestListVisibleBlogs(t *testing.T) {
	s, access, db, cleanup := setupTestEnvironment(t)
	t.Cleanup(func() {
		assert.NoError(t, cleanup())
	})

	aliceID := setupTestUser(t, db, "alice")
	bobID := setupTestUser(t, db, "bob")
	carolID := setupTestUser(t, db, "carol")

	first, err := s.CreateBlog(context.Background(), &CreateBlogRequest{Title: "Go tips", Content: "one", UserID: aliceID})
	assert.NoError(t, err)
	second, err := s.CreateBlog(context.Background(), &CreateBlogRequest{Title: "Rust notes", Content: "two", UserID: aliceID})
	assert.NoError(t, err)
	_, err = s.CreateBlog(context.Background(), &CreateBlogRequest{Title: "Bob's diary", Content: "three", UserID: bobID})
	assert.NoError(t, err)

	assert.NoError(t, grant(t, access, aliceID, first, bobID, accessservice.PermissionWatchOnly))

	tests := []struct {
		name    string
		actorID int
		filter  ListFilter
		want    []int
		wantErr bool
	}{
		{name: "author sees own blogs once", actorID: aliceID, want: []int{second.ID, first.ID}},
		{name: "grantee sees granted and own blogs", actorID: bobID, want: nil},
		{name: "user with nothing sees nothing", actorID: carolID, want: []int{}},
		{name: "title search", actorID: aliceID, filter: ListFilter{Title: "go"}, want: []int{first.ID}},
		{name: "limit", actorID: aliceID, filter: ListFilter{Limit: 1}, want: []int{second.ID}},
		{name: "offset", actorID: aliceID, filter: ListFilter{Limit: 1, Offset: 1}, want: []int{first.ID}},
		{name: "limit too large", actorID: aliceID, filter: ListFilter{Limit: 101}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blogs, err := s.ListVisibleBlogs(context.Background(), tt.actorID, tt.filter)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)

			ids := make([]int, 0, len(blogs))
			for _, b := range blogs {
				ids = append(ids, b.ID)
			}

			if tt.want == nil {
				assert.Len(t, ids, 2)
				assert.Contains(t, ids, first.ID)
				return
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestAccessScenario(t *testing.T) {
	s, access, db, cleanup := setupTestEnvironment(t)
	t.Cleanup(func() {
		assert.NoError(t, cleanup())
	})

	ctx := context.Background()
	a := setupTestUser(t, db, "a")
	b := setupTestUser(t, db, "b")
	c := setupTestUser(t, db, "c")
	d := setupTestUser(t, db, "d")

	// A creates X.
	x, err := s.CreateBlog(ctx, &CreateBlogRequest{Title: "X", Content: "one two three", UserID: a})
	assert.NoError(t, err)
	assert.Equal(t, 3, x.WordCount)

	g, err := access.Find(ctx, x.ID, a)
	assert.NoError(t, err)
	assert.Equal(t, accessservice.PermissionFullAccess, g.Permission)

	// A grants B watch only.
	assert.NoError(t, grant(t, access, a, x, b, accessservice.PermissionWatchOnly))

	view, err := s.ViewBlog(ctx, x.ID, b)
	assert.NoError(t, err)
	assert.False(t, view.CanUpdate)
	assert.False(t, view.CanDelete)

	err = s.DeleteBlog(ctx, x.ID, b)
	assert.ErrorIs(t, err, common.ErrPermissionDenied)

	// B cannot pass access on to C.
	err = grant(t, access, b, x, c, accessservice.PermissionWatchOnly)
	assert.ErrorIs(t, err, common.ErrPermissionDenied)

	g, err = access.Find(ctx, x.ID, c)
	assert.NoError(t, err)
	assert.Nil(t, g)

	// A upgrades B twice; one row remains.
	assert.NoError(t, grant(t, access, a, x, b, accessservice.PermissionFullAccess))
	assert.NoError(t, grant(t, access, a, x, b, accessservice.PermissionFullAccess))

	var rows int
	err = db.QueryRow("SELECT COUNT(*) FROM blog_permissions WHERE blog_id = $1 AND user_id = $2", x.ID, b).Scan(&rows)
	assert.NoError(t, err)
	assert.Equal(t, 1, rows)

	abilities, err := s.GetAbilities(ctx, x.ID, b)
	assert.NoError(t, err)
	assert.True(t, abilities.CanDelete)

	// D is a stranger.
	view, err = s.ViewBlog(ctx, x.ID, d)
	assert.ErrorIs(t, err, common.ErrPermissionDenied)
	assert.Nil(t, view)

	// B deletes X.
	assert.NoError(t, s.DeleteBlog(ctx, x.ID, b))
}
