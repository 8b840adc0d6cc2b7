package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/sushihentaime/sharedblog/internal/accessservice"
	"github.com/sushihentaime/sharedblog/internal/blogservice"
	"github.com/sushihentaime/sharedblog/internal/common"
	"github.com/sushihentaime/sharedblog/internal/mailservice"
	"github.com/sushihentaime/sharedblog/internal/userservice"
	"golang.org/x/crypto/bcrypt"
)

type testServer struct {
	*httptest.Server
}

func newTestServer(t *testing.T, h http.Handler) *testServer {
	ts := httptest.NewServer(h)

	t.Cleanup(ts.Close)

	return &testServer{ts}
}

func readResponse(t *testing.T, res *http.Response) (int, http.Header, envelope) {
	defer res.Body.Close()

	responseBody, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatal(err)
	}

	var envelope envelope
	err = json.Unmarshal(responseBody, &envelope)
	if err != nil {
		t.Fatal(err)
	}

	return res.StatusCode, res.Header, envelope
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
}

func newTestApplication(t *testing.T) (*application, *sql.DB) {
	db := common.TestDB("file://../../migrations", t)
	logger := newTestLogger()

	rabbitmq, err := common.NewMessageBroker(common.TestRabbitMQ(t))
	assert.NoError(t, err)

	assert.NoError(t, common.SetupUserExchange(rabbitmq))
	assert.NoError(t, common.SetupBlogExchange(rabbitmq))

	cfg := &Config{Environment: "testing", Version: "test"}

	cache := common.NewCache(5*time.Minute, 10*time.Minute)
	users := userservice.NewUserService(db, rabbitmq, cache)
	access := accessservice.NewAccessService(db, users, rabbitmq, logger)

	app := &application{
		config:        cfg,
		logger:        logger,
		userService:   users,
		accessService: access,
		blogService:   blogservice.NewBlogService(db, access, cache),
		mailService:   mailservice.NewMailService(rabbitmq, "localhost", "", "", "test@example.com", 2525, logger),
		broker:        rabbitmq,
	}

	t.Cleanup(func() {
		app.mailService.Close()
		rabbitmq.Close()
	})

	return app, db
}

// createTestUser inserts an activated user with blog:write and logs them in.
func createTestUser(t *testing.T, app *application, db *sql.DB, username string) (string, int) {
	hash, err := bcrypt.GenerateFromPassword([]byte("Test_1234!"), bcrypt.MinCost)
	assert.NoError(t, err)

	var userId int
	err = db.QueryRow("INSERT INTO users (username, email, password, activated) VALUES ($1, $2, $3, true) RETURNING id",
		username, username+"@example.com", hash).Scan(&userId)
	assert.NoError(t, err)

	_, err = db.Exec("INSERT INTO user_permissions (user_id, permission) VALUES ($1, $2)", userId, string(userservice.PermissionWriteBlog))
	assert.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	token, err := app.userService.LoginUser(ctx, username, "Test_1234!")
	assert.NoError(t, err)

	return token.AccessTokenPlain, userId
}

func (ts *testServer) do(t *testing.T, method, path, token string, payload any) (int, http.Header, envelope) {
	var body io.Reader
	if payload != nil {
		jsonPayload, err := json.Marshal(payload)
		if err != nil {
			t.Fatal(err)
		}
		body = bytes.NewReader(jsonPayload)
	}

	req, err := http.NewRequest(method, ts.URL+path, body)
	if err != nil {
		t.Fatal(err)
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}

	return readResponse(t, res)
}

func (ts *testServer) post(t *testing.T, path, token string, payload any) (int, http.Header, envelope) {
	return ts.do(t, http.MethodPost, path, token, payload)
}

func (ts *testServer) get(t *testing.T, path, token string) (int, http.Header, envelope) {
	return ts.do(t, http.MethodGet, path, token, nil)
}

func (ts *testServer) put(t *testing.T, path, token string, payload any) (int, http.Header, envelope) {
	return ts.do(t, http.MethodPut, path, token, payload)
}

func (ts *testServer) delete(t *testing.T, path, token string) (int, http.Header, envelope) {
	return ts.do(t, http.MethodDelete, path, token, nil)
}
