package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/sushihentaime/sharedblog/internal/userservice"
)

func (app *application) routes() http.Handler {
	router := httprouter.New()

	router.NotFound = http.HandlerFunc(app.notFoundErrorResponse)
	router.MethodNotAllowed = http.HandlerFunc(app.methodNotAllowedErrorResponse)

	router.HandlerFunc(http.MethodGet, "/v1/healthcheck", app.healthCheckHandler)

	// user service
	router.HandlerFunc(http.MethodPost, "/v1/users/register", app.registerUserHandler)
	router.HandlerFunc(http.MethodPut, "/v1/users/activate", app.activateUserHandler)
	router.HandlerFunc(http.MethodPost, "/v1/users/login", app.loginUserHandler)
	router.HandlerFunc(http.MethodPost, "/v1/users/logout", app.requireAuthUser(app.logoutUserHandler))

	// blog service
	router.HandlerFunc(http.MethodGet, "/v1/blogs", app.requireActivatedUser(app.listBlogsHandler))
	router.HandlerFunc(http.MethodPost, "/v1/blogs", app.requirePermission(app.createBlogHandler, userservice.PermissionWriteBlog))
	router.HandlerFunc(http.MethodGet, "/v1/blogs/:id", app.requireActivatedUser(app.getBlogHandler))
	router.HandlerFunc(http.MethodPut, "/v1/blogs/:id", app.requireActivatedUser(app.updateBlogHandler))
	router.HandlerFunc(http.MethodDelete, "/v1/blogs/:id", app.requireActivatedUser(app.deleteBlogHandler))

	// access service
	router.HandlerFunc(http.MethodGet, "/v1/blogs/:id/permissions", app.requireActivatedUser(app.getBlogPermissionsHandler))
	router.HandlerFunc(http.MethodPost, "/v1/blogs/:id/permissions", app.requireActivatedUser(app.grantPermissionHandler))
	router.HandlerFunc(http.MethodGet, "/v1/blogs/:id/collaborators", app.requireActivatedUser(app.listCollaboratorsHandler))

	return app.recoverPanic(app.logRequest(app.enableCORS(app.rateLimit(app.authenticate(router)))))
}
