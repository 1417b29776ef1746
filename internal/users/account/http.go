// Copyright (c) 2026 Passage. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/passage/internal/platform/middleware"
	requestutil "github.com/taibuivan/passage/internal/platform/request"
	"github.com/taibuivan/passage/internal/platform/respond"
	"github.com/taibuivan/passage/internal/platform/sec"
	"github.com/taibuivan/passage/pkg/convert"
	"github.com/taibuivan/passage/pkg/pagination"
)

// Handler implements the /users and /media HTTP endpoints.
type Handler struct {
	accountService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{accountService: service}
}

// UserRoutes returns the /users router.
//
// # Endpoints
//   - POST /create          : Registers a new account.
//   - GET  /me              : Returns the caller's profile.
//   - GET  /admin-get-all   : Lists accounts (ADMIN+).
//   - POST /update          : Partially updates the caller's profile.
//   - POST /delete          : Soft-deletes the caller's account.
func (handler *Handler) UserRoutes() chi.Router {
	router := chi.NewRouter()

	router.Post("/create", handler.create)

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/me", handler.getMe)
		r.Post("/update", handler.updateMe)
		r.Post("/delete", handler.deleteMe)
	})

	router.With(middleware.RequireRole(sec.RoleAdmin)).Get("/admin-get-all", handler.listUsers)

	return router
}

// MediaRoutes returns the /media router.
func (handler *Handler) MediaRoutes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)
	router.Post("/profile-picture", handler.updateProfilePicture)
	return router
}

/*
Create registers a new account.

POST /users/create

Response:
  - 201: User created
  - 400: Per-field validation failure
  - 403: Privileged role requested by an insufficient caller
  - 409: Email already registered
*/
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	var input CreateInput
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.Register(request.Context(), requestutil.Claims(request), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, "User created successfully", user)
}

// GET /users/me
func (handler *Handler) getMe(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.GetProfile(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, "User retrieved successfully", user)
}

/*
ListUsers returns a page of accounts.

GET /users/admin-get-all?page=1&limit=50&include_deleted=false
*/
func (handler *Handler) listUsers(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)
	includeDeleted := convert.ToBool(request.URL.Query().Get("include_deleted"))

	users, meta, err := handler.accountService.ListUsers(request.Context(), params, includeDeleted)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, users, meta)
}

// POST /users/update
func (handler *Handler) updateMe(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input UpdateInput
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.UpdateProfile(request.Context(), claims, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, "User updated successfully", user)
}

// POST /users/delete
func (handler *Handler) deleteMe(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.accountService.Delete(request.Context(), userID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, "User deleted successfully", nil)
}

/*
UpdateProfilePicture uploads a new profile picture.

POST /media/profile-picture

Response:
  - 200: {profile_image}
  - 400: Missing or undecodable image
  - 404: Account no longer exists
  - 500: Upload failure
*/
func (handler *Handler) updateProfilePicture(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input ProfilePictureInput
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	url, err := handler.accountService.UpdateProfilePicture(request.Context(), userID, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, "Profile picture updated successfully", map[string]string{
		FieldProfileImage: url,
	})
}
