// Copyright (c) 2026 Passage. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/passage/internal/platform/apperr"
	"github.com/taibuivan/passage/internal/platform/cors"
	"github.com/taibuivan/passage/internal/platform/middleware"
	requestutil "github.com/taibuivan/passage/internal/platform/request"
	"github.com/taibuivan/passage/internal/platform/respond"
	"github.com/taibuivan/passage/internal/platform/sec"
	"github.com/taibuivan/passage/internal/platform/validate"
)

// SystemHandler serves platform administration and public client settings.
type SystemHandler struct {
	origins        *cors.Origins
	vapidPublicKey string
	logger         *slog.Logger
}

// NewSystemHandler constructs a [SystemHandler]. origins is the same registry
// the CORS middleware consults, so changes apply to the next request.
func NewSystemHandler(origins *cors.Origins, vapidPublicKey string, logger *slog.Logger) *SystemHandler {
	return &SystemHandler{origins: origins, vapidPublicKey: vapidPublicKey, logger: logger}
}

// Routes returns the /system router. Every endpoint requires SUPER_ADMIN.
//
// # Endpoints
//   - GET    /origins  : List approved browser origins.
//   - POST   /origins  : Approve an origin.
//   - PUT    /origins  : Replace the whole list.
//   - DELETE /origins  : Revoke an origin.
func (handler *SystemHandler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireRole(sec.RoleSuperAdmin))

	router.Get("/origins", handler.listOrigins)
	router.Post("/origins", handler.addOrigin)
	router.Put("/origins", handler.replaceOrigins)
	router.Delete("/origins", handler.removeOrigin)

	return router
}

type originRequest struct {
	Origin string `json:"origin"`
}

type originsRequest struct {
	Origins []string `json:"origins"`
}

const fieldOrigin = "origin"

func (handler *SystemHandler) listOrigins(writer http.ResponseWriter, request *http.Request) {
	respond.OK(writer, "Approved origins", map[string][]string{"origins": handler.origins.List()})
}

func (handler *SystemHandler) addOrigin(writer http.ResponseWriter, request *http.Request) {
	var input originRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if input.Origin == "" {
		respond.Error(writer, request, validate.RequiredError(fieldOrigin, "This field is required"))
		return
	}

	origin, err := handler.origins.Add(input.Origin)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.logger.Info("origin_approved", slog.String("origin", origin))
	respond.OK(writer, "Origin approved", map[string][]string{"origins": handler.origins.List()})
}

func (handler *SystemHandler) replaceOrigins(writer http.ResponseWriter, request *http.Request) {
	var input originsRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.origins.Replace(input.Origins); err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.logger.Info("origins_replaced", slog.Int("count", len(input.Origins)))
	respond.OK(writer, "Origins replaced", map[string][]string{"origins": handler.origins.List()})
}

func (handler *SystemHandler) removeOrigin(writer http.ResponseWriter, request *http.Request) {
	var input originRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.origins.Remove(input.Origin)
	handler.logger.Info("origin_revoked", slog.String("origin", input.Origin))
	respond.OK(writer, "Origin revoked", map[string][]string{"origins": handler.origins.List()})
}

// GET /notifications/vapid-public-key
func (handler *SystemHandler) getVAPIDKey(writer http.ResponseWriter, request *http.Request) {
	if handler.vapidPublicKey == "" {
		respond.Error(writer, request, apperr.ServiceUnavailable("Push notifications are not configured"))
		return
	}
	respond.OK(writer, "VAPID public key", map[string]string{"publicKey": handler.vapidPublicKey})
}
