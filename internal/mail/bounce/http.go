// Copyright (c) 2026 Passage. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package bounce

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/passage/internal/platform/apperr"
	"github.com/taibuivan/passage/internal/platform/middleware"
	requestutil "github.com/taibuivan/passage/internal/platform/request"
	"github.com/taibuivan/passage/internal/platform/respond"
	"github.com/taibuivan/passage/internal/platform/sec"
	"github.com/taibuivan/passage/internal/platform/validate"
)

// Handler exposes suppression list administration.
type Handler struct {
	suppressions *Service
	processor    *Processor
}

// NewHandler constructs a new [Handler]. processor may be nil when bounce polling is disabled.
func NewHandler(suppressions *Service, processor *Processor) *Handler {
	return &Handler{suppressions: suppressions, processor: processor}
}

// Routes returns the administrative mail routes. Every endpoint requires ADMIN or above.
//
// # Endpoints
//   - GET    /suppressions          : List suppressed addresses.
//   - POST   /suppressions          : Suppress an address manually.
//   - DELETE /suppressions/{email}  : Lift a suppression.
//   - POST   /suppressions/extract  : Dry-run the bounce extractor over a body.
//   - POST   /bounces/process       : Poll the bounce mailbox now.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireRole(sec.RoleAdmin))

	router.Get("/suppressions", handler.list)
	router.Post("/suppressions", handler.add)
	router.Delete("/suppressions/{email}", handler.remove)
	router.Post("/suppressions/extract", handler.extract)
	router.Post("/bounces/process", handler.process)

	return router
}

type addRequest struct {
	Email   string `json:"email"`
	Reason  string `json:"reason"`
	Subject string `json:"subject"`
}

type extractRequest struct {
	Body string `json:"body"`
}

func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	entries, err := handler.suppressions.List(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, "Suppression list retrieved", entries)
}

func (handler *Handler) add(writer http.ResponseWriter, request *http.Request) {
	var input addRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required("email", input.Email).Email("email", input.Email)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	reason := input.Reason
	if reason == "" {
		reason = "manual"
	}

	added, err := handler.suppressions.Add(request.Context(), input.Email, reason, input.Subject)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, "Email suppressed", map[string]bool{"added": added})
}

func (handler *Handler) remove(writer http.ResponseWriter, request *http.Request) {
	email, err := url.PathUnescape(requestutil.Param(request, "email"))
	if err != nil || email == "" {
		respond.Error(writer, request, apperr.BadRequest("email: Must be a valid email address"))
		return
	}

	removed, err := handler.suppressions.Remove(request.Context(), email)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, "Email removed from suppression list", map[string]bool{"removed": removed})
}

func (handler *Handler) extract(writer http.ResponseWriter, request *http.Request) {
	var input extractRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, "Extraction complete", map[string][]string{"emails": Extract(input.Body)})
}

func (handler *Handler) process(writer http.ResponseWriter, request *http.Request) {
	if handler.processor == nil {
		respond.Error(writer, request, apperr.ServiceUnavailable("Bounce mailbox is not configured"))
		return
	}

	report, err := handler.processor.ProcessBounces(request.Context())
	if err != nil {
		respond.Error(writer, request, apperr.Internal(err))
		return
	}
	respond.OK(writer, "Bounce mailbox processed", report)
}
