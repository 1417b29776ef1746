// Copyright (c) 2026 Passage. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/passage/internal/platform/middleware"
	"github.com/taibuivan/passage/internal/platform/sec"
	"github.com/taibuivan/passage/internal/users/account"
)

type allowSessions struct{}

func (allowSessions) ValidateSession(context.Context, string) (bool, error) { return true, nil }

type harness struct {
	router http.Handler
	codec  *sec.TokenCodec
	repo   *memoryRepository
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	codec, err := sec.NewTokenCodec("test-secret", "passage")
	require.NoError(t, err)

	repo := newMemoryRepository(existingUser("u-1", "grace@example.com"))
	service, _, _ := newService(repo)
	handler := account.NewHandler(service)

	router := chi.NewRouter()
	router.Use(middleware.Authenticate(codec, allowSessions{}))
	router.Mount("/users", handler.UserRoutes())
	router.Mount("/media", handler.MediaRoutes())

	return &harness{router: router, codec: codec, repo: repo}
}

func (h *harness) token(t *testing.T, userID, role string) string {
	t.Helper()
	token, err := h.codec.Issue(sec.AuthClaims{UserID: userID, Role: role}, 0)
	require.NoError(t, err)
	return token
}

func (h *harness) do(method, path, token, body string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		request.Header.Set("Authorization", token)
	}
	recorder := httptest.NewRecorder()
	h.router.ServeHTTP(recorder, request)
	return recorder
}

func TestHTTP_CreateUser(t *testing.T) {
	h := newHarness(t)

	body := `{"email":"ada@example.com","password":"secret1","first_name":"Ada","last_name":"Lovelace",
		"gender":"FEMALE","role":"STUDENT","country":"UK","profile_image":"https://cdn.example.com/a.png","date_of_birth":"1815-12-10"}`
	recorder := h.do(http.MethodPost, "/users/create", "", body)
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())
	assert.NotContains(t, recorder.Body.String(), "password_hash")

	recorder = h.do(http.MethodPost, "/users/create", "", `{"email":"bad"}`)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	var env struct {
		Status  bool   `json:"status"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &env))
	assert.False(t, env.Status)
	assert.True(t, strings.HasPrefix(env.Message, "email:"))
}

func TestHTTP_MeStripsPasswordHash(t *testing.T) {
	h := newHarness(t)

	recorder := h.do(http.MethodGet, "/users/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	recorder = h.do(http.MethodGet, "/users/me", h.token(t, "u-1", "STUDENT"), "")
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "grace@example.com")
	assert.NotContains(t, recorder.Body.String(), "password")
}

func TestHTTP_AdminListRequiresRole(t *testing.T) {
	h := newHarness(t)

	recorder := h.do(http.MethodGet, "/users/admin-get-all", h.token(t, "u-1", "STUDENT"), "")
	assert.Equal(t, http.StatusForbidden, recorder.Code)

	recorder = h.do(http.MethodGet, "/users/admin-get-all?limit=10", h.token(t, "admin", "ADMIN"), "")
	require.Equal(t, http.StatusOK, recorder.Code)

	var env struct {
		Data []map[string]any `json:"data"`
		Meta struct {
			Limit int `json:"limit"`
			Total int `json:"total"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &env))
	assert.Len(t, env.Data, 1)
	assert.Equal(t, 10, env.Meta.Limit)
}

func TestHTTP_UpdateAndDelete(t *testing.T) {
	h := newHarness(t)
	token := h.token(t, "u-1", "STUDENT")

	recorder := h.do(http.MethodPost, "/users/update", token, `{}`)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	recorder = h.do(http.MethodPost, "/users/update", token, `{"country":"FR"}`)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "FR", h.repo.get("u-1").Country)

	recorder = h.do(http.MethodPost, "/users/delete", token, "")
	require.Equal(t, http.StatusOK, recorder.Code)

	recorder = h.do(http.MethodPost, "/users/delete", token, "")
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestHTTP_ProfilePictureRequiresFields(t *testing.T) {
	h := newHarness(t)

	recorder := h.do(http.MethodPost, "/media/profile-picture", h.token(t, "u-1", "STUDENT"), `{"fileName":"me.png"}`)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}
