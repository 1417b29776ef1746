// Copyright (c) 2026 Passage. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/passage/internal/mail/bounce"
	"github.com/taibuivan/passage/internal/platform/broker"
	"github.com/taibuivan/passage/internal/platform/config"
	"github.com/taibuivan/passage/internal/platform/constants"
	"github.com/taibuivan/passage/internal/platform/cors"
	"github.com/taibuivan/passage/internal/platform/media"
	"github.com/taibuivan/passage/internal/platform/sec"
	"github.com/taibuivan/passage/internal/users/account"
	"github.com/taibuivan/passage/internal/users/auth"
)

type serverHarness struct {
	handler http.Handler
	codec   *sec.TokenCodec
	origins *cors.Origins
}

func newServerHarness(t *testing.T, vapidKey string) *serverHarness {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	logger := discardLogger()
	codec, err := sec.NewTokenCodec("test-secret", constants.AuthIssuer)
	require.NoError(t, err)

	origins := cors.NewOrigins([]string{"https://app.passage.test"})
	manager := auth.NewSessionManager(nil, logger)
	liveness, readiness := NewHealthHandlers(HealthDependencies{}, logger)

	suppressions := bounce.NewService(nil, broker.Noop{}, logger)
	handlers := Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Account:   auth.NewHandler(auth.NewService(nil, nil, manager, codec, nil, broker.Noop{}, logger)),
		Users:     account.NewHandler(account.NewService(nil, manager, media.Disabled{}, logger)),
		Mail:      bounce.NewHandler(suppressions, nil),
		System:    NewSystemHandler(origins, vapidKey, logger),
	}

	cfg := &config.Config{ServerPort: "0", Environment: "production"}
	server := NewServer(ctx, cfg, logger, Security{Verifier: codec, Sessions: manager, Origins: origins}, handlers)

	return &serverHarness{handler: server.Handler(), codec: codec, origins: origins}
}

// tokenFor issues a token that is not bound to a session, so no store is consulted.
func (h *serverHarness) tokenFor(t *testing.T, role sec.UserRole) string {
	t.Helper()
	token, err := h.codec.Issue(sec.AuthClaims{UserID: "admin-1", Email: "root@passage.test", Role: string(role)}, sec.LoginTokenTTL)
	require.NoError(t, err)
	return token
}

func (h *serverHarness) do(method, path, token, body string, headers map[string]string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(method, path, strings.NewReader(body))
	request.Header.Set("Content-Type", "application/json")
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	for key, value := range headers {
		request.Header.Set(key, value)
	}

	recorder := httptest.NewRecorder()
	h.handler.ServeHTTP(recorder, request)
	return recorder
}

func TestServer_HealthAndRequestID(t *testing.T) {
	h := newServerHarness(t, "")

	recorder := h.do(http.MethodGet, "/health", "", "", nil)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.NotEmpty(t, recorder.Header().Get(constants.HeaderXRequestID))
}

func TestServer_CORSPreflight(t *testing.T) {
	h := newServerHarness(t, "")

	t.Run("approved origin", func(t *testing.T) {
		recorder := h.do(http.MethodOptions, "/account/login", "", "", map[string]string{constants.HeaderOrigin: "https://app.passage.test"})
		assert.Equal(t, http.StatusNoContent, recorder.Code)
		assert.Equal(t, "https://app.passage.test", recorder.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("unknown origin", func(t *testing.T) {
		recorder := h.do(http.MethodOptions, "/account/login", "", "", map[string]string{constants.HeaderOrigin: "https://evil.test"})
		assert.Empty(t, recorder.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestServer_ProtectedRoutesRejectAnonymous(t *testing.T) {
	h := newServerHarness(t, "")

	for _, path := range []string{"/users/me", "/account/sessions", "/mail/suppressions", "/system/origins"} {
		t.Run(path, func(t *testing.T) {
			recorder := h.do(http.MethodGet, path, "", "", nil)
			assert.Equal(t, http.StatusUnauthorized, recorder.Code)
		})
	}
}

func TestServer_InvalidBearerToken(t *testing.T) {
	h := newServerHarness(t, "")

	recorder := h.do(http.MethodGet, "/users/me", "not-a-token", "", nil)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "Invalid token")
}

func TestServer_OriginAdministration(t *testing.T) {
	h := newServerHarness(t, "")
	root := h.tokenFor(t, sec.RoleSuperAdmin)

	t.Run("admin is not enough", func(t *testing.T) {
		recorder := h.do(http.MethodGet, "/system/origins", h.tokenFor(t, sec.RoleAdmin), "", nil)
		assert.Equal(t, http.StatusForbidden, recorder.Code)
	})

	t.Run("added origin passes CORS on the next request", func(t *testing.T) {
		recorder := h.do(http.MethodPost, "/system/origins", root, `{"origin":"https://Partner.Example.com/"}`, nil)
		require.Equal(t, http.StatusOK, recorder.Code)
		assert.True(t, h.origins.Allowed("https://partner.example.com"))

		preflight := h.do(http.MethodOptions, "/health", "", "", map[string]string{constants.HeaderOrigin: "https://partner.example.com"})
		assert.Equal(t, "https://partner.example.com", preflight.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("invalid origin", func(t *testing.T) {
		recorder := h.do(http.MethodPost, "/system/origins", root, `{"origin":"ftp://files"}`, nil)
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("missing origin", func(t *testing.T) {
		recorder := h.do(http.MethodPost, "/system/origins", root, `{}`, nil)
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("remove", func(t *testing.T) {
		recorder := h.do(http.MethodDelete, "/system/origins", root, `{"origin":"https://partner.example.com"}`, nil)
		require.Equal(t, http.StatusOK, recorder.Code)
		assert.False(t, h.origins.Allowed("https://partner.example.com"))
	})

	t.Run("replace keeps the list unchanged on error", func(t *testing.T) {
		recorder := h.do(http.MethodPut, "/system/origins", root, `{"origins":["https://a.test","bogus"]}`, nil)
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.True(t, h.origins.Allowed("https://app.passage.test"))

		recorder = h.do(http.MethodPut, "/system/origins", root, `{"origins":["https://a.test"]}`, nil)
		require.Equal(t, http.StatusOK, recorder.Code)

		var body struct {
			Data struct {
				Origins []string `json:"origins"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
		assert.Equal(t, []string{"https://a.test"}, body.Data.Origins)
	})
}

func TestServer_VAPIDPublicKey(t *testing.T) {
	t.Run("configured", func(t *testing.T) {
		h := newServerHarness(t, "BPublicKey")
		recorder := h.do(http.MethodGet, "/notifications/vapid-public-key", "", "", nil)
		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Contains(t, recorder.Body.String(), `"publicKey":"BPublicKey"`)
	})

	t.Run("not configured", func(t *testing.T) {
		h := newServerHarness(t, "")
		recorder := h.do(http.MethodGet, "/notifications/vapid-public-key", "", "", nil)
		assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)
	})
}

func TestServer_BounceProcessingWithoutMailbox(t *testing.T) {
	h := newServerHarness(t, "")

	recorder := h.do(http.MethodPost, "/mail/bounces/process", h.tokenFor(t, sec.RoleAdmin), "", nil)

	assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)
}
