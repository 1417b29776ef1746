// Copyright (c) 2026 Passage. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/passage/internal/platform/apperr"
	"github.com/taibuivan/passage/internal/platform/broker"
	"github.com/taibuivan/passage/internal/platform/sec"
	"github.com/taibuivan/passage/internal/users/auth"
)

type fixture struct {
	clock    *testClock
	users    *memoryUsers
	sessions *memorySessions
	otps     *memoryOTPs
	mail     *recordingMail
	codec    *sec.TokenCodec
	manager  *auth.SessionManager
	service  *auth.Service
}

func newUser(t *testing.T, id, email, password string, status auth.UserStatus) *auth.User {
	t.Helper()
	hash, err := sec.HashPassword(password)
	require.NoError(t, err)
	return &auth.User{
		ID:           id,
		Email:        email,
		PasswordHash: hash,
		FirstName:    "ada",
		LastName:     "lovelace",
		Role:         sec.RoleStudent,
		Status:       status,
	}
}

func newFixture(t *testing.T, users ...*auth.User) *fixture {
	t.Helper()

	f := &fixture{
		clock:    newClock(),
		users:    newMemoryUsers(users...),
		sessions: &memorySessions{},
		otps:     &memoryOTPs{},
		mail:     &recordingMail{},
	}

	codec, err := sec.NewTokenCodec("test-secret", "passage", sec.WithClock(f.clock.Now))
	require.NoError(t, err)
	f.codec = codec

	f.manager = auth.NewSessionManager(f.sessions, discardLogger, auth.WithSessionClock(f.clock.Now))
	f.service = auth.NewService(f.users, f.otps, f.manager, codec, f.mail, broker.Noop{}, discardLogger,
		auth.WithClock(f.clock.Now),
		auth.WithLogoURL("https://cdn.example.com/logo.png"),
	)
	return f
}

var codePattern = regexp.MustCompile(`>(\d{6})</p>`)

// lastCode pulls the reset code out of the most recent email.
func (f *fixture) lastCode(t *testing.T) string {
	t.Helper()
	sent := f.mail.messages()
	require.NotEmpty(t, sent)
	match := codePattern.FindStringSubmatch(sent[len(sent)-1].HTML)
	require.Len(t, match, 2)
	return match[1]
}

func login(t *testing.T, f *fixture, email, password string) (*auth.LoginResult, error) {
	t.Helper()
	return f.service.Login(context.Background(), auth.LoginInput{
		Email:     email,
		Password:  password,
		UserAgent: "Mozilla/5.0",
		IPAddress: "203.0.113.7",
	})
}

// # Login

func TestLogin_IssuesSessionBoundToken(t *testing.T) {
	f := newFixture(t, newUser(t, "user-1", "a@b.com", "secret1", auth.StatusActive))

	result, err := login(t, f, "A@B.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", result.User.ID)

	claims, err := f.codec.Verify(result.Token)
	require.NoError(t, err)
	assert.True(t, claims.SessionBound())
	assert.Equal(t, "a@b.com", claims.Email)
	assert.Equal(t, string(sec.RoleStudent), claims.Role)
	assert.Equal(t, string(auth.StatusActive), claims.Status)
	assert.WithinDuration(t, f.clock.Now().Add(24*time.Hour), claims.ExpiresAt.Time, 0)

	valid, err := f.manager.ValidateSession(context.Background(), claims.SessionToken)
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestLogin_SecondLoginKicksOutFirst(t *testing.T) {
	f := newFixture(t, newUser(t, "user-1", "a@b.com", "secret1", auth.StatusActive))

	first, err := login(t, f, "a@b.com", "secret1")
	require.NoError(t, err)
	_, err = login(t, f, "a@b.com", "secret1")
	require.NoError(t, err)

	claims, err := f.codec.Verify(first.Token)
	require.NoError(t, err, "the signature is still fine")

	valid, err := f.manager.ValidateSession(context.Background(), claims.SessionToken)
	require.NoError(t, err)
	assert.False(t, valid)
	assert.Equal(t, 1, f.sessions.activeFor("user-1"))
}

func TestLogin_Rejections(t *testing.T) {
	f := newFixture(t,
		newUser(t, "user-1", "a@b.com", "secret1", auth.StatusActive),
		newUser(t, "user-2", "gone@b.com", "secret1", auth.StatusDeleted),
	)

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"unknown email", "x@y.com", "secret1"},
		{"wrong password", "a@b.com", "wrongpw"},
		{"deleted account", "gone@b.com", "secret1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := login(t, f, tt.email, tt.password)
			require.Error(t, err)
			assert.True(t, apperr.HasCode(err, apperr.CodeUnauthorized))
			assert.Equal(t, "Invalid email or password", err.Error())
		})
	}
	assert.Zero(t, f.sessions.total())
}

func TestLogin_InactiveAccount(t *testing.T) {
	f := newFixture(t, newUser(t, "user-1", "a@b.com", "secret1", auth.StatusInactive))

	_, err := login(t, f, "a@b.com", "secret1")
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.CodeUnauthorized))
	assert.Contains(t, err.Error(), "inactive")
	assert.Zero(t, f.sessions.total(), "no session is created for an inactive account")
}

func TestLogoutAndLogoutAll(t *testing.T) {
	f := newFixture(t, newUser(t, "user-1", "a@b.com", "secret1", auth.StatusActive))
	ctx := context.Background()

	result, err := login(t, f, "a@b.com", "secret1")
	require.NoError(t, err)
	claims, err := f.codec.Verify(result.Token)
	require.NoError(t, err)

	require.NoError(t, f.service.Logout(ctx, claims))
	assert.Zero(t, f.sessions.activeFor("user-1"))

	require.NoError(t, f.service.Logout(ctx, &sec.AuthClaims{UserID: "user-1"}), "unbound tokens are a no-op")

	_, err = login(t, f, "a@b.com", "secret1")
	require.NoError(t, err)
	require.NoError(t, f.service.LogoutAll(ctx, "user-1"))
	assert.Zero(t, f.sessions.activeFor("user-1"))
}

// # Password Reset

func TestRequestPasswordReset_UnknownEmail(t *testing.T) {
	f := newFixture(t)

	err := f.service.RequestPasswordReset(context.Background(), "x@y.com")
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
	assert.Zero(t, f.otps.count())
	assert.Empty(t, f.mail.messages())
}

func TestRequestPasswordReset_SendsRenderedEmail(t *testing.T) {
	f := newFixture(t, newUser(t, "user-1", "a@b.com", "secret1", auth.StatusActive))

	require.NoError(t, f.service.RequestPasswordReset(context.Background(), "a@b.com"))

	sent := f.mail.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, "a@b.com", sent[0].To)
	assert.Equal(t, "Password Reset Code", sent[0].Subject)
	assert.Contains(t, sent[0].HTML, "Hello Ada Lovelace,")
	assert.Contains(t, sent[0].HTML, "https://cdn.example.com/logo.png")
	assert.Contains(t, sent[0].HTML, "expires in 60 minutes")
	assert.Contains(t, sent[0].HTML, "2026")
	assert.NotContains(t, sent[0].HTML, "[CODE]")
	assert.Len(t, f.lastCode(t), 6)
	assert.Equal(t, 1, f.otps.count())
}

func TestRequestPasswordReset_EscapesNames(t *testing.T) {
	user := newUser(t, "user-1", "a@b.com", "secret1", auth.StatusActive)
	user.FirstName = `<a href="https://evil.example/reset">click here</a>`
	user.LastName = `<img src=x onerror=alert(1)>`
	f := newFixture(t, user)

	require.NoError(t, f.service.RequestPasswordReset(context.Background(), "a@b.com"))

	html := f.mail.messages()[0].HTML
	assert.NotContains(t, strings.ToLower(html), "<a href")
	assert.NotContains(t, strings.ToLower(html), "<img")
	assert.Contains(t, html, "&lt;A Href=&#34;")
	assert.Contains(t, html, "&lt;Img Src=X")
	assert.Contains(t, html, "https://cdn.example.com/logo.png")
	assert.Len(t, f.lastCode(t), 6)
}

func TestPasswordReset_FullFlowConsumesCode(t *testing.T) {
	f := newFixture(t, newUser(t, "user-1", "a@b.com", "secret1", auth.StatusActive))
	ctx := context.Background()

	prior, err := login(t, f, "a@b.com", "secret1")
	require.NoError(t, err)

	require.NoError(t, f.service.RequestPasswordReset(ctx, "a@b.com"))
	code := f.lastCode(t)

	resetToken, err := f.service.VerifyResetCode(ctx, "a@b.com", code)
	require.NoError(t, err)

	claims, err := f.codec.Verify(resetToken)
	require.NoError(t, err)
	assert.True(t, claims.IsPasswordReset())
	assert.False(t, claims.SessionBound())
	assert.WithinDuration(t, f.clock.Now().Add(15*time.Minute), claims.ExpiresAt.Time, 0)

	require.NoError(t, f.service.ResetPassword(ctx, auth.ResetInput{
		Token:    resetToken,
		Password: "newsecret",
		Email:    "a@b.com",
		Code:     code,
	}))

	assert.True(t, sec.CheckPasswordHash("newsecret", f.users.hash("user-1")))

	_, err = f.service.VerifyResetCode(ctx, "a@b.com", code)
	require.Error(t, err)
	assert.Equal(t, "Invalid or expired verification code", err.Error())

	priorClaims, err := f.codec.Verify(prior.Token)
	require.NoError(t, err)
	valid, err := f.manager.ValidateSession(ctx, priorClaims.SessionToken)
	require.NoError(t, err)
	assert.False(t, valid, "reset ends existing sessions")
}

func TestVerifyResetCode_Failures(t *testing.T) {
	f := newFixture(t, newUser(t, "user-1", "a@b.com", "secret1", auth.StatusActive))
	ctx := context.Background()

	_, err := f.service.VerifyResetCode(ctx, "a@b.com", "123456")
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation), "never-issued code")

	_, err = f.service.VerifyResetCode(ctx, "x@y.com", "123456")
	assert.True(t, apperr.IsNotFound(err))

	require.NoError(t, f.service.RequestPasswordReset(ctx, "a@b.com"))
	code := f.lastCode(t)

	f.clock.Advance(61 * time.Minute)
	_, err = f.service.VerifyResetCode(ctx, "a@b.com", code)
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation), "expired code")
}

func TestVerifyResetCode_EarlierCodesStayValid(t *testing.T) {
	f := newFixture(t, newUser(t, "user-1", "a@b.com", "secret1", auth.StatusActive))
	ctx := context.Background()

	require.NoError(t, f.service.RequestPasswordReset(ctx, "a@b.com"))
	first := f.lastCode(t)
	require.NoError(t, f.service.RequestPasswordReset(ctx, "a@b.com"))

	_, err := f.service.VerifyResetCode(ctx, "a@b.com", first)
	assert.NoError(t, err)
}

func TestResetPassword_ExpiredToken(t *testing.T) {
	f := newFixture(t, newUser(t, "user-1", "a@b.com", "secret1", auth.StatusActive))
	ctx := context.Background()
	before := f.users.hash("user-1")

	require.NoError(t, f.service.RequestPasswordReset(ctx, "a@b.com"))
	resetToken, err := f.service.VerifyResetCode(ctx, "a@b.com", f.lastCode(t))
	require.NoError(t, err)

	f.clock.Advance(16 * time.Minute)

	err = f.service.ResetPassword(ctx, auth.ResetInput{Token: resetToken, Password: "newsecret"})
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
	assert.Equal(t, "Invalid or expired reset token", err.Error())
	assert.Equal(t, before, f.users.hash("user-1"), "password unchanged")
}

func TestResetPassword_RejectsAccessToken(t *testing.T) {
	f := newFixture(t, newUser(t, "user-1", "a@b.com", "secret1", auth.StatusActive))

	result, err := login(t, f, "a@b.com", "secret1")
	require.NoError(t, err)

	err = f.service.ResetPassword(context.Background(), auth.ResetInput{Token: result.Token, Password: "newsecret"})
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
}

func TestResetPassword_WithoutCodeStillSucceeds(t *testing.T) {
	f := newFixture(t, newUser(t, "user-1", "a@b.com", "secret1", auth.StatusActive))
	ctx := context.Background()

	require.NoError(t, f.service.RequestPasswordReset(ctx, "a@b.com"))
	code := f.lastCode(t)
	resetToken, err := f.service.VerifyResetCode(ctx, "a@b.com", code)
	require.NoError(t, err)

	require.NoError(t, f.service.ResetPassword(ctx, auth.ResetInput{Token: resetToken, Password: "newsecret"}))

	_, err = f.service.VerifyResetCode(ctx, "a@b.com", code)
	assert.NoError(t, err, "the code is only consumed when supplied")
}

// # Change Password

func TestChangePassword(t *testing.T) {
	f := newFixture(t, newUser(t, "user-1", "a@b.com", "secret1", auth.StatusActive))
	ctx := context.Background()

	err := f.service.ChangePassword(ctx, "user-1", "wrongpw", "newsecret")
	require.Error(t, err)
	assert.Equal(t, "Invalid current password", err.Error())

	err = f.service.ChangePassword(ctx, "missing", "secret1", "newsecret")
	assert.True(t, apperr.IsNotFound(err))

	require.NoError(t, f.service.ChangePassword(ctx, "user-1", "secret1", "newsecret"))

	_, err = login(t, f, "a@b.com", "newsecret")
	assert.NoError(t, err)
}
