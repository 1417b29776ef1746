// Copyright (c) 2026 Passage. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/passage/internal/platform/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/passage")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("MAIL_HOST", "smtp.example.com")
	t.Setenv("APPROVED_ORIGINS", "https://a.example.com,https://b.example.com")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, 587, cfg.Mail.Port)
	assert.Equal(t, 993, cfg.IMAP.Port)
	assert.Equal(t, "smtp.example.com", cfg.IMAP.Host, "imap host falls back to mail host")
	assert.Equal(t, 5*time.Minute, cfg.BouncePollInterval)
	assert.Equal(t, time.Hour, cfg.SessionCleanupInterval)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.ApprovedOrigins)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.MailEnabled())
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")

	_, err := config.Load()
	assert.Error(t, err)
}
