// Copyright (c) 2026 Passage. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/passage/internal/platform/apperr"
)

func TestAs_TraversesWrappedChain(t *testing.T) {
	base := apperr.NotFound("User")
	wrapped := fmt.Errorf("account_service_get_profile_failed: %w", base)

	ae := apperr.As(wrapped)
	require.NotNil(t, ae)
	assert.Equal(t, "User not found", ae.Message)
	assert.Equal(t, http.StatusNotFound, ae.HTTPStatus)
	assert.True(t, apperr.IsNotFound(wrapped))
}

func TestInternal_HidesCause(t *testing.T) {
	cause := errors.New("pq: relation users does not exist")
	ae := apperr.Internal(cause)

	assert.Equal(t, "Internal Server Error", ae.Error())
	assert.ErrorIs(t, ae, cause)
}

func TestSessionExpired_Code(t *testing.T) {
	ae := apperr.SessionExpired()
	assert.Equal(t, apperr.CodeSessionExpired, ae.Code)
	assert.Equal(t, http.StatusUnauthorized, ae.HTTPStatus)
	assert.False(t, apperr.HasCode(errors.New("plain"), apperr.CodeSessionExpired))
}
