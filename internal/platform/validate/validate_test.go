// Copyright (c) 2026 Passage. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package validate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/passage/internal/platform/apperr"
	"github.com/taibuivan/passage/internal/platform/validate"
)

/*
TestValidator_Required tests the mandatory field validation logic.
*/
func TestValidator_Required(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		value    string
		hasError bool
	}{
		{"valid_string", "first_name", "Ada", false},
		{"empty_string", "first_name", "", true},
		{"whitespace_only", "first_name", "   ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &validate.Validator{}
			v.Required(tt.field, tt.value)

			if tt.hasError {
				assert.True(t, v.HasErrors())
				err := v.Err()
				require.NotNil(t, err)

				ae := apperr.As(err)
				require.NotNil(t, ae)
				assert.Equal(t, "VALIDATION_ERROR", ae.Code)
				assert.Equal(t, tt.field, ae.Details[0].Field)
				assert.Contains(t, ae.Message, tt.field)
			} else {
				assert.False(t, v.HasErrors())
				assert.Nil(t, v.Err())
			}
		})
	}
}

/*
TestValidator_Email checks the email format validation rule.
*/
func TestValidator_Email(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		isValid bool
	}{
		{"valid_email", "test@example.com", true},
		{"invalid_format", "invalid-email", false},
		{"missing_domain", "test@", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &validate.Validator{}
			v.Email("email", tt.email)
			assert.Equal(t, !tt.isValid, v.HasErrors())
		})
	}
}

func TestValidator_URLAndDate(t *testing.T) {
	tests := []struct {
		name    string
		run     func(v *validate.Validator)
		isValid bool
	}{
		{"https_url", func(v *validate.Validator) { v.URL("profile_image", "https://cdn.example.com/a.png") }, true},
		{"relative_url", func(v *validate.Validator) { v.URL("profile_image", "/a.png") }, false},
		{"ftp_url", func(v *validate.Validator) { v.URL("profile_image", "ftp://example.com/a.png") }, false},
		{"iso_date", func(v *validate.Validator) { v.Date("date_of_birth", "1998-04-21") }, true},
		{"bad_date", func(v *validate.Validator) { v.Date("date_of_birth", "21/04/1998") }, false},
		{"exact_len", func(v *validate.Validator) { v.ExactLen("code", "123456", 6) }, true},
		{"short_code", func(v *validate.Validator) { v.ExactLen("code", "12345", 6) }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &validate.Validator{}
			tt.run(v)
			assert.Equal(t, !tt.isValid, v.HasErrors())
		})
	}
}

/*
TestValidator_Chain_Failure tests error accumulation in the chain.
*/
func TestValidator_Chain_Failure(t *testing.T) {
	v := &validate.Validator{}

	err := v.
		Required("first_name", "").
		MinLen("password", "abc", 6).
		Email("email", "not-an-email").
		OneOf("gender", "OTHER", "MALE", "FEMALE", "RATHER_NOT_SAY").
		Err()

	require.Error(t, err)
	ae := apperr.As(err)
	require.NotNil(t, ae)

	assert.Len(t, ae.Details, 4)
	assert.Equal(t, "first_name: This field is required", ae.Message)
}
