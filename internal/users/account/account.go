// Copyright (c) 2026 Passage. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account handles registration, profile management and profile media.

# Architecture

  - Domain: This package depends on the auth package for the User entity.
  - Security: Deleting an account ends every session it holds.
  - Media: Profile pictures go through a [media.Uploader].
*/
package account

import (
	"context"

	"github.com/taibuivan/passage/internal/platform/constants"
	"github.com/taibuivan/passage/internal/platform/sec"
	"github.com/taibuivan/passage/internal/platform/validate"
	"github.com/taibuivan/passage/internal/users/auth"
	"github.com/taibuivan/passage/pkg/pagination"
)

// # Repository Contracts

// Repository is the profile view of the users table.
type Repository interface {
	// Create inserts a new account. A duplicate email yields apperr.Conflict.
	Create(ctx context.Context, user *auth.User) error

	// FindByID returns a non-deleted account or apperr.NotFound.
	FindByID(ctx context.Context, id string) (*auth.User, error)

	// EmailTaken reports whether a non-deleted account other than exceptID uses email.
	EmailTaken(ctx context.Context, email, exceptID string) (bool, error)

	/*
		List returns one page of accounts, newest first.

		Returns:
		  - []*auth.User: The page
		  - int: Total matching accounts
		  - error: Database failures
	*/
	List(ctx context.Context, params pagination.Params, includeDeleted bool) ([]*auth.User, int, error)

	// Update persists every mutable field of user. Missing rows yield apperr.NotFound.
	Update(ctx context.Context, user *auth.User) error

	// SoftDelete sets status to DELETED. Missing rows yield apperr.NotFound.
	SoftDelete(ctx context.Context, id string) error

	// SetProfileImage stores the profile picture URL. Missing rows yield apperr.NotFound.
	SetProfileImage(ctx context.Context, id, url string) error
}

// SessionRevoker ends every session of a user.
type SessionRevoker interface {
	InvalidateAllUserSessions(ctx context.Context, userID string) error
}

// # Field Identifiers

const (
	FieldEmail        = "email"
	FieldPassword     = "password"
	FieldFirstName    = "first_name"
	FieldLastName     = "last_name"
	FieldGender       = "gender"
	FieldRole         = "role"
	FieldCountry      = "country"
	FieldProfileImage = "profile_image"
	FieldDateOfBirth  = "date_of_birth"
	FieldBase64       = "base64string"
	FieldFileName     = "fileName"
)

// # Inputs

// CreateInput holds the registration payload.
type CreateInput struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Gender       string `json:"gender"`
	Role         string `json:"role"`
	Country      string `json:"country"`
	ProfileImage string `json:"profile_image"`
	DateOfBirth  string `json:"date_of_birth"`
}

// Validate checks every field and names the first offender.
func (input CreateInput) Validate() error {
	v := &validate.Validator{}
	v.Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, constants.MinPasswordLength).
		Required(FieldFirstName, input.FirstName).
		Required(FieldLastName, input.LastName).
		OneOf(FieldGender, input.Gender, auth.Genders...).
		OneOf(FieldRole, input.Role, sec.RoleNames()...).
		Required(FieldCountry, input.Country).
		URL(FieldProfileImage, input.ProfileImage).
		Date(FieldDateOfBirth, input.DateOfBirth)
	return v.Err()
}

// UpdateInput is a partial profile update. Nil fields are left untouched.
type UpdateInput struct {
	Email        *string `json:"email"`
	Password     *string `json:"password"`
	FirstName    *string `json:"first_name"`
	LastName     *string `json:"last_name"`
	Gender       *string `json:"gender"`
	Role         *string `json:"role"`
	Country      *string `json:"country"`
	ProfileImage *string `json:"profile_image"`
	DateOfBirth  *string `json:"date_of_birth"`
}

// Empty reports whether no field was supplied.
func (input UpdateInput) Empty() bool {
	return input.Email == nil && input.Password == nil && input.FirstName == nil &&
		input.LastName == nil && input.Gender == nil && input.Role == nil &&
		input.Country == nil && input.ProfileImage == nil && input.DateOfBirth == nil
}

// Validate checks only the supplied fields.
func (input UpdateInput) Validate() error {
	v := &validate.Validator{}
	if input.Email != nil {
		v.Required(FieldEmail, *input.Email).Email(FieldEmail, *input.Email)
	}
	if input.Password != nil {
		v.MinLen(FieldPassword, *input.Password, constants.MinPasswordLength)
	}
	if input.FirstName != nil {
		v.Required(FieldFirstName, *input.FirstName)
	}
	if input.LastName != nil {
		v.Required(FieldLastName, *input.LastName)
	}
	if input.Gender != nil {
		v.OneOf(FieldGender, *input.Gender, auth.Genders...)
	}
	if input.Role != nil {
		v.OneOf(FieldRole, *input.Role, sec.RoleNames()...)
	}
	if input.Country != nil {
		v.Required(FieldCountry, *input.Country)
	}
	if input.ProfileImage != nil {
		v.URL(FieldProfileImage, *input.ProfileImage)
	}
	if input.DateOfBirth != nil {
		v.Date(FieldDateOfBirth, *input.DateOfBirth)
	}
	return v.Err()
}

// ProfilePictureInput is a base64 encoded image upload.
type ProfilePictureInput struct {
	Base64   string `json:"base64string"`
	FileName string `json:"fileName"`
}
