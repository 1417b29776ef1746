// Copyright (c) 2026 Passage. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/taibuivan/passage/internal/platform/apperr"
	"github.com/taibuivan/passage/internal/platform/media"
	"github.com/taibuivan/passage/internal/platform/sec"
	"github.com/taibuivan/passage/internal/platform/validate"
	"github.com/taibuivan/passage/internal/users/auth"
	"github.com/taibuivan/passage/pkg/pagination"
	"github.com/taibuivan/passage/pkg/pointer"
	"github.com/taibuivan/passage/pkg/uuid"
)

// # Service Layer

// Service orchestrates registration and profile use cases.
type Service struct {
	accountRepository Repository
	sessions          SessionRevoker
	uploader          media.Uploader
	logger            *slog.Logger
}

// NewService constructs a new [Service] with its dependencies.
func NewService(repository Repository, sessions SessionRevoker, uploader media.Uploader, logger *slog.Logger) *Service {
	return &Service{
		accountRepository: repository,
		sessions:          sessions,
		uploader:          uploader,
		logger:            logger,
	}
}

// # Registration

/*
Register validates, hashes, and persists a brand new account.

Description: Roles below ADMIN may be chosen freely. Granting ADMIN or
SUPER_ADMIN requires an authenticated caller holding at least that role.

Parameters:
  - ctx: context.Context
  - caller: *sec.AuthClaims (nil for anonymous sign-up)
  - input: CreateInput

Returns:
  - *auth.User: Created entity
  - error: Validation, Forbidden, Conflict or storage failures
*/
func (service *Service) Register(ctx context.Context, caller *sec.AuthClaims, input CreateInput) (*auth.User, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	role := sec.UserRole(input.Role)
	if err := authorizeRole(caller, role); err != nil {
		return nil, err
	}

	email := strings.TrimSpace(input.Email)
	taken, err := service.accountRepository.EmailTaken(ctx, email, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperr.Conflict("Email is already registered")
	}

	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("account_service_hash_failed: %w", err)
	}

	birth, _ := time.Parse(validate.DateLayout, input.DateOfBirth)
	now := time.Now()

	user := &auth.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hashedPassword,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Gender:       input.Gender,
		Role:         role,
		Status:       auth.StatusActive,
		Country:      strings.TrimSpace(input.Country),
		ProfileImage: input.ProfileImage,
		DateOfBirth:  &birth,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := service.accountRepository.Create(ctx, user); err != nil {
		return nil, err
	}

	service.logger.Info("user_registered",
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)
	return user, nil
}

// authorizeRole rejects privileged role assignment by an insufficient caller.
func authorizeRole(caller *sec.AuthClaims, role sec.UserRole) error {
	if !role.AtLeast(sec.RoleAdmin) {
		return nil
	}
	if caller == nil || !sec.UserRole(caller.Role).AtLeast(role) {
		return apperr.Forbidden("Insufficient permissions to assign role " + string(role))
	}
	return nil
}

// # Profile Management

// GetProfile returns the caller's own account.
func (service *Service) GetProfile(ctx context.Context, userID string) (*auth.User, error) {
	return service.accountRepository.FindByID(ctx, userID)
}

// ListUsers returns one page of accounts for administrators.
func (service *Service) ListUsers(ctx context.Context, params pagination.Params, includeDeleted bool) ([]*auth.User, pagination.Meta, error) {
	users, total, err := service.accountRepository.List(ctx, params, includeDeleted)
	if err != nil {
		return nil, pagination.Meta{}, err
	}
	return users, pagination.NewMeta(params, total), nil
}

/*
UpdateProfile applies a partial set of changes to the caller's account.

Description: Fetches the existing user state, overrides provided fields, and
synchronizes the change to persistent storage. A new password is re-hashed.

Returns:
  - *auth.User: The updated user profile
  - error: Validation, Forbidden, Conflict, NotFound or storage failures
*/
func (service *Service) UpdateProfile(ctx context.Context, caller *sec.AuthClaims, input UpdateInput) (*auth.User, error) {
	if input.Empty() {
		return nil, apperr.BadRequest("No update data provided")
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	user, err := service.accountRepository.FindByID(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}

	if input.Role != nil {
		role := sec.UserRole(*input.Role)
		if err := authorizeRole(caller, role); err != nil {
			return nil, err
		}
		user.Role = role
	}

	if input.Email != nil {
		email := strings.TrimSpace(*input.Email)
		if !strings.EqualFold(email, user.Email) {
			taken, err := service.accountRepository.EmailTaken(ctx, email, user.ID)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, apperr.Conflict("Email is already registered")
			}
		}
		user.Email = email
	}

	if input.Password != nil {
		hashedPassword, err := sec.HashPassword(*input.Password)
		if err != nil {
			return nil, fmt.Errorf("account_service_hash_failed: %w", err)
		}
		user.PasswordHash = hashedPassword
	}

	if input.DateOfBirth != nil {
		birth, _ := time.Parse(validate.DateLayout, *input.DateOfBirth)
		user.DateOfBirth = &birth
	}

	user.FirstName = pointer.ValOr(input.FirstName, user.FirstName)
	user.LastName = pointer.ValOr(input.LastName, user.LastName)
	user.Gender = pointer.ValOr(input.Gender, user.Gender)
	user.Country = pointer.ValOr(input.Country, user.Country)
	user.ProfileImage = pointer.ValOr(input.ProfileImage, user.ProfileImage)
	user.UpdatedAt = time.Now()

	if err := service.accountRepository.Update(ctx, user); err != nil {
		return nil, err
	}

	service.logger.Info("user_profile_updated", slog.String("user_id", user.ID))
	return user, nil
}

/*
Delete soft-deletes the caller's account and ends all of its sessions.

Description: The row is kept with status DELETED. Session cleanup failure is
logged; the account is already unusable because deleted users cannot sign in
and are filtered from every read.
*/
func (service *Service) Delete(ctx context.Context, userID string) error {
	if err := service.accountRepository.SoftDelete(ctx, userID); err != nil {
		return err
	}

	if err := service.sessions.InvalidateAllUserSessions(ctx, userID); err != nil {
		service.logger.Error("account_delete_session_cleanup_failed",
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
	}

	service.logger.Info("user_deleted", slog.String("user_id", userID))
	return nil
}

// # Profile Media

/*
UpdateProfilePicture uploads a base64 image and stores its URL on the account.

Description: The asset is published as "user_<id>_profile", overwriting any
previous picture.

Returns:
  - string: Secure URL of the uploaded asset
  - error: BadRequest, NotFound, or Internal on upload failure
*/
func (service *Service) UpdateProfilePicture(ctx context.Context, userID string, input ProfilePictureInput) (string, error) {
	v := &validate.Validator{}
	v.Required(FieldBase64, input.Base64).Required(FieldFileName, input.FileName)
	if err := v.Err(); err != nil {
		return "", err
	}

	data, err := media.DecodeBase64Image(input.Base64)
	if err != nil {
		if errors.Is(err, media.ErrEmptyImage) {
			return "", validate.RequiredError(FieldBase64, "Image payload is empty")
		}
		return "", apperr.BadRequest("Image payload is not valid base64")
	}

	if _, err := service.accountRepository.FindByID(ctx, userID); err != nil {
		return "", err
	}

	url, err := service.uploader.UploadImage(ctx, data, input.FileName, profilePublicID(userID))
	if err != nil {
		return "", apperr.Internal(fmt.Errorf("account_service_upload_failed: %w", err))
	}

	if err := service.accountRepository.SetProfileImage(ctx, userID, url); err != nil {
		return "", err
	}

	service.logger.Info("profile_picture_updated", slog.String("user_id", userID))
	return url, nil
}

func profilePublicID(userID string) string {
	return "user_" + userID + "_profile"
}
