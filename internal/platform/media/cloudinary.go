// Copyright (c) 2026 Passage. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package media stores user-supplied images with an external asset host.
package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// ErrEmptyImage is returned when a decoded image has no bytes.
var ErrEmptyImage = errors.New("media: image payload is empty")

// Uploader stores an image and returns its public URL.
type Uploader interface {
	UploadImage(ctx context.Context, data []byte, fileName, publicID string) (string, error)
}

// CloudinaryUploader uploads images to Cloudinary, replacing any asset with the same public id.
type CloudinaryUploader struct {
	client *cloudinary.Cloudinary
}

// NewCloudinaryUploader builds an uploader from a cloudinary:// URL.
func NewCloudinaryUploader(cloudinaryURL string) (*CloudinaryUploader, error) {
	client, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("media: invalid cloudinary url: %w", err)
	}
	client.Config.URL.Secure = true
	return &CloudinaryUploader{client: client}, nil
}

// UploadImage implements [Uploader].
func (u *CloudinaryUploader) UploadImage(ctx context.Context, data []byte, fileName, publicID string) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyImage
	}

	result, err := u.client.Upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		PublicID:         publicID,
		FilenameOverride: fileName,
		Overwrite:        api.Bool(true),
		Invalidate:       api.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("media: upload %s: %w", publicID, err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("media: upload %s rejected: %s", publicID, result.Error.Message)
	}

	return result.SecureURL, nil
}

// Disabled rejects every upload. It stands in when CLOUDINARY_URL is unset.
type Disabled struct{}

// UploadImage implements [Uploader].
func (Disabled) UploadImage(context.Context, []byte, string, string) (string, error) {
	return "", errors.New("media: asset host is not configured")
}

// DecodeBase64Image decodes a raw or data-URL ("data:image/png;base64,...") payload.
func DecodeBase64Image(payload string) ([]byte, error) {
	payload = strings.TrimSpace(payload)
	if strings.HasPrefix(payload, "data:") {
		_, encoded, found := strings.Cut(payload, ",")
		if !found {
			return nil, fmt.Errorf("media: malformed data url")
		}
		payload = encoded
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("media: invalid base64 image: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	return data, nil
}
