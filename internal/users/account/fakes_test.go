// Copyright (c) 2026 Passage. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/taibuivan/passage/internal/platform/apperr"
	"github.com/taibuivan/passage/internal/users/auth"
	"github.com/taibuivan/passage/pkg/pagination"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type memoryRepository struct {
	mu   sync.Mutex
	rows map[string]*auth.User
}

func newMemoryRepository(users ...*auth.User) *memoryRepository {
	repo := &memoryRepository{rows: make(map[string]*auth.User)}
	for _, user := range users {
		repo.rows[user.ID] = user
	}
	return repo
}

func (r *memoryRepository) Create(_ context.Context, user *auth.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *user
	r.rows[user.ID] = &copied
	return nil
}

func (r *memoryRepository) FindByID(_ context.Context, id string) (*auth.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.rows[id]
	if !ok || user.Status == auth.StatusDeleted {
		return nil, apperr.NotFound("User")
	}
	copied := *user
	return &copied, nil
}

func (r *memoryRepository) EmailTaken(_ context.Context, email, exceptID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.rows {
		if strings.EqualFold(user.Email, email) && user.Status != auth.StatusDeleted && user.ID != exceptID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryRepository) List(_ context.Context, params pagination.Params, includeDeleted bool) ([]*auth.User, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]*auth.User, 0, len(r.rows))
	for _, user := range r.rows {
		if includeDeleted || user.Status != auth.StatusDeleted {
			all = append(all, user)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	start := min(params.Offset(), len(all))
	end := min(start+params.Limit, len(all))
	return all[start:end], len(all), nil
}

func (r *memoryRepository) Update(_ context.Context, user *auth.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[user.ID]; !ok {
		return apperr.NotFound("User")
	}
	copied := *user
	r.rows[user.ID] = &copied
	return nil
}

func (r *memoryRepository) SoftDelete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.rows[id]
	if !ok || user.Status == auth.StatusDeleted {
		return apperr.NotFound("User")
	}
	user.Status = auth.StatusDeleted
	return nil
}

func (r *memoryRepository) SetProfileImage(_ context.Context, id, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.rows[id]
	if !ok || user.Status == auth.StatusDeleted {
		return apperr.NotFound("User")
	}
	user.ProfileImage = url
	return nil
}

func (r *memoryRepository) get(id string) *auth.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *r.rows[id]
	return &copied
}

type recordingRevoker struct {
	mu    sync.Mutex
	calls []string
}

func (r *recordingRevoker) InvalidateAllUserSessions(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, userID)
	return nil
}

type stubUploader struct {
	publicID string
	size     int
	fail     bool
}

func (u *stubUploader) UploadImage(_ context.Context, data []byte, _ string, publicID string) (string, error) {
	if u.fail {
		return "", errors.New("asset host unreachable")
	}
	u.publicID = publicID
	u.size = len(data)
	return "https://res.cloudinary.com/demo/image/upload/" + publicID + ".png", nil
}
