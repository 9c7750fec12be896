package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/casdy/PlanR-sub000/internal/assist"
	"github.com/casdy/PlanR-sub000/internal/storage"
)

// --- Error Definitions ---
var (
	ErrEmptyBadgePrompt = errors.New("badge prompt is required")
)

// Badge is a stored achievement image: its object key and a short-lived
// download URL.
type Badge struct {
	ObjectKey string `json:"objectKey"`
	URL       string `json:"url"`
}

// --- Service Interface ---
type BadgeService interface {
	// CreateBadge renders the achievement prompt into an image, stores it
	// under the user's badge prefix and returns a presigned download URL.
	CreateBadge(ctx context.Context, userID, prompt string) (*Badge, error)
}

// --- Service Implementation ---

// badgeService is display-side machinery: nothing in the session lifecycle
// waits on it or depends on its success.
type badgeService struct {
	images assist.ImageGenerator
	store  storage.FileStorage
}

// NewBadgeService creates a new instance of badgeService.
func NewBadgeService(images assist.ImageGenerator, store storage.FileStorage) BadgeService {
	return &badgeService{images: images, store: store}
}

func (s *badgeService) CreateBadge(ctx context.Context, userID, prompt string) (*Badge, error) {
	if prompt == "" {
		return nil, ErrEmptyBadgePrompt
	}

	data, err := s.images.GenerateImage(ctx, prompt)
	if err != nil {
		return nil, err
	}

	objectKey := fmt.Sprintf("badges/%s/%s.png", userID, uuid.NewString())
	if err := s.store.Upload(ctx, objectKey, "image/png", data); err != nil {
		return nil, err
	}

	url, err := s.store.GeneratePresignedDownloadURL(ctx, objectKey, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return nil, err
	}
	return &Badge{ObjectKey: objectKey, URL: url}, nil
}
