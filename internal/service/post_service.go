package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/skillswap/internal/domain"
	"github.com/immxrtalbeast/skillswap/internal/repository"
)

type PostService struct {
	posts repository.PostRepository
	now   func() time.Time
	log   *slog.Logger
}

func NewPostService(posts repository.PostRepository, now func() time.Time, log *slog.Logger) *PostService {
	if log == nil {
		log = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &PostService{posts: posts, now: now, log: log}
}

func (s *PostService) CreatePost(ctx context.Context, owner uuid.UUID, title string, coinsPerHour int64, window domain.AvailabilityWindow) (*domain.Post, error) {
	const op = "service.post.create"
	log := s.log.With(slog.String("op", op), slog.String("owner", owner.String()))

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrInvalidPost)
	}
	if owner == uuid.Nil {
		return nil, fmt.Errorf("%w: owner is required", domain.ErrInvalidPost)
	}
	if coinsPerHour < 0 {
		return nil, domain.ErrInvalidAmount
	}
	if err := window.Validate(); err != nil {
		return nil, err
	}

	post := domain.NewPost(owner, title, coinsPerHour, window, s.now())
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	log.Info("post created", slog.String("post_id", post.ID.String()), slog.Int("slots", len(post.Slots())))
	return post, nil
}

// UpdateAvailability replaces the window. Slots are always re-derived from the
// new window.
func (s *PostService) UpdateAvailability(ctx context.Context, postID, owner uuid.UUID, window domain.AvailabilityWindow) (*domain.Post, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.OwnerID != owner {
		return nil, domain.ErrForbidden
	}
	if err := window.Validate(); err != nil {
		return nil, err
	}

	post.Availability = window
	post.UpdatedAt = s.now().UTC()
	if err := s.posts.Update(ctx, post); err != nil {
		return nil, err
	}
	s.log.Info("post availability updated", slog.String("post_id", post.ID.String()))
	return post, nil
}

func (s *PostService) GetPost(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	return s.posts.GetByID(ctx, id)
}

func (s *PostService) Slots(ctx context.Context, postID uuid.UUID) ([]domain.Slot, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	return post.Slots(), nil
}
