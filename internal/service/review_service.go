package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/ecologia-integral/ecosite/internal/domain"
	"github.com/ecologia-integral/ecosite/internal/notify"
	"github.com/ecologia-integral/ecosite/internal/store"
)

// reviewRepository is the subset of store.ReviewStore that ReviewService requires.
type reviewRepository interface {
	Create(ctx context.Context, in store.ReviewInput) (*domain.Review, error)
	List(ctx context.Context, f store.ReviewFilter) ([]*domain.Review, error)
	SetModeration(ctx context.Context, id int64, state domain.ModerationState) error
	UpdateComment(ctx context.Context, id int64, comment string) error
	Delete(ctx context.Context, id int64) error
}

// Submission is a review as entered on the public form.
type Submission struct {
	Name    string `form:"name" validate:"required,max=100"`
	Age     int    `form:"age" validate:"min=1,max=150"`
	Rating  int    `form:"rating" validate:"min=1,max=5"`
	Comment string `form:"comment" validate:"required,max=1000"`
}

const maxCommentLen = 1000

type ReviewService struct {
	reviews  reviewRepository
	notifier notify.Notifier
	validate *validator.Validate
	logger   *slog.Logger
}

func NewReviewService(reviews reviewRepository, notifier notify.Notifier, logger *slog.Logger) *ReviewService {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &ReviewService{
		reviews:  reviews,
		notifier: notifier,
		validate: newValidate(),
		logger:   logger,
	}
}

// Submit validates and stores a new pending review. Invalid submissions
// return a *ValidationError without touching the store.
func (s *ReviewService) Submit(ctx context.Context, sub Submission) (*domain.Review, error) {
	sub.Name = strings.TrimSpace(sub.Name)
	sub.Comment = strings.TrimSpace(sub.Comment)

	if err := s.validate.Struct(sub); err != nil {
		return nil, toValidationError(err)
	}

	review, err := s.reviews.Create(ctx, store.ReviewInput{
		Name:    sub.Name,
		Age:     sub.Age,
		Rating:  sub.Rating,
		Comment: sub.Comment,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to submit review: %w", err)
	}
	s.logger.Info("review submitted", "review_id", review.ID, "rating", review.Rating)

	if err := s.notifier.ReviewSubmitted(ctx, review); err != nil {
		s.logger.Warn("failed to notify moderators", "review_id", review.ID, "error", err)
	}
	return review, nil
}

// ListApproved returns the publicly visible reviews, newest first.
func (s *ReviewService) ListApproved(ctx context.Context) ([]*domain.Review, error) {
	approved := true
	return s.reviews.List(ctx, store.ReviewFilter{Approved: &approved})
}

// ListAll returns every review regardless of state, newest first.
func (s *ReviewService) ListAll(ctx context.Context) ([]*domain.Review, error) {
	return s.reviews.List(ctx, store.ReviewFilter{})
}

func (s *ReviewService) SetState(ctx context.Context, id int64, state domain.ModerationState) error {
	if err := s.reviews.SetModeration(ctx, id, state); err != nil {
		return fmt.Errorf("failed to set review %d to %s: %w", id, state, err)
	}
	s.logger.Info("review moderated", "review_id", id, "state", state)
	return nil
}

// EditComment replaces the comment text and returns the stored value.
func (s *ReviewService) EditComment(ctx context.Context, id int64, text string) (string, error) {
	comment := strings.TrimSpace(text)
	if comment == "" {
		return "", ErrEmptyComment
	}
	if utf8.RuneCountInString(comment) > maxCommentLen {
		return "", invalid("comment", fieldMessages["comment"]["max"])
	}
	if err := s.reviews.UpdateComment(ctx, id, comment); err != nil {
		return "", fmt.Errorf("failed to edit review %d: %w", id, err)
	}
	s.logger.Info("review comment edited", "review_id", id)
	return comment, nil
}

func (s *ReviewService) Delete(ctx context.Context, id int64) error {
	if err := s.reviews.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete review %d: %w", id, err)
	}
	s.logger.Info("review deleted", "review_id", id)
	return nil
}
