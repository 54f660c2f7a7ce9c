package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ecologia-integral/ecosite/internal/domain"
)

// ErrNotFound is returned by updates and deletes that matched no row.
var ErrNotFound = errors.New("not found")

type ReviewInput struct {
	Name    string
	Age     int
	Rating  int
	Comment string
}

// ReviewFilter selects reviews for List. A nil Approved returns every row.
type ReviewFilter struct {
	Approved    *bool
	OldestFirst bool
}

type ReviewStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewReviewStore(db *sql.DB) *ReviewStore {
	return &ReviewStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

const reviewColumns = `id, name, age, rating, comment, created_at, approved, rejected`

// Create inserts a pending review.
func (s *ReviewStore) Create(ctx context.Context, in ReviewInput) (*domain.Review, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO reviews (name, age, rating, comment, created_at, approved, rejected)
		VALUES (?, ?, ?, ?, ?, 0, 0)
	`, in.Name, in.Age, in.Rating, in.Comment, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

func (s *ReviewStore) GetByID(ctx context.Context, id int64) (*domain.Review, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE id = ?`, id)
	review, err := scanReview(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	return review, nil
}

func (s *ReviewStore) List(ctx context.Context, f ReviewFilter) ([]*domain.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews`
	var args []any
	if f.Approved != nil {
		query += ` WHERE approved = ?`
		args = append(args, *f.Approved)
	}
	if f.OldestFirst {
		query += ` ORDER BY created_at ASC, id ASC`
	} else {
		query += ` ORDER BY created_at DESC, id DESC`
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	var reviews []*domain.Review
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, review)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reviews: %w", err)
	}

	return reviews, nil
}

// SetModeration overwrites both moderation flags from state, so the
// (approved, rejected) pair can never be written as (true, true).
func (s *ReviewStore) SetModeration(ctx context.Context, id int64, state domain.ModerationState) error {
	approved, rejected := state.Flags()
	result, err := s.db.ExecContext(ctx, `
		UPDATE reviews SET approved = ?, rejected = ? WHERE id = ?
	`, approved, rejected, id)
	if err != nil {
		return fmt.Errorf("failed to update review state: %w", err)
	}
	return expectOneRow(result, "review")
}

func (s *ReviewStore) UpdateComment(ctx context.Context, id int64, comment string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE reviews SET comment = ? WHERE id = ?
	`, comment, id)
	if err != nil {
		return fmt.Errorf("failed to update review comment: %w", err)
	}
	return expectOneRow(result, "review")
}

func (s *ReviewStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM reviews WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	return expectOneRow(result, "review")
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReview(sc scanner) (*domain.Review, error) {
	r := &domain.Review{}
	err := sc.Scan(&r.ID, &r.Name, &r.Age, &r.Rating, &r.Comment, &r.CreatedAt, &r.Approved, &r.Rejected)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func expectOneRow(result sql.Result, what string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s %w", what, ErrNotFound)
	}
	return nil
}
