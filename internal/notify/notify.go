// Package notify tells moderators about new reviews waiting for approval.
package notify

import (
	"context"
	"fmt"

	"github.com/ecologia-integral/ecosite/internal/domain"
)

type Notifier interface {
	ReviewSubmitted(ctx context.Context, review *domain.Review) error
}

// Nop discards every notification.
type Nop struct{}

func (Nop) ReviewSubmitted(context.Context, *domain.Review) error { return nil }

// ReviewMessage is the moderator-facing text for a newly submitted review.
func ReviewMessage(r *domain.Review) string {
	return fmt.Sprintf("Nova avaliação pendente #%d\n%s (%d anos) - %d/5 estrelas\n\n%s",
		r.ID, r.Name, r.Age, r.Rating, r.Comment)
}
