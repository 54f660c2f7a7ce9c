package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ecologia-integral/ecosite/internal/domain"
)

func TestReviewMessage(t *testing.T) {
	msg := ReviewMessage(&domain.Review{ID: 7, Name: "Ana", Age: 12, Rating: 4, Comment: "Gostei muito!"})
	assert.Equal(t, "Nova avaliação pendente #7\nAna (12 anos) - 4/5 estrelas\n\nGostei muito!", msg)
}

func TestNop(t *testing.T) {
	assert.NoError(t, Nop{}.ReviewSubmitted(context.Background(), &domain.Review{}))
}
