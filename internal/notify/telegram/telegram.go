package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	"go.uber.org/ratelimit"

	"github.com/ecologia-integral/ecosite/internal/domain"
	"github.com/ecologia-integral/ecosite/internal/notify"
)

// ErrQueueFull is returned when notifications arrive faster than they can
// be delivered and the buffer is exhausted.
var ErrQueueFull = errors.New("notification queue full")

const queueSize = 64

type sender interface {
	SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error)
}

// Notifier posts new-review messages to a Telegram chat. Messages are queued
// by ReviewSubmitted and delivered by Run, at most 20 per minute.
type Notifier struct {
	bot     sender
	chatID  int64
	limiter ratelimit.Limiter
	queue   chan string
	logger  *slog.Logger
}

func New(token string, chatID int64, logger *slog.Logger) (*Notifier, error) {
	bot, err := telego.NewBot(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return newNotifier(bot, chatID, ratelimit.New(20, ratelimit.Per(time.Minute)), logger), nil
}

func newNotifier(bot sender, chatID int64, limiter ratelimit.Limiter, logger *slog.Logger) *Notifier {
	return &Notifier{
		bot:     bot,
		chatID:  chatID,
		limiter: limiter,
		queue:   make(chan string, queueSize),
		logger:  logger,
	}
}

var _ notify.Notifier = (*Notifier)(nil)

func (n *Notifier) ReviewSubmitted(_ context.Context, review *domain.Review) error {
	select {
	case n.queue <- notify.ReviewMessage(review):
		return nil
	default:
		return ErrQueueFull
	}
}

// Run delivers queued messages until ctx is cancelled.
func (n *Notifier) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case text := <-n.queue:
			n.limiter.Take()
			if _, err := n.bot.SendMessage(ctx, tu.Message(tu.ID(n.chatID), text)); err != nil {
				n.logger.Error("failed to send telegram notification", "chat_id", n.chatID, "error", err)
			}
		}
	}
}
