package chat

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// ErrOutboxFull is returned by Schedule when the queue has no room left.
var ErrOutboxFull = errors.New("outbox full")

type outgoing struct {
	channel string
	text    string
	replyID string
}

// Outbox queues outgoing messages and hands them to the transport no faster
// than the configured rate. Schedule never blocks on the transport.
type Outbox struct {
	next    Sender
	limiter *rate.Limiter
	queue   chan outgoing
	logger  *slog.Logger
}

// NewOutbox wraps next. every is the steady-state spacing between sends,
// burst the number of sends allowed back to back.
func NewOutbox(next Sender, every time.Duration, burst, queueSize int, logger *slog.Logger) *Outbox {
	if burst < 1 {
		burst = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	return &Outbox{
		next:    next,
		limiter: rate.NewLimiter(rate.Every(every), burst),
		queue:   make(chan outgoing, queueSize),
		logger:  logger,
	}
}

// Send implements Sender by scheduling the message.
func (o *Outbox) Send(_ context.Context, channel, text, replyID string) error {
	return o.Schedule(channel, text, replyID)
}

// Schedule enqueues a message for delivery.
func (o *Outbox) Schedule(channel, text, replyID string) error {
	select {
	case o.queue <- outgoing{channel: channel, text: text, replyID: replyID}:
		return nil
	default:
		o.logger.Warn("outbox full, dropping message", "channel", channel)
		return ErrOutboxFull
	}
}

// Pending returns the number of queued messages.
func (o *Outbox) Pending() int {
	return len(o.queue)
}

// Run delivers queued messages until ctx is cancelled.
func (o *Outbox) Run(ctx context.Context) error {
	o.logger.Info("outbox started")
	defer o.logger.Info("outbox stopped")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-o.queue:
			if err := o.limiter.Wait(ctx); err != nil {
				return err
			}
			if err := o.next.Send(ctx, msg.channel, msg.text, msg.replyID); err != nil {
				// Keep draining; one failed send must not stall the queue.
				o.logger.Error("failed to send message", "channel", msg.channel, "error", err)
			}
		}
	}
}
