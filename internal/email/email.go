package email

import (
	"context"
	"fmt"

	"github.com/strandline/ferrybooking/internal/kafka"
)

// Sender is the notification delivery stand-in: the worker feeds it events from
// the notifications topic.
type Sender struct{}

func NewSender() *Sender {
	return &Sender{}
}

func (s *Sender) Send(ctx context.Context, event kafka.NotificationEvent) error {
	for _, recipient := range event.Recipients {
		fmt.Printf("notify customer %d: %s (booking %s): %s\n", recipient, event.EventKind, event.BookingCode, event.Message)
	}
	return nil
}
