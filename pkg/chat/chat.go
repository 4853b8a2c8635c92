// Package chat defines the send/stop surface the chat presenter drives and
// a scripted implementation that streams canned replies through the bus.
// The real agent loop plugs in behind the same Service interface.
package chat

import (
	"context"

	"github.com/google/uuid"
)

// Service accepts chat input and interrupts in-flight responses. Progress
// is reported exclusively through Chat events on the bus, never through
// return values.
type Service interface {
	// SendMessage records the user message and starts streaming a
	// response for the conversation. It returns once the stream has been
	// started; the response itself arrives as StreamDelta events.
	SendMessage(ctx context.Context, conversationID uuid.UUID, text string) error

	// Stop interrupts the in-flight response for the conversation. It is
	// a no-op when nothing is streaming.
	Stop(ctx context.Context, conversationID uuid.UUID) error
}
