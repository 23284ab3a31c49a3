// Package notify carries user-facing side channels: chat messages to the
// prospect conversation, realtime fan-out to connected portals, and toast
// notifications for the operator.
package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/veltia-labs/veltia-core/pkg/store"
)

// Message is one outbound chat message.
type Message struct {
	ProspectID string
	Sender     string
	Content    string
	HTML       bool
	Metadata   map[string]any
}

// Chat delivers messages to a prospect's conversation thread.
type Chat interface {
	Send(ctx context.Context, msg *Message) error
}

// Publisher fans a stored message out to connected clients.
type Publisher interface {
	Publish(ctx context.Context, prospectID string, payload *store.ChatMessage) error
}

// StoreChat writes messages to the chat datastore, then publishes them on the
// realtime channel. Publishing is best-effort: the stored row is the source of
// truth and a failed fan-out only costs immediacy.
type StoreChat struct {
	messages store.ChatStore
	realtime Publisher
	clock    func() time.Time
}

// NewStoreChat creates a Chat over the datastore. realtime may be nil.
func NewStoreChat(messages store.ChatStore, realtime Publisher) *StoreChat {
	return &StoreChat{messages: messages, realtime: realtime, clock: time.Now}
}

func (c *StoreChat) Send(ctx context.Context, msg *Message) error {
	record := &store.ChatMessage{
		ProspectID: msg.ProspectID,
		Sender:     msg.Sender,
		Content:    msg.Content,
		IsHTML:     msg.HTML,
		CreatedAt:  c.clock(),
		Metadata:   msg.Metadata,
	}
	if err := c.messages.Insert(ctx, record); err != nil {
		return err
	}

	if c.realtime != nil {
		if err := c.realtime.Publish(ctx, msg.ProspectID, record); err != nil {
			slog.Warn("realtime publish failed", "prospect_id", msg.ProspectID, "error", err)
		}
	}
	return nil
}

// BestEffortSend delivers a chat message, treating failure as non-fatal.
// Chat notification must never turn an otherwise-successful execution into a
// failure; errors are logged and swallowed.
func BestEffortSend(ctx context.Context, chat Chat, msg *Message) {
	if chat == nil {
		return
	}
	if err := chat.Send(ctx, msg); err != nil {
		slog.Warn("notification chat échouée", "prospect_id", msg.ProspectID, "error", err)
	}
}
