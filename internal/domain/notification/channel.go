// internal/domain/notification/channel.go
package notification

import (
	"context"
	"time"
)

// Channel delivers a text message to a recipient. Implementations report
// delivery problems as errors; the dispatcher isolates them per item.
// This keeps the application logic decoupled from any specific messaging library.
type Channel interface {
	Send(ctx context.Context, recipient string, body string) error
}

// Message is the envelope published to channels that hand delivery off to
// another process (e.g. a queue consumed by a WhatsApp gateway).
type Message struct {
	Recipient string    `json:"recipient"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}
