package notify

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

const TargetAdmin = "admin"

func TargetUser(userID uuid.UUID) string {
	return "user:" + userID.String()
}

// Message is the envelope handed to the delivery channel
type Message struct {
	ID        string    `json:"id"`
	Target    string    `json:"target"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

func NewMessage(target string, text string) Message {
	return Message{
		ID:        ulid.Make().String(),
		Target:    target,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
}

// Kind of the target, "admin" or "user"
func (m Message) Kind() string {
	kind, _, _ := strings.Cut(m.Target, ":")
	return kind
}

// Sink delivers a message, retries are the sink's concern
type Sink interface {
	Send(ctx context.Context, m Message) error
}
