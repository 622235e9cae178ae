package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/fellowship-vote-ledger/internal/domain/shared"
)

// Message stores a committed vote event for reliable publishing. It is written in
// the same transaction as the vote.
type Message struct {
	ID            string              `json:"id" bson:"_id"`
	Reference     string              `json:"reference" bson:"reference"`
	Payload       json.RawMessage     `json:"payload" bson:"payload"`
	Status        shared.OutboxStatus `json:"status" bson:"status"`
	Attempts      int                 `json:"attempts" bson:"attempts"`
	CreatedAt     time.Time           `json:"created_at" bson:"created_at"`
	LastAttemptAt *time.Time          `json:"last_attempt_at,omitempty" bson:"last_attempt_at,omitempty"`
}

func NewMessage(event *shared.VoteRecordedEvent) (*Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	return &Message{
		ID:        uuid.NewString(),
		Reference: event.Reference,
		Payload:   payload,
		Status:    shared.OutboxStatusPending,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (m *Message) IncrementAttempts() {
	m.Attempts++
	now := time.Now().UTC()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsProcessed() {
	m.Status = shared.OutboxStatusProcessed
	now := time.Now().UTC()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsFailed() {
	m.Status = shared.OutboxStatusFailedToPublish
	now := time.Now().UTC()
	m.LastAttemptAt = &now
}

// GetVoteEvent extracts the vote event from the payload
func (m *Message) GetVoteEvent() (*shared.VoteRecordedEvent, error) {
	var event shared.VoteRecordedEvent
	if err := json.Unmarshal(m.Payload, &event); err != nil {
		return nil, err
	}
	return &event, nil
}
