package outbox_poller

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fellowship-vote-ledger/internal/domain/outbox"
	"github.com/fellowship-vote-ledger/internal/domain/shared"
	"github.com/fellowship-vote-ledger/internal/platform/messaging/producers"
)

// VoteEventPublisher relays one outbox message to the vote events topic
type VoteEventPublisher interface {
	PublishVoteEvent(ctx context.Context, message *outbox.Message) error
}

// ErrUndecodablePayload marks messages that can never be published
type ErrUndecodablePayload struct {
	ID  string
	Err error
}

func (e ErrUndecodablePayload) Error() string {
	return fmt.Sprintf("outbox message %s has an undecodable payload: %v", e.ID, e.Err)
}

func (e ErrUndecodablePayload) Unwrap() error {
	return e.Err
}

type VoteEventPublisherImpl struct {
	outboxRepo outbox.Repository
	producer   producers.MessagePublisher
	logger     *slog.Logger
}

func NewVoteEventPublisher(
	outboxRepo outbox.Repository,
	producer producers.MessagePublisher,
	logger *slog.Logger,
) VoteEventPublisher {
	return &VoteEventPublisherImpl{
		outboxRepo: outboxRepo,
		producer:   producer,
		logger:     logger,
	}
}

// PublishVoteEvent writes the event keyed by reference and marks the message PROCESSED.
// A crash between the two steps republishes the event; consumers dedupe on vote_id.
func (p *VoteEventPublisherImpl) PublishVoteEvent(ctx context.Context, message *outbox.Message) error {
	event, err := message.GetVoteEvent()
	if err != nil {
		if updateErr := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusFailedToPublish); updateErr != nil {
			p.logger.Error("Failed to mark undecodable outbox message", "outbox_id", message.ID, "error", updateErr)
		}
		return ErrUndecodablePayload{ID: message.ID, Err: err}
	}

	logger := p.logger.With("outbox_id", message.ID, "reference", event.Reference)

	if err := p.producer.Publish(ctx, event.Reference, event); err != nil {
		return fmt.Errorf("failed to publish vote event for %s: %w", event.Reference, err)
	}

	if err := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusProcessed); err != nil {
		logger.Error("Vote event published but outbox status update failed", "error", err)
		return fmt.Errorf("published %s but failed to mark outbox %s as PROCESSED: %w", event.Reference, message.ID, err)
	}

	logger.Info("Vote event published", "color", event.Color, "votes", event.Votes)
	return nil
}
