package shared

// Source identifies which entry point produced a reconciliation
type Source string

const (
	SourceWebhook          Source = "webhook"
	SourceVerificationPoll Source = "verification_poll"
	SourceSweeper          Source = "sweeper"
)

// Valid reports whether s is a known source
func (s Source) Valid() bool {
	switch s {
	case SourceWebhook, SourceVerificationPoll, SourceSweeper:
		return true
	}
	return false
}

// OutboxStatus defines message publishing states
type OutboxStatus string

const (
	OutboxStatusPending         OutboxStatus = "PENDING"
	OutboxStatusProcessed       OutboxStatus = "PROCESSED"
	OutboxStatusFailedToPublish OutboxStatus = "FAILED_TO_PUBLISH"
)
