package application

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nodrystarts/site-backend/internal/ports"
)

const (
	// eventTypeLeadCreated is emitted for every stored public inquiry.
	eventTypeLeadCreated = "lead.created"
	// eventTypeRFQSubmitted is emitted when a request for quote is stored.
	eventTypeRFQSubmitted = "rfq.submitted"
	// eventTypeDownloadRequested is emitted after both investor notifications were delivered.
	eventTypeDownloadRequested = "investor.download_requested"
	eventTypeDownloadRedeemed  = "investor.download_redeemed"
)

func newOutboxEvent(eventType, partitionKey string, payload map[string]any, at time.Time) (ports.OutboxEvent, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return ports.OutboxEvent{}, err
	}
	return ports.OutboxEvent{
		EventID:      uuid.New(),
		EventType:    eventType,
		PartitionKey: partitionKey,
		Payload:      raw,
		OccurredAt:   at,
	}, nil
}
