package transfer

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/veltapay/velta-wallet/pkg/events"
)

func parseWebhookBody(body []byte) (events.SettlementEvent, error) {
	var payload struct {
		Event string `json:"event"`
		Data  struct {
			PendingRef        string `json:"pending_ref"`
			Status            string `json:"status"`
			ExternalReference string `json:"external_reference"`
			FailureReason     string `json:"failure_reason"`
		} `json:"data"`
	}

	if err := json.Unmarshal(body, &payload); err != nil {
		return events.SettlementEvent{}, err
	}
	if payload.Data.PendingRef == "" {
		return events.SettlementEvent{}, fmt.Errorf("webhook payload missing pending_ref")
	}

	return events.SettlementEvent{
		Event:             payload.Event,
		PendingRef:        payload.Data.PendingRef,
		Status:            payload.Data.Status,
		ExternalReference: payload.Data.ExternalReference,
		FailureReason:     payload.Data.FailureReason,
		Timestamp:         time.Now().UTC(),
	}, nil
}
