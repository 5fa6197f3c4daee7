package transfer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWebhookBody(t *testing.T) {
	body := []byte(`{
		"event": "transfer.confirmed",
		"data": {
			"pending_ref": "trf-abc-123",
			"status": "confirmed",
			"external_reference": "0xdeadbeef"
		}
	}`)

	event, err := parseWebhookBody(body)
	require.NoError(t, err)
	assert.Equal(t, "transfer.confirmed", event.Event)
	assert.Equal(t, "trf-abc-123", event.PendingRef)
	assert.Equal(t, "confirmed", event.Status)
	assert.Equal(t, "0xdeadbeef", event.ExternalReference)
}

func TestParseWebhookBodyRejectsMissingRef(t *testing.T) {
	_, err := parseWebhookBody([]byte(`{"event":"transfer.confirmed","data":{"status":"confirmed"}}`))
	assert.Error(t, err)
}

func TestParseWebhookBodyRejectsGarbage(t *testing.T) {
	_, err := parseWebhookBody([]byte(`not json`))
	assert.Error(t, err)
}
