package kafka

import (
	"testing"
	"time"

	"github.com/couchcryptid/lora-locator/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapMessageToRawEvent(t *testing.T) {
	now := time.Now()
	msg := kafkago.Message{
		Key:       []byte("tracker-01:7"),
		Value:     []byte(`{"end_device_ids":{"device_id":"tracker-01"}}`),
		Topic:     "ttn-uplinks",
		Partition: 2,
		Offset:    42,
		Time:      now,
		Headers: []kafkago.Header{
			{Key: "source", Value: []byte("ttn")},
		},
	}

	raw := mapMessageToRawEvent(msg)

	assert.Equal(t, []byte("tracker-01:7"), raw.Key)
	assert.JSONEq(t, `{"end_device_ids":{"device_id":"tracker-01"}}`, string(raw.Value))
	assert.Equal(t, "ttn-uplinks", raw.Topic)
	assert.Equal(t, 2, raw.Partition)
	assert.Equal(t, int64(42), raw.Offset)
	assert.Equal(t, now, raw.Timestamp)
	assert.Equal(t, "ttn", raw.Headers["source"])
	assert.Nil(t, raw.Commit)
}

func TestToMessage(t *testing.T) {
	now := time.Date(2024, 12, 13, 14, 30, 0, 0, time.UTC)
	out, err := domain.SerializeEstimate(domain.Estimate{
		MessageID:   "tracker-01:7",
		DeviceLat:   52.009078,
		DeviceLng:   4.018157,
		Receivers:   2,
		Mode:        domain.ModeWeighted,
		ProcessedAt: now,
	})
	require.NoError(t, err)

	msg := toMessage(out)

	assert.Equal(t, []byte("tracker-01:7"), msg.Key)
	assert.Contains(t, string(msg.Value), `"mode":"weighted"`)
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "mode", msg.Headers[0].Key)
	assert.Equal(t, []byte("weighted"), msg.Headers[0].Value)
	assert.Equal(t, "processed_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[1].Value)
	assert.Equal(t, "receivers", msg.Headers[2].Key)
	assert.Equal(t, []byte("2"), msg.Headers[2].Value)
}

func TestToMessage_NoHeaders(t *testing.T) {
	msg := toMessage(domain.OutputEvent{Key: []byte("k"), Value: []byte("{}")})
	assert.Empty(t, msg.Headers)
}
