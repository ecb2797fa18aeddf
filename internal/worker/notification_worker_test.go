package worker

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/events"
)

type capturePublisher struct {
	channel  string
	payloads [][]byte
}

func (p *capturePublisher) Publish(_ context.Context, channel string, payload []byte) error {
	p.channel = channel
	p.payloads = append(p.payloads, payload)
	return nil
}

func TestNotificationWorkerForwardsEvents(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	publisher := &capturePublisher{}
	cfg := config.NotificationConfig{Enabled: true, RedisChannel: "complaints.events"}
	require.NotNil(t, StartNotificationWorker(dispatcher, publisher, zap.NewNop(), cfg))

	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{
		ID:       "e1",
		Type:     events.EventTicketAssigned,
		TicketID: "t1",
	}))

	require.Len(t, publisher.payloads, 1)
	assert.Equal(t, "complaints.events", publisher.channel)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(publisher.payloads[0], &decoded))
	assert.Equal(t, "ticket_assigned", decoded["type"])
	assert.Equal(t, "t1", decoded["ticket_id"])
}

func TestNotificationWorkerDisabledDoesNotPublish(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	publisher := &capturePublisher{}
	StartNotificationWorker(dispatcher, publisher, zap.NewNop(), config.NotificationConfig{RedisChannel: "x"})

	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{Type: events.EventTicketCreated}))
	assert.Empty(t, publisher.payloads)
}

func TestNotificationWorkerNilDispatcher(t *testing.T) {
	assert.Nil(t, StartNotificationWorker(nil, nil, zap.NewNop(), config.NotificationConfig{}))
}
