package broadcast

import (
	"testing"
	"time"

	telemetrydomain "github.com/mmdba/supmmdba/internal/telemetry/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishReachesEverySubscriber(t *testing.T) {
	hub := NewHub()

	first, err := hub.Subscribe(telemetrydomain.CategoryStatus)
	require.NoError(t, err)
	defer first.Close()

	second, err := hub.Subscribe(telemetrydomain.CategoryStatus)
	require.NoError(t, err)
	defer second.Close()

	record := telemetrydomain.Record{
		EventCode: "st01",
		Value:     "Em Producao",
		Origin:    "Rotuladora",
		EventType: "Status",
		Timestamp: time.Now().UTC(),
	}
	hub.Publish(telemetrydomain.CategoryStatus, record)

	for _, sub := range []*Subscription{first, second} {
		select {
		case got := <-sub.Events():
			assert.Equal(t, record, got)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive the record")
		}
	}
}

func TestHub_ChannelsAreIsolated(t *testing.T) {
	hub := NewHub()

	alarms, err := hub.Subscribe(telemetrydomain.CategoryAlarm)
	require.NoError(t, err)
	defer alarms.Close()

	hub.Publish(telemetrydomain.CategoryStatus, telemetrydomain.Record{EventCode: "st01"})

	select {
	case got := <-alarms.Events():
		t.Fatalf("alarm subscriber received a status record: %+v", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_SlowSubscriberLosesRecordsWithoutBlocking(t *testing.T) {
	hub := NewHub()

	slow, err := hub.Subscribe(telemetrydomain.CategorySpeed)
	require.NoError(t, err)
	defer slow.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < DefaultSubscriberBuffer+10; i++ {
			hub.Publish(telemetrydomain.CategorySpeed, telemetrydomain.Record{EventCode: "vel"})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}

	assert.Len(t, slow.Events(), DefaultSubscriberBuffer)
}

func TestHub_PublishWithoutSubscribersIsANoop(t *testing.T) {
	hub := NewHub()
	hub.Publish(telemetrydomain.CategoryData, telemetrydomain.Record{EventCode: "d01"})
}

func TestHub_CloseRemovesSubscriber(t *testing.T) {
	hub := NewHub()

	sub, err := hub.Subscribe(telemetrydomain.CategoryStatus)
	require.NoError(t, err)
	sub.Close()
	sub.Close() // idempotent

	hub.Publish(telemetrydomain.CategoryStatus, telemetrydomain.Record{EventCode: "st01"})
	assert.Empty(t, sub.Events())

	hub.mu.RLock()
	_, stillRegistered := hub.channels[telemetrydomain.CategoryStatus]
	hub.mu.RUnlock()
	assert.False(t, stillRegistered)
}

func TestHub_SubscribeUnknownChannel(t *testing.T) {
	hub := NewHub()

	sub, err := hub.Subscribe(telemetrydomain.Category("temperatura"))
	assert.Nil(t, sub)
	assert.ErrorIs(t, err, ErrUnknownChannel)
}

func TestEventNames_CoverEveryCategory(t *testing.T) {
	for _, category := range telemetrydomain.Categories {
		assert.NotEmpty(t, EventNames[category], "category %s has no event name", category)
	}
}
