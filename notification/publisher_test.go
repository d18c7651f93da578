package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/arunvm123/ticketbooking/model"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	messages []kafka.Message
	err      error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func testNotification() *model.NotificationRequest {
	booking := &model.Booking{ID: "b-1", UserID: "u-1", EventID: "e-1"}
	event := &model.Event{ID: "e-1", Name: "Jazz Night", Venue: "Blue Hall", Price: 2500}
	return model.NewBookingNotification(model.NotificationBookingConfirmed, "ana@example.com",
		booking, event, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
}

func TestKafkaPublisher(t *testing.T) {
	t.Run("writes keyed json", func(t *testing.T) {
		w := &recordingWriter{}
		p := &KafkaPublisher{writer: w}

		require.NoError(t, p.Publish(context.Background(), testNotification()))
		require.Len(t, w.messages, 1)
		assert.Equal(t, "b-1", string(w.messages[0].Key))

		var got model.NotificationRequest
		require.NoError(t, json.Unmarshal(w.messages[0].Value, &got))
		assert.Equal(t, model.NotificationBookingConfirmed, got.Type)
		assert.Equal(t, "Jazz Night", got.BookingData.EventName)
	})

	t.Run("returns writer errors", func(t *testing.T) {
		p := &KafkaPublisher{writer: &recordingWriter{err: errors.New("broker down")}}
		err := p.Publish(context.Background(), testNotification())
		assert.ErrorContains(t, err, "broker down")
	})
}
