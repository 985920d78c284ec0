package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quickcourt/pkg/kafka"
	"quickcourt/pkg/logger"
	"quickcourt/pkg/model"
)

type recordingProducer struct {
	messages []kafka.Message
	err      error
}

func (r *recordingProducer) Publish(_ context.Context, msg kafka.Message) error {
	r.messages = append(r.messages, msg)
	return r.err
}

func testBooking() *model.Booking {
	return &model.Booking{
		ID:      "65f0000000000000000000b1",
		UserID:  "65f0000000000000000000a1",
		VenueID: "65f000000000000000000001",
		Court:   model.CourtSnapshot{CourtID: "65f0000000000000000000c1", Name: "Court 1", SportType: "badminton"},
		Date:    time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		TimeSlot: model.TimeSlot{
			Start: "18:00",
			End:   "19:00",
		},
		Duration:      1,
		TotalPrice:    500,
		Status:        model.BookingStatusConfirmed,
		PaymentStatus: model.PaymentStatusCompleted,
	}
}

func TestKafkaPublisher_Publish(t *testing.T) {
	producer := &recordingProducer{}
	p := newKafkaPublisher(producer, logger.Discard())
	at := time.Date(2025, 2, 28, 9, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return at }

	p.Publish(context.Background(), TypeBookingCreated, testBooking())

	require.Len(t, producer.messages, 1)
	msg := producer.messages[0]
	assert.Equal(t, "65f0000000000000000000b1", msg.Key)
	assert.Equal(t, TypeBookingCreated, msg.GetEventType())
	assert.NotEmpty(t, msg.GetEventID())

	var event BookingEvent
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, "2025-03-01", event.Date)
	assert.Equal(t, "18:00", event.Start)
	assert.Equal(t, 500.0, event.TotalPrice)
	assert.Equal(t, at, event.OccurredAt)
}

func TestKafkaPublisher_FailureIsSwallowed(t *testing.T) {
	producer := &recordingProducer{err: errors.New("dial tcp: connection refused")}
	p := newKafkaPublisher(producer, logger.Discard())

	assert.NotPanics(t, func() {
		p.Publish(context.Background(), TypeBookingCancelled, testBooking())
	})
	assert.Len(t, producer.messages, 1)
}

func TestNoopPublisher(t *testing.T) {
	assert.NotPanics(t, func() {
		NewNoopPublisher().Publish(context.Background(), TypeBookingCompleted, testBooking())
	})
}
