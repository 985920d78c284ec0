package events

import (
	"context"
	"time"

	"quickcourt/pkg/kafka"
	"quickcourt/pkg/logger"
	"quickcourt/pkg/middleware"
	"quickcourt/pkg/model"
)

const (
	TypeBookingCreated   = "booking.created"
	TypeBookingCancelled = "booking.cancelled"
	TypeBookingCompleted = "booking.completed"

	schemaVersion = "1"
	source        = "quickcourt-bookings"
)

// BookingEvent is the payload of every booking lifecycle message.
type BookingEvent struct {
	BookingID          string    `json:"bookingId"`
	UserID             string    `json:"userId"`
	VenueID            string    `json:"venueId"`
	CourtID            string    `json:"courtId"`
	Date               string    `json:"date"`
	Start              string    `json:"start"`
	End                string    `json:"end"`
	Status             string    `json:"status"`
	PaymentStatus      string    `json:"paymentStatus"`
	TotalPrice         float64   `json:"totalPrice"`
	CancellationReason string    `json:"cancellationReason,omitempty"`
	OccurredAt         time.Time `json:"occurredAt"`
}

func NewBookingEvent(b *model.Booking, at time.Time) BookingEvent {
	return BookingEvent{
		BookingID:          b.ID,
		UserID:             b.UserID,
		VenueID:            b.VenueID,
		CourtID:            b.Court.CourtID,
		Date:               b.Date.UTC().Format(model.DateLayout),
		Start:              b.TimeSlot.Start,
		End:                b.TimeSlot.End,
		Status:             b.Status,
		PaymentStatus:      b.PaymentStatus,
		TotalPrice:         b.TotalPrice,
		CancellationReason: b.CancellationReason,
		OccurredAt:         at.UTC(),
	}
}

// Publisher announces booking state changes. Delivery is best effort:
// failures are logged and never surface to the caller.
type Publisher interface {
	Publish(ctx context.Context, eventType string, booking *model.Booking)
}

type messagePublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type kafkaPublisher struct {
	producer messagePublisher
	log      *logger.Logger
	now      func() time.Time
}

func NewKafkaPublisher(producer *kafka.Producer, log *logger.Logger) Publisher {
	return newKafkaPublisher(producer, log)
}

func newKafkaPublisher(producer messagePublisher, log *logger.Logger) *kafkaPublisher {
	return &kafkaPublisher{
		producer: producer,
		log:      log,
		now:      time.Now,
	}
}

func (p *kafkaPublisher) Publish(ctx context.Context, eventType string, booking *model.Booking) {
	builder := kafka.NewMessage().
		WithKey(booking.ID).
		WithValue(NewBookingEvent(booking, p.now())).
		WithEventType(eventType).
		WithSchemaVersion(schemaVersion).
		WithSource(source)
	if requestID := middleware.RequestIDFrom(ctx); requestID != "" {
		builder = builder.WithCorrelationID(requestID)
	}

	msg, err := builder.Build()
	if err != nil {
		p.log.Error("Failed to build booking event", "event_type", eventType, "booking_id", booking.ID, "error", err)
		return
	}

	// The request context may already be near its deadline; the event
	// should still go out once the booking is committed.
	pubCtx := context.WithoutCancel(ctx)
	if err := p.producer.Publish(pubCtx, msg); err != nil {
		p.log.Error("Failed to publish booking event",
			"event_type", eventType,
			"booking_id", booking.ID,
			"error_type", kafka.ClassifyError(err),
			"error", err,
		)
		return
	}
	p.log.Debug("Booking event published", "event_type", eventType, "booking_id", booking.ID)
}

type noopPublisher struct{}

// NewNoopPublisher is used when Kafka is disabled.
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(context.Context, string, *model.Booking) {}
