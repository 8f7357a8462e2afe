package notify

import (
	"context"
	"time"

	"slotbook/pkg/kafka"
	"slotbook/pkg/logger"
	"slotbook/pkg/model"
)

type kafkaNotifier struct {
	producer *kafka.Producer
	log      *logger.Logger
}

func NewKafkaNotifier(producer *kafka.Producer, log *logger.Logger) Notifier {
	return &kafkaNotifier{
		producer: producer,
		log:      log,
	}
}

// AppointmentChanged publishes the event keyed by appointment ID so all
// events for one appointment land in the same partition, in order. Failures
// are logged and swallowed.
func (n *kafkaNotifier) AppointmentChanged(ctx context.Context, eventType string, appt *model.Appointment, actor model.Actor) {
	event := AppointmentEvent{
		AppointmentID: appt.ID,
		EmployeeID:    appt.EmployeeID,
		ServiceID:     appt.ServiceID,
		ClientID:      appt.ClientID,
		GuestEmail:    appt.GuestEmail,
		GuestPhone:    appt.GuestPhone,
		StartTime:     appt.StartTime,
		EndTime:       appt.EndTime,
		Status:        appt.Status,
		ActorID:       actor.ID,
		OccurredAt:    time.Now().UTC(),
	}

	msg := kafka.NewMessage().
		WithKey(appt.ID).
		WithValue(event).
		WithEventType(eventType).
		WithSource("slotbook").
		WithSchemaVersion("1").
		Build()

	if err := n.producer.Publish(ctx, msg); err != nil {
		n.log.Warn("Failed to publish appointment event",
			"event_type", eventType,
			"appointment_id", appt.ID,
			"error", err,
		)
		return
	}

	n.log.Debug("Appointment event published",
		"event_type", eventType,
		"appointment_id", appt.ID,
	)
}
