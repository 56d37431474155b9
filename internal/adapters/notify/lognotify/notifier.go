package lognotify

import (
	"context"

	"shelter-partner/internal/domain/animals"
	"shelter-partner/internal/platform/logger"
)

// Notifier escribe cada resultado de check-in como una línea de log.
// Se usa cuando no hay RABBITMQ_URL.
type Notifier struct {
	log logger.Logger
}

func New(log logger.Logger) *Notifier {
	if log == nil {
		log = logger.Nop()
	}
	return &Notifier{log: log}
}

func (n *Notifier) Notify(_ context.Context, e animals.Event) error {
	fields := map[string]any{
		"outcome":     e.Outcome,
		"society_id":  e.SocietyID,
		"animal_type": e.AnimalType,
		"animal_id":   e.AnimalID,
	}
	if e.Visit != nil {
		fields["visit_id"] = e.Visit.ID
		fields["duration_minutes"] = int64(e.Visit.Duration().Minutes())
	}

	switch e.Outcome {
	case animals.OutcomeFailed:
		fields["reason"] = e.Reason
		n.log.Error("check in failed", fields)
	case animals.OutcomeVisitTooShort:
		n.log.Info("visit too short, not logged", fields)
	default:
		n.log.Info("check in completed", fields)
	}
	return nil
}
