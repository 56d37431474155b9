package animals

import (
	"context"
	"time"
)

// Outcome es el resultado observable de un check-in.
type Outcome string

const (
	OutcomeLoggedVisit   Outcome = "logged_visit"
	OutcomeVisitTooShort Outcome = "visit_too_short"
	OutcomeAlreadyInCage Outcome = "already_in_cage"
	OutcomeFailed        Outcome = "failed"

	// OutcomeSilent solo aparece en la respuesta HTTP de un check-in silencioso.
	OutcomeSilent Outcome = "silent"
)

type CheckInResult struct {
	Outcome Outcome
	Visit   *Visit
	Elapsed time.Duration
	Reason  string // solo con OutcomeFailed

	// InCage: el flag inCage=true quedó guardado. Con OutcomeFailed indica
	// que falló el log de la visita, no la vuelta a la jaula.
	InCage bool
}

// Event se publica al Notifier después de cada check-in (no silencioso).
type Event struct {
	Outcome    Outcome
	SocietyID  string
	AnimalType AnimalType
	AnimalID   string
	Visit      *Visit
	Reason     string
	OccurredAt time.Time
}

// Notifier desacopla el dominio de quien consume los resultados (UI, colas...).
type Notifier interface {
	Notify(ctx context.Context, e Event) error
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, Event) error { return nil }
