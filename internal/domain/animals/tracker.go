package animals

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"shelter-partner/internal/platform/logger"
	"shelter-partner/internal/ports/docstore"
)

const DefaultMinimumDuration = 5 * time.Minute

// Config reemplaza la configuración global de la app (minimumDuration).
// MinimumDuration <= 0 usa DefaultMinimumDuration; para desactivar el umbral
// usar WithMinimumDuration(0).
type Config struct {
	MinimumDuration time.Duration
}

func DefaultConfig() Config {
	return Config{MinimumDuration: DefaultMinimumDuration}
}

type Option func(*Tracker)

func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithMinimumDuration fija el umbral tal cual, 0 incluido (todas las visitas se registran).
func WithMinimumDuration(d time.Duration) Option {
	return func(t *Tracker) {
		if d >= 0 {
			t.cfg.MinimumDuration = d
		}
	}
}

func WithLogger(l logger.Logger) Option {
	return func(t *Tracker) { t.log = l }
}

func WithNotifier(n Notifier) Option {
	return func(t *Tracker) { t.notifier = n }
}

func WithTracer(tr trace.Tracer) Option {
	return func(t *Tracker) { t.tracer = tr }
}

// Tracker maneja la transición en jaula / fuera de jaula y el log de visitas.
type Tracker struct {
	store    docstore.Store
	cfg      Config
	now      func() time.Time
	newID    func() string
	log      logger.Logger
	notifier Notifier
	tracer   trace.Tracer
}

func NewTracker(store docstore.Store, cfg Config, opts ...Option) *Tracker {
	if cfg.MinimumDuration <= 0 {
		cfg.MinimumDuration = DefaultMinimumDuration
	}
	t := &Tracker{
		store:    store,
		cfg:      cfg,
		now:      time.Now,
		newID:    uuid.NewString,
		log:      logger.Nop(),
		notifier: nopNotifier{},
		tracer:   otel.Tracer("shelter-partner/animals"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tracker) MinimumDuration() time.Duration {
	return t.cfg.MinimumDuration
}

// CheckOut marca el animal fuera de la jaula y arranca el cronómetro.
// No valida el estado actual: un segundo CheckOut reinicia startTime.
func (t *Tracker) CheckOut(ctx context.Context, societyID string, a Animal) (Animal, error) {
	ctx, span := t.start(ctx, "animals.CheckOut", societyID, a)
	defer span.End()

	path, err := animalPath(societyID, a.Type, a.ID)
	if err != nil {
		return Animal{}, err
	}
	log := t.log.With(logFields(societyID, a))

	if !ValidTransition(ActionCheckOut, a.InCage) {
		log.Warn("check out of an animal already out of its cage", nil)
	}

	start := toEpoch(t.now())
	err = t.store.UpdateFields(ctx, path, map[string]any{
		fieldStartTime: start,
		fieldInCage:    false,
	})
	if err != nil {
		return Animal{}, t.writeFailed(span, log, "check out", err)
	}

	a.InCage = false
	a.StartTime = start
	log.Info("animal checked out", map[string]any{"start_time": start})
	return a, nil
}

// CheckIn devuelve el animal a la jaula. El flag se escribe primero; solo si
// quedó confirmado se mide la duración y, si alcanza el mínimo, se crea el log.
// La escritura es condicional a inCage == false, así un segundo CheckIn
// no vuelve a crear una visita.
func (t *Tracker) CheckIn(ctx context.Context, societyID string, a Animal) (CheckInResult, error) {
	ctx, span := t.start(ctx, "animals.CheckIn", societyID, a)
	defer span.End()

	path, err := animalPath(societyID, a.Type, a.ID)
	if err != nil {
		return CheckInResult{Outcome: OutcomeFailed, Reason: err.Error()}, err
	}
	log := t.log.With(logFields(societyID, a))

	err = t.store.UpdateFieldsIf(ctx, path,
		map[string]any{fieldInCage: false},
		map[string]any{fieldInCage: true},
	)
	if errors.Is(err, docstore.ErrPreconditionFailed) {
		log.Info("check in skipped, animal already in cage", nil)
		span.SetAttributes(attribute.String("outcome", string(OutcomeAlreadyInCage)))
		return CheckInResult{Outcome: OutcomeAlreadyInCage, InCage: true}, nil
	}
	if err != nil {
		err = t.writeFailed(span, log, "check in", err)
		res := CheckInResult{Outcome: OutcomeFailed, Reason: err.Error()}
		t.notify(ctx, log, societyID, a, res)
		return res, err
	}

	elapsed := t.now().Sub(fromEpoch(a.StartTime))
	res := CheckInResult{Elapsed: elapsed, InCage: true}

	if wholeMinutes(elapsed) >= wholeMinutes(t.cfg.MinimumDuration) {
		v, err := t.CreateLog(ctx, societyID, a)
		if err != nil {
			res.Outcome = OutcomeFailed
			res.Reason = err.Error()
			t.notify(ctx, log, societyID, a, res)
			return res, err
		}
		res.Outcome = OutcomeLoggedVisit
		res.Visit = &v
	} else {
		res.Outcome = OutcomeVisitTooShort
	}

	span.SetAttributes(attribute.String("outcome", string(res.Outcome)))
	log.Info("animal checked in", map[string]any{
		"outcome":         res.Outcome,
		"elapsed_minutes": wholeMinutes(elapsed),
	})
	t.notify(ctx, log, societyID, a, res)
	return res, nil
}

// SilentCheckIn devuelve el animal a la jaula sin medir duración, sin log
// y sin notificar (p.ej. corregir un check-out por error).
func (t *Tracker) SilentCheckIn(ctx context.Context, societyID string, a Animal) (Animal, error) {
	ctx, span := t.start(ctx, "animals.SilentCheckIn", societyID, a)
	defer span.End()

	path, err := animalPath(societyID, a.Type, a.ID)
	if err != nil {
		return Animal{}, err
	}
	log := t.log.With(logFields(societyID, a))

	if !ValidTransition(ActionSilentCheckIn, a.InCage) {
		log.Debug("silent check in of an animal already in its cage", nil)
	}

	if err := t.store.UpdateFields(ctx, path, map[string]any{fieldInCage: true}); err != nil {
		return Animal{}, t.writeFailed(span, log, "silent check in", err)
	}

	a.InCage = true
	log.Info("animal silently checked in", nil)
	return a, nil
}

// CreateLog relee el documento para usar el startTime guardado (no el del
// caller, que puede estar viejo) y agrega la visita a logs con unión atómica.
func (t *Tracker) CreateLog(ctx context.Context, societyID string, a Animal) (Visit, error) {
	ctx, span := t.start(ctx, "animals.CreateLog", societyID, a)
	defer span.End()

	path, err := animalPath(societyID, a.Type, a.ID)
	if err != nil {
		return Visit{}, err
	}
	log := t.log.With(logFields(societyID, a))

	doc, err := t.store.GetDocument(ctx, path)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			log.Error("create log aborted, document missing", nil)
			span.SetStatus(codes.Error, ErrDocumentMissing.Error())
			return Visit{}, ErrDocumentMissing
		}
		log.Error("create log aborted, fetch failed", map[string]any{"err": err})
		span.RecordError(err)
		return Visit{}, fmt.Errorf("%w: %w", ErrStoreRead, err)
	}

	start, ok := doc.Float(fieldStartTime)
	if !ok {
		log.Error("create log aborted, startTime not found in document", nil)
		span.SetStatus(codes.Error, ErrDocumentMissing.Error())
		return Visit{}, ErrDocumentMissing
	}

	end := toEpoch(t.now())
	if end < start {
		end = start
	}
	v := Visit{
		ID:        t.newID(),
		StartTime: start,
		EndTime:   end,
	}

	if err := t.store.AppendToArrayField(ctx, path, fieldLogs, v.toMap()); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			log.Error("create log aborted, document deleted before append", nil)
			return Visit{}, ErrDocumentMissing
		}
		return Visit{}, t.writeFailed(span, log, "create log", err)
	}

	log.Info("visit logged", map[string]any{
		"visit_id":         v.ID,
		"duration_minutes": wholeMinutes(v.Duration()),
	})
	return v, nil
}

type RegisterInput struct {
	ID   string // opcional; si viene vacío se genera
	Name string
	Type AnimalType
}

// Register crea el documento del animal, en jaula y sin visitas.
func (t *Tracker) Register(ctx context.Context, societyID string, in RegisterInput) (Animal, error) {
	typ, err := ParseAnimalType(string(in.Type))
	if err != nil {
		return Animal{}, err
	}
	a := Animal{
		ID:     strings.TrimSpace(in.ID),
		Name:   strings.TrimSpace(in.Name),
		Type:   typ,
		InCage: true,
	}
	if a.ID == "" {
		a.ID = t.newID()
	}
	if a.Name == "" {
		return Animal{}, ErrInvalidInput
	}

	ctx, span := t.start(ctx, "animals.Register", societyID, a)
	defer span.End()

	path, err := animalPath(societyID, a.Type, a.ID)
	if err != nil {
		return Animal{}, err
	}

	_, err = t.store.GetDocument(ctx, path)
	switch {
	case err == nil:
		return Animal{}, ErrAlreadyExists
	case !errors.Is(err, docstore.ErrNotFound):
		return Animal{}, fmt.Errorf("%w: %w", ErrStoreRead, err)
	}

	err = t.store.SetDocument(ctx, path, map[string]any{
		fieldID:     a.ID,
		fieldName:   a.Name,
		fieldType:   string(a.Type),
		fieldInCage: true,
		fieldLogs:   []any{},
	})
	if err != nil {
		return Animal{}, t.writeFailed(span, t.log.With(logFields(societyID, a)), "register", err)
	}
	return a, nil
}

func (t *Tracker) Get(ctx context.Context, societyID string, typ AnimalType, id string) (Animal, error) {
	path, err := animalPath(societyID, typ, id)
	if err != nil {
		return Animal{}, err
	}
	doc, err := t.store.GetDocument(ctx, path)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return Animal{}, ErrNotFound
		}
		return Animal{}, fmt.Errorf("%w: %w", ErrStoreRead, err)
	}
	return animalFromDocument(doc, typ), nil
}

func (t *Tracker) List(ctx context.Context, societyID string, typ AnimalType) ([]Animal, error) {
	typ, err := ParseAnimalType(string(typ))
	if err != nil {
		return nil, err
	}
	col, err := docstore.SocietyAnimalsPath(strings.TrimSpace(societyID), string(typ))
	if err != nil {
		return nil, ErrInvalidInput
	}
	docs, err := t.store.ListDocuments(ctx, col)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreRead, err)
	}
	out := make([]Animal, 0, len(docs))
	for _, d := range docs {
		out = append(out, animalFromDocument(d, typ))
	}
	return out, nil
}

func (t *Tracker) Visits(ctx context.Context, societyID string, typ AnimalType, id string) ([]Visit, error) {
	a, err := t.Get(ctx, societyID, typ, id)
	if err != nil {
		return nil, err
	}
	if a.Logs == nil {
		return []Visit{}, nil
	}
	return a.Logs, nil
}

func (t *Tracker) notify(ctx context.Context, log logger.Logger, societyID string, a Animal, res CheckInResult) {
	err := t.notifier.Notify(ctx, Event{
		Outcome:    res.Outcome,
		SocietyID:  societyID,
		AnimalType: a.Type,
		AnimalID:   a.ID,
		Visit:      res.Visit,
		Reason:     res.Reason,
		OccurredAt: t.now(),
	})
	if err != nil {
		log.Warn("notify failed", map[string]any{"err": err, "outcome": res.Outcome})
	}
}

// writeFailed registra el fallo y lo traduce a errores del dominio. Sin reintentos.
func (t *Tracker) writeFailed(span trace.Span, log logger.Logger, op string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, op+" failed")
	if errors.Is(err, docstore.ErrNotFound) {
		log.Error("error updating document", map[string]any{"op": op, "err": err})
		return ErrNotFound
	}
	log.Error("error updating document", map[string]any{"op": op, "err": err})
	return fmt.Errorf("%w: %w", ErrStoreWrite, err)
}

func (t *Tracker) start(ctx context.Context, name, societyID string, a Animal) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("society.id", societyID),
		attribute.String("animal.type", string(a.Type)),
		attribute.String("animal.id", a.ID),
	))
}

func animalPath(societyID string, typ AnimalType, id string) (string, error) {
	typ, err := ParseAnimalType(string(typ))
	if err != nil {
		return "", err
	}
	p, err := docstore.AnimalPath(strings.TrimSpace(societyID), string(typ), strings.TrimSpace(id))
	if err != nil {
		return "", ErrInvalidInput
	}
	return p, nil
}

func logFields(societyID string, a Animal) map[string]any {
	return map[string]any{
		"society_id":  societyID,
		"animal_type": a.Type,
		"animal_id":   a.ID,
	}
}

// wholeMinutes trunca hacia cero, como un diff de calendario en minutos.
func wholeMinutes(d time.Duration) int64 {
	return int64(d / time.Minute)
}
