package societies

import (
	"context"
	"errors"
	"strings"

	"shelter-partner/internal/platform/logger"
	"shelter-partner/internal/ports/docstore"
)

const fieldSocietyID = "societyID"

var (
	ErrLookupNotFound = errors.New("SocietyID not found")
	ErrInvalidInput   = errors.New("invalid input")
)

// LookupError es el error de FetchSocietyID. Err es ErrLookupNotFound o el
// error del store.
type LookupError struct {
	UserID string
	Err    error
}

func (e *LookupError) Error() string {
	if errors.Is(e.Err, ErrLookupNotFound) {
		return ErrLookupNotFound.Error() + "."
	}
	return "society lookup failed: " + e.Err.Error()
}

func (e *LookupError) Unwrap() error { return e.Err }

type Service struct {
	store docstore.Store
	log   logger.Logger
}

func NewService(store docstore.Store, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{store: store, log: log}
}

// FetchSocietyID resuelve la society del usuario (Users/{uid}.societyID). Solo lectura.
func (s *Service) FetchSocietyID(ctx context.Context, userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	path, err := docstore.UserPath(userID)
	if err != nil {
		return "", &LookupError{UserID: userID, Err: ErrLookupNotFound}
	}

	doc, err := s.store.GetDocument(ctx, path)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return "", &LookupError{UserID: userID, Err: ErrLookupNotFound}
		}
		s.log.Error("error fetching user document", map[string]any{"user_id": userID, "err": err})
		return "", &LookupError{UserID: userID, Err: err}
	}

	sid, ok := doc.String(fieldSocietyID)
	if !ok || strings.TrimSpace(sid) == "" {
		return "", &LookupError{UserID: userID, Err: ErrLookupNotFound}
	}
	return sid, nil
}

// AssignSociety vincula al usuario con una society. Crea el perfil si no existe.
func (s *Service) AssignSociety(ctx context.Context, userID, societyID string) error {
	userID = strings.TrimSpace(userID)
	societyID = strings.TrimSpace(societyID)
	if societyID == "" || strings.Contains(societyID, "/") {
		return ErrInvalidInput
	}
	path, err := docstore.UserPath(userID)
	if err != nil {
		return ErrInvalidInput
	}

	fields := map[string]any{fieldSocietyID: societyID}
	err = s.store.UpdateFields(ctx, path, fields)
	if errors.Is(err, docstore.ErrNotFound) {
		err = s.store.SetDocument(ctx, path, fields)
	}
	if err != nil {
		s.log.Error("error assigning society", map[string]any{"user_id": userID, "society_id": societyID, "err": err})
		return err
	}

	s.log.Info("society assigned", map[string]any{"user_id": userID, "society_id": societyID})
	return nil
}
