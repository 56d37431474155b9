package animals

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"shelter-partner/internal/domain/societies"
	"shelter-partner/internal/middleware"
)

var validate = validator.New()

func RegisterRoutes(r chi.Router, tracker *Tracker, societySvc *societies.Service) {
	r.Route("/animals", func(ar chi.Router) {
		ar.Post("/", registerAnimalHandler(tracker, societySvc))
		ar.Get("/", listAnimalsHandler(tracker, societySvc))

		ar.Route("/{animalType}/{animalID}", func(one chi.Router) {
			one.Get("/", getAnimalHandler(tracker, societySvc))
			one.Post("/checkout", checkOutHandler(tracker, societySvc))
			one.Post("/checkin", checkInHandler(tracker, societySvc))

			one.Get("/logs", listVisitsHandler(tracker, societySvc))
			one.Post("/logs", createLogHandler(tracker, societySvc))
		})
	})
}

type registerAnimalRequest struct {
	ID         string `json:"id" validate:"omitempty,excludesall=/"`
	Name       string `json:"name" validate:"required"`
	AnimalType string `json:"animal_type" validate:"required,oneof=dog cat"`
}

type checkInRequest struct {
	Silent bool `json:"silent"`
}

type visitResponse struct {
	ID              string  `json:"id"`
	StartTime       float64 `json:"start_time"`
	EndTime         float64 `json:"end_time"`
	DurationMinutes int64   `json:"duration_minutes"`
}

type animalResponse struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	AnimalType AnimalType      `json:"animal_type"`
	InCage     bool            `json:"in_cage"`
	StartTime  *float64        `json:"start_time,omitempty"` // solo fuera de jaula
	Logs       []visitResponse `json:"logs"`
}

type checkInResponse struct {
	Outcome        Outcome        `json:"outcome"`
	Visit          *visitResponse `json:"visit,omitempty"`
	Reason         string         `json:"reason,omitempty"` // solo con outcome failed
	ElapsedMinutes int64          `json:"elapsed_minutes"`
	Animal         animalResponse `json:"animal"`
}

// registerAnimalHandler godoc
// @Summary Registrar animal
// @Description Crea un animal en la society del usuario. Queda en jaula y sin visitas. Autenticación: `X-Debug-User-ID` (dev) o `Authorization: Bearer <token>` (prod).
// @Tags animals
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param payload body registerAnimalRequest true "Datos del animal; animal_type dog|cat"
// @Success 201 {object} animalResponse
// @Failure 400 {string} string "invalid json / datos inválidos"
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "SocietyID not found."
// @Failure 409 {string} string "animal already exists"
// @Router /animals [post]
func registerAnimalHandler(tracker *Tracker, societySvc *societies.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid, ok := currentSociety(w, r, societySvc)
		if !ok {
			return
		}

		var req registerAnimalRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		req.AnimalType = strings.ToLower(strings.TrimSpace(req.AnimalType))
		if err := validate.Struct(req); err != nil {
			http.Error(w, "name and animal_type (dog|cat) are required", http.StatusBadRequest)
			return
		}

		a, err := tracker.Register(r.Context(), sid, RegisterInput{
			ID:   req.ID,
			Name: req.Name,
			Type: AnimalType(req.AnimalType),
		})
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAnimalResponse(a))
	}
}

// listAnimalsHandler godoc
// @Summary Listar animales
// @Description Lista los animales de un tipo en la society del usuario.
// @Tags animals
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param type query string true "Tipo de animal (dog|cat)"
// @Success 200 {array} animalResponse
// @Failure 400 {string} string "type inválido"
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "SocietyID not found."
// @Router /animals [get]
func listAnimalsHandler(tracker *Tracker, societySvc *societies.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid, ok := currentSociety(w, r, societySvc)
		if !ok {
			return
		}

		items, err := tracker.List(r.Context(), sid, AnimalType(r.URL.Query().Get("type")))
		if err != nil {
			writeError(w, err)
			return
		}

		out := make([]animalResponse, 0, len(items))
		for _, a := range items {
			out = append(out, toAnimalResponse(a))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// getAnimalHandler godoc
// @Summary Obtener animal
// @Tags animals
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param animalType path string true "Tipo de animal (dog|cat)"
// @Param animalID path string true "ID del animal"
// @Success 200 {object} animalResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "animal not found"
// @Router /animals/{animalType}/{animalID} [get]
func getAnimalHandler(tracker *Tracker, societySvc *societies.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid, ok := currentSociety(w, r, societySvc)
		if !ok {
			return
		}

		a, err := tracker.Get(r.Context(), sid, AnimalType(chi.URLParam(r, "animalType")), chi.URLParam(r, "animalID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAnimalResponse(a))
	}
}

// checkOutHandler godoc
// @Summary Sacar animal de la jaula
// @Description Marca el animal fuera de la jaula y guarda la hora de salida. No valida el estado previo: un segundo check-out reinicia el cronómetro.
// @Tags animals
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param animalType path string true "Tipo de animal (dog|cat)"
// @Param animalID path string true "ID del animal"
// @Success 200 {object} animalResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "animal not found"
// @Failure 502 {string} string "store write failed"
// @Router /animals/{animalType}/{animalID}/checkout [post]
func checkOutHandler(tracker *Tracker, societySvc *societies.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid, ok := currentSociety(w, r, societySvc)
		if !ok {
			return
		}

		current, err := tracker.Get(r.Context(), sid, AnimalType(chi.URLParam(r, "animalType")), chi.URLParam(r, "animalID"))
		if err != nil {
			writeError(w, err)
			return
		}

		a, err := tracker.CheckOut(r.Context(), sid, current)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAnimalResponse(a))
	}
}

// checkInHandler godoc
// @Summary Devolver animal a la jaula
// @Description Devuelve el animal a la jaula. Si la visita alcanzó la duración mínima se registra en logs. Con `{"silent":true}` no se mide ni se registra nada. Si la vuelta a la jaula se guardó pero el log de la visita falló, responde 200 con `outcome: failed`, `reason` y el animal ya en jaula; 404/502 significan que el animal sigue fuera.
// @Tags animals
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param animalType path string true "Tipo de animal (dog|cat)"
// @Param animalID path string true "ID del animal"
// @Param payload body checkInRequest false "silent=true para un check-in sin log"
// @Success 200 {object} checkInResponse
// @Failure 400 {string} string "invalid json"
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "animal not found (sigue fuera de la jaula)"
// @Failure 502 {string} string "store write failed (sigue fuera de la jaula)"
// @Router /animals/{animalType}/{animalID}/checkin [post]
func checkInHandler(tracker *Tracker, societySvc *societies.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid, ok := currentSociety(w, r, societySvc)
		if !ok {
			return
		}

		// body opcional
		var req checkInRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		current, err := tracker.Get(r.Context(), sid, AnimalType(chi.URLParam(r, "animalType")), chi.URLParam(r, "animalID"))
		if err != nil {
			writeError(w, err)
			return
		}

		if req.Silent {
			a, err := tracker.SilentCheckIn(r.Context(), sid, current)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, checkInResponse{Outcome: OutcomeSilent, Animal: toAnimalResponse(a)})
			return
		}

		res, err := tracker.CheckIn(r.Context(), sid, current)
		if err != nil && !res.InCage {
			writeError(w, err)
			return
		}

		// estado final tal como quedó guardado
		after, err := tracker.Get(r.Context(), sid, current.Type, current.ID)
		if err != nil {
			writeError(w, err)
			return
		}

		// con err != nil el animal ya está en jaula pero la visita no se registró
		out := checkInResponse{
			Outcome:        res.Outcome,
			Reason:         res.Reason,
			ElapsedMinutes: wholeMinutes(res.Elapsed),
			Animal:         toAnimalResponse(after),
		}
		if res.Visit != nil {
			v := toVisitResponse(*res.Visit)
			out.Visit = &v
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// listVisitsHandler godoc
// @Summary Listar visitas
// @Description Devuelve las visitas registradas del animal, en orden de creación.
// @Tags animals
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param animalType path string true "Tipo de animal (dog|cat)"
// @Param animalID path string true "ID del animal"
// @Success 200 {array} visitResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "animal not found"
// @Router /animals/{animalType}/{animalID}/logs [get]
func listVisitsHandler(tracker *Tracker, societySvc *societies.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid, ok := currentSociety(w, r, societySvc)
		if !ok {
			return
		}

		visits, err := tracker.Visits(r.Context(), sid, AnimalType(chi.URLParam(r, "animalType")), chi.URLParam(r, "animalID"))
		if err != nil {
			writeError(w, err)
			return
		}

		out := make([]visitResponse, 0, len(visits))
		for _, v := range visits {
			out = append(out, toVisitResponse(v))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// createLogHandler godoc
// @Summary Registrar visita manualmente
// @Description Agrega una visita desde el startTime guardado hasta ahora, sin pasar por el check-in.
// @Tags animals
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param animalType path string true "Tipo de animal (dog|cat)"
// @Param animalID path string true "ID del animal"
// @Success 201 {object} visitResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "animal not found / document missing"
// @Failure 502 {string} string "store write failed"
// @Router /animals/{animalType}/{animalID}/logs [post]
func createLogHandler(tracker *Tracker, societySvc *societies.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid, ok := currentSociety(w, r, societySvc)
		if !ok {
			return
		}

		a := Animal{
			ID:   chi.URLParam(r, "animalID"),
			Type: AnimalType(chi.URLParam(r, "animalType")),
		}
		v, err := tracker.CreateLog(r.Context(), sid, a)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toVisitResponse(v))
	}
}

// currentSociety exige usuario autenticado y resuelve su society.
// Si falla ya escribió la respuesta.
func currentSociety(w http.ResponseWriter, r *http.Request, societySvc *societies.Service) (string, bool) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return "", false
	}

	sid, err := societySvc.FetchSocietyID(r.Context(), claims.UserID)
	if err != nil {
		societies.WriteLookupError(w, err)
		return "", false
	}
	return sid, true
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "animal not found", http.StatusNotFound)
	case errors.Is(err, ErrDocumentMissing):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrAlreadyExists):
		http.Error(w, "animal already exists", http.StatusConflict)
	case errors.Is(err, ErrStoreWrite):
		http.Error(w, "store write failed", http.StatusBadGateway)
	default:
		http.Error(w, "store unavailable", http.StatusBadGateway)
	}
}

func toVisitResponse(v Visit) visitResponse {
	return visitResponse{
		ID:              v.ID,
		StartTime:       v.StartTime,
		EndTime:         v.EndTime,
		DurationMinutes: int64(v.Duration() / time.Minute),
	}
}

func toAnimalResponse(a Animal) animalResponse {
	out := animalResponse{
		ID:         a.ID,
		Name:       a.Name,
		AnimalType: a.Type,
		InCage:     a.InCage,
		Logs:       make([]visitResponse, 0, len(a.Logs)),
	}
	if !a.InCage {
		st := a.StartTime
		out.StartTime = &st
	}
	for _, v := range a.Logs {
		out.Logs = append(out.Logs, toVisitResponse(v))
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
