package societies

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"shelter-partner/internal/middleware"
)

var validate = validator.New()

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Get("/me/society", getMySocietyHandler(svc))
	r.Put("/me/society", assignMySocietyHandler(svc))
}

type assignSocietyRequest struct {
	SocietyID string `json:"society_id" validate:"required,excludesall=/"`
}

type societyResponse struct {
	UserID    string `json:"user_id"`
	SocietyID string `json:"society_id"`
}

// getMySocietyHandler godoc
// @Summary Obtener la society del usuario
// @Description Devuelve la society (refugio) a la que pertenece el usuario autenticado. Autenticación: `X-Debug-User-ID` (dev) o `Authorization: Bearer <token>` (prod).
// @Tags societies
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Success 200 {object} societyResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "SocietyID not found."
// @Failure 502 {string} string "store unavailable"
// @Router /me/society [get]
func getMySocietyHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		sid, err := svc.FetchSocietyID(r.Context(), claims.UserID)
		if err != nil {
			WriteLookupError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, societyResponse{UserID: claims.UserID, SocietyID: sid})
	}
}

// assignMySocietyHandler godoc
// @Summary Asignar society al usuario
// @Description Vincula al usuario autenticado con una society. Crea el perfil si no existe.
// @Tags societies
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param payload body assignSocietyRequest true "Society a asignar"
// @Success 200 {object} societyResponse
// @Failure 400 {string} string "invalid json / society_id inválido"
// @Failure 401 {string} string "unauthorized"
// @Failure 502 {string} string "store unavailable"
// @Router /me/society [put]
func assignMySocietyHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req assignSocietyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		req.SocietyID = strings.TrimSpace(req.SocietyID)
		if err := validate.Struct(req); err != nil {
			http.Error(w, "society_id is required", http.StatusBadRequest)
			return
		}

		if err := svc.AssignSociety(r.Context(), claims.UserID, req.SocietyID); err != nil {
			if errors.Is(err, ErrInvalidInput) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, "store unavailable", http.StatusBadGateway)
			return
		}

		writeJSON(w, http.StatusOK, societyResponse{UserID: claims.UserID, SocietyID: req.SocietyID})
	}
}

// WriteLookupError traduce un error de FetchSocietyID a HTTP.
func WriteLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrLookupNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	http.Error(w, "store unavailable", http.StatusBadGateway)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
