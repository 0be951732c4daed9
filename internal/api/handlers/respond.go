// Package handlers provides HTTP handlers for the care API.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/carecompanion/go-care/internal/api/middleware"
)

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, message string, code int) {
	writeJSON(w, code, map[string]string{"error": message})
}

// authorizePatient resolves the patient ID from the route and checks the
// caller's care relationship. Missing relationships answer 404.
func authorizePatient(w http.ResponseWriter, r *http.Request, rels RelationshipChecker, logger *zap.Logger) (string, bool) {
	ctx := r.Context()
	caregiverID := middleware.GetUserID(ctx)
	patientID := chi.URLParam(r, "patientID")

	ok, err := rels.HasRelationship(ctx, caregiverID, patientID)
	if err != nil {
		logger.Error("relationship check failed", zap.Error(err))
		jsonError(w, "internal server error", http.StatusInternalServerError)
		return "", false
	}
	if !ok {
		jsonError(w, "patient not found", http.StatusNotFound)
		return "", false
	}
	return patientID, true
}
