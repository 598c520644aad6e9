package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/tungdibui2609/saritaqr/internal/models"
)

// getColorPrefs returns the UI colour document exactly as it was stored, or
// an empty object when nothing was saved yet.
func (r *Router) getColorPrefs(w http.ResponseWriter, req *http.Request) {
	var prefs json.RawMessage
	found, err := r.kv.Get(models.CacheKeyColorPrefs, &prefs)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !found {
		prefs = json.RawMessage(`{}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(prefs)
}

// putColorPrefs stores the posted document untouched. The agent never looks
// inside it, the scanner UI owns the schema.
func (r *Router) putColorPrefs(w http.ResponseWriter, req *http.Request) {
	body, err := io.ReadAll(req.Body)
	if err != nil || !json.Valid(body) {
		respondError(w, http.StatusBadRequest, "Body must be a JSON document")
		return
	}

	if err := r.kv.Put(models.CacheKeyColorPrefs, json.RawMessage(body)); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}
