package handlers

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
)

// lookupLot answers "where is this lot and what is in it" from the offline
// index. Works with no network at all.
func (r *Router) lookupLot(w http.ResponseWriter, req *http.Request) {
	lot := strings.ToUpper(strings.TrimSpace(mux.Vars(req)["lot"]))
	if lot == "" {
		respondError(w, http.StatusBadRequest, "Lot code is required")
		return
	}

	detail := r.index.Get().Lookup(lot)
	if detail == nil {
		respondError(w, http.StatusNotFound, "Lot not found in the offline index")
		return
	}
	respondJSON(w, http.StatusOK, detail)
}

// positionDetail answers "what sits in this slot" from the offline index.
func (r *Router) positionDetail(w http.ResponseWriter, req *http.Request) {
	code := strings.ToUpper(strings.TrimSpace(req.URL.Query().Get("code")))
	if code == "" {
		respondError(w, http.StatusBadRequest, "code query parameter is required")
		return
	}

	detail := r.index.Get().ResolvePosition(code)
	if detail == nil {
		respondError(w, http.StatusNotFound, "Position is empty or unknown")
		return
	}
	respondJSON(w, http.StatusOK, detail)
}
