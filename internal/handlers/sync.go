package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tungdibui2609/saritaqr/internal/store"
	"github.com/tungdibui2609/saritaqr/internal/sync"
)

// OrderMovesRequest queues hall moves for every lot on an export order.
type OrderMovesRequest struct {
	Warehouse int    `json:"warehouse"` // 0 = pick automatically
	Operator  string `json:"operator"`
}

// triggerSync replays the pending queue against the central server.
func (r *Router) triggerSync(w http.ResponseWriter, req *http.Request) {
	report, err := r.agent.SyncNow(req.Context())
	if err != nil {
		switch {
		case errors.Is(err, sync.ErrSyncInProgress):
			respondError(w, http.StatusConflict, "Sync already running")
		case errors.Is(err, store.ErrNotAuthenticated), errors.Is(err, store.ErrSessionExpired):
			respondError(w, http.StatusUnauthorized, "Login required before syncing")
		default:
			respondError(w, http.StatusBadGateway, "Sync failed: "+err.Error())
		}
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// triggerDownload refreshes the offline snapshots from the central server.
func (r *Router) triggerDownload(w http.ResponseWriter, req *http.Request) {
	if err := r.agent.DownloadSnapshots(req.Context()); err != nil {
		switch {
		case errors.Is(err, store.ErrNotAuthenticated), errors.Is(err, store.ErrSessionExpired):
			respondError(w, http.StatusUnauthorized, "Login required before downloading")
		default:
			respondError(w, http.StatusBadGateway, "Download failed: "+err.Error())
		}
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "downloaded"})
}

// listOrders returns open export orders, live from the server when it
// answers and from the offline cache when it does not.
func (r *Router) listOrders(w http.ResponseWriter, req *http.Request) {
	orders, live, err := r.agent.Orders(req.Context())
	if err != nil {
		respondError(w, http.StatusBadGateway, "Orders unavailable: "+err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"orders": orders,
		"live":   live,
	})
}

// queueOrderMoves queues a hall move for every lot on one export order.
func (r *Router) queueOrderMoves(w http.ResponseWriter, req *http.Request) {
	orderID := mux.Vars(req)["id"]

	// the body is optional; absent means AUTO warehouse
	var body OrderMovesRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil && err != io.EOF {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	orders, _, err := r.agent.Orders(req.Context())
	if err != nil {
		respondError(w, http.StatusBadGateway, "Orders unavailable: "+err.Error())
		return
	}

	for _, order := range orders {
		if order.ID != orderID {
			continue
		}
		mutations, err := r.agent.QueueOrderMoves(order, body.Warehouse)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondJSON(w, http.StatusCreated, map[string]interface{}{
			"action":    "queued",
			"order":     order.ID,
			"mutations": mutations,
		})
		return
	}
	respondError(w, http.StatusNotFound, "Unknown order")
}
