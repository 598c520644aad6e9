package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tungdibui2609/saritaqr/internal/buildinfo"
	"github.com/tungdibui2609/saritaqr/internal/events"
	"github.com/tungdibui2609/saritaqr/internal/offline"
	"github.com/tungdibui2609/saritaqr/internal/services/central"
	"github.com/tungdibui2609/saritaqr/internal/store"
	"github.com/tungdibui2609/saritaqr/internal/sync"
	"github.com/tungdibui2609/saritaqr/internal/utils"
)

// Deps is everything the HTTP layer talks to.
type Deps struct {
	Agent   *sync.Service
	Central *central.Client
	Creds   *store.CredentialCache
	KV      store.KV
	Index   *offline.Holder
	Hub     *events.Hub
	Dedup   *utils.Deduplicator
}

// Router wraps the mux router and the agent services
type Router struct {
	*mux.Router
	agent   *sync.Service
	central *central.Client
	creds   *store.CredentialCache
	kv      store.KV
	index   *offline.Holder
	hub     *events.Hub
	dedup   *utils.Deduplicator
}

// NewRouter creates a new HTTP router with all routes
func NewRouter(deps Deps) *Router {
	r := &Router{
		Router:  mux.NewRouter(),
		agent:   deps.Agent,
		central: deps.Central,
		creds:   deps.Creds,
		kv:      deps.KV,
		index:   deps.Index,
		hub:     deps.Hub,
		dedup:   deps.Dedup,
	}

	// Health check endpoint
	r.HandleFunc("/health", r.healthCheck).Methods("GET")

	// API routes
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/status", r.getStatus).Methods("GET")

	// Session
	api.HandleFunc("/login", r.login).Methods("POST")
	api.HandleFunc("/logout", r.logout).Methods("POST")

	// Scanner entry
	api.HandleFunc("/scan", r.handleScan).Methods("POST")

	// Queue
	api.HandleFunc("/assignments", r.queueAssignment).Methods("POST")
	api.HandleFunc("/assign", r.handleAssign).Methods("POST")
	api.HandleFunc("/moves", r.queueMove).Methods("POST")
	api.HandleFunc("/pending", r.listPending).Methods("GET")
	api.HandleFunc("/pending/{id}", r.cancelPending).Methods("DELETE")
	api.HandleFunc("/hall-slots", r.hallSlots).Methods("GET")

	// Server exchange
	api.HandleFunc("/sync", r.triggerSync).Methods("POST")
	api.HandleFunc("/download", r.triggerDownload).Methods("POST")
	api.HandleFunc("/orders", r.listOrders).Methods("GET")
	api.HandleFunc("/orders/{id}/moves", r.queueOrderMoves).Methods("POST")

	// Offline lookups
	api.HandleFunc("/lookup/{lot}", r.lookupLot).Methods("GET")
	api.HandleFunc("/position", r.positionDetail).Methods("GET")

	// UI preferences
	api.HandleFunc("/prefs/colors", r.getColorPrefs).Methods("GET")
	api.HandleFunc("/prefs/colors", r.putColorPrefs).Methods("PUT")

	// Label printing
	api.HandleFunc("/labels", r.printLabels).Methods("POST")

	// Event stream
	if r.hub != nil {
		r.HandleFunc("/ws", func(w http.ResponseWriter, req *http.Request) {
			events.ServeWS(r.hub, w, req)
		})
	}

	return r
}

// healthCheck returns the health status of the agent
func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"server":  "agent",
		"commit":  buildinfo.CommitHash,
		"started": buildinfo.StartTime,
	})
}

// getStatus returns queue and sync state for the UI status bar
func (r *Router) getStatus(w http.ResponseWriter, req *http.Request) {
	status := r.agent.Status()

	authenticated := false
	if r.creds != nil {
		if _, err := r.creds.Token(); err == nil {
			authenticated = true
		}
	}
	status["authenticated"] = authenticated

	if r.hub != nil {
		status["ui_clients"] = r.hub.Clients()
	}

	respondJSON(w, http.StatusOK, status)
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
