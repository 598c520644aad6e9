package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/tungdibui2609/saritaqr/internal/location"
	"github.com/tungdibui2609/saritaqr/internal/models"
	"github.com/tungdibui2609/saritaqr/internal/sync"
)

// ScanRequest carries one raw barcode from the scanner.
type ScanRequest struct {
	Code string `json:"code"`
}

// AssignmentRequest is one captured lot-to-slot assignment.
type AssignmentRequest struct {
	LotCode     string  `json:"lotCode"`
	Position    string  `json:"position"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit"`
	WorkOrderID string  `json:"workOrderId"`
	Operator    string  `json:"operator"`
}

// AutoAssignRequest asks the agent to pick the slot itself.
type AutoAssignRequest struct {
	LotCode     string  `json:"lotCode"`
	Warehouse   int     `json:"warehouse"`
	Zone        string  `json:"zone"`
	Row         int     `json:"row"`
	Level       int     `json:"level"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit"`
	WorkOrderID string  `json:"workOrderId"`
	Operator    string  `json:"operator"`
}

// MoveRequest queues a move into a staging hall.
type MoveRequest struct {
	LotCode     string `json:"lotCode"`
	FromPos     string `json:"fromPos"`
	Warehouse   int    `json:"warehouse"` // 0 = pick automatically
	WorkOrderID string `json:"workOrderId"`
	Operator    string `json:"operator"`
}

// handleScan classifies one raw barcode. A code that parses as a storage
// location answers with the slot and whatever the offline index has at it;
// anything else is treated as a lot code and looked up the same way.
// Double-fired scanner triggers are answered as duplicates.
func (r *Router) handleScan(w http.ResponseWriter, req *http.Request) {
	var body ScanRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	code := strings.ToUpper(strings.TrimSpace(body.Code))
	if code == "" {
		respondError(w, http.StatusBadRequest, "A scanned code is required")
		return
	}

	if r.dedup != nil && r.dedup.Seen(code) {
		respondJSON(w, http.StatusOK, map[string]string{"action": "duplicate"})
		return
	}

	if slot := location.Decode(code); slot != nil {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"type":      "location",
			"position":  slot.Code(),
			"warehouse": slot.Warehouse,
			"zone":      string(slot.Zone),
			"hall":      slot.IsHall(),
			"detail":    r.index.Get().DetailAt(*slot),
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"type":    "lot",
		"lotCode": code,
		"detail":  r.index.Get().Lookup(code),
	})
}

// queueAssignment queues a captured assignment with the position already
// known. Double submits inside the dedup window are not queued twice.
func (r *Router) queueAssignment(w http.ResponseWriter, req *http.Request) {
	var body AssignmentRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if r.dedup != nil && r.dedup.Seen(body.LotCode+"|"+body.Position) {
		respondJSON(w, http.StatusOK, map[string]string{"action": "duplicate"})
		return
	}

	m, err := r.agent.QueueScanAssign(body.LotCode, body.Position, body.Quantity, body.Unit, body.WorkOrderID, body.Operator)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"action":   "queued",
		"mutation": m,
	})
}

// handleAssign picks the next free pallet slot at a shelf coordinate and
// queues the assignment in one step.
func (r *Router) handleAssign(w http.ResponseWriter, req *http.Request) {
	var body AutoAssignRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	dedupKey := fmt.Sprintf("%s|%d-%s-%d-%d", body.LotCode, body.Warehouse, body.Zone, body.Row, body.Level)
	if r.dedup != nil && r.dedup.Seen(dedupKey) {
		respondJSON(w, http.StatusOK, map[string]string{"action": "duplicate"})
		return
	}

	m, err := r.agent.AssignNextSlot(sync.AssignRequest{
		LotCode:     body.LotCode,
		Warehouse:   body.Warehouse,
		Zone:        location.Zone(body.Zone),
		Row:         body.Row,
		Level:       body.Level,
		Quantity:    body.Quantity,
		Unit:        body.Unit,
		WorkOrderID: body.WorkOrderID,
		Actor:       body.Operator,
	})
	if err != nil {
		if errors.Is(err, sync.ErrLocationFull) {
			respondError(w, http.StatusConflict, "No free slot at this location")
			return
		}
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"action":   "queued",
		"position": m.ToPos,
		"mutation": m,
	})
}

// queueMove queues a hall move. The destination slot stays open until sync.
func (r *Router) queueMove(w http.ResponseWriter, req *http.Request) {
	var body MoveRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	m, err := r.agent.QueueHallMove(body.LotCode, body.FromPos, body.Warehouse, body.WorkOrderID, body.Operator)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"action":   "queued",
		"mutation": m,
	})
}

// listPending returns the queue in replay order
func (r *Router) listPending(w http.ResponseWriter, req *http.Request) {
	pending, err := r.agent.Pending()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if pending == nil {
		pending = []models.PendingMutation{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":     len(pending),
		"mutations": pending,
	})
}

// cancelPending withdraws one queued mutation before it syncs
func (r *Router) cancelPending(w http.ResponseWriter, req *http.Request) {
	id := mux.Vars(req)["id"]
	if err := r.agent.Cancel(id); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

// hallSlots lists free staging slots from the cached snapshots
func (r *Router) hallSlots(w http.ResponseWriter, req *http.Request) {
	warehouse, err := strconv.Atoi(req.URL.Query().Get("warehouse"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "warehouse query parameter is required")
		return
	}
	count := 5
	if c, err := strconv.Atoi(req.URL.Query().Get("count")); err == nil && c > 0 {
		count = c
	}

	slots, err := r.agent.FindHallSlots(warehouse, count)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if slots == nil {
		slots = []string{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"warehouse": warehouse,
		"slots":     slots,
	})
}
