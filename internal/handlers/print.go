package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/tungdibui2609/saritaqr/internal/services/printer"
)

// printLabels renders a QR label sheet for slot codes. The QR payload is the
// bare canonical code so a scan drops straight into the position field.
func (r *Router) printLabels(w http.ResponseWriter, req *http.Request) {
	var cfg printer.SheetConfig
	if err := json.NewDecoder(req.Body).Decode(&cfg); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	codes, err := cfg.Expand()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	pdfBytes, err := printer.GenerateSheet(cfg, codes)
	if err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to generate PDF: %v", err))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"slots_%s.pdf\"", time.Now().Format("20060102_150405")))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdfBytes)))

	w.Write(pdfBytes)
}
