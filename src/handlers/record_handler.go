package handlers

import (
	"fmt"
	"net/http"

	"github.com/username/shrinklens/backend/src/logger"
	"github.com/username/shrinklens/backend/src/models"
	"github.com/username/shrinklens/backend/src/services"
	"github.com/username/shrinklens/backend/src/utils"
)

type RecordHandler struct {
	varianceService services.VarianceService
}

func NewRecordHandler(service services.VarianceService) *RecordHandler {
	return &RecordHandler{varianceService: service}
}

func (h *RecordHandler) HandleGetRecords(w http.ResponseWriter, r *http.Request) {
	records, err := h.varianceService.GetRecords()
	if err != nil {
		logger.L.Error("Error fetching records", "error", err)
		utils.SendJSONError(w, fmt.Sprintf("Error fetching records: %v", err), http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []models.ShrinkRecord{}
	}
	utils.SendJSON(w, records, http.StatusOK)
}

// HandlePurgeRecords clears the entire canonical store. The purge is
// irreversible, so it refuses to run without confirm=true.
func (h *RecordHandler) HandlePurgeRecords(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirm") != "true" {
		utils.SendJSONError(w, "Purge requires explicit confirmation: add ?confirm=true", http.StatusBadRequest)
		return
	}

	purged, err := h.varianceService.PurgeRecords()
	if err != nil {
		logger.L.Error("Error purging records", "error", err)
		utils.SendJSONError(w, "An internal error occurred while purging records.", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, map[string]int{"purged": purged}, http.StatusOK)
}
