package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/username/shrinklens/backend/src/database"
	"github.com/username/shrinklens/backend/src/logger"
	"github.com/username/shrinklens/backend/src/models"
	"github.com/username/shrinklens/backend/src/utils"
)

// FilterHandler persists the active filter selection in an app_state slot
// so the view comes back the way the user left it.
type FilterHandler struct{}

func NewFilterHandler() *FilterHandler {
	return &FilterHandler{}
}

func (h *FilterHandler) HandleGetFilter(w http.ResponseWriter, r *http.Request) {
	filter := models.DefaultFilter()
	if !database.LoadState(database.StateKeyFilter, &filter) {
		logger.L.Debug("No persisted filter state, serving defaults")
	}
	utils.SendJSON(w, filter, http.StatusOK)
}

func (h *FilterHandler) HandleSaveFilter(w http.ResponseWriter, r *http.Request) {
	var filter models.Filter
	if err := json.NewDecoder(r.Body).Decode(&filter); err != nil {
		utils.SendJSONError(w, "Invalid filter payload", http.StatusBadRequest)
		return
	}
	if filter.Market == "" {
		filter.Market = models.MarketAll
	}
	if filter.Segment == "" {
		filter.Segment = models.SegmentAll
	}

	database.SaveState(database.StateKeyFilter, filter)
	utils.SendJSON(w, filter, http.StatusOK)
}
