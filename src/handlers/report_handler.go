package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/username/shrinklens/backend/src/logger"
	"github.com/username/shrinklens/backend/src/models"
	"github.com/username/shrinklens/backend/src/services"
	"github.com/username/shrinklens/backend/src/utils"
)

type ReportHandler struct {
	varianceService services.VarianceService
}

func NewReportHandler(service services.VarianceService) *ReportHandler {
	return &ReportHandler{varianceService: service}
}

// filterFromQuery parses the month/market/segment selection from query
// parameters. Absent parameters mean the unrestricted selection.
func filterFromQuery(r *http.Request) models.Filter {
	f := models.DefaultFilter()

	if months := strings.TrimSpace(r.URL.Query().Get("months")); months != "" {
		for _, m := range strings.Split(months, ",") {
			if m = strings.TrimSpace(m); m != "" {
				f.Months = append(f.Months, m)
			}
		}
	}
	if market := strings.TrimSpace(r.URL.Query().Get("market")); market != "" {
		f.Market = market
	}
	switch strings.ToLower(strings.TrimSpace(r.URL.Query().Get("segment"))) {
	case models.SegmentCold:
		f.Segment = models.SegmentCold
	case models.SegmentAmbient:
		f.Segment = models.SegmentAmbient
	}
	return f
}

// HandleGetReport serves the full variance report for the requested filter
// slice, with ETag support so unchanged data costs the client nothing.
func (h *ReportHandler) HandleGetReport(w http.ResponseWriter, r *http.Request) {
	filter := filterFromQuery(r)
	logger.L.Debug("Handling report request", "months", filter.Months, "market", filter.Market, "segment", filter.Segment)

	report, err := h.varianceService.GetReport(filter)
	if err != nil {
		logger.L.Error("Error computing report", "error", err)
		utils.SendJSONError(w, fmt.Sprintf("Error computing report: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Cache-Control", "no-cache, private")

	currentETag, etagErr := utils.GenerateETag(report)
	if etagErr == nil && currentETag != "" {
		quotedETag := fmt.Sprintf("%q", currentETag)
		w.Header().Set("ETag", quotedETag)
		for _, clientETag := range strings.Split(r.Header.Get("If-None-Match"), ",") {
			if strings.TrimSpace(clientETag) == quotedETag {
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}
	} else {
		logger.L.Warn("Proceeding without ETag check", "error", etagErr)
	}

	utils.SendJSON(w, report, http.StatusOK)
}
