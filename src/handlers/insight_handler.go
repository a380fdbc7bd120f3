package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/username/shrinklens/backend/src/llm"
	"github.com/username/shrinklens/backend/src/logger"
	"github.com/username/shrinklens/backend/src/services"
	"github.com/username/shrinklens/backend/src/utils"
)

type InsightHandler struct {
	insightService services.InsightService
}

func NewInsightHandler(service services.InsightService) *InsightHandler {
	return &InsightHandler{insightService: service}
}

func (h *InsightHandler) HandleGetStatus(w http.ResponseWriter, r *http.Request) {
	utils.SendJSON(w, map[string]string{"status": string(h.insightService.Status())}, http.StatusOK)
}

type quickQueryRequest struct {
	Question string `json:"question"`
}

// HandleQuickQuery streams the collaborator's answer as server-sent
// events, one delta per event, so partial text reaches the client as it
// arrives rather than at the end.
func (h *InsightHandler) HandleQuickQuery(w http.ResponseWriter, r *http.Request) {
	var req quickQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Question == "" {
		utils.SendJSONError(w, "Request body must carry a non-empty 'question'", http.StatusBadRequest)
		return
	}
	filter := filterFromQuery(r)

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.SendJSONError(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	sendEvent := func(event, data string) {
		payload, _ := json.Marshal(map[string]string{"text": data})
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
		flusher.Flush()
	}

	err := h.insightService.QuickQuery(r.Context(), filter, req.Question, func(delta string) {
		sendEvent("delta", delta)
	})
	if err != nil {
		logger.L.Warn("Quick query failed", "error", err)
		sendEvent("error", insightErrorMessage(err))
		return
	}
	sendEvent("done", "")
}

func (h *InsightHandler) HandleDeepDive(w http.ResponseWriter, r *http.Request) {
	filter := filterFromQuery(r)

	text, err := h.insightService.DeepDive(r.Context(), filter)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInsightOffline):
			utils.SendJSONError(w, insightErrorMessage(err), http.StatusServiceUnavailable)
		case errors.Is(err, llm.ErrUnauthorized):
			utils.SendJSONError(w, insightErrorMessage(err), http.StatusUnauthorized)
		default:
			logger.L.Error("Deep dive failed", "error", err)
			utils.SendJSONError(w, "The analysis request failed. Please try again.", http.StatusBadGateway)
		}
		return
	}

	// The text is opaque Markdown; it is passed through untouched.
	utils.SendJSON(w, map[string]string{"analysis": text}, http.StatusOK)
}

type reauthRequest struct {
	APIKey string `json:"api_key"`
}

// HandleReauthorize replaces the collaborator capability. This is the only
// way the credential changes after startup.
func (h *InsightHandler) HandleReauthorize(w http.ResponseWriter, r *http.Request) {
	var req reauthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid re-authorization payload", http.StatusBadRequest)
		return
	}

	h.insightService.Reauthorize(req.APIKey)
	utils.SendJSON(w, map[string]string{"status": string(h.insightService.Status())}, http.StatusOK)
}

func insightErrorMessage(err error) string {
	switch {
	case errors.Is(err, services.ErrInsightOffline):
		return "Insight assistant is offline: no API credential is configured."
	case errors.Is(err, llm.ErrUnauthorized):
		return "Insight assistant needs re-authorization: the API credential was rejected."
	default:
		return "Insight assistant request failed."
	}
}
