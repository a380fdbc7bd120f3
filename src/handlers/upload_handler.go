package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/username/shrinklens/backend/src/config"
	"github.com/username/shrinklens/backend/src/logger"
	"github.com/username/shrinklens/backend/src/security/validation"
	"github.com/username/shrinklens/backend/src/services"
	"github.com/username/shrinklens/backend/src/utils"
)

type UploadHandler struct {
	varianceService services.VarianceService
}

func NewUploadHandler(service services.VarianceService) *UploadHandler {
	return &UploadHandler{varianceService: service}
}

// HandleUpload accepts a multipart spreadsheet upload plus a target period
// and stages the extraction result for review. Nothing reaches the
// canonical store until the import is committed.
func (h *UploadHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(config.Cfg.MaxUploadSizeBytes); err != nil {
		logger.L.Warn("Failed to parse multipart form or request too large", "error", err, "limit", config.Cfg.MaxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("Failed to parse form or request too large (max %d MB)", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		logger.L.Warn("Failed to retrieve file from request", "error", err)
		utils.SendJSONError(w, "Failed to retrieve file from request. Ensure 'file' field is used.", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if fileHeader.Size > config.Cfg.MaxUploadSizeBytes {
		logger.L.Warn("Uploaded file header reports size too large", "fileSize", fileHeader.Size, "limit", config.Cfg.MaxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("File too large, max %d MB", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	period := r.FormValue("period")
	if period == "" {
		utils.SendJSONError(w, "Missing 'period' form field for the import", http.StatusBadRequest)
		return
	}

	clientContentType := fileHeader.Header.Get("Content-Type")
	if err := validation.ValidateClientContentType(clientContentType); err != nil {
		logger.L.Warn("Invalid client-declared file type", "contentType", clientContentType, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	detectedContentType, err := validation.ValidateFileContentByMagicBytes(file)
	if err != nil {
		logger.L.Warn("Server-side file content validation failed", "filename", fileHeader.Filename, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	logger.L.Info("File content validated", "filename", fileHeader.Filename, "clientType", clientContentType, "detectedType", detectedContentType)

	preview, err := h.varianceService.StageUpload(file, fileHeader.Filename, period)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNoDataDetected):
			logger.L.Info("Upload yielded no records", "filename", fileHeader.Filename)
			utils.SendJSONError(w, "No shrink data detected in the uploaded file. Check that the sheets contain item and variance columns.", http.StatusBadRequest)
		case errors.Is(err, services.ErrParsingFailed):
			logger.L.Warn("Upload processing failed during parsing", "filename", fileHeader.Filename, "error", err)
			utils.SendJSONError(w, fmt.Sprintf("Error parsing file: %v", err), http.StatusBadRequest)
		default:
			logger.L.Error("Internal error processing upload", "filename", fileHeader.Filename, "error", err)
			utils.SendJSONError(w, "An internal error occurred while processing the file. Please try again later.", http.StatusInternalServerError)
		}
		return
	}

	utils.SendJSON(w, preview, http.StatusOK)
}

// HandleCommitImport merges the staged import into the canonical store,
// replacing any existing records for the same period.
func (h *UploadHandler) HandleCommitImport(w http.ResponseWriter, r *http.Request) {
	result, err := h.varianceService.CommitImport()
	if err != nil {
		if errors.Is(err, services.ErrNothingStaged) {
			utils.SendJSONError(w, "No staged import to commit. Upload a file first.", http.StatusConflict)
			return
		}
		logger.L.Error("Error committing import", "error", err)
		utils.SendJSONError(w, "An internal error occurred while committing the import.", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, result, http.StatusOK)
}

// HandleDiscardImport drops the staged import without touching the store.
func (h *UploadHandler) HandleDiscardImport(w http.ResponseWriter, r *http.Request) {
	had := h.varianceService.DiscardImport()
	utils.SendJSON(w, map[string]bool{"discarded": had}, http.StatusOK)
}
