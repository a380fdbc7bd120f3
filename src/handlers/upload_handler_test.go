package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/username/shrinklens/backend/src/config"
	"github.com/username/shrinklens/backend/src/services"
)

func multipartUpload(t *testing.T, filename, contentType, body, period string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("failed to create multipart part: %v", err)
	}
	if _, err := part.Write([]byte(body)); err != nil {
		t.Fatalf("failed to write file body: %v", err)
	}
	if period != "" {
		if err := writer.WriteField("period", period); err != nil {
			t.Fatalf("failed to write period field: %v", err)
		}
	}
	writer.Close()

	r := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	r.Header.Set("Content-Type", writer.FormDataContentType())
	return r
}

func newUploadFixture(t *testing.T) (*UploadHandler, services.VarianceService) {
	t.Helper()
	svc := newTestVarianceService(t)
	config.Cfg = &config.AppConfig{MaxUploadSizeBytes: 10 * 1024 * 1024}
	return NewUploadHandler(svc), svc
}

const uploadCSV = "Market: Building 4\n\nItem#,Item,Variance,Revenue,Qty Sold,Price,Cost\n1001,Chips,-2,20,10,2.00,3.50\n1002,Cola,3,45,30,1.50,0.80\n"

func TestHandleUploadStagesPreview(t *testing.T) {
	h, svc := newUploadFixture(t)

	w := httptest.NewRecorder()
	h.HandleUpload(w, multipartUpload(t, "march.csv", "text/csv", uploadCSV, "March 2024"))
	if w.Code != http.StatusOK {
		t.Fatalf("upload status = %d, body = %s", w.Code, w.Body.String())
	}

	var preview services.StagePreview
	if err := json.NewDecoder(w.Body).Decode(&preview); err != nil {
		t.Fatalf("failed to decode preview: %v", err)
	}
	if preview.Period != "March" || preview.RecordCount != 2 {
		t.Errorf("preview = %+v, want March with 2 records", preview)
	}

	// Staged only: the store stays empty until commit.
	if records, _ := svc.GetRecords(); len(records) != 0 {
		t.Errorf("store has %d records before commit, want 0", len(records))
	}

	w = httptest.NewRecorder()
	h.HandleCommitImport(w, httptest.NewRequest(http.MethodPost, "/api/import/commit", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("commit status = %d, body = %s", w.Code, w.Body.String())
	}
	if records, _ := svc.GetRecords(); len(records) != 2 {
		t.Errorf("store has %d records after commit, want 2", len(records))
	}
}

func TestHandleUploadRejections(t *testing.T) {
	h, _ := newUploadFixture(t)

	// Missing period field.
	w := httptest.NewRecorder()
	h.HandleUpload(w, multipartUpload(t, "march.csv", "text/csv", uploadCSV, ""))
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing period status = %d, want 400", w.Code)
	}

	// Disallowed declared content type.
	w = httptest.NewRecorder()
	h.HandleUpload(w, multipartUpload(t, "march.png", "image/png", uploadCSV, "March"))
	if w.Code != http.StatusBadRequest {
		t.Errorf("disallowed content type status = %d, want 400", w.Code)
	}

	// Parseable file with no recognizable data rows.
	w = httptest.NewRecorder()
	h.HandleUpload(w, multipartUpload(t, "noise.csv", "text/csv", "just,some\nnoise,rows\n", "March"))
	if w.Code != http.StatusBadRequest {
		t.Errorf("no-data upload status = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "No shrink data detected") {
		t.Errorf("no-data upload body = %s", w.Body.String())
	}
}

func TestHandleCommitWithoutStaging(t *testing.T) {
	h, _ := newUploadFixture(t)

	w := httptest.NewRecorder()
	h.HandleCommitImport(w, httptest.NewRequest(http.MethodPost, "/api/import/commit", nil))
	if w.Code != http.StatusConflict {
		t.Errorf("commit with empty staging status = %d, want 409", w.Code)
	}

	w = httptest.NewRecorder()
	h.HandleDiscardImport(w, httptest.NewRequest(http.MethodPost, "/api/import/discard", nil))
	if w.Code != http.StatusOK {
		t.Errorf("discard status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"discarded":false`) {
		t.Errorf("discard body = %s", w.Body.String())
	}
}
