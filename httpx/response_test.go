package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestJSONError(t *testing.T) {
	w := httptest.NewRecorder()
	JSONMessage(w, http.StatusUnprocessableEntity, "validation_failed", "Facture incomplète", []string{"a"})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content-type %q", ct)
	}
	var body ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error != "validation_failed" || body.Message != "Facture incomplète" {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestJSONNil(t *testing.T) {
	w := httptest.NewRecorder()
	JSON(w, http.StatusOK, nil)
	if w.Body.String() != "null" {
		t.Fatalf("expected null, got %q", w.Body.String())
	}
}

func TestPDFInline(t *testing.T) {
	w := httptest.NewRecorder()
	PDF(w, "facture_1.pdf", []byte("%PDF"), true)
	if got := w.Header().Get("Content-Disposition"); got != `inline; filename="facture_1.pdf"` {
		t.Fatalf("disposition %q", got)
	}
}
