package httpkit

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"crm_portal_backend/platform/apperr"
)

func newTestContext(t *testing.T) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/leads", nil)
	return c, recorder
}

func TestHandleErrorNilReturnsFalse(t *testing.T) {
	c, _ := newTestContext(t)

	if HandleError(c, nil) {
		t.Fatalf("expected nil error to be unhandled")
	}
}

func TestHandleErrorMapsDomainKindToStatus(t *testing.T) {
	c, recorder := newTestContext(t)

	if !HandleError(c, apperr.NotFound("lead not found")) {
		t.Fatalf("expected domain error handled")
	}
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), "lead not found") {
		t.Fatalf("expected domain message in body, got %s", recorder.Body.String())
	}
}

func TestHandleErrorUntypedErrorIsOpaqueInternal(t *testing.T) {
	c, recorder := newTestContext(t)
	storageErr := fmt.Errorf("get lead: pq: connection refused host=db-internal-10.0.0.5")

	if !HandleError(c, storageErr) {
		t.Fatalf("expected untyped error handled")
	}
	if recorder.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for untyped error, got %d", recorder.Code)
	}

	body := recorder.Body.String()
	if !strings.Contains(body, msgInternalError) {
		t.Fatalf("expected opaque message, got %s", body)
	}
	if strings.Contains(body, "connection refused") || strings.Contains(body, "db-internal") {
		t.Fatalf("storage detail leaked into the response: %s", body)
	}

	// The real error stays server-side, on the gin context.
	if len(c.Errors) != 1 || c.Errors.Last().Err != storageErr {
		t.Fatalf("expected original error attached to the context, got %v", c.Errors)
	}
}
