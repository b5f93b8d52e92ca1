package server

import (
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/taskforge/taskforge/internal/admission"
	"github.com/taskforge/taskforge/pkg/pool"
	"github.com/taskforge/taskforge/pkg/runtime"
)

func newTestHandler(t *testing.T) *workHandler {
	t.Helper()
	p, err := pool.NewWorkStealing(2)
	if err != nil {
		t.Fatalf("NewWorkStealing: %v", err)
	}
	t.Cleanup(func() { _ = p.Close() })

	sched := runtime.NewScheduler(p)
	return &workHandler{sched: sched, gate: admission.New(4), logger: zap.NewNop()}
}

func TestWorkHandlerSuccess(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest("GET", "/work?cpu1=100&io=100&cpu2=100", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}
}

func TestWorkHandlerRejectsNonGet(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest("POST", "/work", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != 400 {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestWorkHandlerRejectsMalformedQuery(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest("GET", "/work?cpu1=notanumber", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != 400 {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
