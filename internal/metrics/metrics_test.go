package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveBatch(t *testing.T) {
	r := NewRecorder()
	r.ObserveBatch("dim_loan", 100, 20*time.Millisecond)
	r.ObserveBatch("dim_loan", 50, 10*time.Millisecond)
	r.ObserveBatch("fact_sales", 7, time.Millisecond)

	if got := testutil.ToFloat64(r.rowsInserted.WithLabelValues("dim_loan")); got != 150 {
		t.Errorf("Expected 150 rows for dim_loan, got %v", got)
	}
	if got := testutil.ToFloat64(r.batches.WithLabelValues("dim_loan")); got != 2 {
		t.Errorf("Expected 2 batches for dim_loan, got %v", got)
	}
	if got := testutil.ToFloat64(r.rowsInserted.WithLabelValues("fact_sales")); got != 7 {
		t.Errorf("Expected 7 rows for fact_sales, got %v", got)
	}
	if n := testutil.CollectAndCount(r.batchDuration); n != 2 {
		t.Errorf("Expected 2 histogram series, got %d", n)
	}
}

func TestObservePhase(t *testing.T) {
	r := NewRecorder()
	r.ObservePhase("loans", 1500*time.Millisecond)
	r.ObservePhase("loans", 2*time.Second)

	if got := testutil.ToFloat64(r.phaseDuration.WithLabelValues("loans")); got != 2 {
		t.Errorf("Expected last phase duration 2, got %v", got)
	}
}

func TestPush(t *testing.T) {
	var method, path, body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		method = req.Method
		path = req.URL.Path
		b, _ := io.ReadAll(req.Body)
		body = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := NewRecorder()
	r.ObserveBatch("dim_time", 1095, time.Millisecond)

	if err := r.Push(context.Background(), srv.URL, "pgedge-ledgergen", "run-1"); err != nil {
		t.Fatalf("Push failed: %v", err)
	}
	if method != http.MethodPut {
		t.Errorf("Expected PUT, got %s", method)
	}
	if path != "/metrics/job/pgedge-ledgergen/run_id/run-1" {
		t.Errorf("Unexpected push path %s", path)
	}
	if body == "" {
		t.Error("Expected a request body")
	}
}

func TestPushError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewRecorder().Push(context.Background(), srv.URL, "job", "")
	if err == nil || !strings.Contains(err.Error(), "failed to push metrics") {
		t.Errorf("Expected push error, got %v", err)
	}
}
