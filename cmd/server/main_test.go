package main

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgerimport/internal/adapter/http/middleware"
	"github.com/iho/ledgerimport/internal/domain"
	"github.com/iho/ledgerimport/internal/infrastructure/config"
)

func TestNewReconcilerUsesConfiguredTolerance(t *testing.T) {
	cfg := &config.Config{ImportAbsoluteTolerance: "0.50", ImportRelativeTolerance: "0"}

	r, err := newReconciler(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	csv := decimal.RequireFromString("100.00")
	row := &domain.LedgerRow{TransactionID: "T1", NetValueBRL: &csv}
	external := decimal.RequireFromString("100.40")

	if got := r.Reconcile(row, &external); got.Outcome != domain.OutcomeReconciled {
		t.Fatalf("expected 0.40 to be within a 0.50 tolerance, got %s", got.Outcome)
	}
}

func TestNewReconcilerRejectsInvalidTolerance(t *testing.T) {
	if _, err := newReconciler(&config.Config{ImportAbsoluteTolerance: "abc", ImportRelativeTolerance: "0"}); err == nil {
		t.Fatal("expected error for invalid absolute tolerance")
	}
}

func TestNewHTTPServer(t *testing.T) {
	cfg := &config.Config{
		HTTPPort:         "9090",
		HTTPReadTimeout:  time.Second,
		HTTPWriteTimeout: 2 * time.Second,
		HTTPIdleTimeout:  3 * time.Second,
	}

	srv := newHTTPServer(cfg, http.NotFoundHandler())
	if srv.Addr != ":9090" || srv.WriteTimeout != 2*time.Second || srv.IdleTimeout != 3*time.Second {
		t.Fatalf("unexpected server settings: %+v", srv)
	}
}

func TestCleanupLimitersStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		cleanupLimiters(ctx, middleware.NewRateLimiter(1, 1, nil), time.Millisecond, time.Minute)
		close(done)
	}()

	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup loop did not stop")
	}
}
