package esquery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
)

func TestObserver_CountsOperations(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := newObserver(zap.NewNop(), reg)
	if err != nil {
		t.Fatalf("newObserver: %v", err)
	}
	s := &mockSearcher{count: 2}
	c := newTestClient(s)
	c.obs = obs

	q := From[product]("products")
	if _, err := Count(context.Background(), c, q); err != nil {
		t.Fatalf("Count: %v", err)
	}
	s.err = errors.New("down")
	if _, err := Count(context.Background(), c, q); err == nil {
		t.Fatal("expected error")
	}

	if got := testutil.ToFloat64(obs.metrics.operations.WithLabelValues("count", "ok")); got != 1 {
		t.Errorf("ok = %v, want 1", got)
	}
	if got := testutil.ToFloat64(obs.metrics.operations.WithLabelValues("count", "error")); got != 1 {
		t.Errorf("error = %v, want 1", got)
	}
}

func TestObserver_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if first.metrics.operations != second.metrics.operations {
		t.Error("second observer should reuse the registered counter")
	}
}

func TestObserver_Nil(t *testing.T) {
	var o *observer
	o.observe("find", time.Now(), nil)
}
