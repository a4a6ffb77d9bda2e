package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rushteam/cfkit/core"
)

type flakySource struct {
	calls int
	err   error
}

func (s *flakySource) Name() string { return "flaky" }
func (s *flakySource) Interactions(context.Context) ([]core.Interaction, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return []core.Interaction{{UserID: 1, ItemID: 2}}, nil
}

func TestBreakerSource_Trips(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("connection refused")
	src := &flakySource{err: boom}
	b := NewBreakerSource(src, BreakerConfig{FailureThreshold: 2, Timeout: time.Hour})

	for i := 0; i < 2; i++ {
		if _, err := b.Interactions(ctx); !errors.Is(err, boom) {
			t.Fatalf("call %d: err = %v, want %v", i, err, boom)
		}
	}
	if b.State() != "open" {
		t.Fatalf("State() = %s, want open", b.State())
	}

	_, err := b.Interactions(ctx)
	if !core.IsUnavailable(err) {
		t.Errorf("open breaker err = %v, want unavailable", err)
	}
	if src.calls != 2 {
		t.Errorf("source called %d times, want 2", src.calls)
	}
}

func TestBreakerSource_PassThrough(t *testing.T) {
	src := &flakySource{}
	b := NewBreakerSource(src, BreakerConfig{})
	got, err := b.Interactions(context.Background())
	if err != nil || len(got) != 1 {
		t.Fatalf("Interactions() = %v, %v", got, err)
	}
	if b.Name() != "flaky" || b.State() != "closed" {
		t.Errorf("Name/State = %s/%s", b.Name(), b.State())
	}

	// 取消不计为失败
	src.err = context.Canceled
	for i := 0; i < 10; i++ {
		_, _ = b.Interactions(context.Background())
	}
	if b.State() != "closed" {
		t.Errorf("State() after cancellations = %s, want closed", b.State())
	}
}

type closableSource struct {
	flakySource
	closed bool
}

func (s *closableSource) Close() error {
	s.closed = true
	return nil
}

func TestBreakerSource_Close(t *testing.T) {
	src := &closableSource{}
	if err := NewBreakerSource(src, BreakerConfig{}).Close(); err != nil || !src.closed {
		t.Errorf("Close() err = %v, closed = %v", err, src.closed)
	}
	if err := NewBreakerSource(&flakySource{}, BreakerConfig{}).Close(); err != nil {
		t.Errorf("Close() on non-closer = %v", err)
	}
}
