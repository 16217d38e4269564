package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/rs/zerolog"

	"github.com/bazaar/storefront-gateway/internal/api/metrics"
	"github.com/bazaar/storefront-gateway/internal/core/domain"
)

type memRepo struct {
	mu     sync.Mutex
	events []domain.AuthEvent
	fail   bool
}

func (r *memRepo) Insert(_ context.Context, e *domain.AuthEvent) error {
	if r.fail {
		return errors.New("mongo down")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *e)
	return nil
}

func (r *memRepo) snapshot() []domain.AuthEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.AuthEvent(nil), r.events...)
}

func TestDispatcher_WritesInOrderPerPrincipal(t *testing.T) {
	repo := &memRepo{}
	d := NewDispatcher(3, repo, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	kinds := []domain.AuthEventKind{domain.EventLoginSucceeded, domain.EventProfileUpdated, domain.EventLogout}
	for _, k := range kinds {
		d.Record(domain.AuthEvent{ID: string(k), Kind: k, Role: "shop", PrincipalID: "s1", At: time.Now()})
	}
	d.Record(domain.AuthEvent{ID: "other", Kind: domain.EventLoginFailed, Role: "user"})

	cancel()
	d.Wait()

	var trail []domain.AuthEventKind
	for _, e := range repo.snapshot() {
		if e.PrincipalID == "s1" {
			trail = append(trail, e.Kind)
		}
	}
	if len(trail) != len(kinds) {
		t.Fatalf("expected %d events for s1, got %v", len(kinds), trail)
	}
	for i := range kinds {
		if trail[i] != kinds[i] {
			t.Fatalf("out of order: %v", trail)
		}
	}
	if len(repo.snapshot()) != 4 {
		t.Fatalf("expected 4 events, got %d", len(repo.snapshot()))
	}
}

func TestDispatcher_RecordNeverBlocks(t *testing.T) {
	d := NewDispatcher(1, &memRepo{}, zerolog.Nop())
	// Not started: the buffer fills and further events are dropped.
	done := make(chan struct{})
	go func() {
		for i := 0; i < channelBuffer+10; i++ {
			d.Record(domain.AuthEvent{Kind: domain.EventLogout, Role: "user"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Record blocked on a full queue")
	}
}

func TestDispatcher_WriteFailureIsLoggedNotFatal(t *testing.T) {
	repo := &memRepo{fail: true}
	d := NewDispatcher(1, repo, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)
	d.Record(domain.AuthEvent{Kind: domain.EventLogout, Role: "user"})
	cancel()
	d.Wait()

	if len(repo.snapshot()) != 0 {
		t.Fatalf("expected nothing written")
	}
}

func queueDepth(t *testing.T, worker string) float64 {
	t.Helper()
	var m dto.Metric
	if err := metrics.AuditQueueDepth.WithLabelValues(worker).Write(&m); err != nil {
		t.Fatalf("read gauge: %v", err)
	}
	return m.GetGauge().GetValue()
}

func TestDispatcher_QueueDepthFallsAsWorkersDrain(t *testing.T) {
	repo := &memRepo{}
	d := NewDispatcher(1, repo, zerolog.Nop())
	for i := 0; i < 3; i++ {
		d.Record(domain.AuthEvent{Kind: domain.EventLogout, Role: "user"})
	}
	if got := queueDepth(t, "0"); got != 3 {
		t.Fatalf("expected depth 3 before start, got %v", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)
	cancel()
	d.Wait()

	if len(repo.snapshot()) != 3 {
		t.Fatalf("expected 3 events written, got %d", len(repo.snapshot()))
	}
	if got := queueDepth(t, "0"); got != 0 {
		t.Fatalf("expected depth 0 after drain, got %v", got)
	}
}
