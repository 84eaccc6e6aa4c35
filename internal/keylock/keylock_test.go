package keylock

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMutualExclusionPerKey(t *testing.T) {
	r := New()
	ctx := context.Background()

	var mu sync.Mutex
	inflight, peak := 0, 0

	const n = 16
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			release, err := r.Acquire(ctx, "k")
			if err != nil {
				t.Error(err)
				return
			}
			mu.Lock()
			inflight++
			if inflight > peak {
				peak = inflight
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inflight--
			mu.Unlock()
			release()
		}()
	}
	wg.Wait()

	if peak != 1 {
		t.Fatalf("critical section overlapped, peak %d", peak)
	}
	if r.Len() != 0 {
		t.Fatalf("registry leaked %d entries", r.Len())
	}
}

func TestDifferentKeysDoNotContend(t *testing.T) {
	r := New()
	ctx := context.Background()

	releaseA, err := r.Acquire(ctx, "a")
	if err != nil {
		t.Fatalf("acquire a: %v", err)
	}
	defer releaseA()

	done := make(chan struct{})
	go func() {
		releaseB, err := r.Acquire(ctx, "b")
		if err != nil {
			t.Error(err)
			return
		}
		releaseB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("lock on a blocked acquisition of b")
	}
}

func TestAcquireHonorsCancellation(t *testing.T) {
	r := New()

	release, err := r.Acquire(context.Background(), "k")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := r.Acquire(ctx, "k")
		errCh <- err
	}()

	cancel()
	select {
	case err := <-errCh:
		if err != context.Canceled {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("canceled waiter did not return")
	}

	release()
	if r.Len() != 0 {
		t.Fatalf("registry leaked %d entries after cancellation", r.Len())
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	r := New()
	release, err := r.Acquire(context.Background(), "k")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	release()
	release() // second call must be a no-op

	// key must be acquirable again
	release2, err := r.Acquire(context.Background(), "k")
	if err != nil {
		t.Fatalf("reacquire: %v", err)
	}
	release2()
	if r.Len() != 0 {
		t.Fatalf("registry leaked %d entries", r.Len())
	}
}
