package runlock

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestLock_TryAcquire(t *testing.T) {
	t.Parallel()

	var l Lock

	if !l.TryAcquire() {
		t.Fatal("expected first acquire to succeed")
	}
	if l.TryAcquire() {
		t.Fatal("expected second acquire to fail while held")
	}
	if !l.Held() {
		t.Fatal("expected lock to report held")
	}

	l.Release()
	if l.Held() {
		t.Fatal("expected lock to report free after release")
	}
	if !l.TryAcquire() {
		t.Fatal("expected acquire to succeed after release")
	}
}

func TestLock_SingleWinnerUnderContention(t *testing.T) {
	t.Parallel()

	var l Lock
	var winners int32

	const workers = 32
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			if l.TryAcquire() {
				atomic.AddInt32(&winners, 1)
			}
		}()
	}

	close(start)
	wg.Wait()

	if got := atomic.LoadInt32(&winners); got != 1 {
		t.Fatalf("expected exactly one winner, got %d", got)
	}
}
