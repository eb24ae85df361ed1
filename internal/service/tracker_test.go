package service

import (
	"errors"
	"sync"
	"testing"

	"github.com/shadegov/sentinel/internal/adapter/memstore"
	"github.com/shadegov/sentinel/internal/domain"
	"github.com/shadegov/sentinel/internal/port/executor"
)

func TestTrackerBeginFinishSuccess(t *testing.T) {
	tr := NewTracker(memstore.New())

	if tr.IsExecuted("7") {
		t.Fatal("fresh proposal must not be executed")
	}

	attemptID, release, err := tr.Begin("7")
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if attemptID == "" {
		t.Fatal("expected non-empty attempt id")
	}

	st := tr.Finish("7", attemptID, executor.Receipt{TxHash: "abc123"}, nil)
	release()

	if !st.Executed || !st.Success {
		t.Fatalf("expected terminal success, got %+v", st)
	}
	if st.TxHash != "abc123" {
		t.Fatalf("expected tx hash recorded, got %q", st.TxHash)
	}
	if st.ExecutedAt == nil {
		t.Fatal("expected executed_at set")
	}
	if !tr.IsExecuted("7") {
		t.Fatal("IsExecuted must report true after successful finish")
	}
}

func TestTrackerBeginAfterSuccessFails(t *testing.T) {
	tr := NewTracker(memstore.New())

	attemptID, release, err := tr.Begin("8")
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	tr.Finish("8", attemptID, executor.Receipt{TxHash: "tx"}, nil)
	release()

	if _, _, err := tr.Begin("8"); !errors.Is(err, domain.ErrAlreadyExecuted) {
		t.Fatalf("expected ErrAlreadyExecuted, got %v", err)
	}
}

func TestTrackerFailedAttemptIsRetryable(t *testing.T) {
	tr := NewTracker(memstore.New())

	attemptID, release, err := tr.Begin("9")
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	st := tr.Finish("9", attemptID, executor.Receipt{}, errors.New("rpc timeout"))
	release()

	if st.Success || st.Executed {
		t.Fatalf("failed attempt must not be terminal, got %+v", st)
	}
	if st.Error != "rpc timeout" {
		t.Fatalf("expected error recorded, got %q", st.Error)
	}
	if tr.IsExecuted("9") {
		t.Fatal("failed attempt must not mark proposal executed")
	}

	// Retry succeeds.
	attemptID, release, err = tr.Begin("9")
	if err != nil {
		t.Fatalf("retry Begin: %v", err)
	}
	tr.Finish("9", attemptID, executor.Receipt{TxHash: "tx2"}, nil)
	release()

	if !tr.IsExecuted("9") {
		t.Fatal("retry success must mark proposal executed")
	}
}

func TestTrackerConcurrentBeginAdmitsOne(t *testing.T) {
	tr := NewTracker(memstore.New())

	const goroutines = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	var succeeded, rejected int

	start := make(chan struct{})
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			attemptID, release, err := tr.Begin("10")
			if err != nil {
				mu.Lock()
				rejected++
				mu.Unlock()
				return
			}
			tr.Finish("10", attemptID, executor.Receipt{TxHash: "tx"}, nil)
			release()
			mu.Lock()
			succeeded++
			mu.Unlock()
		}()
	}
	close(start)
	wg.Wait()

	if succeeded != 1 {
		t.Fatalf("expected exactly one successful execution, got %d", succeeded)
	}
	if rejected != goroutines-1 {
		t.Fatalf("expected %d rejections, got %d", goroutines-1, rejected)
	}
}

func TestTrackerDistinctIDsIndependent(t *testing.T) {
	tr := NewTracker(memstore.New())

	a, releaseA, err := tr.Begin("11")
	if err != nil {
		t.Fatalf("Begin 11: %v", err)
	}
	// A held critical section for one id must not block another id.
	b, releaseB, err := tr.Begin("12")
	if err != nil {
		t.Fatalf("Begin 12: %v", err)
	}

	tr.Finish("11", a, executor.Receipt{TxHash: "t1"}, nil)
	releaseA()
	tr.Finish("12", b, executor.Receipt{TxHash: "t2"}, nil)
	releaseB()

	if !tr.IsExecuted("11") || !tr.IsExecuted("12") {
		t.Fatal("both proposals should be executed")
	}
}
