package sync

import (
	"context"
	"os"
	stdsync "sync"
	"testing"
	"time"

	"github.com/eparkir/setoran/internal/apperr"
	"github.com/eparkir/setoran/internal/models"
	"github.com/eparkir/setoran/internal/photo"
	"github.com/eparkir/setoran/internal/queue"
	"github.com/eparkir/setoran/internal/store"
)

// fakeSubmitter records submissions and fails the collectors it is told to.
type fakeSubmitter struct {
	mu       stdsync.Mutex
	calls    []models.DepositRecord
	failFor  map[string]bool
	started  chan struct{}
	release  chan struct{}
	signaled bool
}

func (f *fakeSubmitter) Submit(ctx context.Context, rec models.DepositRecord) error {
	f.mu.Lock()
	f.calls = append(f.calls, rec)
	fail := f.failFor[rec.CollectorRef]
	started := f.started
	if started != nil && !f.signaled {
		f.signaled = true
	} else {
		started = nil
	}
	release := f.release
	f.mu.Unlock()

	if started != nil {
		close(started)
	}
	if release != nil {
		<-release
	}

	if fail {
		return apperr.New(apperr.ErrSubmitFailed, "server rejected transaction")
	}
	return nil
}

func (f *fakeSubmitter) submissions() []models.DepositRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.DepositRecord, len(f.calls))
	copy(out, f.calls)
	return out
}

func newTestEngine(t *testing.T, sub *fakeSubmitter) (*Engine, *queue.Store) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "setoran_sync_test_*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	kv, err := store.Open(tmpDir, 0)
	if err != nil {
		t.Fatalf("store.Open failed: %v", err)
	}
	t.Cleanup(func() { kv.Close() })

	q := queue.New(kv)
	return NewEngine(q, sub, photo.NewCodec()), q
}

func queued(collectorRef string, amount int64) models.PendingTransaction {
	return models.NewPendingTransaction(models.QueuedPayload{
		CollectorRef:  collectorRef,
		CollectorName: "Pak Budi",
		Shift:         models.ShiftMorning,
		StreetName:    "Sekartejo",
		Amount:        amount,
	})
}

func TestIdempotentDrain(t *testing.T) {
	sub := &fakeSubmitter{}
	e, q := newTestEngine(t, sub)

	for i := int64(1); i <= 5; i++ {
		if err := q.Enqueue(queued("jukir-1", i*1000)); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
	}

	e.SetOnline(context.Background(), true)

	if n := e.Pending(); n != 0 {
		t.Errorf("Expected empty queue after successful drain, got %d pending", n)
	}
	if len(sub.submissions()) != 5 {
		t.Errorf("Expected 5 submissions, got %d", len(sub.submissions()))
	}
}

func TestIsolationOfFailingItem(t *testing.T) {
	sub := &fakeSubmitter{failFor: map[string]bool{"jukir-bad": true}}
	e, q := newTestEngine(t, sub)

	bad := queued("jukir-bad", 9000)
	q.Enqueue(queued("jukir-1", 1000))
	q.Enqueue(bad)
	q.Enqueue(queued("jukir-3", 3000))

	e.online.Store(true)
	result, err := e.SyncNow(context.Background())
	if err != nil {
		t.Fatalf("SyncNow failed: %v", err)
	}

	if result.Submitted != 2 || result.Retained != 1 {
		t.Errorf("Expected 2 submitted / 1 retained, got %+v", result)
	}

	snap, _ := q.Snapshot()
	if len(snap) != 1 || snap[0].ID != bad.ID {
		t.Errorf("Expected only the failing item to remain, got %+v", snap)
	}

	// Each good item was submitted exactly once.
	counts := map[string]int{}
	for _, rec := range sub.submissions() {
		counts[rec.CollectorRef]++
	}
	if counts["jukir-1"] != 1 || counts["jukir-3"] != 1 || counts["jukir-bad"] != 1 {
		t.Errorf("Unexpected submission counts: %v", counts)
	}
}

func TestNoDoubleSubmission(t *testing.T) {
	sub := &fakeSubmitter{}
	e, q := newTestEngine(t, sub)

	q.Enqueue(queued("jukir-1", 1000))
	e.online.Store(true)

	if _, err := e.SyncNow(context.Background()); err != nil {
		t.Fatalf("First pass failed: %v", err)
	}
	if _, err := e.SyncNow(context.Background()); err != nil {
		t.Fatalf("Second pass failed: %v", err)
	}

	if len(sub.submissions()) != 1 {
		t.Errorf("Item submitted %d times, want exactly once", len(sub.submissions()))
	}
}

func TestMutualExclusion(t *testing.T) {
	sub := &fakeSubmitter{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	e, q := newTestEngine(t, sub)

	q.Enqueue(queued("jukir-1", 1000))
	e.online.Store(true)

	done := make(chan Result, 1)
	go func() {
		result, _ := e.SyncNow(context.Background())
		done <- result
	}()

	select {
	case <-sub.started:
	case <-time.After(5 * time.Second):
		t.Fatal("First pass never reached the submitter")
	}

	// A trigger while the pass is active must be a no-op.
	second, err := e.SyncNow(context.Background())
	if err != nil {
		t.Fatalf("Overlapping trigger errored: %v", err)
	}
	if second.Submitted != 0 || second.Retained != 0 {
		t.Errorf("Overlapping trigger did work: %+v", second)
	}

	close(sub.release)
	first := <-done

	if first.Submitted != 1 {
		t.Errorf("Expected the first pass to submit the item, got %+v", first)
	}
	if len(sub.submissions()) != 1 {
		t.Errorf("Item submitted %d times under concurrent triggers", len(sub.submissions()))
	}
}

func TestSyncNowIsNoOpWhileOffline(t *testing.T) {
	sub := &fakeSubmitter{}
	e, q := newTestEngine(t, sub)

	q.Enqueue(queued("jukir-1", 1000))

	result, err := e.SyncNow(context.Background())
	if err != nil {
		t.Fatalf("SyncNow failed: %v", err)
	}
	if result.Submitted != 0 || len(sub.submissions()) != 0 {
		t.Error("Offline engine must not submit anything")
	}
	if n := e.Pending(); n != 1 {
		t.Errorf("Queue must be untouched offline, got %d pending", n)
	}
}

func TestUnreadablePhotoDegradesToPhotolessSubmission(t *testing.T) {
	sub := &fakeSubmitter{}
	e, q := newTestEngine(t, sub)

	tx := queued("jukir-1", 1000)
	tx.Payload.PhotoDataURI = "not a data uri at all"
	tx.Payload.PhotoName = "bukti.jpg"
	q.Enqueue(tx)

	e.online.Store(true)
	result, err := e.SyncNow(context.Background())
	if err != nil {
		t.Fatalf("SyncNow failed: %v", err)
	}

	if result.Submitted != 1 || result.PhotosDropped != 1 {
		t.Errorf("Expected a degraded but successful submission, got %+v", result)
	}

	subs := sub.submissions()
	if len(subs) != 1 {
		t.Fatalf("Expected 1 submission, got %d", len(subs))
	}
	if subs[0].Photo != nil {
		t.Error("Degraded submission must carry no photo")
	}
	if n := e.Pending(); n != 0 {
		t.Errorf("Degraded item must still leave the queue, got %d pending", n)
	}
}

func TestSaveOnlineSubmitsDirectly(t *testing.T) {
	sub := &fakeSubmitter{}
	e, _ := newTestEngine(t, sub)
	e.online.Store(true)

	status, err := e.Save(context.Background(), models.DepositRecord{
		CollectorRef: "jukir-1", CollectorName: "Pak Budi",
		Shift: models.ShiftMorning, StreetName: "Sekartejo", Amount: 2500,
	})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if status != StatusSubmitted {
		t.Errorf("Expected direct submission, got %s", status)
	}
	if e.Pending() != 0 {
		t.Error("Direct submission must not touch the queue")
	}
}

func TestSaveOfflineQueues(t *testing.T) {
	sub := &fakeSubmitter{}
	e, q := newTestEngine(t, sub)

	status, err := e.Save(context.Background(), models.DepositRecord{
		CollectorRef: "jukir-1", CollectorName: "Pak Budi",
		Shift: models.ShiftNight, StreetName: "Pahlawan", Amount: 7000,
	})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if status != StatusQueued {
		t.Errorf("Expected queued status, got %s", status)
	}
	if len(sub.submissions()) != 0 {
		t.Error("Offline save must not hit the submitter")
	}

	snap, _ := q.Snapshot()
	if len(snap) != 1 || snap[0].Payload.Amount != 7000 {
		t.Errorf("Queued payload lost data: %+v", snap)
	}
}

func TestSaveRejectsInvalidAmounts(t *testing.T) {
	sub := &fakeSubmitter{}
	e, _ := newTestEngine(t, sub)

	_, err := e.Save(context.Background(), models.DepositRecord{
		CollectorRef: "jukir-1", Shift: models.ShiftMorning, Amount: 0,
	})
	if !apperr.Is(err, apperr.ErrInvalid) {
		t.Errorf("Expected INVALID_INPUT for zero amount, got %v", err)
	}
	if e.Pending() != 0 {
		t.Error("Rejected save must not enqueue anything")
	}
}

func TestSaveSurfacesQuotaFailureSynchronously(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "setoran_sync_quota_*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	kv, err := store.Open(tmpDir, 32)
	if err != nil {
		t.Fatalf("store.Open failed: %v", err)
	}
	defer kv.Close()

	e := NewEngine(queue.New(kv), &fakeSubmitter{}, photo.NewCodec())

	_, err = e.Save(context.Background(), models.DepositRecord{
		CollectorRef: "jukir-1", CollectorName: "Pak Budi",
		Shift: models.ShiftMorning, StreetName: "Sekartejo", Amount: 5000,
	})
	if !apperr.Is(err, apperr.ErrQuotaExceeded) {
		t.Fatalf("Expected QUOTA_EXCEEDED, got %v", err)
	}
	if e.Pending() != 0 {
		t.Error("Pending count must not move on a quota failure")
	}
}
