package queue_test

import (
	"fmt"
	"testing"
	"time"

	"docket/internal/queue"
)

func TestAddAssignsPendingStatus(t *testing.T) {
	store := queue.NewStore()

	item, err := store.Add("item-1", "Invoice Scan", "/inbox/invoice.pdf")
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if item.Status != queue.StatusPending {
		t.Fatalf("expected pending status, got %s", item.Status)
	}
	if item.CreatedAt.IsZero() || item.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps to be assigned")
	}

	fetched, ok := store.Find("item-1")
	if !ok || fetched.Title != "Invoice Scan" {
		t.Fatalf("unexpected fetched item: %#v", fetched)
	}
}

func TestAddRejectsDuplicateAndEmptyIDs(t *testing.T) {
	store := queue.NewStore()

	if _, err := store.Add("item-1", "A", nil); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if _, err := store.Add("item-1", "B", nil); err != queue.ErrDuplicateID {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
	if _, err := store.Add("", "C", nil); err != queue.ErrEmptyID {
		t.Fatalf("expected ErrEmptyID, got %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 item, got %d", store.Len())
	}
}

func TestAllPreservesInsertionOrder(t *testing.T) {
	store := queue.NewStore()
	for i := 0; i < 5; i++ {
		if _, err := store.Add(fmt.Sprintf("item-%d", i), "", nil); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	items := store.All()
	if len(items) != 5 {
		t.Fatalf("expected 5 items, got %d", len(items))
	}
	for i, item := range items {
		if item.ID != fmt.Sprintf("item-%d", i) {
			t.Fatalf("expected item-%d at position %d, got %s", i, i, item.ID)
		}
	}
}

func TestUpdateStatusOnMissingIDIsNoOp(t *testing.T) {
	store := queue.NewStore()

	if _, ok := store.UpdateStatus("ghost", queue.StatusComplete, ""); ok {
		t.Fatal("expected update on missing id to report false")
	}
	if store.Len() != 0 {
		t.Fatalf("expected store untouched, got %d items", store.Len())
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	store := queue.NewStore()
	if _, err := store.Add("item-1", "", nil); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if !store.Remove("item-1") {
		t.Fatal("expected first removal to succeed")
	}
	if store.Remove("item-1") {
		t.Fatal("expected second removal to be a no-op")
	}
	if store.Remove("never-existed") {
		t.Fatal("expected removal of unknown id to be a no-op")
	}
}

func TestSnapshotUnaffectedByLaterMutation(t *testing.T) {
	store := queue.NewStore()
	if _, err := store.Add("item-1", "", nil); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	snapshot := store.All()
	if _, ok := store.UpdateStatus("item-1", queue.StatusUploading, ""); !ok {
		t.Fatal("UpdateStatus failed")
	}
	store.Remove("item-1")

	if len(snapshot) != 1 {
		t.Fatalf("expected old snapshot to keep its item, got %d", len(snapshot))
	}
	if snapshot[0].Status != queue.StatusPending {
		t.Fatalf("expected old snapshot to keep pending status, got %s", snapshot[0].Status)
	}
}

func TestTransitionStatusRequiresExpectedCurrent(t *testing.T) {
	store := queue.NewStore()
	if _, err := store.Add("item-1", "", nil); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	item, ok := store.TransitionStatus("item-1", queue.StatusPending, queue.StatusUploading)
	if !ok || item.Status != queue.StatusUploading {
		t.Fatalf("expected pending -> uploading transition, got ok=%v item=%#v", ok, item)
	}

	// A second claim of the same item must lose.
	if _, ok := store.TransitionStatus("item-1", queue.StatusPending, queue.StatusUploading); ok {
		t.Fatal("expected second pending -> uploading transition to fail")
	}
	if _, ok := store.TransitionStatus("ghost", queue.StatusPending, queue.StatusUploading); ok {
		t.Fatal("expected transition on missing id to fail")
	}
}

func TestMarkRetryIncrementsRetries(t *testing.T) {
	store := queue.NewStore()
	if _, err := store.Add("item-1", "", nil); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	store.UpdateStatus("item-1", queue.StatusExtracting, "")

	notBefore := time.Now().Add(time.Minute)
	item, ok := store.MarkRetry("item-1", "upstream timed out", notBefore)
	if !ok {
		t.Fatal("MarkRetry failed")
	}
	if item.Status != queue.StatusPending || item.Retries != 1 {
		t.Fatalf("expected pending with retries=1, got status=%s retries=%d", item.Status, item.Retries)
	}
	if item.ErrorMessage != "upstream timed out" {
		t.Fatalf("expected last failure preserved, got %q", item.ErrorMessage)
	}
	if !item.NotBefore.Equal(notBefore) {
		t.Fatalf("expected redispatch gate %v, got %v", notBefore, item.NotBefore)
	}

	// Claiming the item for its next attempt clears the gate.
	claimed, ok := store.TransitionStatus("item-1", queue.StatusPending, queue.StatusUploading)
	if !ok || !claimed.NotBefore.IsZero() {
		t.Fatalf("expected claim to clear gate, got ok=%v notBefore=%v", ok, claimed.NotBefore)
	}
}

func TestResetForRetryClearsRetryBudget(t *testing.T) {
	store := queue.NewStore()
	if _, err := store.Add("item-1", "", nil); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	store.MarkRetry("item-1", "boom", time.Now())
	store.MarkRetry("item-1", "boom", time.Now())
	store.UpdateStatus("item-1", queue.StatusError, "boom")

	item, ok := store.ResetForRetry("item-1")
	if !ok {
		t.Fatal("ResetForRetry failed")
	}
	if item.Status != queue.StatusPending || item.Retries != 0 || item.ErrorMessage != "" {
		t.Fatalf("expected clean pending item, got %#v", item)
	}
}

func TestResetForRetryRequiresSettledItem(t *testing.T) {
	store := queue.NewStore()
	if _, err := store.Add("item-1", "", nil); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if _, ok := store.ResetForRetry("item-1"); ok {
		t.Fatal("expected retry of a pending item to be refused")
	}
	store.UpdateStatus("item-1", queue.StatusExtracting, "")
	if _, ok := store.ResetForRetry("item-1"); ok {
		t.Fatal("expected retry of an in-flight item to be refused")
	}

	store.UpdateStatus("item-1", queue.StatusError, "boom")
	if _, ok := store.ResetForRetry("item-1"); !ok {
		t.Fatal("expected retry of a settled item to succeed")
	}
	if _, ok := store.ResetForRetry("ghost"); ok {
		t.Fatal("expected retry of unknown id to be refused")
	}
}

func TestActiveCountRecomputedFromSnapshot(t *testing.T) {
	store := queue.NewStore()
	for i := 0; i < 4; i++ {
		if _, err := store.Add(fmt.Sprintf("item-%d", i), "", nil); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}
	store.UpdateStatus("item-0", queue.StatusUploading, "")
	store.UpdateStatus("item-1", queue.StatusAnalyzing, "")
	store.UpdateStatus("item-2", queue.StatusExtracting, "")

	if got := store.ActiveCount(); got != 3 {
		t.Fatalf("expected 3 active, got %d", got)
	}

	store.UpdateStatus("item-1", queue.StatusComplete, "")
	if got := store.ActiveCount(); got != 2 {
		t.Fatalf("expected 2 active after completion, got %d", got)
	}
}

func TestStatsDerivedCounts(t *testing.T) {
	store := queue.NewStore()
	for i := 0; i < 6; i++ {
		if _, err := store.Add(fmt.Sprintf("item-%d", i), "", nil); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}
	store.UpdateStatus("item-0", queue.StatusUploading, "")
	store.UpdateStatus("item-1", queue.StatusExtracting, "")
	store.UpdateStatus("item-2", queue.StatusComplete, "")
	store.UpdateStatus("item-3", queue.StatusError, "failed for good")

	stats := store.Stats()
	want := queue.Stats{Total: 6, Pending: 2, Active: 2, Complete: 1, Error: 1}
	if stats != want {
		t.Fatalf("unexpected stats: got %+v want %+v", stats, want)
	}

	store.Clear()
	if stats := store.Stats(); stats != (queue.Stats{}) {
		t.Fatalf("expected zero stats after clear, got %+v", stats)
	}
}

func TestParseStatus(t *testing.T) {
	if status, ok := queue.ParseStatus(" Extracting "); !ok || status != queue.StatusExtracting {
		t.Fatalf("expected extracting, got %q ok=%v", status, ok)
	}
	if _, ok := queue.ParseStatus("ripping"); ok {
		t.Fatal("expected unknown status to fail parsing")
	}
	if _, ok := queue.ParseStatus(""); ok {
		t.Fatal("expected empty status to fail parsing")
	}
}
