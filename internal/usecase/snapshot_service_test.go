package usecase

import (
	"context"
	"testing"
	"time"
)

func TestSnapshot_PublishAndLatest(t *testing.T) {
	t.Parallel()

	store := newMemSnapshotStore()
	svc := NewSnapshotService(store, SnapshotConfig{Key: "test:last_run", TTL: time.Hour}, nil)

	_, ok, err := svc.Latest(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected no snapshot before first publish")
	}

	report := RunReport{
		State:          RunStateDone,
		QuotaRemaining: 55,
		Leagues:        []int{39},
		Registration:   RegistrationReport{Created: 2, CreatedIDs: []string{"100", "101"}},
		Settlement:     SettlementReport{Settled: 1, SettledIDs: []uint64{7}},
	}
	if err := svc.Publish(context.Background(), report); err != nil {
		t.Fatalf("unexpected publish error: %v", err)
	}

	got, ok, err := svc.Latest(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected snapshot after publish")
	}
	if got.QuotaRemaining != 55 || got.Registration.Created != 2 || got.Settlement.Settled != 1 {
		t.Fatalf("unexpected snapshot %+v", got)
	}
}
