package board

import (
	"errors"
	"testing"
)

func registerTestParticipant(t *testing.T, b *Board, name string) Participant {
	t.Helper()
	participant, _, err := b.Register(name)
	if err != nil {
		t.Fatalf("register %s: %v", name, err)
	}
	return participant
}

func TestEnqueuePreservesArrivalOrder(t *testing.T) {
	b := New()
	alice := registerTestParticipant(t, b, "alice")
	bob := registerTestParticipant(t, b, "bob")
	carol := registerTestParticipant(t, b, "carol")

	for _, enqueue := range []struct {
		owner Participant
		kind  JobKind
	}{
		{alice, KindQuestion},
		{bob, KindConfirmation},
		{carol, KindQuestion},
	} {
		if _, _, err := b.Enqueue(enqueue.owner, enqueue.kind); err != nil {
			t.Fatalf("enqueue for %s: %v", enqueue.owner.Name, err)
		}
	}

	snapshot := b.Snapshot()
	if len(snapshot) != 3 {
		t.Fatalf("queue length = %d, want 3", len(snapshot))
	}
	wantOwners := []string{alice.ID, bob.ID, carol.ID}
	for i, job := range snapshot {
		if job.Owner.ID != wantOwners[i] {
			t.Fatalf("position %d owned by %q, want %q", i, job.Owner.ID, wantOwners[i])
		}
	}
}

func TestEnqueueRejectsSecondJobForSameOwner(t *testing.T) {
	b := New()
	alice := registerTestParticipant(t, b, "alice")

	first, _, err := b.Enqueue(alice, KindQuestion)
	if err != nil {
		t.Fatalf("first enqueue: %v", err)
	}
	if _, _, err := b.Enqueue(alice, KindConfirmation); !errors.Is(err, ErrAlreadyQueued) {
		t.Fatalf("second enqueue error = %v, want ErrAlreadyQueued", err)
	}

	snapshot := b.Snapshot()
	if len(snapshot) != 1 {
		t.Fatalf("queue length = %d, want 1", len(snapshot))
	}
	if snapshot[0].ID != first.ID || snapshot[0].Kind != KindQuestion {
		t.Fatalf("surviving job = %+v, want the first job", snapshot[0])
	}
}

func TestEnqueueRejectsAdmin(t *testing.T) {
	b := New()
	admin, err := NewAdmin()
	if err != nil {
		t.Fatalf("new admin: %v", err)
	}

	if _, _, err := b.Enqueue(admin, KindQuestion); !errors.Is(err, ErrAdminOwner) {
		t.Fatalf("admin enqueue error = %v, want ErrAdminOwner", err)
	}
	if got := len(b.Snapshot()); got != 0 {
		t.Fatalf("queue length = %d, want 0", got)
	}
}

func TestAdminCancelRemovesExactlyTheTargetJob(t *testing.T) {
	b := New()
	alice := registerTestParticipant(t, b, "alice")
	bob := registerTestParticipant(t, b, "bob")

	aliceJob, _, err := b.Enqueue(alice, KindQuestion)
	if err != nil {
		t.Fatalf("enqueue alice: %v", err)
	}
	bobJob, _, err := b.Enqueue(bob, KindConfirmation)
	if err != nil {
		t.Fatalf("enqueue bob: %v", err)
	}

	admin, err := NewAdmin()
	if err != nil {
		t.Fatalf("new admin: %v", err)
	}
	snapshot, removed := b.Cancel(admin, aliceJob.ID)
	if !removed {
		t.Fatal("expected admin cancel to remove the job")
	}
	if len(snapshot) != 1 || snapshot[0].ID != bobJob.ID {
		t.Fatalf("snapshot after cancel = %+v, want only bob's job", snapshot)
	}
}

func TestParticipantCancelIgnoresSuppliedID(t *testing.T) {
	b := New()
	alice := registerTestParticipant(t, b, "alice")
	bob := registerTestParticipant(t, b, "bob")

	aliceJob, _, err := b.Enqueue(alice, KindQuestion)
	if err != nil {
		t.Fatalf("enqueue alice: %v", err)
	}
	bobJob, _, err := b.Enqueue(bob, KindConfirmation)
	if err != nil {
		t.Fatalf("enqueue bob: %v", err)
	}

	// Alice supplies bob's job id; only her own entry may go.
	snapshot, removed := b.Cancel(alice, bobJob.ID)
	if !removed {
		t.Fatal("expected alice's own job to be removed")
	}
	if len(snapshot) != 1 || snapshot[0].ID != bobJob.ID {
		t.Fatalf("snapshot after cancel = %+v, want only bob's job", snapshot)
	}
	for _, job := range snapshot {
		if job.ID == aliceJob.ID {
			t.Fatal("alice's job survived her cancel")
		}
	}
}

func TestParticipantCancelWithoutPendingJobIsNoop(t *testing.T) {
	b := New()
	alice := registerTestParticipant(t, b, "alice")
	bob := registerTestParticipant(t, b, "bob")

	bobJob, _, err := b.Enqueue(bob, KindQuestion)
	if err != nil {
		t.Fatalf("enqueue bob: %v", err)
	}

	snapshot, removed := b.Cancel(alice, bobJob.ID)
	if removed {
		t.Fatal("cancel with no pending job should be a no-op")
	}
	if len(snapshot) != 1 {
		t.Fatalf("queue length = %d, want 1", len(snapshot))
	}
}

func TestAdminCancelUnknownIDIsNoop(t *testing.T) {
	b := New()
	alice := registerTestParticipant(t, b, "alice")
	if _, _, err := b.Enqueue(alice, KindQuestion); err != nil {
		t.Fatalf("enqueue alice: %v", err)
	}

	admin, err := NewAdmin()
	if err != nil {
		t.Fatalf("new admin: %v", err)
	}
	snapshot, removed := b.Cancel(admin, "missing-id")
	if removed {
		t.Fatal("cancel of unknown id should be a no-op")
	}
	if len(snapshot) != 1 {
		t.Fatalf("queue length = %d, want 1", len(snapshot))
	}
}

func TestLeaveRemovesRegistryEntryAndOwnedJob(t *testing.T) {
	b := New()
	alice := registerTestParticipant(t, b, "alice")
	bob := registerTestParticipant(t, b, "bob")

	if _, _, err := b.Enqueue(alice, KindQuestion); err != nil {
		t.Fatalf("enqueue alice: %v", err)
	}
	bobJob, _, err := b.Enqueue(bob, KindConfirmation)
	if err != nil {
		t.Fatalf("enqueue bob: %v", err)
	}

	count, snapshot, removed := b.Leave(alice.ID)
	if count != 1 {
		t.Fatalf("participant count = %d, want 1", count)
	}
	if !removed {
		t.Fatal("expected alice's job to be purged")
	}
	if len(snapshot) != 1 || snapshot[0].ID != bobJob.ID {
		t.Fatalf("snapshot after leave = %+v, want only bob's job", snapshot)
	}
}

func TestLeaveWithoutPendingJobOnlyDropsCount(t *testing.T) {
	b := New()
	alice := registerTestParticipant(t, b, "alice")
	registerTestParticipant(t, b, "bob")

	count, snapshot, removed := b.Leave(alice.ID)
	if count != 1 {
		t.Fatalf("participant count = %d, want 1", count)
	}
	if removed {
		t.Fatal("no job should have been purged")
	}
	if len(snapshot) != 0 {
		t.Fatalf("queue length = %d, want 0", len(snapshot))
	}
}

func TestPurgeOwnerRemovesOnlyThatOwnersJobs(t *testing.T) {
	b := New()
	alice := registerTestParticipant(t, b, "alice")
	bob := registerTestParticipant(t, b, "bob")

	if _, _, err := b.Enqueue(alice, KindQuestion); err != nil {
		t.Fatalf("enqueue alice: %v", err)
	}
	bobJob, _, err := b.Enqueue(bob, KindConfirmation)
	if err != nil {
		t.Fatalf("enqueue bob: %v", err)
	}

	snapshot, removed := b.PurgeOwner(alice.ID)
	if !removed {
		t.Fatal("expected alice's job to be purged")
	}
	if len(snapshot) != 1 || snapshot[0].ID != bobJob.ID {
		t.Fatalf("snapshot after purge = %+v, want only bob's job", snapshot)
	}

	if _, removed := b.PurgeOwner(alice.ID); removed {
		t.Fatal("second purge should be a no-op")
	}
}

func TestUnregisterAbsentParticipantIsNoop(t *testing.T) {
	b := New()
	registerTestParticipant(t, b, "alice")

	if count := b.Unregister("missing-id"); count != 1 {
		t.Fatalf("participant count = %d, want 1", count)
	}
}

func TestToggleIntakeFlips(t *testing.T) {
	b := New()
	if b.IntakeOpen() {
		t.Fatal("intake should start closed")
	}
	if !b.ToggleIntake() {
		t.Fatal("first toggle should open intake")
	}
	if b.ToggleIntake() {
		t.Fatal("second toggle should close intake")
	}
	if b.IntakeOpen() {
		t.Fatal("intake should be closed again")
	}
}

func TestRegisterReportsGrowingCount(t *testing.T) {
	b := New()
	for i, name := range []string{"alice", "bob", "carol"} {
		_, count, err := b.Register(name)
		if err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
		if count != i+1 {
			t.Fatalf("count after %s = %d, want %d", name, count, i+1)
		}
	}
	if got := b.ParticipantCount(); got != 3 {
		t.Fatalf("participant count = %d, want 3", got)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	b := New()
	alice := registerTestParticipant(t, b, "alice")
	if _, _, err := b.Enqueue(alice, KindQuestion); err != nil {
		t.Fatalf("enqueue alice: %v", err)
	}

	snapshot := b.Snapshot()
	snapshot[0].Kind = KindConfirmation
	if got := b.Snapshot()[0].Kind; got != KindQuestion {
		t.Fatalf("board job kind = %q after mutating a snapshot, want %q", got, KindQuestion)
	}
}
