// Package board holds the shared help-queue state: the registry of
// connected participants, the FIFO queue of pending jobs, and the intake
// flag. Everything lives behind a single mutex so every mutation and the
// snapshot it broadcasts are consistent with each other.
package board

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tkondo/handraise/internal/platform/id"
)

// ErrAlreadyQueued signals an enqueue by a participant that already owns
// a pending job. The queue is left unchanged.
var ErrAlreadyQueued = errors.New("participant already has a pending job")

// ErrAdminOwner signals an enqueue attempt by an admin identity.
var ErrAdminOwner = errors.New("admin identities cannot own jobs")

// Board is the process-wide queue state. Mutating methods return the
// post-mutation view captured under the same lock, so callers can
// broadcast without ever publishing a state that never existed.
type Board struct {
	mu           sync.Mutex
	participants []Participant
	jobs         []Job
	open         bool
}

// New creates an empty board with intake closed.
func New() *Board {
	return &Board{}
}

// Register creates a participant identity and adds it to the registry.
// It returns the participant and the registry size after the addition.
func (b *Board) Register(name string) (Participant, int, error) {
	participant, err := newParticipant(name)
	if err != nil {
		return Participant{}, 0, fmt.Errorf("register participant: %w", err)
	}

	b.mu.Lock()
	b.participants = append(b.participants, participant)
	count := len(b.participants)
	b.mu.Unlock()
	return participant, count, nil
}

// Unregister removes the matching registry entry and returns the new
// registry size. Removing an absent participant is a no-op: disconnect
// cleanup may race with other paths that already dropped the entry.
func (b *Board) Unregister(participantID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.unregisterLocked(participantID)
	return len(b.participants)
}

// ParticipantCount returns the number of registered participants. Admin
// identities are never registered and never counted.
func (b *Board) ParticipantCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.participants)
}

// Enqueue appends a job for owner at the queue tail and returns it with
// the queue snapshot taken after the append. It fails with
// ErrAlreadyQueued when the owner already has a pending job and with
// ErrAdminOwner for admin identities.
func (b *Board) Enqueue(owner Participant, kind JobKind) (Job, []Job, error) {
	if owner.IsAdmin() {
		return Job{}, nil, ErrAdminOwner
	}

	jobID, err := id.NewID()
	if err != nil {
		return Job{}, nil, fmt.Errorf("allocate job id: %w", err)
	}
	job := Job{
		ID:        jobID,
		Owner:     owner,
		Kind:      kind,
		CreatedAt: time.Now().UnixMilli(),
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, pending := range b.jobs {
		if pending.Owner.ID == owner.ID {
			return Job{}, nil, ErrAlreadyQueued
		}
	}
	b.jobs = append(b.jobs, job)
	return job, b.snapshotLocked(), nil
}

// Cancel removes a job on behalf of requester and returns the queue
// snapshot after the removal plus whether anything was removed.
//
// Admins remove the job matching jobID regardless of owner. Participants
// remove their own pending job, ignoring jobID entirely. Untouched
// entries keep their order.
func (b *Board) Cancel(requester Participant, jobID string) ([]Job, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	match := func(j Job) bool { return j.Owner.ID == requester.ID }
	if requester.IsAdmin() {
		match = func(j Job) bool { return j.ID == jobID }
	}

	removed := false
	kept := b.jobs[:0]
	for _, job := range b.jobs {
		if match(job) {
			removed = true
			continue
		}
		kept = append(kept, job)
	}
	b.jobs = kept
	return b.snapshotLocked(), removed
}

// PurgeOwner removes every job owned by the given participant. The
// one-job-per-participant invariant means at most one entry goes, but a
// full filter keeps the queue sane even if the invariant was violated.
func (b *Board) PurgeOwner(participantID string) ([]Job, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	removed := b.purgeOwnerLocked(participantID)
	return b.snapshotLocked(), removed
}

// Leave unregisters a participant and purges their jobs in one step, so
// the count and queue reported back reflect a single consistent state.
// It returns the registry size, the queue snapshot, and whether any job
// was removed.
func (b *Board) Leave(participantID string) (int, []Job, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.unregisterLocked(participantID)
	removed := b.purgeOwnerLocked(participantID)
	return len(b.participants), b.snapshotLocked(), removed
}

// Snapshot returns the pending jobs in arrival order.
func (b *Board) Snapshot() []Job {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshotLocked()
}

// ToggleIntake flips the intake flag and returns the new value. Callers
// enforce the admin check; clients only ever request a flip, never a
// direct assignment.
func (b *Board) ToggleIntake() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.open = !b.open
	return b.open
}

// IntakeOpen reports the current intake flag.
func (b *Board) IntakeOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open
}

func (b *Board) unregisterLocked(participantID string) {
	kept := b.participants[:0]
	for _, participant := range b.participants {
		if participant.ID == participantID {
			continue
		}
		kept = append(kept, participant)
	}
	b.participants = kept
}

func (b *Board) purgeOwnerLocked(participantID string) bool {
	removed := false
	kept := b.jobs[:0]
	for _, job := range b.jobs {
		if job.Owner.ID == participantID {
			removed = true
			continue
		}
		kept = append(kept, job)
	}
	b.jobs = kept
	return removed
}

func (b *Board) snapshotLocked() []Job {
	snapshot := make([]Job, len(b.jobs))
	copy(snapshot, b.jobs)
	return snapshot
}
