package board

// JobKind enumerates the request types a participant can queue.
type JobKind string

const (
	// KindConfirmation asks the admin to confirm a finished task.
	KindConfirmation JobKind = "confirmation"
	// KindQuestion asks the admin for help with a question.
	KindQuestion JobKind = "question"
)

// Job is one pending request in the queue, owned by a single participant.
type Job struct {
	ID        string      `json:"id"`
	Owner     Participant `json:"owner"`
	Kind      JobKind     `json:"kind"`
	CreatedAt int64       `json:"created_at"`
}
