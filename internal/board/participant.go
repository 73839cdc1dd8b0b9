package board

import (
	"fmt"
	"strings"

	"github.com/tkondo/handraise/internal/platform/id"
)

// Role tags a connected identity with its permitted operations.
type Role string

const (
	// RoleParticipant can hold at most one pending job and cancel only it.
	RoleParticipant Role = "participant"
	// RoleAdmin can toggle intake and cancel any job, but never owns one.
	RoleAdmin Role = "admin"
)

// Participant is a connected identity on the board.
type Participant struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
	Role Role   `json:"role"`
}

// IsAdmin reports whether the participant holds the admin role.
func (p Participant) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// NewAdmin creates an admin identity. Admins are never added to the
// registry and do not count toward the participant total.
func NewAdmin() (Participant, error) {
	adminID, err := id.NewID()
	if err != nil {
		return Participant{}, fmt.Errorf("allocate admin id: %w", err)
	}
	return Participant{ID: adminID, Role: RoleAdmin}, nil
}

func newParticipant(name string) (Participant, error) {
	participantID, err := id.NewID()
	if err != nil {
		return Participant{}, fmt.Errorf("allocate participant id: %w", err)
	}
	return Participant{
		ID:   participantID,
		Name: strings.TrimSpace(name),
		Role: RoleParticipant,
	}, nil
}
