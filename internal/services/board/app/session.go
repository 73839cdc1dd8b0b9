package server

import (
	"encoding/json"
	"sync"

	"github.com/tkondo/handraise/internal/board"
)

type wsFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type wsPeer struct {
	mu      sync.Mutex
	encoder *json.Encoder
}

func newWSPeer(encoder *json.Encoder) *wsPeer {
	return &wsPeer{encoder: encoder}
}

func (p *wsPeer) writeFrame(frame wsFrame) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.encoder.Encode(frame)
}

// wsSession binds one connection to at most one identity. It starts
// anonymous; a successful join or joinAdmin binds it for the rest of the
// connection's life.
type wsSession struct {
	mu       sync.Mutex
	identity *board.Participant
	peer     *wsPeer
}

func newWSSession(peer *wsPeer) *wsSession {
	return &wsSession{peer: peer}
}

// bind attaches an identity to an anonymous session. It reports false,
// leaving the session unchanged, when an identity is already bound.
func (s *wsSession) bind(identity board.Participant) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity != nil {
		return false
	}
	s.identity = &identity
	return true
}

func (s *wsSession) current() (board.Participant, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return board.Participant{}, false
	}
	return *s.identity, true
}

// sessionHub tracks every live connection for broadcast fan-out.
type sessionHub struct {
	mu    sync.Mutex
	peers map[*wsPeer]struct{}
}

func newSessionHub() *sessionHub {
	return &sessionHub{peers: make(map[*wsPeer]struct{})}
}

func (h *sessionHub) add(peer *wsPeer) {
	h.mu.Lock()
	h.peers[peer] = struct{}{}
	h.mu.Unlock()
}

func (h *sessionHub) remove(peer *wsPeer) {
	h.mu.Lock()
	delete(h.peers, peer)
	h.mu.Unlock()
}

// broadcastExcept delivers a frame to every live peer except sender.
// Pass a nil sender to reach everyone.
func (h *sessionHub) broadcastExcept(sender *wsPeer, frame wsFrame) {
	h.mu.Lock()
	peers := make([]*wsPeer, 0, len(h.peers))
	for peer := range h.peers {
		if peer == sender {
			continue
		}
		peers = append(peers, peer)
	}
	h.mu.Unlock()

	for _, peer := range peers {
		_ = peer.writeFrame(frame)
	}
}
