package server

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"sync"
	"time"

	"github.com/tkondo/handraise/internal/board"
	"golang.org/x/net/websocket"
)

const (
	maxFramePayloadBytes   = 16 * 1024
	maxFramesPerSecond     = 40
	maxDecodeErrorsPerConn = 3
)

const incorrectPasswordNotice = "Incorrect password. Please try again."

// boardApp routes inbound session requests to the shared board and fans
// the resulting state out to every connection. The dispatch mutex
// serializes each mutation together with its broadcast so no observer
// ever sees snapshots out of order.
type boardApp struct {
	dispatch      sync.Mutex
	board         *board.Board
	hub           *sessionHub
	adminPassword string
}

func newBoardApp(adminPassword string) *boardApp {
	return &boardApp{
		board:         board.New(),
		hub:           newSessionHub(),
		adminPassword: adminPassword,
	}
}

func (a *boardApp) handleConn(conn *websocket.Conn) {
	defer func() {
		_ = conn.Close()
	}()

	decoder := json.NewDecoder(conn)
	peer := newWSPeer(json.NewEncoder(conn))
	session := newWSSession(peer)

	a.connect(peer)
	defer a.disconnect(session)

	windowStart := time.Now()
	framesInWindow := 0
	decodeErrors := 0

	for {
		var frame wsFrame
		if err := decoder.Decode(&frame); err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			decodeErrors++
			log.Printf("board: drop malformed frame: %v", err)
			if decodeErrors >= maxDecodeErrorsPerConn {
				return
			}
			continue
		}
		decodeErrors = 0

		if len(frame.Payload) > maxFramePayloadBytes {
			log.Printf("board: drop oversized %q frame (%d bytes)", frame.Type, len(frame.Payload))
			continue
		}

		now := time.Now()
		if now.Sub(windowStart) >= time.Second {
			windowStart = now
			framesInWindow = 0
		}
		framesInWindow++
		if framesInWindow > maxFramesPerSecond {
			log.Printf("board: closing session exceeding %d frames/s", maxFramesPerSecond)
			return
		}

		switch frame.Type {
		case "join":
			a.handleJoin(session, frame)
		case "joinAdmin":
			a.handleJoinAdmin(session, frame)
		case "taskConfirmation":
			a.handleEnqueue(session, board.KindConfirmation)
		case "question":
			a.handleEnqueue(session, board.KindQuestion)
		case "toggleStatus":
			a.handleToggleStatus(session)
		case "cancel":
			a.handleCancel(session, frame)
		case "debug":
			log.Printf("board: debug: %s", string(frame.Payload))
		default:
			log.Printf("board: ignore unknown frame type %q", frame.Type)
		}
	}
}

// connect registers a new peer and sends the initial sync, so late
// joiners see the current queue and intake flag before any mutation.
func (a *boardApp) connect(peer *wsPeer) {
	a.dispatch.Lock()
	defer a.dispatch.Unlock()

	a.hub.add(peer)
	_ = peer.writeFrame(wsFrame{Type: "currentJobQueue", Payload: mustJSON(a.board.Snapshot())})
	_ = peer.writeFrame(wsFrame{Type: "currentStatus", Payload: mustJSON(a.board.IntakeOpen())})
}

// disconnect drops the peer and, for participant sessions, cleans up the
// registry entry and any pending job before notifying the remaining
// sessions. Admin and anonymous sessions leave no shared state behind.
func (a *boardApp) disconnect(session *wsSession) {
	a.dispatch.Lock()
	defer a.dispatch.Unlock()

	a.hub.remove(session.peer)

	identity, ok := session.current()
	if !ok || identity.IsAdmin() {
		return
	}

	count, snapshot, _ := a.board.Leave(identity.ID)
	a.hub.broadcastExcept(session.peer, wsFrame{Type: "updateUserCount", Payload: mustJSON(count)})
	a.hub.broadcastExcept(session.peer, wsFrame{Type: "updateJobQueue", Payload: mustJSON(snapshot)})
}

type joinPayload struct {
	Name string `json:"name"`
}

func (a *boardApp) handleJoin(session *wsSession, frame wsFrame) {
	var payload joinPayload
	if err := json.Unmarshal(frame.Payload, &payload); err != nil {
		log.Printf("board: drop invalid join payload: %v", err)
		return
	}

	a.dispatch.Lock()
	defer a.dispatch.Unlock()

	if _, bound := session.current(); bound {
		log.Printf("board: ignore join from already-bound session")
		return
	}

	participant, count, err := a.board.Register(payload.Name)
	if err != nil {
		log.Printf("board: register participant: %v", err)
		return
	}
	session.bind(participant)

	_ = session.peer.writeFrame(wsFrame{Type: "completedJoin", Payload: mustJSON(participant)})
	a.hub.broadcastExcept(session.peer, wsFrame{Type: "updateUserCount", Payload: mustJSON(count)})
}

type joinAdminPayload struct {
	Password string `json:"password"`
}

func (a *boardApp) handleJoinAdmin(session *wsSession, frame wsFrame) {
	var payload joinAdminPayload
	if err := json.Unmarshal(frame.Payload, &payload); err != nil {
		log.Printf("board: drop invalid joinAdmin payload: %v", err)
		return
	}

	a.dispatch.Lock()
	defer a.dispatch.Unlock()

	if _, bound := session.current(); bound {
		log.Printf("board: ignore joinAdmin from already-bound session")
		return
	}

	// A wrong secret leaves the session anonymous so it can retry.
	if payload.Password != a.adminPassword {
		_ = session.peer.writeFrame(wsFrame{Type: "faildJoin", Payload: mustJSON(incorrectPasswordNotice)})
		return
	}

	admin, err := board.NewAdmin()
	if err != nil {
		log.Printf("board: create admin identity: %v", err)
		return
	}
	session.bind(admin)

	_ = session.peer.writeFrame(wsFrame{Type: "completedJoin", Payload: mustJSON(admin)})
}

func (a *boardApp) handleEnqueue(session *wsSession, kind board.JobKind) {
	a.dispatch.Lock()
	defer a.dispatch.Unlock()

	identity, ok := session.current()
	if !ok || identity.IsAdmin() {
		return
	}

	_, snapshot, err := a.board.Enqueue(identity, kind)
	if err != nil {
		if errors.Is(err, board.ErrAlreadyQueued) || errors.Is(err, board.ErrAdminOwner) {
			return
		}
		log.Printf("board: enqueue %s: %v", kind, err)
		return
	}

	a.hub.broadcastExcept(session.peer, wsFrame{Type: "updateJobQueue", Payload: mustJSON(snapshot)})
}

func (a *boardApp) handleToggleStatus(session *wsSession) {
	a.dispatch.Lock()
	defer a.dispatch.Unlock()

	identity, ok := session.current()
	if !ok || !identity.IsAdmin() {
		return
	}

	open := a.board.ToggleIntake()
	a.hub.broadcastExcept(session.peer, wsFrame{Type: "updateStatus", Payload: mustJSON(open)})
}

type cancelPayload struct {
	JobID string `json:"job_id"`
}

func (a *boardApp) handleCancel(session *wsSession, frame wsFrame) {
	var payload cancelPayload
	if err := json.Unmarshal(frame.Payload, &payload); err != nil {
		log.Printf("board: drop invalid cancel payload: %v", err)
		return
	}

	a.dispatch.Lock()
	defer a.dispatch.Unlock()

	identity, ok := session.current()
	if !ok {
		return
	}

	snapshot, removed := a.board.Cancel(identity, payload.JobID)
	if !removed {
		return
	}

	a.hub.broadcastExcept(session.peer, wsFrame{Type: "updateJobQueue", Payload: mustJSON(snapshot)})
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		log.Printf("failed to marshal websocket frame payload: %v", err)
		return nil
	}
	return b
}
