package websocket

import "github.com/stemsi/exstem-essay/internal/lifecycle"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing    Action = "ping"
	ActionRefresh Action = "refresh"
)

// RequestEnvelope is the only message shape clients send.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError Event = "error"
	EventPhase Event = "phase"
	EventPong  Event = "pong"
)

// PhaseResponse carries the writer's current phase state. It is sent on
// connect, whenever the state changes and on an explicit refresh.
type PhaseResponse struct {
	Event Event                `json:"event"`
	State lifecycle.PhaseState `json:"state"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
