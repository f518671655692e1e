package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-essay/internal/lifecycle"
	"github.com/stemsi/exstem-essay/internal/middleware"
	"github.com/stemsi/exstem-essay/internal/response"
	"github.com/stemsi/exstem-essay/internal/service"
	ws "github.com/stemsi/exstem-essay/internal/websocket"
)

type phaseSource interface {
	GetWriterPhase(ctx context.Context, taskID, userID int64, now time.Time) (*lifecycle.PhaseState, error)
}

// WSHandler streams the lifecycle phase of a writer over WebSocket.
type WSHandler struct {
	phases   phaseSource
	interval time.Duration
	now      func() time.Time
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(phases phaseSource, interval time.Duration, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &WSHandler{
		phases:   phases,
		interval: interval,
		now:      time.Now,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: ws.NewUpgrader(allowedOrigins),
	}
}

// PhaseStream godoc
// WS /ws/v1/writer/tasks/:task_id/phase
// Sends the phase state on connect and again whenever it changes. Clients
// may send {"action":"ping"} or {"action":"refresh"}.
func (h *WSHandler) PhaseStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	taskID, ok := int64Param(c, "task_id")
	if !ok {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	// Refuse before upgrading so the client gets a proper HTTP status.
	ctx := c.Request.Context()
	first, err := h.phases.GetWriterPhase(ctx, taskID, claims.UserID, h.now())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTaskNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrNotEnrolled):
			response.Fail(c, http.StatusForbidden, response.ErrNotEnrolled)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Int64("user_id", claims.UserID).
		Int64("task_id", taskID).
		Logger()
	wsLog.Info().Msg("Writer connected to phase stream")

	// Torn down with the socket, so reads in flight stop when the client leaves.
	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	actions := make(chan ws.Action, 4)
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		defer cancel()
		for {
			var msg ws.RequestEnvelope
			if err := ws.ReadJSON(conn, &msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					wsLog.Warn().Err(err).Msg("Unexpected close")
				}
				return
			}
			select {
			case actions <- msg.Action:
			default:
			}
		}
	}()

	var last []byte
	push := func(state *lifecycle.PhaseState, force bool) error {
		encoded, err := json.Marshal(state)
		if err != nil {
			return err
		}
		if !force && string(encoded) == string(last) {
			return nil
		}
		last = encoded
		return ws.WriteTyped(conn, ws.PhaseResponse{Event: ws.EventPhase, State: *state})
	}
	refresh := func(force bool) error {
		state, err := h.phases.GetWriterPhase(streamCtx, taskID, claims.UserID, h.now())
		if err != nil {
			wsLog.Error().Err(err).Msg("Phase refresh failed")
			return ws.WriteError(conn, "phase unavailable")
		}
		return push(state, force)
	}

	if err := push(first, true); err != nil {
		return
	}

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		var err error
		select {
		case <-closed:
			wsLog.Debug().Msg("Connection closed")
			return
		case <-ticker.C:
			err = refresh(false)
		case action := <-actions:
			switch action {
			case ws.ActionPing:
				err = ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
			case ws.ActionRefresh:
				err = refresh(true)
			default:
				err = ws.WriteError(conn, "unknown action: "+string(action))
			}
		}
		if err != nil {
			wsLog.Debug().Err(err).Msg("Write failed, closing stream")
			return
		}
	}
}
