package handler

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-essay/internal/lifecycle"
	"github.com/stemsi/exstem-essay/internal/service"
)

// blockingPhases answers the connect lookup, then blocks every later lookup
// until its context is cancelled.
type blockingPhases struct {
	calls     int32
	entered   chan struct{}
	cancelled chan struct{}
}

func (b *blockingPhases) GetWriterPhase(ctx context.Context, _, _ int64, _ time.Time) (*lifecycle.PhaseState, error) {
	if atomic.AddInt32(&b.calls, 1) == 1 {
		return &lifecycle.PhaseState{Phase: lifecycle.PhaseWriting, CanWrite: true}, nil
	}
	close(b.entered)
	<-ctx.Done()
	close(b.cancelled)
	return nil, ctx.Err()
}

func TestWSHandler_RefreshCancelledOnDisconnect(t *testing.T) {
	phases := &blockingPhases{entered: make(chan struct{}), cancelled: make(chan struct{})}
	h := NewWSHandler(phases, time.Hour, zerolog.Nop(), nil)

	r := gin.New()
	r.GET("/tasks/:task_id/phase",
		withClaims(&service.Claims{TokenType: service.TokenTypeWriter, UserID: 42}),
		h.PhaseStream,
	)
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/tasks/10/phase"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	var event struct {
		Event string `json:"event"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&event); err != nil || event.Event != "phase" {
		t.Fatalf("first event = %+v, err %v", event, err)
	}

	if err := conn.WriteJSON(map[string]string{"action": "refresh"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	select {
	case <-phases.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("refresh never reached the phase source")
	}

	conn.Close()

	select {
	case <-phases.cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("refresh lookup was not cancelled after the client left")
	}
}
