// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

// Package websocket pushes live server events to connected admin
// dashboards, mirroring the ionospheric epoch, channel, and user state
// changes already published on the internal event bus.
package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/ionovox/server/internal/bus"
)

const bufferSize = 1024

var pushedTopics = []string{
	bus.TopicPropagationUpdated,
	bus.TopicChannelStateChanged,
	bus.TopicUserStateChanged,
}

// WSHandler upgrades /ws/admin connections and forwards bus events to
// them as JSON until the client disconnects.
type WSHandler struct {
	bus      *bus.Bus
	upgrader websocket.Upgrader
}

func CreateHandler(eventBus *bus.Bus) *WSHandler {
	return &WSHandler{
		bus: eventBus,
		upgrader: websocket.Upgrader{
			ReadBufferSize:    bufferSize,
			WriteBufferSize:   bufferSize,
			EnableCompression: true,
			CheckOrigin:       func(r *http.Request) bool { return true },
		},
	}
}

// event is the envelope every pushed message is wrapped in, so dashboard
// clients can dispatch on Topic without guessing the payload shape.
type event struct {
	Topic   string          `json:"topic"`
	Payload json.RawMessage `json:"payload"`
}

func (h *WSHandler) adminHandler(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket: upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	readFailed := make(chan struct{})
	go func() {
		defer close(readFailed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for _, topic := range pushedTopics {
		topic := topic
		h.bus.SubscribeFunc(ctx, topic, func(_ context.Context, data []byte) error {
			msg, err := json.Marshal(event{Topic: topic, Payload: data})
			if err != nil {
				return err
			}
			return conn.WriteMessage(websocket.TextMessage, msg)
		})
	}

	select {
	case <-ctx.Done():
	case <-readFailed:
	}
}

// ApplyRoutes mounts the admin dashboard push endpoint.
func (h *WSHandler) ApplyRoutes(r *gin.Engine, limiter gin.HandlerFunc) {
	r.GET("/ws/admin", limiter, func(c *gin.Context) {
		h.adminHandler(c.Request.Context(), c.Writer, c.Request)
	})
}
