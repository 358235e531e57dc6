// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package websocket_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gorillaWS "github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/ionovox/server/internal/bus"
	"github.com/ionovox/server/internal/config"
	"github.com/ionovox/server/internal/http/websocket"
	"github.com/ionovox/server/internal/pubsub"
)

func setupTestServer(t *testing.T) (*httptest.Server, *bus.Bus) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()

	transport, err := pubsub.MakePubSub(t.Context(), &config.Config{})
	require.NoError(t, err)
	eventBus := bus.New(transport)

	handler := websocket.CreateHandler(eventBus)
	handler.ApplyRoutes(router, func(c *gin.Context) { c.Next() })

	return httptest.NewServer(router), eventBus
}

func dialWS(t *testing.T, serverURL string) *gorillaWS.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(serverURL, "http") + "/ws/admin"
	dialer := gorillaWS.Dialer{}
	header := http.Header{}
	header.Set("Origin", serverURL)
	conn, resp, err := dialer.Dial(wsURL, header)
	require.NoError(t, err)
	if resp != nil {
		_ = resp.Body.Close()
	}
	return conn
}

func TestAdminHandlerForwardsPropagationUpdates(t *testing.T) {
	t.Parallel()

	server, eventBus := setupTestServer(t)
	defer server.Close()

	conn := dialWS(t, server.URL)
	defer conn.Close()

	// Give the subscription goroutines a moment to attach before publishing.
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, eventBus.Publish(bus.TopicPropagationUpdated, bus.PropagationUpdated{
		Epoch: 7, SolarFluxIndex: 130, KIndex: 3,
	}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var got struct {
		Topic   string `json:"topic"`
		Payload struct {
			Epoch          uint64 `json:"epoch"`
			SolarFluxIndex int    `json:"solar_flux_index"`
			KIndex         int    `json:"k_index"`
		} `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(raw, &got))
	require.Equal(t, bus.TopicPropagationUpdated, got.Topic)
	require.Equal(t, uint64(7), got.Payload.Epoch)
	require.Equal(t, 130, got.Payload.SolarFluxIndex)
	require.Equal(t, 3, got.Payload.KIndex)
}

func TestAdminHandlerClosesOnClientDisconnect(t *testing.T) {
	t.Parallel()

	server, _ := setupTestServer(t)
	defer server.Close()

	conn := dialWS(t, server.URL)
	require.NoError(t, conn.Close())
}
