// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package server_test

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ionovox/server/internal/channel"
	"github.com/ionovox/server/internal/config"
	"github.com/ionovox/server/internal/protocol"
	"github.com/ionovox/server/internal/server"
	"github.com/ionovox/server/internal/session"
	"github.com/ionovox/server/internal/store/memstore"
	"github.com/ionovox/server/internal/voice"
)

func newTestServer(t *testing.T) *server.Server {
	t.Helper()
	backing := memstore.New()
	mgr, err := channel.New(context.Background(), backing, nil)
	require.NoError(t, err)
	reg, err := session.NewRegistry()
	require.NoError(t, err)
	router := voice.NewRouter(voice.Config{Channels: mgr, Sessions: reg, Groups: backing.Groups()})

	return server.New(server.Deps{
		Config: config.Server{
			Timeout:      30,
			MaxUsers:     10,
			WelcomeText:  "welcome",
			AutoRegister: true,
		},
		Store:    backing,
		Channels: mgr,
		Sessions: reg,
		Router:   router,
	})
}

func writeMessage(t *testing.T, c net.Conn, typ protocol.MessageType, payload any) {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, protocol.WriteFrame(c, protocol.Frame{Type: typ, Payload: data}))
}

// readUntil reads frames until one of the given types is seen, decoding
// that frame's payload into into and returning its type. Frames of other
// types are read and discarded (the roster push ahead of ServerSync).
func readUntil(t *testing.T, c net.Conn, into any, want ...protocol.MessageType) protocol.MessageType {
	t.Helper()
	for {
		frame, err := protocol.ReadFrame(c)
		require.NoError(t, err)
		for _, w := range want {
			if frame.Type == w {
				require.NoError(t, json.Unmarshal(frame.Payload, into))
				return frame.Type
			}
		}
	}
}

func TestHandshakeAuthenticatesAndRegisters(t *testing.T) {
	s := newTestServer(t)
	client, serverSide := net.Pipe()
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.ServeConn(ctx, serverSide)

	writeMessage(t, client, protocol.Version, server.VersionPayload{ClientVersion: "test/1.0"})
	writeMessage(t, client, protocol.Authenticate, server.AuthenticatePayload{
		Username: "w1aw", Password: "correct horse battery staple", AutoRegister: true, GridLocator: "FN42",
	})

	var sync server.ServerSyncPayload
	readUntil(t, client, &sync, protocol.ServerSync)

	assert.NotZero(t, sync.SessionID)
	assert.Equal(t, "welcome", sync.WelcomeText)
}

func TestPingEchoesTimestamp(t *testing.T) {
	s := newTestServer(t)
	client, serverSide := net.Pipe()
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.ServeConn(ctx, serverSide)

	writeMessage(t, client, protocol.Version, server.VersionPayload{ClientVersion: "test/1.0"})
	writeMessage(t, client, protocol.Ping, server.PingPayload{Timestamp: 42})

	var ping server.PingPayload
	typ := readUntil(t, client, &ping, protocol.Ping)
	require.Equal(t, protocol.Ping, typ)
	assert.Equal(t, int64(42), ping.Timestamp)
}

func TestUnversionedMessageClosesConnection(t *testing.T) {
	s := newTestServer(t)
	client, serverSide := net.Pipe()
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.ServeConn(ctx, serverSide)

	writeMessage(t, client, protocol.Authenticate, server.AuthenticatePayload{Username: "w1aw"})

	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, err := protocol.ReadFrame(client)
	assert.Error(t, err, "server must close the connection on a handshake protocol violation")
}
