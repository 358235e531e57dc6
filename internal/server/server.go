// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

// Package server runs the TCP control-plane listener and UDP voice
// listener of spec §4.1: it terminates connections, drives the handshake
// state machine against internal/session, and dispatches voice packets
// into internal/voice's routing fabric.
package server

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/ionovox/server/internal/auth"
	"github.com/ionovox/server/internal/channel"
	"github.com/ionovox/server/internal/config"
	"github.com/ionovox/server/internal/notify"
	"github.com/ionovox/server/internal/session"
	"github.com/ionovox/server/internal/store"
	"github.com/ionovox/server/internal/voice"
)

// Server owns the listening sockets and the live session/channel state they
// feed into.
type Server struct {
	cfg      config.Server
	store    store.Store
	channels *channel.Manager
	sessions *session.Registry
	router   *voice.Router
	breach   *auth.BreachChecker
	notifier *notify.Sender

	controlListener net.Listener
	voiceConn       *net.UDPConn

	// conns maps a session id to its live control connection, so that
	// modules acting on a session id (text messages, kicks, roster pushes)
	// can reach its writer without threading a net.Conn through them.
	conns *xsync.Map[uint32, *conn]

	wg sync.WaitGroup
}

// Deps bundles Server's constructor dependencies.
type Deps struct {
	Config   config.Server
	Store    store.Store
	Channels *channel.Manager
	Sessions *session.Registry
	Router   *voice.Router
	Breach   *auth.BreachChecker
	Notifier *notify.Sender
}

// New constructs a Server bound to deps. Listening sockets are not opened
// until Run is called.
func New(deps Deps) *Server {
	return &Server{
		cfg:        deps.Config,
		store:      deps.Store,
		channels:   deps.Channels,
		sessions:   deps.Sessions,
		router:     deps.Router,
		breach:     deps.Breach,
		notifier:   deps.Notifier,
		conns: xsync.NewMap[uint32, *conn](),
	}
}

// Run opens the control and voice sockets and serves until ctx is
// cancelled or an unrecoverable listen error occurs.
func (s *Server) Run(ctx context.Context) error {
	tlsConfig, err := serverTLSConfig(s.cfg.TLSCertFile, s.cfg.TLSKeyFile)
	if err != nil {
		return err
	}

	controlAddr := fmt.Sprintf("%s:%d", s.cfg.ListenAddress, s.cfg.ControlPort)
	tcpLn, err := net.Listen("tcp", controlAddr)
	if err != nil {
		return fmt.Errorf("server: listen control %s: %w", controlAddr, err)
	}
	// The control connection is terminated as TLS (spec §4.1: "terminate
	// encrypted control connections"); the voice-packet record layer below
	// CryptSetup is a separate AES-GCM layer over UDP, which TLS does not
	// reach.
	s.controlListener = tls.NewListener(tcpLn, tlsConfig)

	voiceAddr := fmt.Sprintf("%s:%d", s.cfg.ListenAddress, s.cfg.EffectiveVoicePort())
	udpAddr, err := net.ResolveUDPAddr("udp", voiceAddr)
	if err != nil {
		_ = s.controlListener.Close()
		return fmt.Errorf("server: resolve voice addr %s: %w", voiceAddr, err)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		_ = s.controlListener.Close()
		return fmt.Errorf("server: listen voice %s: %w", voiceAddr, err)
	}
	s.voiceConn = conn

	slog.InfoContext(ctx, "server listening", "control", controlAddr, "voice", voiceAddr)

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		s.acceptLoop(ctx)
	}()
	go func() {
		defer s.wg.Done()
		s.voiceLoop(ctx)
	}()

	<-ctx.Done()
	return s.Close()
}

// Close shuts down both sockets and waits for their service goroutines to
// exit.
func (s *Server) Close() error {
	var firstErr error
	if s.controlListener != nil {
		if err := s.controlListener.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.voiceConn != nil {
		if err := s.voiceConn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.wg.Wait()
	return firstErr
}

func (s *Server) acceptLoop(ctx context.Context) {
	for {
		conn, err := s.controlListener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.WarnContext(ctx, "accept failed", "error", err)
			continue
		}
		if s.sessions.Count() >= s.cfg.MaxUsers && s.cfg.MaxUsers > 0 {
			_ = conn.Close()
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.ServeConn(ctx, conn)
		}()
	}
}

// ServeConn runs the control-connection handshake and message loop over an
// already-accepted connection. Exported so a caller providing its own
// listener (a test harness, or a plain net.Conn already wrapped by
// something other than Run's own tls.Listener) can hand connections to the
// server without going through acceptLoop.
func (s *Server) ServeConn(ctx context.Context, nc net.Conn) {
	s.handleConn(ctx, nc)
}

func (s *Server) idleTimeout() time.Duration {
	if s.cfg.Timeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.cfg.Timeout) * time.Second
}
