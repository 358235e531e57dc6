// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/ionovox/server/internal/apperror"
	"github.com/ionovox/server/internal/auth"
	"github.com/ionovox/server/internal/db/models"
	"github.com/ionovox/server/internal/protocol"
	"github.com/ionovox/server/internal/session"
	"github.com/ionovox/server/internal/voice"
)

// conn is one accepted control connection: the transport plus a write
// mutex, since the handshake goroutine, the idle-timer goroutine, and
// broadcast fan-out can all write concurrently.
type conn struct {
	net.Conn
	writeMu sync.Mutex
}

func (c *conn) writeFrame(f protocol.Frame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return protocol.WriteFrame(c, f)
}

func (c *conn) writeMessage(t protocol.MessageType, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("server: encode %s payload: %w", t, err)
	}
	return c.writeFrame(protocol.Frame{Type: t, Payload: data})
}

func (s *Server) handleConn(ctx context.Context, nc net.Conn) {
	c := &conn{Conn: nc}
	defer func() { _ = c.Close() }()

	sess := s.sessions.Open(nc.RemoteAddr())
	s.conns.Store(sess.ID, c)
	defer func() {
		s.conns.Delete(sess.ID)
		s.router.CloseSpeaker(sess.ID)
		s.channels.LeaveAll(sess.ID)
		s.sessions.Remove(sess.ID)
	}()

	done := make(chan struct{})
	defer close(done)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.watchIdle(ctx, c, sess, done)
	}()

	for {
		frame, err := protocol.ReadFrame(c)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				slog.DebugContext(ctx, "control connection closed", "session", sess.ID, "error", err)
			}
			return
		}
		sess.Touch()
		if err := s.dispatch(ctx, c, sess, frame); err != nil {
			if apperror.KindOf(err) == apperror.KindPermission {
				_ = c.writeMessage(protocol.PermissionDenied, PermissionDeniedPayload{Reason: err.Error()})
				continue
			}
			slog.DebugContext(ctx, "closing connection after error", "session", sess.ID, "error", err)
			return
		}
		if sess.IsClosed() {
			return
		}
	}
}

func (s *Server) watchIdle(ctx context.Context, c *conn, sess *session.Session, done <-chan struct{}) {
	timeout := s.idleTimeout()
	ticker := time.NewTicker(timeout / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case <-ticker.C:
			if sess.Idle() > timeout {
				_ = c.writeMessage(protocol.Reject, RejectPayload{Reason: "timeout"})
				sess.Close()
				_ = c.Close()
				return
			}
		}
	}
}

func (s *Server) dispatch(ctx context.Context, c *conn, sess *session.Session, frame protocol.Frame) error {
	switch frame.Type {
	case protocol.Version:
		var p VersionPayload
		if err := json.Unmarshal(frame.Payload, &p); err != nil {
			return apperror.Wrap(apperror.KindProtocol, "decode version payload", err)
		}
		return sess.HandleVersion(p.ClientVersion)

	case protocol.Authenticate:
		var p AuthenticatePayload
		if err := json.Unmarshal(frame.Payload, &p); err != nil {
			return apperror.Wrap(apperror.KindProtocol, "decode authenticate payload", err)
		}
		return s.handleAuthenticate(ctx, c, sess, p)

	case protocol.Ping:
		var p PingPayload
		_ = json.Unmarshal(frame.Payload, &p)
		return c.writeMessage(protocol.Ping, PingPayload{Timestamp: p.Timestamp})

	case protocol.VoiceTarget:
		if sess.State() != session.StateAuthenticated {
			return apperror.New(apperror.KindProtocol, "voice target requires an authenticated session")
		}
		var p VoiceTargetPayload
		if err := json.Unmarshal(frame.Payload, &p); err != nil {
			return apperror.Wrap(apperror.KindProtocol, "decode voice target payload", err)
		}
		return s.handleVoiceTarget(sess, p)

	case protocol.TextMessage:
		if sess.State() != session.StateAuthenticated {
			return apperror.New(apperror.KindProtocol, "text message requires an authenticated session")
		}
		var p TextMessagePayload
		if err := json.Unmarshal(frame.Payload, &p); err != nil {
			return apperror.Wrap(apperror.KindProtocol, "decode text message payload", err)
		}
		return s.handleTextMessage(ctx, sess, p)

	case protocol.UDPTunnel:
		if sess.State() != session.StateAuthenticated {
			return apperror.New(apperror.KindProtocol, "voice requires an authenticated session")
		}
		s.handleVoicePacket(ctx, sess, frame.Payload)
		return nil

	default:
		// Unrecognized-but-well-framed control messages are ignored rather
		// than treated as fatal, per spec §4.1's closed enumeration only
		// binding the *fixed* types; unused slots are reserved.
		return nil
	}
}

func (s *Server) handleAuthenticate(ctx context.Context, c *conn, sess *session.Session, p AuthenticatePayload) error {
	if err := sess.HandleAuthenticate(); err != nil {
		return err
	}

	user, err := s.store.Users().GetByName(ctx, p.Username)
	if err != nil {
		if p.AutoRegister && s.cfg.AutoRegister {
			user, err = s.registerUser(ctx, p)
		}
		if err != nil {
			return s.rejectAuth(c, sess, "no such user")
		}
	} else if !auth.VerifyPassword(p.Password, string(user.PasswordVerifier)) {
		return s.rejectAuth(c, sess, "incorrect credentials")
	}

	if err := sess.CompleteAuthentication(user.ID); err != nil {
		return err
	}
	s.sessions.IndexUser(user.ID, sess.ID)
	if p.GridLocator != "" {
		sess.SetGridLocator(p.GridLocator)
	}
	if listeningOnly, ok, _ := s.store.Properties().Get(ctx, user.ID, models.PropertyListeningOnlyFlag); ok && listeningOnly == "true" {
		sess.SetListeningOnly(true)
	}

	crypt, err := s.setupCrypt(sess)
	if err != nil {
		return fmt.Errorf("server: set up crypt state: %w", err)
	}
	if err := c.writeMessage(protocol.CryptSetup, CryptSetupPayload{
		Key:         crypt.Key,
		ClientNonce: crypt.ClientNonce,
		ServerNonce: crypt.ServerNonce,
	}); err != nil {
		return fmt.Errorf("server: send crypt setup: %w", err)
	}

	s.channels.JoinChannel(sess.ID, models.RootChannelID)
	sess.SetChannelID(models.RootChannelID)

	channels, err := s.store.Channels().List(ctx)
	if err != nil {
		return fmt.Errorf("server: list channels for roster: %w", err)
	}
	for _, ch := range channels {
		_ = c.writeMessage(protocol.ChannelState, ChannelStatePayload{
			ChannelID: ch.ID, Name: ch.Name, ParentID: ch.ParentID,
		})
	}
	s.sessions.Range(func(other *session.Session) bool {
		if other.State() != session.StateAuthenticated {
			return true
		}
		_ = c.writeMessage(protocol.UserState, UserStatePayload{
			SessionID: other.ID, UserID: other.UserID(), ChannelID: other.ChannelID(),
		})
		return true
	})

	return c.writeMessage(protocol.ServerSync, ServerSyncPayload{
		SessionID:   sess.ID,
		WelcomeText: s.cfg.WelcomeText,
		MaxUsers:    s.cfg.MaxUsers,
	})
}

// setupCrypt generates a fresh CryptSetup for sess and installs the
// resulting AES-GCM record-layer state on it, returning the key material
// to send the client (spec §4.1/§3).
func (s *Server) setupCrypt(sess *session.Session) (protocol.CryptSetupKeys, error) {
	setup, err := protocol.GenerateCryptSetup()
	if err != nil {
		return protocol.CryptSetupKeys{}, err
	}
	crypt, err := protocol.NewCryptState(setup.Key)
	if err != nil {
		return protocol.CryptSetupKeys{}, err
	}
	// ServerNonce seeds what the server transmits; ClientNonce seeds what
	// the server expects to receive back from this session.
	sess.SetCryptState(crypt, setup.ServerNonce, setup.ClientNonce)
	return setup, nil
}

func (s *Server) registerUser(ctx context.Context, p AuthenticatePayload) (models.User, error) {
	user, err := s.store.Users().Create(ctx, p.Username)
	if err != nil {
		return models.User{}, err
	}
	if p.Password != "" {
		verifier, err := auth.DeriveVerifier(p.Password)
		if err != nil {
			return models.User{}, err
		}
		if err := s.store.Users().SetPasswordVerifier(ctx, user.ID, []byte(verifier)); err != nil {
			return models.User{}, err
		}
		user.PasswordVerifier = []byte(verifier)
	}
	if s.notifier != nil {
		go func() {
			if email, ok, _ := s.store.Properties().Get(ctx, user.ID, models.PropertyEmail); ok && email != "" {
				_ = s.notifier.Registered(email, user.Name)
			}
		}()
	}
	return user, nil
}

func (s *Server) rejectAuth(c *conn, sess *session.Session, reason string) error {
	_ = c.writeMessage(protocol.Reject, RejectPayload{Reason: reason})
	return sess.FailAuthentication()
}

func (s *Server) handleVoiceTarget(sess *session.Session, p VoiceTargetPayload) error {
	if p.Slot == 0 || p.Slot > 30 {
		return apperror.New(apperror.KindValidation, "voice target slot must be in 1..30")
	}
	spec := voiceTargetSpec(p)
	s.router.RegisterTarget(sess.ID, p.Slot, spec)
	return nil
}

func (s *Server) handleTextMessage(ctx context.Context, from *session.Session, p TextMessagePayload) error {
	perm, err := s.channels.EffectivePermission(ctx, from.UserID(), from.ChannelID(), s.sessionGroups(ctx, from))
	if err != nil {
		return fmt.Errorf("server: evaluate text message permission: %w", err)
	}
	if perm&models.PermTextMessage == 0 {
		return apperror.New(apperror.KindPermission, "text message not permitted here")
	}

	targets := p.SessionIDs
	if len(targets) == 0 {
		targets = s.channels.Members(p.ChannelID)
	}
	for _, id := range targets {
		to, ok := s.sessions.Get(id)
		if !ok {
			continue
		}
		s.unicast(to, protocol.TextMessage, TextMessagePayload{Text: p.Text, ChannelID: p.ChannelID})
	}
	return nil
}

func (s *Server) sessionGroups(ctx context.Context, sess *session.Session) []string {
	var groups []string
	if admin, ok, _ := s.store.Properties().Get(ctx, sess.UserID(), models.PropertyAdminFlag); ok && admin == "true" {
		groups = append(groups, models.GroupAdmin)
	}
	temp, err := s.store.Groups().ForSession(ctx, sess.ID, sess.ChannelID())
	if err == nil {
		groups = append(groups, temp...)
	}
	return groups
}

// unicast best-effort writes a message to a session's control connection,
// looked up by id in the server's live connection registry. A session with
// no registered connection (already closing) is silently skipped.
func (s *Server) unicast(sess *session.Session, t protocol.MessageType, payload any) {
	c, ok := s.conns.Load(sess.ID)
	if !ok {
		return
	}
	_ = c.writeMessage(t, payload)
}

func voiceTargetSpec(p VoiceTargetPayload) voice.TargetSpec {
	spec := voice.TargetSpec{Sessions: p.Sessions, Groups: p.Groups}
	for _, ct := range p.Channels {
		spec.Channels = append(spec.Channels, voice.ChannelTarget{ChannelID: ct.ChannelID, Recursive: ct.Recursive})
	}
	return spec
}
