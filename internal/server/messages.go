// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package server

// Control-message payloads are JSON-encoded, matching the encoding choice
// internal/bus already makes for cross-module events (spec §4.1 only fixes
// the 2-byte-type/4-byte-length framing, not the payload codec).

// VersionPayload is the Version message body.
type VersionPayload struct {
	ClientVersion string `json:"client_version"`
}

// AuthenticatePayload is the Authenticate message body.
type AuthenticatePayload struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	CertHash        string `json:"cert_hash,omitempty"`
	GridLocator     string `json:"grid_locator,omitempty"`
	AutoRegister    bool   `json:"auto_register,omitempty"`
}

// RejectPayload is the Reject message body.
type RejectPayload struct {
	Reason string `json:"reason"`
}

// ServerSyncPayload is the ServerSync message body sent on successful
// authentication, carrying the assigned session id.
type ServerSyncPayload struct {
	SessionID   uint32 `json:"session_id"`
	WelcomeText string `json:"welcome_text"`
	MaxUsers    int    `json:"max_users"`
}

// CryptSetupPayload is the CryptSetup message body, sent once per
// authenticated connection (spec §4.1) to establish the AES-GCM record
// layer protecting that session's voice-packet stream. Key, ClientNonce
// and ServerNonce are raw bytes; JSON carries them base64-encoded via the
// []byte default marshaling.
type CryptSetupPayload struct {
	Key         []byte `json:"key"`
	ClientNonce []byte `json:"client_nonce"`
	ServerNonce []byte `json:"server_nonce"`
}

// PingPayload is the bidirectional liveness message body.
type PingPayload struct {
	Timestamp int64 `json:"timestamp"`
}

// ChannelStatePayload mirrors one channel's visible state, pushed on join
// and on structural change.
type ChannelStatePayload struct {
	ChannelID uint   `json:"channel_id"`
	Name      string `json:"name"`
	ParentID  uint   `json:"parent_id"`
	Removed   bool   `json:"removed,omitempty"`
}

// UserStatePayload mirrors one user's visible state: channel occupancy and
// mute/deafen flags.
type UserStatePayload struct {
	SessionID      uint32 `json:"session_id"`
	UserID         uint   `json:"user_id"`
	ChannelID      uint   `json:"channel_id"`
	ServerDeafened bool   `json:"server_deafened,omitempty"`
	Left           bool   `json:"left,omitempty"`
}

// TextMessagePayload is a chat message, routed to a channel or a set of
// sessions.
type TextMessagePayload struct {
	SessionIDs []uint32 `json:"session_ids,omitempty"`
	ChannelID  uint     `json:"channel_id,omitempty"`
	Text       string   `json:"text"`
}

// PermissionDeniedPayload explains why an operation was refused; the
// session survives (spec §4.1: "session survives" on permission failure).
type PermissionDeniedPayload struct {
	Reason string `json:"reason"`
}

// VoiceTargetPayload registers a whisper-target slot (1..30) with the set
// of sessions/channels/groups it resolves to.
type VoiceTargetPayload struct {
	Slot     uint8             `json:"slot"`
	Sessions []uint32          `json:"sessions,omitempty"`
	Channels []VoiceTargetChan `json:"channels,omitempty"`
	Groups   []string          `json:"groups,omitempty"`
}

// VoiceTargetChan is one channel entry of a VoiceTargetPayload.
type VoiceTargetChan struct {
	ChannelID uint `json:"channel_id"`
	Recursive bool `json:"recursive,omitempty"`
}
