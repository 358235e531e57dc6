// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

// Package protocol is the wire format of spec §4.1/§6: control-plane
// framing (2-byte type, 4-byte length, length-prefixed payload) and the
// voice-packet header (3-bit type, 5-bit target packed into one byte).
// Type and field numbers are fixed for wire compatibility and must never be
// renumbered.
package protocol

import "fmt"

// MessageType is the control-plane message-type tag, a closed enumeration
// per spec §4.1. Numeric values are part of the wire format.
type MessageType uint16

const (
	Version MessageType = iota
	Authenticate
	Ping
	Reject
	ServerSync
	ChannelRemove
	ChannelState
	UserRemove
	UserState
	BanList
	TextMessage
	PermissionDenied
	ACL
	QueryUsers
	CryptSetup
	ContextActionModify
	ContextAction
	UserList
	VoiceTarget
	PermissionQuery
	CodecVersion
	UserStats
	RequestBlob
	ServerConfig
	SuggestConfig
	PluginDataTransmission
	ChannelListener
	HFBandSimulationUpdate
	SignalQualityUpdate
	PropagationUpdate
	UDPTunnel
)

var messageTypeNames = [...]string{
	"Version", "Authenticate", "Ping", "Reject", "ServerSync",
	"ChannelRemove", "ChannelState", "UserRemove", "UserState", "BanList",
	"TextMessage", "PermissionDenied", "ACL", "QueryUsers", "CryptSetup",
	"ContextActionModify", "ContextAction", "UserList", "VoiceTarget",
	"PermissionQuery", "CodecVersion", "UserStats", "RequestBlob",
	"ServerConfig", "SuggestConfig", "PluginDataTransmission",
	"ChannelListener", "HFBandSimulationUpdate", "SignalQualityUpdate",
	"PropagationUpdate", "UDPTunnel",
}

// String renders the message type's name, or "MessageType(n)" for a value
// outside the closed enumeration (a peer running a newer/older wire
// revision).
func (t MessageType) String() string {
	if int(t) < len(messageTypeNames) {
		return messageTypeNames[t]
	}
	return fmt.Sprintf("MessageType(%d)", uint16(t))
}

// Valid reports whether t is one of the closed enumeration's members.
func (t MessageType) Valid() bool {
	return int(t) < len(messageTypeNames)
}
