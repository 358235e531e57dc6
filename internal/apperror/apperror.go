// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package apperror defines the typed error kinds used across the server so
// that transport, session and store layers can apply a consistent
// propagation policy instead of inspecting error strings.
package apperror

import (
	"errors"
	"fmt"
)

// Kind identifies one of the abstract error categories the server
// distinguishes when deciding whether to terminate a session, reply with a
// PermissionDenied, or retry.
type Kind int

const (
	KindTransport Kind = iota
	KindProtocol
	KindAuth
	KindPermission
	KindValidation
	KindNotFound
	KindConflict
	KindStore
	KindRateLimited
	KindTimeout
	KindCancelled
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindProtocol:
		return "protocol"
	case KindAuth:
		return "auth"
	case KindPermission:
		return "permission"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindStore:
		return "store"
	case KindRateLimited:
		return "rate_limited"
	case KindTimeout:
		return "timeout"
	case KindCancelled:
		return "cancelled"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Error is the concrete error type carried through the server. It wraps an
// optional cause and a human-readable reason string (the text surfaced on
// Reject/PermissionDenied records per spec §7).
type Error struct {
	Kind   Kind
	Reason string
	Cause  error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is allows errors.Is(err, apperror.Transport) style matching against a kind
// sentinel created with New(kind, "").
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

// New constructs an *Error of the given kind with no wrapped cause.
func New(kind Kind, reason string) *Error {
	return &Error{Kind: kind, Reason: reason}
}

// Wrap constructs an *Error of the given kind wrapping cause.
func Wrap(kind Kind, reason string, cause error) *Error {
	return &Error{Kind: kind, Reason: reason, Cause: cause}
}

// Sentinel values usable with errors.Is for kind-only comparisons.
var (
	Transport   = New(KindTransport, "")
	Protocol    = New(KindProtocol, "")
	Auth        = New(KindAuth, "")
	Permission  = New(KindPermission, "")
	Validation  = New(KindValidation, "")
	NotFound    = New(KindNotFound, "")
	Conflict    = New(KindConflict, "")
	Store       = New(KindStore, "")
	RateLimited = New(KindRateLimited, "")
	Timeout     = New(KindTimeout, "")
	Cancelled   = New(KindCancelled, "")
	Internal    = New(KindInternal, "")
)

// KindOf extracts the Kind of err if it is (or wraps) an *Error, defaulting
// to KindInternal otherwise.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}
