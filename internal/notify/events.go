// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package notify

import "fmt"

// ServerName is the "From" display name attached to every outgoing
// notification.
var ServerName = "IonoVox"

// Banned sends the "you have been banned" notice described in spec's
// ambient-stack carry-over for ban events.
func (s *Sender) Banned(toEmail, callsign, reason string) error {
	subject := fmt.Sprintf("%s: you have been banned", ServerName)
	body := fmt.Sprintf(
		"<p>The account <strong>%s</strong> has been banned from %s.</p><p>Reason: %s</p>",
		callsign, ServerName, reason,
	)
	return s.Send(ServerName, toEmail, subject, body)
}

// Registered sends a registration-confirmation notice.
func (s *Sender) Registered(toEmail, callsign string) error {
	subject := fmt.Sprintf("%s: registration confirmed", ServerName)
	body := fmt.Sprintf(
		"<p>The callsign <strong>%s</strong> has been registered on %s.</p>",
		callsign, ServerName,
	)
	return s.Send(ServerName, toEmail, subject, body)
}
