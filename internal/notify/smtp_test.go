// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package notify_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ionovox/server/internal/apperror"
	"github.com/ionovox/server/internal/config"
	"github.com/ionovox/server/internal/notify"
)

func TestSendRejectsWhenDisabled(t *testing.T) {
	s := notify.NewSender(config.SMTP{Enabled: false})
	err := s.Send("IonoVox", "user@example.com", "subject", "body")
	assert.Error(t, err)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestSendRejectsUnknownAuthMethod(t *testing.T) {
	s := notify.NewSender(config.SMTP{
		Enabled:    true,
		Host:       "smtp.example.com",
		Port:       587,
		AuthMethod: config.SMTPAuthMethod("carrier-pigeon"),
		From:       "noreply@example.com",
	})
	err := s.Send("IonoVox", "user@example.com", "subject", "body")
	assert.Error(t, err)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}
