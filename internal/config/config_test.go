// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package config_test

import (
	"testing"

	"github.com/USA-RedDragon/configulator"
	"github.com/ionovox/server/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := configulator.New[config.Config]().Default()
	require.NoError(t, err)
	return cfg
}

func TestDefaultConfigValidates(t *testing.T) {
	t.Parallel()
	cfg := defaultConfig(t)
	assert.NoError(t, cfg.Validate())
}

func TestPropagationBoundsRejected(t *testing.T) {
	t.Parallel()
	cfg := defaultConfig(t)

	cfg.Propagation.SolarFluxIndex = 59
	assert.ErrorIs(t, cfg.Validate(), config.ErrInvalidSolarFluxIndex)

	cfg.Propagation.SolarFluxIndex = 301
	assert.ErrorIs(t, cfg.Validate(), config.ErrInvalidSolarFluxIndex)

	cfg.Propagation.SolarFluxIndex = 120
	cfg.Propagation.KIndex = 10
	assert.ErrorIs(t, cfg.Validate(), config.ErrInvalidKIndex)

	cfg.Propagation.KIndex = 2
	cfg.Propagation.Season = 4
	assert.ErrorIs(t, cfg.Validate(), config.ErrInvalidSeason)
}

func TestDatabaseDriverRequiresHostExceptSQLite(t *testing.T) {
	t.Parallel()
	cfg := defaultConfig(t)

	cfg.Database.Driver = config.DatabaseDriverSQLite
	cfg.Database.Host = ""
	assert.NoError(t, cfg.Database.Validate())

	cfg.Database.Driver = config.DatabaseDriverPostgres
	cfg.Database.Host = ""
	assert.ErrorIs(t, cfg.Database.Validate(), config.ErrInvalidDatabaseHost)
}

func TestSMTPValidationRequiresFromAndCredentials(t *testing.T) {
	t.Parallel()
	cfg := defaultConfig(t)
	cfg.SMTP.Enabled = true
	cfg.SMTP.Host = "smtp.example.org"
	cfg.SMTP.AuthMethod = config.SMTPAuthMethodPlain

	assert.ErrorIs(t, cfg.SMTP.Validate(), config.ErrSMTPFromRequired)

	cfg.SMTP.From = "noc@example.org"
	assert.ErrorIs(t, cfg.SMTP.Validate(), config.ErrSMTPCredentialsRequired)

	cfg.SMTP.Username = "noc"
	cfg.SMTP.Password = "hunter2"
	assert.NoError(t, cfg.SMTP.Validate())
}

func TestAdminValidationRequiresSecretWhenEnabled(t *testing.T) {
	t.Parallel()
	cfg := defaultConfig(t)
	assert.NoError(t, cfg.Admin.Validate(), "disabled by default, no secret required")

	cfg.Admin.Enabled = true
	assert.ErrorIs(t, cfg.Admin.Validate(), config.ErrAdminSecretRequired)

	cfg.Admin.Secret = "sfi-130-kindex-3"
	assert.NoError(t, cfg.Admin.Validate())

	cfg.Admin.BindAddress = ""
	assert.ErrorIs(t, cfg.Admin.Validate(), config.ErrInvalidAdminBindAddr)
}
