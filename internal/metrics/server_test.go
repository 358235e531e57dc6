// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package metrics_test

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ionovox/server/internal/config"
	"github.com/ionovox/server/internal/metrics"
)

func TestCreateMetricsServerDisabledReturnsNil(t *testing.T) {
	cfg := &config.Config{Metrics: config.Metrics{Enabled: false}}
	assert.NoError(t, metrics.CreateMetricsServer(cfg))
}

func TestCreateMetricsServerPortInUseReturnsError(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()
	port := listener.Addr().(*net.TCPAddr).Port

	cfg := &config.Config{Metrics: config.Metrics{
		Enabled:     true,
		BindAddress: "127.0.0.1",
		Port:        port,
	}}
	err = metrics.CreateMetricsServer(cfg)
	require.Error(t, err)
}
