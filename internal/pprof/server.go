// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package pprof

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/ionovox/server/internal/config"
)

const readTimeout = 3 * time.Second

// CreatePProfServer serves Go's runtime profiler endpoints on
// cfg.PProf.BindAddress:Port until the listener fails or the process
// exits. It returns nil immediately if pprof is disabled, since this
// surface is meant for ad hoc operator use, never production traffic.
func CreatePProfServer(cfg *config.Config) error {
	if !cfg.PProf.Enabled {
		return nil
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	if cfg.Metrics.OTLPEndpoint != "" {
		r.Use(otelgin.Middleware("pprof"))
	}

	pprof.Register(r)

	addr := fmt.Sprintf("%s:%d", cfg.PProf.BindAddress, cfg.PProf.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: readTimeout,
	}
	slog.Info("pprof server listening", "address", addr)
	return server.ListenAndServe()
}
