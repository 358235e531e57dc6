// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

// Package http serves the small admin API of spec §4.2/§4.3 (channel
// tree, roster, ban list, propagation snapshot, stats upload landing) and
// a websocket push channel for admin dashboards, per SPEC_FULL §C.7. It is
// carried as ambient control-plane observability, separate from the voice
// control-plane server in internal/server.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/sync/errgroup"

	"github.com/ionovox/server/internal/bus"
	"github.com/ionovox/server/internal/channel"
	"github.com/ionovox/server/internal/config"
	"github.com/ionovox/server/internal/propagation"
	"github.com/ionovox/server/internal/session"
	"github.com/ionovox/server/internal/store"
)

const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	rateLimitRate     = time.Second
	rateLimitLimit    = 20
	sessionCookieName = "ionovox_admin"
)

var (
	ErrClosed = errors.New("http: server closed")
	ErrFailed = errors.New("http: failed to start server")
)

// Deps bundles the admin API's dependencies.
type Deps struct {
	Config     config.Metrics // reused only for its OTLPEndpoint field
	Server     config.Server
	Store      store.Store
	Channels   *channel.Manager
	Sessions   *session.Registry
	Ionosphere *propagation.Ionosphere
	Bus        *bus.Bus
	StatsDir   string
	BindAddr   string
	Port       int
	Secret     string // signs admin session cookies
}

// Server wraps the stdlib HTTP server with the start/stop lifecycle the
// rest of the codebase's servers share.
type Server struct {
	*http.Server
	shutdownChannel chan bool
}

// MakeServer constructs (but does not start) the admin API server.
func MakeServer(deps Deps) Server {
	r := CreateRouter(deps)
	addr := fmt.Sprintf("%s:%d", deps.BindAddr, deps.Port)
	s := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}
	return Server{Server: s, shutdownChannel: make(chan bool)}
}

// CreateRouter builds the gin engine: CORS, cookie sessions, a rate
// limiter, tracing when OTLP is configured, and the admin routes.
func CreateRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	if deps.Config.OTLPEndpoint != "" {
		r.Use(otelgin.Middleware("ionovox-admin"))
	}

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	r.Use(cors.New(corsConfig))

	sessionStore := cookie.NewStore([]byte(deps.Secret))
	r.Use(sessions.Sessions(sessionCookieName, sessionStore))

	ratelimitStore := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  rateLimitRate,
		Limit: rateLimitLimit,
	})
	ratelimitMW := ratelimit.RateLimiter(ratelimitStore, &ratelimit.Options{
		ErrorHandler: func(c *gin.Context, info ratelimit.Info) {
			c.String(http.StatusTooManyRequests, "too many requests, retry in "+time.Until(info.ResetTime).String())
		},
		KeyFunc: func(c *gin.Context) string {
			return c.ClientIP()
		},
	})

	applyRoutes(r, deps, ratelimitMW)

	return r
}

func (s *Server) Stop(ctx context.Context) {
	shutdownCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		return
	}
	<-s.shutdownChannel
}

func (s *Server) Start() error {
	g := new(errgroup.Group)
	g.Go(func() error {
		err := s.ListenAndServe()
		if err != nil {
			switch {
			case errors.Is(err, http.ErrServerClosed):
				s.shutdownChannel <- true
				return ErrClosed
			default:
				return fmt.Errorf("%w: %w", ErrFailed, err)
			}
		}
		return nil
	})
	return g.Wait() //nolint:wrapcheck
}
