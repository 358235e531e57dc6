// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package http

import (
	"bytes"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ionovox/server/internal/apperror"
	"github.com/ionovox/server/internal/db/models"
	"github.com/ionovox/server/internal/http/websocket"
	"github.com/ionovox/server/internal/session"
	"github.com/ionovox/server/internal/stats"
)

// applyRoutes mounts the admin API under /api/v1 and the websocket push
// endpoint under /ws.
func applyRoutes(r *gin.Engine, deps Deps, limiter gin.HandlerFunc) {
	v1 := r.Group("/api/v1", limiter)

	v1.GET("/channels", channelTreeHandler(deps))
	v1.GET("/channels/:id/members", channelMembersHandler(deps))
	v1.GET("/roster", rosterHandler(deps))
	v1.GET("/propagation", propagationHandler(deps))
	v1.GET("/bans", listBansHandler(deps))
	v1.POST("/bans", addBanHandler(deps))
	v1.DELETE("/bans/:id", removeBanHandler(deps))
	v1.POST("/stats/upload/:username", uploadStatsHandler(deps))

	if deps.Bus != nil {
		websocket.CreateHandler(deps.Bus).ApplyRoutes(r, limiter)
	}
}

func channelNode(deps Deps, id uint) gin.H {
	c, ok := deps.Channels.Get(id)
	if !ok {
		return nil
	}
	children := deps.Channels.Children(id)
	return gin.H{
		"id":          c.ID,
		"name":        c.Name,
		"description": c.Description,
		"parent_id":   c.ParentID,
		"position":    c.Position,
		"temporary":   c.Temporary,
		"children":    children,
		"linked":      deps.Channels.LinkedChannels(id),
	}
}

func channelTreeHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		root := channelNode(deps, models.RootChannelID)
		if root == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "root channel not found"})
			return
		}
		nodes := []gin.H{root}
		for _, id := range deps.Channels.Descendants(models.RootChannelID) {
			if n := channelNode(deps, id); n != nil {
				nodes = append(nodes, n)
			}
		}
		c.JSON(http.StatusOK, gin.H{"channels": nodes})
	}
}

func channelMembersHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid channel id"})
			return
		}
		members := deps.Channels.Members(uint(id))
		c.JSON(http.StatusOK, gin.H{"channel_id": id, "sessions": members})
	}
}

func rosterHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		type entry struct {
			SessionID   uint32 `json:"session_id"`
			UserID      uint   `json:"user_id"`
			ChannelID   uint   `json:"channel_id"`
			GridLocator string `json:"grid_locator"`
			IdleSeconds int64  `json:"idle_seconds"`
		}
		var roster []entry
		deps.Sessions.Range(func(s *session.Session) bool {
			roster = append(roster, entry{
				SessionID:   s.ID,
				UserID:      s.UserID(),
				ChannelID:   s.ChannelID(),
				GridLocator: s.GridLocator(),
				IdleSeconds: int64(s.Idle().Seconds()),
			})
			return true
		})
		c.JSON(http.StatusOK, gin.H{"sessions": roster, "count": deps.Sessions.Count()})
	}
}

func propagationHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap := deps.Ionosphere.Snapshot()
		c.JSON(http.StatusOK, gin.H{
			"solar_flux_index": snap.SolarFluxIndex,
			"k_index":          snap.KIndex,
			"season":           snap.Season,
			"epoch":            snap.Epoch,
		})
	}
}

func listBansHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		bans, err := deps.Store.Bans().List(c.Request.Context())
		if err != nil {
			writeAppError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"bans": bans})
	}
}

type addBanRequest struct {
	Address      string `json:"address"`
	PrefixLength int    `json:"prefix_length"`
	Username     string `json:"username"`
	CertHash     string `json:"cert_hash"`
	Reason       string `json:"reason"`
	DurationSecs int64  `json:"duration_seconds"`
}

func addBanHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req addBanRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		ban := &models.Ban{
			Address:      req.Address,
			PrefixLength: req.PrefixLength,
			Username:     req.Username,
			CertHash:     req.CertHash,
			Reason:       req.Reason,
			StartTime:    time.Now(),
			Duration:     time.Duration(req.DurationSecs) * time.Second,
		}
		if err := deps.Store.Bans().Add(c.Request.Context(), ban); err != nil {
			writeAppError(c, err)
			return
		}
		c.JSON(http.StatusCreated, ban)
	}
}

func removeBanHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ban id"})
			return
		}
		if err := deps.Store.Bans().Remove(c.Request.Context(), uint(id)); err != nil {
			writeAppError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// uploadStatsHandler accepts a CSV body, validates it against the stats
// format, and on success stages it under StatsDir/<username>/ for the
// periodic sweep job to ingest.
func uploadStatsHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		username := c.Param("username")
		if username == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username is required"})
			return
		}

		body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read upload"})
			return
		}

		rows, err := stats.Ingest(bytes.NewReader(body))
		if err != nil {
			writeAppError(c, err)
			return
		}

		userDir := filepath.Join(deps.StatsDir, username)
		if err := os.MkdirAll(userDir, 0o755); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to stage upload"})
			return
		}
		name := strconv.FormatInt(time.Now().UnixNano(), 10) + ".csv"
		if err := os.WriteFile(filepath.Join(userDir, name), body, 0o644); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to stage upload"})
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"rows_validated": len(rows), "staged_as": name})
	}
}

func writeAppError(c *gin.Context, err error) {
	switch apperror.KindOf(err) {
	case apperror.KindNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case apperror.KindValidation:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case apperror.KindConflict:
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case apperror.KindPermission, apperror.KindAuth:
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case apperror.KindRateLimited:
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
