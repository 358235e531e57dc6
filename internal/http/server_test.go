// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/ionovox/server/internal/bus"
	"github.com/ionovox/server/internal/channel"
	"github.com/ionovox/server/internal/config"
	internalhttp "github.com/ionovox/server/internal/http"
	"github.com/ionovox/server/internal/propagation"
	"github.com/ionovox/server/internal/pubsub"
	"github.com/ionovox/server/internal/session"
	"github.com/ionovox/server/internal/store/memstore"
)

func testDeps(t *testing.T) internalhttp.Deps {
	t.Helper()
	gin.SetMode(gin.TestMode)

	backing := memstore.New()
	transport, err := pubsub.MakePubSub(t.Context(), &config.Config{})
	require.NoError(t, err)
	eventBus := bus.New(transport)

	channels, err := channel.New(t.Context(), backing, eventBus)
	require.NoError(t, err)

	sessions, err := session.NewRegistry()
	require.NoError(t, err)

	ionosphere := propagation.NewIonosphere(110, 2, propagation.SeasonWinter, nil)

	return internalhttp.Deps{
		Store:      backing,
		Channels:   channels,
		Sessions:   sessions,
		Ionosphere: ionosphere,
		Bus:        eventBus,
		StatsDir:   t.TempDir(),
		BindAddr:   "127.0.0.1",
		Port:       0,
		Secret:     "test-secret",
	}
}

func TestChannelTreeEndpointReturnsRoot(t *testing.T) {
	t.Parallel()
	router := internalhttp.CreateRouter(testDeps(t))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/channels", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Channels []map[string]any `json:"channels"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotEmpty(t, body.Channels)
}

func TestPropagationEndpointReturnsSnapshot(t *testing.T) {
	t.Parallel()
	router := internalhttp.CreateRouter(testDeps(t))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/propagation", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		SolarFluxIndex int `json:"solar_flux_index"`
		KIndex         int `json:"k_index"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, 110, body.SolarFluxIndex)
	require.Equal(t, 2, body.KIndex)
}

func TestRosterEndpointEmptyByDefault(t *testing.T) {
	t.Parallel()
	router := internalhttp.CreateRouter(testDeps(t))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/roster", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, 0, body.Count)
}

func TestBanLifecycle(t *testing.T) {
	t.Parallel()
	router := internalhttp.CreateRouter(testDeps(t))

	createReq := httptest.NewRequest(http.MethodPost, "/api/v1/bans",
		bytes.NewBufferString(`{"username":"w1aw","reason":"testing"}`))
	createReq.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, createReq)
	require.Equal(t, http.StatusCreated, w.Code)

	listReq := httptest.NewRequest(http.MethodGet, "/api/v1/bans", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, listReq)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Bans []struct {
			ID       uint   `json:"id"`
			Username string `json:"username"`
		} `json:"bans"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Bans, 1)
	require.Equal(t, "w1aw", body.Bans[0].Username)
}

func TestUploadStatsEndpointRejectsInvalidCSV(t *testing.T) {
	t.Parallel()
	router := internalhttp.CreateRouter(testDeps(t))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/stats/upload/w1aw",
		bytes.NewBufferString("not,a,valid,header\n"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadStatsEndpointAcceptsValidCSV(t *testing.T) {
	t.Parallel()
	deps := testDeps(t)
	router := internalhttp.CreateRouter(deps)

	const validCSV = "Username,Characters Learned,Time Per Character,Features Unlocked,EmailAdress\n" +
		"w1aw,a b c,1 2 3,morse cw,w1aw@example.com\n"

	req := httptest.NewRequest(http.MethodPost, "/api/v1/stats/upload/w1aw",
		bytes.NewBufferString(validCSV))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)
}
