package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindscale/src/app/http/dto"
	"mindscale/src/core/domain"
	"mindscale/src/core/engine"
	"mindscale/src/core/usecase"
	"mindscale/src/infra/config"
	"mindscale/src/infra/db"
	"mindscale/src/infra/membership"
	"mindscale/src/infra/notify"
	"mindscale/src/infra/repo"
)

const adminID = 99

type app struct {
	srv *Server
	hub *notify.Hub
	eng *engine.Engine
}

func newApp(t *testing.T) *app {
	t.Helper()
	log := slog.New(slog.DiscardHandler)
	ctx := context.Background()

	store, err := db.OpenSQLite(ctx, filepath.Join(t.TempDir(), "stats.db"), log)
	require.NoError(t, err)
	t.Cleanup(store.Close)
	stats := repo.NewSQLiteRepository(store, log)

	hub := notify.NewHub(nil, log)
	t.Cleanup(hub.Close)

	eng := engine.New(engine.DefaultSettings(), engine.Deps{
		Messenger: hub,
		Members:   membership.NewStatic([]int64{adminID}, log),
		Results:   stats,
	}, log)
	t.Cleanup(eng.Close)

	cfg := &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 0, ShutdownTimeout: time.Second},
		Log:    config.LogConfig{Level: "info"},
		Game:   config.GameConfig{ExtendDefault: 30 * time.Second},
	}
	srv := New(cfg, log, Deps{
		Games:   eng,
		Stats:   usecase.NewStatsService(stats, log),
		Health:  usecase.NewHealthService(stats, hub, eng, log),
		Notices: hub,
	})
	return &app{srv: srv, hub: hub, eng: eng}
}

func (a *app) do(t *testing.T, method, path string, userID int64, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		r.Header.Set("Content-Type", "application/json")
	}
	if userID != 0 {
		r.Header.Set("X-User-Id", strconv.FormatInt(userID, 10))
	}
	w := httptest.NewRecorder()
	a.srv.Router().ServeHTTP(w, r)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var env struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env.Data
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env.Error.Code
}

func TestGameOverHTTP(t *testing.T) {
	a := newApp(t)
	const group = "/v1/groups/-100"

	w := a.do(t, http.MethodPost, group+"/lobby", 1, `{"title":"Lounge"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	game := decode[dto.GameResponse](t, w)
	assert.Equal(t, domain.PhaseLobby, game.Phase)
	assert.Equal(t, "Lounge", game.GroupTitle)
	assert.NotNil(t, game.JoinDeadline)

	w = a.do(t, http.MethodPost, group+"/lobby", 1, "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = a.do(t, http.MethodPost, group+"/lobby/join", 0, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	for _, id := range []int64{1, 2} {
		w = a.do(t, http.MethodPost, group+"/lobby/join", id, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}
	w = a.do(t, http.MethodPost, group+"/lobby/join", 1, "")
	assert.Equal(t, http.StatusConflict, w.Code)

	t.Run("extend", func(t *testing.T) {
		w := a.do(t, http.MethodPost, group+"/lobby/extend", 1, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		ext := decode[dto.ExtensionResponse](t, w)
		assert.Equal(t, 30, ext.AddedSeconds)
		assert.InDelta(t, 149, ext.RemainingSeconds, 1)

		w = a.do(t, http.MethodPost, group+"/lobby/extend", 1, `{"seconds":18446744074}`)
		assert.Equal(t, http.StatusBadRequest, w.Code, "would wrap to a fraction of a second")
		assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))
		w = a.do(t, http.MethodPost, group+"/lobby/extend", 1, `{"seconds":0}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = a.do(t, http.MethodPost, group+"/lobby/extend", 1, `{"seconds":999}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))
	})

	w = a.do(t, http.MethodPost, group+"/lobby/start", 1, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = a.do(t, http.MethodPost, group+"/lobby/start", adminID, "")
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = a.do(t, http.MethodGet, group, 0, "")
	require.Equal(t, http.StatusOK, w.Code)
	game = decode[dto.GameResponse](t, w)
	assert.Equal(t, domain.PhasePlaying, game.Phase)
	assert.Equal(t, 1, game.Round)
	assert.True(t, game.RoundActive)
	assert.Nil(t, game.JoinDeadline)

	t.Run("picks", func(t *testing.T) {
		w := a.do(t, http.MethodPost, "/v1/picks", 1, `{"text":"forty"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		w = a.do(t, http.MethodPost, "/v1/picks", 1, `{}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		w = a.do(t, http.MethodPost, "/v1/picks", 3, `{"text":"10"}`)
		assert.Equal(t, http.StatusConflict, w.Code)

		w = a.do(t, http.MethodPost, "/v1/picks", 1, `{"text":"40"}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		receipt := decode[dto.PickResponse](t, w)
		assert.Equal(t, dto.PickResponse{GroupID: -100, Round: 1, Value: 40}, receipt)

		w = a.do(t, http.MethodPost, "/v1/picks", 1, `{"text":"41"}`)
		assert.Equal(t, http.StatusConflict, w.Code)

		w = a.do(t, http.MethodPost, "/v1/picks", 2, `{"text":" 50 "}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	})

	w = a.do(t, http.MethodGet, group+"/players", 0, "")
	require.Equal(t, http.StatusOK, w.Code)
	players := decode[[]dto.PlayerResponse](t, w)
	require.Len(t, players, 2)
	assert.Equal(t, 0, players[0].Score)
	assert.Equal(t, -1, players[1].Score)
	assert.Equal(t, 1, players[1].RoundsPlayed)
	assert.False(t, players[0].Answered, "round 2 started")

	w = a.do(t, http.MethodGet, "/v1/groups", 0, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]dto.GameResponse](t, w), 1)

	w = a.do(t, http.MethodPost, group+"/end", 2, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = a.do(t, http.MethodPost, group+"/end", adminID, "")
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = a.do(t, http.MethodGet, group, 0, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	a.eng.Drain()
	t.Run("stats", func(t *testing.T) {
		w := a.do(t, http.MethodGet, "/v1/leaderboard", 0, "")
		require.Equal(t, http.StatusOK, w.Code)
		board := decode[[]dto.StatsResponse](t, w)
		require.Len(t, board, 2)
		assert.Equal(t, int64(1), board[0].UserID)
		assert.Equal(t, 1, board[0].Losses, "aborted games count as losses")
		assert.Equal(t, 0, board[0].Wins)

		w = a.do(t, http.MethodGet, group+"/leaderboard?limit=1", 0, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode[[]dto.StatsResponse](t, w), 1)

		w = a.do(t, http.MethodGet, group+"/leaderboard?limit=x", 0, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = a.do(t, http.MethodGet, "/v1/users/2/stats", 0, "")
		require.Equal(t, http.StatusOK, w.Code)
		bob := decode[dto.StatsResponse](t, w)
		assert.Equal(t, -1, bob.TotalScore)
		assert.Equal(t, 1, bob.RoundsPlayed)
		assert.Equal(t, 1, bob.GamesPlayed)
		assert.Equal(t, 2, bob.Rank)
		assert.Equal(t, "player 2", bob.Name)

		w = a.do(t, http.MethodGet, "/v1/users/5/stats", 0, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestHealthAndFallbackRoutes(t *testing.T) {
	a := newApp(t)

	w := a.do(t, http.MethodGet, "/health", 0, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = a.do(t, http.MethodGet, "/health/detailed", 0, "")
	require.Equal(t, http.StatusOK, w.Code)
	var status usecase.HealthStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, "healthy", status.Components["database"].Status)
	assert.Equal(t, "0 active games", status.Components["engine"].Message)

	w = a.do(t, http.MethodGet, "/v1/nowhere", 0, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(t, w))

	w = a.do(t, http.MethodGet, "/v1/groups/abc", 0, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNoticesOverWebsocket(t *testing.T) {
	a := newApp(t)
	ts := httptest.NewServer(a.srv.Router())
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/ws?user_id=2&group_id=-100"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.Eventually(t, func() bool { return a.hub.Connections() == 1 }, 2*time.Second, 10*time.Millisecond)

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/v1/groups/-100/lobby", nil)
	require.NoError(t, err)
	req.Header.Set("X-User-Id", "1")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var n domain.Notice
	require.NoError(t, conn.ReadJSON(&n))
	assert.Equal(t, domain.NoticeLobbyOpened, n.Kind)
	assert.Equal(t, int64(-100), n.GroupID)
}
