package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jwebster45206/wuxia-session/internal/middleware"
	"github.com/jwebster45206/wuxia-session/internal/remote"
	"github.com/jwebster45206/wuxia-session/pkg/combat"
	"github.com/jwebster45206/wuxia-session/pkg/offline"
	"github.com/jwebster45206/wuxia-session/pkg/session"
	"github.com/jwebster45206/wuxia-session/pkg/source"
	"github.com/jwebster45206/wuxia-session/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (*http.ServeMux, *storage.MemoryStorage) {
	t.Helper()
	store := storage.NewMemoryStorage()
	return NewRouter(offline.NewSimulator(store, nil), store, nil), store
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealthHandler(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		mux, _ := newTestRouter(t)
		rr := doJSON(t, mux, http.MethodGet, source.PathHealth, nil)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

		var resp HealthResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "healthy", resp.Status)
		assert.Equal(t, "wuxia-preview", resp.Service)
		assert.Equal(t, "healthy", resp.Components["store"])
	})

	t.Run("store down", func(t *testing.T) {
		mux, store := newTestRouter(t)
		store.SetPingError(errors.New("connection refused"))
		rr := doJSON(t, mux, http.MethodGet, source.PathHealth, nil)
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

		var resp HealthResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "degraded", resp.Status)
		assert.Equal(t, "unhealthy", resp.Components["store"])
	})
}

func TestGameHandler_Errors(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		body       any
		wantStatus int
	}{
		{"latest rejects POST", http.MethodPost, source.PathLatestRound, struct{}{}, http.StatusMethodNotAllowed},
		{"interact rejects GET", http.MethodGet, source.PathInteract, nil, http.StatusMethodNotAllowed},
		{"empty action", http.MethodPost, source.PathInteract, source.ActionRequest{Action: "  "}, http.StatusBadRequest},
		{"cultivation zero", http.MethodPost, source.PathCultivation, map[string]int{"times": 0}, http.StatusBadRequest},
		{"cultivation too many", http.MethodPost, source.PathCultivation, map[string]int{"times": offline.MaxCultivation + 1}, http.StatusBadRequest},
		{"equip without id", http.MethodPost, source.PathEquip, map[string]string{}, http.StatusBadRequest},
		{"combat not emulated", http.MethodPost, source.PathCombatAction, combat.Intent{Strategy: combat.StrategyDefend, TargetID: "player"}, http.StatusNotImplemented},
		{"combat missing target", http.MethodPost, source.PathCombatAction, combat.Intent{Strategy: combat.StrategyAttack}, http.StatusBadRequest},
		{"surrender not emulated", http.MethodPost, source.PathSurrender, struct{}{}, http.StatusNotImplemented},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux, _ := newTestRouter(t)
			rr := doJSON(t, mux, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, rr.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
		})
	}

	t.Run("invalid body", func(t *testing.T) {
		mux, _ := newTestRouter(t)
		req := httptest.NewRequest(http.MethodPost, source.PathInteract, bytes.NewBufferString("{not json"))
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("dead character conflicts", func(t *testing.T) {
		mux, _ := newTestRouter(t)
		require.Equal(t, http.StatusOK, doJSON(t, mux, http.MethodPost, source.PathSuicide, struct{}{}).Code)
		rr := doJSON(t, mux, http.MethodPost, source.PathInteract, source.ActionRequest{Action: "救助傷者"})
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("store failure hides detail", func(t *testing.T) {
		mux, store := newTestRouter(t)
		require.Equal(t, http.StatusOK, doJSON(t, mux, http.MethodGet, source.PathLatestRound, nil).Code)
		store.SetWriteError(errors.New("disk full"))
		rr := doJSON(t, mux, http.MethodPost, source.PathInteract, source.ActionRequest{Action: "打坐"})
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.NotContains(t, rr.Body.String(), "disk full")
	})
}

func TestResetHandler(t *testing.T) {
	mux, _ := newTestRouter(t)
	require.Equal(t, http.StatusOK, doJSON(t, mux, http.MethodPost, source.PathSuicide, struct{}{}).Code)

	assert.Equal(t, http.StatusMethodNotAllowed, doJSON(t, mux, http.MethodGet, source.PathPreviewReset, nil).Code)
	require.Equal(t, http.StatusOK, doJSON(t, mux, http.MethodPost, source.PathPreviewReset, struct{}{}).Code)

	rr := doJSON(t, mux, http.MethodGet, source.PathLatestRound, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var latest source.LatestRound
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &latest))
	assert.Equal(t, 0, latest.Round.Round)
	assert.False(t, latest.Round.IsDead)
}

func TestInventoryHandler(t *testing.T) {
	mux, _ := newTestRouter(t)

	rr := doJSON(t, mux, http.MethodGet, source.PathInventory, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var list inventoryListResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	assert.Len(t, list.Inventory, 5)
	assert.Positive(t, list.BulkScore)

	rr = doJSON(t, mux, http.MethodPost, source.PathDrop, itemRequest{InstanceID: "inv-salve-1"})
	require.Equal(t, http.StatusOK, rr.Code)
	var dropped source.InventoryResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &dropped))
	assert.True(t, dropped.Success)
	assert.Len(t, dropped.Inventory, 4)

	rr = doJSON(t, mux, http.MethodPost, source.PathUnequip, itemRequest{InstanceID: "inv-missing"})
	require.Equal(t, http.StatusOK, rr.Code, "rejected edits still answer 200")
	var rejected source.InventoryResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rejected))
	assert.False(t, rejected.Success)
	assert.NotEmpty(t, rejected.Message)
}

// The remote client and the preview server speak the same protocol, so a
// session can run against the simulator over HTTP.
func TestRouter_RemoteClientRoundTrip(t *testing.T) {
	const token = "preview-token"
	mux, _ := newTestRouter(t)
	server := httptest.NewServer(middleware.Chain(mux,
		middleware.Recover(nil),
		middleware.RequestID(),
		middleware.Logger(nil),
		middleware.BearerAuth(token, source.PathHealth)))
	defer server.Close()

	ctx := context.Background()

	t.Run("bad token", func(t *testing.T) {
		client := remote.NewClient(server.URL, "wrong", 5*time.Second, nil)
		assert.True(t, client.Health(ctx), "health stays open")
		_, err := client.FetchLatestRound(ctx)
		assert.ErrorIs(t, err, source.ErrUnauthorized)
	})

	client := remote.NewClient(server.URL, token, 5*time.Second, nil)

	latest, err := client.FetchLatestRound(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, latest.Round.Round)
	assert.NotEmpty(t, latest.Prequel)

	resp, err := client.SubmitAction(ctx, source.ActionRequest{Action: "救助傷者", Round: 0})
	require.NoError(t, err)
	require.NotNil(t, resp.Round)
	assert.NotEmpty(t, resp.Story)

	equipped, err := client.EquipItem(ctx, "inv-saber-1")
	require.NoError(t, err)
	assert.True(t, equipped.Success)

	_, err = client.StartCultivation(ctx, 0)
	assert.True(t, remote.IsStatus(err, http.StatusBadRequest))

	_, err = client.SubmitSurrender(ctx)
	assert.True(t, remote.IsStatus(err, http.StatusNotImplemented))

	sess := session.New(client, session.Options{})
	defer sess.Close()
	require.NoError(t, sess.Start(ctx))
	require.NoError(t, sess.Cultivate(ctx, 2))
	snap := sess.Store().Snapshot()
	require.NotNil(t, snap)
	assert.Equal(t, 3, snap.Round)
}
