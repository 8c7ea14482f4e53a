package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pinnlo/pinnlo-server/database"
	"github.com/pinnlo/pinnlo-server/internal/auth"
	"github.com/pinnlo/pinnlo-server/internal/cache"
	"github.com/pinnlo/pinnlo-server/internal/logger"
	"github.com/pinnlo/pinnlo-server/internal/models"
	"github.com/pinnlo/pinnlo-server/internal/selection"
	"github.com/pinnlo/pinnlo-server/internal/store"
	"github.com/stretchr/testify/require"
)

type stubEnhancer struct {
	out   map[string]any
	err   error
	calls int
	last  models.EnhanceRequest
}

func (s *stubEnhancer) Enhance(_ context.Context, req models.EnhanceRequest) (map[string]any, error) {
	s.calls++
	s.last = req
	return s.out, s.err
}

type testServer struct {
	router   *gin.Engine
	handler  *Handler
	enhancer *stubEnhancer
	verifier *auth.Verifier
	user     uuid.UUID
	token    string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	log := logger.Nop()
	enhancer := &stubEnhancer{}
	h := &Handler{
		DB:         db,
		Cards:      store.NewCardStore(db, log),
		Groups:     store.NewGroupStore(db, log),
		Members:    store.NewAssociationManager(db, log),
		Versions:   cache.NewMemory(),
		Enhancer:   enhancer,
		Dispatcher: selection.NewDispatcher(log, 4),
		Log:        log,
	}
	verifier := auth.NewVerifier("test-secret")
	ts := &testServer{
		router:   NewRouter(h, verifier, RouterOptions{}),
		handler:  h,
		enhancer: enhancer,
		verifier: verifier,
	}
	ts.user, ts.token = ts.newUser(t)
	return ts
}

func (ts *testServer) newUser(t *testing.T) (uuid.UUID, string) {
	t.Helper()
	id := uuid.New()
	token, err := ts.verifier.Issue(id, time.Hour)
	require.NoError(t, err)
	return id, token
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

type cardEnvelope struct {
	Card     models.Card `json:"card"`
	GroupIDs []uuid.UUID `json:"group_ids"`
}

type groupEnvelope struct {
	Group models.Group `json:"group"`
}

func (ts *testServer) createCard(t *testing.T, token string, body map[string]any) models.Card {
	t.Helper()
	if _, ok := body["bank"]; !ok {
		body["bank"] = "strategy"
	}
	if _, ok := body["card_type"]; !ok {
		body["card_type"] = "vision"
	}
	w := ts.do(t, http.MethodPost, "/api/cards", token, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[cardEnvelope](t, w).Card
}

func (ts *testServer) createGroup(t *testing.T, token, name string) models.Group {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/api/groups", token, map[string]any{"name": name})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[groupEnvelope](t, w).Group
}
