package api

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/pinnlo/pinnlo-server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthRequired(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/api/cards", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	env := decode[ErrorEnvelope](t, w)
	assert.Equal(t, "missing or invalid token", env.Error.Message)

	w = ts.do(t, http.MethodGet, "/api/cards", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCardLifecycle(t *testing.T) {
	ts := newTestServer(t)

	card := ts.createCard(t, ts.token, map[string]any{
		"title":     "  North star  ",
		"priority":  "high",
		"card_data": map[string]any{"visionStatement": "Be everywhere"},
		"tags":      []string{"vision", "vision"},
	})
	assert.Equal(t, "North star", card.Title)
	assert.Equal(t, models.LevelHigh, card.Priority)
	assert.Equal(t, models.StatusActive, card.Status)
	assert.Equal(t, []string{"vision"}, []string(card.Tags))

	w := ts.do(t, http.MethodGet, "/api/cards/"+card.ID.String(), ts.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[cardEnvelope](t, w)
	assert.Equal(t, card.ID, got.Card.ID)
	assert.Empty(t, got.GroupIDs)

	w = ts.do(t, http.MethodPatch, "/api/cards/"+card.ID.String(), ts.token, map[string]any{"status": "saved"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.StatusSaved, decode[cardEnvelope](t, w).Card.Status)

	w = ts.do(t, http.MethodPatch, "/api/cards/"+card.ID.String(), ts.token, map[string]any{"title": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Card title is required", decode[ErrorEnvelope](t, w).Error.Message)

	_, otherToken := ts.newUser(t)
	w = ts.do(t, http.MethodGet, "/api/cards/"+card.ID.String(), otherToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(t, http.MethodGet, "/api/cards/not-a-uuid", ts.token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid id", decode[ErrorEnvelope](t, w).Error.Message)

	w = ts.do(t, http.MethodDelete, "/api/cards/"+card.ID.String(), ts.token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = ts.do(t, http.MethodGet, "/api/cards/"+card.ID.String(), ts.token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateCardValidation(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/cards", ts.token, map[string]any{"bank": "strategy", "card_type": "vision"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Card title is required", decode[ErrorEnvelope](t, w).Error.Message)

	w = ts.do(t, http.MethodPost, "/api/cards", ts.token, `{"title":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid JSON payload", decode[ErrorEnvelope](t, w).Error.Message)

	w = ts.do(t, http.MethodPost, "/api/cards", ts.token, map[string]any{"title": "Mixed", "bank": "intelligence", "card_type": "okrs"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, `card type "okrs" belongs to the strategy bank`, decode[ErrorEnvelope](t, w).Error.Message)
}

func TestListCardsFiltersAndETag(t *testing.T) {
	ts := newTestServer(t)
	ts.createCard(t, ts.token, map[string]any{"title": "Alpha", "priority": "High", "tags": []string{"q1"}})
	ts.createCard(t, ts.token, map[string]any{"title": "Beta", "status": "archived"})
	ts.createCard(t, ts.token, map[string]any{"title": "Gamma", "bank": "development", "card_type": "feature"})

	type listResponse struct {
		Cards []models.Card `json:"cards"`
		Total int           `json:"total"`
	}

	w := ts.do(t, http.MethodGet, "/api/cards?bank=strategy&sort=title&order=asc", ts.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[listResponse](t, w)
	require.Equal(t, 2, list.Total)
	assert.Equal(t, "Alpha", list.Cards[0].Title)
	assert.Equal(t, "Beta", list.Cards[1].Title)

	w = ts.do(t, http.MethodGet, "/api/cards?status=active,saved&tag=q1", ts.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list = decode[listResponse](t, w)
	require.Equal(t, 1, list.Total)
	assert.Equal(t, "Alpha", list.Cards[0].Title)

	w = ts.do(t, http.MethodGet, "/api/cards?bank=finance", ts.token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = ts.do(t, http.MethodGet, "/api/cards?sort=random", ts.token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodGet, "/api/cards", ts.token, nil)
	etag := w.Header().Get("ETag")
	require.NotEmpty(t, etag)

	w = ts.do(t, http.MethodGet, "/api/cards", ts.token, nil, "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, w.Code)

	ts.createCard(t, ts.token, map[string]any{"title": "Delta"})
	w = ts.do(t, http.MethodGet, "/api/cards", ts.token, nil, "If-None-Match", etag)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEqual(t, etag, w.Header().Get("ETag"))
}

func TestTags(t *testing.T) {
	ts := newTestServer(t)
	card := ts.createCard(t, ts.token, map[string]any{"title": "Card", "tags": []string{"alpha"}})
	ts.createCard(t, ts.token, map[string]any{"title": "Other", "tags": []string{"beta", "alpine"}})
	path := "/api/cards/" + card.ID.String() + "/tags"

	type tagsResponse struct {
		Tags  []string `json:"tags"`
		Added bool     `json:"added"`
	}

	w := ts.do(t, http.MethodPost, path, ts.token, map[string]any{"tag": " gamma "})
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[tagsResponse](t, w)
	assert.True(t, res.Added)
	assert.Equal(t, []string{"alpha", "gamma"}, res.Tags)

	w = ts.do(t, http.MethodPost, path, ts.token, map[string]any{"tag": "gamma"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[tagsResponse](t, w).Added)

	w = ts.do(t, http.MethodPost, path, ts.token, map[string]any{"tag": "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodDelete, path+"/alpha", ts.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"gamma"}, decode[tagsResponse](t, w).Tags)

	w = ts.do(t, http.MethodGet, "/api/tags/suggestions?q=al&card_id="+card.ID.String(), ts.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	type suggestions struct {
		Suggestions []string `json:"suggestions"`
	}
	assert.Equal(t, []string{"alpine"}, decode[suggestions](t, w).Suggestions)
}

func TestRelationships(t *testing.T) {
	ts := newTestServer(t)
	a := ts.createCard(t, ts.token, map[string]any{"title": "A"})
	b := ts.createCard(t, ts.token, map[string]any{"title": "B"})
	c := ts.createCard(t, ts.token, map[string]any{"title": "C"})
	base := "/api/cards/" + a.ID.String()

	w := ts.do(t, http.MethodPost, base+"/relationships", ts.token, map[string]any{"target_id": b.ID, "kind": "supports"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = ts.do(t, http.MethodPost, base+"/relationships", ts.token, map[string]any{"target_id": b.ID, "kind": "relates-to"})
	assert.Equal(t, http.StatusConflict, w.Code)
	w = ts.do(t, http.MethodPost, base+"/relationships", ts.token, map[string]any{"target_id": a.ID, "kind": "supports"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = ts.do(t, http.MethodPost, base+"/relationships", ts.token, map[string]any{"target_id": c.ID, "kind": "blocks"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = ts.do(t, http.MethodPost, base+"/relationships", ts.token, map[string]any{"target_id": uuid.New(), "kind": "supports"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(t, http.MethodGet, base+"/relationship-candidates", ts.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	type candidates struct {
		Candidates []models.Card `json:"candidates"`
	}
	cands := decode[candidates](t, w).Candidates
	require.Len(t, cands, 1)
	assert.Equal(t, c.ID, cands[0].ID)

	w = ts.do(t, http.MethodPatch, "/api/cards/"+b.ID.String(), ts.token, map[string]any{"title": "B renamed"})
	require.Equal(t, http.StatusOK, w.Code)
	w = ts.do(t, http.MethodGet, base, ts.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[cardEnvelope](t, w).Card
	require.Len(t, got.Relationships, 1)
	assert.Equal(t, "B renamed", got.Relationships[0].TargetTitle)

	w = ts.do(t, http.MethodDelete, base+"/relationships/"+b.ID.String(), ts.token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = ts.do(t, http.MethodGet, base, ts.token, nil)
	assert.Empty(t, decode[cardEnvelope](t, w).Card.Relationships)
}

func TestRefreshedTitlesInvalidateCardList(t *testing.T) {
	ts := newTestServer(t)
	a := ts.createCard(t, ts.token, map[string]any{"title": "A"})
	b := ts.createCard(t, ts.token, map[string]any{"title": "B"})

	w := ts.do(t, http.MethodPost, "/api/cards/"+a.ID.String()+"/relationships", ts.token, map[string]any{"target_id": b.ID, "kind": "supports"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = ts.do(t, http.MethodPatch, "/api/cards/"+b.ID.String(), ts.token, map[string]any{"title": "B renamed"})
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodGet, "/api/cards", ts.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	etag := w.Header().Get("ETag")

	w = ts.do(t, http.MethodGet, "/api/cards/"+a.ID.String(), ts.token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodGet, "/api/cards", ts.token, nil, "If-None-Match", etag)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEqual(t, etag, w.Header().Get("ETag"))
	type listResponse struct {
		Cards []models.Card `json:"cards"`
	}
	for _, card := range decode[listResponse](t, w).Cards {
		if card.ID == a.ID {
			require.Len(t, card.Relationships, 1)
			assert.Equal(t, "B renamed", card.Relationships[0].TargetTitle)
		}
	}
}
