package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pinnlo/pinnlo-server/internal/cache"
	"github.com/pinnlo/pinnlo-server/internal/cards"
	"github.com/pinnlo/pinnlo-server/internal/models"
	"github.com/pinnlo/pinnlo-server/internal/store"
	"gorm.io/datatypes"
)

type createCardRequest struct {
	Bank        models.Bank       `json:"bank"`
	CardType    string            `json:"card_type"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	CardData    json.RawMessage   `json:"card_data"`
	Status      models.CardStatus `json:"status"`
	Priority    models.Level      `json:"priority"`
	Confidence  models.Level      `json:"confidence"`
	Tags        []string          `json:"tags"`
}

func (h *Handler) ListCards(c *gin.Context) {
	userID := currentUser(c)
	bank := models.Bank(c.Query("bank"))
	if bank != "" && !bank.Valid() {
		badRequest(c, "invalid bank")
		return
	}

	q := cards.Query{
		Tags: queryList(c, "tag"),
		Text: c.Query("q"),
		Sort: cards.SortKey(c.DefaultQuery("sort", string(cards.SortUpdated))),
		Desc: c.DefaultQuery("order", "desc") != "asc",
	}
	if !q.Sort.Valid() {
		badRequest(c, "invalid sort")
		return
	}
	for _, s := range queryList(c, "status") {
		status := models.CardStatus(s)
		if !status.Valid() {
			badRequest(c, "invalid status")
			return
		}
		q.Statuses = append(q.Statuses, status)
	}
	for _, p := range queryList(c, "priority") {
		level, ok := models.ParseLevel(p)
		if !ok {
			badRequest(c, "invalid priority")
			return
		}
		q.Priorities = append(q.Priorities, level)
	}

	if h.notModified(c, cache.CardsKey(userID)) {
		return
	}
	all, err := h.Cards.List(c.Request.Context(), userID, bank)
	if err != nil {
		h.fail(c, err)
		return
	}
	result := cards.Apply(all, q)
	c.JSON(http.StatusOK, gin.H{"cards": result, "total": len(result)})
}

func (h *Handler) CreateCard(c *gin.Context) {
	var req createCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid JSON payload")
		return
	}
	userID := currentUser(c)
	card := &models.Card{
		UserID:      userID,
		Bank:        req.Bank,
		CardType:    req.CardType,
		Title:       req.Title,
		Description: req.Description,
		CardData:    datatypes.JSON(req.CardData),
		Status:      req.Status,
		Priority:    req.Priority,
		Confidence:  req.Confidence,
		Tags:        req.Tags,
	}
	if err := h.Cards.Create(c.Request.Context(), card); err != nil {
		h.fail(c, err)
		return
	}
	h.bump(c.Request.Context(), cache.CardsKey(userID))
	c.JSON(http.StatusCreated, gin.H{"card": card})
}

// GetCard returns the card with the groups it belongs to. Relationship title
// snapshots are refreshed from the current target titles on the way out.
func (h *Handler) GetCard(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	userID := currentUser(c)

	card, err := h.Cards.Get(ctx, userID, id)
	if err != nil {
		h.fail(c, err)
		return
	}

	if len(card.Relationships) > 0 {
		targets, err := h.Cards.GetMany(ctx, userID, cards.TargetIDs(card))
		if err != nil {
			h.fail(c, err)
			return
		}
		titles := make(map[uuid.UUID]string, len(targets))
		for _, t := range targets {
			titles[t.ID] = t.Title
		}
		if cards.RefreshTitles(card, titles) {
			if err := h.Cards.Save(ctx, card); err != nil {
				h.Log.Warn("Failed to persist refreshed relationship titles", "card_id", card.ID, "error", err)
			} else {
				h.bump(ctx, cache.CardsKey(userID))
			}
		}
	}

	groupIDs, err := h.Members.GroupsForCard(ctx, userID, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if groupIDs == nil {
		groupIDs = []uuid.UUID{}
	}
	c.JSON(http.StatusOK, gin.H{"card": card, "group_ids": groupIDs})
}

func (h *Handler) UpdateCard(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var patch store.CardPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "Invalid JSON payload")
		return
	}
	userID := currentUser(c)
	card, err := h.Cards.Update(c.Request.Context(), userID, id, patch)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.bump(c.Request.Context(), cache.CardsKey(userID))
	c.JSON(http.StatusOK, gin.H{"card": card})
}

func (h *Handler) DeleteCard(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	userID := currentUser(c)
	groupIDs, err := h.Cards.Delete(c.Request.Context(), userID, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	keys := []string{cache.CardsKey(userID)}
	if len(groupIDs) > 0 {
		keys = append(keys, cache.GroupsKey(userID))
		for _, gid := range groupIDs {
			keys = append(keys, cache.GroupKey(gid))
		}
	}
	h.bump(c.Request.Context(), keys...)
	c.Status(http.StatusNoContent)
}

type addTagRequest struct {
	Tag string `json:"tag"`
}

func (h *Handler) AddTag(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req addTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid JSON payload")
		return
	}
	ctx := c.Request.Context()
	userID := currentUser(c)
	card, err := h.Cards.Get(ctx, userID, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	tags, added, err := cards.AddTag(card.Tags, req.Tag)
	if err != nil {
		h.fail(c, err)
		return
	}
	if added {
		card.Tags = tags
		if err := h.Cards.Save(ctx, card); err != nil {
			h.fail(c, err)
			return
		}
		h.bump(ctx, cache.CardsKey(userID))
	}
	c.JSON(http.StatusOK, gin.H{"tags": card.Tags, "added": added})
}

func (h *Handler) RemoveTag(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	userID := currentUser(c)
	card, err := h.Cards.Get(ctx, userID, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	tags, removed := cards.RemoveTag(card.Tags, c.Param("tag"))
	if removed {
		card.Tags = tags
		if err := h.Cards.Save(ctx, card); err != nil {
			h.fail(c, err)
			return
		}
		h.bump(ctx, cache.CardsKey(userID))
	}
	c.JSON(http.StatusOK, gin.H{"tags": card.Tags})
}

// SuggestTags offers tags used on the caller's other cards for autocomplete.
func (h *Handler) SuggestTags(c *gin.Context) {
	ctx := c.Request.Context()
	userID := currentUser(c)
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil {
		badRequest(c, "invalid limit")
		return
	}

	all, err := h.Cards.List(ctx, userID, "")
	if err != nil {
		h.fail(c, err)
		return
	}
	var universe, current []string
	cardID, parseErr := uuid.Parse(c.Query("card_id"))
	for _, card := range all {
		if parseErr == nil && card.ID == cardID {
			current = card.Tags
		}
		universe = append(universe, card.Tags...)
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": cards.Suggest(universe, current, c.Query("q"), limit)})
}

func (h *Handler) RelationshipCandidates(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	userID := currentUser(c)
	card, err := h.Cards.Get(ctx, userID, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	all, err := h.Cards.List(ctx, userID, models.Bank(c.Query("bank")))
	if err != nil {
		h.fail(c, err)
		return
	}
	candidates := cards.Apply(cards.Candidates(card, all), cards.Query{Text: c.Query("q"), Sort: cards.SortTitle})
	c.JSON(http.StatusOK, gin.H{"candidates": candidates})
}

type linkRequest struct {
	TargetID uuid.UUID           `json:"target_id"`
	Kind     models.RelationKind `json:"kind"`
}

func (h *Handler) LinkCard(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req linkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid JSON payload")
		return
	}
	ctx := c.Request.Context()
	userID := currentUser(c)
	card, err := h.Cards.Get(ctx, userID, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if req.TargetID == card.ID {
		h.fail(c, cards.ErrSelfLink)
		return
	}
	target, err := h.Cards.Get(ctx, userID, req.TargetID)
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := cards.Link(card, target, req.Kind); err != nil {
		h.fail(c, err)
		return
	}
	if err := h.Cards.Save(ctx, card); err != nil {
		h.fail(c, err)
		return
	}
	h.bump(ctx, cache.CardsKey(userID))
	c.JSON(http.StatusOK, gin.H{"relationships": card.Relationships})
}

func (h *Handler) UnlinkCard(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	targetID, ok := parseIDParam(c, "targetId")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	userID := currentUser(c)
	card, err := h.Cards.Get(ctx, userID, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if cards.Unlink(card, targetID) {
		if err := h.Cards.Save(ctx, card); err != nil {
			h.fail(c, err)
			return
		}
		h.bump(ctx, cache.CardsKey(userID))
	}
	c.Status(http.StatusNoContent)
}
