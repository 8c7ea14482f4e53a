package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pinnlo/pinnlo-server/internal/cache"
	"github.com/pinnlo/pinnlo-server/internal/models"
	"github.com/pinnlo/pinnlo-server/internal/store"
)

type createGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

type addGroupCardsRequest struct {
	CardIDs []uuid.UUID `json:"cardIds"`
}

type groupCardResponse struct {
	Position int          `json:"position"`
	AddedBy  uuid.UUID    `json:"added_by"`
	AddedAt  time.Time    `json:"added_at"`
	Card     *models.Card `json:"card"`
}

func (h *Handler) ListGroups(c *gin.Context) {
	userID := currentUser(c)
	if h.notModified(c, cache.GroupsKey(userID)) {
		return
	}
	groups, err := h.Groups.List(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err)
		return
	}
	if groups == nil {
		groups = []models.Group{}
	}
	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

func (h *Handler) CreateGroup(c *gin.Context) {
	var req createGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid JSON payload")
		return
	}
	userID := currentUser(c)
	group := &models.Group{
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
	}
	if err := h.Groups.Create(c.Request.Context(), group); err != nil {
		h.fail(c, err)
		return
	}
	h.bump(c.Request.Context(), cache.GroupsKey(userID))
	c.JSON(http.StatusCreated, gin.H{"group": group})
}

func (h *Handler) GetGroup(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	group, err := h.Groups.Get(c.Request.Context(), currentUser(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"group": group})
}

func (h *Handler) UpdateGroup(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var patch store.GroupPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "Invalid JSON payload")
		return
	}
	userID := currentUser(c)
	group, err := h.Groups.Update(c.Request.Context(), userID, id, patch)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.bump(c.Request.Context(), cache.GroupsKey(userID))
	c.JSON(http.StatusOK, gin.H{"group": group})
}

func (h *Handler) DeleteGroup(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	userID := currentUser(c)
	if err := h.Groups.Delete(c.Request.Context(), userID, id); err != nil {
		h.fail(c, err)
		return
	}
	h.bump(c.Request.Context(), cache.GroupsKey(userID), cache.GroupKey(id))
	c.Status(http.StatusNoContent)
}

// GroupCards lists the group's cards in position order.
func (h *Handler) GroupCards(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	userID := currentUser(c)
	if _, err := h.Groups.Get(c.Request.Context(), userID, id); err != nil {
		h.fail(c, err)
		return
	}
	if h.notModified(c, cache.GroupKey(id), cache.CardsKey(userID)) {
		return
	}
	rows, err := h.Members.GroupCards(c.Request.Context(), userID, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	out := make([]groupCardResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, groupCardResponse{
			Position: r.Position,
			AddedBy:  r.AddedBy,
			AddedAt:  r.AddedAt,
			Card:     r.Card,
		})
	}
	c.JSON(http.StatusOK, gin.H{"group_id": id, "cards": out})
}

func (h *Handler) AddGroupCards(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req addGroupCardsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid JSON payload")
		return
	}
	if len(req.CardIDs) == 0 {
		badRequest(c, "cardIds is required")
		return
	}
	userID := currentUser(c)
	added, err := h.Members.AddCards(c.Request.Context(), userID, id, req.CardIDs)
	if added > 0 {
		h.bump(c.Request.Context(), cache.GroupsKey(userID), cache.GroupKey(id))
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"added": added})
}

func (h *Handler) RemoveGroupCard(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	cardID, ok := parseIDParam(c, "cardId")
	if !ok {
		return
	}
	userID := currentUser(c)
	if err := h.Members.RemoveCard(c.Request.Context(), userID, id, cardID); err != nil {
		h.fail(c, err)
		return
	}
	h.bump(c.Request.Context(), cache.GroupsKey(userID), cache.GroupKey(id))
	c.Status(http.StatusNoContent)
}
