package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pinnlo/pinnlo-server/integrations"
	"github.com/pinnlo/pinnlo-server/internal/cards"
	"github.com/pinnlo/pinnlo-server/internal/models"
	"github.com/pinnlo/pinnlo-server/internal/store"
)

type enhanceRequest struct {
	Context   string          `json:"context"`
	Threshold int             `json:"threshold"`
	CardData  json.RawMessage `json:"card_data"`
}

// EnhanceCard asks the AI enhancer to fill the card's thin fields and returns
// the merged card_data as a draft. Nothing is saved; the client persists the
// draft with a regular update if the user keeps it.
func (h *Handler) EnhanceCard(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req enhanceRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, "Invalid JSON payload")
		return
	}

	ctx := c.Request.Context()
	card, err := h.Cards.Get(ctx, currentUser(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	raw := []byte(card.CardData)
	if len(req.CardData) > 0 {
		raw = req.CardData
	}
	data, err := cards.DecodeCardData(card.CardType, raw)
	if err != nil {
		h.fail(c, &store.ValidationError{Message: err.Error()})
		return
	}

	fields := cards.EnhanceableFields(data, req.Threshold)
	if len(fields) == 0 {
		c.JSON(http.StatusOK, gin.H{"card_data": data, "enhanced_fields": []string{}})
		return
	}

	enhanced, err := h.Enhancer.Enhance(ctx, models.EnhanceRequest{
		BlueprintType:   card.CardType,
		CurrentData:     data.Map(),
		FieldsToEnhance: fields,
		Context: models.EnhanceContext{
			Title:       card.Title,
			Description: card.Description,
			Bank:        card.Bank,
			Tags:        card.Tags,
			Notes:       req.Context,
		},
	})
	if errors.Is(err, integrations.ErrEnhancerNotConfigured) {
		h.fail(c, err)
		return
	}
	if err != nil {
		h.Log.Error("AI enhancement failed", "card_id", card.ID, "error", err)
		respondError(c, http.StatusBadGateway, "enhancement_failed", "AI enhancement failed")
		return
	}

	applied := cards.MergeEnhanced(data, enhanced, fields)
	if applied == nil {
		applied = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"card_data": data, "enhanced_fields": applied})
}
