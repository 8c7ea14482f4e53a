package api

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pinnlo/pinnlo-server/internal/cache"
	"github.com/pinnlo/pinnlo-server/internal/models"
	"github.com/pinnlo/pinnlo-server/internal/selection"
	"github.com/pinnlo/pinnlo-server/internal/store"
)

const (
	BulkAddToGroup = "add-to-group"
	BulkSave       = "save"
	BulkArchive    = "archive"
	BulkActivate   = "activate"
	BulkDelete     = "delete"
)

type bulkRequest struct {
	Action  string      `json:"action"`
	CardIDs []uuid.UUID `json:"cardIds"`
	GroupID *uuid.UUID  `json:"groupId"`
}

type bulkResult struct {
	CardID uuid.UUID `json:"card_id"`
	OK     bool      `json:"ok"`
	Error  string    `json:"error,omitempty"`
}

// BulkAction applies one action to every selected card and reports the
// outcome of each. The response is 200 when every card succeeded and 207 when
// some failed.
func (h *Handler) BulkAction(c *gin.Context) {
	var req bulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid JSON payload")
		return
	}
	sel := selection.New(req.CardIDs...)
	if sel.State() == selection.Idle {
		badRequest(c, "No cards selected")
		return
	}

	ctx := c.Request.Context()
	userID := currentUser(c)

	var (
		mu      sync.Mutex
		touched = map[uuid.UUID]struct{}{}
	)
	touch := func(ids ...uuid.UUID) {
		mu.Lock()
		defer mu.Unlock()
		for _, id := range ids {
			touched[id] = struct{}{}
		}
	}

	dispatcher := h.Dispatcher
	var action selection.Action
	switch req.Action {
	case BulkAddToGroup:
		if req.GroupID == nil {
			badRequest(c, "groupId is required for add-to-group")
			return
		}
		groupID := *req.GroupID
		if _, err := h.Groups.Get(ctx, userID, groupID); err != nil {
			h.fail(c, err)
			return
		}
		// One at a time so positions follow the selection order.
		dispatcher = dispatcher.Serial()
		action = func(ctx context.Context, id uuid.UUID) error {
			if _, err := h.Cards.Get(ctx, userID, id); err != nil {
				return err
			}
			if _, err := h.Members.AddCards(ctx, userID, groupID, []uuid.UUID{id}); err != nil {
				return err
			}
			touch(groupID)
			return nil
		}
	case BulkSave, BulkArchive, BulkActivate:
		status := map[string]models.CardStatus{
			BulkSave:     models.StatusSaved,
			BulkArchive:  models.StatusArchived,
			BulkActivate: models.StatusActive,
		}[req.Action]
		action = func(ctx context.Context, id uuid.UUID) error {
			_, err := h.Cards.SetStatus(ctx, userID, id, status)
			return err
		}
	case BulkDelete:
		action = func(ctx context.Context, id uuid.UUID) error {
			groupIDs, err := h.Cards.Delete(ctx, userID, id)
			if err != nil {
				return err
			}
			touch(groupIDs...)
			return nil
		}
	default:
		badRequest(c, "unknown action")
		return
	}

	report, err := dispatcher.Dispatch(ctx, sel, action)
	if err != nil {
		h.fail(c, err)
		return
	}

	results := make([]bulkResult, 0, len(report.Outcomes))
	for _, o := range report.Outcomes {
		r := bulkResult{CardID: o.ID, OK: o.Err == nil}
		switch {
		case o.Err == nil:
		case errors.Is(o.Err, store.ErrNotFound):
			r.Error = "not found"
		default:
			h.Log.Error("Bulk action failed for card", "action", req.Action, "card_id", o.ID, "error", o.Err)
			r.Error = "failed"
		}
		results = append(results, r)
	}

	keys := []string{}
	if report.Succeeded() > 0 {
		keys = append(keys, cache.CardsKey(userID))
	}
	if len(touched) > 0 {
		keys = append(keys, cache.GroupsKey(userID))
		for id := range touched {
			keys = append(keys, cache.GroupKey(id))
		}
	}
	if len(keys) > 0 {
		h.bump(ctx, keys...)
	}

	status := http.StatusOK
	if len(report.Failed()) > 0 {
		status = http.StatusMultiStatus
	}
	c.JSON(status, gin.H{
		"action":    req.Action,
		"results":   results,
		"succeeded": report.Succeeded(),
		"failed":    len(report.Failed()),
	})
}
