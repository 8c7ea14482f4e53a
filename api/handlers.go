package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pinnlo/pinnlo-server/integrations"
	"github.com/pinnlo/pinnlo-server/internal/cache"
	"github.com/pinnlo/pinnlo-server/internal/logger"
	"github.com/pinnlo/pinnlo-server/internal/selection"
	"github.com/pinnlo/pinnlo-server/internal/store"
	"gorm.io/gorm"
)

type Handler struct {
	DB         *gorm.DB
	Cards      store.CardStore
	Groups     store.GroupStore
	Members    store.AssociationManager
	Versions   cache.Versions
	Enhancer   integrations.Enhancer
	Dispatcher *selection.Dispatcher
	Log        *logger.Logger
}

func (h *Handler) HealthCheckHandler(c *gin.Context) {
	sqlDB, err := h.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		h.Log.Error("Health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// bump invalidates cached collections. A failure only delays revalidation, so
// it is logged rather than returned.
func (h *Handler) bump(ctx context.Context, keys ...string) {
	if err := h.Versions.Bump(ctx, keys...); err != nil {
		h.Log.Warn("Failed to bump collection versions", "keys", keys, "error", err)
	}
}

// notModified sets the ETag for the given collections and reports whether the
// client's copy is current, in which case a 304 has been written.
func (h *Handler) notModified(c *gin.Context, keys ...string) bool {
	versions := make([]int64, 0, len(keys))
	for _, k := range keys {
		v, err := h.Versions.Version(c.Request.Context(), k)
		if err != nil {
			h.Log.Warn("Failed to read collection version", "key", k, "error", err)
			return false
		}
		versions = append(versions, v)
	}
	etag := cache.ETag(versions...)
	c.Header("ETag", etag)
	if match := c.GetHeader("If-None-Match"); match != "" && match == etag {
		c.Status(http.StatusNotModified)
		return true
	}
	return false
}

func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// queryList collects a repeated or comma-separated query parameter.
func queryList(c *gin.Context, name string) []string {
	var out []string
	for _, raw := range c.QueryArray(name) {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
