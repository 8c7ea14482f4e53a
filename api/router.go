package api

import (
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/pinnlo/pinnlo-server/internal/auth"
	"github.com/pinnlo/pinnlo-server/internal/tracing"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type RouterOptions struct {
	CORSOrigins []string
	Tracing     bool
}

func NewRouter(h *Handler, verifier *auth.Verifier, opts RouterOptions) *gin.Engine {
	router := gin.New()
	zapLogger := h.Log.Desugar()
	router.Use(ginzap.Ginzap(zapLogger, time.RFC3339, true))
	router.Use(ginzap.RecoveryWithZap(zapLogger, true))
	if opts.Tracing {
		router.Use(otelgin.Middleware(tracing.ServiceName))
	}
	if len(opts.CORSOrigins) > 0 {
		router.Use(CORS(opts.CORSOrigins))
	}

	apiGroup := router.Group("/api")
	apiGroup.GET("/health", h.HealthCheckHandler)

	authed := apiGroup.Group("")
	authed.Use(RequireAuth(verifier, h.Log))
	{
		authed.GET("/cards", h.ListCards)
		authed.POST("/cards", h.CreateCard)
		authed.POST("/cards/bulk", h.BulkAction)
		authed.GET("/cards/:id", h.GetCard)
		authed.PATCH("/cards/:id", h.UpdateCard)
		authed.DELETE("/cards/:id", h.DeleteCard)
		authed.POST("/cards/:id/tags", h.AddTag)
		authed.DELETE("/cards/:id/tags/:tag", h.RemoveTag)
		authed.GET("/cards/:id/relationship-candidates", h.RelationshipCandidates)
		authed.POST("/cards/:id/relationships", h.LinkCard)
		authed.DELETE("/cards/:id/relationships/:targetId", h.UnlinkCard)
		authed.POST("/cards/:id/enhance", h.EnhanceCard)

		authed.GET("/tags/suggestions", h.SuggestTags)

		authed.GET("/groups", h.ListGroups)
		authed.POST("/groups", h.CreateGroup)
		authed.GET("/groups/:id", h.GetGroup)
		authed.PATCH("/groups/:id", h.UpdateGroup)
		authed.DELETE("/groups/:id", h.DeleteGroup)
		authed.GET("/groups/:id/cards", h.GroupCards)
		authed.POST("/groups/:id/cards", h.AddGroupCards)
		authed.DELETE("/groups/:id/cards/:cardId", h.RemoveGroupCard)
	}

	return router
}
