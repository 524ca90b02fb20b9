package router

import (
	"github.com/labstack/echo/v4"

	"bountyhub/internal/adapter/api/handler"
	"bountyhub/internal/adapter/api/middleware"
	"bountyhub/internal/infrastructure/ratelimit"
)

func SetupDisputeRouter(
	e *echo.Echo,
	disputeHandler *handler.DisputeHandler,
	appealHandler *handler.AppealHandler,
	authMiddleware *middleware.AuthMiddleware,
	rateLimitMiddleware *middleware.RateLimitMiddleware,
) {
	disputes := e.Group("/v1/disputes")
	disputes.Use(authMiddleware.Authenticate)

	disputes.POST("", disputeHandler.CreateDispute, rateLimitMiddleware.Limit(ratelimit.ActionCreateDispute))
	disputes.GET("", disputeHandler.ListDisputes)
	disputes.GET("/:id", disputeHandler.GetDispute)
	disputes.GET("/:id/timeline", disputeHandler.GetTimeline)

	disputes.POST("/:id/evidence", disputeHandler.AddEvidence, rateLimitMiddleware.Limit(ratelimit.ActionAddEvidence))
	disputes.GET("/:id/evidence", disputeHandler.ListEvidence)
	disputes.POST("/:id/comments", disputeHandler.AddComment, rateLimitMiddleware.Limit(ratelimit.ActionAddComment))
	disputes.GET("/:id/comments", disputeHandler.ListComments)

	disputes.GET("/:id/resolution", appealHandler.GetResolution)
	disputes.POST("/:id/appeal", appealHandler.CreateAppeal)
}
