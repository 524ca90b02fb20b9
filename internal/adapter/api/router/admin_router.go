package router

import (
	"github.com/labstack/echo/v4"

	"bountyhub/internal/adapter/api/handler"
	"bountyhub/internal/adapter/api/middleware"
)

func SetupAdminRouter(
	e *echo.Echo,
	adminHandler *handler.AdminHandler,
	authMiddleware *middleware.AuthMiddleware,
	adminMiddleware *middleware.AdminMiddleware,
) {
	admin := e.Group("/v1/admin")
	admin.Use(authMiddleware.Authenticate)
	admin.Use(adminMiddleware.AdminOnly)

	admin.POST("/disputes/:id/review", adminHandler.MarkUnderReview)
	admin.POST("/disputes/:id/close", adminHandler.CloseDispute)
	admin.POST("/disputes/:id/resolution", adminHandler.ProposeResolution)
	admin.POST("/disputes/:id/appeal/review", adminHandler.ReviewAppeal)

	admin.GET("/disputes/stats", adminHandler.GetStats)
	admin.POST("/jobs/run", adminHandler.RunJobs)
}
