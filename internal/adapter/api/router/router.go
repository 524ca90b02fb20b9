package router

import (
	"github.com/labstack/echo/v4"

	"bountyhub/internal/adapter/api/handler"
	"bountyhub/internal/adapter/api/middleware"
)

func Setup(
	e *echo.Echo,
	disputeHandler *handler.DisputeHandler,
	appealHandler *handler.AppealHandler,
	adminHandler *handler.AdminHandler,
	healthHandler *handler.HealthHandler,
	authMiddleware *middleware.AuthMiddleware,
	adminMiddleware *middleware.AdminMiddleware,
	rateLimitMiddleware *middleware.RateLimitMiddleware,
) {
	SetupDisputeRouter(e, disputeHandler, appealHandler, authMiddleware, rateLimitMiddleware)
	SetupAdminRouter(e, adminHandler, authMiddleware, adminMiddleware)
	SetupHealthRouter(e, healthHandler)
}
