package main

import (
	"context"
	"log"
	"os"

	"cloud.google.com/go/firestore"
	fbapp "firebase.google.com/go/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"google.golang.org/api/option"

	"bountyhub/internal/adapter/api"
	"bountyhub/internal/adapter/api/handler"
	apimiddleware "bountyhub/internal/adapter/api/middleware"
	"bountyhub/internal/adapter/api/router"
	"bountyhub/internal/adapter/repository"
	"bountyhub/internal/domain/service"
	"bountyhub/internal/infrastructure/notification"
	"bountyhub/internal/infrastructure/ratelimit"
	"bountyhub/internal/usecase"
	"bountyhub/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	var opts []option.ClientOption

	// Service account comes from an env var in production, a file locally.
	if serviceAccountJSON := os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON"); serviceAccountJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(serviceAccountJSON)))
	} else if serviceAccountPath := os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH"); serviceAccountPath != "" {
		if _, err := os.Stat(serviceAccountPath); os.IsNotExist(err) {
			log.Fatalf("Service account file does not exist: %s", serviceAccountPath)
		}
		opts = append(opts, option.WithCredentialsFile(serviceAccountPath))
	}

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opts...)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase Auth: %v", err)
	}

	messagingClient, err := firebaseApp.Messaging(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase Messaging: %v", err)
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opts...)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	disputeRepo := repository.NewFirestoreDisputeRepository(firestoreClient)
	resolutionRepo := repository.NewFirestoreResolutionRepository(firestoreClient)
	appealRepo := repository.NewFirestoreAppealRepository(firestoreClient)
	auditRepo := repository.NewFirestoreAuditLogRepository(firestoreClient)
	cancellationRepo := repository.NewFirestoreCancellationRepository(firestoreClient)
	userRepo := repository.NewFirestoreUserRepository(firestoreClient)

	notifier := notification.NewFCMNotifier(messagingClient)
	settlementService := service.NewHTTPSettlementService(cfg.SettlementBaseURL, cfg.SettlementAPIKey)

	windows := usecase.Windows{
		Inactivity: cfg.InactivityWindow,
		Escalation: cfg.EscalationWindow,
		Appeal:     cfg.AppealWindow,
	}

	disputeUseCase := usecase.NewDisputeUseCase(disputeRepo, cancellationRepo, resolutionRepo, appealRepo, auditRepo, notifier, windows)
	ledgerUseCase := usecase.NewLedgerUseCase(disputeRepo, notifier, windows)
	resolutionUseCase := usecase.NewResolutionUseCase(disputeRepo, resolutionRepo, settlementService, notifier)
	appealUseCase := usecase.NewAppealUseCase(disputeRepo, resolutionRepo, appealRepo, notifier, windows)
	schedulerUseCase := usecase.NewSchedulerUseCase(disputeRepo, resolutionRepo, disputeUseCase, resolutionUseCase, notifier, windows, cfg.SchedulerBatch)

	rateLimiter := ratelimit.NewRateLimiter()
	rateLimiter.StartCleanupRoutine()

	e := echo.New()

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(authClient, userRepo)
	adminMiddleware := apimiddleware.NewAdminMiddleware()
	rateLimitMiddleware := apimiddleware.NewRateLimitMiddleware(rateLimiter)

	disputeHandler := handler.NewDisputeHandler(disputeUseCase, ledgerUseCase)
	appealHandler := handler.NewAppealHandler(appealUseCase, resolutionUseCase)
	adminHandler := handler.NewAdminHandler(disputeUseCase, resolutionUseCase, appealUseCase, schedulerUseCase)
	healthHandler := handler.NewHealthHandler(firestoreClient)

	router.Setup(e, disputeHandler, appealHandler, adminHandler, healthHandler, authMiddleware, adminMiddleware, rateLimitMiddleware)

	// Background automation: auto-close, escalation, settlement retries.
	schedulerUseCase.Start(ctx, cfg.SchedulerInterval)

	log.Printf("Starting server on port %s...", cfg.ServerPort)
	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}
