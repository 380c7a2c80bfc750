package main

import (
	"context"
	"log"
	"os"

	"cloud.google.com/go/firestore"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"google.golang.org/api/option"

	fbapp "firebase.google.com/go/v4"

	"firedispatch/internal/adapter/api"
	"firedispatch/internal/adapter/api/handler"
	apimiddleware "firedispatch/internal/adapter/api/middleware"
	"firedispatch/internal/adapter/api/router"
	"firedispatch/internal/adapter/repository"
	"firedispatch/internal/infrastructure/firebase"
	"firedispatch/internal/infrastructure/storage"
	"firedispatch/internal/infrastructure/websocket"
	"firedispatch/internal/usecase"
	"firedispatch/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	var opt option.ClientOption

	serviceAccountJSON := os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON")
	serviceAccountPath := ""
	if serviceAccountJSON != "" {
		log.Printf("Using Firebase service account from environment variable")
		opt = option.WithCredentialsJSON([]byte(serviceAccountJSON))
	} else {
		serviceAccountPath = os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH")
		if serviceAccountPath == "" {
			serviceAccountPath = "./service-account.json"
		}

		if _, err := os.Stat(serviceAccountPath); os.IsNotExist(err) {
			log.Fatalf("Service account file does not exist: %s", serviceAccountPath)
		}

		log.Printf("Using Firebase service account from file: %s", serviceAccountPath)
		opt = option.WithCredentialsFile(serviceAccountPath)
	}

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opt)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase Auth: %v", err)
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opt)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	storageClient, err := storage.NewCloudStorageClient(ctx, cfg.StorageBucket, cfg.FirebaseProject, serviceAccountPath)
	if err != nil {
		log.Fatalf("Failed to initialize Cloud Storage: %v", err)
	}
	defer storageClient.Close()

	messageRepo := repository.NewFirestoreMessageRepository(firestoreClient)
	participantRepo := repository.NewFirestoreParticipantRepository(firestoreClient)

	wsManager := websocket.NewManager(participantRepo)
	wsManager.Start(ctx)

	messagingUseCase := usecase.NewMessagingUseCase(messageRepo, participantRepo)

	e := echo.New()

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(authClient)
	fbAuthClient := firebase.NewFirebaseAuthClient(authClient)

	healthHandler := handler.NewHealthHandler()
	messageHandler := handler.NewMessageHandler(messagingUseCase)
	participantHandler := handler.NewParticipantHandler(participantRepo, fbAuthClient)
	attachmentHandler := handler.NewAttachmentHandler(storageClient)
	wsHandler := handler.NewWebSocketHandler(wsManager, fbAuthClient, participantRepo, messageRepo)

	e.GET("/health", healthHandler.Check)

	router.SetupMessageRouter(e, messageHandler, authMiddleware)
	router.SetupParticipantRouter(e, participantHandler, authMiddleware)
	router.SetupAttachmentRouter(e, attachmentHandler, authMiddleware)
	router.SetupWebSocketRouter(e, wsHandler)

	log.Printf("Starting server on port %s...", cfg.ServerPort)
	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}
