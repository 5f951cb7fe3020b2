package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"campuschat/internal/audit"
	"campuschat/internal/auth"
	"campuschat/internal/config"
	"campuschat/internal/domain"
	"campuschat/internal/events"
	"campuschat/internal/handler"
	"campuschat/internal/notify"
	"campuschat/internal/ratelimit"
	redisx "campuschat/internal/redis"
	"campuschat/internal/repository"
	"campuschat/internal/services"
	"campuschat/internal/storage"
	"campuschat/internal/websocket"
	"campuschat/pkg/database"
	"campuschat/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logMode := logger.DevelopmentMode
	if cfg.Server.Environment == "production" {
		logMode = logger.ProductionMode
	}
	l := logger.New(logMode)
	defer l.Sync()

	db, err := database.Connect(database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Name:     cfg.Database.Name,
		LogSQL:   cfg.Server.Environment != "production",
	})
	if err != nil {
		l.Errorf("connect to database: %v", err)
		os.Exit(1)
	}

	if err := db.AutoMigrate(
		&domain.Conversation{},
		&domain.Participant{},
		&domain.ConversationInvite{},
		&domain.MessageDraft{},
		&domain.Message{},
		&domain.MessageAttachment{},
		&domain.MessageReaction{},
		&domain.MessageReadReceipt{},
		&domain.PinnedMessage{},
	); err != nil {
		l.Errorf("migrate schema: %v", err)
		os.Exit(1)
	}

	redisClient := redisx.NewClient(redisx.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conversationRepo := repository.NewConversationRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	txManager := repository.NewTxManager(db)

	publisher := events.NewPublisher(redisx.NewPublisher(redisClient), events.NewChannelResolver())
	auditor := audit.NewStreamAuditor(redisClient, l)
	notifier := notify.NewLogNotifier(l)
	rateStore := ratelimit.NewRedisStore(redisClient)
	limiter := ratelimit.NewLimiter(rateStore, cfg.Messaging.SendLimit, cfg.Messaging.SendWindow)
	typingStore := redisx.NewTypingStore(redisClient, cfg.Messaging.TypingTTL)

	var s3Client *storage.Client
	if cfg.Storage.AccessKey != "" || cfg.Storage.Endpoint != "" {
		s3Client, err = storage.NewClient(ctx, storage.S3Config{
			Region:     cfg.Storage.Region,
			Bucket:     cfg.Storage.Bucket,
			AccessKey:  cfg.Storage.AccessKey,
			SecretKey:  cfg.Storage.SecretKey,
			Endpoint:   cfg.Storage.Endpoint,
			PublicBase: cfg.Storage.PublicURL,
			PresignTTL: 15 * time.Minute,
		})
		if err != nil {
			l.Warnf("attachment storage disabled: %v", err)
		}
	}

	conversationService := services.NewConversationService(conversationRepo, messageRepo, txManager, publisher, auditor, notifier, l)
	messageService := services.NewMessageService(
		conversationRepo, messageRepo, txManager, limiter, publisher, auditor, notifier, l,
		cfg.Messaging.EditWindow, cfg.Messaging.DefaultPageSize, cfg.Messaging.MaxPageSize,
	)
	typingService := services.NewTypingService(conversationRepo, typingStore, publisher, l)
	attachmentService := services.NewAttachmentService(conversationRepo, s3Client)

	tokenParser := auth.NewTokenParser(cfg.Auth.JWTSecret)

	hub := websocket.NewHub()
	go hub.Run(ctx)

	bridge := websocket.NewRedisBridge(redisx.NewSubscriber(redisClient), hub)
	go func() {
		patterns := []string{
			events.ChannelPrefixConversation + "*",
			events.ChannelPrefixUser + "*",
		}
		if err := bridge.Run(ctx, patterns); err != nil && ctx.Err() == nil {
			l.Errorf("redis bridge stopped: %v", err)
		}
	}()

	router := handler.NewRouter(handler.RouterDeps{
		Conversations: handler.NewConversationHandler(conversationService),
		Messages:      handler.NewMessageHandler(messageService),
		Typing:        handler.NewTypingHandler(typingService),
		Attachments:   handler.NewAttachmentHandler(attachmentService),
		WebSocket:     websocket.NewHandler(tokenParser, hub, websocket.NewChannelAuthorizer(conversationRepo), l),
		TokenParser:   tokenParser,
		RateStore:     rateStore,
		Logger:        l,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		l.Infof("listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Errorf("server stopped: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	l.Infof("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Errorf("shutdown: %v", err)
	}
	_ = redisClient.Close()
}
