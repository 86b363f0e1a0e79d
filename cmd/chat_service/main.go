package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"vach_chat_service/internal/api/handlers"
	apirouter "vach_chat_service/internal/api/router"
	"vach_chat_service/internal/assistant"
	attachapp "vach_chat_service/internal/attachment/app"
	attachrepo "vach_chat_service/internal/attachment/repository"
	"vach_chat_service/internal/chat/app"
	"vach_chat_service/internal/chat/repository"
	"vach_chat_service/internal/chat/router"
	memberapp "vach_chat_service/internal/member/app"
	memberdomain "vach_chat_service/internal/member/domain"
	memberrepo "vach_chat_service/internal/member/repository"
	"vach_chat_service/pkg/config"
	"vach_chat_service/pkg/database"
	"vach_chat_service/pkg/logger"
	"vach_chat_service/pkg/middlewares"
	testtool "vach_chat_service/pkg/test_tool"
	token "vach_chat_service/pkg/token"

	_ "vach_chat_service/docs"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/gofiber/fiber/v2"
	fiber_log "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.ChatService, config.EnvConfig.ChatServiceLogPath)
	cfg := config.LoadConfig[config.Chat](config.EnvConfig.ChatService, config.EnvConfig.ChatServiceYAMLPath)
	cfg.ApplyDefaults()
	if config.EnvConfig.ChatServicePort != "" {
		cfg.Port = config.EnvConfig.ChatServicePort
	}
	token.Configure(cfg.JWT.Secret, cfg.JWT.TTL, cfg.JWT.Issuer)

	ctx := context.Background()

	// 1. Mongo (conversations / messages)
	mongo, err := database.NewMongoDB(ctx,
		database.Connection{
			ConnectStr:    cfg.MongoSQL.MongoURI(),
			RetryCount:    cfg.MongoSQL.RetryCount,
			RetryInterval: seconds(cfg.MongoSQL.RetryInterval),
		},
		cfg.MongoSQL.Database)
	if err != nil {
		logger.Log.Fatal("Unable to connect to mongoDB database after retries",
			zap.String("host", cfg.MongoSQL.Host), zap.Error(err))
	}
	convRepo := repository.NewMongoConversationRepository(mongo.Database)
	msgRepo := repository.NewMongoMessageRepository(mongo.Database)
	if err := convRepo.EnsureIndexes(ctx); err != nil {
		logger.Log.Fatal("ensure conversation indexes failed", zap.Error(err))
	}
	if err := msgRepo.EnsureIndexes(ctx); err != nil {
		logger.Log.Fatal("ensure message indexes failed", zap.Error(err))
	}

	// 2. PostgreSQL (members / uploads)
	pgConn := database.Connection{
		ConnectStr:    cfg.PostgreSQL.PostgresDSN(),
		RetryCount:    cfg.PostgreSQL.RetryCount,
		RetryInterval: seconds(cfg.PostgreSQL.RetryInterval),
	}
	pool, err := database.NewDatabaseConnection(pgConn)
	if err != nil {
		logger.Log.Fatal("Unable to connect to postgres after retries", zap.Error(err))
	}
	memberRepo := memberrepo.NewMemberRepository(pool)
	if err := memberRepo.Migrate(ctx); err != nil {
		logger.Log.Fatal("member migrate failed", zap.Error(err))
	}
	gormDB, err := database.NewGormConnection(pgConn)
	if err != nil {
		logger.Log.Fatal("Unable to open gorm connection", zap.Error(err))
	}
	uploadRepo := attachrepo.NewUploadRepository(gormDB)
	if err := uploadRepo.AutoMigrate(); err != nil {
		logger.Log.Fatal("upload migrate failed", zap.Error(err))
	}

	// 3. Redis (session / rate limit)
	masterName, sentinel := config.GetRedisSetting()
	redisClient, err := database.NewRedisClient(masterName, sentinel, cfg.Redis.Addr, cfg.Redis.RedisDB)
	if err != nil {
		logger.Log.Fatal("connect redis failed", zap.Error(err))
	}

	// 4. MinIO (attachments / avatars)
	minioClient, err := database.NewMinIOConnection(database.MinIOConnection{
		Endpoint:      cfg.MinIO.Endpoint,
		PublicURL:     cfg.MinIO.PublicURL,
		User:          cfg.MinIO.AccessKey,
		Password:      cfg.MinIO.SecretKey,
		BucketName:    cfg.MinIO.Bucket,
		UseSSL:        cfg.MinIO.UseSSL,
		RetryCount:    cfg.MinIO.RetryCount,
		RetryInterval: seconds(cfg.MinIO.RetryInterval),
	})
	if err != nil {
		logger.Log.Fatal("connect minIO failed", zap.Error(err))
	}

	// 5. Kafka (reconcile events), 沒設定 broker 時只寫 log
	reconcile := repository.NewLogReconcilePublisher()
	var kafkaWriter *kafka.Writer
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaWriter, err = database.NewKafkaWriterWithRetry(database.KafkaConnection{
			Brokers:       cfg.Kafka.Brokers,
			Topic:         cfg.Kafka.Topic,
			RetryCount:    cfg.Kafka.RetryCount,
			RetryInterval: seconds(cfg.Kafka.RetryInterval),
		})
		if err != nil {
			logger.Log.Warn("kafka unavailable, reconcile events go to log only", zap.Error(err))
		} else {
			reconcile = repository.NewKafkaReconcilePublisher(kafkaWriter)
		}
	}

	// 6. UseCases
	memberUC := memberapp.NewMemberUseCase(memberRepo, cfg.SessionTTL,
		database.NewRedisRepository[memberdomain.MemberSession](redisClient), cfg.Assistant.MemberID)
	if _, err := memberUC.EnsureAssistant(ctx, cfg.Assistant.MemberID, cfg.Assistant.Name, cfg.Assistant.Email); err != nil {
		logger.Log.Fatal("ensure assistant member failed", zap.Error(err))
	}
	attachmentUC := attachapp.NewAttachmentUseCase(minioClient, uploadRepo, cfg.Upload.MaxSize)

	presence := app.NewPresenceRegistry()
	directory := app.NewMemberDirectory(memberUC)
	delivery := app.NewDeliveryCoordinator(convRepo, msgRepo, directory, presence, reconcile, cfg.Assistant.MemberID)

	gemini := assistant.NewGeminiClient(assistant.GeminiConfig{
		BaseURL:         cfg.Assistant.BaseURL,
		APIKey:          cfg.Assistant.APIKey,
		Model:           cfg.Assistant.Model,
		Temperature:     cfg.Assistant.Temperature,
		MaxOutputTokens: cfg.Assistant.MaxOutputTokens,
		DefaultTimeout:  cfg.Assistant.Timeout,
	})
	if cfg.Assistant.APIKey == "" {
		logger.Log.Warn("assistant api key not configured, replies fall back to a fixed message")
	}
	assistantResponder := app.NewAssistantResponder(delivery, presence, directory, gemini, app.AssistantOptions{
		ContextLimit:   cfg.Assistant.ContextLimit,
		Timeout:        cfg.Assistant.Timeout,
		SimulateTyping: true,
	})

	wsHandler := app.NewChatWebsocketHandler(presence, app.NewTypingRelay(presence), app.WebsocketOptions{
		PingInterval: cfg.WebSocket.PingInterval,
		PongWait:     cfg.WebSocket.PongWait,
		WriteWait:    cfg.WebSocket.WriteWait,
		TypingPerSec: cfg.RateLimit.TypingPerSec,
		TypingBurst:  cfg.RateLimit.TypingBurst,
	})

	// 7. Fiber
	r := fiber.New(fiber.Config{
		BodyLimit: int(cfg.Upload.MaxSize) + 1024*1024,
	})
	accessLog := logger.AccessLogWriter(config.EnvConfig.ChatServiceLogPath)
	r.Use(fiber_log.New(fiber_log.Config{
		Output: accessLog,
	}))

	session := memberapp.SessionMiddleware(memberUC)
	limiter := middlewares.NewRedisLimiter(redisClient, "ratelimit:")
	apirouter.RegisterRoutes(r, apirouter.Handlers{
		Auth:    handlers.NewAuthHandler(memberUC, attachmentUC, config.IsProduction()),
		User:    handlers.NewUserHandler(delivery),
		Message: handlers.NewMessageHandler(delivery, attachmentUC),
	}, apirouter.Options{
		Session:       session,
		Limiter:       limiter,
		SendPerMinute: cfg.RateLimit.SendPerMinute,
		AuthLimiter:   limiter,
		AuthAttempts:  cfg.RateLimit.AuthAttempts,
		AuthWindow:    cfg.RateLimit.AuthWindow,
	})
	router.RegisterRoutes(r, wsHandler, session)

	testtool.StartPprof()

	go func() {
		port := ":" + cfg.Port
		logger.Log.Info(fmt.Sprintf("Chat Service listening on %s", port))
		if err := r.Listen(port); err != nil {
			logger.Log.Fatal("Failed to start Fiber", zap.Error(err))
		}
	}()

	// operation 之間是並行的, 依序關閉放在同一個 operation
	wait := gfshutdown.GracefulShutdown(ctx, shutdownTimeout, map[string]gfshutdown.Operation{
		"chat-service": func(ctx context.Context) error {
			if err := r.ShutdownWithContext(ctx); err != nil {
				logger.Log.Warn("fiber shutdown failed", zap.Error(err))
			}
			if err := waitAssistant(ctx, assistantResponder); err != nil {
				logger.Log.Warn("assistant replies still running", zap.Error(err))
			}
			if kafkaWriter != nil {
				if err := kafkaWriter.Close(); err != nil {
					logger.Log.Warn("kafka writer close failed", zap.Error(err))
				}
			}
			pool.Close()
			if err := redisClient.Close(); err != nil {
				logger.Log.Warn("redis close failed", zap.Error(err))
			}
			accessLog.Close()
			return mongo.Close(ctx)
		},
	})

	exitCode := <-wait
	logger.Log.Info("chat service exited", zap.Int("code", exitCode))
	logger.Log.Sync()
	os.Exit(exitCode)
}

// waitAssistant 等背景中的 AI 回覆寫完
func waitAssistant(ctx context.Context, a *app.AssistantResponder) error {
	done := make(chan struct{})
	go func() {
		a.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
