package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"vach_chat_service/internal/member/app"
	"vach_chat_service/internal/member/domain"
	"vach_chat_service/internal/member/repository"
	"vach_chat_service/pkg/config"
	"vach_chat_service/pkg/database"
	"vach_chat_service/pkg/logger"
)

// 建立 AI 助理帳號, chat_service 啟動時也會確認一次
func main() {
	logger.Log = logger.Initialize("seed_assistant", config.EnvConfig.ChatServiceLogPath)
	defer logger.Log.Sync()

	cfg := config.LoadConfig[config.Chat](config.EnvConfig.ChatService, config.EnvConfig.ChatServiceYAMLPath)
	cfg.ApplyDefaults()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := database.NewDatabaseConnection(database.Connection{
		ConnectStr:    cfg.PostgreSQL.PostgresDSN(),
		RetryCount:    cfg.PostgreSQL.RetryCount,
		RetryInterval: time.Duration(cfg.PostgreSQL.RetryInterval) * time.Second,
	})
	if err != nil {
		logger.Log.Fatal("Unable to connect to postgreSQL database after retries",
			zap.String("host", cfg.PostgreSQL.Host), zap.Error(err))
	}
	defer pool.Close()

	memberRepo := repository.NewMemberRepository(pool)
	if err := memberRepo.Migrate(ctx); err != nil {
		logger.Log.Fatal("member migrate failed", zap.Error(err))
	}

	masterName, sentinel := config.GetRedisSetting()
	redisClient, err := database.NewRedisClient(masterName, sentinel, cfg.Redis.Addr, cfg.Redis.RedisDB)
	if err != nil {
		logger.Log.Fatal("connect redis failed", zap.Error(err))
	}
	defer redisClient.Close()

	usecase := app.NewMemberUseCase(memberRepo, cfg.SessionTTL,
		database.NewRedisRepository[domain.MemberSession](redisClient), cfg.Assistant.MemberID)

	member, err := usecase.EnsureAssistant(ctx, cfg.Assistant.MemberID, cfg.Assistant.Name, cfg.Assistant.Email)
	if err != nil {
		logger.Log.Fatal("seed assistant failed", zap.Error(err))
	}
	logger.Log.Info("assistant ready",
		zap.String("member_id", member.MemberID),
		zap.String("name", member.Name),
		zap.String("email", member.Email))
}
