package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MyMonsterVR/location-app-school-backend/internal/cache"
	"github.com/MyMonsterVR/location-app-school-backend/internal/config"
	"github.com/MyMonsterVR/location-app-school-backend/internal/domain"
	"github.com/MyMonsterVR/location-app-school-backend/internal/handler"
	"github.com/MyMonsterVR/location-app-school-backend/internal/hub"
	"github.com/MyMonsterVR/location-app-school-backend/internal/notify"
	"github.com/MyMonsterVR/location-app-school-backend/internal/repository"
	"github.com/MyMonsterVR/location-app-school-backend/internal/service"
	"github.com/MyMonsterVR/location-app-school-backend/pkg/database"
	"github.com/MyMonsterVR/location-app-school-backend/pkg/jwt"
	"github.com/MyMonsterVR/location-app-school-backend/pkg/log"
	"github.com/MyMonsterVR/location-app-school-backend/pkg/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := log.L()
		boot.Fatal().Err(err).Msg("failed to load configuration")
	}

	log.Init(cfg.Log)
	l := log.L()
	l.Info().Str("host", cfg.Server.Host).Int("port", cfg.Server.Port).Msg("starting chat backend")

	// The durable store being unreachable at boot is the only fatal failure.
	db, err := database.New(&cfg.Database)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.AutoMigrate(db, &domain.MessageModel{}, &domain.RoomModel{}); err != nil {
		l.Fatal().Err(err).Msg("failed to migrate database")
	}
	l.Info().Str("driver", cfg.Database.Driver).Msg("connected to database")

	var historyCache cache.HistoryCache
	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedisHistoryCache(cfg.Redis, cfg.History.CachePrefix)
		if err != nil {
			l.Fatal().Err(err).Msg("failed to connect to redis")
		}
		historyCache = redisCache
		l.Info().Str("address", cfg.Redis.Address).Msg("connected to redis")
	} else {
		historyCache = cache.NewMemoryHistoryCache(cfg.History.CachePrefix)
	}
	defer historyCache.Close()

	messageRepo := repository.NewGormMessageRepository(db)
	roomRepo := repository.NewGormRoomRepository(db)

	wsHub := hub.NewHub()
	go wsHub.Run()

	chatSvc := service.NewChatService(wsHub, messageRepo, roomRepo, notify.NopPusher{})
	historySvc := service.NewHistoryService(messageRepo, historyCache, cfg.History.CacheTTL)
	roomSvc := service.NewRoomService(wsHub, roomRepo)

	tokens := jwt.NewManager(cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Auth.TokenExpiry)
	authMiddleware := middleware.NewAuthMiddleware(tokens)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(log.GinMiddleware(l))

	wsHandler := handler.NewWSHandler(wsHub, chatSvc, cfg.WebSocket)
	wsHandler.RegisterRoutes(r)

	httpHandler := handler.NewHTTPHandler(chatSvc, historySvc, roomSvc, authMiddleware)
	httpHandler.RegisterRoutes(r)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		l.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	l.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		l.Warn().Err(err).Msg("server forced to shutdown")
	}

	l.Info().Msg("stopped")
}
