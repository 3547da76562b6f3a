package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"
	"github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	_ "github.com/princekumarofficial/familybook/docs"
	"github.com/princekumarofficial/familybook/internal/cache"
	"github.com/princekumarofficial/familybook/internal/config"
	"github.com/princekumarofficial/familybook/internal/events"
	"github.com/princekumarofficial/familybook/internal/http/handlers/accounts"
	"github.com/princekumarofficial/familybook/internal/http/handlers/albums"
	"github.com/princekumarofficial/familybook/internal/http/handlers/photos"
	"github.com/princekumarofficial/familybook/internal/http/handlers/stories"
	"github.com/princekumarofficial/familybook/internal/http/handlers/users"
	wsHandlers "github.com/princekumarofficial/familybook/internal/http/handlers/websocket"
	"github.com/princekumarofficial/familybook/internal/http/middleware"
	"github.com/princekumarofficial/familybook/internal/logger"
	"github.com/princekumarofficial/familybook/internal/ratelimit"
	"github.com/princekumarofficial/familybook/internal/services/access"
	"github.com/princekumarofficial/familybook/internal/services/auth"
	"github.com/princekumarofficial/familybook/internal/services/media"
	"github.com/princekumarofficial/familybook/internal/services/upload"
	"github.com/princekumarofficial/familybook/internal/storage/postgres"
	"github.com/princekumarofficial/familybook/internal/utils/response"
	"github.com/princekumarofficial/familybook/internal/websocket"
)

// @title familybook API
// @version 1.0
// @description Private family accounts sharing albums, photos and stories.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// load config
	cfg := config.MustLoad()

	zl, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %s", err)
	}
	defer zl.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// database setup
	pg, err := postgres.NewPostgres(cfg)
	if err != nil {
		zl.Fatal("failed to initialize database", zap.Error(err))
	}
	defer pg.Close()
	zl.Info("connected to postgres")

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		zl.Fatal("failed to connect to redis", zap.Error(err))
	}
	zl.Info("connected to redis", zap.String("addr", cfg.Redis.Addr))

	minioClient, err := media.NewClient(cfg.MinIO)
	if err != nil {
		zl.Fatal("failed to initialize minio", zap.Error(err))
	}
	mediaSvc := media.NewService(minioClient, cfg)
	if err := mediaSvc.EnsureBuckets(ctx); err != nil {
		zl.Fatal("failed to prepare buckets", zap.Error(err))
	}

	// services
	store := cache.NewCacheService(pg, redisClient, zl)
	authSvc := auth.NewService(pg, auth.NewRedisRevocations(redisClient), cfg.JWTSecret, cfg.TokenTTL, zl)
	accessSvc := access.NewService(store)
	gateway := upload.NewGateway(mediaSvc, zl)

	hub := websocket.NewHub(zl)
	go hub.Run(ctx)
	publisher := events.NewEventPublisher(hub, store, zl)

	// handlers
	maxBody := cfg.Media.MaxBatchSize
	accountHandlers := accounts.NewAccountHandlers(store, accessSvc, publisher, zl)
	albumHandlers := albums.NewAlbumHandlers(store, accessSvc, zl)
	photoHandlers := photos.NewPhotoHandlers(store, accessSvc, gateway, cfg.Media.PhotosBucket, maxBody, zl)
	storyHandlers := stories.NewStoryHandlers(store, accessSvc, gateway, publisher, cfg.Media.StoriesBucket, maxBody, zl)
	socketHandlers := wsHandlers.NewWebSocketHandlers(hub, cfg.HTTPServer.AllowedOrigins, accessSvc, store, publisher, cfg.Playback, zl)

	requireAuth := middleware.AuthMiddleware(authSvc, zl)
	limits := middleware.NewRateLimitConfig(redisClient, cfg.RateLimit, zl)

	// setup router
	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		response.WriteJSON(w, http.StatusOK, response.RequestOK("ok", map[string]int{
			"websocket_connections": hub.GetClientCount(),
		}))
	})
	router.Get("/healthz/cache", cache.GetCacheStats(redisClient, zl))
	router.Get("/swagger/*", httpSwagger.WrapHandler)

	router.Post("/signup", users.SignUp(authSvc, zl))
	router.Post("/login", users.Login(authSvc, zl))

	router.Group(func(r chi.Router) {
		r.Use(requireAuth)

		r.Post("/logout", users.Logout(authSvc, zl))
		r.Get("/me", users.Me(authSvc, zl))
		r.With(middleware.AdminOnly(cfg.AdminUserIDs, zl)).Delete("/admin/cache", cache.ClearCache(redisClient, zl))

		r.Get("/accounts/mine", accountHandlers.Mine())
		r.With(limits.RateLimitMiddleware(ratelimit.ActionJoins)).Post("/accounts/join", accountHandlers.Join())

		r.Route("/accounts/{account_id}", func(r chi.Router) {
			r.Get("/members", accountHandlers.ListMembers())
			r.Put("/members", accountHandlers.UpdateMembers())
			r.Get("/albums", albumHandlers.List())
			r.Post("/albums", albumHandlers.Create())
			r.Get("/stories", storyHandlers.Feed())
			r.With(limits.RateLimitMiddleware(ratelimit.ActionUploads)).Post("/stories", storyHandlers.PostStory())
			r.Get("/stories/live", socketHandlers.LiveStories())
		})

		r.Get("/albums/{album_id}", albumHandlers.Get())
		r.Patch("/albums/{album_id}", albumHandlers.Rename())
		r.Delete("/albums/{album_id}", albumHandlers.Delete())
		r.Get("/albums/{album_id}/photos", photoHandlers.List())
		r.With(limits.RateLimitMiddleware(ratelimit.ActionUploads)).Post("/albums/{album_id}/photos", photoHandlers.Upload())

		r.Delete("/photos/{photo_id}", photoHandlers.Delete())
		r.Post("/photos/{photo_id}/like", photoHandlers.Like())
		r.Get("/photos/{photo_id}/comments", photoHandlers.ListComments())
		r.With(limits.RateLimitMiddleware(ratelimit.ActionComments)).Post("/photos/{photo_id}/comments", photoHandlers.AddComment())
		r.Delete("/photos/{photo_id}/comments/{comment_id}", photoHandlers.DeleteComment())

		r.Delete("/stories/{story_id}", storyHandlers.DeleteStory())

		r.Get("/ws", socketHandlers.Events())
	})

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.HTTPServer.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
	})

	server := http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      corsHandler.Handler(router),
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
	}

	go func() {
		zl.Info("server started", zap.String("address", cfg.HTTPServer.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()

	zl.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zl.Error("failed to gracefully shutdown server", zap.Error(err))
		return
	}

	zl.Info("server stopped")
}
