package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"senadirectory/config"
	"senadirectory/cron"
	"senadirectory/database"
	"senadirectory/database/kvstore"
	companyRepo "senadirectory/database/repository/company"
	"senadirectory/handlers"
	"senadirectory/middleware"
	"senadirectory/routes"
	"senadirectory/services/email"
	"senadirectory/services/registration"
	"senadirectory/services/search"
	"senadirectory/services/social"
	"senadirectory/services/storage"
	"senadirectory/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// newKVStore selects the key-value backend from configuration.
func newKVStore(logger *zap.Logger) kvstore.Store {
	switch config.AppConfig.KVBackend {
	case "memory":
		logger.Warn("main: using in-memory key-value store; state is lost on restart")
		return kvstore.NewMemoryStore(config.AppConfig.KVMaxBytes)
	default:
		return kvstore.NewRedisStore(utils.GetCacheClient(), config.AppConfig.KVNamespace, 0, logger)
	}
}

func statsLocation(logger *zap.Logger) *time.Location {
	loc, err := time.LoadLocation(config.AppConfig.StatsTimezone)
	if err != nil {
		logger.Warn("main: invalid STATS_TIMEZONE, using UTC",
			zap.String("timezone", config.AppConfig.StatsTimezone), zap.Error(err))
		return time.UTC
	}
	return loc
}

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	defer logger.Sync()

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	database.InitDB()
	utils.InitCache()
	utils.StartHealthMonitor(ctx, utils.GetCacheClient(), database.MongoClient, 30*time.Second)

	// stores and repositories.
	kv := newKVStore(logger)
	directoryRepo := companyRepo.NewMongoDirectoryRepo(database.Database(), logger)

	// services.
	socialCache := social.NewCache(kv, logger)
	emailStore := email.NewStore(kv, logger,
		email.WithLocation(statsLocation(logger)),
		email.WithFailureRate(config.AppConfig.EmailFailureRate),
	)
	registrationSvc := registration.NewService(kv, directoryRepo, logger)
	registrationSvc.StartJanitor(ctx, time.Minute)
	searchHub := search.NewHub(directoryRepo, 10*time.Minute, logger)
	searchHub.StartJanitor(ctx, time.Minute)

	var articleStore *storage.ArticleStore
	resolver, err := storage.NewCloudinaryResolver(
		config.AppConfig.CloudinaryCloudName,
		config.AppConfig.CloudinaryAPIKey,
		config.AppConfig.CloudinaryAPISecret,
	)
	if err != nil {
		logger.Warn("main: article storage disabled", zap.Error(err))
	} else {
		articleStore = storage.NewArticleStore(resolver, kv, logger)
	}

	// background email worker.
	queue := cron.NewQueueClient()
	defer queue.Close()
	worker := cron.InitEmailWorker(ctx, emailStore, logger)

	// handlers.
	h := handlers.Handlers{
		Directory:    handlers.NewDirectoryHandler(directoryRepo, registrationSvc),
		LiveSearch:   handlers.NewLiveSearchHandler(searchHub),
		Registration: handlers.NewRegistrationHandler(registrationSvc),
		Social:       handlers.NewSocialHandler(socialCache),
		Email:        handlers.NewEmailHandler(emailStore, queue),
	}
	if articleStore != nil {
		h.Articles = handlers.NewArticleHandler(articleStore)
	}
	handlerBundle := handlers.NewHandlerBundle([]byte(config.AppConfig.AuthJWTSecret), h)

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RateLimitMiddleware(config.AppConfig.MaxRequestsPerMin))

	routes.RegisterRoutes(router, handlerBundle)

	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Info("main: starting server", zap.String("addr", srv.Addr))
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("main: server failed to start", zap.Error(err))
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("main: server is shutting down...")

	stop()
	searchHub.CloseAll()
	worker.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("main: server forced to shutdown", zap.Error(err))
	}
	logger.Info("main: server stopped gracefully")
}
