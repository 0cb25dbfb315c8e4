package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ielts_prep_backend/internal/config"
	"ielts_prep_backend/internal/controller"
	"ielts_prep_backend/internal/repository"
	"ielts_prep_backend/internal/service"
	"ielts_prep_backend/pkg/database"
	"ielts_prep_backend/pkg/logger"
	"ielts_prep_backend/pkg/monitoring"
	"ielts_prep_backend/pkg/security"
	"ielts_prep_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user       *repository.UserRepository
	session    *repository.ExamSessionRepository
	progress   *repository.ProgressRepository
	preference *repository.PreferenceRepository
	resource   *repository.StudyResourceRepository
}

type services struct {
	auth      *service.AuthService
	user      *service.UserService
	storage   *service.StorageService
	session   *service.ExamSessionService
	analytics *service.AnalyticsService
	resource  *service.StudyResourceService
}

type controllers struct {
	auth      *controller.AuthController
	user      *controller.UserController
	session   *controller.ExamSessionController
	analytics *controller.AnalyticsController
	resource  *controller.StudyResourceController
	health    *controller.HealthController
}

// RegisterConfigCallback 配置热更新时依次回调（引擎调参等）
func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// ReloadConfig 配置文件变化后由 watcher 调用
func (a *App) ReloadConfig(cfg *config.Config) {
	a.Config = cfg
	for _, callback := range a.configCallbacks {
		callback(cfg)
	}
	logger.Log.Info("configuration reloaded")
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:       repository.NewUserRepository(db),
		session:    repository.NewExamSessionRepository(db),
		progress:   repository.NewProgressRepository(db),
		preference: repository.NewPreferenceRepository(db),
		resource:   repository.NewStudyResourceRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.user = service.NewUserService(repos.user, repos.preference)
	s.analytics = service.NewAnalyticsService(repos.progress, repos.session, repos.preference, repos.resource, repos.user, rdb)
	s.analytics.ApplyConfig(cfg)
	s.session = service.NewExamSessionService(repos.session, repos.progress, s.analytics)
	s.resource = service.NewStudyResourceService(repos.resource, s.storage)

	a.RegisterConfigCallback(s.analytics.ApplyConfig)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:      controller.NewAuthController(s.auth),
		user:      controller.NewUserController(s.user),
		session:   controller.NewExamSessionController(s.session),
		analytics: controller.NewAnalyticsController(s.analytics),
		resource:  controller.NewStudyResourceController(s.resource),
		health:    controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 10000
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg.Server.Mode)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, rdb)
	app.services = services
	controllers := app.initControllers(services, db, rdb)

	// 监控初始化
	monitoring.Init()

	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("ielts-prep-backend", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, repos, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
