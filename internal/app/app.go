package app

import (
	"alumni_backend/internal/config"
	"alumni_backend/internal/controller"
	"alumni_backend/internal/repository"
	"alumni_backend/internal/service"
	"alumni_backend/pkg/database"
	"alumni_backend/pkg/logger"
	"alumni_backend/pkg/monitoring"
	"alumni_backend/pkg/security"
	"alumni_backend/pkg/tracing"
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

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
	user         *repository.UserRepository
	job          *repository.JobRepository
	request      *repository.RequestRepository
	conversation *repository.ConversationRepository
	message      *repository.MessageRepository
	notification *repository.NotificationRepository
	event        *repository.EventRepository
}

type services struct {
	auth         *service.AuthService
	storage      *service.StorageService
	request      *service.RequestService
	conversation *service.ConversationService
	message      *service.MessageService
	notification *service.NotificationService
	event        *service.EventService
	orchestrator *service.Orchestrator
	pushHub      *service.PushHub
}

type controllers struct {
	auth         *controller.AuthController
	request      *controller.RequestController
	conversation *controller.ConversationController
	notification *controller.NotificationController
	event        *controller.EventController
	health       *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// ApplyConfig 配置热更新入口，由配置文件监听器触发
func (a *App) ApplyConfig(cfg *config.Config) {
	a.Config = cfg
	for _, callback := range a.configCallbacks {
		callback(cfg)
	}
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client) *repositories {
	return &repositories{
		user:         repository.NewUserRepository(db),
		job:          repository.NewJobRepository(db),
		request:      repository.NewRequestRepository(db),
		conversation: repository.NewConversationRepository(db),
		message:      repository.NewMessageRepository(db),
		notification: repository.NewNotificationRepository(db, rdb),
		event:        repository.NewEventRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, cfg)

	s.pushHub = service.NewPushHub(rdb, repos.conversation, &cfg.Push)
	go s.pushHub.Run()

	// 通知只从编排器产生
	s.orchestrator = service.NewOrchestrator(repos.notification, s.pushHub)

	s.request = service.NewRequestService(repos.request, repos.user, repos.job, s.orchestrator)
	s.conversation = service.NewConversationService(repos.conversation, repos.user)
	s.message = service.NewMessageService(repos.message, repos.conversation, s.orchestrator, s.pushHub)
	s.notification = service.NewNotificationService(repos.notification)
	s.event = service.NewEventService(repos.event, repos.user, s.orchestrator)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:         controller.NewAuthController(s.auth),
		request:      controller.NewRequestController(s.request),
		conversation: controller.NewConversationController(s.conversation, s.message, s.storage, s.pushHub),
		notification: controller.NewNotificationController(s.notification),
		event:        controller.NewEventController(s.event),
		health:       controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 1000
	}
	windowMinutes := cfg.RateLimit.WindowMinutes
	if windowMinutes <= 0 {
		windowMinutes = 1
	}
	router.Use(security.RateLimiter(maxRequests, time.Duration(windowMinutes)*time.Minute))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

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

	repos := app.initRepositories(db, rdb)
	services := app.initServices(repos, cfg, rdb)
	app.services = services
	controllers := app.initControllers(services, db, rdb)

	// 监控初始化
	monitoring.Init()

	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("alumni-platform", cfg.Tracing.CollectorEndpoint); err != nil {
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

	// 启动服务器
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

	// 清理 WebSocket连接和Redis在线状态
	if a.services != nil && a.services.pushHub != nil {
		a.services.pushHub.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
