package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"pixel-editor/internal/editor"
	httpHandler "pixel-editor/internal/handler/http"
	wsHandler "pixel-editor/internal/handler/websocket"
	"pixel-editor/internal/hub"
	rediscache "pixel-editor/internal/infra/cache/redis"
	gormpersistence "pixel-editor/internal/infra/persistence/gorm"
	"pixel-editor/internal/infra/setup"
	"pixel-editor/internal/middleware"
	"pixel-editor/internal/service"
	"pixel-editor/internal/tasks"
	"pixel-editor/internal/worker"
)

// sweepSchedule 是空闲会话清理任务的周期
const sweepSchedule = "@every 5m"

// App 结构体包含应用的所有组件和配置
type App struct {
	Config      *Config
	Log         *logrus.Logger
	DB          *gorm.DB
	RedisClient *redis.Client
	AsynqClient *asynq.Client
	AsynqServer *worker.WorkerServer
	Scheduler   *asynq.Scheduler
	Hub         *hub.Hub
	HttpServer  *http.Server
}

// NewLogger 按环境创建应用 logger：生产环境使用 JSON，其余使用彩色文本
func NewLogger(cfg *Config) *logrus.Logger {
	log := logrus.New()
	if cfg.AppEnv == "production" {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, ForceColors: true})
	}
	level, _ := logrus.ParseLevel(cfg.LogLevel) // LoadConfig 已校验
	log.SetLevel(level)
	log.SetOutput(os.Stdout)
	return log
}

// NewApp 创建并初始化应用的所有组件
func NewApp() (*App, error) {
	// 1. 加载配置
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return nil, err
	}

	// 2. 初始化 Logger
	log := NewLogger(cfg)
	logrus.SetLevel(log.GetLevel())
	logrus.SetFormatter(log.Formatter)
	editor.SetLogger(log)
	log.Infof("Logger initialized (Level: %s)", log.GetLevel())

	// 3. 初始化基础设施
	db, err := setup.InitDB(cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return nil, fmt.Errorf("failed to init DB: %w", err)
	}
	if err := setup.MigrateDB(db); err != nil {
		return nil, fmt.Errorf("failed to migrate DB: %w", err)
	}
	redisClient, err := setup.InitRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, fmt.Errorf("failed to init Redis: %w", err)
	}
	redisClientOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
	asynqClient := asynq.NewClient(redisClientOpt)
	log.Info("Infrastructure initialized successfully")

	// 4. Repositories
	userRepo := gormpersistence.NewGormUserRepository(db)
	imageRepo := gormpersistence.NewGormImageRepository(db)
	imageCache := rediscache.NewRedisImageCache(redisClient, cfg.KeyPrefix)

	// 5. Services
	authService, err := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTExpiryHours)
	if err != nil {
		return nil, fmt.Errorf("failed to create AuthService: %w", err)
	}
	imageService := service.NewImageService(imageRepo, imageCache, cfg.ImageCacheTTL, cfg.Grid())

	// 6. Hub: 每个连接一个私有会话
	dispatcher := hub.NewDispatcher(imageService, asynqClient)
	hubInstance := hub.NewHub(dispatcher, cfg.EditorOptions(), cfg.SessionIdleTimeout)

	// 7. Worker 和周期任务
	// 每个实例只清理自己的 Hub，清理任务走实例专用队列
	sweepQueue := tasks.SweepQueue(cfg.InstanceID)
	workerServer := worker.NewWorkerServer(redisClientOpt, sweepQueue, imageService, hubInstance, log)
	scheduler := asynq.NewScheduler(redisClientOpt, &asynq.SchedulerOpts{Logger: log.WithField("component", "scheduler")})
	entryID, err := scheduler.Register(sweepSchedule, tasks.NewSessionSweepTask(sweepQueue))
	if err != nil {
		return nil, fmt.Errorf("failed to register session sweep task: %w", err)
	}
	log.Infof("Session sweep task registered with schedule '%s' on queue '%s' (EntryID: %s)", sweepSchedule, sweepQueue, entryID)

	// 8. Router
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := NewRouter(cfg, log, redisClient,
		httpHandler.NewAuthHandler(authService),
		httpHandler.NewImageHandler(imageService),
		wsHandler.NewWebSocketHandler(hubInstance, cfg.AllowedOrigin),
	)

	return &App{
		Config:      cfg,
		Log:         log,
		DB:          db,
		RedisClient: redisClient,
		AsynqClient: asynqClient,
		AsynqServer: workerServer,
		Scheduler:   scheduler,
		Hub:         hubInstance,
		HttpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// NewRouter 注册中间件和全部路由
func NewRouter(cfg *Config, log *logrus.Logger, redisClient *redis.Client,
	authHandler *httpHandler.AuthHandler, imageHandler *httpHandler.ImageHandler, ws *wsHandler.WebSocketHandler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(log))
	router.Use(CORSMiddleware(cfg.AllowedOrigin))
	if redisClient != nil {
		router.Use(middleware.RateLimit(redisClient, cfg.KeyPrefix, cfg.RateLimitMax, cfg.RateLimitWindow))
	}

	api := router.Group("/api")
	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
	}
	imageRoutes := api.Group("/images", middleware.Auth(cfg.JWTSecret))
	{
		imageRoutes.POST("", imageHandler.Save)
		imageRoutes.GET("", imageHandler.List)
		imageRoutes.GET("/:name", imageHandler.Get)
		imageRoutes.GET("/:name/preview", imageHandler.Preview)
		imageRoutes.DELETE("/:name", imageHandler.Delete)
	}
	router.GET("/ws/editor", middleware.Auth(cfg.JWTSecret), ws.HandleConnection)
	router.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"message": "pong"}) })
	return router
}

// Start 启动 Hub、Worker、Scheduler 和 HTTP 服务器
func (a *App) Start() {
	go a.Hub.Run()
	go a.AsynqServer.Start()

	if err := a.Scheduler.Start(); err != nil {
		a.Log.Errorf("Asynq scheduler failed to start: %v", err)
	}

	go func() {
		a.Log.Infof("HTTP server starting to listen on %s", a.HttpServer.Addr)
		if err := a.HttpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Log.Fatalf("Failed to start HTTP server: %v", err)
		}
		a.Log.Info("HTTP server stopped listening.")
	}()
}

// Shutdown 优雅地关闭应用，顺序与启动相反
func (a *App) Shutdown() {
	a.Log.Info("Shutting down application...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.HttpServer.Shutdown(ctx); err != nil {
		a.Log.Errorf("Error shutting down HTTP server: %v", err)
	}

	// 关闭所有编辑连接，未保存的会话随之丢弃
	a.Hub.Stop()
	a.Scheduler.Shutdown()
	a.AsynqServer.Shutdown()

	if err := a.AsynqClient.Close(); err != nil {
		a.Log.Errorf("Error closing Asynq client: %v", err)
	}
	if err := a.RedisClient.Close(); err != nil {
		a.Log.Errorf("Error closing Redis connection: %v", err)
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			a.Log.Errorf("Error closing database connection: %v", err)
		}
	}
	a.Log.Info("Application shutdown complete.")
}

// CORSMiddleware 只允许配置的来源
func CORSMiddleware(allowedOrigin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// LoggerMiddleware 创建一个 Gin 中间件用于记录请求日志
func LoggerMiddleware(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.Request.URL.Path
		if c.Request.URL.RawQuery != "" {
			q := c.Request.URL.Query()
			if q.Has("token") {
				q.Set("token", "REDACTED")
			}
			path = path + "?" + q.Encode()
		}
		statusCode := c.Writer.Status()
		entry := log.WithFields(logrus.Fields{
			"status_code": statusCode,
			"latency_ms":  time.Since(start).Milliseconds(),
			"client_ip":   c.ClientIP(),
			"method":      c.Request.Method,
			"path":        path,
		})

		if msg := c.Errors.ByType(gin.ErrorTypePrivate).String(); msg != "" {
			entry.Error(msg)
			return
		}
		switch {
		case statusCode >= 500:
			entry.Error("Server error")
		case statusCode >= 400:
			entry.Warn("Client error")
		default:
			entry.Info("Request handled")
		}
	}
}
