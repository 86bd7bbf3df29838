package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/yourusername/cabinet-api/internal/config"
	"github.com/yourusername/cabinet-api/internal/handler"
	"github.com/yourusername/cabinet-api/internal/middleware"
	pgRepo "github.com/yourusername/cabinet-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/cabinet-api/internal/repository/redis"
	"github.com/yourusername/cabinet-api/internal/service"
	"github.com/yourusername/cabinet-api/internal/service/emailflow"
	"github.com/yourusername/cabinet-api/pkg/auth"
	"github.com/yourusername/cabinet-api/pkg/database"
	"github.com/yourusername/cabinet-api/pkg/wbapi"
)

func main() {
	// Загружаем конфигурацию
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("Загрузка конфигурации из %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к PostgreSQL
	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString())
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	// Применяем миграции
	if err := database.MigrateDB(db); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к Redis с использованием унифицированной конфигурации
	redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
	if err != nil {
		log.Printf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	log.Println("Successfully connected to Redis")

	// Инициализируем репозитории
	userRepo := pgRepo.NewUserRepo(db)
	resetRepo := pgRepo.NewPasswordResetRepo(db)
	sessionRepo := pgRepo.NewUserSessionRepo(db)
	cabinetRepo := pgRepo.NewWBCabinetRepo(db)

	cacheRepo, err := redisRepo.NewCacheRepo(redisClient)
	if err != nil {
		log.Printf("Failed to initialize CacheRepo: %v", err)
		os.Exit(1)
	}

	sessionLifetime := cfg.Session.SessionLifetime()

	// Инициализируем JWTService
	jwtService, err := auth.NewJWTService(cfg.JWT.Secret, sessionLifetime)
	if err != nil {
		log.Printf("Failed to initialize JWTService: %v", err)
		os.Exit(1)
	}

	// Движок кодов подтверждения: состояние flow живёт в Redis,
	// счётчик отправок сохраняется на весь срок жизни сессии
	flowConfig := emailflow.DefaultConfig()
	flowConfig.StateTTL = sessionLifetime
	flowEngine := emailflow.NewEngine(emailflow.NewRedisStore(cacheRepo), nil, flowConfig)

	// Исходящая почта
	var emailService service.EmailService
	switch cfg.Email.Provider {
	case "resend":
		emailService, err = service.NewResendEmailService(cfg.Email.ResendAPIKey, cfg.Email.From)
		if err != nil {
			log.Printf("Failed to initialize ResendEmailService: %v", err)
			os.Exit(1)
		}
	default:
		log.Println("Исходящая почта отключена, коды пишутся в лог (provider=noop)")
		emailService = &service.NoopEmailService{}
	}

	// Клиент WB API
	wbClient := wbapi.NewClient(cfg.Wildberries.SellerInfoURL)

	// Инициализируем сервисы
	emailCodeService := service.NewEmailCodeService(flowEngine, userRepo, resetRepo, emailService, cfg.Email.AllowedDomains)
	authService := service.NewAuthService(userRepo, emailCodeService, cfg.Email.AllowedDomains)
	userService := service.NewUserService(userRepo)
	sessionService := service.NewSessionService(sessionRepo, sessionLifetime)
	cabinetService := service.NewCabinetService(cabinetRepo, wbClient)
	reportService := service.NewReportService(resetRepo, sessionRepo, userRepo)

	// Инициализируем обработчики
	authHandler := handler.NewAuthHandler(authService, sessionService, jwtService, cfg.Session.CookieSecure)
	userHandler := handler.NewUserHandler(userService, sessionService)
	emailCodeHandler := handler.NewEmailCodeHandler(emailCodeService)
	cabinetHandler := handler.NewCabinetHandler(cabinetService)
	reportHandler := handler.NewReportHandler(reportService)

	// Инициализируем middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtService, userRepo)
	sessionMiddleware := middleware.NewSessionMiddleware(sessionService, cfg.Session.SkipPaths, cfg.Session.CookieSecure)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Инициализируем роутер Gin
	router := gin.Default()

	// Настройка доверенных прокси для корректной работы c.ClientIP()
	isProduction := gin.Mode() == gin.ReleaseMode
	if isProduction {
		if err := router.SetTrustedProxies(nil); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	} else {
		if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	}

	// Настройка CORS
	corsOrigins := cfg.Server.CORSOrigins
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"http://localhost:5173", "http://localhost:8000", "http://localhost:3000"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Flow-сессия нужна всем маршрутам подтверждения email,
	// проще выдавать её на каждом запросе
	router.Use(middleware.EnsureFlowSID(cfg.Session.CookieSecure))

	// Настраиваем маршруты API
	api := router.Group("/api")
	{
		// Трёхшаговые сценарии подтверждения email.
		// OptionalAuth: change_email требует авторизацию, остальные анонимны.
		emailCode := api.Group("/email-code")
		emailCode.Use(authMiddleware.OptionalAuth())
		{
			emailCode.POST("/send/:scenario",
				rateLimiter.Limit(middleware.SendCodeRateLimitConfig(cfg.RateLimit.SendCodePerMinute)),
				emailCodeHandler.SendCode)
			emailCode.POST("/verify/:scenario", emailCodeHandler.VerifyCode)
			emailCode.POST("/confirm/:scenario", emailCodeHandler.ConfirmCode)
		}

		// Аутентификация
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register",
				rateLimiter.Limit(middleware.StrictAuthRateLimitConfig()),
				authHandler.Register)
			authGroup.POST("/login",
				rateLimiter.Limit(middleware.StrictAuthRateLimitConfig()),
				authHandler.Login)

			authedAuth := authGroup.Group("")
			authedAuth.Use(authMiddleware.RequireAuth(), sessionMiddleware.Touch())
			{
				authedAuth.POST("/logout", authHandler.Logout)
				authedAuth.POST("/change-password", authHandler.ChangePassword)
			}
		}

		// Профиль
		users := api.Group("/users")
		users.Use(authMiddleware.RequireAuth(), sessionMiddleware.Touch())
		{
			users.GET("/me", userHandler.Me)
			users.PUT("/me/username", userHandler.UpdateUsername)
			users.GET("/me/sessions", userHandler.Sessions)
		}

		// Кабинеты WB
		cabinets := api.Group("/cabinets")
		cabinets.Use(authMiddleware.RequireAuth(), sessionMiddleware.Touch())
		{
			cabinets.GET("", cabinetHandler.List)
			cabinets.POST("", cabinetHandler.Add)

			cabinetWithID := cabinets.Group("/:id")
			cabinetWithID.Use(middleware.ExtractUintParam("id", handler.ContextCabinetID))
			{
				cabinetWithID.DELETE("", cabinetHandler.Delete)
				cabinetWithID.POST("/check", cabinetHandler.Check)
				cabinetWithID.POST("/update", cabinetHandler.Update)
			}
		}

		// Административные отчёты
		reports := api.Group("/admin/reports")
		reports.Use(authMiddleware.RequireAuth(), authMiddleware.AdminOnly(), sessionMiddleware.Touch())
		{
			reports.GET("/password-resets", reportHandler.ResetLog)
			reports.GET("/sessions", reportHandler.Sessions)
		}
	}

	// Настраиваем HTTP сервер с тайм-аутами для защиты от slow client attacks
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Запускаем сервер в горутине
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
		}
	}()

	log.Printf("Server started on port %s", cfg.Server.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	log.Println("Server exited properly")
}
