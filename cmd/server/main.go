// Package main is the server entry point.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"agsa-server/internal/cache"
	"agsa-server/internal/config"
	"agsa-server/internal/handler"
	"agsa-server/internal/middleware"
	"agsa-server/internal/model"
	"agsa-server/internal/repository"
	"agsa-server/internal/service"
	"agsa-server/pkg/jwt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func main() {
	cfg, err := config.Load("./configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := initDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to init database: %v", err)
	}

	if err := autoMigrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	redisCache, err := cache.NewRedisCache(cfg)
	if err != nil {
		log.Fatalf("Failed to init redis: %v", err)
	}

	jwtService := jwt.NewJWTService(
		cfg.JWT.Secret,
		cfg.JWT.AccessExpire,
		cfg.JWT.RefreshExpire,
	)

	userRepo := repository.NewUserRepository(db)
	docRepo := repository.NewDocumentRepository(db)
	schemeRepo := repository.NewSchemeRepository(db)
	chatRepo := repository.NewChatRepository(db)

	authService := service.NewAuthService(userRepo, redisCache, jwtService, cfg)
	userService := service.NewUserService(userRepo)
	docService := service.NewDocumentService(docRepo)
	schemeService := service.NewSchemeService(schemeRepo)
	aiService := service.NewAIService(cfg)
	chatService := service.NewChatService(chatRepo, userRepo, aiService, cfg)

	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	docHandler := handler.NewDocumentHandler(docService)
	schemeHandler := handler.NewSchemeHandler(schemeService)
	chatHandler := handler.NewChatHandler(chatService)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RecoveryMiddleware())
	router.Use(middleware.LoggerMiddleware())
	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.Server.CORS) > 0 {
		corsConfig.AllowOrigins = cfg.Server.CORS
	}
	router.Use(middleware.CORSMiddleware(corsConfig))

	registerRoutes(router, jwtService, redisCache,
		authHandler, userHandler, docHandler, schemeHandler, chatHandler)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Printf("Server starting on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	if err := redisCache.Close(); err != nil {
		log.Printf("Failed to close redis: %v", err)
	}

	log.Println("Server exited")
}

// initDatabase opens the MySQL connection and configures the pool.
func initDatabase(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=Local",
		cfg.MySQL.Username,
		cfg.MySQL.Password,
		cfg.MySQL.Host,
		cfg.MySQL.Port,
		cfg.MySQL.Database,
		cfg.MySQL.Charset,
	)

	gormLogger := logger.Default.LogMode(logger.Info)
	if cfg.Server.Mode == "release" {
		gormLogger = logger.Default.LogMode(logger.Warn)
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MySQL.MaxLifetime) * time.Second)

	log.Println("Database connected successfully")
	return db, nil
}

// autoMigrate keeps the schema in sync with the models.
func autoMigrate(db *gorm.DB) error {
	log.Println("Running database migrations...")

	if err := db.AutoMigrate(
		&model.User{},
		&model.DocumentType{},
		&model.Document{},
		&model.Scheme{},
		&model.SchemeDocument{},
		&model.ChatSession{},
		&model.ChatMessage{},
		&model.ConversationContext{},
	); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}

	log.Println("Database migrations completed")
	return nil
}

// registerRoutes wires every endpoint.
func registerRoutes(
	router *gin.Engine,
	jwtService *jwt.JWTService,
	redisCache *cache.RedisCache,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	docHandler *handler.DocumentHandler,
	schemeHandler *handler.SchemeHandler,
	chatHandler *handler.ChatHandler,
) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	authRequired := middleware.AuthMiddleware(jwtService, redisCache)

	auth := v1.Group("/auth")
	{
		auth.POST("/otp/request", authHandler.RequestOTP)
		auth.POST("/otp/verify", authHandler.VerifyOTP)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", authRequired, authHandler.Logout)
	}

	users := v1.Group("/users")
	users.Use(authRequired)
	{
		users.GET("/me", userHandler.GetProfile)
		users.PATCH("/me", userHandler.UpdateProfile)
	}

	documents := v1.Group("/documents")
	documents.Use(authRequired)
	{
		documents.GET("/types", docHandler.ListTypes)
		documents.POST("", docHandler.Upload)
		documents.GET("", docHandler.List)
		documents.GET("/:doc_id", docHandler.Download)
		documents.DELETE("/:doc_id", docHandler.Delete)
	}

	schemes := v1.Group("/schemes")
	schemes.Use(authRequired)
	{
		schemes.GET("", schemeHandler.List)
		schemes.GET("/stats", schemeHandler.Stats)
		schemes.GET("/filters", schemeHandler.Filters)
		schemes.GET("/categories/:category", schemeHandler.ByCategory)
		schemes.POST("/eligibility", schemeHandler.CheckEligibility)
		schemes.GET("/:slug", schemeHandler.Detail)
		schemes.GET("/:slug/documents", schemeHandler.Documents)
	}

	chat := v1.Group("/chat")
	chat.Use(authRequired)
	{
		chat.POST("/sessions", chatHandler.CreateSession)
		chat.GET("/sessions", chatHandler.ListSessions)
		chat.GET("/sessions/:session_id", chatHandler.GetSession)
		chat.DELETE("/sessions/:session_id", chatHandler.DeleteSession)
		chat.GET("/sessions/:session_id/messages", chatHandler.ListMessages)
		chat.POST("/sessions/:session_id/messages", chatHandler.SendMessage)
		chat.POST("/form-assistance", chatHandler.FormAssistance)
	}
}
