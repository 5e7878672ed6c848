package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "github.com/swing-terminal/backend/docs"
	"github.com/swing-terminal/backend/internal/client"
	"github.com/swing-terminal/backend/internal/config"
	"github.com/swing-terminal/backend/internal/db"
	"github.com/swing-terminal/backend/internal/handler"
	"github.com/swing-terminal/backend/internal/service"
)

// @title Fyers Auth Broker API
// @version 1.0
// @description Single-user backend brokering Fyers OAuth and token lifecycle.
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("[Main] No .env file loaded: %v", err)
	}

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		log.Fatalf("[Main] Failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	store := db.New(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		log.Fatalf("[Main] Failed to ensure schema: %v", err)
	}
	if err := store.EnsureUser(ctx, cfg.User.DefaultUserID, cfg.User.Name, cfg.User.Email); err != nil {
		log.Fatalf("[Main] Failed to seed default user: %v", err)
	}

	session, err := service.NewSessionService(cfg.Auth)
	if err != nil {
		log.Fatalf("[Main] Failed to init session service: %v", err)
	}

	fyers := client.NewFyersClient(cfg.Fyers)
	tokenSvc := service.NewTokenService(store, store, fyers, cfg.User.DefaultUserID)
	credSvc := service.NewCredentialService(store, cfg.User.DefaultUserID)
	userSvc := service.NewUserService(store, store, store, fyers, cfg.User.DefaultUserID)

	authHandler := handler.NewAuthHandler(userSvc, tokenSvc, session)
	credHandler := handler.NewCredentialHandler(credSvc)
	userHandler := handler.NewUserHandler(userSvc)
	tradingHandler := handler.NewTradingHandler(tokenSvc, fyers)

	router := gin.Default()
	router.Use(handler.CORSMiddleware([]string{"http://localhost:3000", "http://localhost:5173"}, true))

	router.GET("/ping", handler.Ping)
	router.GET("/", handler.Root)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/openapi.json", handler.OpenAPIDoc)

	auth := router.Group("/api/auth")
	{
		auth.GET("/status", authHandler.Status)
		auth.POST("/url", authHandler.AuthURL)
		auth.GET("/callback", authHandler.Callback)
		auth.POST("/token", authHandler.Exchange)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/disconnect", handler.SessionMiddleware(session), authHandler.Disconnect)
	}

	api := router.Group("/api", handler.SessionMiddleware(session))
	{
		api.GET("/user/profile", userHandler.Profile)

		creds := api.Group("/credentials")
		{
			creds.GET("", credHandler.List)
			creds.POST("", credHandler.Create)
			creds.GET("/active", credHandler.Active)
			creds.PUT("/:id", credHandler.Update)
			creds.DELETE("/:id", credHandler.Delete)
			creds.POST("/:id/activate", credHandler.Activate)
			creds.POST("/:id/deactivate", credHandler.Deactivate)
		}
	}

	trading := router.Group("/api/trading",
		handler.TokenRefreshMiddleware(tokenSvc),
		handler.RequireFyersToken(userSvc.CheckFyersAccess),
	)
	{
		trading.GET("/profile", tradingHandler.Profile)
		trading.GET("/funds", tradingHandler.Funds)
		trading.GET("/holdings", tradingHandler.Holdings)
		trading.GET("/orders", tradingHandler.Orders)
		trading.GET("/positions", tradingHandler.Positions)
	}

	sweeper := service.NewRefreshSweeper(tokenSvc, cfg.Refresh)
	go sweeper.Run(ctx)

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Printf("[Main] Listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[Main] Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("[Main] Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[Main] Forced shutdown: %v", err)
	}
}
