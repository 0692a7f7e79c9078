package http

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gopherai-pdfchat/internal/bootstrap"
	"gopherai-pdfchat/internal/transport/http/handler"
	"gopherai-pdfchat/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(app.Logger))

	deps := map[string]handler.Pinger{}
	if app.Redis != nil {
		deps["redis"] = func(ctx context.Context) error { return app.Redis.Ping(ctx).Err() }
	}
	healthHandler := handler.NewHealthHandler(app.Config.App.Name, app.Config.App.Env, app.StartedAt, deps)
	router.GET("/healthz", healthHandler.Check)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	sessionOpts := middleware.SessionOptions{
		Store:      app.Sessions,
		Secret:     app.Config.Session.Secret,
		CookieName: app.Config.Session.CookieName,
		TTL:        app.Config.SessionTTL(),
		Secure:     app.Config.Session.Secure,
		Logger:     app.Logger,
	}
	documentHandler := handler.NewDocumentHandler(app.Documents, app.Config.MaxUploadBytes(), app.Logger)
	chatHandler := handler.NewChatHandler(app.Chat)
	sessionHandler := handler.NewSessionHandler(app.Documents, sessionOpts)

	withSession := middleware.Session(sessionOpts)
	router.GET("/uploads/:filename", withSession, documentHandler.ServeFile)

	v1 := router.Group("/api/v1")
	v1.Use(withSession)

	documentGroup := v1.Group("/documents")
	documentGroup.POST("", documentHandler.Upload)
	documentGroup.GET("", documentHandler.List)
	documentGroup.DELETE("", documentHandler.DeleteAll)
	documentGroup.DELETE("/:name", documentHandler.Delete)

	v1.POST("/chat", chatHandler.Chat)
	v1.GET("/history", chatHandler.GetHistory)
	v1.POST("/session/reset", sessionHandler.Reset)

	return router
}
