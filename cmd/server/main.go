package main

import (
	"flag"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BerylCAtieno/ad-creative-agent/internal/a2a"
	"github.com/BerylCAtieno/ad-creative-agent/internal/config"
	"github.com/BerylCAtieno/ad-creative-agent/internal/creative"
	"github.com/BerylCAtieno/ad-creative-agent/internal/logger"
	"github.com/BerylCAtieno/ad-creative-agent/internal/web"
)

func main() {
	configPath := flag.String("config", "", "Path to an optional YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Log.Fatalf("Failed to load config: %v", err)
	}
	if err := logger.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
		logger.Log.Fatalf("Failed to init logger: %v", err)
	}

	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	svc := creative.NewService(cfg)
	webHandler, err := web.NewHandler(svc, cfg)
	if err != nil {
		logger.Log.Fatalf("Failed to create web handler: %v", err)
	}
	a2aHandler := a2a.NewA2AHandler(svc, cfg)
	limit := web.RateLimit(web.NewLimiter(cfg.Concurrency))

	router := gin.New()
	router.MaxMultipartMemory = cfg.Server.MaxBodyBytes
	router.Use(gin.Recovery(), web.BodyLimit(cfg.Server.MaxBodyBytes), web.RequestLogger())

	// Endpoints
	router.GET("/", webHandler.Page)
	router.POST("/generate", limit, webHandler.Generate)
	router.GET("/sample.json", webHandler.Sample)
	router.POST("/api/v1/creatives", limit, webHandler.CreateCreatives)

	router.GET("/.well-known/agent.json", a2aHandler.ServeAgentCard)
	router.POST("/a2a/creatives", limit, a2aHandler.HandleCreatives)

	router.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	port := cfg.Server.Port
	logger.Log.Infof("Ad Creative Agent starting on port %s (provider %s, real backend by default: %v)", port, cfg.LLM.Provider, cfg.LLM.UseReal)
	logger.Log.Infof("Page available at: http://localhost:%s/", port)
	logger.Log.Infof("Agent card available at: http://localhost:%s/.well-known/agent.json", port)
	logger.Log.Infof("A2A endpoint available at: http://localhost:%s/a2a/creatives", port)

	if err := router.Run(":" + port); err != nil {
		logger.Log.Fatalf("Server failed to start: %v", err)
	}
}
