/*
Copyright © 2025 bachngocs
*/
package cmd

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bachngocs/support-chatbot-be/config"
	"github.com/bachngocs/support-chatbot-be/database"
	"github.com/bachngocs/support-chatbot-be/handler"
	"github.com/bachngocs/support-chatbot-be/middleware"
	"github.com/bachngocs/support-chatbot-be/service"
)

// startServerCmd represents the startServer command
var startServerCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the chat server",
	Long:  `Starts a server that handles AI chat connections and the knowledge base admin API`,
	Run: func(cmd *cobra.Command, args []string) {

		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		logger, err := zap.NewProduction()
		if err != nil {
			log.Fatalf("Failed to create logger: %v", err)
		}
		defer logger.Sync()

		// Initialize services
		store := database.NewFileStore(cfg.KnowledgeFile, logger.Named("store"))
		if _, err := store.Load(context.Background()); err != nil {
			log.Fatalf("Failed to open knowledge base: %v", err)
		}
		knowledgeService := service.NewKnowledgeService(store, cfg.ContextEntries)

		var backend service.CompletionBackend
		switch cfg.AIProvider {
		case "openai":
			backend = service.NewOpenAIBackend(cfg.AIEndpoint, cfg.OpenAIAPIKey)
		default:
			backend, err = service.NewGeminiBackend(context.Background(), cfg.GeminiAPIKey)
			if err != nil {
				log.Fatalf("Failed to create Gemini backend: %v", err)
			}
		}

		cooldown := time.Duration(cfg.TierCooldownSeconds) * time.Second
		aiService, err := service.NewTierGateway(backend, cfg.ModelTiers, cooldown, logger.Named("gateway"))
		if err != nil {
			log.Fatalf("Failed to create AI gateway: %v", err)
		}

		wsService := service.NewWebSocketService(aiService, knowledgeService, logger.Named("websocket"))

		// Initialize handlers
		corsHandler := handler.NewCorsHandler()
		chatHandler := handler.NewChatHandler(aiService, knowledgeService, logger.Named("chat"))
		knowledgeHandler := handler.NewKnowledgeHandler(knowledgeService)
		loginHandler := handler.NewLoginHandler(cfg.AdminUsername, cfg.AdminPassword)

		// Setup Gin router
		router := gin.Default()

		// Apply global middleware
		router.Use(corsHandler.CorsMiddleware)

		router.GET("/health", gin.WrapH(wsService.Health()))
		router.GET("/ws/chat", gin.WrapF(wsService.HandleChat))

		// Public API routes
		apiV1 := router.Group("/api/v1")
		apiV1.POST("/chat", chatHandler.HandleChat)
		apiV1.GET("/knowledge/search", knowledgeHandler.HandleSearch)

		// Admin routes - require admin authentication
		adminRoutes := router.Group("/admin/api/v1")
		adminRoutes.POST("/login", loginHandler.HandleLogin)

		protected := adminRoutes.Group("/")
		protected.Use(middleware.AdminAuthMiddleware)
		{
			protected.GET("/knowledge/list", knowledgeHandler.HandleListEntries)
			protected.GET("/knowledge/get", knowledgeHandler.HandleGetEntry)
			protected.POST("/knowledge/create", knowledgeHandler.HandleCreateEntry)
			protected.PUT("/knowledge/update", knowledgeHandler.HandleUpdateEntry)
			protected.DELETE("/knowledge/delete", knowledgeHandler.HandleDeleteEntry)
			protected.GET("/knowledge/stats", knowledgeHandler.HandleStats)
		}

		log.Printf("Starting server on port %s...\n", cfg.Port)
		if err := router.Run(":" + cfg.Port); err != nil {
			log.Fatal("Server error:", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(startServerCmd)
	startServerCmd.Flags().StringP("config", "c", "config/config.yaml", "config file")
}
