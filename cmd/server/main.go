package main

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/codeasch/poker-cashout/internal/api"
	"github.com/codeasch/poker-cashout/internal/config"
	"github.com/codeasch/poker-cashout/internal/logging"
	"github.com/codeasch/poker-cashout/internal/repository"
	"github.com/codeasch/poker-cashout/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(cfg.Log.Level, cfg.Log.Pretty)

	// Pick the repository: Postgres when a database host is configured,
	// otherwise an in-memory store for local use.
	var repo repository.Repository
	if cfg.Database.Host != "" {
		db, err := config.SetupDatabase(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to set up database")
		}
		defer db.Close()
		repo = repository.NewPostgresRepository(db)
		log.Info().Str("db", cfg.Database.DBName).Msg("using postgres repository")
	} else {
		repo = repository.NewMemoryRepository()
		log.Warn().Msg("no database configured; sessions will not survive a restart")
	}

	// Create service
	svc := service.NewDefaultService(repo, cfg.Auth.JWTSecret)

	// Create API handler
	handler := api.NewHandler(svc, []byte(cfg.Auth.JWTSecret))

	// Set up Gin router
	router := gin.Default()

	// Set up routes
	handler.SetupRoutes(router)

	// Start server
	serverAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Info().Str("addr", serverAddr).Msg("starting server")
	if err := http.ListenAndServe(serverAddr, router); err != nil {
		log.Fatal().Err(err).Msg("failed to start server")
	}
}
