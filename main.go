package main

import (
	"context"
	"log"
	"os"

	"github.com/calderweb/forest_service/cache"
	"github.com/calderweb/forest_service/config"
	"github.com/calderweb/forest_service/handlers"
	"github.com/calderweb/forest_service/repository"
	"github.com/calderweb/forest_service/tree"

	"github.com/gin-gonic/gin"
)

func main() {
	ctx := context.Background()

	// Initialize config provider; Secrets Manager when a secret is named,
	// plain environment variables otherwise
	var cfgProvider config.Provider
	if os.Getenv("AWS_SECRET_NAME") != "" {
		var err error
		cfgProvider, err = config.NewAWSSecretsProvider()
		if err != nil {
			log.Fatal("Failed to create config provider:", err)
		}
	} else {
		cfgProvider = config.NewEnvProvider("")
	}

	// Initialize repository; SQLite serves single-process deployments
	var repo repository.Repository
	if os.Getenv("DB_DRIVER") == "sqlite" {
		repo = repository.NewSQLiteRepository()
	} else {
		var err error
		repo, err = repository.NewPostgresRepository(cfgProvider)
		if err != nil {
			log.Fatal("Failed to create repository:", err)
		}
	}
	if err := repo.Initialize(ctx); err != nil {
		log.Fatal("Failed to initialize repository:", err)
	}
	defer repo.Cleanup(ctx)

	// Initialize cache
	if err := cache.Initialize(); err != nil {
		log.Fatal("Failed to initialize cache:", err)
	}

	// Initialize tree manager and handlers
	manager := tree.NewManager(repo)
	treeHandler := handlers.NewTreeHandler(manager)

	// Initialize router
	r := gin.Default()
	treeHandler.Register(r.Group("/api"))

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	if err := r.Run(addr); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
