package main

import (
	"context"
	"log"

	"github.com/calderweb/forest_service/cache"
	"github.com/calderweb/forest_service/internal/lambda"
	"github.com/calderweb/forest_service/repository"
	"github.com/calderweb/forest_service/tree"

	awslambda "github.com/aws/aws-lambda-go/lambda"
)

func main() {
	repo := repository.NewMemoryRepository()
	if err := repo.Initialize(context.Background()); err != nil {
		log.Fatal("Failed to initialize repository:", err)
	}

	if err := cache.Initialize(); err != nil {
		log.Fatal("Failed to initialize cache:", err)
	}

	handler := lambda.NewHandler(tree.NewManager(repo))

	awslambda.Start(handler.Handle)
}
