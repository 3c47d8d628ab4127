package main

import (
	"context"
	"log"
	"os"

	"library-ai-be/internal/entity"
	"library-ai-be/internal/repository/specification"
	"library-ai-be/internal/repository/unitofwork"
	"library-ai-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// demoUserId is stable so tokens minted for local testing keep working.
var demoUserId = uuid.MustParse("7d1f6f1e-3a52-4f0e-9a43-1c0b5d2f9e01")

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn, database.WithQuietLogging())
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	ctx := context.Background()
	uowFactory := unitofwork.NewRepositoryFactory(db)

	SeedDemoUser(ctx, uowFactory)
	SeedBooks(ctx, uowFactory)

	log.Println("✅ Seeding completed")
}

func SeedDemoUser(ctx context.Context, uowFactory unitofwork.RepositoryFactory) {
	users := uowFactory.NewUnitOfWork(ctx).UserRepository()

	existing, err := users.FindOne(ctx, specification.ByID{ID: demoUserId})
	if err != nil {
		log.Printf("Failed to look up demo user: %v", err)
		return
	}
	if existing != nil {
		log.Printf("Demo user %s already present", demoUserId)
		return
	}

	user := &entity.User{
		Id:       demoUserId,
		Email:    "reader@library.local",
		FullName: "Demo Reader",
		Grade:    "2023",
		Major:    "计算机科学与技术",
		Role:     entity.UserRoleUser,
		Status:   entity.UserStatusActive,
	}
	if err := users.Create(ctx, user); err != nil {
		log.Printf("Failed to seed demo user: %v", err)
		return
	}
	log.Printf("Seeded demo user %s", demoUserId)
}

func SeedBooks(ctx context.Context, uowFactory unitofwork.RepositoryFactory) {
	books := uowFactory.NewUnitOfWork(ctx).BookRepository()

	for _, b := range demoBooks() {
		count, err := books.Count(ctx, specification.BookTitleIs{Title: b.Title})
		if err != nil {
			log.Printf("Failed to check book %s: %v", b.Title, err)
			continue
		}
		if count > 0 {
			continue
		}
		book := b
		if err := books.Create(ctx, &book); err != nil {
			log.Printf("Failed to seed book %s: %v", b.Title, err)
			continue
		}
		log.Printf("Seeded book: %s", b.Title)
	}
}
