// Command main runs the database seeder for socialnet.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"socialnet/internal/config"
	"socialnet/internal/database"
	"socialnet/internal/middleware"
	"socialnet/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 20, "Number of users to create")
	numPosts := flag.Int("posts", 100, "Number of posts to create")
	maxLikes := flag.Int("likes", 8, "Maximum likes per post")
	maxComments := flag.Int("comments", 4, "Maximum comments per post")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	tokens := flag.Int("tokens", 3, "Print dev tokens for the first N users")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")
	log.Printf("Target: %d users, %d posts, clean=%v\n", *numUsers, *numPosts, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("❌ Refusing to seed a production database")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	res, err := seed.Seed(context.Background(), db, seed.Options{
		NumUsers:    *numUsers,
		NumPosts:    *numPosts,
		MaxLikes:    *maxLikes,
		MaxComments: *maxComments,
		ShouldClean: *shouldClean,
	})
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	for i := 0; i < *tokens && i < len(res.Users); i++ {
		u := res.Users[i]
		token, err := middleware.IssueToken(u.ID, cfg.JWTSecret, 24*time.Hour)
		if err != nil {
			log.Fatalf("❌ Token issue failed: %v", err)
		}
		log.Printf("🔑 %s <%s>: %s", u.Name, u.Email, token)
	}

	log.Println("✨ All done! Your database is now populated with test data.")
	log.Printf("📧 All test users have the password: %s", seed.DefaultPassword)
}
