// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"socialnet/internal/cache"
	"socialnet/internal/models"
	"socialnet/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password every seeded user can log in with.
const DefaultPassword = "password123"

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumPosts    int
	MaxLikes    int
	MaxComments int
	ShouldClean bool
	// SkipBcrypt stores DefaultPassword unhashed; only for fast local runs and tests.
	SkipBcrypt bool
	// RandSeed makes generated content reproducible when non-zero.
	RandSeed int64
}

// Result summarizes what a run created.
type Result struct {
	Users    []models.User
	Posts    int
	Likes    int
	Comments int
}

// Seeder writes demo data through the repositories so the post aggregate rules
// (one like per user, append-only comments) hold for seeded data too.
type Seeder struct {
	db       *gorm.DB
	userRepo repository.UserRepository
	postRepo repository.PostRepository
	faker    *gofakeit.Faker
	rng      *rand.Rand
}

func NewSeeder(db *gorm.DB, randSeed int64) *Seeder {
	if randSeed == 0 {
		randSeed = time.Now().UnixNano()
	}
	return &Seeder{
		db:       db,
		userRepo: repository.NewUserRepository(db),
		postRepo: repository.NewPostRepository(db),
		faker:    gofakeit.New(randSeed),
		//nolint:gosec // Weak random number generator is fine for seeding
		rng: rand.New(rand.NewSource(randSeed)),
	}
}

// Seed populates the database with test data
func Seed(ctx context.Context, db *gorm.DB, opts Options) (*Result, error) {
	s := NewSeeder(db, opts.RandSeed)
	log.Printf("🌱 Starting database seeding with %d users and %d posts...", opts.NumUsers, opts.NumPosts)

	if opts.ShouldClean {
		if err := s.ClearAll(ctx); err != nil {
			return nil, fmt.Errorf("failed to clear data: %w", err)
		}
	}

	users, err := s.CreateUsers(ctx, opts.NumUsers, opts.SkipBcrypt)
	if err != nil {
		return nil, fmt.Errorf("failed to create users: %w", err)
	}
	log.Printf("✓ %d test users created", len(users))

	res := &Result{Users: users}
	if len(users) == 0 {
		return res, nil
	}

	for i := 0; i < opts.NumPosts; i++ {
		author := users[s.rng.Intn(len(users))]
		post := &models.Post{UserID: author.ID, Text: s.faker.Paragraph(1, 2, 12, " ")}
		if s.rng.Intn(4) == 0 {
			post.Image = fmt.Sprintf("https://picsum.photos/seed/%s/800/800", s.faker.UUID())
		}
		if err := s.postRepo.Create(ctx, post); err != nil {
			return nil, fmt.Errorf("failed to create post: %w", err)
		}
		res.Posts++

		for _, liker := range s.pick(users, opts.MaxLikes) {
			if _, err := s.postRepo.Like(ctx, post.ID, liker.ID); err != nil {
				return nil, fmt.Errorf("failed to like post %d: %w", post.ID, err)
			}
			res.Likes++
		}

		for n := s.upTo(opts.MaxComments); n > 0; n-- {
			commenter := users[s.rng.Intn(len(users))]
			comment := &models.Comment{PostID: post.ID, UserID: commenter.ID, Text: s.faker.Sentence(8)}
			if _, err := s.postRepo.AddComment(ctx, comment); err != nil {
				return nil, fmt.Errorf("failed to comment on post %d: %w", post.ID, err)
			}
			res.Comments++
		}
	}
	log.Printf("✓ %d posts, %d likes, %d comments created", res.Posts, res.Likes, res.Comments)

	log.Println("🎉 Database seeding completed successfully!")
	return res, nil
}

// ClearAll removes every post, like, comment and user, and drops the cached
// profiles of the removed users.
func (s *Seeder) ClearAll(ctx context.Context) error {
	log.Println("🗑️  Clearing existing data...")
	var userIDs []uint
	if err := s.db.WithContext(ctx).Unscoped().Model(&models.User{}).Pluck("id", &userIDs).Error; err != nil {
		return err
	}

	for _, model := range []any{&models.Comment{}, &models.Like{}, &models.Post{}, &models.User{}} {
		err := s.db.WithContext(ctx).
			Session(&gorm.Session{AllowGlobalUpdate: true, NewDB: true}).
			Unscoped().
			Delete(model).Error
		if err != nil {
			return err
		}
	}

	for _, id := range userIDs {
		cache.InvalidateUser(ctx, id)
	}
	return nil
}

// CreateUsers creates count users with fake names and DefaultPassword.
func (s *Seeder) CreateUsers(ctx context.Context, count int, skipBcrypt bool) ([]models.User, error) {
	password := DefaultPassword
	if !skipBcrypt {
		hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		password = string(hashed)
	}

	users := make([]models.User, 0, count)
	for i := 0; i < count; i++ {
		first, last := s.faker.FirstName(), s.faker.LastName()
		user := models.User{
			Name:           first + " " + last,
			Email:          fmt.Sprintf("%s.%s.%d@example.com", first, last, i),
			Password:       password,
			Bio:            s.faker.Sentence(10),
			ProfilePicture: fmt.Sprintf("https://i.pravatar.cc/150?u=%s", s.faker.UUID()),
		}
		if err := s.userRepo.Create(ctx, &user); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func (s *Seeder) upTo(limit int) int {
	if limit <= 0 {
		return 0
	}
	return s.rng.Intn(limit + 1)
}

// pick returns up to limit distinct users.
func (s *Seeder) pick(users []models.User, limit int) []models.User {
	n := min(s.upTo(limit), len(users))
	out := make([]models.User, 0, n)
	for _, i := range s.rng.Perm(len(users))[:n] {
		out = append(out, users[i])
	}
	return out
}
