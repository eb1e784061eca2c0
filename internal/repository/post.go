// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"errors"
	"fmt"

	"socialnet/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostGuard inspects the locked post before a mutation and vetoes it by returning
// an error. The error is returned to the caller unchanged.
type PostGuard func(post *models.Post) error

// PostRepository persists the post aggregate. Every mutation runs in one transaction
// holding a row lock on the post, so mutations of the same post are serialized.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	List(ctx context.Context) ([]*models.Post, error)
	ListByUser(ctx context.Context, userID uint) ([]*models.Post, error)
	ToggleLike(ctx context.Context, postID, userID uint) (*models.Post, error)
	Like(ctx context.Context, postID, userID uint) (*models.Post, error)
	Unlike(ctx context.Context, postID, userID uint) (*models.Post, error)
	AddComment(ctx context.Context, comment *models.Comment) (*models.Post, error)
	UpdateText(ctx context.Context, postID uint, text string, guard PostGuard) (*models.Post, error)
	Delete(ctx context.Context, postID uint, guard PostGuard) error
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func selectAuthor(db *gorm.DB) *gorm.DB {
	return db.Select(models.AuthorColumns)
}

// withDetails preloads the author, like set and comment thread in display order.
func withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("User", selectAuthor).
		Preload("LikeRecords", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Preload("Comments.User", selectAuthor)
}

func translate(err error, postID uint) error {
	var appErr *models.AppError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return models.NewNotFoundError("Post", postID)
	default:
		return fmt.Errorf("post %d: %w", postID, err)
	}
}

func hydrateAll(posts []*models.Post) {
	for _, p := range posts {
		p.Hydrate()
	}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error; err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return loadPost(r.db.WithContext(ctx), id)
}

func loadPost(db *gorm.DB, id uint) (*models.Post, error) {
	var post models.Post
	if err := withDetails(db).First(&post, id).Error; err != nil {
		return nil, translate(err, id)
	}
	post.Hydrate()
	return &post, nil
}

func (r *postRepository) List(ctx context.Context) ([]*models.Post, error) {
	var posts []*models.Post
	err := withDetails(r.db.WithContext(ctx)).
		Order("created_at DESC, id DESC").
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	hydrateAll(posts)
	return posts, nil
}

func (r *postRepository) ListByUser(ctx context.Context, userID uint) ([]*models.Post, error) {
	var posts []*models.Post
	err := withDetails(r.db.WithContext(ctx)).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("list posts of user %d: %w", userID, err)
	}
	hydrateAll(posts)
	return posts, nil
}

// mutate locks post postID, runs fn inside the same transaction and returns the
// post as committed by that transaction.
func (r *postRepository) mutate(ctx context.Context, postID uint, fn func(tx *gorm.DB, locked *models.Post) error) (*models.Post, error) {
	var result *models.Post
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locked models.Post
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&locked, postID).Error; err != nil {
			return err
		}
		if err := fn(tx, &locked); err != nil {
			return err
		}
		post, err := loadPost(tx, postID)
		if err != nil {
			return err
		}
		result = post
		return nil
	})
	if err != nil {
		return nil, translate(err, postID)
	}
	return result, nil
}

func insertLike(tx *gorm.DB, postID, userID uint) error {
	like := models.Like{PostID: postID, UserID: userID}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "post_id"}},
		DoNothing: true,
	}).Create(&like).Error
}

func deleteLike(tx *gorm.DB, postID, userID uint) (int64, error) {
	res := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.Like{})
	return res.RowsAffected, res.Error
}

func (r *postRepository) ToggleLike(ctx context.Context, postID, userID uint) (*models.Post, error) {
	return r.mutate(ctx, postID, func(tx *gorm.DB, _ *models.Post) error {
		removed, err := deleteLike(tx, postID, userID)
		if err != nil || removed > 0 {
			return err
		}
		return insertLike(tx, postID, userID)
	})
}

func (r *postRepository) Like(ctx context.Context, postID, userID uint) (*models.Post, error) {
	return r.mutate(ctx, postID, func(tx *gorm.DB, _ *models.Post) error {
		return insertLike(tx, postID, userID)
	})
}

func (r *postRepository) Unlike(ctx context.Context, postID, userID uint) (*models.Post, error) {
	return r.mutate(ctx, postID, func(tx *gorm.DB, _ *models.Post) error {
		_, err := deleteLike(tx, postID, userID)
		return err
	})
}

func (r *postRepository) AddComment(ctx context.Context, comment *models.Comment) (*models.Post, error) {
	return r.mutate(ctx, comment.PostID, func(tx *gorm.DB, _ *models.Post) error {
		return tx.Omit(clause.Associations).Create(comment).Error
	})
}

func (r *postRepository) UpdateText(ctx context.Context, postID uint, text string, guard PostGuard) (*models.Post, error) {
	return r.mutate(ctx, postID, func(tx *gorm.DB, locked *models.Post) error {
		if guard != nil {
			if err := guard(locked); err != nil {
				return err
			}
		}
		return tx.Model(locked).Update("text", text).Error
	})
}

func (r *postRepository) Delete(ctx context.Context, postID uint, guard PostGuard) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locked models.Post
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&locked, postID).Error; err != nil {
			return err
		}
		if guard != nil {
			if err := guard(&locked); err != nil {
				return err
			}
		}
		if err := tx.Where("post_id = ?", postID).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", postID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&locked).Error
	})
	return translate(err, postID)
}
