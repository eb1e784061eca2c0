// Package service holds the application's use cases on top of the repositories.
package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"socialnet/internal/models"
	"socialnet/internal/notifications"
	"socialnet/internal/observability"
	"socialnet/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

const (
	MaxPostTextLen    = 5000
	MaxCommentTextLen = 1000
)

// EventPublisher receives realtime events after successful mutations.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload any)
	PublishTo(ctx context.Context, userID uint, eventType string, payload any)
}

// ImageStore persists an uploaded image and returns the URL it is served from.
type ImageStore interface {
	Store(ctx context.Context, in UploadImageInput) (string, error)
}

type PostService struct {
	postRepo repository.PostRepository
	events   EventPublisher
	images   ImageStore
}

// CreatePostInput carries either an image URL or an upload to store; Upload wins
// when both are set.
type CreatePostInput struct {
	UserID uint
	Text   string
	Image  string
	Upload *UploadImageInput
}

type AddCommentInput struct {
	PostID uint
	UserID uint
	Text   string
}

type EditPostInput struct {
	PostID uint
	UserID uint
	Text   string
}

type DeletePostInput struct {
	PostID uint
	UserID uint
}

// NewPostService wires the post use cases. events may be nil.
func NewPostService(postRepo repository.PostRepository, events EventPublisher) *PostService {
	return &PostService{postRepo: postRepo, events: events}
}

// UseImageStore enables image uploads on CreatePost.
func (s *PostService) UseImageStore(images ImageStore) *PostService {
	s.images = images
	return s
}

func validateText(text string, limit int, what string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", models.NewValidationError(what + " text is required")
	}
	if utf8.RuneCountInString(trimmed) > limit {
		return "", models.NewValidationError(fmt.Sprintf("%s text too long (max %d characters)", what, limit))
	}
	return trimmed, nil
}

func validateImageURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return "", models.NewValidationError("image must be a valid URL")
	}
	if u.Scheme != "" && u.Scheme != "http" && u.Scheme != "https" {
		return "", models.NewValidationError("image must be an http(s) URL")
	}
	return raw, nil
}

// finish records the outcome of a mutation and emits its event.
func (s *PostService) finish(ctx context.Context, span *observability.Span, operation, eventType string, payload any, err error) {
	defer span.End()
	if err != nil {
		span.SetError(err)
		return
	}
	observability.RecordPostMutation(operation)
	if s.events != nil {
		s.events.Publish(ctx, eventType, payload)
	}
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (post *models.Post, err error) {
	span, ctx := observability.NewSpan(ctx, "PostService.CreatePost", attribute.Int64("user.id", int64(in.UserID)))
	defer func() { s.finish(ctx, span, "create", notifications.EventPostCreated, post, err) }()

	text, err := validateText(in.Text, MaxPostTextLen, "Post")
	if err != nil {
		return nil, err
	}
	image, err := validateImageURL(in.Image)
	if err != nil {
		return nil, err
	}
	if in.Upload != nil {
		if s.images == nil {
			return nil, models.NewValidationError("Image uploads are not enabled")
		}
		in.Upload.UserID = in.UserID
		if image, err = s.images.Store(ctx, *in.Upload); err != nil {
			return nil, err
		}
	}

	created := &models.Post{UserID: in.UserID, Text: text, Image: image}
	if err := s.postRepo.Create(ctx, created); err != nil {
		return nil, err
	}
	return s.postRepo.GetByID(ctx, created.ID)
}

// ListPosts returns every post newest first.
func (s *PostService) ListPosts(ctx context.Context) ([]*models.Post, error) {
	return s.postRepo.List(ctx)
}

func (s *PostService) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	return s.postRepo.GetByID(ctx, id)
}

// ToggleLike flips userID's membership in the post's like set.
func (s *PostService) ToggleLike(ctx context.Context, postID, userID uint) (post *models.Post, err error) {
	span, ctx := observability.NewSpan(ctx, "PostService.ToggleLike", attribute.Int64("post.id", int64(postID)))
	defer func() { s.finish(ctx, span, "toggle_like", notifications.EventPostReactionUpdated, post, err) }()

	return s.postRepo.ToggleLike(ctx, postID, userID)
}

// LikePost adds userID to the like set. Repeating it has no further effect.
func (s *PostService) LikePost(ctx context.Context, postID, userID uint) (post *models.Post, err error) {
	span, ctx := observability.NewSpan(ctx, "PostService.LikePost", attribute.Int64("post.id", int64(postID)))
	defer func() { s.finish(ctx, span, "like", notifications.EventPostReactionUpdated, post, err) }()

	return s.postRepo.Like(ctx, postID, userID)
}

// UnlikePost removes userID from the like set. Repeating it has no further effect.
func (s *PostService) UnlikePost(ctx context.Context, postID, userID uint) (post *models.Post, err error) {
	span, ctx := observability.NewSpan(ctx, "PostService.UnlikePost", attribute.Int64("post.id", int64(postID)))
	defer func() { s.finish(ctx, span, "unlike", notifications.EventPostReactionUpdated, post, err) }()

	return s.postRepo.Unlike(ctx, postID, userID)
}

func (s *PostService) AddComment(ctx context.Context, in AddCommentInput) (post *models.Post, err error) {
	span, ctx := observability.NewSpan(ctx, "PostService.AddComment", attribute.Int64("post.id", int64(in.PostID)))
	defer func() { s.finish(ctx, span, "comment", notifications.EventCommentCreated, post, err) }()

	text, err := validateText(in.Text, MaxCommentTextLen, "Comment")
	if err != nil {
		return nil, err
	}
	post, err = s.postRepo.AddComment(ctx, &models.Comment{PostID: in.PostID, UserID: in.UserID, Text: text})
	if err == nil && s.events != nil && post.UserID != in.UserID {
		s.events.PublishTo(ctx, post.UserID, notifications.EventPostActivity, map[string]any{
			"post_id": post.ID,
			"user_id": in.UserID,
			"kind":    "comment",
		})
	}
	return post, err
}

// EditPost replaces the text of a post owned by the caller. Checks run in order:
// existence, ownership, then text validity.
func (s *PostService) EditPost(ctx context.Context, in EditPostInput) (post *models.Post, err error) {
	span, ctx := observability.NewSpan(ctx, "PostService.EditPost", attribute.Int64("post.id", int64(in.PostID)))
	defer func() { s.finish(ctx, span, "edit", notifications.EventPostUpdated, post, err) }()

	guard := func(p *models.Post) error {
		if err := ownedBy(in.UserID, "edit")(p); err != nil {
			return err
		}
		_, err := validateText(in.Text, MaxPostTextLen, "Post")
		return err
	}
	return s.postRepo.UpdateText(ctx, in.PostID, strings.TrimSpace(in.Text), guard)
}

func (s *PostService) DeletePost(ctx context.Context, in DeletePostInput) (err error) {
	span, ctx := observability.NewSpan(ctx, "PostService.DeletePost", attribute.Int64("post.id", int64(in.PostID)))
	defer func() {
		s.finish(ctx, span, "delete", notifications.EventPostDeleted, map[string]uint{"post_id": in.PostID}, err)
	}()

	return s.postRepo.Delete(ctx, in.PostID, ownedBy(in.UserID, "delete"))
}

func ownedBy(userID uint, action string) repository.PostGuard {
	return func(p *models.Post) error {
		if p.UserID != userID {
			return models.NewForbiddenError(fmt.Sprintf("You can only %s your own posts", action))
		}
		return nil
	}
}
