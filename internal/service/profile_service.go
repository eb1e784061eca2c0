package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"socialnet/internal/models"
	"socialnet/internal/repository"
)

const MaxBioLen = 500

// Profile is a user's public fields together with their posts, newest first.
type Profile struct {
	User  models.PublicUser `json:"user"`
	Posts []*models.Post    `json:"posts"`
}

type UpdateProfileInput struct {
	UserID         uint
	Bio            *string
	ProfilePicture *string
}

type ProfileService struct {
	userRepo repository.UserRepository
	postRepo repository.PostRepository
}

func NewProfileService(userRepo repository.UserRepository, postRepo repository.PostRepository) *ProfileService {
	return &ProfileService{userRepo: userRepo, postRepo: postRepo}
}

// GetProfile composes the public user (possibly from cache) with posts read from the
// database.
func (s *ProfileService) GetProfile(ctx context.Context, userID uint) (*Profile, error) {
	user, err := s.userRepo.GetPublic(ctx, userID)
	if err != nil {
		return nil, err
	}
	posts, err := s.postRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if posts == nil {
		posts = []*models.Post{}
	}
	return &Profile{User: *user, Posts: posts}, nil
}

// UpdateProfile changes the fields set in in and returns the refreshed public user.
func (s *ProfileService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.PublicUser, error) {
	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if in.Bio != nil {
		bio := strings.TrimSpace(*in.Bio)
		if utf8.RuneCountInString(bio) > MaxBioLen {
			return nil, models.NewValidationError(fmt.Sprintf("Bio too long (max %d characters)", MaxBioLen))
		}
		user.Bio = bio
	}
	if in.ProfilePicture != nil {
		pic := strings.TrimSpace(*in.ProfilePicture)
		if pic != "" {
			if _, err := url.ParseRequestURI(pic); err != nil {
				return nil, models.NewValidationError("Profile picture must be a valid URL")
			}
		}
		user.ProfilePicture = pic
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	public := user.Public()
	return &public, nil
}
