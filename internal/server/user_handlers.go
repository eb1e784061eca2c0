package server

import (
	"socialnet/internal/models"
	"socialnet/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetUserProfile handles GET /api/users/:id
// @Summary Get a user's profile
// @Description Public user fields and the user's posts, newest first.
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} service.Profile
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /users/{id} [get]
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	profile, err := s.profileService.GetProfile(c.UserContext(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(profile)
}

// GetMyProfile handles GET /api/users/me
// @Summary Get the caller's profile
// @Tags users
// @Produce json
// @Success 200 {object} service.Profile
// @Security BearerAuth
// @Router /users/me [get]
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	profile, err := s.profileService.GetProfile(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(profile)
}

// UpdateMyProfile handles PUT /api/users/me. Omitted fields are left unchanged.
// @Summary Update the caller's bio or picture
// @Tags users
// @Accept json
// @Produce json
// @Success 200 {object} models.PublicUser
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /users/me [put]
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req struct {
		Bio            *string `json:"bio"`
		ProfilePicture *string `json:"profile_picture"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.profileService.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		UserID:         currentUserID(c),
		Bio:            req.Bio,
		ProfilePicture: req.ProfilePicture,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}
