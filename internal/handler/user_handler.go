package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"agsa-server/internal/middleware"
	"agsa-server/internal/service"
	"agsa-server/pkg/response"
)

// UserHandler handles the citizen profile endpoints.
type UserHandler struct {
	userService *service.UserService
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GetProfile returns the authenticated citizen's profile.
// @Router /api/v1/users/me [get]
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID := middleware.GetUserID(c)

	profile, err := h.userService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.ErrorWithCode(c, 404, response.CodeUserNotFound, err.Error())
		} else {
			internalError(c, err)
		}
		return
	}
	response.Success(c, profile)
}

// UpdateProfile applies a partial KYC update.
// @Router /api/v1/users/me [patch]
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req service.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	profile, err := h.userService.UpdateProfile(c.Request.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			response.ErrorWithCode(c, 404, response.CodeUserNotFound, err.Error())
		case errors.Is(err, service.ErrInvalidProfile):
			response.BadRequest(c, err.Error())
		default:
			internalError(c, err)
		}
		return
	}
	response.Success(c, profile)
}
