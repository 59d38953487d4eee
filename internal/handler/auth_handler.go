package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"agsa-server/internal/service"
	"agsa-server/pkg/response"
)

// AuthHandler handles OTP login and token lifecycle.
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RequestOTPRequest is the body of POST /auth/otp/request.
type RequestOTPRequest struct {
	PhoneNumber string `json:"phone_number" binding:"required"`
}

// VerifyOTPRequest is the body of POST /auth/otp/verify.
type VerifyOTPRequest struct {
	RequestID string `json:"request_id" binding:"required"`
	Code      string `json:"code" binding:"required"`
}

// RefreshRequest is the body of POST /auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// RequestOTP sends a one-time password to the given phone number.
// @Router /api/v1/auth/otp/request [post]
func (h *AuthHandler) RequestOTP(c *gin.Context) {
	var req RequestOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	result, err := h.authService.RequestOTP(c.Request.Context(), req.PhoneNumber)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidPhone):
			response.BadRequest(c, err.Error())
		case errors.Is(err, service.ErrOTPThrottled):
			response.ErrorWithCode(c, 429, response.CodeOTPThrottled, err.Error())
		default:
			internalError(c, err)
		}
		return
	}

	response.Success(c, result)
}

// VerifyOTP trades a valid code for a token pair, creating the account
// on first login.
// @Router /api/v1/auth/otp/verify [post]
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	result, err := h.authService.VerifyOTP(c.Request.Context(), req.RequestID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOTPExpired):
			response.ErrorWithCode(c, 400, response.CodeOTPExpired, err.Error())
		case errors.Is(err, service.ErrOTPInvalid):
			response.ErrorWithCode(c, 400, response.CodeOTPInvalid, err.Error())
		case errors.Is(err, service.ErrOTPAttemptsOver):
			response.ErrorWithCode(c, 400, response.CodeOTPAttemptsOver, err.Error())
		case errors.Is(err, service.ErrUserDisabled):
			response.Forbidden(c, err.Error())
		default:
			internalError(c, err)
		}
		return
	}

	response.Success(c, result)
}

// Refresh trades a refresh token for a fresh token pair.
// @Router /api/v1/auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	result, err := h.authService.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRefresh) {
			response.Unauthorized(c, err.Error())
		} else {
			internalError(c, err)
		}
		return
	}

	response.Success(c, result)
}

// Logout blacklists the current access token.
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	tokenHash := c.GetString("token_hash")
	exp, ok := c.Get("token_exp")
	if tokenHash == "" || !ok {
		response.Unauthorized(c, "authentication required")
		return
	}
	if err := h.authService.Logout(c.Request.Context(), tokenHash, exp.(time.Time)); err != nil {
		internalError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "logged out"})
}
