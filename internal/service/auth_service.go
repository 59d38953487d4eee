package service

import (
	"context"
	"errors"
	"log"
	"time"

	"agsa-server/internal/cache"
	"agsa-server/internal/config"
	"agsa-server/internal/model"
	"agsa-server/internal/repository"
	"agsa-server/pkg/jwt"
	"agsa-server/pkg/util"
)

// Authentication errors returned to the handler layer.
var (
	ErrInvalidPhone    = errors.New("phone number must be in +91xxxxxxxxxx format")
	ErrOTPThrottled    = errors.New("an OTP was sent recently, please wait before requesting another")
	ErrOTPInvalid      = errors.New("incorrect OTP code")
	ErrOTPExpired      = errors.New("OTP request not found or expired")
	ErrOTPAttemptsOver = errors.New("too many incorrect attempts, request a new OTP")
	ErrUserDisabled    = errors.New("account is disabled")
	ErrInvalidRefresh  = errors.New("invalid or expired refresh token")
)

// AuthService handles phone/OTP login and token lifecycle.
type AuthService struct {
	userRepo *repository.UserRepository
	cache    *cache.RedisCache
	jwtSvc   *jwt.JWTService
	config   *config.Config
}

// NewAuthService creates an AuthService.
func NewAuthService(userRepo *repository.UserRepository, cache *cache.RedisCache, jwtSvc *jwt.JWTService, cfg *config.Config) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		cache:    cache,
		jwtSvc:   jwtSvc,
		config:   cfg,
	}
}

// RequestOTPResponse carries the handle the client presents at verify
// time. The code itself travels over SMS only.
type RequestOTPResponse struct {
	RequestID string `json:"request_id"`
	ExpiresIn int    `json:"expires_in"` // seconds
}

// TokenResponse is the result of a successful verification or refresh.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"` // access token lifetime, seconds
	IsNewUser    bool   `json:"is_new_user"`
	UserID       string `json:"user_id"`
}

// RequestOTP generates a code for the phone number and stores its hash
// in redis with a TTL. The clear-text code never touches the database.
func (s *AuthService) RequestOTP(ctx context.Context, phoneNumber string) (*RequestOTPResponse, error) {
	if !util.IsValidPhone(phoneNumber) {
		return nil, ErrInvalidPhone
	}

	ok, err := s.cache.MarkOTPSent(ctx, phoneNumber, s.config.OTP.ResendInterval)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrOTPThrottled
	}

	code := util.GenerateOTP()
	hash, err := util.HashOTP(code)
	if err != nil {
		return nil, err
	}

	requestID := util.GenerateUUID()
	req := &cache.OTPRequest{
		PhoneNumber: phoneNumber,
		OTPHash:     hash,
		Attempts:    0,
		MaxAttempts: s.config.OTP.MaxAttempts,
	}
	if err := s.cache.SetOTPRequest(ctx, requestID, req, s.config.OTP.Expire); err != nil {
		return nil, err
	}

	// SMS delivery is out of process; the gateway integration hangs off
	// this log line for now.
	log.Printf("OTP issued for %s (request %s)", phoneNumber, requestID)

	return &RequestOTPResponse{
		RequestID: requestID,
		ExpiresIn: int(s.config.OTP.Expire.Seconds()),
	}, nil
}

// VerifyOTP checks the submitted code against the stored hash. The
// attempt counter is bumped before the comparison so a crashed request
// still burns an attempt. On first-time success a user account is
// created.
func (s *AuthService) VerifyOTP(ctx context.Context, requestID, code string) (*TokenResponse, error) {
	req, err := s.cache.GetOTPRequest(ctx, requestID)
	if err != nil {
		if errors.Is(err, cache.ErrOTPNotFound) {
			return nil, ErrOTPExpired
		}
		return nil, err
	}

	if req.Attempts >= req.MaxAttempts {
		return nil, ErrOTPAttemptsOver
	}
	req.Attempts++
	if err := s.cache.UpdateOTPRequest(ctx, requestID, req); err != nil {
		return nil, err
	}

	if !util.CheckOTP(code, req.OTPHash) {
		if req.Attempts >= req.MaxAttempts {
			return nil, ErrOTPAttemptsOver
		}
		return nil, ErrOTPInvalid
	}

	// Code accepted: the request is single-use.
	if err := s.cache.DeleteOTPRequest(ctx, requestID); err != nil {
		log.Printf("Failed to delete used OTP request %s: %v", requestID, err)
	}

	user, err := s.userRepo.GetByPhone(ctx, req.PhoneNumber)
	if err != nil {
		return nil, err
	}

	isNew := false
	if user == nil {
		user = &model.User{
			UserUID:     util.GenerateUUID(),
			PhoneNumber: req.PhoneNumber,
			Status:      1,
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, err
		}
		isNew = true
	}
	if user.Status != 1 {
		return nil, ErrUserDisabled
	}

	accessToken, err := s.jwtSvc.GenerateAccessToken(user.ID, user.PhoneNumber)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.jwtSvc.GenerateRefreshToken(user.ID, user.PhoneNumber)
	if err != nil {
		return nil, err
	}

	return &TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.jwtSvc.GetAccessExpire().Seconds()),
		IsNewUser:    isNew,
		UserID:       user.UserUID,
	}, nil
}

// RefreshToken trades a valid refresh token for a fresh token pair.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	claims, err := s.jwtSvc.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefresh
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil || user.Status != 1 {
		return nil, ErrInvalidRefresh
	}

	accessToken, err := s.jwtSvc.GenerateAccessToken(user.ID, user.PhoneNumber)
	if err != nil {
		return nil, err
	}
	newRefresh, err := s.jwtSvc.GenerateRefreshToken(user.ID, user.PhoneNumber)
	if err != nil {
		return nil, err
	}

	return &TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: newRefresh,
		ExpiresIn:    int(s.jwtSvc.GetAccessExpire().Seconds()),
		UserID:       user.UserUID,
	}, nil
}

// Logout blacklists the presented access token until its natural
// expiry, after which the blacklist entry lapses on its own.
func (s *AuthService) Logout(ctx context.Context, tokenHash string, expiresAt time.Time) error {
	return s.cache.BlacklistToken(ctx, tokenHash, expiresAt)
}
