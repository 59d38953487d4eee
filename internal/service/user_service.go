package service

import (
	"context"
	"errors"
	"time"

	"agsa-server/internal/model"
	"agsa-server/internal/repository"
	"agsa-server/pkg/util"
)

// Profile errors returned to the handler layer.
var (
	ErrUserNotFound   = errors.New("user not found")
	ErrInvalidProfile = errors.New("invalid profile data")
)

// UserService handles the citizen profile (KYC).
type UserService struct {
	userRepo *repository.UserRepository
}

// NewUserService creates a UserService.
func NewUserService(userRepo *repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// ProfileResponse is the public view of a citizen profile.
type ProfileResponse struct {
	UserID        string  `json:"user_id"`
	PhoneNumber   string  `json:"phone_number"`
	Name          string  `json:"name"`
	DOB           *string `json:"dob,omitempty"`
	Gender        string  `json:"gender"`
	Address       string  `json:"address"`
	Email         *string `json:"email,omitempty"`
	AadhaarMasked string  `json:"aadhaar_masked"`
	KYCCompleted  bool    `json:"kyc_completed"`
	CreatedAt     string  `json:"created_at"`
}

// UpdateProfileRequest carries the editable KYC fields. Nil means
// "leave unchanged".
type UpdateProfileRequest struct {
	Name    *string `json:"name"`
	DOB     *string `json:"dob"` // YYYY-MM-DD
	Gender  *string `json:"gender"`
	Address *string `json:"address"`
	Email   *string `json:"email"`
	Aadhaar *string `json:"aadhaar"` // full number in, masked form stored
}

func toProfileResponse(user *model.User) *ProfileResponse {
	resp := &ProfileResponse{
		UserID:        user.UserUID,
		PhoneNumber:   user.PhoneNumber,
		Name:          user.Name,
		Gender:        user.Gender,
		Address:       user.Address,
		Email:         user.Email,
		AadhaarMasked: user.AadhaarMasked,
		KYCCompleted:  user.KYCCompleted,
		CreatedAt:     user.CreatedAt.Format(time.RFC3339),
	}
	if user.DOB != nil {
		resp.DOB = util.StringPtr(user.DOB.Format("2006-01-02"))
	}
	return resp
}

// GetProfile returns the citizen's own profile.
func (s *UserService) GetProfile(ctx context.Context, userID int64) (*ProfileResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return toProfileResponse(user), nil
}

// UpdateProfile applies a partial KYC update. KYCCompleted flips on
// once name, date of birth, gender and address are all present; it
// never flips back off.
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, req *UpdateProfileRequest) (*ProfileResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.DOB != nil {
		dob, err := time.Parse("2006-01-02", *req.DOB)
		if err != nil {
			return nil, ErrInvalidProfile
		}
		user.DOB = &dob
	}
	if req.Gender != nil {
		switch *req.Gender {
		case model.GenderMale, model.GenderFemale, model.GenderOther:
			user.Gender = *req.Gender
		default:
			return nil, ErrInvalidProfile
		}
	}
	if req.Address != nil {
		user.Address = *req.Address
	}
	if req.Email != nil {
		user.Email = req.Email
	}
	if req.Aadhaar != nil {
		if !isValidAadhaar(*req.Aadhaar) {
			return nil, ErrInvalidProfile
		}
		user.AadhaarMasked = util.MaskAadhaar(*req.Aadhaar)
	}

	if !user.KYCCompleted &&
		user.Name != "" && user.DOB != nil && user.Gender != "" && user.Address != "" {
		user.KYCCompleted = true
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return toProfileResponse(user), nil
}

// isValidAadhaar accepts a 12-digit number, with optional spaces or
// hyphens between groups.
func isValidAadhaar(number string) bool {
	count := 0
	for _, r := range number {
		switch {
		case r >= '0' && r <= '9':
			count++
		case r == ' ' || r == '-':
		default:
			return false
		}
	}
	return count == 12
}
