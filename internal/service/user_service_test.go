package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agsa-server/internal/model"
	"agsa-server/internal/repository"
	"agsa-server/pkg/util"
)

func newTestUserService(t *testing.T) (*UserService, *model.User) {
	t.Helper()
	db := testDB(t)
	userRepo := repository.NewUserRepository(db)

	user := &model.User{
		UserUID:     util.GenerateUUID(),
		PhoneNumber: "+919876543210",
		Status:      1,
	}
	require.NoError(t, userRepo.Create(context.Background(), user))

	return NewUserService(userRepo), user
}

func TestUpdateProfileCompletesKYC(t *testing.T) {
	svc, user := newTestUserService(t)
	ctx := context.Background()

	// Partial update: not yet complete.
	profile, err := svc.UpdateProfile(ctx, user.ID, &UpdateProfileRequest{
		Name: util.StringPtr("Asha Kumari"),
	})
	require.NoError(t, err)
	assert.False(t, profile.KYCCompleted)

	// Filling in the remaining fields flips the flag.
	profile, err = svc.UpdateProfile(ctx, user.ID, &UpdateProfileRequest{
		DOB:     util.StringPtr("1990-04-15"),
		Gender:  util.StringPtr(model.GenderFemale),
		Address: util.StringPtr("12 MG Road, Bengaluru, Karnataka"),
	})
	require.NoError(t, err)
	assert.True(t, profile.KYCCompleted)
	require.NotNil(t, profile.DOB)
	assert.Equal(t, "1990-04-15", *profile.DOB)
}

func TestUpdateProfileMasksAadhaar(t *testing.T) {
	svc, user := newTestUserService(t)
	ctx := context.Background()

	profile, err := svc.UpdateProfile(ctx, user.ID, &UpdateProfileRequest{
		Aadhaar: util.StringPtr("3456 7888 9012"),
	})
	require.NoError(t, err)
	assert.Equal(t, "****-****-9012", profile.AadhaarMasked)

	// The full number is nowhere in the stored record.
	stored, err := svc.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "****-****-9012", stored.AadhaarMasked)
}

func TestUpdateProfileValidation(t *testing.T) {
	svc, user := newTestUserService(t)
	ctx := context.Background()

	_, err := svc.UpdateProfile(ctx, user.ID, &UpdateProfileRequest{
		DOB: util.StringPtr("15/04/1990"),
	})
	assert.ErrorIs(t, err, ErrInvalidProfile)

	_, err = svc.UpdateProfile(ctx, user.ID, &UpdateProfileRequest{
		Gender: util.StringPtr("X"),
	})
	assert.ErrorIs(t, err, ErrInvalidProfile)

	_, err = svc.UpdateProfile(ctx, user.ID, &UpdateProfileRequest{
		Aadhaar: util.StringPtr("1234"),
	})
	assert.ErrorIs(t, err, ErrInvalidProfile)
}

func TestGetProfileUnknownUser(t *testing.T) {
	svc, _ := newTestUserService(t)
	_, err := svc.GetProfile(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
