// Package model defines the structs mapped to database tables.
package model

import (
	"time"
)

// Gender constants stored in users.gender.
const (
	GenderMale   = "M"
	GenderFemale = "F"
	GenderOther  = "O"
)

// User is a citizen account, identified by phone number.
// Accounts are created on first successful OTP verification; the KYC
// fields are filled in afterwards through the profile endpoints.
type User struct {
	// ID is the internal primary key. Never exposed over the API;
	// callers see UserUID instead.
	ID int64 `gorm:"primaryKey" json:"-"`

	// UserUID is the public identifier (UUID, no hyphens).
	UserUID string `gorm:"size:64;uniqueIndex;not null" json:"user_id"`

	// PhoneNumber in +91xxxxxxxxxx format, unique per account.
	PhoneNumber string `gorm:"size:13;uniqueIndex;not null" json:"phone_number"`

	// KYC fields. All optional until the citizen completes their profile.
	Name    string     `gorm:"size:200" json:"name"`
	DOB     *time.Time `json:"dob,omitempty"`
	Gender  string     `gorm:"size:1" json:"gender"`
	Address string     `gorm:"type:text" json:"address"`
	Email   *string    `gorm:"size:100" json:"email,omitempty"`

	// AadhaarMasked holds only the masked form (e.g. ****-****-1234).
	// The full number is never stored.
	AadhaarMasked string `gorm:"size:20" json:"aadhaar_masked"`

	// KYCCompleted is set once name, dob, gender and address are present.
	KYCCompleted bool `gorm:"default:false" json:"kyc_completed"`

	// Status: 1 = active, 0 = disabled.
	Status int8 `gorm:"default:1" json:"status"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Documents owned by this user (one-to-many).
	Documents []Document `gorm:"foreignKey:UserID" json:"documents,omitempty"`

	// ChatSessions owned by this user (one-to-many).
	ChatSessions []ChatSession `gorm:"foreignKey:UserID" json:"chat_sessions,omitempty"`
}

// TableName overrides GORM's default pluralisation.
func (User) TableName() string {
	return "users"
}
