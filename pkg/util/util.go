// Package util provides small shared helpers.
package util

import (
	"crypto/rand"
	"math/big"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// HashOTP hashes a one-time password with bcrypt before it is cached.
// The plain code is only ever held in memory and in the mock SMS log.
func HashOTP(code string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckOTP reports whether the submitted code matches the stored hash.
func CheckOTP(code, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(code))
	return err == nil
}

// GenerateOTP returns a random 6-digit one-time password.
func GenerateOTP() string {
	const digits = "0123456789"
	result := make([]byte, 6)
	for i := range result {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
		result[i] = digits[n.Int64()]
	}
	return string(result)
}

// GenerateUUID returns a UUID v4 without hyphens.
func GenerateUUID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// Slugify converts a scheme name into a URL-friendly slug:
// lower-cased, non-alphanumerics collapsed into single hyphens.
func Slugify(s string) string {
	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// MaskAadhaar reduces an Aadhaar number to its masked display form,
// keeping only the last four digits (e.g. "****-****-1234").
// Anything shorter than four digits masks completely.
func MaskAadhaar(number string) string {
	digits := make([]rune, 0, len(number))
	for _, r := range number {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
	}
	if len(digits) < 4 {
		return "****-****-****"
	}
	return "****-****-" + string(digits[len(digits)-4:])
}

// IsValidPhone reports whether the number is in +91xxxxxxxxxx format.
func IsValidPhone(phone string) bool {
	if len(phone) != 13 || !strings.HasPrefix(phone, "+91") {
		return false
	}
	for _, r := range phone[3:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// TruncateString shortens s to at most maxLen runes, appending "..." when
// truncated. Counting runes keeps multi-byte text (Devanagari and other
// Indic scripts) from being cut mid-character.
func TruncateString(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// StringPtr returns a pointer to s, for optional fields.
func StringPtr(s string) *string {
	return &s
}

// Float64Ptr returns a pointer to f, for optional fields.
func Float64Ptr(f float64) *float64 {
	return &f
}
