package util

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOTP(t *testing.T) {
	code := GenerateOTP()
	require.Len(t, code, 6)
	for _, r := range code {
		assert.True(t, r >= '0' && r <= '9')
	}
}

func TestHashAndCheckOTP(t *testing.T) {
	hash, err := HashOTP("482913")
	require.NoError(t, err)
	assert.NotEqual(t, "482913", hash)

	assert.True(t, CheckOTP("482913", hash))
	assert.False(t, CheckOTP("000000", hash))
}

func TestGenerateUUID(t *testing.T) {
	id := GenerateUUID()
	assert.Len(t, id, 32)
	assert.NotContains(t, id, "-")
	assert.NotEqual(t, id, GenerateUUID())
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"PM-KISAN Samman Nidhi":       "pm-kisan-samman-nidhi",
		"Ayushman Bharat (PM-JAY)":    "ayushman-bharat-pm-jay",
		"  Mid Day Meal  ":            "mid-day-meal",
		"Scheme 2024":                 "scheme-2024",
		"Beti Bachao, Beti Padhao!!!": "beti-bachao-beti-padhao",
	}
	for input, want := range cases {
		assert.Equal(t, want, Slugify(input), "input %q", input)
	}
}

func TestMaskAadhaar(t *testing.T) {
	assert.Equal(t, "****-****-9012", MaskAadhaar("345678889012"))
	assert.Equal(t, "****-****-9012", MaskAadhaar("3456 7888 9012"))
	assert.Equal(t, "****-****-****", MaskAadhaar("12"))
}

func TestIsValidPhone(t *testing.T) {
	assert.True(t, IsValidPhone("+919876543210"))
	assert.False(t, IsValidPhone("9876543210"))
	assert.False(t, IsValidPhone("+91987654321"))   // too short
	assert.False(t, IsValidPhone("+9198765432100")) // too long
	assert.False(t, IsValidPhone("+91abcdefghij"))
	assert.False(t, IsValidPhone("+129876543210"))
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", TruncateString("short", 10))
	assert.Equal(t, "exactly", TruncateString("exactly", 7))
	assert.Equal(t, "long te...", TruncateString("long text here", 10))
}

func TestTruncateStringKeepsMultiByteRunesIntact(t *testing.T) {
	// Devanagari runes are three bytes each; truncation must count runes,
	// not bytes, so the result stays valid UTF-8.
	long := strings.Repeat("योजना", 200)
	got := TruncateString(long, 500)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, 500, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, "..."))

	assert.Equal(t, long, TruncateString(long, 1000))
}
