package utils

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/mail"
	"unicode"
)

func DecodeBase64(s string) []byte {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil
	}
	return b
}

// DecodeBase64OrSentinel is for display paths only. Undecodable input yields
// the one byte sentinel {1}, which fails any later decrypt cleanly.
func DecodeBase64OrSentinel(s string) []byte {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil || len(b) == 0 {
		return []byte{1}
	}
	return b
}

func EncodeBase64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

func Rand(len int) ([]byte, error) {
	salt := make([]byte, len)
	if n, err := rand.Read(salt); err != nil || n != len {
		return nil, fmt.Errorf("failed to generate salt: %v", err)
	}
	return salt, nil
}

// VerifyPassFormat returns a recommendation, empty when pwd is fine.
func VerifyPassFormat(pwd []byte) string {
	if len(pwd) < 8 {
		return "Password must be at least 8 characters."
	}
	var upper, lower, digit bool
	for _, r := range string(pwd) {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper || !lower || !digit {
		return "Password needs upper case, lower case and a digit."
	}
	return ""
}

func VerifyEmailFormat(email string) string {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "Not a valid email address."
	}
	return ""
}
