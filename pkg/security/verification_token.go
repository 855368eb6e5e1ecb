package security

import (
	"bitwise74/diapredict/pkg/util"
	"fmt"
)

// 128 bits of randomness
const tokenSize = 16

// MakeVerificationToken returns a new random token to be embedded in
// an email verification link
func MakeVerificationToken() (string, error) {
	token, err := util.GenerateToken(tokenSize)
	if err != nil {
		return "", fmt.Errorf("failed to generate verification token, %w", err)
	}

	return token, nil
}
