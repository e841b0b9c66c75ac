package random

import (
	"fmt"
	"strings"

	"github.com/pion/randutil"
)

const (
	CodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	CodeLength   = 6
)

// NewCode generates a room join code of CodeLength characters drawn from
// CodeAlphabet. Uniqueness among open rooms is the caller's concern.
func NewCode() (string, error) {
	code, err := randutil.GenerateCryptoRandomString(CodeLength, CodeAlphabet)
	if err != nil {
		return "", fmt.Errorf("could not generate room code: %w", err)
	}
	return code, nil
}

// NormalizeCode upper-cases user input so that codes typed in lower case
// still match.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsValidCode reports whether code has the join code format.
func IsValidCode(code string) bool {
	if len(code) != CodeLength {
		return false
	}
	for _, c := range code {
		if !strings.ContainsRune(CodeAlphabet, c) {
			return false
		}
	}
	return true
}
