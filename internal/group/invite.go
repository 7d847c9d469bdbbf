package group

import (
	"crypto/rand"
	"math/big"
	"strings"
)

const (
	inviteAlphabet   = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	inviteCodeLength = 8

	// maxInviteAttempts bounds the generate-check-insert loop
	maxInviteAttempts = 10
)

// CodeGenerator produces candidate invite codes
type CodeGenerator func() (string, error)

// GenerateInviteCode returns a random code without the look-alike symbols
// 0, O, 1 and I.
func GenerateInviteCode() (string, error) {
	var b strings.Builder
	b.Grow(inviteCodeLength)
	max := big.NewInt(int64(len(inviteAlphabet)))
	for i := 0; i < inviteCodeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(inviteAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// NormalizeInviteCode trims and upper-cases user input
func NormalizeInviteCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
