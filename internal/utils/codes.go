package utils

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"math/big"

	"github.com/google/uuid"
)

// Code prefixes per entity type
const (
	EventCodePrefix  = "EVT"
	UserCodePrefix   = "USR"
	TicketCodePrefix = "ENT"
)

const (
	codeAlphabet     = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeSuffixLength = 6
)

// CodeGenerator produces short human-readable codes. Uniqueness is best
// effort: stores reject a taken code and callers draw another.
type CodeGenerator interface {
	NewCode(prefix string) (string, error)
}

// IDGenerator produces globally unique opaque identifiers.
type IDGenerator interface {
	NewID() string
}

// RandomCodeGenerator builds codes as PREFIX-XXXXXX from crypto/rand.
type RandomCodeGenerator struct{}

// NewCode generates a code with the given prefix
func (RandomCodeGenerator) NewCode(prefix string) (string, error) {
	suffix, err := RandomString(codeSuffixLength)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s", prefix, suffix), nil
}

// UUIDGenerator issues random (version 4) UUIDs.
type UUIDGenerator struct{}

// NewID returns a new UUID string
func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}

// RandomString returns n characters drawn uniformly from A-Z0-9.
func RandomString(n int) (string, error) {
	max := big.NewInt(int64(len(codeAlphabet)))
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate random code: %w", err)
		}
		out[i] = codeAlphabet[idx.Int64()]
	}
	return string(out), nil
}

// GenerateSecureToken generates a cryptographically secure random token
func GenerateSecureToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate secure token: %w", err)
	}
	return base64.URLEncoding.EncodeToString(bytes), nil
}
