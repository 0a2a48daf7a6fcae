package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"cashvault/internal/core/ports"
	"cashvault/pkg/apperror"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters for the device PIN hash.
const (
	argon2Time    = 1
	argon2Memory  = 64 * 1024 // 64MB
	argon2Threads = 4
	argon2KeyLen  = 32
	argon2SaltLen = 16

	minPinLength = 4
)

// PinServiceImpl implements ports.PinService using Argon2id. The PIN only
// gates the local API surface; it is not an encryption key and a forgotten
// PIN does not lock the data away.
type PinServiceImpl struct {
	pinRepo ports.PinRepository
}

// NewPinService creates a new PinServiceImpl.
func NewPinService(pinRepo ports.PinRepository) *PinServiceImpl {
	return &PinServiceImpl{pinRepo: pinRepo}
}

// SetPin hashes and stores the device PIN, replacing any previous one.
func (s *PinServiceImpl) SetPin(ctx context.Context, pin string) error {
	if len(pin) < minPinLength {
		return apperror.Validation(fmt.Sprintf("PIN must be at least %d characters", minPinLength))
	}
	hash, err := hashPin(pin)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("hashing pin: %w", err))
	}
	if err := s.pinRepo.SetPinHash(ctx, hash); err != nil {
		return apperror.ErrStorage(fmt.Errorf("store pin hash: %w", err))
	}
	return nil
}

// VerifyPin checks the PIN against the stored hash.
func (s *PinServiceImpl) VerifyPin(ctx context.Context, pin string) (bool, error) {
	encoded, err := s.pinRepo.GetPinHash(ctx)
	if err != nil {
		return false, apperror.ErrStorage(fmt.Errorf("load pin hash: %w", err))
	}
	if encoded == "" {
		return false, apperror.ErrPinNotSet()
	}
	ok, err := verifyPin(pin, encoded)
	if err != nil {
		return false, apperror.InternalError(fmt.Errorf("verifying pin: %w", err))
	}
	return ok, nil
}

// IsSet reports whether a PIN has been configured.
func (s *PinServiceImpl) IsSet(ctx context.Context) (bool, error) {
	encoded, err := s.pinRepo.GetPinHash(ctx)
	if err != nil {
		return false, apperror.ErrStorage(fmt.Errorf("load pin hash: %w", err))
	}
	return encoded != "", nil
}

// hashPin generates an Argon2id hash of the PIN.
// Returns format: $argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>
func hashPin(pin string) (string, error) {
	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	hash := argon2.IDKey([]byte(pin), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argon2Memory, argon2Time, argon2Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// verifyPin checks if a PIN matches the given Argon2id hash.
func verifyPin(pin string, encodedHash string) (bool, error) {
	salt, hash, params, err := decodeArgon2Hash(encodedHash)
	if err != nil {
		return false, err
	}

	otherHash := argon2.IDKey([]byte(pin), salt, params.time, params.memory, params.threads, params.keyLen)

	return subtle.ConstantTimeCompare(hash, otherHash) == 1, nil
}

type argon2Params struct {
	memory  uint32
	time    uint32
	threads uint8
	keyLen  uint32
}

// decodeArgon2Hash parses the encoded hash string.
func decodeArgon2Hash(encodedHash string) (salt, hash []byte, params argon2Params, err error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return nil, nil, params, fmt.Errorf("invalid hash format: expected 6 parts, got %d", len(parts))
	}

	if parts[1] != "argon2id" {
		return nil, nil, params, fmt.Errorf("unsupported algorithm: %s", parts[1])
	}

	var version int
	_, err = fmt.Sscanf(parts[2], "v=%d", &version)
	if err != nil {
		return nil, nil, params, fmt.Errorf("parsing version: %w", err)
	}

	_, err = fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.memory, &params.time, &params.threads)
	if err != nil {
		return nil, nil, params, fmt.Errorf("parsing params: %w", err)
	}

	salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, nil, params, fmt.Errorf("decoding salt: %w", err)
	}

	hash, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, nil, params, fmt.Errorf("decoding hash: %w", err)
	}

	params.keyLen = uint32(len(hash))

	return salt, hash, params, nil
}
