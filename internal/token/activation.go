package token

import (
	"errors"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/google/uuid"
)

var (
	ErrTokenInvalid = errors.New("invalid activation token")
	ErrTokenExpired = errors.New("activation token has expired")
)

// confirmClaim carries the identifier of the account awaiting activation.
const confirmClaim = "confirm"

// Codec issues and redeems activation tokens.
// Uses PASETO v4.local (symmetric encryption with XChaCha20-Poly1305), so
// validity is purely cryptographic plus time-based; nothing is stored
// server-side.
type Codec struct {
	symmetricKey paseto.V4SymmetricKey
	ttl          time.Duration
}

// NewCodec creates a Codec. The key must be exactly 32 bytes; ttl is the
// validity window stamped into every issued token.
func NewCodec(symmetricKey []byte, ttl time.Duration) (*Codec, error) {
	if len(symmetricKey) != 32 {
		return nil, fmt.Errorf("symmetric key must be exactly 32 bytes, got %d", len(symmetricKey))
	}

	key, err := paseto.V4SymmetricKeyFromBytes(symmetricKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create symmetric key: %w", err)
	}

	return &Codec{
		symmetricKey: key,
		ttl:          ttl,
	}, nil
}

// Issue generates an activation token for the given user.
func (c *Codec) Issue(userID uuid.UUID) (string, error) {
	now := time.Now()

	t := paseto.NewToken()
	t.SetIssuedAt(now)
	t.SetExpiration(now.Add(c.ttl))
	t.SetString(confirmClaim, userID.String())

	return t.V4Encrypt(c.symmetricKey, nil), nil
}

// Redeem validates an activation token and returns the embedded user ID.
// Returns ErrTokenExpired once the validity window has elapsed and
// ErrTokenInvalid for anything malformed or tampered with.
func (c *Codec) Redeem(tokenStr string) (uuid.UUID, error) {
	parser := paseto.NewParser()

	t, err := parser.ParseV4Local(c.symmetricKey, tokenStr, nil)
	if err != nil {
		// The parser checks expiration by default; rule errors mean the
		// token decrypted fine but a claim check (expiry) failed
		if errors.Is(err, &paseto.RuleError{}) {
			return uuid.Nil, ErrTokenExpired
		}
		return uuid.Nil, ErrTokenInvalid
	}

	idStr, err := t.GetString(confirmClaim)
	if err != nil {
		return uuid.Nil, ErrTokenInvalid
	}

	userID, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, ErrTokenInvalid
	}

	return userID, nil
}
