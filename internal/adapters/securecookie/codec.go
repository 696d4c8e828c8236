// Package securecookie signs cookie values so the browser can carry the
// session id without being able to forge one.
package securecookie

import (
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/securecookie"
)

// ErrInvalidCookie is returned for tampered, expired or malformed values.
var ErrInvalidCookie = errors.New("invalid cookie value")

// Codec implements ports.CookieCodec with HMAC-SHA256 signatures and an
// optional AES block key.
type Codec struct {
	sc *securecookie.SecureCookie
}

// Config controls the codec keys and the maximum accepted cookie age.
type Config struct {
	HashKey  []byte
	BlockKey []byte // optional; 16, 24 or 32 bytes enables encryption
	MaxAge   time.Duration
}

// New validates keys and builds a codec.
func New(cfg Config) (*Codec, error) {
	if len(cfg.HashKey) == 0 {
		return nil, errors.New("cookie hash key is required")
	}
	switch len(cfg.BlockKey) {
	case 0, 16, 24, 32:
	default:
		return nil, fmt.Errorf("cookie block key must be 16, 24 or 32 bytes, got %d", len(cfg.BlockKey))
	}

	var block []byte
	if len(cfg.BlockKey) > 0 {
		block = cfg.BlockKey
	}
	sc := securecookie.New(cfg.HashKey, block)
	sc.SetSerializer(securecookie.JSONEncoder{})
	if cfg.MaxAge > 0 {
		sc.MaxAge(int(cfg.MaxAge / time.Second))
	}
	return &Codec{sc: sc}, nil
}

// Encode signs value for the cookie called name.
func (c *Codec) Encode(name, value string) (string, error) {
	out, err := c.sc.Encode(name, value)
	if err != nil {
		return "", fmt.Errorf("encode cookie %s: %w", name, err)
	}
	return out, nil
}

// Decode verifies encoded and returns the original value. The name must match
// the one used to encode, so a value cannot be replayed under another cookie.
func (c *Codec) Decode(name, encoded string) (string, error) {
	var value string
	if err := c.sc.Decode(name, encoded, &value); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidCookie, err)
	}
	return value, nil
}
