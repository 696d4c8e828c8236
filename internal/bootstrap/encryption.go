package bootstrap

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/hmcts/xui-gateway/config"
	"github.com/hmcts/xui-gateway/internal/adapters/securecookie"
)

// BuildCookieCodec creates the signer for the session cookie.
// Keys given as 64 hex characters are decoded; anything else is hashed to 32 bytes.
func BuildCookieCodec(cfg config.SessionConfig) (*securecookie.Codec, error) {
	codecCfg := securecookie.Config{
		HashKey: deriveKey(cfg.Secret),
		MaxAge:  cfg.CookieMaxAge,
	}
	if cfg.EncryptionKey != "" {
		codecCfg.BlockKey = []byte(cfg.EncryptionKey)
	}
	codec, err := securecookie.New(codecCfg)
	if err != nil {
		return nil, fmt.Errorf("build cookie codec: %w", err)
	}
	return codec, nil
}

func deriveKey(key string) []byte {
	if key == "" {
		return nil
	}
	// If the key is a hex string, decode it
	if decoded, err := hex.DecodeString(key); err == nil && len(decoded) == 32 {
		return decoded
	}
	// Otherwise, hash the key to get a 32-byte key
	hash := sha256.Sum256([]byte(key))
	return hash[:]
}
