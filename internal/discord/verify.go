package discord

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Signature header names sent with every interaction request.
const (
	HeaderSignature = "X-Signature-Ed25519"
	HeaderTimestamp = "X-Signature-Timestamp"
)

// ParsePublicKey decodes a hex-encoded ed25519 application public key.
func ParsePublicKey(raw string) (ed25519.PublicKey, error) {
	decoded, err := hex.DecodeString(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("decode public key: %w", err)
	}
	if len(decoded) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("public key must be %d bytes, got %d", ed25519.PublicKeySize, len(decoded))
	}
	return ed25519.PublicKey(decoded), nil
}

// Verify checks an interaction signature over timestamp+body.
func Verify(key ed25519.PublicKey, signature, timestamp string, body []byte) error {
	if len(key) != ed25519.PublicKeySize {
		return errors.New("public key is not configured")
	}
	if signature == "" || timestamp == "" {
		return errors.New("missing signature headers")
	}
	sig, err := hex.DecodeString(signature)
	if err != nil {
		return fmt.Errorf("decode signature: %w", err)
	}
	if len(sig) != ed25519.SignatureSize {
		return errors.New("signature has invalid length")
	}
	message := make([]byte, 0, len(timestamp)+len(body))
	message = append(message, timestamp...)
	message = append(message, body...)
	if !ed25519.Verify(key, message, sig) {
		return errors.New("signature mismatch")
	}
	return nil
}
