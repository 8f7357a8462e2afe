// Package sealer issues opaque manage tokens for guest bookings. A guest has
// no account, so the confirmation they receive carries a sealed token that
// lets them look up or cancel their appointment without authenticating.
package sealer

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	EnvSealerKey = "SEALER_KEY"

	// Development fallback. Deployments must set SEALER_KEY.
	defaultKey = "lfQVRuulcL2iOhOJ2r8BYTweoSKwVAJnIF9U+AL+M60="
)

func sealKey() ([]byte, error) {
	encoded := os.Getenv(EnvSealerKey)
	if encoded == "" {
		encoded = defaultKey
	}
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid sealer key: %w", err)
	}
	return key, nil
}

// SealManageToken binds an appointment ID to the guest contact it was booked
// with. The token is opaque and URL-safe.
func SealManageToken(appointmentID string, contact string) (string, error) {
	plaintext := []byte(appointmentID + ":" + contact)

	key, err := sealKey()
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aesgcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ct := aesgcm.Seal(nonce, nonce, plaintext, nil)
	return base64.RawURLEncoding.EncodeToString(ct), nil
}

// OpenManageToken recovers the appointment ID and guest contact from a
// token. Any tampering or truncation fails the AEAD open.
func OpenManageToken(token string) (string, string, error) {
	key, err := sealKey()
	if err != nil {
		return "", "", err
	}

	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", "", err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", "", err
	}

	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", "", err
	}

	nonceSize := aesgcm.NonceSize()
	if len(data) <= nonceSize {
		return "", "", fmt.Errorf("invalid token format")
	}
	nonce := data[:nonceSize]
	ciphertext := data[nonceSize:]

	pt, err := aesgcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", "", err
	}

	parts := strings.SplitN(string(pt), ":", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid token format")
	}

	return parts[0], parts[1], nil
}
