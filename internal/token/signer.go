package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
)

// Canonical signing payload. Field order is the wire contract: the signature
// is HMAC-SHA256 over exactly this JSON shape, so reordering or renaming the
// fields invalidates every token issued before the change.
type signedPayload struct {
	SessionID string `json:"sessionId"`
	Timestamp int64  `json:"timestamp"`
	ExpiresAt int64  `json:"expiresAt"`
}

// Signer computes and verifies HMAC-SHA256 tags over session token payloads.
// The key is loaded once at startup and never changes for the process
// lifetime.
type Signer struct {
	key []byte
}

// NewSigner fails when the secret key is empty. A missing key is a startup
// configuration error, not something to discover on the first request.
func NewSigner(secretKey string) (*Signer, error) {
	if secretKey == "" {
		return nil, errors.New("token signing secret key must not be empty")
	}

	return &Signer{key: []byte(secretKey)}, nil
}

// Sign returns the hex-encoded tag over {sessionId, timestamp, expiresAt}.
func (s *Signer) Sign(sessionID string, issuedAt int64, expiresAt int64) string {
	data, err := json.Marshal(signedPayload{
		SessionID: sessionID,
		Timestamp: issuedAt,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		// Marshalling a struct of string and int64 fields cannot fail
		panic(err)
	}

	mac := hmac.New(sha256.New, s.key)
	mac.Write(data)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify recomputes the tag and compares in constant time.
func (s *Signer) Verify(sessionID string, issuedAt int64, expiresAt int64, signature string) bool {
	expected := s.Sign(sessionID, issuedAt, expiresAt)
	return hmac.Equal([]byte(expected), []byte(signature))
}
