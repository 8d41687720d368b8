package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// HMACSignatureService implements ports.SignatureService using HMAC-SHA256
// with a shared secret. Both services hold the same secret: the payment
// service signs outbound webhook bodies, the subscription service verifies
// them.
type HMACSignatureService struct {
	secret []byte
}

// NewHMACSignatureService creates a new HMAC-SHA256 signature service.
func NewHMACSignatureService(secret string) *HMACSignatureService {
	return &HMACSignatureService{secret: []byte(secret)}
}

// Sign computes HMAC-SHA256 over the exact payload bytes.
// Returns the lowercase hex-encoded signature (64 characters).
func (s *HMACSignatureService) Sign(payload []byte) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks if signature matches HMAC-SHA256(secret, payload).
// Uses constant-time comparison to prevent timing attacks.
func (s *HMACSignatureService) Verify(payload []byte, signature string) bool {
	expected := s.Sign(payload)
	return hmac.Equal([]byte(expected), []byte(signature))
}
