package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHMACSignatureService_SignAndVerify(t *testing.T) {
	svc := NewHMACSignatureService("my-secret-key")
	payload := []byte(`{"eventType":"payment.completed","paymentId":"pay_1","amount":19.99}`)

	signature := svc.Sign(payload)

	// Should be lowercase hex
	assert.Regexp(t, `^[0-9a-f]{64}$`, signature, "signature should be 64-char lowercase hex (SHA-256)")

	assert.True(t, svc.Verify(payload, signature))
}

func TestHMACSignatureService_VerifyFails_WrongKey(t *testing.T) {
	payload := []byte("test payload")

	signature := NewHMACSignatureService("correct-key").Sign(payload)
	assert.False(t, NewHMACSignatureService("wrong-key").Verify(payload, signature))
}

func TestHMACSignatureService_VerifyFails_WrongPayload(t *testing.T) {
	svc := NewHMACSignatureService("my-key")

	signature := svc.Sign([]byte("original payload"))
	assert.False(t, svc.Verify([]byte("tampered payload"), signature))
}

func TestHMACSignatureService_VerifyFails_WrongSignature(t *testing.T) {
	svc := NewHMACSignatureService("key")
	assert.False(t, svc.Verify([]byte("payload"), "invalidsignature"))
}

func TestHMACSignatureService_DeterministicSign(t *testing.T) {
	svc := NewHMACSignatureService("key")

	sig1 := svc.Sign([]byte("data"))
	sig2 := svc.Sign([]byte("data"))

	assert.Equal(t, sig1, sig2, "same key+payload should produce same signature")
}

func TestHMACSignatureService_FieldChangeAltersSignature(t *testing.T) {
	svc := NewHMACSignatureService("key")

	base := svc.Sign([]byte(`{"paymentId":"pay_1","amount":19.99}`))
	changedID := svc.Sign([]byte(`{"paymentId":"pay_2","amount":19.99}`))
	changedAmount := svc.Sign([]byte(`{"paymentId":"pay_1","amount":20.00}`))

	assert.NotEqual(t, base, changedID)
	assert.NotEqual(t, base, changedAmount)
}

func TestHMACSignatureService_EmptyPayload(t *testing.T) {
	svc := NewHMACSignatureService("key")

	signature := svc.Sign(nil)
	assert.Regexp(t, `^[0-9a-f]{64}$`, signature)
	assert.True(t, svc.Verify(nil, signature))
}
