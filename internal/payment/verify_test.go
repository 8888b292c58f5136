package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sign(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerify_ValidSignature(t *testing.T) {
	sig := sign("order_123", "pay_456", "topsecret")
	assert.True(t, Verify("order_123", "pay_456", sig, "topsecret"))
}

func TestVerify_WrongSecret(t *testing.T) {
	sig := sign("order_123", "pay_456", "topsecret")
	assert.False(t, Verify("order_123", "pay_456", sig, "othersecret"))
}

func TestVerify_MutatedInputs(t *testing.T) {
	sig := sign("order_123", "pay_456", "topsecret")

	// Flipping any single character of the triple must fail verification.
	assert.False(t, Verify("order_124", "pay_456", sig, "topsecret"), "mutated order id")
	assert.False(t, Verify("order_123", "pay_457", sig, "topsecret"), "mutated payment id")

	mutated := []byte(sig)
	if mutated[0] == 'a' {
		mutated[0] = 'b'
	} else {
		mutated[0] = 'a'
	}
	assert.False(t, Verify("order_123", "pay_456", string(mutated), "topsecret"), "mutated signature")
}

func TestVerify_SwappedPair(t *testing.T) {
	// The payload is delimiter-joined, so the pair is not symmetric.
	sig := sign("order_123", "pay_456", "topsecret")
	assert.False(t, Verify("pay_456", "order_123", sig, "topsecret"))
}

func TestVerify_EmptySignature(t *testing.T) {
	assert.False(t, Verify("order_123", "pay_456", "", "topsecret"))
}
