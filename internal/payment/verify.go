// Package payment reconciles externally-asserted payment results with the
// gateway shared secret, and creates payment intents against the gateway.
package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Verify checks that a payment callback was signed with the shared secret.
// The signed payload is "orderID|paymentID", the signature is hex-encoded
// HMAC-SHA256. The comparison is constant-time; any mismatch means the
// assertion is unverified, never partially valid.
func Verify(orderID, paymentID, signature, secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
