package paystack

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
)

var (
	ErrMissingSignature = errors.New("missing paystack signature")
	ErrInvalidSignature = errors.New("invalid paystack signature")
)

// VerifySignature validates the x-paystack-signature header against the raw
// request body: HMAC-SHA512 over the body keyed with the webhook secret,
// hex-encoded. Comparison is constant time.
func VerifySignature(secret, signature string, body []byte) error {
	if signature == "" {
		return ErrMissingSignature
	}

	mac := hmac.New(sha512.New, []byte(secret))
	_, _ = mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidSignature
	}

	return nil
}

// Sign computes the signature the gateway would attach to body. Used by tests
// and local webhook replays.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	_, _ = mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
