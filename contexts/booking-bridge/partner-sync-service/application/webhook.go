package application

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"

	domainerrors "cowbridge/contexts/booking-bridge/partner-sync-service/domain/errors"
)

// WebhookVerifier checks the keyed-hash signature a webhook sender computes
// over the raw payload bytes. Verification happens before the payload is
// parsed; a mismatch rejects the delivery outright.
type WebhookVerifier struct {
	Secret []byte
}

// Verify compares the base64-encoded HMAC-SHA256 of the payload against the
// provided signature in constant time.
func (v WebhookVerifier) Verify(payload []byte, signature string) error {
	signature = strings.TrimSpace(signature)
	if signature == "" || len(v.Secret) == 0 {
		return domainerrors.ErrInvalidSignature
	}
	provided, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return domainerrors.ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, v.Secret)
	mac.Write(payload)
	if !hmac.Equal(provided, mac.Sum(nil)) {
		return domainerrors.ErrInvalidSignature
	}
	return nil
}
