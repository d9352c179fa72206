package application

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"testing"

	domainerrors "cowbridge/contexts/booking-bridge/partner-sync-service/domain/errors"
)

func sign(secret, payload []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestWebhookVerifyValidSignature(t *testing.T) {
	secret := []byte("shared-secret")
	payload := []byte(`{"id":"1001"}`)
	verifier := WebhookVerifier{Secret: secret}

	if err := verifier.Verify(payload, sign(secret, payload)); err != nil {
		t.Fatalf("valid signature rejected: %v", err)
	}
}

func TestWebhookVerifyRejectsTamperedPayload(t *testing.T) {
	secret := []byte("shared-secret")
	verifier := WebhookVerifier{Secret: secret}
	signature := sign(secret, []byte(`{"id":"1001"}`))

	err := verifier.Verify([]byte(`{"id":"9999"}`), signature)
	if !errors.Is(err, domainerrors.ErrInvalidSignature) {
		t.Fatalf("expected invalid signature, got %v", err)
	}
}

func TestWebhookVerifyRejectsWrongSecret(t *testing.T) {
	payload := []byte(`{"id":"1001"}`)
	verifier := WebhookVerifier{Secret: []byte("right-secret")}
	signature := sign([]byte("wrong-secret"), payload)

	if err := verifier.Verify(payload, signature); !errors.Is(err, domainerrors.ErrInvalidSignature) {
		t.Fatalf("expected invalid signature, got %v", err)
	}
}

func TestWebhookVerifyRejectsMissingSignatureOrSecret(t *testing.T) {
	payload := []byte(`{"id":"1001"}`)

	if err := (WebhookVerifier{Secret: []byte("s")}).Verify(payload, ""); !errors.Is(err, domainerrors.ErrInvalidSignature) {
		t.Fatalf("expected invalid signature for empty header, got %v", err)
	}
	if err := (WebhookVerifier{}).Verify(payload, sign([]byte("s"), payload)); !errors.Is(err, domainerrors.ErrInvalidSignature) {
		t.Fatalf("expected invalid signature for missing secret, got %v", err)
	}
}

func TestWebhookVerifyRejectsMalformedBase64(t *testing.T) {
	verifier := WebhookVerifier{Secret: []byte("s")}
	if err := verifier.Verify([]byte("x"), "not-base64!!!"); !errors.Is(err, domainerrors.ErrInvalidSignature) {
		t.Fatalf("expected invalid signature for malformed encoding, got %v", err)
	}
}
